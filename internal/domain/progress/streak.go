package progress

import (
	"sort"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (серия активных календарных дней)
// ══════════════════════════════════════════════════════════════════════════════

// StreakState - производное состояние стрика студента. "День" - календарная
// дата в таймзоне студента (UTC по умолчанию).
type StreakState struct {
	// StudentID - идентификатор студента.
	StudentID shared.StudentID `json:"student_id"`

	// CurrentStreakDays - текущая серия подряд идущих активных дней.
	// Серия жива, пока последний активный день - сегодня или вчера;
	// если он старше вчерашнего, серия равна 0.
	CurrentStreakDays int `json:"current_streak_days"`

	// LongestStreakDays - самая длинная серия за всю историю.
	LongestStreakDays int `json:"longest_streak_days"`

	// LastActiveDay - начало последнего активного дня (в таймзоне студента).
	LastActiveDay time.Time `json:"last_active_day,omitempty"`
}

// ComputeStreak сворачивает отметки активности журнала в стрик.
//
// Алгоритм: собрать различные календарные дни, в которые у студента была
// хоть одна активность (LastUpdatedAt или CompletedAt записи), отсортировать
// и пройти по сериям подряд идущих дней. Самая длинная серия где угодно в
// истории - LongestStreakDays; серия, заканчивающаяся сегодня или вчера -
// CurrentStreakDays. Два вызова с одинаковым журналом и одинаковым now
// обязаны дать одинаковый результат: "сейчас" - явный параметр.
func ComputeStreak(
	studentID shared.StudentID,
	records []*completion.CompletionRecord,
	loc *time.Location,
	now time.Time,
) StreakState {
	if loc == nil {
		loc = timeutil.DefaultLocation
	}

	state := StreakState{StudentID: studentID}

	seen := make(map[string]time.Time)
	for _, rec := range records {
		for _, t := range rec.ActivityTimes() {
			key := timeutil.DayKey(t, loc)
			if _, ok := seen[key]; !ok {
				seen[key] = timeutil.StartOfDay(t, loc)
			}
		}
	}

	if len(seen) == 0 {
		return state
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if timeutil.ConsecutiveDays(days[i-1], days[i], loc) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	state.LongestStreakDays = longest

	lastDay := days[len(days)-1]
	state.LastActiveDay = lastDay

	// Текущая серия - хвостовая, и только если она ещё жива:
	// последний активный день - сегодня или вчера.
	if timeutil.IsToday(lastDay, now, loc) || timeutil.IsYesterday(lastDay, now, loc) {
		current := 1
		for i := len(days) - 1; i > 0; i-- {
			if timeutil.ConsecutiveDays(days[i-1], days[i], loc) {
				current++
			} else {
				break
			}
		}
		state.CurrentStreakDays = current
	}

	return state
}
