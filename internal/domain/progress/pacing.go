package progress

import (
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PACING (ожидаемый против фактического прогресса)
// ══════════════════════════════════════════════════════════════════════════════

// PacingStatus - трёхзначный статус темпа прохождения.
type PacingStatus string

const (
	// PacingAhead - студент опережает ожидаемый темп.
	PacingAhead PacingStatus = "AHEAD"

	// PacingOnTrack - студент идёт в ожидаемом темпе.
	PacingOnTrack PacingStatus = "ON_TRACK"

	// PacingBehind - студент отстаёт от ожидаемого темпа.
	PacingBehind PacingStatus = "BEHIND"
)

// PacingThresholds - пороги отклонения для статуса. Конфигурация, а не
// магические константы: продукт может их перенастроить.
type PacingThresholds struct {
	// Ahead - отклонение строго больше этого значения даёт AHEAD.
	Ahead float64

	// Behind - отклонение строго меньше этого значения даёт BEHIND.
	Behind float64
}

// DefaultPacingThresholds возвращает пороги по умолчанию (+/- 5 процентных пунктов).
func DefaultPacingThresholds() PacingThresholds {
	return PacingThresholds{Ahead: 5, Behind: -5}
}

// PacingResult - производный результат пейсинга. Эфемерный: вычисляется
// на чтении и нигде не хранится.
type PacingResult struct {
	// ExpectedPercentage - ожидаемый прогресс по прошедшему времени (0-100).
	ExpectedPercentage float64 `json:"expected_percentage"`

	// ActualPercentage - фактический прогресс по журналу (0-100).
	ActualPercentage float64 `json:"actual_percentage"`

	// Deviation - actual - expected, в процентных пунктах.
	Deviation float64 `json:"deviation"`

	// Status - AHEAD / ON_TRACK / BEHIND.
	Status PacingStatus `json:"status"`

	// DaysElapsed - дней с момента зачисления (>= 0).
	DaysElapsed int `json:"days_elapsed"`

	// DaysRemaining - дней до конца целевого окна (>= 0).
	DaysRemaining int `json:"days_remaining"`
}

// ComputePacing сравнивает фактический прогресс с линейным ожиданием по
// окну зачисления. "Сейчас" передаётся явно - функция детерминирована.
//
// Краевые случаи закреплены конвенциями, а не исключениями:
//   - TargetDurationDays <= 0: ожидание равно 100 (курс уже должен быть
//     завершён), деления на ноль нет;
//   - DaysElapsed за пределами окна: ожидание зажато на 100, поэтому
//     опоздавший студент остаётся BEHIND до фактических 100%, но никогда
//     не становится AHEAD.
func ComputePacing(
	enrollment catalog.EnrollmentWindow,
	actualPercentage float64,
	now time.Time,
	thresholds PacingThresholds,
) PacingResult {
	daysElapsed := timeutil.DaysSince(enrollment.EnrolledAt, now, time.UTC)

	var expected float64
	if enrollment.TargetDurationDays <= 0 {
		expected = 100
	} else {
		expected = float64(daysElapsed) / float64(enrollment.TargetDurationDays) * 100
		if expected > 100 {
			expected = 100
		}
	}

	daysRemaining := 0
	if enrollment.TargetDurationDays > daysElapsed {
		daysRemaining = enrollment.TargetDurationDays - daysElapsed
	}

	deviation := actualPercentage - expected

	status := PacingOnTrack
	switch {
	case deviation > thresholds.Ahead:
		status = PacingAhead
	case deviation < thresholds.Behind:
		status = PacingBehind
	}

	return PacingResult{
		ExpectedPercentage: expected,
		ActualPercentage:   actualPercentage,
		Deviation:          deviation,
		Status:             status,
		DaysElapsed:        daysElapsed,
		DaysRemaining:      daysRemaining,
	}
}
