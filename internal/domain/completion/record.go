// Package completion содержит доменную модель журнала прохождения уроков.
// Это ядро write-path: одна запись на пару (студент, урок), слияние
// повторных отчётов коммутативно и ассоциативно, поэтому порядок
// конкурентных записей не влияет на итоговое состояние.
package completion

import (
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status представляет состояние прохождения урока.
type Status string

const (
	// StatusNotStarted - урок не начат.
	StatusNotStarted Status = "NOT_STARTED"

	// StatusInProgress - урок начат, но не завершён.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusCompleted - урок завершён (прогресс достиг 100%).
	StatusCompleted Status = "COMPLETED"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// statusFor вычисляет статус из процента прогресса.
func statusFor(progress float64) Status {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT (входящий отчёт о прогрессе)
// ══════════════════════════════════════════════════════════════════════════════

// Report - один отчёт плеера уроков о прогрессе студента.
// ProgressPercentage - абсолютное значение (не дельта): слияние берёт максимум,
// поэтому повторная отправка того же отчёта ничего не меняет.
// TimeSpentDeltaMinutes - аддитивная дельта; отрицательные значения отклоняются,
// а не обрезаются, чтобы всплывали ошибки клиентов.
type Report struct {
	// ProgressPercentage - заявленный прогресс (0-100).
	ProgressPercentage float64

	// TimeSpentDeltaMinutes - сколько минут добавить к накопленному времени.
	TimeSpentDeltaMinutes int

	// QuizScore - результат квиза (0-100), nil если квиза не было.
	QuizScore *int

	// Timestamp - когда произошёл прогресс. Ноль = "сейчас" на стороне хендлера.
	Timestamp time.Time
}

// Validate проверяет отчёт. Невалидный отчёт отклоняется целиком,
// частичное применение недопустимо.
func (r Report) Validate() error {
	if r.ProgressPercentage < 0 || r.ProgressPercentage > 100 {
		return shared.ErrProgressOutOfRange
	}
	if r.TimeSpentDeltaMinutes < 0 {
		return shared.ErrNegativeTimeDelta
	}
	if r.QuizScore != nil && (*r.QuizScore < 0 || *r.QuizScore > 100) {
		return shared.ErrQuizScoreOutOfRange
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION RECORD
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecord - факт прохождения одного урока одним студентом.
// Идентичность записи - пара (StudentID, LessonID), уникальность
// обеспечивается хранилищем. Запись создаётся при первом отчёте и
// никогда не удаляется (кроме явного административного сброса).
type CompletionRecord struct {
	// ID - суррогатный идентификатор строки.
	ID string

	// StudentID - идентификатор студента.
	StudentID shared.StudentID

	// LessonID - идентификатор урока.
	LessonID shared.LessonID

	// ModuleID - модуль урока на момент записи (снимок, может быть пустым
	// при неразрешимой ссылке). Агрегация по текущей структуре курса его
	// не использует, но он позволяет отнести время "осиротевших" уроков
	// к курсу в исторических суммах.
	ModuleID shared.ModuleID

	// CourseID - курс урока на момент записи (снимок, может быть пустым).
	CourseID shared.CourseID

	// Status - текущее состояние прохождения.
	Status Status

	// ProgressPercentage - прогресс 0-100, монотонно неубывающий.
	ProgressPercentage float64

	// TimeSpentMinutes - накопленное время, неотрицательное.
	TimeSpentMinutes int

	// BestQuizScore - лучший результат квиза, nil если квизов не было.
	BestQuizScore *int

	// FirstStartedAt - время первого отчёта.
	FirstStartedAt time.Time

	// CompletedAt - время первого достижения 100%. Устанавливается ровно
	// один раз и никогда не перезаписывается: это защищает целостность
	// стриков от повторных и опоздавших отчётов.
	CompletedAt *time.Time

	// LastUpdatedAt - время последнего принятого отчёта.
	LastUpdatedAt time.Time
}

// NewRecord создаёт запись для первого отчёта по уроку.
func NewRecord(id string, studentID shared.StudentID, lessonID shared.LessonID, now time.Time) *CompletionRecord {
	return &CompletionRecord{
		ID:             id,
		StudentID:      studentID,
		LessonID:       lessonID,
		Status:         StatusNotStarted,
		FirstStartedAt: now,
		LastUpdatedAt:  now,
	}
}

// Outcome описывает, что изменил применённый отчёт. Нужен write-path'у,
// чтобы начислять очки только на переходах, а не на каждом повторе.
type Outcome struct {
	// FirstCompletion - прогресс впервые достиг 100%.
	FirstCompletion bool

	// QuizImproved - лучший результат квиза вырос.
	QuizImproved bool

	// Changed - запись вообще изменилась (прогресс, время или квиз).
	Changed bool
}

// Apply сливает отчёт в запись. Слияние по построению коммутативно и
// ассоциативно: max для прогресса и квиза, сумма для неотрицательных
// дельт времени. Две конкурентные записи, сериализованные хранилищем
// в любом порядке, дают одинаковый результат.
func (c *CompletionRecord) Apply(report Report, now time.Time) (Outcome, error) {
	if err := report.Validate(); err != nil {
		return Outcome{}, err
	}

	var out Outcome

	if report.ProgressPercentage > c.ProgressPercentage {
		c.ProgressPercentage = report.ProgressPercentage
		out.Changed = true
	}

	if report.TimeSpentDeltaMinutes > 0 {
		c.TimeSpentMinutes += report.TimeSpentDeltaMinutes
		out.Changed = true
	}

	if report.QuizScore != nil {
		if c.BestQuizScore == nil || *report.QuizScore > *c.BestQuizScore {
			score := *report.QuizScore
			c.BestQuizScore = &score
			out.QuizImproved = true
			out.Changed = true
		}
	}

	c.Status = statusFor(c.ProgressPercentage)

	if c.Status == StatusCompleted && c.CompletedAt == nil {
		completedAt := now
		if !report.Timestamp.IsZero() {
			completedAt = report.Timestamp
		}
		c.CompletedAt = &completedAt
		out.FirstCompletion = true
	}

	if out.Changed || c.LastUpdatedAt.Before(now) {
		c.LastUpdatedAt = now
	}

	return out, nil
}

// AttachHierarchy записывает снимок принадлежности урока. Пустые значения
// означают, что ссылка не разрешилась - это не ошибка.
func (c *CompletionRecord) AttachHierarchy(moduleID shared.ModuleID, courseID shared.CourseID) {
	if moduleID != "" {
		c.ModuleID = moduleID
	}
	if courseID != "" {
		c.CourseID = courseID
	}
}

// IsCompleted возвращает true, если урок завершён.
func (c *CompletionRecord) IsCompleted() bool {
	return c.Status == StatusCompleted
}

// ActivityTimes возвращает отметки времени, которые считаются активностью
// для стрика: последнее обновление и момент завершения.
func (c *CompletionRecord) ActivityTimes() []time.Time {
	times := make([]time.Time, 0, 2)
	if !c.LastUpdatedAt.IsZero() {
		times = append(times, c.LastUpdatedAt)
	}
	if c.CompletedAt != nil {
		times = append(times, *c.CompletedAt)
	}
	return times
}
