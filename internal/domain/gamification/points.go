// Package gamification содержит очки, уровни и бейджи студента.
// Очки - НЕ инкрементируемый счётчик: это свёртка append-only журнала
// событий начисления. Повторное проигрывание журнала всегда даёт ту же
// сумму, тот же уровень и тот же набор бейджей.
package gamification

import (
	"time"

	"github.com/google/uuid"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POINT EVENTS (журнал начислений)
// ══════════════════════════════════════════════════════════════════════════════

// PointReason - причина начисления очков.
type PointReason string

const (
	// ReasonLessonCompleted - урок впервые дошёл до 100%.
	ReasonLessonCompleted PointReason = "lesson_completed"

	// ReasonQuizPassed - квиз впервые сдан на проходной балл.
	ReasonQuizPassed PointReason = "quiz_passed"

	// ReasonBadgeUnlocked - бонус за открытый бейдж.
	ReasonBadgeUnlocked PointReason = "badge_unlocked"
)

// IsValid проверяет, что причина известна.
func (r PointReason) IsValid() bool {
	switch r {
	case ReasonLessonCompleted, ReasonQuizPassed, ReasonBadgeUnlocked:
		return true
	}
	return false
}

// PointEvent - одна запись журнала начислений. Журнал append-only:
// записи не изменяются и не удаляются. Идемпотентность обеспечивается
// уникальностью тройки (студент, причина, источник): повторный переход
// "урок завершён" по тому же уроку второй записи не создаёт.
type PointEvent struct {
	ID        uuid.UUID        `json:"id"`
	StudentID shared.StudentID `json:"student_id"`
	Reason    PointReason      `json:"reason"`

	// SourceID - идентификатор источника начисления: урок для
	// lesson_completed и quiz_passed, тип бейджа для badge_unlocked.
	SourceID string `json:"source_id"`

	Points     int       `json:"points"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewPointEvent создаёт запись начисления. Отрицательные начисления
// журналом не поддерживаются.
func NewPointEvent(studentID shared.StudentID, reason PointReason, sourceID string, points int, now time.Time) (*PointEvent, error) {
	if !studentID.IsValid() {
		return nil, shared.ErrInvalidStudent
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("gamification", "new_point_event", shared.ErrValidation, "unknown point reason")
	}
	if sourceID == "" {
		return nil, shared.NewDomainError("gamification", "new_point_event", shared.ErrValidation, "empty source id")
	}
	if points < 0 {
		return nil, shared.NewDomainError("gamification", "new_point_event", shared.ErrNegativeValue, "negative points")
	}

	return &PointEvent{
		ID:         uuid.New(),
		StudentID:  studentID,
		Reason:     reason,
		SourceID:   sourceID,
		Points:     points,
		OccurredAt: now.UTC(),
	}, nil
}

// TotalPoints - свёртка журнала в сумму очков.
func TotalPoints(events []*PointEvent) int {
	total := 0
	for _, e := range events {
		total += e.Points
	}
	return total
}

// PointsConfig - размеры начислений. Значения конфигурируемы; дефолты
// ниже используются, когда конфигурация молчит.
type PointsConfig struct {
	// LessonCompletionPoints - за первый переход урока в COMPLETED.
	LessonCompletionPoints int

	// QuizPassPoints - за первую сдачу квиза на проходной балл.
	QuizPassPoints int

	// QuizPassScoreThreshold - проходной балл квиза (включительно).
	QuizPassScoreThreshold int
}

// DefaultPointsConfig возвращает стандартные размеры начислений.
func DefaultPointsConfig() PointsConfig {
	return PointsConfig{
		LessonCompletionPoints: 50,
		QuizPassPoints:         25,
		QuizPassScoreThreshold: 70,
	}
}

// Validate проверяет конфигурацию начислений.
func (c PointsConfig) Validate() error {
	if c.LessonCompletionPoints < 0 || c.QuizPassPoints < 0 {
		return shared.NewDomainError("gamification", "points_config", shared.ErrNegativeValue, "negative point award")
	}
	if c.QuizPassScoreThreshold < 0 || c.QuizPassScoreThreshold > 100 {
		return shared.NewDomainError("gamification", "points_config", shared.ErrValidation, "quiz pass threshold out of range")
	}
	return nil
}
