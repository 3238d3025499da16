package query

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
	"github.com/eduhub/eduhub-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STREAK QUERY
// Серия активных календарных дней. День считается в таймзоне студента;
// без профиля или таймзоны - UTC.
// ══════════════════════════════════════════════════════════════════════════════

// GetStreakQuery содержит параметры запроса.
type GetStreakQuery struct {
	// StudentID - идентификатор студента.
	StudentID string

	// Now - момент оценки (ноль = сейчас).
	Now time.Time
}

// Validate проверяет параметры и подставляет "сейчас".
func (q *GetStreakQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// GetStreakResult содержит результат.
type GetStreakResult struct {
	// Streak - состояние серии.
	Streak progress.StreakState `json:"streak"`

	// Timezone - таймзона, в которой считались дни.
	Timezone string `json:"timezone"`

	// GeneratedAt - момент оценки.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStreakHandler обрабатывает запрос серии.
type GetStreakHandler struct {
	completionRepo completion.Repository
	profileRepo    student.Repository
}

// NewGetStreakHandler создаёт обработчик. profileRepo может быть nil -
// тогда дни считаются в UTC.
func NewGetStreakHandler(completionRepo completion.Repository, profileRepo student.Repository) *GetStreakHandler {
	return &GetStreakHandler{
		completionRepo: completionRepo,
		profileRepo:    profileRepo,
	}
}

// Handle выполняет запрос.
func (h *GetStreakHandler) Handle(ctx context.Context, query GetStreakQuery) (*GetStreakResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStreak", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	loc := timeutil.DefaultLocation
	if h.profileRepo != nil {
		if profile, err := h.profileRepo.FindByID(ctx, studentID); err == nil {
			loc = profile.Location()
		}
	}

	records, err := h.completionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetStreak", shared.ErrInvalidState, "ledger read failed", err)
	}

	return &GetStreakResult{
		Streak:      progress.ComputeStreak(studentID, records, loc, query.Now),
		Timezone:    loc.String(),
		GeneratedAt: query.Now,
	}, nil
}
