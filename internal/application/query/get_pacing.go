package query

import (
	"context"
	"errors"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PACING QUERY
// Сравнение фактического прогресса студента с ожидаемым по окну
// зачисления. "Сейчас" - явный параметр: один и тот же запрос в один и
// тот же момент всегда даёт один ответ.
// ══════════════════════════════════════════════════════════════════════════════

// GetPacingQuery содержит параметры запроса.
type GetPacingQuery struct {
	// StudentID - идентификатор студента.
	StudentID string

	// CourseID - идентификатор курса.
	CourseID string

	// Now - момент оценки (ноль = сейчас).
	Now time.Time
}

// Validate проверяет параметры и подставляет "сейчас".
func (q *GetPacingQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	if q.CourseID == "" {
		return shared.ErrCourseNotFound
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// GetPacingResult содержит результат.
type GetPacingResult struct {
	// Pacing - оценка темпа.
	Pacing progress.PacingResult `json:"pacing"`

	// Progress - фактический прогресс, против которого считался темп.
	Progress progress.CourseProgress `json:"progress"`

	// GeneratedAt - момент оценки.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetPacingHandler обрабатывает запрос темпа.
type GetPacingHandler struct {
	completionRepo completion.Repository
	resolver       catalog.Resolver
	thresholds     progress.PacingThresholds
}

// NewGetPacingHandler создаёт обработчик.
func NewGetPacingHandler(
	completionRepo completion.Repository,
	resolver catalog.Resolver,
	thresholds progress.PacingThresholds,
) *GetPacingHandler {
	if thresholds == (progress.PacingThresholds{}) {
		thresholds = progress.DefaultPacingThresholds()
	}
	return &GetPacingHandler{
		completionRepo: completionRepo,
		resolver:       resolver,
		thresholds:     thresholds,
	}
}

// Handle выполняет запрос.
func (h *GetPacingHandler) Handle(ctx context.Context, query GetPacingQuery) (*GetPacingResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetPacing", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)
	courseID := shared.CourseID(query.CourseID)

	enrollment, err := h.resolver.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrEnrollmentNotFound
		}
		return nil, shared.WrapError("query", "GetPacing", shared.ErrServiceUnavailable, "enrollment lookup failed", err)
	}

	lessons, err := h.resolver.ListLessonsForCourse(ctx, courseID)
	if err != nil {
		return nil, shared.WrapError("query", "GetPacing", shared.ErrServiceUnavailable, "course structure unavailable", err)
	}

	records, err := h.completionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetPacing", shared.ErrInvalidState, "ledger read failed", err)
	}

	courseProgress := progress.ComputeCourseProgress(studentID, courseID, lessons, records)
	pacing := progress.ComputePacing(*enrollment, courseProgress.Percentage, query.Now, h.thresholds)

	return &GetPacingResult{
		Pacing:      pacing,
		Progress:    courseProgress,
		GeneratedAt: query.Now,
	}, nil
}
