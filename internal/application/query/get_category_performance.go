package query

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CATEGORY PERFORMANCE QUERY
// Сводка по категориям курсов студента. Падение одного курса не валит
// остальные: курс пропускается с предупреждением.
// ══════════════════════════════════════════════════════════════════════════════

// GetCategoryPerformanceQuery содержит параметры запроса.
type GetCategoryPerformanceQuery struct {
	// StudentID - идентификатор студента.
	StudentID string
}

// Validate проверяет параметры.
func (q GetCategoryPerformanceQuery) Validate() error {
	_, err := shared.NewStudentID(q.StudentID)
	return err
}

// GetCategoryPerformanceResult содержит результат.
type GetCategoryPerformanceResult struct {
	// Categories - сводки по категориям, отсортированы по имени.
	Categories []progress.CategoryPerformance `json:"categories"`

	// Warnings - курсы, выпавшие из агрегации.
	Warnings []shared.Warning `json:"warnings,omitempty"`

	// GeneratedAt - момент вычисления.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCategoryPerformanceHandler обрабатывает запрос сводки по категориям.
type GetCategoryPerformanceHandler struct {
	completionRepo completion.Repository
	resolver       catalog.Resolver
}

// NewGetCategoryPerformanceHandler создаёт обработчик.
func NewGetCategoryPerformanceHandler(
	completionRepo completion.Repository,
	resolver catalog.Resolver,
) *GetCategoryPerformanceHandler {
	return &GetCategoryPerformanceHandler{
		completionRepo: completionRepo,
		resolver:       resolver,
	}
}

// Handle выполняет запрос.
func (h *GetCategoryPerformanceHandler) Handle(ctx context.Context, query GetCategoryPerformanceQuery) (*GetCategoryPerformanceResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCategoryPerformance", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	enrollments, err := h.resolver.ListEnrollments(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCategoryPerformance", shared.ErrServiceUnavailable, "enrollments unavailable", err)
	}

	records, err := h.completionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCategoryPerformance", shared.ErrInvalidState, "ledger read failed", err)
	}

	result := &GetCategoryPerformanceResult{GeneratedAt: time.Now().UTC()}

	summaries := make([]progress.CourseSummary, 0, len(enrollments))
	for _, enr := range enrollments {
		summary, warn := h.summarizeCourse(ctx, studentID, enr.CourseID, records)
		if warn != nil {
			result.Warnings = append(result.Warnings, *warn)
			continue
		}
		summaries = append(summaries, summary)
	}

	result.Categories = progress.ComputeCategoryPerformance(studentID, summaries)
	return result, nil
}

// summarizeCourse сворачивает один курс в CourseSummary. Недоступная
// структура или категория курса дают предупреждение вместо ошибки.
func (h *GetCategoryPerformanceHandler) summarizeCourse(
	ctx context.Context,
	studentID shared.StudentID,
	courseID shared.CourseID,
	records []*completion.CompletionRecord,
) (progress.CourseSummary, *shared.Warning) {
	lessons, err := h.resolver.ListLessonsForCourse(ctx, courseID)
	if err != nil {
		warn := shared.NewWarning(shared.WarnPartialResult, courseID.String(), "course structure unavailable, excluded from category totals")
		return progress.CourseSummary{}, &warn
	}

	category, err := h.resolver.GetCourseCategory(ctx, courseID)
	if err != nil {
		warn := shared.NewWarning(shared.WarnPartialResult, courseID.String(), "course category unavailable, excluded from category totals")
		return progress.CourseSummary{}, &warn
	}

	courseProgress := progress.ComputeCourseProgress(studentID, courseID, lessons, records)

	inCourse := make(map[shared.LessonID]bool, len(lessons))
	for _, id := range lessons {
		inCourse[id] = true
	}

	summary := progress.CourseSummary{
		CourseID:         courseID,
		Category:         category,
		Percentage:       courseProgress.Percentage,
		Completed:        courseProgress.IsCompleted(),
		TimeSpentMinutes: courseProgress.TotalTimeSpentMinutes,
	}

	for _, rec := range records {
		if inCourse[rec.LessonID] && rec.BestQuizScore != nil {
			summary.QuizScoreSum += *rec.BestQuizScore
			summary.QuizScoreCount++
		}
	}

	return summary, nil
}
