package query

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
	"github.com/eduhub/eduhub-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Композитный read model: всё, что видит студент на главном экране.
// Частичные результаты - норма: выпавший курс или лежащий каталог дают
// предупреждение в ответе, а не пятисотку.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery содержит параметры запроса.
type GetDashboardQuery struct {
	// StudentID - идентификатор студента.
	StudentID string

	// Now - момент оценки (ноль = сейчас).
	Now time.Time
}

// Validate проверяет параметры и подставляет "сейчас".
func (q *GetDashboardQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// CourseDashboardDTO - один курс на дашборде: прогресс плюс темп.
type CourseDashboardDTO struct {
	Progress progress.CourseProgress `json:"progress"`
	Pacing   *progress.PacingResult  `json:"pacing,omitempty"`
}

// GetDashboardResult содержит результат.
type GetDashboardResult struct {
	// StudentID - идентификатор студента.
	StudentID string `json:"student_id"`

	// DisplayName - имя студента (если профиль есть).
	DisplayName string `json:"display_name,omitempty"`

	// Courses - прогресс и темп по каждому зачислению.
	Courses []CourseDashboardDTO `json:"courses"`

	// Streak - серия активных дней.
	Streak progress.StreakState `json:"streak"`

	// Gamification - очки, уровень, бейджи.
	Gamification gamification.Profile `json:"gamification"`

	// Categories - сводка по категориям.
	Categories []progress.CategoryPerformance `json:"categories"`

	// Warnings - всё, что не удалось посчитать полностью.
	Warnings []shared.Warning `json:"warnings,omitempty"`

	// GeneratedAt - момент сборки.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetDashboardHandler собирает дашборд из остальных read-путей.
type GetDashboardHandler struct {
	completionRepo completion.Repository
	resolver       catalog.Resolver
	pointRepo      gamification.PointEventRepository
	badgeRepo      gamification.BadgeRepository
	profileRepo    student.Repository
	thresholds     progress.PacingThresholds
	curve          gamification.LevelCurve
	log            *logger.Logger
}

// NewGetDashboardHandler создаёт обработчик. profileRepo может быть nil.
func NewGetDashboardHandler(
	completionRepo completion.Repository,
	resolver catalog.Resolver,
	pointRepo gamification.PointEventRepository,
	badgeRepo gamification.BadgeRepository,
	profileRepo student.Repository,
	thresholds progress.PacingThresholds,
	curve gamification.LevelCurve,
	log *logger.Logger,
) *GetDashboardHandler {
	if thresholds == (progress.PacingThresholds{}) {
		thresholds = progress.DefaultPacingThresholds()
	}
	if curve == (gamification.LevelCurve{}) {
		curve = gamification.DefaultLevelCurve()
	}
	return &GetDashboardHandler{
		completionRepo: completionRepo,
		resolver:       resolver,
		pointRepo:      pointRepo,
		badgeRepo:      badgeRepo,
		profileRepo:    profileRepo,
		thresholds:     thresholds,
		curve:          curve,
		log:            log,
	}
}

// Handle выполняет запрос.
func (h *GetDashboardHandler) Handle(ctx context.Context, query GetDashboardQuery) (*GetDashboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetDashboard", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	// Журнал - единственное, без чего дашборд невозможен.
	records, err := h.completionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetDashboard", shared.ErrInvalidState, "ledger read failed", err)
	}

	result := &GetDashboardResult{
		StudentID:   query.StudentID,
		Courses:     make([]CourseDashboardDTO, 0),
		Categories:  make([]progress.CategoryPerformance, 0),
		GeneratedAt: query.Now,
	}

	loc := timeutil.DefaultLocation
	if h.profileRepo != nil {
		if profile, err := h.profileRepo.FindByID(ctx, studentID); err == nil {
			result.DisplayName = profile.DisplayName
			loc = profile.Location()
		}
	}

	result.Streak = progress.ComputeStreak(studentID, records, loc, query.Now)

	h.fillCourses(ctx, studentID, records, query.Now, result)
	h.fillGamification(ctx, studentID, result)

	return result, nil
}

// fillCourses собирает прогресс и темп по зачислениям. Любой сбой на
// уровне курса - предупреждение, агрегация продолжается.
func (h *GetDashboardHandler) fillCourses(
	ctx context.Context,
	studentID shared.StudentID,
	records []*completion.CompletionRecord,
	now time.Time,
	result *GetDashboardResult,
) {
	enrollments, err := h.resolver.ListEnrollments(ctx, studentID)
	if err != nil {
		result.Warnings = append(result.Warnings, shared.NewWarning(
			shared.WarnCatalogUnavailable, studentID.String(),
			"enrollments unavailable, course list omitted",
		))
		return
	}

	summaries := make([]progress.CourseSummary, 0, len(enrollments))

	for _, enr := range enrollments {
		lessons, err := h.resolver.ListLessonsForCourse(ctx, enr.CourseID)
		if err != nil {
			result.Warnings = append(result.Warnings, shared.NewWarning(
				shared.WarnPartialResult, enr.CourseID.String(),
				"course structure unavailable, skipped",
			))
			continue
		}

		courseProgress := progress.ComputeCourseProgress(studentID, enr.CourseID, lessons, records)
		pacing := progress.ComputePacing(*enr, courseProgress.Percentage, now, h.thresholds)

		result.Courses = append(result.Courses, CourseDashboardDTO{
			Progress: courseProgress,
			Pacing:   &pacing,
		})

		summary := progress.CourseSummary{
			CourseID:         enr.CourseID,
			Percentage:       courseProgress.Percentage,
			Completed:        courseProgress.IsCompleted(),
			TimeSpentMinutes: courseProgress.TotalTimeSpentMinutes,
		}
		if category, err := h.resolver.GetCourseCategory(ctx, enr.CourseID); err == nil {
			summary.Category = category
			summaries = append(summaries, summary)
		} else {
			result.Warnings = append(result.Warnings, shared.NewWarning(
				shared.WarnPartialResult, enr.CourseID.String(),
				"course category unavailable, excluded from category totals",
			))
		}
	}

	result.Categories = progress.ComputeCategoryPerformance(studentID, summaries)
}

// fillGamification добавляет очки и бейджи; сбой - предупреждение.
func (h *GetDashboardHandler) fillGamification(
	ctx context.Context,
	studentID shared.StudentID,
	result *GetDashboardResult,
) {
	events, err := h.pointRepo.ListByStudent(ctx, studentID)
	if err != nil {
		result.Warnings = append(result.Warnings, shared.NewWarning(
			shared.WarnPartialResult, studentID.String(),
			"point log unavailable, gamification omitted",
		))
		return
	}

	badges, err := h.badgeRepo.ListByStudent(ctx, studentID)
	if err != nil {
		badges = nil
		result.Warnings = append(result.Warnings, shared.NewWarning(
			shared.WarnPartialResult, studentID.String(),
			"badges unavailable",
		))
	}

	result.Gamification = gamification.ComputeProfile(studentID, events, badges, h.curve)
}
