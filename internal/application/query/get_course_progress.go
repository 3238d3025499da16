// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE PROGRESS QUERY
// Производный прогресс студента по курсу. Источник истины - журнал
// прохождения и текущая структура каталога; кеш - только ускорение с
// ограниченным TTL, промах или ошибка всегда приводят к пересчёту.
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseProgressQuery содержит параметры запроса.
type GetCourseProgressQuery struct {
	// StudentID - идентификатор студента.
	StudentID string

	// CourseID - идентификатор курса.
	CourseID string

	// IncludeModules - включить разбивку по модулям.
	IncludeModules bool

	// SkipCache - пересчитать, минуя кеш.
	SkipCache bool
}

// Validate проверяет параметры.
func (q GetCourseProgressQuery) Validate() error {
	if _, err := shared.NewStudentID(q.StudentID); err != nil {
		return err
	}
	if q.CourseID == "" {
		return shared.ErrCourseNotFound
	}
	return nil
}

// GetCourseProgressResult содержит результат.
type GetCourseProgressResult struct {
	// Progress - прогресс по курсу.
	Progress progress.CourseProgress `json:"progress"`

	// Modules - разбивка по модулям (если запрошена).
	Modules []progress.ModuleProgress `json:"modules,omitempty"`

	// FromCache - результат взят из кеша.
	FromCache bool `json:"from_cache"`

	// Warnings - нефатальные проблемы агрегации.
	Warnings []shared.Warning `json:"warnings,omitempty"`

	// GeneratedAt - момент вычисления.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCourseProgressHandler обрабатывает запрос прогресса по курсу.
type GetCourseProgressHandler struct {
	completionRepo completion.Repository
	resolver       catalog.Resolver
	cache          progress.Cache
	cacheTTL       time.Duration
	log            *logger.Logger
}

// NewGetCourseProgressHandler создаёт обработчик. cache может быть nil.
func NewGetCourseProgressHandler(
	completionRepo completion.Repository,
	resolver catalog.Resolver,
	cache progress.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *GetCourseProgressHandler {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &GetCourseProgressHandler{
		completionRepo: completionRepo,
		resolver:       resolver,
		cache:          cache,
		cacheTTL:       cacheTTL,
		log:            log,
	}
}

// Handle выполняет запрос.
func (h *GetCourseProgressHandler) Handle(ctx context.Context, query GetCourseProgressQuery) (*GetCourseProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCourseProgress", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)
	courseID := shared.CourseID(query.CourseID)

	// Быстрый путь: кеш (только без разбивки по модулям - её не кешируем).
	if h.cache != nil && !query.SkipCache && !query.IncludeModules {
		if cached, err := h.cache.GetCourseProgress(ctx, studentID, courseID); err == nil && cached != nil {
			return &GetCourseProgressResult{
				Progress:    *cached,
				FromCache:   true,
				GeneratedAt: time.Now().UTC(),
			}, nil
		}
	}

	result, err := h.recompute(ctx, studentID, courseID, query.IncludeModules)
	if err != nil {
		return nil, err
	}

	// Кладём в кеш best-effort.
	if h.cache != nil && !query.IncludeModules {
		if err := h.cache.SetCourseProgress(ctx, &result.Progress, h.cacheTTL); err != nil && h.log != nil {
			h.log.Debug("progress cache write failed", logger.Err(err))
		}
	}

	return result, nil
}

// recompute пересчитывает прогресс из журнала и каталога.
func (h *GetCourseProgressHandler) recompute(
	ctx context.Context,
	studentID shared.StudentID,
	courseID shared.CourseID,
	includeModules bool,
) (*GetCourseProgressResult, error) {
	lessons, err := h.resolver.ListLessonsForCourse(ctx, courseID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCourseProgress", shared.ErrServiceUnavailable, "course structure unavailable", err)
	}

	records, err := h.completionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCourseProgress", shared.ErrInvalidState, "ledger read failed", err)
	}

	result := &GetCourseProgressResult{
		Progress:    progress.ComputeCourseProgress(studentID, courseID, lessons, records),
		GeneratedAt: time.Now().UTC(),
	}

	if includeModules {
		result.Modules = h.moduleBreakdown(ctx, studentID, courseID, records, result)
	}

	return result, nil
}

// moduleBreakdown собирает прогресс по модулям курса. Недоступный модуль
// даёт предупреждение, не ошибку.
func (h *GetCourseProgressHandler) moduleBreakdown(
	ctx context.Context,
	studentID shared.StudentID,
	courseID shared.CourseID,
	records []*completion.CompletionRecord,
	result *GetCourseProgressResult,
) []progress.ModuleProgress {
	// Модули восстанавливаем из снимков записей и разрешённых уроков.
	moduleIDs := make([]shared.ModuleID, 0)
	seen := make(map[shared.ModuleID]bool)
	for _, rec := range records {
		if rec.CourseID == courseID && rec.ModuleID != "" && !seen[rec.ModuleID] {
			seen[rec.ModuleID] = true
			moduleIDs = append(moduleIDs, rec.ModuleID)
		}
	}

	breakdown := make([]progress.ModuleProgress, 0, len(moduleIDs))
	for _, moduleID := range moduleIDs {
		lessons, err := h.resolver.ListLessonsForModule(ctx, moduleID)
		if err != nil {
			result.Warnings = append(result.Warnings, shared.NewWarning(
				shared.WarnPartialResult,
				moduleID.String(),
				"module structure unavailable, breakdown incomplete",
			))
			continue
		}
		breakdown = append(breakdown, progress.ComputeModuleProgress(studentID, moduleID, lessons, records))
	}

	return breakdown
}
