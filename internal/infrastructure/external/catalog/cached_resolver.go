package catalog

import (
	"context"
	"errors"

	catalogdomain "github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// HierarchyCache is the cache the resolver reads through. Implemented by the
// Redis hierarchy cache; a nil-safe no-op is acceptable in tests.
type HierarchyCache interface {
	GetLesson(ctx context.Context, lessonID shared.LessonID) (*catalogdomain.HierarchyRef, error)
	SetLesson(ctx context.Context, ref *catalogdomain.HierarchyRef) error
	SetUnresolvable(ctx context.Context, lessonID shared.LessonID) error

	GetCourseLessons(ctx context.Context, courseID shared.CourseID) ([]shared.LessonID, error)
	SetCourseLessons(ctx context.Context, courseID shared.CourseID, lessons []shared.LessonID) error
	GetModuleLessons(ctx context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error)
	SetModuleLessons(ctx context.Context, moduleID shared.ModuleID, lessons []shared.LessonID) error

	GetEnrollment(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*catalogdomain.EnrollmentWindow, error)
	SetEnrollment(ctx context.Context, window *catalogdomain.EnrollmentWindow) error
	GetEnrollmentList(ctx context.Context, studentID shared.StudentID) ([]*catalogdomain.EnrollmentWindow, error)
	SetEnrollmentList(ctx context.Context, studentID shared.StudentID, windows []*catalogdomain.EnrollmentWindow) error
}

// CachedResolver implements catalog.Resolver: a read-through cache in front
// of the catalog HTTP client. Cache failures are logged and degrade to a
// direct catalog call; catalog failures degrade to domain errors that the
// aggregation layer turns into warnings, never into hangs.
type CachedResolver struct {
	client *Client
	cache  HierarchyCache
	mapper *Mapper
	logger *logger.Logger
}

// NewCachedResolver creates a new CachedResolver.
func NewCachedResolver(client *Client, cache HierarchyCache, log *logger.Logger) *CachedResolver {
	return &CachedResolver{
		client: client,
		cache:  cache,
		mapper: NewMapper(),
		logger: log.With(logger.String("component", "catalog_resolver")),
	}
}

// ResolveLesson returns the lesson's place in the current structure.
func (r *CachedResolver) ResolveLesson(ctx context.Context, lessonID shared.LessonID) (*catalogdomain.HierarchyRef, error) {
	if ref, err := r.cache.GetLesson(ctx, lessonID); err == nil {
		return ref, nil
	} else if errors.Is(err, shared.ErrUnresolvable) {
		// Negative entry: the catalog said 404 recently, don't ask again yet.
		return nil, shared.ErrLessonNotFound
	} else if !errors.Is(err, shared.ErrNotFound) {
		r.logger.Warn("hierarchy cache read failed", logger.Err(err), logger.String("lesson_id", lessonID.String()))
	}

	dto, err := r.client.GetLesson(ctx, lessonID.String())
	if err != nil {
		if isNotFound(err) {
			if cacheErr := r.cache.SetUnresolvable(ctx, lessonID); cacheErr != nil {
				r.logger.Warn("hierarchy cache write failed", logger.Err(cacheErr))
			}
			return nil, shared.ErrLessonNotFound
		}
		return nil, shared.WrapError("catalog", "ResolveLesson", shared.ErrServiceUnavailable, "catalog call failed", err)
	}

	ref := r.mapper.HierarchyRefFromDTO(dto)
	if cacheErr := r.cache.SetLesson(ctx, ref); cacheErr != nil {
		r.logger.Warn("hierarchy cache write failed", logger.Err(cacheErr))
	}

	return ref, nil
}

// ListLessonsForModule returns the module's current lesson list.
func (r *CachedResolver) ListLessonsForModule(ctx context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error) {
	if lessons, err := r.cache.GetModuleLessons(ctx, moduleID); err == nil {
		return lessons, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		r.logger.Warn("structure cache read failed", logger.Err(err), logger.String("module_id", moduleID.String()))
	}

	dto, err := r.client.GetModule(ctx, moduleID.String())
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrModuleNotFound
		}
		return nil, shared.WrapError("catalog", "ListLessonsForModule", shared.ErrServiceUnavailable, "catalog call failed", err)
	}

	lessons := r.mapper.LessonIDsFromStrings(dto.LessonIDs)
	if cacheErr := r.cache.SetModuleLessons(ctx, moduleID, lessons); cacheErr != nil {
		r.logger.Warn("structure cache write failed", logger.Err(cacheErr))
	}

	return lessons, nil
}

// ListLessonsForCourse returns the course's current lesson list.
func (r *CachedResolver) ListLessonsForCourse(ctx context.Context, courseID shared.CourseID) ([]shared.LessonID, error) {
	if lessons, err := r.cache.GetCourseLessons(ctx, courseID); err == nil {
		return lessons, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		r.logger.Warn("structure cache read failed", logger.Err(err), logger.String("course_id", courseID.String()))
	}

	dto, err := r.client.GetCourse(ctx, courseID.String())
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, shared.WrapError("catalog", "ListLessonsForCourse", shared.ErrServiceUnavailable, "catalog call failed", err)
	}

	lessons := r.mapper.LessonIDsFromStrings(dto.LessonIDs)
	if cacheErr := r.cache.SetCourseLessons(ctx, courseID, lessons); cacheErr != nil {
		r.logger.Warn("structure cache write failed", logger.Err(cacheErr))
	}

	return lessons, nil
}

// GetEnrollment returns one enrollment window.
func (r *CachedResolver) GetEnrollment(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*catalogdomain.EnrollmentWindow, error) {
	if window, err := r.cache.GetEnrollment(ctx, studentID, courseID); err == nil {
		return window, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		r.logger.Warn("enrollment cache read failed", logger.Err(err))
	}

	dto, err := r.client.GetEnrollment(ctx, studentID.String(), courseID.String())
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrEnrollmentNotFound
		}
		return nil, shared.WrapError("catalog", "GetEnrollment", shared.ErrServiceUnavailable, "catalog call failed", err)
	}

	window := r.mapper.EnrollmentFromDTO(dto)
	if cacheErr := r.cache.SetEnrollment(ctx, window); cacheErr != nil {
		r.logger.Warn("enrollment cache write failed", logger.Err(cacheErr))
	}

	return window, nil
}

// ListEnrollments returns all enrollment windows of a student.
func (r *CachedResolver) ListEnrollments(ctx context.Context, studentID shared.StudentID) ([]*catalogdomain.EnrollmentWindow, error) {
	if windows, err := r.cache.GetEnrollmentList(ctx, studentID); err == nil {
		return windows, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		r.logger.Warn("enrollment cache read failed", logger.Err(err))
	}

	dtos, err := r.client.ListEnrollments(ctx, studentID.String())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, shared.WrapError("catalog", "ListEnrollments", shared.ErrServiceUnavailable, "catalog call failed", err)
	}

	windows := make([]*catalogdomain.EnrollmentWindow, 0, len(dtos))
	for i := range dtos {
		windows = append(windows, r.mapper.EnrollmentFromDTO(&dtos[i]))
	}

	if cacheErr := r.cache.SetEnrollmentList(ctx, studentID, windows); cacheErr != nil {
		r.logger.Warn("enrollment cache write failed", logger.Err(cacheErr))
	}

	return windows, nil
}

// GetCourseCategory returns the course category. Categories change rarely;
// the course structure cache is not reused here because the category rides
// on the lesson hierarchy entries in the common path.
func (r *CachedResolver) GetCourseCategory(ctx context.Context, courseID shared.CourseID) (shared.Category, error) {
	dto, err := r.client.GetCourse(ctx, courseID.String())
	if err != nil {
		if isNotFound(err) {
			return "", shared.ErrCourseNotFound
		}
		return "", shared.WrapError("catalog", "GetCourseCategory", shared.ErrServiceUnavailable, "catalog call failed", err)
	}

	return shared.Category(dto.Category), nil
}

func isNotFound(err error) bool {
	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.IsNotFound()
	}
	return false
}

var _ catalogdomain.Resolver = (*CachedResolver)(nil)
