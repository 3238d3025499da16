package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HIERARCHY CACHE
// Caches content-catalog lookups. Negative results ("lesson unknown")
// are cached too, with a shorter TTL, so a flood of reports for a
// dangling lesson does not hammer the catalog API.
// ══════════════════════════════════════════════════════════════════════════════

// hierarchyEntry is the wire form of a cached lookup. Unresolvable is
// the explicit negative sentinel.
type hierarchyEntry struct {
	ModuleID     string `json:"module_id,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	Category     string `json:"category,omitempty"`
	Unresolvable bool   `json:"unresolvable,omitempty"`
}

// HierarchyCache caches lesson hierarchy, course/module structure and
// enrollment windows.
type HierarchyCache struct {
	cache          *Cache
	ttl            time.Duration
	negativeTTL    time.Duration
	structureTTL   time.Duration
	enrollmentTTL  time.Duration
}

// NewHierarchyCache creates a HierarchyCache with default TTLs.
func NewHierarchyCache(cache *Cache) *HierarchyCache {
	return &HierarchyCache{
		cache:         cache,
		ttl:           TTLHierarchy,
		negativeTTL:   TTLUnresolvable,
		structureTTL:  TTLHierarchy,
		enrollmentTTL: TTLEnrollment,
	}
}

// GetLesson returns the cached hierarchy of a lesson.
// shared.ErrNotFound = cache miss; shared.ErrUnresolvable = cached
// negative entry (do not re-query the catalog yet).
func (h *HierarchyCache) GetLesson(ctx context.Context, lessonID shared.LessonID) (*catalog.HierarchyRef, error) {
	var entry hierarchyEntry
	err := h.cache.Get(ctx, HierarchyKey(lessonID.String()), &entry)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("hierarchy cache get: %w", err)
	}

	if entry.Unresolvable {
		return nil, shared.ErrUnresolvable
	}

	return &catalog.HierarchyRef{
		LessonID: lessonID,
		ModuleID: shared.ModuleID(entry.ModuleID),
		CourseID: shared.CourseID(entry.CourseID),
		Category: shared.Category(entry.Category),
	}, nil
}

// SetLesson caches a resolved hierarchy.
func (h *HierarchyCache) SetLesson(ctx context.Context, ref *catalog.HierarchyRef) error {
	if ref == nil {
		return ErrCacheNilValue
	}
	entry := hierarchyEntry{
		ModuleID: ref.ModuleID.String(),
		CourseID: ref.CourseID.String(),
		Category: ref.Category.String(),
	}
	return h.cache.Set(ctx, HierarchyKey(ref.LessonID.String()), entry, h.ttl)
}

// SetUnresolvable caches a negative entry for a lesson.
func (h *HierarchyCache) SetUnresolvable(ctx context.Context, lessonID shared.LessonID) error {
	return h.cache.Set(ctx, HierarchyKey(lessonID.String()), hierarchyEntry{Unresolvable: true}, h.negativeTTL)
}

// GetCourseLessons returns the cached lesson list of a course.
func (h *HierarchyCache) GetCourseLessons(ctx context.Context, courseID shared.CourseID) ([]shared.LessonID, error) {
	return h.getLessonList(ctx, CourseStructureKey(courseID.String()))
}

// SetCourseLessons caches the lesson list of a course.
func (h *HierarchyCache) SetCourseLessons(ctx context.Context, courseID shared.CourseID, lessons []shared.LessonID) error {
	return h.setLessonList(ctx, CourseStructureKey(courseID.String()), lessons)
}

// GetModuleLessons returns the cached lesson list of a module.
func (h *HierarchyCache) GetModuleLessons(ctx context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error) {
	return h.getLessonList(ctx, ModuleStructureKey(moduleID.String()))
}

// SetModuleLessons caches the lesson list of a module.
func (h *HierarchyCache) SetModuleLessons(ctx context.Context, moduleID shared.ModuleID, lessons []shared.LessonID) error {
	return h.setLessonList(ctx, ModuleStructureKey(moduleID.String()), lessons)
}

func (h *HierarchyCache) getLessonList(ctx context.Context, key string) ([]shared.LessonID, error) {
	var raw []string
	err := h.cache.Get(ctx, key, &raw)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("structure cache get: %w", err)
	}

	lessons := make([]shared.LessonID, len(raw))
	for i, id := range raw {
		lessons[i] = shared.LessonID(id)
	}
	return lessons, nil
}

func (h *HierarchyCache) setLessonList(ctx context.Context, key string, lessons []shared.LessonID) error {
	raw := make([]string, len(lessons))
	for i, id := range lessons {
		raw[i] = id.String()
	}
	return h.cache.Set(ctx, key, raw, h.structureTTL)
}

// GetEnrollment returns a cached enrollment window.
func (h *HierarchyCache) GetEnrollment(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*catalog.EnrollmentWindow, error) {
	var window catalog.EnrollmentWindow
	err := h.cache.Get(ctx, EnrollmentKey(studentID.String(), courseID.String()), &window)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("enrollment cache get: %w", err)
	}
	return &window, nil
}

// SetEnrollment caches an enrollment window.
func (h *HierarchyCache) SetEnrollment(ctx context.Context, window *catalog.EnrollmentWindow) error {
	if window == nil {
		return ErrCacheNilValue
	}
	return h.cache.Set(ctx, EnrollmentKey(window.StudentID.String(), window.CourseID.String()), window, h.enrollmentTTL)
}

// GetEnrollmentList returns a student's cached enrollment list.
func (h *HierarchyCache) GetEnrollmentList(ctx context.Context, studentID shared.StudentID) ([]*catalog.EnrollmentWindow, error) {
	var windows []*catalog.EnrollmentWindow
	err := h.cache.Get(ctx, EnrollmentListKey(studentID.String()), &windows)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("enrollment list cache get: %w", err)
	}
	return windows, nil
}

// SetEnrollmentList caches a student's enrollment list.
func (h *HierarchyCache) SetEnrollmentList(ctx context.Context, studentID shared.StudentID, windows []*catalog.EnrollmentWindow) error {
	return h.cache.Set(ctx, EnrollmentListKey(studentID.String()), windows, h.enrollmentTTL)
}
