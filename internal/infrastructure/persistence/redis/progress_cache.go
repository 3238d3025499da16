package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS CACHE
// Implements progress.Cache: derived course-progress read models with a
// bounded TTL. A miss or any Redis error means "recompute from the
// ledger" - callers never treat this cache as authoritative.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressCache caches derived course progress.
type ProgressCache struct {
	cache      *Cache
	defaultTTL time.Duration
}

// NewProgressCache creates a ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{
		cache:      cache,
		defaultTTL: TTLProgress,
	}
}

// GetCourseProgress returns the cached progress or shared.ErrNotFound.
func (p *ProgressCache) GetCourseProgress(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*progress.CourseProgress, error) {
	var cached progress.CourseProgress
	err := p.cache.Get(ctx, ProgressKey(studentID.String(), courseID.String()), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("progress cache get: %w", err)
	}
	return &cached, nil
}

// SetCourseProgress stores the progress with the given TTL (0 = default).
func (p *ProgressCache) SetCourseProgress(ctx context.Context, cp *progress.CourseProgress, ttl time.Duration) error {
	if cp == nil {
		return ErrCacheNilValue
	}
	if ttl <= 0 {
		ttl = p.defaultTTL
	}
	return p.cache.Set(ctx, ProgressKey(cp.StudentID.String(), cp.CourseID.String()), cp, ttl)
}

// InvalidateCourseProgress drops the cached progress of one (student, course).
func (p *ProgressCache) InvalidateCourseProgress(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) error {
	return p.cache.Delete(ctx, ProgressKey(studentID.String(), courseID.String()))
}

// InvalidateStudent drops all derived progress of a student.
func (p *ProgressCache) InvalidateStudent(ctx context.Context, studentID shared.StudentID) error {
	return p.cache.DeleteByPattern(ctx, ProgressPattern(studentID.String()))
}
