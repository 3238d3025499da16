package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type stubCompletionRepo struct {
	records []*completion.CompletionRecord
}

func (s *stubCompletionRepo) Upsert(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID, report completion.Report, hier completion.Hierarchy, now time.Time) (*completion.UpsertResult, error) {
	return nil, shared.ErrInvalidState
}

func (s *stubCompletionRepo) Get(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) (*completion.CompletionRecord, error) {
	return nil, shared.ErrCompletionNotFound
}

func (s *stubCompletionRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*completion.CompletionRecord, error) {
	return s.records, nil
}

func (s *stubCompletionRepo) ListByStudentAndLessons(ctx context.Context, studentID shared.StudentID, lessonIDs []shared.LessonID) ([]*completion.CompletionRecord, error) {
	wanted := make(map[shared.LessonID]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		wanted[id] = true
	}
	var out []*completion.CompletionRecord
	for _, rec := range s.records {
		if wanted[rec.LessonID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubCompletionRepo) Reset(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) error {
	return shared.ErrCompletionNotFound
}

type stubResolver struct {
	enrollments []*catalog.EnrollmentWindow
	courses     map[shared.CourseID][]shared.LessonID
	categories  map[shared.CourseID]shared.Category
}

func (s *stubResolver) ResolveLesson(ctx context.Context, lessonID shared.LessonID) (*catalog.HierarchyRef, error) {
	return nil, shared.ErrLessonNotFound
}

func (s *stubResolver) ListLessonsForModule(ctx context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error) {
	return nil, shared.ErrModuleNotFound
}

func (s *stubResolver) ListLessonsForCourse(ctx context.Context, courseID shared.CourseID) ([]shared.LessonID, error) {
	lessons, ok := s.courses[courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return lessons, nil
}

func (s *stubResolver) GetEnrollment(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*catalog.EnrollmentWindow, error) {
	for _, e := range s.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e, nil
		}
	}
	return nil, shared.ErrEnrollmentNotFound
}

func (s *stubResolver) ListEnrollments(ctx context.Context, studentID shared.StudentID) ([]*catalog.EnrollmentWindow, error) {
	return s.enrollments, nil
}

func (s *stubResolver) GetCourseCategory(ctx context.Context, courseID shared.CourseID) (shared.Category, error) {
	category, ok := s.categories[courseID]
	if !ok {
		return "", shared.ErrCourseNotFound
	}
	return category, nil
}

type stubPointRepo struct {
	events []*gamification.PointEvent
}

func (s *stubPointRepo) Append(ctx context.Context, event *gamification.PointEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubPointRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*gamification.PointEvent, error) {
	return s.events, nil
}

func (s *stubPointRepo) TotalByStudent(ctx context.Context, studentID shared.StudentID) (int, error) {
	return gamification.TotalPoints(s.events), nil
}

type stubBadgeRepo struct {
	badges []*gamification.Badge
}

func (s *stubBadgeRepo) Award(ctx context.Context, badge *gamification.Badge) error {
	s.badges = append(s.badges, badge)
	return nil
}

func (s *stubBadgeRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*gamification.Badge, error) {
	return s.badges, nil
}

type stubProfileRepo struct {
	profile *student.Profile
}

func (s *stubProfileRepo) Save(ctx context.Context, profile *student.Profile) error {
	s.profile = profile
	return nil
}

func (s *stubProfileRepo) FindByID(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, shared.ErrProfileNotFound
	}
	return s.profile, nil
}

type memProgressCache struct {
	entries map[string]*progress.CourseProgress
	hits    int
}

func (m *memProgressCache) key(s shared.StudentID, c shared.CourseID) string {
	return s.String() + "/" + c.String()
}

func (m *memProgressCache) GetCourseProgress(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*progress.CourseProgress, error) {
	if p, ok := m.entries[m.key(studentID, courseID)]; ok {
		m.hits++
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memProgressCache) SetCourseProgress(ctx context.Context, p *progress.CourseProgress, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string]*progress.CourseProgress)
	}
	m.entries[m.key(p.StudentID, p.CourseID)] = p
	return nil
}

func (m *memProgressCache) InvalidateCourseProgress(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) error {
	delete(m.entries, m.key(studentID, courseID))
	return nil
}

func (m *memProgressCache) InvalidateStudent(ctx context.Context, studentID shared.StudentID) error {
	for k := range m.entries {
		delete(m.entries, k)
	}
	return nil
}

func doneAt(lessonID string, at time.Time) *completion.CompletionRecord {
	return &completion.CompletionRecord{
		StudentID:          "student-1",
		LessonID:           shared.LessonID(lessonID),
		Status:             completion.StatusCompleted,
		ProgressPercentage: 100,
		CompletedAt:        &at,
		LastUpdatedAt:      at,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestGetCourseProgress_RecomputesAndCaches(t *testing.T) {
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	repo := &stubCompletionRepo{records: []*completion.CompletionRecord{doneAt("l1", at)}}
	resolver := &stubResolver{courses: map[shared.CourseID][]shared.LessonID{
		"course-1": {"l1", "l2"},
	}}
	cache := &memProgressCache{}

	handler := NewGetCourseProgressHandler(repo, resolver, cache, time.Minute, nil)

	result, err := handler.Handle(context.Background(), GetCourseProgressQuery{
		StudentID: "student-1",
		CourseID:  "course-1",
	})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, float64(50), result.Progress.Percentage)

	// Second read is served from the cache.
	cached, err := handler.Handle(context.Background(), GetCourseProgressQuery{
		StudentID: "student-1",
		CourseID:  "course-1",
	})
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, 1, cache.hits)

	// SkipCache forces a recompute.
	fresh, err := handler.Handle(context.Background(), GetCourseProgressQuery{
		StudentID: "student-1",
		CourseID:  "course-1",
		SkipCache: true,
	})
	require.NoError(t, err)
	assert.False(t, fresh.FromCache)
}

func TestGetCourseProgress_UnknownCourse(t *testing.T) {
	handler := NewGetCourseProgressHandler(
		&stubCompletionRepo{}, &stubResolver{courses: map[shared.CourseID][]shared.LessonID{}}, nil, 0, nil,
	)

	_, err := handler.Handle(context.Background(), GetCourseProgressQuery{
		StudentID: "student-1",
		CourseID:  "course-404",
	})

	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestGetPacing_OnTrack(t *testing.T) {
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)
	repo := &stubCompletionRepo{records: []*completion.CompletionRecord{doneAt("l1", at)}}
	resolver := &stubResolver{
		courses: map[shared.CourseID][]shared.LessonID{"course-1": {"l1", "l2"}},
		enrollments: []*catalog.EnrollmentWindow{{
			StudentID:          "student-1",
			CourseID:           "course-1",
			EnrolledAt:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			TargetDurationDays: 20,
		}},
	}

	handler := NewGetPacingHandler(repo, resolver, progress.PacingThresholds{})

	result, err := handler.Handle(context.Background(), GetPacingQuery{
		StudentID: "student-1",
		CourseID:  "course-1",
		Now:       now,
	})

	require.NoError(t, err)
	// 1 of 2 lessons done, 10 days into a 20-day window: dead on pace.
	assert.Equal(t, progress.PacingOnTrack, result.Pacing.Status)
	assert.Equal(t, float64(50), result.Pacing.ActualPercentage)
	assert.Equal(t, float64(50), result.Pacing.ExpectedPercentage)
}

func TestGetPacing_NoEnrollment(t *testing.T) {
	handler := NewGetPacingHandler(&stubCompletionRepo{}, &stubResolver{}, progress.PacingThresholds{})

	_, err := handler.Handle(context.Background(), GetPacingQuery{
		StudentID: "student-1",
		CourseID:  "course-1",
	})

	assert.ErrorIs(t, err, shared.ErrEnrollmentNotFound)
}

func TestGetStreak_UsesProfileTimezone(t *testing.T) {
	// 23:30 UTC on March 9: still March 9 in UTC, already March 10 in Almaty.
	activity := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubCompletionRepo{records: []*completion.CompletionRecord{doneAt("l1", activity)}}

	utcHandler := NewGetStreakHandler(repo, nil)
	utcResult, err := utcHandler.Handle(context.Background(), GetStreakQuery{StudentID: "student-1", Now: now})
	require.NoError(t, err)
	assert.Equal(t, "UTC", utcResult.Timezone)

	profile, err := student.NewProfile("student-1", "Aizere", "Asia/Almaty", now)
	require.NoError(t, err)
	tzHandler := NewGetStreakHandler(repo, &stubProfileRepo{profile: profile})
	tzResult, err := tzHandler.Handle(context.Background(), GetStreakQuery{StudentID: "student-1", Now: now})
	require.NoError(t, err)

	assert.Equal(t, "Asia/Almaty", tzResult.Timezone)
	assert.Equal(t, 1, tzResult.Streak.CurrentStreakDays)
	assert.NotEqual(t, utcResult.Streak.LastActiveDay, tzResult.Streak.LastActiveDay)
}

func TestGetGamification(t *testing.T) {
	now := time.Now().UTC()
	points := &stubPointRepo{}
	for _, p := range []int{50, 50} {
		e, err := gamification.NewPointEvent("student-1", gamification.ReasonLessonCompleted, "l", p, now)
		require.NoError(t, err)
		points.events = append(points.events, e)
	}
	badges := &stubBadgeRepo{badges: []*gamification.Badge{
		gamification.NewBadge("student-1", gamification.BadgeFirstLesson, now),
	}}

	handler := NewGetGamificationHandler(points, badges, nil, gamification.LevelCurve{})

	result, err := handler.Handle(context.Background(), GetGamificationQuery{StudentID: "student-1"})

	require.NoError(t, err)
	assert.Equal(t, 100, result.Profile.TotalPoints)
	assert.Equal(t, 2, result.Profile.Level)
	assert.Len(t, result.Profile.Badges, 1)
}

func TestGetCategoryPerformance_AveragesByCategory(t *testing.T) {
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	// Marketing: course-1 at 40% (2 of 5), course-2 at 60% (3 of 5).
	records := []*completion.CompletionRecord{
		doneAt("c1-l1", at), doneAt("c1-l2", at),
		doneAt("c2-l1", at), doneAt("c2-l2", at), doneAt("c2-l3", at),
	}
	resolver := &stubResolver{
		courses: map[shared.CourseID][]shared.LessonID{
			"course-1": {"c1-l1", "c1-l2", "c1-l3", "c1-l4", "c1-l5"},
			"course-2": {"c2-l1", "c2-l2", "c2-l3", "c2-l4", "c2-l5"},
		},
		categories: map[shared.CourseID]shared.Category{
			"course-1": "Marketing",
			"course-2": "Marketing",
		},
		enrollments: []*catalog.EnrollmentWindow{
			{StudentID: "student-1", CourseID: "course-1", EnrolledAt: at, TargetDurationDays: 30},
			{StudentID: "student-1", CourseID: "course-2", EnrolledAt: at, TargetDurationDays: 30},
		},
	}

	handler := NewGetCategoryPerformanceHandler(&stubCompletionRepo{records: records}, resolver)

	result, err := handler.Handle(context.Background(), GetCategoryPerformanceQuery{StudentID: "student-1"})

	require.NoError(t, err)
	require.Len(t, result.Categories, 1)
	assert.Equal(t, shared.Category("Marketing"), result.Categories[0].Category)
	assert.Equal(t, float64(50), result.Categories[0].AverageProgress)
	assert.Equal(t, 2, result.Categories[0].TotalCourses)
}

func TestGetCategoryPerformance_BrokenCourseBecomesWarning(t *testing.T) {
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	resolver := &stubResolver{
		courses: map[shared.CourseID][]shared.LessonID{
			"course-1": {"l1"},
		},
		categories: map[shared.CourseID]shared.Category{"course-1": "Marketing"},
		enrollments: []*catalog.EnrollmentWindow{
			{StudentID: "student-1", CourseID: "course-1", EnrolledAt: at, TargetDurationDays: 30},
			{StudentID: "student-1", CourseID: "course-gone", EnrolledAt: at, TargetDurationDays: 30},
		},
	}

	handler := NewGetCategoryPerformanceHandler(&stubCompletionRepo{}, resolver)

	result, err := handler.Handle(context.Background(), GetCategoryPerformanceQuery{StudentID: "student-1"})

	require.NoError(t, err)
	assert.Len(t, result.Categories, 1)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "course-gone", result.Warnings[0].EntityID)
}

func TestGetDashboard_PartialResultsNotErrors(t *testing.T) {
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	now := at.Add(2 * time.Hour)
	records := []*completion.CompletionRecord{doneAt("l1", at)}
	resolver := &stubResolver{
		courses: map[shared.CourseID][]shared.LessonID{"course-1": {"l1", "l2"}},
		categories: map[shared.CourseID]shared.Category{
			"course-1": "Marketing",
		},
		enrollments: []*catalog.EnrollmentWindow{
			{StudentID: "student-1", CourseID: "course-1", EnrolledAt: at.AddDate(0, 0, -10), TargetDurationDays: 20},
			{StudentID: "student-1", CourseID: "course-gone", EnrolledAt: at, TargetDurationDays: 20},
		},
	}

	handler := NewGetDashboardHandler(
		&stubCompletionRepo{records: records}, resolver,
		&stubPointRepo{}, &stubBadgeRepo{}, nil,
		progress.PacingThresholds{}, gamification.LevelCurve{}, nil,
	)

	result, err := handler.Handle(context.Background(), GetDashboardQuery{StudentID: "student-1", Now: now})

	require.NoError(t, err)
	require.Len(t, result.Courses, 1)
	assert.Equal(t, float64(50), result.Courses[0].Progress.Percentage)
	require.NotNil(t, result.Courses[0].Pacing)
	assert.Equal(t, 1, result.Streak.CurrentStreakDays)
	assert.Equal(t, 1, result.Gamification.Level)
	require.NotEmpty(t, result.Warnings)
}

func TestGetLeaderboard_DecoratesRows(t *testing.T) {
	lb := &stubLeaderboard{entries: []gamification.LeaderboardEntry{
		{StudentID: "student-1", Rank: 1, TotalPoints: 250},
		{StudentID: "student-2", Rank: 2, TotalPoints: 90},
	}}
	profile, err := student.NewProfile("student-1", "Aizere", "", time.Now())
	require.NoError(t, err)

	handler := NewGetLeaderboardHandler(lb, &stubProfileRepo{profile: profile}, gamification.LevelCurve{})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})

	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 3, result.Rows[0].Level)
	assert.Equal(t, "Aizere", result.Rows[0].DisplayName)
	assert.Equal(t, 1, result.Rows[1].Level)
}

type stubLeaderboard struct {
	entries []gamification.LeaderboardEntry
}

func (s *stubLeaderboard) UpdateScore(ctx context.Context, studentID shared.StudentID, totalPoints int) error {
	return nil
}

func (s *stubLeaderboard) Top(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func (s *stubLeaderboard) Rank(ctx context.Context, studentID shared.StudentID) (*gamification.LeaderboardEntry, error) {
	for i := range s.entries {
		if s.entries[i].StudentID == studentID {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}
