package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeCompletionRepo struct {
	records map[string]*completion.CompletionRecord
	nextID  int
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{records: make(map[string]*completion.CompletionRecord)}
}

func (f *fakeCompletionRepo) key(s shared.StudentID, l shared.LessonID) string {
	return s.String() + "/" + l.String()
}

func (f *fakeCompletionRepo) Upsert(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID, report completion.Report, hier completion.Hierarchy, now time.Time) (*completion.UpsertResult, error) {
	key := f.key(studentID, lessonID)
	rec, ok := f.records[key]
	if !ok {
		f.nextID++
		rec = completion.NewRecord(fmt.Sprintf("rec-%d", f.nextID), studentID, lessonID, now)
		f.records[key] = rec
	}
	outcome, err := rec.Apply(report, now)
	if err != nil {
		return nil, err
	}
	rec.AttachHierarchy(hier.ModuleID, hier.CourseID)
	copied := *rec
	return &completion.UpsertResult{Record: &copied, Outcome: outcome}, nil
}

func (f *fakeCompletionRepo) Get(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) (*completion.CompletionRecord, error) {
	rec, ok := f.records[f.key(studentID, lessonID)]
	if !ok {
		return nil, shared.ErrCompletionNotFound
	}
	return rec, nil
}

func (f *fakeCompletionRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*completion.CompletionRecord, error) {
	var out []*completion.CompletionRecord
	for _, rec := range f.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCompletionRepo) ListByStudentAndLessons(ctx context.Context, studentID shared.StudentID, lessonIDs []shared.LessonID) ([]*completion.CompletionRecord, error) {
	wanted := make(map[shared.LessonID]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		wanted[id] = true
	}
	var out []*completion.CompletionRecord
	for _, rec := range f.records {
		if rec.StudentID == studentID && wanted[rec.LessonID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCompletionRepo) Reset(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) error {
	key := f.key(studentID, lessonID)
	if _, ok := f.records[key]; !ok {
		return shared.ErrCompletionNotFound
	}
	delete(f.records, key)
	return nil
}

type fakeResolver struct {
	refs        map[shared.LessonID]*catalog.HierarchyRef
	enrollments []*catalog.EnrollmentWindow
	courses     map[shared.CourseID][]shared.LessonID
	down        bool
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		refs:    make(map[shared.LessonID]*catalog.HierarchyRef),
		courses: make(map[shared.CourseID][]shared.LessonID),
	}
}

func (f *fakeResolver) ResolveLesson(ctx context.Context, lessonID shared.LessonID) (*catalog.HierarchyRef, error) {
	if f.down {
		return nil, shared.ErrCatalogUnavailable
	}
	ref, ok := f.refs[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return ref, nil
}

func (f *fakeResolver) ListLessonsForModule(ctx context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error) {
	return nil, shared.ErrModuleNotFound
}

func (f *fakeResolver) ListLessonsForCourse(ctx context.Context, courseID shared.CourseID) ([]shared.LessonID, error) {
	if f.down {
		return nil, shared.ErrCatalogUnavailable
	}
	return f.courses[courseID], nil
}

func (f *fakeResolver) GetEnrollment(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*catalog.EnrollmentWindow, error) {
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e, nil
		}
	}
	return nil, shared.ErrEnrollmentNotFound
}

func (f *fakeResolver) ListEnrollments(ctx context.Context, studentID shared.StudentID) ([]*catalog.EnrollmentWindow, error) {
	if f.down {
		return nil, shared.ErrCatalogUnavailable
	}
	return f.enrollments, nil
}

func (f *fakeResolver) GetCourseCategory(ctx context.Context, courseID shared.CourseID) (shared.Category, error) {
	return "General", nil
}

type fakePointRepo struct {
	events []*gamification.PointEvent
}

func (f *fakePointRepo) Append(ctx context.Context, event *gamification.PointEvent) error {
	for _, e := range f.events {
		if e.StudentID == event.StudentID && e.Reason == event.Reason && e.SourceID == event.SourceID {
			return shared.ErrPointEventExists
		}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePointRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*gamification.PointEvent, error) {
	var out []*gamification.PointEvent
	for _, e := range f.events {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePointRepo) TotalByStudent(ctx context.Context, studentID shared.StudentID) (int, error) {
	total := 0
	for _, e := range f.events {
		if e.StudentID == studentID {
			total += e.Points
		}
	}
	return total, nil
}

type fakeBadgeRepo struct {
	badges []*gamification.Badge
}

func (f *fakeBadgeRepo) Award(ctx context.Context, badge *gamification.Badge) error {
	for _, b := range f.badges {
		if b.StudentID == badge.StudentID && b.Type == badge.Type {
			return shared.ErrBadgeExists
		}
	}
	f.badges = append(f.badges, badge)
	return nil
}

func (f *fakeBadgeRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*gamification.Badge, error) {
	var out []*gamification.Badge
	for _, b := range f.badges {
		if b.StudentID == studentID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeLeaderboard struct {
	scores map[shared.StudentID]int
}

func (f *fakeLeaderboard) UpdateScore(ctx context.Context, studentID shared.StudentID, totalPoints int) error {
	if f.scores == nil {
		f.scores = make(map[shared.StudentID]int)
	}
	f.scores[studentID] = totalPoints
	return nil
}

func (f *fakeLeaderboard) Top(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeLeaderboard) Rank(ctx context.Context, studentID shared.StudentID) (*gamification.LeaderboardEntry, error) {
	return nil, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []shared.EventType {
	out := make([]shared.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType())
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Environment
// ─────────────────────────────────────────────────────────────────────────────

type recordEnv struct {
	handler     *RecordCompletionHandler
	completions *fakeCompletionRepo
	resolver    *fakeResolver
	points      *fakePointRepo
	badges      *fakeBadgeRepo
	leaderboard *fakeLeaderboard
	bus         *fakePublisher
}

func newRecordEnv(t *testing.T) *recordEnv {
	t.Helper()
	env := &recordEnv{
		completions: newFakeCompletionRepo(),
		resolver:    newFakeResolver(),
		points:      &fakePointRepo{},
		badges:      &fakeBadgeRepo{},
		leaderboard: &fakeLeaderboard{},
		bus:         &fakePublisher{},
	}
	env.resolver.refs["lesson-1"] = &catalog.HierarchyRef{
		LessonID: "lesson-1",
		ModuleID: "module-1",
		CourseID: "course-1",
		Category: "Marketing",
	}
	env.handler = NewRecordCompletionHandler(
		env.completions, env.resolver, env.points, env.badges,
		env.leaderboard, env.bus, nil,
		gamification.DefaultPointsConfig(), gamification.DefaultLevelCurve(),
	)
	return env
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordCompletion_ValidationRejected(t *testing.T) {
	env := newRecordEnv(t)

	_, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-1",
		ProgressPercentage: 120,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, env.completions.records)
}

func TestRecordCompletion_PartialProgressNoPoints(t *testing.T) {
	env := newRecordEnv(t)

	result, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:             "student-1",
		LessonID:              "lesson-1",
		ProgressPercentage:    40,
		TimeSpentDeltaMinutes: 20,
	})

	require.NoError(t, err)
	assert.False(t, result.FirstCompletion)
	assert.Equal(t, 0, result.PointsAwarded)
	assert.Equal(t, completion.StatusInProgress, result.Record.Status)
	assert.Equal(t, shared.CourseID("course-1"), result.Record.CourseID)
	assert.Empty(t, result.Warnings)
}

func TestRecordCompletion_FirstCompletionAwardsPointsAndBadge(t *testing.T) {
	env := newRecordEnv(t)

	result, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-1",
		ProgressPercentage: 100,
	})

	require.NoError(t, err)
	assert.True(t, result.FirstCompletion)

	// 50 for the lesson plus the 10-point first-lesson badge bonus.
	assert.Equal(t, 60, result.PointsAwarded)
	require.Len(t, result.NewBadges, 1)
	assert.Equal(t, gamification.BadgeFirstLesson, result.NewBadges[0].Type)

	assert.Equal(t, 60, env.leaderboard.scores["student-1"])
	assert.Contains(t, env.bus.eventTypes(), shared.EventCompletionRecorded)
	assert.Contains(t, env.bus.eventTypes(), shared.EventLessonCompleted)
}

func TestRecordCompletion_RedeliveryIsIdempotent(t *testing.T) {
	env := newRecordEnv(t)
	cmd := RecordCompletionCommand{
		StudentID:             "student-1",
		LessonID:              "lesson-1",
		ProgressPercentage:    100,
		TimeSpentDeltaMinutes: 0,
	}

	first, err := env.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.True(t, first.FirstCompletion)

	second, err := env.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.False(t, second.FirstCompletion)
	assert.Equal(t, 0, second.PointsAwarded)
	assert.Empty(t, second.NewBadges)

	total, err := env.points.TotalByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 60, total)
}

func TestRecordCompletion_QuizPassAwardedOnce(t *testing.T) {
	env := newRecordEnv(t)
	score := 85

	first, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-1",
		ProgressPercentage: 50,
		QuizScore:          &score,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, first.PointsAwarded)

	// An improved score does not re-award: the source is the same lesson.
	better := 95
	second, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-1",
		ProgressPercentage: 60,
		QuizScore:          &better,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, second.PointsAwarded)
	assert.Equal(t, 95, *second.Record.BestQuizScore)
}

func TestRecordCompletion_FailingQuizNoPoints(t *testing.T) {
	env := newRecordEnv(t)
	score := 60 // below the default pass threshold of 70

	result, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-1",
		ProgressPercentage: 50,
		QuizScore:          &score,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.PointsAwarded)
}

func TestRecordCompletion_UnknownLessonStillRecorded(t *testing.T) {
	env := newRecordEnv(t)

	result, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-unknown",
		ProgressPercentage: 30,
	})

	require.NoError(t, err)
	assert.Equal(t, shared.CourseID(""), result.Record.CourseID)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, shared.WarnDanglingReference, result.Warnings[0].Code)
}

func TestRecordCompletion_CatalogDownStillRecorded(t *testing.T) {
	env := newRecordEnv(t)
	env.resolver.down = true

	result, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID:          "student-1",
		LessonID:           "lesson-1",
		ProgressPercentage: 100,
	})

	require.NoError(t, err)
	assert.True(t, result.FirstCompletion)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, shared.WarnCatalogUnavailable, result.Warnings[0].Code)
}

func TestRecordCompletion_CourseFinisherBadge(t *testing.T) {
	env := newRecordEnv(t)
	env.resolver.refs["lesson-2"] = &catalog.HierarchyRef{
		LessonID: "lesson-2", ModuleID: "module-1", CourseID: "course-1", Category: "Marketing",
	}
	env.resolver.courses["course-1"] = []shared.LessonID{"lesson-1", "lesson-2"}
	env.resolver.enrollments = []*catalog.EnrollmentWindow{{
		StudentID: "student-1", CourseID: "course-1",
		EnrolledAt: time.Now().AddDate(0, 0, -10), TargetDurationDays: 30,
	}}

	_, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID: "student-1", LessonID: "lesson-1", ProgressPercentage: 100,
	})
	require.NoError(t, err)

	result, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID: "student-1", LessonID: "lesson-2", ProgressPercentage: 100,
	})
	require.NoError(t, err)

	types := make([]gamification.BadgeType, 0, len(result.NewBadges))
	for _, b := range result.NewBadges {
		types = append(types, b.Type)
	}
	assert.Contains(t, types, gamification.BadgeCourseFinisher)
}

func TestResetCompletion(t *testing.T) {
	env := newRecordEnv(t)

	_, err := env.handler.Handle(context.Background(), RecordCompletionCommand{
		StudentID: "student-1", LessonID: "lesson-1", ProgressPercentage: 100,
	})
	require.NoError(t, err)

	resetHandler := NewResetCompletionHandler(env.completions, env.bus, nil)

	result, err := resetHandler.Handle(context.Background(), ResetCompletionCommand{
		StudentID: "student-1",
		LessonID:  "lesson-1",
		ResetBy:   "admin-1",
		Reason:    "support ticket 4821",
	})
	require.NoError(t, err)
	assert.False(t, result.ResetAt.IsZero())

	_, err = env.completions.Get(context.Background(), "student-1", "lesson-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResetCompletion_MissingRecord(t *testing.T) {
	env := newRecordEnv(t)
	resetHandler := NewResetCompletionHandler(env.completions, env.bus, nil)

	_, err := resetHandler.Handle(context.Background(), ResetCompletionCommand{
		StudentID: "student-1",
		LessonID:  "lesson-404",
		ResetBy:   "admin-1",
		Reason:    "cleanup",
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResetCompletion_RequiresAudit(t *testing.T) {
	env := newRecordEnv(t)
	resetHandler := NewResetCompletionHandler(env.completions, env.bus, nil)

	_, err := resetHandler.Handle(context.Background(), ResetCompletionCommand{
		StudentID: "student-1",
		LessonID:  "lesson-1",
	})

	assert.ErrorIs(t, err, shared.ErrValidation)
}
