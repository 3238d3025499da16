package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig(server.URL)
	cfg.RetryConfig.MaxRetries = 1
	cfg.RetryConfig.InitialBackoff = time.Millisecond
	return NewClient(cfg)
}

func TestClient_GetLesson(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/lessons/lesson-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"id": "lesson-1",
				"module_id": "module-1",
				"course_id": "course-1",
				"category": "Marketing"
			}
		}`))
	}))

	dto, err := client.GetLesson(context.Background(), "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", dto.ID)
	assert.Equal(t, "module-1", dto.ModuleID)
	assert.Equal(t, "course-1", dto.CourseID)
	assert.Equal(t, "Marketing", dto.Category)
}

func TestClient_GetLesson_NotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "NOT_FOUND", "message": "lesson not found"}`))
	}))

	_, err := client.GetLesson(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, isNotFound(err))
}

func TestClient_GetCourse(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/course-1", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"data": {
				"id": "course-1",
				"category": "Design",
				"lesson_ids": ["l1", "l2", "l3"]
			}
		}`))
	}))

	dto, err := client.GetCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "Design", dto.Category)
	assert.Equal(t, []string{"l1", "l2", "l3"}, dto.LessonIDs)
}

func TestClient_ListEnrollments(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/students/stu-1/enrollments", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"data": [
				{
					"student_id": "stu-1",
					"course_id": "course-1",
					"enrolled_at": "2026-01-10T00:00:00Z",
					"target_duration_days": 30
				}
			]
		}`))
	}))

	dtos, err := client.ListEnrollments(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "course-1", dtos[0].CourseID)
	assert.Equal(t, 30, dtos[0].TargetDurationDays)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success": true, "data": {"id": "lesson-1"}}`))
	}))

	dto, err := client.GetLesson(context.Background(), "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", dto.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "NOT_FOUND", "message": "gone"}`))
	}))

	_, err := client.GetLesson(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, CircuitClosed, client.circuitBreaker.State())
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "BAD_REQUEST", "message": "nope"}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig(server.URL)
	cfg.RetryConfig.MaxRetries = 0
	cfg.CircuitBreakerConfig.FailureThreshold = 2
	client := NewClient(cfg)

	for i := 0; i < 2; i++ {
		_, err := client.GetLesson(context.Background(), "lesson-1")
		require.Error(t, err)
	}

	assert.Equal(t, CircuitOpen, client.circuitBreaker.State())

	_, err := client.GetLesson(context.Background(), "lesson-1")
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cached resolver
// ─────────────────────────────────────────────────────────────────────────────

type fakeHierEntry struct {
	ref          *catalogdomain.HierarchyRef
	unresolvable bool
}

type fakeHierarchyCache struct {
	lessons     map[shared.LessonID]fakeHierEntry
	courseLists map[shared.CourseID][]shared.LessonID
	moduleLists map[shared.ModuleID][]shared.LessonID
	enrollments map[string]*catalogdomain.EnrollmentWindow
	enrollLists map[shared.StudentID][]*catalogdomain.EnrollmentWindow
}

func newFakeHierarchyCache() *fakeHierarchyCache {
	return &fakeHierarchyCache{
		lessons:     make(map[shared.LessonID]fakeHierEntry),
		courseLists: make(map[shared.CourseID][]shared.LessonID),
		moduleLists: make(map[shared.ModuleID][]shared.LessonID),
		enrollments: make(map[string]*catalogdomain.EnrollmentWindow),
		enrollLists: make(map[shared.StudentID][]*catalogdomain.EnrollmentWindow),
	}
}

func (f *fakeHierarchyCache) GetLesson(_ context.Context, lessonID shared.LessonID) (*catalogdomain.HierarchyRef, error) {
	entry, ok := f.lessons[lessonID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if entry.unresolvable {
		return nil, shared.ErrUnresolvable
	}
	return entry.ref, nil
}

func (f *fakeHierarchyCache) SetLesson(_ context.Context, ref *catalogdomain.HierarchyRef) error {
	f.lessons[ref.LessonID] = fakeHierEntry{ref: ref}
	return nil
}

func (f *fakeHierarchyCache) SetUnresolvable(_ context.Context, lessonID shared.LessonID) error {
	f.lessons[lessonID] = fakeHierEntry{unresolvable: true}
	return nil
}

func (f *fakeHierarchyCache) GetCourseLessons(_ context.Context, courseID shared.CourseID) ([]shared.LessonID, error) {
	lessons, ok := f.courseLists[courseID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return lessons, nil
}

func (f *fakeHierarchyCache) SetCourseLessons(_ context.Context, courseID shared.CourseID, lessons []shared.LessonID) error {
	f.courseLists[courseID] = lessons
	return nil
}

func (f *fakeHierarchyCache) GetModuleLessons(_ context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error) {
	lessons, ok := f.moduleLists[moduleID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return lessons, nil
}

func (f *fakeHierarchyCache) SetModuleLessons(_ context.Context, moduleID shared.ModuleID, lessons []shared.LessonID) error {
	f.moduleLists[moduleID] = lessons
	return nil
}

func (f *fakeHierarchyCache) GetEnrollment(_ context.Context, studentID shared.StudentID, courseID shared.CourseID) (*catalogdomain.EnrollmentWindow, error) {
	window, ok := f.enrollments[studentID.String()+"/"+courseID.String()]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return window, nil
}

func (f *fakeHierarchyCache) SetEnrollment(_ context.Context, window *catalogdomain.EnrollmentWindow) error {
	f.enrollments[window.StudentID.String()+"/"+window.CourseID.String()] = window
	return nil
}

func (f *fakeHierarchyCache) GetEnrollmentList(_ context.Context, studentID shared.StudentID) ([]*catalogdomain.EnrollmentWindow, error) {
	windows, ok := f.enrollLists[studentID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return windows, nil
}

func (f *fakeHierarchyCache) SetEnrollmentList(_ context.Context, studentID shared.StudentID, windows []*catalogdomain.EnrollmentWindow) error {
	f.enrollLists[studentID] = windows
	return nil
}

func TestCachedResolver_ResolveLesson_ReadThrough(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{
			"success": true,
			"data": {"id": "lesson-1", "module_id": "m1", "course_id": "c1", "category": "Marketing"}
		}`))
	}))

	cache := newFakeHierarchyCache()
	resolver := NewCachedResolver(client, cache, logger.Default())

	ref, err := resolver.ResolveLesson(context.Background(), "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, shared.CourseID("c1"), ref.CourseID)
	assert.Equal(t, int32(1), calls.Load())

	// Second call is served from the cache.
	ref, err = resolver.ResolveLesson(context.Background(), "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, shared.ModuleID("m1"), ref.ModuleID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedResolver_ResolveLesson_NegativeCaching(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "NOT_FOUND", "message": "lesson not found"}`))
	}))

	cache := newFakeHierarchyCache()
	resolver := NewCachedResolver(client, cache, logger.Default())

	_, err := resolver.ResolveLesson(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())

	// The negative entry short-circuits the second lookup.
	_, err = resolver.ResolveLesson(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedResolver_CatalogDown(t *testing.T) {
	cfg := DefaultClientConfig("http://127.0.0.1:1")
	cfg.RetryConfig.MaxRetries = 0
	cfg.Timeout = 100 * time.Millisecond
	client := NewClient(cfg)

	resolver := NewCachedResolver(client, newFakeHierarchyCache(), logger.Default())

	_, err := resolver.ResolveLesson(context.Background(), "lesson-1")
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)

	_, err = resolver.ListLessonsForCourse(context.Background(), "course-1")
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestCachedResolver_ListLessonsForCourse(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": {"id": "course-1", "category": "Design", "lesson_ids": ["l1", "l2"]}
		}`))
	}))

	cache := newFakeHierarchyCache()
	resolver := NewCachedResolver(client, cache, logger.Default())

	lessons, err := resolver.ListLessonsForCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, []shared.LessonID{"l1", "l2"}, lessons)
	assert.Equal(t, []shared.LessonID{"l1", "l2"}, cache.courseLists["course-1"])
}
