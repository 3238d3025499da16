package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

func completedRecord(lessonID string, timeSpent int) *completion.CompletionRecord {
	done := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &completion.CompletionRecord{
		StudentID:          shared.StudentID("student-1"),
		LessonID:           shared.LessonID(lessonID),
		Status:             completion.StatusCompleted,
		ProgressPercentage: 100,
		TimeSpentMinutes:   timeSpent,
		CompletedAt:        &done,
		LastUpdatedAt:      done,
	}
}

func inProgressRecord(lessonID string, progress float64, timeSpent int) *completion.CompletionRecord {
	return &completion.CompletionRecord{
		StudentID:          shared.StudentID("student-1"),
		LessonID:           shared.LessonID(lessonID),
		Status:             completion.StatusInProgress,
		ProgressPercentage: progress,
		TimeSpentMinutes:   timeSpent,
		LastUpdatedAt:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func lessonIDs(ids ...string) []shared.LessonID {
	out := make([]shared.LessonID, 0, len(ids))
	for _, id := range ids {
		out = append(out, shared.LessonID(id))
	}
	return out
}

func TestComputeCourseProgress_Basic(t *testing.T) {
	records := []*completion.CompletionRecord{
		completedRecord("l1", 30),
		completedRecord("l2", 45),
		inProgressRecord("l3", 50, 20),
	}

	p := ComputeCourseProgress("student-1", "course-1", lessonIDs("l1", "l2", "l3", "l4"), records)

	assert.Equal(t, 2, p.CompletedLessons)
	assert.Equal(t, 4, p.TotalLessons)
	assert.Equal(t, float64(50), p.Percentage)
	assert.Equal(t, 95, p.TotalTimeSpentMinutes)
	assert.False(t, p.IsCompleted())
}

func TestComputeCourseProgress_EmptyCourseIsZeroNotNaN(t *testing.T) {
	p := ComputeCourseProgress("student-1", "course-1", nil, []*completion.CompletionRecord{
		completedRecord("l1", 30),
	})

	assert.Equal(t, 0, p.TotalLessons)
	assert.Equal(t, float64(0), p.Percentage)
	assert.False(t, p.IsCompleted())
}

func TestComputeCourseProgress_NoRecords(t *testing.T) {
	p := ComputeCourseProgress("student-1", "course-1", lessonIDs("l1", "l2"), nil)

	assert.Equal(t, 0, p.CompletedLessons)
	assert.Equal(t, float64(0), p.Percentage)
	assert.Equal(t, 0, p.TotalTimeSpentMinutes)
}

func TestComputeCourseProgress_RemovedLessonDropsFromCountersKeepsTime(t *testing.T) {
	removed := completedRecord("l-removed", 60)
	removed.CourseID = shared.CourseID("course-1")

	records := []*completion.CompletionRecord{
		completedRecord("l1", 30),
		removed,
	}

	// Current structure no longer contains l-removed.
	p := ComputeCourseProgress("student-1", "course-1", lessonIDs("l1", "l2"), records)

	assert.Equal(t, 1, p.CompletedLessons)
	assert.Equal(t, 2, p.TotalLessons)
	assert.Equal(t, float64(50), p.Percentage)
	// Historical time survives the structure change via the snapshot.
	assert.Equal(t, 90, p.TotalTimeSpentMinutes)
}

func TestComputeCourseProgress_ForeignCourseTimeExcluded(t *testing.T) {
	foreign := completedRecord("l-other", 120)
	foreign.CourseID = shared.CourseID("course-2")

	p := ComputeCourseProgress("student-1", "course-1", lessonIDs("l1"), []*completion.CompletionRecord{
		completedRecord("l1", 30),
		foreign,
	})

	assert.Equal(t, 30, p.TotalTimeSpentMinutes)
}

func TestComputeCourseProgress_FullCompletion(t *testing.T) {
	p := ComputeCourseProgress("student-1", "course-1", lessonIDs("l1", "l2"), []*completion.CompletionRecord{
		completedRecord("l1", 10),
		completedRecord("l2", 10),
	})

	assert.Equal(t, float64(100), p.Percentage)
	assert.True(t, p.IsCompleted())
}

func TestComputeModuleProgress(t *testing.T) {
	records := []*completion.CompletionRecord{
		completedRecord("l1", 15),
		inProgressRecord("l2", 30, 25),
	}

	p := ComputeModuleProgress("student-1", "module-1", lessonIDs("l1", "l2"), records)

	assert.Equal(t, 1, p.CompletedLessons)
	assert.Equal(t, 2, p.TotalLessons)
	assert.Equal(t, float64(50), p.Percentage)
	assert.Equal(t, 40, p.TotalTimeSpentMinutes)
}
