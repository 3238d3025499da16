package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// activityOn builds a record whose only activity is at the given time.
func activityOn(at time.Time) *completion.CompletionRecord {
	return &completion.CompletionRecord{
		StudentID:     shared.StudentID("student-1"),
		LessonID:      shared.LessonID("lesson-" + at.Format("2006-01-02")),
		LastUpdatedAt: at,
	}
}

func TestComputeStreak_NoActivity(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	state := ComputeStreak("student-1", nil, time.UTC, now)

	assert.Equal(t, 0, state.CurrentStreakDays)
	assert.Equal(t, 0, state.LongestStreakDays)
	assert.True(t, state.LastActiveDay.IsZero())
}

func TestComputeStreak_GapResetsCurrentButKeepsLongest(t *testing.T) {
	// Active on D-3, D-2 and D with a hole at D-1: the two-day run is
	// history, today restarts the current streak at 1.
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	records := []*completion.CompletionRecord{
		activityOn(now.AddDate(0, 0, -3)),
		activityOn(now.AddDate(0, 0, -2)),
		activityOn(now),
	}

	state := ComputeStreak("student-1", records, time.UTC, now)

	assert.Equal(t, 1, state.CurrentStreakDays)
	assert.Equal(t, 2, state.LongestStreakDays)
}

func TestComputeStreak_ConsecutiveRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	records := []*completion.CompletionRecord{
		activityOn(now.AddDate(0, 0, -2)),
		activityOn(now.AddDate(0, 0, -1)),
		activityOn(now),
	}

	state := ComputeStreak("student-1", records, time.UTC, now)

	assert.Equal(t, 3, state.CurrentStreakDays)
	assert.Equal(t, 3, state.LongestStreakDays)
}

func TestComputeStreak_YesterdayKeepsStreakAlive(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []*completion.CompletionRecord{
		activityOn(now.AddDate(0, 0, -2)),
		activityOn(now.AddDate(0, 0, -1)),
	}

	state := ComputeStreak("student-1", records, time.UTC, now)

	assert.Equal(t, 2, state.CurrentStreakDays)
}

func TestComputeStreak_StaleActivityGivesZeroCurrent(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []*completion.CompletionRecord{
		activityOn(now.AddDate(0, 0, -5)),
		activityOn(now.AddDate(0, 0, -4)),
	}

	state := ComputeStreak("student-1", records, time.UTC, now)

	assert.Equal(t, 0, state.CurrentStreakDays)
	assert.Equal(t, 2, state.LongestStreakDays)
}

func TestComputeStreak_MultipleActivitiesSameDayCountOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	records := []*completion.CompletionRecord{
		activityOn(now.Add(-10 * time.Hour)),
		activityOn(now.Add(-5 * time.Hour)),
		activityOn(now),
	}

	state := ComputeStreak("student-1", records, time.UTC, now)

	assert.Equal(t, 1, state.CurrentStreakDays)
	assert.Equal(t, 1, state.LongestStreakDays)
}

func TestComputeStreak_TimezoneDefinesDayBoundary(t *testing.T) {
	// 23:30 UTC on March 9 is already March 10 in Almaty (UTC+5).
	almaty := time.FixedZone("UTC+5", 5*3600)
	lateNight := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	records := []*completion.CompletionRecord{activityOn(lateNight)}

	utcState := ComputeStreak("student-1", records, time.UTC, now)
	almatyState := ComputeStreak("student-1", records, almaty, now)

	// In UTC the activity was yesterday; in Almaty it is today.
	assert.Equal(t, 1, utcState.CurrentStreakDays)
	assert.Equal(t, 1, almatyState.CurrentStreakDays)
	assert.NotEqual(t, utcState.LastActiveDay, almatyState.LastActiveDay)
}

func TestComputeStreak_DeterministicForSameInput(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []*completion.CompletionRecord{
		activityOn(now.AddDate(0, 0, -1)),
		activityOn(now),
	}

	first := ComputeStreak("student-1", records, time.UTC, now)
	second := ComputeStreak("student-1", records, time.UTC, now)

	assert.Equal(t, first, second)
}
