package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

func TestNewPointEvent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	event, err := NewPointEvent("student-1", ReasonLessonCompleted, "lesson-1", 50, now)

	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", event.ID.String())
	assert.Equal(t, shared.StudentID("student-1"), event.StudentID)
	assert.Equal(t, 50, event.Points)
	assert.Equal(t, now, event.OccurredAt)
}

func TestNewPointEvent_Rejections(t *testing.T) {
	now := time.Now()

	_, err := NewPointEvent("", ReasonLessonCompleted, "lesson-1", 50, now)
	assert.ErrorIs(t, err, shared.ErrInvalidStudent)

	_, err = NewPointEvent("student-1", PointReason("bogus"), "lesson-1", 50, now)
	assert.Error(t, err)

	_, err = NewPointEvent("student-1", ReasonQuizPassed, "", 25, now)
	assert.Error(t, err)

	_, err = NewPointEvent("student-1", ReasonQuizPassed, "lesson-1", -5, now)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}

func TestTotalPoints_FoldsLedger(t *testing.T) {
	now := time.Now()
	mk := func(points int) *PointEvent {
		e, err := NewPointEvent("student-1", ReasonLessonCompleted, "lesson", points, now)
		require.NoError(t, err)
		return e
	}

	assert.Equal(t, 0, TotalPoints(nil))
	assert.Equal(t, 105, TotalPoints([]*PointEvent{mk(50), mk(50), mk(5)}))
}

func TestPointsConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultPointsConfig().Validate())
	assert.Error(t, PointsConfig{LessonCompletionPoints: -1}.Validate())
	assert.Error(t, PointsConfig{QuizPassScoreThreshold: 101}.Validate())
}
