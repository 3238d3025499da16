package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBadges_FirstLesson(t *testing.T) {
	now := time.Now().UTC()
	state := DerivedState{CompletedLessons: 1}

	earned := EvaluateBadges("student-1", state, nil, DefaultBadgeDefinitions(), now)

	require.Len(t, earned, 1)
	assert.Equal(t, BadgeFirstLesson, earned[0].Type)
}

func TestEvaluateBadges_AlreadyEarnedNotReissued(t *testing.T) {
	now := time.Now().UTC()
	state := DerivedState{CompletedLessons: 10}
	existing := []*Badge{NewBadge("student-1", BadgeFirstLesson, now.Add(-time.Hour))}

	earned := EvaluateBadges("student-1", state, existing, DefaultBadgeDefinitions(), now)

	assert.Empty(t, earned)
}

func TestEvaluateBadges_MultipleRulesAtOnce(t *testing.T) {
	now := time.Now().UTC()
	state := DerivedState{
		CompletedLessons:  20,
		CompletedCourses:  1,
		LongestStreakDays: 7,
	}

	earned := EvaluateBadges("student-1", state, nil, DefaultBadgeDefinitions(), now)

	types := make([]BadgeType, 0, len(earned))
	for _, b := range earned {
		types = append(types, b.Type)
	}
	assert.ElementsMatch(t, []BadgeType{BadgeFirstLesson, BadgeCourseFinisher, BadgeWeekStreak}, types)
}

func TestEvaluateBadges_DeterministicOrder(t *testing.T) {
	now := time.Now().UTC()
	state := DerivedState{CompletedLessons: 1, CompletedCourses: 1}

	first := EvaluateBadges("student-1", state, nil, DefaultBadgeDefinitions(), now)
	second := EvaluateBadges("student-1", state, nil, DefaultBadgeDefinitions(), now)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Type, second[i].Type)
	}
}

func TestDefinitionFor(t *testing.T) {
	defs := DefaultBadgeDefinitions()

	def, ok := DefinitionFor(BadgeCourseFinisher, defs)
	require.True(t, ok)
	assert.Equal(t, 100, def.BonusPoints)

	_, ok = DefinitionFor(BadgeType("nope"), defs)
	assert.False(t, ok)
}

func TestComputeProfile(t *testing.T) {
	now := time.Now().UTC()
	events := make([]*PointEvent, 0, 3)
	for _, p := range []int{50, 50, 150} {
		e, err := NewPointEvent("student-1", ReasonLessonCompleted, "lesson", p, now)
		require.NoError(t, err)
		events = append(events, e)
	}
	badges := []*Badge{NewBadge("student-1", BadgeFirstLesson, now)}

	profile := ComputeProfile("student-1", events, badges, DefaultLevelCurve())

	assert.Equal(t, 250, profile.TotalPoints)
	assert.Equal(t, 3, profile.Level)
	assert.Equal(t, 225, profile.PointsToNextLevel)
	assert.Len(t, profile.Badges, 1)
}
