package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelCurve_Validate(t *testing.T) {
	assert.NoError(t, DefaultLevelCurve().Validate())
	assert.Error(t, LevelCurve{Base: 0, Multiplier: 1.5}.Validate())
	assert.Error(t, LevelCurve{Base: 100, Multiplier: 0.9}.Validate())
}

func TestLevelCurve_Thresholds(t *testing.T) {
	curve := DefaultLevelCurve()

	assert.Equal(t, 100, curve.Threshold(1))
	assert.Equal(t, 150, curve.Threshold(2))
	assert.Equal(t, 225, curve.Threshold(3))

	assert.Equal(t, 0, curve.CumulativeThreshold(1))
	assert.Equal(t, 100, curve.CumulativeThreshold(2))
	assert.Equal(t, 250, curve.CumulativeThreshold(3))
}

func TestLevelCurve_LevelForPoints(t *testing.T) {
	curve := DefaultLevelCurve()

	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{474, 3},
		{475, 4},
		{-10, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, curve.LevelForPoints(tt.points), "points=%d", tt.points)
	}
}

func TestLevelCurve_PointsToNext(t *testing.T) {
	curve := DefaultLevelCurve()

	assert.Equal(t, 100, curve.PointsToNext(0))
	assert.Equal(t, 1, curve.PointsToNext(99))
	assert.Equal(t, 150, curve.PointsToNext(100))
	assert.Equal(t, 50, curve.PointsToNext(200))
}

func TestLevelCurve_ProgressToNext(t *testing.T) {
	curve := DefaultLevelCurve()

	assert.Equal(t, 0.0, curve.ProgressToNext(0))
	assert.InDelta(t, 0.5, curve.ProgressToNext(50), 1e-9)
	assert.Equal(t, 0.0, curve.ProgressToNext(100))
	assert.InDelta(t, 1.0/3, curve.ProgressToNext(150), 1e-9)
}
