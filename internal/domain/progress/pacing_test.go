package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
)

func testEnrollment(durationDays int) catalog.EnrollmentWindow {
	return catalog.EnrollmentWindow{
		StudentID:          "student-1",
		CourseID:           "course-1",
		EnrolledAt:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TargetDurationDays: durationDays,
	}
}

func TestComputePacing_StatusThresholds(t *testing.T) {
	// 10 days into a 20-day window: expected progress is 50%.
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	enrollment := testEnrollment(20)
	thresholds := DefaultPacingThresholds()

	tests := []struct {
		name   string
		actual float64
		want   PacingStatus
	}{
		{"matching pace is on track", 50, PacingOnTrack},
		{"within threshold above", 54, PacingOnTrack},
		{"within threshold below", 46, PacingOnTrack},
		{"well ahead", 70, PacingAhead},
		{"well behind", 30, PacingBehind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputePacing(enrollment, tt.actual, now, thresholds)
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, float64(50), result.ExpectedPercentage)
			assert.Equal(t, tt.actual-50, result.Deviation)
			assert.Equal(t, 10, result.DaysElapsed)
			assert.Equal(t, 10, result.DaysRemaining)
		})
	}
}

func TestComputePacing_IsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	enrollment := testEnrollment(20)

	first := ComputePacing(enrollment, 42, now, DefaultPacingThresholds())
	second := ComputePacing(enrollment, 42, now, DefaultPacingThresholds())

	assert.Equal(t, first, second)
}

func TestComputePacing_ZeroDurationExpectsFull(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	result := ComputePacing(testEnrollment(0), 40, now, DefaultPacingThresholds())

	assert.Equal(t, float64(100), result.ExpectedPercentage)
	assert.Equal(t, PacingBehind, result.Status)
}

func TestComputePacing_PastWindowClampsExpected(t *testing.T) {
	// 30 days into a 20-day window.
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	result := ComputePacing(testEnrollment(20), 80, now, DefaultPacingThresholds())

	assert.Equal(t, float64(100), result.ExpectedPercentage)
	assert.Equal(t, PacingBehind, result.Status)
	assert.Equal(t, 0, result.DaysRemaining)

	// Only actual 100% gets the late student back on track.
	done := ComputePacing(testEnrollment(20), 100, now, DefaultPacingThresholds())
	assert.Equal(t, PacingOnTrack, done.Status)
}

func TestComputePacing_CustomThresholds(t *testing.T) {
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	tight := PacingThresholds{Ahead: 1, Behind: -1}

	result := ComputePacing(testEnrollment(20), 53, now, tight)

	assert.Equal(t, PacingAhead, result.Status)
}
