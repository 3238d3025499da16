package completion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

func intPtr(v int) *int { return &v }

func newTestRecord(t *testing.T) *CompletionRecord {
	t.Helper()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return NewRecord("rec-1", shared.StudentID("student-1"), shared.LessonID("lesson-1"), now)
}

func TestReport_Validate(t *testing.T) {
	tests := []struct {
		name    string
		report  Report
		wantErr error
	}{
		{
			name:   "valid report",
			report: Report{ProgressPercentage: 50, TimeSpentDeltaMinutes: 10},
		},
		{
			name:   "valid with quiz",
			report: Report{ProgressPercentage: 100, QuizScore: intPtr(85)},
		},
		{
			name:    "progress below zero",
			report:  Report{ProgressPercentage: -1},
			wantErr: shared.ErrProgressOutOfRange,
		},
		{
			name:    "progress above hundred",
			report:  Report{ProgressPercentage: 100.5},
			wantErr: shared.ErrProgressOutOfRange,
		},
		{
			name:    "negative time delta rejected not clamped",
			report:  Report{ProgressPercentage: 50, TimeSpentDeltaMinutes: -5},
			wantErr: shared.ErrNegativeTimeDelta,
		},
		{
			name:    "quiz score out of range",
			report:  Report{ProgressPercentage: 50, QuizScore: intPtr(101)},
			wantErr: shared.ErrQuizScoreOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.report.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApply_InvalidReportLeavesRecordUntouched(t *testing.T) {
	rec := newTestRecord(t)
	_, err := rec.Apply(Report{ProgressPercentage: 60, TimeSpentDeltaMinutes: -1}, time.Now())

	require.ErrorIs(t, err, shared.ErrNegativeTimeDelta)
	assert.Equal(t, float64(0), rec.ProgressPercentage)
	assert.Equal(t, 0, rec.TimeSpentMinutes)
	assert.Equal(t, StatusNotStarted, rec.Status)
}

func TestApply_ProgressIsMonotonic(t *testing.T) {
	rec := newTestRecord(t)
	now := time.Now().UTC()

	_, err := rec.Apply(Report{ProgressPercentage: 60}, now)
	require.NoError(t, err)
	assert.Equal(t, float64(60), rec.ProgressPercentage)
	assert.Equal(t, StatusInProgress, rec.Status)

	// Lower progress never wins.
	out, err := rec.Apply(Report{ProgressPercentage: 40}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, float64(60), rec.ProgressPercentage)
}

func TestApply_SameReportIsIdempotent(t *testing.T) {
	rec := newTestRecord(t)
	now := time.Now().UTC()
	report := Report{ProgressPercentage: 75, QuizScore: intPtr(80)}

	_, err := rec.Apply(report, now)
	require.NoError(t, err)

	out, err := rec.Apply(report, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, float64(75), rec.ProgressPercentage)
	assert.Equal(t, 80, *rec.BestQuizScore)
}

func TestApply_TimeDeltaAccumulates(t *testing.T) {
	rec := newTestRecord(t)
	now := time.Now().UTC()

	_, err := rec.Apply(Report{ProgressPercentage: 10, TimeSpentDeltaMinutes: 15}, now)
	require.NoError(t, err)
	_, err = rec.Apply(Report{ProgressPercentage: 20, TimeSpentDeltaMinutes: 30}, now)
	require.NoError(t, err)

	assert.Equal(t, 45, rec.TimeSpentMinutes)
}

func TestApply_MergeIsCommutative(t *testing.T) {
	now := time.Now().UTC()
	a := Report{ProgressPercentage: 80, TimeSpentDeltaMinutes: 10, QuizScore: intPtr(60)}
	b := Report{ProgressPercentage: 50, TimeSpentDeltaMinutes: 20, QuizScore: intPtr(90)}

	first := newTestRecord(t)
	_, err := first.Apply(a, now)
	require.NoError(t, err)
	_, err = first.Apply(b, now)
	require.NoError(t, err)

	second := newTestRecord(t)
	_, err = second.Apply(b, now)
	require.NoError(t, err)
	_, err = second.Apply(a, now)
	require.NoError(t, err)

	assert.Equal(t, first.ProgressPercentage, second.ProgressPercentage)
	assert.Equal(t, first.TimeSpentMinutes, second.TimeSpentMinutes)
	assert.Equal(t, *first.BestQuizScore, *second.BestQuizScore)
	assert.Equal(t, first.Status, second.Status)
}

func TestApply_CompletedAtSetExactlyOnce(t *testing.T) {
	rec := newTestRecord(t)
	firstDone := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	lateReport := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	out, err := rec.Apply(Report{ProgressPercentage: 100, Timestamp: firstDone}, firstDone)
	require.NoError(t, err)
	assert.True(t, out.FirstCompletion)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, firstDone, *rec.CompletedAt)

	// A repeated 100% report must not move the completion moment.
	out, err = rec.Apply(Report{ProgressPercentage: 100, Timestamp: lateReport}, lateReport)
	require.NoError(t, err)
	assert.False(t, out.FirstCompletion)
	assert.Equal(t, firstDone, *rec.CompletedAt)
}

func TestApply_QuizImprovedOnlyOnNewBest(t *testing.T) {
	rec := newTestRecord(t)
	now := time.Now().UTC()

	out, err := rec.Apply(Report{ProgressPercentage: 50, QuizScore: intPtr(70)}, now)
	require.NoError(t, err)
	assert.True(t, out.QuizImproved)

	out, err = rec.Apply(Report{ProgressPercentage: 50, QuizScore: intPtr(65)}, now)
	require.NoError(t, err)
	assert.False(t, out.QuizImproved)
	assert.Equal(t, 70, *rec.BestQuizScore)

	out, err = rec.Apply(Report{ProgressPercentage: 50, QuizScore: intPtr(95)}, now)
	require.NoError(t, err)
	assert.True(t, out.QuizImproved)
	assert.Equal(t, 95, *rec.BestQuizScore)
}

func TestAttachHierarchy_EmptyValuesDoNotOverwrite(t *testing.T) {
	rec := newTestRecord(t)

	rec.AttachHierarchy(shared.ModuleID("module-1"), shared.CourseID("course-1"))
	assert.Equal(t, shared.ModuleID("module-1"), rec.ModuleID)
	assert.Equal(t, shared.CourseID("course-1"), rec.CourseID)

	// An unresolved lookup later must keep the snapshot.
	rec.AttachHierarchy("", "")
	assert.Equal(t, shared.ModuleID("module-1"), rec.ModuleID)
	assert.Equal(t, shared.CourseID("course-1"), rec.CourseID)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusNotStarted, statusFor(0))
	assert.Equal(t, StatusInProgress, statusFor(0.5))
	assert.Equal(t, StatusInProgress, statusFor(99.9))
	assert.Equal(t, StatusCompleted, statusFor(100))
}
