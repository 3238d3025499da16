package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, Every(time.Hour)))
	err := s.Register(job, Every(time.Hour))

	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestRegister_RejectsNil(t *testing.T) {
	s := New(Config{})

	assert.ErrorIs(t, s.Register(nil, Every(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)
}

func TestRunNow_ExecutesAndRecords(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "rebuild"}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	result, err := s.RunNow(context.Background(), "rebuild")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, job.runs)
	assert.Equal(t, int64(1), s.GetMetrics().Snapshot().TotalExecutions)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := New(Config{})
	jobErr := errors.New("boom")
	job := &countingJob{name: "rebuild", err: jobErr}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	result, err := s.RunNow(context.Background(), "rebuild")

	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)
	assert.Equal(t, int64(1), s.GetMetrics().Snapshot().TotalFailures)
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := New(Config{})

	_, err := s.RunNow(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestListJobs(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Hour)))
	require.NoError(t, s.DisableJob("a"))

	infos := s.ListJobs()

	require.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].Name)
	assert.False(t, infos[0].Enabled)
	assert.Equal(t, "@every 1h0m0s", infos[0].Schedule)
}
