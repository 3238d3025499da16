package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

type fakeTotals struct {
	totals map[shared.StudentID]int
	err    error
}

func (f *fakeTotals) Totals(ctx context.Context) (map[shared.StudentID]int, error) {
	return f.totals, f.err
}

type fakeStore struct {
	rebuilt map[shared.StudentID]int
	err     error
}

func (f *fakeStore) Rebuild(ctx context.Context, totals map[shared.StudentID]int) error {
	if f.err != nil {
		return f.err
	}
	f.rebuilt = totals
	return nil
}

func TestRebuildLeaderboardJob_Run(t *testing.T) {
	totals := map[shared.StudentID]int{"student-1": 250, "student-2": 90}
	store := &fakeStore{}
	job := NewRebuildLeaderboardJob(&fakeTotals{totals: totals}, store, nil)

	err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, totals, store.rebuilt)
	assert.Equal(t, "rebuild_leaderboard", job.Name())
}

func TestRebuildLeaderboardJob_LedgerReadFails(t *testing.T) {
	readErr := errors.New("db down")
	store := &fakeStore{}
	job := NewRebuildLeaderboardJob(&fakeTotals{err: readErr}, store, nil)

	err := job.Run(context.Background())

	assert.ErrorIs(t, err, readErr)
	assert.Nil(t, store.rebuilt)
}

func TestRebuildLeaderboardJob_StoreWriteFails(t *testing.T) {
	writeErr := errors.New("redis down")
	job := NewRebuildLeaderboardJob(
		&fakeTotals{totals: map[shared.StudentID]int{"student-1": 10}},
		&fakeStore{err: writeErr},
		nil,
	)

	assert.ErrorIs(t, job.Run(context.Background()), writeErr)
}
