// Package jobs contains the scheduled maintenance jobs of the analytics engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// PointTotals is the ledger-side source for the rebuild: per-student
// point sums computed from the append-only point log.
type PointTotals interface {
	Totals(ctx context.Context) (map[shared.StudentID]int, error)
}

// LeaderboardStore is the cache-side target of the rebuild.
type LeaderboardStore interface {
	Rebuild(ctx context.Context, totals map[shared.StudentID]int) error
}

// RebuildLeaderboardJob reconciles the Redis leaderboard with the point
// ledger. The leaderboard is best-effort and can drift after cache
// restarts or missed updates; the ledger in Postgres is the source of
// truth, so a periodic full rebuild restores consistency.
type RebuildLeaderboardJob struct {
	totals      PointTotals
	leaderboard LeaderboardStore
	logger      *slog.Logger
}

// NewRebuildLeaderboardJob creates the job.
func NewRebuildLeaderboardJob(totals PointTotals, leaderboard LeaderboardStore, logger *slog.Logger) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildLeaderboardJob{
		totals:      totals,
		leaderboard: leaderboard,
		logger:      logger.With("job", "rebuild_leaderboard"),
	}
}

// Name returns the unique job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the Redis leaderboard from the Postgres point ledger"
}

// Run executes one full rebuild.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	totals, err := j.totals.Totals(ctx)
	if err != nil {
		return fmt.Errorf("rebuild_leaderboard: read totals: %w", err)
	}

	if err := j.leaderboard.Rebuild(ctx, totals); err != nil {
		return fmt.Errorf("rebuild_leaderboard: write leaderboard: %w", err)
	}

	j.logger.Info("leaderboard rebuilt", "students", len(totals))
	return nil
}
