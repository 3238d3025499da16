package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Implements gamification.Leaderboard on a Redis Sorted Set: member is
// the student ID, score is the total points from the point-event log.
// Best-effort by contract - the log in Postgres stays authoritative and
// the set can be rebuilt from it at any time.
//
// Sorted Set "leaderboard:points" gives O(log N) rank lookups and
// O(log N + M) range queries.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when the leaderboard has no entries.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrStudentNotRanked is returned when the student is not in the set.
	ErrStudentNotRanked = errors.New("leaderboard_cache: student not ranked")
)

// LeaderboardCache provides points-leaderboard operations on Redis.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// UpdateScore sets the student's total points. ZADD is idempotent: a
// replayed update with the same total is a no-op.
func (l *LeaderboardCache) UpdateScore(ctx context.Context, studentID shared.StudentID, totalPoints int) error {
	err := l.cache.Client().ZAdd(ctx, PointsLeaderboardKey(), redis.Z{
		Score:  float64(totalPoints),
		Member: studentID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard_cache: zadd: %w", err)
	}
	return nil
}

// Top returns the first limit entries by descending points.
func (l *LeaderboardCache) Top(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	members, err := l.cache.Client().ZRevRangeWithScores(ctx, PointsLeaderboardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: zrevrange: %w", err)
	}

	entries := make([]gamification.LeaderboardEntry, 0, len(members))
	for i, member := range members {
		id, ok := member.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, gamification.LeaderboardEntry{
			StudentID:   shared.StudentID(id),
			Rank:        i + 1,
			TotalPoints: int(member.Score),
		})
	}

	return entries, nil
}

// Rank returns the student's 1-based position and points.
func (l *LeaderboardCache) Rank(ctx context.Context, studentID shared.StudentID) (*gamification.LeaderboardEntry, error) {
	key := PointsLeaderboardKey()
	member := studentID.String()

	rank, err := l.cache.Client().ZRevRank(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStudentNotRanked
		}
		return nil, fmt.Errorf("leaderboard_cache: zrevrank: %w", err)
	}

	score, err := l.cache.Client().ZScore(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStudentNotRanked
		}
		return nil, fmt.Errorf("leaderboard_cache: zscore: %w", err)
	}

	return &gamification.LeaderboardEntry{
		StudentID:   studentID,
		Rank:        int(rank) + 1,
		TotalPoints: int(score),
	}, nil
}

// Remove drops a student from the leaderboard (admin reset path).
func (l *LeaderboardCache) Remove(ctx context.Context, studentID shared.StudentID) error {
	return l.cache.Client().ZRem(ctx, PointsLeaderboardKey(), studentID.String()).Err()
}

// Size returns the number of ranked students.
func (l *LeaderboardCache) Size(ctx context.Context) (int64, error) {
	return l.cache.Client().ZCard(ctx, PointsLeaderboardKey()).Result()
}

// Rebuild replaces the whole set from a fold of the point-event log.
// Used on startup or after a reset to resynchronize with the truth.
func (l *LeaderboardCache) Rebuild(ctx context.Context, totals map[shared.StudentID]int) error {
	key := PointsLeaderboardKey()

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, key)
	for studentID, points := range totals {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(points), Member: studentID.String()})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard_cache: rebuild: %w", err)
	}
	return nil
}
