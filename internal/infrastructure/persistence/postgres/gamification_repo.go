package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POINT EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PointEventRepository implements gamification.PointEventRepository for PostgreSQL.
type PointEventRepository struct {
	conn *Connection
}

// NewPointEventRepository creates a new PointEventRepository.
func NewPointEventRepository(conn *Connection) *PointEventRepository {
	return &PointEventRepository{conn: conn}
}

// Append inserts a point event. The unique (student, reason, source) key
// rejects replays of the same transition.
func (r *PointEventRepository) Append(ctx context.Context, event *gamification.PointEvent) error {
	query := `
		INSERT INTO point_events (id, student_id, reason, source_id, points, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		event.ID.String(),
		string(event.StudentID),
		string(event.Reason),
		event.SourceID,
		event.Points,
		event.OccurredAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrPointEventExists
		}
		return fmt.Errorf("failed to append point event: %w", err)
	}

	return nil
}

// ListByStudent returns the student's point log in occurrence order.
func (r *PointEventRepository) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*gamification.PointEvent, error) {
	query := `
		SELECT id, student_id, reason, source_id, points, occurred_at
		FROM point_events
		WHERE student_id = $1
		ORDER BY occurred_at
	`
	rows, err := r.conn.Query(ctx, query, string(studentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list point events: %w", err)
	}
	defer rows.Close()

	var events []*gamification.PointEvent
	for rows.Next() {
		event, err := scanPointEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate point events: %w", err)
	}

	return events, nil
}

// TotalByStudent folds the log into a point sum on the database side.
func (r *PointEventRepository) TotalByStudent(ctx context.Context, studentID shared.StudentID) (int, error) {
	query := `SELECT COALESCE(SUM(points), 0) FROM point_events WHERE student_id = $1`

	var total int
	if err := r.conn.QueryRow(ctx, query, string(studentID)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}

// Totals folds the whole point ledger into per-student sums. Used by the
// leaderboard rebuild job; not part of the domain repository port.
func (r *PointEventRepository) Totals(ctx context.Context) (map[shared.StudentID]int, error) {
	query := `SELECT student_id, SUM(points) FROM point_events GROUP BY student_id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sum point totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[shared.StudentID]int)
	for rows.Next() {
		var (
			studentID string
			total     int
		)
		if err := rows.Scan(&studentID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan point total: %w", err)
		}
		totals[shared.StudentID(studentID)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate point totals: %w", err)
	}

	return totals, nil
}

func scanPointEvent(row pgx.Row) (*gamification.PointEvent, error) {
	var (
		event     gamification.PointEvent
		id        string
		studentID string
		reason    string
	)

	err := row.Scan(&id, &studentID, &reason, &event.SourceID, &event.Points, &event.OccurredAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid point event id %q: %w", id, err)
	}

	event.ID = parsed
	event.StudentID = shared.StudentID(studentID)
	event.Reason = gamification.PointReason(reason)
	return &event, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRepository implements gamification.BadgeRepository for PostgreSQL.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

// Award stores an earned badge. earned_at is written once: a duplicate
// award hits the unique key and leaves the original row untouched.
func (r *BadgeRepository) Award(ctx context.Context, badge *gamification.Badge) error {
	query := `
		INSERT INTO badges (id, student_id, badge_type, earned_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query,
		badge.ID.String(),
		string(badge.StudentID),
		string(badge.Type),
		badge.EarnedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrBadgeExists
		}
		return fmt.Errorf("failed to award badge: %w", err)
	}

	return nil
}

// ListByStudent returns the student's badges in earn order.
func (r *BadgeRepository) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*gamification.Badge, error) {
	query := `
		SELECT id, student_id, badge_type, earned_at
		FROM badges
		WHERE student_id = $1
		ORDER BY earned_at
	`
	rows, err := r.conn.Query(ctx, query, string(studentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []*gamification.Badge
	for rows.Next() {
		var (
			badge     gamification.Badge
			id        string
			studentID string
			badgeType string
		)
		if err := rows.Scan(&id, &studentID, &badgeType, &badge.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid badge id %q: %w", id, err)
		}

		badge.ID = parsed
		badge.StudentID = shared.StudentID(studentID)
		badge.Type = gamification.BadgeType(badgeType)
		badges = append(badges, &badge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate badges: %w", err)
	}

	return badges, nil
}
