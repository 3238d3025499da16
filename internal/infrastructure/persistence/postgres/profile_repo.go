package postgres

import (
	"context"
	"fmt"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements student.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// Save creates or updates a profile.
func (r *ProfileRepository) Save(ctx context.Context, profile *student.Profile) error {
	query := `
		INSERT INTO student_profiles (id, display_name, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(profile.ID),
		profile.DisplayName,
		profile.Timezone,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save student profile: %w", err)
	}

	return nil
}

// FindByID returns a profile by student ID.
func (r *ProfileRepository) FindByID(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	query := `
		SELECT id, display_name, timezone, created_at, updated_at
		FROM student_profiles
		WHERE id = $1
	`

	var (
		profile   student.Profile
		profileID string
	)
	err := r.conn.QueryRow(ctx, query, string(id)).Scan(
		&profileID,
		&profile.DisplayName,
		&profile.Timezone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find student profile: %w", err)
	}

	profile.ID = shared.StudentID(profileID)
	return &profile, nil
}
