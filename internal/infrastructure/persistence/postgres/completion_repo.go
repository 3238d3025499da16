package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRepository implements completion.Repository for PostgreSQL.
//
// Upsert serializes concurrent writers on the (student_id, lesson_id) row:
// the row is inserted if missing, then locked with FOR UPDATE, merged in
// memory by the domain model, and written back in the same transaction.
type CompletionRepository struct {
	conn *Connection
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(conn *Connection) *CompletionRepository {
	return &CompletionRepository{conn: conn}
}

const completionColumns = `
	id, student_id, lesson_id, module_id, course_id, status,
	progress_percentage, time_spent_minutes, best_quiz_score,
	first_started_at, completed_at, last_updated_at
`

// Upsert applies a report to the ledger row, creating it on first contact.
func (r *CompletionRepository) Upsert(
	ctx context.Context,
	studentID shared.StudentID,
	lessonID shared.LessonID,
	report completion.Report,
	hier completion.Hierarchy,
	now time.Time,
) (*completion.UpsertResult, error) {
	var result *completion.UpsertResult

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// Ensure the row exists. ON CONFLICT DO NOTHING keeps the insert
		// race-free; the authoritative merge happens under the row lock.
		insertQuery := `
			INSERT INTO completion_records (
				id, student_id, lesson_id, status, first_started_at, last_updated_at
			) VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (student_id, lesson_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, insertQuery,
			uuid.New().String(), string(studentID), string(lessonID),
			string(completion.StatusNotStarted), now,
		); err != nil {
			return fmt.Errorf("failed to insert completion record: %w", err)
		}

		lockQuery := `
			SELECT ` + completionColumns + `
			FROM completion_records
			WHERE student_id = $1 AND lesson_id = $2
			FOR UPDATE
		`
		rec, err := scanCompletionRecord(tx.QueryRow(ctx, lockQuery, string(studentID), string(lessonID)))
		if err != nil {
			return fmt.Errorf("failed to lock completion record: %w", err)
		}

		outcome, err := rec.Apply(report, now)
		if err != nil {
			return err
		}
		rec.AttachHierarchy(hier.ModuleID, hier.CourseID)

		updateQuery := `
			UPDATE completion_records SET
				module_id = $3,
				course_id = $4,
				status = $5,
				progress_percentage = $6,
				time_spent_minutes = $7,
				best_quiz_score = $8,
				completed_at = $9,
				last_updated_at = $10
			WHERE student_id = $1 AND lesson_id = $2
		`
		if _, err := tx.Exec(ctx, updateQuery,
			string(studentID), string(lessonID),
			string(rec.ModuleID), string(rec.CourseID), string(rec.Status),
			rec.ProgressPercentage, rec.TimeSpentMinutes, rec.BestQuizScore,
			rec.CompletedAt, rec.LastUpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to update completion record: %w", err)
		}

		result = &completion.UpsertResult{Record: rec, Outcome: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get returns the record for the (student, lesson) key.
func (r *CompletionRepository) Get(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) (*completion.CompletionRecord, error) {
	query := `
		SELECT ` + completionColumns + `
		FROM completion_records
		WHERE student_id = $1 AND lesson_id = $2
	`
	rec, err := scanCompletionRecord(r.conn.QueryRow(ctx, query, string(studentID), string(lessonID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCompletionNotFound
		}
		return nil, fmt.Errorf("failed to get completion record: %w", err)
	}
	return rec, nil
}

// ListByStudent returns every ledger row of the student.
func (r *CompletionRepository) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*completion.CompletionRecord, error) {
	query := `
		SELECT ` + completionColumns + `
		FROM completion_records
		WHERE student_id = $1
		ORDER BY last_updated_at
	`
	rows, err := r.conn.Query(ctx, query, string(studentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list completion records: %w", err)
	}
	defer rows.Close()

	return collectCompletionRecords(rows)
}

// ListByStudentAndLessons returns the student's rows restricted to a lesson set.
func (r *CompletionRepository) ListByStudentAndLessons(ctx context.Context, studentID shared.StudentID, lessonIDs []shared.LessonID) ([]*completion.CompletionRecord, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(lessonIDs))
	for i, id := range lessonIDs {
		ids[i] = string(id)
	}

	query := `
		SELECT ` + completionColumns + `
		FROM completion_records
		WHERE student_id = $1 AND lesson_id = ANY($2)
		ORDER BY last_updated_at
	`
	rows, err := r.conn.Query(ctx, query, string(studentID), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion records: %w", err)
	}
	defer rows.Close()

	return collectCompletionRecords(rows)
}

// Reset removes the ledger row. Administrative use only.
func (r *CompletionRepository) Reset(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) error {
	query := `DELETE FROM completion_records WHERE student_id = $1 AND lesson_id = $2`

	tag, err := r.conn.Exec(ctx, query, string(studentID), string(lessonID))
	if err != nil {
		return fmt.Errorf("failed to reset completion record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrCompletionNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanCompletionRecord(row pgx.Row) (*completion.CompletionRecord, error) {
	var (
		rec       completion.CompletionRecord
		studentID string
		lessonID  string
		moduleID  string
		courseID  string
		status    string
	)

	err := row.Scan(
		&rec.ID, &studentID, &lessonID, &moduleID, &courseID, &status,
		&rec.ProgressPercentage, &rec.TimeSpentMinutes, &rec.BestQuizScore,
		&rec.FirstStartedAt, &rec.CompletedAt, &rec.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.StudentID = shared.StudentID(studentID)
	rec.LessonID = shared.LessonID(lessonID)
	rec.ModuleID = shared.ModuleID(moduleID)
	rec.CourseID = shared.CourseID(courseID)
	rec.Status = completion.Status(status)
	return &rec, nil
}

func collectCompletionRecords(rows pgx.Rows) ([]*completion.CompletionRecord, error) {
	var records []*completion.CompletionRecord
	for rows.Next() {
		rec, err := scanCompletionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completion records: %w", err)
	}
	return records, nil
}
