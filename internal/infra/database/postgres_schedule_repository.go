// internal/infra/database/postgres_schedule_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"member_attendance_bot/internal/domain/schedule"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors specific to schedule repository
var ErrSessionNotFound = fmt.Errorf("meeting session not found")

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) ListActive(ctx context.Context) ([]*schedule.Session, error) {
	query := `SELECT id, day_of_week, session_number, start_minute, end_minute, session_name, is_active, created_at, updated_at
               FROM meeting_sessions
               WHERE is_active = TRUE ORDER BY day_of_week, session_number`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *PostgresScheduleRepository) ListAll(ctx context.Context) ([]*schedule.Session, error) {
	query := `SELECT id, day_of_week, session_number, start_minute, end_minute, session_name, is_active, created_at, updated_at
               FROM meeting_sessions
               ORDER BY day_of_week, session_number`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing all sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ReplaceAll soft-deletes the entire current schedule and upserts the given
// sessions by their (day_of_week, session_number) key, all in one transaction.
// Rows are never physically deleted; a session absent from the new list simply
// stays inactive. IDs and timestamps are filled back into the given sessions.
func (r *PostgresScheduleRepository) ReplaceAll(ctx context.Context, sessions []*schedule.Session) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schedule replace: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	_, err = txn.ExecContext(ctx, `UPDATE meeting_sessions SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`)
	if err != nil {
		return fmt.Errorf("error deactivating current schedule: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO meeting_sessions (day_of_week, session_number, start_minute, end_minute, session_name, is_active)
                                         VALUES ($1, $2, $3, $4, $5, TRUE)
                                         ON CONFLICT (day_of_week, session_number)
                                         DO UPDATE SET start_minute = EXCLUDED.start_minute,
                                                       end_minute = EXCLUDED.end_minute,
                                                       session_name = EXCLUDED.session_name,
                                                       is_active = TRUE,
                                                       updated_at = NOW()
                                         RETURNING id, created_at, updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for schedule replace: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		err := stmt.QueryRowContext(ctx, s.DayOfWeek, s.Number, s.StartMinute, s.EndMinute, s.Name).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error upserting session %s: %w", s.Key(), err)
		}
		s.IsActive = true
	}

	return txn.Commit()
}

// Deactivate soft-deletes one session by its natural key. Returns
// ErrSessionNotFound when no active session has that key.
func (r *PostgresScheduleRepository) Deactivate(ctx context.Context, key schedule.Key) error {
	query := `UPDATE meeting_sessions
               SET is_active = FALSE, updated_at = NOW()
               WHERE day_of_week = $1 AND session_number = $2 AND is_active = TRUE
               RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, key.DayOfWeek, key.Number).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSessionNotFound
		}
		return fmt.Errorf("error deactivating session %s: %w", key, err)
	}
	return nil
}

// Helper to scan multiple rows
func scanSessions(rows *sql.Rows) ([]*schedule.Session, error) {
	sessions := make([]*schedule.Session, 0)
	for rows.Next() {
		s := schedule.Session{}
		if err := rows.Scan(
			&s.ID, &s.DayOfWeek, &s.Number, &s.StartMinute, &s.EndMinute,
			&s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}
