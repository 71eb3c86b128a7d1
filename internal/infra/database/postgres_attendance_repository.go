// internal/infra/database/postgres_attendance_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"member_attendance_bot/internal/domain/attendance"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors specific to attendance repository
var ErrRecordNotFound = fmt.Errorf("attendance record not found")

const defaultFlaggedLimit = 50

type PostgresAttendanceRepository struct {
	db *sql.DB
}

func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{db: db}
}

func (r *PostgresAttendanceRepository) Insert(ctx context.Context, rec *attendance.Record) error {
	query := `INSERT INTO attendance_records (member_id, scan_time, is_check_in, is_auto_logout, needs_review)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rec.MemberID, rec.ScanTime, rec.IsCheckIn, rec.IsAutoLogout, rec.NeedsReview).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting attendance record: %w", err)
	}
	return nil
}

func (r *PostgresAttendanceRepository) LatestForMember(ctx context.Context, memberID int64) (*attendance.Record, error) {
	query := `SELECT id, member_id, scan_time, is_check_in, is_auto_logout, needs_review, created_at
               FROM attendance_records
               WHERE member_id = $1
               ORDER BY scan_time DESC, id DESC
               LIMIT 1`
	rec := attendance.Record{}
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(
		&rec.ID, &rec.MemberID, &rec.ScanTime, &rec.IsCheckIn, &rec.IsAutoLogout, &rec.NeedsReview, &rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting latest record for member %d: %w", memberID, err)
	}
	return &rec, nil
}

// ListCheckedIn returns every member whose newest record is a check-in.
// Ties on identical scan_time are broken by the highest record id, so the
// result always reflects the most recently written record.
func (r *PostgresAttendanceRepository) ListCheckedIn(ctx context.Context) ([]*attendance.CheckedInMember, error) {
	query := `SELECT member_id, id, scan_time FROM (
                   SELECT DISTINCT ON (member_id) member_id, id, scan_time, is_check_in
                   FROM attendance_records
                   ORDER BY member_id, scan_time DESC, id DESC
               ) latest
               WHERE is_check_in
               ORDER BY member_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying checked-in members: %w", err)
	}
	defer rows.Close()

	checkedIn := make([]*attendance.CheckedInMember, 0)
	for rows.Next() {
		c := attendance.CheckedInMember{}
		if err := rows.Scan(&c.MemberID, &c.RecordID, &c.ScanTime); err != nil {
			return nil, fmt.Errorf("error scanning checked-in member row: %w", err)
		}
		checkedIn = append(checkedIn, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checked-in member rows: %w", err)
	}
	return checkedIn, nil
}

func (r *PostgresAttendanceRepository) ListFlagged(ctx context.Context, limit int) ([]*attendance.Record, error) {
	if limit <= 0 {
		limit = defaultFlaggedLimit
	}
	query := `SELECT id, member_id, scan_time, is_check_in, is_auto_logout, needs_review, created_at
               FROM attendance_records
               WHERE needs_review = TRUE
               ORDER BY scan_time DESC, id DESC
               LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying flagged records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ClearReview marks one record as reviewed. Clearing an already-clear record
// is a no-op, not an error; only an unknown id is.
func (r *PostgresAttendanceRepository) ClearReview(ctx context.Context, recordID int64) error {
	query := `UPDATE attendance_records SET needs_review = FALSE WHERE id = $1 RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, recordID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRecordNotFound
		}
		return fmt.Errorf("error clearing review flag on record %d: %w", recordID, err)
	}
	return nil
}

func (r *PostgresAttendanceRepository) ListRange(ctx context.Context, from, to time.Time) ([]*attendance.Record, error) {
	query := `SELECT id, member_id, scan_time, is_check_in, is_auto_logout, needs_review, created_at
               FROM attendance_records
               WHERE scan_time >= $1 AND scan_time < $2
               ORDER BY scan_time ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying records in range: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Helper to scan multiple rows
func scanRecords(rows *sql.Rows) ([]*attendance.Record, error) {
	records := make([]*attendance.Record, 0)
	for rows.Next() {
		rec := attendance.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.MemberID, &rec.ScanTime, &rec.IsCheckIn, &rec.IsAutoLogout, &rec.NeedsReview, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning attendance record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance record rows: %w", err)
	}
	return records, nil
}
