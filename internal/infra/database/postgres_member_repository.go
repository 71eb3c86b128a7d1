package database

import (
	"context"
	"database/sql"
	"fmt" // For error wrapping
	"strings"

	"member_attendance_bot/internal/domain/member"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrMemberNotFound = fmt.Errorf("member not found")
var ErrDuplicateBarcode = fmt.Errorf("member with this barcode already exists")

type PostgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

func (r *PostgresMemberRepository) Create(ctx context.Context, m *member.Member) error {
	query := `INSERT INTO members (barcode, first_name, last_name, is_active)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, m.Barcode, m.FirstName, m.LastName, m.IsActive).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		// Basic check for unique violation on barcode.
		// More robust check might involve specific pq error codes.
		if strings.Contains(err.Error(), "unique constraint") && strings.Contains(err.Error(), "members_barcode_key") {
			return ErrDuplicateBarcode
		}
		return fmt.Errorf("error creating member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	query := `SELECT id, barcode, first_name, last_name, is_active, created_at, updated_at
               FROM members WHERE id = $1`
	m := &member.Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Barcode, &m.FirstName, &m.LastName, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member by ID: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) GetByBarcode(ctx context.Context, barcode string) (*member.Member, error) {
	query := `SELECT id, barcode, first_name, last_name, is_active, created_at, updated_at
               FROM members WHERE barcode = $1`
	m := &member.Member{}
	err := r.db.QueryRowContext(ctx, query, barcode).Scan(&m.ID, &m.Barcode, &m.FirstName, &m.LastName, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member by barcode: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `UPDATE members
               SET barcode = $1, first_name = $2, last_name = $3, is_active = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, m.Barcode, m.FirstName, m.LastName, m.IsActive, m.ID).Scan(&m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrMemberNotFound
		}
		if strings.Contains(err.Error(), "unique constraint") && strings.Contains(err.Error(), "members_barcode_key") {
			return ErrDuplicateBarcode
		}
		return fmt.Errorf("error updating member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) ListActive(ctx context.Context) ([]*member.Member, error) {
	query := `SELECT id, barcode, first_name, last_name, is_active, created_at, updated_at
               FROM members WHERE is_active = TRUE ORDER BY first_name, last_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active members: %w", err)
	}
	defer rows.Close()

	members := make([]*member.Member, 0)
	for rows.Next() {
		m := &member.Member{}
		if err := rows.Scan(&m.ID, &m.Barcode, &m.FirstName, &m.LastName, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning active member: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active members: %w", err)
	}
	return members, nil
}

func (r *PostgresMemberRepository) ListAll(ctx context.Context) ([]*member.Member, error) {
	query := `SELECT id, barcode, first_name, last_name, is_active, created_at, updated_at
               FROM members ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing all members: %w", err)
	}
	defer rows.Close()

	members := make([]*member.Member, 0)
	for rows.Next() {
		m := &member.Member{}
		if err := rows.Scan(&m.ID, &m.Barcode, &m.FirstName, &m.LastName, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning member from all list: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating all members: %w", err)
	}
	return members, nil
}
