// internal/domain/schedule/repository.go
package schedule

import "context"

// Repository defines the persistence operations for MeetingSession rows.
// The schedule table is owned here; the evaluator and the auto-logout
// scheduler only ever read it.
type Repository interface {
	// ListActive returns sessions with IsActive = true, ordered by
	// (day_of_week, session_number).
	ListActive(ctx context.Context) ([]*Session, error)
	// ListAll returns every session row including soft-deleted ones.
	ListAll(ctx context.Context) ([]*Session, error)
	// ReplaceAll transactionally installs sessions as the new active set:
	// every existing row is soft-deleted, then each given session is
	// upserted by natural key with IsActive = true. Rows are never
	// physically deleted.
	ReplaceAll(ctx context.Context, sessions []*Session) error
	// Deactivate soft-deletes a single session by natural key.
	Deactivate(ctx context.Context, key Key) error
}
