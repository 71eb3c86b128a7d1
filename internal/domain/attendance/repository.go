// internal/domain/attendance/repository.go
package attendance

import (
	"context"
	"time"
)

// Repository defines the operations for the append-only attendance log.
// Records are never updated or deleted once written, with one exception:
// ClearReview may clear the needs_review flag on an existing record.
type Repository interface {
	Insert(ctx context.Context, rec *Record) error

	// LatestForMember returns the member's most recent record, ordered by
	// scan_time and breaking ties by the highest record ID.
	LatestForMember(ctx context.Context, memberID int64) (*Record, error)

	// ListCheckedIn returns every member whose latest record is a check-in.
	// The view is computed on demand and never cached.
	ListCheckedIn(ctx context.Context) ([]*CheckedInMember, error)

	ListFlagged(ctx context.Context, limit int) ([]*Record, error)
	ClearReview(ctx context.Context, recordID int64) error

	// ListRange returns records with from <= scan_time < to, oldest first.
	ListRange(ctx context.Context, from, to time.Time) ([]*Record, error)
}
