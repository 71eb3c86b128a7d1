// internal/domain/attendance/record.go
package attendance

import "time"

// Record is one attendance event for a member. Records are append-only:
// the only mutation ever applied is clearing NeedsReview during manual
// review. Corresponds to the 'attendance_records' table.
type Record struct {
	ID           int64
	MemberID     int64
	ScanTime     time.Time
	IsCheckIn    bool
	IsAutoLogout bool // set when the scheduler forced the check-out
	NeedsReview  bool // suspicious timing, awaiting human verification
	CreatedAt    time.Time
}

// CheckedInMember is the derived "currently inside" view: a member whose
// most recent record (ties on scan time broken by the highest record id)
// is a check-in. It is computed on demand and never cached.
type CheckedInMember struct {
	MemberID int64
	RecordID int64
	ScanTime time.Time
}
