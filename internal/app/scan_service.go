// internal/app/scan_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"member_attendance_bot/internal/domain/attendance"
	"member_attendance_bot/internal/domain/member"
	"member_attendance_bot/internal/domain/schedule"
	idb "member_attendance_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for scan classification
var ErrMemberInactive = fmt.Errorf("member is deactivated")

// checkInFlagWindow is the tail of a session (in minutes, inclusive) in which
// a check-in is accepted but flagged for review: somebody scanning in during
// the last minutes of a session is almost certainly scanning out by mistake.
const checkInFlagWindow = 5

// Direction tells whether a scan opened or closed a member's visit.
type Direction string

const (
	DirectionCheckIn  Direction = "check_in"
	DirectionCheckOut Direction = "check_out"
)

// OutOfScheduleError rejects a check-in attempted while no session is active.
// It is an expected user-facing condition, not a failure: Next carries the
// upcoming session (nil when no active sessions exist) so the kiosk can tell
// the member when to come back. Nothing is persisted for a rejected check-in.
type OutOfScheduleError struct {
	Next *schedule.Session
}

func (e *OutOfScheduleError) Error() string {
	if e.Next == nil {
		return "check-in rejected: no sessions are scheduled"
	}
	return fmt.Sprintf("check-in rejected: no active session, next is %s at %s",
		e.Next.Key(), e.Next.StartMinute)
}

// ScanResult is the outcome of an accepted scan.
type ScanResult struct {
	Member    *member.Member
	Direction Direction
	Flagged   bool
	// Session is the active session a check-in landed in; nil for check-outs.
	Session *schedule.Session
	Record  *attendance.Record
}

// SessionStatus reports the schedule state at a point in time.
type SessionStatus struct {
	Active *schedule.Session
	Next   *schedule.Session
}

// ScanService classifies kiosk scans and persists the resulting attendance
// records. Direction is derived from the member's most recent record, so two
// concurrent scans for the same member are serialized on a per-member lock to
// keep the read-before-write from producing two consecutive check-ins.
type ScanService struct {
	memberRepo member.Repository
	attRepo    attendance.Repository
	schedRepo  schedule.Repository
	logger     *logrus.Entry
	now        func() time.Time

	memberLocks sync.Map // member ID -> *sync.Mutex
}

func NewScanService(
	mr member.Repository,
	ar attendance.Repository,
	sr schedule.Repository,
	logger *logrus.Entry,
	now func() time.Time,
) *ScanService {
	if now == nil {
		now = time.Now
	}
	return &ScanService{
		memberRepo: mr,
		attRepo:    ar,
		schedRepo:  sr,
		logger:     logger,
		now:        now,
	}
}

func (s *ScanService) lockMember(memberID int64) func() {
	v, _ := s.memberLocks.LoadOrStore(memberID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RecordScan classifies and persists one barcode scan. A zero `at` means "use
// the service clock". Check-outs are always permitted, even after session end,
// so a member can never get stuck checked-in; check-ins require an active
// session and are flagged when they land in the session's final minutes.
func (s *ScanService) RecordScan(ctx context.Context, barcode string, at time.Time) (*ScanResult, error) {
	if at.IsZero() {
		at = s.now()
	} else {
		// Kiosks serialize scanned_at with whatever zone they run in;
		// sessions are wall-clock in ours.
		at = at.In(s.now().Location())
	}

	m, err := s.memberRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, idb.ErrMemberNotFound) {
			return nil, idb.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to look up member by barcode: %w", err)
	}
	if !m.IsActive {
		return nil, ErrMemberInactive
	}

	unlock := s.lockMember(m.ID)
	defer unlock()

	last, err := s.attRepo.LatestForMember(ctx, m.ID)
	if err != nil && !errors.Is(err, idb.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch latest record for member %d: %w", m.ID, err)
	}

	// First scan ever, or last scan closed the visit: this one opens it.
	direction := DirectionCheckIn
	if last != nil && last.IsCheckIn {
		direction = DirectionCheckOut
	}

	result := &ScanResult{Member: m, Direction: direction}

	if direction == DirectionCheckIn {
		sessions, err := s.schedRepo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active sessions: %w", err)
		}
		active := schedule.ActiveAt(sessions, at)
		if active == nil {
			next := schedule.NextAfter(sessions, at)
			s.logger.WithFields(logrus.Fields{
				"member_id": m.ID,
				"barcode":   barcode,
			}).Info("Check-in rejected: no active session")
			return nil, &OutOfScheduleError{Next: next}
		}
		result.Session = active

		remaining := active.EndMinute - schedule.MinuteOf(at)
		result.Flagged = remaining <= checkInFlagWindow
	}

	rec := &attendance.Record{
		MemberID:    m.ID,
		ScanTime:    at,
		IsCheckIn:   direction == DirectionCheckIn,
		NeedsReview: result.Flagged,
	}
	if err := s.attRepo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist attendance record for member %d: %w", m.ID, err)
	}
	result.Record = rec

	s.logger.WithFields(logrus.Fields{
		"member_id": m.ID,
		"direction": direction,
		"flagged":   result.Flagged,
		"record_id": rec.ID,
	}).Info("Scan recorded")
	return result, nil
}

// CurrentSessionStatus reports the active session (if any) and the next
// upcoming one, for kiosk and admin display.
func (s *ScanService) CurrentSessionStatus(ctx context.Context) (*SessionStatus, error) {
	sessions, err := s.schedRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	now := s.now()
	return &SessionStatus{
		Active: schedule.ActiveAt(sessions, now),
		Next:   schedule.NextAfter(sessions, now),
	}, nil
}
