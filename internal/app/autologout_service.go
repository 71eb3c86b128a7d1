// internal/app/autologout_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"member_attendance_bot/internal/domain/attendance"

	"github.com/sirupsen/logrus"
)

// PassResult summarizes one force-logout pass.
type PassResult struct {
	Succeeded int
	Failed    int
}

// AutoLogoutService closes out members who forgot to scan out. It is invoked
// by the trigger scheduler after each session ends, and manually from the
// admin surface.
type AutoLogoutService struct {
	attRepo  attendance.Repository
	notifier Notifier
	logger   *logrus.Entry
	now      func() time.Time
}

func NewAutoLogoutService(
	ar attendance.Repository,
	notifier Notifier,
	logger *logrus.Entry,
	now func() time.Time,
) *AutoLogoutService {
	if now == nil {
		now = time.Now
	}
	return &AutoLogoutService{
		attRepo:  ar,
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

// ForceLogoutAll writes a forced check-out for every currently-checked-in
// member. Each member's write is independent: a failure is counted and
// logged, never retried within the pass, and does not block the others; the
// failed member simply stays checked-in until the next pass or a manual scan.
// An empty checked-in set is a logged no-op.
func (s *AutoLogoutService) ForceLogoutAll(ctx context.Context) (PassResult, error) {
	checkedIn, err := s.attRepo.ListCheckedIn(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("failed to list checked-in members: %w", err)
	}
	if len(checkedIn) == 0 {
		s.logger.Info("Force-logout pass: nobody is checked in, nothing to do")
		return PassResult{}, nil
	}

	now := s.now()
	var result PassResult
	for _, c := range checkedIn {
		rec := &attendance.Record{
			MemberID:     c.MemberID,
			ScanTime:     now,
			IsCheckIn:    false,
			IsAutoLogout: true,
			NeedsReview:  true,
		}
		if err := s.attRepo.Insert(ctx, rec); err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("member_id", c.MemberID).
				Error("Force-logout write failed, member remains checked in")
			continue
		}
		result.Succeeded++
	}

	s.logger.WithFields(logrus.Fields{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Force-logout pass completed")

	msg := fmt.Sprintf("Автоматический выход: закрыто %d посещений", result.Succeeded)
	if result.Failed > 0 {
		msg += fmt.Sprintf(", ошибок: %d", result.Failed)
	}
	if err := s.notifier.NotifyAdmin(msg); err != nil {
		s.logger.WithError(err).Warn("Failed to notify admin about force-logout pass")
	}
	return result, nil
}
