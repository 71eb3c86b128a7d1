// internal/app/schedule_service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"member_attendance_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for schedule management
var ErrInvalidSchedule = errors.New("invalid schedule input")

// SessionInput is one session row as entered by the administrator.
type SessionInput struct {
	DayOfWeek int
	Number    int
	Start     string // "HH:MM"
	End       string // "HH:MM"
	Name      string
}

// Rearmer is the trigger registry the schedule service keeps in sync with the
// schedule table. Satisfied by the auto-logout scheduler.
type Rearmer interface {
	// Rearm discards every armed trigger and re-derives the set from the
	// current active sessions.
	Rearm(ctx context.Context) error
	// Cancel disarms the trigger of a single session.
	Cancel(key schedule.Key)
}

// ScheduleService owns schedule mutations. Every mutation goes through here
// so the trigger registry can never drift from the schedule table: a bulk
// replace is followed by a full discard-and-rearm, a single deactivation by a
// targeted cancel.
type ScheduleService struct {
	schedRepo schedule.Repository
	rearmer   Rearmer
	logger    *logrus.Entry
}

func NewScheduleService(sr schedule.Repository, rearmer Rearmer, logger *logrus.Entry) *ScheduleService {
	return &ScheduleService{
		schedRepo: sr,
		rearmer:   rearmer,
		logger:    logger,
	}
}

// ReplaceSchedules validates and installs inputs as the complete new schedule,
// then rearms the trigger registry. An empty input is legal and leaves no
// active sessions and no armed triggers. Validation failures reject the whole
// batch; nothing is written.
func (s *ScheduleService) ReplaceSchedules(ctx context.Context, inputs []SessionInput) ([]*schedule.Session, error) {
	sessions := make([]*schedule.Session, 0, len(inputs))
	seen := make(map[schedule.Key]bool, len(inputs))

	for i, in := range inputs {
		if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
			return nil, fmt.Errorf("%w: row %d: day_of_week %d is out of range 0..6", ErrInvalidSchedule, i+1, in.DayOfWeek)
		}
		if in.Number < 1 {
			return nil, fmt.Errorf("%w: row %d: session_number must be >= 1", ErrInvalidSchedule, i+1)
		}
		start, err := schedule.ParseMinuteOfDay(in.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidSchedule, i+1, err)
		}
		end, err := schedule.ParseMinuteOfDay(in.End)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidSchedule, i+1, err)
		}
		if start >= end {
			return nil, fmt.Errorf("%w: row %d: start %s must be before end %s", ErrInvalidSchedule, i+1, start, end)
		}
		key := schedule.Key{DayOfWeek: in.DayOfWeek, Number: in.Number}
		if seen[key] {
			return nil, fmt.Errorf("%w: row %d: duplicate session %s", ErrInvalidSchedule, i+1, key)
		}
		seen[key] = true

		sessions = append(sessions, &schedule.Session{
			DayOfWeek:   in.DayOfWeek,
			Number:      in.Number,
			StartMinute: start,
			EndMinute:   end,
			Name:        in.Name,
			IsActive:    true,
		})
	}

	if err := s.schedRepo.ReplaceAll(ctx, sessions); err != nil {
		return nil, fmt.Errorf("failed to replace schedule: %w", err)
	}
	s.logger.WithField("session_count", len(sessions)).Info("Schedule replaced")

	if err := s.rearmer.Rearm(ctx); err != nil {
		// The new schedule is committed; the stale trigger set is the
		// operational problem to surface.
		return sessions, fmt.Errorf("schedule replaced but trigger rearm failed: %w", err)
	}
	return sessions, nil
}

// DeactivateSession soft-deletes one session and disarms exactly its trigger.
func (s *ScheduleService) DeactivateSession(ctx context.Context, key schedule.Key) error {
	if err := s.schedRepo.Deactivate(ctx, key); err != nil {
		return err
	}
	s.rearmer.Cancel(key)
	s.logger.WithField("session", key.String()).Info("Session deactivated, trigger disarmed")
	return nil
}

// ListSessions returns the schedule for the admin surface, either the active
// set or every row including soft-deleted ones.
func (s *ScheduleService) ListSessions(ctx context.Context, all bool) ([]*schedule.Session, error) {
	if all {
		return s.schedRepo.ListAll(ctx)
	}
	return s.schedRepo.ListActive(ctx)
}
