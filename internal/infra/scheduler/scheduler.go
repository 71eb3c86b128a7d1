package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"member_attendance_bot/internal/app" // For AutoLogoutService / PassResult
	"member_attendance_bot/internal/domain/schedule"
	"member_attendance_bot/internal/infra/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// autoLogoutDelayMinutes is how long after session end the forced-checkout
// pass fires, giving members scanning out right at the bell time to do so.
const autoLogoutDelayMinutes = 15

// LogoutService runs the forced-checkout pass. Satisfied by app.AutoLogoutService.
type LogoutService interface {
	ForceLogoutAll(ctx context.Context) (app.PassResult, error)
}

// AutoLogoutScheduler owns the set of armed weekly triggers: one recurring
// cron entry per active meeting session, firing 15 minutes after the
// session's end. The whole set is re-derived from the schedule table on every
// schedule mutation, so the triggers can never drift from it; a single
// session deactivation disarms just that session's entry.
type AutoLogoutScheduler struct {
	cronEngine    *cron.Cron
	schedRepo     schedule.Repository
	logoutService LogoutService
	logger        *logrus.Entry

	mu         sync.Mutex
	entries    map[schedule.Key]cron.EntryID
	generation uint64
}

func NewAutoLogoutScheduler(
	sr schedule.Repository,
	ls LogoutService,
	logger *logrus.Entry,
) *AutoLogoutScheduler {
	return &AutoLogoutScheduler{
		cronEngine:    cron.New(cron.WithLocation(time.Local)), // Wall clock, minute granularity
		schedRepo:     sr,
		logoutService: ls,
		logger:        logger,
		entries:       make(map[schedule.Key]cron.EntryID),
	}
}

// triggerMinute computes when a session's trigger fires, as a minute of day.
// Plain modular arithmetic over minutes-since-midnight: a session ending at
// 23:50 triggers at 00:05, still tagged to the session's own day_of_week.
func triggerMinute(end schedule.MinuteOfDay) schedule.MinuteOfDay {
	return (end + autoLogoutDelayMinutes) % schedule.MinutesPerDay
}

// triggerSpec renders a session's trigger as a standard 5-field cron spec.
func triggerSpec(s *schedule.Session) string {
	t := triggerMinute(s.EndMinute)
	return fmt.Sprintf("%d %d * * %d", t.Minute(), t.Hour(), s.DayOfWeek)
}

// Rearm discards every armed trigger and arms one per active session. The
// session set is read and every cron spec validated before the live entry set
// is touched, so a failed rearm leaves the previous triggers armed. A trigger
// dispatched concurrently with a rearm notices the generation bump and skips.
func (s *AutoLogoutScheduler) Rearm(ctx context.Context) error {
	sessions, err := s.schedRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active sessions for rearm: %w", err)
	}

	specs := make([]string, len(sessions))
	for i, sess := range sessions {
		spec := triggerSpec(sess)
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid trigger spec %q for session %s: %w", spec, sess.Key(), err)
		}
		specs[i] = spec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	gen := s.generation

	for key, id := range s.entries {
		s.cronEngine.Remove(id)
		delete(s.entries, key)
	}

	for i, sess := range sessions {
		key := sess.Key()
		entryID, err := s.cronEngine.AddFunc(specs[i], func() {
			s.fire(gen, key)
		})
		if err != nil {
			// Specs were pre-validated; AddFunc cannot reject them.
			return fmt.Errorf("failed to arm trigger for session %s: %w", key, err)
		}
		s.entries[key] = entryID
		s.logger.WithFields(logrus.Fields{
			"session": key.String(),
			"spec":    specs[i],
		}).Info("Auto-logout trigger armed")
	}

	metrics.SchedulerRearms.Inc()
	s.logger.WithField("trigger_count", len(sessions)).Info("Trigger set rearmed")
	return nil
}

// Cancel disarms a single session's trigger. Unknown keys are ignored: the
// session may have been absent from the last rearm already.
func (s *AutoLogoutScheduler) Cancel(key schedule.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[key]
	if !ok {
		return
	}
	s.cronEngine.Remove(id)
	delete(s.entries, key)
	s.logger.WithField("session", key.String()).Info("Auto-logout trigger disarmed")
}

func (s *AutoLogoutScheduler) fire(gen uint64, key schedule.Key) {
	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		s.logger.WithField("session", key.String()).Debug("Stale trigger fired during rearm, skipping")
		return
	}

	s.logger.WithField("session", key.String()).Info("Auto-logout trigger fired")

	// Bounded by the number of checked-in members; five minutes is generous.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.logoutService.ForceLogoutAll(ctx)
	if err != nil {
		metrics.AutoLogoutPasses.WithLabelValues("error").Inc()
		s.logger.WithError(err).WithField("session", key.String()).Error("Force-logout pass failed")
		return
	}
	metrics.AutoLogoutPasses.WithLabelValues("ok").Inc()
	metrics.AutoLogoutRecords.Add(float64(result.Succeeded))
	s.logger.WithFields(logrus.Fields{
		"session":   key.String(),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Force-logout pass finished")
}

// Start begins dispatching armed triggers.
func (s *AutoLogoutScheduler) Start() {
	s.cronEngine.Start()
	s.logger.Info("Auto-logout scheduler started")
}

// Stop halts dispatching and waits for a running pass to finish.
func (s *AutoLogoutScheduler) Stop() {
	s.logger.Info("Stopping auto-logout scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done() // Wait for graceful shutdown
	s.logger.Info("Auto-logout scheduler stopped")
}
