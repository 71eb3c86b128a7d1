// internal/infra/queue/consumer.go
package queue

import (
	"context"
	"errors"
	"fmt"

	"member_attendance_bot/internal/app"
	idb "member_attendance_bot/internal/infra/database"
	"member_attendance_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Consumer drains the scan intake queue, classifies each scan through the
// scan service and publishes the outcome for kiosk display. The engine stays
// transport-free; this loop is the only kiosk-facing edge of the daemon.
type Consumer struct {
	queue    Queue
	scans    *app.ScanService
	results  ResultPublisher
	notifier app.Notifier
	logger   *logrus.Entry
}

func NewConsumer(q Queue, scans *app.ScanService, results ResultPublisher, notifier app.Notifier, logger *logrus.Entry) *Consumer {
	return &Consumer{
		queue:    q,
		scans:    scans,
		results:  results,
		notifier: notifier,
		logger:   logger,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	requests, err := c.queue.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming scan queue: %w", err)
	}

	c.logger.Info("Scan consumer started, waiting for scans...")
	for req := range requests {
		c.handle(ctx, req)
	}
	c.logger.Info("Scan consumer stopped")
	return nil
}

func (c *Consumer) handle(ctx context.Context, req ScanRequest) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	logCtx := c.logger.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"barcode":    req.Barcode,
	})

	outcome := ScanOutcome{RequestID: req.RequestID, Barcode: req.Barcode}

	result, err := c.scans.RecordScan(ctx, req.Barcode, req.ScannedAt)
	switch {
	case err == nil:
		if result.Direction == app.DirectionCheckIn {
			outcome.Status = "checked_in"
			outcome.Flagged = result.Flagged
			outcome.SessionName = result.Session.Name
			if result.Flagged {
				metrics.FlaggedCheckIns.Inc()
				c.notifyFlagged(result)
			}
		} else {
			outcome.Status = "checked_out"
		}
	case isOutOfSchedule(err, &outcome):
		outcome.Status = "rejected"
		logCtx.Info("Scan rejected: out of schedule")
	case errors.Is(err, idb.ErrMemberNotFound), errors.Is(err, app.ErrMemberInactive):
		outcome.Status = "unknown_member"
		logCtx.WithError(err).Warn("Scan for unknown or inactive member")
	default:
		outcome.Status = "error"
		outcome.Detail = err.Error()
		logCtx.WithError(err).Error("Scan processing failed")
	}

	metrics.ScansProcessed.WithLabelValues(outcome.Status).Inc()

	if err := c.results.PublishResult(ctx, outcome); err != nil {
		logCtx.WithError(err).Warn("Failed to publish scan outcome")
	}
}

// notifyFlagged tells the admin about a check-in that landed in the session's
// final minutes and needs a manual look. Best effort.
func (c *Consumer) notifyFlagged(result *app.ScanResult) {
	msg := fmt.Sprintf(
		"⚠️ Подозрительная отметка прихода: %s (штрихкод %s) в конце занятия «%s». Запись #%d помечена для проверки.",
		result.Member.FirstName, result.Member.Barcode, result.Session.Name, result.Record.ID,
	)
	if err := c.notifier.NotifyAdmin(msg); err != nil {
		c.logger.WithError(err).WithField("record_id", result.Record.ID).
			Warn("Failed to notify admin about flagged check-in")
	}
}

// isOutOfSchedule fills the next-session hint when err is a rejection.
func isOutOfSchedule(err error, outcome *ScanOutcome) bool {
	var oos *app.OutOfScheduleError
	if !errors.As(err, &oos) {
		return false
	}
	if oos.Next != nil {
		outcome.NextSession = fmt.Sprintf("%s %s", oos.Next.Key(), oos.Next.StartMinute)
	}
	return true
}
