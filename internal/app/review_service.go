// internal/app/review_service.go
package app

import (
	"context"
	"fmt"

	"member_attendance_bot/internal/domain/attendance"

	"github.com/sirupsen/logrus"
)

// ReviewService exposes the manual review workflow for flagged records:
// suspicious check-ins near session end and forced auto-logouts.
type ReviewService struct {
	attRepo attendance.Repository
	logger  *logrus.Entry
}

func NewReviewService(ar attendance.Repository, logger *logrus.Entry) *ReviewService {
	return &ReviewService{attRepo: ar, logger: logger}
}

// ListFlagged returns the newest records still awaiting review.
func (s *ReviewService) ListFlagged(ctx context.Context, limit int) ([]*attendance.Record, error) {
	return s.attRepo.ListFlagged(ctx, limit)
}

// MarkReviewed clears the needs_review flag on one record. This is the only
// mutation the attendance log ever permits.
func (s *ReviewService) MarkReviewed(ctx context.Context, recordID int64) error {
	if err := s.attRepo.ClearReview(ctx, recordID); err != nil {
		return fmt.Errorf("failed to mark record %d as reviewed: %w", recordID, err)
	}
	s.logger.WithField("record_id", recordID).Info("Record marked as reviewed")
	return nil
}
