package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/observability"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// ErrReviewForbidden signals a non-reviewer attempting a review transition.
var ErrReviewForbidden = errors.New("only faculty may review activities")

// ErrReasonRequired signals a rejection without a reason.
var ErrReasonRequired = errors.New("rejection reason is required")

// ReviewNotifier delivers review outcome notifications to students. Delivery
// is best effort; a failed notification never fails the review itself.
type ReviewNotifier interface {
	ActivityReviewed(ctx context.Context, activity models.Activity)
}

// ReviewService applies the pending -> verified | rejected transitions.
type ReviewService interface {
	Approve(ctx context.Context, actor Actor, activityID uint) (dto.ActivityResponse, error)
	Reject(ctx context.Context, actor Actor, activityID uint, payload dto.RejectRequest) (dto.ActivityResponse, error)
	BulkApprove(ctx context.Context, actor Actor, payload dto.BulkApproveRequest) (dto.BulkReviewResponse, error)
	BulkReject(ctx context.Context, actor Actor, payload dto.BulkRejectRequest) (dto.BulkReviewResponse, error)
	QueueStats(ctx context.Context, actor Actor) (dto.ReviewQueueStats, error)
}

type reviewService struct {
	activities repository.ActivityRepository
	notifier   ReviewNotifier
	validator  *validator.Validate
	tracer     trace.Tracer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReviewService constructs the review service. The notifier may be nil.
func NewReviewService(
	activities repository.ActivityRepository,
	notifier ReviewNotifier,
	validator *validator.Validate,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		activities: activities,
		notifier:   notifier,
		validator:  validator,
		tracer:     otel.Tracer("review-service"),
		logger:     logger.With().Str("component", "review_service").Logger(),
		now:        time.Now,
	}
}

func (s *reviewService) Approve(ctx context.Context, actor Actor, activityID uint) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.approve", trace.WithAttributes(
		attribute.Int64("activity.id", int64(activityID)),
		attribute.Int64("reviewer.id", int64(actor.ID)),
	))
	defer span.End()

	return s.transition(ctx, actor, activityID, s.approveUpdates(actor), "")
}

func (s *reviewService) Reject(ctx context.Context, actor Actor, activityID uint, payload dto.RejectRequest) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.reject", trace.WithAttributes(
		attribute.Int64("activity.id", int64(activityID)),
		attribute.Int64("reviewer.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return dto.ActivityResponse{}, ErrReasonRequired
	}

	return s.transition(ctx, actor, activityID, s.rejectUpdates(actor, reason), reason)
}

// transition applies a single review transition with a conditional update. A
// zero row count means the activity was missing or already reviewed; the
// follow-up read tells the two apart.
func (s *reviewService) transition(ctx context.Context, actor Actor, activityID uint, updates map[string]interface{}, reason string) (dto.ActivityResponse, error) {
	if !actor.IsReviewer() {
		return dto.ActivityResponse{}, ErrReviewForbidden
	}

	affected, err := s.activities.UpdateStatusIfPending(ctx, activityID, updates)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if affected == 0 {
		if _, err := s.activities.GetByID(ctx, activityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ActivityResponse{}, ErrActivityNotFound
			}
			return dto.ActivityResponse{}, err
		}
		return dto.ActivityResponse{}, ErrActivityNotPending
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	outcome := activity.Status
	observability.Reviews().WithLabelValues(outcome).Inc()
	s.logger.Info().
		Uint("activity_id", activityID).
		Uint("reviewer_id", actor.ID).
		Str("outcome", outcome).
		Msg("activity reviewed")

	if s.notifier != nil {
		s.notifier.ActivityReviewed(ctx, activity)
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *reviewService) BulkApprove(ctx context.Context, actor Actor, payload dto.BulkApproveRequest) (dto.BulkReviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.bulk_approve", trace.WithAttributes(
		attribute.Int("activity.count", len(payload.ActivityIDs)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkReviewResponse{}, err
	}

	return s.bulkTransition(ctx, actor, payload.ActivityIDs, s.approveUpdates(actor), models.ActivityStatusVerified)
}

func (s *reviewService) BulkReject(ctx context.Context, actor Actor, payload dto.BulkRejectRequest) (dto.BulkReviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.bulk_reject", trace.WithAttributes(
		attribute.Int("activity.count", len(payload.ActivityIDs)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkReviewResponse{}, err
	}

	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return dto.BulkReviewResponse{}, ErrReasonRequired
	}

	return s.bulkTransition(ctx, actor, payload.ActivityIDs, s.rejectUpdates(actor, reason), models.ActivityStatusRejected)
}

// bulkTransition applies one conditional update across all requested IDs.
// Activities already reviewed are skipped silently; the affected count tells
// the caller how many actually transitioned.
func (s *reviewService) bulkTransition(ctx context.Context, actor Actor, ids []uint, updates map[string]interface{}, outcome string) (dto.BulkReviewResponse, error) {
	if !actor.IsReviewer() {
		return dto.BulkReviewResponse{}, ErrReviewForbidden
	}

	// The pending set is captured first so notifications only reach students
	// whose activities this call actually transitioned; ids that were already
	// reviewed never produce a duplicate notification.
	pendingIDs, err := s.activities.PendingIDs(ctx, ids)
	if err != nil {
		return dto.BulkReviewResponse{}, err
	}

	affected, err := s.activities.BulkUpdateStatusIfPending(ctx, ids, updates)
	if err != nil {
		return dto.BulkReviewResponse{}, err
	}

	// Ids not found or already reviewed are skipped silently, but a request
	// that matches nothing at all is reported as not found.
	if affected == 0 {
		return dto.BulkReviewResponse{}, ErrActivityNotFound
	}

	observability.Reviews().WithLabelValues(outcome).Add(float64(affected))
	s.logger.Info().
		Uint("reviewer_id", actor.ID).
		Str("outcome", outcome).
		Int("requested", len(ids)).
		Int64("affected", affected).
		Msg("bulk review applied")

	if s.notifier != nil {
		for _, id := range pendingIDs {
			activity, err := s.activities.GetByID(ctx, id)
			if err != nil || activity.Status != outcome {
				continue
			}
			s.notifier.ActivityReviewed(ctx, activity)
		}
	}

	return dto.BulkReviewResponse{AffectedCount: int(affected)}, nil
}

// QueueStats reports the review workload across all students.
func (s *reviewService) QueueStats(ctx context.Context, actor Actor) (dto.ReviewQueueStats, error) {
	if !actor.IsReviewer() {
		return dto.ReviewQueueStats{}, ErrReviewForbidden
	}

	counts, err := s.activities.CountByStatus(ctx, 0)
	if err != nil {
		return dto.ReviewQueueStats{}, err
	}

	stats := dto.ReviewQueueStats{
		Pending:  counts[models.ActivityStatusPending],
		Verified: counts[models.ActivityStatusVerified],
		Rejected: counts[models.ActivityStatusRejected],
	}
	stats.Total = stats.Pending + stats.Verified + stats.Rejected

	return stats, nil
}

func (s *reviewService) approveUpdates(actor Actor) map[string]interface{} {
	now := s.now().UTC()
	return map[string]interface{}{
		"status":         models.ActivityStatusVerified,
		"verified_at":    now,
		"verified_by_id": actor.ID,
	}
}

func (s *reviewService) rejectUpdates(actor Actor, reason string) map[string]interface{} {
	now := s.now().UTC()
	return map[string]interface{}{
		"status":           models.ActivityStatusRejected,
		"rejected_at":      now,
		"rejected_by_id":   actor.ID,
		"rejection_reason": reason,
	}
}
