package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// ErrNotificationNotFound signals a mark-read for a missing notification.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService records review outcomes for students and relays them to
// interested consumers over NATS.
type NotificationService interface {
	ReviewNotifier
	List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	nats          *nats.Conn
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	now           func() time.Time
}

type reviewEvent struct {
	Kind       string    `json:"kind"`
	ActivityID uint      `json:"activity_id"`
	StudentID  uint      `json:"student_id"`
	Title      string    `json:"title"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewNotificationService constructs the notification service. The NATS
// connection may be nil, in which case events are only persisted.
func NewNotificationService(
	notifications repository.NotificationRepository,
	natsConn *nats.Conn,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		notifications: notifications,
		nats:          natsConn,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "notification_service").Logger(),
		now:           time.Now,
	}
}

// ActivityReviewed persists an in-app notification for the owning student and
// publishes the outcome on the event bus. Failures are logged, never returned:
// a review must not fail because a notification could not be delivered.
func (s *notificationService) ActivityReviewed(ctx context.Context, activity models.Activity) {
	kind := models.NotificationActivityVerified
	message := fmt.Sprintf("Your activity %q has been verified.", activity.Title)
	if activity.Status == models.ActivityStatusRejected {
		kind = models.NotificationActivityRejected
		message = fmt.Sprintf("Your activity %q was rejected: %s", activity.Title, activity.RejectionReason)
	}

	activityID := activity.ID
	notification := models.Notification{
		UserID:     activity.UserID,
		ActivityID: &activityID,
		Kind:       kind,
		Message:    s.sanitizer.Sanitize(message),
	}

	if err := s.notifications.Create(ctx, &notification); err != nil {
		s.logger.Error().Err(err).Uint("activity_id", activity.ID).Msg("failed to persist review notification")
		return
	}

	s.publish(reviewEvent{
		Kind:       kind,
		ActivityID: activity.ID,
		StudentID:  activity.UserID,
		Title:      activity.Title,
		Reason:     activity.RejectionReason,
		OccurredAt: s.now().UTC(),
	})
}

func (s *notificationService) publish(event reviewEvent) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode review event")
		return
	}

	// Subjects follow edutrack.activity.verified / edutrack.activity.rejected.
	subject := "edutrack." + event.Kind
	if err := s.nats.Publish(subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish review event")
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	notifications, err := s.notifications.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if err := s.notifications.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}

	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}
