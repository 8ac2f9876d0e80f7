package dto

import (
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// NotificationResponse serializes a review outcome notification.
type NotificationResponse struct {
	ID         uint      `json:"id"`
	ActivityID *uint     `json:"activity_id,omitempty"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         model.ID,
		ActivityID: model.ActivityID,
		Kind:       model.Kind,
		Message:    model.Message,
		Read:       model.Read,
		CreatedAt:  model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, NewNotificationResponse(notification))
	}

	return responses
}
