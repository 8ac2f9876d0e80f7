package models

import "time"

// Notification records a review outcome delivered to a student.
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ActivityID *uint     `json:"activity_id"`
	Kind       string    `gorm:"size:64;not null" json:"kind"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification kinds emitted by the review workflow.
const (
	NotificationActivityVerified = "activity.verified"
	NotificationActivityRejected = "activity.rejected"
)
