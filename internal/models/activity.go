package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is a student-submitted extracurricular record that moves through
// the pending -> verified | rejected review lifecycle.
type Activity struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	Type            string         `gorm:"size:32;not null;index" json:"type"`
	Organization    string         `gorm:"size:255;not null" json:"organization"`
	Date            time.Time      `gorm:"not null" json:"date"`
	Credits         int            `gorm:"not null" json:"credits"`
	Status          string         `gorm:"size:16;not null;default:pending;index" json:"status"`
	SubmittedAt     time.Time      `gorm:"not null;index" json:"submitted_at"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	VerifiedByID    *uint          `json:"verified_by_id"`
	RejectedAt      *time.Time     `json:"rejected_at"`
	RejectedByID    *uint          `json:"rejected_by_id"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	Tags            datatypes.JSON `json:"tags"`
	IsPublic        bool           `gorm:"not null;default:true" json:"is_public"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Student    User              `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	VerifiedBy *User             `gorm:"foreignKey:VerifiedByID" json:"verified_by"`
	RejectedBy *User             `gorm:"foreignKey:RejectedByID" json:"rejected_by"`
	Files      []ActivityFile    `gorm:"constraint:OnDelete:CASCADE" json:"files"`
	Comments   []ActivityComment `gorm:"constraint:OnDelete:CASCADE" json:"comments"`
}

// Activity lifecycle states. Verified and rejected are terminal.
const (
	ActivityStatusPending  = "pending"
	ActivityStatusVerified = "verified"
	ActivityStatusRejected = "rejected"
)

// Activity categories accepted on submission.
const (
	ActivityTypeCertification = "certification"
	ActivityTypeConference    = "conference"
	ActivityTypeResearch      = "research"
	ActivityTypeVolunteering  = "volunteering"
	ActivityTypeCompetition   = "competition"
	ActivityTypeInternship    = "internship"
)

// ActivityTypes lists every accepted category.
func ActivityTypes() []string {
	return []string{
		ActivityTypeCertification,
		ActivityTypeConference,
		ActivityTypeResearch,
		ActivityTypeVolunteering,
		ActivityTypeCompetition,
		ActivityTypeInternship,
	}
}

// IsPending reports whether the activity still awaits review.
func (a Activity) IsPending() bool {
	return a.Status == ActivityStatusPending
}

// IsTerminal reports whether the activity reached a final review state.
func (a Activity) IsTerminal() bool {
	return a.Status == ActivityStatusVerified || a.Status == ActivityStatusRejected
}

// ActivityFile stores metadata for an uploaded supporting document. The blob
// itself lives in the configured file storage under Path.
type ActivityFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ActivityID   uint      `gorm:"not null;index" json:"activity_id"`
	StoredName   string    `gorm:"size:255;not null" json:"name"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	Path         string    `gorm:"size:512;not null" json:"path"`
	SizeBytes    int64     `gorm:"not null" json:"size"`
	MimeType     string    `gorm:"size:128;not null" json:"mime_type"`
	UploadedAt   time.Time `gorm:"not null" json:"uploaded_at"`
}

// ActivityComment is an append-only reviewer note on an activity.
type ActivityComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"not null;index" json:"activity_id"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`

	Author User `gorm:"foreignKey:UserID" json:"author"`
}
