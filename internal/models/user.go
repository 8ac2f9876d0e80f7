package models

import (
	"time"

	"gorm.io/datatypes"
)

// User represents an account in the directory: students submitting
// activities, faculty reviewing them, and administrators.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:16;not null;default:student" json:"role"`
	StudentID    *string        `gorm:"size:32;uniqueIndex" json:"student_id"`
	Department   string         `gorm:"size:128;not null" json:"department"`
	Year         string         `gorm:"size:16" json:"year"`
	GPA          float64        `json:"gpa"`
	Avatar       string         `gorm:"size:512" json:"avatar"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login"`
	Preferences  datatypes.JSON `json:"preferences"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

const (
	// RoleStudent may submit and manage their own pending activities.
	RoleStudent = "student"
	// RoleFaculty reviews submissions and reads analytics.
	RoleFaculty = "faculty"
	// RoleAdmin has the same review rights as faculty.
	RoleAdmin = "admin"
)

// Academic year labels accepted on registration and profile updates.
const (
	YearFreshman  = "Freshman"
	YearSophomore = "Sophomore"
	YearJunior    = "Junior"
	YearSenior    = "Senior"
	YearGraduate  = "Graduate"
)

// IsReviewer reports whether the user may approve, reject, or comment on
// activities.
func (u User) IsReviewer() bool {
	return u.Role == RoleFaculty || u.Role == RoleAdmin
}

// StudentNumber returns the assigned student identifier or an empty string.
func (u User) StudentNumber() string {
	if u.StudentID == nil {
		return ""
	}
	return *u.StudentID
}
