package dto

import (
	"encoding/json"
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// RegisterRequest describes the payload for account registration.
type RegisterRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=6"`
	Role        string          `json:"role" validate:"omitempty,oneof=student faculty admin"`
	Department  string          `json:"department" validate:"required"`
	Year        string          `json:"year" validate:"omitempty,oneof=Freshman Sophomore Junior Senior Graduate"`
	GPA         float64         `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	StudentID   string          `json:"student_id" validate:"omitempty,min=4,max=32"`
	Preferences json.RawMessage `json:"preferences" validate:"omitempty"`
}

// LoginRequest describes the credential payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student faculty admin"`
}

// UpdateProfileRequest applies partial profile changes. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=2,max=255"`
	Department  *string         `json:"department" validate:"omitempty,min=2,max=128"`
	Year        *string         `json:"year" validate:"omitempty,oneof=Freshman Sophomore Junior Senior Graduate"`
	GPA         *float64        `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	Preferences json.RawMessage `json:"preferences" validate:"omitempty"`
}

// ChangePasswordRequest rotates the account password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	StudentID   string          `json:"student_id,omitempty"`
	Department  string          `json:"department"`
	Year        string          `json:"year,omitempty"`
	GPA         float64         `json:"gpa"`
	Avatar      string          `json:"avatar,omitempty"`
	IsActive    bool            `json:"is_active"`
	LastLogin   *time.Time      `json:"last_login,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	response := UserResponse{
		ID:         model.ID,
		Name:       model.Name,
		Email:      model.Email,
		Role:       model.Role,
		StudentID:  model.StudentNumber(),
		Department: model.Department,
		Year:       model.Year,
		GPA:        model.GPA,
		Avatar:     model.Avatar,
		IsActive:   model.IsActive,
		LastLogin:  model.LastLogin,
		CreatedAt:  model.CreatedAt,
	}

	if len(model.Preferences) > 0 {
		response.Preferences = json.RawMessage(model.Preferences)
	}

	return response
}
