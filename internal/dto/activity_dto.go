package dto

import (
	"encoding/json"
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// ActivityCreateRequest describes the multipart form fields for a submission.
type ActivityCreateRequest struct {
	Title        string `form:"title" validate:"required,min=3,max=255"`
	Description  string `form:"description" validate:"required,min=3"`
	Type         string `form:"type" validate:"required,oneof=certification conference research volunteering competition internship"`
	Organization string `form:"organization" validate:"required,min=2,max=255"`
	Date         string `form:"date" validate:"required"`
	Credits      int    `form:"credits" validate:"required,min=1,max=10"`
	Tags         string `form:"tags" validate:"omitempty,max=512"`
}

// ActivityUpdateRequest applies partial changes to a pending activity.
type ActivityUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string `json:"description" validate:"omitempty,min=3"`
	Organization *string `json:"organization" validate:"omitempty,min=2,max=255"`
	Date         *string `json:"date" validate:"omitempty"`
	Credits      *int    `json:"credits" validate:"omitempty,min=1,max=10"`
	Tags         *string `json:"tags" validate:"omitempty,max=512"`
}

// CommentCreateRequest adds a reviewer note to an activity.
type CommentCreateRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// ActivityFilter describes query string filters for listing activities.
type ActivityFilter struct {
	StudentID string `query:"student_id"`
	Status    string `query:"status" validate:"omitempty,oneof=pending verified rejected"`
	Type      string `query:"type" validate:"omitempty,oneof=certification conference research volunteering competition internship"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	SortBy    string `query:"sort_by" validate:"omitempty,oneof=submitted_at date credits title status"`
	SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ActivityFileResponse serializes attached file metadata.
type ActivityFileResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ActivityCommentResponse serializes a reviewer comment.
type ActivityCommentResponse struct {
	ID        uint      `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityResponse is returned to API clients when viewing activities.
type ActivityResponse struct {
	ID              uint                      `json:"id"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	Type            string                    `json:"type"`
	Organization    string                    `json:"organization"`
	Date            time.Time                 `json:"date"`
	Credits         int                       `json:"credits"`
	Status          string                    `json:"status"`
	SubmittedAt     time.Time                 `json:"submitted_at"`
	VerifiedAt      *time.Time                `json:"verified_at,omitempty"`
	VerifiedBy      string                    `json:"verified_by,omitempty"`
	RejectedAt      *time.Time                `json:"rejected_at,omitempty"`
	RejectedBy      string                    `json:"rejected_by,omitempty"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	Tags            []string                  `json:"tags"`
	IsPublic        bool                      `json:"is_public"`
	Student         StudentLite               `json:"student"`
	Files           []ActivityFileResponse    `json:"files"`
	Comments        []ActivityCommentResponse `json:"comments"`
}

// StudentLite summarizes the owning student without exposing full profile data.
type StudentLite struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	StudentID  string `json:"student_id"`
	Department string `json:"department"`
}

// ActivityListResponse wraps a paginated list of activities.
type ActivityListResponse struct {
	Activities  []ActivityResponse `json:"activities"`
	Total       int64              `json:"total"`
	CurrentPage int                `json:"current_page"`
	TotalPages  int                `json:"total_pages"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		Type:            model.Type,
		Organization:    model.Organization,
		Date:            model.Date,
		Credits:         model.Credits,
		Status:          model.Status,
		SubmittedAt:     model.SubmittedAt,
		VerifiedAt:      model.VerifiedAt,
		RejectedAt:      model.RejectedAt,
		RejectionReason: model.RejectionReason,
		IsPublic:        model.IsPublic,
		Tags:            []string{},
		Files:           []ActivityFileResponse{},
		Comments:        []ActivityCommentResponse{},
	}

	if len(model.Tags) > 0 {
		var tags []string
		if err := json.Unmarshal(model.Tags, &tags); err == nil {
			response.Tags = tags
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:         model.Student.ID,
			Name:       model.Student.Name,
			Email:      model.Student.Email,
			StudentID:  model.Student.StudentNumber(),
			Department: model.Student.Department,
		}
	}

	if model.VerifiedBy != nil {
		response.VerifiedBy = model.VerifiedBy.Name
	}
	if model.RejectedBy != nil {
		response.RejectedBy = model.RejectedBy.Name
	}

	for _, file := range model.Files {
		response.Files = append(response.Files, ActivityFileResponse{
			ID:           file.ID,
			Name:         file.StoredName,
			OriginalName: file.OriginalName,
			Size:         file.SizeBytes,
			MimeType:     file.MimeType,
			UploadedAt:   file.UploadedAt,
		})
	}

	for _, comment := range model.Comments {
		response.Comments = append(response.Comments, ActivityCommentResponse{
			ID:        comment.ID,
			Author:    comment.Author.Name,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}

	return response
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}
