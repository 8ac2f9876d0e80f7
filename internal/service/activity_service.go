package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/observability"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/pkg/storage"
)

// ErrActivityNotFound signals a lookup for a missing activity.
var ErrActivityNotFound = errors.New("activity not found")

// ErrActivityForbidden signals an actor touching an activity they do not own.
var ErrActivityForbidden = errors.New("not allowed to access this activity")

// ErrActivityNotPending signals a mutation against an already reviewed activity.
var ErrActivityNotPending = errors.New("activity has already been reviewed")

// ErrTooManyFiles signals a submission exceeding the per-activity file limit.
var ErrTooManyFiles = errors.New("too many files attached")

// ErrFileTooLarge signals an attachment over the size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

// ErrFileTypeNotAllowed signals an attachment with a disallowed content type.
var ErrFileTypeNotAllowed = errors.New("file type not allowed")

// ErrFileNotFound signals a download of a missing attachment.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidDate signals an unparseable activity date.
var ErrInvalidDate = errors.New("invalid activity date")

var allowedUploadTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// Actor identifies the authenticated caller for ownership and role checks.
type Actor struct {
	ID   uint
	Role string
}

// IsReviewer reports whether the actor may review or comment on activities.
func (a Actor) IsReviewer() bool {
	return a.Role == models.RoleFaculty || a.Role == models.RoleAdmin
}

// UploadedFile carries one attachment read out of the multipart form.
type UploadedFile struct {
	Name    string
	Content []byte
}

// FileDownload bundles an opened attachment with its serving metadata.
type FileDownload struct {
	Reader       io.ReadCloser
	OriginalName string
	MimeType     string
	Size         int64
}

// ActivityService manages the activity submission lifecycle.
type ActivityService interface {
	Submit(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest, files []UploadedFile) (dto.ActivityResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error)
	List(ctx context.Context, actor Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	AddComment(ctx context.Context, actor Actor, id uint, payload dto.CommentCreateRequest) (dto.ActivityCommentResponse, error)
	DownloadFile(ctx context.Context, actor Actor, activityID, fileID uint) (FileDownload, error)
}

type activityService struct {
	activities repository.ActivityRepository
	store      storage.Storage
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	maxFiles   int
	maxBytes   int64
	now        func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(
	activities repository.ActivityRepository,
	store storage.Storage,
	validator *validator.Validate,
	logger zerolog.Logger,
	maxFiles int,
	maxUploadMB int,
) ActivityService {
	return &activityService{
		activities: activities,
		store:      store,
		validator:  validator,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "activity_service").Logger(),
		maxFiles:   maxFiles,
		maxBytes:   int64(maxUploadMB) * 1024 * 1024,
		now:        time.Now,
	}
}

func (s *activityService) Submit(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest, files []UploadedFile) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	date, err := parseActivityDate(payload.Date)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if len(files) > s.maxFiles {
		return dto.ActivityResponse{}, ErrTooManyFiles
	}

	now := s.now().UTC()
	activity := models.Activity{
		UserID:       actor.ID,
		Title:        strings.TrimSpace(payload.Title),
		Description:  s.sanitizer.Sanitize(strings.TrimSpace(payload.Description)),
		Type:         payload.Type,
		Organization: strings.TrimSpace(payload.Organization),
		Date:         date,
		Credits:      payload.Credits,
		Status:       models.ActivityStatusPending,
		SubmittedAt:  now,
		Tags:         encodeTags(payload.Tags),
		IsPublic:     true,
	}

	stored, err := s.storeFiles(files, now)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	activity.Files = stored

	if err := s.activities.Create(ctx, &activity); err != nil {
		s.discardFiles(stored)
		s.logger.Error().Err(err).Msg("failed to persist activity")
		return dto.ActivityResponse{}, err
	}

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Uint("user_id", actor.ID).
		Int("files", len(stored)).
		Msg("activity submitted")

	return dto.NewActivityResponse(activity), nil
}

// storeFiles validates and persists every attachment, or none. On any failure
// the already stored blobs are removed before returning.
func (s *activityService) storeFiles(files []UploadedFile, uploadedAt time.Time) ([]models.ActivityFile, error) {
	stored := make([]models.ActivityFile, 0, len(files))
	for _, file := range files {
		detected := mimetype.Detect(file.Content).String()
		observability.UploadRequests().WithLabelValues(detected).Inc()

		if int64(len(file.Content)) > s.maxBytes {
			observability.UploadRejected().WithLabelValues("too_large").Inc()
			s.discardFiles(stored)
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, file.Name)
		}

		if _, ok := allowedUploadTypes[detected]; !ok {
			observability.UploadRejected().WithLabelValues("type").Inc()
			s.discardFiles(stored)
			return nil, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, detected)
		}

		storedName, size, err := s.store.Save(file.Name, bytes.NewReader(file.Content))
		if err != nil {
			s.discardFiles(stored)
			return nil, err
		}

		stored = append(stored, models.ActivityFile{
			StoredName:   storedName,
			OriginalName: file.Name,
			Path:         storedName,
			SizeBytes:    size,
			MimeType:     detected,
			UploadedAt:   uploadedAt,
		})
	}

	return stored, nil
}

func (s *activityService) discardFiles(files []models.ActivityFile) {
	for _, file := range files {
		if err := s.store.Remove(file.StoredName); err != nil {
			s.logger.Warn().Err(err).Str("file", file.StoredName).Msg("failed to remove stored blob")
		}
	}
}

func (s *activityService) Get(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error) {
	activity, err := s.loadForActor(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context, actor Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.ActivityListResponse{}, err
	}

	repoFilter := repository.ActivityListFilter{
		Status:    filter.Status,
		Type:      filter.Type,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}

	// Students only ever see their own submissions regardless of the filter.
	if actor.IsReviewer() {
		if filter.StudentID != "" {
			parsed, err := strconv.ParseUint(filter.StudentID, 10, 32)
			if err != nil {
				return dto.ActivityListResponse{}, fmt.Errorf("invalid student_id filter")
			}
			repoFilter.StudentID = uint(parsed)
		}
	} else {
		repoFilter.StudentID = actor.ID
	}

	activities, total, err := s.activities.List(ctx, repoFilter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Activities:  dto.NewActivityResponseSlice(activities),
		Total:       total,
		CurrentPage: repoFilter.Page,
		TotalPages:  totalPages(total, repoFilter.Limit),
	}, nil
}

func (s *activityService) Update(ctx context.Context, actor Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.loadOwnedPending(ctx, actor, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	updates := map[string]interface{}{}
	if payload.Title != nil {
		updates["title"] = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		updates["description"] = s.sanitizer.Sanitize(strings.TrimSpace(*payload.Description))
	}
	if payload.Organization != nil {
		updates["organization"] = strings.TrimSpace(*payload.Organization)
	}
	if payload.Date != nil {
		date, err := parseActivityDate(*payload.Date)
		if err != nil {
			return dto.ActivityResponse{}, err
		}
		updates["date"] = date
	}
	if payload.Credits != nil {
		updates["credits"] = *payload.Credits
	}
	if payload.Tags != nil {
		updates["tags"] = encodeTags(*payload.Tags)
	}

	updated, err := s.activities.Update(ctx, activity.ID, updates)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(updated), nil
}

func (s *activityService) Delete(ctx context.Context, actor Actor, id uint) error {
	activity, err := s.loadOwnedPending(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.activities.Delete(ctx, id); err != nil {
		return err
	}

	s.discardFiles(activity.Files)
	s.logger.Info().Uint("activity_id", id).Uint("user_id", actor.ID).Msg("activity deleted")

	return nil
}

func (s *activityService) AddComment(ctx context.Context, actor Actor, id uint, payload dto.CommentCreateRequest) (dto.ActivityCommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityCommentResponse{}, err
	}

	if !actor.IsReviewer() {
		return dto.ActivityCommentResponse{}, ErrActivityForbidden
	}

	if _, err := s.activities.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityCommentResponse{}, ErrActivityNotFound
		}
		return dto.ActivityCommentResponse{}, err
	}

	comment := models.ActivityComment{
		ActivityID: id,
		UserID:     actor.ID,
		Content:    s.sanitizer.Sanitize(strings.TrimSpace(payload.Content)),
	}

	created, err := s.activities.AddComment(ctx, &comment)
	if err != nil {
		return dto.ActivityCommentResponse{}, err
	}

	return dto.ActivityCommentResponse{
		ID:        created.ID,
		Author:    created.Author.Name,
		Content:   created.Content,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (s *activityService) DownloadFile(ctx context.Context, actor Actor, activityID, fileID uint) (FileDownload, error) {
	activity, err := s.loadForActor(ctx, actor, activityID)
	if err != nil {
		return FileDownload{}, err
	}

	for _, file := range activity.Files {
		if file.ID != fileID {
			continue
		}

		reader, err := s.store.Open(file.StoredName)
		if err != nil {
			return FileDownload{}, ErrFileNotFound
		}

		return FileDownload{
			Reader:       reader,
			OriginalName: file.OriginalName,
			MimeType:     file.MimeType,
			Size:         file.SizeBytes,
		}, nil
	}

	return FileDownload{}, ErrFileNotFound
}

// loadForActor fetches an activity and enforces read visibility: reviewers see
// everything, students only their own records.
func (s *activityService) loadForActor(ctx context.Context, actor Actor, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	if !actor.IsReviewer() && activity.UserID != actor.ID {
		return models.Activity{}, ErrActivityForbidden
	}

	return activity, nil
}

// loadOwnedPending fetches an activity for mutation: the actor must own it and
// it must still be pending.
func (s *activityService) loadOwnedPending(ctx context.Context, actor Actor, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	if activity.UserID != actor.ID {
		return models.Activity{}, ErrActivityForbidden
	}

	if !activity.IsPending() {
		return models.Activity{}, ErrActivityNotPending
	}

	return activity, nil
}

func parseActivityDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, value)
}

func encodeTags(raw string) datatypes.JSON {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	if len(tags) == 0 {
		return nil
	}

	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil
	}

	return datatypes.JSON(encoded)
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}

	pages := int(math.Ceil(float64(total) / float64(pageSize)))
	if pages < 1 {
		pages = 1
	}

	return pages
}
