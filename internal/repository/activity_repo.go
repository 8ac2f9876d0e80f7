package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// ActivityListFilter narrows activity listings.
type ActivityListFilter struct {
	StudentID  uint
	Status     string
	Type       string
	Department string
	StartDate  string
	EndDate    string
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// ActivityRepository defines data operations for activity submissions.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Activity, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ActivityListFilter) ([]models.Activity, int64, error)
	UpdateStatusIfPending(ctx context.Context, id uint, updates map[string]interface{}) (int64, error)
	BulkUpdateStatusIfPending(ctx context.Context, ids []uint, updates map[string]interface{}) (int64, error)
	PendingIDs(ctx context.Context, ids []uint) ([]uint, error)
	AddComment(ctx context.Context, comment *models.ActivityComment) (models.ActivityComment, error)
	CountByStatus(ctx context.Context, userID uint) (map[string]int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Student").
		Preload("VerifiedBy").
		Preload("RejectedBy").
		Preload("Files").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.Author")
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return err
	}

	loaded, err := r.GetByID(ctx, activity.ID)
	if err != nil {
		return err
	}
	*activity = loaded

	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.preloaded(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Activity, error) {
	if len(updates) > 0 {
		tx := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Updates(updates)
		if tx.Error != nil {
			return models.Activity{}, tx.Error
		}
		if tx.RowsAffected == 0 {
			return models.Activity{}, gorm.ErrRecordNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityComment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Activity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *activityRepository) List(ctx context.Context, filter ActivityListFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.StudentID != 0 {
		query = query.Where("user_id = ?", filter.StudentID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if filter.Department != "" {
		query = query.
			Joins("JOIN users ON users.id = activities.user_id").
			Where("users.department = ?", filter.Department)
	}

	if filter.StartDate != "" {
		if start, err := time.Parse("2006-01-02", filter.StartDate); err == nil {
			query = query.Where("date >= ?", start)
		}
	}

	if filter.EndDate != "" {
		if end, err := time.Parse("2006-01-02", filter.EndDate); err == nil {
			query = query.Where("date < ?", end.AddDate(0, 0, 1))
		}
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(orderClause(filter.SortBy, filter.SortOrder))

	if filter.Limit > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.Limit).Offset((page - 1) * filter.Limit)
	}

	var activities []models.Activity
	if err := query.
		Preload("Student").
		Preload("VerifiedBy").
		Preload("RejectedBy").
		Preload("Files").
		Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

// orderClause whitelists sortable columns so raw query input never reaches the ORDER BY.
func orderClause(sortBy, sortOrder string) string {
	column := "submitted_at"
	switch sortBy {
	case "date":
		column = "date"
	case "title":
		column = "title"
	case "credits":
		column = "credits"
	case "status":
		column = "status"
	case "submitted_at", "":
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}

	return column + " " + direction
}

// UpdateStatusIfPending applies a review transition only while the activity is
// still pending. The returned row count is zero when the activity was already
// reviewed or does not exist, which lets callers distinguish a lost race from
// success without a second read.
func (r *activityRepository) UpdateStatusIfPending(ctx context.Context, id uint, updates map[string]interface{}) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ? AND status = ?", id, models.ActivityStatusPending).
		Updates(updates)

	return tx.RowsAffected, tx.Error
}

func (r *activityRepository) BulkUpdateStatusIfPending(ctx context.Context, ids []uint, updates map[string]interface{}) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id IN ? AND status = ?", ids, models.ActivityStatusPending).
		Updates(updates)

	return tx.RowsAffected, tx.Error
}

// PendingIDs narrows a candidate set to the activities still awaiting review.
func (r *activityRepository) PendingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	var pending []uint
	err := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id IN ? AND status = ?", ids, models.ActivityStatusPending).
		Pluck("id", &pending).Error

	return pending, err
}

func (r *activityRepository) AddComment(ctx context.Context, comment *models.ActivityComment) (models.ActivityComment, error) {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.ActivityComment{}, err
	}

	var loaded models.ActivityComment
	if err := r.db.WithContext(ctx).Preload("Author").First(&loaded, comment.ID).Error; err != nil {
		return models.ActivityComment{}, err
	}

	return loaded, nil
}

// CountByStatus groups activity counts by status, scoped to one student when
// userID is non-zero and across all students otherwise.
func (r *activityRepository) CountByStatus(ctx context.Context, userID uint) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	query := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Select("status, COUNT(*) as count")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var rows []row
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, entry := range rows {
		counts[entry.Status] = entry.Count
	}

	return counts, nil
}
