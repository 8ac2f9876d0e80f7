package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role       string
	Department string
	Year       string
	Search     string
	Sort       string
	Page       int
	PageSize   int
}

// UserRepository defines data operations for the user directory.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (models.User, error)
	GetByStudentID(ctx context.Context, studentID string) (models.User, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Departments(ctx context.Context) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByEmailAndRole(ctx context.Context, email, role string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Where("role = ?", role).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByStudentID(ctx context.Context, studentID string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error) {
	if len(updates) > 0 {
		tx := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if tx.Error != nil {
			return models.User{}, tx.Error
		}
		if tx.RowsAffected == 0 {
			return models.User{}, gorm.ErrRecordNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	if filter.Year != "" {
		query = query.Where("year = ?", filter.Year)
	}

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(student_id) LIKE ?", like, like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := filter.Sort
	if sort == "" {
		sort = "name ASC"
	}
	query = query.Order(sort)

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Departments(ctx context.Context) ([]string, error) {
	var departments []string
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleStudent).
		Distinct("department").
		Order("department").
		Pluck("department", &departments).Error; err != nil {
		return nil, err
	}

	return departments, nil
}
