package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// AnalyticsWindow bounds analytics queries by department and start time. A zero
// Since means the full history; an empty Department means all departments.
type AnalyticsWindow struct {
	Department string
	Since      time.Time
}

// StatusCount pairs an activity status with its volume.
type StatusCount struct {
	Status string
	Count  int64
}

// TypeCount pairs an activity type with its volume.
type TypeCount struct {
	Type  string
	Count int64
}

// TypeCredits pairs an activity type with its verified credit total.
type TypeCredits struct {
	Type    string
	Credits int64
}

// MonthBucket aggregates one calendar month of submissions.
type MonthBucket struct {
	Month      string
	Activities int64
	Verified   int64
	Students   int64
	Credits    int64
}

// StudentPerformance is one student's aggregate row for ranking.
type StudentPerformance struct {
	UserID     uint
	Name       string
	Department string
	GPA        float64
	Activities int64
	Verified   int64
	Credits    int64
}

// DepartmentAggregate rolls activity volume up to one department.
type DepartmentAggregate struct {
	Department string
	Students   int64
	Activities int64
	Verified   int64
	Credits    int64
	AverageGPA float64
}

// AnalyticsRepository runs the aggregate queries behind the analytics views.
type AnalyticsRepository interface {
	CountStudents(ctx context.Context, department string) (int64, error)
	AverageGPA(ctx context.Context, department string) (float64, error)
	StatusCounts(ctx context.Context, window AnalyticsWindow) ([]StatusCount, error)
	VerifiedCredits(ctx context.Context, window AnalyticsWindow) (int64, error)
	TypeCounts(ctx context.Context, window AnalyticsWindow) ([]TypeCount, error)
	VerifiedCreditsByType(ctx context.Context, window AnalyticsWindow) ([]TypeCredits, error)
	MonthlyBuckets(ctx context.Context, window AnalyticsWindow) ([]MonthBucket, error)
	StudentPerformance(ctx context.Context, window AnalyticsWindow) ([]StudentPerformance, error)
	DepartmentAggregates(ctx context.Context, since time.Time) ([]DepartmentAggregate, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) studentQuery(ctx context.Context, department string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleStudent)
	if department != "" {
		query = query.Where("department = ?", department)
	}

	return query
}

func (r *analyticsRepository) activityQuery(ctx context.Context, window AnalyticsWindow) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Activity{})
	if window.Department != "" {
		query = query.
			Joins("JOIN users ON users.id = activities.user_id").
			Where("users.department = ?", window.Department)
	}
	if !window.Since.IsZero() {
		query = query.Where("activities.submitted_at >= ?", window.Since)
	}

	return query
}

func (r *analyticsRepository) CountStudents(ctx context.Context, department string) (int64, error) {
	var total int64
	err := r.studentQuery(ctx, department).Count(&total).Error

	return total, err
}

func (r *analyticsRepository) AverageGPA(ctx context.Context, department string) (float64, error) {
	var avg *float64
	err := r.studentQuery(ctx, department).
		Select("AVG(gpa)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}

	return *avg, nil
}

func (r *analyticsRepository) StatusCounts(ctx context.Context, window AnalyticsWindow) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.activityQuery(ctx, window).
		Select("activities.status AS status, COUNT(*) AS count").
		Group("activities.status").
		Scan(&rows).Error

	return rows, err
}

func (r *analyticsRepository) VerifiedCredits(ctx context.Context, window AnalyticsWindow) (int64, error) {
	var total *int64
	err := r.activityQuery(ctx, window).
		Where("activities.status = ?", models.ActivityStatusVerified).
		Select("SUM(activities.credits)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}

	return *total, nil
}

func (r *analyticsRepository) TypeCounts(ctx context.Context, window AnalyticsWindow) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.activityQuery(ctx, window).
		Select("activities.type AS type, COUNT(*) AS count").
		Group("activities.type").
		Scan(&rows).Error

	return rows, err
}

func (r *analyticsRepository) VerifiedCreditsByType(ctx context.Context, window AnalyticsWindow) ([]TypeCredits, error) {
	var rows []TypeCredits
	err := r.activityQuery(ctx, window).
		Where("activities.status = ?", models.ActivityStatusVerified).
		Select("activities.type AS type, SUM(activities.credits) AS credits").
		Group("activities.type").
		Scan(&rows).Error

	return rows, err
}

// MonthlyBuckets groups submissions into calendar months keyed "2006-01".
// Month extraction differs between SQLite and Postgres, so the grouping
// happens in Go over a thin projection instead of in SQL.
func (r *analyticsRepository) MonthlyBuckets(ctx context.Context, window AnalyticsWindow) ([]MonthBucket, error) {
	type row struct {
		SubmittedAt time.Time
		Status      string
		Credits     int
		UserID      uint
	}

	var rows []row
	err := r.activityQuery(ctx, window).
		Select("activities.submitted_at AS submitted_at, activities.status AS status, activities.credits AS credits, activities.user_id AS user_id").
		Order("activities.submitted_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*MonthBucket)
	students := make(map[string]map[uint]struct{})
	var order []string
	for _, entry := range rows {
		month := entry.SubmittedAt.Format("2006-01")
		bucket, ok := buckets[month]
		if !ok {
			bucket = &MonthBucket{Month: month}
			buckets[month] = bucket
			students[month] = make(map[uint]struct{})
			order = append(order, month)
		}

		bucket.Activities++
		if entry.Status == models.ActivityStatusVerified {
			bucket.Verified++
			bucket.Credits += int64(entry.Credits)
		}
		students[month][entry.UserID] = struct{}{}
	}

	result := make([]MonthBucket, 0, len(order))
	for _, month := range order {
		bucket := buckets[month]
		bucket.Students = int64(len(students[month]))
		result = append(result, *bucket)
	}

	return result, nil
}

func (r *analyticsRepository) StudentPerformance(ctx context.Context, window AnalyticsWindow) ([]StudentPerformance, error) {
	query := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(`users.id AS user_id,
			users.name AS name,
			users.department AS department,
			users.gpa AS gpa,
			COUNT(activities.id) AS activities,
			SUM(CASE WHEN activities.status = ? THEN 1 ELSE 0 END) AS verified,
			SUM(CASE WHEN activities.status = ? THEN activities.credits ELSE 0 END) AS credits`,
			models.ActivityStatusVerified, models.ActivityStatusVerified).
		Joins("LEFT JOIN activities ON activities.user_id = users.id").
		Where("users.role = ?", models.RoleStudent).
		Group("users.id, users.name, users.department, users.gpa")

	if window.Department != "" {
		query = query.Where("users.department = ?", window.Department)
	}
	if !window.Since.IsZero() {
		query = query.Where("activities.id IS NULL OR activities.submitted_at >= ?", window.Since)
	}

	var rows []StudentPerformance
	err := query.Scan(&rows).Error

	return rows, err
}

// DepartmentAggregates rolls student and activity volume up per department.
// Student counts and GPA come from a users-only aggregate, so a student's GPA
// is never weighted by how many activities they submitted.
func (r *analyticsRepository) DepartmentAggregates(ctx context.Context, since time.Time) ([]DepartmentAggregate, error) {
	type studentRow struct {
		Department string
		Students   int64
		AverageGPA float64
	}

	var studentRows []studentRow
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("department AS department, COUNT(*) AS students, AVG(gpa) AS average_gpa").
		Where("role = ?", models.RoleStudent).
		Group("department").
		Order("department").
		Scan(&studentRows).Error
	if err != nil {
		return nil, err
	}

	type activityRow struct {
		Department string
		Activities int64
		Verified   int64
		Credits    int64
	}

	activityQuery := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Select(`users.department AS department,
			COUNT(activities.id) AS activities,
			SUM(CASE WHEN activities.status = ? THEN 1 ELSE 0 END) AS verified,
			SUM(CASE WHEN activities.status = ? THEN activities.credits ELSE 0 END) AS credits`,
			models.ActivityStatusVerified, models.ActivityStatusVerified).
		Joins("JOIN users ON users.id = activities.user_id").
		Where("users.role = ?", models.RoleStudent).
		Group("users.department")
	if !since.IsZero() {
		activityQuery = activityQuery.Where("activities.submitted_at >= ?", since)
	}

	var activityRows []activityRow
	if err := activityQuery.Scan(&activityRows).Error; err != nil {
		return nil, err
	}

	volumes := make(map[string]activityRow, len(activityRows))
	for _, row := range activityRows {
		volumes[row.Department] = row
	}

	aggregates := make([]DepartmentAggregate, 0, len(studentRows))
	for _, row := range studentRows {
		volume := volumes[row.Department]
		aggregates = append(aggregates, DepartmentAggregate{
			Department: row.Department,
			Students:   row.Students,
			Activities: volume.Activities,
			Verified:   volume.Verified,
			Credits:    volume.Credits,
			AverageGPA: row.AverageGPA,
		})
	}

	return aggregates, nil
}
