package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

const defaultTimeframe = "6months"

const topPerformerLimit = 10

// timeframeMonths maps the accepted timeframe tokens to trailing month counts.
var timeframeMonths = map[string]int{
	"1month":  1,
	"3months": 3,
	"6months": 6,
	"1year":   12,
}

// accreditationCategories maps reporting categories to the activity type whose
// verified credits count toward them.
var accreditationCategories = []struct {
	Name     string
	Type     string
	Required int64
}{
	{Name: "Academic Excellence", Type: models.ActivityTypeCertification, Required: 4000},
	{Name: "Research & Innovation", Type: models.ActivityTypeResearch, Required: 2000},
	{Name: "Community Service", Type: models.ActivityTypeVolunteering, Required: 2000},
	{Name: "Professional Development", Type: models.ActivityTypeConference, Required: 2000},
}

// AnalyticsService produces read-only aggregate views over users and
// activities. Results are cached in Redis when a client is configured.
type AnalyticsService interface {
	Overview(ctx context.Context, filter dto.AnalyticsFilter) (dto.OverviewResponse, error)
	Trends(ctx context.Context, filter dto.AnalyticsFilter) ([]dto.TrendPoint, error)
	Departments(ctx context.Context) ([]dto.DepartmentStats, error)
	ActivityTypes(ctx context.Context, filter dto.AnalyticsFilter) ([]dto.TypeDistribution, error)
	TopPerformers(ctx context.Context, filter dto.AnalyticsFilter, limit int) ([]dto.TopPerformer, error)
	Accreditation(ctx context.Context, filter dto.AnalyticsFilter) (dto.AccreditationResponse, error)
	Report(ctx context.Context, filter dto.AnalyticsFilter) (dto.ReportResponse, error)
}

type analyticsService struct {
	repo      repository.AnalyticsRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnalyticsService constructs the analytics service. The Redis client may
// be nil, in which case every call recomputes from the database.
func NewAnalyticsService(
	repo repository.AnalyticsRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	validator *validator.Validate,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validator,
		tracer:    otel.Tracer("analytics-service"),
		logger:    logger.With().Str("component", "analytics_service").Logger(),
		now:       time.Now,
	}
}

func (s *analyticsService) window(filter dto.AnalyticsFilter) (repository.AnalyticsWindow, string) {
	timeframe := filter.Timeframe
	if timeframe == "" {
		timeframe = defaultTimeframe
	}

	months := timeframeMonths[timeframe]
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	return repository.AnalyticsWindow{Department: filter.Department, Since: since}, timeframe
}

func (s *analyticsService) Overview(ctx context.Context, filter dto.AnalyticsFilter) (dto.OverviewResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.OverviewResponse{}, err
	}

	window, timeframe := s.window(filter)
	ctx, span := s.tracer.Start(ctx, "analytics.overview", trace.WithAttributes(
		attribute.String("department", filter.Department),
		attribute.String("timeframe", timeframe),
	))
	defer span.End()

	var cached dto.OverviewResponse
	key := cacheKey("overview", filter.Department, timeframe)
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	students, err := s.repo.CountStudents(ctx, filter.Department)
	if err != nil {
		return dto.OverviewResponse{}, err
	}

	statuses, err := s.repo.StatusCounts(ctx, window)
	if err != nil {
		return dto.OverviewResponse{}, err
	}

	credits, err := s.repo.VerifiedCredits(ctx, window)
	if err != nil {
		return dto.OverviewResponse{}, err
	}

	averageGPA, err := s.repo.AverageGPA(ctx, filter.Department)
	if err != nil {
		return dto.OverviewResponse{}, err
	}

	response := dto.OverviewResponse{
		TotalStudents: students,
		TotalCredits:  credits,
		AverageGPA:    round2(averageGPA),
	}
	for _, entry := range statuses {
		response.TotalActivities += entry.Count
		switch entry.Status {
		case models.ActivityStatusVerified:
			response.VerifiedActivities = entry.Count
		case models.ActivityStatusPending:
			response.PendingActivities = entry.Count
		case models.ActivityStatusRejected:
			response.RejectedActivities = entry.Count
		}
	}
	response.CompletionRate = completionRate(response.VerifiedActivities, response.TotalActivities)

	s.toCache(ctx, key, response)

	return response, nil
}

// Trends returns one calendar-month bucket for every trailing month in the
// window, including months without any submissions.
func (s *analyticsService) Trends(ctx context.Context, filter dto.AnalyticsFilter) ([]dto.TrendPoint, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	window, timeframe := s.window(filter)
	ctx, span := s.tracer.Start(ctx, "analytics.trends", trace.WithAttributes(
		attribute.String("timeframe", timeframe),
	))
	defer span.End()

	var cached []dto.TrendPoint
	key := cacheKey("trends", filter.Department, timeframe)
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	buckets, err := s.repo.MonthlyBuckets(ctx, window)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]repository.MonthBucket, len(buckets))
	for _, bucket := range buckets {
		byMonth[bucket.Month] = bucket
	}

	months := timeframeMonths[timeframe]
	now := s.now().UTC()
	// Anchor on the first of the month so AddDate never skips a short month.
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]dto.TrendPoint, 0, months)
	for offset := months - 1; offset >= 0; offset-- {
		month := base.AddDate(0, -offset, 0).Format("2006-01")
		point := dto.TrendPoint{Month: month}
		if bucket, ok := byMonth[month]; ok {
			point.Activities = bucket.Activities
			point.Verified = bucket.Verified
			point.Students = bucket.Students
		}
		points = append(points, point)
	}

	s.toCache(ctx, key, points)

	return points, nil
}

func (s *analyticsService) Departments(ctx context.Context) ([]dto.DepartmentStats, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.departments")
	defer span.End()

	var cached []dto.DepartmentStats
	key := cacheKey("departments", "", "")
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	aggregates, err := s.repo.DepartmentAggregates(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	stats := make([]dto.DepartmentStats, 0, len(aggregates))
	for _, aggregate := range aggregates {
		stats = append(stats, dto.DepartmentStats{
			Name:         aggregate.Department,
			Students:     aggregate.Students,
			Activities:   aggregate.Activities,
			Verified:     aggregate.Verified,
			TotalCredits: aggregate.Credits,
			AverageGPA:   round2(aggregate.AverageGPA),
		})
	}

	s.toCache(ctx, key, stats)

	return stats, nil
}

// ActivityTypes reports the share of each activity type over the full
// submission history. Percentages are rounded independently to one decimal,
// so they may not sum to exactly 100.
func (s *analyticsService) ActivityTypes(ctx context.Context, filter dto.AnalyticsFilter) ([]dto.TypeDistribution, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	window := repository.AnalyticsWindow{Department: filter.Department}
	ctx, span := s.tracer.Start(ctx, "analytics.activity_types")
	defer span.End()

	var cached []dto.TypeDistribution
	key := cacheKey("activity-types", filter.Department, "")
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := s.repo.TypeCounts(ctx, window)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]int64, len(counts))
	var total int64
	for _, entry := range counts {
		byType[entry.Type] = entry.Count
		total += entry.Count
	}

	distribution := make([]dto.TypeDistribution, 0, len(models.ActivityTypes()))
	for _, activityType := range models.ActivityTypes() {
		count := byType[activityType]
		percentage := 0.0
		if total > 0 {
			percentage = math.Round(float64(count)/float64(total)*1000) / 10
		}
		distribution = append(distribution, dto.TypeDistribution{
			Name:       activityType,
			Count:      count,
			Percentage: percentage,
		})
	}

	s.toCache(ctx, key, distribution)

	return distribution, nil
}

// TopPerformers ranks students by 0.3*activities + 0.4*verified + 0.2*credits
// + 0.1*gpa. The sort is stable so equal scores keep their input order.
func (s *analyticsService) TopPerformers(ctx context.Context, filter dto.AnalyticsFilter, limit int) ([]dto.TopPerformer, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = topPerformerLimit
	}

	window, _ := s.window(filter)
	window.Since = time.Time{}
	ctx, span := s.tracer.Start(ctx, "analytics.top_performers", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	rows, err := s.repo.StudentPerformance(ctx, window)
	if err != nil {
		return nil, err
	}

	performers := make([]dto.TopPerformer, 0, len(rows))
	for _, row := range rows {
		performers = append(performers, dto.TopPerformer{
			Name:               row.Name,
			Department:         row.Department,
			Activities:         row.Activities,
			VerifiedActivities: row.Verified,
			Credits:            row.Credits,
			GPA:                row.GPA,
			Score:              performerScore(row),
		})
	}

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Score > performers[j].Score
	})

	if len(performers) > limit {
		performers = performers[:limit]
	}
	for i := range performers {
		performers[i].Rank = i + 1
	}

	return performers, nil
}

func (s *analyticsService) Accreditation(ctx context.Context, filter dto.AnalyticsFilter) (dto.AccreditationResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.AccreditationResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "analytics.accreditation")
	defer span.End()

	var cached dto.AccreditationResponse
	key := cacheKey("accreditation", filter.Department, "")
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	credits, err := s.repo.VerifiedCreditsByType(ctx, repository.AnalyticsWindow{Department: filter.Department})
	if err != nil {
		return dto.AccreditationResponse{}, err
	}

	// The grand total counts every verified credit, including activity types
	// outside the four tracked categories.
	total, err := s.repo.VerifiedCredits(ctx, repository.AnalyticsWindow{Department: filter.Department})
	if err != nil {
		return dto.AccreditationResponse{}, err
	}

	byType := make(map[string]int64, len(credits))
	for _, entry := range credits {
		byType[entry.Type] = entry.Credits
	}

	response := dto.AccreditationResponse{
		TotalHours: total,
		Categories: make([]dto.AccreditationCategory, 0, len(accreditationCategories)),
	}
	for _, category := range accreditationCategories {
		hours := byType[category.Type]
		response.RequiredHours += category.Required
		response.Categories = append(response.Categories, dto.AccreditationCategory{
			Name:     category.Name,
			Hours:    hours,
			Required: category.Required,
			Status:   accreditationStatus(hours, category.Required),
		})
	}
	if response.RequiredHours > 0 {
		response.CompletionPercentage = math.Round(float64(response.TotalHours)/float64(response.RequiredHours)*1000) / 10
	}

	s.toCache(ctx, key, response)

	return response, nil
}

func (s *analyticsService) Report(ctx context.Context, filter dto.AnalyticsFilter) (dto.ReportResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.ReportResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "analytics.report")
	defer span.End()

	overview, err := s.Overview(ctx, filter)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	trends, err := s.Trends(ctx, filter)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	departments, err := s.Departments(ctx)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	types, err := s.ActivityTypes(ctx, filter)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	performers, err := s.TopPerformers(ctx, filter, topPerformerLimit)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	accreditation, err := s.Accreditation(ctx, filter)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	timeframe := filter.Timeframe
	if timeframe == "" {
		timeframe = defaultTimeframe
	}

	return dto.ReportResponse{
		GeneratedAt:   s.now().UTC(),
		Timeframe:     timeframe,
		Department:    filter.Department,
		Overview:      overview,
		Trends:        trends,
		Departments:   departments,
		ActivityTypes: types,
		TopPerformers: performers,
		Accreditation: accreditation,
	}, nil
}

func (s *analyticsService) fromCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}

	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}

	if err := json.Unmarshal(payload, target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt analytics cache entry")
		return false
	}

	return true
}

func (s *analyticsService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write analytics cache entry")
	}
}

func cacheKey(view, department, timeframe string) string {
	if department == "" {
		department = "all"
	}
	if timeframe == "" {
		timeframe = "all"
	}

	return "analytics:" + view + ":" + department + ":" + timeframe
}

func performerScore(row repository.StudentPerformance) float64 {
	return 0.3*float64(row.Activities) + 0.4*float64(row.Verified) + 0.2*float64(row.Credits) + 0.1*row.GPA
}

func accreditationStatus(hours, required int64) string {
	switch {
	case hours >= required:
		return "exceeded"
	case float64(hours) >= 0.8*float64(required):
		return "met"
	default:
		return "pending"
	}
}

func completionRate(verified, total int64) float64 {
	if total == 0 {
		return 0
	}

	return math.Round(float64(verified)/float64(total)*1000) / 10
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
