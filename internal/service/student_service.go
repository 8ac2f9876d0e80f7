package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

const dashboardRecentLimit = 5

const portfolioAchievementLimit = 6

const progressMonths = 6

// technicalSkills and softSkills translate verified activity types into
// portfolio skill labels.
var technicalSkills = map[string]string{
	models.ActivityTypeCertification: "Professional Certification",
	models.ActivityTypeResearch:      "Research & Analysis",
	models.ActivityTypeCompetition:   "Problem Solving",
	models.ActivityTypeInternship:    "Industry Experience",
}

var softSkills = map[string]string{
	models.ActivityTypeVolunteering: "Community Engagement",
	models.ActivityTypeConference:   "Professional Networking",
}

// StudentService serves the student dashboard, portfolio, and the faculty
// student directory.
type StudentService interface {
	Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
	Profile(ctx context.Context, studentID uint) (dto.StudentProfileResponse, error)
	Portfolio(ctx context.Context, studentID uint) (dto.PortfolioResponse, error)
	Progress(ctx context.Context, studentID uint) ([]dto.MonthlyProgress, error)
	Stats(ctx context.Context, studentID uint) (dto.StudentStats, error)
	ListStudents(ctx context.Context, filter repository.UserFilter) (dto.StudentListResponse, error)
	StudentDetail(ctx context.Context, studentID uint) (dto.StudentDetailResponse, error)
}

type studentService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(
	users repository.UserRepository,
	activities repository.ActivityRepository,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		users:      users,
		activities: activities,
		logger:     logger.With().Str("component", "student_service").Logger(),
		now:        time.Now,
	}
}

func (s *studentService) Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	activities, err := s.loadActivities(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	stats := deriveStats(activities)

	recent := make([]models.Activity, len(activities))
	copy(recent, activities)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].SubmittedAt.After(recent[j].SubmittedAt)
	})
	if len(recent) > dashboardRecentLimit {
		recent = recent[:dashboardRecentLimit]
	}

	return dto.StudentDashboardResponse{
		Stats:            stats,
		RecentActivities: dto.NewActivityResponseSlice(recent),
		ActivityTypes:    stats.ActivityTypes,
		MonthlyData:      s.monthlySeries(activities),
	}, nil
}

func (s *studentService) Profile(ctx context.Context, studentID uint) (dto.StudentProfileResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return dto.StudentProfileResponse{}, err
	}

	activities, err := s.loadActivities(ctx, studentID)
	if err != nil {
		return dto.StudentProfileResponse{}, err
	}

	return dto.StudentProfileResponse{
		User:  dto.NewUserResponse(student),
		Stats: deriveStats(activities),
	}, nil
}

func (s *studentService) Portfolio(ctx context.Context, studentID uint) (dto.PortfolioResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return dto.PortfolioResponse{}, err
	}

	activities, err := s.loadActivities(ctx, studentID)
	if err != nil {
		return dto.PortfolioResponse{}, err
	}

	verified := make([]models.Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.Status == models.ActivityStatusVerified && activity.IsPublic {
			verified = append(verified, activity)
		}
	}
	sort.SliceStable(verified, func(i, j int) bool {
		return verified[i].Date.After(verified[j].Date)
	})

	achievements := make([]dto.PortfolioAchievement, 0, portfolioAchievementLimit)
	for _, activity := range verified {
		if len(achievements) == portfolioAchievementLimit {
			break
		}
		achievements = append(achievements, dto.PortfolioAchievement{
			ID:          activity.ID,
			Title:       activity.Title,
			Description: activity.Description,
			Type:        activity.Type,
			Date:        activity.Date.Format("2006-01-02"),
		})
	}

	return dto.PortfolioResponse{
		PersonalInfo: dto.PortfolioPersonalInfo{
			Name:       student.Name,
			Email:      student.Email,
			Department: student.Department,
			Year:       student.Year,
			GPA:        student.GPA,
			StudentID:  student.StudentNumber(),
		},
		Activities:   dto.NewActivityResponseSlice(verified),
		Achievements: achievements,
		Skills:       deriveSkills(verified),
	}, nil
}

func (s *studentService) Progress(ctx context.Context, studentID uint) ([]dto.MonthlyProgress, error) {
	activities, err := s.loadActivities(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return s.monthlySeries(activities), nil
}

func (s *studentService) Stats(ctx context.Context, studentID uint) (dto.StudentStats, error) {
	activities, err := s.loadActivities(ctx, studentID)
	if err != nil {
		return dto.StudentStats{}, err
	}

	return deriveStats(activities), nil
}

func (s *studentService) ListStudents(ctx context.Context, filter repository.UserFilter) (dto.StudentListResponse, error) {
	filter.Role = models.RoleStudent
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	students, total, err := s.users.List(ctx, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	rows := make([]dto.StudentWithStats, 0, len(students))
	for _, student := range students {
		activities, err := s.loadActivities(ctx, student.ID)
		if err != nil {
			return dto.StudentListResponse{}, err
		}
		rows = append(rows, dto.StudentWithStats{
			User:  dto.NewUserResponse(student),
			Stats: deriveStats(activities),
		})
	}

	return dto.StudentListResponse{
		Students:    rows,
		Total:       total,
		CurrentPage: filter.Page,
		TotalPages:  totalPages(total, filter.PageSize),
	}, nil
}

func (s *studentService) StudentDetail(ctx context.Context, studentID uint) (dto.StudentDetailResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDetailResponse{}, err
	}

	activities, err := s.loadActivities(ctx, studentID)
	if err != nil {
		return dto.StudentDetailResponse{}, err
	}

	return dto.StudentDetailResponse{
		Student:    dto.NewUserResponse(student),
		Activities: dto.NewActivityResponseSlice(activities),
		Stats:      deriveStats(activities),
	}, nil
}

func (s *studentService) loadStudent(ctx context.Context, studentID uint) (models.User, error) {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if student.Role != models.RoleStudent {
		return models.User{}, ErrUserNotFound
	}

	return student, nil
}

func (s *studentService) loadActivities(ctx context.Context, studentID uint) ([]models.Activity, error) {
	activities, _, err := s.activities.List(ctx, repository.ActivityListFilter{
		StudentID: studentID,
		SortBy:    "date",
		SortOrder: "desc",
	})

	return activities, err
}

// monthlySeries buckets the student's activities into the trailing six
// calendar months, including empty months.
func (s *studentService) monthlySeries(activities []models.Activity) []dto.MonthlyProgress {
	type bucket struct {
		activities int
		verified   int
		credits    int
	}

	buckets := make(map[string]*bucket)
	for _, activity := range activities {
		month := activity.SubmittedAt.Format("2006-01")
		entry, ok := buckets[month]
		if !ok {
			entry = &bucket{}
			buckets[month] = entry
		}
		entry.activities++
		if activity.Status == models.ActivityStatusVerified {
			entry.verified++
			entry.credits += activity.Credits
		}
	}

	series := make([]dto.MonthlyProgress, 0, progressMonths)
	now := s.now().UTC()
	// Anchor on the first of the month so AddDate never skips a short month.
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for offset := progressMonths - 1; offset >= 0; offset-- {
		month := base.AddDate(0, -offset, 0).Format("2006-01")
		point := dto.MonthlyProgress{Month: month}
		if entry, ok := buckets[month]; ok {
			point.Activities = entry.activities
			point.Verified = entry.verified
			point.Credits = entry.credits
		}
		series = append(series, point)
	}

	return series
}

func deriveStats(activities []models.Activity) dto.StudentStats {
	stats := dto.StudentStats{
		TotalActivities: int64(len(activities)),
		ActivityTypes:   make(map[string]int),
	}

	for _, activity := range activities {
		stats.ActivityTypes[activity.Type]++
		switch activity.Status {
		case models.ActivityStatusVerified:
			stats.VerifiedActivities++
			stats.TotalCredits += int64(activity.Credits)
		case models.ActivityStatusPending:
			stats.PendingActivities++
		case models.ActivityStatusRejected:
			stats.RejectedActivities++
		}
	}

	stats.VerificationRate = completionRate(stats.VerifiedActivities, stats.TotalActivities)

	return stats
}

func deriveSkills(verified []models.Activity) dto.PortfolioSkills {
	skills := dto.PortfolioSkills{Technical: []string{}, Soft: []string{}}
	seen := make(map[string]struct{})

	for _, activity := range verified {
		if skill, ok := technicalSkills[activity.Type]; ok {
			if _, dup := seen[skill]; !dup {
				seen[skill] = struct{}{}
				skills.Technical = append(skills.Technical, skill)
			}
		}
		if skill, ok := softSkills[activity.Type]; ok {
			if _, dup := seen[skill]; !dup {
				seen[skill] = struct{}{}
				skills.Soft = append(skills.Soft, skill)
			}
		}
	}

	return skills
}
