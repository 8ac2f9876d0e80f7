package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

func newStudentFixture(t *testing.T) (*fakeUserRepo, *fakeActivityRepo, StudentService) {
	t.Helper()
	users := newFakeUserRepo()
	activities := newFakeActivityRepo()
	return users, activities, NewStudentService(users, activities, testLogger())
}

func seedStudentActivities(activities *fakeActivityRepo, studentID uint) {
	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 15, 12, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	activities.put(models.Activity{
		UserID: studentID, Type: models.ActivityTypeCertification,
		Status: models.ActivityStatusVerified, Credits: 4,
		SubmittedAt: thisMonth, Date: thisMonth, IsPublic: true,
	})
	activities.put(models.Activity{
		UserID: studentID, Type: models.ActivityTypeVolunteering,
		Status: models.ActivityStatusVerified, Credits: 2,
		SubmittedAt: lastMonth, Date: lastMonth, IsPublic: true,
	})
	activities.put(models.Activity{
		UserID: studentID, Type: models.ActivityTypeConference,
		Status: models.ActivityStatusPending, Credits: 3,
		SubmittedAt: now, Date: now, IsPublic: true,
	})
	activities.put(models.Activity{
		UserID: studentID, Type: models.ActivityTypeResearch,
		Status: models.ActivityStatusRejected, Credits: 5,
		SubmittedAt: now, Date: now, IsPublic: true,
	})
}

func TestStudentServiceStats(t *testing.T) {
	_, activities, svc := newStudentFixture(t)
	seedStudentActivities(activities, 7)
	activities.put(models.Activity{UserID: 99, Status: models.ActivityStatusVerified, Credits: 10})

	stats, err := svc.Stats(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.TotalActivities)
	require.Equal(t, int64(2), stats.VerifiedActivities)
	require.Equal(t, int64(1), stats.PendingActivities)
	require.Equal(t, int64(1), stats.RejectedActivities)
	require.Equal(t, int64(6), stats.TotalCredits, "only verified credits count")
	require.Equal(t, 50.0, stats.VerificationRate)
}

func TestStudentServiceStatsEmpty(t *testing.T) {
	_, _, svc := newStudentFixture(t)

	stats, err := svc.Stats(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.TotalActivities)
	require.Equal(t, 0.0, stats.VerificationRate)
}

func TestStudentServicePortfolio(t *testing.T) {
	users, activities, svc := newStudentFixture(t)
	studentID := users.put(models.User{
		Name:       "Alex Johnson",
		Email:      "alex@university.edu",
		Role:       models.RoleStudent,
		Department: "Computer Science",
		Year:       models.YearSenior,
		GPA:        3.8,
	})
	seedStudentActivities(activities, studentID)

	portfolio, err := svc.Portfolio(context.Background(), studentID)
	require.NoError(t, err)
	require.Equal(t, "Alex Johnson", portfolio.PersonalInfo.Name)
	require.Len(t, portfolio.Activities, 2, "portfolio only contains verified activities")
	require.Len(t, portfolio.Achievements, 2)
	require.Contains(t, portfolio.Skills.Technical, "Professional Certification")
	require.Contains(t, portfolio.Skills.Soft, "Community Engagement")
	require.NotContains(t, portfolio.Skills.Soft, "Professional Networking", "pending conference must not contribute skills")
}

func TestStudentServicePortfolioUnknownStudent(t *testing.T) {
	users, _, svc := newStudentFixture(t)
	facultyID := users.put(models.User{Name: "Dr. Wilson", Role: models.RoleFaculty})

	_, err := svc.Portfolio(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Portfolio(context.Background(), facultyID)
	require.ErrorIs(t, err, ErrUserNotFound, "faculty accounts have no portfolio")
}

func TestStudentServiceProgressCoversSixMonths(t *testing.T) {
	_, activities, svc := newStudentFixture(t)
	seedStudentActivities(activities, 7)

	progress, err := svc.Progress(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, progress, 6)

	current := progress[len(progress)-1]
	require.Equal(t, time.Now().UTC().Format("2006-01"), current.Month)
	require.Equal(t, 3, current.Activities)
	require.Equal(t, 1, current.Verified)
	require.Equal(t, 4, current.Credits)

	previous := progress[len(progress)-2]
	require.Equal(t, 1, previous.Activities)
	require.Equal(t, 2, previous.Credits)
}

func TestStudentServiceDashboardRecentLimit(t *testing.T) {
	_, activities, svc := newStudentFixture(t)
	now := time.Now().UTC()
	for i := 0; i < 8; i++ {
		activities.put(models.Activity{
			UserID:      7,
			Type:        models.ActivityTypeCompetition,
			Status:      models.ActivityStatusPending,
			SubmittedAt: now.Add(-time.Duration(i) * time.Hour),
			Date:        now,
		})
	}

	dashboard, err := svc.Dashboard(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, dashboard.RecentActivities, 5)
	require.Equal(t, int64(8), dashboard.Stats.TotalActivities)
	require.Equal(t, 8, dashboard.ActivityTypes[models.ActivityTypeCompetition])
}

func TestStudentServiceListStudentsWithStats(t *testing.T) {
	users, activities, svc := newStudentFixture(t)
	studentID := users.put(models.User{Name: "Alex", Role: models.RoleStudent, Department: "CS"})
	users.put(models.User{Name: "Dr. Wilson", Role: models.RoleFaculty})
	seedStudentActivities(activities, studentID)

	response, err := svc.ListStudents(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), response.Total, "faculty accounts are excluded")
	require.Equal(t, int64(4), response.Students[0].Stats.TotalActivities)
}

func TestStudentServiceProfileIncludesStats(t *testing.T) {
	users, activities, svc := newStudentFixture(t)
	studentID := users.put(models.User{Name: "Alex", Role: models.RoleStudent, Department: "CS"})
	seedStudentActivities(activities, studentID)

	profile, err := svc.Profile(context.Background(), studentID)
	require.NoError(t, err)
	require.Equal(t, "Alex", profile.User.Name)
	require.Equal(t, int64(4), profile.Stats.TotalActivities)
	require.Equal(t, int64(6), profile.Stats.TotalCredits)
}
