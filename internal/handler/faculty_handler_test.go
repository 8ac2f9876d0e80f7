package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/internal/service"
)

func newFacultyApp(reviews service.ReviewService, activities service.ActivityService, students service.StudentService) *fiber.App {
	app := fiber.New()
	handler := NewFacultyHandler(reviews, activities, students, testLogger())
	group := app.Group("/faculty", withUser(9, models.RoleFaculty))
	handler.Register(group)
	return app
}

func TestFacultyHandlerApprove(t *testing.T) {
	reviews := &stubReviewService{
		approve: func(actor service.Actor, id uint) (dto.ActivityResponse, error) {
			require.Equal(t, uint(9), actor.ID)
			require.Equal(t, models.RoleFaculty, actor.Role)
			require.Equal(t, uint(3), id)
			return dto.ActivityResponse{ID: 3, Status: models.ActivityStatusVerified}, nil
		},
	}
	app := newFacultyApp(reviews, &stubActivityService{}, &stubStudentService{})

	resp, err := app.Test(httptest.NewRequest("PUT", "/faculty/activities/3/approve", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "activity approved", decodeResponse(t, resp).Message)
}

func TestFacultyHandlerApproveAlreadyReviewed(t *testing.T) {
	reviews := &stubReviewService{
		approve: func(actor service.Actor, id uint) (dto.ActivityResponse, error) {
			return dto.ActivityResponse{}, service.ErrActivityNotPending
		},
	}
	app := newFacultyApp(reviews, &stubActivityService{}, &stubStudentService{})

	resp, err := app.Test(httptest.NewRequest("PUT", "/faculty/activities/3/approve", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFacultyHandlerRejectRequiresReason(t *testing.T) {
	reviews := &stubReviewService{
		reject: func(actor service.Actor, id uint, payload dto.RejectRequest) (dto.ActivityResponse, error) {
			return dto.ActivityResponse{}, service.ErrReasonRequired
		},
	}
	app := newFacultyApp(reviews, &stubActivityService{}, &stubStudentService{})

	resp, err := app.Test(jsonRequest(t, "PUT", "/faculty/activities/3/reject", fiber.Map{"reason": "  "}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "rejection reason is required", decodeResponse(t, resp).Message)
}

func TestFacultyHandlerBulkApprove(t *testing.T) {
	reviews := &stubReviewService{
		bulkApprove: func(actor service.Actor, payload dto.BulkApproveRequest) (dto.BulkReviewResponse, error) {
			require.Equal(t, []uint{1, 2, 3}, payload.ActivityIDs)
			return dto.BulkReviewResponse{AffectedCount: 2}, nil
		},
	}
	app := newFacultyApp(reviews, &stubActivityService{}, &stubStudentService{})

	resp, err := app.Test(jsonRequest(t, "PUT", "/faculty/activities/bulk-approve", fiber.Map{
		"activity_ids": []uint{1, 2, 3},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeResponse(t, resp).Data.(map[string]interface{})
	require.Equal(t, float64(2), data["affected_count"])
}

func TestFacultyHandlerBulkApproveNothingPending(t *testing.T) {
	reviews := &stubReviewService{
		bulkApprove: func(actor service.Actor, payload dto.BulkApproveRequest) (dto.BulkReviewResponse, error) {
			return dto.BulkReviewResponse{}, service.ErrActivityNotFound
		},
	}
	app := newFacultyApp(reviews, &stubActivityService{}, &stubStudentService{})

	resp, err := app.Test(jsonRequest(t, "PUT", "/faculty/activities/bulk-approve", fiber.Map{
		"activity_ids": []uint{1},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFacultyHandlerPendingQueueForcesStatus(t *testing.T) {
	var captured dto.ActivityFilter
	activities := &stubActivityService{
		list: func(actor service.Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error) {
			captured = filter
			return dto.ActivityListResponse{}, nil
		},
	}
	app := newFacultyApp(&stubReviewService{}, activities, &stubStudentService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/faculty/pending?status=verified", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, models.ActivityStatusPending, captured.Status, "queue always lists pending records")
	require.Equal(t, "asc", captured.SortOrder, "oldest submissions come first")
}

func TestFacultyHandlerStudentDetailNotFound(t *testing.T) {
	students := &stubStudentService{
		detail: func(studentID uint) (dto.StudentDetailResponse, error) {
			return dto.StudentDetailResponse{}, service.ErrUserNotFound
		},
	}
	app := newFacultyApp(&stubReviewService{}, &stubActivityService{}, students)

	resp, err := app.Test(httptest.NewRequest("GET", "/faculty/students/404", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "student not found", decodeResponse(t, resp).Message)
}

func TestFacultyHandlerListStudentsPassesFilter(t *testing.T) {
	var captured repository.UserFilter
	students := &stubStudentService{
		listStudents: func(filter repository.UserFilter) (dto.StudentListResponse, error) {
			captured = filter
			return dto.StudentListResponse{Total: 1}, nil
		},
	}
	app := newFacultyApp(&stubReviewService{}, &stubActivityService{}, students)

	resp, err := app.Test(httptest.NewRequest("GET", "/faculty/students?department=CS&search=alex&page=2&limit=10", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "CS", captured.Department)
	require.Equal(t, "alex", captured.Search)
	require.Equal(t, 2, captured.Page)
	require.Equal(t, 10, captured.PageSize)
}

func TestFacultyHandlerDashboardStats(t *testing.T) {
	reviews := &stubReviewService{
		queueStats: func(actor service.Actor) (dto.ReviewQueueStats, error) {
			return dto.ReviewQueueStats{Pending: 3, Verified: 10, Rejected: 2, Total: 15}, nil
		},
	}
	app := newFacultyApp(reviews, &stubActivityService{}, &stubStudentService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/faculty/dashboard/stats", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeResponse(t, resp).Data.(map[string]interface{})
	require.Equal(t, float64(3), data["pending"])
	require.Equal(t, float64(15), data["total"])
}
