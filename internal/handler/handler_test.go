package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// withUser simulates the JWT middleware by injecting the authenticated
// identity into request locals.
func withUser(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		c.Locals("user_role", role)
		return c.Next()
	}
}

func decodeResponse(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

// stubActivityService lets each test pin the behavior of the methods it
// exercises. Unset methods return zero values.
type stubActivityService struct {
	submit   func(actor service.Actor, payload dto.ActivityCreateRequest, files []service.UploadedFile) (dto.ActivityResponse, error)
	get      func(actor service.Actor, id uint) (dto.ActivityResponse, error)
	list     func(actor service.Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error)
	update   func(actor service.Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	delete   func(actor service.Actor, id uint) error
	comment  func(actor service.Actor, id uint, payload dto.CommentCreateRequest) (dto.ActivityCommentResponse, error)
	download func(actor service.Actor, activityID, fileID uint) (service.FileDownload, error)
}

func (s *stubActivityService) Submit(ctx context.Context, actor service.Actor, payload dto.ActivityCreateRequest, files []service.UploadedFile) (dto.ActivityResponse, error) {
	if s.submit == nil {
		return dto.ActivityResponse{}, nil
	}
	return s.submit(actor, payload, files)
}

func (s *stubActivityService) Get(ctx context.Context, actor service.Actor, id uint) (dto.ActivityResponse, error) {
	if s.get == nil {
		return dto.ActivityResponse{}, nil
	}
	return s.get(actor, id)
}

func (s *stubActivityService) List(ctx context.Context, actor service.Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error) {
	if s.list == nil {
		return dto.ActivityListResponse{}, nil
	}
	return s.list(actor, filter)
}

func (s *stubActivityService) Update(ctx context.Context, actor service.Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	if s.update == nil {
		return dto.ActivityResponse{}, nil
	}
	return s.update(actor, id, payload)
}

func (s *stubActivityService) Delete(ctx context.Context, actor service.Actor, id uint) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(actor, id)
}

func (s *stubActivityService) AddComment(ctx context.Context, actor service.Actor, id uint, payload dto.CommentCreateRequest) (dto.ActivityCommentResponse, error) {
	if s.comment == nil {
		return dto.ActivityCommentResponse{}, nil
	}
	return s.comment(actor, id, payload)
}

func (s *stubActivityService) DownloadFile(ctx context.Context, actor service.Actor, activityID, fileID uint) (service.FileDownload, error) {
	if s.download == nil {
		return service.FileDownload{}, nil
	}
	return s.download(actor, activityID, fileID)
}

type stubReviewService struct {
	approve     func(actor service.Actor, id uint) (dto.ActivityResponse, error)
	reject      func(actor service.Actor, id uint, payload dto.RejectRequest) (dto.ActivityResponse, error)
	bulkApprove func(actor service.Actor, payload dto.BulkApproveRequest) (dto.BulkReviewResponse, error)
	bulkReject  func(actor service.Actor, payload dto.BulkRejectRequest) (dto.BulkReviewResponse, error)
	queueStats  func(actor service.Actor) (dto.ReviewQueueStats, error)
}

func (s *stubReviewService) Approve(ctx context.Context, actor service.Actor, id uint) (dto.ActivityResponse, error) {
	if s.approve == nil {
		return dto.ActivityResponse{}, nil
	}
	return s.approve(actor, id)
}

func (s *stubReviewService) Reject(ctx context.Context, actor service.Actor, id uint, payload dto.RejectRequest) (dto.ActivityResponse, error) {
	if s.reject == nil {
		return dto.ActivityResponse{}, nil
	}
	return s.reject(actor, id, payload)
}

func (s *stubReviewService) BulkApprove(ctx context.Context, actor service.Actor, payload dto.BulkApproveRequest) (dto.BulkReviewResponse, error) {
	if s.bulkApprove == nil {
		return dto.BulkReviewResponse{}, nil
	}
	return s.bulkApprove(actor, payload)
}

func (s *stubReviewService) BulkReject(ctx context.Context, actor service.Actor, payload dto.BulkRejectRequest) (dto.BulkReviewResponse, error) {
	if s.bulkReject == nil {
		return dto.BulkReviewResponse{}, nil
	}
	return s.bulkReject(actor, payload)
}

func (s *stubReviewService) QueueStats(ctx context.Context, actor service.Actor) (dto.ReviewQueueStats, error) {
	if s.queueStats == nil {
		return dto.ReviewQueueStats{}, nil
	}
	return s.queueStats(actor)
}

type stubStudentService struct {
	dashboard    func(studentID uint) (dto.StudentDashboardResponse, error)
	profile      func(studentID uint) (dto.StudentProfileResponse, error)
	portfolio    func(studentID uint) (dto.PortfolioResponse, error)
	progress     func(studentID uint) ([]dto.MonthlyProgress, error)
	stats        func(studentID uint) (dto.StudentStats, error)
	listStudents func(filter repository.UserFilter) (dto.StudentListResponse, error)
	detail       func(studentID uint) (dto.StudentDetailResponse, error)
}

func (s *stubStudentService) Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	if s.dashboard == nil {
		return dto.StudentDashboardResponse{}, nil
	}
	return s.dashboard(studentID)
}

func (s *stubStudentService) Profile(ctx context.Context, studentID uint) (dto.StudentProfileResponse, error) {
	if s.profile == nil {
		return dto.StudentProfileResponse{}, nil
	}
	return s.profile(studentID)
}

func (s *stubStudentService) Portfolio(ctx context.Context, studentID uint) (dto.PortfolioResponse, error) {
	if s.portfolio == nil {
		return dto.PortfolioResponse{}, nil
	}
	return s.portfolio(studentID)
}

func (s *stubStudentService) Progress(ctx context.Context, studentID uint) ([]dto.MonthlyProgress, error) {
	if s.progress == nil {
		return nil, nil
	}
	return s.progress(studentID)
}

func (s *stubStudentService) Stats(ctx context.Context, studentID uint) (dto.StudentStats, error) {
	if s.stats == nil {
		return dto.StudentStats{}, nil
	}
	return s.stats(studentID)
}

func (s *stubStudentService) ListStudents(ctx context.Context, filter repository.UserFilter) (dto.StudentListResponse, error) {
	if s.listStudents == nil {
		return dto.StudentListResponse{}, nil
	}
	return s.listStudents(filter)
}

func (s *stubStudentService) StudentDetail(ctx context.Context, studentID uint) (dto.StudentDetailResponse, error) {
	if s.detail == nil {
		return dto.StudentDetailResponse{}, nil
	}
	return s.detail(studentID)
}
