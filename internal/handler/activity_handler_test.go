package handler

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/middleware"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/service"
)

func newActivityApp(svc service.ActivityService, id uint, role string) *fiber.App {
	app := fiber.New()
	handler := NewActivityHandler(svc, testLogger())
	group := app.Group("/activities", withUser(id, role))
	handler.Register(group, middleware.RequireOperation(middleware.OpActivitySubmit))
	return app
}

func TestActivityHandlerSubmitMultipart(t *testing.T) {
	svc := &stubActivityService{
		submit: func(actor service.Actor, payload dto.ActivityCreateRequest, files []service.UploadedFile) (dto.ActivityResponse, error) {
			require.Equal(t, uint(7), actor.ID)
			require.Equal(t, "AWS Certification", payload.Title)
			require.Equal(t, 3, payload.Credits)
			require.Len(t, files, 1)
			require.Equal(t, "cert.pdf", files[0].Name)
			return dto.ActivityResponse{ID: 1, Title: payload.Title, Status: models.ActivityStatusPending}, nil
		},
	}
	app := newActivityApp(svc, 7, models.RoleStudent)

	req := multipartRequest(t, "/activities", map[string]string{
		"title":        "AWS Certification",
		"description":  "Completed the associate exam",
		"type":         models.ActivityTypeCertification,
		"organization": "AWS",
		"date":         "2026-05-01",
		"credits":      "3",
	}, map[string][]byte{"cert.pdf": []byte("%PDF-1.4 test")})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	envelope := decodeResponse(t, resp)
	require.True(t, envelope.Success)
	require.Equal(t, "activity submitted", envelope.Message)
}

func TestActivityHandlerSubmitRejectedForFaculty(t *testing.T) {
	app := newActivityApp(&stubActivityService{}, 9, models.RoleFaculty)

	req := multipartRequest(t, "/activities", map[string]string{"title": "x"}, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestActivityHandlerGetErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrActivityNotFound, fiber.StatusNotFound},
		{"forbidden", service.ErrActivityForbidden, fiber.StatusForbidden},
		{"already reviewed", service.ErrActivityNotPending, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubActivityService{
				get: func(actor service.Actor, id uint) (dto.ActivityResponse, error) {
					return dto.ActivityResponse{}, tc.err
				},
			}
			app := newActivityApp(svc, 7, models.RoleStudent)

			resp, err := app.Test(httptest.NewRequest("GET", "/activities/3", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.False(t, decodeResponse(t, resp).Success)
		})
	}
}

func TestActivityHandlerGetInvalidID(t *testing.T) {
	app := newActivityApp(&stubActivityService{}, 7, models.RoleStudent)

	resp, err := app.Test(httptest.NewRequest("GET", "/activities/0", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActivityHandlerListPassesFilter(t *testing.T) {
	var captured dto.ActivityFilter
	svc := &stubActivityService{
		list: func(actor service.Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error) {
			captured = filter
			return dto.ActivityListResponse{Total: 2}, nil
		},
	}
	app := newActivityApp(svc, 7, models.RoleStudent)

	resp, err := app.Test(httptest.NewRequest("GET", "/activities?status=pending&type=research&page=2&limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, models.ActivityStatusPending, captured.Status)
	require.Equal(t, models.ActivityTypeResearch, captured.Type)
	require.Equal(t, 2, captured.Page)
	require.Equal(t, 5, captured.Limit)
}

func TestActivityHandlerUpdateValidationError(t *testing.T) {
	svc := &stubActivityService{
		update: func(actor service.Actor, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
			return dto.ActivityResponse{}, service.ErrInvalidDate
		},
	}
	app := newActivityApp(svc, 7, models.RoleStudent)

	resp, err := app.Test(jsonRequest(t, "PUT", "/activities/3", fiber.Map{"date": "not-a-date"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActivityHandlerDownloadFile(t *testing.T) {
	svc := &stubActivityService{
		download: func(actor service.Actor, activityID, fileID uint) (service.FileDownload, error) {
			return service.FileDownload{
				Reader:       io.NopCloser(strings.NewReader("%PDF-1.4 test")),
				OriginalName: "cert.pdf",
				MimeType:     "application/pdf",
				Size:         13,
			}, nil
		},
	}
	app := newActivityApp(svc, 7, models.RoleStudent)

	resp, err := app.Test(httptest.NewRequest("GET", "/activities/3/files/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="cert.pdf"`)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "%PDF-1.4 test", string(body))
}

func TestActivityHandlerDownloadMissingFile(t *testing.T) {
	svc := &stubActivityService{
		download: func(actor service.Actor, activityID, fileID uint) (service.FileDownload, error) {
			return service.FileDownload{}, service.ErrFileNotFound
		},
	}
	app := newActivityApp(svc, 7, models.RoleStudent)

	resp, err := app.Test(httptest.NewRequest("GET", "/activities/3/files/99", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestActivityHandlerDeleteReturnsID(t *testing.T) {
	svc := &stubActivityService{
		delete: func(actor service.Actor, id uint) error {
			require.Equal(t, uint(3), id)
			return nil
		},
	}
	app := newActivityApp(svc, 7, models.RoleStudent)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/activities/3", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	envelope := decodeResponse(t, resp)
	data := envelope.Data.(map[string]interface{})
	require.Equal(t, float64(3), data["id"])
}
