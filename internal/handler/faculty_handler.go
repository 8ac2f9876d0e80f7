package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// FacultyHandler wires the review queue and student directory routes.
type FacultyHandler struct {
	reviews    service.ReviewService
	activities service.ActivityService
	students   service.StudentService
	logger     zerolog.Logger
}

// NewFacultyHandler constructs the handler.
func NewFacultyHandler(
	reviews service.ReviewService,
	activities service.ActivityService,
	students service.StudentService,
	logger zerolog.Logger,
) *FacultyHandler {
	return &FacultyHandler{
		reviews:    reviews,
		activities: activities,
		students:   students,
		logger:     logger.With().Str("component", "faculty_handler").Logger(),
	}
}

// Register attaches faculty endpoints to the router group.
func (h *FacultyHandler) Register(router fiber.Router) {
	router.Get("/pending", h.pendingQueue)
	router.Get("/dashboard/stats", h.dashboardStats)
	router.Get("/activities", h.listActivities)
	router.Put("/activities/bulk-approve", h.bulkApprove)
	router.Put("/activities/bulk-reject", h.bulkReject)
	router.Put("/activities/:id/approve", h.approve)
	router.Put("/activities/:id/reject", h.reject)
	router.Get("/students", h.listStudents)
	router.Get("/students/:id", h.studentDetail)
}

func (h *FacultyHandler) pendingQueue(c *fiber.Ctx) error {
	var filter dto.ActivityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	filter.Status = models.ActivityStatusPending
	if filter.SortOrder == "" {
		filter.SortOrder = "asc"
	}

	response, err := h.activities.List(c.Context(), actorFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "pending activities retrieved", response)
}

func (h *FacultyHandler) listActivities(c *fiber.Ctx) error {
	var filter dto.ActivityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	response, err := h.activities.List(c.Context(), actorFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities retrieved", response)
}

func (h *FacultyHandler) dashboardStats(c *fiber.Ctx) error {
	response, err := h.reviews.QueueStats(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "dashboard stats retrieved", response)
}

func (h *FacultyHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.reviews.Approve(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity approved", response)
}

func (h *FacultyHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.reviews.Reject(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity rejected", response)
}

func (h *FacultyHandler) bulkApprove(c *fiber.Ctx) error {
	var payload dto.BulkApproveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.reviews.BulkApprove(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities approved", response)
}

func (h *FacultyHandler) bulkReject(c *fiber.Ctx) error {
	var payload dto.BulkRejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.reviews.BulkReject(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities rejected", response)
}

func (h *FacultyHandler) listStudents(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page parameter")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit parameter")
	}

	filter := repository.UserFilter{
		Department: c.Query("department"),
		Year:       c.Query("year"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   limit,
	}

	response, err := h.students.ListStudents(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students retrieved", response)
}

func (h *FacultyHandler) studentDetail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.students.StudentDetail(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student retrieved", response)
}

func (h *FacultyHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrReviewForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "only faculty may review activities")
	case errors.Is(err, service.ErrActivityNotPending):
		return utils.SendError(c, fiber.StatusBadRequest, "activity has already been reviewed")
	case errors.Is(err, service.ErrReasonRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "rejection reason is required")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
