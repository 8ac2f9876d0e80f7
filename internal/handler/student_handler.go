package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// StudentHandler wires the student dashboard and portfolio routes.
type StudentHandler struct {
	service    service.StudentService
	auth       service.AuthService
	activities service.ActivityService
	logger     zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(
	students service.StudentService,
	auth service.AuthService,
	activities service.ActivityService,
	logger zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		service:    students,
		auth:       auth,
		activities: activities,
		logger:     logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student self-service endpoints to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.dashboard)
	router.Get("/profile", h.profile)
	router.Put("/profile", h.updateProfile)
	router.Get("/activities", h.listActivities)
	router.Get("/portfolio", h.portfolio)
	router.Get("/progress", h.progress)
	router.Get("/stats", h.stats)
}

func (h *StudentHandler) dashboard(c *fiber.Ctx) error {
	response, err := h.service.Dashboard(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *StudentHandler) profile(c *fiber.Ctx) error {
	response, err := h.service.Profile(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", response)
}

func (h *StudentHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.UpdateProfileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if _, err := h.auth.UpdateProfile(c.Context(), userIDFromContext(c), payload); err != nil {
		return h.handleError(c, err)
	}

	response, err := h.service.Profile(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile updated", response)
}

func (h *StudentHandler) listActivities(c *fiber.Ctx) error {
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

func (h *StudentHandler) portfolio(c *fiber.Ctx) error {
	response, err := h.service.Portfolio(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "portfolio generated", response)
}

func (h *StudentHandler) progress(c *fiber.Ctx) error {
	response, err := h.service.Progress(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", response)
}

func (h *StudentHandler) stats(c *fiber.Ctx) error {
	response, err := h.service.Stats(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "stats retrieved", response)
}

func (h *StudentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrInvalidPreferences):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
