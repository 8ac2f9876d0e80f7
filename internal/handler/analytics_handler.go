package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// AnalyticsHandler wires the aggregate reporting routes.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches analytics endpoints to the router group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/trends", h.trends)
	router.Get("/departments", h.departments)
	router.Get("/activity-types", h.activityTypes)
	router.Get("/top-performers", h.topPerformers)
	router.Get("/accreditation", h.accreditation)
	router.Get("/report", h.report)
}

func (h *AnalyticsHandler) filter(c *fiber.Ctx) dto.AnalyticsFilter {
	return dto.AnalyticsFilter{
		Department: c.Query("department"),
		Timeframe:  c.Query("timeframe"),
	}
}

func (h *AnalyticsHandler) overview(c *fiber.Ctx) error {
	response, err := h.service.Overview(c.Context(), h.filter(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "overview retrieved", response)
}

func (h *AnalyticsHandler) trends(c *fiber.Ctx) error {
	response, err := h.service.Trends(c.Context(), h.filter(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "trends retrieved", response)
}

func (h *AnalyticsHandler) departments(c *fiber.Ctx) error {
	response, err := h.service.Departments(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "department breakdown retrieved", response)
}

func (h *AnalyticsHandler) activityTypes(c *fiber.Ctx) error {
	response, err := h.service.ActivityTypes(c.Context(), h.filter(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity type distribution retrieved", response)
}

func (h *AnalyticsHandler) topPerformers(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit parameter")
	}

	response, err := h.service.TopPerformers(c.Context(), h.filter(c), limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "top performers retrieved", response)
}

func (h *AnalyticsHandler) accreditation(c *fiber.Ctx) error {
	response, err := h.service.Accreditation(c.Context(), h.filter(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "accreditation status retrieved", response)
}

func (h *AnalyticsHandler) report(c *fiber.Ctx) error {
	response, err := h.service.Report(c.Context(), h.filter(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "report generated", response)
}

func (h *AnalyticsHandler) handleError(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
