package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// ActivityHandler wires activity submission HTTP routes.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity endpoints to the router group. The submit guard
// restricts creation to students while reads stay open to every role.
func (h *ActivityHandler) Register(router fiber.Router, submitGuard fiber.Handler) {
	router.Get("", h.list)
	router.Post("", submitGuard, h.submit)
	router.Get("/student/:studentId", h.listByStudent)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/comments", h.addComment)
	router.Get("/:id/files/:fileId", h.downloadFile)
}

func (h *ActivityHandler) submit(c *fiber.Ctx) error {
	credits, _ := strconv.Atoi(c.FormValue("credits"))
	payload := dto.ActivityCreateRequest{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		Type:         c.FormValue("type"),
		Organization: c.FormValue("organization"),
		Date:         c.FormValue("date"),
		Credits:      credits,
		Tags:         c.FormValue("tags"),
	}

	files, err := readUploadedFiles(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read uploaded files")
	}

	response, err := h.service.Submit(c.Context(), actorFromContext(c), payload, files)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "activity submitted", response)
}

func readUploadedFiles(c *fiber.Ctx) ([]service.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}

	headers := form.File["files"]
	files := make([]service.UploadedFile, 0, len(headers))
	for _, header := range headers {
		content, err := readFileHeader(header)
		if err != nil {
			return nil, err
		}
		files = append(files, service.UploadedFile{Name: header.Filename, Content: content})
	}

	return files, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity retrieved", response)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	var filter dto.ActivityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	response, err := h.service.List(c.Context(), actorFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities retrieved", response)
}

// listByStudent lists one student's activities. Visibility follows the same
// rules as the general listing: students only ever see their own records.
func (h *ActivityHandler) listByStudent(c *fiber.Ctx) error {
	if _, err := parseUintParam(c, "studentId"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var filter dto.ActivityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	filter.StudentID = c.Params("studentId")

	response, err := h.service.List(c.Context(), actorFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities retrieved", response)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Update(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity updated", response)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity deleted", fiber.Map{"id": id})
}

func (h *ActivityHandler) addComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.AddComment(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "comment added", response)
}

func (h *ActivityHandler) downloadFile(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	fileID, err := parseUintParam(c, "fileId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	download, err := h.service.DownloadFile(c.Context(), actorFromContext(c), id, fileID)
	if err != nil {
		return h.handleError(c, err)
	}
	defer download.Reader.Close()

	content, err := io.ReadAll(download.Reader)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to read stored file")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Set(fiber.HeaderContentType, download.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+download.OriginalName+`"`)

	return c.Send(content)
}

func (h *ActivityHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrFileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "file not found")
	case errors.Is(err, service.ErrActivityForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to access this activity")
	case errors.Is(err, service.ErrActivityNotPending):
		return utils.SendError(c, fiber.StatusBadRequest, "activity has already been reviewed")
	case errors.Is(err, service.ErrTooManyFiles),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrFileTypeNotAllowed),
		errors.Is(err, service.ErrInvalidDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
