package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/middleware"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/service"
	"github.com/noah-isme/campus-appeals-api/internal/utils"
)

// ExamHandler exposes exam score appeal endpoints.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs an exam appeal handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// RegisterPublic binds the unauthenticated reference lookup.
func (h *ExamHandler) RegisterPublic(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/exam/track", limiter, h.trackByReference)
}

// Register binds the authenticated exam routes.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("/subjects", h.subjects)
	router.Post("/submit", middleware.WithAuth(h.submit, middleware.AuthOptions{Roles: []string{models.RoleStudent}}))
	router.Get("/my-appeals", h.myAppeals)
	router.Get("/tracking/:id", h.track)
	router.Post("/update-status", middleware.RequireRole(models.RoleAdmin, models.RoleExamOfficer), h.updateStatus)
}

func (h *ExamHandler) subjects(c *fiber.Ctx) error {
	subjects, err := h.service.Subjects(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondServiceError(c, h.logger, err, "load subjects")
	}
	return utils.SendSuccess(c, "subjects", subjects)
}

func (h *ExamHandler) submit(c *fiber.Ctx) error {
	var payload dto.ExamSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	response, err := h.service.Submit(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "submit exam appeal")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "appeal submitted", response)
}

func (h *ExamHandler) myAppeals(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid query")
	}

	appeals, err := h.service.MyAppeals(requestContext(c), actorFromContext(c), query)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list exam appeals")
	}
	return utils.OK(c, appeals, "exam appeals", fiber.Map{"count": len(appeals)})
}

func (h *ExamHandler) track(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid appeal id")
	}

	tracking, err := h.service.Track(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondServiceError(c, h.logger, err, "load exam appeal")
	}
	return utils.SendSuccess(c, "exam appeal tracking", tracking)
}

func (h *ExamHandler) trackByReference(c *fiber.Ctx) error {
	response, err := h.service.TrackByReference(requestContext(c), c.Query("reference_no"))
	if err != nil {
		return respondServiceError(c, h.logger, err, "track exam appeal")
	}
	return utils.SendSuccess(c, "exam appeal tracking", response)
}

func (h *ExamHandler) updateStatus(c *fiber.Ctx) error {
	var payload dto.StatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	entry, err := h.service.UpdateStatus(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "update exam appeal status")
	}
	return utils.SendSuccess(c, "status updated", entry)
}
