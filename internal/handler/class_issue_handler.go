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

// ClassIssueHandler exposes classroom issue endpoints.
type ClassIssueHandler struct {
	service service.ClassIssueService
	logger  zerolog.Logger
}

// NewClassIssueHandler constructs a class issue handler.
func NewClassIssueHandler(service service.ClassIssueService, logger zerolog.Logger) *ClassIssueHandler {
	return &ClassIssueHandler{
		service: service,
		logger:  logger.With().Str("component", "class_issue_handler").Logger(),
	}
}

// Register binds the class issue routes.
func (h *ClassIssueHandler) Register(router fiber.Router) {
	router.Get("/types", h.types)
	router.Get("/my-classes", h.myClasses)
	router.Post("/submit", middleware.WithAuth(h.submit, middleware.AuthOptions{Roles: []string{models.RoleStudent}}))
	router.Get("/my-issues", h.list)
	router.Get("/tracking/:id", h.track)
	router.Post("/update-status", middleware.WithAuth(h.updateStatus, middleware.AuthOptions{Reviewer: true}))
}

func (h *ClassIssueHandler) types(c *fiber.Ctx) error {
	types, err := h.service.Types(requestContext(c))
	if err != nil {
		return respondServiceError(c, h.logger, err, "load issue types")
	}
	return utils.SendSuccess(c, "issue types", types)
}

func (h *ClassIssueHandler) myClasses(c *fiber.Ctx) error {
	classes, err := h.service.MyClasses(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondServiceError(c, h.logger, err, "load classes")
	}
	return utils.SendSuccess(c, "classes", classes)
}

func (h *ClassIssueHandler) submit(c *fiber.Ctx) error {
	var payload dto.ClassIssueSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	issue, err := h.service.Submit(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "submit class issue")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class issue submitted", issue)
}

func (h *ClassIssueHandler) list(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid query")
	}

	issues, err := h.service.List(requestContext(c), actorFromContext(c), query)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list class issues")
	}
	return utils.OK(c, issues, "class issues", fiber.Map{"count": len(issues)})
}

func (h *ClassIssueHandler) track(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid issue id")
	}

	tracking, err := h.service.Track(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondServiceError(c, h.logger, err, "load class issue")
	}
	return utils.SendSuccess(c, "class issue tracking", tracking)
}

func (h *ClassIssueHandler) updateStatus(c *fiber.Ctx) error {
	var payload dto.StatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	entry, err := h.service.UpdateStatus(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "update class issue status")
	}
	return utils.SendSuccess(c, "status updated", entry)
}
