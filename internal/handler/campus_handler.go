package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/middleware"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/service"
	"github.com/noah-isme/campus-appeals-api/internal/utils"
)

// CampusHandler exposes campus environment complaint endpoints.
type CampusHandler struct {
	service service.CampusService
	logger  zerolog.Logger
}

// NewCampusHandler constructs a campus handler.
func NewCampusHandler(service service.CampusService, logger zerolog.Logger) *CampusHandler {
	return &CampusHandler{
		service: service,
		logger:  logger.With().Str("component", "campus_handler").Logger(),
	}
}

// Register binds the campus environment routes.
func (h *CampusHandler) Register(router fiber.Router) {
	students := middleware.AuthOptions{Roles: []string{models.RoleStudent}}

	router.Get("/types", h.types)
	router.Post("/submit", middleware.WithAuth(h.submit, students))
	router.Get("/complaints", h.list)
	router.Get("/my-issues", h.mine)
	router.Get("/tracking/:id", h.track)
	router.Post("/support", middleware.WithAuth(h.support, students))
	router.Post("/update-status", middleware.WithAuth(h.updateStatus, middleware.AuthOptions{Reviewer: true}))
	router.Get("/image/:filename", h.image)
}

func (h *CampusHandler) types(c *fiber.Ctx) error {
	types, err := h.service.Types(requestContext(c))
	if err != nil {
		return respondServiceError(c, h.logger, err, "load campus categories")
	}
	return utils.SendSuccess(c, "campus categories", types)
}

func (h *CampusHandler) submit(c *fiber.Ctx) error {
	var payload dto.CampusSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	var images []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		images = append(images, form.File["images"]...)
		images = append(images, form.File["images[]"]...)
	}

	complaint, err := h.service.Submit(requestContext(c), actorFromContext(c), payload, images)
	if err != nil {
		return respondServiceError(c, h.logger, err, "submit campus complaint")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "campus complaint submitted", complaint)
}

func (h *CampusHandler) list(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid query")
	}
	return h.respondList(c, query)
}

func (h *CampusHandler) mine(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid query")
	}
	query.Mine = true
	return h.respondList(c, query)
}

func (h *CampusHandler) respondList(c *fiber.Ctx, query dto.ListQuery) error {
	complaints, err := h.service.List(requestContext(c), actorFromContext(c), query)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list campus complaints")
	}
	return utils.OK(c, complaints, "campus complaints", fiber.Map{"count": len(complaints)})
}

func (h *CampusHandler) track(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid complaint id")
	}

	tracking, err := h.service.Track(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondServiceError(c, h.logger, err, "load campus complaint")
	}
	return utils.SendSuccess(c, "campus complaint tracking", tracking)
}

func (h *CampusHandler) support(c *fiber.Ctx) error {
	var payload dto.SupportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	result, err := h.service.ToggleSupport(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "toggle support")
	}

	message := "support withdrawn"
	if result.Supported {
		message = "complaint supported"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *CampusHandler) updateStatus(c *fiber.Ctx) error {
	var payload dto.StatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	entry, err := h.service.UpdateStatus(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "update campus complaint status")
	}
	return utils.SendSuccess(c, "status updated", entry)
}

func (h *CampusHandler) image(c *fiber.Ctx) error {
	reader, contentType, err := h.service.OpenImage(requestContext(c), c.Params("filename"))
	if err != nil {
		return respondServiceError(c, h.logger, err, "load image")
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
	return c.SendStream(reader)
}
