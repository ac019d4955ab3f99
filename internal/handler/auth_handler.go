package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/service"
	"github.com/noah-isme/campus-appeals-api/internal/utils"
)

// AuthHandler serves sign-in, sign-out and the current account profile.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic binds routes that run without a bearer token.
func (h *AuthHandler) RegisterPublic(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/auth/login", limiter, h.login)
}

// Register binds routes that require an authenticated session.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/auth/logout", h.logout)
	router.Get("/me", h.me)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "invalid payload")
	}

	response, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "sign in")
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(requestContext(c), actorFromContext(c)); err != nil {
		return respondServiceError(c, h.logger, err, "sign out")
	}
	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	response, err := h.service.Me(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondServiceError(c, h.logger, err, "load profile")
	}
	return utils.SendSuccess(c, "profile", response)
}
