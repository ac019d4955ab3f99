package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-appeals-api/internal/config"
	"github.com/noah-isme/campus-appeals-api/internal/handler"
	"github.com/noah-isme/campus-appeals-api/internal/middleware"
	"github.com/noah-isme/campus-appeals-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ClassIssueHandler   *handler.ClassIssueHandler
	CampusHandler       *handler.CampusHandler
	ExamHandler         *handler.ExamHandler
	NotificationHandler *handler.NotificationHandler
	HealthChecks        map[string]handler.HealthCheckFunc
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	// Public routes are registered before the protected group so the JWT
	// middleware never runs for them.
	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterPublic(api, middleware.RateLimit("login", cfg.LoginLimit, cfg.LoginWindow))
	}
	if deps.ExamHandler != nil {
		deps.ExamHandler.RegisterPublic(api, middleware.RateLimit("exam_track", cfg.LoginLimit, cfg.LoginWindow))
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	protected := api.Group("", jwtMiddleware)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(protected)
	}
	if deps.ClassIssueHandler != nil {
		deps.ClassIssueHandler.Register(protected.Group("/class-issues"))
	}
	if deps.CampusHandler != nil {
		deps.CampusHandler.Register(protected.Group("/campus-env"))
	}
	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(protected.Group("/exam"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(protected.Group("/notifications"))
	}
}
