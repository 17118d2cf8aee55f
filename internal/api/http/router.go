package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Admin  *handlers.AdminHandler
	Events *handlers.EventsHandler
	Tokens *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/events", cfg.Events.Receive)

	app.Post("/auth/login", cfg.Auth.Login)

	adminGroup := app.Group("/admin", RequireAdminToken(cfg.Tokens))
	adminGroup.Get("/stats", cfg.Admin.Stats)
}
