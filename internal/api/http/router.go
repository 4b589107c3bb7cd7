package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/travel-request-service/internal/api/http/handlers"
	"github.com/spec-kit/travel-request-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	TravelRequests *handlers.TravelRequestsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/register", cfg.Auth.Register)
	app.Post("/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Post("/refresh", cfg.Auth.Refresh)

	protected.Get("/travel-requests", cfg.TravelRequests.List)
	protected.Post("/travel-requests", cfg.TravelRequests.Create)
	protected.Get("/travel-requests/:id", cfg.TravelRequests.Get)
	protected.Patch("/travel-requests/:id/status", cfg.TravelRequests.UpdateStatus)
	protected.Post("/travel-requests/:id/cancel", cfg.TravelRequests.Cancel)

	protected.Get("/notifications", cfg.Notifications.List)
}
