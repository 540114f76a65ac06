package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/projectdesk/review-api/internal/config"
	"github.com/projectdesk/review-api/internal/handler"
	"github.com/projectdesk/review-api/internal/middleware"
	"github.com/projectdesk/review-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ApplicationHandler *handler.ApplicationHandler
	ReviewHandler      *handler.ReviewHandler
	JWTMiddleware      fiber.Handler
	ReviewRateLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ApplicationHandler != nil {
		applications := api.Group("/applications", jwtMiddleware)
		deps.ApplicationHandler.Register(applications)
	}

	if deps.ReviewHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin"))
		if deps.ReviewRateLimiter != nil {
			admin.Use(deps.ReviewRateLimiter)
		}
		deps.ReviewHandler.Register(admin)
	}
}
