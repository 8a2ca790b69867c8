package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acadia-labs/academy-crm-api/internal/config"
	"github.com/acadia-labs/academy-crm-api/internal/handler"
	"github.com/acadia-labs/academy-crm-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler     *handler.StudentHandler
	CourseHandler      *handler.CourseHandler
	EnrollmentHandler  *handler.EnrollmentHandler
	FieldConfigHandler *handler.FieldConfigHandler
	ImportHandler      *handler.ImportHandler
	WebhookHandler     *handler.WebhookHandler
	DashboardHandler   *handler.DashboardHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Webhooks authenticate by signature, not bearer token
	if deps.WebhookHandler != nil {
		deps.WebhookHandler.Register(api.Group("/webhooks"))
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.StudentHandler.Register(students)

		if deps.ImportHandler != nil {
			deps.ImportHandler.Register(students)
		}
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses", jwtMiddleware))
	}

	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(api.Group("/enrollments", jwtMiddleware))
	}

	if deps.FieldConfigHandler != nil {
		deps.FieldConfigHandler.Register(api.Group("/field-configs", jwtMiddleware))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", jwtMiddleware))
	}
}
