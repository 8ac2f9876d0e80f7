package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edutrack/edutrack-api/internal/config"
	"github.com/edutrack/edutrack-api/internal/handler"
	"github.com/edutrack/edutrack-api/internal/middleware"
	"github.com/edutrack/edutrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ActivityHandler     *handler.ActivityHandler
	FacultyHandler      *handler.FacultyHandler
	AnalyticsHandler    *handler.AnalyticsHandler
	StudentHandler      *handler.StudentHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Use("/login", middleware.RateLimit("login", 10, time.Minute))
		deps.AuthHandler.RegisterPublic(auth)

		profile := auth.Group("", jwtMiddleware, middleware.RequireOperation(middleware.OpProfileManage))
		deps.AuthHandler.RegisterProtected(profile)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware, middleware.RequireOperation(middleware.OpActivityRead))
		deps.ActivityHandler.Register(activities, middleware.RequireOperation(middleware.OpActivitySubmit))
	}

	if deps.FacultyHandler != nil {
		faculty := api.Group("/faculty", jwtMiddleware, middleware.RequireOperation(middleware.OpActivityReview))
		deps.FacultyHandler.Register(faculty)
	}

	if deps.AnalyticsHandler != nil {
		analytics := api.Group("/analytics", jwtMiddleware, middleware.RequireOperation(middleware.OpAnalyticsRead))
		deps.AnalyticsHandler.Register(analytics)
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware, middleware.RequireOperation(middleware.OpStudentSelf))
		deps.StudentHandler.Register(students)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}
