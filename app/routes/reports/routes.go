package reports

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

// SetupReportsRoutes sets up the reports routes.
func SetupReportsRoutes(app *fiber.App) {
	api := app.Group("/api/projects/:id/report")
	api.Use(auth.AuthMiddleware)

	api.Get("/", func(c *fiber.Ctx) error {
		return GetProjectReportAPI(c, config.GetDB())
	})
}
