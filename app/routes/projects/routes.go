package projects

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

// SetupProjectsRoutes sets up the projects routes.
func SetupProjectsRoutes(app *fiber.App) {
	api := app.Group("/api/projects")
	api.Use(auth.AuthMiddleware)

	api.Get("/", func(c *fiber.Ctx) error {
		return GetProjectsAPI(c, config.GetDB())
	})
	api.Post("/", func(c *fiber.Ctx) error {
		return CreateProjectAPI(c, config.GetDB())
	})
	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetProjectAPI(c, config.GetDB())
	})
	api.Put("/:id", func(c *fiber.Ctx) error {
		return UpdateProjectAPI(c, config.GetDB())
	})
	api.Delete("/:id", func(c *fiber.Ctx) error {
		return DeleteProjectAPI(c, config.GetDB())
	})
	api.Get("/:id/totals", func(c *fiber.Ctx) error {
		return GetProjectTotalsAPI(c, config.GetDB())
	})
}
