package milestones

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

// SetupMilestonesRoutes sets up the milestones routes.
func SetupMilestonesRoutes(app *fiber.App) {
	projectScoped := app.Group("/api/projects/:id/milestones")
	projectScoped.Use(auth.AuthMiddleware)

	projectScoped.Get("/", func(c *fiber.Ctx) error {
		return GetMilestonesAPI(c, config.GetDB())
	})
	projectScoped.Post("/", func(c *fiber.Ctx) error {
		return CreateMilestoneAPI(c, config.GetDB())
	})

	api := app.Group("/api/milestones")
	api.Use(auth.AuthMiddleware)

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetMilestoneAPI(c, config.GetDB())
	})
	api.Put("/:id", func(c *fiber.Ctx) error {
		return UpdateMilestoneAPI(c, config.GetDB())
	})
	api.Delete("/:id", func(c *fiber.Ctx) error {
		return DeleteMilestoneAPI(c, config.GetDB())
	})
}
