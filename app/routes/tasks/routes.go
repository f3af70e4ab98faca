package tasks

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

// SetupTasksRoutes sets up the tasks routes.
func SetupTasksRoutes(app *fiber.App) {
	milestoneScoped := app.Group("/api/milestones/:id/tasks")
	milestoneScoped.Use(auth.AuthMiddleware)

	milestoneScoped.Get("/", func(c *fiber.Ctx) error {
		return GetTasksAPI(c, config.GetDB())
	})
	milestoneScoped.Post("/", func(c *fiber.Ctx) error {
		return CreateTaskAPI(c, config.GetDB())
	})

	api := app.Group("/api/tasks")
	api.Use(auth.AuthMiddleware)

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetTaskAPI(c, config.GetDB())
	})
	api.Put("/:id", func(c *fiber.Ctx) error {
		return UpdateTaskAPI(c, config.GetDB())
	})
	api.Post("/:id/status", func(c *fiber.Ctx) error {
		return UpdateTaskStatusAPI(c, config.GetDB())
	})
	api.Delete("/:id", func(c *fiber.Ctx) error {
		return DeleteTaskAPI(c, config.GetDB())
	})
}
