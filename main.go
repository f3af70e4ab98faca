package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/milestones"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/payments"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/projects"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/reports"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/settings"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/tasks"
)

func main() {
	// Initialize configuration and database
	config.Load()
	defer config.GetDB().Close()

	// Run database migrations
	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.Handle,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	auth.SetupAuthRoutes(app)

	// Setup projects routes
	projects.SetupProjectsRoutes(app)

	// Setup milestones routes
	milestones.SetupMilestonesRoutes(app)

	// Setup tasks routes
	tasks.SetupTasksRoutes(app)

	// Setup payments routes
	payments.SetupPaymentsRoutes(app)

	// Setup reports routes
	reports.SetupReportsRoutes(app)

	// Setup settings routes
	settings.SetupSettingsRoutes(app)

	// Catch-all route for 404 errors (must be last)
	app.Use("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	// Start server
	log.Println("Server starting on :" + config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
