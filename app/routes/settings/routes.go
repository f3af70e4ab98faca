package settings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

// SetupSettingsRoutes sets up the settings routes.
func SetupSettingsRoutes(app *fiber.App) {
	api := app.Group("/api/settings")
	api.Use(auth.AuthMiddleware)

	api.Get("/default-tax-rate", func(c *fiber.Ctx) error {
		return GetDefaultTaxRateAPI(c, config.GetDB())
	})
	api.Put("/default-tax-rate", func(c *fiber.Ctx) error {
		return UpdateDefaultTaxRateAPI(c, config.GetDB())
	})
}
