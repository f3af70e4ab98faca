package payments

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

// SetupPaymentsRoutes sets up the payments routes.
func SetupPaymentsRoutes(app *fiber.App) {
	api := app.Group("/api/payments")
	api.Use(auth.AuthMiddleware)

	api.Post("/", func(c *fiber.Ctx) error {
		return CreatePaymentAPI(c, config.GetDB())
	})
	api.Post("/distributed", func(c *fiber.Ctx) error {
		return CreateDistributedPaymentAPI(c, config.GetDB())
	})
	api.Get("/", func(c *fiber.Ctx) error {
		return GetPaymentsAPI(c, config.GetDB())
	})
	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetPaymentAPI(c, config.GetDB())
	})
	api.Put("/:id", func(c *fiber.Ctx) error {
		return EditPaymentAPI(c, config.GetDB())
	})
	api.Delete("/:id", func(c *fiber.Ctx) error {
		return DeletePaymentAPI(c, config.GetDB())
	})
}
