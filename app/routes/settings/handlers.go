package settings

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
)

// GetDefaultTaxRateAPI returns the configured default tax rate.
func GetDefaultTaxRateAPI(c *fiber.Ctx, db *sql.DB) error {
	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"default_tax_rate": rate,
	})
}

// UpdateDefaultTaxRateAPI updates the default tax rate applied to milestones
// without a rate of their own.
func UpdateDefaultTaxRateAPI(c *fiber.Ctx, db *sql.DB) error {
	type RateRequest struct {
		DefaultTaxRate float64 `json:"default_tax_rate"`
	}

	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	rate := decimal.NewFromFloat(req.DefaultTaxRate)
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.Validation("default tax rate must be between 0 and 100")
	}

	if err := database.SetSetting(db, database.DefaultTaxRateKey, rate.String()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"default_tax_rate": rate,
	})
}
