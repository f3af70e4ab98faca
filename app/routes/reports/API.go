package reports

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/reports"
)

// GetProjectReportAPI returns the full computed report tree for a project,
// in the shape the document export collaborator consumes.
func GetProjectReportAPI(c *fiber.Ctx, db *sql.DB) error {
	projectID := c.Params("id")

	tree, err := database.LoadProjectTree(c.UserContext(), db, projectID)
	if err != nil {
		return err
	}
	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}

	report := reports.Build(tree, rate, config.AppConfig.Currency)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}
