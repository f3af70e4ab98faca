package milestones

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/finance"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
	engine "github.com/Guilleloma/BuildTrack-sub000/app/payments"
)

var validate = validator.New()

func newEngine(db *sql.DB) *engine.Engine {
	store := database.NewSQLStore(db)
	settings := database.NewSettingsReader(db, config.AppConfig.DefaultTaxRate)
	return engine.NewEngine(store, settings)
}

type MilestoneRequest struct {
	Name        string   `json:"name" validate:"required,min=1"`
	Description string   `json:"description"`
	Budget      float64  `json:"budget" validate:"gte=0"`
	HasTax      bool     `json:"has_tax"`
	TaxRate     *float64 `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
}

// GetMilestonesAPI lists a project's milestones with derived financials.
func GetMilestonesAPI(c *fiber.Ctx, db *sql.DB) error {
	projectID := c.Params("id")

	if _, err := database.GetProjectByID(db, projectID); err != nil {
		return err
	}
	milestones, err := database.GetMilestonesByProject(db, projectID)
	if err != nil {
		return err
	}
	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(milestones))
	for _, m := range milestones {
		data = append(data, fiber.Map{
			"milestone":  m,
			"financials": finance.ComputeMilestone(m, rate),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetMilestoneAPI returns one milestone with financials and tasks.
func GetMilestoneAPI(c *fiber.Ctx, db *sql.DB) error {
	milestoneID := c.Params("id")

	m, err := database.GetMilestoneByID(db, milestoneID)
	if err != nil {
		return err
	}
	tasks, err := database.GetTasksByMilestone(db, milestoneID)
	if err != nil {
		return err
	}
	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"milestone":       m,
		"financials":      finance.ComputeMilestone(m, rate),
		"tasks":           tasks,
		"task_completion": finance.TaskCompletionPercentage(tasks),
	})
}

// CreateMilestoneAPI creates a milestone under a project.
func CreateMilestoneAPI(c *fiber.Ctx, db *sql.DB) error {
	projectID := c.Params("id")

	var req MilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}
	if _, err := database.GetProjectByID(db, projectID); err != nil {
		return err
	}

	m := &models.Milestone{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Budget:      money.FromFloat(req.Budget),
		HasTax:      req.HasTax,
		TaxRate:     req.TaxRate,
	}
	if err := database.CreateMilestone(db, m); err != nil {
		return err
	}

	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"milestone":  m,
		"financials": finance.ComputeMilestone(m, rate),
	})
}

// UpdateMilestoneAPI updates the client-editable milestone fields. The paid
// amount stays untouched, and the new total with tax may not drop below what
// has already been paid; the engine checks that under the row lock.
func UpdateMilestoneAPI(c *fiber.Ctx, db *sql.DB) error {
	milestoneID := c.Params("id")

	var req MilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	m, err := newEngine(db).UpdateMilestone(c.UserContext(), milestoneID, engine.MilestoneUpdate{
		Name:        req.Name,
		Description: req.Description,
		Budget:      money.FromFloat(req.Budget),
		HasTax:      req.HasTax,
		TaxRate:     req.TaxRate,
	})
	if err != nil {
		return err
	}

	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"milestone":  m,
		"financials": finance.ComputeMilestone(m, rate),
	})
}

// DeleteMilestoneAPI soft-deletes a milestone with its tasks, trimming its
// share out of every payment that touches it. Payments shared with sibling
// milestones shrink instead of disappearing.
func DeleteMilestoneAPI(c *fiber.Ctx, db *sql.DB) error {
	if err := newEngine(db).DeleteMilestone(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Milestone deleted successfully",
	})
}
