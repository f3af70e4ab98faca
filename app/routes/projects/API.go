package projects

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/finance"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

var validate = validator.New()

type ProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
}

// GetProjectsAPI returns the caller's projects.
func GetProjectsAPI(c *fiber.Ctx, db *sql.DB) error {
	projects, err := database.GetProjects(db, auth.CallerID(c))
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    projects,
		"count":   len(projects),
	})
}

// GetProjectAPI returns one project with its milestones, each carrying the
// derived financial fields.
func GetProjectAPI(c *fiber.Ctx, db *sql.DB) error {
	projectID := c.Params("id")

	project, err := database.GetProjectByID(db, projectID)
	if err != nil {
		return err
	}
	milestones, err := database.GetMilestonesByProject(db, projectID)
	if err != nil {
		return err
	}
	project.Milestones = milestones

	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}

	detailed := make([]fiber.Map, 0, len(milestones))
	for _, m := range milestones {
		fin := finance.ComputeMilestone(m, rate)
		detailed = append(detailed, fiber.Map{
			"milestone":  m,
			"financials": fin,
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       project,
		"milestones": detailed,
	})
}

// GetProjectTotalsAPI returns the rolled-up financial and task totals.
func GetProjectTotalsAPI(c *fiber.Ctx, db *sql.DB) error {
	projectID := c.Params("id")

	if _, err := database.GetProjectByID(db, projectID); err != nil {
		return err
	}
	milestones, err := database.GetMilestonesByProject(db, projectID)
	if err != nil {
		return err
	}
	tasks, err := database.GetTasksByProject(db, projectID)
	if err != nil {
		return err
	}
	rate, err := database.GetDefaultTaxRate(db, config.AppConfig.DefaultTaxRate)
	if err != nil {
		return err
	}

	totals := finance.ComputeProjectTotals(milestones, tasks, rate)
	return c.JSON(fiber.Map{
		"success":  true,
		"data":     totals,
		"currency": config.AppConfig.Currency,
	})
}

// CreateProjectAPI creates a project owned by the caller.
func CreateProjectAPI(c *fiber.Ctx, db *sql.DB) error {
	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	project := &models.Project{
		OwnerID:     auth.CallerID(c),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := database.CreateProject(db, project); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    project,
	})
}

// UpdateProjectAPI updates name and description.
func UpdateProjectAPI(c *fiber.Ctx, db *sql.DB) error {
	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	project := &models.Project{
		ID:          c.Params("id"),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := database.UpdateProject(db, project); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Project updated successfully",
	})
}

// DeleteProjectAPI soft-deletes a project and everything under it.
func DeleteProjectAPI(c *fiber.Ctx, db *sql.DB) error {
	if err := database.DeleteProject(db, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Project deleted successfully",
	})
}
