package tasks

import (
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/finance"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

var validate = validator.New()

type TaskRequest struct {
	Name        string     `json:"name" validate:"required,min=1"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

// GetTasksAPI lists a milestone's tasks with the completion percentage.
func GetTasksAPI(c *fiber.Ctx, db *sql.DB) error {
	milestoneID := c.Params("id")

	if _, err := database.GetMilestoneByID(db, milestoneID); err != nil {
		return err
	}
	tasks, err := database.GetTasksByMilestone(db, milestoneID)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"data":            tasks,
		"count":           len(tasks),
		"task_completion": finance.TaskCompletionPercentage(tasks),
	})
}

// CreateTaskAPI creates a task under a milestone.
func CreateTaskAPI(c *fiber.Ctx, db *sql.DB) error {
	milestoneID := c.Params("id")

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	status := models.TaskStatus(req.Status)
	if req.Status == "" {
		status = models.TaskPending
	}
	if !models.ValidTaskStatus(status) {
		return apperror.Validation("unknown task status %q", req.Status)
	}
	if _, err := database.GetMilestoneByID(db, milestoneID); err != nil {
		return err
	}

	t := &models.Task{
		MilestoneID: milestoneID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		DueDate:     req.DueDate,
	}
	if err := database.CreateTask(db, t); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    t,
	})
}

// GetTaskAPI returns one task.
func GetTaskAPI(c *fiber.Ctx, db *sql.DB) error {
	t, err := database.GetTaskByID(db, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    t,
	})
}

// UpdateTaskAPI updates a task's fields.
func UpdateTaskAPI(c *fiber.Ctx, db *sql.DB) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	t, err := database.GetTaskByID(db, c.Params("id"))
	if err != nil {
		return err
	}

	t.Name = req.Name
	t.Description = req.Description
	t.DueDate = req.DueDate
	if req.Status != "" {
		status := models.TaskStatus(req.Status)
		if !models.ValidTaskStatus(status) {
			return apperror.Validation("unknown task status %q", req.Status)
		}
		t.Status = status
	}

	if err := database.UpdateTask(db, t); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    t,
	})
}

// UpdateTaskStatusAPI transitions a task's status only.
func UpdateTaskStatusAPI(c *fiber.Ctx, db *sql.DB) error {
	type StatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	status := models.TaskStatus(req.Status)
	if !models.ValidTaskStatus(status) {
		return apperror.Validation("unknown task status %q", req.Status)
	}

	if err := database.UpdateTaskStatus(db, c.Params("id"), status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task status updated successfully",
	})
}

// DeleteTaskAPI soft-deletes a task.
func DeleteTaskAPI(c *fiber.Ctx, db *sql.DB) error {
	if err := database.DeleteTask(db, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task deleted successfully",
	})
}
