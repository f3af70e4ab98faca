package payments

import (
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/config"
	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
	engine "github.com/Guilleloma/BuildTrack-sub000/app/payments"
	"github.com/Guilleloma/BuildTrack-sub000/app/routes/auth"
)

var validate = validator.New()

func newEngine(db *sql.DB) *engine.Engine {
	store := database.NewSQLStore(db)
	settings := database.NewSettingsReader(db, config.AppConfig.DefaultTaxRate)
	return engine.NewEngine(store, settings)
}

type distributionPayload struct {
	MilestoneID string  `json:"milestone_id" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"gt=0"`
}

type SinglePaymentRequest struct {
	MilestoneID string     `json:"milestone_id" validate:"required,uuid"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	Method      string     `json:"payment_method" validate:"required"`
	Description string     `json:"description"`
	PaymentDate *time.Time `json:"payment_date"`
}

type DistributedPaymentRequest struct {
	Distributions []distributionPayload `json:"distributions" validate:"required,min=1,dive"`
	Total         *float64              `json:"total_amount"`
	Method        string                `json:"payment_method" validate:"required"`
	Description   string                `json:"description"`
	PaymentDate   *time.Time            `json:"payment_date"`
}

type EditPaymentRequest struct {
	Amount        *float64              `json:"amount"`
	Distributions []distributionPayload `json:"distributions" validate:"omitempty,dive"`
	Method        *string               `json:"payment_method"`
	Description   *string               `json:"description"`
	PaymentDate   *time.Time            `json:"payment_date"`
}

// CreatePaymentAPI applies a single payment to one milestone.
func CreatePaymentAPI(c *fiber.Ctx, db *sql.DB) error {
	var req SinglePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	date := time.Now()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}

	milestone, payment, err := newEngine(db).ApplySingle(
		c.UserContext(),
		req.MilestoneID,
		money.FromFloat(req.Amount),
		models.PaymentMethod(req.Method),
		date,
		req.Description,
		auth.CallerID(c),
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"payment":   payment,
		"milestone": milestone,
	})
}

// CreateDistributedPaymentAPI applies one payment split across several
// milestones of the same project, all or nothing.
func CreateDistributedPaymentAPI(c *fiber.Ctx, db *sql.DB) error {
	var req DistributedPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	entries := make([]engine.Distribution, 0, len(req.Distributions))
	for _, d := range req.Distributions {
		entries = append(entries, engine.Distribution{
			MilestoneID: d.MilestoneID,
			Amount:      money.FromFloat(d.Amount),
		})
	}
	var total *money.Money
	if req.Total != nil {
		t := money.FromFloat(*req.Total)
		total = &t
	}
	date := time.Now()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}

	payment, milestones, err := newEngine(db).ApplyDistributed(
		c.UserContext(),
		entries,
		total,
		models.PaymentMethod(req.Method),
		date,
		req.Description,
		auth.CallerID(c),
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"payment":    payment,
		"milestones": milestones,
	})
}

// GetPaymentsAPI lists payments filtered by project or milestone.
func GetPaymentsAPI(c *fiber.Ctx, db *sql.DB) error {
	projectID := c.Query("project_id")
	milestoneID := c.Query("milestone_id")

	var (
		payments []*models.Payment
		err      error
	)
	switch {
	case milestoneID != "":
		payments, err = database.GetPaymentsByMilestone(db, milestoneID)
	case projectID != "":
		payments, err = database.GetPaymentsByProject(db, projectID)
	default:
		return apperror.Validation("project_id or milestone_id query parameter is required")
	}
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []*models.Payment{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
		"count":   len(payments),
	})
}

// GetPaymentAPI returns one payment with its distributions.
func GetPaymentAPI(c *fiber.Ctx, db *sql.DB) error {
	p, err := database.GetPaymentByID(db, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    p,
	})
}

// EditPaymentAPI re-validates and re-applies a payment with new values.
func EditPaymentAPI(c *fiber.Ctx, db *sql.DB) error {
	var req EditPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  apperror.FieldErrors(err),
		})
	}

	edit := engine.EditRequest{
		Description: req.Description,
		PaymentDate: req.PaymentDate,
	}
	if req.Amount != nil {
		amount := money.FromFloat(*req.Amount)
		edit.Amount = &amount
	}
	for _, d := range req.Distributions {
		edit.Distributions = append(edit.Distributions, engine.Distribution{
			MilestoneID: d.MilestoneID,
			Amount:      money.FromFloat(d.Amount),
		})
	}
	if req.Method != nil {
		method := models.PaymentMethod(*req.Method)
		edit.Method = &method
	}

	payment, err := newEngine(db).Edit(c.UserContext(), c.Params("id"), edit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"payment": payment,
	})
}

// DeletePaymentAPI reverses and deletes a payment. For distributed payments
// an optional milestone_id query parameter removes only that milestone's
// distribution.
func DeletePaymentAPI(c *fiber.Ctx, db *sql.DB) error {
	if err := newEngine(db).Delete(c.UserContext(), c.Params("id"), c.Query("milestone_id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment deleted successfully",
	})
}
