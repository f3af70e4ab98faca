// Package apperror defines the error kinds the core operations surface and
// their mapping to HTTP responses.
package apperror

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// NotFoundError indicates an unresolvable project/milestone/task/payment id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource kind and id.
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates malformed or out-of-range input. It is never
// partially applied and not worth retrying unchanged.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// OverpaymentError indicates a payment amount exceeding a milestone's
// remaining total with tax. It carries the offending milestone and the
// maximum amount the caller may retry with; amounts are never clamped.
type OverpaymentError struct {
	MilestoneID string
	Requested   money.Money
	MaxAllowed  money.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining amount %s on milestone %s",
		e.Requested, e.MaxAllowed, e.MilestoneID)
}

// ConcurrencyConflict indicates a lock or version conflict; the whole
// operation is safe to retry from scratch.
type ConcurrencyConflict struct {
	Message string
}

func (e *ConcurrencyConflict) Error() string { return e.Message }

// PersistenceFailure wraps a storage-layer failure. No partial mutation was
// committed.
type PersistenceFailure struct {
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// FieldErrors converts validator errors into the field->message list the API
// returns on 400s.
func FieldErrors(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, e := range validationErr {
			msg := fmt.Sprintf("failed on %q validation", e.Tag())
			if e.Param() != "" {
				msg = fmt.Sprintf("failed on %q=%s validation", e.Tag(), e.Param())
			}
			errList = append(errList, map[string]string{e.Field(): msg})
		}
	}
	return errList
}

// Handle maps core error kinds to HTTP responses. Wired as the Fiber app's
// ErrorHandler.
func Handle(c *fiber.Ctx, err error) error {
	var (
		notFound    *NotFoundError
		validation  *ValidationError
		overpayment *OverpaymentError
		conflict    *ConcurrencyConflict
		persistence *PersistenceFailure
		fiberErr    *fiber.Error
	)

	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   notFound.Error(),
		})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   validation.Error(),
		})
	case errors.As(err, &overpayment):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success":      false,
			"error":        overpayment.Error(),
			"milestone_id": overpayment.MilestoneID,
			"max_allowed":  overpayment.MaxAllowed,
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":   false,
			"error":     conflict.Error(),
			"retryable": true,
		})
	case errors.As(err, &persistence):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal storage error",
		})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"error":   fiberErr.Message,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
}
