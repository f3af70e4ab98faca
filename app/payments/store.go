package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// Tx is the transactional data-access scope the engine works inside. The
// Postgres implementation lives in app/database; tests use an in-memory fake.
type Tx interface {
	// MilestoneForUpdate loads a milestone and holds a write lock on it for
	// the rest of the transaction.
	MilestoneForUpdate(ctx context.Context, id string) (*models.Milestone, error)
	UpdateMilestonePaid(ctx context.Context, id string, paid money.Money) error
	// UpdateMilestoneFields rewrites the client-editable milestone columns;
	// paid_amount stays untouched.
	UpdateMilestoneFields(ctx context.Context, m *models.Milestone) error
	// SoftDeleteMilestone marks a milestone and its tasks deleted.
	SoftDeleteMilestone(ctx context.Context, id string) error

	// PaymentForUpdate loads a payment with its distributions and locks it.
	PaymentForUpdate(ctx context.Context, id string) (*models.Payment, error)
	// PaymentsForMilestone loads and locks, in id order, every live payment
	// with a distribution on the milestone.
	PaymentsForMilestone(ctx context.Context, milestoneID string) ([]*models.Payment, error)
	InsertPayment(ctx context.Context, p *models.Payment) error
	// UpdatePayment rewrites the payment row and replaces its distributions.
	UpdatePayment(ctx context.Context, p *models.Payment) error
	DeletePayment(ctx context.Context, id string) error
}

// Store opens transactional scopes. InTx commits when fn returns nil and
// rolls back otherwise, so a failed operation never leaves a partial
// mutation behind.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Settings supplies the default tax rate applied to milestones that have tax
// enabled but no rate of their own.
type Settings interface {
	DefaultTaxRate(ctx context.Context) (decimal.Decimal, error)
}
