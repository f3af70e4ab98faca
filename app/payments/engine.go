// Package payments implements the payment application engine: the sole
// mutator of milestone paid amounts. Every operation runs inside one
// transactional scope, validates against the financial model before touching
// anything, and rejects overpayments instead of clamping them.
package payments

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
	"github.com/Guilleloma/BuildTrack-sub000/app/finance"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// Distribution is one requested (milestone, amount) pair of a payment.
type Distribution struct {
	MilestoneID string      `json:"milestone_id" validate:"required,uuid"`
	Amount      money.Money `json:"amount" validate:"required"`
}

// EditRequest carries the changes an edit may apply. Nil fields keep the
// current value. Amount edits a SINGLE payment; Distributions edits a
// DISTRIBUTED one.
type EditRequest struct {
	Amount        *money.Money
	Distributions []Distribution
	Method        *models.PaymentMethod
	Description   *string
	PaymentDate   *time.Time
}

// Engine applies, edits and deletes payments against milestone state.
type Engine struct {
	store    Store
	settings Settings
}

// NewEngine builds an Engine over the given storage and settings
// collaborators.
func NewEngine(store Store, settings Settings) *Engine {
	return &Engine{store: store, settings: settings}
}

// ApplySingle validates and applies one payment to one milestone. It fails
// with OverpaymentError when amount exceeds the milestone's remaining total
// with tax; the milestone is not touched in that case.
func (e *Engine) ApplySingle(ctx context.Context, milestoneID string, amount money.Money, method models.PaymentMethod, date time.Time, description, actor string) (*models.Milestone, *models.Payment, error) {
	if amount <= 0 {
		return nil, nil, apperror.Validation("payment amount must be positive")
	}
	if !models.ValidPaymentMethod(method) {
		return nil, nil, apperror.Validation("unknown payment method %q", method)
	}

	rate, err := e.settings.DefaultTaxRate(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		milestone *models.Milestone
		payment   *models.Payment
	)
	err = e.store.InTx(ctx, func(tx Tx) error {
		m, err := tx.MilestoneForUpdate(ctx, milestoneID)
		if err != nil {
			return err
		}

		fin := finance.ComputeMilestone(m, rate)
		if amount.GreaterThan(fin.RemainingWithTax) {
			return &apperror.OverpaymentError{
				MilestoneID: m.ID,
				Requested:   amount,
				MaxAllowed:  fin.RemainingWithTax,
			}
		}

		payment = &models.Payment{
			ID:            uuid.NewString(),
			Type:          models.PaymentSingle,
			Amount:        amount,
			Description:   description,
			PaymentDate:   date,
			PaymentMethod: method,
			CreatedBy:     actor,
			Distributions: []*models.PaymentDistribution{{
				ID:          uuid.NewString(),
				MilestoneID: m.ID,
				Amount:      amount,
			}},
		}
		payment.Distributions[0].PaymentID = payment.ID

		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		m.PaidAmount = m.PaidAmount.Add(amount)
		if err := tx.UpdateMilestonePaid(ctx, m.ID, m.PaidAmount); err != nil {
			return err
		}
		milestone = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return milestone, payment, nil
}

// ApplyDistributed validates and applies one payment split across several
// milestones of the same project. Every distribution is checked against its
// milestone's remaining amount before any of them is applied; a single
// violation fails the whole operation and mutates nothing.
//
// total, when non-nil, is the caller-supplied payment total and must equal
// the sum of the distribution amounts.
func (e *Engine) ApplyDistributed(ctx context.Context, entries []Distribution, total *money.Money, method models.PaymentMethod, date time.Time, description, actor string) (*models.Payment, []*models.Milestone, error) {
	if len(entries) == 0 {
		return nil, nil, apperror.Validation("a distributed payment needs at least one distribution")
	}
	if !models.ValidPaymentMethod(method) {
		return nil, nil, apperror.Validation("unknown payment method %q", method)
	}

	sum := money.Money(0)
	seen := make(map[string]bool, len(entries))
	for _, d := range entries {
		if d.Amount <= 0 {
			return nil, nil, apperror.Validation("distribution amount for milestone %s must be positive", d.MilestoneID)
		}
		if seen[d.MilestoneID] {
			return nil, nil, apperror.Validation("milestone %s appears more than once", d.MilestoneID)
		}
		seen[d.MilestoneID] = true
		sum = sum.Add(d.Amount)
	}
	if total != nil && *total != sum {
		return nil, nil, apperror.Validation("payment total %s does not match the sum of distributions %s", *total, sum)
	}

	rate, err := e.settings.DefaultTaxRate(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		payment    *models.Payment
		milestones []*models.Milestone
	)
	err = e.store.InTx(ctx, func(tx Tx) error {
		locked, err := lockMilestones(ctx, tx, milestoneIDs(entries))
		if err != nil {
			return err
		}

		projectID := ""
		for _, m := range locked {
			if projectID == "" {
				projectID = m.ProjectID
			} else if m.ProjectID != projectID {
				return apperror.Validation("all milestones of a distributed payment must belong to the same project")
			}
		}

		// Validate every distribution before applying any of them.
		for _, d := range entries {
			m := locked[d.MilestoneID]
			fin := finance.ComputeMilestone(m, rate)
			if d.Amount.GreaterThan(fin.RemainingWithTax) {
				return &apperror.OverpaymentError{
					MilestoneID: m.ID,
					Requested:   d.Amount,
					MaxAllowed:  fin.RemainingWithTax,
				}
			}
		}

		payment = &models.Payment{
			ID:            uuid.NewString(),
			Type:          models.PaymentDistributed,
			Amount:        sum,
			Description:   description,
			PaymentDate:   date,
			PaymentMethod: method,
			CreatedBy:     actor,
		}
		for i, d := range entries {
			payment.Distributions = append(payment.Distributions, &models.PaymentDistribution{
				ID:          uuid.NewString(),
				PaymentID:   payment.ID,
				MilestoneID: d.MilestoneID,
				Amount:      d.Amount,
				Position:    i,
			})
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		for _, d := range entries {
			m := locked[d.MilestoneID]
			m.PaidAmount = m.PaidAmount.Add(d.Amount)
			if err := tx.UpdateMilestonePaid(ctx, m.ID, m.PaidAmount); err != nil {
				return err
			}
			milestones = append(milestones, m)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, milestones, nil
}

// Edit reverses a payment's old effect, re-validates the new amounts against
// the reversed state under the same overpayment rules as creation, and
// re-applies. Everything happens in one transaction, so a validation failure
// never leaves the reversal applied.
func (e *Engine) Edit(ctx context.Context, paymentID string, req EditRequest) (*models.Payment, error) {
	if req.Method != nil && !models.ValidPaymentMethod(*req.Method) {
		return nil, apperror.Validation("unknown payment method %q", *req.Method)
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, apperror.Validation("payment amount must be positive")
	}

	rate, err := e.settings.DefaultTaxRate(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.Payment
	err = e.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.PaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		newEntries, err := editedEntries(p, req)
		if err != nil {
			return err
		}

		ids := make(map[string]bool)
		for _, d := range p.Distributions {
			ids[d.MilestoneID] = true
		}
		for _, d := range newEntries {
			ids[d.MilestoneID] = true
		}
		locked, err := lockMilestones(ctx, tx, setToSlice(ids))
		if err != nil {
			return err
		}

		projectID := ""
		for _, m := range locked {
			if projectID == "" {
				projectID = m.ProjectID
			} else if m.ProjectID != projectID {
				return apperror.Validation("all milestones of a distributed payment must belong to the same project")
			}
		}

		// Reverse the old effect in memory first; validation runs against
		// this reversed state so the payment can be re-applied at the same
		// or any fitting amount.
		for _, d := range p.Distributions {
			m := locked[d.MilestoneID]
			reversed := m.PaidAmount.Sub(d.Amount)
			if reversed.IsNegative() {
				return &apperror.PersistenceFailure{
					Err: fmt.Errorf("milestone %s paid amount %s is below its recorded distributions", m.ID, m.PaidAmount),
				}
			}
			m.PaidAmount = reversed
		}

		for _, d := range newEntries {
			m := locked[d.MilestoneID]
			fin := finance.ComputeMilestone(m, rate)
			if d.Amount.GreaterThan(fin.RemainingWithTax) {
				return &apperror.OverpaymentError{
					MilestoneID: m.ID,
					Requested:   d.Amount,
					MaxAllowed:  fin.RemainingWithTax,
				}
			}
		}

		for _, d := range newEntries {
			m := locked[d.MilestoneID]
			m.PaidAmount = m.PaidAmount.Add(d.Amount)
		}
		for _, m := range locked {
			if err := tx.UpdateMilestonePaid(ctx, m.ID, m.PaidAmount); err != nil {
				return err
			}
		}

		sum := money.Money(0)
		p.Distributions = p.Distributions[:0]
		for i, d := range newEntries {
			sum = sum.Add(d.Amount)
			p.Distributions = append(p.Distributions, &models.PaymentDistribution{
				ID:          uuid.NewString(),
				PaymentID:   p.ID,
				MilestoneID: d.MilestoneID,
				Amount:      d.Amount,
				Position:    i,
			})
		}
		p.Amount = sum
		if len(newEntries) > 1 {
			p.Type = models.PaymentDistributed
		}
		if req.Method != nil {
			p.PaymentMethod = *req.Method
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.PaymentDate != nil {
			p.PaymentDate = *req.PaymentDate
		}

		if err := tx.UpdatePayment(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reverses a payment's effect and removes it. For a DISTRIBUTED
// payment, a non-empty milestoneID removes only that milestone's
// distribution, shrinking the payment; deleting the last distribution
// removes the payment itself.
func (e *Engine) Delete(ctx context.Context, paymentID, milestoneID string) error {
	return e.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.PaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		var toReverse []*models.PaymentDistribution
		if milestoneID == "" || p.Type == models.PaymentSingle {
			toReverse = p.Distributions
		} else {
			d := p.DistributionFor(milestoneID)
			if d == nil {
				return apperror.NotFound("payment distribution", milestoneID)
			}
			toReverse = []*models.PaymentDistribution{d}
		}

		reversedIDs := make([]string, 0, len(toReverse))
		for _, d := range toReverse {
			reversedIDs = append(reversedIDs, d.MilestoneID)
		}
		locked, err := lockMilestones(ctx, tx, reversedIDs)
		if err != nil {
			return err
		}

		for _, d := range toReverse {
			m := locked[d.MilestoneID]
			reversed := m.PaidAmount.Sub(d.Amount)
			if reversed.IsNegative() {
				return &apperror.PersistenceFailure{
					Err: fmt.Errorf("milestone %s paid amount %s is below its recorded distributions", m.ID, m.PaidAmount),
				}
			}
			m.PaidAmount = reversed
			if err := tx.UpdateMilestonePaid(ctx, m.ID, m.PaidAmount); err != nil {
				return err
			}
		}

		if len(toReverse) == len(p.Distributions) {
			return tx.DeletePayment(ctx, p.ID)
		}

		remaining := p.Distributions[:0]
		sum := money.Money(0)
		for _, d := range p.Distributions {
			if d.MilestoneID == milestoneID {
				continue
			}
			d.Position = len(remaining)
			remaining = append(remaining, d)
			sum = sum.Add(d.Amount)
		}
		p.Distributions = remaining
		p.Amount = sum
		return tx.UpdatePayment(ctx, p)
	})
}

// MilestoneUpdate carries the client-editable milestone fields. It has no
// paid amount on purpose; only payment operations move that.
type MilestoneUpdate struct {
	Name        string
	Description string
	Budget      money.Money
	HasTax      bool
	TaxRate     *float64
}

// UpdateMilestone rewrites a milestone's editable fields. The paid amount is
// re-read under the row lock, so a payment applied concurrently cannot slip
// past the guard: the new total with tax may not drop below what has already
// been paid.
func (e *Engine) UpdateMilestone(ctx context.Context, milestoneID string, upd MilestoneUpdate) (*models.Milestone, error) {
	rate, err := e.settings.DefaultTaxRate(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.Milestone
	err = e.store.InTx(ctx, func(tx Tx) error {
		m, err := tx.MilestoneForUpdate(ctx, milestoneID)
		if err != nil {
			return err
		}

		m.Name = upd.Name
		m.Description = upd.Description
		m.Budget = upd.Budget
		m.HasTax = upd.HasTax
		m.TaxRate = upd.TaxRate

		fin := finance.ComputeMilestone(m, rate)
		if m.PaidAmount.GreaterThan(fin.TotalWithTax) {
			return apperror.Validation("new total with tax %s is below the already paid amount %s",
				fin.TotalWithTax, m.PaidAmount)
		}

		if err := tx.UpdateMilestoneFields(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMilestone removes a milestone together with its share of every
// payment touching it. A payment split across siblings shrinks by the
// removed distribution and keeps backing the siblings' paid amounts; a
// payment left without distributions is deleted outright.
func (e *Engine) DeleteMilestone(ctx context.Context, milestoneID string) error {
	return e.store.InTx(ctx, func(tx Tx) error {
		pays, err := tx.PaymentsForMilestone(ctx, milestoneID)
		if err != nil {
			return err
		}
		if _, err := tx.MilestoneForUpdate(ctx, milestoneID); err != nil {
			return err
		}

		for _, p := range pays {
			if p.DistributionFor(milestoneID) == nil {
				continue
			}
			if len(p.Distributions) == 1 {
				if err := tx.DeletePayment(ctx, p.ID); err != nil {
					return err
				}
				continue
			}

			remaining := p.Distributions[:0]
			sum := money.Money(0)
			for _, d := range p.Distributions {
				if d.MilestoneID == milestoneID {
					continue
				}
				d.Position = len(remaining)
				remaining = append(remaining, d)
				sum = sum.Add(d.Amount)
			}
			p.Distributions = remaining
			p.Amount = sum
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return err
			}
		}

		return tx.SoftDeleteMilestone(ctx, milestoneID)
	})
}

// editedEntries resolves the distribution set an edit should end up with.
func editedEntries(p *models.Payment, req EditRequest) ([]Distribution, error) {
	switch {
	case len(req.Distributions) > 0:
		seen := make(map[string]bool, len(req.Distributions))
		for _, d := range req.Distributions {
			if d.Amount <= 0 {
				return nil, apperror.Validation("distribution amount for milestone %s must be positive", d.MilestoneID)
			}
			if seen[d.MilestoneID] {
				return nil, apperror.Validation("milestone %s appears more than once", d.MilestoneID)
			}
			seen[d.MilestoneID] = true
		}
		return req.Distributions, nil
	case req.Amount != nil:
		if p.Type != models.PaymentSingle {
			return nil, apperror.Validation("a distributed payment is edited through its distributions")
		}
		return []Distribution{{MilestoneID: p.Distributions[0].MilestoneID, Amount: *req.Amount}}, nil
	default:
		// Method/description/date-only edit: keep the current amounts. The
		// reverse-validate-reapply path still runs, which keeps the edit
		// rules uniform and makes same-amount edits a provable no-op.
		entries := make([]Distribution, 0, len(p.Distributions))
		for _, d := range p.Distributions {
			entries = append(entries, Distribution{MilestoneID: d.MilestoneID, Amount: d.Amount})
		}
		return entries, nil
	}
}

// lockMilestones acquires row locks in milestone-id order so two operations
// touching overlapping milestone sets cannot deadlock each other.
func lockMilestones(ctx context.Context, tx Tx, ids []string) (map[string]*models.Milestone, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	locked := make(map[string]*models.Milestone, len(sorted))
	for _, id := range sorted {
		m, err := tx.MilestoneForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = m
	}
	return locked, nil
}

func milestoneIDs(entries []Distribution) []string {
	ids := make([]string, 0, len(entries))
	for _, d := range entries {
		ids = append(ids, d.MilestoneID)
	}
	return ids
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
