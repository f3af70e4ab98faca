// Package finance implements the milestone financial model and the task
// progress model as pure functions over milestone snapshots. Nothing here
// touches storage; callers apply these after every read so stored and
// derived values can never drift apart.
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// MilestoneFinancials holds every value derived from a milestone's budget,
// tax configuration and paid amount.
type MilestoneFinancials struct {
	TaxAmount         money.Money            `json:"tax_amount"`
	TotalWithTax      money.Money            `json:"total_with_tax"`
	RemainingWithTax  money.Money            `json:"remaining_with_tax"`
	PaymentPercentage float64                `json:"payment_percentage"`
	Status            models.MilestoneStatus `json:"status"`
}

// EffectiveTaxRate returns the rate to apply for a milestone: its own rate
// when set, the configured default otherwise. Milestones without tax have a
// rate of zero.
func EffectiveTaxRate(m *models.Milestone, defaultRate decimal.Decimal) decimal.Decimal {
	if !m.HasTax {
		return decimal.Zero
	}
	if m.TaxRate != nil {
		return decimal.NewFromFloat(*m.TaxRate)
	}
	return defaultRate
}

// ComputeMilestone derives tax, totals, remaining amount, payment percentage
// and status for one milestone. Tax is rounded to the cent on its own and
// then added to the budget; the total is never computed as
// budget*(1+rate/100) in one step.
func ComputeMilestone(m *models.Milestone, defaultRate decimal.Decimal) MilestoneFinancials {
	tax := money.Money(0)
	if m.HasTax {
		tax = m.Budget.Percent(EffectiveTaxRate(m, defaultRate))
	}
	total := m.Budget.Add(tax)

	remaining := total.Sub(m.PaidAmount)
	if remaining.IsNegative() {
		remaining = 0
	}

	pct := 0.0
	if total > 0 {
		pct = float64(m.PaidAmount) / float64(total) * 100
	}

	return MilestoneFinancials{
		TaxAmount:         tax,
		TotalWithTax:      total,
		RemainingWithTax:  remaining,
		PaymentPercentage: pct,
		Status:            milestoneStatus(m.PaidAmount, total),
	}
}

// milestoneStatus derives the payment status. A zero-total milestone is
// UNPAID no matter what was paid against it.
func milestoneStatus(paid, total money.Money) models.MilestoneStatus {
	if total <= 0 {
		return models.MilestoneUnpaid
	}
	switch {
	case paid >= total:
		return models.MilestonePaid
	case paid > 0:
		return models.MilestonePartiallyPaid
	default:
		return models.MilestoneUnpaid
	}
}

// TaskCompletionPercentage returns the share of completed tasks, 0 for an
// empty list.
func TaskCompletionPercentage(tasks []*models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.IsCompleted() {
			completed++
		}
	}
	return float64(completed) / float64(len(tasks)) * 100
}

// CountTasks returns (completed, total) for a task list.
func CountTasks(tasks []*models.Task) (int, int) {
	completed := 0
	for _, t := range tasks {
		if t.IsCompleted() {
			completed++
		}
	}
	return completed, len(tasks)
}

// ProjectTotals is the rollup of all milestones of a project.
type ProjectTotals struct {
	Base              money.Money `json:"base"`
	Tax               money.Money `json:"tax"`
	TotalWithTax      money.Money `json:"total_with_tax"`
	Paid              money.Money `json:"paid"`
	RemainingWithTax  money.Money `json:"remaining_with_tax"`
	PaymentPercentage float64     `json:"payment_percentage"`
	CompletedTasks    int         `json:"completed_tasks"`
	TotalTasks        int         `json:"total_tasks"`
	TaskPercentage    float64     `json:"task_percentage"`
	MilestoneCount    int         `json:"milestone_count"`
}

// ComputeProjectTotals folds the milestone financial model over all
// milestones of a project. Task aggregation is weighted by task count, not
// by milestone count, so small milestones do not skew the percentage.
// Side-effect-free: calling it twice on the same data yields the same result.
func ComputeProjectTotals(milestones []*models.Milestone, tasksByMilestone map[string][]*models.Task, defaultRate decimal.Decimal) ProjectTotals {
	totals := ProjectTotals{MilestoneCount: len(milestones)}

	for _, m := range milestones {
		fin := ComputeMilestone(m, defaultRate)
		totals.Base = totals.Base.Add(m.Budget)
		totals.Tax = totals.Tax.Add(fin.TaxAmount)
		totals.Paid = totals.Paid.Add(m.PaidAmount)

		completed, total := CountTasks(tasksByMilestone[m.ID])
		totals.CompletedTasks += completed
		totals.TotalTasks += total
	}

	totals.TotalWithTax = totals.Base.Add(totals.Tax)
	totals.RemainingWithTax = totals.TotalWithTax.Sub(totals.Paid)
	if totals.RemainingWithTax.IsNegative() {
		totals.RemainingWithTax = 0
	}
	if totals.TotalWithTax > 0 {
		totals.PaymentPercentage = float64(totals.Paid) / float64(totals.TotalWithTax) * 100
	}
	if totals.TotalTasks > 0 {
		totals.TaskPercentage = float64(totals.CompletedTasks) / float64(totals.TotalTasks) * 100
	}
	return totals
}
