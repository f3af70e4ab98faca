// Package reports assembles the fully computed project tree consumed by
// document export. Building is pure: everything derives from one ProjectTree
// snapshot, so every field of the report reflects the same point in time.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Guilleloma/BuildTrack-sub000/app/database"
	"github.com/Guilleloma/BuildTrack-sub000/app/finance"
	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// PaymentLine is one payment as shown under a milestone: the milestone's
// share plus the payment's own details.
type PaymentLine struct {
	PaymentID   string               `json:"payment_id"`
	Date        time.Time            `json:"date"`
	Amount      money.Money          `json:"amount"`
	TotalAmount money.Money          `json:"total_amount"`
	Method      models.PaymentMethod `json:"method"`
	Description string               `json:"description"`
	Distributed bool                 `json:"distributed"`
}

// MilestoneReport is a milestone with all derived financial and progress
// values attached.
type MilestoneReport struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name"`
	Description    string                      `json:"description"`
	Budget         money.Money                 `json:"budget"`
	HasTax         bool                        `json:"has_tax"`
	TaxRate        *float64                    `json:"tax_rate,omitempty"`
	PaidAmount     money.Money                 `json:"paid_amount"`
	Financials     finance.MilestoneFinancials `json:"financials"`
	TaskCompletion float64                     `json:"task_completion"`
	Tasks          []*models.Task              `json:"tasks"`
	Payments       []PaymentLine               `json:"payments"`
}

// ProjectReport is the export tree: project header, rolled-up totals and one
// entry per milestone.
type ProjectReport struct {
	ProjectID   string                `json:"project_id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Currency    string                `json:"currency"`
	GeneratedAt time.Time             `json:"generated_at"`
	Totals      finance.ProjectTotals `json:"totals"`
	Milestones  []MilestoneReport     `json:"milestones"`
}

// Build computes the report from one snapshot. defaultRate is the settings
// collaborator's fallback tax rate; currency is the deployment's configured
// currency code.
func Build(tree *database.ProjectTree, defaultRate decimal.Decimal, currency string) *ProjectReport {
	report := &ProjectReport{
		ProjectID:   tree.Project.ID,
		Name:        tree.Project.Name,
		Description: tree.Project.Description,
		Currency:    currency,
		GeneratedAt: time.Now().UTC(),
		Totals:      finance.ComputeProjectTotals(tree.Milestones, tree.TasksByMilestone, defaultRate),
	}

	linesByMilestone := make(map[string][]PaymentLine)
	for _, p := range tree.Payments {
		for _, d := range p.Distributions {
			linesByMilestone[d.MilestoneID] = append(linesByMilestone[d.MilestoneID], PaymentLine{
				PaymentID:   p.ID,
				Date:        p.PaymentDate,
				Amount:      d.Amount,
				TotalAmount: p.Amount,
				Method:      p.PaymentMethod,
				Description: p.Description,
				Distributed: p.Type == models.PaymentDistributed,
			})
		}
	}

	for _, m := range tree.Milestones {
		tasks := tree.TasksByMilestone[m.ID]
		if tasks == nil {
			tasks = []*models.Task{}
		}
		lines := linesByMilestone[m.ID]
		if lines == nil {
			lines = []PaymentLine{}
		}
		report.Milestones = append(report.Milestones, MilestoneReport{
			ID:             m.ID,
			Name:           m.Name,
			Description:    m.Description,
			Budget:         m.Budget,
			HasTax:         m.HasTax,
			TaxRate:        m.TaxRate,
			PaidAmount:     m.PaidAmount,
			Financials:     finance.ComputeMilestone(m, defaultRate),
			TaskCompletion: finance.TaskCompletionPercentage(tasks),
			Tasks:          tasks,
			Payments:       lines,
		})
	}
	return report
}
