package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

var defaultRate = decimal.NewFromInt(21)

func milestone(budget float64, hasTax bool, taxRate *float64, paid float64) *models.Milestone {
	return &models.Milestone{
		ID:         "m1",
		ProjectID:  "p1",
		Name:       "Foundation",
		Budget:     money.FromFloat(budget),
		HasTax:     hasTax,
		TaxRate:    taxRate,
		PaidAmount: money.FromFloat(paid),
	}
}

func rate(v float64) *float64 { return &v }

func TestComputeMilestoneWithTax(t *testing.T) {
	// budget 1000.00 at 21% tax
	fin := ComputeMilestone(milestone(1000, true, rate(21), 0), defaultRate)

	assert.Equal(t, money.FromFloat(210), fin.TaxAmount)
	assert.Equal(t, money.FromFloat(1210), fin.TotalWithTax)
	assert.Equal(t, money.FromFloat(1210), fin.RemainingWithTax)
	assert.Equal(t, 0.0, fin.PaymentPercentage)
	assert.Equal(t, models.MilestoneUnpaid, fin.Status)
}

func TestComputeMilestonePartiallyPaid(t *testing.T) {
	fin := ComputeMilestone(milestone(1000, true, rate(21), 500), defaultRate)

	assert.Equal(t, money.FromFloat(710), fin.RemainingWithTax)
	assert.InDelta(t, 41.32, fin.PaymentPercentage, 0.01)
	assert.Equal(t, models.MilestonePartiallyPaid, fin.Status)
}

func TestComputeMilestonePaid(t *testing.T) {
	fin := ComputeMilestone(milestone(1000, true, rate(21), 1210), defaultRate)

	assert.Equal(t, money.Money(0), fin.RemainingWithTax)
	assert.Equal(t, 100.0, fin.PaymentPercentage)
	assert.Equal(t, models.MilestonePaid, fin.Status)
}

func TestComputeMilestoneWithoutTax(t *testing.T) {
	fin := ComputeMilestone(milestone(500, false, nil, 0), defaultRate)

	assert.Equal(t, money.Money(0), fin.TaxAmount)
	// no tax: total is exactly the budget
	assert.Equal(t, money.FromFloat(500), fin.TotalWithTax)
}

func TestComputeMilestoneDefaultRateFallback(t *testing.T) {
	fin := ComputeMilestone(milestone(1000, true, nil, 0), defaultRate)
	assert.Equal(t, money.FromFloat(210), fin.TaxAmount)

	fin = ComputeMilestone(milestone(1000, true, nil, 0), decimal.NewFromInt(10))
	assert.Equal(t, money.FromFloat(100), fin.TaxAmount)
}

func TestComputeMilestoneTaxRoundedIndependently(t *testing.T) {
	// 0.10 at 21% is 0.021: tax rounds to 0.02 on its own before the sum.
	fin := ComputeMilestone(milestone(0.10, true, rate(21), 0), defaultRate)

	assert.Equal(t, money.Money(2), fin.TaxAmount)
	assert.Equal(t, money.Money(12), fin.TotalWithTax)
}

func TestComputeMilestoneZeroBudget(t *testing.T) {
	fin := ComputeMilestone(milestone(0, true, rate(21), 0), defaultRate)

	assert.Equal(t, money.Money(0), fin.TotalWithTax)
	assert.Equal(t, 0.0, fin.PaymentPercentage)
	assert.Equal(t, models.MilestoneUnpaid, fin.Status)
}

func TestComputeMilestoneRemainingNeverNegative(t *testing.T) {
	fin := ComputeMilestone(milestone(100, false, nil, 150), defaultRate)
	assert.Equal(t, money.Money(0), fin.RemainingWithTax)
}

func TestTaskCompletionPercentage(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.TaskStatus
		want     float64
	}{
		{"no tasks", nil, 0},
		{"one of three", []models.TaskStatus{models.TaskCompleted, models.TaskPending, models.TaskInProgress}, 100.0 / 3},
		{"all done", []models.TaskStatus{models.TaskCompleted, models.TaskCompleted}, 100},
		{"none done", []models.TaskStatus{models.TaskPending}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tasks []*models.Task
			for _, s := range tt.statuses {
				tasks = append(tasks, &models.Task{Status: s})
			}
			assert.InDelta(t, tt.want, TaskCompletionPercentage(tasks), 0.001)
		})
	}
}

func tasksWith(milestoneID string, completed, total int) []*models.Task {
	tasks := make([]*models.Task, 0, total)
	for i := 0; i < total; i++ {
		status := models.TaskPending
		if i < completed {
			status = models.TaskCompleted
		}
		tasks = append(tasks, &models.Task{MilestoneID: milestoneID, Status: status})
	}
	return tasks
}

func TestComputeProjectTotals(t *testing.T) {
	m1 := milestone(1000, true, rate(21), 0)
	m1.ID = "m1"
	m2 := milestone(500, false, nil, 0)
	m2.ID = "m2"

	totals := ComputeProjectTotals([]*models.Milestone{m1, m2}, nil, defaultRate)

	assert.Equal(t, money.FromFloat(1500), totals.Base)
	assert.Equal(t, money.FromFloat(210), totals.Tax)
	assert.Equal(t, money.FromFloat(1710), totals.TotalWithTax)
	assert.Equal(t, money.Money(0), totals.Paid)
	assert.Equal(t, 2, totals.MilestoneCount)
}

func TestComputeProjectTotalsTaskWeighting(t *testing.T) {
	m1 := milestone(100, false, nil, 0)
	m1.ID = "m1"
	m2 := milestone(100, false, nil, 0)
	m2.ID = "m2"

	// 1/3 done and 5/5 done must aggregate to 6/8 = 75%, not the 66.67%
	// average of the two milestone percentages.
	tasks := map[string][]*models.Task{
		"m1": tasksWith("m1", 1, 3),
		"m2": tasksWith("m2", 5, 5),
	}

	totals := ComputeProjectTotals([]*models.Milestone{m1, m2}, tasks, defaultRate)
	assert.Equal(t, 6, totals.CompletedTasks)
	assert.Equal(t, 8, totals.TotalTasks)
	assert.InDelta(t, 75.0, totals.TaskPercentage, 0.001)
}

func TestComputeProjectTotalsEmptyProject(t *testing.T) {
	totals := ComputeProjectTotals(nil, nil, defaultRate)

	assert.Equal(t, money.Money(0), totals.TotalWithTax)
	assert.Equal(t, 0.0, totals.PaymentPercentage)
	assert.Equal(t, 0.0, totals.TaskPercentage)
}

func TestComputeProjectTotalsIdempotent(t *testing.T) {
	m1 := milestone(1000, true, rate(21), 500)
	m1.ID = "m1"
	milestones := []*models.Milestone{m1}
	tasks := map[string][]*models.Task{"m1": tasksWith("m1", 1, 2)}

	first := ComputeProjectTotals(milestones, tasks, defaultRate)
	second := ComputeProjectTotals(milestones, tasks, defaultRate)
	assert.Equal(t, first, second)
}
