package database

import (
	"context"
	"database/sql"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

// ProjectTree is one read-consistent snapshot of a project and everything
// under it. The report builder derives all computed fields from a single
// tree so no two fields can reflect different points in time.
type ProjectTree struct {
	Project          *models.Project
	Milestones       []*models.Milestone
	TasksByMilestone map[string][]*models.Task
	Payments         []*models.Payment
}

// LoadProjectTree reads a project with its milestones, tasks and payments in
// one repeatable-read transaction, so a concurrently applied distributed
// payment is either fully visible or not at all.
func LoadProjectTree(ctx context.Context, db *sql.DB, projectID string) (*ProjectTree, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, mapError(err, "project", projectID)
	}
	defer tx.Rollback()

	tree := &ProjectTree{TasksByMilestone: make(map[string][]*models.Task)}

	p := &models.Project{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, owner_id, name, description, created_at, updated_at
		 FROM projects WHERE id = $1 AND deleted_at IS NULL`, projectID).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "project", projectID)
	}
	tree.Project = p

	rows, err := tx.QueryContext(ctx,
		`SELECT `+milestoneColumns+` FROM milestones
		 WHERE project_id = $1 AND deleted_at IS NULL ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, mapError(err, "milestone", "")
	}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err, "milestone", "")
		}
		tree.Milestones = append(tree.Milestones, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "milestone", "")
	}

	rows, err = tx.QueryContext(ctx,
		`SELECT t.id, t.milestone_id, t.name, t.description, t.status, t.due_date, t.created_at, t.updated_at
		 FROM tasks t
		 JOIN milestones m ON t.milestone_id = m.id
		 WHERE m.project_id = $1 AND t.deleted_at IS NULL AND m.deleted_at IS NULL
		 ORDER BY t.created_at ASC`, projectID)
	if err != nil {
		return nil, mapError(err, "task", "")
	}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err, "task", "")
		}
		tree.TasksByMilestone[t.MilestoneID] = append(tree.TasksByMilestone[t.MilestoneID], t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "task", "")
	}

	rows, err = tx.QueryContext(ctx,
		`SELECT DISTINCT p.id, p.type, p.amount, p.description, p.payment_date, p.payment_method, p.created_by, p.created_at, p.updated_at
		 FROM payments p
		 JOIN payment_distributions d ON d.payment_id = p.id
		 JOIN milestones m ON d.milestone_id = m.id
		 WHERE m.project_id = $1 AND p.deleted_at IS NULL
		 ORDER BY p.payment_date DESC, p.created_at DESC`, projectID)
	if err != nil {
		return nil, mapError(err, "payment", "")
	}
	for rows.Next() {
		pay, err := scanPayment(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err, "payment", "")
		}
		tree.Payments = append(tree.Payments, pay)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "payment", "")
	}

	for _, pay := range tree.Payments {
		drows, err := tx.QueryContext(ctx,
			`SELECT id, payment_id, milestone_id, amount, position
			 FROM payment_distributions WHERE payment_id = $1 ORDER BY position ASC`, pay.ID)
		if err != nil {
			return nil, mapError(err, "payment", pay.ID)
		}
		for drows.Next() {
			d := &models.PaymentDistribution{}
			if err := drows.Scan(&d.ID, &d.PaymentID, &d.MilestoneID, &d.Amount, &d.Position); err != nil {
				drows.Close()
				return nil, mapError(err, "payment", pay.ID)
			}
			pay.Distributions = append(pay.Distributions, d)
		}
		drows.Close()
		if err := drows.Err(); err != nil {
			return nil, mapError(err, "payment", pay.ID)
		}
	}

	return tree, mapError(tx.Commit(), "project", projectID)
}
