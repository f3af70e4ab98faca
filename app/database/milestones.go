package database

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

const milestoneColumns = `id, project_id, name, description, budget, has_tax, tax_rate, paid_amount, created_at, updated_at`

func scanMilestone(row interface{ Scan(...interface{}) error }) (*models.Milestone, error) {
	m := &models.Milestone{}
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.Budget,
		&m.HasTax, &m.TaxRate, &m.PaidAmount, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMilestone inserts a milestone with a zero paid amount.
func CreateMilestone(db *sql.DB, m *models.Milestone) error {
	m.ID = uuid.NewString()
	query := `INSERT INTO milestones (id, project_id, name, description, budget, has_tax, tax_rate)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING paid_amount, created_at, updated_at`
	err := db.QueryRow(query, m.ID, m.ProjectID, m.Name, m.Description, m.Budget, m.HasTax, m.TaxRate).
		Scan(&m.PaidAmount, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err, "milestone", m.ID)
}

// GetMilestoneByID loads a milestone.
func GetMilestoneByID(db *sql.DB, id string) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1 AND deleted_at IS NULL`
	m, err := scanMilestone(db.QueryRow(query, id))
	if err != nil {
		return nil, mapError(err, "milestone", id)
	}
	return m, nil
}

// GetMilestonesByProject returns a project's milestones in creation order.
func GetMilestonesByProject(db *sql.DB, projectID string) ([]*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones
	          WHERE project_id = $1 AND deleted_at IS NULL
	          ORDER BY created_at ASC`
	rows, err := db.Query(query, projectID)
	if err != nil {
		return nil, mapError(err, "milestone", "")
	}
	defer rows.Close()

	var milestones []*models.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, mapError(err, "milestone", "")
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// Milestone updates and deletions run through the payment engine: both need
// the paid amounts and the payment records locked in the same transaction.
// See payments.Engine.UpdateMilestone and payments.Engine.DeleteMilestone.
