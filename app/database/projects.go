package database

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

// CreateProject inserts a project and fills generated fields.
func CreateProject(db *sql.DB, p *models.Project) error {
	p.ID = uuid.NewString()
	query := `INSERT INTO projects (id, owner_id, name, description)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	err := db.QueryRow(query, p.ID, p.OwnerID, p.Name, p.Description).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "project", p.ID)
}

// GetProjectByID loads a project without its milestones.
func GetProjectByID(db *sql.DB, id string) (*models.Project, error) {
	p := &models.Project{}
	query := `SELECT id, owner_id, name, description, created_at, updated_at
	          FROM projects WHERE id = $1 AND deleted_at IS NULL`
	err := db.QueryRow(query, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "project", id)
	}
	return p, nil
}

// GetProjects returns all projects for an owner, newest first. In sandbox
// mode every project belongs to the sandbox identity, so the same query
// serves both modes.
func GetProjects(db *sql.DB, ownerID string) ([]*models.Project, error) {
	query := `SELECT id, owner_id, name, description, created_at, updated_at
	          FROM projects WHERE owner_id = $1 AND deleted_at IS NULL
	          ORDER BY created_at DESC`
	rows, err := db.Query(query, ownerID)
	if err != nil {
		return nil, mapError(err, "project", "")
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapError(err, "project", "")
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates name and description.
func UpdateProject(db *sql.DB, p *models.Project) error {
	query := `UPDATE projects SET name = $1, description = $2, updated_at = NOW()
	          WHERE id = $3 AND deleted_at IS NULL`
	result, err := db.Exec(query, p.Name, p.Description, p.ID)
	if err != nil {
		return mapError(err, "project", p.ID)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "project", p.ID)
	}
	return nil
}

// DeleteProject soft-deletes a project and cascades to its milestones,
// tasks, payment distributions and the payments left without distributions,
// all in one transaction.
func DeleteProject(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return mapError(err, "project", id)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE projects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "project", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "project", id)
	}

	if _, err := tx.Exec(`UPDATE tasks SET deleted_at = NOW()
		WHERE deleted_at IS NULL AND milestone_id IN (SELECT id FROM milestones WHERE project_id = $1)`, id); err != nil {
		return mapError(err, "project", id)
	}
	if _, err := tx.Exec(`UPDATE payments SET deleted_at = NOW()
		WHERE deleted_at IS NULL AND id IN (
			SELECT DISTINCT payment_id FROM payment_distributions
			WHERE milestone_id IN (SELECT id FROM milestones WHERE project_id = $1)
		)`, id); err != nil {
		return mapError(err, "project", id)
	}
	if _, err := tx.Exec(`UPDATE milestones SET deleted_at = NOW()
		WHERE project_id = $1 AND deleted_at IS NULL`, id); err != nil {
		return mapError(err, "project", id)
	}

	return mapError(tx.Commit(), "project", id)
}
