package database

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

const taskColumns = `id, milestone_id, name, description, status, due_date, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.MilestoneID, &t.Name, &t.Description, &t.Status,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTask inserts a task, defaulting to PENDING.
func CreateTask(db *sql.DB, t *models.Task) error {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	query := `INSERT INTO tasks (id, milestone_id, name, description, status, due_date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := db.QueryRow(query, t.ID, t.MilestoneID, t.Name, t.Description, t.Status, t.DueDate).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapError(err, "task", t.ID)
}

// GetTaskByID loads a task.
func GetTaskByID(db *sql.DB, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`
	t, err := scanTask(db.QueryRow(query, id))
	if err != nil {
		return nil, mapError(err, "task", id)
	}
	return t, nil
}

// GetTasksByMilestone returns a milestone's tasks in creation order.
func GetTasksByMilestone(db *sql.DB, milestoneID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	          WHERE milestone_id = $1 AND deleted_at IS NULL
	          ORDER BY created_at ASC`
	rows, err := db.Query(query, milestoneID)
	if err != nil {
		return nil, mapError(err, "task", "")
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, mapError(err, "task", "")
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTasksByProject returns all tasks of a project grouped by milestone id.
func GetTasksByProject(db *sql.DB, projectID string) (map[string][]*models.Task, error) {
	query := `SELECT t.id, t.milestone_id, t.name, t.description, t.status, t.due_date, t.created_at, t.updated_at
	          FROM tasks t
	          JOIN milestones m ON t.milestone_id = m.id
	          WHERE m.project_id = $1 AND t.deleted_at IS NULL AND m.deleted_at IS NULL
	          ORDER BY t.created_at ASC`
	rows, err := db.Query(query, projectID)
	if err != nil {
		return nil, mapError(err, "task", "")
	}
	defer rows.Close()

	byMilestone := make(map[string][]*models.Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, mapError(err, "task", "")
		}
		byMilestone[t.MilestoneID] = append(byMilestone[t.MilestoneID], t)
	}
	return byMilestone, rows.Err()
}

// UpdateTask updates the editable fields of a task.
func UpdateTask(db *sql.DB, t *models.Task) error {
	query := `UPDATE tasks SET name = $1, description = $2, status = $3, due_date = $4, updated_at = NOW()
	          WHERE id = $5 AND deleted_at IS NULL`
	result, err := db.Exec(query, t.Name, t.Description, t.Status, t.DueDate, t.ID)
	if err != nil {
		return mapError(err, "task", t.ID)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "task", t.ID)
	}
	return nil
}

// UpdateTaskStatus transitions a task's status only.
func UpdateTaskStatus(db *sql.DB, id string, status models.TaskStatus) error {
	query := `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	result, err := db.Exec(query, status, id)
	if err != nil {
		return mapError(err, "task", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "task", id)
	}
	return nil
}

// DeleteTask soft-deletes a task.
func DeleteTask(db *sql.DB, id string) error {
	result, err := db.Exec(`UPDATE tasks SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "task", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "task", id)
	}
	return nil
}
