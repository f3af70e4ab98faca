package models

import "time"

// Task represents a unit of work inside a milestone. Tasks drive completion
// percentages only; they never affect payment amounts.
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	MilestoneID string     `json:"milestone_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Name        string     `json:"name" gorm:"not null" validate:"required"`
	Description string     `json:"description" gorm:"type:text"`
	Status      TaskStatus `json:"status" gorm:"not null;default:'PENDING';type:varchar(20)" validate:"required"`
	DueDate     *time.Time `json:"due_date,omitempty" gorm:"type:date"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// IsCompleted reports whether the task counts toward completion percentages.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskCompleted
}
