package models

import (
	"time"

	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// Milestone represents a billable phase of a project with its own budget,
// tax treatment, tasks and payments. PaidAmount is mutated only by the
// payment engine; clients never write it directly.
type Milestone struct {
	ID          string      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	ProjectID   string      `json:"project_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Name        string      `json:"name" gorm:"not null" validate:"required"`
	Description string      `json:"description" gorm:"type:text"`
	Budget      money.Money `json:"budget" gorm:"not null;type:decimal(12,2)" validate:"gte=0"`
	HasTax      bool        `json:"has_tax" gorm:"not null;default:false"`
	TaxRate     *float64    `json:"tax_rate,omitempty" gorm:"type:decimal(5,2)" validate:"omitempty,gte=0,lte=100"`
	PaidAmount  money.Money `json:"paid_amount" gorm:"not null;type:decimal(12,2);default:0" validate:"gte=0"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty" gorm:"index"`

	Tasks []*Task `json:"tasks,omitempty" gorm:"foreignKey:MilestoneID;references:ID"`
}
