package models

import "time"

// Project represents a construction project decomposed into milestones.
type Project struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	OwnerID     string     `json:"owner_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Name        string     `json:"name" gorm:"not null" validate:"required"`
	Description string     `json:"description" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	// Milestones are ordered by creation time; the order is display-only.
	Milestones []*Milestone `json:"milestones,omitempty" gorm:"foreignKey:ProjectID;references:ID"`
}
