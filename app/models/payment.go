package models

import (
	"time"

	"github.com/Guilleloma/BuildTrack-sub000/app/money"
)

// Payment represents money received against one or more milestones. Every
// payment owns at least one distribution row; a SINGLE payment has exactly
// one, a DISTRIBUTED payment one per target milestone. The sum of
// distribution amounts always equals Amount.
type Payment struct {
	ID            string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	Type          PaymentType   `json:"type" gorm:"not null;type:varchar(20)" validate:"required"`
	Amount        money.Money   `json:"amount" gorm:"not null;type:decimal(12,2)" validate:"required"`
	Description   string        `json:"description" gorm:"type:text"`
	PaymentDate   time.Time     `json:"payment_date" gorm:"not null;index" validate:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"not null;type:varchar(30)" validate:"required"`
	CreatedBy     string        `json:"created_by" gorm:"not null;index;type:uuid"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty" gorm:"index"`

	Distributions []*PaymentDistribution `json:"distributions,omitempty" gorm:"foreignKey:PaymentID;references:ID"`
}

// PaymentDistribution is one milestone's share of a payment.
type PaymentDistribution struct {
	ID          string      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	PaymentID   string      `json:"payment_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	MilestoneID string      `json:"milestone_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Amount      money.Money `json:"amount" gorm:"not null;type:decimal(12,2)" validate:"required"`
	Position    int         `json:"position" gorm:"not null;default:0"`
}

// DistributionFor returns the distribution targeting the given milestone,
// or nil if the payment does not touch it.
func (p *Payment) DistributionFor(milestoneID string) *PaymentDistribution {
	for _, d := range p.Distributions {
		if d.MilestoneID == milestoneID {
			return d
		}
	}
	return nil
}
