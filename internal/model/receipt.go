package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultReceiptDescription replaces a blank receipt description.
const DefaultReceiptDescription = "None"

// Receipt is a single expense line on a claim.
type Receipt struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"claim_id"`
	Reference    string          `gorm:"type:varchar(8);uniqueIndex;not null" json:"reference"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	DateIncurred time.Time       `gorm:"type:date;not null" json:"date_incurred"`
	CategoryID   uuid.UUID       `gorm:"type:uuid;not null" json:"category_id"`
	Category     *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // > 0
	VAT          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"vat"`    // 0 <= vat < amount
	Description  string          `gorm:"type:varchar(50);not null" json:"description"`
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// VATPercent is the receipt VAT as a whole percentage of its amount.
func (r Receipt) VATPercent() (decimal.Decimal, bool) {
	return percentOf(r.VAT, r.Amount)
}

// Feedback is an immutable comment left when a claim is returned.
type Feedback struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"claim_id"`
	AuthorID   *uuid.UUID `gorm:"type:uuid" json:"author_id"`
	Author     *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL;" json:"author,omitempty"`
	Comment    string     `gorm:"type:varchar(300);not null" json:"comment"`
	ActionDesc string     `gorm:"type:varchar(50);not null" json:"action_desc"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}
