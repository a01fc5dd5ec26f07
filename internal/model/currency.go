package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VATLabel selects how tax is labelled for a currency.
const (
	VATLabelVAT      = "VAT"
	VATLabelSalesTax = "SalesTax"
)

// Currency is immutable reference data.
type Currency struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Code     string    `gorm:"type:varchar(3);not null" json:"code"` // ISO 4217
	Symbol   string    `gorm:"type:varchar(5);not null" json:"symbol"`
	VATLabel string    `gorm:"type:varchar(10);not null;default:'VAT'" json:"vat_label"`
}

func (c *Currency) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (c Currency) String() string {
	return c.Name + " (" + c.Symbol + ")"
}

// TaxLabel is the human label for the tax column, e.g. "VAT" or "Sales Tax".
func (c Currency) TaxLabel() string {
	if c.VATLabel == VATLabelSalesTax {
		return "Sales Tax"
	}
	return "VAT"
}

// Category is a receipt category such as Meal or Taxi.
type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
