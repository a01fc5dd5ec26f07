package database

import (
	"context"
	"fmt"

	"expenses/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var defaultCurrencies = []model.Currency{
	{Name: "Pound Sterling", Code: "GBP", Symbol: "£", VATLabel: model.VATLabelVAT},
	{Name: "Euro", Code: "EUR", Symbol: "€", VATLabel: model.VATLabelVAT},
	{Name: "US Dollar", Code: "USD", Symbol: "$", VATLabel: model.VATLabelSalesTax},
}

var defaultCategories = []string{"Meal", "Taxi", "Hotel", "Travel", "Other"}

// Seed inserts the reference currencies and categories. Existing rows are kept.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range defaultCurrencies {
			currency := c
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
				Create(&currency).Error; err != nil {
				return fmt.Errorf("seed currency %s: %w", c.Name, err)
			}
		}
		for _, name := range defaultCategories {
			category := model.Category{Name: name}
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
				Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", name, err)
			}
		}
		return nil
	})
}
