package repository

import (
	"context"

	"expenses/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceDataRepository reads the seeded currencies and categories.
type ReferenceDataRepository interface {
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
	GetCurrencyByName(ctx context.Context, name string) (*model.Currency, error)
	GetCurrencyByID(ctx context.Context, id uuid.UUID) (*model.Currency, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
}

type referenceDataRepository struct {
	db *gorm.DB
}

func NewReferenceDataRepository(db *gorm.DB) ReferenceDataRepository {
	return &referenceDataRepository{db: db}
}

func (r *referenceDataRepository) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	var currencies []model.Currency
	err := GetDB(ctx, r.db).Order("name").Find(&currencies).Error
	return currencies, err
}

func (r *referenceDataRepository) GetCurrencyByName(ctx context.Context, name string) (*model.Currency, error) {
	var currency model.Currency
	if err := GetDB(ctx, r.db).First(&currency, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *referenceDataRepository) GetCurrencyByID(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	var currency model.Currency
	if err := GetDB(ctx, r.db).First(&currency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *referenceDataRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := GetDB(ctx, r.db).Order("name").Find(&categories).Error
	return categories, err
}

func (r *referenceDataRepository) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
