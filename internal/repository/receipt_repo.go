package repository

import (
	"context"

	"expenses/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	Save(ctx context.Context, receipt *model.Receipt) error
	Delete(ctx context.Context, receipt *model.Receipt) error
	FindByReference(ctx context.Context, ref string) (*model.Receipt, error)
	// Exists implements reference.Checker for receipt references.
	Exists(ctx context.Context, ref string) (bool, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.Receipt) error {
	// Savepoint, so a duplicate reference leaves the outer transaction usable for a retry.
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(receipt).Error
	})
}

func (r *receiptRepository) Save(ctx context.Context, receipt *model.Receipt) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(receipt).Error
}

func (r *receiptRepository) Delete(ctx context.Context, receipt *model.Receipt) error {
	return GetDB(ctx, r.db).Delete(&model.Receipt{}, "id = ?", receipt.ID).Error
}

func (r *receiptRepository) FindByReference(ctx context.Context, ref string) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := GetDB(ctx, r.db).Preload("Category").First(&receipt, "reference = ?", ref).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) Exists(ctx context.Context, ref string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Receipt{}).Where("reference = ?", ref).Count(&count).Error
	return count > 0, err
}
