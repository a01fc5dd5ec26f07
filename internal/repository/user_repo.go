package repository

import (
	"context"

	"expenses/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	// HasReports reports whether any user names one of managerIDs as manager.
	HasReports(ctx context.Context, managerIDs ...uuid.UUID) (bool, error)
	// SubstitutedManagerIDs returns the users whose substitute is id.
	SubstitutedManagerIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

// GetByID loads the user with its default currency and its manager's
// substitute link, which is what the access checks need.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).
		Preload("DefaultCurrency").
		Preload("Manager").
		Preload("Substitute").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("email").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(user).Error
}

// Delete removes the user with the claims they own. References to the user from
// other rows are nulled first so the outcome does not depend on the driver
// enforcing ON DELETE actions.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Where("manager_id = ?", id).Update("manager_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&model.User{}).Where("substitute_id = ?", id).Update("substitute_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Claim{}).Where("approved_by_id = ?", id).Update("approved_by_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Feedback{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&model.AuditLog{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
		return err
	}
	owned := db.Session(&gorm.Session{NewDB: true}).Model(&model.Claim{}).Select("id").Where("owner_id = ?", id)
	if err := db.Where("claim_id IN (?)", owned).Delete(&model.Receipt{}).Error; err != nil {
		return err
	}
	if err := db.Where("claim_id IN (?)", owned).Delete(&model.Feedback{}).Error; err != nil {
		return err
	}
	if err := db.Where("owner_id = ?", id).Delete(&model.Claim{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepository) HasReports(ctx context.Context, managerIDs ...uuid.UUID) (bool, error) {
	if len(managerIDs) == 0 {
		return false, nil
	}
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("manager_id IN ?", managerIDs).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) SubstitutedManagerIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Where("substitute_id = ?", id).
		Pluck("id", &ids).Error
	return ids, err
}
