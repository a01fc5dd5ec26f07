package repository

import (
	"context"
	"errors"
	"time"

	"expenses/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimOrder names the timestamp a claim listing is ordered by, newest first.
// Rows sharing a timestamp are ordered by id, also descending.
type ClaimOrder string

const (
	OrderByStatusUpdated ClaimOrder = "status_updated_at"
	OrderBySubmitted     ClaimOrder = "submitted_at"
)

// ClaimQuery selects the claims of one listing view.
type ClaimQuery struct {
	// OwnerID restricts to one owner's claims.
	OwnerID *uuid.UUID
	// ExcludeOwnerID drops this owner's claims.
	ExcludeOwnerID *uuid.UUID
	// ManagerIDs restricts to claims whose owner reports to one of these users.
	// A non-nil empty slice matches nothing.
	ManagerIDs []uuid.UUID
	// Statuses restricts to these codes; nil matches any status.
	Statuses []model.ClaimStatus
	Order    ClaimOrder
}

func (q ClaimQuery) matchesNothing() bool {
	return q.ManagerIDs != nil && len(q.ManagerIDs) == 0
}

// ClaimRepository defines data access for claims and their feedback.
type ClaimRepository interface {
	Create(ctx context.Context, claim *model.Claim) error
	Save(ctx context.Context, claim *model.Claim) error
	Delete(ctx context.Context, claim *model.Claim) error
	FindByReference(ctx context.Context, ref string) (*model.Claim, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	// Exists implements reference.Checker for claim references.
	Exists(ctx context.Context, ref string) (bool, error)
	AddFeedback(ctx context.Context, feedback *model.Feedback) error
	Count(ctx context.Context, q ClaimQuery) (int64, error)
	// ListFrom returns up to limit claims starting at the rangeMin-th row
	// (1-based) of the query's ordering.
	ListFrom(ctx context.Context, q ClaimQuery, rangeMin, limit int) ([]model.Claim, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim) error {
	// Savepoint, so a duplicate reference leaves the outer transaction usable for a retry.
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(claim).Error
	})
}

func (r *claimRepository) Save(ctx context.Context, claim *model.Claim) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(claim).Error
}

// Delete removes the claim together with its receipts and feedback.
func (r *claimRepository) Delete(ctx context.Context, claim *model.Claim) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("claim_id = ?", claim.ID).Delete(&model.Receipt{}).Error; err != nil {
		return err
	}
	if err := db.Where("claim_id = ?", claim.ID).Delete(&model.Feedback{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Claim{}, "id = ?", claim.ID).Error
}

// FindByReference loads the claim with everything a detail view and the access
// checks need: owner and manager, currency, receipts and feedback.
func (r *claimRepository) FindByReference(ctx context.Context, ref string) (*model.Claim, error) {
	return r.findDetailed(ctx, "reference = ?", ref)
}

func (r *claimRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	return r.findDetailed(ctx, "id = ?", id)
}

func (r *claimRepository) findDetailed(ctx context.Context, query string, arg interface{}) (*model.Claim, error) {
	var claim model.Claim
	err := GetDB(ctx, r.db).
		Preload("Owner.Manager").
		Preload("Currency").
		Preload("ApprovedBy").
		Preload("Receipts", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_incurred, created_at, id")
		}).
		Preload("Receipts.Category").
		Preload("Feedback", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		Preload("Feedback.Author").
		First(&claim, query, arg).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) Exists(ctx context.Context, ref string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Claim{}).Where("reference = ?", ref).Count(&count).Error
	return count > 0, err
}

func (r *claimRepository) AddFeedback(ctx context.Context, feedback *model.Feedback) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(feedback).Error
}

func (r *claimRepository) Count(ctx context.Context, q ClaimQuery) (int64, error) {
	if q.matchesNothing() {
		return 0, nil
	}
	var total int64
	db := GetDB(ctx, r.db)
	err := db.Model(&model.Claim{}).Scopes(r.filter(db, q)).Count(&total).Error
	return total, err
}

// ListFrom finds the boundary row ranked rangeMin and returns the rows at or
// after it. Keying on (timestamp, id) keeps pages disjoint when timestamps tie.
func (r *claimRepository) ListFrom(ctx context.Context, q ClaimQuery, rangeMin, limit int) ([]model.Claim, error) {
	if q.matchesNothing() || rangeMin < 1 || limit < 1 {
		return nil, nil
	}
	db := GetDB(ctx, r.db)
	col := string(q.Order)
	order := col + " DESC, id DESC"

	var boundary model.Claim
	err := db.Model(&model.Claim{}).
		Scopes(r.filter(db, q)).
		Select("id", col).
		Order(order).
		Offset(rangeMin - 1).
		Limit(1).
		Take(&boundary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	key := orderKey(q.Order, &boundary)

	var claims []model.Claim
	err = db.Scopes(r.filter(db, q)).
		Where("("+col+" < ? OR ("+col+" = ? AND id <= ?))", key, key, boundary.ID).
		Preload("Owner").
		Preload("Currency").
		Preload("Receipts").
		Order(order).
		Limit(limit).
		Find(&claims).Error
	return claims, err
}

func (r *claimRepository) filter(db *gorm.DB, q ClaimQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if q.OwnerID != nil {
			tx = tx.Where("owner_id = ?", *q.OwnerID)
		}
		if q.ExcludeOwnerID != nil {
			tx = tx.Where("owner_id <> ?", *q.ExcludeOwnerID)
		}
		if q.ManagerIDs != nil {
			reports := db.Session(&gorm.Session{NewDB: true}).
				Model(&model.User{}).
				Select("id").
				Where("manager_id IN ?", q.ManagerIDs)
			tx = tx.Where("owner_id IN (?)", reports)
		}
		if q.Statuses != nil {
			tx = tx.Where("status IN ?", q.Statuses)
		}
		if q.Order == OrderBySubmitted {
			tx = tx.Where("submitted_at IS NOT NULL")
		}
		return tx
	}
}

func orderKey(order ClaimOrder, c *model.Claim) time.Time {
	if order == OrderBySubmitted && c.SubmittedAt != nil {
		return *c.SubmittedAt
	}
	return c.StatusUpdatedAt
}
