package promotions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes promotion persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the promotion together with its tiers.
func (r *Repository) Create(ctx context.Context, promotion *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promotion).Error; err != nil {
		return nil, err
	}
	return promotion, nil
}

// Update saves promotion fields without touching tiers.
func (r *Repository) Update(ctx context.Context, promotion *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Omit("Tiers").Save(promotion).Error; err != nil {
		return nil, err
	}
	return promotion, nil
}

// Delete removes the promotion and its tiers.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("promotion_id = ?", id).Delete(&models.DiscountTier{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Promotion{}).Error
}

// FindByID loads a promotion with its tiers ordered by threshold.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity ASC")
		}).
		First(&promotion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promotion, nil
}

// ListByProduct returns the product's promotions, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Promotion, error) {
	var promotions []models.Promotion
	if err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity ASC")
		}).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

// ActiveForProduct returns the promotion that currently prices the product:
// the most recently created one. Returns nil when the product has none.
func (r *Repository) ActiveForProduct(ctx context.Context, productID uuid.UUID) (*models.Promotion, error) {
	promotions, err := r.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(promotions) == 0 {
		return nil, nil
	}
	return &promotions[0], nil
}

// ReplaceTiers swaps the promotion's tier ladder atomically.
func (r *Repository) ReplaceTiers(ctx context.Context, promotionID uuid.UUID, tiers []models.DiscountTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("promotion_id = ?", promotionID).Delete(&models.DiscountTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return tx.Create(&tiers).Error
}
