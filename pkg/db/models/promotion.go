package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Promotion prices a single product. Flat promotions carry a discount mode and
// value; tiered promotions carry a ladder of quantity thresholds instead.
type Promotion struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Description string              `gorm:"type:text" json:"description"`
	Type        enums.PromotionType `gorm:"size:32;not null" json:"type"`
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index:idx_promotions_product" json:"product_id"`

	DiscountMode  *enums.DiscountMode `gorm:"size:32" json:"discount_mode,omitempty"`
	DiscountValue *decimal.Decimal    `gorm:"type:numeric(12,2)" json:"discount_value,omitempty"`

	Tiers []DiscountTier `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE" json:"tiers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Promotion) TableName() string {
	return "promotions"
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DiscountTier is one rung of a tiered promotion: buy at least MinQuantity,
// pay PricePerItem for every unit.
type DiscountTier struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PromotionID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_discount_tiers_promotion" json:"promotion_id"`
	MinQuantity  int             `gorm:"not null" json:"min_quantity"`
	PricePerItem decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_per_item"`

	CreatedAt time.Time `json:"created_at"`
}

func (DiscountTier) TableName() string {
	return "discount_tiers"
}

func (d *DiscountTier) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
