package promotions

import (
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// TierInput is one rung of a tiered promotion ladder.
type TierInput struct {
	MinQuantity  int             `json:"min_quantity" validate:"required,min=1"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
}

// CreatePromotionRequest attaches a promotion to a product. Flat promotions
// require a mode and value; tiered promotions require at least one tier.
type CreatePromotionRequest struct {
	Description   string           `json:"description" validate:"omitempty,max=4096"`
	Type          string           `json:"type" validate:"required"`
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	DiscountMode  *string          `json:"discount_mode"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	Tiers         []TierInput      `json:"tiers" validate:"omitempty,dive"`
}

// UpdatePromotionRequest replaces the promotion definition wholesale.
type UpdatePromotionRequest struct {
	Description   string           `json:"description" validate:"omitempty,max=4096"`
	Type          string           `json:"type" validate:"required"`
	DiscountMode  *string          `json:"discount_mode"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	Tiers         []TierInput      `json:"tiers" validate:"omitempty,dive"`
}

// TierResponse is the read projection of one tier.
type TierResponse struct {
	MinQuantity  int             `json:"min_quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
}

// PromotionResponse is the public projection of a promotion row.
type PromotionResponse struct {
	ID            uuid.UUID           `json:"id"`
	Description   string              `json:"description,omitempty"`
	Type          enums.PromotionType `json:"type"`
	ProductID     uuid.UUID           `json:"product_id"`
	DiscountMode  *enums.DiscountMode `json:"discount_mode,omitempty"`
	DiscountValue *decimal.Decimal    `json:"discount_value,omitempty"`
	Tiers         []TierResponse      `json:"tiers,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toPromotionResponse(promotion *models.Promotion) PromotionResponse {
	resp := PromotionResponse{
		ID:            promotion.ID,
		Description:   promotion.Description,
		Type:          promotion.Type,
		ProductID:     promotion.ProductID,
		DiscountMode:  promotion.DiscountMode,
		DiscountValue: promotion.DiscountValue,
		CreatedAt:     promotion.CreatedAt,
		UpdatedAt:     promotion.UpdatedAt,
	}
	for _, tier := range promotion.Tiers {
		resp.Tiers = append(resp.Tiers, TierResponse{
			MinQuantity:  tier.MinQuantity,
			PricePerItem: tier.PricePerItem,
		})
	}
	return resp
}
