package pricing

import (
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// UnitPrice applies a promotion to the product's base unit price for the
// requested quantity.
//
// Flat percentage discounts scale the base price; flat absolute discounts
// subtract from it and floor at zero. Tiered promotions pick the tier with
// the largest threshold the quantity reaches; below every threshold the base
// price applies unchanged.
func UnitPrice(base decimal.Decimal, promotion *models.Promotion, quantity int) decimal.Decimal {
	if promotion == nil || quantity <= 0 {
		return base
	}

	switch promotion.Type {
	case enums.PromotionTypeFlat:
		return flatUnitPrice(base, promotion)
	case enums.PromotionTypeTiered:
		return tieredUnitPrice(base, promotion.Tiers, quantity)
	default:
		return base
	}
}

// Total is the line total for quantity units at the given unit price.
func Total(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func flatUnitPrice(base decimal.Decimal, promotion *models.Promotion) decimal.Decimal {
	if promotion.DiscountMode == nil || promotion.DiscountValue == nil {
		return base
	}

	var discounted decimal.Decimal
	switch *promotion.DiscountMode {
	case enums.DiscountModePercentage:
		discounted = base.Sub(base.Mul(*promotion.DiscountValue).Div(oneHundred))
	case enums.DiscountModeAbsolute:
		discounted = base.Sub(*promotion.DiscountValue)
	default:
		return base
	}

	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

func tieredUnitPrice(base decimal.Decimal, tiers []models.DiscountTier, quantity int) decimal.Decimal {
	bestThreshold := 0
	price := base
	for _, tier := range tiers {
		if tier.MinQuantity <= quantity && tier.MinQuantity > bestThreshold {
			bestThreshold = tier.MinQuantity
			price = tier.PricePerItem
		}
	}
	return price
}
