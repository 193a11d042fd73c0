package promotions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var percentCeiling = decimal.NewFromInt(100)

// Service defines the promotion operations exposed to controllers.
type Service interface {
	CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*PromotionResponse, error)
	UpdatePromotion(ctx context.Context, id uuid.UUID, req UpdatePromotionRequest) (*PromotionResponse, error)
	GetPromotion(ctx context.Context, id uuid.UUID) (*PromotionResponse, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]PromotionResponse, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) error
}

type service struct {
	client *db.Client
	repo   *Repository
	logg   *logger.Logger
}

// ServiceParams bundles the dependencies required to build a promotions service.
type ServiceParams struct {
	Client *db.Client
	Logger *logger.Logger
}

// NewService constructs a promotions service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		client: params.Client,
		repo:   NewRepository(params.Client.DB()),
		logg:   params.Logger,
	}, nil
}

func (s *service) CreatePromotion(ctx context.Context, req CreatePromotionRequest) (*PromotionResponse, error) {
	promoType, mode, value, err := validateDefinition(req.Type, req.DiscountMode, req.DiscountValue, req.Tiers)
	if err != nil {
		return nil, err
	}

	promotion := &models.Promotion{
		ID:            uuid.New(),
		Description:   req.Description,
		Type:          promoType,
		ProductID:     req.ProductID,
		DiscountMode:  mode,
		DiscountValue: value,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		var product models.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		if _, err := txRepo.Create(ctx, promotion); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create promotion")
		}
		if promoType == enums.PromotionTypeTiered {
			return txRepo.ReplaceTiers(ctx, promotion.ID, buildTiers(promotion.ID, req.Tiers))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "promotion_id", promotion.ID.String()), "promotion created")
	}
	return s.GetPromotion(ctx, promotion.ID)
}

func (s *service) UpdatePromotion(ctx context.Context, id uuid.UUID, req UpdatePromotionRequest) (*PromotionResponse, error) {
	promoType, mode, value, err := validateDefinition(req.Type, req.DiscountMode, req.DiscountValue, req.Tiers)
	if err != nil {
		return nil, err
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		promotion, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("promotion")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promotion")
		}

		promotion.Description = req.Description
		promotion.Type = promoType
		promotion.DiscountMode = mode
		promotion.DiscountValue = value

		if _, err := txRepo.Update(ctx, promotion); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update promotion")
		}

		if promoType == enums.PromotionTypeTiered {
			return txRepo.ReplaceTiers(ctx, promotion.ID, buildTiers(promotion.ID, req.Tiers))
		}
		return txRepo.ReplaceTiers(ctx, promotion.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.GetPromotion(ctx, id)
}

func (s *service) GetPromotion(ctx context.Context, id uuid.UUID) (*PromotionResponse, error) {
	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("promotion")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promotion")
	}
	resp := toPromotionResponse(promotion)
	return &resp, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]PromotionResponse, error) {
	promotions, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list promotions")
	}
	out := make([]PromotionResponse, 0, len(promotions))
	for i := range promotions {
		out = append(out, toPromotionResponse(&promotions[i]))
	}
	return out, nil
}

func (s *service) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("promotion")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promotion")
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete promotion")
		}
		return nil
	})
}

// validateDefinition checks the type-specific shape of a promotion payload.
func validateDefinition(rawType string, rawMode *string, value *decimal.Decimal, tiers []TierInput) (enums.PromotionType, *enums.DiscountMode, *decimal.Decimal, error) {
	promoType, err := enums.ParsePromotionType(rawType)
	if err != nil {
		return "", nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse promotion type")
	}

	switch promoType {
	case enums.PromotionTypeFlat:
		if len(tiers) > 0 {
			return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tiers are only valid on tiered promotions")
		}
		if rawMode == nil || value == nil {
			return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "flat promotion requires discount_mode and discount_value")
		}
		mode, err := enums.ParseDiscountMode(*rawMode)
		if err != nil {
			return "", nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse discount mode")
		}
		if value.IsNegative() {
			return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_value cannot be negative")
		}
		if mode == enums.DiscountModePercentage && value.GreaterThan(percentCeiling) {
			return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
		}
		return promoType, &mode, value, nil

	case enums.PromotionTypeTiered:
		if rawMode != nil || value != nil {
			return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tiered promotion does not take discount_mode or discount_value")
		}
		if len(tiers) == 0 {
			return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tiered promotion requires at least one tier")
		}
		seen := map[int]bool{}
		for _, tier := range tiers {
			if tier.MinQuantity <= 0 {
				return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tier min_quantity must be positive")
			}
			if seen[tier.MinQuantity] {
				return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tier thresholds must be distinct")
			}
			seen[tier.MinQuantity] = true
			if tier.PricePerItem.IsNegative() {
				return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tier price_per_item cannot be negative")
			}
		}
		return promoType, nil, nil, nil
	}

	return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported promotion type")
}

func buildTiers(promotionID uuid.UUID, inputs []TierInput) []models.DiscountTier {
	tiers := make([]models.DiscountTier, 0, len(inputs))
	for _, input := range inputs {
		tiers = append(tiers, models.DiscountTier{
			ID:           uuid.New(),
			PromotionID:  promotionID,
			MinQuantity:  input.MinQuantity,
			PricePerItem: input.PricePerItem,
		})
	}
	return tiers
}
