package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/internal/catalog"
	"github.com/jortegadev/ims-backend/internal/promotions"
	"github.com/jortegadev/ims-backend/pkg/db"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteRequest asks for the effective price of a quantity of one product.
type QuoteRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// QuoteResponse reports the pricing outcome. PromotionID is set when a
// promotion changed the unit price.
type QuoteResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	BasePrice   decimal.Decimal `json:"base_price"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	PromotionID *uuid.UUID      `json:"promotion_id,omitempty"`
}

// Service quotes effective prices using the catalog and active promotions.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
}

type service struct {
	catalog    *catalog.Repository
	promotions *promotions.Repository
}

// ServiceParams bundles the dependencies required to build a pricing service.
type ServiceParams struct {
	Client *db.Client
}

// NewService constructs a pricing service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		catalog:    catalog.NewRepository(params.Client.DB()),
		promotions: promotions.NewRepository(params.Client.DB()),
	}, nil
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	promotion, err := s.promotions.ActiveForProduct(ctx, req.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promotion")
	}

	unit := UnitPrice(product.Price, promotion, req.Quantity)

	resp := &QuoteResponse{
		ProductID: product.ID,
		Quantity:  req.Quantity,
		BasePrice: product.Price,
		UnitPrice: unit,
		Total:     Total(unit, req.Quantity),
	}
	if promotion != nil && !unit.Equal(product.Price) {
		id := promotion.ID
		resp.PromotionID = &id
	}
	return resp, nil
}
