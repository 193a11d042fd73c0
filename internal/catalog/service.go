package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/logger"
	"github.com/jortegadev/ims-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines the catalog operations exposed to controllers.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error)
	ListProducts(ctx context.Context, params pagination.Params) (*ProductPage, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context) ([]ProductResponse, error)
	ImportCSV(ctx context.Context, reader io.Reader) (*ImportSummary, error)
	ExportCSV(ctx context.Context, writer io.Writer) error
}

type service struct {
	client            *db.Client
	repo              *Repository
	logg              *logger.Logger
	lowStockThreshold int
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Client            *db.Client
	Logger            *logger.Logger
	LowStockThreshold int
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	threshold := params.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}
	return &service{
		client:            params.Client,
		repo:              NewRepository(params.Client.DB()),
		logg:              params.Logger,
		lowStockThreshold: threshold,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err := validateProductFields(req.Name, req.Price, req.Quantity, req.IsBundle, req.Components); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Size:        req.Size,
		Color:       req.Color,
		IsBundle:    req.IsBundle,
	}
	if product.IsBundle {
		// Bundles never hold stock of their own.
		product.Quantity = 0
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := txRepo.FindByName(ctx, product.Name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "product name already in use")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product name")
		}

		if _, err := txRepo.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "idx_products_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product name already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}

		if product.IsBundle {
			if err := s.writeComponents(ctx, txRepo, product.ID, req.Components); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	if err := validateProductFields(req.Name, req.Price, req.Quantity, req.IsBundle, req.Components); err != nil {
		return nil, err
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		name := strings.TrimSpace(req.Name)
		if name != product.Name {
			if _, err := txRepo.FindByName(ctx, name); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "product name already in use")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product name")
			}
		}

		product.Name = name
		product.Description = req.Description
		product.Price = req.Price
		product.Quantity = req.Quantity
		product.Size = req.Size
		product.Color = req.Color
		product.IsBundle = req.IsBundle
		if product.IsBundle {
			product.Quantity = 0
		}

		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}

		if product.IsBundle {
			return s.writeComponents(ctx, txRepo, product.ID, req.Components)
		}
		return txRepo.ReplaceComponents(ctx, product.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, id)
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repo.FindByIDWithComponents(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	available, err := s.availability(ctx, product)
	if err != nil {
		return nil, err
	}

	resp := toProductResponse(product, available)
	return &resp, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	products, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	page := &ProductPage{}
	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}

	for i := range products {
		available, err := s.availability(ctx, &products[i])
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, toProductResponse(&products[i], available))
	}

	if hasMore {
		last := products[len(products)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := txRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		bundleRefs, err := txRepo.CountBundleReferences(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bundle references")
		}
		if bundleRefs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is a component of existing bundles").
				WithDetails(map[string]any{"bundle_references": bundleRefs})
		}

		orderRefs, err := txRepo.CountOrderReferences(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count order references")
		}
		if orderRefs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by existing orders").
				WithDetails(map[string]any{"order_references": orderRefs})
		}

		if err := txRepo.ReplaceComponents(ctx, id, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove components")
		}
		if err := txRepo.DeleteProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func (s *service) ListLowStock(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.repo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}

	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i], products[i].Quantity))
	}
	return out, nil
}

// writeComponents validates and persists a bundle's component set, then walks
// the resulting tree to reject cycles before commit.
func (s *service) writeComponents(ctx context.Context, txRepo *Repository, bundleID uuid.UUID, inputs []ComponentInput) error {
	seen := map[uuid.UUID]bool{}
	components := make([]models.BundleComponent, 0, len(inputs))
	for _, input := range inputs {
		if input.ProductID == bundleID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bundle cannot contain itself")
		}
		if seen[input.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate component in bundle")
		}
		seen[input.ProductID] = true

		if _, err := txRepo.FindByID(ctx, input.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("component product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load component")
		}

		quantity := input.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		components = append(components, models.BundleComponent{
			ID:          uuid.New(),
			BundleID:    bundleID,
			ComponentID: input.ProductID,
			Quantity:    quantity,
			Position:    len(components),
		})
	}

	if err := txRepo.ReplaceComponents(ctx, bundleID, components); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace components")
	}

	if _, err := ResolveDemand(ctx, txRepo, bundleID, 1); err != nil {
		return err
	}
	return nil
}

// availability resolves the sellable quantity for a product.
func (s *service) availability(ctx context.Context, product *models.Product) (int, error) {
	if !product.IsBundle {
		return product.Quantity, nil
	}

	demand, err := ResolveDemand(ctx, s.repo, product.ID, 1)
	if err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, 0, len(demand))
	for _, d := range demand {
		ids = append(ids, d.ProductID)
	}
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load component stock")
	}

	stock := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		stock[row.ID] = row.Quantity
	}
	return BundleAvailability(demand, stock), nil
}

func validateProductFields(name string, price decimal.Decimal, quantity int, isBundle bool, components []ComponentInput) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if isBundle && len(components) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "bundle requires at least one component")
	}
	if !isBundle && len(components) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "components are only valid on bundles")
	}
	return nil
}
