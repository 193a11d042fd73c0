package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/internal/catalog"
	"github.com/jortegadev/ims-backend/internal/inventory"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/logger"
	"github.com/jortegadev/ims-backend/pkg/metrics"
	"github.com/jortegadev/ims-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service defines the order fulfillment operations exposed to controllers.
type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error)
	ListOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*OrderPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error)
}

type service struct {
	client  *db.Client
	repo    *Repository
	catalog *catalog.Repository
	logg    *logger.Logger
	metrics *metrics.FulfillmentMetrics
	now     func() time.Time
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Client  *db.Client
	Logger  *logger.Logger
	Metrics *metrics.FulfillmentMetrics
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		client:  params.Client,
		repo:    NewRepository(params.Client.DB()),
		catalog: catalog.NewRepository(params.Client.DB()),
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

// CreateOrder validates the request, resolves bundle demand, deducts stock
// for every line, and commits the order. The whole operation is one
// transaction: if any product cannot cover its accumulated demand nothing is
// deducted and no order row exists afterwards.
func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	started := s.now()

	if len(req.Items) == 0 {
		s.metrics.IncRejected("empty_order")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			s.metrics.IncRejected("invalid_quantity")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	order := &models.PurchaseOrder{
		ID:        uuid.New(),
		Status:    enums.OrderStatusPending,
		OrderedAt: s.now(),
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txCatalog := s.catalog.WithTx(tx)
		txRepo := s.repo.WithTx(tx)

		requirements, err := s.accumulateDemand(ctx, txCatalog, req.Items)
		if err != nil {
			return err
		}

		lines, err := s.captureLines(ctx, txCatalog, order.ID, req.Items)
		if err != nil {
			return err
		}
		order.Items = lines

		if err := inventory.Reserve(ctx, tx, requirements); err != nil {
			return err
		}
		if err := inventory.RecordMovements(ctx, tx, order.ID, requirements); err != nil {
			return err
		}

		if _, err := txRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveDuration("rejected", s.now().Sub(started))
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejected(rejectionReason(typed.Code()))
		} else {
			s.metrics.IncRejected("internal")
		}
		return nil, err
	}

	s.metrics.IncCreated()
	s.metrics.ObserveDuration("committed", s.now().Sub(started))
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "order created")
	}

	return s.GetOrder(ctx, order.ID)
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *service) ListOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*OrderPage, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	page := &OrderPage{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		page.Items = append(page.Items, toOrderResponse(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// UpdateStatus applies the lifecycle machine. Cancelling a pending order
// replays its stock movements in reverse so every deducted unit returns.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status")
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already finalized").
				WithDetails(map[string]any{"status": order.Status})
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{
					"from": order.Status,
					"to":   target,
				})
		}

		if target == enums.OrderStatusCancelled {
			movements, err := inventory.MovementsForOrder(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			if err := inventory.Release(ctx, tx, movements); err != nil {
				return err
			}
			s.metrics.IncReleased()
		}

		if err := txRepo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id": id.String(),
			"status":   target.String(),
		})
		s.logg.Info(ctx, "order status updated")
	}
	return s.GetOrder(ctx, id)
}

// accumulateDemand resolves every line through the bundle tree and merges the
// per-product requirements in first-appearance order, so the first product
// that cannot be covered is deterministic for a given request.
func (s *service) accumulateDemand(ctx context.Context, txCatalog *catalog.Repository, items []OrderItemInput) ([]inventory.Requirement, error) {
	totals := make(map[uuid.UUID]int)
	var order []uuid.UUID

	for _, item := range items {
		demand, err := catalog.ResolveDemand(ctx, txCatalog, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		for _, d := range demand {
			if _, seen := totals[d.ProductID]; !seen {
				order = append(order, d.ProductID)
			}
			totals[d.ProductID] += d.Quantity
		}
	}

	requirements := make([]inventory.Requirement, 0, len(order))
	for _, productID := range order {
		requirements = append(requirements, inventory.Requirement{
			ProductID: productID,
			Quantity:  totals[productID],
		})
	}
	return requirements, nil
}

// captureLines snapshots name and price for each ordered product as of now.
func (s *service) captureLines(ctx context.Context, txCatalog *catalog.Repository, orderID uuid.UUID, items []OrderItemInput) ([]models.OrderLineItem, error) {
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		product, err := txCatalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.NotFound("product")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		lines = append(lines, models.OrderLineItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
		})
	}
	return lines, nil
}

func rejectionReason(code pkgerrors.Code) string {
	switch code {
	case pkgerrors.CodeInsufficientStock:
		return "insufficient_stock"
	case pkgerrors.CodeNotFound:
		return "unknown_product"
	case pkgerrors.CodeValidation:
		return "validation"
	case pkgerrors.CodeStateConflict:
		return "bundle_conflict"
	default:
		return "internal"
	}
}
