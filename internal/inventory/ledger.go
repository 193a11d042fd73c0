package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"gorm.io/gorm"
)

// Requirement is one product deduction to apply. Order matters: callers see
// the first failing requirement in their submitted order.
type Requirement struct {
	ProductID uuid.UUID
	Quantity  int
}

// Reserve deducts stock for every requirement inside the caller's
// transaction. Each deduction is a conditional update guarded by the current
// quantity, so two concurrent transactions can never drive stock negative.
// The first requirement that cannot be covered aborts with an
// INSUFFICIENT_STOCK error carrying the product and both quantities.
func Reserve(ctx context.Context, tx *gorm.DB, requirements []Requirement) error {
	if len(requirements) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no stock requirements provided")
	}

	for _, req := range requirements {
		if req.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "requirement quantity must be positive")
		}

		result := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", req.ProductID, req.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", req.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "deduct stock")
		}
		if result.RowsAffected == 0 {
			return insufficientStockError(ctx, tx, req)
		}
	}
	return nil
}

// Release returns previously deducted stock. Used by order cancellation.
func Release(ctx context.Context, tx *gorm.DB, movements []models.StockMovement) error {
	for _, movement := range movements {
		if movement.Quantity <= 0 {
			continue
		}
		result := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", movement.ProductID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", movement.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "release stock")
		}
	}
	return nil
}

// RecordMovements persists one ledger row per requirement so a later
// cancellation can release exactly what this order deducted.
func RecordMovements(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, requirements []Requirement) error {
	if len(requirements) == 0 {
		return nil
	}
	movements := make([]models.StockMovement, 0, len(requirements))
	for _, req := range requirements {
		movements = append(movements, models.StockMovement{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
	}
	if err := tx.WithContext(ctx).Create(&movements).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record stock movements")
	}
	return nil
}

// MovementsForOrder loads the ledger rows written when the order was fulfilled.
func MovementsForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&movements).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stock movements")
	}
	return movements, nil
}

func insufficientStockError(ctx context.Context, tx *gorm.DB, req Requirement) error {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("product")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return pkgerrors.InsufficientStock(product.ID.String(), product.Name, req.Quantity, product.Quantity)
}
