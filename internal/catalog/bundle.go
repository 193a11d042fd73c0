package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"gorm.io/gorm"
)

// componentSource loads a product together with its direct components.
type componentSource interface {
	FindByIDWithComponents(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Demand is one simple product's accumulated requirement. The slice a
// resolution returns is ordered by first appearance in the depth-first walk,
// so downstream consumers (stock deduction, error reporting) behave the same
// way for the same input.
type Demand struct {
	ProductID uuid.UUID
	Quantity  int
}

// ResolveDemand walks the bundle tree and returns the per-simple-product
// quantities needed to assemble count units of the given product. A simple
// product resolves to itself. Nested bundles multiply through: a bundle
// holding 2x of a sub-bundle that holds 3x of a part needs 6 parts per unit.
func ResolveDemand(ctx context.Context, source componentSource, productID uuid.UUID, count int) ([]Demand, error) {
	if count <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	acc := &demandAccumulator{positions: map[uuid.UUID]int{}}
	if err := resolveDemand(ctx, source, productID, count, map[uuid.UUID]bool{}, acc); err != nil {
		return nil, err
	}
	return acc.demands, nil
}

// demandAccumulator merges repeated components while remembering where each
// product first appeared.
type demandAccumulator struct {
	positions map[uuid.UUID]int
	demands   []Demand
}

func (a *demandAccumulator) add(id uuid.UUID, qty int) {
	if pos, ok := a.positions[id]; ok {
		a.demands[pos].Quantity += qty
		return
	}
	a.positions[id] = len(a.demands)
	a.demands = append(a.demands, Demand{ProductID: id, Quantity: qty})
}

func resolveDemand(ctx context.Context, source componentSource, id uuid.UUID, count int, path map[uuid.UUID]bool, acc *demandAccumulator) error {
	if path[id] {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "bundle definition contains a cycle")
	}

	product, err := source.FindByIDWithComponents(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("product")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if !product.IsBundle {
		acc.add(id, count)
		return nil
	}

	if len(product.Components) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "bundle has no components")
	}

	path[id] = true
	defer delete(path, id)

	for _, comp := range product.Components {
		mult := comp.Quantity
		if mult <= 0 {
			mult = 1
		}
		if err := resolveDemand(ctx, source, comp.ComponentID, count*mult, path, acc); err != nil {
			return err
		}
	}
	return nil
}

// BundleAvailability computes how many units of a bundle can be assembled
// from the provided on-hand stock. unitDemand must be the resolution for a
// single unit.
func BundleAvailability(unitDemand []Demand, stock map[uuid.UUID]int) int {
	if len(unitDemand) == 0 {
		return 0
	}
	available := -1
	for _, d := range unitDemand {
		if d.Quantity <= 0 {
			continue
		}
		can := stock[d.ProductID] / d.Quantity
		if available < 0 || can < available {
			available = can
		}
	}
	if available < 0 {
		return 0
	}
	return available
}
