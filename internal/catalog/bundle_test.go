package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"gorm.io/gorm"
)

type fakeSource struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeSource) FindByIDWithComponents(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func simple(name string) *models.Product {
	return &models.Product{ID: uuid.New(), Name: name}
}

func bundleOf(name string, comps ...models.BundleComponent) *models.Product {
	b := &models.Product{ID: uuid.New(), Name: name, IsBundle: true}
	for i := range comps {
		comps[i].BundleID = b.ID
	}
	b.Components = comps
	return b
}

func sourceFor(products ...*models.Product) *fakeSource {
	src := &fakeSource{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		src.products[p.ID] = p
	}
	return src
}

func demandFor(demands []Demand, id uuid.UUID) int {
	for _, d := range demands {
		if d.ProductID == id {
			return d.Quantity
		}
	}
	return 0
}

func TestResolveDemand_SimpleProduct(t *testing.T) {
	widget := simple("widget")
	src := sourceFor(widget)

	demand, err := ResolveDemand(context.Background(), src, widget.ID, 4)
	if err != nil {
		t.Fatalf("ResolveDemand returned error: %v", err)
	}
	if len(demand) != 1 || demand[0].ProductID != widget.ID || demand[0].Quantity != 4 {
		t.Fatalf("expected [{widget 4}], got %v", demand)
	}
}

func TestResolveDemand_NestedBundlesMultiply(t *testing.T) {
	part := simple("part")
	inner := bundleOf("inner", models.BundleComponent{ComponentID: part.ID, Quantity: 3})
	outer := bundleOf("outer", models.BundleComponent{ComponentID: inner.ID, Quantity: 2})
	src := sourceFor(part, inner, outer)

	demand, err := ResolveDemand(context.Background(), src, outer.ID, 5)
	if err != nil {
		t.Fatalf("ResolveDemand returned error: %v", err)
	}
	// 5 outers -> 10 inners -> 30 parts
	if got := demandFor(demand, part.ID); got != 30 {
		t.Fatalf("expected 30 parts, got %d", got)
	}
}

func TestResolveDemand_SharedComponentAccumulates(t *testing.T) {
	screw := simple("screw")
	left := bundleOf("left", models.BundleComponent{ComponentID: screw.ID, Quantity: 2})
	right := bundleOf("right", models.BundleComponent{ComponentID: screw.ID, Quantity: 1})
	kit := bundleOf("kit",
		models.BundleComponent{ComponentID: left.ID, Quantity: 1},
		models.BundleComponent{ComponentID: right.ID, Quantity: 1},
	)
	src := sourceFor(screw, left, right, kit)

	demand, err := ResolveDemand(context.Background(), src, kit.ID, 1)
	if err != nil {
		t.Fatalf("ResolveDemand returned error: %v", err)
	}
	if got := demandFor(demand, screw.ID); got != 3 {
		t.Fatalf("expected 3 screws, got %d", got)
	}
}

func TestResolveDemand_FirstAppearanceOrder(t *testing.T) {
	first := simple("first")
	second := simple("second")
	third := simple("third")
	sub := bundleOf("sub",
		models.BundleComponent{ComponentID: second.ID, Quantity: 1},
		models.BundleComponent{ComponentID: first.ID, Quantity: 2},
	)
	kit := bundleOf("kit",
		models.BundleComponent{ComponentID: first.ID, Quantity: 1},
		models.BundleComponent{ComponentID: sub.ID, Quantity: 1},
		models.BundleComponent{ComponentID: third.ID, Quantity: 1},
	)
	src := sourceFor(first, second, third, sub, kit)

	want := []uuid.UUID{first.ID, second.ID, third.ID}
	for i := 0; i < 20; i++ {
		demand, err := ResolveDemand(context.Background(), src, kit.ID, 1)
		if err != nil {
			t.Fatalf("ResolveDemand returned error: %v", err)
		}
		if len(demand) != 3 {
			t.Fatalf("expected 3 merged demands, got %d", len(demand))
		}
		for pos, id := range want {
			if demand[pos].ProductID != id {
				t.Fatalf("iteration %d: position %d holds %s, want %s", i, pos, demand[pos].ProductID, id)
			}
		}
		// The shared component merges into its first slot: 1 direct + 2 via sub.
		if demand[0].Quantity != 3 {
			t.Fatalf("expected merged quantity 3 for first, got %d", demand[0].Quantity)
		}
	}
}

func TestResolveDemand_CycleDetected(t *testing.T) {
	a := &models.Product{ID: uuid.New(), Name: "a", IsBundle: true}
	b := &models.Product{ID: uuid.New(), Name: "b", IsBundle: true}
	a.Components = []models.BundleComponent{{BundleID: a.ID, ComponentID: b.ID, Quantity: 1}}
	b.Components = []models.BundleComponent{{BundleID: b.ID, ComponentID: a.ID, Quantity: 1}}
	src := sourceFor(a, b)

	_, err := ResolveDemand(context.Background(), src, a.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for cyclic bundle, got %v", err)
	}
}

func TestResolveDemand_UnknownProduct(t *testing.T) {
	src := sourceFor()

	_, err := ResolveDemand(context.Background(), src, uuid.New(), 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolveDemand_EmptyBundleRejected(t *testing.T) {
	empty := &models.Product{ID: uuid.New(), Name: "empty", IsBundle: true}
	src := sourceFor(empty)

	_, err := ResolveDemand(context.Background(), src, empty.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for empty bundle, got %v", err)
	}
}

func TestBundleAvailability(t *testing.T) {
	partA := uuid.New()
	partB := uuid.New()

	demand := []Demand{{ProductID: partA, Quantity: 2}, {ProductID: partB, Quantity: 3}}
	stock := map[uuid.UUID]int{partA: 10, partB: 7}

	// 10/2 = 5, 7/3 = 2 -> limited by partB
	if got := BundleAvailability(demand, stock); got != 2 {
		t.Fatalf("expected availability 2, got %d", got)
	}

	if got := BundleAvailability(nil, stock); got != 0 {
		t.Fatalf("expected 0 for empty demand, got %d", got)
	}

	if got := BundleAvailability(demand, map[uuid.UUID]int{}); got != 0 {
		t.Fatalf("expected 0 when nothing in stock, got %d", got)
	}
}
