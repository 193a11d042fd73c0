package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.BundleComponent{},
		&models.PurchaseOrder{},
		&models.OrderLineItem{},
		&models.StockMovement{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(ServiceParams{Client: db.FromGorm(conn)})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, name, priceStr string, qty int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(priceStr),
		Quantity: qty,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

type componentSpec struct {
	productID uuid.UUID
	qty       int
}

func seedBundle(t *testing.T, conn *gorm.DB, name, priceStr string, comps ...componentSpec) *models.Product {
	t.Helper()
	bundle := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(priceStr),
		IsBundle: true,
	}
	if err := conn.Create(bundle).Error; err != nil {
		t.Fatalf("seed bundle %s: %v", name, err)
	}
	for i, spec := range comps {
		comp := &models.BundleComponent{
			ID:          uuid.New(),
			BundleID:    bundle.ID,
			ComponentID: spec.productID,
			Quantity:    spec.qty,
			Position:    i,
		}
		if err := conn.Create(comp).Error; err != nil {
			t.Fatalf("seed component: %v", err)
		}
	}
	return bundle
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := conn.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Quantity
}

func TestCreateOrder_SimpleProduct(t *testing.T) {
	svc, conn := newTestService(t)
	widget := seedProduct(t, conn, "widget", "12.50", 10)

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if resp.Status != enums.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", resp.Status)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(resp.Items))
	}
	line := resp.Items[0]
	if line.ProductName != "widget" || !line.UnitPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("unexpected captured line: %+v", line)
	}
	if !resp.Total.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected total 50.00, got %s", resp.Total)
	}
	if got := stockOf(t, conn, widget.ID); got != 6 {
		t.Fatalf("expected stock 6 after order, got %d", got)
	}
}

func TestCreateOrder_BundleDeductsComponents(t *testing.T) {
	svc, conn := newTestService(t)
	partA := seedProduct(t, conn, "part-a", "2.00", 10)
	partB := seedProduct(t, conn, "part-b", "3.00", 10)
	kit := seedBundle(t, conn, "kit", "9.99",
		componentSpec{partA.ID, 2},
		componentSpec{partB.ID, 1},
	)

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: kit.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	// The line captures the bundle itself at the bundle's price.
	if resp.Items[0].ProductID != kit.ID || !resp.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("unexpected bundle line: %+v", resp.Items[0])
	}

	if got := stockOf(t, conn, partA.ID); got != 4 {
		t.Fatalf("expected part-a stock 4, got %d", got)
	}
	if got := stockOf(t, conn, partB.ID); got != 7 {
		t.Fatalf("expected part-b stock 7, got %d", got)
	}

	var movements []models.StockMovement
	if err := conn.Where("order_id = ?", resp.ID).Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movement rows, got %d", len(movements))
	}
}

func TestCreateOrder_AllOrNothing(t *testing.T) {
	svc, conn := newTestService(t)
	plenty := seedProduct(t, conn, "plenty", "1.00", 100)
	scarce := seedProduct(t, conn, "scarce", "1.00", 2)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: plenty.ID, Quantity: 10},
			{ProductID: scarce.ID, Quantity: 5},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	if got := stockOf(t, conn, plenty.ID); got != 100 {
		t.Fatalf("expected plenty untouched at 100, got %d", got)
	}
	if got := stockOf(t, conn, scarce.ID); got != 2 {
		t.Fatalf("expected scarce untouched at 2, got %d", got)
	}

	var orderCount int64
	if err := conn.Model(&models.PurchaseOrder{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order rows, got %d", orderCount)
	}
}

func TestCreateOrder_DemandAccumulatesAcrossLines(t *testing.T) {
	svc, conn := newTestService(t)
	part := seedProduct(t, conn, "part", "1.00", 5)
	kit := seedBundle(t, conn, "kit", "4.00", componentSpec{part.ID, 2})

	// 2 kits need 4 parts, plus 2 direct parts = 6 > 5 in stock.
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: kit.ID, Quantity: 2},
			{ProductID: part.ID, Quantity: 2},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK on accumulated demand, got %v", err)
	}
	if got := stockOf(t, conn, part.ID); got != 5 {
		t.Fatalf("expected part stock untouched, got %d", got)
	}

	// 1 kit plus 2 direct parts = 4 <= 5 fits.
	if _, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: kit.ID, Quantity: 1},
			{ProductID: part.ID, Quantity: 2},
		},
	}); err != nil {
		t.Fatalf("expected fitting order to succeed, got %v", err)
	}
	if got := stockOf(t, conn, part.ID); got != 1 {
		t.Fatalf("expected part stock 1, got %d", got)
	}
}

func TestCreateOrder_NamesFirstComponentInBundleOrder(t *testing.T) {
	svc, conn := newTestService(t)

	specs := make([]componentSpec, 0, 10)
	for i := 0; i < 10; i++ {
		part := seedProduct(t, conn, fmt.Sprintf("dry-part-%02d", i), "1.00", 0)
		specs = append(specs, componentSpec{part.ID, 1})
	}
	kit := seedBundle(t, conn, "kit", "20.00", specs...)

	// Every attempt must fail on the same product: the first component of the
	// bundle definition, regardless of how the demand was merged internally.
	for i := 0; i < 25; i++ {
		_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
			Items: []OrderItemInput{{ProductID: kit.ID, Quantity: 1}},
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("attempt %d: expected INSUFFICIENT_STOCK, got %v", i, err)
		}
		details, ok := typed.Details().(map[string]any)
		if !ok {
			t.Fatalf("attempt %d: expected details map, got %T", i, typed.Details())
		}
		if details["name"] != "dry-part-00" {
			t.Fatalf("attempt %d: expected failure on dry-part-00, got %v", i, details["name"])
		}
	}
}

func TestCreateOrder_CompetingOrdersNeverOverdraw(t *testing.T) {
	svc, conn := newTestService(t)
	widget := seedProduct(t, conn, "widget", "2.00", 5)

	// Both callers saw 5 in stock before ordering; the conditional decrement
	// re-validates at apply time, so only the first order fits.
	if _, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 3}},
	}); err != nil {
		t.Fatalf("first order: %v", err)
	}

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 3}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK on second order, got %v", err)
	}
	details := typed.Details().(map[string]any)
	if details["requested"] != 3 || details["available"] != 2 {
		t.Fatalf("unexpected details: %v", details)
	}

	if got := stockOf(t, conn, widget.ID); got != 2 {
		t.Fatalf("expected stock 2 after one fulfilled order, got %d", got)
	}
}

func TestCreateOrder_SnapshotSurvivesCatalogEdits(t *testing.T) {
	svc, conn := newTestService(t)
	widget := seedProduct(t, conn, "widget", "10.00", 10)

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if err := conn.Model(&models.Product{}).
		Where("id = ?", widget.ID).
		Updates(map[string]any{"name": "renamed", "price": "99.00"}).Error; err != nil {
		t.Fatalf("rename product: %v", err)
	}

	reloaded, err := svc.GetOrder(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("GetOrder returned error: %v", err)
	}
	if reloaded.Items[0].ProductName != "widget" {
		t.Fatalf("expected captured name widget, got %q", reloaded.Items[0].ProductName)
	}
	if !reloaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected captured price 10.00, got %s", reloaded.Items[0].UnitPrice)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateStatus_LifecyclePath(t *testing.T) {
	svc, conn := newTestService(t)
	widget := seedProduct(t, conn, "widget", "5.00", 5)

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	shipped, err := svc.UpdateStatus(context.Background(), resp.ID, UpdateStatusRequest{Status: "SHIPPED"})
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shipped.Status != enums.OrderStatusShipped {
		t.Fatalf("expected SHIPPED, got %s", shipped.Status)
	}

	done, err := svc.UpdateStatus(context.Background(), resp.ID, UpdateStatusRequest{Status: "COMPLETED"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", done.Status)
	}

	// Terminal orders refuse further transitions.
	_, err = svc.UpdateStatus(context.Background(), resp.ID, UpdateStatusRequest{Status: "CANCELLED"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestUpdateStatus_InvalidTransitions(t *testing.T) {
	svc, conn := newTestService(t)
	widget := seedProduct(t, conn, "widget", "5.00", 5)

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	// PENDING cannot jump straight to COMPLETED.
	_, err = svc.UpdateStatus(context.Background(), resp.ID, UpdateStatusRequest{Status: "COMPLETED"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), resp.ID, UpdateStatusRequest{Status: "bogus"})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCancelOrder_ReleasesExactDeductions(t *testing.T) {
	svc, conn := newTestService(t)
	partA := seedProduct(t, conn, "part-a", "1.00", 10)
	partB := seedProduct(t, conn, "part-b", "1.00", 10)
	kit := seedBundle(t, conn, "kit", "5.00",
		componentSpec{partA.ID, 2},
		componentSpec{partB.ID, 1},
	)

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderItemInput{{ProductID: kit.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if stockOf(t, conn, partA.ID) != 6 || stockOf(t, conn, partB.ID) != 8 {
		t.Fatal("unexpected stock after fulfillment")
	}

	// Rewrite the bundle definition after the sale; cancellation must release
	// what was actually deducted, not what the bundle says today.
	if err := conn.Model(&models.BundleComponent{}).
		Where("bundle_id = ? AND component_id = ?", kit.ID, partA.ID).
		Update("quantity", 5).Error; err != nil {
		t.Fatalf("rewrite bundle: %v", err)
	}

	cancelled, err := svc.UpdateStatus(context.Background(), resp.ID, UpdateStatusRequest{Status: "CANCELLED"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	if got := stockOf(t, conn, partA.ID); got != 10 {
		t.Fatalf("expected part-a restored to 10, got %d", got)
	}
	if got := stockOf(t, conn, partB.ID); got != 10 {
		t.Fatalf("expected part-b restored to 10, got %d", got)
	}
}

func TestListOrders_StatusFilterAndPaging(t *testing.T) {
	svc, conn := newTestService(t)
	widget := seedProduct(t, conn, "widget", "5.00", 100)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
			Items: []OrderItemInput{{ProductID: widget.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("CreateOrder returned error: %v", err)
		}
		ids = append(ids, resp.ID)
	}
	if _, err := svc.UpdateStatus(context.Background(), ids[0], UpdateStatusRequest{Status: "SHIPPED"}); err != nil {
		t.Fatalf("ship: %v", err)
	}

	pending := enums.OrderStatusPending
	page, err := svc.ListOrders(context.Background(), &pending, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("ListOrders returned error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 pending orders, got %d", len(page.Items))
	}

	first, err := svc.ListOrders(context.Background(), nil, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("ListOrders returned error: %v", err)
	}
	if len(first.Items) != 2 || first.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %d items", len(first.Items))
	}
	second, err := svc.ListOrders(context.Background(), nil, pagination.Params{
		Limit:  2,
		Cursor: first.NextCursor,
	})
	if err != nil {
		t.Fatalf("ListOrders second page returned error: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("expected 1 item on second page, got %d", len(second.Items))
	}
}
