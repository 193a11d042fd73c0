package analytics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:analytics_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.PurchaseOrder{},
		&models.OrderLineItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(ServiceParams{Client: db.FromGorm(conn)})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestDashboard_EmptyCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if stats.TotalProducts != 0 || stats.PendingOrders != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
	if !stats.TotalInventoryValue.Equal(decimal.Zero) {
		t.Fatalf("expected zero inventory value, got %s", stats.TotalInventoryValue)
	}
}

func TestDashboard_AggregatesCatalogAndBacklog(t *testing.T) {
	svc, conn := newTestService(t)

	products := []*models.Product{
		{ID: uuid.New(), Name: "bolt", Price: dec("2.50"), Quantity: 100},
		{ID: uuid.New(), Name: "panel", Price: dec("40.00"), Quantity: 3},
		{ID: uuid.New(), Name: "kit", Price: dec("99.00"), IsBundle: true},
	}
	for _, p := range products {
		if err := conn.Create(p).Error; err != nil {
			t.Fatalf("seed product %s: %v", p.Name, err)
		}
	}

	statuses := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPending,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	}
	for _, status := range statuses {
		order := &models.PurchaseOrder{ID: uuid.New(), Status: status}
		if err := conn.Create(order).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if stats.TotalProducts != 3 {
		t.Fatalf("expected 3 products, got %d", stats.TotalProducts)
	}
	// 100*2.50 + 3*40.00; the bundle holds no stock and contributes nothing.
	if !stats.TotalInventoryValue.Equal(dec("370.00")) {
		t.Fatalf("expected inventory value 370.00, got %s", stats.TotalInventoryValue)
	}
	if stats.PendingOrders != 2 {
		t.Fatalf("expected 2 pending orders, got %d", stats.PendingOrders)
	}
}
