package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newQuoteService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:pricing_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.Promotion{},
		&models.DiscountTier{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(ServiceParams{Client: db.FromGorm(conn)})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func TestQuote_WithoutPromotion(t *testing.T) {
	svc, conn := newQuoteService(t)
	product := &models.Product{
		ID:    uuid.New(),
		Name:  "widget",
		Price: dec("12.00"),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	resp, err := svc.Quote(context.Background(), QuoteRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !resp.UnitPrice.Equal(dec("12.00")) || !resp.Total.Equal(dec("36.00")) {
		t.Fatalf("unexpected quote: %+v", resp)
	}
	if resp.PromotionID != nil {
		t.Fatal("expected no promotion reference")
	}
}

func TestQuote_AppliesActivePromotion(t *testing.T) {
	svc, conn := newQuoteService(t)
	product := &models.Product{
		ID:    uuid.New(),
		Name:  "widget",
		Price: dec("12.00"),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	mode := enums.DiscountModePercentage
	value := dec("50")
	promo := &models.Promotion{
		ID:            uuid.New(),
		Type:          enums.PromotionTypeFlat,
		ProductID:     product.ID,
		DiscountMode:  &mode,
		DiscountValue: &value,
	}
	if err := conn.Create(promo).Error; err != nil {
		t.Fatalf("seed promotion: %v", err)
	}

	resp, err := svc.Quote(context.Background(), QuoteRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !resp.UnitPrice.Equal(dec("6.00")) || !resp.Total.Equal(dec("12.00")) {
		t.Fatalf("unexpected discounted quote: %+v", resp)
	}
	if resp.PromotionID == nil || *resp.PromotionID != promo.ID {
		t.Fatalf("expected promotion reference, got %v", resp.PromotionID)
	}
}

func TestQuote_UnknownProduct(t *testing.T) {
	svc, _ := newQuoteService(t)

	_, err := svc.Quote(context.Background(), QuoteRequest{ProductID: uuid.New(), Quantity: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestQuote_InvalidQuantity(t *testing.T) {
	svc, _ := newQuoteService(t)

	_, err := svc.Quote(context.Background(), QuoteRequest{ProductID: uuid.New(), Quantity: 0})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
