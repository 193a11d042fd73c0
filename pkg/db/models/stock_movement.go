package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovement records a per-product deduction made while fulfilling an
// order. Cancellation replays these rows in reverse, so releases stay exact
// even if the bundle definitions change after the sale.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movements_order" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

func (s *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
