package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrder is the fulfillment aggregate. Stock is deducted exactly once,
// at creation; the status machine only moves forward except for cancellation.
type PurchaseOrder struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Status    enums.OrderStatus `gorm:"size:32;not null;index:idx_purchase_orders_status" json:"status"`
	OrderedAt time.Time         `gorm:"not null" json:"ordered_at"`

	Items []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

func (p *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OrderLineItem captures what was sold at the moment of sale. ProductName and
// UnitPrice are snapshots; later catalog edits must not rewrite history.
type OrderLineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_line_items_order" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
}

func (OrderLineItem) TableName() string {
	return "order_line_items"
}

func (o *OrderLineItem) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
