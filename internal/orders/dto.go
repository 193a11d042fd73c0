package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest submits a purchase order for fulfillment.
type CreateOrderRequest struct {
	Items []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest moves an order through its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderLineResponse is the read projection of one captured line.
type OrderLineResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse is the public projection of a purchase order.
type OrderResponse struct {
	ID        uuid.UUID           `json:"id"`
	Status    enums.OrderStatus   `json:"status"`
	OrderedAt time.Time           `json:"ordered_at"`
	Items     []OrderLineResponse `json:"items"`
	Total     decimal.Decimal     `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// OrderPage is a cursor-paginated slice of orders.
type OrderPage struct {
	Items      []OrderResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toOrderResponse(order *models.PurchaseOrder) OrderResponse {
	resp := OrderResponse{
		ID:        order.ID,
		Status:    order.Status,
		OrderedAt: order.OrderedAt,
		Total:     decimal.Zero,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	for _, item := range order.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		resp.Items = append(resp.Items, OrderLineResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
		})
		resp.Total = resp.Total.Add(lineTotal)
	}
	return resp
}
