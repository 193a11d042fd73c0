package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ComponentInput declares one component of a bundle.
type ComponentInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

// CreateProductRequest creates a simple product or a bundle.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"omitempty,max=4096"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    int              `json:"quantity" validate:"min=0"`
	Size        string           `json:"size" validate:"omitempty,max=64"`
	Color       string           `json:"color" validate:"omitempty,max=64"`
	IsBundle    bool             `json:"is_bundle"`
	Components  []ComponentInput `json:"components" validate:"omitempty,dive"`
}

// UpdateProductRequest mirrors the create payload; the whole row is replaced.
type UpdateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"omitempty,max=4096"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    int              `json:"quantity" validate:"min=0"`
	Size        string           `json:"size" validate:"omitempty,max=64"`
	Color       string           `json:"color" validate:"omitempty,max=64"`
	IsBundle    bool             `json:"is_bundle"`
	Components  []ComponentInput `json:"components" validate:"omitempty,dive"`
}

// ComponentResponse is the read projection of one bundle component.
type ComponentResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Quantity  int       `json:"quantity"`
}

// ProductResponse is the public projection of a product row. Available is the
// sellable quantity: on-hand stock for simple products, the resolved maximum
// assembled count for bundles.
type ProductResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Price       decimal.Decimal     `json:"price"`
	Quantity    int                 `json:"quantity"`
	Size        string              `json:"size,omitempty"`
	Color       string              `json:"color,omitempty"`
	IsBundle    bool                `json:"is_bundle"`
	Available   int                 `json:"available"`
	Components  []ComponentResponse `json:"components,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ProductPage is a cursor-paginated slice of products.
type ProductPage struct {
	Items      []ProductResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ImportSummary reports the outcome of a CSV import.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

func toProductResponse(product *models.Product, available int) ProductResponse {
	resp := ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Size:        product.Size,
		Color:       product.Color,
		IsBundle:    product.IsBundle,
		Available:   available,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, comp := range product.Components {
		entry := ComponentResponse{
			ProductID: comp.ComponentID,
			Quantity:  comp.Quantity,
		}
		if comp.Component != nil {
			entry.Name = comp.Component.Name
		}
		resp.Components = append(resp.Components, entry)
	}
	return resp
}
