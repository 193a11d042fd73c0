package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. A product flagged as a bundle holds no
// stock of its own; availability comes from resolving its component tree.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null;uniqueIndex:idx_products_name" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	Size        string          `gorm:"size:64" json:"size"`
	Color       string          `gorm:"size:64" json:"color"`
	IsBundle    bool            `gorm:"not null;default:false" json:"is_bundle"`

	Components []BundleComponent `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE" json:"components,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BundleComponent links a bundle product to one of its components with the
// per-bundle multiplier. A component may itself be a bundle. Position fixes
// the author's ordering so every load walks the set the same way.
type BundleComponent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BundleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bundle_components_pair" json:"bundle_id"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bundle_components_pair" json:"component_id"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	Position    int       `gorm:"not null;default:0" json:"position"`

	Component *Product `gorm:"foreignKey:ComponentID" json:"component,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (BundleComponent) TableName() string {
	return "bundle_components"
}

func (b *BundleComponent) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
