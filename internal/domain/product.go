package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Color       *string         `json:"color"`
	Size        *string         `json:"size"`
	SoldCount   int             `json:"sold_count"`
	CategoryID  int64           `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductPatch carries a partial product update. A nil field is absent from
// the request and keeps its stored value; a non-nil field is written as is.
type ProductPatch struct {
	Name        *string
	Description *string
	Image       *string
	Price       *decimal.Decimal
	Color       *string
	Size        *string
	CategoryID  *int64
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Image == nil && p.Price == nil &&
		p.Color == nil && p.Size == nil && p.CategoryID == nil
}

// Apply copies the present fields of the patch onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Color != nil {
		product.Color = p.Color
	}
	if p.Size != nil {
		product.Size = p.Size
	}
	if p.CategoryID != nil {
		product.CategoryID = *p.CategoryID
	}
}

// ProductView is a product as seen by one caller. IsFavorite is computed per
// request and never stored.
type ProductView struct {
	Product
	IsFavorite bool      `json:"is_favorite"`
	Category   *Category `json:"category,omitempty"`
}
