package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog item with tracked stock.
//
// Prices are stored in cents to avoid floating point drift in totals.
type Product struct {
	ID            uuid.UUID
	SKU           string
	Name          string
	Description   string
	PurchasePrice int64 // Cents
	SalePrice     int64 // Cents
	Stock         int
	MinStock      int    // Threshold below which the product is flagged
	ImageKey      string // Storage key of the product photo, empty if none
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LowStock reports whether the product is at or below its minimum stock
// threshold. Products with no threshold configured are never flagged.
func (p *Product) LowStock() bool {
	return p.MinStock > 0 && p.Stock <= p.MinStock
}

// Margin returns the per-unit margin in cents.
func (p *Product) Margin() int64 {
	return p.SalePrice - p.PurchasePrice
}

// ProductParams contains validated parameters for creating or updating
// a product.
type ProductParams struct {
	SKU           string
	Name          string
	Description   string
	PurchasePrice int64
	SalePrice     int64
	Stock         int
	MinStock      int
}
