package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod enumerates how a sale was settled.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCredit   PaymentMethod = "CREDIT"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCredit:
		return true
	}
	return false
}

// Sale represents a completed sale with its line items.
//
// The total is always computed server-side from the items; client-submitted
// totals are ignored. A CREDIT sale must reference a customer and fits
// within that customer's remaining credit.
type Sale struct {
	ID            uuid.UUID
	Number        string // e.g. VNT-2026-0042
	SellerID      uuid.UUID
	CustomerID    *uuid.UUID // nil for walk-in cash sales
	PaymentMethod PaymentMethod
	Total         int64 // Cents
	Items         []SaleItem
	CreatedAt     time.Time
}

// SaleItem is one line of a sale. UnitPrice is captured at sale time so
// later catalog price changes do not rewrite history.
type SaleItem struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Name      string // Product name snapshot
	Quantity  int
	UnitPrice int64 // Cents
}

// LineTotal returns the item subtotal in cents.
func (i *SaleItem) LineTotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// ComputeTotal sums the line totals of the given items.
func ComputeTotal(items []SaleItem) int64 {
	var total int64
	for i := range items {
		total += items[i].LineTotal()
	}
	return total
}

// SaleItemParams is one requested line of a new sale.
type SaleItemParams struct {
	ProductID uuid.UUID
	Quantity  int
}

// SaleParams contains validated parameters for recording a sale.
type SaleParams struct {
	SellerID      uuid.UUID
	CustomerID    *uuid.UUID
	PaymentMethod PaymentMethod
	Items         []SaleItemParams
}
