package domain

import (
	"time"

	"github.com/google/uuid"
)

// Supplier represents a vendor the business buys from, with a running
// balance of what is owed against what has been paid.
type Supplier struct {
	ID        uuid.UUID
	Name      string
	Company   string
	Phone     string
	Email     string
	Address   string
	TotalOwed int64 // Cents invoiced by the supplier
	TotalPaid int64 // Cents paid to the supplier
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance returns the outstanding amount owed to the supplier in cents.
func (s *Supplier) Balance() int64 {
	return s.TotalOwed - s.TotalPaid
}

// SupplierParams contains validated parameters for creating or updating
// a supplier.
type SupplierParams struct {
	Name    string
	Company string
	Phone   string
	Email   string
	Address string
}

// SupplierPayment records a single payment made to a supplier.
type SupplierPayment struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Amount     int64 // Cents
	Method     PaymentMethod
	Note       string
	PaidAt     time.Time
	CreatedAt  time.Time
}

// SupplierPaymentParams contains validated parameters for recording a
// payment to a supplier.
type SupplierPaymentParams struct {
	SupplierID uuid.UUID
	Amount     int64
	Method     PaymentMethod
	Note       string
	PaidAt     time.Time
}
