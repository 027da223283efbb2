package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus enumerates the lifecycle of a quote.
type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "DRAFT"
	QuoteSent      QuoteStatus = "SENT"
	QuoteAccepted  QuoteStatus = "ACCEPTED"
	QuoteExpired   QuoteStatus = "EXPIRED"
	QuoteConverted QuoteStatus = "CONVERTED"
)

// Invoice is an immutable billing document generated from a sale.
//
// The line items and total are snapshotted from the sale at generation
// time; TotalInWords carries the French amount-in-words rendering that
// appears on the printed document.
type Invoice struct {
	ID           uuid.UUID
	Number       string // e.g. FAC-2026-0042
	SaleID       uuid.UUID
	CustomerID   *uuid.UUID
	Total        int64 // Cents
	TotalInWords string
	IssuedAt     time.Time
	CreatedAt    time.Time
}

// Quote is a priced offer that may later convert into a sale.
type Quote struct {
	ID         uuid.UUID
	Number     string // e.g. DEV-2026-0042
	CustomerID uuid.UUID
	Status     QuoteStatus
	Total      int64 // Cents
	ValidUntil time.Time
	Items      []QuoteItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QuoteItem is one line of a quote.
type QuoteItem struct {
	ID        uuid.UUID
	QuoteID   uuid.UUID
	ProductID uuid.UUID
	Name      string // Product name snapshot
	Quantity  int
	UnitPrice int64 // Cents
}

// LineTotal returns the item subtotal in cents.
func (i *QuoteItem) LineTotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// IsExpired reports whether the quote's validity window has passed at the
// given instant. Expiry is detected lazily on read; no background job
// rewrites statuses.
func (q *Quote) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// Convertible reports whether the quote can still be turned into a sale.
func (q *Quote) Convertible(now time.Time) bool {
	if q.IsExpired(now) {
		return false
	}
	return q.Status == QuoteDraft || q.Status == QuoteSent || q.Status == QuoteAccepted
}

// QuoteItemParams is one requested line of a new quote.
type QuoteItemParams struct {
	ProductID uuid.UUID
	Quantity  int
}

// QuoteParams contains validated parameters for creating a quote.
type QuoteParams struct {
	CustomerID uuid.UUID
	ValidUntil time.Time
	Items      []QuoteItemParams
}
