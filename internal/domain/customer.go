package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a buyer, optionally holding a credit account.
//
// Credit sales increase CreditUsed; recorded payments decrease it. A credit
// sale is refused when it would push CreditUsed past CreditLimit.
type Customer struct {
	ID          uuid.UUID
	Name        string
	Company     string
	Phone       string
	Email       string
	Address     string
	CreditLimit int64 // Cents. Zero means no credit account.
	CreditUsed  int64 // Cents currently outstanding.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreditAvailable returns how much credit the customer can still draw.
func (c *Customer) CreditAvailable() int64 {
	avail := c.CreditLimit - c.CreditUsed
	if avail < 0 {
		return 0
	}
	return avail
}

// CanCharge reports whether a credit sale of the given amount fits within
// the customer's remaining credit.
func (c *Customer) CanCharge(amount int64) bool {
	return amount > 0 && c.CreditUsed+amount <= c.CreditLimit
}

// CustomerParams contains validated parameters for creating or updating
// a customer.
type CustomerParams struct {
	Name        string
	Company     string
	Phone       string
	Email       string
	Address     string
	CreditLimit int64
}
