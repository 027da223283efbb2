package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Invoice is the database row for an invoice derived from a sale.
type Invoice struct {
	ID           uuid.UUID
	Number       string
	SaleID       uuid.UUID
	Total        int64
	TotalInWords string
	IssuedAt     time.Time
	CreatedAt    time.Time
}

// Quote is the database row for a quote.
type Quote struct {
	ID         uuid.UUID
	Number     string
	CustomerID uuid.UUID
	Status     string
	Total      int64
	ValidUntil time.Time
	SaleID     uuid.NullUUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QuoteItem is a line on a quote. The product name is snapshotted the same
// way sale items snapshot it.
type QuoteItem struct {
	ID        uuid.UUID
	QuoteID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice int64
	CreatedAt time.Time
}

const nextInvoiceNumber = `
SELECT 'FAC-' || lpad(nextval('invoice_number_seq')::text, 6, '0')
`

func (q *Queries) NextInvoiceNumber(ctx context.Context) (string, error) {
	var number string
	err := q.db.QueryRowContext(ctx, nextInvoiceNumber).Scan(&number)
	return number, err
}

const nextQuoteNumber = `
SELECT 'DEV-' || lpad(nextval('quote_number_seq')::text, 6, '0')
`

func (q *Queries) NextQuoteNumber(ctx context.Context) (string, error) {
	var number string
	err := q.db.QueryRowContext(ctx, nextQuoteNumber).Scan(&number)
	return number, err
}

const createInvoice = `
INSERT INTO invoices (number, sale_id, total, total_in_words, issued_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, number, sale_id, total, total_in_words, issued_at, created_at
`

type CreateInvoiceParams struct {
	Number       string
	SaleID       uuid.UUID
	Total        int64
	TotalInWords string
	IssuedAt     time.Time
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRowContext(ctx, createInvoice,
		arg.Number, arg.SaleID, arg.Total, arg.TotalInWords, arg.IssuedAt)
	return scanInvoice(row)
}

const getInvoiceByID = `
SELECT id, number, sale_id, total, total_in_words, issued_at, created_at
FROM invoices
WHERE id = $1
`

func (q *Queries) GetInvoiceByID(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRowContext(ctx, getInvoiceByID, id))
}

const getInvoiceBySaleID = `
SELECT id, number, sale_id, total, total_in_words, issued_at, created_at
FROM invoices
WHERE sale_id = $1
`

func (q *Queries) GetInvoiceBySaleID(ctx context.Context, saleID uuid.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRowContext(ctx, getInvoiceBySaleID, saleID))
}

const listInvoices = `
SELECT id, number, sale_id, total, total_in_words, issued_at, created_at
FROM invoices
ORDER BY issued_at DESC
`

func (q *Queries) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := q.db.QueryContext(ctx, listInvoices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.SaleID, &inv.Total,
			&inv.TotalInWords, &inv.IssuedAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

const createQuote = `
INSERT INTO quotes (number, customer_id, status, total, valid_until)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, number, customer_id, status, total, valid_until, sale_id, created_at, updated_at
`

type CreateQuoteParams struct {
	Number     string
	CustomerID uuid.UUID
	Status     string
	Total      int64
	ValidUntil time.Time
}

func (q *Queries) CreateQuote(ctx context.Context, arg CreateQuoteParams) (Quote, error) {
	row := q.db.QueryRowContext(ctx, createQuote,
		arg.Number, arg.CustomerID, arg.Status, arg.Total, arg.ValidUntil)
	return scanQuote(row)
}

const createQuoteItem = `
INSERT INTO quote_items (quote_id, product_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, quote_id, product_id, name, quantity, unit_price, created_at
`

type CreateQuoteItemParams struct {
	QuoteID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice int64
}

func (q *Queries) CreateQuoteItem(ctx context.Context, arg CreateQuoteItemParams) (QuoteItem, error) {
	row := q.db.QueryRowContext(ctx, createQuoteItem,
		arg.QuoteID, arg.ProductID, arg.Name, arg.Quantity, arg.UnitPrice)
	var it QuoteItem
	err := row.Scan(&it.ID, &it.QuoteID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.CreatedAt)
	return it, err
}

const getQuoteByID = `
SELECT id, number, customer_id, status, total, valid_until, sale_id, created_at, updated_at
FROM quotes
WHERE id = $1
`

func (q *Queries) GetQuoteByID(ctx context.Context, id uuid.UUID) (Quote, error) {
	return scanQuote(q.db.QueryRowContext(ctx, getQuoteByID, id))
}

const listQuotes = `
SELECT id, number, customer_id, status, total, valid_until, sale_id, created_at, updated_at
FROM quotes
ORDER BY created_at DESC
`

func (q *Queries) ListQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := q.db.QueryContext(ctx, listQuotes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var qt Quote
		if err := rows.Scan(&qt.ID, &qt.Number, &qt.CustomerID, &qt.Status, &qt.Total,
			&qt.ValidUntil, &qt.SaleID, &qt.CreatedAt, &qt.UpdatedAt); err != nil {
			return nil, err
		}
		quotes = append(quotes, qt)
	}
	return quotes, rows.Err()
}

const listQuoteItems = `
SELECT id, quote_id, product_id, name, quantity, unit_price, created_at
FROM quote_items
WHERE quote_id = $1
ORDER BY created_at
`

func (q *Queries) ListQuoteItems(ctx context.Context, quoteID uuid.UUID) ([]QuoteItem, error) {
	rows, err := q.db.QueryContext(ctx, listQuoteItems, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuoteItem
	for rows.Next() {
		var it QuoteItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const updateQuoteStatus = `
UPDATE quotes
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, number, customer_id, status, total, valid_until, sale_id, created_at, updated_at
`

type UpdateQuoteStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateQuoteStatus(ctx context.Context, arg UpdateQuoteStatusParams) (Quote, error) {
	return scanQuote(q.db.QueryRowContext(ctx, updateQuoteStatus, arg.ID, arg.Status))
}

// markQuoteConverted transitions a quote to CONVERTED and records the sale
// it produced; the status guard makes conversion single-shot.
const markQuoteConverted = `
UPDATE quotes
SET status = 'CONVERTED', sale_id = $2, updated_at = now()
WHERE id = $1 AND status IN ('DRAFT', 'SENT', 'ACCEPTED')
`

type MarkQuoteConvertedParams struct {
	ID     uuid.UUID
	SaleID uuid.UUID
}

// MarkQuoteConverted finalizes a quote conversion.
// Returns sql.ErrNoRows when the quote is missing or not convertible.
func (q *Queries) MarkQuoteConverted(ctx context.Context, arg MarkQuoteConvertedParams) error {
	res, err := q.db.ExecContext(ctx, markQuoteConverted, arg.ID, arg.SaleID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanInvoice(row *sql.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.SaleID, &inv.Total,
		&inv.TotalInWords, &inv.IssuedAt, &inv.CreatedAt)
	return inv, err
}

func scanQuote(row *sql.Row) (Quote, error) {
	var qt Quote
	err := row.Scan(&qt.ID, &qt.Number, &qt.CustomerID, &qt.Status, &qt.Total,
		&qt.ValidUntil, &qt.SaleID, &qt.CreatedAt, &qt.UpdatedAt)
	return qt, err
}
