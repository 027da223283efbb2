package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Sale is the database row for a completed sale.
type Sale struct {
	ID            uuid.UUID
	Number        string
	SellerID      uuid.UUID
	CustomerID    uuid.NullUUID
	PaymentMethod string
	Total         int64
	Note          sql.NullString
	CreatedAt     time.Time
}

// SaleItem is a line on a sale. The product name is snapshotted so later
// catalog edits do not rewrite sale history.
type SaleItem struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice int64
	CreatedAt time.Time
}

const nextSaleNumber = `
SELECT 'VNT-' || lpad(nextval('sale_number_seq')::text, 6, '0')
`

// NextSaleNumber reserves the next sequential sale number (VNT-000001, ...).
func (q *Queries) NextSaleNumber(ctx context.Context) (string, error) {
	var number string
	err := q.db.QueryRowContext(ctx, nextSaleNumber).Scan(&number)
	return number, err
}

const createSale = `
INSERT INTO sales (number, seller_id, customer_id, payment_method, total, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, number, seller_id, customer_id, payment_method, total, note, created_at
`

type CreateSaleParams struct {
	Number        string
	SellerID      uuid.UUID
	CustomerID    uuid.NullUUID
	PaymentMethod string
	Total         int64
	Note          sql.NullString
}

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	row := q.db.QueryRowContext(ctx, createSale,
		arg.Number, arg.SellerID, arg.CustomerID, arg.PaymentMethod, arg.Total, arg.Note)
	return scanSale(row)
}

const createSaleItem = `
INSERT INTO sale_items (sale_id, product_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, sale_id, product_id, name, quantity, unit_price, created_at
`

type CreateSaleItemParams struct {
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice int64
}

func (q *Queries) CreateSaleItem(ctx context.Context, arg CreateSaleItemParams) (SaleItem, error) {
	row := q.db.QueryRowContext(ctx, createSaleItem,
		arg.SaleID, arg.ProductID, arg.Name, arg.Quantity, arg.UnitPrice)
	var it SaleItem
	err := row.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.CreatedAt)
	return it, err
}

const getSaleByID = `
SELECT id, number, seller_id, customer_id, payment_method, total, note, created_at
FROM sales
WHERE id = $1
`

func (q *Queries) GetSaleByID(ctx context.Context, id uuid.UUID) (Sale, error) {
	return scanSale(q.db.QueryRowContext(ctx, getSaleByID, id))
}

const listSales = `
SELECT id, number, seller_id, customer_id, payment_method, total, note, created_at
FROM sales
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListSalesParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error) {
	rows, err := q.db.QueryContext(ctx, listSales, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.Number, &s.SellerID, &s.CustomerID,
			&s.PaymentMethod, &s.Total, &s.Note, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

const listSaleItems = `
SELECT id, sale_id, product_id, name, quantity, unit_price, created_at
FROM sale_items
WHERE sale_id = $1
ORDER BY created_at
`

func (q *Queries) ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := q.db.QueryContext(ctx, listSaleItems, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanSale(row *sql.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.Number, &s.SellerID, &s.CustomerID,
		&s.PaymentMethod, &s.Total, &s.Note, &s.CreatedAt)
	return s, err
}
