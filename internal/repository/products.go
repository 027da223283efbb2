package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Product is the database row for a catalog item.
type Product struct {
	ID            uuid.UUID
	SKU           string
	Name          string
	Description   sql.NullString
	PurchasePrice int64
	SalePrice     int64
	Stock         int32
	MinStock      int32
	ImageKey      sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const createProduct = `
INSERT INTO products (sku, name, description, purchase_price, sale_price, stock, min_stock)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, sku, name, description, purchase_price, sale_price, stock, min_stock, image_key, created_at, updated_at
`

type CreateProductParams struct {
	SKU           string
	Name          string
	Description   sql.NullString
	PurchasePrice int64
	SalePrice     int64
	Stock         int32
	MinStock      int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRowContext(ctx, createProduct,
		arg.SKU, arg.Name, arg.Description, arg.PurchasePrice, arg.SalePrice, arg.Stock, arg.MinStock)
	return scanProduct(row)
}

const getProductByID = `
SELECT id, sku, name, description, purchase_price, sale_price, stock, min_stock, image_key, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRowContext(ctx, getProductByID, id))
}

const getProductBySKU = `
SELECT id, sku, name, description, purchase_price, sale_price, stock, min_stock, image_key, created_at, updated_at
FROM products
WHERE sku = $1
`

func (q *Queries) GetProductBySKU(ctx context.Context, sku string) (Product, error) {
	return scanProduct(q.db.QueryRowContext(ctx, getProductBySKU, sku))
}

const listProducts = `
SELECT id, sku, name, description, purchase_price, sale_price, stock, min_stock, image_key, created_at, updated_at
FROM products
ORDER BY name
`

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PurchasePrice,
			&p.SalePrice, &p.Stock, &p.MinStock, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const updateProduct = `
UPDATE products
SET sku = $2, name = $3, description = $4, purchase_price = $5, sale_price = $6, stock = $7, min_stock = $8, updated_at = now()
WHERE id = $1
RETURNING id, sku, name, description, purchase_price, sale_price, stock, min_stock, image_key, created_at, updated_at
`

type UpdateProductParams struct {
	ID            uuid.UUID
	SKU           string
	Name          string
	Description   sql.NullString
	PurchasePrice int64
	SalePrice     int64
	Stock         int32
	MinStock      int32
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRowContext(ctx, updateProduct,
		arg.ID, arg.SKU, arg.Name, arg.Description, arg.PurchasePrice, arg.SalePrice, arg.Stock, arg.MinStock)
	return scanProduct(row)
}

const deleteProduct = `
DELETE FROM products
WHERE id = $1
`

func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteProduct, id)
	return err
}

const setProductImage = `
UPDATE products
SET image_key = $2, updated_at = now()
WHERE id = $1
`

type SetProductImageParams struct {
	ID       uuid.UUID
	ImageKey sql.NullString
}

func (q *Queries) SetProductImage(ctx context.Context, arg SetProductImageParams) error {
	_, err := q.db.ExecContext(ctx, setProductImage, arg.ID, arg.ImageKey)
	return err
}

// decrementProductStock guards against overselling at the database level;
// zero rows affected means there was not enough stock.
const decrementProductStock = `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
`

type DecrementProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// DecrementProductStock atomically removes quantity units of stock.
// Returns sql.ErrNoRows when the product is missing or understocked.
func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) error {
	res, err := q.db.ExecContext(ctx, decrementProductStock, arg.ID, arg.Quantity)
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

func scanProduct(row *sql.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PurchasePrice,
		&p.SalePrice, &p.Stock, &p.MinStock, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
