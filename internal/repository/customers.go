package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Customer is the database row for a customer.
type Customer struct {
	ID          uuid.UUID
	Name        string
	Company     sql.NullString
	Phone       sql.NullString
	Email       sql.NullString
	Address     sql.NullString
	CreditLimit int64
	CreditUsed  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const createCustomer = `
INSERT INTO customers (name, company, phone, email, address, credit_limit)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, company, phone, email, address, credit_limit, credit_used, created_at, updated_at
`

type CreateCustomerParams struct {
	Name        string
	Company     sql.NullString
	Phone       sql.NullString
	Email       sql.NullString
	Address     sql.NullString
	CreditLimit int64
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRowContext(ctx, createCustomer,
		arg.Name, arg.Company, arg.Phone, arg.Email, arg.Address, arg.CreditLimit)
	return scanCustomer(row)
}

const getCustomerByID = `
SELECT id, name, company, phone, email, address, credit_limit, credit_used, created_at, updated_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomerByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRowContext(ctx, getCustomerByID, id))
}

const listCustomers = `
SELECT id, name, company, phone, email, address, credit_limit, credit_used, created_at, updated_at
FROM customers
ORDER BY name
`

func (q *Queries) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := q.db.QueryContext(ctx, listCustomers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Phone, &c.Email, &c.Address,
			&c.CreditLimit, &c.CreditUsed, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

const updateCustomer = `
UPDATE customers
SET name = $2, company = $3, phone = $4, email = $5, address = $6, credit_limit = $7, updated_at = now()
WHERE id = $1
RETURNING id, name, company, phone, email, address, credit_limit, credit_used, created_at, updated_at
`

type UpdateCustomerParams struct {
	ID          uuid.UUID
	Name        string
	Company     sql.NullString
	Phone       sql.NullString
	Email       sql.NullString
	Address     sql.NullString
	CreditLimit int64
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRowContext(ctx, updateCustomer,
		arg.ID, arg.Name, arg.Company, arg.Phone, arg.Email, arg.Address, arg.CreditLimit)
	return scanCustomer(row)
}

const deleteCustomer = `
DELETE FROM customers
WHERE id = $1
`

func (q *Queries) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteCustomer, id)
	return err
}

// adjustCustomerCredit only succeeds when the resulting usage stays within
// [0, credit_limit]; zero rows affected signals the guard failed.
const adjustCustomerCredit = `
UPDATE customers
SET credit_used = credit_used + $2, updated_at = now()
WHERE id = $1
  AND credit_used + $2 >= 0
  AND credit_used + $2 <= credit_limit
`

type AdjustCustomerCreditParams struct {
	ID    uuid.UUID
	Delta int64
}

// AdjustCustomerCredit atomically moves a customer's credit usage.
// Returns sql.ErrNoRows when the adjustment would breach the credit limit
// or drop usage below zero.
func (q *Queries) AdjustCustomerCredit(ctx context.Context, arg AdjustCustomerCreditParams) error {
	res, err := q.db.ExecContext(ctx, adjustCustomerCredit, arg.ID, arg.Delta)
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

func scanCustomer(row *sql.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Phone, &c.Email, &c.Address,
		&c.CreditLimit, &c.CreditUsed, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
