package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Supplier is the database row for a supplier.
type Supplier struct {
	ID        uuid.UUID
	Name      string
	Company   sql.NullString
	Phone     sql.NullString
	Email     sql.NullString
	Address   sql.NullString
	TotalOwed int64
	TotalPaid int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SupplierPayment is a payment recorded against a supplier balance.
type SupplierPayment struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Amount     int64
	Method     string
	Note       sql.NullString
	PaidAt     time.Time
	CreatedAt  time.Time
}

const createSupplier = `
INSERT INTO suppliers (name, company, phone, email, address, total_owed)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, company, phone, email, address, total_owed, total_paid, created_at, updated_at
`

type CreateSupplierParams struct {
	Name      string
	Company   sql.NullString
	Phone     sql.NullString
	Email     sql.NullString
	Address   sql.NullString
	TotalOwed int64
}

func (q *Queries) CreateSupplier(ctx context.Context, arg CreateSupplierParams) (Supplier, error) {
	row := q.db.QueryRowContext(ctx, createSupplier,
		arg.Name, arg.Company, arg.Phone, arg.Email, arg.Address, arg.TotalOwed)
	return scanSupplier(row)
}

const getSupplierByID = `
SELECT id, name, company, phone, email, address, total_owed, total_paid, created_at, updated_at
FROM suppliers
WHERE id = $1
`

func (q *Queries) GetSupplierByID(ctx context.Context, id uuid.UUID) (Supplier, error) {
	return scanSupplier(q.db.QueryRowContext(ctx, getSupplierByID, id))
}

const listSuppliers = `
SELECT id, name, company, phone, email, address, total_owed, total_paid, created_at, updated_at
FROM suppliers
ORDER BY name
`

func (q *Queries) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := q.db.QueryContext(ctx, listSuppliers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Company, &s.Phone, &s.Email, &s.Address,
			&s.TotalOwed, &s.TotalPaid, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

const updateSupplier = `
UPDATE suppliers
SET name = $2, company = $3, phone = $4, email = $5, address = $6, updated_at = now()
WHERE id = $1
RETURNING id, name, company, phone, email, address, total_owed, total_paid, created_at, updated_at
`

type UpdateSupplierParams struct {
	ID      uuid.UUID
	Name    string
	Company sql.NullString
	Phone   sql.NullString
	Email   sql.NullString
	Address sql.NullString
}

func (q *Queries) UpdateSupplier(ctx context.Context, arg UpdateSupplierParams) (Supplier, error) {
	row := q.db.QueryRowContext(ctx, updateSupplier,
		arg.ID, arg.Name, arg.Company, arg.Phone, arg.Email, arg.Address)
	return scanSupplier(row)
}

const deleteSupplier = `
DELETE FROM suppliers
WHERE id = $1
`

// DeleteSupplier removes a supplier; its payment history goes with it.
func (q *Queries) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteSupplier, id)
	return err
}

const addSupplierDebt = `
UPDATE suppliers
SET total_owed = total_owed + $2, updated_at = now()
WHERE id = $1
`

type AddSupplierDebtParams struct {
	ID     uuid.UUID
	Amount int64
}

func (q *Queries) AddSupplierDebt(ctx context.Context, arg AddSupplierDebtParams) error {
	_, err := q.db.ExecContext(ctx, addSupplierDebt, arg.ID, arg.Amount)
	return err
}

const createSupplierPayment = `
INSERT INTO supplier_payments (supplier_id, amount, method, note, paid_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, supplier_id, amount, method, note, paid_at, created_at
`

type CreateSupplierPaymentParams struct {
	SupplierID uuid.UUID
	Amount     int64
	Method     string
	Note       sql.NullString
	PaidAt     time.Time
}

func (q *Queries) CreateSupplierPayment(ctx context.Context, arg CreateSupplierPaymentParams) (SupplierPayment, error) {
	row := q.db.QueryRowContext(ctx, createSupplierPayment,
		arg.SupplierID, arg.Amount, arg.Method, arg.Note, arg.PaidAt)
	var p SupplierPayment
	err := row.Scan(&p.ID, &p.SupplierID, &p.Amount, &p.Method, &p.Note, &p.PaidAt, &p.CreatedAt)
	return p, err
}

// addSupplierPaid only succeeds while total paid stays at or below total
// owed; zero rows affected signals an overpayment.
const addSupplierPaid = `
UPDATE suppliers
SET total_paid = total_paid + $2, updated_at = now()
WHERE id = $1
  AND total_paid + $2 <= total_owed
`

type AddSupplierPaidParams struct {
	ID     uuid.UUID
	Amount int64
}

// AddSupplierPaid records amount against a supplier's balance.
// Returns sql.ErrNoRows when the payment would exceed what is owed.
func (q *Queries) AddSupplierPaid(ctx context.Context, arg AddSupplierPaidParams) error {
	res, err := q.db.ExecContext(ctx, addSupplierPaid, arg.ID, arg.Amount)
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

const listSupplierPayments = `
SELECT id, supplier_id, amount, method, note, paid_at, created_at
FROM supplier_payments
WHERE supplier_id = $1
ORDER BY paid_at DESC
`

func (q *Queries) ListSupplierPayments(ctx context.Context, supplierID uuid.UUID) ([]SupplierPayment, error) {
	rows, err := q.db.QueryContext(ctx, listSupplierPayments, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []SupplierPayment
	for rows.Next() {
		var p SupplierPayment
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.Amount, &p.Method, &p.Note, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanSupplier(row *sql.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Company, &s.Phone, &s.Email, &s.Address,
		&s.TotalOwed, &s.TotalPaid, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
