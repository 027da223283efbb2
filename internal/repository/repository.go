// Package repository is the data access layer.
//
// Queries are written against database/sql with the pgx stdlib driver and
// follow a uniform shape: params struct in, row struct (or error) out, all
// statements parameterized. WithTx rebinds the same query set onto an open
// transaction so services can compose multi-statement operations.
package repository

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries holds all database operations bound to a connection or transaction.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given connection.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
