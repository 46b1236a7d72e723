// Package db carries the database handle and transaction plumbing shared by the
// repositories.
package db

import (
	"context"
	"database/sql"
)

// Database is a connection that owns its own schema.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}

// Executor is the query surface shared by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
