package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"time"

	"github.com/evolutio/automated-orders/internal/bulkorder"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations with the SQL files at the root.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements the host contracts on top of database/sql.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ bulkorder.Directory  = (*Repository)(nil)
	_ bulkorder.OrderStore = (*Repository)(nil)
	_ bulkorder.AuditLog   = (*Repository)(nil)
)

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

func New(db *sql.DB, opts ...Option) *Repository {
	r := &Repository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return bulkorder.ErrNotFound
	}
	return err
}
