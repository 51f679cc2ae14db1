package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/db"
)

func (r *Repository) HasInvoice(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE order_id = $1)`, orderID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("repository: invoice lookup: %w", err)
	}
	return exists, nil
}

// CreateInvoice draws the next number of the event's sequence and records
// the invoice row.
func (r *Repository) CreateInvoice(ctx context.Context, eventID, orderID int64) (*bulkorder.Invoice, error) {
	inv := &bulkorder.Invoice{OrderID: orderID}
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			prefix  string
			counter int64
		)
		if err := tx.QueryRowContext(ctx, `
			UPDATE events SET invoice_counter = invoice_counter + 1
			WHERE id = $1 RETURNING invoice_prefix, invoice_counter`, eventID,
		).Scan(&prefix, &counter); err != nil {
			return notFound(err)
		}
		inv.Number = fmt.Sprintf("%s%05d", prefix, counter)

		return tx.QueryRowContext(ctx, `
			INSERT INTO invoices (order_id, event_id, number) VALUES ($1, $2, $3) RETURNING id`,
			orderID, eventID, inv.Number,
		).Scan(&inv.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("repository: create invoice: %w", err)
	}
	return inv, nil
}

// AttachFile stores the object key of the rendered invoice.
func (r *Repository) AttachFile(ctx context.Context, invoiceID int64, key string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE invoices SET file_key = $2 WHERE id = $1`, invoiceID, key); err != nil {
		return fmt.Errorf("repository: attach invoice file: %w", err)
	}
	return nil
}
