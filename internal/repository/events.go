package repository

import (
	"context"
	"fmt"

	"github.com/evolutio/automated-orders/internal/bulkorder"
)

const eventColumns = `
	e.id, e.organizer_id, e.slug, o.slug, e.name, e.currency, e.region,
	e.invoice_generate, e.invoice_include_free,
	e.mail_placed_attendees, e.mail_free_attendees, e.mail_paid_attendees`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*bulkorder.Event, error) {
	var (
		ev      bulkorder.Event
		invoice string
	)
	err := row.Scan(
		&ev.ID, &ev.OrganizerID, &ev.Slug, &ev.OrganizerSlug, &ev.Name, &ev.Currency, &ev.Region,
		&invoice, &ev.Settings.InvoiceIncludeFree,
		&ev.Settings.MailPlacedAttendees, &ev.Settings.MailFreeAttendees, &ev.Settings.MailPaidAttendees,
	)
	if err != nil {
		return nil, err
	}
	ev.Settings.InvoiceGenerate = bulkorder.InvoiceGeneration(invoice)
	return &ev, nil
}

// Scope loads the event only when it belongs to the organizer.
func (r *Repository) Scope(ctx context.Context, organizerID, eventID int64) (*bulkorder.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+eventColumns+`
		FROM events e JOIN organizers o ON o.id = e.organizer_id
		WHERE e.id = $1 AND e.organizer_id = $2`, eventID, organizerID)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("repository: scope event %d: %w", eventID, notFound(err))
	}
	return ev, nil
}

// Settings reads the processing settings of an event.
func (r *Repository) Settings(ctx context.Context, eventID int64) (bulkorder.EventSettings, error) {
	var (
		st      bulkorder.EventSettings
		invoice string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT invoice_generate, invoice_include_free,
			mail_placed_attendees, mail_free_attendees, mail_paid_attendees
		FROM events WHERE id = $1`, eventID).
		Scan(&invoice, &st.InvoiceIncludeFree, &st.MailPlacedAttendees, &st.MailFreeAttendees, &st.MailPaidAttendees)
	if err != nil {
		return bulkorder.EventSettings{}, fmt.Errorf("repository: event %d settings: %w", eventID, notFound(err))
	}
	st.InvoiceGenerate = bulkorder.InvoiceGeneration(invoice)
	return st, nil
}

// EventBySlug resolves the management URL of an event.
func (r *Repository) EventBySlug(ctx context.Context, organizer, event string) (*bulkorder.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+eventColumns+`
		FROM events e JOIN organizers o ON o.id = e.organizer_id
		WHERE o.slug = $1 AND e.slug = $2`, organizer, event)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("repository: event %s/%s: %w", organizer, event, notFound(err))
	}
	return ev, nil
}

// FreeProducts lists the active zero-price items of an event.
func (r *Repository) FreeProducts(ctx context.Context, eventID int64) ([]bulkorder.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, default_price FROM items
		WHERE event_id = $1 AND active AND default_price = 0
		ORDER BY position, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("repository: list products: %w", err)
	}
	defer rows.Close()

	var out []bulkorder.Product
	for rows.Next() {
		var p bulkorder.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("repository: scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: list products: %w", err)
	}
	return out, nil
}
