package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/db"
	"github.com/evolutio/automated-orders/pkg/id"
)

const (
	codeLength   = 5
	codeAttempts = 3
)

const (
	paymentCreated   = "created"
	paymentConfirmed = "confirmed"
)

const pgUniqueViolation = "23505"

func newCode() string {
	return id.NewCode(id.Unambiguous, codeLength)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Atomic runs fn in one transaction. Everything fn writes commits together.
func (r *Repository) Atomic(ctx context.Context, fn func(ctx context.Context, tx bulkorder.OrderTx) error) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(ctx, &orderTx{q: tx, now: r.now, codes: newCode})
	})
}

// LogAction writes an audit entry outside any transaction.
func (r *Repository) LogAction(ctx context.Context, orderID int64, action string, actor bulkorder.Actor, data map[string]any) error {
	return logAction(ctx, r.db, orderID, action, actor, data)
}

func logAction(ctx context.Context, q querier, orderID int64, action string, actor bulkorder.Actor, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("repository: encode log data: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO order_logs (order_id, action, user_id, data) VALUES ($1, $2, $3, $4)`,
		orderID, action, actor.UserID(), raw,
	); err != nil {
		return fmt.Errorf("repository: log %s: %w", action, err)
	}
	return nil
}

type orderTx struct {
	q     querier
	now   func() time.Time
	codes func() string
}

func (t *orderTx) LogAction(ctx context.Context, orderID int64, action string, actor bulkorder.Actor, data map[string]any) error {
	return logAction(ctx, t.q, orderID, action, actor, data)
}

type item struct {
	name            string
	price           decimal.Decimal
	id              int64
	requireApproval bool
}

// CreateOrder persists the order, its positions and its payment. Items that
// do not belong to the event reject the payload.
func (t *orderTx) CreateOrder(ctx context.Context, ev *bulkorder.Event, p *bulkorder.Payload) (*bulkorder.Created, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	items := make([]item, len(p.Positions))
	total := decimal.Zero
	requireApproval := false
	for i, pos := range p.Positions {
		it, err := t.item(ctx, ev.ID, pos.ItemID)
		if err != nil {
			return nil, err
		}
		items[i] = it
		total = total.Add(it.price)
		requireApproval = requireApproval || it.requireApproval
	}

	status := bulkorder.StatusPending
	paymentState := paymentCreated
	free := p.PaymentProvider == bulkorder.ProviderFree || p.PaymentProvider == bulkorder.ProviderBoxOffice
	if total.IsZero() && !requireApproval && free {
		status = bulkorder.StatusPaid
		paymentState = paymentConfirmed
	}

	o := &bulkorder.Order{
		EventID:         ev.ID,
		Secret:          id.NewSecret(),
		Email:           p.Email,
		Locale:          p.Locale,
		SalesChannel:    p.SalesChannel,
		Status:          status,
		Total:           total,
		RequireApproval: requireApproval,
	}
	if err := t.insertOrder(ctx, o); err != nil {
		return nil, err
	}

	for i, pos := range p.Positions {
		position := bulkorder.Position{
			ItemID:        pos.ItemID,
			AttendeeName:  pos.AttendeeName,
			AttendeeEmail: pos.AttendeeEmail,
			Price:         items[i].price,
			Secret:        id.NewSecret(),
		}
		if err := t.q.QueryRowContext(ctx, `
			INSERT INTO order_positions (order_id, item_id, attendee_name, attendee_email, price, secret)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			o.ID, position.ItemID, position.AttendeeName, position.AttendeeEmail, position.Price, position.Secret,
		).Scan(&position.ID); err != nil {
			return nil, fmt.Errorf("repository: insert position: %w", err)
		}
		o.Positions = append(o.Positions, position)
	}

	payment := bulkorder.Payment{Provider: p.PaymentProvider, State: paymentState, Amount: total}
	if err := t.q.QueryRowContext(ctx, `
		INSERT INTO order_payments (order_id, provider, state, amount)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		o.ID, payment.Provider, payment.State, payment.Amount,
	).Scan(&payment.ID); err != nil {
		return nil, fmt.Errorf("repository: insert payment: %w", err)
	}
	o.Payments = []bulkorder.Payment{payment}

	return &bulkorder.Created{Order: o, SendMail: p.SendEmail}, nil
}

func (t *orderTx) item(ctx context.Context, eventID, itemID int64) (item, error) {
	it := item{id: itemID}
	err := t.q.QueryRowContext(ctx, `
		SELECT name, default_price, require_approval FROM items
		WHERE id = $1 AND event_id = $2 AND active`, itemID, eventID).
		Scan(&it.name, &it.price, &it.requireApproval)
	if errors.Is(err, sql.ErrNoRows) {
		return item{}, fmt.Errorf("%w: item %d is not available", bulkorder.ErrInvalidPayload, itemID)
	}
	if err != nil {
		return item{}, fmt.Errorf("repository: load item %d: %w", itemID, err)
	}
	return it, nil
}

// insertOrder retries on code collisions. The savepoint keeps the
// surrounding transaction usable after a unique violation.
func (t *orderTx) insertOrder(ctx context.Context, o *bulkorder.Order) error {
	var lastErr error
	for range codeAttempts {
		o.Code = t.codes()
		created := t.now()
		if _, err := t.q.ExecContext(ctx, `SAVEPOINT order_code`); err != nil {
			return fmt.Errorf("repository: savepoint: %w", err)
		}
		err := t.q.QueryRowContext(ctx, `
			INSERT INTO orders (event_id, code, secret, email, locale, sales_channel, status, total, require_approval, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
			o.EventID, o.Code, o.Secret, o.Email, o.Locale, o.SalesChannel, string(o.Status), o.Total, o.RequireApproval, created,
		).Scan(&o.ID)
		if err == nil {
			o.CreatedAt = created
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("repository: insert order: %w", err)
		}
		lastErr = err
		if _, err := t.q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT order_code`); err != nil {
			return fmt.Errorf("repository: rollback savepoint: %w", err)
		}
	}
	return fmt.Errorf("repository: no free order code after %d attempts: %w", codeAttempts, lastErr)
}
