// Package notify dispatches the order placed and paid signals to a list
// of handlers, synchronously and in registration order. The first failing
// handler aborts the dispatch so the caller sees the error.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/evolutio/automated-orders/internal/bulkorder"
)

type Kind string

const (
	KindPlaced Kind = "order.placed"
	KindPaid   Kind = "order.paid"
)

// Event is the serializable form of a signal.
type Event struct {
	At        time.Time        `json:"at"`
	Kind      Kind             `json:"kind"`
	Organizer string           `json:"organizer"`
	EventSlug string           `json:"event"`
	Code      string           `json:"code"`
	Email     string           `json:"email"`
	Status    bulkorder.Status `json:"status"`
	Total     string           `json:"total"`
	OrderID   int64            `json:"order_id"`
}

type Handler interface {
	Handle(ctx context.Context, e Event) error
}

type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Dispatcher implements bulkorder.Notifier.
type Dispatcher struct {
	now      func() time.Time
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers, now: time.Now}
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, ev *bulkorder.Event, o *bulkorder.Order) error {
	return d.dispatch(ctx, KindPlaced, ev, o)
}

func (d *Dispatcher) OrderPaid(ctx context.Context, ev *bulkorder.Event, o *bulkorder.Order) error {
	return d.dispatch(ctx, KindPaid, ev, o)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind Kind, ev *bulkorder.Event, o *bulkorder.Order) error {
	e := Event{
		At:        d.now(),
		Kind:      kind,
		Organizer: ev.OrganizerSlug,
		EventSlug: ev.Slug,
		Code:      o.Code,
		Email:     o.Email,
		Status:    o.Status,
		Total:     o.Total.String(),
		OrderID:   o.ID,
	}
	for _, h := range d.handlers {
		if err := h.Handle(ctx, e); err != nil {
			return fmt.Errorf("notify: %s: %w", kind, err)
		}
	}
	return nil
}

// Log writes every signal to l at info level.
func Log(l *slog.Logger) Handler {
	return HandlerFunc(func(ctx context.Context, e Event) error {
		l.InfoContext(ctx, "order signal",
			"kind", e.Kind,
			"event", e.EventSlug,
			"code", e.Code,
			"status", e.Status,
		)
		return nil
	})
}

// DefaultChannel prefixes the per-event publish channel.
const DefaultChannel = "automated_orders"

// Publish sends every signal as JSON to the Redis channel
// "<prefix>:<organizer>:<event>".
func Publish(client goredis.UniversalClient, prefix string) Handler {
	if prefix == "" {
		prefix = DefaultChannel
	}
	return HandlerFunc(func(ctx context.Context, e Event) error {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return client.Publish(ctx, Channel(prefix, e.Organizer, e.EventSlug), data).Err()
	})
}

func Channel(prefix, organizer, event string) string {
	return prefix + ":" + organizer + ":" + event
}
