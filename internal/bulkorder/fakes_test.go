package bulkorder_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/evolutio/automated-orders/internal/bulkorder"
)

type logEntry struct {
	Data   map[string]any
	Action string
	Actor  bulkorder.Actor
	Order  int64
}

// host implements every contract the processor consumes and records the
// order in which they were called.
type host struct {
	event *bulkorder.Event
	actor bulkorder.Actor

	// create overrides the default order factory.
	create      func(p *bulkorder.Payload) (*bulkorder.Created, error)
	mailErr     error
	notifyErr   error
	invoiceSeen map[int64]bool

	calls     []string
	payloads  []*bulkorder.Payload
	orders    []*bulkorder.Order
	logs      []logEntry
	mails     []bulkorder.Mail
	generated []int64
	nextID    int64

	mu sync.Mutex
}

func newHost() *host {
	return &host{
		event: &bulkorder.Event{
			ID:            7,
			OrganizerID:   3,
			Slug:          "summit",
			OrganizerSlug: "evolutio",
			Name:          "Summit",
			Currency:      "EUR",
			Region:        "BE",
			Settings:      bulkorder.EventSettings{InvoiceGenerate: bulkorder.InvoiceNever},
		},
		actor:       bulkorder.Actor{ID: 42, Email: "staff@example.org", Authenticated: true},
		invoiceSeen: map[int64]bool{},
	}
}

func (h *host) deps() bulkorder.Deps {
	return bulkorder.Deps{Directory: h, Orders: h, Audit: h, Notifier: h, Invoices: h, Mail: h}
}

func (h *host) record(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *host) Scope(_ context.Context, organizerID, eventID int64) (*bulkorder.Event, error) {
	if organizerID != h.event.OrganizerID || eventID != h.event.ID {
		return nil, bulkorder.ErrNotFound
	}
	return h.event, nil
}

func (h *host) Actor(_ context.Context, userID int64) (bulkorder.Actor, error) {
	if userID != h.actor.ID {
		return bulkorder.Actor{}, bulkorder.ErrNotFound
	}
	return h.actor, nil
}

type tx struct {
	h    *host
	logs []logEntry
}

func (t *tx) CreateOrder(_ context.Context, _ *bulkorder.Event, p *bulkorder.Payload) (*bulkorder.Created, error) {
	t.h.payloads = append(t.h.payloads, p)
	if t.h.create != nil {
		return t.h.create(p)
	}
	return t.h.freeOrder(p), nil
}

func (t *tx) LogAction(_ context.Context, orderID int64, action string, actor bulkorder.Actor, data map[string]any) error {
	t.logs = append(t.logs, logEntry{Order: orderID, Action: action, Actor: actor, Data: data})
	return nil
}

func (h *host) Atomic(ctx context.Context, fn func(context.Context, bulkorder.OrderTx) error) error {
	t := &tx{h: h}
	if err := fn(ctx, t); err != nil {
		h.record("rollback")
		return err
	}
	h.logs = append(h.logs, t.logs...)
	h.record("commit")
	return nil
}

func (h *host) freeOrder(p *bulkorder.Payload) *bulkorder.Created {
	h.nextID++
	pos := p.Positions[0]
	o := &bulkorder.Order{
		ID:           h.nextID,
		Code:         fmt.Sprintf("ORD%02d", h.nextID),
		Email:        p.Email,
		Locale:       p.Locale,
		SalesChannel: p.SalesChannel,
		Status:       bulkorder.StatusPaid,
		Total:        decimal.Zero,
		Positions: []bulkorder.Position{{
			ID:            h.nextID * 10,
			ItemID:        pos.ItemID,
			AttendeeName:  pos.AttendeeName,
			AttendeeEmail: pos.AttendeeEmail,
		}},
		Payments: []bulkorder.Payment{{ID: h.nextID, Provider: p.PaymentProvider, State: "confirmed"}},
	}
	h.orders = append(h.orders, o)
	return &bulkorder.Created{Order: o, SendMail: p.SendEmail}
}

func (h *host) LogAction(_ context.Context, orderID int64, action string, actor bulkorder.Actor, data map[string]any) error {
	h.logs = append(h.logs, logEntry{Order: orderID, Action: action, Actor: actor, Data: data})
	return nil
}

func (h *host) OrderPlaced(_ context.Context, _ *bulkorder.Event, o *bulkorder.Order) error {
	h.record("placed %s", o.Code)
	return h.notifyErr
}

func (h *host) OrderPaid(_ context.Context, _ *bulkorder.Event, o *bulkorder.Order) error {
	h.record("paid %s", o.Code)
	return nil
}

func (h *host) Qualified(ev *bulkorder.Event, o *bulkorder.Order) bool {
	return !o.Total.IsZero() || ev.Settings.InvoiceIncludeFree
}

func (h *host) HasInvoice(_ context.Context, orderID int64) (bool, error) {
	return h.invoiceSeen[orderID], nil
}

func (h *host) Generate(_ context.Context, _ *bulkorder.Event, o *bulkorder.Order) (*bulkorder.Invoice, error) {
	h.generated = append(h.generated, o.ID)
	h.record("invoice %s", o.Code)
	return &bulkorder.Invoice{ID: o.ID, OrderID: o.ID, Number: "INV-" + o.Code}, nil
}

func (h *host) Send(_ context.Context, m bulkorder.Mail) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mailErr != nil {
		return h.mailErr
	}
	h.mails = append(h.mails, m)
	h.record("mail %s %s", m.Template, m.Recipient())
	return nil
}

func (h *host) actions(orderID int64) []string {
	var out []string
	for _, l := range h.logs {
		if l.Order == orderID {
			out = append(out, l.Action)
		}
	}
	return out
}

func (h *host) templates() []string {
	out := make([]string, 0, len(h.mails))
	for _, m := range h.mails {
		out = append(out, m.Template+" "+m.Recipient())
	}
	return out
}

func (h *host) hasCall(call string) bool {
	return slices.Contains(h.calls, call)
}

var errRejected = errors.New("product is sold out")
