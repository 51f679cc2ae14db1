package bulkorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evolutio/automated-orders/pkg/logger"
	"github.com/evolutio/automated-orders/pkg/recipients"
)

// ErrRecipientsFailed wraps the joined per-recipient failures of a job.
var ErrRecipientsFailed = errors.New("bulkorder: some orders could not be created")

// Deps are the host contracts a Processor drives.
type Deps struct {
	Directory Directory
	Orders    OrderStore
	Audit     AuditLog
	Notifier  Notifier
	Invoices  Invoicer
	Mail      OrderMailer
}

// Processor creates orders for a Request.
type Processor struct {
	deps     Deps
	logger   *slog.Logger
	now      func() time.Time
	defaults Defaults
	fanOut   bool
}

type Option func(*Processor)

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithDefaults(d Defaults) Option {
	return func(p *Processor) { p.defaults = d }
}

// WithFanOut makes a recipient with number n produce n orders. Without it
// every recipient produces exactly one order and number only feeds the
// code count check of the form.
func WithFanOut(enabled bool) Option {
	return func(p *Processor) { p.fanOut = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(deps Deps, opts ...Option) *Processor {
	p := &Processor{
		deps:     deps,
		logger:   logger.Discard(),
		now:      time.Now,
		defaults: DefaultDefaults(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type unit struct {
	recipient recipients.Recipient
	index     int
}

func (p *Processor) units(rs []recipients.Recipient) []unit {
	out := make([]unit, 0, len(rs))
	for i, r := range rs {
		n := 1
		if p.fanOut && r.Number > 1 {
			n = r.Number
		}
		for range n {
			out = append(out, unit{recipient: r, index: i + 1})
		}
	}
	return out
}

// Process places one order per recipient, sequentially and in order. A
// recipient whose order is rejected is skipped and reported in the
// returned error once the loop ends. A failing side effect stops the job.
func (p *Processor) Process(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	ev, err := p.deps.Directory.Scope(ctx, req.OrganizerID, req.EventID)
	if err != nil {
		return fmt.Errorf("bulkorder: resolve event %d: %w", req.EventID, err)
	}
	actor, err := p.deps.Directory.Actor(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("bulkorder: resolve user %d: %w", req.UserID, err)
	}

	log := p.logger.With(slog.Int64("event_id", ev.ID), slog.Int64("product_id", req.ProductID))
	units := p.units(req.Recipients)
	log.InfoContext(ctx, "bulk order started", slog.Int("recipients", len(req.Recipients)), slog.Int("orders", len(units)))

	var (
		failed  []error
		created int
	)
	for _, u := range units {
		order, sendMail, err := p.place(ctx, ev, actor, req.ProductID, u.recipient)
		if err != nil {
			log.ErrorContext(ctx, "order creation failed",
				slog.Int("recipient", u.index),
				slog.String("email", u.recipient.Email),
				slog.Any("error", err),
			)
			failed = append(failed, fmt.Errorf("recipient %d (%s): %w", u.index, u.recipient.Email, err))
			continue
		}
		created++
		log.InfoContext(ctx, "order created",
			slog.Int("recipient", u.index),
			slog.String("email", u.recipient.Email),
			slog.String("order", order.Code),
			slog.String("status", string(order.Status)),
		)

		if err := p.afterPlaced(ctx, ev, actor, order, sendMail); err != nil {
			return errors.Join(append(failed, fmt.Errorf("bulkorder: order %s: %w", order.Code, err))...)
		}
	}

	log.InfoContext(ctx, "bulk order finished", slog.Int("created", created), slog.Int("failed", len(failed)))
	if len(failed) > 0 {
		return errors.Join(append([]error{ErrRecipientsFailed}, failed...)...)
	}
	return nil
}

func (p *Processor) place(ctx context.Context, ev *Event, actor Actor, productID int64, r recipients.Recipient) (*Order, bool, error) {
	payload := BuildPayload(p.defaults, productID, r)
	if err := payload.Validate(); err != nil {
		return nil, false, err
	}

	var created *Created
	err := p.deps.Orders.Atomic(ctx, func(ctx context.Context, tx OrderTx) error {
		c, err := tx.CreateOrder(ctx, ev, payload)
		if err != nil {
			return err
		}
		if err := tx.LogAction(ctx, c.Order.ID, ActionPlaced, actor, nil); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return created.Order, created.SendMail, nil
}

func (p *Processor) afterPlaced(ctx context.Context, ev *Event, actor Actor, o *Order, sendMail bool) error {
	payment := o.LastPayment()

	if err := p.deps.Notifier.OrderPlaced(ctx, ev, o); err != nil {
		return fmt.Errorf("placed notification: %w", err)
	}
	if o.Status == StatusPaid {
		if err := p.deps.Notifier.OrderPaid(ctx, ev, o); err != nil {
			return fmt.Errorf("paid notification: %w", err)
		}
		var provider any
		if payment != nil {
			provider = payment.Provider
		}
		data := map[string]any{
			"provider": provider,
			"info":     map[string]any{},
			"date":     p.now().Format(time.RFC3339Nano),
			"force":    false,
		}
		if err := p.deps.Audit.LogAction(ctx, o.ID, ActionPaid, actor, data); err != nil {
			return fmt.Errorf("paid log: %w", err)
		}
	}

	invoice, err := p.invoice(ctx, ev, o)
	if err != nil {
		return err
	}

	if !sendMail {
		return nil
	}

	var payments []Payment
	if payment != nil {
		payments = []Payment{*payment}
	}
	base := Mail{Event: ev, Order: o, Invoice: invoice, Locale: o.Locale, Region: ev.Region, Payments: payments}

	flow := SelectFlow(ev, o)
	base.Free = flow.Free
	if err := p.send(ctx, base, flow.Template, flow.LogKey, nil); err != nil {
		return err
	}
	if flow.Attendees {
		for _, pos := range o.AttendeePositions() {
			if err := p.send(ctx, base, flow.AttendeeTemplate, flow.LogKey, &pos); err != nil {
				return err
			}
		}
	}

	if !flow.Free && o.Status == StatusPaid && payment != nil {
		if err := p.send(ctx, base, TemplatePaid, LogEmailPaid, nil); err != nil {
			return err
		}
		if ev.Settings.MailPaidAttendees {
			for _, pos := range o.AttendeePositions() {
				if err := p.send(ctx, base, TemplatePaidAttendee, LogEmailPaidAttendee, &pos); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// invoice generates an invoice when the order qualifies, the event setting
// asks for one at this point and none exists yet.
func (p *Processor) invoice(ctx context.Context, ev *Event, o *Order) (*Invoice, error) {
	if !p.deps.Invoices.Qualified(ev, o) {
		return nil, nil
	}
	switch ev.Settings.InvoiceGenerate {
	case InvoiceAlways:
	case InvoicePaid:
		if o.Status != StatusPaid {
			return nil, nil
		}
	default:
		return nil, nil
	}

	exists, err := p.deps.Invoices.HasInvoice(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("invoice lookup: %w", err)
	}
	if exists {
		return nil, nil
	}
	inv, err := p.deps.Invoices.Generate(ctx, ev, o)
	if err != nil {
		return nil, fmt.Errorf("invoice generation: %w", err)
	}
	return inv, nil
}

func (p *Processor) send(ctx context.Context, m Mail, template, logKey string, pos *Position) error {
	m.Template = template
	m.Position = pos
	if err := p.deps.Mail.Send(ctx, m); err != nil {
		return fmt.Errorf("send %s to %s: %w", template, m.Recipient(), err)
	}
	data := map[string]any{"recipient": m.Recipient(), "template": template}
	if pos != nil {
		data["position"] = pos.ID
	}
	// Mail audit entries are not attributed to the actor.
	if err := p.deps.Audit.LogAction(ctx, m.Order.ID, logKey, Actor{}, data); err != nil {
		return fmt.Errorf("mail log: %w", err)
	}
	return nil
}
