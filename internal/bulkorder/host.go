package bulkorder

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("bulkorder: not found")
	ErrInvalidPayload = errors.New("bulkorder: invalid order payload")
	ErrInvalidRequest = errors.New("bulkorder: invalid request")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// InvoiceGeneration is the event setting that decides when invoices are issued.
type InvoiceGeneration string

const (
	InvoiceNever  InvoiceGeneration = "never"
	InvoiceAlways InvoiceGeneration = "always"
	InvoicePaid   InvoiceGeneration = "paid"
)

// Payment providers that settle an order without collecting money.
const (
	ProviderFree      = "free"
	ProviderBoxOffice = "boxoffice"
)

// Event is the tenant scope a job runs in.
type Event struct {
	Slug          string
	OrganizerSlug string
	Name          string
	Currency      string
	Region        string
	Settings      EventSettings
	ID            int64
	OrganizerID   int64
}

// EventSettings holds the settings the processor reads.
type EventSettings struct {
	InvoiceGenerate     InvoiceGeneration
	InvoiceIncludeFree  bool
	MailPlacedAttendees bool
	MailFreeAttendees   bool
	MailPaidAttendees   bool
}

// Actor is the user a job acts for. The zero value is anonymous.
type Actor struct {
	Email         string
	ID            int64
	Authenticated bool
}

// UserID returns the id to attribute audit entries to, or nil when the
// actor is anonymous.
func (a Actor) UserID() *int64 {
	if !a.Authenticated || a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

type Payment struct {
	Provider string
	State    string
	Amount   decimal.Decimal
	ID       int64
}

type Position struct {
	AddonTo       *int64
	AttendeeName  string
	AttendeeEmail string
	Secret        string
	Price         decimal.Decimal
	ID            int64
	ItemID        int64
}

// Order is the subset of a host order the processor reads.
type Order struct {
	CreatedAt       time.Time
	Code            string
	Secret          string
	Email           string
	Locale          string
	SalesChannel    string
	Status          Status
	Total           decimal.Decimal
	Positions       []Position
	Payments        []Payment
	ID              int64
	EventID         int64
	RequireApproval bool
}

// LastPayment returns the most recent payment or nil.
func (o *Order) LastPayment() *Payment {
	if len(o.Payments) == 0 {
		return nil
	}
	return &o.Payments[len(o.Payments)-1]
}

// AttendeePositions returns the positions that get their own e-mail: no
// add-ons, and an attendee address that is set and differs from the buyer.
func (o *Order) AttendeePositions() []Position {
	var out []Position
	for _, p := range o.Positions {
		if p.AddonTo == nil && p.AttendeeEmail != "" && p.AttendeeEmail != o.Email {
			out = append(out, p)
		}
	}
	return out
}

type Invoice struct {
	Number      string
	Filename    string
	ContentType string
	URL         string
	Content     []byte
	ID          int64
	OrderID     int64
}

// Created is the result of the order creation contract.
type Created struct {
	Order    *Order
	SendMail bool
}

// Directory re-resolves ids into live scope objects.
type Directory interface {
	// Scope returns the event, checking it belongs to the organizer.
	Scope(ctx context.Context, organizerID, eventID int64) (*Event, error)
	Actor(ctx context.Context, userID int64) (Actor, error)
}

// AuditLog records actions against an order.
type AuditLog interface {
	LogAction(ctx context.Context, orderID int64, action string, actor Actor, data map[string]any) error
}

// OrderTx is the order creation contract bound to one transaction.
type OrderTx interface {
	AuditLog
	CreateOrder(ctx context.Context, ev *Event, p *Payload) (*Created, error)
}

// OrderStore opens the per-order transaction.
type OrderStore interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx OrderTx) error) error
}

// Notifier receives the placed and paid events, in that order.
type Notifier interface {
	OrderPlaced(ctx context.Context, ev *Event, o *Order) error
	OrderPaid(ctx context.Context, ev *Event, o *Order) error
}

type Invoicer interface {
	Qualified(ev *Event, o *Order) bool
	HasInvoice(ctx context.Context, orderID int64) (bool, error)
	Generate(ctx context.Context, ev *Event, o *Order) (*Invoice, error)
}

// Mail is one order e-mail. Position is set for attendee e-mails.
// Locale is the order locale and Region the event's region; together they
// select templates and money and date formats.
type Mail struct {
	Event    *Event
	Order    *Order
	Position *Position
	Invoice  *Invoice
	Template string
	Locale   string
	Region   string
	Payments []Payment
	Free     bool
}

// Recipient returns the address the mail goes to.
func (m Mail) Recipient() string {
	if m.Position != nil {
		return m.Position.AttendeeEmail
	}
	return m.Order.Email
}

type OrderMailer interface {
	Send(ctx context.Context, m Mail) error
}
