// Package invoice decides whether an order qualifies for an invoice and
// issues one: it draws the next number of the event sequence, renders the
// document from Markdown with goldmark and, when object storage is
// configured, uploads it and attaches the object key to the invoice.
package invoice

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/storage"
)

var (
	ErrRender = errors.New("invoice: render failed")
	ErrUpload = errors.New("invoice: upload failed")
)

const ContentType = "text/html; charset=utf-8"

//go:embed templates/invoice.md
var templates embed.FS

// Store is the invoice persistence the service needs.
type Store interface {
	HasInvoice(ctx context.Context, orderID int64) (bool, error)
	CreateInvoice(ctx context.Context, eventID, orderID int64) (*bulkorder.Invoice, error)
	AttachFile(ctx context.Context, invoiceID int64, key string) error
}

// Service implements bulkorder.Invoicer.
type Service struct {
	store   Store
	storage storage.Storage
	logger  *slog.Logger
	tmpl    *template.Template
	md      goldmark.Markdown
	now     func() time.Time
}

type Option func(*Service)

// WithStorage uploads rendered invoices. Without it invoices are only
// numbered and rendered.
func WithStorage(s storage.Storage) Option {
	return func(svc *Service) { svc.storage = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

func New(store Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tmpl:   template.Must(template.ParseFS(templates, "templates/invoice.md")),
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Qualified reports whether o may get an invoice at all: it costs money
// or the event also invoices free orders.
func (s *Service) Qualified(ev *bulkorder.Event, o *bulkorder.Order) bool {
	return !o.Total.IsZero() || ev.Settings.InvoiceIncludeFree
}

func (s *Service) HasInvoice(ctx context.Context, orderID int64) (bool, error) {
	return s.store.HasInvoice(ctx, orderID)
}

// Generate numbers, renders and stores the invoice of o.
func (s *Service) Generate(ctx context.Context, ev *bulkorder.Event, o *bulkorder.Order) (*bulkorder.Invoice, error) {
	inv, err := s.store.CreateInvoice(ctx, ev.ID, o.ID)
	if err != nil {
		return nil, err
	}

	content, err := s.render(ev, o, inv)
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}
	inv.Content = content
	inv.ContentType = ContentType
	inv.Filename = inv.Number + ".html"

	if s.storage == nil {
		return inv, nil
	}

	key := fmt.Sprintf("invoices/%s/%s/%s", ev.OrganizerSlug, ev.Slug, inv.Filename)
	if _, err := s.storage.Put(ctx, key, ContentType, content); err != nil {
		return nil, errors.Join(ErrUpload, err)
	}
	if err := s.store.AttachFile(ctx, inv.ID, key); err != nil {
		return nil, err
	}
	if inv.URL, err = s.storage.URL(ctx, key); err != nil {
		// The file is stored and attached, the link is a convenience.
		s.logger.WarnContext(ctx, "invoice url failed", "invoice", inv.Number, "error", err)
	}
	return inv, nil
}

type line struct {
	Description string
	Price       string
}

func (s *Service) render(ev *bulkorder.Event, o *bulkorder.Order, inv *bulkorder.Invoice) ([]byte, error) {
	lines := make([]line, 0, len(o.Positions))
	for _, p := range o.Positions {
		desc := p.AttendeeName
		if desc == "" {
			desc = fmt.Sprintf("Item %d", p.ItemID)
		}
		lines = append(lines, line{Description: desc, Price: money(p.Price, ev.Currency)})
	}

	var src bytes.Buffer
	if err := s.tmpl.Execute(&src, map[string]any{
		"Number": inv.Number,
		"Event":  ev.Name,
		"Code":   o.Code,
		"Email":  o.Email,
		"Date":   s.now().Format(time.DateOnly),
		"Lines":  lines,
		"Total":  money(o.Total, ev.Currency),
	}); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := s.md.Convert(src.Bytes(), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func money(d decimal.Decimal, currency string) string {
	return d.StringFixed(2) + " " + currency
}
