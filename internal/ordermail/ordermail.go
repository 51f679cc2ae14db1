// Package ordermail renders and sends the buyer, attendee and payment
// e-mails of an order through pkg/mailer. Templates are embedded and
// resolved per locale, most specific first.
package ordermail

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/mailer"
)

//go:embed templates
var embedded embed.FS

// Templates returns the embedded mail templates rooted at the template
// directory, with layouts under layouts/.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Sender is the part of *mailer.Mailer this package uses.
type Sender interface {
	Send(ctx context.Context, p mailer.Params) error
}

// Config holds the public links put into mails.
type Config struct {
	// BaseURL is the public shop root, e.g. https://tickets.example.org.
	BaseURL string `env:"SHOP_BASE_URL" envDefault:"http://localhost:8000"`
	ReplyTo string `env:"MAIL_REPLY_TO"`
}

// Mailer implements bulkorder.OrderMailer.
type Mailer struct {
	sender Sender
	cfg    Config
}

func New(sender Sender, cfg Config) *Mailer {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Mailer{sender: sender, cfg: cfg}
}

// Data is what templates see.
type Data struct {
	Event        string
	Code         string
	Email        string
	AttendeeName string
	URL          string
	InvoiceURL   string
	Total        string
	Date         string
	Payments     []PaymentData
	Free         bool
}

type PaymentData struct {
	Provider string
	Amount   string
}

func (m *Mailer) Send(ctx context.Context, mail bulkorder.Mail) error {
	ev, o := mail.Event, mail.Order
	locale := regional(mail.Locale, mail.Region)
	f := newFormatter(locale)

	data := Data{
		Event: ev.Name,
		Code:  o.Code,
		Email: o.Email,
		URL:   m.orderURL(ev, o.Code, o.Secret),
		Total: f.money(o.Total, ev.Currency),
		Date:  f.date(o.CreatedAt),
		Free:  mail.Free,
	}
	for _, p := range mail.Payments {
		data.Payments = append(data.Payments, PaymentData{
			Provider: p.Provider,
			Amount:   f.money(p.Amount, ev.Currency),
		})
	}

	params := mailer.Params{
		To:       mail.Recipient(),
		Template: mail.Template + ".md",
		Locale:   locale,
		ReplyTo:  m.cfg.ReplyTo,
		Tags: map[string]string{
			"event":    ev.Slug,
			"template": mail.Template,
		},
	}

	if pos := mail.Position; pos != nil {
		data.AttendeeName = pos.AttendeeName
		data.URL = m.positionURL(ev, o.Code, pos)
	} else if inv := mail.Invoice; inv != nil {
		// Only the buyer receives the invoice.
		data.InvoiceURL = inv.URL
		if len(inv.Content) > 0 {
			params.Attachments = []mailer.Attachment{{
				Filename:    inv.Filename,
				ContentType: inv.ContentType,
				Content:     inv.Content,
			}}
		}
	}
	params.Data = data

	if err := m.sender.Send(ctx, params); err != nil {
		return fmt.Errorf("ordermail: %s to order %s: %w", mail.Template, o.Code, err)
	}
	return nil
}

func (m *Mailer) orderURL(ev *bulkorder.Event, code, secret string) string {
	return fmt.Sprintf("%s/%s/%s/order/%s/%s/",
		m.cfg.BaseURL, url.PathEscape(ev.OrganizerSlug), url.PathEscape(ev.Slug), code, secret)
}

func (m *Mailer) positionURL(ev *bulkorder.Event, code string, pos *bulkorder.Position) string {
	return fmt.Sprintf("%s/%s/%s/ticket/%s/%d/%s/",
		m.cfg.BaseURL, url.PathEscape(ev.OrganizerSlug), url.PathEscape(ev.Slug), code, pos.ID, pos.Secret)
}
