package ordermail_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/internal/ordermail"
	"github.com/evolutio/automated-orders/pkg/mailer"
)

type outbox struct {
	messages []*mailer.Message
	err      error
}

func (o *outbox) Send(_ context.Context, msg *mailer.Message) error {
	if o.err != nil {
		return o.err
	}
	o.messages = append(o.messages, msg)
	return nil
}

func newMailer(box *outbox) *ordermail.Mailer {
	m := mailer.New(box, mailer.NewRenderer(ordermail.Templates(), ""), mailer.Config{
		From:   "tickets@example.org",
		Layout: "base.html",
	})
	return ordermail.New(m, ordermail.Config{BaseURL: "https://shop.example.org/", ReplyTo: "help@example.org"})
}

var (
	event = &bulkorder.Event{Slug: "fest", OrganizerSlug: "acme", Name: "Fest 2026", Currency: "EUR"}
	order = &bulkorder.Order{
		Code:   "AB3CD",
		Secret: "s3cr3t",
		Email:  "buyer@example.org",
		Total:  decimal.Zero,
		Positions: []bulkorder.Position{
			{ID: 11, AttendeeName: "Jane", AttendeeEmail: "jane@example.org", Secret: "pos11"},
		},
	}
)

func TestSend_BuyerWithInvoice(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	err := newMailer(box).Send(context.Background(), bulkorder.Mail{
		Event:    event,
		Order:    order,
		Template: bulkorder.TemplateFree,
		Free:     true,
		Invoice: &bulkorder.Invoice{
			Filename:    "FEST00001.html",
			ContentType: "text/html; charset=utf-8",
			Content:     []byte("<h1>Invoice</h1>"),
			URL:         "https://files.example.org/inv",
		},
	})
	require.NoError(t, err)
	require.Len(t, box.messages, 1)

	msg := box.messages[0]
	assert.Equal(t, []string{"buyer@example.org"}, msg.To)
	assert.Equal(t, "help@example.org", msg.ReplyTo)
	assert.Equal(t, "Your order: AB3CD", msg.Subject)
	assert.Contains(t, msg.HTML, "https://shop.example.org/acme/fest/order/AB3CD/s3cr3t/")
	assert.Contains(t, msg.Text, "Your invoice: https://files.example.org/inv")
	assert.Equal(t, map[string]string{"event": "fest", "template": "order_free"}, msg.Tags)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "FEST00001.html", msg.Attachments[0].Filename)
}

func TestSend_AttendeeLocalized(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	pos := order.Positions[0]
	err := newMailer(box).Send(context.Background(), bulkorder.Mail{
		Event:    event,
		Order:    order,
		Position: &pos,
		Template: bulkorder.TemplateFreeAttendee,
		Locale:   "fr-be",
		Invoice:  &bulkorder.Invoice{Content: []byte("x"), Filename: "f.html"},
	})
	require.NoError(t, err)
	require.Len(t, box.messages, 1)

	msg := box.messages[0]
	assert.Equal(t, []string{"jane@example.org"}, msg.To)
	assert.Equal(t, "Votre inscription : AB3CD", msg.Subject)
	assert.Contains(t, msg.Text, "Bonjour Jane")
	assert.Contains(t, msg.Text, "https://shop.example.org/acme/fest/ticket/AB3CD/11/pos11/")
	assert.Contains(t, msg.HTML, `lang="fr-be"`)
	assert.Empty(t, msg.Attachments)
}

func TestSend_PaidListsPayments(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	err := newMailer(box).Send(context.Background(), bulkorder.Mail{
		Event:    event,
		Order:    order,
		Template: bulkorder.TemplatePaid,
		Locale:   "fr",
		Payments: []bulkorder.Payment{{Provider: "boxoffice", Amount: decimal.RequireFromString("10")}},
	})
	require.NoError(t, err)

	// No French paid template exists, so English is used with French amounts.
	msg := box.messages[0]
	assert.Equal(t, "Payment received for your order: AB3CD", msg.Subject)
	assert.Contains(t, msg.Text, "- boxoffice: 10,00 EUR")
}

func TestSend_RegionCompletesLocale(t *testing.T) {
	t.Parallel()

	placed := *order
	placed.Total = decimal.RequireFromString("12.5")
	placed.CreatedAt = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name, locale, region string
		lang, total, date    string
	}{
		{"language only takes event region", "fr", "BE", `lang="fr-be"`, "12,50 EUR", "04/03/2026"},
		{"explicit region wins", "fr-ca", "BE", `lang="fr-ca"`, "12,50 EUR", "04/03/2026"},
		{"no region", "en", "", `lang="en"`, "12.50 EUR", "04/03/2026"},
		{"us dates", "en", "US", `lang="en-us"`, "12.50 EUR", "03/04/2026"},
		{"unknown region ignored", "fr", "??", `lang="fr"`, "12,50 EUR", "04/03/2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			box := &outbox{}
			err := newMailer(box).Send(context.Background(), bulkorder.Mail{
				Event:    event,
				Order:    &placed,
				Template: bulkorder.TemplatePlaced,
				Locale:   tt.locale,
				Region:   tt.region,
			})
			require.NoError(t, err)
			require.Len(t, box.messages, 1)

			msg := box.messages[0]
			assert.Contains(t, msg.HTML, tt.lang)
			assert.Contains(t, msg.Text, tt.total)
			assert.Contains(t, msg.Text, tt.date)
		})
	}
}

func TestSend_EveryFlowTemplateRenders(t *testing.T) {
	t.Parallel()

	templates := []string{
		bulkorder.TemplateRequireApproval,
		bulkorder.TemplateFree,
		bulkorder.TemplateFreeAttendee,
		bulkorder.TemplatePlaced,
		bulkorder.TemplatePlacedAttendee,
		bulkorder.TemplatePaid,
		bulkorder.TemplatePaidAttendee,
	}
	for _, name := range templates {
		for _, locale := range []string{"", "fr-be"} {
			box := &outbox{}
			err := newMailer(box).Send(context.Background(), bulkorder.Mail{
				Event: event, Order: order, Template: name, Locale: locale,
			})
			require.NoError(t, err, "%s (%s)", name, locale)
			assert.NotEmpty(t, box.messages[0].Subject, name)
		}
	}
}

func TestSend_DeliveryFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("smtp down")
	err := newMailer(&outbox{err: boom}).Send(context.Background(), bulkorder.Mail{
		Event: event, Order: order, Template: bulkorder.TemplatePlaced,
	})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	assert.Contains(t, err.Error(), "order_placed to order AB3CD")
}

var _ bulkorder.OrderMailer = (*ordermail.Mailer)(nil)
