package bulkorder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/recipients"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func request(rs ...recipients.Recipient) bulkorder.Request {
	return bulkorder.Request{ProductID: 11, EventID: 7, UserID: 42, OrganizerID: 3, Recipients: rs}
}

func rcpt(email string) recipients.Recipient {
	return recipients.Recipient{Email: email, Number: 1}
}

func newProcessor(h *host, opts ...bulkorder.Option) *bulkorder.Processor {
	return bulkorder.NewProcessor(h.deps(), append([]bulkorder.Option{bulkorder.WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestProcess_FreeOrder(t *testing.T) {
	t.Parallel()

	h := newHost()
	err := newProcessor(h).Process(context.Background(), request(rcpt("a@x.com")))
	require.NoError(t, err)

	require.Len(t, h.payloads, 1)
	p := h.payloads[0]
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, "fr-be", p.Locale)
	assert.Equal(t, "web", p.SalesChannel)
	assert.Equal(t, "free", p.PaymentProvider)
	assert.True(t, p.SendEmail)
	assert.Equal(t, []bulkorder.PositionPayload{{ItemID: 11, AttendeeName: "Aluno", AttendeeEmail: "a@x.com"}}, p.Positions)

	assert.Equal(t, []string{"commit", "placed ORD01", "paid ORD01", "mail order_free a@x.com"}, h.calls)
	assert.Equal(t, []string{bulkorder.ActionPlaced, bulkorder.ActionPaid, bulkorder.LogEmailFree}, h.actions(1))

	paid := h.logs[1]
	assert.Equal(t, map[string]any{
		"provider": "free",
		"info":     map[string]any{},
		"date":     fixedNow.Format(time.RFC3339Nano),
		"force":    false,
	}, paid.Data)
	assert.Equal(t, int64(42), *paid.Actor.UserID())

	require.Len(t, h.mails, 1)
	assert.True(t, h.mails[0].Free)
	assert.Equal(t, "fr-be", h.mails[0].Locale)
	assert.Equal(t, "BE", h.mails[0].Region)
}

func TestProcess_MailsCarryEventRegion(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.event.Region = "CH"
	h.event.Settings.MailFreeAttendees = true
	defaults := bulkorder.DefaultDefaults()
	defaults.Locale = "fr"
	req := request(recipients.Recipient{Email: "a@x.com", Name: "Ann", Number: 1})

	require.NoError(t, newProcessor(h, bulkorder.WithDefaults(defaults)).Process(context.Background(), req))

	require.NotEmpty(t, h.mails)
	for _, m := range h.mails {
		assert.Equal(t, "CH", m.Region, m.Template)
		assert.Equal(t, "fr", m.Locale, m.Template)
	}
}

func TestProcess_RequireApproval(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.create = func(p *bulkorder.Payload) (*bulkorder.Created, error) {
		c := h.freeOrder(p)
		c.Order.Status = bulkorder.StatusPending
		c.Order.RequireApproval = true
		return c, nil
	}

	require.NoError(t, newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"))))

	assert.Equal(t, []string{bulkorder.ActionPlaced, bulkorder.LogEmailRequireApproval}, h.actions(1))
	assert.Equal(t, []string{"order_placed_require_approval a@x.com"}, h.templates())
	assert.False(t, h.hasCall("paid ORD01"))
}

func TestProcess_PaidStandardFlow(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.event.Settings.MailPlacedAttendees = true
	h.event.Settings.MailPaidAttendees = true
	h.create = func(p *bulkorder.Payload) (*bulkorder.Created, error) {
		c := h.freeOrder(p)
		o := c.Order
		o.Total = decimal.RequireFromString("12.50")
		o.Payments[0].Provider = "manual"
		addon := o.Positions[0].ID
		o.Positions = append(o.Positions,
			bulkorder.Position{ID: 2, AttendeeEmail: "guest@x.com"},
			bulkorder.Position{ID: 3, AttendeeEmail: "addon@x.com", AddonTo: &addon},
		)
		return c, nil
	}

	require.NoError(t, newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"))))

	assert.Equal(t, []string{
		"order_placed a@x.com",
		"order_placed_attendee guest@x.com",
		"order_paid a@x.com",
		"order_paid_attendee guest@x.com",
	}, h.templates())
	assert.Equal(t, []string{
		bulkorder.ActionPlaced,
		bulkorder.ActionPaid,
		bulkorder.LogEmailPlaced,
		bulkorder.LogEmailPlaced,
		bulkorder.LogEmailPaid,
		bulkorder.LogEmailPaidAttendee,
	}, h.actions(1))
}

func TestProcess_FreeFlowAttendees(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.event.Settings.MailFreeAttendees = true
	h.event.Settings.MailPaidAttendees = true
	h.create = func(p *bulkorder.Payload) (*bulkorder.Created, error) {
		c := h.freeOrder(p)
		c.Order.Positions = append(c.Order.Positions, bulkorder.Position{ID: 2, AttendeeEmail: "guest@x.com"})
		return c, nil
	}

	require.NoError(t, newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"))))

	// The buyer's own position is skipped, and free orders get no paid mail.
	assert.Equal(t, []string{"order_free a@x.com", "order_free_attendee guest@x.com"}, h.templates())
}

func TestProcess_NoMailRequested(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.create = func(p *bulkorder.Payload) (*bulkorder.Created, error) {
		c := h.freeOrder(p)
		c.SendMail = false
		return c, nil
	}

	require.NoError(t, newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"))))
	assert.Empty(t, h.mails)
	assert.True(t, h.hasCall("paid ORD01"))
}

func TestProcess_FailedRecipientIsSkipped(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.create = func(p *bulkorder.Payload) (*bulkorder.Created, error) {
		if p.Email == "b@x.com" {
			return nil, errRejected
		}
		return h.freeOrder(p), nil
	}

	err := newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"), rcpt("b@x.com"), rcpt("c@x.com")))
	require.Error(t, err)
	assert.ErrorIs(t, err, bulkorder.ErrRecipientsFailed)
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, err.Error(), "recipient 2 (b@x.com)")

	require.Len(t, h.orders, 2)
	assert.Equal(t, "a@x.com", h.orders[0].Email)
	assert.Equal(t, "c@x.com", h.orders[1].Email)
	assert.Equal(t, []string{"order_free a@x.com", "order_free c@x.com"}, h.templates())
	assert.True(t, h.hasCall("rollback"))
}

func TestProcess_InvalidPayloadNeverReachesStore(t *testing.T) {
	t.Parallel()

	h := newHost()
	err := newProcessor(h).Process(context.Background(), request(rcpt("not-an-email"), rcpt("b@x.com")))

	require.ErrorIs(t, err, bulkorder.ErrInvalidPayload)
	require.Len(t, h.payloads, 1)
	assert.Equal(t, "b@x.com", h.payloads[0].Email)
}

func TestProcess_SideEffectErrorAbortsJob(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.mailErr = errors.New("smtp down")

	err := newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"), rcpt("b@x.com")))
	require.Error(t, err)
	assert.ErrorIs(t, err, h.mailErr)
	assert.NotErrorIs(t, err, bulkorder.ErrRecipientsFailed)
	assert.Len(t, h.orders, 1)
}

func TestProcess_FanOut(t *testing.T) {
	t.Parallel()

	three := recipients.Recipient{Email: "a@x.com", Name: "Ann", Number: 3}

	t.Run("one order per row by default", func(t *testing.T) {
		t.Parallel()

		h := newHost()
		require.NoError(t, newProcessor(h).Process(context.Background(), request(three)))
		assert.Len(t, h.orders, 1)
	})

	t.Run("number orders per row when enabled", func(t *testing.T) {
		t.Parallel()

		h := newHost()
		require.NoError(t, newProcessor(h, bulkorder.WithFanOut(true)).Process(context.Background(), request(three, rcpt("b@x.com"))))
		require.Len(t, h.orders, 4)
		for _, o := range h.orders[:3] {
			assert.Equal(t, "a@x.com", o.Email)
			assert.Equal(t, "Ann", o.Positions[0].AttendeeName)
		}
		assert.Equal(t, "b@x.com", h.orders[3].Email)
	})
}

func TestProcess_Invoices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup   func(h *host)
		name    string
		invoice bool
	}{
		{
			name:  "never",
			setup: func(h *host) { h.event.Settings.InvoiceIncludeFree = true },
		},
		{
			name: "always but free orders excluded",
			setup: func(h *host) {
				h.event.Settings.InvoiceGenerate = bulkorder.InvoiceAlways
			},
		},
		{
			name: "always",
			setup: func(h *host) {
				h.event.Settings.InvoiceGenerate = bulkorder.InvoiceAlways
				h.event.Settings.InvoiceIncludeFree = true
			},
			invoice: true,
		},
		{
			name: "on payment with paid order",
			setup: func(h *host) {
				h.event.Settings.InvoiceGenerate = bulkorder.InvoicePaid
				h.event.Settings.InvoiceIncludeFree = true
			},
			invoice: true,
		},
		{
			name: "on payment with pending order",
			setup: func(h *host) {
				h.event.Settings.InvoiceGenerate = bulkorder.InvoicePaid
				h.create = func(p *bulkorder.Payload) (*bulkorder.Created, error) {
					c := h.freeOrder(p)
					c.Order.Status = bulkorder.StatusPending
					c.Order.Total = decimal.NewFromInt(5)
					return c, nil
				}
			},
		},
		{
			name: "existing invoice",
			setup: func(h *host) {
				h.event.Settings.InvoiceGenerate = bulkorder.InvoiceAlways
				h.event.Settings.InvoiceIncludeFree = true
				h.invoiceSeen[1] = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHost()
			tt.setup(h)
			require.NoError(t, newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"))))

			require.NotEmpty(t, h.mails)
			if tt.invoice {
				assert.Equal(t, []int64{1}, h.generated)
				require.NotNil(t, h.mails[0].Invoice)
				assert.Equal(t, "INV-ORD01", h.mails[0].Invoice.Number)
				return
			}
			assert.Empty(t, h.generated)
			assert.Nil(t, h.mails[0].Invoice)
		})
	}
}

func TestProcess_AnonymousActor(t *testing.T) {
	t.Parallel()

	h := newHost()
	h.actor.Authenticated = false

	require.NoError(t, newProcessor(h).Process(context.Background(), request(rcpt("a@x.com"))))
	for _, l := range h.logs {
		assert.Nil(t, l.Actor.UserID(), l.Action)
	}
}

func TestProcess_ScopeErrors(t *testing.T) {
	t.Parallel()

	h := newHost()
	p := newProcessor(h)

	req := request(rcpt("a@x.com"))
	req.OrganizerID = 99
	require.ErrorIs(t, p.Process(context.Background(), req), bulkorder.ErrNotFound)

	req = request(rcpt("a@x.com"))
	req.UserID = 99
	require.ErrorIs(t, p.Process(context.Background(), req), bulkorder.ErrNotFound)

	req = request(rcpt("a@x.com"))
	req.ProductID = 0
	require.ErrorIs(t, p.Process(context.Background(), req), bulkorder.ErrInvalidRequest)

	assert.Empty(t, h.orders)
}

func TestProcess_SanitizesNames(t *testing.T) {
	t.Parallel()

	h := newHost()
	r := recipients.Recipient{Email: "a@x.com", Name: "<b>Jane</b>  Doe", Number: 1}
	require.NoError(t, newProcessor(h).Process(context.Background(), request(r)))
	assert.Equal(t, "Jane Doe", h.payloads[0].Positions[0].AttendeeName)
}

func TestProcess_CustomDefaults(t *testing.T) {
	t.Parallel()

	h := newHost()
	d := bulkorder.Defaults{Locale: "en", SalesChannel: "box", PaymentProvider: "boxoffice", AttendeeName: "Guest"}
	require.NoError(t, newProcessor(h, bulkorder.WithDefaults(d)).Process(context.Background(), request(rcpt("a@x.com"))))

	p := h.payloads[0]
	assert.Equal(t, "en", p.Locale)
	assert.Equal(t, "Guest", p.Positions[0].AttendeeName)
	assert.Equal(t, []string{"order_free a@x.com"}, h.templates())
}
