// Package handlers exposes the bulk order form under the event control
// namespace and the navigation entry pointing to it.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/evolutio/automated-orders/internal"
	"github.com/evolutio/automated-orders/internal/auth"
	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/internal/views"
	"github.com/evolutio/automated-orders/pkg/recipients"
)

const flashKey = "automated_orders"

// Events resolves the event in the URL and its offerable products.
type Events interface {
	EventBySlug(ctx context.Context, organizer, event string) (*bulkorder.Event, error)
	FreeProducts(ctx context.Context, eventID int64) ([]bulkorder.Product, error)
}

// BulkOrders serves /control/event/{organizer}/{event}/automated_orders/.
type BulkOrders struct {
	events Events
	perms  auth.PermissionStore
	queue  bulkorder.Enqueuer
	tokens *auth.Tokens
}

func NewBulkOrders(events Events, perms auth.PermissionStore, queue bulkorder.Enqueuer, tokens *auth.Tokens) *BulkOrders {
	return &BulkOrders{events: events, perms: perms, queue: queue, tokens: tokens}
}

func (h *BulkOrders) Routes(r internal.Router) {
	r.Route("/control/event/{organizer}/{event}", func(r internal.Router) {
		r.Use(auth.Authenticate(h.tokens))
		r.GET("/automated_orders/", h.show)
		r.POST("/automated_orders/", h.submit)
		r.GET("/automated_orders/nav", h.nav)
	})
}

// FormPath is the path of the form route.
func FormPath(organizer, event string) string {
	return fmt.Sprintf("/control/event/%s/%s/automated_orders/", organizer, event)
}

// OrdersPath is the host's order list the form redirects to.
func OrdersPath(organizer, event string) string {
	return fmt.Sprintf("/control/event/%s/%s/orders/", organizer, event)
}

type scope struct {
	event *bulkorder.Event
	id    *auth.Identity
	perms auth.Permissions
}

func (h *BulkOrders) scope(c internal.Context) (*scope, error) {
	id, err := auth.MustIdentity(c)
	if err != nil {
		return nil, err
	}
	ev, err := h.events.EventBySlug(c, c.Param("organizer"), c.Param("event"))
	if errors.Is(err, bulkorder.ErrNotFound) {
		return nil, internal.ErrNotFound("").WithCause(err)
	}
	if err != nil {
		return nil, err
	}
	perms, err := h.perms.Permissions(c, id.UserID, ev.ID)
	if err != nil {
		return nil, err
	}
	return &scope{event: ev, id: id, perms: perms}, nil
}

func (h *BulkOrders) authorized(c internal.Context) (*scope, error) {
	s, err := h.scope(c)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanChangeOrders(s.id) {
		return nil, internal.ErrForbidden("")
	}
	return s, nil
}

func (h *BulkOrders) show(c internal.Context) error {
	s, err := h.authorized(c)
	if err != nil {
		return err
	}
	products, err := h.events.FreeProducts(c, s.event.ID)
	if err != nil {
		return err
	}

	var flash string
	_ = c.Flash(flashKey, &flash)

	form := bulkorder.Form{Recipients: bulkorder.InitialRecipients}
	return c.Render(http.StatusOK, views.BulkOrderForm(page(c, s.event, products, form, nil, flash)))
}

func (h *BulkOrders) submit(c internal.Context) error {
	s, err := h.authorized(c)
	if err != nil {
		return err
	}
	products, err := h.events.FreeProducts(c, s.event.ID)
	if err != nil {
		return err
	}

	form := readForm(c)
	sub, err := form.Validate(products)
	var ferr *bulkorder.FormError
	if errors.As(err, &ferr) {
		return c.Render(http.StatusUnprocessableEntity, views.BulkOrderForm(page(c, s.event, products, form, ferr, "")))
	}
	if err != nil {
		return err
	}

	req := bulkorder.NewRequest(sub, s.event.ID, s.id.UserID, s.event.OrganizerID)
	if err := bulkorder.Submit(c, h.queue, req); err != nil {
		c.Logger().ErrorContext(c, "enqueue bulk orders failed",
			"event", s.event.Slug,
			"recipients", len(req.Recipients),
			"error", err,
		)
		p := page(c, s.event, products, form, nil, "")
		p.Errors = append(p.Errors, c.T("automated_orders.send_failed"))
		return c.Render(http.StatusInternalServerError, views.BulkOrderForm(p))
	}

	c.Logger().InfoContext(c, "bulk orders queued",
		"event", s.event.Slug,
		"product", sub.Product.ID,
		"recipients", len(req.Recipients),
	)
	if err := c.SetFlash(flashKey, c.T("automated_orders.queued")); err != nil {
		c.Logger().WarnContext(c, "flash failed", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, OrdersPath(s.event.OrganizerSlug, s.event.Slug))
}

func readForm(c internal.Context) bulkorder.Form {
	f := bulkorder.Form{
		Product:    c.Form(bulkorder.FieldProduct),
		Recipients: c.Form(bulkorder.FieldRecipients),
	}
	switch send := c.Form("send"); send {
	case "on":
		f.Send = true
	default:
		f.Send, _ = strconv.ParseBool(send)
	}
	for _, raw := range c.Request().PostForm["codes"] {
		for code := range strings.FieldsSeq(raw) {
			f.Codes = append(f.Codes, code)
		}
	}
	return f
}

// page builds the form view with every problem of ferr placed next to
// its field.
func page(c internal.Context, ev *bulkorder.Event, products []bulkorder.Product, form bulkorder.Form, ferr *bulkorder.FormError, flash string) views.FormPage {
	p := views.FormPage{
		Lang:                  c.Language(),
		Title:                 c.T("automated_orders.title"),
		Event:                 ev.Name,
		Action:                FormPath(ev.OrganizerSlug, ev.Slug),
		ProductLabel:          c.T("automated_orders.product"),
		RecipientsLabel:       c.T("automated_orders.recipients"),
		RecipientsHelp:        c.T("automated_orders.recipients_help"),
		RecipientsPlaceholder: c.T("automated_orders.recipients_placeholder"),
		Recipients:            form.Recipients,
		Submit:                c.T("automated_orders.submit"),
		Flash:                 flash,
	}
	for _, prod := range products {
		value := strconv.FormatInt(prod.ID, 10)
		p.Products = append(p.Products, views.Option{
			Value:    value,
			Label:    prod.Name,
			Selected: value == strings.TrimSpace(form.Product),
		})
	}

	if ferr != nil {
		tr := translate(c)
		for _, prob := range ferr.Problems {
			msg := prob.Message(tr)
			switch prob.Field {
			case bulkorder.FieldProduct:
				p.ProductError = append(p.ProductError, msg)
			case bulkorder.FieldRecipients:
				p.RecipientsError = append(p.RecipientsError, msg)
			default:
				p.Errors = append(p.Errors, msg)
			}
		}
	}
	return p
}

func translate(c internal.Context) recipients.TranslateFunc {
	if tr := c.Translator(); tr != nil {
		return tr.TranslateMessage
	}
	return nil
}
