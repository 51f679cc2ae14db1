package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutio/automated-orders/internal"
	"github.com/evolutio/automated-orders/internal/auth"
	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/internal/handlers"
	"github.com/evolutio/automated-orders/internal/views"
	"github.com/evolutio/automated-orders/middlewares"
	"github.com/evolutio/automated-orders/pkg/cookie"
	"github.com/evolutio/automated-orders/pkg/i18n"
	"github.com/evolutio/automated-orders/pkg/job"
)

const secret = "0123456789abcdef0123456789abcdef"

type fakeEvents struct{}

func (fakeEvents) EventBySlug(_ context.Context, organizer, event string) (*bulkorder.Event, error) {
	if organizer != "acme" || event != "fest" {
		return nil, bulkorder.ErrNotFound
	}
	return &bulkorder.Event{ID: 10, OrganizerID: 2, Slug: "fest", OrganizerSlug: "acme", Name: "Fest"}, nil
}

func (fakeEvents) FreeProducts(context.Context, int64) ([]bulkorder.Product, error) {
	return []bulkorder.Product{{ID: 5, Name: "Free pass", Price: decimal.Zero}}, nil
}

type fakePerms map[int64]auth.Permissions

func (f fakePerms) Permissions(_ context.Context, userID, _ int64) (auth.Permissions, error) {
	return f[userID], nil
}

type queued struct {
	name    string
	payload any
}

type fakeQueue struct {
	jobs []queued
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, payload any, _ ...job.EnqueueOption) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queued{name, payload})
	return nil
}

const (
	changer = 1
	viewer  = 2
	staff   = 3
)

type env struct {
	app    *internal.App
	queue  *fakeQueue
	tokens *auth.Tokens
}

func setup(t *testing.T) *env {
	t.Helper()

	tokens, err := auth.NewTokens(secret)
	require.NoError(t, err)
	jar, err := cookie.New(secret)
	require.NoError(t, err)
	catalog, err := i18n.New(i18n.WithDefaultLanguage("en"), i18n.WithYAMLDir(views.Locales()))
	require.NoError(t, err)

	perms := fakePerms{
		changer: {ViewOrders: true, ChangeOrders: true},
		viewer:  {ViewOrders: true},
		staff:   {Staff: true},
	}
	queue := &fakeQueue{}
	app := internal.New(
		internal.WithCookieJar(jar),
		internal.WithMiddleware(middlewares.I18n(catalog)),
		internal.WithHandlers(handlers.NewBulkOrders(fakeEvents{}, perms, queue, tokens)),
	)
	return &env{app: app, queue: queue, tokens: tokens}
}

func (e *env) request(t *testing.T, method, target string, user int64, staffSession bool, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if user != 0 {
		token, err := e.tokens.Issue(auth.Identity{UserID: user, StaffSession: staffSession}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.app.ServeHTTP(rec, req)
	return rec
}

const formURL = "/control/event/acme/fest/automated_orders/"

func TestShow(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := e.request(t, http.MethodGet, formURL, changer, false, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Create automated tickets")
	assert.Contains(t, body, `<option value="5">Free pass</option>`)
	assert.Contains(t, body, "email,name\n</textarea>")
}

func TestShow_Access(t *testing.T) {
	t.Parallel()
	e := setup(t)

	tests := []struct {
		name   string
		target string
		user   int64
		staff  bool
		status int
	}{
		{"anonymous", formURL, 0, false, http.StatusUnauthorized},
		{"view only", formURL, viewer, false, http.StatusForbidden},
		{"staff without session", formURL, staff, false, http.StatusForbidden},
		{"staff session", formURL, staff, true, http.StatusOK},
		{"unknown event", "/control/event/acme/other/automated_orders/", changer, false, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.request(t, http.MethodGet, tt.target, tt.user, tt.staff, nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSubmit_Queues(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := e.request(t, http.MethodPost, formURL, changer, false, url.Values{
		bulkorder.FieldProduct:    {"5"},
		bulkorder.FieldRecipients: {"email,name\njohn@example.org,John\njane@example.net,\n"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/control/event/acme/fest/orders/", rec.Header().Get("Location"))

	require.Len(t, e.queue.jobs, 1)
	assert.Equal(t, bulkorder.TaskName, e.queue.jobs[0].name)
	req, ok := e.queue.jobs[0].payload.(bulkorder.Request)
	require.True(t, ok)
	assert.Equal(t, int64(5), req.ProductID)
	assert.Equal(t, int64(10), req.EventID)
	assert.Equal(t, int64(2), req.OrganizerID)
	assert.Equal(t, int64(changer), req.UserID)
	require.Len(t, req.Recipients, 2)
	assert.Equal(t, "john@example.org", req.Recipients[0].Email)
	assert.Equal(t, "John", req.Recipients[0].Name)

	// The flash shows on the next form view.
	next := httptest.NewRequest(http.MethodGet, formURL, nil)
	token, err := e.tokens.Issue(auth.Identity{UserID: changer}, time.Hour)
	require.NoError(t, err)
	next.Header.Set("Authorization", "Bearer "+token)
	for _, ck := range rec.Result().Cookies() {
		next.AddCookie(ck)
	}
	page := httptest.NewRecorder()
	e.app.ServeHTTP(page, next)
	assert.Contains(t, page.Body.String(), "Automated orders are being created in the background.")
}

func TestSubmit_ValidationErrors(t *testing.T) {
	t.Parallel()
	e := setup(t)

	tests := []struct {
		name string
		form url.Values
		want []string
	}{
		{
			name: "missing fields",
			form: url.Values{},
			want: []string{"This field is required."},
		},
		{
			name: "invalid product",
			form: url.Values{"product": {"99"}, "send_recipients": {"a@example.org"}},
			want: []string{"Select a valid choice."},
		},
		{
			name: "invalid email",
			form: url.Values{"product": {"5"}, "send_recipients": {"a@example.org\nnot-an-email"}},
			want: []string{"not-an-email is not a valid email address."},
		},
		{
			name: "code count mismatch",
			form: url.Values{
				"product":         {"5"},
				"send_recipients": {"a@example.org\nb@example.org"},
				"codes":           {"C1 C2\nC3"},
				"send":            {"on"},
			},
			want: []string{"You generated 3 orders, but entered recipients for 2 orders."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.request(t, http.MethodPost, formURL, changer, false, tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			for _, want := range tt.want {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
	assert.Empty(t, e.queue.jobs)
}

func TestSubmit_Localized(t *testing.T) {
	t.Parallel()
	e := setup(t)

	req := httptest.NewRequest(http.MethodPost, formURL, strings.NewReader(url.Values{
		"product": {"5"}, "send_recipients": {"nope"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Language", "fr-BE")
	token, err := e.tokens.Issue(auth.Identity{UserID: changer}, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.app.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "nope n’est pas une adresse e-mail valide.")
}

func TestSubmit_EnqueueFailure(t *testing.T) {
	t.Parallel()
	e := setup(t)
	e.queue.err = errors.New("queue down")

	rec := e.request(t, http.MethodPost, formURL, changer, false, url.Values{
		"product": {"5"}, "send_recipients": {"a@example.org"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "There was an error while sending orders via e-mail. Some orders might have been sent.")
}

func TestSubmit_Forbidden(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := e.request(t, http.MethodPost, formURL, viewer, false, url.Values{
		"product": {"5"}, "send_recipients": {"a@example.org"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, e.queue.jobs)
}

func TestNav(t *testing.T) {
	t.Parallel()
	e := setup(t)

	decode := func(rec *httptest.ResponseRecorder) []handlers.NavItem {
		var items []handlers.NavItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		return items
	}

	rec := e.request(t, http.MethodGet, formURL+"nav?path="+url.QueryEscape(formURL), viewer, false, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []handlers.NavItem{{
		Label:  "Create automated tickets",
		URL:    formURL,
		Icon:   "ticket",
		Active: true,
	}}, decode(rec))

	rec = e.request(t, http.MethodGet, formURL+"nav?path=/control/", staff, true, nil)
	items := decode(rec)
	require.Len(t, items, 1)
	assert.False(t, items[0].Active)

	rec = e.request(t, http.MethodGet, formURL+"nav", staff, false, nil)
	assert.Empty(t, decode(rec))
}
