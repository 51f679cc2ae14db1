package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/evolutio/automated-orders/pkg/cookie"
	"github.com/evolutio/automated-orders/pkg/i18n"
)

// TranslatorKey is the context key of the request's *i18n.Translator.
type TranslatorKey struct{}

// LanguageKey is the context key of the negotiated language.
type LanguageKey struct{}

// Context gives handlers access to the request and the response. It also
// implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter
	Context() context.Context

	// Param returns a URL parameter, or "".
	Param(name string) string
	Query(name string) string
	// Form parses the body on first access.
	Form(name string) string
	Header(name string) string
	SetHeader(name, value string)

	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error
	Redirect(code int, url string) error
	// Render writes a templ component with the given status.
	Render(code int, component templ.Component) error
	// Written reports whether the response header was sent.
	Written() bool

	Logger() *slog.Logger

	// Set stores a value on the request context for later middleware
	// and handlers.
	Set(key, value any)
	Get(key any) any

	// SetFlash stores a one-shot value for the next request.
	SetFlash(key string, value any) error
	// Flash reads and clears a value stored by SetFlash.
	Flash(key string, dest any) error

	// T translates key in the negotiated language. Without the i18n
	// middleware the key is returned.
	T(key string, values ...i18n.M) string
	Language() string
	Translator() *i18n.Translator
}

type requestContext struct {
	request  *http.Request
	response *ResponseWriter
	logger   *slog.Logger
	cookies  *cookie.Jar
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		request:  r,
		response: NewResponseWriter(w),
		logger:   app.logger,
		cookies:  app.cookies,
	}
}

func (c *requestContext) Request() *http.Request { return c.request }

func (c *requestContext) Response() http.ResponseWriter { return c.response }

func (c *requestContext) Context() context.Context { return c.request.Context() }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }

func (c *requestContext) Done() <-chan struct{} { return c.request.Context().Done() }

func (c *requestContext) Err() error { return c.request.Context().Err() }

func (c *requestContext) Value(key any) any { return c.request.Context().Value(key) }

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component templ.Component) error {
	c.response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.response.WriteHeader(code)
	return component.Render(c.request.Context(), c.response)
}

func (c *requestContext) Written() bool { return c.response.Written() }

func (c *requestContext) Logger() *slog.Logger { return c.logger }

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any { return c.request.Context().Value(key) }

func (c *requestContext) SetFlash(key string, value any) error {
	if c.cookies == nil {
		return ErrNoCookieJar
	}
	return c.cookies.SetFlash(c.response, key, value)
}

func (c *requestContext) Flash(key string, dest any) error {
	if c.cookies == nil {
		return ErrNoCookieJar
	}
	return c.cookies.PopFlash(c.response, c.request, key, dest)
}

func (c *requestContext) Translator() *i18n.Translator {
	t, _ := c.request.Context().Value(TranslatorKey{}).(*i18n.Translator)
	return t
}

func (c *requestContext) T(key string, values ...i18n.M) string {
	if t := c.Translator(); t != nil {
		return t.T(key, values...)
	}
	return key
}

func (c *requestContext) Language() string {
	lang, _ := c.request.Context().Value(LanguageKey{}).(string)
	return lang
}
