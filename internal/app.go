package internal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evolutio/automated-orders/pkg/cookie"
	"github.com/evolutio/automated-orders/pkg/health"
)

// App is the HTTP application. It is immutable after New.
type App struct {
	router       chi.Router
	logger       *slog.Logger
	cookies      *cookie.Jar
	errorHandler ErrorHandler
	notFound     HandlerFunc
	health       health.Checks
	middlewares  []Middleware
	handlers     []Handler
	healthOpts   []health.Option
}

// Option configures an App.
type Option func(*App)

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMiddleware appends global middleware, run in the given order.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) { a.middlewares = append(a.middlewares, mw...) }
}

func WithHandlers(h ...Handler) Option {
	return func(a *App) { a.handlers = append(a.handlers, h...) }
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) { a.notFound = h }
}

// WithCookieJar enables Context.SetFlash and Context.Flash.
func WithCookieJar(j *cookie.Jar) Option {
	return func(a *App) { a.cookies = j }
}

// WithHealthChecks registers readiness checks served at /health/ready.
// /health/live is always served.
func WithHealthChecks(checks health.Checks, opts ...health.Option) Option {
	return func(a *App) {
		if a.health == nil {
			a.health = health.Checks{}
		}
		for name, fn := range checks {
			a.health[name] = fn
		}
		a.healthOpts = append(a.healthOpts, opts...)
	}
}

func New(opts ...Option) *App {
	a := &App{
		router:       chi.NewRouter(),
		logger:       slog.New(slog.DiscardHandler),
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.setupRoutes()
	return a
}

func (a *App) setupRoutes() {
	a.router.Get("/health/live", health.LivenessHandler())
	a.router.Get("/health/ready", health.ReadinessHandler(a.health,
		append([]health.Option{health.WithLogger(a.logger)}, a.healthOpts...)...))

	ra := &routerAdapter{router: a.router, app: a}
	ra.Group(func(r Router) {
		r.Use(a.middlewares...)
		for _, h := range a.handlers {
			h.Routes(r)
		}
	})

	if a.notFound != nil {
		a.router.NotFound(a.adaptHandler(a.notFound))
	}
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) handleError(c Context, err error) {
	if c.Written() {
		a.logger.ErrorContext(c.Context(), "error after response was written",
			"path", c.Request().URL.Path,
			"error", err,
		)
		return
	}
	if herr := a.errorHandler(c, err); herr != nil {
		a.logger.ErrorContext(c.Context(), "error handler failed",
			"error", herr,
			"cause", err,
		)
		if !c.Written() {
			http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
