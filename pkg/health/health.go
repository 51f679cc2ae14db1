package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrCheckFailed  = errors.New("health: check failed")
	ErrCheckTimeout = errors.New("health: check timeout")
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc matches the Healthcheck closures exposed by db, redis and job.
type CheckFunc func(ctx context.Context) error

// Checks maps a component name to its check.
type Checks map[string]CheckFunc

type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Response struct {
	Checks map[string]CheckResult `json:"checks,omitempty"`
	Status Status                 `json:"status"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

type Option func(*config)

func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{timeout: 5 * time.Second, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func runChecks(ctx context.Context, checks Checks, cfg *config) *Response {
	resp := &Response{Status: StatusHealthy, Checks: make(map[string]CheckResult, len(checks))}
	if len(checks) == 0 {
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var mu sync.Mutex
	g := &errgroup.Group{}
	for name, check := range checks {
		g.Go(func() error {
			err := runOne(ctx, check)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Status = StatusUnhealthy
				resp.Checks[name] = CheckResult{Status: StatusUnhealthy, Error: err.Error()}
				cfg.logger.WarnContext(ctx, "health check failed", slog.String("check", name), slog.Any("error", err))
				return nil
			}
			resp.Checks[name] = CheckResult{Status: StatusHealthy}
			return nil
		})
	}
	_ = g.Wait()

	return resp
}

func runOne(ctx context.Context, check CheckFunc) error {
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ErrCheckTimeout
	}
}
