package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	maxWorkers int
	insertOnly bool
}

func newConfig() *config {
	return &config{
		registry: newRegistry(),
		queues:   make(map[string]int),
	}
}

// Option configures a Manager.
type Option func(*config)

// WithTask registers task under its Name. The payload type is inferred
// from the Handle signature.
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.add(task.Name(), typedTask[P, T]{task: task})
	}
}

// WithQueue adds a named queue served by workers goroutines.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if name != "" && workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithLogger sets the logger used by the manager and the River client.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// InsertOnly builds a manager that enqueues but never works jobs, for
// processes that only serve HTTP.
func InsertOnly() Option {
	return func(c *config) {
		c.insertOnly = true
	}
}
