package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/evolutio/automated-orders/pkg/logger"
)

const defaultMaxWorkers = 10

// Manager enqueues tasks and, unless built InsertOnly, works them.
type Manager struct {
	client   *river.Client[pgx.Tx]
	pool     *pgxpool.Pool
	registry *registry
	logger   *slog.Logger

	mu         sync.Mutex
	started    bool
	insertOnly bool
}

// NewManager creates the River client. Jobs may be enqueued before Start.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Discard()
	}

	riverCfg := &river.Config{Logger: cfg.logger}
	if !cfg.insertOnly {
		maxWorkers := cfg.maxWorkers
		if maxWorkers == 0 {
			maxWorkers = defaultMaxWorkers
		}
		queues := map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		}
		for name, n := range cfg.queues {
			queues[name] = river.QueueConfig{MaxWorkers: n}
		}

		workers := river.NewWorkers()
		river.AddWorker(workers, &taskWorker{registry: cfg.registry, logger: cfg.logger})

		riverCfg.Queues = queues
		riverCfg.Workers = workers
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverCfg)
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		client:     client,
		pool:       pool,
		registry:   cfg.registry,
		logger:     cfg.logger,
		insertOnly: cfg.insertOnly,
	}, nil
}

// Start begins working jobs. It is a no-op for insert-only managers.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if !m.insertOnly {
		if err := m.client.Start(ctx); err != nil {
			return fmt.Errorf("job: start client: %w", err)
		}
	}
	m.started = true
	m.logger.Info("job manager started",
		slog.Any("tasks", m.registry.names()),
		slog.Bool("insert_only", m.insertOnly),
	)
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if !m.insertOnly {
		if err := m.client.Stop(ctx); err != nil {
			return fmt.Errorf("job: stop client: %w", err)
		}
	}
	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// Enqueue inserts a job for the registered task name.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	if !m.insertOnly {
		if _, ok := m.registry.lookup(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTask, name)
		}
	}
	args, insertOpts, err := buildInsert(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := m.client.Insert(ctx, args, insertOpts); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

// EnqueueTx inserts a job that becomes visible when tx commits.
func (m *Manager) EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any, opts ...EnqueueOption) error {
	args, insertOpts, err := buildInsert(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := m.client.InsertTx(ctx, tx, args, insertOpts); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

// StartFunc adapts Start to a startup hook.
func (m *Manager) StartFunc() func(context.Context) error {
	return m.Start
}

// Shutdown adapts Stop to a shutdown hook.
func (m *Manager) Shutdown() func(context.Context) error {
	return m.Stop
}

// Healthcheck reports whether the manager runs and its pool answers.
// Compatible with health.CheckFunc.
func Healthcheck(m *Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		if m == nil {
			return errors.Join(ErrHealthcheckFailed, errors.New("manager is nil"))
		}
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if !started {
			return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
