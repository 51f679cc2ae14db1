package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/evolutio/automated-orders/pkg/logger"
)

// taskArgs is the single River job kind shared by all registered tasks.
type taskArgs struct {
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "automated_orders:task" }

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	registry *registry
	logger   *slog.Logger
}

func (w *taskWorker) Work(ctx context.Context, j *river.Job[taskArgs]) error {
	ctx = context.WithValue(ctx, jobIDKey{}, j.ID)

	e, ok := w.registry.lookup(j.Args.Task)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, j.Args.Task)
	}

	log := w.logger.With(slog.String("task", j.Args.Task), slog.Int("attempt", j.Attempt))
	log.InfoContext(ctx, "task started")

	start := time.Now()
	if err := e.execute(ctx, j.Args.Payload); err != nil {
		log.ErrorContext(ctx, "task failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return err
	}

	log.InfoContext(ctx, "task finished", slog.Duration("elapsed", time.Since(start)))
	return nil
}

type jobIDKey struct{}

// IDFromContext returns the River job id of the task running with ctx.
func IDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(jobIDKey{}).(int64)
	return id, ok
}

// IDExtractor logs the running job id as job_id.
func IDExtractor() logger.ContextExtractor {
	return logger.Int64Extractor(jobIDKey{}, "job_id")
}
