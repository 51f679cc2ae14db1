package bulkorder

import (
	"context"

	"github.com/evolutio/automated-orders/pkg/job"
)

// TaskName is the job name the processor is registered under.
const TaskName = "process_orders"

// Task adapts a Processor to the job manager.
type Task struct {
	processor *Processor
}

func NewTask(p *Processor) *Task {
	return &Task{processor: p}
}

func (t *Task) Name() string { return TaskName }

func (t *Task) Handle(ctx context.Context, req Request) error {
	return t.processor.Process(ctx, req)
}

// Enqueuer is satisfied by *job.Manager.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error
}

// Submit queues req for a single attempt. Failed jobs are not retried.
func Submit(ctx context.Context, q Enqueuer, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return q.Enqueue(ctx, TaskName, req,
		job.MaxAttempts(1),
		job.Tags("bulk_order"),
	)
}
