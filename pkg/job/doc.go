// Package job runs background tasks on River, the Postgres backed queue.
//
// A task is any value with a Name method and a Handle method taking a
// context and a JSON serializable payload. The payload type is inferred from
// Handle, so tasks never import this package:
//
//	type ProcessOrders struct{ proc *bulkorder.Processor }
//
//	func (t *ProcessOrders) Name() string { return "process_orders" }
//	func (t *ProcessOrders) Handle(ctx context.Context, req bulkorder.Request) error {
//		return t.proc.Process(ctx, req)
//	}
//
//	m, err := job.NewManager(pool, job.WithTask(&ProcessOrders{proc}))
//	...
//	err = m.Enqueue(ctx, "process_orders", req, job.MaxAttempts(1))
//
// Every task shares one River job kind. The worker looks the task up by
// name and decodes the payload into the handler's type, so payloads must be
// plain data.
package job
