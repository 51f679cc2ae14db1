// Package logger builds the process slog.Logger.
//
// Records are written as JSON (or text) to the configured writer. Context
// extractors attach request and job scoped attributes to every record logged
// with a *Context method, and when a Sentry DSN is configured warnings and
// errors are also forwarded to Sentry.
//
//	log := logger.New(cfg.Log, os.Stdout,
//		middlewares.RequestIDExtractor(),
//		job.IDExtractor(),
//	)
//	log.InfoContext(ctx, "order created", slog.Int64("order_id", id))
package logger
