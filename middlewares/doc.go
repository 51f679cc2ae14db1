// Package middlewares provides the HTTP middleware the service installs
// globally: request ids, panic recovery and language resolution.
//
//	log := logger.New(cfg.Log, os.Stdout, middlewares.RequestIDExtractor())
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	        middlewares.I18n(catalog),
//	    ),
//	)
package middlewares
