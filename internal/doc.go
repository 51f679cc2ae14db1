// Package internal is the HTTP core of the service: an App built from
// options, a chi backed Router, a request Context with rendering, flash
// and translation helpers, HTTPError, and a server runtime with startup
// and graceful shutdown hooks.
//
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    internal.WithHandlers(handlers.NewBulkOrders(deps)),
//	)
//	err := app.Run(":8080",
//	    internal.OnStartup(jobs.StartFunc()),
//	    internal.OnShutdown(jobs.Shutdown()),
//	)
package internal
