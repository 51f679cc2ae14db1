// Package health serves liveness and readiness probes.
//
// Readiness runs every registered check concurrently under a shared
// timeout and reports each result by name:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "jobs":     job.Healthcheck(manager),
//	}))
//
// Responses are plain text unless the client asks for JSON through the
// Accept header or ?format=json.
package health
