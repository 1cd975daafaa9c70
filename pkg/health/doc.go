// Package health aggregates named health checks into HTTP probe handlers
// and a programmatic gate.
//
// A check is any func(ctx) error; the healthcheck closures returned by the
// redis and db packages satisfy [CheckFunc] directly. Checks run in
// parallel under a shared deadline.
//
// # HTTP Probes
//
//	r.Get("/livez", health.LivenessHandler())
//	r.Get("/healthz", health.ReadinessHandler(health.Checks{
//	    "redis": redis.Healthcheck(client),
//	    "db":    db.Healthcheck(pool),
//	}, health.WithTimeout(3*time.Second)))
//
// Readiness responds 200 "OK" while every check passes and 503 when any
// fails. Clients that accept JSON (or pass ?format=json) get the
// per-check breakdown.
//
// # Startup Gate
//
// Run executes the same checks outside HTTP, returning [ErrCheckFailed]
// with the failing checks joined in:
//
//	if err := health.Run(ctx, checks); err != nil {
//	    log.Error("dependencies not ready", "error", err)
//	    os.Exit(1)
//	}
package health
