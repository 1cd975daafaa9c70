// Package redis provides Redis connection management with sensible defaults.
//
// The package wraps go-redis client creation with URL validation, connection
// pooling configuration, retry logic with linear backoff, and lifecycle
// helpers for health checks and graceful shutdown. The cache registry uses
// [Open] to dial clients declared in configuration; applications can reuse
// it for standalone clients.
//
// # Connecting
//
//	client, err := redis.Open(ctx, "redis://localhost:6379/0")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Tune the pool and retry behavior with options:
//
//	client, err := redis.Open(ctx, url,
//		redis.WithPoolSize(20),
//		redis.WithRetry(5, 2*time.Second),
//		redis.WithDialTimeout(10*time.Second),
//	)
//
// [MustOpen] exits the process on failure, for programs where a missing
// Redis means there is nothing useful to do.
//
// # Lifecycle
//
// [Healthcheck] adapts a client into a func(context.Context) error for
// readiness probes. [Shutdown] wraps Close for shutdown sequences:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//		// not ready
//	}
//
// # Errors
//
// Failures return sentinel errors joined with the underlying cause:
// [ErrEmptyConnectionURL], [ErrFailedToParseURL], [ErrConnectionFailed],
// [ErrHealthcheckFailed].
package redis
