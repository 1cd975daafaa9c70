// Package db provides PostgreSQL connection pool management built on pgx.
//
// The package handles pool construction with retry logic, health checks,
// and graceful shutdown. The cache registry uses [Connect] to dial pools
// declared in configuration; applications can reuse it for standalone
// pools.
//
// # Connecting
//
//	pool, err := db.Connect(ctx, db.Config{
//		ConnectionString: os.Getenv("DATABASE_URL"),
//	})
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
// Zero-valued Config fields fall back to defaults (10 max connections,
// 3 retry attempts with linear backoff). Populate the struct from the
// environment or set fields explicitly for full control.
//
// # Lifecycle
//
// [Healthcheck] adapts a pool into a func(context.Context) error for
// readiness probes. [Shutdown] wraps Close for shutdown sequences.
//
// # Errors
//
// Failures return sentinel errors joined with the underlying cause:
// [ErrFailedToParseDBConfig], [ErrFailedToOpenDBConnection],
// [ErrHealthcheckFailed].
package db
