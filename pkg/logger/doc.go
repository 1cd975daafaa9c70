// Package logger provides structured logging helpers on top of log/slog.
//
// The package produces JSON loggers with optional context-based attribute
// injection, so request-scoped values like request IDs appear on every log
// line without threading them through call sites.
//
// # Basic Usage
//
// Create a logger and use it like any *slog.Logger:
//
//	log := logger.New()
//	log.Info("registry ready", slog.Int("caches", 3))
//
// # Context Extractors
//
// A ContextExtractor pulls an attribute out of a context:
//
//	requestID := func(ctx context.Context) (slog.Attr, bool) {
//		if id, ok := ctx.Value(ctxKeyRequestID).(string); ok && id != "" {
//			return slog.String("request_id", id), true
//		}
//		return slog.Attr{}, false
//	}
//
//	log := logger.New(logger.WithExtractor(requestID))
//	log.InfoContext(ctx, "cache hit") // request_id included automatically
//
// Extractors run on every log call, ensuring fresh values for
// request-scoped data. Return false to skip the attribute for that entry.
//
// # Defaults
//
// [New] writes JSON to os.Stdout at Info level; adjust with [WithWriter]
// and [WithLevel]. [NewNope] returns a logger that discards everything,
// used as the default wherever a *slog.Logger is optional.
package logger
