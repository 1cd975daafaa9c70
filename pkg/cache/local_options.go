package cache

import "time"

const defaultLocalCleanupInterval = 5 * time.Minute

type localOptions struct {
	cleanupInterval time.Duration
}

// LocalOption configures the file-backed local backend.
type LocalOption func(*localOptions)

func defaultLocalOptions() *localOptions {
	return &localOptions{
		cleanupInterval: defaultLocalCleanupInterval,
	}
}

// WithLocalCleanupInterval sets how often expired records are swept from
// the file. Zero or negative disables the sweep; expired records then stay
// on disk (though never served) until overwritten or deleted.
func WithLocalCleanupInterval(interval time.Duration) LocalOption {
	return func(o *localOptions) {
		o.cleanupInterval = interval
	}
}
