package cache

import "time"

const (
	defaultPostgresTable           = "cache_entries"
	defaultPostgresNamespace       = "default"
	defaultPostgresCleanupInterval = 5 * time.Minute
)

type postgresOptions struct {
	table           string
	namespace       string
	opTimeout       time.Duration
	cleanupInterval time.Duration
}

// PostgresOption configures the Postgres backend.
type PostgresOption func(*postgresOptions)

func defaultPostgresOptions() *postgresOptions {
	return &postgresOptions{
		table:           defaultPostgresTable,
		namespace:       defaultPostgresNamespace,
		cleanupInterval: defaultPostgresCleanupInterval,
	}
}

// WithPostgresTable sets the table name. The table is created on first use
// if it does not exist.
func WithPostgresTable(table string) PostgresOption {
	return func(o *postgresOptions) {
		if table != "" {
			o.table = table
		}
	}
}

// WithPostgresNamespace scopes this backend to one namespace within the
// shared table. Clear and Keys only see rows in the namespace.
func WithPostgresNamespace(namespace string) PostgresOption {
	return func(o *postgresOptions) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithPostgresOperationTimeout bounds each statement with its own deadline,
// layered on top of the caller's context. Zero leaves timing to the caller.
func WithPostgresOperationTimeout(timeout time.Duration) PostgresOption {
	return func(o *postgresOptions) {
		o.opTimeout = timeout
	}
}

// WithPostgresCleanupInterval sets how often expired rows are deleted.
// Zero or negative disables the janitor; expired rows are then filtered on
// read but accumulate until something else removes them.
func WithPostgresCleanupInterval(interval time.Duration) PostgresOption {
	return func(o *postgresOptions) {
		o.cleanupInterval = interval
	}
}
