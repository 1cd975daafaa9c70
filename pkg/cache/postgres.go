package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a backend on a PostgreSQL table, for setups that already run
// Postgres and do not want an extra moving part for shared caching.
// Entries are rows keyed by (namespace, key); expiry is evaluated against
// the database clock, and a janitor deletes expired rows periodically.
//
// Like Redis, this backend has no capacity bound, so the Pinned flag has no
// effect here.
type Postgres struct {
	pool      *pgxpool.Pool
	table     string
	opts      *postgresOptions
	done      chan struct{}
	closeOnce sync.Once
}

// NewPostgres creates a Postgres-backed cache on top of an existing pool,
// creating the cache table if it does not exist. The pool should be
// obtained from db.Connect; its lifecycle stays with the caller.
//
// Example:
//
//	pool, err := db.Connect(ctx, dbCfg)
//	b, err := cache.NewPostgres(ctx, pool,
//	    cache.WithPostgresNamespace("sessions"),
//	)
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, opts ...PostgresOption) (*Postgres, error) {
	o := defaultPostgresOptions()
	for _, opt := range opts {
		opt(o)
	}

	p := &Postgres{
		pool:  pool,
		table: pgx.Identifier{o.table}.Sanitize(),
		opts:  o,
		done:  make(chan struct{}),
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ,
		PRIMARY KEY (namespace, key)
	)`, p.table)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, mapPgErr(err)
	}

	if o.cleanupInterval > 0 {
		go p.janitor()
	}

	return p, nil
}

// Store upserts the entry under (namespace, key). A zero TTL stores the row
// with a NULL expiry, meaning it never expires.
func (p *Postgres) Store(ctx context.Context, key string, e Entry) error {
	ctx, cancel := p.opCtx(ctx)
	defer cancel()

	var expiresAt *time.Time
	if e.TTL > 0 {
		t := e.CreatedAt.Add(e.TTL)
		expiresAt = &t
	}

	query := fmt.Sprintf(`INSERT INTO %s (namespace, key, value, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`, p.table)

	_, err := p.pool.Exec(ctx, query, p.opts.namespace, key, e.Value, e.CreatedAt, expiresAt)
	return mapPgErr(err)
}

// Fetch returns the value bytes for key, treating rows past their expiry as
// absent even before the janitor removes them.
func (p *Postgres) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := p.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT value FROM %s
		WHERE namespace = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > now())`, p.table)

	var value []byte
	if err := p.pool.QueryRow(ctx, query, p.opts.namespace, key).Scan(&value); err != nil {
		return nil, mapPgErr(err)
	}

	return value, nil
}

// Has reports whether key exists and has not expired.
func (p *Postgres) Has(ctx context.Context, key string) (bool, error) {
	ctx, cancel := p.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s
		WHERE namespace = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > now()))`, p.table)

	var exists bool
	if err := p.pool.QueryRow(ctx, query, p.opts.namespace, key).Scan(&exists); err != nil {
		return false, mapPgErr(err)
	}

	return exists, nil
}

// Delete removes the given keys with a single DELETE statement, so the
// removal is atomic.
func (p *Postgres) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := p.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND key = ANY($2)`, p.table)

	_, err := p.pool.Exec(ctx, query, p.opts.namespace, keys)
	return mapPgErr(err)
}

// Clear removes every row in this backend's namespace. Other namespaces
// sharing the table are untouched.
func (p *Postgres) Clear(ctx context.Context) error {
	ctx, cancel := p.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, p.table)

	_, err := p.pool.Exec(ctx, query, p.opts.namespace)
	return mapPgErr(err)
}

// Keys returns the live keys in this backend's namespace.
func (p *Postgres) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := p.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT key FROM %s
		WHERE namespace = $1 AND (expires_at IS NULL OR expires_at > now())`, p.table)

	rows, err := p.pool.Query(ctx, query, p.opts.namespace)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err)
	}

	return out, nil
}

// Close stops the janitor. The pool itself is managed by the caller.
func (p *Postgres) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	return nil
}

func (p *Postgres) janitor() {
	ticker := time.NewTicker(p.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.deleteExpired()
		}
	}
}

// deleteExpired reclaims rows past their expiry in this namespace.
func (p *Postgres) deleteExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s
		WHERE namespace = $1 AND expires_at IS NOT NULL AND expires_at <= now()`, p.table)

	_, _ = p.pool.Exec(ctx, query, p.opts.namespace)
}

// opCtx applies the configured per-operation timeout, if any.
func (p *Postgres) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.opts.opTimeout)
}

// mapPgErr translates pgx errors into the package sentinels, mirroring
// mapRedisErr: missing rows are ErrNotFound, deadlines are ErrTimeout, and
// transport or server failures are ErrUnavailable.
func mapPgErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Join(ErrTimeout, err)
	}

	return errors.Join(ErrUnavailable, err)
}

var _ Backend = (*Postgres)(nil)
