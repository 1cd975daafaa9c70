package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// localFormatVersion tags the on-disk layout. Opening a file written
	// with a different version fails with ErrRegionVersion instead of
	// misreading the records.
	localFormatVersion = 1

	// entryHeaderSize is flags (1) + created-at (8) + ttl (8) before the
	// value bytes.
	entryHeaderSize = 17

	flagPinned = 1 << 0
)

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")

	formatVersionKey = []byte("format_version")
)

// Local is a persistent backend on a single memory-mapped B+tree file.
// Entries survive process restarts; the file is locked for exclusive use,
// so one process owns a cache file at a time.
//
// Records carry their creation time and TTL, and expiry is evaluated on
// read. Expired records linger on disk until the janitor sweep or an
// overwrite reclaims them, but are never served.
type Local struct {
	db   *bolt.DB
	opts *localOptions
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewLocal opens (or creates) the cache file at path.
//
// Opening fails with ErrUnavailable when the file cannot be opened or
// locked within one second, and with ErrRegionVersion when the file was
// written by an incompatible version of this package.
func NewLocal(path string, opts ...LocalOption) (*Local, error) {
	o := defaultLocalOptions()
	for _, opt := range opts {
		opt(o)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}

		if v := meta.Get(formatVersionKey); v != nil {
			if len(v) != 1 || v[0] != localFormatVersion {
				got := -1
				if len(v) == 1 {
					got = int(v[0])
				}
				return errors.Join(ErrRegionVersion, ErrUnavailable,
					fmt.Errorf("cache: file %s has format version %d, want %d", path, got, localFormatVersion))
			}
			return nil
		}

		return meta.Put(formatVersionKey, []byte{localFormatVersion})
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	l := &Local{
		db:   db,
		opts: o,
		done: make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go l.janitor()
	}

	return l, nil
}

// Store writes the entry under key, overwriting unconditionally. The write
// is durable once Store returns.
func (l *Local) Store(_ context.Context, key string, e Entry) error {
	if err := l.guard(); err != nil {
		return err
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).Put([]byte(key), encodeEntry(e))
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	return nil
}

// Fetch returns the value bytes for key, or ErrNotFound when the key is
// absent or its record has expired.
func (l *Local) Fetch(_ context.Context, key string) ([]byte, error) {
	if err := l.guard(); err != nil {
		return nil, err
	}

	var value []byte
	err := l.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketEntries).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}

		e, err := decodeEntry(raw)
		if err != nil {
			return err
		}
		if e.Expired(time.Now()) {
			return ErrNotFound
		}

		// Copy out: the slice is only valid inside the transaction.
		value = cloneBytes(e.Value)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnmarshal) {
			return nil, err
		}
		return nil, errors.Join(ErrUnavailable, err)
	}

	return value, nil
}

// Has reports whether key exists and has not expired.
func (l *Local) Has(ctx context.Context, key string) (bool, error) {
	_, err := l.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the given keys in a single transaction: either all
// removals commit or none do.
func (l *Local) Delete(_ context.Context, keys ...string) error {
	if err := l.guard(); err != nil {
		return err
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	return nil
}

// Clear drops every entry by recreating the entries bucket. The format
// version tag is kept.
func (l *Local) Clear(_ context.Context) error {
	if err := l.guard(); err != nil {
		return err
	}

	err := l.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketEntries)
		return err
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	return nil
}

// Keys returns a snapshot of live keys in byte order.
func (l *Local) Keys(_ context.Context) ([]string, error) {
	if err := l.guard(); err != nil {
		return nil, err
	}

	var out []string
	err := l.db.View(func(tx *bolt.Tx) error {
		now := time.Now()
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			e, err := decodeEntry(v)
			if err != nil {
				return err
			}
			if !e.Expired(now) {
				out = append(out, string(k))
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrUnmarshal) {
			return nil, err
		}
		return nil, errors.Join(ErrUnavailable, err)
	}

	return out, nil
}

// Close stops the janitor and releases the file lock. Close is idempotent.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)

	return l.db.Close()
}

// guard rejects operations on a closed backend.
func (l *Local) guard() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *Local) janitor() {
	ticker := time.NewTicker(l.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.deleteExpired()
		}
	}
}

// deleteExpired sweeps expired records in one transaction.
func (l *Local) deleteExpired() {
	_ = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		now := time.Now()

		var expired [][]byte
		cur := b.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			e, err := decodeEntry(v)
			if err != nil {
				continue // unreadable record, leave it for inspection
			}
			if e.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
		}

		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// encodeEntry lays an entry out as flags, created-at nanoseconds, TTL
// nanoseconds, then the raw value bytes. All integers are big-endian.
func encodeEntry(e Entry) []byte {
	buf := make([]byte, entryHeaderSize+len(e.Value))

	if e.Pinned {
		buf[0] |= flagPinned
	}
	binary.BigEndian.PutUint64(buf[1:9], uint64(e.CreatedAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[9:17], uint64(e.TTL))
	copy(buf[entryHeaderSize:], e.Value)

	return buf
}

func decodeEntry(raw []byte) (Entry, error) {
	if len(raw) < entryHeaderSize {
		return Entry{}, errors.Join(ErrUnmarshal,
			fmt.Errorf("cache: record too short: %d bytes", len(raw)))
	}

	return Entry{
		Pinned:    raw[0]&flagPinned != 0,
		CreatedAt: time.Unix(0, int64(binary.BigEndian.Uint64(raw[1:9]))),
		TTL:       time.Duration(binary.BigEndian.Uint64(raw[9:17])),
		Value:     raw[entryHeaderSize:],
	}, nil
}

var _ Backend = (*Local)(nil)
