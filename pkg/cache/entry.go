package cache

import "time"

// Entry is a single cached record: the serialized value plus the metadata
// every backend needs to apply expiry and eviction policy uniformly.
type Entry struct {
	// CreatedAt is the store time, set when the entry is built.
	CreatedAt time.Time

	// Value is the serialized payload. Backends treat it as opaque bytes.
	Value []byte

	// TTL is the time-to-live relative to CreatedAt.
	// Zero means the entry never expires by time.
	TTL time.Duration

	// Pinned marks the entry as exempt from capacity eviction.
	// Only capacity-bounded backends (LRU) consult it.
	Pinned bool
}

// NewEntry builds an entry stamped with the current time.
// A negative ttl is normalized to zero (never expires).
func NewEntry(value []byte, ttl time.Duration, pinned bool) Entry {
	return Entry{
		Value:     value,
		CreatedAt: time.Now(),
		TTL:       max(ttl, 0),
		Pinned:    pinned,
	}
}

// Expired reports whether the entry has outlived its TTL at the given
// instant. The check is inclusive: an entry whose lifetime is exactly TTL
// is already expired. The in-process backends call this before returning a
// value; the networked backends delegate the same inclusive boundary to
// their server's clock.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return !now.Before(e.CreatedAt.Add(e.TTL))
}
