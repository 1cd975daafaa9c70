package cache

import (
	"context"
	"encoding/json"
	"errors"
)

// Backend is the uniform storage contract implemented by every cache
// variant. A backend owns its concurrency discipline internally: structural
// mutations (store, delete, clear, eviction) are mutually exclusive with
// each other, and readers never observe a half-applied mutation.
//
// Values cross this boundary as opaque bytes so that every variant
// round-trips payloads identically; serialization is the caller's concern
// (see Marshaler).
type Backend interface {
	// Store writes the entry under key, overwriting any existing entry
	// unconditionally. Capacity-bounded backends may evict as a side effect.
	Store(ctx context.Context, key string, e Entry) error

	// Fetch returns the value bytes for key. Expiry is applied before
	// returning: an expired entry is removed and reported as ErrNotFound,
	// exactly like an absent one.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Has reports whether key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes the given keys. The whole call is atomic with respect
	// to concurrent Fetch/Store on the same keys: no observer sees some of
	// the requested keys gone while others are still visible.
	Delete(ctx context.Context, keys ...string) error

	// Clear removes every entry in this backend's namespace. Capacity and
	// configuration are untouched, only data is dropped.
	Clear(ctx context.Context) error

	// Keys enumerates live (non-expired) keys. The result is a snapshot
	// taken at call start; mutations interleaved with the call are not
	// reflected.
	Keys(ctx context.Context) ([]string, error)

	// Close releases backend resources (file handles, goroutines).
	// Remote clients owned by the caller are left open.
	Close() error
}

// Marshaler serializes and deserializes cache values. Backends store raw
// bytes; the marshaler decides the encoding (JSON by default).
type Marshaler interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// JSON is the default Marshaler, encoding values with encoding/json.
var JSON Marshaler = jsonMarshaler{}

type jsonMarshaler struct{}

func (jsonMarshaler) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler) Unmarshal(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Join(ErrUnmarshal, err)
	}
	return nil
}

// cloneBytes copies b so callers can never mutate a backend's resident copy
// (or the reverse).
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
