package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotFound is the absent-sentinel: the key does not exist or its
	// entry has expired. A miss is a normal outcome, not a failure;
	// callers distinguish it from backend failures with errors.Is.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed backend.
	ErrClosed = errors.New("cache: closed")

	// ErrUnavailable is returned when the backend itself cannot serve the
	// operation: the local region cannot be opened or mapped, the remote
	// store cannot be reached, or the connection is gone. It is never
	// reported as a miss.
	ErrUnavailable = errors.New("cache: backend unavailable")

	// ErrTimeout is returned when a remote operation exceeded its bound.
	// Distinct from ErrUnavailable so callers can tell "slow" from "down".
	ErrTimeout = errors.New("cache: operation timed out")

	// ErrRegionVersion is returned (joined with ErrUnavailable) when a
	// persistent region was written by an incompatible format version.
	ErrRegionVersion = errors.New("cache: region format version mismatch")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("cache: failed to marshal value")

	// ErrUnmarshal is returned when value deserialization fails.
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")
)
