package internal

import "errors"

var (
	// ErrInvalidConfig reports a configuration that cannot produce a working
	// cache: unknown backend kind, missing connection details, and so on.
	// It is returned from New, never from a later operation.
	ErrInvalidConfig = errors.New("cachebox: invalid configuration")

	// ErrDuplicateCache reports two cache definitions sharing one name.
	ErrDuplicateCache = errors.New("cachebox: duplicate cache name")

	// ErrUnknownCache is returned by Cache when the name is not configured
	// and the registry was built with WithoutFallback.
	ErrUnknownCache = errors.New("cachebox: unknown cache name")

	// ErrRegistryClosed is returned when resolving caches after Close.
	ErrRegistryClosed = errors.New("cachebox: registry closed")
)
