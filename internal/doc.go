// Package internal implements the cache registry and instance types behind
// cachebox.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/cachebox" instead, which re-exports the public
// API.
//
// # Core Types
//
//   - Registry: builds named cache instances from configuration at startup,
//     hands them out by name, and tears everything down on Close
//   - Cache: a named instance bound to one backend, marshaling values in
//     and out and enforcing the instance's default TTL
//   - Config / CacheConfig: the declarative YAML model for instances,
//     backend selection, and shared connections
//   - StoreOption: per-call settings (explicit TTL, no expiry, pinning)
//
// # Lifecycle
//
// A Registry is created once, next to the rest of the application's
// startup wiring, and passed by reference to whatever needs caching.
// Every declared instance is built inside New: a cache that cannot be
// built (bad config, unreachable store, incompatible cache file) fails
// startup rather than the first request. Close releases instances first,
// then the connections the registry dialed itself; injected clients stay
// open for their owners.
//
// # Isolation
//
// The instance name doubles as its namespace everywhere: a key prefix on
// Redis, a namespace column on Postgres, a dedicated file for the local
// backend, and a dedicated map for the LRU. Clear and Keys operate within
// that namespace only, so "sessions" can never read or wipe "objects".
package internal
