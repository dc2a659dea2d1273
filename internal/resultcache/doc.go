// Package resultcache persists resolved lookups in SQLite so repeated
// lookups of the same title skip the network.
//
// Entries are keyed by normalized title plus Steam app id. A positive entry is
// fresh for the fresh TTL, then stale (still served, but due for a background
// refresh) until the stale TTL, then expired. Negative entries record a
// not-found result and are fresh for the negative TTL, then expired.
package resultcache
