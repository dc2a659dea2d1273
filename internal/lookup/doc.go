// Package lookup is the host-facing entry point: it answers title lookups
// from the result cache when it can, resolves against the catalog when it
// must, and refreshes stale entries in the background.
//
// The service also watches for signs that discovered endpoints have gone
// stale. After a configurable run of consecutive not-found or malformed
// responses it invalidates the client session so the next lookup rediscovers
// the search endpoint, build id, and token.
package lookup
