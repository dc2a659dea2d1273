// Package preflight provides readiness checks for the filesystem paths and
// upstream catalog endpoints playtime depends on.
//
// The CLI "playtime doctor" command runs RunAll and prints each Result. Cache
// checks are gated by cache.enabled; disabled features are skipped.
package preflight
