// Package server exposes the lookup service over a small local HTTP API so
// launchers and browser extensions can query completion times without
// embedding the client.
//
// Only one server may run per lock file; Start takes a flock-based lock and
// Stop releases it.
package server
