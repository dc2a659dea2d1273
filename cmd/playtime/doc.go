// Package main hosts the playtime CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, wires the catalog
// client, the title resolver, the result cache and the lookup service, and
// exposes them as one-shot commands (lookup, search, detail, discover), cache
// maintenance, and the long-running local API server.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through commands and flags.
package main
