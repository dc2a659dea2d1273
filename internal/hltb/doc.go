// Package hltb is a client for HowLongToBeat's undocumented web API.
//
// The site offers no stable contract: its search endpoint moves between
// front-end releases, per-game data lives under a Next.js build id, and every
// search needs a short-lived token. The client therefore discovers all three
// at runtime:
//
//   - Discovery fetches the homepage, scans the referenced chunk bundles for a
//     POST-issued "/api/..." literal, and falls back to a static search path
//     when nothing verifies. It also extracts the build id from the homepage's
//     manifest references.
//   - TokenManager fetches a token from /api/search/init and reuses it for a
//     fixed TTL.
//   - SearchClient and DetailFetcher issue the requests and validate responses
//     field by field, failing closed on any schema drift.
//
// All discovered state lives in a Session owned by the Client. Nothing is
// persisted; InvalidateCache drops everything so the next call rediscovers
// from scratch. No layer retries on its own.
package hltb
