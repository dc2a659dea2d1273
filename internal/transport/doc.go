// Package transport issues the blocking GET and POST requests the HLTB client
// is built on.
//
// Every request carries a fixed timeout, a caller-supplied header set, and is
// paced by an optional client-side rate limiter so bursts of lookups stay
// polite towards the upstream site. Non-2xx statuses are not errors at this
// layer; callers receive the status and body and decide what they mean.
// Nothing here retries.
package transport
