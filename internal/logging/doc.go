// Package logging assembles structured slog loggers and formatting helpers used
// across playtime.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so a lookup carries its
// correlation ID and title into every log line emitted by the HLTB client,
// the matcher, and the result cache. A no-op logger is provided for tests and
// for wiring code that cannot fail.
package logging
