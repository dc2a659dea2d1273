package hltb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks network failures, timeouts, and unexpected HTTP statuses.
	ErrTransport = errors.New("transport failure")
	// ErrSchema marks a decoded payload that is missing or mistypes a required field.
	ErrSchema = errors.New("schema violation")
	// ErrNotFound marks absent results, an undiscoverable build id, or a 404.
	ErrNotFound = errors.New("not found")
	// ErrAuth marks a failed token fetch.
	ErrAuth = errors.New("auth failure")
)

// wrap tags err with marker and an "operation: message" detail so callers can
// classify it with errors.Is while the text stays readable.
func wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "hltb failure"
	}
	return strings.Join(parts, ": ")
}

func statusError(operation string, status int) error {
	return wrap(ErrTransport, operation, fmt.Sprintf("unexpected status %d", status), nil)
}
