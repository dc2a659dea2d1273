package hltb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// record is a decoded JSON object whose fields are checked one by one.
type record map[string]json.RawMessage

func decodeRecord(raw json.RawMessage) (record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected object")
	}
	var rec record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return rec, nil
}

// present reports whether key exists with a non-null value.
func (r record) present(key string) bool {
	raw, ok := r[key]
	if !ok {
		return false
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func (r record) number(key string) (float64, error) {
	if !r.present(key) {
		return 0, fmt.Errorf("field %q missing", key)
	}
	raw := bytes.TrimSpace(r[key])
	if raw[0] != '-' && (raw[0] < '0' || raw[0] > '9') {
		return 0, fmt.Errorf("field %q is not a number", key)
	}
	value, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("field %q is not a number: %w", key, err)
	}
	return value, nil
}

func (r record) integer(key string) (int64, error) {
	value, err := r.number(key)
	if err != nil {
		return 0, err
	}
	if value != math.Trunc(value) || math.Abs(value) > math.MaxInt64/2 {
		return 0, fmt.Errorf("field %q is not an integer", key)
	}
	return int64(value), nil
}

// seconds reads a duration field. Fractional seconds are rounded.
func (r record) seconds(key string) (int64, error) {
	value, err := r.number(key)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("field %q is negative", key)
	}
	return int64(math.Round(value)), nil
}

// optionalSeconds reads a duration field that may be absent or null.
func (r record) optionalSeconds(key string) (int64, error) {
	if !r.present(key) {
		return 0, nil
	}
	return r.seconds(key)
}

func (r record) string(key string) (string, error) {
	if !r.present(key) {
		return "", fmt.Errorf("field %q missing", key)
	}
	var value string
	if err := json.Unmarshal(r[key], &value); err != nil {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return value, nil
}

// array decodes raw as a JSON array, rejecting null and other types.
func array(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return items, nil
}
