// Package config loads, normalizes, and validates playtime configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PLAYTIME_BASE_URL. The Config type centralizes every knob the CLI and the
// local lookup server need so HLTB client settings, the result cache, and
// logging are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
