// Package config loads, normalizes, and validates igreport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and OCR_MODE. The Config type centralizes every knob the CLI
// and the extraction pipeline need, including the remote rate budget and the
// queue thresholds that decide between waiting and asking for a correction.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical modes, and clear validation errors.
package config
