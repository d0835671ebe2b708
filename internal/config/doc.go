// Package config loads, normalizes, and validates jellyzam configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a working-directory .env file, and
// honours environment fallbacks such as JELLYZAM_API_KEY. The Config type
// centralizes every knob the CLI and watcher need so state directories,
// organization targets, and service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
