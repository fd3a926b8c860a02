// Package config loads, normalizes, and validates animedb configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and ANIMEDB_UPLOADERS. The Config type centralizes every
// knob the server and CLI need so the catalog location, LLM credentials, and
// uploader allow-list are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
