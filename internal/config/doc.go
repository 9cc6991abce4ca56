// Package config loads, normalizes, and validates stanza configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the STANZA_LOG_LEVEL environment
// override. Named documents declared in the file have their source and
// destination resolved relative to the file that declares them.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a complete heading vocabulary, and clear validation errors.
package config
