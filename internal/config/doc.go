// Package config loads, normalizes, and validates nutriverify configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FDC_API_KEY and OPENROUTER_API_KEY. The Config type centralizes the batch
// pacing, rule tolerances and provider credentials the pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, bounded batch sizes, and clear validation errors.
package config
