// Package logging assembles the slog loggers used by nutriverify.
//
// NewFromConfig writes human-readable console lines (or JSON) to stderr and,
// when a log directory is configured, a JSON copy of every record to
// nutriverify.log. WithContext tags lines with the run, shard, record and
// phase carried on a context so pipeline code never threads those fields by
// hand. NewNop is available for tests and optional wiring.
package logging
