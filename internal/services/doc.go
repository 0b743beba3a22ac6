// Package services defines shared utilities consumed by the verification
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp record IDs, phase names, shard offsets, and
//     run identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent catalog states (released for retry vs flagged).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
