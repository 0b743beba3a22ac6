// Package notifications delivers pipeline events to ntfy.
//
// Batch summaries and flagged records are published to the topic configured
// under [notifications]; without a topic the service is a no-op so callers
// never need to check whether notifications are enabled.
package notifications
