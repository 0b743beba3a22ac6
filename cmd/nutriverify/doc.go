// Package main hosts the nutriverify CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, opens the catalog database and
// builds the reference and oracle providers once per invocation, then hands
// them to the internal packages. Batch verification, catalog import, review
// actions (show, requeue) and the advisory tools (dedupe, classify, lookup)
// are all surfaced here.
//
// Keep this package lean: add behaviour to the internal packages first and
// expose it through commands or flags here.
package main
