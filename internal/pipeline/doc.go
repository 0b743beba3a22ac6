// Package pipeline runs verification batches against the catalog.
//
// A batch holds a shard lock, claims a handful of unverified records at its
// shard offset, and processes them one at a time with a pause between records.
// Each record has its category repaired, then runs through the correction
// loop, and its outcome is persisted in a single update. Records whose oracle
// was unavailable are released for a later run. A panic or error while
// processing one record is contained so the rest of the batch still runs.
// RunShards runs several offsets concurrently.
package pipeline
