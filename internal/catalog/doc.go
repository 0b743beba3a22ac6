// Package catalog persists food-serving records and their verification
// lifecycle in SQLite.
//
// Records move through unverified, processing, verified and flagged. Every
// state change is checked against the lifecycle machine in lifecycle.go, and
// the store applies it with a conditional update so a record is never claimed
// twice. Claim selects candidates in id order with an offset, which lets
// several shards work disjoint ranges of the unverified backlog.
//
// The store never validates nutrient values; that is the rule engine's job.
// Near-duplicate pairs found by the deduplicator are kept in a separate table
// as advisory data and are never merged.
package catalog
