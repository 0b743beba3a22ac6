package pipeline

import "time"

// Summary reports one batch, or the merge of several shard batches.
type Summary struct {
	RunID               string        `json:"run_id"`
	ShardOffset         int           `json:"shard_offset"`
	Claimed             int           `json:"claimed"`
	Processed           int           `json:"processed"`
	Verified            int           `json:"verified"`
	Flagged             int           `json:"flagged"`
	Retried             int           `json:"retried"`
	Errors              int           `json:"errors"`
	Remaining           int           `json:"remaining"`
	DuplicateCandidates int           `json:"duplicate_candidates"`
	Duration            time.Duration `json:"duration_ns"`
	Shards              []Summary     `json:"shards,omitempty"`
}

func (s *Summary) add(other Summary) {
	s.Claimed += other.Claimed
	s.Processed += other.Processed
	s.Verified += other.Verified
	s.Flagged += other.Flagged
	s.Retried += other.Retried
	s.Errors += other.Errors
	s.DuplicateCandidates += other.DuplicateCandidates
}
