package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertDuplicateCandidates persists advisory near-duplicate pairs keyed by
// (lower id, higher id). Existing pairs get the latest similarity.
func (s *Store) UpsertDuplicateCandidates(ctx context.Context, pairs []DuplicateCandidate) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	written := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		written = 0
		for _, pair := range pairs {
			left, right := pair.LeftID, pair.RightID
			leftName, rightName := pair.LeftName, pair.RightName
			if left == right {
				continue
			}
			if left > right {
				left, right = right, left
				leftName, rightName = rightName, leftName
			}
			detected := pair.DetectedAt
			if detected.IsZero() {
				detected = time.Now()
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO duplicate_candidates (left_id, right_id, left_name, right_name, similarity, detected_at)
                 VALUES (?, ?, ?, ?, ?, ?)
                 ON CONFLICT(left_id, right_id) DO UPDATE SET
                     left_name = excluded.left_name,
                     right_name = excluded.right_name,
                     similarity = excluded.similarity,
                     detected_at = excluded.detected_at`,
				left, right, leftName, rightName, pair.Similarity, timestamp(detected),
			); err != nil {
				return fmt.Errorf("upsert duplicate candidate %d/%d: %w", left, right, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// ListDuplicateCandidates returns persisted pairs ordered by similarity descending.
func (s *Store) ListDuplicateCandidates(ctx context.Context, limit int) ([]DuplicateCandidate, error) {
	query := `SELECT left_id, right_id, left_name, right_name, similarity, detected_at
              FROM duplicate_candidates ORDER BY similarity DESC, left_id, right_id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list duplicate candidates: %w", err)
	}
	defer rows.Close()

	var out []DuplicateCandidate
	for rows.Next() {
		var (
			pair        DuplicateCandidate
			detectedRaw string
		)
		if err := rows.Scan(&pair.LeftID, &pair.RightID, &pair.LeftName, &pair.RightName, &pair.Similarity, &detectedRaw); err != nil {
			return nil, fmt.Errorf("scan duplicate candidate: %w", err)
		}
		if detected, err := parseTimeString(detectedRaw); err == nil {
			pair.DetectedAt = detected
		}
		out = append(out, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicate candidates: %w", err)
	}
	return out, nil
}
