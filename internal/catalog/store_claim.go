package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Claim moves up to size unverified records to processing. The window is
// cut at offset over the open queue (unverified and processing records)
// ordered by deferral count then id, so records already claimed by another
// shard keep their place and shard windows stay disjoint. Records handed
// back after an unreachable oracle sink behind fresh ones. The conditional
// update means two concurrent claims never return the same record.
func (s *Store) Claim(ctx context.Context, size, offset int) ([]*Record, error) {
	if size <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := Transition(StateUnverified, EventClaim); err != nil {
		return nil, err
	}

	var claimed []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		claimed = claimed[:0]
		rows, err := tx.QueryContext(
			ctx,
			`SELECT id, state FROM food_records
             WHERE state IN (?, ?)
             ORDER BY deferrals, id
             LIMIT ? OFFSET ?`,
			StateUnverified, StateProcessing, size, offset,
		)
		if err != nil {
			return fmt.Errorf("select claim candidates: %w", err)
		}
		var candidates []int64
		for rows.Next() {
			var (
				id    int64
				state State
			)
			if err := rows.Scan(&id, &state); err != nil {
				rows.Close()
				return fmt.Errorf("scan claim candidate: %w", err)
			}
			if state == StateUnverified {
				candidates = append(candidates, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate claim candidates: %w", err)
		}

		now := timestamp(time.Now())
		for _, id := range candidates {
			res, err := tx.ExecContext(
				ctx,
				`UPDATE food_records SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
				StateProcessing, now, id, StateUnverified,
			)
			if err != nil {
				return fmt.Errorf("claim record %d: %w", id, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 1 {
				claimed = append(claimed, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListByIDs(ctx, claimed)
}

// Release returns a processing record to unverified without touching its values.
func (s *Store) Release(ctx context.Context, id int64) error {
	to, err := Transition(StateProcessing, EventRelease)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE food_records SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		to, timestamp(time.Now()), id, StateProcessing,
	)
	if err != nil {
		return fmt.Errorf("release record: %w", err)
	}
	return s.expectOne(ctx, res, id, StateProcessing, EventRelease)
}

// Defer returns a processing record to unverified after the oracle could not
// be reached and bumps its deferral count. Values and audit are untouched.
func (s *Store) Defer(ctx context.Context, id int64) error {
	to, err := Transition(StateProcessing, EventRelease)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE food_records SET state = ?, deferrals = deferrals + 1, updated_at = ? WHERE id = ? AND state = ?`,
		to, timestamp(time.Now()), id, StateProcessing,
	)
	if err != nil {
		return fmt.Errorf("defer record: %w", err)
	}
	return s.expectOne(ctx, res, id, StateProcessing, EventRelease)
}

// Complete persists the terminal outcome of a processing record in one update:
// values, state, score, attempts, audit and review flags.
func (s *Store) Complete(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	event, err := TerminalEvent(rec.State)
	if err != nil {
		return err
	}
	if _, err := Transition(StateProcessing, event); err != nil {
		return err
	}
	micros, err := nullableJSON(rec.Micronutrients, len(rec.Micronutrients) == 0)
	if err != nil {
		return fmt.Errorf("marshal micronutrients: %w", err)
	}
	flags, err := nullableJSON(rec.ReviewFlags, len(rec.ReviewFlags) == 0)
	if err != nil {
		return fmt.Errorf("marshal review flags: %w", err)
	}
	rec.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE food_records
         SET name = ?, brand = ?, category = ?, serving_quantity = ?, serving_unit = ?,
             serving_description = ?, calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?,
             fiber_g = ?, sugar_g = ?, micronutrients_json = ?, state = ?, quality_score = ?,
             verification_attempts = ?, last_verified_at = ?, audit_json = ?,
             review_flags_json = ?, updated_at = ?
         WHERE id = ? AND state = ?`,
		rec.Name,
		nullableString(rec.Brand),
		nullableString(rec.Category),
		rec.Serving.Quantity,
		nullableString(rec.Serving.Unit),
		nullableString(rec.Serving.Description),
		rec.Macros.Calories,
		rec.Macros.ProteinG,
		rec.Macros.CarbsG,
		rec.Macros.FatG,
		nullableFloat(rec.Macros.FiberG),
		nullableFloat(rec.Macros.SugarG),
		micros,
		rec.State,
		rec.QualityScore,
		rec.VerificationAttempts,
		nullableTime(rec.LastVerifiedAt),
		nullableString(rec.Audit),
		flags,
		timestamp(rec.UpdatedAt),
		rec.ID,
		StateProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete record: %w", err)
	}
	return s.expectOne(ctx, res, rec.ID, StateProcessing, event)
}

// Requeue moves flagged records back to unverified for another pass and
// clears their review flags. The audit payload is kept.
func (s *Store) Requeue(ctx context.Context, ids ...int64) (int64, error) {
	return s.applyEvent(ctx, StateFlagged, EventRequeue, `review_flags_json = NULL, `, ids)
}

// Reopen moves verified records back to unverified.
func (s *Store) Reopen(ctx context.Context, ids ...int64) (int64, error) {
	return s.applyEvent(ctx, StateVerified, EventReopen, "", ids)
}

func (s *Store) applyEvent(ctx context.Context, from State, event Event, extraSet string, ids []int64) (int64, error) {
	to, err := Transition(from, event)
	if err != nil {
		return 0, err
	}
	args := []any{to, timestamp(time.Now()), from}
	query := `UPDATE food_records SET ` + extraSet + `state = ?, updated_at = ? WHERE state = ?`
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s records: %w", event, err)
	}
	return res.RowsAffected()
}

func (s *Store) expectOne(ctx context.Context, res sql.Result, id int64, from State, event Event) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("record %d: %w", id, ErrRecordNotFound)
	}
	return fmt.Errorf("record %d: %w: %s requires %s, record is %s", id, ErrInvalidTransition, event, from, current.State)
}
