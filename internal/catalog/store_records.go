package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Insert adds a new record. Records without a state start unverified.
func (s *Store) Insert(ctx context.Context, rec Record) (*Record, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertRecord(ctx, tx, rec, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// InsertMany adds records in a single transaction and returns the number inserted.
func (s *Store) InsertMany(ctx context.Context, recs []Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range recs {
			if _, err := insertRecord(ctx, tx, recs[i], now); err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, rec Record, now time.Time) (int64, error) {
	if strings.TrimSpace(rec.Name) == "" {
		return 0, errors.New("record name is required")
	}
	if rec.State == "" {
		rec.State = StateUnverified
	}
	micros, err := nullableJSON(rec.Micronutrients, len(rec.Micronutrients) == 0)
	if err != nil {
		return 0, fmt.Errorf("marshal micronutrients: %w", err)
	}
	flags, err := nullableJSON(rec.ReviewFlags, len(rec.ReviewFlags) == 0)
	if err != nil {
		return 0, fmt.Errorf("marshal review flags: %w", err)
	}
	ts := timestamp(now)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO food_records (
            name, brand, category, serving_quantity, serving_unit, serving_description,
            calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, micronutrients_json,
            source_name, source_external_id, state, quality_score, verification_attempts,
            last_verified_at, audit_json, review_flags_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(rec.Name),
		nullableString(strings.TrimSpace(rec.Brand)),
		nullableString(strings.TrimSpace(rec.Category)),
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
		nullableString(rec.Source.Name),
		nullableString(rec.Source.ExternalID),
		rec.State,
		rec.QualityScore,
		rec.VerificationAttempts,
		nullableTime(rec.LastVerifiedAt),
		nullableString(rec.Audit),
		flags,
		ts,
		ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return res.LastInsertId()
}

// GetByID fetches a record by identifier. A missing record yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM food_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns records ordered by id, optionally filtered by state.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM food_records`
	args := make([]any, 0, len(filter.States)+2)
	if len(filter.States) > 0 {
		query += ` WHERE state IN (` + makePlaceholders(len(filter.States)) + `)`
		for _, state := range filter.States {
			args = append(args, state)
		}
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListByIDs returns the records with the given ids, ordered by id.
func (s *Store) ListByIDs(ctx context.Context, ids []int64) ([]*Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM food_records WHERE id IN (`+makePlaceholders(len(ids))+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list records by id: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// CountByState returns the number of records in the given state.
func (s *Store) CountByState(ctx context.Context, state State) (int, error) {
	var count int
	if err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM food_records WHERE state = ?`,
		state,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Stats aggregates per-state counts. Processing records untouched for longer
// than staleAfter are reported as stale.
func (s *Store) Stats(ctx context.Context, staleAfter time.Duration) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{ByState: make(map[State]int, len(allStates))}
	for _, state := range allStates {
		stats.ByState[state] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM food_records GROUP BY state`)
	if err != nil {
		return stats, fmt.Errorf("count by state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return stats, fmt.Errorf("scan state count: %w", err)
		}
		stats.ByState[State(state)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate state counts: %w", err)
	}

	cutoff := timestamp(time.Now().Add(-staleAfter))
	if err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM food_records WHERE state = ? AND updated_at < ?`,
		StateProcessing,
		cutoff,
	).Scan(&stats.StaleProcessing); err != nil {
		return stats, fmt.Errorf("count stale processing: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM duplicate_candidates`).Scan(&stats.DuplicateCandidates); err != nil {
		return stats, fmt.Errorf("count duplicate candidates: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT AVG(quality_score) FROM food_records`).Scan(&avg); err != nil {
		return stats, fmt.Errorf("average quality score: %w", err)
	}
	stats.AverageScore = avg.Float64
	return stats, nil
}
