package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// catalogSchemaVersion is stored in PRAGMA user_version. Version 2 added the
// deferrals counter used to order claims.
const catalogSchemaVersion = 2

// ErrSchemaMismatch reports a catalog written by a different schema version.
var ErrSchemaMismatch = errors.New("catalog schema version mismatch")

// initSchema creates the catalog tables in an empty database and refuses to
// open a catalog written with another schema version.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read catalog schema version: %w", err)
	}
	switch version {
	case catalogSchemaVersion:
		return nil
	case 0:
		populated, err := s.hasRecordsTable(ctx)
		if err != nil {
			return err
		}
		if !populated {
			return s.createSchema(ctx)
		}
	}
	return fmt.Errorf("%w: %s has version %d, want %d; export the records, remove the file and run nutriverify import",
		ErrSchemaMismatch, s.path, version, catalogSchemaVersion)
}

func (s *Store) hasRecordsTable(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'food_records'",
	).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("inspect catalog tables: %w", err)
	}
	return true, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create catalog tables: %w", err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", catalogSchemaVersion)); err != nil {
			return fmt.Errorf("stamp catalog schema version: %w", err)
		}
		return nil
	})
}
