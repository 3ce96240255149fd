package store

import (
	"context"
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// Timestamps are unix milliseconds so both engines store them identically.
// Devices reference floorplans in code rather than with a foreign key because
// DuckDB does not support ON DELETE CASCADE.
var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS floorplans (
		id         VARCHAR PRIMARY KEY,
		name       VARCHAR NOT NULL,
		image_path VARCHAR NOT NULL,
		width      DOUBLE NOT NULL,
		height     DOUBLE NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id           VARCHAR PRIMARY KEY,
		floorplan_id VARCHAR NOT NULL,
		name         VARCHAR NOT NULL,
		type         VARCHAR NOT NULL DEFAULT 'switch',
		protocol     VARCHAR NOT NULL,
		description  VARCHAR NOT NULL DEFAULT '',
		pin_code     VARCHAR NOT NULL DEFAULT '',
		qr_code_path VARCHAR NOT NULL DEFAULT '',
		x_pos        DOUBLE NOT NULL DEFAULT 50,
		y_pos        DOUBLE NOT NULL DEFAULT 50,
		scale        DOUBLE NOT NULL DEFAULT 1,
		created_at   BIGINT NOT NULL,
		updated_at   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_floorplan ON devices(floorplan_id)`,
}

// Migrate brings the schema up to date.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	if version < 1 {
		if err := s.applySchema(ctx, 1, schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the applied schema version, or 0 for an empty database.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func (s *SQLStore) applySchema(ctx context.Context, version int, stmts []string) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute schema: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`, version, nowMillis()); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		s.log.Info().Int("version", version).Msg("Applied database schema")
		return nil
	})
}
