package persist

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current store layout version.
const SchemaVersion = 1

// schemaV1 keeps every node of the mapping as one row keyed by its
// slash-separated path. Groups have no data.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS entries (
    path TEXT PRIMARY KEY,
    kind TEXT NOT NULL,  -- see the kind* constants
    shape TEXT,          -- "rows,cols" for matrices, length for arrays
    data BLOB
);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`

// InitSchema creates the tables and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func checkSchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `SELECT version FROM schema_info`).Scan(&version); err != nil {
		return fmt.Errorf("%w: read schema version: %w", ErrCorruptStore, err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: schema version %d, want %d", ErrCorruptStore, version, SchemaVersion)
	}
	return nil
}
