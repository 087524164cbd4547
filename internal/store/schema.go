package store

import (
	"context"
	"fmt"
)

// DDL for the two ingestion tables. Applied idempotently at startup; there is
// no separate migration tool for this service.
const (
	createImportsTable = `
CREATE TABLE IF NOT EXISTS imports (
    id              UUID PRIMARY KEY,
    entity_type     TEXT NOT NULL,
    source_file     TEXT NOT NULL,
    column_mappings JSONB NOT NULL,
    record_count    INTEGER NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	createImportRecordsTable = `
CREATE TABLE IF NOT EXISTS import_records (
    id          UUID PRIMARY KEY,
    import_id   UUID NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
    row_index   INTEGER NOT NULL,
    fields      JSONB NOT NULL,
    source_file TEXT NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL
)`

	createImportRecordsIndex = `
CREATE INDEX IF NOT EXISTS idx_import_records_import_id
    ON import_records (import_id)`
)

// EnsureSchema creates the ingestion tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range []string{createImportsTable, createImportRecordsTable, createImportRecordsIndex} {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
