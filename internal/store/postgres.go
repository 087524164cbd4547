// Package store persists committed import batches to PostgreSQL.
//
// It implements engine.Committer: one imports row per commit plus one
// import_records row per canonical record, all inside a single transaction so
// a failed commit leaves no partial import behind.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commercedesk/ingest/internal/engine"
)

const defaultBatchSize = 1000

// Store is the PostgreSQL-backed storage collaborator.
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
}

// New creates a Store over the given connection pool. batchSize bounds how
// many record inserts are queued per database round trip; zero or negative
// means 1000.
func New(pool *pgxpool.Pool, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Store{pool: pool, batchSize: batchSize}
}

const insertImport = `
INSERT INTO imports (id, entity_type, source_file, column_mappings, record_count, created_at)
VALUES ($1, $2, $3, $4, $5, now())`

const insertImportRecord = `
INSERT INTO import_records (id, import_id, row_index, fields, source_file, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// CommitBatch writes the import header and every record in one transaction.
func (s *Store) CommitBatch(ctx context.Context, batch engine.CommitBatch) error {
	mappings, err := json.Marshal(batch.Mappings)
	if err != nil {
		return fmt.Errorf("encode column mappings: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertImport,
		batch.ImportID, batch.EntityType.String(), batch.SourceFileName,
		mappings, len(batch.Records),
	)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}

	for start := 0; start < len(batch.Records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(batch.Records) {
			end = len(batch.Records)
		}
		if err := s.insertRecords(ctx, tx, batch.ImportID, batch.Records[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertRecords queues one chunk of record inserts as a pgx batch.
func (s *Store) insertRecords(ctx context.Context, tx pgx.Tx, importID string, records []engine.CanonicalRecord) error {
	queued := &pgx.Batch{}
	for _, rec := range records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encode record %d fields: %w", rec.RowIndex, err)
		}
		queued.Queue(insertImportRecord,
			rec.RowID, importID, rec.RowIndex, fields, rec.SourceFile, rec.UploadedAt,
		)
	}

	results := tx.SendBatch(ctx, queued)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert record %d: %w", records[i].RowIndex, err)
		}
	}
	return results.Close()
}

// ImportSummary is one row of the import history listing.
type ImportSummary struct {
	ID          string    `json:"id"`
	EntityType  string    `json:"entityType"`
	SourceFile  string    `json:"sourceFile"`
	RecordCount int       `json:"recordCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

const listImports = `
SELECT id, entity_type, source_file, record_count, created_at
FROM imports
ORDER BY created_at DESC
LIMIT $1`

// ListImports returns the most recent imports, newest first.
func (s *Store) ListImports(ctx context.Context, limit int) ([]ImportSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, listImports, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var summaries []ImportSummary
	for rows.Next() {
		var sum ImportSummary
		if err := rows.Scan(&sum.ID, &sum.EntityType, &sum.SourceFile, &sum.RecordCount, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return summaries, nil
}
