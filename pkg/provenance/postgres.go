package provenance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arpanauts/biomapper/pkg/logging"
)

// PostgresStore persists provenance records to the mapping_provenance
// table for durable audit across runs.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool, logger logging.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With(logging.F("component", "provenance_store")),
	}
}

// ConnectPostgres opens a pool for dsn, ensures the provenance schema
// exists, and returns a store over it. The caller owns the store and must
// Close it.
func ConnectPostgres(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to provenance database: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring provenance schema: %w", err)
	}
	return NewPostgresStore(pool, logger), nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Schema is the DDL for the provenance table. Callers apply it once at
// deployment time.
const Schema = `
CREATE TABLE IF NOT EXISTS mapping_provenance (
    id              BIGSERIAL PRIMARY KEY,
    run_id          TEXT NOT NULL,
    action          TEXT NOT NULL,
    source_id       TEXT NOT NULL,
    source_ontology TEXT NOT NULL,
    target_id       TEXT NOT NULL,
    target_ontology TEXT NOT NULL,
    method          TEXT NOT NULL,
    confidence      DOUBLE PRECISION NOT NULL,
    stage           INTEGER NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mapping_provenance_run ON mapping_provenance (run_id, id);
`

// Append implements Store using a single batched insert per call.
func (s *PostgresStore) Append(ctx context.Context, runID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO mapping_provenance (
			run_id, action, source_id, source_ontology,
			target_id, target_ontology, method, confidence, stage, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, r := range records {
		batch.Queue(query,
			runID, r.Action, r.SourceID, r.SourceOntology,
			r.TargetID, r.TargetOntology, r.Method, r.Confidence, r.Stage, r.Timestamp)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert provenance record: %w", err)
		}
	}

	s.logger.Debug("provenance appended",
		logging.F("run_id", runID),
		logging.F("records", len(records)))
	return nil
}

// List implements Store, returning records in append order.
func (s *PostgresStore) List(ctx context.Context, runID string) ([]Record, error) {
	query := `
		SELECT action, source_id, source_ontology,
		       target_id, target_ontology, method, confidence, stage, created_at
		FROM mapping_provenance
		WHERE run_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query provenance: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.Action, &r.SourceID, &r.SourceOntology,
			&r.TargetID, &r.TargetOntology, &r.Method, &r.Confidence, &r.Stage, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan provenance record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Verify interface compliance.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
