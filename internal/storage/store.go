package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Record kinds persisted by the floor.
const (
	KindTradingDecision = "trading_decision"
	KindAnalysisResult  = "analysis_result"
)

// Record is one persisted cycle outcome.
type Record struct {
	ID        string
	Kind      string
	Payload   map[string]any
	CreatedAt time.Time
}

// Store persists trading and analysis history in a local sqlite database.
// Only the stub server writes here; the client view state is deliberately
// memory-resident.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS floor_records (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_floor_records_kind_created
	ON floor_records (kind, created_at DESC);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Insert persists one record and returns its generated ULID.
func (s *Store) Insert(ctx context.Context, kind string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	now := time.Now().UTC()
	// ulid.Make uses the package-level locked entropy source; Insert is
	// called concurrently from the execute and analyze handlers.
	id := ulid.Make().String()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO floor_records (id, kind, payload, created_at) VALUES (?, ?, ?, ?)`,
		id, kind, string(raw), now)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

// Recent returns up to limit records of one kind, newest first.
func (s *Store) Recent(ctx context.Context, kind string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, payload, created_at FROM floor_records
		 WHERE kind = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s history: %w", kind, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec Record
			raw string
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &raw, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &rec.Payload); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get fetches one record by id. sql.ErrNoRows is passed through.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var (
		rec Record
		raw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, payload, created_at FROM floor_records WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Kind, &raw, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Payload); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &rec, nil
}

// Stats returns per-kind record counts.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM floor_records GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats[kind] = count
	}
	return stats, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
