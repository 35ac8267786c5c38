// Package store mirrors journal events into PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/internal/journal"
)

// DBPool is the subset of pgxpool.Pool the store uses, so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const recentLimit = 500

const (
	sqlCreateEvents = `
        CREATE TABLE IF NOT EXISTS journal_events (
            id UUID PRIMARY KEY,
            run_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            occurred_at TIMESTAMPTZ NOT NULL,
            payload JSONB NOT NULL DEFAULT '{}'::jsonb
        );
    `
	sqlCreateRunIndex = `
        CREATE INDEX IF NOT EXISTS journal_events_run_idx ON journal_events (run_id, occurred_at);
    `
	sqlInsertEvent = `
        INSERT INTO journal_events (id, run_id, event_type, occurred_at, payload)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO NOTHING;
    `
	sqlRecentEvents = `
        SELECT id, run_id, event_type, occurred_at, payload
        FROM journal_events
        WHERE run_id = $1
        ORDER BY occurred_at ASC
        LIMIT $2;
    `
)

// Store is a journal.Sink backed by PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store over pool and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Connect opens a pool for url, verifies it, and ensures the schema exists. The
// returned func closes the pool.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// EnsureSchema creates the events table and its index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateEvents, sqlCreateRunIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Record inserts ev. Replaying an event with the same ID is a no-op.
func (s *Store) Record(ctx context.Context, ev journal.Event) error {
	payload, err := json.ConfigCompatibleWithStandardLibrary.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if len(payload) == 0 || string(payload) == "null" {
		payload = []byte("{}")
	}
	if _, err := s.pool.Exec(ctx, sqlInsertEvent, ev.ID, ev.RunID, string(ev.Type), ev.Timestamp.UTC(), payload); err != nil {
		return fmt.Errorf("failed to insert journal event %s: %w", ev.ID, err)
	}
	return nil
}

// Recent returns the events of runID in chronological order.
func (s *Store) Recent(ctx context.Context, runID string) ([]journal.Event, error) {
	rows, err := s.pool.Query(ctx, sqlRecentEvents, runID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal events: %w", err)
	}
	defer rows.Close()

	var events []journal.Event
	for rows.Next() {
		var (
			ev      journal.Event
			typ     string
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &typ, &ev.Timestamp, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan journal event: %w", err)
		}
		ev.Type = journal.EventType(typ)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Payload); err != nil {
				s.log.Warn("Skipping malformed event payload.", zap.String("id", ev.ID), zap.Error(err))
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return events, nil
}
