// Package history persists extraction results to a bounded sqlite log.
package history

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/screenlens/screenlens/internal/errors"
	"github.com/screenlens/screenlens/internal/ocr/pipeline"
	"github.com/screenlens/screenlens/internal/resilience"
)

const (
	DefaultBatchSize  = 20
	DefaultFlushDelay = 2 * time.Second
	DefaultMaxRows    = 1000
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	engine     TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	word_count INTEGER NOT NULL,
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extractions_at ON extractions(at);
`

// Entry is one persisted extraction.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Engine    string    `json:"engine"`
	LatencyMs int64     `json:"latency_ms"`
	WordCount int       `json:"word_count"`
	At        time.Time `json:"at"`
}

// Store accumulates entries and flushes them in batches. Rows beyond
// the retention bound are pruned oldest-first after each flush. The
// store is a pipeline sink; a lost batch loses history, never results.
type Store struct {
	db         *sql.DB
	batchSize  int
	flushDelay time.Duration
	maxRows    int

	mu      sync.Mutex
	pending []Entry
	timer   *time.Timer
	wg      sync.WaitGroup
}

// Open creates or opens the sqlite log at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.DeliveryFailed, "open history database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, apperrors.DeliveryFailed, "create history schema")
	}
	return &Store{
		db:         db,
		batchSize:  DefaultBatchSize,
		flushDelay: DefaultFlushDelay,
		maxRows:    DefaultMaxRows,
		pending:    make([]Entry, 0, DefaultBatchSize),
	}, nil
}

func (s *Store) Name() string { return "history" }

// Deliver queues one result for batched persistence.
func (s *Store) Deliver(ctx context.Context, text string, meta pipeline.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, Entry{
		ID:        meta.ID,
		Text:      text,
		Engine:    meta.Engine,
		LatencyMs: meta.LatencyMs,
		WordCount: meta.WordCount,
		At:        meta.Timestamp,
	})

	if len(s.pending) >= s.batchSize {
		s.flushLocked()
		return nil
	}

	if s.timer == nil {
		s.timer = time.AfterFunc(s.flushDelay, s.timerFlush)
	} else {
		s.timer.Reset(s.flushDelay)
	}
	return nil
}

func (s *Store) timerFlush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Store) flushLocked() {
	if len(s.pending) == 0 {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	batch := s.pending
	s.pending = make([]Entry, 0, s.batchSize)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.Background()
		err := resilience.Retry(ctx, resilience.StorageRetryConfig(), func() error {
			return s.insertBatch(ctx, batch)
		})
		if err != nil {
			slog.Warn("history flush failed, batch dropped", "count", len(batch), "error", err)
			return
		}
		slog.Debug("history flushed", "count", len(batch))
		if err := s.prune(ctx); err != nil {
			slog.Warn("history prune failed", "error", err)
		}
	}()
}

func (s *Store) insertBatch(ctx context.Context, batch []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO extractions (id, text, engine, latency_ms, word_count, at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Text, e.Engine, e.LatencyMs, e.WordCount, e.At.UnixMilli()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM extractions WHERE id NOT IN (SELECT id FROM extractions ORDER BY at DESC LIMIT ?)`,
		s.maxRows)
	return err
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, engine, latency_ms, word_count, at FROM extractions ORDER BY at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var atMillis int64
		if err := rows.Scan(&e.ID, &e.Text, &e.Engine, &e.LatencyMs, &e.WordCount, &atMillis); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(atMillis)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Flush forces pending entries to disk and waits for completion.
func (s *Store) Flush() {
	s.mu.Lock()
	s.flushLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

// Close flushes remaining entries and closes the database.
func (s *Store) Close() error {
	s.Flush()
	return s.db.Close()
}
