package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/screenlens/screenlens/internal/ocr/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func deliverN(t *testing.T, s *Store, n int, start time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		meta := pipeline.Metadata{
			ID:        fmt.Sprintf("id-%04d", i),
			Engine:    "primary",
			LatencyMs: 42,
			WordCount: 2,
			Timestamp: start.Add(time.Duration(i) * time.Second),
		}
		if err := s.Deliver(context.Background(), fmt.Sprintf("text %d", i), meta); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
}

func TestFlushAndRecent(t *testing.T) {
	s := openTestStore(t)
	deliverN(t, s, 3, time.Unix(1000, 0))
	s.Flush()

	entries, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Text != "text 2" {
		t.Errorf("entries[0].Text = %q, want newest", entries[0].Text)
	}
	if entries[0].Engine != "primary" || entries[0].LatencyMs != 42 {
		t.Errorf("entry fields lost: %+v", entries[0])
	}
}

func TestBatchSizeTriggersFlush(t *testing.T) {
	s := openTestStore(t)
	s.flushDelay = time.Hour // only the size trigger may fire

	deliverN(t, s, s.batchSize, time.Unix(1000, 0))
	s.wg.Wait()

	entries, err := s.Recent(context.Background(), s.batchSize*2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != s.batchSize {
		t.Errorf("entries = %d, want %d without explicit flush", len(entries), s.batchSize)
	}
}

func TestTimerFlush(t *testing.T) {
	s := openTestStore(t)
	s.flushDelay = 20 * time.Millisecond

	deliverN(t, s, 1, time.Unix(1000, 0))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := s.Recent(context.Background(), 1)
		if err == nil && len(entries) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timer flush never persisted the entry")
}

func TestPruneBoundsRows(t *testing.T) {
	s := openTestStore(t)
	s.maxRows = 5

	deliverN(t, s, 20, time.Unix(1000, 0))
	s.Flush()

	entries, err := s.Recent(context.Background(), 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) > 5 {
		t.Errorf("entries = %d, want pruned to 5", len(entries))
	}
	// The newest rows survive.
	if entries[0].Text != "text 19" {
		t.Errorf("entries[0].Text = %q, want newest", entries[0].Text)
	}
}

func TestCloseFlushesPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	deliverN(t, s, 2, time.Unix(1000, 0))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2 after close flush", len(entries))
	}
}
