package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRunSuccess(t *testing.T) {
	out := Run(context.Background(), time.Second, func() (string, error) {
		return "hello", nil
	})

	if out.Status != StatusSuccess {
		t.Fatalf("Status = %v, want StatusSuccess", out.Status)
	}
	if out.Text != "hello" {
		t.Errorf("Text = %q, want %q", out.Text, "hello")
	}
	if out.Elapsed > time.Second {
		t.Errorf("Elapsed = %v, should be well under the deadline", out.Elapsed)
	}
}

func TestRunTaskError(t *testing.T) {
	boom := errors.New("backend crashed")
	out := Run(context.Background(), time.Second, func() (string, error) {
		return "", boom
	})

	if out.Status != StatusFailed {
		t.Fatalf("Status = %v, want StatusFailed", out.Status)
	}
	if !errors.Is(out.Err, boom) {
		t.Errorf("Err = %v, want %v", out.Err, boom)
	}
}

func TestRunTimeoutReturnsPromptly(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	out := Run(context.Background(), 50*time.Millisecond, func() (string, error) {
		<-release // never returns during the test window
		return "late", nil
	})
	waited := time.Since(start)

	if out.Status != StatusTimeout {
		t.Fatalf("Status = %v, want StatusTimeout", out.Status)
	}
	if waited > 500*time.Millisecond {
		t.Errorf("Run blocked %v after a 50ms deadline", waited)
	}
	if out.Text != "" {
		t.Errorf("Text = %q, want empty on timeout", out.Text)
	}
}

func TestRunAbandonedTaskDoesNotBlock(t *testing.T) {
	done := make(chan struct{})
	out := Run(context.Background(), 10*time.Millisecond, func() (string, error) {
		time.Sleep(50 * time.Millisecond)
		close(done) // orphan must still complete its buffered send
		return "orphan", nil
	})

	if out.Status != StatusTimeout {
		t.Fatalf("Status = %v, want StatusTimeout", out.Status)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("orphaned task never finished; send likely blocked")
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := Run(ctx, time.Second, func() (string, error) {
		time.Sleep(100 * time.Millisecond)
		return "x", nil
	})

	if out.Status != StatusFailed {
		t.Fatalf("Status = %v, want StatusFailed on cancelled context", out.Status)
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", out.Err)
	}
}

func TestRunReentrant(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := Run(context.Background(), time.Second, func() (string, error) {
				return "ok", nil
			})
			if out.Status != StatusSuccess {
				t.Errorf("Status = %v, want StatusSuccess", out.Status)
			}
		}()
	}
	wg.Wait()
}
