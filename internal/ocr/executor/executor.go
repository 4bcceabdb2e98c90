// Package executor runs extraction tasks under a hard deadline
package executor

import (
	"context"
	"log/slog"
	"time"
)

// Status classifies the outcome of one bounded task run.
type Status int

const (
	StatusSuccess Status = iota
	StatusTimeout
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusTimeout:
		return "timeout"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports how a bounded task run ended.
type Outcome struct {
	Status  Status
	Text    string
	Elapsed time.Duration
	Err     error
}

type result struct {
	text string
	err  error
}

// Run executes task on its own goroutine and blocks until it completes,
// the deadline expires, or ctx is cancelled, whichever comes first.
//
// On deadline expiry the task is abandoned, not cancelled: it may keep
// running against the backend, but its result is discarded. The result
// channel is buffered so the orphan's send never blocks. Run is
// re-entrant; concurrent calls are independent.
func Run(ctx context.Context, deadline time.Duration, task func() (string, error)) Outcome {
	start := time.Now()
	ch := make(chan result, 1)

	go func() {
		text, err := task()
		ch <- result{text: text, err: err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-ch:
		elapsed := time.Since(start)
		if res.err != nil {
			return Outcome{Status: StatusFailed, Elapsed: elapsed, Err: res.err}
		}
		return Outcome{Status: StatusSuccess, Text: res.text, Elapsed: elapsed}
	case <-timer.C:
		slog.Warn("extraction timeout, abandoning task", "deadline", deadline)
		return Outcome{Status: StatusTimeout, Elapsed: time.Since(start)}
	case <-ctx.Done():
		return Outcome{Status: StatusFailed, Elapsed: time.Since(start), Err: ctx.Err()}
	}
}
