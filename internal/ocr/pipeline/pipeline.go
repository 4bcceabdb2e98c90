// Package pipeline runs the capture-extract-deliver loop with bounded
// per-cycle latency.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/screenlens/screenlens/internal/capture"
	"github.com/screenlens/screenlens/internal/fingerprint"
	"github.com/screenlens/screenlens/internal/ocr/adaptive"
	"github.com/screenlens/screenlens/internal/ocr/cache"
	"github.com/screenlens/screenlens/internal/ocr/engine"
	"github.com/screenlens/screenlens/internal/ocr/executor"
	"github.com/screenlens/screenlens/internal/ocr/metrics"
	"github.com/screenlens/screenlens/internal/syncx"
)

// cacheEngineName labels results served from the dedup cache.
const cacheEngineName = "cache"

const defaultResultBuffer = 16

// Metadata accompanies every delivered result.
type Metadata struct {
	ID        string    `json:"id"`
	Engine    string    `json:"engine"`
	LatencyMs int64     `json:"latency_ms"`
	WordCount int       `json:"word_count"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives extracted text. Delivery is fire-and-forget from the
// loop's perspective; implementations own their error handling beyond
// returning it for logging.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, text string, meta Metadata) error
}

// Result is one extraction outcome published to stream consumers.
type Result struct {
	ID      string        `json:"id"`
	Text    string        `json:"text"`
	Engine  string        `json:"engine"`
	Latency time.Duration `json:"latency"`
	At      time.Time     `json:"at"`
}

// Config wires the loop's collaborators.
type Config struct {
	Capturer     capture.Capturer
	Selector     *engine.Selector
	Cache        *cache.Cache
	Tracker      *metrics.Tracker
	Controller   *adaptive.Controller
	Sinks        []Sink
	ResultBuffer int
}

// Loop owns one extraction cycle per interval: capture, dedup, bounded
// extraction, dispatch, then a feedback adjustment. All control state is
// written only by the loop goroutine.
type Loop struct {
	capturer   capture.Capturer
	selector   *engine.Selector
	cache      *cache.Cache
	tracker    *metrics.Tracker
	controller *adaptive.Controller
	sinks      []Sink

	params   *syncx.Guard[adaptive.Params]
	lastText *syncx.Guard[string]
	results  chan Result
	running  atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New assembles a loop from its collaborators.
func New(cfg Config) *Loop {
	buf := cfg.ResultBuffer
	if buf <= 0 {
		buf = defaultResultBuffer
	}
	return &Loop{
		capturer:   cfg.Capturer,
		selector:   cfg.Selector,
		cache:      cfg.Cache,
		tracker:    cfg.Tracker,
		controller: cfg.Controller,
		sinks:      cfg.Sinks,
		params:     syncx.NewGuard(cfg.Controller.Current()),
		lastText:   syncx.NewGuard(""),
		results:    make(chan Result, buf),
		stopCh:     make(chan struct{}),
	}
}

// Run drives cycles until ctx is cancelled or Stop is called. The
// resource sampler runs alongside on its own cadence. Blocking; callers
// run it on a dedicated goroutine.
func (l *Loop) Run(ctx context.Context) {
	l.running.Store(true)
	defer l.running.Store(false)

	go l.tracker.Run(ctx, l.stopCh)
	slog.Info("pipeline started", "interval", l.params.Load().Interval)

	for {
		start := time.Now()
		l.cycle(ctx)

		next := l.controller.Adjust(l.tracker.Snapshot())
		l.params.Store(next)

		// An overrun cycle starts the next one immediately rather than
		// accumulating debt.
		sleep := next.Interval - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-time.After(sleep):
		}
	}
}

// Stop terminates the loop. Idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Loop) cycle(ctx context.Context) {
	frame, changed := l.capturer.Capture()
	if !changed {
		slog.Debug("no new frame, skipping cycle")
		return
	}

	fp, fpErr := fingerprint.FromBytes(frame.Data)
	if fpErr == nil {
		if text, ok := l.cache.Get(fp); ok {
			slog.Debug("cache hit", "fingerprint", fp.String())
			l.dispatch(ctx, text, cacheEngineName, 0, frame.At)
			return
		}
	} else {
		// Undecodable frames still go to extraction; the engine reports
		// the real error.
		slog.Debug("fingerprint failed, skipping dedup", "error", fpErr)
	}

	eng := l.selector.Select(l.tracker.Snapshot())
	if eng == nil {
		slog.Error("no engine available")
		return
	}

	deadline := time.Duration(float64(l.params.Load().Deadline) * eng.DeadlineScale())
	out := executor.Run(ctx, deadline, func() (string, error) {
		return eng.Extract(ctx, frame.Data, frame.Format)
	})

	status := out.Status
	if status == executor.StatusSuccess && out.Text == "" {
		// Empty text counts against the success rate so the selector
		// routes away from an engine that recognizes nothing.
		status = executor.StatusFailed
	}
	l.tracker.Update(status, out.Elapsed)

	if status != executor.StatusSuccess {
		if out.Err != nil {
			slog.Warn("extraction failed", "engine", string(eng.ID()), "status", out.Status.String(), "error", out.Err)
		}
		return
	}

	if fpErr == nil {
		l.cache.Put(fp, out.Text)
	}
	l.dispatch(ctx, out.Text, string(eng.ID()), out.Elapsed, frame.At)
}

func (l *Loop) dispatch(ctx context.Context, text, engineName string, latency time.Duration, at time.Time) {
	l.lastText.Store(text)

	res := Result{
		ID:      uuid.NewString(),
		Text:    text,
		Engine:  engineName,
		Latency: latency,
		At:      at,
	}

	// Stream consumers that fall behind lose results rather than stall
	// the loop.
	select {
	case l.results <- res:
	default:
		slog.Debug("result stream full, dropping", "id", res.ID)
	}

	meta := Metadata{
		ID:        res.ID,
		Engine:    engineName,
		LatencyMs: latency.Milliseconds(),
		WordCount: len(strings.Fields(text)),
		Timestamp: at,
	}
	for _, s := range l.sinks {
		go func(s Sink) {
			if err := s.Deliver(ctx, text, meta); err != nil {
				slog.Warn("sink delivery failed", "sink", s.Name(), "error", err)
			}
		}(s)
	}
}

// Results streams published extractions. The channel is never closed;
// consumers select against their own shutdown signal.
func (l *Loop) Results() <-chan Result {
	return l.results
}

// LatestText returns the most recently dispatched text.
func (l *Loop) LatestText() string {
	return l.lastText.Load()
}

// Metrics returns the current statistics snapshot.
func (l *Loop) Metrics() metrics.Snapshot {
	return l.tracker.Snapshot()
}

// ControlParams returns the live timing parameters.
func (l *Loop) ControlParams() adaptive.Params {
	return l.params.Load()
}

// Advisories returns threshold-breach recommendations.
func (l *Loop) Advisories() []string {
	return l.tracker.Recommendations()
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}
