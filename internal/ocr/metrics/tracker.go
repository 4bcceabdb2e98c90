package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/screenlens/screenlens/internal/ocr/executor"
	"github.com/screenlens/screenlens/internal/syncx"
)

// Snapshot is a point-in-time copy of the rolling statistics. Readers may
// observe values that are stale by up to one cycle.
type Snapshot struct {
	CPUUsage       float64 `json:"cpu_usage"`        // percent
	MemoryMB       float64 `json:"memory_mb"`
	SuccessRate    float64 `json:"success_rate"`     // percent, EWMA
	AvgProcessTime float64 `json:"avg_process_time"` // seconds, EWMA
	Processed      uint64  `json:"processed"`
	Skipped        uint64  `json:"skipped"`
	Errors         uint64  `json:"errors"`
	Timeouts       uint64  `json:"timeouts"`
}

// Tracker accumulates extraction outcomes and background process samples.
// Update is called only from the pipeline loop; the sampler goroutine
// writes CPU/memory independently on its own cadence.
type Tracker struct {
	state *syncx.Guard[Snapshot]
	stats procStats
}

// New creates a tracker sampling the current process.
func New() *Tracker {
	return &Tracker{
		state: syncx.NewGuard(Snapshot{}),
		stats: newProcessStats(),
	}
}

func newWithStats(stats procStats) *Tracker {
	return &Tracker{state: syncx.NewGuard(Snapshot{}), stats: stats}
}

// Update records one completed extraction attempt.
//
// Success: rate' = rate*0.95 + 5, time' = time*0.9 + elapsed*0.1.
// Failure or timeout: rate' = rate*0.95 only; the latency estimate is
// deliberately not polluted by timed-out attempts.
func (t *Tracker) Update(status executor.Status, elapsed time.Duration) {
	t.state.Update(func(s *Snapshot) {
		s.Processed++
		switch status {
		case executor.StatusSuccess:
			s.SuccessRate = s.SuccessRate*SuccessRateDecay + SuccessRateReward
			s.AvgProcessTime = s.AvgProcessTime*ProcessTimeDecay + elapsed.Seconds()*(1-ProcessTimeDecay)
		case executor.StatusTimeout:
			s.SuccessRate = s.SuccessRate * SuccessRateDecay
			s.Skipped++
			s.Errors++
			s.Timeouts++
		default:
			s.SuccessRate = s.SuccessRate * SuccessRateDecay
			s.Skipped++
			s.Errors++
		}
	})
}

// Snapshot returns a copy of the current statistics.
func (t *Tracker) Snapshot() Snapshot {
	return t.state.Load()
}

// Run samples process CPU and memory every SampleInterval until ctx is
// cancelled or stopCh closes.
func (t *Tracker) Run(ctx context.Context, stopCh <-chan struct{}) {
	ticker := time.NewTicker(SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			t.sample()
		}
	}
}

func (t *Tracker) sample() {
	cpu, err := t.stats.cpuPercent()
	if err != nil {
		slog.Debug("cpu sample failed", "error", err)
		return
	}
	mem, err := t.stats.memoryMB()
	if err != nil {
		slog.Debug("memory sample failed", "error", err)
		return
	}
	t.state.Update(func(s *Snapshot) {
		s.CPUUsage = cpu
		s.MemoryMB = mem
	})
}

// Recommendations derives human-readable advisories from threshold
// breaches. Advisory only; the adaptive controller is the actuator.
func (t *Tracker) Recommendations() []string {
	s := t.Snapshot()
	var recs []string

	if s.CPUUsage > AdvisoryCPUPercent {
		recs = append(recs, fmt.Sprintf("High CPU usage (%.1f%%) - consider reducing capture frequency", s.CPUUsage))
	}
	if s.MemoryMB > AdvisoryMemoryMB {
		recs = append(recs, fmt.Sprintf("High memory usage (%.1fMB) - consider clearing cache or restarting", s.MemoryMB))
	}
	if s.SuccessRate < AdvisorySuccessRate {
		recs = append(recs, fmt.Sprintf("Low extraction success rate (%.1f%%) - check image quality and preprocessing", s.SuccessRate))
	}
	if s.AvgProcessTime > AdvisoryProcessTime {
		recs = append(recs, fmt.Sprintf("Slow extraction (%.2fs avg) - consider a faster engine", s.AvgProcessTime))
	}
	if s.Errors > AdvisoryErrorCount {
		recs = append(recs, fmt.Sprintf("High error count (%d) - check system stability", s.Errors))
	}
	return recs
}
