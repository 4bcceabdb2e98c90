// Package adaptive adjusts pipeline timing from observed performance
package adaptive

import (
	"log/slog"
	"time"

	"github.com/screenlens/screenlens/internal/ocr/metrics"
)

// Tuning constants. The interval rule is a simple proportional heuristic,
// not a PID controller; it oscillates gently around a working point and
// relies on clamping alone.
const (
	AdjustmentFactor = 0.1

	CPUBackOffPercent = 80.0 // defaults; overridden by config
	CPUSpeedUpPercent = 40.0

	SlowProcessTime = 2.0 // seconds; above this the deadline tracks the average
	DeadlineMargin  = 1.0 // seconds added to the average
	DefaultDeadline = 3.0 // seconds
)

// Params are the live timing parameters the pipeline schedules with.
// Written once per cycle by the controller, read by the loop and monitors.
type Params struct {
	Interval time.Duration `json:"interval"`
	Deadline time.Duration `json:"deadline"`
}

// Config bounds the controller.
type Config struct {
	InitialInterval float64 // seconds
	MinInterval     float64
	MaxInterval     float64
	CPUHigh         float64 // percent
	CPULow          float64
	BaseDeadline    float64 // seconds, used while the average is healthy
}

// Controller implements the feedback loop over the polling interval and
// the per-call deadline. Mutated only by the pipeline loop, once per cycle.
type Controller struct {
	cfg      Config
	interval float64 // seconds, current working point
}

// New creates a controller starting at cfg.InitialInterval.
func New(cfg Config) *Controller {
	if cfg.CPUHigh <= 0 {
		cfg.CPUHigh = CPUBackOffPercent
	}
	if cfg.CPULow <= 0 {
		cfg.CPULow = CPUSpeedUpPercent
	}
	if cfg.BaseDeadline <= 0 {
		cfg.BaseDeadline = DefaultDeadline
	}
	return &Controller{cfg: cfg, interval: cfg.InitialInterval}
}

// Current returns the present parameters without adjusting.
func (c *Controller) Current() Params {
	return Params{
		Interval: secondsToDuration(c.interval),
		Deadline: secondsToDuration(c.cfg.BaseDeadline),
	}
}

// Adjust evaluates one feedback step against the snapshot and returns the
// updated parameters. Interval and deadline follow independent rules read
// from the same snapshot.
func (c *Controller) Adjust(s metrics.Snapshot) Params {
	switch {
	case s.CPUUsage > c.cfg.CPUHigh:
		// Back off to shed load.
		next := c.interval * (1 + AdjustmentFactor)
		if next > c.cfg.MaxInterval {
			next = c.cfg.MaxInterval
		}
		if next != c.interval {
			slog.Debug("interval increased", "from", c.interval, "to", next, "cpu", s.CPUUsage)
		}
		c.interval = next
	case s.CPUUsage < c.cfg.CPULow && c.interval > c.cfg.MinInterval:
		// Speed up while headroom exists.
		next := c.interval * (1 - AdjustmentFactor)
		if next < c.cfg.MinInterval {
			next = c.cfg.MinInterval
		}
		slog.Debug("interval decreased", "from", c.interval, "to", next, "cpu", s.CPUUsage)
		c.interval = next
	}

	deadline := c.cfg.BaseDeadline
	if s.AvgProcessTime > SlowProcessTime {
		deadline = s.AvgProcessTime + DeadlineMargin
	}

	return Params{
		Interval: secondsToDuration(c.interval),
		Deadline: secondsToDuration(deadline),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
