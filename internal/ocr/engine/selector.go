package engine

import (
	"log/slog"

	"github.com/screenlens/screenlens/internal/ocr/metrics"
)

// fallbackOrder is the preference list when the chosen variant is not
// registered.
var fallbackOrder = []ID{Primary, Fast, Specialized}

// Selector picks an engine variant per cycle from the metrics snapshot.
// The registered set is fixed at construction; Select never fails once
// at least one engine is registered.
type Selector struct {
	engines map[ID]Engine
}

// NewSelector registers the given engines. Passing none is a programming
// error and Select will return nil.
func NewSelector(engines ...Engine) *Selector {
	m := make(map[ID]Engine, len(engines))
	for _, e := range engines {
		m[e.ID()] = e
	}
	return &Selector{engines: m}
}

// Select applies the routing rules in precedence order. CPU pressure
// wins over latency: a loaded system always takes the fast path.
func (s *Selector) Select(m metrics.Snapshot) Engine {
	var want ID
	switch {
	case m.CPUUsage > HighCPUThreshold:
		want = Fast
	case m.AvgProcessTime < FastPathThreshold:
		want = Primary
	default:
		want = Specialized
	}
	return s.resolve(want)
}

// Engine returns a registered engine by ID.
func (s *Selector) Engine(id ID) (Engine, bool) {
	e, ok := s.engines[id]
	return e, ok
}

func (s *Selector) resolve(want ID) Engine {
	if e, ok := s.engines[want]; ok {
		return e
	}
	for _, id := range fallbackOrder {
		if e, ok := s.engines[id]; ok {
			slog.Warn("engine unavailable, falling back", "want", string(want), "using", string(id))
			return e
		}
	}
	return nil
}
