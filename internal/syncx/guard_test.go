package syncx

import (
	"sync"
	"testing"
)

func TestGuardLoadStore(t *testing.T) {
	g := NewGuard(42)

	if g.Load() != 42 {
		t.Errorf("Load() = %d, want 42", g.Load())
	}

	g.Store(7)
	if g.Load() != 7 {
		t.Errorf("Load() = %d, want 7", g.Load())
	}
}

func TestGuardUpdate(t *testing.T) {
	type params struct {
		Interval float64
		Deadline float64
	}
	g := NewGuard(params{Interval: 2.0, Deadline: 3.0})

	g.Update(func(p *params) { p.Interval = 1.8 })

	got := g.Load()
	if got.Interval != 1.8 {
		t.Errorf("Interval = %f, want 1.8", got.Interval)
	}
	if got.Deadline != 3.0 {
		t.Errorf("Deadline = %f, want 3.0 (untouched)", got.Deadline)
	}
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("old")
	if prev := g.Swap("new"); prev != "old" {
		t.Errorf("Swap returned %q, want %q", prev, "old")
	}
	if g.Load() != "new" {
		t.Errorf("Load() = %q, want %q", g.Load(), "new")
	}
}

func TestGuardConcurrentReaders(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	// One writer, many readers: must not race under -race.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			g.Store(i)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if v := g.Load(); v < 0 || v >= 1000 {
					t.Errorf("observed out-of-range value %d", v)
					return
				}
			}
		}()
	}
	wg.Wait()
}
