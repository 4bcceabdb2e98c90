package resilience

import (
	"errors"
	"testing"
	"time"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold:         3,
		ResetTimeout:      20 * time.Millisecond,
		HalfOpenSuccesses: 2,
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(testBreakerConfig())

	b.Failure()
	b.Failure()
	if b.State() != Closed {
		t.Fatal("opened below threshold")
	}
	b.Failure()
	if b.State() != Open {
		t.Fatal("did not open at threshold")
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow = %v, want ErrOpen", err)
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		b.Failure()
	}

	time.Sleep(30 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow after reset timeout = %v", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("state = %v, want half-open", b.State())
	}
}

func TestBreakerClosesAfterRecovery(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		b.Failure()
	}
	time.Sleep(30 * time.Millisecond)
	b.Allow()

	b.Success()
	b.Success()
	if b.State() != Closed {
		t.Errorf("state = %v, want closed after recovery", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		b.Failure()
	}
	time.Sleep(30 * time.Millisecond)
	b.Allow()

	b.Failure()
	if b.State() != Open {
		t.Errorf("state = %v, want reopened", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(testBreakerConfig())

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	if b.State() != Closed {
		t.Error("failure count survived a success")
	}
}

func TestExecute(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	sentinel := errors.New("call failed")

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return sentinel }); !errors.Is(err, sentinel) {
			t.Fatalf("Execute = %v, want call error", err)
		}
	}

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("Execute while open = %v, want ErrOpen", err)
	}
}
