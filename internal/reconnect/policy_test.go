package reconnect

import (
	"testing"
	"time"
)

func TestFixedAlwaysSameDelay(t *testing.T) {
	p := NewFixed(5 * time.Second)
	for i := 0; i < 3; i++ {
		if d := p.Next(); d != 5*time.Second {
			t.Fatalf("attempt %d: expected 5s, got %v", i, d)
		}
	}
	p.Reset()
	if d := p.Next(); d != 5*time.Second {
		t.Fatalf("expected 5s after reset, got %v", d)
	}
}

func TestFixedDefaultsDelay(t *testing.T) {
	if d := NewFixed(0).Next(); d != 5*time.Second {
		t.Fatalf("expected default 5s, got %v", d)
	}
}

func TestExponentialGrowsAndResets(t *testing.T) {
	p := NewExponential(time.Second, 30*time.Second)
	first := p.Next()
	second := p.Next()
	if second <= first {
		t.Fatalf("expected growth, got %v then %v", first, second)
	}
	p.Reset()
	if d := p.Next(); d != first {
		t.Fatalf("expected %v after reset, got %v", first, d)
	}
}

func TestJitteredStaysWithinBounds(t *testing.T) {
	p := NewJittered(time.Second, 30*time.Second)
	for i := 0; i < 10; i++ {
		d := p.Next()
		if d < 0 || d > 30*time.Second {
			t.Fatalf("delay %v out of bounds", d)
		}
	}
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig("fixed", 5*time.Second, time.Second, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*Fixed); !ok {
		t.Fatalf("expected fixed policy, got %T", p)
	}

	if _, err := FromConfig("exponential", 0, time.Second, 30*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := FromConfig("jittered", 0, time.Second, 30*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := FromConfig("bogus", 0, 0, 0); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
