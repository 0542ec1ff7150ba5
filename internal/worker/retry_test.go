package worker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/genai"
)

func TestRetryPolicyBackoff(t *testing.T) {
	p := NewRetryPolicy(5, time.Minute, 15*time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p.SetClock(func() time.Time { return now })

	transient := errors.New("api overloaded")

	tests := []struct {
		attempts  int
		wantDelay time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
	}
	for _, tt := range tests {
		d := p.Decide(tt.attempts, transient)
		if d.GiveUp {
			t.Fatalf("attempt %d: unexpected give-up", tt.attempts)
		}
		if got := d.At.Sub(now); got != tt.wantDelay {
			t.Errorf("attempt %d: delay = %v, want %v", tt.attempts, got, tt.wantDelay)
		}
	}
}

func TestRetryPolicyCap(t *testing.T) {
	p := NewRetryPolicy(20, time.Minute, 15*time.Minute)
	now := time.Now()
	p.SetClock(func() time.Time { return now })

	d := p.Decide(10, errors.New("transient"))
	if d.GiveUp {
		t.Fatal("unexpected give-up under the ceiling")
	}
	if got := d.At.Sub(now); got != 15*time.Minute {
		t.Fatalf("delay = %v, want capped 15m", got)
	}
}

func TestRetryPolicyCeiling(t *testing.T) {
	p := NewRetryPolicy(3, time.Minute, 15*time.Minute)

	if d := p.Decide(2, errors.New("x")); d.GiveUp {
		t.Fatal("attempt 2 of 3 must retry")
	}
	if d := p.Decide(3, errors.New("x")); !d.GiveUp {
		t.Fatal("attempt 3 of 3 must give up")
	}
}

func TestRetryPolicyClassification(t *testing.T) {
	p := NewRetryPolicy(3, time.Minute, 15*time.Minute)

	if d := p.Decide(1, ErrContentMissing); !d.GiveUp {
		t.Fatal("missing content must never retry")
	}
	if d := p.Decide(1, fmt.Errorf("load blog: %w", ErrContentMissing)); !d.GiveUp {
		t.Fatal("wrapped missing content must never retry")
	}
	if d := p.Decide(1, domain.Invalid("title", "required")); !d.GiveUp {
		t.Fatal("validation errors must never retry")
	}
	if d := p.Decide(1, genai.ErrTimeout); d.GiveUp {
		t.Fatal("generation timeouts must retry")
	}
}
