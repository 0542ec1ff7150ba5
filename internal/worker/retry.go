package worker

import (
	"errors"
	"time"

	"github.com/ignite/pressroom/internal/domain"
)

const (
	// DefaultMaxAttempts is the publish attempt ceiling. After this many
	// failures the post stays failed permanently.
	DefaultMaxAttempts = 3

	// DefaultRetryBase and DefaultRetryMax bound the exponential backoff
	// between publish attempts.
	DefaultRetryBase = 60 * time.Second
	DefaultRetryMax  = 15 * time.Minute
)

// RetryPolicy decides what happens to a post after a failed publish
// attempt. It is a pure value type with no I/O.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration

	now func() time.Time
}

// NewRetryPolicy creates a policy with the given bounds, falling back to
// defaults for zero values.
func NewRetryPolicy(maxAttempts int, base, max time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if base <= 0 {
		base = DefaultRetryBase
	}
	if max < base {
		max = DefaultRetryMax
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Base: base, Max: max, now: time.Now}
}

// SetClock overrides the wall clock (used in tests).
func (p *RetryPolicy) SetClock(now func() time.Time) { p.now = now }

// Decision is the outcome of a retry decision. GiveUp means the post stays
// failed; otherwise At is the earliest time of the next attempt.
type Decision struct {
	GiveUp bool
	At     time.Time
}

// Decide classifies the error and applies the attempt ceiling. attempts is
// the number of attempts already made, including the one that just failed.
// Validation errors and missing content never retry; everything else
// (generation failures in particular) retries with exponential backoff.
func (p RetryPolicy) Decide(attempts int, lastErr error) Decision {
	if !retryable(lastErr) {
		return Decision{GiveUp: true}
	}
	if attempts >= p.MaxAttempts {
		return Decision{GiveUp: true}
	}

	delay := p.Base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= p.Max {
			delay = p.Max
			break
		}
	}
	return Decision{At: p.now().Add(delay)}
}

func retryable(err error) bool {
	if errors.Is(err, ErrContentMissing) {
		return false
	}
	var ferr *domain.FieldError
	if errors.As(err, &ferr) {
		return false
	}
	// Everything else, generation timeouts and API errors included,
	// is treated as transient.
	return true
}
