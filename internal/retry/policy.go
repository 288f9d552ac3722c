// Package retry provides backoff policies for transient failures in
// outbound operations such as source syncs.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

// Policy describes how often and how fast an operation is retried.
// Immutable after construction.
type Policy struct {
	Mode    Mode
	Initial time.Duration
	Max     time.Duration
	// Retries is the number of attempts after the first failure.
	Retries int
}

// DefaultPolicy returns the policy used when nothing is configured:
// linear backoff from one second, capped at thirty, two retries.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeLinear, Initial: time.Second, Max: 30 * time.Second, Retries: 2}
}

// NewPolicy builds a policy from raw settings. Zero or unknown values
// fall back to the defaults; Initial is clamped to Max.
func NewPolicy(mode Mode, initial, max time.Duration, retries int) Policy {
	p := DefaultPolicy()
	if retries >= 0 {
		p.Retries = retries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if max > 0 {
		p.Max = max
	}
	switch mode {
	case ModeFixed, ModeLinear, ModeExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff before the given retry, 1-based. Attempts
// at or below zero yield no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	switch p.Mode {
	case ModeFixed:
		return p.Initial
	case ModeExponential:
		d := p.Initial * (1 << (attempt - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default:
		d := time.Duration(attempt) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate reports whether the policy can be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial delay must be positive")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max delay must be positive")
	}
	if p.Retries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}
	return nil
}

// Wait blocks for d or until ctx ends, returning the context error in
// that case.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
