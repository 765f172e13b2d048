// Package reconnect provides the delay policy used between connection
// attempts and sink retries. The strategy is configurable: the venue feed
// historically used a plain fixed delay, exponential and jittered variants
// are available for deployments that need them.
package reconnect

import (
	"fmt"
	"strings"
	"time"

	"github.com/jpillora/backoff"
)

// Policy yields the wait before the next attempt. Reset is called after a
// successful connection so the sequence starts over.
type Policy interface {
	Next() time.Duration
	Reset()
}

// Fixed waits the same delay every time.
type Fixed struct {
	Delay time.Duration
}

// NewFixed builds a fixed-delay policy.
func NewFixed(delay time.Duration) *Fixed {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Fixed{Delay: delay}
}

func (f *Fixed) Next() time.Duration { return f.Delay }

func (f *Fixed) Reset() {}

// adaptive wraps an exponential backoff, optionally jittered.
type adaptive struct {
	b *backoff.Backoff
}

// NewExponential grows the delay geometrically between min and max.
func NewExponential(min, max time.Duration) Policy {
	return &adaptive{b: &backoff.Backoff{Min: min, Max: max, Factor: 2}}
}

// NewJittered is NewExponential with randomized delays to avoid thundering
// herds on mass reconnects.
func NewJittered(min, max time.Duration) Policy {
	return &adaptive{b: &backoff.Backoff{Min: min, Max: max, Factor: 2, Jitter: true}}
}

func (a *adaptive) Next() time.Duration { return a.b.Duration() }

func (a *adaptive) Reset() { a.b.Reset() }

// FromConfig resolves a policy by its configured name.
func FromConfig(strategy string, fixed, min, max time.Duration) (Policy, error) {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = 30 * time.Second
	}
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "fixed":
		return NewFixed(fixed), nil
	case "exponential":
		return NewExponential(min, max), nil
	case "jittered":
		return NewJittered(min, max), nil
	default:
		return nil, fmt.Errorf("unknown reconnect strategy %q", strategy)
	}
}
