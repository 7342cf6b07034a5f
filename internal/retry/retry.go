// Package retry runs an operation a bounded number of times with capped
// exponential backoff and additive jitter between attempts.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy describes how many times to retry and how long to wait in between.
// The wait after the n-th failed attempt (1-indexed) is
// min(Base*2^(n-1), Cap) plus a jitter drawn from [0, MaxJitter).
type Policy struct {
	MaxRetries int
	Base       time.Duration
	Cap        time.Duration
	MaxJitter  time.Duration

	// Jitter returns a value in [0, MaxJitter). Nil uses math/rand.
	Jitter func(max time.Duration) time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnFailure is told about every failed attempt; last is true when no
	// further attempt will be made.
	OnFailure func(attempt int, err error, last bool)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Base:       time.Second,
		Cap:        5 * time.Second,
		MaxJitter:  200 * time.Millisecond,
	}
}

// Backoff returns the deterministic part of the delay after failed attempt n.
func (p Policy) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.Base
	for i := 1; i < n; i++ {
		if (p.Cap > 0 && d >= p.Cap) || d > math.MaxInt64/2 {
			break
		}
		d *= 2
	}
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}

// Delay is Backoff(n) plus jitter.
func (p Policy) Delay(n int) time.Duration {
	return p.Backoff(n) + p.jitter()
}

func (p Policy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(p.MaxJitter)
	}
	return time.Duration(rand.Int63n(int64(p.MaxJitter)))
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep blocks for d, returning early with ctx.Err() if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
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

// ExhaustedError is returned by Do after every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds or MaxRetries+1 attempts have failed.
// fn receives the zero-based attempt number.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempt := 0
	for attempt <= p.MaxRetries {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		attempt++
		last := attempt > p.MaxRetries
		if p.OnFailure != nil {
			p.OnFailure(attempt, err, last)
		}
		if last {
			return &ExhaustedError{Attempts: attempt, Err: err}
		}
		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}
	// MaxRetries < 0: nothing was attempted.
	return &ExhaustedError{Attempts: 0, Err: fmt.Errorf("no attempts allowed")}
}
