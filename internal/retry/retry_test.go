package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// noWait records requested sleeps instead of sleeping.
func noWait(slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return ctx.Err()
	}
}

func TestBackoffCurve(t *testing.T) {
	p := DefaultPolicy()
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffMonotonic(t *testing.T) {
	p := DefaultPolicy()
	prev := time.Duration(0)
	for n := 1; n <= 80; n++ {
		d := p.Backoff(n)
		if d < prev {
			t.Fatalf("Backoff(%d) = %v decreased from %v", n, d, prev)
		}
		if d > p.Cap {
			t.Fatalf("Backoff(%d) = %v exceeds cap %v", n, d, p.Cap)
		}
		prev = d
	}
}

func TestBackoffUncapped(t *testing.T) {
	p := Policy{Base: time.Millisecond}
	if got := p.Backoff(200); got <= 0 {
		t.Errorf("Backoff overflowed: %v", got)
	}
}

func TestDelayJitterRange(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < 500; i++ {
		d := p.Delay(2)
		if d < 2*time.Second || d >= 2*time.Second+200*time.Millisecond {
			t.Fatalf("Delay(2) = %v, want in [2s, 2.2s)", d)
		}
	}
}

func TestDelayCustomJitter(t *testing.T) {
	p := DefaultPolicy()
	p.Jitter = func(max time.Duration) time.Duration { return max - 1 }
	if got, want := p.Delay(1), time.Second+200*time.Millisecond-1; got != want {
		t.Errorf("Delay(1) = %v, want %v", got, want)
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	var slept []time.Duration
	p := DefaultPolicy()
	p.Sleep = noWait(&slept)

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 || len(slept) != 0 {
		t.Errorf("calls=%d sleeps=%d, want 1/0", calls, len(slept))
	}
}

func TestDoRecoversOnLastAttempt(t *testing.T) {
	var slept []time.Duration
	p := DefaultPolicy()
	p.Sleep = noWait(&slept)
	p.Jitter = func(time.Duration) time.Duration { return 0 }

	var attempts []int
	err := Do(context.Background(), p, func(ctx context.Context, attempt int) error {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(attempts) != 4 || attempts[3] != 3 {
		t.Errorf("attempts = %v, want [0 1 2 3]", attempts)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept = %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestDoExhausted(t *testing.T) {
	var slept []time.Duration
	p := DefaultPolicy()
	p.Sleep = noWait(&slept)

	type failure struct {
		attempt int
		last    bool
	}
	var failures []failure
	p.OnFailure = func(attempt int, err error, last bool) {
		failures = append(failures, failure{attempt, last})
	}

	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context, attempt int) error {
		calls++
		return boom
	})

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("err = %v, want *ExhaustedError", err)
	}
	if ex.Attempts != 4 || calls != 4 {
		t.Errorf("attempts=%d calls=%d, want 4/4", ex.Attempts, calls)
	}
	if !errors.Is(err, boom) {
		t.Error("ExhaustedError should unwrap to the last error")
	}
	if len(slept) != 3 {
		t.Errorf("sleeps = %d, want 3 (no sleep after the last failure)", len(slept))
	}
	if len(failures) != 4 || failures[3] != (failure{4, true}) || failures[2].last {
		t.Errorf("failures = %+v", failures)
	}
}

func TestDoZeroRetries(t *testing.T) {
	p := DefaultPolicy()
	p.MaxRetries = 0
	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("nope")
	})
	if err == nil || calls != 1 {
		t.Errorf("err=%v calls=%d, want error after 1 call", err, calls)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	calls := 0
	err := Do(ctx, p, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep did not return promptly on cancelled context")
	}
}
