package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsWaitTimeout(t *testing.T) {
	wt := &WaitTimeoutError{Selector: "#question", Timeout: 10 * time.Second}
	if !IsWaitTimeout(wt) {
		t.Error("bare WaitTimeoutError not recognised")
	}
	if !IsWaitTimeout(fmt.Errorf("question 3: %w", wt)) {
		t.Error("wrapped WaitTimeoutError not recognised")
	}
	if IsWaitTimeout(context.DeadlineExceeded) {
		t.Error("plain deadline should not count as a wait timeout")
	}
	if got := wt.Error(); got != "timed out after 10s waiting for #question" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWaitErr(t *testing.T) {
	sel, timeout := "#next-btn", 5*time.Second

	t.Run("nil", func(t *testing.T) {
		if err := WaitErr(context.Background(), context.Background(), nil, sel, timeout); err != nil {
			t.Errorf("got %v", err)
		}
	})

	t.Run("own deadline", func(t *testing.T) {
		scoped, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		err := WaitErr(context.Background(), scoped, context.DeadlineExceeded, sel, timeout)
		var wt *WaitTimeoutError
		if !errors.As(err, &wt) || wt.Selector != sel || wt.Timeout != timeout {
			t.Errorf("got %v, want WaitTimeoutError", err)
		}
	})

	t.Run("parent cancelled", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		cancel()
		scoped, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel2()
		err := WaitErr(parent, scoped, context.Canceled, sel, timeout)
		if IsWaitTimeout(err) || !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled passed through", err)
		}
	})

	t.Run("other error", func(t *testing.T) {
		boom := errors.New("boom")
		if err := WaitErr(context.Background(), context.Background(), boom, sel, timeout); err != boom {
			t.Errorf("got %v, want boom", err)
		}
	})
}

type clickRecorder struct {
	Page
	selector string
	n        int
}

func (c *clickRecorder) ClickNth(ctx context.Context, selector string, n int) error {
	c.selector, c.n = selector, n
	return nil
}

func TestClickUsesFirstMatch(t *testing.T) {
	c := &clickRecorder{n: -1}
	if err := Click(context.Background(), c, "#start-btn"); err != nil {
		t.Fatal(err)
	}
	if c.selector != "#start-btn" || c.n != 0 {
		t.Errorf("clicked %s[%d]", c.selector, c.n)
	}
}

func TestNth(t *testing.T) {
	matches := []string{"a", "b", "c"}

	got, err := Nth(matches, "#options button", 2)
	if err != nil || got != "c" {
		t.Errorf("Nth(2) = %q, %v", got, err)
	}

	for _, n := range []int{-1, 3, 100} {
		got, err := Nth(matches, "#options button", n)
		if !errors.Is(err, ErrNoSuchElement) {
			t.Errorf("Nth(%d) err = %v, want ErrNoSuchElement", n, err)
		}
		if got != "" {
			t.Errorf("Nth(%d) = %q, want zero value", n, got)
		}
	}

	if _, err := Nth[*int](nil, "#x", 0); !errors.Is(err, ErrNoSuchElement) {
		t.Errorf("Nth on no matches: err = %v", err)
	}
}
