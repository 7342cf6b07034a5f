package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultActionTimeout   = 15 * time.Second
	DefaultNavigateTimeout = 30 * time.Second
)

// ErrNoSuchElement is returned by ClickNth when the index has no element.
var ErrNoSuchElement = errors.New("no such element")

// WaitTimeoutError reports a bounded wait that expired before the selector
// matched anything.
type WaitTimeoutError struct {
	Selector string
	Timeout  time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Selector)
}

func IsWaitTimeout(err error) bool {
	var wt *WaitTimeoutError
	return errors.As(err, &wt)
}

// Page is the slice of browser automation the quiz driver needs. All
// selectors are CSS selectors.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches or timeout elapses, in which
	// case it returns *WaitTimeoutError.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Text returns the textContent of the first match, or "" if none.
	Text(ctx context.Context, selector string) (string, error)
	// Texts returns the textContent of every match in document order.
	Texts(ctx context.Context, selector string) ([]string, error)
	// ClickNth clicks the n-th match (zero-based).
	ClickNth(ctx context.Context, selector string, n int) error
	Title(ctx context.Context) (string, error)
	Close() error
}

// Click clicks the first element matching selector.
func Click(ctx context.Context, p Page, selector string) error {
	return p.ClickNth(ctx, selector, 0)
}

// Nth returns matches[n], or ErrNoSuchElement when n is out of range.
func Nth[T any](matches []T, selector string, n int) (T, error) {
	if n < 0 || n >= len(matches) {
		var zero T
		return zero, fmt.Errorf("%s[%d] of %d: %w", selector, n, len(matches), ErrNoSuchElement)
	}
	return matches[n], nil
}

// WaitErr converts a deadline on the wait's own timer into *WaitTimeoutError.
// A cancelled or expired parent context is passed through untouched.
func WaitErr(parent, scoped context.Context, err error, selector string, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if parent.Err() == nil && errors.Is(scoped.Err(), context.DeadlineExceeded) {
		return &WaitTimeoutError{Selector: selector, Timeout: timeout}
	}
	return err
}
