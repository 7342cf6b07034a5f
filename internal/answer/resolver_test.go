package answer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quizpilot/quizpilot/internal/retry"
)

// instantPolicy keeps the default retry count but never sleeps.
func instantPolicy(slept *[]time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		if slept != nil {
			*slept = append(*slept, d)
		}
		return nil
	}
	return p
}

type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.replies[i], err
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("What is 2+2?", []string{"3", "4", "5"})
	for _, want := range []string{
		"Question: What is 2+2?",
		"Options:\n0: 3\n1: 4\n2: 5\n",
		"0-based index",
		"If unsure, guess.",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestResolveScenarioDigit(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"The answer is 2"}}
	r := NewResolver(c, WithPolicy(instantPolicy(nil)))

	idx, ok := r.Resolve(context.Background(), "q", []string{"a", "b", "c", "d"})
	if !ok || idx != 2 {
		t.Errorf("Resolve = (%d, %v), want (2, true)", idx, ok)
	}
	if c.calls != 1 {
		t.Errorf("calls = %d, want 1", c.calls)
	}
}

func TestResolveScenarioLetter(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"B"}}
	r := NewResolver(c, WithPolicy(instantPolicy(nil)))

	idx, ok := r.Resolve(context.Background(), "q", []string{"x", "y", "z"})
	if !ok || idx != 1 {
		t.Errorf("Resolve = (%d, %v), want (1, true)", idx, ok)
	}
}

func TestResolveNoUpperBoundCheck(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"7"}}
	r := NewResolver(c, WithPolicy(instantPolicy(nil)))

	idx, ok := r.Resolve(context.Background(), "q", []string{"x", "y"})
	if !ok || idx != 7 {
		t.Errorf("Resolve = (%d, %v), want (7, true); bounds are the caller's job", idx, ok)
	}
}

func TestResolveScenarioUnparseable(t *testing.T) {
	var slept []time.Duration
	c := &scriptedCompleter{replies: []string{"I'm not sure"}}
	r := NewResolver(c, WithPolicy(instantPolicy(&slept)))

	_, ok := r.Resolve(context.Background(), "q", []string{"x", "y", "z"})
	if ok {
		t.Fatal("expected ok=false after exhausting retries")
	}
	if c.calls != 4 {
		t.Errorf("calls = %d, want maxRetries+1 = 4", c.calls)
	}
	if len(slept) != 3 {
		t.Fatalf("sleeps = %d, want 3", len(slept))
	}
	for i, d := range slept {
		base := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}[i]
		if d < base || d >= base+200*time.Millisecond {
			t.Errorf("sleep %d = %v, want in [%v, %v)", i, d, base, base+200*time.Millisecond)
		}
	}
}

func TestResolveScenarioRecoversFromServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"3"}}]}`))
	}))
	defer srv.Close()

	r := NewResolver(newTestClient(srv.URL), WithPolicy(instantPolicy(nil)))
	idx, ok := r.Resolve(context.Background(), "q", []string{"a", "b", "c", "d"})
	if !ok || idx != 3 {
		t.Errorf("Resolve = (%d, %v), want (3, true)", idx, ok)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("server calls = %d, want 4", got)
	}
}

func TestResolveEmptyReplyRetried(t *testing.T) {
	c := &scriptedCompleter{
		replies: []string{"", "0"},
		errs:    []error{ErrEmptyReply, nil},
	}
	r := NewResolver(c, WithPolicy(instantPolicy(nil)))

	idx, ok := r.Resolve(context.Background(), "q", []string{"a", "b"})
	if !ok || idx != 0 {
		t.Errorf("Resolve = (%d, %v), want (0, true)", idx, ok)
	}
	if c.calls != 2 {
		t.Errorf("calls = %d, want 2", c.calls)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &scriptedCompleter{replies: []string{"1"}, errs: []error{errors.New("unused")}}
	r := NewResolver(c, WithPolicy(instantPolicy(nil)))
	if _, ok := r.Resolve(ctx, "q", []string{"a", "b"}); ok {
		t.Error("expected ok=false on cancelled context")
	}
	if c.calls != 0 {
		t.Errorf("calls = %d, want 0", c.calls)
	}
}

func TestResolveCustomParsers(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"B or 2"}}
	r := NewResolver(c, WithPolicy(instantPolicy(nil)), WithParsers(LetterParser))

	idx, ok := r.Resolve(context.Background(), "q", []string{"a", "b", "c"})
	if !ok || idx != 1 {
		t.Errorf("Resolve = (%d, %v), want (1, true)", idx, ok)
	}
}
