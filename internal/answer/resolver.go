// Package answer asks a language model which option of a multiple-choice
// question is correct.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizpilot/quizpilot/internal/retry"
)

// Completer returns the model's reply to a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var _ Completer = (*ChatClient)(nil)

// Resolver turns a question and its options into a best-guess option index.
type Resolver struct {
	completer Completer
	policy    retry.Policy
	parsers   []ReplyParser
}

type Option func(*Resolver)

// WithPolicy overrides the retry policy (count, backoff, jitter, sleeper).
func WithPolicy(p retry.Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithParsers replaces the ordered reply parsers.
func WithParsers(parsers ...ReplyParser) Option {
	return func(r *Resolver) { r.parsers = parsers }
}

func NewResolver(c Completer, opts ...Option) *Resolver {
	r := &Resolver{
		completer: c,
		policy:    retry.DefaultPolicy(),
		parsers:   DefaultParsers,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// BuildPrompt renders the question and a zero-indexed option list.
func BuildPrompt(question string, options []string) string {
	var b strings.Builder
	b.WriteString("You are taking a multiple-choice quiz.\n")
	fmt.Fprintf(&b, "Question: %s\n", question)
	b.WriteString("Options:\n")
	for i, o := range options {
		fmt.Fprintf(&b, "%d: %s\n", i, o)
	}
	b.WriteString("Return **only** the 0-based index of the correct answer. If unsure, guess.")
	return b.String()
}

// attemptOnce performs one request and parses the reply.
func (r *Resolver) attemptOnce(ctx context.Context, prompt string) (int, error) {
	reply, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		return 0, err
	}
	return ParseReply(reply, r.parsers...)
}

// Resolve returns the model's chosen index. ok is false when no attempt
// produced a parseable reply; errors never escape. The index is not
// checked against len(options).
func (r *Resolver) Resolve(ctx context.Context, question string, options []string) (int, bool) {
	prompt := BuildPrompt(question, options)

	p := r.policy
	p.OnFailure = func(attempt int, err error, last bool) {
		if last {
			slog.Warn("answer attempt failed", "attempt", attempt, "err", err)
			return
		}
		slog.Warn("answer attempt failed, retrying", "attempt", attempt, "err", err)
	}

	var idx int
	err := retry.Do(ctx, p, func(ctx context.Context, _ int) error {
		n, err := r.attemptOnce(ctx, prompt)
		if err != nil {
			return err
		}
		idx = n
		return nil
	})
	if err != nil {
		slog.Warn("giving up on model answer", "err", err)
		return 0, false
	}
	return idx, true
}
