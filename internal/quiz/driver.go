// Package quiz drives one multiple-choice quiz session in a browser page,
// asking a Resolver for every answer.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quizpilot/quizpilot/internal/bridge"
	"github.com/quizpilot/quizpilot/internal/retry"
)

// QuizURL is the page this driver is written against; its selectors below
// are part of the same contract.
const QuizURL = "https://ai-quizzes-rho.vercel.app/ai-quiz-sample.html"

// DefaultQuestionLimit is the length of the quiz at QuizURL.
const DefaultQuestionLimit = 26

const (
	selStart    = "#start-btn"
	selQuestion = "#question"
	selOptions  = "#options button"
	selNext     = "#next-btn"
	selScore    = "#score"
)

// ErrNoOptions aborts a session when a question renders without options;
// there is nothing valid to click.
var ErrNoOptions = errors.New("question has no options")

// Resolver picks an option index. ok is false when it has no answer; the
// index may be out of range and is validated by the driver.
type Resolver interface {
	Resolve(ctx context.Context, question string, options []string) (index int, ok bool)
}

// Timing holds the bounded waits and pacing pauses of a session.
type Timing struct {
	StartWait    time.Duration
	QuestionWait time.Duration
	NextWait     time.Duration
	ScoreWait    time.Duration
	AnswerPause  time.Duration
	AdvancePause time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		StartWait:    10 * time.Second,
		QuestionWait: 10 * time.Second,
		NextWait:     5 * time.Second,
		ScoreWait:    10 * time.Second,
		AnswerPause:  400 * time.Millisecond,
		AdvancePause: 300 * time.Millisecond,
	}
}

type Driver struct {
	page      bridge.Page
	resolver  Resolver
	limit     int
	timing    Timing
	rng       *rand.Rand
	out       io.Writer
	sleep     func(ctx context.Context, d time.Duration) error
	sessionID string
	state     State
	log       *slog.Logger
}

type Option func(*Driver)

// WithQuestionLimit caps the number of questions. Zero means keep going
// until the page stops offering a next control.
func WithQuestionLimit(n int) Option {
	return func(d *Driver) { d.limit = n }
}

func WithTiming(t Timing) Option {
	return func(d *Driver) { d.timing = t }
}

// WithRand sets the source used for fallback answers.
func WithRand(r *rand.Rand) Option {
	return func(d *Driver) { d.rng = r }
}

// WithOutput sets where progress lines go.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) { d.sleep = fn }
}

func WithSessionID(id string) Option {
	return func(d *Driver) { d.sessionID = id }
}

func NewDriver(page bridge.Page, resolver Resolver, opts ...Option) *Driver {
	d := &Driver{
		page:      page,
		resolver:  resolver,
		limit:     DefaultQuestionLimit,
		timing:    DefaultTiming(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		out:       io.Discard,
		sleep:     retry.Sleep,
		sessionID: uuid.NewString(),
	}
	for _, o := range opts {
		o(d)
	}
	d.log = slog.With("session", d.sessionID)
	return d
}

func (d *Driver) State() State {
	return d.state
}

func (d *Driver) setState(s State) {
	d.log.Debug("quiz state", "from", d.state, "to", s)
	d.state = s
}

func (d *Driver) openEnded() bool {
	return d.limit == 0
}

// Run plays the whole session. On error the returned Result still holds
// the questions answered so far.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{SessionID: d.sessionID}

	if err := d.start(ctx); err != nil {
		return res, err
	}

	for q := 1; d.openEnded() || q <= d.limit; q++ {
		entry, done, err := d.askOne(ctx, q, len(res.Transcript))
		if err != nil {
			return res, fmt.Errorf("question %d: %w", q, err)
		}
		if entry != nil {
			res.Transcript = append(res.Transcript, *entry)
		}
		if done {
			break
		}
		if err := d.sleep(ctx, d.timing.AdvancePause); err != nil {
			return res, err
		}
	}

	score, err := d.finish(ctx)
	if err != nil {
		return res, err
	}
	res.Score = score
	return res, nil
}

func (d *Driver) start(ctx context.Context) error {
	d.log.Info("navigating to quiz", "url", QuizURL)
	if err := d.page.Navigate(ctx, QuizURL); err != nil {
		return fmt.Errorf("open quiz: %w", err)
	}
	if err := d.page.WaitFor(ctx, selStart, d.timing.StartWait); err != nil {
		return fmt.Errorf("start control: %w", err)
	}
	if err := bridge.Click(ctx, d.page, selStart); err != nil {
		return fmt.Errorf("click start: %w", err)
	}
	d.setState(Started)
	d.log.Info("quiz started")
	return nil
}

// askOne handles question q. done reports that the quiz ended on its own,
// which only happens in open-ended mode.
func (d *Driver) askOne(ctx context.Context, q, answered int) (entry *Entry, done bool, err error) {
	d.setState(AskingQuestion)

	if err := d.page.WaitFor(ctx, selQuestion, d.timing.QuestionWait); err != nil {
		if d.openEnded() && answered > 0 && bridge.IsWaitTimeout(err) {
			d.log.Info("no further question", "answered", answered)
			return nil, true, nil
		}
		return nil, false, err
	}

	question, err := d.page.Text(ctx, selQuestion)
	if err != nil {
		return nil, false, err
	}
	question = strings.TrimSpace(question)

	options, err := d.page.Texts(ctx, selOptions)
	if err != nil {
		return nil, false, err
	}
	for i := range options {
		options[i] = strings.TrimSpace(options[i])
	}

	fmt.Fprintf(d.out, "\n--- Question %d ---\n", q)
	fmt.Fprintln(d.out, "Q:", question)
	fmt.Fprintf(d.out, "Options: %q\n", options)

	if len(options) == 0 {
		return nil, false, ErrNoOptions
	}

	d.setState(Answering)
	chosen, src := d.choose(ctx, question, options)
	if src == SourceRandomFallback {
		fmt.Fprintf(d.out, "Using fallback random answer: %d\n", chosen)
	} else {
		fmt.Fprintf(d.out, "Model suggests: [%d] %s\n", chosen, options[chosen])
	}

	err = d.page.ClickNth(ctx, selOptions, chosen)
	if errors.Is(err, bridge.ErrNoSuchElement) {
		d.log.Warn("chosen option not clickable, clicking first option", "question", q, "index", chosen)
		fmt.Fprintln(d.out, "Chosen index invalid, clicking first option.")
		chosen, src = 0, SourceClickFallback
		err = d.page.ClickNth(ctx, selOptions, 0)
	}
	if err != nil {
		return nil, false, fmt.Errorf("click option: %w", err)
	}

	if err := d.sleep(ctx, d.timing.AnswerPause); err != nil {
		return nil, false, err
	}

	d.setState(Advancing)
	e := newEntry(question, options, chosen, src)

	if err := d.page.WaitFor(ctx, selNext, d.timing.NextWait); err != nil {
		if d.openEnded() && bridge.IsWaitTimeout(err) {
			d.log.Info("next control absent, quiz complete", "answered", answered+1)
			return &e, true, nil
		}
		return nil, false, err
	}
	if err := bridge.Click(ctx, d.page, selNext); err != nil {
		return nil, false, fmt.Errorf("click next: %w", err)
	}

	return &e, false, nil
}

// choose asks the resolver and falls back to a uniformly random option when
// it has no usable answer. options must be non-empty.
func (d *Driver) choose(ctx context.Context, question string, options []string) (int, Source) {
	idx, ok := d.resolver.Resolve(ctx, question, options)
	if ok && idx >= 0 && idx < len(options) {
		return idx, SourceModel
	}
	fallback := d.rng.Intn(len(options))
	d.log.Warn("using random fallback answer", "resolved", ok, "index", idx, "options", len(options), "fallback", fallback)
	return fallback, SourceRandomFallback
}

func (d *Driver) finish(ctx context.Context) (string, error) {
	if err := d.page.WaitFor(ctx, selScore, d.timing.ScoreWait); err != nil {
		return "", fmt.Errorf("score: %w", err)
	}
	score, err := d.page.Text(ctx, selScore)
	if err != nil {
		return "", err
	}
	d.setState(Finished)
	return strings.TrimSpace(score), nil
}
