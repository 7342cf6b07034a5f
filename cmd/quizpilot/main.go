package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quizpilot/quizpilot/internal/answer"
	"github.com/quizpilot/quizpilot/internal/config"
	"github.com/quizpilot/quizpilot/internal/quiz"
	"github.com/quizpilot/quizpilot/internal/retry"
)

var version = "dev"

const defaultSmokeURL = "https://example.com"

var _ quiz.Resolver = (*answer.Resolver)(nil)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	for _, w := range cfg.Warnings {
		slog.Warn(w)
	}

	cmd, args := command(os.Args[1:])
	switch cmd {
	case "version":
		fmt.Printf("quizpilot %s\n", version)
	case "config":
		if err := config.HandleConfigCommand(cfg, args); err != nil {
			slog.Error("config", "err", err)
			os.Exit(1)
		}
	case "smoke":
		url := defaultSmokeURL
		if len(args) > 0 {
			url = args[0]
		}
		if err := runSmoke(signalContext(), cfg, url); err != nil {
			slog.Error("smoke test failed", "err", err)
			os.Exit(1)
		}
	case "run":
		if err := runQuiz(signalContext(), cfg); err != nil {
			if errors.Is(err, config.ErrCredentialMissing) {
				slog.Error("missing credential", "err", err, "hint", "set OPENAI_API_KEY in the environment or a .env file")
			} else {
				slog.Error("quiz run failed", "err", err)
			}
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		fmt.Fprintln(os.Stderr, "Usage: quizpilot [run | smoke [url] | config init|show | --version]")
		os.Exit(2)
	}
}

// command splits argv into a subcommand and its arguments; no arguments
// means run.
func command(args []string) (string, []string) {
	if len(args) == 0 {
		return "run", nil
	}
	switch args[0] {
	case "--version", "-v", "version":
		return "version", nil
	}
	return args[0], args[1:]
}

// signalContext is cancelled by the first SIGINT/SIGTERM; a second one
// exits immediately.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 2)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("interrupted, stopping")
		cancel()
		<-sig
		slog.Warn("force shutdown requested")
		os.Exit(130)
	}()
	return ctx
}

func newResolver(cfg *config.RuntimeConfig) *answer.Resolver {
	client := answer.NewChatClient(answer.ClientOptions{
		BaseURL:     cfg.APIBaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
	})
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.MaxRetries
	return answer.NewResolver(client, answer.WithPolicy(policy))
}

func runQuiz(ctx context.Context, cfg *config.RuntimeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	page, err := openPage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Warn("close browser", "err", err)
		}
	}()

	d := quiz.NewDriver(page, newResolver(cfg),
		quiz.WithQuestionLimit(cfg.QuestionLimit),
		quiz.WithOutput(os.Stdout),
	)
	slog.Info("quiz session", "browser", cfg.Browser, "model", cfg.Model, "questions", cfg.QuestionLimit)

	res, err := d.Run(ctx)
	if err != nil {
		slog.Error("quiz aborted", "state", d.State(), "answered", len(res.Transcript))
		return err
	}
	res.Print(os.Stdout)
	return nil
}
