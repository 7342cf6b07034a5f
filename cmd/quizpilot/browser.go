package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/quizpilot/quizpilot/internal/bridge"
	"github.com/quizpilot/quizpilot/internal/bridge/pwbridge"
	"github.com/quizpilot/quizpilot/internal/bridge/rodbridge"
	"github.com/quizpilot/quizpilot/internal/config"
)

// openPage launches the configured backend and returns its page.
func openPage(cfg *config.RuntimeConfig) (bridge.Page, error) {
	var (
		page bridge.Page
		err  error
	)
	switch cfg.Browser {
	case config.BrowserChromedp:
		page, err = launchOrNil(bridge.LaunchChrome(cfg))
	case config.BrowserRod:
		page, err = launchOrNil(rodbridge.Launch(cfg))
	case config.BrowserPlaywright:
		page, err = launchOrNil(pwbridge.Launch(cfg))
	default:
		return nil, fmt.Errorf("unknown browser %q", cfg.Browser)
	}
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", cfg.Browser, err)
	}
	return page, nil
}

// launchOrNil keeps a failed launch from yielding a non-nil interface
// holding a nil pointer.
func launchOrNil[P bridge.Page](p P, err error) (bridge.Page, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// runSmoke opens url and prints its title.
func runSmoke(ctx context.Context, cfg *config.RuntimeConfig, url string) error {
	page, err := openPage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Warn("close browser", "err", err)
		}
	}()

	title, err := smoke(ctx, page, url)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Title:", title)
	return nil
}

func smoke(ctx context.Context, page bridge.Page, url string) (string, error) {
	slog.Info("smoke test", "url", url)
	if err := page.Navigate(ctx, url); err != nil {
		return "", err
	}
	return page.Title(ctx)
}
