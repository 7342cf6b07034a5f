package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/quizpilot/quizpilot/internal/config"
	"github.com/quizpilot/quizpilot/internal/human"
)

var commonWindowSizes = [][2]int{
	{1920, 1080}, {1366, 768}, {1536, 864}, {1440, 900},
	{1280, 720}, {1600, 900}, {1280, 800},
}

func randomWindowSize() (int, int) {
	s := commonWindowSizes[rand.Intn(len(commonWindowSizes))]
	return s[0], s[1]
}

// BuildChromeOpts returns the allocator options for a fresh Chrome process.
func BuildChromeOpts(cfg *config.RuntimeConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-sync", true),

		chromedp.WindowSize(randomWindowSize()),
	}

	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
	}
	if cfg.ChromeExtraFlags != "" {
		for _, f := range strings.Fields(cfg.ChromeExtraFlags) {
			if k, v, ok := strings.Cut(f, "="); ok {
				opts = append(opts, chromedp.Flag(strings.TrimLeft(k, "-"), v))
			} else {
				opts = append(opts, chromedp.Flag(strings.TrimLeft(f, "-"), true))
			}
		}
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	return opts
}

// LaunchChrome starts Chrome and returns a Page bound to its first tab.
func LaunchChrome(cfg *config.RuntimeConfig) (*ChromePage, error) {
	slog.Info("launching chrome", "headless", cfg.Headless, "binary", cfg.ChromeBinary)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), BuildChromeOpts(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		tabCancel()
		allocCancel()
	}

	timeout := cfg.ChromeStartup
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	startCtx, startDone := context.WithTimeout(context.Background(), timeout)
	defer startDone()

	errCh := make(chan error, 1)
	go func() {
		// The first Run starts the browser.
		errCh <- chromedp.Run(tabCtx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to start chrome: %w", err)
		}
	case <-startCtx.Done():
		cancel()
		return nil, fmt.Errorf("chrome did not start within %s", timeout)
	}

	p := &ChromePage{ctx: tabCtx, cancel: cancel}
	if cfg.HumanClick {
		p.mouse = human.NewMouse(time.Now().UnixNano())
	}
	slog.Debug("chrome started", "target", chromedp.FromContext(tabCtx).Target.TargetID)
	return p, nil
}
