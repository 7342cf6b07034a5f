// Package pwbridge implements bridge.Page on top of playwright-go. The
// playwright driver must be installed (go run
// github.com/playwright-community/playwright-go/cmd/playwright install chromium).
package pwbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/quizpilot/quizpilot/internal/bridge"
	"github.com/quizpilot/quizpilot/internal/config"
)

type Page struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

var _ bridge.Page = (*Page)(nil)

func Launch(cfg *config.RuntimeConfig) (*Page, error) {
	slog.Info("launching chromium via playwright", "headless", cfg.Headless)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.ChromeBinary != "" {
		opts.ExecutablePath = playwright.String(cfg.ChromeBinary)
	}
	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Page{pw: pw, browser: browser, page: page}, nil
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d / time.Millisecond))
}

// Playwright calls are not context-aware; a done ctx is checked up front.

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(bridge.DefaultNavigateTimeout),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: millis(timeout),
	})
	return waitErr(err, selector, timeout)
}

// waitErr maps playwright's timeout onto *bridge.WaitTimeoutError.
func waitErr(err error, selector string, timeout time.Duration) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return &bridge.WaitTimeoutError{Selector: selector, Timeout: timeout}
	}
	return err
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("text %s: %w", selector, err)
	}
	if el == nil {
		return "", nil
	}
	return el.TextContent()
}

func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("texts %s: %w", selector, err)
	}
	texts := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.TextContent()
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, nil
}

func (p *Page) ClickNth(ctx context.Context, selector string, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	els, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	el, err := bridge.Nth(els, selector, n)
	if err != nil {
		return err
	}
	return el.Click()
}

func (p *Page) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Title()
}

func (p *Page) Close() error {
	err := p.browser.Close()
	if stopErr := p.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}
