// Package rodbridge implements bridge.Page on top of go-rod.
package rodbridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/quizpilot/quizpilot/internal/bridge"
	"github.com/quizpilot/quizpilot/internal/config"
)

type Page struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

var _ bridge.Page = (*Page)(nil)

func Launch(cfg *config.RuntimeConfig) (*Page, error) {
	slog.Info("launching chrome via rod", "headless", cfg.Headless, "binary", cfg.ChromeBinary)

	l := launcher.New().Headless(cfg.Headless)
	if cfg.ChromeBinary != "" {
		l = l.Bin(cfg.ChromeBinary)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Page{launcher: l, browser: browser, page: page}, nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx).Timeout(bridge.DefaultNavigateTimeout)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return pg.WaitLoad()
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	scoped, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := p.page.Context(scoped).Element(selector)
	return bridge.WaitErr(ctx, scoped, err, selector, timeout)
}

func textContent(el *rod.Element) (string, error) {
	v, err := el.Property("textContent")
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	has, el, err := p.page.Context(ctx).Timeout(bridge.DefaultActionTimeout).Has(selector)
	if err != nil {
		return "", fmt.Errorf("text %s: %w", selector, err)
	}
	if !has {
		return "", nil
	}
	return textContent(el)
}

func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	els, err := p.page.Context(ctx).Timeout(bridge.DefaultActionTimeout).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("texts %s: %w", selector, err)
	}
	texts := make([]string, 0, len(els))
	for _, el := range els {
		t, err := textContent(el)
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, nil
}

func (p *Page) ClickNth(ctx context.Context, selector string, n int) error {
	els, err := p.page.Context(ctx).Timeout(bridge.DefaultActionTimeout).Elements(selector)
	if err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	el, err := bridge.Nth(els, selector, n)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// Close shuts the browser down and removes its temporary user data dir.
func (p *Page) Close() error {
	err := p.browser.Close()
	if p.launcher != nil {
		p.launcher.Cleanup()
	}
	return err
}
