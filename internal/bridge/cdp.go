package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/quizpilot/quizpilot/internal/human"
)

// ChromePage drives one Chrome tab over CDP.
type ChromePage struct {
	ctx    context.Context // chromedp tab context
	cancel context.CancelFunc
	mouse  *human.Mouse // nil means plain CDP clicks
}

var _ Page = (*ChromePage)(nil)

// NewChromePage wraps an existing chromedp tab context.
func NewChromePage(tabCtx context.Context, cancel context.CancelFunc) *ChromePage {
	return &ChromePage{ctx: tabCtx, cancel: cancel}
}

// scope derives a context from the tab that also ends when ctx ends.
func (p *ChromePage) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		tCtx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		tCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		tCtx, cancel = context.WithCancel(p.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return tCtx, func() {
		stop()
		cancel()
	}
}

// Navigate issues Page.navigate and polls document.readyState until the DOM
// is interactive.
func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	tCtx, done := p.scope(ctx, DefaultNavigateTimeout)
	defer done()

	err := chromedp.Run(tCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errText, err := page.Navigate(url).Do(ctx)
			if err != nil {
				return err
			}
			if errText != "" {
				return fmt.Errorf("navigate %s: %s", url, errText)
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-tCtx.Done():
			return tCtx.Err()
		case <-ticker.C:
			var state string
			err = chromedp.Run(tCtx,
				chromedp.Evaluate("document.readyState", &state),
			)
			if err == nil && (state == "interactive" || state == "complete") {
				return nil
			}
		}
	}
}

func (p *ChromePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	tCtx, done := p.scope(ctx, timeout)
	defer done()

	err := chromedp.Run(tCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	return WaitErr(ctx, tCtx, err, selector, timeout)
}

func (p *ChromePage) Text(ctx context.Context, selector string) (string, error) {
	tCtx, done := p.scope(ctx, DefaultActionTimeout)
	defer done()

	var text string
	js := fmt.Sprintf(`document.querySelector(%q)?.textContent ?? ""`, selector)
	if err := chromedp.Run(tCtx, chromedp.Evaluate(js, &text)); err != nil {
		return "", fmt.Errorf("text %s: %w", selector, err)
	}
	return text, nil
}

func (p *ChromePage) Texts(ctx context.Context, selector string) ([]string, error) {
	tCtx, done := p.scope(ctx, DefaultActionTimeout)
	defer done()

	var texts []string
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q), el => el.textContent ?? "")`, selector)
	if err := chromedp.Run(tCtx, chromedp.Evaluate(js, &texts)); err != nil {
		return nil, fmt.Errorf("texts %s: %w", selector, err)
	}
	return texts, nil
}

func (p *ChromePage) ClickNth(ctx context.Context, selector string, n int) error {
	tCtx, done := p.scope(ctx, DefaultActionTimeout)
	defer done()

	var nodes []*cdp.Node
	if err := chromedp.Run(tCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	node, err := Nth(nodes, selector, n)
	if err != nil {
		return err
	}

	if p.mouse != nil {
		return p.mouse.ClickNode(tCtx, node.NodeID)
	}
	return chromedp.Run(tCtx, chromedp.MouseClickNode(node))
}

func (p *ChromePage) Title(ctx context.Context) (string, error) {
	tCtx, done := p.scope(ctx, DefaultActionTimeout)
	defer done()

	var title string
	if err := chromedp.Run(tCtx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (p *ChromePage) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}
