package human

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/quizpilot/quizpilot/internal/retry"
)

type Point struct {
	X, Y float64
}

// Mouse dispatches pointer events along curved, slightly noisy paths.
type Mouse struct {
	rng      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error
	dispatch func(ctx context.Context, ev *input.DispatchMouseEventParams) error
}

func NewMouse(seed int64) *Mouse {
	return &Mouse{
		rng:   rand.New(rand.NewSource(seed)),
		sleep: retry.Sleep,
		dispatch: func(ctx context.Context, ev *input.DispatchMouseEventParams) error {
			return chromedp.Run(ctx, ev)
		},
	}
}

// Path returns the points of a cubic bezier from one point to another with
// a little per-step wobble. The last point is within a pixel of to.
func (m *Mouse) Path(from, to Point) []Point {
	distance := math.Hypot(to.X-from.X, to.Y-from.Y)
	duration := 100 + (distance/2000)*200 + float64(m.rng.Intn(100))

	steps := int(duration / 20)
	if steps < 5 {
		steps = 5
	}
	if steps > 30 {
		steps = 30
	}

	c1 := Point{
		X: from.X + (to.X-from.X)*0.25 + (m.rng.Float64()-0.5)*50,
		Y: from.Y + (to.Y-from.Y)*0.25 + (m.rng.Float64()-0.5)*50,
	}
	c2 := Point{
		X: from.X + (to.X-from.X)*0.75 + (m.rng.Float64()-0.5)*50,
		Y: from.Y + (to.Y-from.Y)*0.75 + (m.rng.Float64()-0.5)*50,
	}

	pts := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		x := u*u*u*from.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*to.X
		y := u*u*u*from.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*to.Y
		pts = append(pts, Point{
			X: x + (m.rng.Float64()-0.5)*2,
			Y: y + (m.rng.Float64()-0.5)*2,
		})
	}
	return pts
}

// Move walks the pointer along Path. A done ctx stops it between steps.
func (m *Mouse) Move(ctx context.Context, from, to Point) error {
	for _, p := range m.Path(from, to) {
		if err := m.dispatch(ctx, input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y)); err != nil {
			return err
		}
		if err := m.sleep(ctx, time.Duration(16+m.rng.Intn(8))*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// Click approaches the point from a random nearby offset, then presses and
// releases the left button with human-scale pauses.
func (m *Mouse) Click(ctx context.Context, x, y float64) error {
	start := Point{
		X: x + (m.rng.Float64()-0.5)*200 + 50,
		Y: y + (m.rng.Float64()-0.5)*200 + 50,
	}
	if math.Hypot(start.X-x, start.Y-y) > 30 {
		if err := m.Move(ctx, start, Point{x, y}); err != nil {
			return err
		}
	}

	if err := m.sleep(ctx, time.Duration(50+m.rng.Intn(150))*time.Millisecond); err != nil {
		return err
	}

	press := input.DispatchMouseEvent(input.MousePressed, x, y).
		WithButton(input.Left).
		WithClickCount(1)
	if err := m.dispatch(ctx, press); err != nil {
		return err
	}

	if err := m.sleep(ctx, time.Duration(30+m.rng.Intn(90))*time.Millisecond); err != nil {
		return err
	}

	rx := x + (m.rng.Float64()-0.5)*2
	ry := y + (m.rng.Float64()-0.5)*2
	release := input.DispatchMouseEvent(input.MouseReleased, rx, ry).
		WithButton(input.Left).
		WithClickCount(1)
	return m.dispatch(ctx, release)
}

// BoxCenter returns the centre of a content quad [x1,y1 .. x4,y4].
func BoxCenter(quad []float64) (Point, error) {
	if len(quad) < 8 {
		return Point{}, fmt.Errorf("invalid box model: %d coordinates", len(quad))
	}
	return Point{
		X: (quad[0] + quad[2] + quad[4] + quad[6]) / 4,
		Y: (quad[1] + quad[3] + quad[5] + quad[7]) / 4,
	}, nil
}

// ClickNode scrolls the node into view and clicks near its centre.
func (m *Mouse) ClickNode(ctx context.Context, nodeID cdp.NodeID) error {
	var box *dom.BoxModel
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := dom.ScrollIntoViewIfNeeded().WithNodeID(nodeID).Do(ctx); err != nil {
				return err
			}
			var err error
			box, err = dom.GetBoxModel().WithNodeID(nodeID).Do(ctx)
			return err
		}),
	); err != nil {
		return err
	}

	c, err := BoxCenter(box.Content)
	if err != nil {
		return err
	}
	return m.Click(ctx, c.X+(m.rng.Float64()-0.5)*10, c.Y+(m.rng.Float64()-0.5)*10)
}
