package aspen

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup moves a Positioner toward a target position over time.
// Create one with TweenPosition and call Update(dt) from the main func.
// If the target is disposed the group stops immediately.
//
// There is no global tween manager; callers own their groups.
type TweenGroup struct {
	tweenX, tweenY *gween.Tween
	target         Positioner
	Done           bool
}

type disposable interface {
	IsDisposed() bool
}

// Update advances both tweens by dt seconds and writes the new position to
// the target.
func (g *TweenGroup) Update(dt float64) {
	if g.Done {
		return
	}
	if d, ok := g.target.(disposable); ok && d.IsDisposed() {
		g.Done = true
		return
	}

	x, doneX := g.tweenX.Update(float32(dt))
	y, doneY := g.tweenY.Update(float32(dt))
	g.target.SetX(float64(x))
	g.target.SetY(float64(y))
	g.Done = doneX && doneY
}

// TweenPosition creates a TweenGroup that moves p from its current position
// to (toX, toY) over duration seconds using the easing function. A nil fn
// means linear.
func TweenPosition(p Positioner, toX, toY float64, duration float64, fn ease.TweenFunc) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	return &TweenGroup{
		tweenX: gween.New(float32(p.X()), float32(toX), float32(duration), fn),
		tweenY: gween.New(float32(p.Y()), float32(toY), float32(duration), fn),
		target: p,
	}
}
