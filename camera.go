package aspen

import (
	"math"
	"sync"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for the camera's scroll offset.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is a sub-compositor. Each frame it captures its viewport of the
// window's intermediate target into a private render target, draws its own
// drawables on top, and the window places the result on the display at the
// camera's position.
type Camera struct {
	drawState
	position

	target   Texture
	viewport Rect

	mu     sync.Mutex
	images []Drawable

	scrollX, scrollY float64
	zoom             float64
	scrollTween      *scrollAnim

	// BoundsEnabled clamps the scroll offset so the capture rectangle stays
	// within Bounds.
	BoundsEnabled bool
	Bounds        Rect

	disposed bool
}

// NewCamera allocates a w×h render target and returns a camera placed at
// (x, y) on the display. The viewport is {0, 0, w, h} and never changes.
func NewCamera(r Renderer, w, h int, x, y float64) (*Camera, error) {
	if w <= 0 || h <= 0 {
		return nil, configErrorf("camera size", "%dx%d, want positive dimensions", w, h)
	}
	target, err := r.NewRenderTarget(w, h)
	if err != nil {
		return nil, &ResourceLoadError{Kind: ResourceTexture, Path: "camera target", Err: err}
	}
	return &Camera{
		position: position{x: x, y: y},
		target:   target,
		viewport: Rect{Width: w, Height: h},
		zoom:     1,
	}, nil
}

// AddImage adds d to the camera's own queue and re-sorts it by layer.
func (c *Camera) AddImage(d Drawable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, d)
	sortByLayer(c.images)
}

// RemoveImage removes every occurrence of d. Removing a drawable the camera
// does not hold is a no-op.
func (c *Camera) RemoveImage(d Drawable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = removeDrawable(c.images, d)
}

// Images returns the queue in draw order.
func (c *Camera) Images() []Drawable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Drawable(nil), c.images...)
}

// Viewport returns the fixed capture rectangle.
func (c *Camera) Viewport() Rect { return c.viewport }

// Scroll returns the capture offset into the intermediate target.
func (c *Camera) Scroll() (x, y float64) { return c.scrollX, c.scrollY }

// SetScroll sets the capture offset and cancels any running ScrollTo.
func (c *Camera) SetScroll(x, y float64) {
	c.scrollTween = nil
	c.scrollX, c.scrollY = x, y
	c.clampToBounds()
}

// ScrollTo animates the scroll offset to (x, y) over duration seconds. The
// tween advances with AddTime.
func (c *Camera) ScrollTo(x, y float64, duration float64, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.scrollX), float32(x), float32(duration), easeFn),
		tweenY: gween.New(float32(c.scrollY), float32(y), float32(duration), easeFn),
	}
}

// Scrolling reports whether a ScrollTo is in progress.
func (c *Camera) Scrolling() bool { return c.scrollTween != nil }

// Zoom returns the capture scale (1 = no zoom, >1 = zoom in).
func (c *Camera) Zoom() float64 { return c.zoom }

// SetZoom sets the capture scale. z must be positive.
func (c *Camera) SetZoom(z float64) error {
	if !(z > 0) || math.IsInf(z, 0) {
		return configErrorf("zoom", "%v, want a positive factor", z)
	}
	c.zoom = z
	c.clampToBounds()
	return nil
}

// SetBounds enables scroll clamping to bounds.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
	c.clampToBounds()
}

// ClearBounds disables scroll clamping.
func (c *Camera) ClearBounds() { c.BoundsEnabled = false }

// clampToBounds restricts the scroll offset so the captured area stays
// within Bounds. When Bounds is smaller than the captured area the capture
// is pinned to its top-left corner.
func (c *Camera) clampToBounds() {
	if !c.BoundsEnabled {
		return
	}
	w := float64(c.viewport.Width) / c.zoom
	h := float64(c.viewport.Height) / c.zoom

	minX, maxX := float64(c.Bounds.X), float64(c.Bounds.Right())-w
	minY, maxY := float64(c.Bounds.Y), float64(c.Bounds.Bottom())-h
	if maxX < minX {
		maxX = minX
	}
	if maxY < minY {
		maxY = minY
	}
	c.scrollX = math.Max(minX, math.Min(c.scrollX, maxX))
	c.scrollY = math.Max(minY, math.Min(c.scrollY, maxY))
}

// CaptureRect returns the region of the intermediate target the camera
// captures: the viewport moved by the scroll offset and shrunk by zoom.
func (c *Camera) CaptureRect() Rect {
	return Rect{
		X:      roundPos(c.scrollX),
		Y:      roundPos(c.scrollY),
		Width:  roundPos(float64(c.viewport.Width) / c.zoom),
		Height: roundPos(float64(c.viewport.Height) / c.zoom),
	}
}

// AddTime forwards dt to every drawable in the camera's queue and advances
// the scroll tween.
func (c *Camera) AddTime(dt float64) {
	for _, d := range c.Images() {
		d.AddTime(dt)
	}
	if c.scrollTween == nil {
		return
	}
	if !c.scrollTween.doneX {
		val, done := c.scrollTween.tweenX.Update(float32(dt))
		c.scrollX = float64(val)
		c.scrollTween.doneX = done
	}
	if !c.scrollTween.doneY {
		val, done := c.scrollTween.tweenY.Update(float32(dt))
		c.scrollY = float64(val)
		c.scrollTween.doneY = done
	}
	if c.scrollTween.doneX && c.scrollTween.doneY {
		c.scrollTween = nil
	}
	c.clampToBounds()
}

// Texture returns the camera's render target as of the last composite.
func (c *Camera) Texture() Texture { return c.target }

// SrcRect reports the whole target.
func (c *Camera) SrcRect() (Rect, bool) { return Rect{}, false }

// DestRect returns the viewport size at the camera's rounded position.
func (c *Camera) DestRect() Rect {
	return Rect{X: roundPos(c.x), Y: roundPos(c.y), Width: c.viewport.Width, Height: c.viewport.Height}
}

// Compose redraws the camera's own queue into its render target and returns
// the target. It runs every time it is called; nothing is cached.
func (c *Camera) Compose(r Renderer) Texture {
	if c.disposed {
		return nil
	}
	r.SetTarget(c.target)
	r.Clear(Color{})
	c.drawImages(r)
	r.SetTarget(nil)
	return c.target
}

// capture copies the visible part of intermediate into the render target,
// honoring the camera's flip, then draws the camera's own queue on top.
// It returns the number of drawables copied.
func (c *Camera) capture(r Renderer, intermediate Texture) int {
	if c.disposed {
		return 0
	}
	r.SetTarget(c.target)
	r.Clear(Color{})
	if intermediate != nil {
		iw, ih := intermediate.Size()
		dst := Rect{
			X:      roundPos(-c.scrollX * c.zoom),
			Y:      roundPos(-c.scrollY * c.zoom),
			Width:  roundPos(float64(iw) * c.zoom),
			Height: roundPos(float64(ih) * c.zoom),
		}
		if c.flip.Horizontal() {
			dst.X = c.viewport.Width - dst.X - dst.Width
		}
		if c.flip.Vertical() {
			dst.Y = c.viewport.Height - dst.Y - dst.Height
		}
		r.Copy(intermediate, nil, dst, c.flip)
	}
	n := c.drawImages(r)
	r.SetTarget(nil)
	return n
}

func (c *Camera) drawImages(r Renderer) int {
	n := 0
	for _, d := range c.Images() {
		if drawTo(r, d) {
			n++
		}
	}
	return n
}

// Dispose releases the render target. The camera's drawables are not
// disposed; they are owned by whoever created them.
func (c *Camera) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.target != nil {
		c.target.Dispose()
		c.target = nil
	}
}

// IsDisposed reports whether Dispose has been called.
func (c *Camera) IsDisposed() bool { return c.disposed }
