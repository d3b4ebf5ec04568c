package aspen

import (
	"image"
)

// Texture is an opaque handle to a backend-owned pixel buffer. A texture is
// owned by exactly one engine object and released once with Dispose.
type Texture interface {
	// Size returns the texture's pixel dimensions.
	Size() (w, h int)
	// Dispose releases the backend resource. Calling it twice is a no-op.
	Dispose()
}

// Renderer is the drawing backend the engine composes through. All methods
// are called from the render loop only, except NewTexture and
// NewRenderTarget, which may also be called while loading assets before
// the loop starts.
type Renderer interface {
	// NewTexture uploads img into a new texture of the same size.
	NewTexture(img image.Image) (Texture, error)
	// NewRenderTarget creates a cleared texture that can be bound with
	// SetTarget.
	NewRenderTarget(w, h int) (Texture, error)
	// SetTarget binds t as the destination of subsequent Clear and Copy
	// calls. A nil target selects the display.
	SetTarget(t Texture)
	// Clear fills the bound target with c.
	Clear(c Color)
	// Copy draws the srcRect region of src (the whole texture when srcRect
	// is nil) into dst on the bound target, scaling to fit and mirroring
	// according to flip.
	Copy(src Texture, srcRect *Rect, dst Rect, flip Flip)
	// SetScale sets the scale applied to copies onto the display.
	SetScale(x, y float64)
	// Present makes the display contents visible.
	Present()
}

// Backend is a Renderer that also hosts the render loop and owns the input
// devices of the window it draws into.
type Backend interface {
	Renderer
	// Run blocks on the calling goroutine and invokes frame once per
	// render-loop iteration until frame returns a non-nil error. ErrClosed
	// ends the loop without error.
	Run(cfg WindowConfig, frame func() error) error
	// PollEvents returns the input events received since the previous call.
	PollEvents() []Event
	// Keyboard returns the current key-down state.
	Keyboard() KeyboardState
}

// drawTo copies d onto the bound target of r.
func drawTo(r Renderer, d Drawable) bool {
	tex := d.Texture()
	if tex == nil {
		return false
	}
	if src, ok := d.SrcRect(); ok {
		r.Copy(tex, &src, d.DestRect(), d.Flip())
	} else {
		r.Copy(tex, nil, d.DestRect(), d.Flip())
	}
	return true
}
