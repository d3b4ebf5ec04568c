package aspen

import "sort"

// Drawable is anything the engine can place on a render target. The set of
// implementations is closed: *Image, *Text, *SpriteSheet, *Animation and
// *AnimatorController. A *Camera also satisfies it so it can be copied like
// any other texture owner.
//
// Position is not part of the interface; variants that have one implement
// Positioner.
type Drawable interface {
	// Texture returns the texture to copy from.
	Texture() Texture
	// SrcRect returns the region of Texture to copy. ok is false when the
	// whole texture is used.
	SrcRect() (r Rect, ok bool)
	// DestRect returns the pixel placement on the target.
	DestRect() Rect
	// Flip returns the mirror flags applied when copying.
	Flip() Flip
	// Layer returns the draw-order key. Higher layers are drawn later.
	Layer() int
	SetLayer(layer int)
	// AddTime advances time-driven state by dt seconds.
	AddTime(dt float64)

	drawable()
}

// Positioner is implemented by drawables with a floating-point position.
type Positioner interface {
	X() float64
	Y() float64
	SetX(x float64)
	SetY(y float64)
}

// drawState holds the flip and layer shared by every Drawable variant.
type drawState struct {
	flip  Flip
	layer int
}

func (s *drawState) Flip() Flip         { return s.flip }
func (s *drawState) Layer() int         { return s.layer }
func (s *drawState) SetLayer(layer int) { s.layer = layer }
func (s *drawState) SetFlipX(flip bool) { s.flip = s.flip.with(FlipHorizontal, flip) }
func (s *drawState) SetFlipY(flip bool) { s.flip = s.flip.with(FlipVertical, flip) }
func (s *drawState) FlippedX() bool     { return s.flip.Horizontal() }
func (s *drawState) FlippedY() bool     { return s.flip.Vertical() }
func (s *drawState) SetFlip(flip Flip)  { s.flip = flip }
func (s *drawState) AddTime(dt float64) {}
func (s *drawState) drawable()          {}

// imageBase is embedded by drawables that own their texture. destRect
// width and height always mirror the bound texture's size.
type imageBase struct {
	drawState
	texture  Texture
	destRect Rect
	disposed bool
}

func (b *imageBase) Texture() Texture { return b.texture }

func (b *imageBase) SrcRect() (Rect, bool) { return Rect{}, false }

// SetTexture replaces the owned texture, disposing the previous one, and
// resizes the destination rectangle to the new texture.
func (b *imageBase) SetTexture(t Texture) {
	if b.texture != nil && b.texture != t {
		b.texture.Dispose()
	}
	b.texture = t
	if t != nil {
		b.destRect.Width, b.destRect.Height = t.Size()
	} else {
		b.destRect.Width, b.destRect.Height = 0, 0
	}
}

// Dispose releases the owned texture. Safe to call more than once.
func (b *imageBase) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	if b.texture != nil {
		b.texture.Dispose()
		b.texture = nil
	}
}

// IsDisposed reports whether Dispose has been called.
func (b *imageBase) IsDisposed() bool { return b.disposed }

// position is the float position of a positioned drawable.
type position struct {
	x, y float64
}

func (p *position) X() float64     { return p.x }
func (p *position) Y() float64     { return p.y }
func (p *position) SetX(x float64) { p.x = x }
func (p *position) SetY(y float64) { p.y = y }

// SetPosition sets both coordinates.
func (p *position) SetPosition(x, y float64) { p.x, p.y = x, y }

// sortByLayer orders drawables by ascending layer; equal layers keep their
// insertion order.
func sortByLayer(q []Drawable) {
	sort.SliceStable(q, func(i, j int) bool {
		return q[i].Layer() < q[j].Layer()
	})
}

// removeDrawable returns q without any occurrence of d.
func removeDrawable(q []Drawable, d Drawable) []Drawable {
	out := q[:0]
	for _, e := range q {
		if e != d {
			out = append(out, e)
		}
	}
	for i := len(out); i < len(q); i++ {
		q[i] = nil
	}
	return out
}
