package aspen

import (
	"image"
	"image/color"
	"math"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

// ColorWhite is the default window background.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is opaque black.
var ColorBlack = Color{0, 0, 0, 1}

// RGBA returns the color as a premultiplied color.RGBA.
func (c Color) RGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// ColorFromRGBA converts an 8-bit straight-alpha color to a Color.
func ColorFromRGBA(r, g, b, a uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, float64(a) / 255}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Rect is an axis-aligned pixel rectangle. The coordinate system has its
// origin at the top-left, with Y increasing downward.
type Rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Right returns the x coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersects reports whether r and other share at least one pixel.
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Bounds converts the rectangle to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// RectFromBounds converts an image.Rectangle to a Rect.
func RectFromBounds(b image.Rectangle) Rect {
	return Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// Flip is a bitmask of independent mirror flags applied when a texture is
// copied to its destination.
type Flip uint8

const (
	FlipHorizontal Flip = 1 << iota // mirror around the vertical axis
	FlipVertical                    // mirror around the horizontal axis

	FlipNone Flip = 0
)

// Horizontal reports whether the horizontal mirror bit is set.
func (f Flip) Horizontal() bool { return f&FlipHorizontal != 0 }

// Vertical reports whether the vertical mirror bit is set.
func (f Flip) Vertical() bool { return f&FlipVertical != 0 }

// with returns f with bit set or cleared.
func (f Flip) with(bit Flip, on bool) Flip {
	if on {
		return f | bit
	}
	return f &^ bit
}

// roundPos snaps a floating position to the nearest pixel.
func roundPos(v float64) int {
	return int(math.Round(v))
}
