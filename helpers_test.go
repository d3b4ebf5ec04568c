package aspen

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"
)

func newTestBackend(t *testing.T, w, h int, opts ...HeadlessOption) *HeadlessBackend {
	t.Helper()
	opts = append([]HeadlessOption{WithFixedStep(time.Second / 60)}, opts...)
	b, err := NewHeadlessBackend(w, h, opts...)
	if err != nil {
		t.Fatalf("NewHeadlessBackend: %v", err)
	}
	return b
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func solidTexture(t *testing.T, r Renderer, w, h int, c color.RGBA) Texture {
	t.Helper()
	tex, err := r.NewTexture(solidImage(w, h, c))
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

// stripColors are the cell colors of stripTexture, left to right.
var stripColors = []color.RGBA{
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{0, 0, 255, 255},
	{255, 255, 0, 255},
	{0, 255, 255, 255},
}

// stripImage is a 1-row sheet of len(stripColors) solid cells, each
// cell×cell pixels.
func stripImage(cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cell*len(stripColors), cell))
	for i, c := range stripColors {
		draw.Draw(img, image.Rect(i*cell, 0, (i+1)*cell, cell), image.NewUniform(c), image.Point{}, draw.Src)
	}
	return img
}

func stripTexture(t *testing.T, r Renderer, cell int) Texture {
	t.Helper()
	tex, err := r.NewTexture(stripImage(cell))
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

// fakeTexture is a texture that belongs to no backend.
type fakeTexture struct {
	w, h     int
	disposed int
}

func (f *fakeTexture) Size() (int, int) { return f.w, f.h }
func (f *fakeTexture) Dispose()         { f.disposed++ }
