package aspen

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextRasterizer renders a string into a texture.
type TextRasterizer interface {
	// Rasterize renders text with the font at fontPath at size points in
	// color c and uploads it through r. Failures are *ResourceLoadError.
	Rasterize(fontPath string, size float64, text string, c Color, r Renderer) (tex Texture, w, h int, err error)
}

type faceKey struct {
	path string
	size float64
}

// OpenTypeRasterizer rasterizes TrueType and OpenType fonts, including the
// first font of a collection. Parsed fonts and sized faces are cached.
type OpenTypeRasterizer struct {
	// DPI defaults to 72, making one point one pixel.
	DPI float64
	// Hinting defaults to font.HintingFull.
	Hinting font.Hinting

	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

// NewOpenTypeRasterizer returns a rasterizer with empty caches.
func NewOpenTypeRasterizer() *OpenTypeRasterizer {
	return &OpenTypeRasterizer{
		DPI:     72,
		Hinting: font.HintingFull,
		fonts:   make(map[string]*opentype.Font),
		faces:   make(map[faceKey]font.Face),
	}
}

// RegisterFont parses data and makes it available under name, so fonts can
// be embedded instead of read from disk.
func (o *OpenTypeRasterizer) RegisterFont(name string, data []byte) error {
	f, err := parseFont(data)
	if err != nil {
		return &ResourceLoadError{Kind: ResourceFont, Path: name, Err: err}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fonts[name] = f
	return nil
}

// parseFont parses a single font, falling back to the first font of a
// collection.
func parseFont(data []byte) (*opentype.Font, error) {
	f, err := opentype.Parse(data)
	if err == nil {
		return f, nil
	}
	coll, cerr := opentype.ParseCollection(data)
	if cerr != nil {
		return nil, err
	}
	if coll.NumFonts() == 0 {
		return nil, errors.New("empty font collection")
	}
	return coll.Font(0)
}

// face returns the cached face for (path, size), loading the font on first
// use. o.mu must be held.
func (o *OpenTypeRasterizer) face(path string, size float64) (font.Face, error) {
	key := faceKey{path, size}
	if f, ok := o.faces[key]; ok {
		return f, nil
	}
	ft, ok := o.fonts[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if ft, err = parseFont(data); err != nil {
			return nil, err
		}
		o.fonts[path] = ft
	}
	dpi := o.DPI
	if dpi <= 0 {
		dpi = 72
	}
	f, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: o.Hinting,
	})
	if err != nil {
		return nil, err
	}
	o.faces[key] = f
	return f, nil
}

// RasterizeImage renders text into a new RGBA image one line high and as
// wide as the text's advance.
func (o *OpenTypeRasterizer) RasterizeImage(fontPath string, size float64, text string, c Color) (*image.RGBA, error) {
	if !(size > 0) {
		return nil, &ResourceLoadError{Kind: ResourceFont, Path: fontPath, Err: fmt.Errorf("size %v", size)}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fonts == nil {
		o.fonts = make(map[string]*opentype.Font)
		o.faces = make(map[faceKey]font.Face)
	}
	face, err := o.face(fontPath, size)
	if err != nil {
		return nil, &ResourceLoadError{Kind: ResourceFont, Path: fontPath, Err: err}
	}

	m := face.Metrics()
	w := max(font.MeasureString(face, text).Ceil(), 1)
	h := max((m.Ascent + m.Descent).Ceil(), 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.RGBA()),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: m.Ascent},
	}
	d.DrawString(text)
	return img, nil
}

// Rasterize implements TextRasterizer.
func (o *OpenTypeRasterizer) Rasterize(fontPath string, size float64, text string, c Color, r Renderer) (Texture, int, int, error) {
	img, err := o.RasterizeImage(fontPath, size, text, c)
	if err != nil {
		return nil, 0, 0, err
	}
	return uploadImage(r, fontPath, img)
}

// Close releases the cached faces.
func (o *OpenTypeRasterizer) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs []error
	for k, f := range o.faces {
		errs = append(errs, f.Close())
		delete(o.faces, k)
	}
	return errors.Join(errs...)
}

// Text is a Drawable showing a rasterized string. Changing the string or
// color re-rasterizes it and replaces the owned texture.
type Text struct {
	imageBase
	position

	renderer   Renderer
	rasterizer TextRasterizer
	fontPath   string
	size       float64
	text       string
	color      Color
}

// NewText rasterizes text and returns a Text at (x, y).
func NewText(r Renderer, tr TextRasterizer, fontPath string, size float64, text string, c Color, x, y float64) (*Text, error) {
	if r == nil || tr == nil {
		return nil, configErrorf("text", "nil renderer or rasterizer")
	}
	t := &Text{
		position:   position{x: x, y: y},
		renderer:   r,
		rasterizer: tr,
		fontPath:   fontPath,
		size:       size,
		text:       text,
		color:      c,
	}
	if err := t.rasterize(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Text) rasterize() error {
	tex, _, _, err := t.rasterizer.Rasterize(t.fontPath, t.size, t.text, t.color, t.renderer)
	if err != nil {
		return err
	}
	t.SetTexture(tex)
	return nil
}

// SetText re-rasterizes with s. On failure the previous texture is kept.
func (t *Text) SetText(s string) error {
	if s == t.text && t.texture != nil {
		return nil
	}
	prev := t.text
	t.text = s
	if err := t.rasterize(); err != nil {
		t.text = prev
		return err
	}
	return nil
}

// SetColor re-rasterizes in c. On failure the previous texture is kept.
func (t *Text) SetColor(c Color) error {
	if c == t.color && t.texture != nil {
		return nil
	}
	prev := t.color
	t.color = c
	if err := t.rasterize(); err != nil {
		t.color = prev
		return err
	}
	return nil
}

// Text returns the displayed string.
func (t *Text) Text() string { return t.text }

// Color returns the text color.
func (t *Text) Color() Color { return t.color }

// DestRect returns the texture-sized rectangle at the rounded position.
func (t *Text) DestRect() Rect {
	r := t.destRect
	r.X, r.Y = roundPos(t.x), roundPos(t.y)
	return r
}
