package aspen

import (
	"log/slog"
)

// Loader creates drawables from files through pluggable collaborators.
// Every failure is logged at error level and returned.
type Loader struct {
	Renderer Renderer
	Images   ImageDecoder
	Fonts    TextRasterizer
	Maps     TileMapParser
	Logger   *slog.Logger
}

// NewLoader returns a loader using FileDecoder, an OpenTypeRasterizer and
// TMXParser.
func NewLoader(r Renderer, log *slog.Logger) *Loader {
	if log == nil {
		log = Logger()
	}
	return &Loader{
		Renderer: r,
		Images:   FileDecoder{},
		Fonts:    NewOpenTypeRasterizer(),
		Maps:     TMXParser{},
		Logger:   log,
	}
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return Logger()
}

func (l *Loader) fail(msg string, err error, args ...any) error {
	l.logger().Error(msg, append(args, "error", err)...)
	return err
}

// Texture decodes the image at path into a texture.
func (l *Loader) Texture(path string) (Texture, error) {
	tex, w, h, err := l.Images.Decode(path, l.Renderer)
	if err != nil {
		return nil, l.fail("load texture", err, "path", path)
	}
	l.logger().Debug("texture loaded", "path", path, "width", w, "height", h)
	return tex, nil
}

// Image loads path as an Image at (x, y).
func (l *Loader) Image(path string, x, y float64) (*Image, error) {
	tex, err := l.Texture(path)
	if err != nil {
		return nil, err
	}
	img, err := NewImage(tex, x, y)
	if err != nil {
		tex.Dispose()
		return nil, l.fail("create image", err, "path", path)
	}
	return img, nil
}

// SpriteSheet loads path as a cols×rows SpriteSheet at (x, y).
func (l *Loader) SpriteSheet(path string, x, y float64, cols, rows int) (*SpriteSheet, error) {
	tex, err := l.Texture(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSpriteSheet(tex, x, y, cols, rows)
	if err != nil {
		tex.Dispose()
		return nil, l.fail("create sprite sheet", err, "path", path, "cols", cols, "rows", rows)
	}
	return s, nil
}

// Text rasterizes text with the font at fontPath.
func (l *Loader) Text(fontPath string, size float64, text string, c Color, x, y float64) (*Text, error) {
	t, err := NewText(l.Renderer, l.Fonts, fontPath, size, text, c, x, y)
	if err != nil {
		return nil, l.fail("create text", err, "font", fontPath, "size", size)
	}
	return t, nil
}

// TileMap parses the map at path and renders its layers.
func (l *Loader) TileMap(path string) (*TileMap, error) {
	doc, err := l.Maps.Parse(path)
	if err != nil {
		return nil, l.fail("parse tile map", err, "path", path)
	}
	tm, err := NewTileMap(doc, l.Renderer, l.Images)
	if err != nil {
		return nil, l.fail("build tile map", err, "path", path)
	}
	l.logger().Debug("tile map loaded", "path", path,
		"layers", len(doc.TileLayers), "tilesets", len(doc.Tilesets))
	return tm, nil
}
