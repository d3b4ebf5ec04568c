package aspen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lafriks/go-tiled"
)

// TileMapParser reads a tile-map document.
type TileMapParser interface {
	// Parse reads the map at path. Failures are *ResourceLoadError.
	Parse(path string) (*TileMapDocument, error)
}

// TileMapDocument is a parsed tile map.
type TileMapDocument struct {
	Path       string
	Width      int // in tiles
	Height     int
	TileWidth  int // in pixels
	TileHeight int

	Tilesets     []Tileset
	TileLayers   []TileLayer
	ObjectGroups []ObjectGroup
}

// Tileset is one tileset of a map. Image is resolved relative to the file
// that declared it.
type Tileset struct {
	FirstGID    uint32
	Name        string
	TileWidth   int
	TileHeight  int
	TileCount   int
	Columns     int
	Image       string
	ImageWidth  int
	ImageHeight int
}

// Rows returns the number of tile rows in the tileset image.
func (t Tileset) Rows() int {
	if t.Columns <= 0 {
		return 0
	}
	return (t.TileCount + t.Columns - 1) / t.Columns
}

// TileLayer is one grid of tiles.
type TileLayer struct {
	Name    string
	Width   int
	Height  int
	OffsetX float64
	OffsetY float64
	Visible bool
	// Cells is row-major, len Width*Height.
	Cells []TileCell
}

// Cell returns the cell at (x, y), or an empty cell outside the layer.
func (l *TileLayer) Cell(x, y int) TileCell {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return TileCell{Tileset: -1}
	}
	return l.Cells[y*l.Width+x]
}

// TileCell is one cell of a tile layer. Tileset is the index into
// TileMapDocument.Tilesets, negative for an empty cell. ID is local to the
// tileset. Diagonal (rotated) tiles are drawn unrotated.
type TileCell struct {
	Tileset int
	ID      int
	Flip    Flip
}

// Empty reports whether the cell has no tile.
func (c TileCell) Empty() bool { return c.Tileset < 0 }

// ObjectGroup is a named layer of free-form objects.
type ObjectGroup struct {
	Name    string
	Objects []MapObject
}

// MapObject is one object of an object group.
type MapObject struct {
	ID     int
	Name   string
	X, Y   float64
	Width  float64
	Height float64
}

// TMXParser parses Tiled TMX maps with go-tiled. External TSX tilesets are
// followed. Open, when set, replaces os.Open for the map and its tilesets.
type TMXParser struct {
	Open func(path string) (io.ReadCloser, error)
}

// openFS serves go-tiled's file reads through TMXParser.Open.
type openFS func(path string) (io.ReadCloser, error)

func (o openFS) Open(name string) (fs.File, error) {
	rc, err := o(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return openFile{ReadCloser: rc, name: name}, nil
}

type openFile struct {
	io.ReadCloser
	name string
}

func (f openFile) Stat() (fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "stat", Path: f.name, Err: errors.ErrUnsupported}
}

// Parse implements TileMapParser.
func (p TMXParser) Parse(path string) (*TileMapDocument, error) {
	doc, err := p.parse(path)
	if err != nil {
		return nil, &ResourceLoadError{Kind: ResourceTileMap, Path: path, Err: err}
	}
	return doc, nil
}

func (p TMXParser) parse(path string) (*TileMapDocument, error) {
	var (
		f    io.ReadCloser
		err  error
		opts []tiled.LoaderOption
	)
	if p.Open != nil {
		f, err = p.Open(path)
		opts = append(opts, tiled.WithFileSystem(openFS(p.Open)))
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tiled.LoadReader(filepath.Dir(path), f, opts...)
	if err != nil {
		return nil, err
	}
	return buildDocument(path, m)
}

func buildDocument(path string, m *tiled.Map) (*TileMapDocument, error) {
	if m.Infinite {
		return nil, errors.New("infinite maps are not supported")
	}
	mw, mh := int(m.Width), int(m.Height)
	tw, th := int(m.TileWidth), int(m.TileHeight)
	if mw <= 0 || mh <= 0 || tw <= 0 || th <= 0 {
		return nil, fmt.Errorf("invalid map geometry %dx%d tiles of %dx%d", mw, mh, tw, th)
	}
	doc := &TileMapDocument{
		Path:       path,
		Width:      mw,
		Height:     mh,
		TileWidth:  tw,
		TileHeight: th,
	}

	// cells reference tilesets by first gid
	byFirstGID := make(map[uint32]int, len(m.Tilesets))
	for _, ts := range m.Tilesets {
		if ts.Image == nil || ts.Image.Source == "" || int(ts.TileWidth) <= 0 || int(ts.TileHeight) <= 0 {
			return nil, fmt.Errorf("tileset %q: only single-image tilesets are supported", ts.Name)
		}
		iw, ih := int(ts.Image.Width), int(ts.Image.Height)
		cols := int(ts.Columns)
		if cols <= 0 && iw > 0 {
			cols = iw / int(ts.TileWidth)
		}
		if cols <= 0 {
			return nil, fmt.Errorf("tileset %q: no columns", ts.Name)
		}
		count := int(ts.TileCount)
		if count <= 0 && ih > 0 {
			count = cols * (ih / int(ts.TileHeight))
		}
		byFirstGID[uint32(ts.FirstGID)] = len(doc.Tilesets)
		doc.Tilesets = append(doc.Tilesets, Tileset{
			FirstGID:    uint32(ts.FirstGID),
			Name:        ts.Name,
			TileWidth:   int(ts.TileWidth),
			TileHeight:  int(ts.TileHeight),
			TileCount:   count,
			Columns:     cols,
			Image:       ts.GetFileFullPath(ts.Image.Source),
			ImageWidth:  iw,
			ImageHeight: ih,
		})
	}

	n := mw * mh
	for _, l := range m.Layers {
		if len(l.Tiles) != n {
			return nil, fmt.Errorf("layer %q: got %d tiles, want %d", l.Name, len(l.Tiles), n)
		}
		layer := TileLayer{
			Name:    l.Name,
			Width:   mw,
			Height:  mh,
			OffsetX: float64(l.OffsetX),
			OffsetY: float64(l.OffsetY),
			Visible: l.Visible,
			Cells:   make([]TileCell, n),
		}
		for i, t := range l.Tiles {
			layer.Cells[i] = TileCell{Tileset: -1}
			if t == nil || t.IsNil() || t.Tileset == nil {
				continue
			}
			ts, ok := byFirstGID[uint32(t.Tileset.FirstGID)]
			if !ok {
				continue
			}
			var flip Flip
			flip = flip.with(FlipHorizontal, t.HorizontalFlip)
			flip = flip.with(FlipVertical, t.VerticalFlip)
			layer.Cells[i] = TileCell{Tileset: ts, ID: int(t.ID), Flip: flip}
		}
		doc.TileLayers = append(doc.TileLayers, layer)
	}

	for _, g := range m.ObjectGroups {
		group := ObjectGroup{Name: g.Name}
		for _, o := range g.Objects {
			group.Objects = append(group.Objects, MapObject{
				ID:     int(o.ID),
				Name:   o.Name,
				X:      float64(o.X),
				Y:      float64(o.Y),
				Width:  float64(o.Width),
				Height: float64(o.Height),
			})
		}
		doc.ObjectGroups = append(doc.ObjectGroups, group)
	}
	return doc, nil
}
