package aspen

import (
	"fmt"
)

// TileMap renders each tile layer of a parsed map into its own Image. The
// images are built once; the map is static afterwards.
type TileMap struct {
	doc    *TileMapDocument
	layers []*Image
}

// NewTileMap decodes every tileset image of doc through dec and renders
// each tile layer into a render target of map size. If any step fails,
// everything created so far is released.
func NewTileMap(doc *TileMapDocument, r Renderer, dec ImageDecoder) (_ *TileMap, err error) {
	if doc == nil {
		return nil, configErrorf("tile map", "nil document")
	}
	sheets := make([]*SpriteSheet, len(doc.Tilesets))
	defer func() {
		for _, s := range sheets {
			if s != nil {
				s.Dispose()
			}
		}
	}()
	for i, ts := range doc.Tilesets {
		tex, _, _, err := dec.Decode(ts.Image, r)
		if err != nil {
			return nil, err
		}
		sheet, err := NewSpriteSheet(tex, 0, 0, ts.Columns, max(ts.Rows(), 1))
		if err != nil {
			tex.Dispose()
			return nil, fmt.Errorf("aspen: tileset %q: %w", ts.Name, err)
		}
		sheets[i] = sheet
	}

	tm := &TileMap{doc: doc}
	defer func() {
		if err != nil {
			tm.Dispose()
		}
	}()
	w, h := doc.Width*doc.TileWidth, doc.Height*doc.TileHeight
	for i := range doc.TileLayers {
		layer := &doc.TileLayers[i]
		target, err := r.NewRenderTarget(w, h)
		if err != nil {
			return nil, &ResourceLoadError{Kind: ResourceTexture, Path: doc.Path, Err: err}
		}
		r.SetTarget(target)
		r.Clear(Color{})
		drawTileLayer(r, doc, layer, sheets)
		r.SetTarget(nil)

		img, err := NewImage(target, layer.OffsetX, layer.OffsetY)
		if err != nil {
			target.Dispose()
			return nil, err
		}
		img.SetLayer(i)
		tm.layers = append(tm.layers, img)
	}
	return tm, nil
}

// drawTileLayer copies every non-empty cell of layer onto the bound target.
// Tiles taller than the map grid are aligned to the bottom of their cell.
func drawTileLayer(r Renderer, doc *TileMapDocument, layer *TileLayer, sheets []*SpriteSheet) {
	for y := 0; y < layer.Height; y++ {
		for x := 0; x < layer.Width; x++ {
			cell := layer.Cell(x, y)
			if cell.Empty() || cell.Tileset >= len(sheets) {
				continue
			}
			ts := doc.Tilesets[cell.Tileset]
			sheet := sheets[cell.Tileset]
			sheet.SetFrame(cell.ID)
			src, _ := sheet.SrcRect()
			dst := Rect{
				X:      x * doc.TileWidth,
				Y:      y*doc.TileHeight + doc.TileHeight - ts.TileHeight,
				Width:  ts.TileWidth,
				Height: ts.TileHeight,
			}
			r.Copy(sheet.Texture(), &src, dst, cell.Flip)
		}
	}
}

// Document returns the parsed map.
func (tm *TileMap) Document() *TileMapDocument { return tm.doc }

// Layers returns one image per tile layer, in document order.
func (tm *TileMap) Layers() []*Image { return append([]*Image(nil), tm.layers...) }

// Layer returns the image of tile layer i, or nil when out of range.
func (tm *TileMap) Layer(i int) *Image {
	if i < 0 || i >= len(tm.layers) {
		return nil
	}
	return tm.layers[i]
}

// LayerByName returns the image of the first tile layer called name.
func (tm *TileMap) LayerByName(name string) (*Image, bool) {
	for i, l := range tm.doc.TileLayers {
		if l.Name == name && i < len(tm.layers) {
			return tm.layers[i], true
		}
	}
	return nil, false
}

// AddTo adds the visible layers to w with draw layers base, base+1, ...
// in document order.
func (tm *TileMap) AddTo(w *Window, base int) {
	for i, img := range tm.layers {
		img.SetLayer(base + i)
		if tm.doc.TileLayers[i].Visible {
			w.AddImage(img)
		}
	}
}

// Dispose releases every layer image.
func (tm *TileMap) Dispose() {
	for _, img := range tm.layers {
		img.Dispose()
	}
}
