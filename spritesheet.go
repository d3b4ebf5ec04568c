package aspen

// SpriteSheet is a Drawable that slices one texture into a fixed grid of
// equally sized cells and shows one of them at a time.
type SpriteSheet struct {
	imageBase
	position

	rows, cols   int
	frameCount   int
	frame        int
	cellW, cellH int
	srcRect      Rect
}

// NewSpriteSheet slices tex into cols×rows cells and takes ownership of it.
// The cell size is computed once as the texture size divided by the grid.
func NewSpriteSheet(tex Texture, x, y float64, cols, rows int) (*SpriteSheet, error) {
	if tex == nil {
		return nil, configErrorf("texture", "nil texture")
	}
	if cols < 1 {
		return nil, configErrorf("columns", "%d, want at least 1", cols)
	}
	if rows < 1 {
		return nil, configErrorf("rows", "%d, want at least 1", rows)
	}
	w, h := tex.Size()
	cellW, cellH := w/cols, h/rows
	if cellW == 0 || cellH == 0 {
		return nil, configErrorf("grid", "%dx%d cells do not fit a %dx%d texture", cols, rows, w, h)
	}

	s := &SpriteSheet{
		position:   position{x: x, y: y},
		rows:       rows,
		cols:       cols,
		frameCount: rows * cols,
		cellW:      cellW,
		cellH:      cellH,
	}
	s.texture = tex
	s.srcRect = Rect{Width: cellW, Height: cellH}
	return s, nil
}

// SetFrame selects the cell to show. Out-of-range values wrap around, so -1
// selects the last cell.
func (s *SpriteSheet) SetFrame(frame int) {
	n := s.frameCount
	frame = ((frame % n) + n) % n
	s.frame = frame
	s.srcRect = Rect{
		X:      (frame % s.cols) * s.cellW,
		Y:      (frame / s.cols) * s.cellH,
		Width:  s.cellW,
		Height: s.cellH,
	}
}

// Frame returns the current cell index in [0, FrameCount()).
func (s *SpriteSheet) Frame() int { return s.frame }

// FrameCount returns rows*cols.
func (s *SpriteSheet) FrameCount() int { return s.frameCount }

// Rows returns the number of grid rows.
func (s *SpriteSheet) Rows() int { return s.rows }

// Cols returns the number of grid columns.
func (s *SpriteSheet) Cols() int { return s.cols }

// CellSize returns the pixel size of one cell.
func (s *SpriteSheet) CellSize() (w, h int) { return s.cellW, s.cellH }

// SrcRect returns the current cell within the texture.
func (s *SpriteSheet) SrcRect() (Rect, bool) { return s.srcRect, true }

// DestRect returns the cell-sized rectangle at the rounded position.
func (s *SpriteSheet) DestRect() Rect {
	return Rect{X: roundPos(s.x), Y: roundPos(s.y), Width: s.cellW, Height: s.cellH}
}
