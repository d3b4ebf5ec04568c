package aspen

// Image is a Drawable that places a whole texture at a floating position.
type Image struct {
	imageBase
	position
}

// NewImage returns an Image that takes ownership of tex.
func NewImage(tex Texture, x, y float64) (*Image, error) {
	if tex == nil {
		return nil, configErrorf("texture", "nil texture")
	}
	img := &Image{position: position{x: x, y: y}}
	img.SetTexture(tex)
	return img, nil
}

// DestRect returns the texture-sized rectangle at the rounded position.
func (img *Image) DestRect() Rect {
	r := img.destRect
	r.X, r.Y = roundPos(img.x), roundPos(img.y)
	return r
}
