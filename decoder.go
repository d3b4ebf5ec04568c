package aspen

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ImageDecoder turns an image file into a texture.
type ImageDecoder interface {
	// Decode reads the image at path and uploads it through r. Failures are
	// *ResourceLoadError.
	Decode(path string, r Renderer) (tex Texture, w, h int, err error)
}

// FileDecoder decodes PNG, JPEG, GIF, BMP, TIFF and WebP files from disk.
// Open, when set, replaces os.Open.
type FileDecoder struct {
	Open func(path string) (io.ReadCloser, error)
}

// Decode implements ImageDecoder.
func (d FileDecoder) Decode(path string, r Renderer) (Texture, int, int, error) {
	img, err := d.decodeImage(path)
	if err != nil {
		return nil, 0, 0, &ResourceLoadError{Kind: ResourceImage, Path: path, Err: err}
	}
	return uploadImage(r, path, img)
}

// DecodeImage decodes the image at path without uploading it.
func (d FileDecoder) DecodeImage(path string) (image.Image, error) {
	img, err := d.decodeImage(path)
	if err != nil {
		return nil, &ResourceLoadError{Kind: ResourceImage, Path: path, Err: err}
	}
	return img, nil
}

func (d FileDecoder) decodeImage(path string) (image.Image, error) {
	open := d.Open
	if open == nil {
		open = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s: empty image", format)
	}
	return img, nil
}

// uploadImage creates a texture from img and reports its size.
func uploadImage(r Renderer, path string, img image.Image) (Texture, int, int, error) {
	tex, err := r.NewTexture(img)
	if err != nil {
		return nil, 0, 0, &ResourceLoadError{Kind: ResourceTexture, Path: path, Err: err}
	}
	w, h := tex.Size()
	return tex, w, h, nil
}
