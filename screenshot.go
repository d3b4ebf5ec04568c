package aspen

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// screenReader is implemented by backends that can read back the display.
// Pixels are premultiplied RGBA, row-major.
type screenReader interface {
	ReadScreen() (pixels []byte, w, h int, err error)
}

// Screenshot queues a labeled screenshot of the display, captured right
// after the next present. The PNG is written to ScreenshotDir with a
// timestamped filename. Safe to call from any goroutine.
func (w *Window) Screenshot(label string) {
	w.queueMu.Lock()
	w.screenshots = append(w.screenshots, label)
	w.queueMu.Unlock()
}

// flushScreenshots captures the presented frame once and writes it for
// every queued label.
func (w *Window) flushScreenshots(labels []string) {
	sr, ok := w.backend.(screenReader)
	if !ok {
		w.log.Warn("screenshot: backend cannot read the display", "labels", len(labels))
		return
	}
	if err := os.MkdirAll(w.ScreenshotDir, 0o755); err != nil {
		w.log.Error("screenshot: mkdir", "dir", w.ScreenshotDir, "error", err)
		return
	}
	pixels, sw, sh, err := sr.ReadScreen()
	if err != nil {
		w.log.Error("screenshot: read display", "error", err)
		return
	}
	img := unpremultiply(pixels, sw, sh)

	stamp := time.Now().Format("20060102_150405")
	for _, label := range labels {
		path := filepath.Join(w.ScreenshotDir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			w.log.Error("screenshot", "error", err)
			continue
		}
		w.log.Debug("screenshot written", "path", path)
	}
}

// unpremultiply converts premultiplied RGBA bytes to straight-alpha NRGBA.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
