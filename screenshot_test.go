package aspen

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-spawn", "after-spawn"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"back\\slash", "back_slash"},
		{"special!@#$%", "special_____"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"MixedCase123", "MixedCase123"},
	}
	for _, tt := range tests {
		got := sanitizeLabel(tt.in)
		if got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueueAppend(t *testing.T) {
	w, _, _ := newTestWindow(t, 10, 10)
	w.Screenshot("a")
	w.Screenshot("b")
	w.Screenshot("c")
	if len(w.screenshots) != 3 {
		t.Fatalf("queue len = %d, want 3", len(w.screenshots))
	}
	if w.screenshots[0] != "a" || w.screenshots[1] != "b" || w.screenshots[2] != "c" {
		t.Errorf("queue = %v, want [a b c]", w.screenshots)
	}
}

func TestScreenshotWritesPNG(t *testing.T) {
	w, b, _ := newTestWindow(t, 20, 20)
	w.ScreenshotDir = t.TempDir()
	img, err := NewImage(solidTexture(t, b, 5, 5, stripColors[2]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	w.Screenshot("after start")
	tick(t, w)

	matches, err := filepath.Glob(filepath.Join(w.ScreenshotDir, "*_after_start.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("found %d screenshots, want 1", len(matches))
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	shot, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := color.RGBAModel.Convert(shot.At(2, 2)).(color.RGBA); got != stripColors[2] {
		t.Errorf("pixel (2,2) = %v, want %v", got, stripColors[2])
	}
	if got := color.RGBAModel.Convert(shot.At(10, 10)).(color.RGBA); got != white {
		t.Errorf("pixel (10,10) = %v, want background", got)
	}
	if len(w.screenshots) != 0 {
		t.Errorf("queue not cleared: %v", w.screenshots)
	}
}

func TestUnpremultiply(t *testing.T) {
	img := unpremultiply([]byte{64, 32, 0, 128, 10, 20, 30, 255, 0, 0, 0, 0}, 3, 1)
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{127, 63, 0, 128}) {
		t.Errorf("half alpha = %v, want {127 63 0 128}", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("opaque = %v, want unchanged", got)
	}
	if got := img.NRGBAAt(2, 0); got.A != 0 {
		t.Errorf("transparent = %v", got)
	}
}
