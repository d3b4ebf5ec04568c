package aspen

import (
	"bytes"
	"errors"
	"image/color"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

var white = color.RGBA{255, 255, 255, 255}

// newTestWindow returns a w×h window on a headless backend of the same size
// with one full-window camera at the origin.
func newTestWindow(t *testing.T, w, h int, opts ...Option) (*Window, *HeadlessBackend, *Camera) {
	t.Helper()
	b := newTestBackend(t, w, h, WithRecordOperations(true))
	win, err := NewWindow(WindowConfig{Title: "test", Width: w, Height: h, Background: ColorWhite}, b, opts...)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	cam, err := NewCamera(b, w, h, 0, 0)
	if err != nil {
		t.Fatalf("NewCamera: %v", err)
	}
	win.AddCamera(cam)
	return win, b, cam
}

func tick(t *testing.T, w *Window) {
	t.Helper()
	if err := w.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func TestNewWindowDefaults(t *testing.T) {
	b := newTestBackend(t, 100, 100)
	w, err := NewWindow(WindowConfig{Width: 100, Height: 100}, b)
	if err != nil {
		t.Fatal(err)
	}
	if w.FPS() != DefaultFPS {
		t.Errorf("FPS = %d, want %d", w.FPS(), DefaultFPS)
	}
	if x, y := w.Scale(); x != 1 || y != 1 {
		t.Errorf("Scale = (%v, %v), want (1, 1)", x, y)
	}
	if w.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want %q", w.ScreenshotDir, "screenshots")
	}
	if f := w.RenderFrame(); f.Width != 100 || f.Height != 100 {
		t.Errorf("RenderFrame = %+v, want window size", f)
	}
	if w.IsClosed() {
		t.Error("new window is closed")
	}
	if w.Loader() == nil {
		t.Error("Loader = nil")
	}
}

func TestNewWindowRejectsBadConfig(t *testing.T) {
	b := newTestBackend(t, 10, 10)
	tests := []struct {
		name    string
		cfg     WindowConfig
		backend Backend
	}{
		{"nil backend", WindowConfig{Width: 10, Height: 10}, nil},
		{"zero width", WindowConfig{Width: 0, Height: 10}, b},
		{"negative fps", WindowConfig{Width: 10, Height: 10, FPS: -1}, b},
		{"negative scale", WindowConfig{Width: 10, Height: 10, Scale: -2}, b},
	}
	for _, tt := range tests {
		_, err := NewWindow(tt.cfg, tt.backend)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: err = %v, want *ConfigError", tt.name, err)
		}
	}
}

func TestWindowRendersSpriteSheetThroughCamera(t *testing.T) {
	w, b, _ := newTestWindow(t, 600, 600)
	sheet, err := NewSpriteSheet(stripTexture(t, b, 10), 292, 292, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(sheet)
	tick(t, w)

	if got := b.At(292, 292); got != stripColors[0] {
		t.Errorf("pixel (292,292) = %v, want frame 0 color %v", got, stripColors[0])
	}
	if got := b.At(301, 301); got != stripColors[0] {
		t.Errorf("pixel (301,301) = %v, want %v", got, stripColors[0])
	}
	if got := b.At(291, 291); got != white {
		t.Errorf("pixel (291,291) = %v, want background", got)
	}
	if got := b.At(302, 292); got != white {
		t.Errorf("pixel (302,292) = %v, want background", got)
	}

	sheet.SetFrame(3)
	tick(t, w)
	if got := b.At(295, 295); got != stripColors[3] {
		t.Errorf("after SetFrame(3) pixel = %v, want %v", got, stripColors[3])
	}
}

func TestWindowLayerOrder(t *testing.T) {
	w, b, _ := newTestWindow(t, 50, 50)
	top, err := NewImage(solidTexture(t, b, 10, 10, stripColors[1]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	top.SetLayer(2)
	bottom, err := NewImage(solidTexture(t, b, 10, 10, stripColors[0]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	bottom.SetLayer(1)
	w.AddImage(top)
	w.AddImage(bottom)
	tick(t, w)

	if got := b.At(5, 5); got != stripColors[1] {
		t.Errorf("pixel = %v, want higher layer %v on top", got, stripColors[1])
	}
}

func TestWindowCameraPlacement(t *testing.T) {
	b := newTestBackend(t, 200, 200)
	w, err := NewWindow(WindowConfig{Width: 200, Height: 200, Background: ColorWhite}, b)
	if err != nil {
		t.Fatal(err)
	}
	cam, err := NewCamera(b, 100, 100, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	cam.SetScroll(10, 0)
	w.AddCamera(cam)
	img, err := NewImage(solidTexture(t, b, 10, 10, stripColors[2]), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	tick(t, w)

	if got := b.At(50, 50); got != stripColors[2] {
		t.Errorf("pixel (50,50) = %v, want %v", got, stripColors[2])
	}
	if got := b.At(49, 50); got != white {
		t.Errorf("pixel (49,50) = %v, want background", got)
	}
	if got := b.At(60, 50); got != white {
		t.Errorf("pixel (60,50) = %v, want background", got)
	}
}

func TestWindowCameraFlip(t *testing.T) {
	w, b, cam := newTestWindow(t, 100, 100)
	cam.SetFlipX(true)
	img, err := NewImage(solidTexture(t, b, 10, 10, stripColors[0]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	tick(t, w)

	if got := b.At(95, 5); got != stripColors[0] {
		t.Errorf("mirrored pixel (95,5) = %v, want %v", got, stripColors[0])
	}
	if got := b.At(5, 5); got != white {
		t.Errorf("pixel (5,5) = %v, want background", got)
	}
}

func TestWindowCameraFlipMirrorsCapturedRegionOnly(t *testing.T) {
	w, b, cam := newTestWindow(t, 100, 100, WithVisibility(VisibilityOff))
	w.SetRenderFrame(200, 100)
	cam.SetFlipX(true)
	inside, err := NewImage(solidTexture(t, b, 10, 10, stripColors[0]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	outside, err := NewImage(solidTexture(t, b, 10, 10, stripColors[2]), 150, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(inside)
	w.AddImage(outside)
	tick(t, w)

	if got := b.At(95, 5); got != stripColors[0] {
		t.Errorf("pixel (95,5) = %v, want captured image mirrored %v", got, stripColors[0])
	}
	// mirroring the whole frame would bring x=150 into view at x=40
	if got := b.At(45, 5); got != white {
		t.Errorf("pixel (45,5) = %v, want background", got)
	}
}

func TestWindowDisplayScale(t *testing.T) {
	b := newTestBackend(t, 200, 200)
	w, err := NewWindow(WindowConfig{Width: 100, Height: 100, Background: ColorWhite, Scale: 2}, b)
	if err != nil {
		t.Fatal(err)
	}
	cam, err := NewCamera(b, 100, 100, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddCamera(cam)
	img, err := NewImage(solidTexture(t, b, 10, 10, stripColors[0]), 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	tick(t, w)

	if got := b.At(25, 25); got != stripColors[0] {
		t.Errorf("pixel (25,25) = %v, want scaled sprite %v", got, stripColors[0])
	}
	if got := b.At(15, 15); got != white {
		t.Errorf("pixel (15,15) = %v, want background", got)
	}
}

func TestVisible(t *testing.T) {
	capture := Rect{Width: 600, Height: 600}
	tests := []struct {
		name string
		mode Visibility
		dest Rect
		want bool
	}{
		{"exact inside", VisibilityExact, Rect{X: 10, Y: 10, Width: 5, Height: 5}, true},
		{"exact partly outside", VisibilityExact, Rect{X: 595, Y: 595, Width: 10, Height: 10}, true},
		{"exact outside", VisibilityExact, Rect{X: 700, Y: 700, Width: 10, Height: 10}, false},
		{"exact left of capture", VisibilityExact, Rect{X: -20, Y: 0, Width: 10, Height: 10}, false},
		{"edge outside over-includes", VisibilityEdgeHeuristic, Rect{X: 700, Y: 700, Width: 10, Height: 10}, true},
		{"edge inside", VisibilityEdgeHeuristic, Rect{X: 10, Y: 10, Width: 5, Height: 5}, true},
		{"off", VisibilityOff, Rect{X: -1000, Y: -1000, Width: 1, Height: 1}, true},
	}
	for _, tt := range tests {
		if got := visible(tt.mode, tt.dest, capture); got != tt.want {
			t.Errorf("%s: visible = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWindowCullsOffscreenButAdvancesTime(t *testing.T) {
	w, b, _ := newTestWindow(t, 100, 100)
	sheet, err := NewSpriteSheet(stripTexture(t, b, 10), 500, 0, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAnimation(sheet, 0, []int{0, 1, 2, 3}, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(a)
	b.Operations()
	tick(t, w)
	tick(t, w)

	for _, op := range b.Operations() {
		if op.Dst.X == 500 {
			t.Errorf("culled animation was drawn: %+v", op)
		}
	}
	if a.Elapsed() == 0 {
		t.Error("culled animation did not advance")
	}
}

func TestWindowVisibilityOffDrawsEverything(t *testing.T) {
	w, b, _ := newTestWindow(t, 100, 100, WithVisibility(VisibilityOff))
	img, err := NewImage(solidTexture(t, b, 4, 4, stripColors[0]), 500, 500)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	b.Operations()
	tick(t, w)

	found := false
	for _, op := range b.Operations() {
		if op.Dst.X == 500 && op.Dst.Y == 500 {
			found = true
		}
	}
	if !found {
		t.Error("offscreen image not drawn with VisibilityOff")
	}
}

func TestWindowDrawsNothingWithoutCameras(t *testing.T) {
	b := newTestBackend(t, 50, 50)
	w, err := NewWindow(WindowConfig{Width: 50, Height: 50, Background: ColorBlack}, b)
	if err != nil {
		t.Fatal(err)
	}
	img, err := NewImage(solidTexture(t, b, 10, 10, stripColors[0]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	tick(t, w)
	if got := b.At(5, 5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixel = %v, want background only", got)
	}
}

func TestWindowRemoveImage(t *testing.T) {
	w, b, _ := newTestWindow(t, 50, 50)
	img, err := NewImage(solidTexture(t, b, 10, 10, stripColors[0]), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(img)
	w.RemoveImage(img)
	w.RemoveImage(img)
	if n := len(w.Images()); n != 0 {
		t.Fatalf("len(Images) = %d, want 0", n)
	}
	tick(t, w)
	if got := b.At(5, 5); got != white {
		t.Errorf("removed image still drawn: %v", got)
	}
	if img.IsDisposed() {
		t.Error("RemoveImage disposed the image")
	}
}

func TestWindowCameraOrder(t *testing.T) {
	w, b, first := newTestWindow(t, 50, 50)
	second, err := NewCamera(b, 50, 50, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	second.SetLayer(-1)
	w.AddCamera(second)
	cams := w.Cameras()
	if len(cams) != 2 || cams[0] != second || cams[1] != first {
		t.Errorf("Cameras not sorted by layer")
	}
	w.RemoveCamera(second)
	if cams := w.Cameras(); len(cams) != 1 || cams[0] != first {
		t.Errorf("RemoveCamera left %d cameras", len(cams))
	}
}

func TestWindowEventsReachHandlerAndSink(t *testing.T) {
	w, b, _ := newTestWindow(t, 10, 10)
	var handled, sunk []Event
	w.SetEventHandler(func(ev Event, dt float64) { handled = append(handled, ev) })
	w.SetEventSink(EventSinkFunc(func(ev Event, dt float64) { sunk = append(sunk, ev) }))

	b.InjectKeyDown(ebiten.KeySpace)
	tick(t, w)

	if len(handled) != 1 || handled[0].Type != EventKeyDown || handled[0].Key != ebiten.KeySpace {
		t.Errorf("handler got %+v, want one Space keydown", handled)
	}
	if len(sunk) != 1 {
		t.Errorf("sink got %d events, want 1", len(sunk))
	}
	if !w.KeyDown(ebiten.KeySpace) {
		t.Error("KeyDown(Space) = false after keydown")
	}

	b.InjectKeyUp(ebiten.KeySpace)
	tick(t, w)
	if w.KeyDown(ebiten.KeySpace) {
		t.Error("KeyDown(Space) = true after keyup")
	}
}

func TestWindowCloseEventStopsDispatch(t *testing.T) {
	w, b, _ := newTestWindow(t, 10, 10)
	var got []EventType
	w.SetEventHandler(func(ev Event, dt float64) { got = append(got, ev.Type) })

	b.InjectKeyDown(ebiten.KeyA)
	b.InjectClose()
	b.InjectKeyDown(ebiten.KeyB)

	if err := w.Tick(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Tick = %v, want ErrClosed", err)
	}
	if len(got) != 2 || got[0] != EventKeyDown || got[1] != EventClose {
		t.Errorf("dispatched %v, want [keydown close]", got)
	}
	if !w.IsClosed() {
		t.Error("IsClosed = false after close event")
	}
	if err := w.Tick(); !errors.Is(err, ErrClosed) {
		t.Errorf("Tick after close = %v, want ErrClosed", err)
	}
}

func TestWindowSetRenderFrame(t *testing.T) {
	w, b, _ := newTestWindow(t, 600, 600)
	w.SetRenderFrame(100, 100)
	if f := w.RenderFrame(); f.Width != 600 || f.Height != 600 {
		t.Errorf("RenderFrame = %+v, want raised to window size", f)
	}

	live := b.LiveTextures()
	w.SetRenderFrame(800, 700)
	tick(t, w)
	if f := w.RenderFrame(); f.Width != 800 || f.Height != 700 {
		t.Errorf("RenderFrame = %+v, want 800x700", f)
	}
	if iw, ih := w.intermediate.Size(); iw != 800 || ih != 700 {
		t.Errorf("intermediate = %dx%d, want 800x700", iw, ih)
	}
	if b.LiveTextures() != live {
		t.Errorf("LiveTextures = %d, want %d (old target released)", b.LiveTextures(), live)
	}
}

func TestWindowFrameTimeFromPacer(t *testing.T) {
	w, _, _ := newTestWindow(t, 10, 10)
	if w.FrameTime() != 0 {
		t.Errorf("FrameTime before first tick = %v, want 0", w.FrameTime())
	}
	tick(t, w)
	want := (time.Second / 60).Seconds()
	if w.FrameTime() != want {
		t.Errorf("FrameTime = %v, want fixed step %v", w.FrameTime(), want)
	}
	if w.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", w.Frames())
	}
}

func TestWindowAnimationAdvancesByFrameTime(t *testing.T) {
	w, b, _ := newTestWindow(t, 50, 50)
	step := (time.Second / 60).Seconds()
	sheet, err := NewSpriteSheet(stripTexture(t, b, 10), 0, 0, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAnimation(sheet, 0, []int{2, 4}, step)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(a)

	// tick 1 draws the start frame and advances by 0
	tick(t, w)
	if got := b.At(5, 5); got != stripColors[0] {
		t.Errorf("tick 1 pixel = %v, want start frame %v", got, stripColors[0])
	}
	tick(t, w)
	if got := b.At(5, 5); got != stripColors[2] {
		t.Errorf("tick 2 pixel = %v, want %v", got, stripColors[2])
	}
	tick(t, w)
	if got := b.At(5, 5); got != stripColors[4] {
		t.Errorf("tick 3 pixel = %v, want %v", got, stripColors[4])
	}
}

func TestWindowDebugLog(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelDebug)
	w, _, _ := newTestWindow(t, 10, 10, WithLogger(log), WithDebug(true))
	tick(t, w)
	if !strings.Contains(buf.String(), "msg=frame") {
		t.Errorf("debug log missing frame entry:\n%s", buf.String())
	}
}

func TestWindowDispose(t *testing.T) {
	w, b, cam := newTestWindow(t, 10, 10)
	live := b.LiveTextures()
	w.Dispose()
	w.Dispose()
	if b.LiveTextures() != live-1 {
		t.Errorf("LiveTextures = %d, want %d", b.LiveTextures(), live-1)
	}
	if !w.IsClosed() {
		t.Error("disposed window is not closed")
	}
	if err := w.Tick(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Tick after Dispose = %v, want ErrDisposed", err)
	}
	if cam.IsDisposed() {
		t.Error("window disposed its camera")
	}
}
