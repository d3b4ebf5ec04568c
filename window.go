package aspen

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// Visibility selects how the window decides whether a drawable can be seen
// by a camera.
type Visibility uint8

const (
	// VisibilityExact draws a drawable when its destination rectangle
	// intersects a camera's capture rectangle.
	VisibilityExact Visibility = iota
	// VisibilityEdgeHeuristic compares rectangle edges independently. It
	// over-includes most drawables and is kept for scenes tuned against it.
	VisibilityEdgeHeuristic
	// VisibilityOff draws every drawable.
	VisibilityOff
)

// WindowConfig holds the fixed parameters of a window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// RenderFrame sizes the intermediate target. Dimensions smaller than
	// the window are raised to the window size.
	RenderFrame Rect  `yaml:"render_frame"`
	Background  Color `yaml:"background"`
	// FPS is the target frame rate. Zero means DefaultFPS.
	FPS int `yaml:"fps"`
	// Scale is applied to every copy onto the display. Zero means 1.
	Scale   float64    `yaml:"scale"`
	Culling Visibility `yaml:"culling"`
}

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

// Option configures a Window.
type Option func(*Window)

// WithLogger sets the window's logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Window) {
		w.log = log
	}
}

// WithDebug enables per-frame timing and draw-count logs at debug level.
func WithDebug(enabled bool) Option {
	return func(w *Window) {
		w.debug = enabled
	}
}

// WithEventSink installs a sink that receives every dispatched event.
func WithEventSink(sink EventSink) Option {
	return func(w *Window) {
		w.sink = sink
	}
}

// WithVisibility overrides the configured culling mode.
func WithVisibility(v Visibility) Option {
	return func(w *Window) {
		w.cfg.Culling = v
	}
}

// Window is the root driver. It owns the display, the intermediate target
// that directly owned drawables are composed into, and the cameras that
// capture it. The render loop and the simulation driver run on separate
// goroutines; see StartMainLoop.
type Window struct {
	cfg     WindowConfig
	backend Backend
	log     *slog.Logger
	debug   bool

	// queueMu guards the queues and everything else set from outside the
	// render loop between ticks.
	queueMu      sync.Mutex
	images       []Drawable
	cameras      []*Camera
	mainFn       func()
	handler      func(Event, float64)
	sink         EventSink
	pendingFrame *Rect
	scaleX       float64
	scaleY       float64
	screenshots  []string
	script       *InputScript

	// sceneMu is held by the driver around the main func and by the render
	// loop while it composes and dispatches events.
	sceneMu sync.Mutex

	// intermediate is touched only by the render loop. renderFrame is
	// written there too but read from any goroutine, so it is under queueMu.
	intermediate Texture
	renderFrame  Rect
	loader       *Loader

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string

	frames    atomic.Uint64
	fps       atomic.Int64
	frameTime atomic.Uint64
	deltaTime atomic.Uint64
	keys      atomic.Pointer[KeyboardState]
	closed    atomic.Bool
	disposed  atomic.Bool
}

// NewWindow creates a window drawing through backend. The intermediate
// target is allocated eagerly; if that fails no window is returned.
func NewWindow(cfg WindowConfig, backend Backend, opts ...Option) (*Window, error) {
	if backend == nil {
		return nil, configErrorf("backend", "nil backend")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, configErrorf("window size", "%dx%d, want positive dimensions", cfg.Width, cfg.Height)
	}
	if cfg.FPS < 0 {
		return nil, configErrorf("fps", "%d, want a positive frame rate", cfg.FPS)
	}
	if cfg.FPS == 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.Scale < 0 {
		return nil, configErrorf("scale", "%v, want a positive factor", cfg.Scale)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}

	w := &Window{
		cfg:           cfg,
		backend:       backend,
		scaleX:        cfg.Scale,
		scaleY:        cfg.Scale,
		ScreenshotDir: "screenshots",
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = Logger()
	}
	w.fps.Store(int64(cfg.FPS))
	w.keys.Store(&KeyboardState{})

	frame := w.clampFrame(cfg.RenderFrame.Width, cfg.RenderFrame.Height)
	if err := w.allocIntermediate(frame); err != nil {
		return nil, err
	}
	backend.SetScale(w.scaleX, w.scaleY)
	w.loader = NewLoader(backend, w.log)

	w.log.Debug("window created",
		"title", cfg.Title, "width", cfg.Width, "height", cfg.Height,
		"render_frame", frame, "fps", cfg.FPS)
	return w, nil
}

// clampFrame raises a render-frame size to at least the window size.
func (w *Window) clampFrame(width, height int) Rect {
	return Rect{Width: max(width, w.cfg.Width), Height: max(height, w.cfg.Height)}
}

func (w *Window) allocIntermediate(frame Rect) error {
	t, err := w.backend.NewRenderTarget(frame.Width, frame.Height)
	if err != nil {
		return &ResourceLoadError{Kind: ResourceTexture, Path: "intermediate target", Err: err}
	}
	if w.intermediate != nil {
		w.intermediate.Dispose()
	}
	w.intermediate = t
	w.queueMu.Lock()
	w.renderFrame = frame
	w.queueMu.Unlock()
	return nil
}

// AddImage adds d to the window's directly owned queue and re-sorts the
// queue by layer. Ties keep insertion order.
func (w *Window) AddImage(d Drawable) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	w.images = append(w.images, d)
	sortByLayer(w.images)
}

// RemoveImage removes every occurrence of d. Removing a drawable the window
// does not hold is a no-op. The drawable is not disposed.
func (w *Window) RemoveImage(d Drawable) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	w.images = removeDrawable(w.images, d)
}

// Images returns the directly owned queue in draw order.
func (w *Window) Images() []Drawable {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	return append([]Drawable(nil), w.images...)
}

// AddCamera adds c and re-sorts the cameras by their layer.
func (w *Window) AddCamera(c *Camera) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	w.cameras = append(w.cameras, c)
	sortCameras(w.cameras)
}

// RemoveCamera removes every occurrence of c. The camera is not disposed.
func (w *Window) RemoveCamera(c *Camera) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	out := w.cameras[:0]
	for _, e := range w.cameras {
		if e != c {
			out = append(out, e)
		}
	}
	for i := len(out); i < len(w.cameras); i++ {
		w.cameras[i] = nil
	}
	w.cameras = out
}

// Cameras returns the cameras in composite order.
func (w *Window) Cameras() []*Camera {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	return append([]*Camera(nil), w.cameras...)
}

// SetMainFunc sets the callback the driver invokes in a tight loop.
func (w *Window) SetMainFunc(fn func()) {
	w.queueMu.Lock()
	w.mainFn = fn
	w.queueMu.Unlock()
}

// SetEventHandler sets the callback invoked for every polled event with the
// driver's current delta time.
func (w *Window) SetEventHandler(fn func(ev Event, dt float64)) {
	w.queueMu.Lock()
	w.handler = fn
	w.queueMu.Unlock()
}

// SetEventSink replaces the event sink. Nil removes it.
func (w *Window) SetEventSink(sink EventSink) {
	w.queueMu.Lock()
	w.sink = sink
	w.queueMu.Unlock()
}

// SetFPS sets the target frame rate. Non-positive values are ignored.
func (w *Window) SetFPS(fps int) {
	if fps > 0 {
		w.fps.Store(int64(fps))
	}
}

// FPS returns the target frame rate.
func (w *Window) FPS() int { return int(w.fps.Load()) }

// FrameTime returns the duration of the last render tick in seconds,
// including pacing. Drawables are advanced by this amount each tick.
func (w *Window) FrameTime() float64 { return math.Float64frombits(w.frameTime.Load()) }

// DeltaTime returns the wall time of the driver's previous main func call
// in seconds.
func (w *Window) DeltaTime() float64 { return math.Float64frombits(w.deltaTime.Load()) }

func (w *Window) setFrameTime(s float64) { w.frameTime.Store(math.Float64bits(s)) }
func (w *Window) setDeltaTime(s float64) { w.deltaTime.Store(math.Float64bits(s)) }

// KeyDown reports whether key was held at the last event poll.
func (w *Window) KeyDown(key ebiten.Key) bool { return w.keys.Load().Down(key) }

// Keyboard returns the keyboard snapshot taken at the last event poll. The
// snapshot is never modified.
func (w *Window) Keyboard() *KeyboardState { return w.keys.Load() }

// IsClosed reports whether the window has been closed. Once true it stays
// true.
func (w *Window) IsClosed() bool { return w.closed.Load() }

// Close asks both loops to stop at their next check.
func (w *Window) Close() {
	if w.closed.CompareAndSwap(false, true) {
		w.log.Debug("window closed")
	}
}

// SetRenderFrame resizes the intermediate target. Each dimension is raised
// to at least the window size. The target is recreated at the start of the
// next tick.
func (w *Window) SetRenderFrame(width, height int) {
	frame := w.clampFrame(width, height)
	w.queueMu.Lock()
	w.pendingFrame = &frame
	w.queueMu.Unlock()
}

// RenderFrame returns the size of the intermediate target, including a
// resize that has not been applied yet.
func (w *Window) RenderFrame() Rect {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if w.pendingFrame != nil {
		return *w.pendingFrame
	}
	return w.renderFrame
}

// SetScale sets the scale of copies onto the display.
func (w *Window) SetScale(x, y float64) {
	w.queueMu.Lock()
	w.scaleX, w.scaleY = x, y
	w.queueMu.Unlock()
}

// Scale returns the display scale.
func (w *Window) Scale() (x, y float64) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	return w.scaleX, w.scaleY
}

// Width returns the window width in pixels.
func (w *Window) Width() int { return w.cfg.Width }

// Height returns the window height in pixels.
func (w *Window) Height() int { return w.cfg.Height }

// Title returns the window title.
func (w *Window) Title() string { return w.cfg.Title }

// Config returns the configuration the window was created with, with
// defaults applied.
func (w *Window) Config() WindowConfig { return w.cfg }

// Backend returns the backend the window draws through.
func (w *Window) Backend() Backend { return w.backend }

// Loader returns a loader that creates textures on the window's backend.
func (w *Window) Loader() *Loader { return w.loader }

// Do runs fn while holding the scene lock, so fn may mutate drawables that
// the render loop reads. The main func already runs under the lock and must
// not call Do.
func (w *Window) Do(fn func()) {
	w.sceneMu.Lock()
	defer w.sceneMu.Unlock()
	fn()
}

// Dispose closes the window and releases the intermediate target. Cameras
// and drawables are owned by their creators and are not disposed. Dispose
// must not be called while StartMainLoop is running.
func (w *Window) Dispose() {
	if !w.disposed.CompareAndSwap(false, true) {
		return
	}
	w.Close()
	if w.intermediate != nil {
		w.intermediate.Dispose()
		w.intermediate = nil
	}
}

// sortCameras orders cameras by ascending layer; equal layers keep their
// insertion order.
func sortCameras(cams []*Camera) {
	// insertion sort is stable and the list is short
	for i := 1; i < len(cams); i++ {
		for j := i; j > 0 && cams[j].Layer() < cams[j-1].Layer(); j-- {
			cams[j], cams[j-1] = cams[j-1], cams[j]
		}
	}
}

// visible reports whether dest can be seen through a camera capturing
// capture under mode v.
func visible(v Visibility, dest, capture Rect) bool {
	switch v {
	case VisibilityOff:
		return true
	case VisibilityEdgeHeuristic:
		// Compares the capture width and height against positions, as the
		// heuristic always has.
		if (capture.X < dest.X || capture.Width > dest.X) &&
			(capture.Y < dest.Y || capture.Height > dest.Y) {
			return true
		}
		return (capture.X < dest.Right() || capture.Width > dest.Right()) &&
			(capture.Y < dest.Bottom() || capture.Height > dest.Bottom())
	default:
		return dest.Intersects(capture)
	}
}
