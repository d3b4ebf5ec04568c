package aspen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// HeadlessBackend is a software Backend drawing into in-memory RGBA images.
// It needs no display or GPU, which makes it suitable for tests, servers
// and batch rendering. Input comes only from the Inject methods.
type HeadlessBackend struct {
	log       *slog.Logger
	maxFrames int
	fixedStep time.Duration
	record    bool

	display   *image.RGBA
	presented *image.RGBA
	target    *headlessTexture
	scaleX    float64
	scaleY    float64
	frames    atomic.Int64
	ops       []CopyOp

	// texture bookkeeping changes from the driver too, e.g. Text.SetText
	nextID atomic.Int64
	live   atomic.Int64

	// mu guards input state, which may be injected from any goroutine.
	mu     sync.Mutex
	events []Event
	keys   KeyboardState
}

// HeadlessOption configures a HeadlessBackend.
type HeadlessOption func(*HeadlessBackend)

// WithHeadlessLogger sets the backend's logger.
func WithHeadlessLogger(log *slog.Logger) HeadlessOption {
	return func(b *HeadlessBackend) {
		b.log = log
	}
}

// WithMaxFrames stops Run after n frames. Zero means no limit.
func WithMaxFrames(n int) HeadlessOption {
	return func(b *HeadlessBackend) {
		b.maxFrames = n
	}
}

// WithFixedStep makes every frame last exactly d without sleeping, so
// animations advance deterministically.
func WithFixedStep(d time.Duration) HeadlessOption {
	return func(b *HeadlessBackend) {
		b.fixedStep = d
	}
}

// WithRecordOperations records every Copy for inspection with Operations.
func WithRecordOperations(enabled bool) HeadlessOption {
	return func(b *HeadlessBackend) {
		b.record = enabled
	}
}

// CopyOp is one recorded Copy call.
type CopyOp struct {
	// Target is the ID of the bound render target, or 0 for the display.
	Target int
	// Source is the ID of the copied texture.
	Source int
	Src    Rect
	Dst    Rect
	Flip   Flip
}

// NewHeadlessBackend returns a backend whose display is w×h pixels.
func NewHeadlessBackend(w, h int, opts ...HeadlessOption) (*HeadlessBackend, error) {
	if w <= 0 || h <= 0 {
		return nil, configErrorf("display size", "%dx%d, want positive dimensions", w, h)
	}
	b := &HeadlessBackend{
		display: image.NewRGBA(image.Rect(0, 0, w, h)),
		scaleX:  1,
		scaleY:  1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = Logger()
	}
	b.presented = image.NewRGBA(b.display.Rect)
	return b, nil
}

// headlessTexture is a texture or render target of a HeadlessBackend.
type headlessTexture struct {
	id       int
	img      *image.RGBA
	owner    *HeadlessBackend
	disposed bool
}

func (t *headlessTexture) Size() (w, h int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

func (t *headlessTexture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.owner.live.Add(-1)
}

// ID returns the texture's identifier as used in CopyOp.
func (t *headlessTexture) ID() int { return t.id }

// Image returns the texture pixels.
func (t *headlessTexture) Image() *image.RGBA { return t.img }

func (b *HeadlessBackend) newTexture(img *image.RGBA) *headlessTexture {
	b.live.Add(1)
	return &headlessTexture{id: int(b.nextID.Add(1)), img: img, owner: b}
}

// NewTexture copies img into a new texture.
func (b *HeadlessBackend) NewTexture(img image.Image) (Texture, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("empty image %v", bounds)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	return b.newTexture(rgba), nil
}

// NewRenderTarget returns a transparent w×h texture.
func (b *HeadlessBackend) NewRenderTarget(w, h int) (Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render target %dx%d", w, h)
	}
	return b.newTexture(image.NewRGBA(image.Rect(0, 0, w, h))), nil
}

// SetTarget binds t, or the display when t is nil. Textures from another
// backend bind the display.
func (b *HeadlessBackend) SetTarget(t Texture) {
	ht, _ := t.(*headlessTexture)
	b.target = ht
}

func (b *HeadlessBackend) bound() *image.RGBA {
	if b.target == nil {
		return b.display
	}
	return b.target.img
}

// Clear fills the bound target with c.
func (b *HeadlessBackend) Clear(c Color) {
	dst := b.bound()
	draw.Draw(dst, dst.Rect, image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

// Copy draws the srcRect region of src into dst on the bound target with
// nearest-neighbour scaling. Copies onto the display are scaled by the
// display scale.
func (b *HeadlessBackend) Copy(src Texture, srcRect *Rect, dst Rect, flip Flip) {
	ht, ok := src.(*headlessTexture)
	if !ok || ht.disposed {
		return
	}
	sr := ht.img.Rect
	if srcRect != nil {
		sr = srcRect.Bounds().Intersect(ht.img.Rect)
	}
	if b.target == nil {
		dst = Rect{
			X:      roundPos(float64(dst.X) * b.scaleX),
			Y:      roundPos(float64(dst.Y) * b.scaleY),
			Width:  roundPos(float64(dst.Width) * b.scaleX),
			Height: roundPos(float64(dst.Height) * b.scaleY),
		}
	}
	if b.record {
		op := CopyOp{Source: ht.id, Src: RectFromBounds(sr), Dst: dst, Flip: flip}
		if b.target != nil {
			op.Target = b.target.id
		}
		b.ops = append(b.ops, op)
	}
	if sr.Empty() || dst.Empty() {
		return
	}

	sx := float64(dst.Width) / float64(sr.Dx())
	sy := float64(dst.Height) / float64(sr.Dy())
	// s2d maps source pixel space onto destination pixel space.
	m := f64.Aff3{
		sx, 0, float64(dst.X) - float64(sr.Min.X)*sx,
		0, sy, float64(dst.Y) - float64(sr.Min.Y)*sy,
	}
	if flip.Horizontal() {
		m[0] = -sx
		m[2] = float64(dst.Right()) + float64(sr.Min.X)*sx
	}
	if flip.Vertical() {
		m[4] = -sy
		m[5] = float64(dst.Bottom()) + float64(sr.Min.Y)*sy
	}
	draw.NearestNeighbor.Transform(b.bound(), m, ht.img, sr, draw.Over, nil)
}

// SetScale sets the scale applied to copies onto the display.
func (b *HeadlessBackend) SetScale(x, y float64) {
	b.scaleX, b.scaleY = x, y
}

// Present publishes the display for Snapshot and ReadScreen.
func (b *HeadlessBackend) Present() {
	copy(b.presented.Pix, b.display.Pix)
	b.frames.Add(1)
}

// Snapshot returns a copy of the last presented display.
func (b *HeadlessBackend) Snapshot() *image.RGBA {
	img := image.NewRGBA(b.presented.Rect)
	copy(img.Pix, b.presented.Pix)
	return img
}

// At returns the presented color at display pixel (x, y).
func (b *HeadlessBackend) At(x, y int) color.RGBA {
	return b.presented.RGBAAt(x, y)
}

// ReadScreen returns the last presented display as premultiplied RGBA.
func (b *HeadlessBackend) ReadScreen() ([]byte, int, int, error) {
	pix := make([]byte, len(b.presented.Pix))
	copy(pix, b.presented.Pix)
	return pix, b.presented.Rect.Dx(), b.presented.Rect.Dy(), nil
}

// Operations returns the recorded copies and clears the record.
func (b *HeadlessBackend) Operations() []CopyOp {
	ops := b.ops
	b.ops = nil
	return ops
}

// Frames returns the number of presented frames.
func (b *HeadlessBackend) Frames() int { return int(b.frames.Load()) }

// LiveTextures returns the number of textures created and not yet disposed.
func (b *HeadlessBackend) LiveTextures() int { return int(b.live.Load()) }

// Run calls frame until it returns an error or MaxFrames frames have been
// presented. ErrClosed ends the loop without error. The display is resized
// to cfg when it differs.
func (b *HeadlessBackend) Run(cfg WindowConfig, frame func() error) error {
	if cfg.Width > 0 && cfg.Height > 0 && (cfg.Width != b.display.Rect.Dx() || cfg.Height != b.display.Rect.Dy()) {
		b.display = image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		b.presented = image.NewRGBA(b.display.Rect)
	}
	b.log.Debug("headless run", "title", cfg.Title, "max_frames", b.maxFrames)
	for n := 0; b.maxFrames == 0 || n < b.maxFrames; n++ {
		if err := frame(); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// PaceFrame sleeps out the rest of the period, or returns the fixed step
// when one is configured.
func (b *HeadlessBackend) PaceFrame(start time.Time, period time.Duration) time.Duration {
	if b.fixedStep > 0 {
		return b.fixedStep
	}
	if d := period - time.Since(start); d > 0 {
		time.Sleep(d)
	}
	return time.Since(start)
}

// InjectKeyDown queues a key press and marks key held.
func (b *HeadlessBackend) InjectKeyDown(key ebiten.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = b.keys.set(key, true)
	b.events = append(b.events, Event{Type: EventKeyDown, Key: key, Mods: modifiersOf(&b.keys)})
}

// InjectKeyUp queues a key release and marks key up.
func (b *HeadlessBackend) InjectKeyUp(key ebiten.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = b.keys.set(key, false)
	b.events = append(b.events, Event{Type: EventKeyUp, Key: key, Mods: modifiersOf(&b.keys)})
}

// InjectClose queues a window-close request.
func (b *HeadlessBackend) InjectClose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Type: EventClose})
}

// PollEvents returns and clears the injected events.
func (b *HeadlessBackend) PollEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := b.events
	b.events = nil
	return ev
}

// Keyboard returns the injected key state.
func (b *HeadlessBackend) Keyboard() KeyboardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keys
}
