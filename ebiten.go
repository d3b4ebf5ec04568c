package aspen

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitenBackend draws through Ebitengine. Run must be called from the main
// goroutine; Window.StartMainLoop arranges that.
type EbitenBackend struct {
	// ShowFPS draws the measured FPS and TPS in the top-left corner.
	ShowFPS bool

	log     *slog.Logger
	screen  *ebiten.Image
	target  *ebiten.Image
	scaleX  float64
	scaleY  float64
	events  []Event
	keys    KeyboardState
	lastRun time.Time
	op      ebiten.DrawImageOptions
}

// NewEbitenBackend returns an EbitenBackend logging to log, or to the
// package logger when log is nil.
func NewEbitenBackend(log *slog.Logger) *EbitenBackend {
	if log == nil {
		log = Logger()
	}
	return &EbitenBackend{log: log, scaleX: 1, scaleY: 1}
}

// ebitenTexture wraps an *ebiten.Image.
type ebitenTexture struct {
	img      *ebiten.Image
	disposed bool
}

func (t *ebitenTexture) Size() (w, h int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

func (t *ebitenTexture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.img.Deallocate()
}

// EbitenImage returns the underlying image of a texture created by an
// EbitenBackend, or nil for other textures.
func EbitenImage(t Texture) *ebiten.Image {
	if et, ok := t.(*ebitenTexture); ok {
		return et.img
	}
	return nil
}

// NewTexture uploads img.
func (b *EbitenBackend) NewTexture(img image.Image) (Texture, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image %v", img.Bounds())
	}
	return &ebitenTexture{img: ebiten.NewImageFromImage(img)}, nil
}

// NewRenderTarget allocates an offscreen w×h image.
func (b *EbitenBackend) NewRenderTarget(w, h int) (Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render target %dx%d", w, h)
	}
	return &ebitenTexture{img: ebiten.NewImage(w, h)}, nil
}

// SetTarget binds t, or the screen when t is nil.
func (b *EbitenBackend) SetTarget(t Texture) {
	b.target = EbitenImage(t)
}

func (b *EbitenBackend) bound() *ebiten.Image {
	if b.target != nil {
		return b.target
	}
	return b.screen
}

// Clear fills the bound target with c.
func (b *EbitenBackend) Clear(c Color) {
	if dst := b.bound(); dst != nil {
		dst.Fill(c.RGBA())
	}
}

// Copy draws the srcRect region of src into dst on the bound target.
func (b *EbitenBackend) Copy(src Texture, srcRect *Rect, dst Rect, flip Flip) {
	target := b.bound()
	img := EbitenImage(src)
	if target == nil || img == nil || dst.Empty() {
		return
	}
	if srcRect != nil {
		img = img.SubImage(srcRect.Bounds()).(*ebiten.Image)
	}
	sb := img.Bounds()
	if sb.Empty() {
		return
	}

	op := &b.op
	op.GeoM.Reset()
	sx := float64(dst.Width) / float64(sb.Dx())
	sy := float64(dst.Height) / float64(sb.Dy())
	if flip.Horizontal() {
		op.GeoM.Scale(-1, 1)
		op.GeoM.Translate(float64(sb.Dx()), 0)
	}
	if flip.Vertical() {
		op.GeoM.Scale(1, -1)
		op.GeoM.Translate(0, float64(sb.Dy()))
	}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(float64(dst.X), float64(dst.Y))
	if b.target == nil {
		op.GeoM.Scale(b.scaleX, b.scaleY)
	}
	target.DrawImage(img, op)
}

// SetScale sets the scale applied to copies onto the screen.
func (b *EbitenBackend) SetScale(x, y float64) {
	b.scaleX, b.scaleY = x, y
}

// Present draws the FPS overlay when enabled. Ebitengine presents the
// screen itself after Draw returns.
func (b *EbitenBackend) Present() {
	if b.ShowFPS && b.screen != nil {
		ebitenutil.DebugPrint(b.screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// ReadScreen reads back the screen. Only valid during a frame.
func (b *EbitenBackend) ReadScreen() ([]byte, int, int, error) {
	if b.screen == nil {
		return nil, 0, 0, errors.New("no screen outside a frame")
	}
	bounds := b.screen.Bounds()
	pixels := make([]byte, 4*bounds.Dx()*bounds.Dy())
	b.screen.ReadPixels(pixels)
	return pixels, bounds.Dx(), bounds.Dy(), nil
}

// PollEvents returns the events collected by the last Update.
func (b *EbitenBackend) PollEvents() []Event {
	ev := b.events
	b.events = nil
	return ev
}

// Keyboard returns the key state read by the last Update.
func (b *EbitenBackend) Keyboard() KeyboardState { return b.keys }

// PaceFrame returns the time since the previous frame. Ebitengine paces
// frames itself.
func (b *EbitenBackend) PaceFrame(start time.Time, period time.Duration) time.Duration {
	now := time.Now()
	last := b.lastRun
	b.lastRun = now
	if last.IsZero() {
		return period
	}
	return now.Sub(last)
}

// Run opens the window and runs the game loop until frame returns an error
// or the window is closed.
func (b *EbitenBackend) Run(cfg WindowConfig, frame func() error) error {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(int(float64(cfg.Width)*scale), int(float64(cfg.Height)*scale))
	ebiten.SetWindowClosingHandled(true)
	if cfg.FPS > 0 {
		ebiten.SetTPS(cfg.FPS)
	}
	b.log.Info("ebiten run", "title", cfg.Title, "width", cfg.Width, "height", cfg.Height)

	err := ebiten.RunGame(&ebitenGame{backend: b, frame: frame})
	if errors.Is(err, ebiten.Termination) || errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// ebitenGame adapts the frame callback to ebiten.Game.
type ebitenGame struct {
	backend *EbitenBackend
	frame   func() error
	err     error
	keyBuf  []ebiten.Key
}

// Update collects input. Rendering and event dispatch happen in Draw so
// that one frame callback covers a whole render tick.
func (g *ebitenGame) Update() error {
	if g.err != nil {
		if errors.Is(g.err, ErrClosed) {
			return ebiten.Termination
		}
		return g.err
	}
	b := g.backend
	mods := readModifiers()

	g.keyBuf = inpututil.AppendJustPressedKeys(g.keyBuf[:0])
	for _, k := range g.keyBuf {
		b.events = append(b.events, Event{Type: EventKeyDown, Key: k, Mods: mods})
	}
	g.keyBuf = inpututil.AppendJustReleasedKeys(g.keyBuf[:0])
	for _, k := range g.keyBuf {
		b.events = append(b.events, Event{Type: EventKeyUp, Key: k, Mods: mods})
	}
	if ebiten.IsWindowBeingClosed() {
		b.events = append(b.events, Event{Type: EventClose})
	}

	var keys KeyboardState
	g.keyBuf = inpututil.AppendPressedKeys(g.keyBuf[:0])
	for _, k := range g.keyBuf {
		keys = keys.set(k, true)
	}
	b.keys = keys
	return nil
}

// Draw runs one render tick onto screen.
func (g *ebitenGame) Draw(screen *ebiten.Image) {
	if g.err != nil {
		return
	}
	g.backend.screen = screen
	g.err = g.frame()
	g.backend.screen = nil
}

func (g *ebitenGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
