package aspen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// framePacer is implemented by backends that control frame timing
// themselves. PaceFrame is called at the end of a tick that started at
// start and returns the duration to record as the frame time.
type framePacer interface {
	PaceFrame(start time.Time, period time.Duration) time.Duration
}

// tickSnapshot is the state a render tick works on, copied under queueMu
// at the start of the tick.
type tickSnapshot struct {
	images  []Drawable
	cameras []*Camera
	handler func(Event, float64)
	sink    EventSink
	frame   *Rect
	current Rect
	scaleX  float64
	scaleY  float64
	shots   []string
	script  *InputScript
}

func (w *Window) snapshot() tickSnapshot {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	s := tickSnapshot{
		images:  append([]Drawable(nil), w.images...),
		cameras: append([]*Camera(nil), w.cameras...),
		handler: w.handler,
		sink:    w.sink,
		frame:   w.pendingFrame,
		current: w.renderFrame,
		scaleX:  w.scaleX,
		scaleY:  w.scaleY,
		shots:   w.screenshots,
		script:  w.script,
	}
	w.pendingFrame = nil
	w.screenshots = nil
	return s
}

// Tick runs one render-loop iteration: compose, present, dispatch events
// and pace. It returns ErrClosed once the window has been closed. Tick must
// be called from the goroutine that owns the backend.
func (w *Window) Tick() error {
	if w.disposed.Load() {
		return ErrDisposed
	}
	if w.closed.Load() {
		return ErrClosed
	}
	start := time.Now()
	snap := w.snapshot()

	if snap.frame != nil && *snap.frame != snap.current {
		if err := w.allocIntermediate(*snap.frame); err != nil {
			w.log.Error("resize render frame", "error", err)
			return err
		}
		w.log.Debug("render frame resized", "frame", *snap.frame)
	}
	w.backend.SetScale(snap.scaleX, snap.scaleY)

	w.sceneMu.Lock()
	stats := w.compose(snap)
	w.sceneMu.Unlock()
	stats.compose = time.Since(start)

	w.backend.Present()
	if len(snap.shots) > 0 {
		w.flushScreenshots(snap.shots)
	}

	if snap.script != nil {
		if inj, ok := w.backend.(Injector); ok {
			snap.script.step(w, inj)
		}
	}
	w.sceneMu.Lock()
	stats.events = w.dispatchEvents(snap)
	w.sceneMu.Unlock()

	w.frames.Add(1)
	ft := w.pace(start)
	w.setFrameTime(ft.Seconds())
	stats.frame = ft
	w.debugLog(stats)

	if w.closed.Load() {
		return ErrClosed
	}
	return nil
}

// compose clears the display and the intermediate target, draws visible
// drawables into the intermediate target, advances every drawable, and
// composites each camera onto the display.
func (w *Window) compose(snap tickSnapshot) debugStats {
	var stats debugStats
	r := w.backend
	dt := w.FrameTime()

	r.SetTarget(nil)
	r.Clear(w.cfg.Background)
	r.SetTarget(w.intermediate)
	r.Clear(Color{})

	mode := w.cfg.Culling
	for _, d := range snap.images {
		dest := d.DestRect()
		for _, c := range snap.cameras {
			if visible(mode, dest, c.CaptureRect()) {
				if drawTo(r, d) {
					stats.drawn++
				}
				break
			}
		}
		d.AddTime(dt)
	}
	stats.culled = len(snap.images) - stats.drawn
	r.SetTarget(nil)

	for _, c := range snap.cameras {
		c.AddTime(dt)
		stats.drawn += c.capture(r, w.intermediate)
		if tex := c.Texture(); tex != nil {
			r.Copy(tex, nil, c.DestRect(), FlipNone)
		}
	}
	stats.cameras = len(snap.cameras)
	return stats
}

// dispatchEvents publishes the keyboard snapshot and hands each polled
// event to the handler and the sink. A close event marks the window closed
// and drops the rest of the batch.
func (w *Window) dispatchEvents(snap tickSnapshot) int {
	events := w.backend.PollEvents()
	keys := w.backend.Keyboard()
	w.keys.Store(&keys)

	dt := w.DeltaTime()
	n := 0
	for _, ev := range events {
		n++
		if snap.handler != nil {
			snap.handler(ev, dt)
		}
		if snap.sink != nil {
			snap.sink.HandleEvent(ev, dt)
		}
		if ev.Type == EventClose {
			w.Close()
			break
		}
	}
	return n
}

// pace waits until a full frame period has passed since start and returns
// the time the frame took.
func (w *Window) pace(start time.Time) time.Duration {
	period := time.Second / time.Duration(w.FPS())
	if p, ok := w.backend.(framePacer); ok {
		return p.PaceFrame(start, period)
	}
	if d := period - time.Since(start); d > 0 {
		time.Sleep(d)
	}
	return time.Since(start)
}

// Frames returns the number of completed render ticks.
func (w *Window) Frames() uint64 { return w.frames.Load() }

// Run runs the render loop on the calling goroutine until the window is
// closed. It does not start the driver; see StartMainLoop.
func (w *Window) Run() error {
	err := w.backend.Run(w.cfg, w.Tick)
	if errors.Is(err, ErrClosed) {
		err = nil
	}
	w.Close()
	return err
}

// StartMainLoop sets the target frame rate, starts the driver goroutine
// and runs the render loop on the calling goroutine. GPU backends need the
// render loop on the main goroutine, so call StartMainLoop from main.
//
// The driver calls the main func under the scene lock until the window is
// closed, recording each call's wall time as DeltaTime. StartMainLoop
// returns once both loops have stopped, with the first error either
// returned.
func (w *Window) StartMainLoop(fps int) error {
	if w.closed.Load() {
		return ErrClosed
	}
	w.SetFPS(fps)
	w.log.Info("main loop started", "title", w.cfg.Title, "fps", w.FPS())

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return w.drive(ctx)
	})

	err := w.Run()
	if gerr := g.Wait(); err == nil {
		err = gerr
	}
	w.log.Info("main loop stopped", "frames", w.frames.Load())
	return err
}

// drive is the simulation driver loop.
func (w *Window) drive(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.Close()
			err = fmt.Errorf("aspen: main func panicked: %v", r)
		}
	}()
	for !w.closed.Load() {
		if ctx.Err() != nil {
			return nil
		}
		w.queueMu.Lock()
		fn := w.mainFn
		w.queueMu.Unlock()

		start := time.Now()
		if fn != nil {
			w.Do(fn)
		} else {
			// nothing to simulate; yield instead of spinning hot
			time.Sleep(time.Millisecond)
		}
		w.setDeltaTime(time.Since(start).Seconds())
	}
	return nil
}
