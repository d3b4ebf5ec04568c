package aspen

import (
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestRunStopsAtMaxFrames(t *testing.T) {
	b := newTestBackend(t, 20, 20, WithMaxFrames(5))
	w, err := NewWindow(WindowConfig{Width: 20, Height: 20}, b)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if w.Frames() != 5 {
		t.Errorf("Frames = %d, want 5", w.Frames())
	}
	if b.Frames() != 5 {
		t.Errorf("backend presented %d frames, want 5", b.Frames())
	}
	if !w.IsClosed() {
		t.Error("window not closed after Run returned")
	}
}

func TestStartMainLoopRunsMainFunc(t *testing.T) {
	b := newTestBackend(t, 20, 20)
	w, err := NewWindow(WindowConfig{Width: 20, Height: 20}, b)
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	w.SetMainFunc(func() {
		if calls.Add(1) == 3 {
			w.Close()
		}
	})
	if err := w.StartMainLoop(120); err != nil {
		t.Fatalf("StartMainLoop: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("main func ran %d times, want 3", n)
	}
	if w.FPS() != 120 {
		t.Errorf("FPS = %d, want 120", w.FPS())
	}
	if !w.IsClosed() {
		t.Error("window not closed")
	}
}

func TestStartMainLoopReportsPanic(t *testing.T) {
	b := newTestBackend(t, 20, 20)
	w, err := NewWindow(WindowConfig{Width: 20, Height: 20}, b)
	if err != nil {
		t.Fatal(err)
	}
	w.SetMainFunc(func() { panic("boom") })
	err = w.StartMainLoop(60)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("StartMainLoop = %v, want panic error", err)
	}
	if !w.IsClosed() {
		t.Error("window not closed after panic")
	}
}

func TestStartMainLoopOnClosedWindow(t *testing.T) {
	b := newTestBackend(t, 20, 20)
	w, err := NewWindow(WindowConfig{Width: 20, Height: 20}, b)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	if err := w.StartMainLoop(60); !errors.Is(err, ErrClosed) {
		t.Errorf("StartMainLoop = %v, want ErrClosed", err)
	}
}

func TestDoHoldsSceneLock(t *testing.T) {
	b := newTestBackend(t, 20, 20)
	w, err := NewWindow(WindowConfig{Width: 20, Height: 20}, b)
	if err != nil {
		t.Fatal(err)
	}
	ran := false
	w.Do(func() {
		if w.sceneMu.TryLock() {
			w.sceneMu.Unlock()
			t.Error("scene lock not held inside Do")
		}
		ran = true
	})
	if !ran {
		t.Error("Do did not run fn")
	}
}

func TestStartMainLoopResizesAndRetextsFromDriver(t *testing.T) {
	b := newTestBackend(t, 40, 40)
	w, err := NewWindow(WindowConfig{Width: 40, Height: 40}, b)
	if err != nil {
		t.Fatal(err)
	}
	cam, err := NewCamera(b, 40, 40, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.AddCamera(cam)
	txt, err := NewText(b, newTestRasterizer(t), testFont, 12, "0", ColorBlack, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	w.AddImage(txt)

	calls := 0
	w.SetMainFunc(func() {
		calls++
		w.SetRenderFrame(40+(calls%3)*10, 40)
		if f := w.RenderFrame(); f.Width < 40 || f.Height != 40 {
			t.Errorf("RenderFrame = %+v during run", f)
		}
		if err := txt.SetText(strconv.Itoa(calls)); err != nil {
			t.Errorf("SetText: %v", err)
		}
		if calls == 50 {
			w.Close()
		}
	})
	if err := w.StartMainLoop(240); err != nil {
		t.Fatalf("StartMainLoop: %v", err)
	}
	if calls != 50 {
		t.Errorf("main func ran %d times, want 50", calls)
	}
	if got, want := txt.Text(), "50"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}

	txt.Dispose()
	cam.Dispose()
	w.Dispose()
	if n := b.LiveTextures(); n != 0 {
		t.Errorf("LiveTextures = %d after dispose, want 0", n)
	}
}

func TestDriverPublishesDeltaTime(t *testing.T) {
	const nap = 5 * time.Millisecond
	b := newTestBackend(t, 20, 20)
	w, err := NewWindow(WindowConfig{Width: 20, Height: 20}, b)
	if err != nil {
		t.Fatal(err)
	}

	var handlerDT, sinkDT, mainDT float64
	w.SetEventHandler(func(ev Event, dt float64) {
		if ev.Type == EventKeyDown && ev.Key == ebiten.KeyA {
			handlerDT = dt
			w.Close()
		}
	})
	w.SetEventSink(EventSinkFunc(func(ev Event, dt float64) {
		if ev.Type == EventKeyDown {
			sinkDT = dt
		}
	}))
	calls := 0
	w.SetMainFunc(func() {
		calls++
		if calls == 3 {
			// two sleeping calls have completed, so the published value
			// covers at least one nap
			mainDT = w.DeltaTime()
			b.InjectKeyDown(ebiten.KeyA)
		}
		time.Sleep(nap)
	})
	if err := w.StartMainLoop(60); err != nil {
		t.Fatalf("StartMainLoop: %v", err)
	}

	if mainDT < nap.Seconds() {
		t.Errorf("DeltaTime = %v, want >= %v", mainDT, nap.Seconds())
	}
	if handlerDT < nap.Seconds() {
		t.Errorf("handler dt = %v, want >= %v", handlerDT, nap.Seconds())
	}
	if sinkDT != handlerDT {
		t.Errorf("sink dt = %v, want handler dt %v", sinkDT, handlerDT)
	}
	if got := w.DeltaTime(); got < nap.Seconds() {
		t.Errorf("final DeltaTime = %v, want >= %v", got, nap.Seconds())
	}
}
