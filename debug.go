package aspen

import (
	"time"
)

// debugStats holds per-tick timing and draw counts.
// Only logged when the window was created WithDebug(true).
type debugStats struct {
	compose time.Duration
	frame   time.Duration
	drawn   int
	culled  int
	cameras int
	events  int
}

// debugLog writes timing and draw stats at debug level.
func (w *Window) debugLog(stats debugStats) {
	if !w.debug {
		return
	}
	w.log.Debug("frame",
		"n", w.frames.Load(),
		"compose", stats.compose,
		"frame", stats.frame,
		"drawn", stats.drawn,
		"culled", stats.culled,
		"cameras", stats.cameras,
		"events", stats.events)
	if fps := w.FPS(); stats.frame > 2*time.Second/time.Duration(fps) {
		w.log.Warn("slow frame", "n", w.frames.Load(), "frame", stats.frame, "target_fps", fps)
	}
}
