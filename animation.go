package aspen

import "math"

// Animation steps a SpriteSheet through a sequence of frames over time.
//
// The sheet is shared: several animations may be built on the same sheet,
// and the sheet must outlive all of them. Position and frame accessors pass
// through to the sheet.
type Animation struct {
	drawState
	sheet      *SpriteSheet
	frameOrder []int
	speed      float64 // seconds per displayed step
	elapsed    float64
}

// NewAnimation returns an Animation that shows frameOrder[i] of sheet for
// speed seconds each, starting from startFrame. frameOrder is copied and may
// repeat or skip frames.
func NewAnimation(sheet *SpriteSheet, startFrame int, frameOrder []int, speed float64) (*Animation, error) {
	if sheet == nil {
		return nil, configErrorf("sprite sheet", "nil sprite sheet")
	}
	if len(frameOrder) == 0 {
		return nil, configErrorf("frame order", "no frames")
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return nil, configErrorf("speed", "%v, want a positive number of seconds", speed)
	}
	a := &Animation{
		sheet:      sheet,
		frameOrder: append([]int(nil), frameOrder...),
		speed:      speed,
	}
	sheet.SetFrame(startFrame)
	return a, nil
}

// AddTime advances the clock by dt seconds and shows the frame selected by
// the accumulated time.
func (a *Animation) AddTime(dt float64) {
	a.elapsed += dt
	a.sheet.SetFrame(a.frameOrder[a.step()])
}

// step returns the index into frameOrder for the current clock.
func (a *Animation) step() int {
	n := len(a.frameOrder)
	i := int(math.Floor(a.elapsed/a.speed)) % n
	if i < 0 {
		i += n
	}
	return i
}

// Reset rewinds the clock to zero. The shown frame changes on the next
// AddTime.
func (a *Animation) Reset() { a.elapsed = 0 }

// Elapsed returns the accumulated time in seconds.
func (a *Animation) Elapsed() float64 { return a.elapsed }

// Speed returns the seconds each step is shown for.
func (a *Animation) Speed() float64 { return a.speed }

// FrameOrder returns a copy of the frame sequence.
func (a *Animation) FrameOrder() []int { return append([]int(nil), a.frameOrder...) }

// SpriteSheet returns the backing sheet.
func (a *Animation) SpriteSheet() *SpriteSheet { return a.sheet }

func (a *Animation) X() float64         { return a.sheet.X() }
func (a *Animation) Y() float64         { return a.sheet.Y() }
func (a *Animation) SetX(x float64)     { a.sheet.SetX(x) }
func (a *Animation) SetY(y float64)     { a.sheet.SetY(y) }
func (a *Animation) Frame() int         { return a.sheet.Frame() }
func (a *Animation) SetFrame(frame int) { a.sheet.SetFrame(frame) }

func (a *Animation) Texture() Texture      { return a.sheet.Texture() }
func (a *Animation) SrcRect() (Rect, bool) { return a.sheet.SrcRect() }
func (a *Animation) DestRect() Rect        { return a.sheet.DestRect() }
