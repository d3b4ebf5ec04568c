package aspen

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// EventType identifies the kind of input event.
type EventType uint8

const (
	EventKeyDown EventType = iota + 1
	EventKeyUp
	// EventClose is sent when the user asks to close the window. The
	// window stops processing events for the tick that delivers it.
	EventClose
)

// String returns a lowercase name for the event type.
func (t EventType) String() string {
	switch t {
	case EventKeyDown:
		return "keydown"
	case EventKeyUp:
		return "keyup"
	case EventClose:
		return "close"
	}
	return "unknown"
}

// KeyModifiers is a bitmask of modifier keys held during an event.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Event is one input event polled from the backend.
type Event struct {
	Type EventType
	Key  ebiten.Key
	Mods KeyModifiers
}

// KeyboardState is an immutable snapshot of which keys are held down,
// indexed by ebiten.Key.
type KeyboardState [ebiten.KeyMax + 1]bool

// Down reports whether key was held when the snapshot was taken. Keys
// outside the known range report false.
func (s *KeyboardState) Down(key ebiten.Key) bool {
	if s == nil || key < 0 || int(key) >= len(s) {
		return false
	}
	return s[key]
}

// set returns a copy of s with key marked down or up.
func (s KeyboardState) set(key ebiten.Key, down bool) KeyboardState {
	if key >= 0 && int(key) < len(s) {
		s[key] = down
	}
	return s
}

// EventSink receives every event the window dispatches, after the event
// handler. The ecs package provides a sink that publishes into a donburi
// world.
type EventSink interface {
	HandleEvent(ev Event, dt float64)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev Event, dt float64)

// HandleEvent calls f(ev, dt).
func (f EventSinkFunc) HandleEvent(ev Event, dt float64) { f(ev, dt) }

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// modifiersOf derives modifier flags from a keyboard snapshot.
func modifiersOf(s *KeyboardState) KeyModifiers {
	var mods KeyModifiers
	if s.Down(ebiten.KeyShiftLeft) || s.Down(ebiten.KeyShiftRight) {
		mods |= ModShift
	}
	if s.Down(ebiten.KeyControlLeft) || s.Down(ebiten.KeyControlRight) {
		mods |= ModCtrl
	}
	if s.Down(ebiten.KeyAltLeft) || s.Down(ebiten.KeyAltRight) {
		mods |= ModAlt
	}
	if s.Down(ebiten.KeyMetaLeft) || s.Down(ebiten.KeyMetaRight) {
		mods |= ModMeta
	}
	return mods
}
