package aspen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Injector is implemented by backends that accept synthetic input, such as
// HeadlessBackend.
type Injector interface {
	InjectKeyDown(key ebiten.Key)
	InjectKeyUp(key ebiten.Key)
	InjectClose()
}

// scriptStep represents a single action in an input script.
type scriptStep struct {
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
	Label  string `json:"label,omitempty"`
	Frames int    `json:"frames,omitempty"`

	key ebiten.Key
}

// inputScript is the top-level JSON structure for an input script.
type inputScript struct {
	Steps []scriptStep `json:"steps"`
}

// InputScript sequences injected key events, window closes and screenshots
// across frames. Attach it to a window with SetInputScript.
//
// Actions: "keydown", "keyup" and "press" take a "key" named as
// ebiten.Key.String reports it ("Space", "ArrowLeft", "A"); "wait" takes
// "frames"; "screenshot" takes a "label"; "close" closes the window.
type InputScript struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadInputScript parses a JSON input script.
func LoadInputScript(jsonData []byte) (*InputScript, error) {
	var script inputScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("aspen: parse input script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("aspen: parse input script: no steps")
	}
	for i := range script.Steps {
		st := &script.Steps[i]
		switch st.Action {
		case "keydown", "keyup", "press":
			k, ok := ParseKey(st.Key)
			if !ok {
				return nil, fmt.Errorf("aspen: parse input script: step %d: unknown key %q", i, st.Key)
			}
			st.key = k
		case "wait", "screenshot", "close":
		default:
			return nil, fmt.Errorf("aspen: parse input script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &InputScript{steps: script.Steps}, nil
}

// ParseKey looks up a key by its ebiten.Key.String name, ignoring case.
func ParseKey(name string) (ebiten.Key, bool) {
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, true
		}
	}
	return 0, false
}

// Done reports whether all steps have been executed.
func (s *InputScript) Done() bool {
	return s.done
}

// SetInputScript attaches an input script that advances once per tick,
// before events are polled. The backend must implement Injector.
func (w *Window) SetInputScript(s *InputScript) error {
	if s != nil {
		if _, ok := w.backend.(Injector); !ok {
			return fmt.Errorf("aspen: input script: backend %T does not accept injected input", w.backend)
		}
	}
	w.queueMu.Lock()
	w.script = s
	w.queueMu.Unlock()
	return nil
}

// step advances the script by one frame.
func (s *InputScript) step(w *Window, inj Injector) {
	if s.done {
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	st := s.steps[s.cursor]
	s.cursor++

	switch st.Action {
	case "keydown":
		inj.InjectKeyDown(st.key)
	case "keyup":
		inj.InjectKeyUp(st.key)
	case "press":
		inj.InjectKeyDown(st.key)
		inj.InjectKeyUp(st.key)
	case "screenshot":
		w.Screenshot(st.Label)
	case "close":
		inj.InjectClose()
	case "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 {
		s.done = true
	}
}
