package aspen

import "fmt"

// NamedAnimation pairs an Animation with the name it is selected by.
type NamedAnimation struct {
	Name      string
	Animation *Animation
}

// AnimatorController holds a fixed set of named animations and shows the
// current one. Its position is its own: switching animations never moves
// the controller on screen.
type AnimatorController struct {
	drawState
	position

	entries []NamedAnimation
	current int
	w, h    int
}

// NewAnimatorController returns a controller over entries. The first entry
// is current. Names must be unique and non-empty.
func NewAnimatorController(entries ...NamedAnimation) (*AnimatorController, error) {
	if len(entries) == 0 {
		return nil, configErrorf("animations", "no animations")
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, configErrorf("animations", "entry %d has no name", i)
		}
		if e.Animation == nil {
			return nil, configErrorf("animations", "animation %q is nil", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, configErrorf("animations", "duplicate name %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	c := &AnimatorController{entries: append([]NamedAnimation(nil), entries...)}
	c.resize()
	return c, nil
}

// SetAnimation makes name the current animation and rewinds its clock.
// Selecting the current name does nothing. An unknown name leaves the
// current animation in place and returns an error wrapping
// ErrUnknownAnimation.
func (c *AnimatorController) SetAnimation(name string) error {
	if c.entries[c.current].Name == name {
		return nil
	}
	for i, e := range c.entries {
		if e.Name == name {
			c.current = i
			c.resize()
			e.Animation.Reset()
			return nil
		}
	}
	return fmt.Errorf("aspen: animation %q: %w", name, ErrUnknownAnimation)
}

// resize takes the destination size from the current animation's cell.
func (c *AnimatorController) resize() {
	c.w, c.h = c.entries[c.current].Animation.SpriteSheet().CellSize()
}

// Animation returns the current animation.
func (c *AnimatorController) Animation() *Animation { return c.entries[c.current].Animation }

// AnimationName returns the name of the current animation.
func (c *AnimatorController) AnimationName() string { return c.entries[c.current].Name }

// Names returns the registered names in registration order.
func (c *AnimatorController) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// AddTime advances only the current animation.
func (c *AnimatorController) AddTime(dt float64) { c.Animation().AddTime(dt) }

func (c *AnimatorController) Texture() Texture      { return c.Animation().Texture() }
func (c *AnimatorController) SrcRect() (Rect, bool) { return c.Animation().SrcRect() }

// DestRect returns the current animation's size at the controller's rounded
// position.
func (c *AnimatorController) DestRect() Rect {
	return Rect{X: roundPos(c.x), Y: roundPos(c.y), Width: c.w, Height: c.h}
}
