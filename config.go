package aspen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadWindowConfig reads a WindowConfig from a YAML file.
func LoadWindowConfig(path string) (WindowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WindowConfig{}, fmt.Errorf("aspen: read window config: %w", err)
	}
	cfg, err := ParseWindowConfig(data)
	if err != nil {
		return WindowConfig{}, fmt.Errorf("aspen: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseWindowConfig decodes a WindowConfig from YAML. A missing background
// is white.
func ParseWindowConfig(data []byte) (WindowConfig, error) {
	cfg := WindowConfig{Background: ColorWhite}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WindowConfig{}, fmt.Errorf("parse window config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return WindowConfig{}, configErrorf("window size", "%dx%d, want positive dimensions", cfg.Width, cfg.Height)
	}
	return cfg, nil
}

var visibilityNames = map[Visibility]string{
	VisibilityExact:         "exact",
	VisibilityEdgeHeuristic: "edge",
	VisibilityOff:           "off",
}

// String returns the YAML name of the mode.
func (v Visibility) String() string {
	if s, ok := visibilityNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Visibility(%d)", uint8(v))
}

// UnmarshalYAML accepts "exact", "edge" or "off".
func (v *Visibility) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	for mode, name := range visibilityNames {
		if strings.EqualFold(s, name) {
			*v = mode
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown culling mode %q", node.Line, s)
}

// MarshalYAML writes the mode's name.
func (v Visibility) MarshalYAML() (any, error) {
	return v.String(), nil
}

// SheetConfig describes a sprite sheet image and its grid.
type SheetConfig struct {
	Image   string `yaml:"image"`
	Columns int    `yaml:"columns"`
	Rows    int    `yaml:"rows"`
}

// AnimationConfig describes one named animation over a sheet.
type AnimationConfig struct {
	Name   string  `yaml:"name"`
	Sheet  string  `yaml:"sheet"`
	Start  int     `yaml:"start"`
	Frames []int   `yaml:"frames"`
	Speed  float64 `yaml:"speed"`
}

// AnimatorConfig describes an AnimatorController: the sheets it draws from
// and its animations in selection order. The first animation is current.
type AnimatorConfig struct {
	X          float64                `yaml:"x"`
	Y          float64                `yaml:"y"`
	Layer      int                    `yaml:"layer"`
	Sheets     map[string]SheetConfig `yaml:"sheets"`
	Animations []AnimationConfig      `yaml:"animations"`

	// dir resolves relative sheet images.
	dir string
}

// LoadAnimatorConfig reads an AnimatorConfig from a YAML file. Sheet images
// are resolved relative to the file.
func LoadAnimatorConfig(path string) (*AnimatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("aspen: read animator config: %w", err)
	}
	cfg, err := ParseAnimatorConfig(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("aspen: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseAnimatorConfig decodes an AnimatorConfig from YAML and checks that
// every animation names a declared sheet.
func ParseAnimatorConfig(data []byte, baseDir string) (*AnimatorConfig, error) {
	var cfg AnimatorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse animator config: %w", err)
	}
	if len(cfg.Animations) == 0 {
		return nil, configErrorf("animations", "no animations")
	}
	for _, a := range cfg.Animations {
		if _, ok := cfg.Sheets[a.Sheet]; !ok {
			return nil, configErrorf("animations", "animation %q uses undeclared sheet %q", a.Name, a.Sheet)
		}
	}
	cfg.dir = baseDir
	return &cfg, nil
}

// SheetImage returns the resolved image path of the named sheet.
func (c *AnimatorConfig) SheetImage(name string) string {
	img := c.Sheets[name].Image
	if filepath.IsAbs(img) || c.dir == "" {
		return img
	}
	return filepath.Join(c.dir, img)
}

// LoadedAnimator is an AnimatorController together with the sprite sheets
// its animations share.
type LoadedAnimator struct {
	Controller *AnimatorController
	Sheets     map[string]*SpriteSheet
}

// Dispose releases the sheets. The controller holds no textures of its own.
func (a *LoadedAnimator) Dispose() {
	for _, s := range a.Sheets {
		s.Dispose()
	}
}

// AnimatorController loads the sheets of cfg and builds the controller.
func (l *Loader) AnimatorController(cfg *AnimatorConfig) (_ *LoadedAnimator, err error) {
	out := &LoadedAnimator{Sheets: make(map[string]*SpriteSheet, len(cfg.Sheets))}
	defer func() {
		if err != nil {
			out.Dispose()
		}
	}()

	names := make([]string, 0, len(cfg.Sheets))
	for name := range cfg.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sc := cfg.Sheets[name]
		s, err := l.SpriteSheet(cfg.SheetImage(name), 0, 0, sc.Columns, sc.Rows)
		if err != nil {
			return nil, err
		}
		out.Sheets[name] = s
	}

	entries := make([]NamedAnimation, 0, len(cfg.Animations))
	for _, ac := range cfg.Animations {
		a, err := NewAnimation(out.Sheets[ac.Sheet], ac.Start, ac.Frames, ac.Speed)
		if err != nil {
			return nil, l.fail("create animation", err, "name", ac.Name)
		}
		entries = append(entries, NamedAnimation{Name: ac.Name, Animation: a})
	}
	c, err := NewAnimatorController(entries...)
	if err != nil {
		return nil, l.fail("create animator", err)
	}
	c.SetPosition(cfg.X, cfg.Y)
	c.SetLayer(cfg.Layer)
	out.Controller = c
	return out, nil
}
