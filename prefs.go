package aspen

import (
	"fmt"
	"log/slog"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Settings are the user-adjustable display settings persisted between runs.
type Settings struct {
	Scale      float64 `yaml:"scale"`
	FPS        int     `yaml:"fps"`
	Background Color   `yaml:"background"`
	ShowFPS    bool    `yaml:"showFPS"`
}

// DefaultSettings returns the settings used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{Scale: 1, FPS: DefaultFPS, Background: ColorWhite}
}

// storage keys
const (
	prefsObject   = "settings"
	prefsProperty = "display"
)

// Preferences loads and saves Settings through gdata. A nil manager keeps
// settings in memory only.
type Preferences struct {
	manager  *gdata.Manager
	settings Settings
	log      *slog.Logger
}

// OpenPreferences opens the per-user storage for appName.
func OpenPreferences(appName string, log *slog.Logger) (*Preferences, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("aspen: open preferences: %w", err)
	}
	return NewPreferences(m, log), nil
}

// NewPreferences returns preferences backed by m and loads any saved
// settings. Load failures are logged and leave the defaults in place.
func NewPreferences(m *gdata.Manager, log *slog.Logger) *Preferences {
	if log == nil {
		log = Logger()
	}
	p := &Preferences{manager: m, settings: DefaultSettings(), log: log}
	if err := p.Load(); err != nil {
		p.log.Warn("load preferences, using defaults", "error", err)
	}
	return p
}

// Load replaces the in-memory settings with the saved ones. Missing
// storage or a missing entry yields the defaults.
func (p *Preferences) Load() error {
	if p.manager == nil || !p.manager.ObjectPropExists(prefsObject, prefsProperty) {
		p.settings = DefaultSettings()
		return nil
	}
	data, err := p.manager.LoadObjectProp(prefsObject, prefsProperty)
	if err != nil {
		p.settings = DefaultSettings()
		return fmt.Errorf("aspen: load preferences: %w", err)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		p.settings = DefaultSettings()
		return fmt.Errorf("aspen: decode preferences: %w", err)
	}
	p.settings = s
	return nil
}

// Save persists the in-memory settings. Without storage it does nothing.
func (p *Preferences) Save() error {
	if p.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(p.settings)
	if err != nil {
		return fmt.Errorf("aspen: encode preferences: %w", err)
	}
	if err := p.manager.SaveObjectProp(prefsObject, prefsProperty, data); err != nil {
		return fmt.Errorf("aspen: save preferences: %w", err)
	}
	p.log.Debug("preferences saved")
	return nil
}

// Settings returns the current settings.
func (p *Preferences) Settings() Settings { return p.settings }

// SetScale sets the display scale. Non-positive values are ignored.
func (p *Preferences) SetScale(s float64) {
	if s > 0 {
		p.settings.Scale = s
	}
}

// SetFPS sets the frame rate. Non-positive values are ignored.
func (p *Preferences) SetFPS(fps int) {
	if fps > 0 {
		p.settings.FPS = fps
	}
}

// SetBackground sets the background color.
func (p *Preferences) SetBackground(c Color) { p.settings.Background = c }

// SetShowFPS toggles the FPS overlay.
func (p *Preferences) SetShowFPS(show bool) { p.settings.ShowFPS = show }

// Apply overrides cfg's scale, frame rate and background with the saved
// settings.
func (p *Preferences) Apply(cfg WindowConfig) WindowConfig {
	s := p.settings
	if s.Scale > 0 {
		cfg.Scale = s.Scale
	}
	if s.FPS > 0 {
		cfg.FPS = s.FPS
	}
	cfg.Background = s.Background
	return cfg
}
