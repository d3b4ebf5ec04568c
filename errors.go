package aspen

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAnimation is returned by AnimatorController.SetAnimation when
	// the requested name is not registered. The current animation is kept.
	ErrUnknownAnimation = errors.New("aspen: unknown animation")

	// ErrClosed is returned when an operation needs a window that has
	// already been closed.
	ErrClosed = errors.New("aspen: window closed")

	// ErrDisposed is returned when a disposed object is asked to render.
	ErrDisposed = errors.New("aspen: object disposed")
)

// ResourceKind names the collaborator that failed to produce a resource.
type ResourceKind string

const (
	ResourceImage   ResourceKind = "image"
	ResourceFont    ResourceKind = "font"
	ResourceTileMap ResourceKind = "tilemap"
	ResourceTexture ResourceKind = "texture"
)

// ResourceLoadError reports that an image, font or tile map could not be
// loaded, or that the backend refused to create a texture for it.
type ResourceLoadError struct {
	Kind ResourceKind
	Path string
	Err  error
}

func (e *ResourceLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("aspen: load %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("aspen: load %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

// ConfigError reports an invalid construction parameter, such as a sprite
// sheet with zero columns or an animation without frames.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("aspen: invalid %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
