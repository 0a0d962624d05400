package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if pos := e.Source.Position(); pos != "" {
		return fmt.Sprintf("%s: %s: %v", pos, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.TickInterval != nil {
		cfg.TickInterval = *raw.TickInterval
	}
	if raw.Present != nil {
		cfg.Present = *raw.Present
	}
	if raw.ClearColor != nil {
		cfg.ClearColor = *raw.ClearColor
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if w := raw.Window; w != nil {
		if w.Title != nil {
			cfg.Window.Title = *w.Title
		}
		if w.Width != nil {
			cfg.Window.Width = *w.Width
		}
		if w.Height != nil {
			cfg.Window.Height = *w.Height
		}
		if w.Pointer != nil {
			cfg.Window.Pointer = *w.Pointer
		}
	}
	if l := raw.Limits; l != nil {
		if l.MaxSurfaces != nil {
			cfg.Limits.MaxSurfaces = *l.MaxSurfaces
		}
		if l.MaxInputDevices != nil {
			cfg.Limits.MaxInputDevices = *l.MaxInputDevices
		}
	}
	if raw.Surfaces != nil {
		cfg.Surfaces = make([]SurfaceConfig, 0, len(*raw.Surfaces))
		for _, rs := range *raw.Surfaces {
			cfg.Surfaces = append(cfg.Surfaces, effectiveSurface(rs))
		}
	}
	return cfg
}

func effectiveSurface(rs RawSurface) SurfaceConfig {
	s := SurfaceConfig{
		Name:    rs.Name,
		Kind:    SurfaceKindDisplay,
		X:       rs.X,
		Y:       rs.Y,
		Width:   rs.Width,
		Height:  rs.Height,
		Path:    rs.Path,
		Opacity: 255,
	}
	if rs.Kind != nil {
		s.Kind = *rs.Kind
	}
	if rs.Opacity != nil {
		s.Opacity = *rs.Opacity
	}
	if rs.Color != nil {
		s.Color = *rs.Color
	} else if s.Kind == SurfaceKindDisplay {
		s.Color = "#808080"
	}
	return s
}
