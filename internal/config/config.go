package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gogpu/gg"
)

// Surface kinds.
const (
	SurfaceKindDisplay = "display"
	SurfaceKindImage   = "image"
)

// WindowConfig describes the host window.
type WindowConfig struct {
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Pointer bool   `yaml:"pointer"`
}

// Limits caps resource usage. Zero means unlimited.
type Limits struct {
	MaxSurfaces     int `yaml:"max_surfaces"`
	MaxInputDevices int `yaml:"max_input_devices"`
}

// SurfaceConfig describes one surface placed on the window at startup.
//
// Display surfaces are filled with Color and react to pointer input. Image
// surfaces show the file at Path; Width and Height default to the image
// size when zero.
type SurfaceConfig struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Color   string `yaml:"color,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Opacity int    `yaml:"opacity"`
}

// Config is the effective configuration.
type Config struct {
	LogLevel     string          `yaml:"log_level"`
	TickInterval time.Duration   `yaml:"tick_interval"`
	Present      bool            `yaml:"present"`
	ClearColor   string          `yaml:"clear_color"`
	Display      string          `yaml:"display,omitempty"`
	XAuthority   string          `yaml:"xauthority,omitempty"`
	Window       WindowConfig    `yaml:"window"`
	Limits       Limits          `yaml:"limits"`
	Surfaces     []SurfaceConfig `yaml:"surfaces"`
}

// DefaultConfig returns the built-in configuration: one 800x480 window with a
// background panel and a smaller translucent panel on top.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		TickInterval: 16 * time.Millisecond,
		Present:      true,
		ClearColor:   "#101418",
		Window: WindowConfig{
			Title:   "winbridge",
			Width:   800,
			Height:  480,
			Pointer: true,
		},
		Limits: Limits{
			MaxSurfaces:     64,
			MaxInputDevices: 128,
		},
		Surfaces: []SurfaceConfig{
			{Name: "background", Kind: SurfaceKindDisplay, Width: 800, Height: 480, Color: "#1f2933", Opacity: 255},
			{Name: "panel", Kind: SurfaceKindDisplay, X: 50, Y: 50, Width: 200, Height: 120, Color: "#3498db", Opacity: 230},
		},
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	if c.TickInterval <= 0 {
		return &ValidationError{Path: "tick_interval", Err: fmt.Errorf("tick_interval must be > 0")}
	}
	if _, err := ParseColor(c.ClearColor); err != nil {
		return &ValidationError{Path: "clear_color", Err: err}
	}
	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.Limits.MaxSurfaces < 0 {
		return &ValidationError{Path: "limits.max_surfaces", Err: fmt.Errorf("max_surfaces must be >= 0")}
	}
	if c.Limits.MaxInputDevices < 0 {
		return &ValidationError{Path: "limits.max_input_devices", Err: fmt.Errorf("max_input_devices must be >= 0")}
	}
	if c.Limits.MaxSurfaces > 0 && len(c.Surfaces) > c.Limits.MaxSurfaces {
		return &ValidationError{Path: "surfaces", Err: fmt.Errorf("%d surfaces configured but limits.max_surfaces is %d", len(c.Surfaces), c.Limits.MaxSurfaces)}
	}

	names := make(map[string]int, len(c.Surfaces))
	for i, s := range c.Surfaces {
		prefix := fmt.Sprintf("surfaces[%d]", i)
		if err := validateSurface(s); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Path = prefix + "." + verr.Path
				return verr
			}
			return &ValidationError{Path: prefix, Err: err}
		}
		if s.Name != "" {
			if prev, dup := names[s.Name]; dup {
				return &ValidationError{Path: prefix + ".name", Err: fmt.Errorf("name %q already used by surfaces[%d]", s.Name, prev)}
			}
			names[s.Name] = i
		}
	}
	return nil
}

func validateSurface(s SurfaceConfig) error {
	switch s.Kind {
	case SurfaceKindDisplay:
		if s.Width <= 0 {
			return &ValidationError{Path: "width", Err: fmt.Errorf("width must be > 0")}
		}
		if s.Height <= 0 {
			return &ValidationError{Path: "height", Err: fmt.Errorf("height must be > 0")}
		}
		if _, err := ParseColor(s.Color); err != nil {
			return &ValidationError{Path: "color", Err: err}
		}
	case SurfaceKindImage:
		if strings.TrimSpace(s.Path) == "" {
			return &ValidationError{Path: "path", Err: fmt.Errorf("image surfaces require a path")}
		}
		if s.Width < 0 || s.Height < 0 {
			return &ValidationError{Path: "width", Err: fmt.Errorf("size must be >= 0")}
		}
	default:
		return &ValidationError{Path: "kind", Err: fmt.Errorf("kind must be one of: %s, %s", SurfaceKindDisplay, SurfaceKindImage)}
	}
	if s.Opacity < 0 || s.Opacity > 255 {
		return &ValidationError{Path: "opacity", Err: fmt.Errorf("opacity must be between 0 and 255")}
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level. "warning" is accepted
// as an alias for "warn".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warn, error")
}

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA" (the leading '#' is
// optional).
func ParseColor(s string) (gg.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3, 6, 8:
	default:
		return gg.RGBA{}, fmt.Errorf("invalid color %q: expected #RGB, #RRGGBB or #RRGGBBAA", s)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return gg.RGBA{}, fmt.Errorf("invalid color %q: bad hex digit %q", s, r)
		}
	}
	return gg.Hex(hex), nil
}
