package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWindow struct {
	Title   *string `yaml:"title"`
	Width   *int    `yaml:"width"`
	Height  *int    `yaml:"height"`
	Pointer *bool   `yaml:"pointer"`
}

type RawLimits struct {
	MaxSurfaces     *int `yaml:"max_surfaces"`
	MaxInputDevices *int `yaml:"max_input_devices"`
}

type RawSurface struct {
	Name    string  `yaml:"name"`
	Kind    *string `yaml:"kind"`
	X       int     `yaml:"x"`
	Y       int     `yaml:"y"`
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Color   *string `yaml:"color"`
	Path    string  `yaml:"path"`
	Opacity *int    `yaml:"opacity"`
}

// RawConfig mirrors the YAML file. Nil fields were not set by the file.
type RawConfig struct {
	Include      IncludeList    `yaml:"include"`
	LogLevel     *string        `yaml:"log_level"`
	TickInterval *time.Duration `yaml:"tick_interval"`
	Present      *bool          `yaml:"present"`
	ClearColor   *string        `yaml:"clear_color"`
	Display      *string        `yaml:"display"`
	XAuthority   *string        `yaml:"xauthority"`
	Window       *RawWindow     `yaml:"window"`
	Limits       *RawLimits     `yaml:"limits"`
	Surfaces     *[]RawSurface  `yaml:"surfaces"`
}

// merge overlays set fields of overlay onto c. A surfaces list in overlay
// replaces the whole list.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.TickInterval != nil {
		out.TickInterval = overlay.TickInterval
	}
	if overlay.Present != nil {
		out.Present = overlay.Present
	}
	if overlay.ClearColor != nil {
		out.ClearColor = overlay.ClearColor
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.Window != nil {
		merged := RawWindow{}
		if out.Window != nil {
			merged = *out.Window
		}
		merged = mergeRawWindow(merged, *overlay.Window)
		out.Window = &merged
	}
	if overlay.Limits != nil {
		merged := RawLimits{}
		if out.Limits != nil {
			merged = *out.Limits
		}
		if overlay.Limits.MaxSurfaces != nil {
			merged.MaxSurfaces = overlay.Limits.MaxSurfaces
		}
		if overlay.Limits.MaxInputDevices != nil {
			merged.MaxInputDevices = overlay.Limits.MaxInputDevices
		}
		out.Limits = &merged
	}
	if overlay.Surfaces != nil {
		surfaces := append([]RawSurface(nil), (*overlay.Surfaces)...)
		out.Surfaces = &surfaces
	}
	return out
}

func mergeRawWindow(base RawWindow, overlay RawWindow) RawWindow {
	if overlay.Title != nil {
		base.Title = overlay.Title
	}
	if overlay.Width != nil {
		base.Width = overlay.Width
	}
	if overlay.Height != nil {
		base.Height = overlay.Height
	}
	if overlay.Pointer != nil {
		base.Pointer = overlay.Pointer
	}
	return base
}
