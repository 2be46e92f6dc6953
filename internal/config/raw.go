package config

import (
	"fmt"

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

type RawOverlay struct {
	Color *string `yaml:"color"`
	Alpha *int    `yaml:"alpha"`
}

type RawBorder struct {
	Width *int    `yaml:"width"`
	Color *string `yaml:"color"`
}

type RawLabel struct {
	Enabled    *bool   `yaml:"enabled"`
	Color      *string `yaml:"color"`
	Background *string `yaml:"background"`
}

type RawRender struct {
	Backend *string `yaml:"backend"`
	FPS     *int    `yaml:"fps"`
}

type RawThrottle struct {
	Budget       *int `yaml:"budget"`
	IdleRefillMS *int `yaml:"idle_refill_ms"`
	DragRefillMS *int `yaml:"drag_refill_ms"`
}

type RawInput struct {
	GrabRetries *int `yaml:"grab_retries"`
}

type RawJournal struct {
	Enabled   *bool   `yaml:"enabled"`
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawConfig struct {
	Include    IncludeList  `yaml:"include"`
	Overlay    *RawOverlay  `yaml:"overlay"`
	Border     *RawBorder   `yaml:"border"`
	Label      *RawLabel    `yaml:"label"`
	Render     *RawRender   `yaml:"render"`
	Throttle   *RawThrottle `yaml:"throttle"`
	Input      *RawInput    `yaml:"input"`
	Hotkey     *string      `yaml:"hotkey"`
	OnSelect   *string      `yaml:"on_select"`
	Display    *string      `yaml:"display"`
	XAuthority *string      `yaml:"xauthority"`
	LogLevel   *string      `yaml:"log_level"`
	Journal    *RawJournal  `yaml:"journal"`
}

// pick returns overlay when set, else base.
func pick[T any](base, overlay *T) *T {
	if overlay != nil {
		return overlay
	}
	return base
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.Overlay != nil {
		merged := RawOverlay{}
		if out.Overlay != nil {
			merged = *out.Overlay
		}
		merged.Color = pick(merged.Color, overlay.Overlay.Color)
		merged.Alpha = pick(merged.Alpha, overlay.Overlay.Alpha)
		out.Overlay = &merged
	}

	if overlay.Border != nil {
		merged := RawBorder{}
		if out.Border != nil {
			merged = *out.Border
		}
		merged.Width = pick(merged.Width, overlay.Border.Width)
		merged.Color = pick(merged.Color, overlay.Border.Color)
		out.Border = &merged
	}

	if overlay.Label != nil {
		merged := RawLabel{}
		if out.Label != nil {
			merged = *out.Label
		}
		merged.Enabled = pick(merged.Enabled, overlay.Label.Enabled)
		merged.Color = pick(merged.Color, overlay.Label.Color)
		merged.Background = pick(merged.Background, overlay.Label.Background)
		out.Label = &merged
	}

	if overlay.Render != nil {
		merged := RawRender{}
		if out.Render != nil {
			merged = *out.Render
		}
		merged.Backend = pick(merged.Backend, overlay.Render.Backend)
		merged.FPS = pick(merged.FPS, overlay.Render.FPS)
		out.Render = &merged
	}

	if overlay.Throttle != nil {
		merged := RawThrottle{}
		if out.Throttle != nil {
			merged = *out.Throttle
		}
		merged.Budget = pick(merged.Budget, overlay.Throttle.Budget)
		merged.IdleRefillMS = pick(merged.IdleRefillMS, overlay.Throttle.IdleRefillMS)
		merged.DragRefillMS = pick(merged.DragRefillMS, overlay.Throttle.DragRefillMS)
		out.Throttle = &merged
	}

	if overlay.Input != nil {
		merged := RawInput{}
		if out.Input != nil {
			merged = *out.Input
		}
		merged.GrabRetries = pick(merged.GrabRetries, overlay.Input.GrabRetries)
		out.Input = &merged
	}

	out.Hotkey = pick(out.Hotkey, overlay.Hotkey)
	out.OnSelect = pick(out.OnSelect, overlay.OnSelect)
	out.Display = pick(out.Display, overlay.Display)
	out.XAuthority = pick(out.XAuthority, overlay.XAuthority)
	out.LogLevel = pick(out.LogLevel, overlay.LogLevel)

	if overlay.Journal != nil {
		merged := RawJournal{}
		if out.Journal != nil {
			merged = *out.Journal
		}
		merged.Enabled = pick(merged.Enabled, overlay.Journal.Enabled)
		merged.Level = pick(merged.Level, overlay.Journal.Level)
		merged.File = pick(merged.File, overlay.Journal.File)
		merged.MaxSizeMB = pick(merged.MaxSizeMB, overlay.Journal.MaxSizeMB)
		merged.MaxFiles = pick(merged.MaxFiles, overlay.Journal.MaxFiles)
		out.Journal = &merged
	}

	return out
}
