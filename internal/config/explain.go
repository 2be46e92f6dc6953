package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	overlay.color
//	overlay.alpha
//	border.width
//	label.enabled
//	render.backend
//	render.fps
//	throttle.budget
//	input.grab_retries
//	hotkey
//	on_select
//	display
//	log_level
//	journal.max_size_mb
//	journal.file
//
// A section name alone (for example "render") returns the whole section.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file or env source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	section, key := parts[0], ""
	if len(parts) == 2 {
		key = parts[1]
	}

	fields := map[string]map[string]any{
		"overlay": {
			"color": cfg.Overlay.Color,
			"alpha": cfg.Overlay.Alpha,
		},
		"border": {
			"width": cfg.Border.Width,
			"color": cfg.Border.Color,
		},
		"label": {
			"enabled":    cfg.Label.Enabled,
			"color":      cfg.Label.Color,
			"background": cfg.Label.Background,
		},
		"render": {
			"backend": cfg.Render.Backend,
			"fps":     cfg.Render.FPS,
		},
		"throttle": {
			"budget":         cfg.Throttle.Budget,
			"idle_refill_ms": cfg.Throttle.IdleRefillMS,
			"drag_refill_ms": cfg.Throttle.DragRefillMS,
		},
		"input": {
			"grab_retries": cfg.Input.GrabRetries,
		},
		"journal": {
			"enabled":     cfg.Journal.Enabled,
			"level":       cfg.Journal.Level,
			"file":        cfg.JournalPath(),
			"max_size_mb": cfg.Journal.MaxSizeMB,
			"max_files":   cfg.Journal.MaxFiles,
		},
	}
	scalars := map[string]any{
		"hotkey":     cfg.Hotkey,
		"on_select":  cfg.OnSelect,
		"display":    cfg.Display,
		"xauthority": cfg.XAuthority,
		"log_level":  cfg.LogLevel,
	}

	if v, ok := scalars[section]; ok {
		if key != "" {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	group, ok := fields[section]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	if key == "" {
		return group, nil
	}
	v, ok := group[key]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return v, nil
}
