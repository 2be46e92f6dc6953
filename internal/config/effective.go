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
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Source.Kind == SourceEnv && e.Source.Name != "" {
		return fmt.Sprintf("%s: %s: %v", e.Source.Name, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if o := raw.Overlay; o != nil {
		if o.Color != nil {
			cfg.Overlay.Color = *o.Color
		}
		if o.Alpha != nil {
			cfg.Overlay.Alpha = *o.Alpha
		}
	}
	if b := raw.Border; b != nil {
		if b.Width != nil {
			cfg.Border.Width = *b.Width
		}
		if b.Color != nil {
			cfg.Border.Color = *b.Color
		}
	}
	if l := raw.Label; l != nil {
		if l.Enabled != nil {
			cfg.Label.Enabled = *l.Enabled
		}
		if l.Color != nil {
			cfg.Label.Color = *l.Color
		}
		if l.Background != nil {
			cfg.Label.Background = *l.Background
		}
	}
	if r := raw.Render; r != nil {
		if r.Backend != nil {
			cfg.Render.Backend = *r.Backend
		}
		if r.FPS != nil {
			cfg.Render.FPS = *r.FPS
		}
	}
	if t := raw.Throttle; t != nil {
		if t.Budget != nil {
			cfg.Throttle.Budget = *t.Budget
		}
		if t.IdleRefillMS != nil {
			cfg.Throttle.IdleRefillMS = *t.IdleRefillMS
		}
		if t.DragRefillMS != nil {
			cfg.Throttle.DragRefillMS = *t.DragRefillMS
		}
	}
	if raw.Input != nil && raw.Input.GrabRetries != nil {
		cfg.Input.GrabRetries = *raw.Input.GrabRetries
	}

	if raw.Hotkey != nil {
		cfg.Hotkey = *raw.Hotkey
	}
	if raw.OnSelect != nil {
		cfg.OnSelect = *raw.OnSelect
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}

	if j := raw.Journal; j != nil {
		if j.Enabled != nil {
			cfg.Journal.Enabled = *j.Enabled
		}
		if j.Level != nil {
			cfg.Journal.Level = *j.Level
		}
		if j.File != nil {
			cfg.Journal.File = *j.File
		}
		if j.MaxSizeMB != nil {
			cfg.Journal.MaxSizeMB = *j.MaxSizeMB
		}
		if j.MaxFiles != nil {
			cfg.Journal.MaxFiles = *j.MaxFiles
		}
	}

	return cfg
}
