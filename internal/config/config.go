package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/regionsel/internal/pacing"
	"github.com/1broseidon/regionsel/internal/render"
	"github.com/1broseidon/regionsel/internal/selector"
)

// OverlayConfig controls the dimmed backdrop.
type OverlayConfig struct {
	Color string `yaml:"color"` // #rrggbb
	Alpha int    `yaml:"alpha"` // 0-255
}

// BorderConfig controls the selection outline.
type BorderConfig struct {
	Width int    `yaml:"width"`
	Color string `yaml:"color"`
}

// LabelConfig controls the size label drawn next to the selection.
type LabelConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Color      string `yaml:"color"`
	Background string `yaml:"background"`
}

// RenderConfig selects the drawing path and frame rate.
type RenderConfig struct {
	Backend string `yaml:"backend"` // auto, gpu, cpu
	FPS     int    `yaml:"fps"`
}

// ThrottleConfig tunes the redraw budget.
type ThrottleConfig struct {
	Budget       int `yaml:"budget"`
	IdleRefillMS int `yaml:"idle_refill_ms"`
	DragRefillMS int `yaml:"drag_refill_ms"`
}

// InputConfig tunes input grabbing.
type InputConfig struct {
	GrabRetries int `yaml:"grab_retries"`
}

// JournalConfig configures the session journal.
type JournalConfig struct {
	// Enabled turns session journaling on/off
	Enabled bool `yaml:"enabled"`
	// Level controls journal verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// File is the journal path (default: ~/.local/share/regionsel/sessions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files"`
}

// Config is the effective configuration.
type Config struct {
	Overlay  OverlayConfig  `yaml:"overlay"`
	Border   BorderConfig   `yaml:"border"`
	Label    LabelConfig    `yaml:"label"`
	Render   RenderConfig   `yaml:"render"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Input    InputConfig    `yaml:"input"`

	// Hotkey starts a selection while the daemon runs.
	Hotkey string `yaml:"hotkey"`
	// OnSelect is run by the daemon with the region in REGIONSEL_* variables.
	OnSelect string `yaml:"on_select,omitempty"`

	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`
	LogLevel   string `yaml:"log_level"`

	Journal JournalConfig `yaml:"journal"`
}

const (
	DefaultHotkey         = "Mod4-Shift-s"
	DefaultJournalMaxSize = 10
	DefaultJournalFiles   = 3
)

// DefaultConfig returns the stock settings.
func DefaultConfig() *Config {
	throttle := pacing.DefaultThrottleConfig()
	return &Config{
		Overlay: OverlayConfig{Color: "#000000", Alpha: 128},
		Border:  BorderConfig{Width: 2, Color: "#ffffff"},
		Label:   LabelConfig{Enabled: true, Color: "#ffffff", Background: "#202020"},
		Render:  RenderConfig{Backend: string(render.PreferAuto), FPS: pacing.DefaultFPS},
		Throttle: ThrottleConfig{
			Budget:       throttle.Budget,
			IdleRefillMS: int(throttle.IdleRefill / time.Millisecond),
			DragRefillMS: int(throttle.DragRefill / time.Millisecond),
		},
		Input:    InputConfig{GrabRetries: 8},
		Hotkey:   DefaultHotkey,
		LogLevel: "info",
		Journal: JournalConfig{
			Enabled:   false,
			Level:     "info",
			MaxSizeMB: DefaultJournalMaxSize,
			MaxFiles:  DefaultJournalFiles,
		},
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := ParseColor(c.Overlay.Color); err != nil {
		return &ValidationError{Path: "overlay.color", Err: err}
	}
	if c.Overlay.Alpha < 0 || c.Overlay.Alpha > 255 {
		return &ValidationError{Path: "overlay.alpha", Err: fmt.Errorf("alpha must be between 0 and 255")}
	}
	if c.Border.Width < 0 || c.Border.Width > 64 {
		return &ValidationError{Path: "border.width", Err: fmt.Errorf("width must be between 0 and 64")}
	}
	if _, err := ParseColor(c.Border.Color); err != nil {
		return &ValidationError{Path: "border.color", Err: err}
	}
	if _, err := ParseColor(c.Label.Color); err != nil {
		return &ValidationError{Path: "label.color", Err: err}
	}
	if _, err := ParseColor(c.Label.Background); err != nil {
		return &ValidationError{Path: "label.background", Err: err}
	}
	if _, err := render.ParsePreference(c.Render.Backend); err != nil {
		return &ValidationError{Path: "render.backend", Err: err}
	}
	if c.Render.FPS < 1 || c.Render.FPS > 480 {
		return &ValidationError{Path: "render.fps", Err: fmt.Errorf("fps must be between 1 and 480")}
	}
	if c.Throttle.Budget < 0 {
		return &ValidationError{Path: "throttle.budget", Err: fmt.Errorf("budget must be >= 0")}
	}
	if c.Throttle.IdleRefillMS < 0 {
		return &ValidationError{Path: "throttle.idle_refill_ms", Err: fmt.Errorf("idle_refill_ms must be >= 0")}
	}
	if c.Throttle.DragRefillMS < 0 {
		return &ValidationError{Path: "throttle.drag_refill_ms", Err: fmt.Errorf("drag_refill_ms must be >= 0")}
	}
	if c.Input.GrabRetries < 0 {
		return &ValidationError{Path: "input.grab_retries", Err: fmt.Errorf("grab_retries must be >= 0")}
	}
	if strings.TrimSpace(c.Hotkey) == "" {
		return &ValidationError{Path: "hotkey", Err: fmt.Errorf("hotkey is required")}
	}
	if !validLevel(c.LogLevel) {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if !validLevel(c.Journal.Level) {
		return &ValidationError{Path: "journal.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Journal.MaxSizeMB < 1 {
		return &ValidationError{Path: "journal.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 1")}
	}
	if c.Journal.MaxFiles < 1 {
		return &ValidationError{Path: "journal.max_files", Err: fmt.Errorf("max_files must be >= 1")}
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

// ParseColor parses #rrggbb (the leading # is optional) into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q must be #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q must be #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func mustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return c
}

// SelectorConfig converts the look and pacing keys for the selector.
// The config must have been validated.
func (c *Config) SelectorConfig() selector.Config {
	tint := mustColor(c.Overlay.Color)
	tint.A = uint8(c.Overlay.Alpha)
	pref, _ := render.ParsePreference(c.Render.Backend)

	return selector.Config{
		Tint:            tint,
		BorderWidth:     c.Border.Width,
		BorderColor:     mustColor(c.Border.Color),
		Label:           c.Label.Enabled,
		LabelColor:      mustColor(c.Label.Color),
		LabelBackground: mustColor(c.Label.Background),
		Backend:         pref,
		FPS:             c.Render.FPS,
		Throttle: pacing.ThrottleConfig{
			Budget:     c.Throttle.Budget,
			IdleRefill: time.Duration(c.Throttle.IdleRefillMS) * time.Millisecond,
			DragRefill: time.Duration(c.Throttle.DragRefillMS) * time.Millisecond,
		},
	}
}

// JournalPath returns the configured journal file or the default location.
func (c *Config) JournalPath() string {
	if c.Journal.File != "" {
		return c.Journal.File
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "regionsel-sessions.log")
	}
	return filepath.Join(home, ".local", "share", "regionsel", "sessions.log")
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save validates c and writes it to path, or to the default config path
// when path is empty.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
