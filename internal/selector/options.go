package selector

import (
	"image/color"
	"log/slog"

	"github.com/1broseidon/regionsel/internal/pacing"
	"github.com/1broseidon/regionsel/internal/render"
)

// Config controls the look and pacing of a selection session.
type Config struct {
	Tint            color.RGBA
	BorderWidth     int
	BorderColor     color.RGBA
	Label           bool
	LabelColor      color.RGBA
	LabelBackground color.RGBA
	Backend         render.Preference
	FPS             int
	Throttle        pacing.ThrottleConfig
}

// DefaultConfig returns a half-transparent black backdrop with a 2px white
// border and the size label enabled.
func DefaultConfig() Config {
	return Config{
		Tint:            color.RGBA{R: 0, G: 0, B: 0, A: 128},
		BorderWidth:     2,
		BorderColor:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Label:           true,
		LabelColor:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		LabelBackground: color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 255},
		Backend:         render.PreferAuto,
		FPS:             pacing.DefaultFPS,
		Throttle:        pacing.DefaultThrottleConfig(),
	}
}

// Option configures a Selector.
type Option func(*Selector)

// WithConfig replaces the session configuration.
func WithConfig(cfg Config) Option {
	return func(s *Selector) { s.cfg = cfg }
}

// WithLogger sets the logger used for recoverable problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the telemetry sink.
func WithMetrics(m Metrics) Option {
	return func(s *Selector) {
		if m != nil {
			s.metrics = m
		}
	}
}
