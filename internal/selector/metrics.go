package selector

import (
	"log/slog"
	"time"

	"github.com/1broseidon/regionsel/internal/render"
)

// Session outcomes reported to Metrics.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Metrics receives session telemetry. Calls happen on the event loop
// goroutine.
type Metrics interface {
	SessionStarted(mode string, windows int)
	FrameRendered(kind render.Kind, d time.Duration)
	RedrawSkipped(reason string)
	SessionEnded(outcome string, d time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) SessionStarted(string, int)               {}
func (NopMetrics) FrameRendered(render.Kind, time.Duration) {}
func (NopMetrics) RedrawSkipped(string)                     {}
func (NopMetrics) SessionEnded(string, time.Duration)       {}

// SlogMetrics logs session boundaries at info and per-frame data at debug.
type SlogMetrics struct {
	Logger *slog.Logger
}

func (m SlogMetrics) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m SlogMetrics) SessionStarted(mode string, windows int) {
	m.logger().Info("selection started", "mode", mode, "windows", windows)
}

func (m SlogMetrics) FrameRendered(kind render.Kind, d time.Duration) {
	m.logger().Debug("frame", "backend", kind.String(), "duration", d)
}

func (m SlogMetrics) RedrawSkipped(reason string) {
	m.logger().Debug("redraw skipped", "reason", reason)
}

func (m SlogMetrics) SessionEnded(outcome string, d time.Duration) {
	m.logger().Info("selection ended", "outcome", outcome, "duration", d.Round(time.Millisecond))
}

// Tee fans every call out to ms in order.
func Tee(ms ...Metrics) Metrics { return tee(ms) }

type tee []Metrics

func (t tee) SessionStarted(mode string, windows int) {
	for _, m := range t {
		m.SessionStarted(mode, windows)
	}
}

func (t tee) FrameRendered(kind render.Kind, d time.Duration) {
	for _, m := range t {
		m.FrameRendered(kind, d)
	}
}

func (t tee) RedrawSkipped(reason string) {
	for _, m := range t {
		m.RedrawSkipped(reason)
	}
}

func (t tee) SessionEnded(outcome string, d time.Duration) {
	for _, m := range t {
		m.SessionEnded(outcome, d)
	}
}
