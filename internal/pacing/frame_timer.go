package pacing

import "time"

// DefaultFPS is used when a non-positive frame rate is requested.
const DefaultFPS = 60

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// FrameTimer allows at most one frame per fixed interval.
type FrameTimer struct {
	interval  time.Duration
	lastFrame time.Time
	now       Clock
}

// NewFrameTimer returns a timer for the target frame rate. The first call
// to ShouldRender always succeeds.
func NewFrameTimer(fps int) *FrameTimer {
	return NewFrameTimerWithClock(fps, time.Now)
}

// NewFrameTimerWithClock is NewFrameTimer with an explicit clock.
func NewFrameTimerWithClock(fps int, now Clock) *FrameTimer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if now == nil {
		now = time.Now
	}
	interval := time.Second / time.Duration(fps)
	return &FrameTimer{
		interval:  interval,
		lastFrame: now().Add(-interval),
		now:       now,
	}
}

// Interval returns the minimum time between frames.
func (t *FrameTimer) Interval() time.Duration { return t.interval }

// ShouldRender reports whether a frame may be rendered now and, if so,
// records the frame time.
func (t *FrameTimer) ShouldRender() bool {
	now := t.now()
	if now.Sub(t.lastFrame) < t.interval {
		return false
	}
	t.lastFrame = now
	return true
}

// Remaining returns the time until the next frame is allowed.
func (t *FrameTimer) Remaining() time.Duration {
	left := t.interval - t.now().Sub(t.lastFrame)
	if left < 0 {
		return 0
	}
	return left
}

// Reset makes the next ShouldRender succeed.
func (t *FrameTimer) Reset() {
	t.lastFrame = t.now().Add(-t.interval)
}
