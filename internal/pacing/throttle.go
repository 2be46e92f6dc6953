package pacing

import "time"

// Decision is the outcome of a redraw request.
type Decision int

const (
	// Allow means the caller should issue a redraw now.
	Allow Decision = iota
	// Coalesced means a redraw is already pending and will show the latest state.
	Coalesced
	// Deferred means the request was throttled; retry after RetryAfter.
	Deferred
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Coalesced:
		return "coalesced"
	case Deferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// ThrottleConfig tunes the redraw budget.
type ThrottleConfig struct {
	// Budget is the number of redraws allowed inside the frame interval.
	Budget int
	// IdleRefill restores the full budget after a quiet period.
	IdleRefill time.Duration
	// DragRefill restores the full budget periodically while dragging.
	DragRefill time.Duration
}

// DefaultThrottleConfig returns the stock budget settings.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Budget:     4,
		IdleRefill: 250 * time.Millisecond,
		DragRefill: 32 * time.Millisecond,
	}
}

// Throttle tracks the redraw budget and the pending-redraw flag.
type Throttle struct {
	cfg          ThrottleConfig
	budget       int
	pending      bool
	pendingSince time.Time
	lastActivity time.Time
	lastRefill   time.Time
}

// NewThrottle returns a throttle with a full budget.
func NewThrottle(cfg ThrottleConfig, now time.Time) *Throttle {
	def := DefaultThrottleConfig()
	if cfg.Budget < 0 {
		cfg.Budget = 0
	}
	if cfg.IdleRefill <= 0 {
		cfg.IdleRefill = def.IdleRefill
	}
	if cfg.DragRefill <= 0 {
		cfg.DragRefill = def.DragRefill
	}
	return &Throttle{
		cfg:          cfg,
		budget:       cfg.Budget,
		lastActivity: now,
		lastRefill:   now,
	}
}

// Budget returns the remaining budget.
func (t *Throttle) Budget() int { return t.budget }

// Pending reports whether a redraw has been requested and not yet performed.
// A pending flag older than the idle refill window is treated as lost.
func (t *Throttle) Pending(now time.Time) bool {
	if !t.pending {
		return false
	}
	if now.Sub(t.pendingSince) >= t.cfg.IdleRefill {
		t.pending = false
		return false
	}
	return true
}

// MarkPending records that a redraw was requested.
func (t *Throttle) MarkPending(now time.Time) {
	t.pending = true
	t.pendingSince = now
}

// Done clears the pending flag once a redraw has been performed.
func (t *Throttle) Done() {
	t.pending = false
}

// Take consumes one unit of budget, refilling first when due.
func (t *Throttle) Take(now time.Time, dragging bool) bool {
	t.refill(now, dragging)
	if t.budget <= 0 {
		return false
	}
	t.budget--
	return true
}

// Touch records input activity for idle refill accounting.
func (t *Throttle) Touch(now time.Time) {
	t.lastActivity = now
}

func (t *Throttle) refill(now time.Time, dragging bool) {
	if now.Sub(t.lastActivity) >= t.cfg.IdleRefill {
		t.budget = t.cfg.Budget
		t.lastRefill = now
		return
	}
	if dragging && now.Sub(t.lastRefill) >= t.cfg.DragRefill {
		t.budget = t.cfg.Budget
		t.lastRefill = now
	}
}

// Pacer gates redraw requests through a frame timer and a throttle.
type Pacer struct {
	timer    *FrameTimer
	throttle *Throttle
	now      Clock
}

// NewPacer returns a pacer for the given frame rate and budget.
func NewPacer(fps int, cfg ThrottleConfig) *Pacer {
	return NewPacerWithClock(fps, cfg, time.Now)
}

// NewPacerWithClock is NewPacer with an explicit clock.
func NewPacerWithClock(fps int, cfg ThrottleConfig, now Clock) *Pacer {
	if now == nil {
		now = time.Now
	}
	return &Pacer{
		timer:    NewFrameTimerWithClock(fps, now),
		throttle: NewThrottle(cfg, now()),
		now:      now,
	}
}

// Request decides whether a redraw should be issued. Forced requests skip
// the frame timer and the budget but still coalesce with a pending redraw.
func (p *Pacer) Request(dragging, force bool) Decision {
	now := p.now()
	defer p.throttle.Touch(now)

	if p.throttle.Pending(now) {
		return Coalesced
	}
	if force {
		p.throttle.MarkPending(now)
		return Allow
	}
	if p.timer.ShouldRender() {
		p.throttle.MarkPending(now)
		return Allow
	}
	if p.throttle.Take(now, dragging) {
		p.throttle.MarkPending(now)
		return Allow
	}
	return Deferred
}

// Done clears the pending flag after a redraw.
func (p *Pacer) Done() {
	p.throttle.Done()
}

// RetryAfter returns how long a deferred request should wait.
func (p *Pacer) RetryAfter() time.Duration {
	left := p.timer.Remaining()
	if left < time.Millisecond {
		return time.Millisecond
	}
	return left
}

// Budget returns the remaining burst budget.
func (p *Pacer) Budget() int { return p.throttle.Budget() }
