package pacing

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestFrameTimer_FirstCallRendersThenLimits(t *testing.T) {
	clk := newFakeClock()
	ft := NewFrameTimerWithClock(60, clk.now)

	if !ft.ShouldRender() {
		t.Fatalf("first ShouldRender should be true")
	}
	if ft.ShouldRender() {
		t.Fatalf("immediate second ShouldRender should be false")
	}
	clk.advance(ft.Interval() + time.Millisecond)
	if !ft.ShouldRender() {
		t.Fatalf("ShouldRender after interval should be true")
	}
}

func TestFrameTimer_RealClock(t *testing.T) {
	ft := NewFrameTimer(60)
	if !ft.ShouldRender() {
		t.Fatalf("first ShouldRender should be true")
	}
	if ft.ShouldRender() {
		t.Fatalf("immediate second ShouldRender should be false")
	}
	time.Sleep(20 * time.Millisecond)
	if !ft.ShouldRender() {
		t.Fatalf("ShouldRender after 20ms should be true")
	}
}

func TestFrameTimer_DefaultsAndReset(t *testing.T) {
	clk := newFakeClock()
	ft := NewFrameTimerWithClock(0, clk.now)
	if ft.Interval() != time.Second/DefaultFPS {
		t.Fatalf("interval = %v, want %v", ft.Interval(), time.Second/DefaultFPS)
	}
	ft.ShouldRender()
	if ft.Remaining() == 0 {
		t.Fatalf("expected remaining time after a frame")
	}
	ft.Reset()
	if !ft.ShouldRender() {
		t.Fatalf("ShouldRender after Reset should be true")
	}
}

func TestPacer_CoalescesWhilePending(t *testing.T) {
	clk := newFakeClock()
	p := NewPacerWithClock(60, DefaultThrottleConfig(), clk.now)

	if got := p.Request(false, false); got != Allow {
		t.Fatalf("first request = %v, want allow", got)
	}
	if got := p.Request(false, false); got != Coalesced {
		t.Fatalf("second request while pending = %v, want coalesced", got)
	}
	if got := p.Request(false, true); got != Coalesced {
		t.Fatalf("forced request while pending = %v, want coalesced", got)
	}
	p.Done()
	clk.advance(time.Millisecond)
	if got := p.Request(false, true); got != Allow {
		t.Fatalf("forced request after done = %v, want allow", got)
	}
}

func TestPacer_BudgetThenDefer(t *testing.T) {
	clk := newFakeClock()
	cfg := ThrottleConfig{Budget: 2, IdleRefill: 250 * time.Millisecond, DragRefill: 32 * time.Millisecond}
	p := NewPacerWithClock(60, cfg, clk.now)

	if got := p.Request(false, false); got != Allow {
		t.Fatalf("frame request = %v, want allow", got)
	}
	p.Done()

	for i := 0; i < 2; i++ {
		clk.advance(time.Millisecond)
		if got := p.Request(false, false); got != Allow {
			t.Fatalf("burst request %d = %v, want allow", i, got)
		}
		p.Done()
	}
	if p.Budget() != 0 {
		t.Fatalf("budget = %d, want 0", p.Budget())
	}

	clk.advance(time.Millisecond)
	if got := p.Request(false, false); got != Deferred {
		t.Fatalf("over-budget request = %v, want deferred", got)
	}
	if p.RetryAfter() <= 0 {
		t.Fatalf("RetryAfter should be positive")
	}
}

func TestPacer_ForceConsumesNoBudget(t *testing.T) {
	clk := newFakeClock()
	cfg := ThrottleConfig{Budget: 1}
	p := NewPacerWithClock(60, cfg, clk.now)

	p.Request(false, false)
	p.Done()
	for i := 0; i < 5; i++ {
		clk.advance(time.Millisecond)
		if got := p.Request(false, true); got != Allow {
			t.Fatalf("forced request %d = %v, want allow", i, got)
		}
		p.Done()
	}
	if p.Budget() != 1 {
		t.Fatalf("budget = %d, want 1", p.Budget())
	}
}

func TestPacer_IdleRefill(t *testing.T) {
	clk := newFakeClock()
	cfg := ThrottleConfig{Budget: 1, IdleRefill: 250 * time.Millisecond, DragRefill: time.Hour}
	p := NewPacerWithClock(1, cfg, clk.now)

	p.Request(false, false)
	p.Done()
	clk.advance(time.Millisecond)
	if got := p.Request(false, false); got != Allow {
		t.Fatalf("budgeted request = %v, want allow", got)
	}
	p.Done()
	clk.advance(time.Millisecond)
	if got := p.Request(false, false); got != Deferred {
		t.Fatalf("exhausted request = %v, want deferred", got)
	}

	clk.advance(300 * time.Millisecond)
	if got := p.Request(false, false); got != Allow {
		t.Fatalf("request after idle = %v, want allow", got)
	}
}

func TestPacer_DragRefill(t *testing.T) {
	clk := newFakeClock()
	cfg := ThrottleConfig{Budget: 1, IdleRefill: time.Hour, DragRefill: 32 * time.Millisecond}
	p := NewPacerWithClock(1, cfg, clk.now)

	p.Request(true, false)
	p.Done()
	clk.advance(time.Millisecond)
	p.Request(true, false)
	p.Done()
	clk.advance(time.Millisecond)
	if got := p.Request(true, false); got != Deferred {
		t.Fatalf("exhausted drag request = %v, want deferred", got)
	}
	clk.advance(40 * time.Millisecond)
	if got := p.Request(true, false); got != Allow {
		t.Fatalf("drag request after refill = %v, want allow", got)
	}
}

func TestThrottle_StalePendingIsDropped(t *testing.T) {
	clk := newFakeClock()
	th := NewThrottle(DefaultThrottleConfig(), clk.now())
	th.MarkPending(clk.now())
	if !th.Pending(clk.now()) {
		t.Fatalf("expected pending")
	}
	clk.advance(time.Second)
	if th.Pending(clk.now()) {
		t.Fatalf("expected stale pending to be dropped")
	}
}
