package selector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime/debug"
	"time"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/dispatch"
	"github.com/1broseidon/regionsel/internal/imagecache"
	"github.com/1broseidon/regionsel/internal/overlay"
	"github.com/1broseidon/regionsel/internal/pacing"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/render"
	"github.com/1broseidon/regionsel/internal/selection"
)

// session holds everything scoped to one selection.
type session struct {
	sel  *Selector
	req  request
	plat platform.Session

	desk     *desktop.VirtualDesktop
	windows  *overlay.Registry
	state    *selection.State
	disp     *dispatch.Dispatcher
	pacer    *pacing.Pacer
	cache    *imagecache.Cache
	factory  *render.Factory
	offsets  map[overlay.Handle]image.Point
	clearCol color.RGBA

	inflight     int
	dirty        bool
	retryPending bool
	done         bool
	err          error
}

func (s *Selector) run(ctx context.Context, req request) (region *selection.Region, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	outcome := OutcomeError
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("selection session panicked", "panic", r, "stack", string(debug.Stack()))
			region = nil
			err = &InternalError{Op: "session", Err: fmt.Errorf("panic: %v", r)}
			outcome = OutcomeError
		}
		s.metrics.SessionEnded(outcome, time.Since(started))
	}()

	plat, err := s.opener.Open()
	if err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return nil, internal("open platform session", err)
	}
	defer plat.Close()

	sess := &session{
		sel:     s,
		req:     req,
		plat:    plat,
		state:   selection.New(),
		pacer:   pacing.NewPacer(s.cfg.FPS, s.cfg.Throttle),
		cache:   imagecache.New(s.cfg.Tint),
		factory: render.NewFactory(s.cfg.Backend, s.logger),
		offsets: make(map[overlay.Handle]image.Point),
	}

	region, err = sess.run(ctx)
	switch {
	case sess.err != nil:
		return nil, sess.err
	case err != nil:
		return nil, err
	case region != nil:
		outcome = OutcomeConfirmed
	default:
		outcome = OutcomeCancelled
	}
	return region, nil
}

func (s *session) run(ctx context.Context) (*selection.Region, error) {
	displays, err := s.plat.Displays()
	if err != nil {
		return nil, internal("query displays", err)
	}
	desk, err := desktop.New(displays)
	if err != nil {
		return nil, internal("build virtual desktop", err)
	}
	s.desk = desk

	targets := desk.Displays
	if s.req.mode == modeSingle {
		targets = []desktop.DisplayInfo{desk.Primary()}
	} else {
		s.state.SetVirtualBounds(&desk.Bounds)
	}

	s.windows = overlay.NewRegistry(s.plat, s.sel.logger)
	if err := s.windows.CreateAll(targets); err != nil {
		return nil, internal("create windows", err)
	}
	defer s.windows.DestroyAll()

	s.disp = dispatch.New(s.windows, s.state, s.req.mode != modeSingle)
	s.prime()

	// Drawing before the map checks every backend. A platform may discard
	// this frame and show the one drawn for its first expose.
	var firstErr error
	s.windows.Each(func(h overlay.Handle, w *overlay.WindowInfo) {
		if err := s.renderWindow(h, w); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	if firstErr != nil {
		if errors.Is(firstErr, render.ErrUnsupported) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, firstErr)
		}
		return nil, internal("render first frame", firstErr)
	}

	if err := s.plat.BeginPresentation(); err != nil {
		return nil, internal("begin presentation", err)
	}
	defer s.plat.EndPresentation()

	s.windows.ShowAll()
	if err := s.plat.GrabInput(); err != nil {
		return nil, internal("grab input", err)
	}
	s.sel.metrics.SessionStarted(s.req.mode.String(), s.windows.Len())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.plat.Post(s.plat.Quit)
		case <-stop:
		}
	}()

	if err := s.plat.Run(s.handle); err != nil {
		return nil, internal("event loop", err)
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil && !s.done {
		return nil, err
	}
	return s.state.Result(), nil
}

// prime builds the cached backdrops and the per-window image offsets.
func (s *session) prime() {
	tint := s.sel.cfg.Tint
	a := uint32(tint.A)
	s.clearCol = color.RGBA{
		R: uint8(uint32(tint.R) * a / 255),
		G: uint8(uint32(tint.G) * a / 255),
		B: uint8(uint32(tint.B) * a / 255),
		A: 255,
	}
	if s.req.background == nil {
		return
	}

	s.cache.Prime(s.req.background)
	s.clearCol = color.RGBA{A: 255}
	if s.req.mode != modeVirtual {
		return
	}
	s.windows.Each(func(h overlay.Handle, w *overlay.WindowInfo) {
		origin := image.Pt(w.VirtualX, w.VirtualY)
		if l, ok := layoutFor(w.Display, s.req.layouts); ok {
			origin = image.Pt(l.Rect.X, l.Rect.Y)
		}
		s.offsets[h] = s.req.origin.Sub(origin)
	})
}

// layoutFor finds the physical layout of d, matched by its logical or
// physical position.
func layoutFor(d desktop.DisplayInfo, layouts []desktop.Layout) (desktop.Layout, bool) {
	phys := d.PhysicalBounds()
	for _, l := range layouts {
		if l.Rect.X == d.X && l.Rect.Y == d.Y {
			return l, true
		}
		if l.Rect.X == phys.X && l.Rect.Y == phys.Y {
			return l, true
		}
	}
	return desktop.Layout{}, false
}

// handle runs on the event loop goroutine.
func (s *session) handle(ev dispatch.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.sel.logger.Error("selection event panicked", "event", ev.Kind.String(), "panic", r, "stack", string(debug.Stack()))
			s.err = &InternalError{Op: "handle " + ev.Kind.String(), Err: fmt.Errorf("panic: %v", r)}
			s.state.ClearResult()
			s.plat.Quit()
		}
	}()
	if s.done {
		return
	}

	if ev.Kind == dispatch.KindRedraw {
		s.redraw(ev.Window)
		return
	}

	res := s.disp.Dispatch(ev)
	switch res.Action {
	case dispatch.ActionExit:
		s.state.ClearResult()
		s.finish()
	case dispatch.ActionFinish:
		region, ok := s.state.Region(s.disp.Scale())
		if !ok {
			return
		}
		s.state.SetResult(&region)
		s.finish()
	default:
		if res.Redraw {
			s.requestRedraw(res.Force)
		}
	}
}

func (s *session) finish() {
	s.done = true
	s.plat.Quit()
}

func (s *session) requestRedraw(force bool) {
	switch s.pacer.Request(s.state.Dragging(), force) {
	case pacing.Allow:
		s.inflight = s.windows.Len()
		s.windows.RequestRedrawAll()
	case pacing.Coalesced:
		s.dirty = true
		s.sel.metrics.RedrawSkipped("coalesced")
	case pacing.Deferred:
		s.sel.metrics.RedrawSkipped("throttled")
		s.scheduleRetry()
	}
}

// scheduleRetry replays a throttled redraw so the last state is presented.
func (s *session) scheduleRetry() {
	if s.retryPending {
		return
	}
	s.retryPending = true
	s.plat.After(s.pacer.RetryAfter(), func() {
		s.retryPending = false
		if !s.done {
			s.requestRedraw(false)
		}
	})
}

func (s *session) redraw(native uint32) {
	h, ok := s.windows.Lookup(native)
	if !ok {
		return
	}
	if err := s.renderWindow(h, s.windows.Get(h)); err != nil {
		s.sel.logger.Warn("frame render failed", "window", native, "error", err)
	}

	if s.inflight > 0 {
		s.inflight--
	}
	if s.inflight == 0 {
		s.pacer.Done()
		if s.dirty {
			s.dirty = false
			s.requestRedraw(true)
		}
	}
}

func (s *session) backend(w *overlay.WindowInfo) (*render.Backend, error) {
	if b := w.Backend(); b != nil {
		return b, nil
	}
	b, err := s.factory.Create(
		func() (render.Device, error) { return s.plat.NewDevice(w.Native) },
		func() (render.Blitter, error) { return s.plat.NewBlitter(w.Native) },
	)
	if err != nil {
		return nil, err
	}
	w.SetBackend(b)
	return b, nil
}

func (s *session) renderWindow(h overlay.Handle, w *overlay.WindowInfo) error {
	started := time.Now()
	b, err := s.backend(w)
	if err != nil {
		return err
	}
	if err := b.PrepareSurface(w.Width, w.Height); err != nil {
		return err
	}

	drawFrame(b.Canvas(), frame{
		cfg:      s.sel.cfg,
		clear:    s.clearCol,
		tinted:   s.cache.Tinted(),
		original: s.cache.Original(),
		offset:   s.offsets[h],
		window:   w,
		virtual:  s.disp.Virtual(),
		state:    s.state,
	})

	if err := b.FlushAndPresent(); err != nil {
		return err
	}
	s.sel.metrics.FrameRendered(b.Kind(), time.Since(started))
	return nil
}
