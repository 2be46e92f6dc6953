package selector

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/dispatch"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/render"
)

type fakeOpener struct {
	sess  *fakeSession
	err   error
	opens int
}

func (o *fakeOpener) Open() (platform.Session, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return o.sess, nil
}

// fakeSession runs a scripted event sequence. Redraw requests and posted
// functions are drained after every scripted event.
type fakeSession struct {
	displays    []desktop.DisplayInfo
	failWindows map[uint32]bool
	deviceErr   error
	blitErr     error
	panicAtBlit int
	script      []dispatch.Event
	block       bool
	onRun       func()

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	quit   bool
	timers []time.Duration

	handle  func(dispatch.Event)
	log     []string
	blits   int
	windows map[uint32]*fakeWindow
}

func newFakeSession(displays ...desktop.DisplayInfo) *fakeSession {
	return &fakeSession{
		displays: displays,
		wake:     make(chan struct{}, 1),
		windows:  make(map[uint32]*fakeWindow),
	}
}

func (f *fakeSession) record(format string, args ...any) {
	f.log = append(f.log, fmt.Sprintf(format, args...))
}

func (f *fakeSession) Displays() ([]desktop.DisplayInfo, error) { return f.displays, nil }

func (f *fakeSession) CreateWindow(d desktop.DisplayInfo) (platform.NativeWindow, error) {
	if f.failWindows[d.ID] {
		return nil, errors.New("window create failed")
	}
	w := &fakeWindow{id: 100 + d.ID, sess: f}
	f.windows[w.id] = w
	return w, nil
}

func (f *fakeSession) NewDevice(platform.NativeWindow) (render.Device, error) {
	if f.deviceErr != nil {
		return nil, f.deviceErr
	}
	return nil, errors.New("no render extension")
}

func (f *fakeSession) NewBlitter(w platform.NativeWindow) (render.Blitter, error) {
	if f.blitErr != nil {
		return nil, f.blitErr
	}
	return &fakeBlitter{win: w.(*fakeWindow)}, nil
}

func (f *fakeSession) BeginPresentation() error { f.record("begin"); return nil }
func (f *fakeSession) GrabInput() error         { f.record("grab"); return nil }
func (f *fakeSession) EndPresentation()         { f.record("end") }
func (f *fakeSession) Close()                   { f.record("close") }

func (f *fakeSession) Run(handle func(dispatch.Event)) error {
	f.handle = handle
	f.record("run")
	if f.onRun != nil {
		f.onRun()
	}
	for _, ev := range f.script {
		if f.stopped() {
			return nil
		}
		handle(ev)
		f.drain()
	}
	for f.block && !f.stopped() {
		<-f.wake
		f.drain()
	}
	return nil
}

func (f *fakeSession) drain() {
	for {
		f.mu.Lock()
		if len(f.queue) == 0 || f.quit {
			f.mu.Unlock()
			return
		}
		fn := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		fn()
	}
}

func (f *fakeSession) stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quit
}

func (f *fakeSession) Post(fn func()) {
	f.mu.Lock()
	f.queue = append(f.queue, fn)
	f.mu.Unlock()
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *fakeSession) After(d time.Duration, _ func()) {
	f.mu.Lock()
	f.timers = append(f.timers, d)
	f.mu.Unlock()
}

func (f *fakeSession) Quit() {
	f.mu.Lock()
	f.quit = true
	f.mu.Unlock()
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

type fakeWindow struct {
	id    uint32
	sess  *fakeSession
	frame *image.RGBA
}

func (w *fakeWindow) ID() uint32 { return w.id }
func (w *fakeWindow) Show()      { w.sess.record("show:%d", w.id) }
func (w *fakeWindow) Destroy()   { w.sess.record("destroy:%d", w.id) }

func (w *fakeWindow) RequestRedraw() {
	w.sess.Post(func() { w.sess.handle(dispatch.Redraw(w.id)) })
}

type fakeBlitter struct{ win *fakeWindow }

func (b *fakeBlitter) Blit(frame *image.RGBA) error {
	s := b.win.sess
	s.blits++
	if s.panicAtBlit > 0 && s.blits == s.panicAtBlit {
		panic("blit exploded")
	}
	s.record("blit:%d", b.win.id)
	cp := image.NewRGBA(frame.Bounds())
	copy(cp.Pix, frame.Pix)
	b.win.frame = cp
	return nil
}

func (b *fakeBlitter) Release() { b.win.sess.record("release:%d", b.win.id) }

type recordingMetrics struct {
	started  []string
	frames   int
	skipped  []string
	outcomes []string
}

func (m *recordingMetrics) SessionStarted(mode string, _ int)        { m.started = append(m.started, mode) }
func (m *recordingMetrics) FrameRendered(render.Kind, time.Duration) { m.frames++ }
func (m *recordingMetrics) RedrawSkipped(reason string)              { m.skipped = append(m.skipped, reason) }
func (m *recordingMetrics) SessionEnded(outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}
