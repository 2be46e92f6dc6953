package x11

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/dispatch"
	"github.com/1broseidon/regionsel/internal/overlay"
	"github.com/1broseidon/regionsel/internal/render"
)

const wakeAtomName = "_REGIONSEL_WAKE"

// DefaultGrabRetries is used when Options.GrabRetries is zero.
const DefaultGrabRetries = 8

// Options configures an X11 selection session.
type Options struct {
	// Display overrides $DISPLAY.
	Display string
	// GrabRetries bounds the attempts made for each input grab.
	GrabRetries int
}

// Session runs one selection on its own X connection.
type Session struct {
	conn     *Connection
	retries  int
	cursor   xproto.Cursor
	wake     *xwindow.Window
	wakeAtom xproto.Atom

	windows []*Window
	up      *uploader
	upErr   error

	prevActive xproto.Window
	grabbed    bool

	handle func(dispatch.Event)
	shift  bool
	alt    bool

	mu     sync.Mutex
	queue  []func()
	timers []*time.Timer
	quit   atomic.Bool
}

// Open connects to the X server and prepares the session resources.
func Open(opts Options) (*Session, error) {
	conn, err := NewConnection(opts.Display)
	if err != nil {
		return nil, err
	}

	retries := opts.GrabRetries
	if retries <= 0 {
		retries = DefaultGrabRetries
	}
	s := &Session{conn: conn, retries: retries}

	s.cursor, err = xcursor.CreateCursor(conn.XUtil, xcursor.Crosshair)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create crosshair cursor: %w", err)
	}

	atom, err := xproto.InternAtom(conn.XUtil.Conn(), false, uint16(len(wakeAtomName)), wakeAtomName).Reply()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to intern %s: %w", wakeAtomName, err)
	}
	s.wakeAtom = atom.Atom

	// The wake window is never mapped. Client messages sent to it with an
	// empty event mask are delivered to this connection only.
	wake, err := xwindow.Generate(conn.XUtil)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := wake.CreateChecked(conn.Root, -1, -1, 1, 1, 0); err != nil {
		s.Close()
		return nil, fmt.Errorf("create wake window: %w", err)
	}
	s.wake = wake
	return s, nil
}

// Connection exposes the underlying connection.
func (s *Session) Connection() *Connection { return s.conn }

// Displays returns the current monitor layout.
func (s *Session) Displays() ([]desktop.DisplayInfo, error) {
	return s.conn.Displays()
}

// CreateWindow creates an unmapped overlay covering d.
func (s *Session) CreateWindow(d desktop.DisplayInfo) (overlay.NativeWindow, error) {
	w, err := createOverlay(s.conn, d, s.cursor)
	if err != nil {
		return nil, err
	}
	s.windows = append(s.windows, w)
	return w, nil
}

// NewDevice binds a RENDER device to w.
func (s *Session) NewDevice(w overlay.NativeWindow) (render.Device, error) {
	win, ok := w.(*Window)
	if !ok {
		return nil, fmt.Errorf("foreign window %T", w)
	}
	if s.up == nil && s.upErr == nil {
		s.up, s.upErr = newUploader(s.conn)
	}
	if s.upErr != nil {
		return nil, s.upErr
	}
	return newDevice(s.conn, win, s.up)
}

// NewBlitter binds an xgraphics blitter to w.
func (s *Session) NewBlitter(w overlay.NativeWindow) (render.Blitter, error) {
	win, ok := w.(*Window)
	if !ok {
		return nil, fmt.Errorf("foreign window %T", w)
	}
	return newBlitter(s.conn, win), nil
}

// BeginPresentation remembers the active window so focus can be handed back.
func (s *Session) BeginPresentation() error {
	s.prevActive = s.conn.ActiveWindow()
	return nil
}

// GrabInput grabs the keyboard and pointer on the first overlay.
func (s *Session) GrabInput() error {
	if len(s.windows) == 0 {
		return errors.New("no overlay to grab input on")
	}
	target := s.windows[0].id
	if err := s.conn.grabKeyboard(target, s.retries); err != nil {
		return err
	}
	if err := s.conn.grabPointer(target, s.cursor, s.retries); err != nil {
		xproto.UngrabKeyboard(s.conn.XUtil.Conn(), xproto.TimeCurrentTime)
		xevent.RedirectKeyEvents(s.conn.XUtil, 0)
		return err
	}
	s.grabbed = true
	return nil
}

// EndPresentation releases the grabs and refocuses the previous window.
func (s *Session) EndPresentation() {
	if s.grabbed {
		s.conn.ungrab()
		s.grabbed = false
	}
	if s.prevActive != 0 {
		if err := s.conn.FocusWindow(s.prevActive); err != nil {
			log.Printf("X11: failed to restore focus to 0x%x: %v", s.prevActive, err)
		}
	}
	// Round trip so the ungrab is processed before the caller moves on.
	xproto.GetInputFocus(s.conn.XUtil.Conn()).Reply()
}

// Run delivers events for every created overlay until Quit.
func (s *Session) Run(handle func(dispatch.Event)) error {
	xu := s.conn.XUtil
	s.handle = handle

	for _, w := range s.windows {
		s.attach(w)
	}
	xevent.ClientMessageFun(func(_ *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if ev.Type == s.wakeAtom {
			s.drain()
		}
	}).Connect(xu, s.wake.Id)

	defer func() {
		for _, w := range s.windows {
			xevent.Detach(xu, w.id)
		}
		xevent.Detach(xu, s.wake.Id)
	}()

	s.drain()
	if !s.quit.Load() {
		xevent.Main(xu)
	}
	return nil
}

// Post queues fn for the event loop and wakes it.
func (s *Session) Post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.sendWake()
}

// After posts fn once d has elapsed.
func (s *Session) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(d, func() { s.Post(fn) }))
}

// Quit stops the event loop. Safe from any goroutine.
func (s *Session) Quit() {
	s.quit.Store(true)
	s.sendWake()
}

// Close frees server resources and the connection.
func (s *Session) Close() {
	s.mu.Lock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	c := s.conn.XUtil.Conn()
	if s.up != nil {
		s.up.release()
	}
	if s.wake != nil {
		s.wake.Destroy()
	}
	if s.cursor != 0 {
		xproto.FreeCursor(c, s.cursor)
	}
	s.conn.Close()
}

func (s *Session) sendWake() {
	if s.wake == nil {
		return
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: s.wake.Id,
		Type:   s.wakeAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, 0, 0, 0, 0}),
	}
	xproto.SendEvent(s.conn.XUtil.Conn(), false, s.wake.Id, xproto.EventMaskNoEvent, string(ev.Bytes()))
}

func (s *Session) drain() {
	for !s.quit.Load() {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			break
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
	}
	s.checkQuit()
}

func (s *Session) deliver(ev dispatch.Event) {
	if s.quit.Load() {
		s.checkQuit()
		return
	}
	s.handle(ev)
	s.checkQuit()
}

// checkQuit runs on the loop goroutine, where xevent.Quit is safe to call.
func (s *Session) checkQuit() {
	if s.quit.Load() {
		xevent.Quit(s.conn.XUtil)
	}
}

// syncModifiers reports a modifier change seen in a pointer event state.
func (s *Session) syncModifiers(win uint32, state uint16) {
	shift, alt := modifiers(state)
	if shift == s.shift && alt == s.alt {
		return
	}
	s.shift, s.alt = shift, alt
	s.deliver(dispatch.ModifiersChanged(win, shift, alt))
}

func (s *Session) key(win uint32, code xproto.Keycode, pressed bool) {
	key := keyFromCode(s.conn.XUtil, code)
	switch key {
	case dispatch.KeyOther:
		return
	case dispatch.KeyShift:
		s.shift = pressed
	case dispatch.KeyAlt:
		s.alt = pressed
	}
	if pressed {
		s.deliver(dispatch.KeyPress(win, key))
	} else {
		s.deliver(dispatch.KeyRelease(win, key))
	}
}

func (s *Session) attach(w *Window) {
	xu := s.conn.XUtil
	id := w.ID()

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		if ev.Detail != xproto.ButtonIndex1 {
			return
		}
		s.syncModifiers(id, ev.State)
		s.deliver(dispatch.MouseDown(id, point(ev.EventX, ev.EventY)))
	}).Connect(xu, w.id)

	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		if ev.Detail != xproto.ButtonIndex1 {
			return
		}
		s.deliver(dispatch.MouseUp(id, point(ev.EventX, ev.EventY)))
	}).Connect(xu, w.id)

	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		s.syncModifiers(id, ev.State)
		s.deliver(dispatch.MouseMove(id, point(ev.EventX, ev.EventY)))
	}).Connect(xu, w.id)

	xevent.KeyPressFun(func(_ *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		s.key(id, ev.Detail, true)
	}).Connect(xu, w.id)

	xevent.KeyReleaseFun(func(_ *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		s.key(id, ev.Detail, false)
	}).Connect(xu, w.id)

	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 {
			s.deliver(dispatch.Redraw(id))
		}
	}).Connect(xu, w.id)

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if w.resized(int(ev.Width), int(ev.Height)) {
			s.deliver(dispatch.Resize(id, int(ev.Width), int(ev.Height)))
		}
	}).Connect(xu, w.id)

	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		if ev.Window == w.id {
			log.Printf("X11: overlay 0x%x destroyed externally", w.id)
			s.deliver(dispatch.Close(id))
		}
	}).Connect(xu, w.id)
}

func point(x, y int16) desktop.Point {
	return desktop.Point{X: float64(x), Y: float64(y)}
}
