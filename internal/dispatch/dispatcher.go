package dispatch

import (
	"image"
	"math"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/overlay"
	"github.com/1broseidon/regionsel/internal/selection"
)

// Dispatcher turns native events into selection state transitions.
type Dispatcher struct {
	windows *overlay.Registry
	state   *selection.State
	virtual bool

	active overlay.Handle
}

// New returns a dispatcher. In virtual mode cursor positions are mapped to
// virtual-desktop space; otherwise they are divided by the window scale.
func New(windows *overlay.Registry, state *selection.State, virtual bool) *Dispatcher {
	return &Dispatcher{windows: windows, state: state, virtual: virtual, active: -1}
}

// Virtual reports whether the dispatcher works in virtual-desktop space.
func (d *Dispatcher) Virtual() bool { return d.virtual }

// Active returns the window that received the last pointer event.
func (d *Dispatcher) Active() (*overlay.WindowInfo, bool) {
	w := d.windows.Get(d.active)
	return w, w != nil
}

// Scale returns the scale recorded on a finished region: 1 in virtual mode,
// otherwise the scale of the active window.
func (d *Dispatcher) Scale() float64 {
	if d.virtual {
		return 1
	}
	if w, ok := d.Active(); ok {
		return w.Scale
	}
	if w := d.windows.Get(0); w != nil {
		return w.Scale
	}
	return 1
}

// Dispatch applies ev. Events for unknown windows are ignored, except Close.
// Redraw events are not handled here.
func (d *Dispatcher) Dispatch(ev Event) Result {
	if ev.Kind == KindClose {
		d.state.ClearResult()
		return Exit
	}

	h, ok := d.windows.Lookup(ev.Window)
	if !ok {
		return Continue(false, false)
	}
	win := d.windows.Get(h)

	switch ev.Kind {
	case KindMouseDown, KindMouseUp:
		d.active = h
		return HandleMouse(d.state, ev.Kind, ConvertCursor(ev.Pos, win, d.virtual))
	case KindMouseMove:
		d.active = h
		return HandleMove(d.state, ConvertCursor(ev.Pos, win, d.virtual))
	case KindKeyDown, KindKeyUp:
		return HandleKey(d.state, ev.Key, ev.Kind == KindKeyDown)
	case KindModifiersChanged:
		return Continue(false, d.state.SetModifiers(ev.Shift, ev.Alt))
	case KindResize:
		win.UpdateSize(ev.Width, ev.Height)
		return Continue(true, true)
	case KindScaleChanged:
		win.UpdateScale(ev.Scale)
		return Continue(true, true)
	default:
		return Continue(false, false)
	}
}

// ConvertCursor maps a window-local physical position to selection space.
func ConvertCursor(pos desktop.Point, win *overlay.WindowInfo, virtual bool) desktop.Point {
	if virtual {
		return desktop.Point{X: pos.X + float64(win.VirtualX), Y: pos.Y + float64(win.VirtualY)}
	}
	scale := win.Scale
	if scale <= 0 {
		scale = 1
	}
	return desktop.Point{X: pos.X / scale, Y: pos.Y / scale}
}

// HandleMouse applies a button press or release at pos.
func HandleMouse(st *selection.State, kind Kind, pos desktop.Point) Result {
	switch kind {
	case KindMouseDown:
		st.PressAt(pos)
		return Continue(true, true)
	case KindMouseUp:
		if !st.Dragging() {
			return Continue(false, false)
		}
		st.ReleaseAt(pos)
		return Continue(true, true)
	default:
		return Continue(false, false)
	}
}

// HandleMove applies a pointer move at pos.
func HandleMove(st *selection.State, pos desktop.Point) Result {
	return Continue(st.MoveTo(pos), false)
}

// HandleKey applies a key press or release.
func HandleKey(st *selection.State, key Key, pressed bool) Result {
	switch key {
	case KeyShift:
		return Continue(false, st.SetModifiers(pressed, st.Alt()))
	case KeyAlt:
		return Continue(false, st.SetModifiers(st.Shift(), pressed))
	}
	if !pressed {
		return Continue(false, false)
	}

	switch key {
	case KeyEscape:
		st.ClearResult()
		return Exit
	case KeyEnter:
		if !st.Valid() {
			return Continue(false, false)
		}
		return Finish
	case KeyUp:
		st.Nudge(0, -1)
	case KeyDown:
		st.Nudge(0, 1)
	case KeyLeft:
		st.Nudge(-1, 0)
	case KeyRight:
		st.Nudge(1, 0)
	default:
		return Continue(false, false)
	}
	return Continue(true, true)
}

// Intersects reports whether sel overlaps win. A selection no larger than
// one pixel on both axes intersects nothing.
func Intersects(sel selection.Rect, win desktop.Rect) bool {
	if sel.Width() <= 1 && sel.Height() <= 1 {
		return false
	}
	wx, wy := float64(win.X), float64(win.Y)
	ww, wh := float64(win.Width), float64(win.Height)
	return !(sel.X1 <= wx || sel.X0 >= wx+ww || sel.Y1 <= wy || sel.Y0 >= wy+wh)
}

// ToLocal maps sel into win-local pixels, clamped to the window.
func ToLocal(sel selection.Rect, win desktop.Rect) image.Rectangle {
	clampX := func(v float64) int {
		return clamp(int(math.Round(v))-win.X, 0, win.Width)
	}
	clampY := func(v float64) int {
		return clamp(int(math.Round(v))-win.Y, 0, win.Height)
	}
	return image.Rect(clampX(sel.X0), clampY(sel.Y0), clampX(sel.X1), clampY(sel.Y1))
}

// ToVirtual maps a window-local rectangle back to selection space.
func ToVirtual(local image.Rectangle, win desktop.Rect) selection.Rect {
	return selection.Rect{
		X0: float64(local.Min.X + win.X),
		Y0: float64(local.Min.Y + win.Y),
		X1: float64(local.Max.X + win.X),
		Y1: float64(local.Max.Y + win.Y),
	}
}

// SelectionSpace returns the rectangle a window covers in selection space.
func SelectionSpace(win *overlay.WindowInfo, virtual bool) desktop.Rect {
	if virtual {
		return win.Rect()
	}
	scale := win.Scale
	if scale <= 0 {
		scale = 1
	}
	return desktop.Rect{
		Width:  int(math.Round(float64(win.Width) / scale)),
		Height: int(math.Round(float64(win.Height) / scale)),
	}
}

// Highlight returns the selection in win-local physical pixels, or false
// when the selection does not touch the window.
func Highlight(sel selection.Rect, win *overlay.WindowInfo, virtual bool) (image.Rectangle, bool) {
	space := SelectionSpace(win, virtual)
	if !Intersects(sel, space) {
		return image.Rectangle{}, false
	}
	if virtual {
		r := ToLocal(sel, space)
		return r, !r.Empty()
	}

	scale := win.Scale
	if scale <= 0 {
		scale = 1
	}
	scaled := selection.Rect{X0: sel.X0 * scale, Y0: sel.Y0 * scale, X1: sel.X1 * scale, Y1: sel.Y1 * scale}
	r := ToLocal(scaled, desktop.Rect{Width: win.Width, Height: win.Height})
	return r, !r.Empty()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
