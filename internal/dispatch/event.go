package dispatch

import "github.com/1broseidon/regionsel/internal/desktop"

// Kind identifies a native event.
type Kind int

const (
	KindMouseDown Kind = iota + 1
	KindMouseUp
	KindMouseMove
	KindKeyDown
	KindKeyUp
	KindModifiersChanged
	KindClose
	KindResize
	KindScaleChanged
	KindRedraw
)

var kindNames = map[Kind]string{
	KindMouseDown:        "mouse-down",
	KindMouseUp:          "mouse-up",
	KindMouseMove:        "mouse-move",
	KindKeyDown:          "key-down",
	KindKeyUp:            "key-up",
	KindModifiersChanged: "modifiers",
	KindClose:            "close",
	KindResize:           "resize",
	KindScaleChanged:     "scale",
	KindRedraw:           "redraw",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Key is a platform-neutral key code.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyShift
	KeyAlt
)

// Event is one native event addressed to an overlay window. Pos is in
// window-local physical pixels.
type Event struct {
	Window uint32
	Kind   Kind

	Pos    desktop.Point
	Key    Key
	Shift  bool
	Alt    bool
	Width  int
	Height int
	Scale  float64
}

func MouseDown(win uint32, pos desktop.Point) Event {
	return Event{Window: win, Kind: KindMouseDown, Pos: pos}
}

func MouseUp(win uint32, pos desktop.Point) Event {
	return Event{Window: win, Kind: KindMouseUp, Pos: pos}
}

func MouseMove(win uint32, pos desktop.Point) Event {
	return Event{Window: win, Kind: KindMouseMove, Pos: pos}
}

func KeyPress(win uint32, key Key) Event {
	return Event{Window: win, Kind: KindKeyDown, Key: key}
}

func KeyRelease(win uint32, key Key) Event {
	return Event{Window: win, Kind: KindKeyUp, Key: key}
}

func ModifiersChanged(win uint32, shift, alt bool) Event {
	return Event{Window: win, Kind: KindModifiersChanged, Shift: shift, Alt: alt}
}

func Close(win uint32) Event {
	return Event{Window: win, Kind: KindClose}
}

func Resize(win uint32, width, height int) Event {
	return Event{Window: win, Kind: KindResize, Width: width, Height: height}
}

func ScaleChanged(win uint32, scale float64) Event {
	return Event{Window: win, Kind: KindScaleChanged, Scale: scale}
}

func Redraw(win uint32) Event {
	return Event{Window: win, Kind: KindRedraw}
}

// Action is what the event loop does after an event.
type Action int

const (
	ActionContinue Action = iota
	ActionExit
	ActionFinish
)

// Result is the dispatcher's verdict for one event.
type Result struct {
	Action Action
	Redraw bool
	Force  bool
}

// Continue keeps the loop running, optionally requesting a redraw. A forced
// redraw skips pacing.
func Continue(redraw, force bool) Result {
	return Result{Action: ActionContinue, Redraw: redraw || force, Force: force}
}

var (
	Exit   = Result{Action: ActionExit}
	Finish = Result{Action: ActionFinish}
)
