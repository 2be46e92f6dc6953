package selection

import (
	"fmt"
	"math"

	"github.com/1broseidon/regionsel/internal/desktop"
)

// Move-distance thresholds in pixels. Cursor moves shorter than these are
// ignored to limit redraw churn.
const (
	DragMoveThreshold = 5.0
	IdleMoveThreshold = 10.0
)

// Rect is a shaped selection given by two corners. X0 <= X1 and Y0 <= Y1
// for every shaping rule.
type Rect struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Valid reports whether the corners differ on both axes.
func (r Rect) Valid() bool {
	return r.X0 != r.X1 && r.Y0 != r.Y1
}

// Region is a confirmed selection. Scale converts it to physical pixels.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// String formats the region as an X11 geometry string (WxH+X+Y).
func (r Region) String() string {
	return fmt.Sprintf("%gx%g%+g%+g", r.Width, r.Height, r.X, r.Y)
}

// Physical returns the region multiplied by its scale.
func (r Region) Physical() Region {
	s := r.Scale
	if s <= 0 {
		s = 1
	}
	return Region{
		X:      math.Round(r.X * s),
		Y:      math.Round(r.Y * s),
		Width:  math.Round(r.Width * s),
		Height: math.Round(r.Height * s),
		Scale:  1,
	}
}

// Bounds returns the region as an integer rectangle.
func (r Region) Bounds() desktop.Rect {
	return desktop.Rect{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}
}

// State is the drag and modifier state machine behind a selection session.
//
// The zero value is not ready for use; call New.
type State struct {
	dragging  bool
	start     desktop.Point
	current   desktop.Point
	lastSeen  desktop.Point
	shift     bool
	alt       bool
	virtual   *desktop.Bounds
	result    *Region
	cached    Rect
	cacheFull bool
}

// New returns an idle state.
func New() *State {
	return &State{}
}

func (s *State) invalidate() {
	s.cacheFull = false
}

// SetVirtualBounds records the virtual desktop context. A nil value selects
// single-window mode.
func (s *State) SetVirtualBounds(b *desktop.Bounds) {
	s.virtual = b
	s.invalidate()
}

// VirtualBounds returns the virtual desktop context, if any.
func (s *State) VirtualBounds() *desktop.Bounds { return s.virtual }

// Dragging reports whether the pointer button is held.
func (s *State) Dragging() bool { return s.dragging }

// Start returns the drag anchor.
func (s *State) Start() desktop.Point { return s.start }

// Current returns the moving corner.
func (s *State) Current() desktop.Point { return s.current }

// Shift reports the Shift modifier.
func (s *State) Shift() bool { return s.shift }

// Alt reports the Alt modifier.
func (s *State) Alt() bool { return s.alt }

// Press anchors a new drag at the current point.
func (s *State) Press() {
	s.start = s.current
	s.dragging = true
	s.invalidate()
}

// PressAt moves the cursor to p and anchors a new drag there.
func (s *State) PressAt(p desktop.Point) {
	s.current = p
	s.lastSeen = p
	s.Press()
}

// Release ends the drag. It returns true when the rect is valid and the
// selection is now held awaiting confirmation.
func (s *State) Release() bool {
	s.dragging = false
	s.invalidate()
	return s.Valid()
}

// ReleaseAt moves the cursor to p, bypassing the move threshold, and ends the drag.
func (s *State) ReleaseAt(p desktop.Point) bool {
	s.current = p
	s.lastSeen = p
	return s.Release()
}

// MoveTo applies a cursor move when it is farther than the move threshold. It
// returns true when the move was applied during a drag.
func (s *State) MoveTo(p desktop.Point) bool {
	threshold := IdleMoveThreshold
	if s.dragging {
		threshold = DragMoveThreshold
	}
	dx := p.X - s.lastSeen.X
	dy := p.Y - s.lastSeen.Y
	if math.Hypot(dx, dy) <= threshold {
		return false
	}

	s.current = p
	s.lastSeen = p
	s.invalidate()
	return s.dragging
}

// Nudge moves the current corner by (dx, dy).
func (s *State) Nudge(dx, dy float64) {
	s.current.X += dx
	s.current.Y += dy
	s.lastSeen = s.current
	s.invalidate()
}

// SetModifiers updates the shaping modifiers and reports whether either changed.
func (s *State) SetModifiers(shift, alt bool) bool {
	if s.shift == shift && s.alt == alt {
		return false
	}
	s.shift = shift
	s.alt = alt
	s.invalidate()
	return true
}

// Rect returns the shaped selection rectangle.
func (s *State) Rect() Rect {
	if s.cacheFull {
		return s.cached
	}
	s.cached = shape(s.start, s.current, s.shift, s.alt)
	s.cacheFull = true
	return s.cached
}

// Valid reports whether the shaped rectangle has non-zero extent on both axes.
func (s *State) Valid() bool {
	return s.Rect().Valid()
}

// Region builds a rounded region with the given scale.
func (s *State) Region(scale float64) (Region, bool) {
	r := s.Rect()
	if !r.Valid() {
		return Region{}, false
	}
	return Region{
		X:      math.Round(r.X0),
		Y:      math.Round(r.Y0),
		Width:  math.Round(math.Abs(r.X1 - r.X0)),
		Height: math.Round(math.Abs(r.Y1 - r.Y0)),
		Scale:  scale,
	}, true
}

// SetResult stores the confirmed region.
func (s *State) SetResult(r *Region) { s.result = r }

// Result returns the confirmed region, or nil.
func (s *State) Result() *Region { return s.result }

// ClearResult drops any confirmed region.
func (s *State) ClearResult() { s.result = nil }

func shape(start, cur desktop.Point, shift, alt bool) Rect {
	sx, sy := start.X, start.Y
	dx := cur.X - sx
	dy := cur.Y - sy
	adx := math.Abs(dx)
	ady := math.Abs(dy)

	switch {
	case alt && shift:
		side := math.Max(adx, ady)
		return Rect{X0: sx - side, Y0: sy - side, X1: sx + side, Y1: sy + side}
	case alt:
		return Rect{X0: sx - adx, Y0: sy - ady, X1: sx + adx, Y1: sy + ady}
	case shift:
		side := math.Max(adx, ady)
		x0, x1 := sx, sx+side
		if dx < 0 {
			x0, x1 = sx-side, sx
		}
		y0, y1 := sy, sy+side
		if dy < 0 {
			y0, y1 = sy-side, sy
		}
		return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
	default:
		return Rect{
			X0: math.Min(sx, cur.X),
			Y0: math.Min(sy, cur.Y),
			X1: math.Max(sx, cur.X),
			Y1: math.Max(sy, cur.Y),
		}
	}
}
