package desktop

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoDisplays is returned when a session is started without any display.
var ErrNoDisplays = errors.New("no displays reported")

// Point is a position in virtual-desktop or window-local space.
type Point struct {
	X float64
	Y float64
}

// Rect describes a rectangular region in integer pixel coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether the point lies inside r (right/bottom exclusive).
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersects reports whether two rectangles overlap. Touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() &&
		r.Right() > o.X &&
		r.Y < o.Bottom() &&
		r.Bottom() > o.Y
}

// DisplayInfo is a snapshot of one physical display.
type DisplayInfo struct {
	ID      uint32
	Name    string
	Primary bool
	X       int
	Y       int
	Width   int
	Height  int
	Scale   float64
}

// Bounds returns the display rectangle in virtual-desktop space.
func (d DisplayInfo) Bounds() Rect {
	return Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
}

// PhysicalBounds returns the display rectangle scaled by its own DPI factor.
func (d DisplayInfo) PhysicalBounds() Rect {
	s := d.Scale
	if s <= 0 {
		s = 1
	}
	return Rect{
		X:      int(math.Round(float64(d.X) * s)),
		Y:      int(math.Round(float64(d.Y) * s)),
		Width:  int(math.Round(float64(d.Width) * s)),
		Height: int(math.Round(float64(d.Height) * s)),
	}
}

// Bounds is the tight axis-aligned union of all displays.
type Bounds struct {
	MinX   int
	MinY   int
	MaxX   int
	MaxY   int
	Width  int
	Height int
}

// Rect returns the bounds as a Rect.
func (b Bounds) Rect() Rect {
	return Rect{X: b.MinX, Y: b.MinY, Width: b.Width, Height: b.Height}
}

// BoundsFromRect builds Bounds from an origin and size.
func BoundsFromRect(r Rect) Bounds {
	return Bounds{
		MinX:   r.X,
		MinY:   r.Y,
		MaxX:   r.Right(),
		MaxY:   r.Bottom(),
		Width:  r.Width,
		Height: r.Height,
	}
}

// Layout is a display rectangle in physical pixels with its scale.
type Layout struct {
	Rect  Rect
	Scale float64
}

// VirtualDesktop is the coordinate space spanning every display.
type VirtualDesktop struct {
	Displays []DisplayInfo
	Bounds   Bounds
}

// New builds a virtual desktop from a display snapshot.
func New(displays []DisplayInfo) (*VirtualDesktop, error) {
	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}

	snapshot := make([]DisplayInfo, len(displays))
	rects := make([]Rect, len(displays))
	for i, d := range displays {
		if d.Width <= 0 || d.Height <= 0 {
			return nil, fmt.Errorf("display %d (%s) has invalid size %dx%d", d.ID, d.Name, d.Width, d.Height)
		}
		if d.Scale <= 0 {
			d.Scale = 1
		}
		snapshot[i] = d
		rects[i] = d.Bounds()
	}

	union, _ := UnionRect(rects)
	return &VirtualDesktop{
		Displays: snapshot,
		Bounds:   BoundsFromRect(union),
	}, nil
}

// FindDisplayAt returns the first display containing the point.
func (v *VirtualDesktop) FindDisplayAt(x, y int) (DisplayInfo, bool) {
	for _, d := range v.Displays {
		if d.Bounds().Contains(x, y) {
			return d, true
		}
	}
	return DisplayInfo{}, false
}

// DisplaysInRegion returns every display intersecting r.
func (v *VirtualDesktop) DisplaysInRegion(r Rect) []DisplayInfo {
	var out []DisplayInfo
	for _, d := range v.Displays {
		if d.Bounds().Intersects(r) {
			out = append(out, d)
		}
	}
	return out
}

// PhysicalLayouts returns each display rectangle in physical pixels.
func (v *VirtualDesktop) PhysicalLayouts() []Layout {
	out := make([]Layout, 0, len(v.Displays))
	for _, d := range v.Displays {
		out = append(out, Layout{Rect: d.PhysicalBounds(), Scale: d.Scale})
	}
	return out
}

// Primary returns the display flagged primary, or the first one.
func (v *VirtualDesktop) Primary() DisplayInfo {
	for _, d := range v.Displays {
		if d.Primary {
			return d
		}
	}
	return v.Displays[0]
}

// UnionRect returns the bounding rectangle of rects.
func UnionRect(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}

	minX := rects[0].X
	minY := rects[0].Y
	maxX := rects[0].Right()
	maxY := rects[0].Bottom()

	for _, rect := range rects[1:] {
		if rect.X < minX {
			minX = rect.X
		}
		if rect.Y < minY {
			minY = rect.Y
		}
		if rect.Right() > maxX {
			maxX = rect.Right()
		}
		if rect.Bottom() > maxY {
			maxY = rect.Bottom()
		}
	}

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}, true
}
