package selector

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/1broseidon/regionsel/internal/dispatch"
	"github.com/1broseidon/regionsel/internal/imagecache"
	"github.com/1broseidon/regionsel/internal/overlay"
	"github.com/1broseidon/regionsel/internal/render"
	"github.com/1broseidon/regionsel/internal/selection"
)

const labelMargin = 6

type frame struct {
	cfg      Config
	clear    color.RGBA
	tinted   *imagecache.Image
	original *imagecache.Image
	offset   image.Point
	window   *overlay.WindowInfo
	virtual  bool
	state    *selection.State
}

// drawFrame paints the backdrop, then the untinted selection with its
// border and size label.
func drawFrame(c render.Canvas, f frame) {
	c.Clear(f.clear)
	if f.tinted != nil {
		c.DrawImage(f.tinted, f.offset.X, f.offset.Y)
	}

	sel := f.state.Rect()
	local, ok := dispatch.Highlight(sel, f.window, f.virtual)
	if !ok {
		return
	}
	if f.original != nil {
		c.DrawImageClipped(f.original, f.offset.X, f.offset.Y, local)
	}
	c.StrokeRect(local, f.cfg.BorderWidth, f.cfg.BorderColor)

	if !f.cfg.Label || !f.state.Valid() || !ownsCorner(sel, f.window, f.virtual) {
		return
	}
	text := sizeLabel(sel)
	size := render.LabelSize(text)
	bounds := image.Rect(0, 0, f.window.Width, f.window.Height)
	c.DrawLabel(text, placeLabel(bounds, local, size), f.cfg.LabelColor, f.cfg.LabelBackground)
}

func sizeLabel(sel selection.Rect) string {
	return fmt.Sprintf("%d x %d", int(math.Round(sel.Width())), int(math.Round(sel.Height())))
}

// ownsCorner reports whether the bottom-right corner of sel lies on win, so
// the label is drawn exactly once.
func ownsCorner(sel selection.Rect, win *overlay.WindowInfo, virtual bool) bool {
	space := dispatch.SelectionSpace(win, virtual)
	x := sel.X1 - 1
	y := sel.Y1 - 1
	return x >= float64(space.X) && x < float64(space.Right()) &&
		y >= float64(space.Y) && y < float64(space.Bottom())
}

// placeLabel picks the first spot next to the selection's bottom-right
// corner that keeps the label inside bounds and off the selection.
func placeLabel(bounds, sel image.Rectangle, size image.Point) image.Point {
	candidates := []image.Point{
		{X: sel.Max.X - size.X, Y: sel.Max.Y + labelMargin},
		{X: sel.Max.X + labelMargin, Y: sel.Max.Y - size.Y},
		{X: sel.Max.X - size.X, Y: sel.Min.Y - labelMargin - size.Y},
		{X: sel.Max.X - size.X - labelMargin, Y: sel.Max.Y - size.Y - labelMargin},
	}

	for _, at := range candidates {
		r := image.Rectangle{Min: at, Max: at.Add(size)}
		if r.In(bounds) && !r.Overlaps(sel) {
			return at
		}
	}
	return clampLabel(candidates[len(candidates)-1], bounds, size)
}

func clampLabel(at image.Point, bounds image.Rectangle, size image.Point) image.Point {
	maxX := bounds.Max.X - size.X
	maxY := bounds.Max.Y - size.Y
	if at.X > maxX {
		at.X = maxX
	}
	if at.Y > maxY {
		at.Y = maxY
	}
	if at.X < bounds.Min.X {
		at.X = bounds.Min.X
	}
	if at.Y < bounds.Min.Y {
		at.Y = bounds.Min.Y
	}
	return at
}
