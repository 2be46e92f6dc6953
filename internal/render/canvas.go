package render

import (
	"image"
	"image/color"

	"github.com/1broseidon/regionsel/internal/imagecache"
)

// Canvas is the drawing target for one frame of one window.
type Canvas interface {
	// Clear fills the whole surface with c.
	Clear(c color.RGBA)
	// DrawImage draws img with its origin at (dx, dy) in surface space.
	DrawImage(img *imagecache.Image, dx, dy int)
	// DrawImageClipped draws img at (dx, dy), restricted to clip.
	DrawImageClipped(img *imagecache.Image, dx, dy int, clip image.Rectangle)
	// StrokeRect outlines r with a border of the given width drawn inside r.
	StrokeRect(r image.Rectangle, width int, c color.RGBA)
	// DrawLabel draws text on a filled backdrop with its top-left at at.
	DrawLabel(text string, at image.Point, fg, bg color.RGBA)
}

// Device is a hardware-composited surface bound to a native window.
type Device interface {
	Configure(width, height int) error
	Canvas() Canvas
	Present() error
	Release()
}

// Blitter copies a finished software frame onto a native window.
type Blitter interface {
	Blit(frame *image.RGBA) error
	Release()
}

// StrokeBands splits a border of width w drawn inside r into the four
// rectangles a device fills. Borders too thick for r collapse to r itself.
func StrokeBands(r image.Rectangle, w int) []image.Rectangle {
	if w <= 0 || r.Empty() {
		return nil
	}
	if 2*w >= r.Dx() || 2*w >= r.Dy() {
		return []image.Rectangle{r}
	}
	return []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+w, r.Min.X+w, r.Max.Y-w),
		image.Rect(r.Max.X-w, r.Min.Y+w, r.Max.X, r.Max.Y-w),
	}
}
