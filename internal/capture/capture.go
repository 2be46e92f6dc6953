// Package capture grabs the virtual desktop for use as a selection
// background and crops confirmed regions out of it.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/kbinani/screenshot"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/selection"
)

// ErrNoDisplays is returned when the capture library reports no display.
var ErrNoDisplays = errors.New("no active displays found")

// Grabber captures one rectangle of the screen in virtual coordinates.
type Grabber func(r image.Rectangle) (*image.RGBA, error)

// Screen is the default grabber.
var Screen Grabber = screenshot.CaptureRect

// Frame is a capture of every display composed into one image. The image
// bounds are expressed in virtual-desktop coordinates.
type Frame struct {
	Image   *image.RGBA
	Layouts []desktop.Layout
}

// DisplayBounds lists the bounds of every active display.
func DisplayBounds() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// Virtual captures every display.
func Virtual() (*Frame, error) {
	return Compose(DisplayBounds(), Screen)
}

// Compose grabs each display rectangle in parallel and pastes it into the
// union of all rectangles. Gaps between displays stay transparent black.
func Compose(displays []image.Rectangle, grab Grabber) (*Frame, error) {
	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}

	union := displays[0]
	for _, r := range displays[1:] {
		union = union.Union(r)
	}

	shots := make([]*image.RGBA, len(displays))
	var g errgroup.Group
	for i, r := range displays {
		g.Go(func() error {
			img, err := grab(r)
			if err != nil {
				return fmt.Errorf("capture display %d %v: %w", i, r, err)
			}
			shots[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(union)
	layouts := make([]desktop.Layout, 0, len(displays))
	for i, r := range displays {
		draw.Draw(dst, r, shots[i], shots[i].Bounds().Min, draw.Src)
		layouts = append(layouts, desktop.Layout{
			Rect:  desktop.Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()},
			Scale: 1,
		})
	}
	return &Frame{Image: dst, Layouts: layouts}, nil
}

// RGB packs the frame into width*height RGB triples.
func (f *Frame) RGB() []byte {
	b := f.Image.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := 0; y < b.Dy(); y++ {
		row := f.Image.Pix[y*f.Image.Stride : y*f.Image.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			out = append(out, row[i], row[i+1], row[i+2])
		}
	}
	return out
}

// Crop copies the region out of src. Region coordinates are multiplied by
// the region scale to reach device pixels, then clipped to src.
func Crop(src *image.RGBA, region selection.Region) (*image.RGBA, error) {
	scale := region.Scale
	if scale <= 0 {
		scale = 1
	}
	r := image.Rect(
		int(region.X*scale),
		int(region.Y*scale),
		int((region.X+region.Width)*scale),
		int((region.Y+region.Height)*scale),
	).Intersect(src.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %vx%v at (%v,%v) lies outside the capture", region.Width, region.Height, region.X, region.Y)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Copy(dst, image.Point{}, src, r, xdraw.Src, nil)
	return dst, nil
}

// Resize scales img by factor using Catmull-Rom resampling.
func Resize(img *image.RGBA, factor float64) *image.RGBA {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
