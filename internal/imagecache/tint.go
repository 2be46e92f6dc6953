package imagecache

import (
	"fmt"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pixel-data sizes above which work is split across goroutines.
const (
	ParallelThreshold    = 256 * 1024
	RGBParallelThreshold = 512 * 1024
)

// Tint returns a copy of src blended toward c using c.A as the blend
// factor. Output alpha is always opaque.
func Tint(src *image.RGBA, c color.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	a := uint32(c.A)
	inv := 255 - a
	// Each term is floored on its own.
	tr := uint32(c.R) * a / 255
	tg := uint32(c.G) * a / 255
	tb := uint32(c.B) * a / 255

	rows := func(y0, y1 int) {
		width := b.Dx() * 4
		for y := y0; y < y1; y++ {
			s := src.Pix[(y-b.Min.Y)*src.Stride:]
			d := dst.Pix[(y-b.Min.Y)*dst.Stride:]
			for x := 0; x < width; x += 4 {
				d[x+0] = uint8(uint32(s[x+0])*inv/255 + tr)
				d[x+1] = uint8(uint32(s[x+1])*inv/255 + tg)
				d[x+2] = uint8(uint32(s[x+2])*inv/255 + tb)
				d[x+3] = 255
			}
		}
	}

	splitRows(b.Min.Y, b.Max.Y, len(src.Pix) > ParallelThreshold, rows)
	return dst
}

// FromRGB converts packed RGB triples to RGBA, reusing dst when it is large
// enough. It returns the (possibly reallocated) buffer.
func FromRGB(dst []byte, rgb []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return dst, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	want := width * height * 3
	if len(rgb) < want {
		return dst, fmt.Errorf("rgb buffer too small: got %d bytes, need %d", len(rgb), want)
	}

	n := width * height * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			s := rgb[y*width*3 : (y+1)*width*3]
			d := dst[y*width*4 : (y+1)*width*4]
			for x := 0; x < width; x++ {
				d[x*4+0] = s[x*3+0]
				d[x*4+1] = s[x*3+1]
				d[x*4+2] = s[x*3+2]
				d[x*4+3] = 255
			}
		}
	}

	splitRows(0, height, want > RGBParallelThreshold, rows)
	return dst, nil
}

// splitRows runs fn over [y0, y1), in row bands on an errgroup when parallel is set.
func splitRows(y0, y1 int, parallel bool, fn func(y0, y1 int)) {
	if !parallel {
		fn(y0, y1)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	total := y1 - y0
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		fn(y0, y1)
		return
	}

	band := (total + workers - 1) / workers
	var g errgroup.Group
	for start := y0; start < y1; start += band {
		from, to := start, min(start+band, y1)
		g.Go(func() error {
			fn(from, to)
			return nil
		})
	}
	_ = g.Wait()
}
