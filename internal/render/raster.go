package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/1broseidon/regionsel/internal/imagecache"
)

const (
	labelPaddingX = 6
	labelPaddingY = 4
)

// Raster is a software canvas over an owned RGBA buffer.
type Raster struct {
	dst *image.RGBA
}

// NewRaster allocates a width x height buffer.
func NewRaster(width, height int) *Raster {
	r := &Raster{}
	r.Resize(width, height)
	return r
}

// Resize reallocates the buffer when the size changes.
func (r *Raster) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if r.dst != nil && r.dst.Bounds().Dx() == width && r.dst.Bounds().Dy() == height {
		return
	}
	r.dst = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Frame returns the rendered buffer.
func (r *Raster) Frame() *image.RGBA { return r.dst }

func (r *Raster) Clear(c color.RGBA) {
	draw.Draw(r.dst, r.dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) DrawImage(img *imagecache.Image, dx, dy int) {
	r.DrawImageClipped(img, dx, dy, r.dst.Bounds())
}

func (r *Raster) DrawImageClipped(img *imagecache.Image, dx, dy int, clip image.Rectangle) {
	if img == nil {
		return
	}
	src := img.RGBA()
	offset := image.Pt(dx, dy)
	target := src.Bounds().Add(offset).Intersect(clip).Intersect(r.dst.Bounds())
	if target.Empty() {
		return
	}
	draw.Copy(r.dst, target.Min, src, target.Sub(offset), draw.Src, nil)
}

func (r *Raster) StrokeRect(rect image.Rectangle, width int, c color.RGBA) {
	u := image.NewUniform(c)
	for _, band := range StrokeBands(rect, width) {
		draw.Draw(r.dst, band.Intersect(r.dst.Bounds()), u, image.Point{}, draw.Src)
	}
}

func (r *Raster) DrawLabel(text string, at image.Point, fg, bg color.RGBA) {
	label := LabelImage(text, fg, bg)
	target := label.Bounds().Add(at)
	draw.Draw(r.dst, target, label, image.Point{}, draw.Over)
}

// LabelSize returns the pixel size of a rendered label.
func LabelSize(text string) image.Point {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	h := (m.Ascent + m.Descent).Ceil()
	return image.Pt(w+2*labelPaddingX, h+2*labelPaddingY)
}

// LabelImage renders text in the basic 7x13 face on a filled backdrop.
func LabelImage(text string, fg, bg color.RGBA) *image.RGBA {
	size := LabelSize(text)
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(labelPaddingX, labelPaddingY+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}
