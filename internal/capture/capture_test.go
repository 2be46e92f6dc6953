package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/1broseidon/regionsel/internal/selection"
)

func solidGrabber(c color.RGBA) Grabber {
	return func(r image.Rectangle) (*image.RGBA, error) {
		img := image.NewRGBA(r)
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
		return img, nil
	}
}

func TestCompose_UnionWithNegativeOrigin(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	displays := []image.Rectangle{
		image.Rect(0, 0, 100, 100),
		image.Rect(-50, -20, 0, 30),
	}

	f, err := Compose(displays, solidGrabber(red))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got, want := f.Image.Bounds(), image.Rect(-50, -20, 100, 100); got != want {
		t.Fatalf("bounds = %v, want %v", got, want)
	}
	if got := f.Image.RGBAAt(-10, 0); got != red {
		t.Fatalf("left display pixel = %v", got)
	}
	if got := f.Image.RGBAAt(-10, 50); got != (color.RGBA{}) {
		t.Fatalf("gap pixel = %v, want transparent", got)
	}
	if len(f.Layouts) != 2 || f.Layouts[1].Rect.X != -50 || f.Layouts[1].Rect.Height != 50 {
		t.Fatalf("layouts = %+v", f.Layouts)
	}
}

func TestCompose_Errors(t *testing.T) {
	if _, err := Compose(nil, solidGrabber(color.RGBA{})); !errors.Is(err, ErrNoDisplays) {
		t.Fatalf("err = %v, want ErrNoDisplays", err)
	}

	boom := errors.New("boom")
	failing := func(image.Rectangle) (*image.RGBA, error) { return nil, boom }
	if _, err := Compose([]image.Rectangle{image.Rect(0, 0, 1, 1)}, failing); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestFrameRGB(t *testing.T) {
	f, err := Compose([]image.Rectangle{image.Rect(5, 5, 7, 6)}, solidGrabber(color.RGBA{R: 1, G: 2, B: 3, A: 255}))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	got := f.RGB()
	want := []byte{1, 2, 3, 1, 2, 3}
	if !bytes.Equal(got, want) {
		t.Fatalf("RGB() = %v, want %v", got, want)
	}
}

func TestCrop(t *testing.T) {
	src := image.NewRGBA(image.Rect(-100, 0, 100, 100))
	src.SetRGBA(-90, 10, color.RGBA{G: 255, A: 255})

	tests := []struct {
		name   string
		region selection.Region
		size   image.Point
	}{
		{name: "virtual", region: selection.Region{X: -90, Y: 10, Width: 20, Height: 30, Scale: 1}, size: image.Pt(20, 30)},
		{name: "scaled", region: selection.Region{X: -45, Y: 5, Width: 10, Height: 10, Scale: 2}, size: image.Pt(20, 20)},
		{name: "clipped", region: selection.Region{X: 90, Y: 90, Width: 50, Height: 50, Scale: 1}, size: image.Pt(10, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Crop(src, tt.region)
			if err != nil {
				t.Fatalf("crop: %v", err)
			}
			if got.Bounds().Size() != tt.size {
				t.Fatalf("size = %v, want %v", got.Bounds().Size(), tt.size)
			}
		})
	}

	got, _ := Crop(src, selection.Region{X: -90, Y: 10, Width: 5, Height: 5, Scale: 1})
	if got.RGBAAt(0, 0).G != 255 {
		t.Fatalf("crop origin pixel = %v", got.RGBAAt(0, 0))
	}

	if _, err := Crop(src, selection.Region{X: 500, Y: 500, Width: 5, Height: 5}); err == nil {
		t.Fatalf("expected error for region outside the capture")
	}
}

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	if got := Resize(img, 1); got != img {
		t.Fatalf("factor 1 must return the input")
	}
	if got := Resize(img, 0.5).Bounds().Size(); got != image.Pt(20, 10) {
		t.Fatalf("size = %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatPNG, "PNG": FormatPNG, "jpg": FormatJPEG, "tif": FormatTIFF, "bmp": FormatBMP}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
	if got := FormatForPath("/tmp/shot.jpeg", FormatPNG); got != FormatJPEG {
		t.Fatalf("FormatForPath = %q", got)
	}
	if got := FormatForPath("/tmp/shot", FormatBMP); got != FormatBMP {
		t.Fatalf("FormatForPath fallback = %q", got)
	}
	if got := FormatJPEG.MIMEType(); got != "image/jpeg" {
		t.Fatalf("MIMEType = %q", got)
	}
}

func TestEncode_PNGRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{B: 200, A: 255})

	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatPNG, 0); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, _, b, _ := decoded.At(2, 1).RGBA(); b>>8 != 200 {
		t.Fatalf("blue = %d", b>>8)
	}

	for _, f := range []Format{FormatJPEG, FormatBMP, FormatTIFF} {
		buf.Reset()
		if err := Encode(&buf, img, f, 90); err != nil || buf.Len() == 0 {
			t.Fatalf("encode %s: %v (len %d)", f, err, buf.Len())
		}
	}
}
