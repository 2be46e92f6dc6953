package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/selection"
	"github.com/1broseidon/regionsel/internal/selector"
)

type stubSelector struct {
	region  *selection.Region
	err     error
	live    int
	frozen  int
	vb      selector.VirtualBounds
	rgbLen  int
	layouts []desktop.Layout
}

func (s *stubSelector) Select(context.Context) (*selection.Region, error) {
	s.live++
	return s.region, s.err
}

func (s *stubSelector) SelectWithVirtualBackground(_ context.Context, rgb []byte, _, _ int, vb selector.VirtualBounds, layouts []desktop.Layout) (*selection.Region, error) {
	s.frozen++
	s.vb = vb
	s.rgbLen = len(rgb)
	s.layouts = layouts
	return s.region, s.err
}

func TestInteractive_Live(t *testing.T) {
	sel := &stubSelector{region: &selection.Region{X: 1, Y: 2, Width: 3, Height: 4, Scale: 1}}
	grab := func() (*Frame, error) {
		t.Fatal("live selection must not capture")
		return nil, nil
	}

	shot, err := Interactive(context.Background(), sel, grab, false)
	if err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if sel.live != 1 || shot.Image != nil || shot.Region.Width != 3 {
		t.Fatalf("unexpected shot %+v (live=%d)", shot, sel.live)
	}
}

func TestInteractive_FrozenCrops(t *testing.T) {
	green := color.RGBA{G: 200, A: 255}
	displays := []image.Rectangle{image.Rect(-100, 0, 0, 50), image.Rect(0, 0, 200, 100)}
	grab := func() (*Frame, error) { return Compose(displays, solidGrabber(green)) }
	sel := &stubSelector{region: &selection.Region{X: -10, Y: 5, Width: 20, Height: 10, Scale: 1}}

	shot, err := Interactive(context.Background(), sel, grab, true)
	if err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if sel.frozen != 1 {
		t.Fatalf("frozen calls = %d", sel.frozen)
	}
	if want := (selector.VirtualBounds{X: -100, Y: 0, Width: 300, Height: 100}); sel.vb != want {
		t.Fatalf("virtual bounds = %+v, want %+v", sel.vb, want)
	}
	if sel.rgbLen != 300*100*3 || len(sel.layouts) != 2 {
		t.Fatalf("rgb len %d, layouts %d", sel.rgbLen, len(sel.layouts))
	}
	if got := shot.Image.Bounds(); got != image.Rect(0, 0, 20, 10) {
		t.Fatalf("crop bounds = %v", got)
	}
	if got := shot.Image.RGBAAt(0, 0); got != green {
		t.Fatalf("crop pixel = %v", got)
	}
}

func TestInteractive_CancelAndErrors(t *testing.T) {
	cancelled := &stubSelector{}
	shot, err := Interactive(context.Background(), cancelled, nil, false)
	if shot != nil || err != nil {
		t.Fatalf("cancel = %v, %v", shot, err)
	}

	boom := errors.New("boom")
	_, err = Interactive(context.Background(), &stubSelector{}, func() (*Frame, error) { return nil, boom }, true)
	if !errors.Is(err, boom) {
		t.Fatalf("capture err = %v", err)
	}
}
