package mcp

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/selection"
	"github.com/1broseidon/regionsel/internal/selector"
)

type stubSelector struct {
	region *selection.Region
	err    error
}

func (s *stubSelector) Select(context.Context) (*selection.Region, error) {
	return s.region, s.err
}

func (s *stubSelector) SelectWithVirtualBackground(context.Context, []byte, int, int, selector.VirtualBounds, []desktop.Layout) (*selection.Region, error) {
	return s.region, s.err
}

func solidFrame() (*capture.Frame, error) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	return &capture.Frame{Image: img, Layouts: []desktop.Layout{{Rect: desktop.Rect{Width: 40, Height: 30}, Scale: 1}}}, nil
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	s, err := NewServer(config.DefaultConfig(), deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestNewServer_RequiresSelector(t *testing.T) {
	if _, err := NewServer(config.DefaultConfig(), Deps{}); err == nil {
		t.Fatal("expected error without selector")
	}
}

func TestHandleSelectRegion_Live(t *testing.T) {
	sel := &stubSelector{region: &selection.Region{X: 10, Y: 20, Width: 30, Height: 40, Scale: 1}}
	s := newTestServer(t, Deps{Selector: sel})

	res, out, err := s.handleSelectRegion(context.Background(), nil, SelectRegionInput{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res != nil {
		t.Fatalf("live selection should not carry content, got %+v", res)
	}
	if out.Cancelled || out.Geometry != "30x40+10+20" {
		t.Fatalf("out = %+v", out)
	}
}

func TestHandleSelectRegion_Cancelled(t *testing.T) {
	s := newTestServer(t, Deps{Selector: &stubSelector{}})
	_, out, err := s.handleSelectRegion(context.Background(), nil, SelectRegionInput{})
	if err != nil || !out.Cancelled {
		t.Fatalf("out = %+v, err = %v", out, err)
	}
}

func TestHandleSelectRegion_CaptureReturnsImage(t *testing.T) {
	sel := &stubSelector{region: &selection.Region{X: 5, Y: 5, Width: 10, Height: 8, Scale: 1}}
	released := 0
	s := newTestServer(t, Deps{
		Selector: sel,
		Grab:     solidFrame,
		Lock:     func() (func(), error) { return func() { released++ }, nil },
	})

	save := filepath.Join(t.TempDir(), "shot.png")
	res, out, err := s.handleSelectRegion(context.Background(), nil, SelectRegionInput{Capture: true, Save: save})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if released != 1 {
		t.Fatalf("lock released %d times", released)
	}
	if out.Saved != save {
		t.Fatalf("saved = %q", out.Saved)
	}
	if _, err := os.Stat(save); err != nil {
		t.Fatalf("saved file: %v", err)
	}
	if res == nil || len(res.Content) != 2 {
		t.Fatalf("content = %+v", res)
	}
	img, ok := res.Content[1].(*mcpsdk.ImageContent)
	if !ok || img.MIMEType != "image/png" || len(img.Data) == 0 {
		t.Fatalf("image content = %#v", res.Content[1])
	}
}

func TestHandleSelectRegion_Errors(t *testing.T) {
	busy := errors.New("busy")
	s := newTestServer(t, Deps{
		Selector: &stubSelector{},
		Lock:     func() (func(), error) { return nil, busy },
	})
	if _, _, err := s.handleSelectRegion(context.Background(), nil, SelectRegionInput{}); !errors.Is(err, busy) {
		t.Fatalf("lock err = %v", err)
	}
	if _, _, err := s.handleSelectRegion(context.Background(), nil, SelectRegionInput{Format: "gif"}); err == nil {
		t.Fatal("expected format error")
	}
	if _, _, err := s.handleSelectRegion(context.Background(), nil, SelectRegionInput{Resize: -1}); err == nil {
		t.Fatal("expected resize error")
	}

	failing := newTestServer(t, Deps{Selector: &stubSelector{err: selector.ErrUnsupported}})
	if _, _, err := failing.handleSelectRegion(context.Background(), nil, SelectRegionInput{}); !errors.Is(err, selector.ErrUnsupported) {
		t.Fatalf("selector err = %v", err)
	}
}

func TestHandleListDisplays(t *testing.T) {
	s := newTestServer(t, Deps{
		Selector: &stubSelector{},
		Displays: func() ([]platform.DisplayReport, error) {
			return []platform.DisplayReport{
				{Display: desktop.DisplayInfo{ID: 1, Name: "eDP-1", Primary: true, Width: 1920, Height: 1200, Scale: 1}, DPIScale: 1.25},
				{Display: desktop.DisplayInfo{ID: 2, Name: "DP-2", X: 1920, Width: 2560, Height: 1440, Scale: 1}, DPIScale: 1.25},
			}, nil
		},
	})

	_, out, err := s.handleListDisplays(context.Background(), nil, ListDisplaysInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Displays) != 2 || out.Displays[1].X != 1920 || !out.Displays[0].Primary || out.Displays[0].DPIScale != 1.25 {
		t.Fatalf("displays = %+v", out.Displays)
	}

	none := newTestServer(t, Deps{Selector: &stubSelector{}})
	if _, _, err := none.handleListDisplays(context.Background(), nil, ListDisplaysInput{}); !errors.Is(err, platform.ErrUnsupported) {
		t.Fatalf("err = %v", err)
	}
}

