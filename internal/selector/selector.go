package selector

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/imagecache"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/selection"
)

// VirtualBounds places a virtual-desktop background: its top-left corner
// and size in virtual-desktop space.
type VirtualBounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

type mode int

const (
	modeOverlay mode = iota
	modeSingle
	modeVirtual
)

func (m mode) String() string {
	switch m {
	case modeSingle:
		return "single"
	case modeVirtual:
		return "virtual"
	default:
		return "overlay"
	}
}

type request struct {
	mode       mode
	background *image.RGBA
	origin     image.Point
	layouts    []desktop.Layout
}

// Selector runs interactive region selections. Sessions are serialized.
type Selector struct {
	opener  platform.Opener
	cfg     Config
	logger  *slog.Logger
	metrics Metrics

	mu   sync.Mutex
	rgba []byte
}

// New returns a selector opening sessions through p.
func New(p platform.Opener, opts ...Option) *Selector {
	s := &Selector{
		opener:  p,
		cfg:     DefaultConfig(),
		logger:  slog.Default(),
		metrics: NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select runs a session over every display with a tinted backdrop and no
// background image. The region is in virtual-desktop space.
//
// A nil region with a nil error means the user cancelled.
func (s *Selector) Select(ctx context.Context) (*selection.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, request{mode: modeOverlay})
}

// SelectWithBackground runs a single-window session over the primary
// display. rgb holds width*height RGB triples. The region is in logical
// window coordinates with the window scale recorded.
func (s *Selector) SelectWithBackground(ctx context.Context, rgb []byte, width, height int) (*selection.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bg, err := s.convert(rgb, width, height)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, request{mode: modeSingle, background: bg})
}

// SelectWithVirtualBackground runs a session over every display with a
// background spanning the virtual desktop. layouts optionally gives the
// physical rectangle of each display inside the background. The region is
// in virtual-desktop space with scale 1.
func (s *Selector) SelectWithVirtualBackground(ctx context.Context, rgb []byte, width, height int, vb VirtualBounds, layouts []desktop.Layout) (*selection.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bg, err := s.convert(rgb, width, height)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, request{
		mode:       modeVirtual,
		background: bg,
		origin:     image.Pt(vb.X, vb.Y),
		layouts:    layouts,
	})
}

// convert expands rgb into the reusable RGBA buffer.
func (s *Selector) convert(rgb []byte, width, height int) (*image.RGBA, error) {
	buf, err := imagecache.FromRGB(s.rgba, rgb, width, height)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	s.rgba = buf
	return &image.RGBA{
		Pix:    buf,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}
