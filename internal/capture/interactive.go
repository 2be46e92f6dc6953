package capture

import (
	"context"
	"image"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/selection"
	"github.com/1broseidon/regionsel/internal/selector"
)

// Selector is the part of *selector.Selector an interactive capture uses.
type Selector interface {
	Select(ctx context.Context) (*selection.Region, error)
	SelectWithVirtualBackground(ctx context.Context, rgb []byte, width, height int, vb selector.VirtualBounds, layouts []desktop.Layout) (*selection.Region, error)
}

// Shot is a confirmed region and, when the screen was frozen first, the
// pixels under it.
type Shot struct {
	Region selection.Region
	Image  *image.RGBA
}

// Interactive runs one selection. With freeze set the screen is captured
// first and shown as the backdrop, and the shot carries the cropped image.
// Otherwise the live desktop is tinted and only the region is returned.
//
// A nil shot with a nil error means the user cancelled.
func Interactive(ctx context.Context, sel Selector, grab func() (*Frame, error), freeze bool) (*Shot, error) {
	if !freeze {
		r, err := sel.Select(ctx)
		if err != nil || r == nil {
			return nil, err
		}
		return &Shot{Region: *r}, nil
	}

	frame, err := grab()
	if err != nil {
		return nil, err
	}
	b := frame.Image.Bounds()
	vb := selector.VirtualBounds{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
	r, err := sel.SelectWithVirtualBackground(ctx, frame.RGB(), b.Dx(), b.Dy(), vb, frame.Layouts)
	if err != nil || r == nil {
		return nil, err
	}

	img, err := Crop(frame.Image, *r)
	if err != nil {
		return nil, err
	}
	return &Shot{Region: *r, Image: img}, nil
}
