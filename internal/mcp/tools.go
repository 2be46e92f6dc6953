package mcp

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/platform"
)

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	if s.deps.Displays == nil {
		return nil, ListDisplaysOutput{}, platform.ErrUnsupported
	}
	reports, err := s.deps.Displays()
	if err != nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("list displays: %w", err)
	}

	out := ListDisplaysOutput{Displays: make([]DisplayOutput, 0, len(reports))}
	for _, r := range reports {
		out.Displays = append(out.Displays, DisplayOutput{
			ID:       r.Display.ID,
			Name:     r.Display.Name,
			Primary:  r.Display.Primary,
			X:        r.Display.X,
			Y:        r.Display.Y,
			Width:    r.Display.Width,
			Height:   r.Display.Height,
			Scale:    r.Display.Scale,
			DPIScale: r.DPIScale,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSelectRegion(ctx context.Context, _ *mcpsdk.CallToolRequest, args SelectRegionInput) (*mcpsdk.CallToolResult, SelectRegionOutput, error) {
	format := capture.FormatPNG
	if args.Format != "" {
		f, err := capture.ParseFormat(args.Format)
		if err != nil {
			return nil, SelectRegionOutput{}, err
		}
		format = f
	}
	if args.Resize < 0 {
		return nil, SelectRegionOutput{}, fmt.Errorf("resize must be positive, got %g", args.Resize)
	}

	if s.deps.Lock != nil {
		release, err := s.deps.Lock()
		if err != nil {
			return nil, SelectRegionOutput{}, err
		}
		defer release()
	}

	shot, err := capture.Interactive(ctx, s.deps.Selector, s.deps.Grab, args.Capture)
	if err != nil {
		log.Printf("MCP: select_region failed: %v", err)
		return nil, SelectRegionOutput{}, err
	}
	if shot == nil {
		return nil, SelectRegionOutput{Cancelled: true}, nil
	}

	r := shot.Region
	out := SelectRegionOutput{
		X:        r.X,
		Y:        r.Y,
		Width:    r.Width,
		Height:   r.Height,
		Scale:    r.Scale,
		Geometry: r.String(),
	}
	if shot.Image == nil {
		return nil, out, nil
	}

	img := capture.Resize(shot.Image, args.Resize)
	var buf bytes.Buffer
	if err := capture.Encode(&buf, img, format, 0); err != nil {
		return nil, SelectRegionOutput{}, err
	}
	if args.Save != "" {
		if err := os.WriteFile(args.Save, buf.Bytes(), 0644); err != nil {
			return nil, SelectRegionOutput{}, fmt.Errorf("save image: %w", err)
		}
		out.Saved = args.Save
	}

	result := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: out.Geometry},
			&mcpsdk.ImageContent{Data: buf.Bytes(), MIMEType: format.MIMEType()},
		},
	}
	return result, out, nil
}
