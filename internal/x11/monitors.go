package x11

import (
	"fmt"
	"log"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/regionsel/internal/desktop"
)

// Monitor represents a physical display
type Monitor struct {
	ID      uint32
	Name    string
	Primary bool
	X       int
	Y       int
	Width   int
	Height  int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	// Initialize RandR if not already done
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	// Get screen resources
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				isPrimary = true
			}
		}

		monitors = append(monitors, Monitor{
			ID:      uint32(crtc),
			Name:    outputName,
			Primary: isPrimary,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
		})
	}

	if len(monitors) == 0 {
		// No RandR outputs (e.g. Xvfb): fall back to the root window.
		geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get root geometry: %w", err)
		}
		monitors = append(monitors, Monitor{
			ID:      uint32(c.Root),
			Name:    "screen",
			Primary: true,
			Width:   int(geom.Width),
			Height:  int(geom.Height),
		})
	}

	return monitors, nil
}

// Displays returns the monitors as display snapshots, ordered left to right
// then top to bottom. X11 geometry is already in device pixels, so every
// display reports a scale of 1; DPIScale carries the Xft hint separately.
func (c *Connection) Displays() ([]desktop.DisplayInfo, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]desktop.DisplayInfo, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, desktop.DisplayInfo{
			ID:      m.ID,
			Name:    m.Name,
			Primary: m.Primary,
			X:       m.X,
			Y:       m.Y,
			Width:   m.Width,
			Height:  m.Height,
			Scale:   1,
		})
	}

	sort.SliceStable(displays, func(i, j int) bool {
		if displays[i].X != displays[j].X {
			return displays[i].X < displays[j].X
		}
		return displays[i].Y < displays[j].Y
	})
	return displays, nil
}

// DPIScale returns the Xft.dpi scale factor, 1 when unset.
func (c *Connection) DPIScale() float64 {
	res, err := c.resourceManager()
	if err != nil {
		return 1
	}
	dpi, ok := parseXftDPI(res)
	if !ok {
		return 1
	}
	if dpi < 48 || dpi > 480 {
		log.Printf("X11: ignoring implausible Xft.dpi %.0f", dpi)
		return 1
	}
	return dpi / 96
}
