package x11

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/regionsel/internal/desktop"
)

const overlayEventMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify

// Window is a borderless override-redirect overlay covering one display.
type Window struct {
	conn    *Connection
	id      xproto.Window
	display desktop.DisplayInfo
	width   int
	height  int
}

// createOverlay creates an unmapped overlay window over d. The background
// is left unset so the server never paints over a frame between exposes.
// Without backing store, a frame presented while the window is still
// unmapped is discarded; the first visible frame is the redraw for the
// Expose that follows the map.
func createOverlay(conn *Connection, d desktop.DisplayInfo, cursor xproto.Cursor) (*Window, error) {
	c := conn.XUtil.Conn()
	screen := conn.Screen()

	wid, err := xproto.NewWindowId(c)
	if err != nil {
		return nil, err
	}

	// Value list order follows the bit positions of the mask (low to high).
	err = xproto.CreateWindowChecked(
		c,
		screen.RootDepth,
		wid,
		conn.Root,
		int16(d.X), int16(d.Y),
		uint16(d.Width), uint16(d.Height),
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixmap|xproto.CwOverrideRedirect|xproto.CwEventMask|xproto.CwCursor,
		[]uint32{xproto.BackPixmapNone, 1, uint32(overlayEventMask), uint32(cursor)},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("create overlay for %s: %w", d.Name, err)
	}

	if err := ewmh.WmNameSet(conn.XUtil, wid, "regionsel"); err != nil {
		log.Printf("X11: failed to name overlay %d: %v", wid, err)
	}

	return &Window{
		conn:    conn,
		id:      wid,
		display: d,
		width:   d.Width,
		height:  d.Height,
	}, nil
}

// ID returns the X window id.
func (w *Window) ID() uint32 { return uint32(w.id) }

// Show raises and maps the window.
func (w *Window) Show() {
	c := w.conn.XUtil.Conn()
	xproto.ConfigureWindow(c, w.id, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	xproto.MapWindow(c, w.id)
}

// RequestRedraw asks the server for an Expose covering the whole window.
func (w *Window) RequestRedraw() {
	xproto.ClearArea(w.conn.XUtil.Conn(), true, w.id, 0, 0, 0, 0)
}

// Destroy unmaps and destroys the window.
func (w *Window) Destroy() {
	xproto.DestroyWindow(w.conn.XUtil.Conn(), w.id)
}

// resized records a configure notification and reports whether the size
// changed.
func (w *Window) resized(width, height int) bool {
	if width == w.width && height == w.height {
		return false
	}
	w.width = width
	w.height = height
	return true
}

func (w *Window) drawable() xproto.Drawable { return xproto.Drawable(w.id) }
