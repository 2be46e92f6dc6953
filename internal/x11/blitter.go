package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgbutil/xgraphics"
)

// Blitter paints software frames onto a window through an xgraphics image.
type Blitter struct {
	conn *Connection
	win  *Window
	img  *xgraphics.Image
}

func newBlitter(conn *Connection, win *Window) *Blitter {
	return &Blitter{conn: conn, win: win}
}

// Blit copies frame into the window. The server-side surface is recreated
// whenever the frame size changes.
func (b *Blitter) Blit(frame *image.RGBA) error {
	bounds := frame.Bounds()
	if b.img == nil || b.img.Rect.Dx() != bounds.Dx() || b.img.Rect.Dy() != bounds.Dy() {
		b.Release()
		img := xgraphics.New(b.conn.XUtil, image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		if err := img.XSurfaceSet(b.win.id); err != nil {
			img.Destroy()
			return fmt.Errorf("create blit surface: %w", err)
		}
		b.img = img
	}

	copyBGRA(b.img.Pix, b.img.Stride, frame)
	b.img.XDraw()
	b.img.XPaint(b.win.id)
	return nil
}

// Release frees the server-side pixmap.
func (b *Blitter) Release() {
	if b.img != nil {
		b.img.Destroy()
		b.img = nil
	}
}
