package x11

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	xrender "github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/regionsel/internal/imagecache"
	"github.com/1broseidon/regionsel/internal/render"
)

var errNoARGBFormat = errors.New("no 32-bit ARGB picture format")

type pictFormats struct {
	window xrender.Pictformat
	argb   xrender.Pictformat
}

// findFormats picks the picture format of visual and a direct ARGB32 format
// for uploaded images.
func findFormats(reply *xrender.QueryPictFormatsReply, visual xproto.Visualid) (pictFormats, error) {
	var f pictFormats
	for _, screen := range reply.Screens {
		for _, depth := range screen.Depths {
			for _, v := range depth.Visuals {
				if v.Visual == visual {
					f.window = v.Format
				}
			}
		}
	}
	if f.window == 0 {
		return f, fmt.Errorf("no picture format for visual 0x%x", visual)
	}

	for _, info := range reply.Formats {
		d := info.Direct
		if info.Type == xrender.PictTypeDirect && info.Depth == 32 &&
			d.AlphaMask == 0xff && d.AlphaShift == 24 &&
			d.RedShift == 16 && d.GreenShift == 8 && d.BlueShift == 0 {
			f.argb = info.Id
			return f, nil
		}
	}
	return f, errNoARGBFormat
}

type upload struct {
	pixmap  xproto.Pixmap
	picture xrender.Picture
}

// uploader copies client images into server-side ARGB pictures. Images
// from the cache are uploaded once per session and shared by every device.
type uploader struct {
	conn     *Connection
	formats  pictFormats
	maxBytes int
	images   map[uint64]*upload
}

func newUploader(conn *Connection) (*uploader, error) {
	c := conn.XUtil.Conn()
	if err := xrender.Init(c); err != nil {
		return nil, fmt.Errorf("render extension: %w", err)
	}
	reply, err := xrender.QueryPictFormats(c).Reply()
	if err != nil {
		return nil, fmt.Errorf("query picture formats: %w", err)
	}
	formats, err := findFormats(reply, conn.Screen().RootVisual)
	if err != nil {
		return nil, err
	}
	return &uploader{
		conn:     conn,
		formats:  formats,
		maxBytes: int(xproto.Setup(c).MaximumRequestLength) * 4,
		images:   make(map[uint64]*upload),
	}, nil
}

// cached returns the picture holding img, uploading it on first use.
func (u *uploader) cached(img *imagecache.Image) (xrender.Picture, error) {
	if up, ok := u.images[img.ID()]; ok {
		return up.picture, nil
	}
	up, err := u.put(img.RGBA())
	if err != nil {
		return 0, err
	}
	u.images[img.ID()] = up
	return up.picture, nil
}

func (u *uploader) put(src *image.RGBA) (*upload, error) {
	c := u.conn.XUtil.Conn()
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	pix, err := xproto.NewPixmapId(c)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreatePixmapChecked(c, 32, pix, xproto.Drawable(u.conn.Root), uint16(w), uint16(h)).Check(); err != nil {
		return nil, fmt.Errorf("create upload pixmap: %w", err)
	}

	gc, err := xproto.NewGcontextId(c)
	if err != nil {
		xproto.FreePixmap(c, pix)
		return nil, err
	}
	xproto.CreateGC(c, gc, xproto.Drawable(pix), 0, nil)
	defer xproto.FreeGC(c, gc)

	stride := w * 4
	data := make([]byte, stride*h)
	copyBGRA(data, stride, src)

	rows := rowsPerRequest(w, u.maxBytes)
	for y := 0; y < h; y += rows {
		n := rows
		if y+n > h {
			n = h - y
		}
		xproto.PutImage(c, xproto.ImageFormatZPixmap, xproto.Drawable(pix), gc,
			uint16(w), uint16(n), 0, int16(y), 0, 32, data[y*stride:(y+n)*stride])
	}

	pic, err := xrender.NewPictureId(c)
	if err != nil {
		xproto.FreePixmap(c, pix)
		return nil, err
	}
	if err := xrender.CreatePictureChecked(c, pic, xproto.Drawable(pix), u.formats.argb, 0, nil).Check(); err != nil {
		xproto.FreePixmap(c, pix)
		return nil, fmt.Errorf("create upload picture: %w", err)
	}
	return &upload{pixmap: pix, picture: pic}, nil
}

func (u *uploader) free(up *upload) {
	c := u.conn.XUtil.Conn()
	xrender.FreePicture(c, up.picture)
	xproto.FreePixmap(c, up.pixmap)
}

func (u *uploader) release() {
	for id, up := range u.images {
		u.free(up)
		delete(u.images, id)
	}
}

// Device draws through the RENDER extension into a back pixmap and
// composites it onto the window on Present.
type Device struct {
	conn   *Connection
	win    *Window
	up     *uploader
	target xrender.Picture

	back    xproto.Pixmap
	backPic xrender.Picture
	width   int
	height  int
}

func newDevice(conn *Connection, win *Window, up *uploader) (*Device, error) {
	c := conn.XUtil.Conn()
	pic, err := xrender.NewPictureId(c)
	if err != nil {
		return nil, err
	}
	if err := xrender.CreatePictureChecked(c, pic, win.drawable(), up.formats.window, 0, nil).Check(); err != nil {
		return nil, fmt.Errorf("create window picture: %w", err)
	}
	return &Device{conn: conn, win: win, up: up, target: pic}, nil
}

// Configure allocates a back buffer of the given size.
func (d *Device) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	d.freeBack()

	c := d.conn.XUtil.Conn()
	pix, err := xproto.NewPixmapId(c)
	if err != nil {
		return err
	}
	depth := d.conn.Screen().RootDepth
	if err := xproto.CreatePixmapChecked(c, depth, pix, d.win.drawable(), uint16(width), uint16(height)).Check(); err != nil {
		return fmt.Errorf("create back pixmap: %w", err)
	}
	pic, err := xrender.NewPictureId(c)
	if err != nil {
		xproto.FreePixmap(c, pix)
		return err
	}
	if err := xrender.CreatePictureChecked(c, pic, xproto.Drawable(pix), d.up.formats.window, 0, nil).Check(); err != nil {
		xproto.FreePixmap(c, pix)
		return fmt.Errorf("create back picture: %w", err)
	}

	d.back = pix
	d.backPic = pic
	d.width = width
	d.height = height
	return nil
}

// Canvas returns the device itself.
func (d *Device) Canvas() render.Canvas { return d }

// Clear fills the back buffer.
func (d *Device) Clear(c color.RGBA) {
	d.fill(xrender.PictOpSrc, c, image.Rect(0, 0, d.width, d.height))
}

// DrawImage composites img at (dx, dy).
func (d *Device) DrawImage(img *imagecache.Image, dx, dy int) {
	d.DrawImageClipped(img, dx, dy, image.Rect(0, 0, d.width, d.height))
}

// DrawImageClipped composites the part of img at (dx, dy) inside clip.
func (d *Device) DrawImageClipped(img *imagecache.Image, dx, dy int, clip image.Rectangle) {
	dst := img.Bounds().Add(image.Pt(dx, dy)).Intersect(clip).Intersect(image.Rect(0, 0, d.width, d.height))
	if dst.Empty() {
		return
	}
	pic, err := d.up.cached(img)
	if err != nil {
		log.Printf("X11: image upload failed: %v", err)
		return
	}
	d.composite(pic, dst.Min.Sub(image.Pt(dx, dy)), dst)
}

// StrokeRect fills the border bands of r.
func (d *Device) StrokeRect(r image.Rectangle, width int, c color.RGBA) {
	for _, band := range render.StrokeBands(r, width) {
		d.fill(xrender.PictOpOver, c, band)
	}
}

// DrawLabel uploads a one-off label image and composites it at at.
func (d *Device) DrawLabel(text string, at image.Point, fg, bg color.RGBA) {
	label := render.LabelImage(text, fg, bg)
	up, err := d.up.put(label)
	if err != nil {
		log.Printf("X11: label upload failed: %v", err)
		return
	}
	defer d.up.free(up)
	d.composite(up.picture, image.Point{}, label.Bounds().Add(at))
}

// Present copies the back buffer onto the window.
func (d *Device) Present() error {
	if d.backPic == 0 {
		return errors.New("present before configure")
	}
	xrender.Composite(d.conn.XUtil.Conn(), xrender.PictOpSrc, d.backPic, 0, d.target,
		0, 0, 0, 0, 0, 0, uint16(d.width), uint16(d.height))
	return nil
}

// Release frees the back buffer and the window picture.
func (d *Device) Release() {
	d.freeBack()
	if d.target != 0 {
		xrender.FreePicture(d.conn.XUtil.Conn(), d.target)
		d.target = 0
	}
}

func (d *Device) freeBack() {
	if d.backPic == 0 {
		return
	}
	c := d.conn.XUtil.Conn()
	xrender.FreePicture(c, d.backPic)
	xproto.FreePixmap(c, d.back)
	d.backPic = 0
	d.back = 0
}

func (d *Device) fill(op byte, c color.RGBA, r image.Rectangle) {
	if r.Empty() {
		return
	}
	xrender.FillRectangles(d.conn.XUtil.Conn(), op, d.backPic, renderColor(c), []xproto.Rectangle{toXRect(r)})
}

func (d *Device) composite(src xrender.Picture, from image.Point, dst image.Rectangle) {
	xrender.Composite(d.conn.XUtil.Conn(), xrender.PictOpOver, src, 0, d.backPic,
		int16(from.X), int16(from.Y), 0, 0, int16(dst.Min.X), int16(dst.Min.Y),
		uint16(dst.Dx()), uint16(dst.Dy()))
}

// renderColor widens a premultiplied 8-bit color to RENDER's 16-bit channels.
func renderColor(c color.RGBA) xrender.Color {
	return xrender.Color{
		Red:   uint16(c.R) * 0x101,
		Green: uint16(c.G) * 0x101,
		Blue:  uint16(c.B) * 0x101,
		Alpha: uint16(c.A) * 0x101,
	}
}

func toXRect(r image.Rectangle) xproto.Rectangle {
	return xproto.Rectangle{X: int16(r.Min.X), Y: int16(r.Min.Y), Width: uint16(r.Dx()), Height: uint16(r.Dy())}
}
