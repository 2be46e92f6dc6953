package x11

import "image"

// putImageHeader is the fixed size in bytes of a PutImage request.
const putImageHeader = 24

// copyBGRA writes src into dst, a 32bpp little-endian ZPixmap buffer with
// the given stride. Both use premultiplied alpha, so only the channel order
// changes.
func copyBGRA(dst []byte, stride int, src *image.RGBA) {
	b := src.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+w*4]
		d := dst[y*stride : y*stride+w*4]
		for i := 0; i < len(s); i += 4 {
			d[i+0] = s[i+2]
			d[i+1] = s[i+1]
			d[i+2] = s[i+0]
			d[i+3] = s[i+3]
		}
	}
}

// rowsPerRequest returns how many rows of a width-pixel 32bpp image fit in
// one PutImage request of at most maxBytes.
func rowsPerRequest(width, maxBytes int) int {
	if width <= 0 {
		return 0
	}
	rows := (maxBytes - putImageHeader) / (width * 4)
	if rows < 1 {
		rows = 1
	}
	return rows
}
