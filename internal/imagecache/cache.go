package imagecache

import (
	"image"
	"image/color"
	"sync/atomic"
)

var nextID atomic.Uint64

// Image is an immutable RGBA bitmap shared read-only by every window of a
// session. ID keys backend-side copies such as uploaded server pixmaps.
type Image struct {
	id  uint64
	rgb *image.RGBA
}

// NewImage wraps pix. The caller must not modify pix afterwards.
func NewImage(pix *image.RGBA) *Image {
	return &Image{id: nextID.Add(1), rgb: pix}
}

// ID returns a process-unique identifier.
func (i *Image) ID() uint64 { return i.id }

// RGBA returns the pixels. Callers must treat them as read-only.
func (i *Image) RGBA() *image.RGBA { return i.rgb }

// Bounds returns the image bounds.
func (i *Image) Bounds() image.Rectangle { return i.rgb.Bounds() }

// Stats counts cache work, mainly for tests and debug logging.
type Stats struct {
	Builds int
	Hits   int
}

// Cache holds the tinted and original backdrops for one session.
type Cache struct {
	tint     color.RGBA
	source   *image.RGBA
	original *Image
	tinted   *Image
	stats    Stats
}

// New returns an empty cache that tints with c; c.A is the blend alpha.
func New(c color.RGBA) *Cache {
	return &Cache{tint: c}
}

// Prime builds the derived images for src once. Priming again with the
// same source is a no-op.
func (c *Cache) Prime(src *image.RGBA) {
	if src == nil {
		return
	}
	if c.source == src && c.tinted != nil {
		c.stats.Hits++
		return
	}
	c.source = src
	c.original = NewImage(src)
	c.tinted = NewImage(Tint(src, c.tint))
	c.stats.Builds++
}

// Original returns the unmodified backdrop, or nil before Prime.
func (c *Cache) Original() *Image { return c.original }

// Tinted returns the dimmed backdrop, or nil before Prime.
func (c *Cache) Tinted() *Image { return c.tinted }

// Ready reports whether both images are available.
func (c *Cache) Ready() bool { return c.original != nil && c.tinted != nil }

// Stats returns build counters.
func (c *Cache) Stats() Stats { return c.stats }

// Reset drops both images. It is only called between sessions.
func (c *Cache) Reset() {
	c.source = nil
	c.original = nil
	c.tinted = nil
}
