package overlay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/render"
)

// ErrNoWindows is returned when no display got an overlay window.
var ErrNoWindows = errors.New("no overlay windows could be created")

// NativeWindow is a borderless, always-on-top, input-capturing window that
// covers exactly one display.
type NativeWindow interface {
	ID() uint32
	Show()
	RequestRedraw()
	Destroy()
}

// Creator creates the native window for one display.
type Creator interface {
	CreateWindow(d desktop.DisplayInfo) (NativeWindow, error)
}

// Handle addresses a window inside its registry. Handles stay valid until
// DestroyAll.
type Handle int

// WindowInfo is the registry record of one overlay window.
type WindowInfo struct {
	Native   NativeWindow
	Display  desktop.DisplayInfo
	Width    int
	Height   int
	Scale    float64
	VirtualX int
	VirtualY int

	backend *render.Backend
}

// Rect returns the window rectangle in virtual-desktop space.
func (w *WindowInfo) Rect() desktop.Rect {
	return desktop.Rect{X: w.VirtualX, Y: w.VirtualY, Width: w.Width, Height: w.Height}
}

// UpdateSize records a new physical size and marks the backend dirty.
func (w *WindowInfo) UpdateSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.Width = width
	w.Height = height
	if w.backend != nil {
		w.backend.Resize(width, height)
	}
}

// UpdateScale records a new DPI scale.
func (w *WindowInfo) UpdateScale(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	w.Scale = scale
}

// Backend returns the render backend, or nil before the first frame.
func (w *WindowInfo) Backend() *render.Backend { return w.backend }

// SetBackend attaches a backend, releasing any previous one.
func (w *WindowInfo) SetBackend(b *render.Backend) {
	if w.backend != nil && w.backend != b {
		w.backend.Release()
	}
	w.backend = b
}

// Registry owns the overlay windows of one session.
type Registry struct {
	creator Creator
	logger  *slog.Logger

	windows []*WindowInfo
	byID    map[uint32]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry(creator Creator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		creator: creator,
		logger:  logger,
		byID:    make(map[uint32]Handle),
	}
}

// CreateAll creates one window per display. A display whose window cannot
// be created is logged and skipped; ErrNoWindows is returned only when
// nothing could be created.
func (r *Registry) CreateAll(displays []desktop.DisplayInfo) error {
	var lastErr error
	for _, d := range displays {
		native, err := r.creator.CreateWindow(d)
		if err != nil {
			lastErr = err
			r.logger.Warn("skipping display", "display", d.Name, "id", d.ID, "error", err)
			continue
		}
		r.add(d, native)
	}

	if len(r.windows) == 0 {
		if lastErr != nil {
			return fmt.Errorf("%w: %v", ErrNoWindows, lastErr)
		}
		return ErrNoWindows
	}
	return nil
}

func (r *Registry) add(d desktop.DisplayInfo, native NativeWindow) Handle {
	scale := d.Scale
	if scale <= 0 {
		scale = 1
	}
	h := Handle(len(r.windows))
	r.windows = append(r.windows, &WindowInfo{
		Native:   native,
		Display:  d,
		Width:    d.Width,
		Height:   d.Height,
		Scale:    scale,
		VirtualX: d.X,
		VirtualY: d.Y,
	})
	r.byID[native.ID()] = h
	return h
}

// Lookup maps a native window id to its handle.
func (r *Registry) Lookup(native uint32) (Handle, bool) {
	h, ok := r.byID[native]
	return h, ok
}

// Get returns the record for h, or nil for a stale handle.
func (r *Registry) Get(h Handle) *WindowInfo {
	if h < 0 || int(h) >= len(r.windows) {
		return nil
	}
	return r.windows[h]
}

// Len returns the number of live windows.
func (r *Registry) Len() int { return len(r.windows) }

// Each calls fn for every window in creation order.
func (r *Registry) Each(fn func(Handle, *WindowInfo)) {
	for i, w := range r.windows {
		fn(Handle(i), w)
	}
}

// ShowAll maps every window.
func (r *Registry) ShowAll() {
	for _, w := range r.windows {
		w.Native.Show()
	}
}

// RequestRedrawAll asks every window for a redraw.
func (r *Registry) RequestRedrawAll() {
	for _, w := range r.windows {
		w.Native.RequestRedraw()
	}
}

// DestroyAll releases every backend, then destroys every window.
func (r *Registry) DestroyAll() {
	for _, w := range r.windows {
		if w.backend != nil {
			w.backend.Release()
			w.backend = nil
		}
	}
	for _, w := range r.windows {
		w.Native.Destroy()
	}
	r.windows = nil
	r.byID = make(map[uint32]Handle)
}
