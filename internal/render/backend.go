package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrUnsupported is returned when neither drawing path can be created.
var ErrUnsupported = errors.New("no usable render backend")

// Kind identifies the active drawing path of a Backend.
type Kind int

const (
	KindGPU Kind = iota + 1
	KindCPU
)

// String returns the backend kind name.
func (k Kind) String() string {
	switch k {
	case KindGPU:
		return "gpu"
	case KindCPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// Preference selects which path the factory tries.
type Preference string

const (
	PreferAuto Preference = "auto"
	PreferGPU  Preference = "gpu"
	PreferCPU  Preference = "cpu"
)

// ParsePreference validates a backend name from configuration.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PreferAuto:
		return PreferAuto, nil
	case PreferGPU, PreferCPU:
		return p, nil
	default:
		return "", fmt.Errorf("unknown render backend %q (want auto, gpu or cpu)", s)
	}
}

// Backend owns the drawing surface of one window. Exactly one of gpu and
// raster is set, as told by kind.
type Backend struct {
	kind Kind

	gpu Device

	raster  *Raster
	blitter Blitter

	width    int
	height   int
	prepared bool
}

// NewGPUBackend wraps a hardware device.
func NewGPUBackend(dev Device) *Backend {
	return &Backend{kind: KindGPU, gpu: dev}
}

// NewCPUBackend wraps a software blitter with an owned raster.
func NewCPUBackend(b Blitter) *Backend {
	return &Backend{kind: KindCPU, blitter: b, raster: NewRaster(1, 1)}
}

// Kind returns the drawing path.
func (b *Backend) Kind() Kind { return b.kind }

// Size returns the prepared surface size.
func (b *Backend) Size() (int, int) { return b.width, b.height }

// PrepareSurface sizes the surface. It does nothing when the size is
// unchanged and no resize is pending.
func (b *Backend) PrepareSurface(width, height int) error {
	if b.prepared && width == b.width && height == b.height {
		return nil
	}

	switch b.kind {
	case KindGPU:
		if err := b.gpu.Configure(width, height); err != nil {
			return fmt.Errorf("configure gpu surface %dx%d: %w", width, height, err)
		}
	case KindCPU:
		b.raster.Resize(width, height)
	default:
		return ErrUnsupported
	}

	b.width = width
	b.height = height
	b.prepared = true
	return nil
}

// Resize marks the geometry dirty; the next PrepareSurface reconfigures.
func (b *Backend) Resize(width, height int) {
	if width != b.width || height != b.height {
		b.prepared = false
	}
}

// Canvas returns the drawing target for the current frame.
func (b *Backend) Canvas() Canvas {
	switch b.kind {
	case KindGPU:
		return b.gpu.Canvas()
	case KindCPU:
		return b.raster
	default:
		return nil
	}
}

// FlushAndPresent submits the frame to the window.
func (b *Backend) FlushAndPresent() error {
	switch b.kind {
	case KindGPU:
		return b.gpu.Present()
	case KindCPU:
		return b.blitter.Blit(b.raster.Frame())
	default:
		return ErrUnsupported
	}
}

// Release frees native resources.
func (b *Backend) Release() {
	switch b.kind {
	case KindGPU:
		if b.gpu != nil {
			b.gpu.Release()
		}
	case KindCPU:
		if b.blitter != nil {
			b.blitter.Release()
		}
	}
	b.prepared = false
}

// Factory creates backends, falling back from GPU to CPU.
type Factory struct {
	pref     Preference
	logger   *slog.Logger
	warnOnce sync.Once
	gpuDown  bool
}

// NewFactory returns a factory honoring pref.
func NewFactory(pref Preference, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if pref == "" {
		pref = PreferAuto
	}
	return &Factory{pref: pref, logger: logger}
}

// Create builds a backend for one window. A GPU failure is logged once and
// the CPU path is used; later windows skip the GPU attempt.
func (f *Factory) Create(gpu func() (Device, error), cpu func() (Blitter, error)) (*Backend, error) {
	var gpuErr error
	if f.pref != PreferCPU && !f.gpuDown && gpu != nil {
		dev, err := gpu()
		if err == nil {
			return NewGPUBackend(dev), nil
		}
		gpuErr = err
		f.gpuDown = true
		f.warnOnce.Do(func() {
			f.logger.Warn("gpu backend unavailable, falling back to cpu", "error", err)
		})
	}

	if cpu == nil {
		return nil, ErrUnsupported
	}
	blit, err := cpu()
	if err != nil {
		if gpuErr != nil {
			return nil, fmt.Errorf("%w: gpu: %v; cpu: %v", ErrUnsupported, gpuErr, err)
		}
		return nil, fmt.Errorf("%w: cpu: %v", ErrUnsupported, err)
	}
	return NewCPUBackend(blit), nil
}
