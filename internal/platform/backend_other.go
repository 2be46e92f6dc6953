//go:build !linux

package platform

import "fmt"

type unsupportedBackend struct{}

// NewBackend returns a backend whose every operation fails with
// ErrUnsupported.
func NewBackend(Options) Backend { return unsupportedBackend{} }

func (unsupportedBackend) Open() (Session, error) {
	return nil, fmt.Errorf("%w: no overlay backend for this OS", ErrUnsupported)
}

func (unsupportedBackend) Displays() ([]DisplayReport, error) {
	return nil, fmt.Errorf("%w: no overlay backend for this OS", ErrUnsupported)
}

func (unsupportedBackend) Hotkeys() (HotkeyHost, error) {
	return nil, fmt.Errorf("%w: global hotkeys need X11", ErrUnsupported)
}
