//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/regionsel/internal/x11"
)

// LinuxBackend opens selection sessions on an X11 server.
type LinuxBackend struct {
	opts Options
}

var (
	_ Backend = (*LinuxBackend)(nil)
	_ Session = (*x11.Session)(nil)
)

// NewBackend returns the X11 backend.
func NewBackend(opts Options) Backend {
	return &LinuxBackend{opts: opts}
}

func (b *LinuxBackend) x11Options() x11.Options {
	return x11.Options{Display: b.opts.Display, GrabRetries: b.opts.GrabRetries}
}

// Open connects a fresh session. A missing server is reported as
// ErrUnsupported.
func (b *LinuxBackend) Open() (Session, error) {
	if b.opts.Display == "" && os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("%w: DISPLAY is not set", ErrUnsupported)
	}
	sess, err := x11.Open(b.x11Options())
	if err != nil {
		var connErr *x11.ConnectError
		if errors.As(err, &connErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return nil, err
	}
	return sess, nil
}

// Displays reports the attached displays using a temporary connection.
func (b *LinuxBackend) Displays() ([]DisplayReport, error) {
	conn, err := x11.NewConnection(b.opts.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	defer conn.Close()

	displays, err := conn.Displays()
	if err != nil {
		return nil, err
	}
	dpi := conn.DPIScale()

	reports := make([]DisplayReport, 0, len(displays))
	for _, d := range displays {
		reports = append(reports, DisplayReport{Display: d, DPIScale: dpi})
	}
	return reports, nil
}

// Hotkeys opens a long-lived connection for global shortcuts.
func (b *LinuxBackend) Hotkeys() (HotkeyHost, error) {
	conn, err := x11.NewConnection(b.opts.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &linuxHotkeyHost{conn: conn}, nil
}

// linuxHotkeyHost wraps an X11 connection behind HotkeyHost.
type linuxHotkeyHost struct {
	conn *x11.Connection
}

// EventLoop starts the X11 event loop (blocking).
func (h *linuxHotkeyHost) EventLoop() {
	if h != nil && h.conn != nil {
		h.conn.EventLoop()
	}
}

// Disconnect closes the underlying X11 connection.
func (h *linuxHotkeyHost) Disconnect() {
	if h != nil && h.conn != nil {
		h.conn.Close()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (h *linuxHotkeyHost) XUtil() *xgbutil.XUtil {
	if h == nil || h.conn == nil {
		return nil
	}
	return h.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (h *linuxHotkeyHost) RootWindow() xproto.Window {
	if h == nil || h.conn == nil {
		return 0
	}
	return h.conn.Root
}
