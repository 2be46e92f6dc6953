package platform

import (
	"errors"
	"time"

	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/dispatch"
	"github.com/1broseidon/regionsel/internal/overlay"
	"github.com/1broseidon/regionsel/internal/render"
)

// ErrUnsupported is returned when the platform cannot host a selection
// session (no display server, missing extensions).
var ErrUnsupported = errors.New("platform not supported")

// NativeWindow is an overlay window owned by a session.
type NativeWindow = overlay.NativeWindow

// Opener opens selection sessions.
type Opener interface {
	Open() (Session, error)
}

// Options configures the native backend.
type Options struct {
	// Display overrides the display server address.
	Display string
	// GrabRetries bounds the attempts made for each input grab.
	GrabRetries int
}

// DisplayReport describes one attached display for listing.
type DisplayReport struct {
	Display  desktop.DisplayInfo
	DPIScale float64
}

// HotkeyHost is a long-lived connection that delivers global shortcuts.
type HotkeyHost interface {
	EventLoop()
	Disconnect()
}

// Backend is the native window system.
type Backend interface {
	Opener
	// Displays lists the attached displays.
	Displays() ([]DisplayReport, error)
	// Hotkeys opens a connection for global shortcut registration.
	Hotkeys() (HotkeyHost, error)
}

// Session abstracts the window-system operations of one selection session.
// Every method except Post, After and Quit must be called from the
// goroutine that calls Run, or before Run starts.
type Session interface {
	overlay.Creator

	// Displays returns a snapshot of the attached displays.
	Displays() ([]desktop.DisplayInfo, error)

	// NewDevice binds a hardware-composited surface to w.
	NewDevice(w NativeWindow) (render.Device, error)
	// NewBlitter binds a software blit target to w.
	NewBlitter(w NativeWindow) (render.Blitter, error)

	// BeginPresentation saves presentation state the session alters.
	BeginPresentation() error
	// GrabInput routes keyboard and pointer input to the overlays.
	GrabInput() error
	// EndPresentation releases grabs and restores saved state.
	EndPresentation()

	// Run delivers events to handle until Quit.
	Run(handle func(dispatch.Event)) error
	// Post schedules fn on the event loop goroutine.
	Post(fn func())
	// After schedules fn on the event loop goroutine once d has elapsed.
	After(d time.Duration, fn func())
	// Quit makes Run return.
	Quit()

	// Close frees the connection.
	Close()
}
