package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// ConnectError reports that the X server could not be reached.
type ConnectError struct {
	Display string
	Err     error
}

func (e *ConnectError) Error() string {
	if e.Display == "" {
		return fmt.Sprintf("connect to X server: %v", e.Err)
	}
	return fmt.Sprintf("connect to X server %s: %v", e.Display, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// NewConnection connects to display, or to $DISPLAY when display is empty.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, &ConnectError{Display: display, Err: err}
	}

	// Keysym lookup for the selection keys needs the keyboard mapping.
	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Screen returns the default screen.
func (c *Connection) Screen() *xproto.ScreenInfo {
	return c.XUtil.Screen()
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
