package x11

import (
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xevent"
)

const pointerGrabMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion

// grabRetryDelay is the backoff step between grab attempts.
const grabRetryDelay = 25 * time.Millisecond

// grabKeyboard grabs the keyboard on win. When the session is launched from
// a globally grabbed hotkey, the keyboard may still be grabbed by the
// launcher until its key is released; such grabs are retried.
func (c *Connection) grabKeyboard(win xproto.Window, retries int) error {
	xu := c.XUtil
	grab := func() (*xproto.GrabKeyboardReply, error) {
		return xproto.GrabKeyboard(
			xu.Conn(),
			false,                  // owner_events (report events to grab_window)
			win,                    // grab_window (must be viewable)
			xproto.TimeCurrentTime, // time
			xproto.GrabModeAsync,   // pointer_mode
			xproto.GrabModeAsync,   // keyboard_mode
		).Reply()
	}

	var status byte
	for attempt := 0; attempt <= retries; attempt++ {
		reply, err := grab()
		if err != nil {
			return err
		}
		status = reply.Status
		if status == xproto.GrabStatusSuccess {
			// Redirect all key events to the grab window for the session.
			xevent.RedirectKeyEvents(xu, win)
			log.Println("X11: keyboard grabbed")
			return nil
		}
		if status == xproto.GrabStatusAlreadyGrabbed {
			xproto.UngrabKeyboard(xu.Conn(), xproto.TimeCurrentTime)
		}
		time.Sleep(time.Duration(attempt+1) * grabRetryDelay)
	}
	return fmt.Errorf("keyboard grab failed with status %d", status)
}

// grabPointer confines pointer events to the overlays. owner_events keeps
// delivery on whichever overlay is under the pointer.
func (c *Connection) grabPointer(win xproto.Window, cursor xproto.Cursor, retries int) error {
	var status byte
	for attempt := 0; attempt <= retries; attempt++ {
		reply, err := xproto.GrabPointer(
			c.XUtil.Conn(),
			true, // owner_events
			win,
			uint16(pointerGrabMask),
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
			xproto.WindowNone, // confine_to
			cursor,
			xproto.TimeCurrentTime,
		).Reply()
		if err != nil {
			return err
		}
		status = reply.Status
		if status == xproto.GrabStatusSuccess {
			log.Println("X11: pointer grabbed")
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * grabRetryDelay)
	}
	return fmt.Errorf("pointer grab failed with status %d", status)
}

// ungrab releases both grabs and stops redirecting key events.
func (c *Connection) ungrab() {
	xu := c.XUtil
	xproto.UngrabPointer(xu.Conn(), xproto.TimeCurrentTime)
	xproto.UngrabKeyboard(xu.Conn(), xproto.TimeCurrentTime)
	xevent.RedirectKeyEvents(xu, 0)
	log.Println("X11: input released")
}
