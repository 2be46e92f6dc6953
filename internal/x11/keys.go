package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/regionsel/internal/dispatch"
)

const (
	keysymLeft    xproto.Keysym = 0xff51
	keysymUp      xproto.Keysym = 0xff52
	keysymRight   xproto.Keysym = 0xff53
	keysymDown    xproto.Keysym = 0xff54
	keysymReturn  xproto.Keysym = 0xff0d
	keysymKPEnter xproto.Keysym = 0xff8d
	keysymEscape  xproto.Keysym = 0xff1b
	keysymShiftL  xproto.Keysym = 0xffe1
	keysymShiftR  xproto.Keysym = 0xffe2
	keysymMetaL   xproto.Keysym = 0xffe7
	keysymMetaR   xproto.Keysym = 0xffe8
	keysymAltL    xproto.Keysym = 0xffe9
	keysymAltR    xproto.Keysym = 0xffea
)

// keyFromSym maps a keysym to a selection key.
func keyFromSym(sym xproto.Keysym) dispatch.Key {
	switch sym {
	case keysymLeft:
		return dispatch.KeyLeft
	case keysymUp:
		return dispatch.KeyUp
	case keysymRight:
		return dispatch.KeyRight
	case keysymDown:
		return dispatch.KeyDown
	case keysymReturn, keysymKPEnter:
		return dispatch.KeyEnter
	case keysymEscape:
		return dispatch.KeyEscape
	case keysymShiftL, keysymShiftR:
		return dispatch.KeyShift
	case keysymAltL, keysymAltR, keysymMetaL, keysymMetaR:
		return dispatch.KeyAlt
	default:
		return dispatch.KeyOther
	}
}

// keyFromCode resolves a keycode through the unshifted column of the
// keyboard mapping.
func keyFromCode(xu *xgbutil.XUtil, code xproto.Keycode) dispatch.Key {
	return keyFromSym(keybind.KeysymGet(xu, code, 0))
}

// modifiers decodes the Shift and Mod1 (Alt) bits of an event state.
func modifiers(state uint16) (shift, alt bool) {
	return state&xproto.ModMaskShift != 0, state&xproto.ModMask1 != 0
}
