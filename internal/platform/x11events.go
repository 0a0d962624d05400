package platform

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winbridge/internal/x11"
)

// Core protocol wheel buttons. Scrolling is reported as presses of these.
const (
	x11WheelUp   xproto.Button = 4
	x11WheelDown xproto.Button = 5
)

func x11Button(b xproto.Button) Button {
	switch b {
	case xproto.ButtonIndex1:
		return ButtonLeft
	case xproto.ButtonIndex2:
		return ButtonMiddle
	case xproto.ButtonIndex3:
		return ButtonRight
	default:
		return ButtonOther
	}
}

func x11Mods(state uint16) Mod {
	var m Mod
	if state&xproto.ModMaskShift != 0 {
		m |= ModShift
	}
	if state&xproto.ModMaskControl != 0 {
		m |= ModControl
	}
	if state&xproto.ModMask1 != 0 {
		m |= ModAlt
	}
	if state&xproto.ModMask4 != 0 {
		m |= ModSuper
	}
	return m
}

// deliverX11Event forwards input and close requests to sink. The last
// Expose of a series calls repaint instead.
func deliverX11Event(sink EventSink, repaint func(Handle), ev x11.Event) {
	h := Handle(ev.Window)
	switch ev.Kind {
	case x11.EventButtonPress, x11.EventButtonRelease:
		if ev.Button == x11WheelUp || ev.Button == x11WheelDown {
			return
		}
		action := ActionRelease
		if ev.Kind == x11.EventButtonPress {
			action = ActionPress
		}
		sink.MouseMove(h, float64(ev.X), float64(ev.Y))
		sink.MouseButton(h, x11Button(ev.Button), action, x11Mods(ev.State))
	case x11.EventMotion:
		sink.MouseMove(h, float64(ev.X), float64(ev.Y))
	case x11.EventClose:
		sink.CloseRequested(h)
	case x11.EventExpose:
		if ev.Count == 0 {
			repaint(h)
		}
	}
}
