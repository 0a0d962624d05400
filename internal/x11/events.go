package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
)

// EventKind identifies a translated X11 event.
type EventKind int

const (
	EventButtonPress EventKind = iota
	EventButtonRelease
	EventMotion
	EventClose
	EventExpose
)

// Event is the subset of X11 input the window bridge consumes.
type Event struct {
	Kind   EventKind
	Window xproto.Window
	X, Y   int
	Button xproto.Button
	State  uint16
	// Count is the number of Expose events still to follow in a series.
	Count int
}

// PollEvents drains every queued X11 event without blocking and hands the
// ones for windows opened on this connection to fn. It returns the number
// of events delivered.
func (c *Connection) PollEvents(fn func(Event)) int {
	delivered := 0
	for {
		ev, xerr := c.XUtil.Conn().PollForEvent()
		if ev == nil && xerr == nil {
			return delivered
		}
		if xerr != nil {
			continue
		}
		translated, ok := c.translate(ev)
		if !ok || c.lookup(translated.Window) == nil {
			continue
		}
		fn(translated)
		delivered++
	}
}

func (c *Connection) translate(ev any) (Event, bool) {
	switch e := ev.(type) {
	case xproto.ButtonPressEvent:
		return Event{Kind: EventButtonPress, Window: e.Event, X: int(e.EventX), Y: int(e.EventY), Button: e.Detail, State: e.State}, true
	case xproto.ButtonReleaseEvent:
		return Event{Kind: EventButtonRelease, Window: e.Event, X: int(e.EventX), Y: int(e.EventY), Button: e.Detail, State: e.State}, true
	case xproto.MotionNotifyEvent:
		return Event{Kind: EventMotion, Window: e.Event, X: int(e.EventX), Y: int(e.EventY), State: e.State}, true
	case xproto.ExposeEvent:
		return Event{Kind: EventExpose, Window: e.Window, Count: int(e.Count)}, true
	case xproto.ClientMessageEvent:
		if icccm.IsDeleteProtocol(c.XUtil, xevent.ClientMessageEvent{ClientMessageEvent: &e}) {
			return Event{Kind: EventClose, Window: e.Window}, true
		}
	case xproto.DestroyNotifyEvent:
		return Event{Kind: EventClose, Window: e.Window}, true
	}
	return Event{}, false
}
