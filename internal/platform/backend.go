package platform

import "image"

// Handle is a platform-neutral host window identifier.
type Handle uint32

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonOther
)

// Action is the transition reported for a button.
type Action int

const (
	ActionRelease Action = iota
	ActionPress
)

// Mod is a bit set of keyboard modifiers held during an event.
type Mod uint16

const (
	ModShift Mod = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// EventSink receives raw host events, addressed by window handle.
type EventSink interface {
	MouseButton(h Handle, button Button, action Action, mods Mod)
	MouseMove(h Handle, x, y float64)
	CloseRequested(h Handle)
}

// Host abstracts the windowing environment: window creation, non-blocking
// event polling and frame presentation.
type Host interface {
	OpenWindow(width, height int, title string) (Handle, error)
	CloseWindow(h Handle)
	PollEvents(sink EventSink)
	Present(h Handle, frame image.Image) error
}
