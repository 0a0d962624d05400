// Package compositor bridges host windows to retained-mode displays. It
// owns the window and surface registries, routes pointer input to the
// topmost surface under the cursor and composites every window once per
// tick.
//
// A System is not safe for concurrent use. All calls must come from the
// goroutine that drives Tick.
package compositor

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/1broseidon/winbridge/internal/display"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/indev"
	"github.com/1broseidon/winbridge/internal/platform"
)

// Backend is the graphics backend used to composite surfaces.
type Backend interface {
	DisplayForTexture(id uint32) *display.Display
	Refresh(d *display.Display)
	Viewport(x, y, width, height int)
	Clear()
	DrawTexture(id uint32, area geom.Area, opa uint8, viewW, viewH int)
	Frame() image.Image
}

// Inputs creates and deletes input devices.
type Inputs interface {
	Create() (*indev.Device, error)
	Delete(d *indev.Device)
}

// Options configures a System.
type Options struct {
	// Title is used for every host window.
	Title string
	// Present pushes each composited frame to the host window.
	Present bool
	// MaxSurfaces caps the number of live surfaces. Zero means unlimited.
	MaxSurfaces int
	Logger      *slog.Logger
}

// System is the window system: registries, input bridge and frame loop.
type System struct {
	host    platform.Host
	backend Backend
	inputs  Inputs
	opts    Options
	logger  *slog.Logger

	windows  arena[*Window]
	surfaces arena[*Surface]
	byHandle map[platform.Handle]WindowID
	ownsGate bool
}

// New creates a System. No host window is opened until CreateWindow.
func New(host platform.Host, backend Backend, inputs Inputs, opts Options) *System {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Title == "" {
		opts.Title = "winbridge"
	}
	return &System{
		host:     host,
		backend:  backend,
		inputs:   inputs,
		opts:     opts,
		logger:   logger,
		byHandle: make(map[platform.Handle]WindowID),
	}
}

// Window is a host window and its ordered surfaces.
type Window struct {
	handle   platform.Handle
	width    int
	height   int
	pointer  bool
	closing  bool
	mouse    geom.Point
	state    indev.State
	surfaces []SurfaceID
}

// Handle returns the host window handle.
func (w *Window) Handle() platform.Handle { return w.handle }

// Width returns the horizontal resolution.
func (w *Window) Width() int { return w.width }

// Height returns the vertical resolution.
func (w *Window) Height() int { return w.height }

// PointerEnabled reports whether surfaces of this window get input devices.
func (w *Window) PointerEnabled() bool { return w.pointer }

// Closing reports whether the window will be reaped on the next tick.
func (w *Window) Closing() bool { return w.closing }

// LastPoint returns the last pointer position in window coordinates.
func (w *Window) LastPoint() geom.Point { return w.mouse }

// LastState returns the last left-button state seen by the window.
func (w *Window) LastState() indev.State { return w.state }

// SurfaceCount returns the number of surfaces on the window.
func (w *Window) SurfaceCount() int { return len(w.surfaces) }

// CreateWindow opens a host window and registers it. Only one window system
// may be initialized per process; once a window has been created further
// calls fail with ErrAlreadyInitialized until Shutdown.
func (s *System) CreateWindow(width, height int, pointer bool) (WindowID, error) {
	if gateHeld() {
		return 0, ErrAlreadyInitialized
	}
	id, err := s.openWindow(width, height, pointer)
	if err != nil {
		return 0, err
	}
	if !takeGate() {
		_ = s.DeleteWindow(id)
		return 0, ErrAlreadyInitialized
	}
	s.ownsGate = true
	return id, nil
}

// openWindow registers a new window without consulting the process gate.
func (s *System) openWindow(width, height int, pointer bool) (WindowID, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("window %dx%d: %w", width, height, ErrInvalidSize)
	}
	handle, err := s.host.OpenWindow(width, height, s.opts.Title)
	if err != nil {
		return 0, fmt.Errorf("open host window: %w", err)
	}
	w := &Window{
		handle:  handle,
		width:   width,
		height:  height,
		pointer: pointer,
		state:   indev.StateReleased,
	}
	id := WindowID(s.windows.insert(w))
	s.byHandle[handle] = id
	s.logger.Debug("window created", "window", id, "handle", handle, "width", width, "height", height, "pointer", pointer)
	return id, nil
}

func (s *System) window(id WindowID) (*Window, error) {
	w, ok := s.windows.get(ref(id))
	if !ok {
		return nil, fmt.Errorf("window %s: %w", id, ErrStaleHandle)
	}
	return w, nil
}

// DeleteWindow tears down the input devices of every surface, drops the
// surfaces, unregisters the window and closes its host window.
func (s *System) DeleteWindow(id WindowID) error {
	w, err := s.window(id)
	if err != nil {
		return err
	}
	for _, sid := range w.surfaces {
		if surf, ok := s.surfaces.get(sid.slot); ok {
			s.teardownDevices(surf)
		}
	}
	for _, sid := range w.surfaces {
		s.surfaces.remove(sid.slot)
	}
	removed := len(w.surfaces)
	w.surfaces = nil

	s.windows.remove(ref(id))
	delete(s.byHandle, w.handle)
	s.host.CloseWindow(w.handle)
	s.logger.Debug("window deleted", "window", id, "surfaces_removed", removed)
	return nil
}

// Shutdown deletes every window and releases the process-wide gate so a
// new window system can be created.
func (s *System) Shutdown() {
	for _, r := range s.windows.refs() {
		_ = s.DeleteWindow(WindowID(r))
	}
	if s.ownsGate {
		releaseGate()
		s.ownsGate = false
	}
}

// Windows returns the live windows in registry order.
func (s *System) Windows() []WindowID {
	refs := s.windows.refs()
	out := make([]WindowID, len(refs))
	for i, r := range refs {
		out[i] = WindowID(r)
	}
	return out
}

// Window returns the window addressed by id. The returned value must not be
// retained across calls that may delete the window.
func (s *System) Window(id WindowID) (*Window, error) {
	return s.window(id)
}

// WindowByHandle resolves a host handle to its window.
func (s *System) WindowByHandle(h platform.Handle) (WindowID, bool) {
	id, ok := s.byHandle[h]
	return id, ok
}

// RequestClose marks the window for deletion on the next tick.
func (s *System) RequestClose(id WindowID) error {
	w, err := s.window(id)
	if err != nil {
		return err
	}
	w.closing = true
	return nil
}
