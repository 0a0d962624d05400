//go:build linux

package platform

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/1broseidon/winbridge/internal/x11"
)

// X11Host implements Host on top of an X11 connection.
type X11Host struct {
	conn    *x11.Connection
	windows map[Handle]*x11.Window
	logger  *slog.Logger
}

var _ Host = (*X11Host)(nil)

// NewX11Host creates a host from an existing X11 connection.
func NewX11Host(conn *x11.Connection, logger *slog.Logger) *X11Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &X11Host{
		conn:    conn,
		windows: make(map[Handle]*x11.Window),
		logger:  logger,
	}
}

// NewX11HostForSession opens a fresh X11 connection to the session's
// server and wraps it.
func NewX11HostForSession(session x11.Session, logger *slog.Logger) (*X11Host, error) {
	conn, err := session.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewX11Host(conn, logger), nil
}

// Disconnect closes every window and the underlying X11 connection.
func (h *X11Host) Disconnect() {
	if h != nil && h.conn != nil {
		h.conn.Close()
		clear(h.windows)
	}
}

// OpenWindow implements Host. The window is centered on the monitor under
// the pointer when monitors can be queried.
func (h *X11Host) OpenWindow(width, height int, title string) (Handle, error) {
	x, y := 0, 0
	if mon, err := h.conn.PlacementMonitor(); err == nil {
		x, y = mon.Center(width, height)
	} else {
		h.logger.Debug("monitor query failed, placing window at origin", "error", err)
	}

	win, err := h.conn.CreateWindow(x, y, width, height, title)
	if err != nil {
		return 0, err
	}
	handle := Handle(win.ID())
	h.windows[handle] = win
	h.logger.Debug("x11 window opened", "handle", handle, "x", x, "y", y, "width", width, "height", height)
	return handle, nil
}

// CloseWindow implements Host.
func (h *X11Host) CloseWindow(handle Handle) {
	win, ok := h.windows[handle]
	if !ok {
		return
	}
	delete(h.windows, handle)
	h.conn.DestroyWindow(win)
}

// PollEvents implements Host. It never blocks.
func (h *X11Host) PollEvents(sink EventSink) {
	h.conn.PollEvents(func(ev x11.Event) {
		deliverX11Event(sink, h.repaint, ev)
	})
}

func (h *X11Host) repaint(handle Handle) {
	if win, ok := h.windows[handle]; ok {
		h.conn.Repaint(win)
	}
}

// Present implements Host.
func (h *X11Host) Present(handle Handle, frame image.Image) error {
	win, ok := h.windows[handle]
	if !ok {
		return fmt.Errorf("present to %d: %w", handle, ErrUnknownWindow)
	}
	return h.conn.Present(win, frame)
}
