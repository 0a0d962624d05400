package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Window is a top-level X11 window that frames are presented into
type Window struct {
	win    *xwindow.Window
	Width  int
	Height int

	// frame is the client-side buffer backing the window's pixmap
	frame *xgraphics.Image
}

// ID returns the X11 window id
func (w *Window) ID() xproto.Window {
	return w.win.Id
}

// CreateWindow opens and maps a top-level window. The window asks the
// window manager for WM_DELETE_WINDOW so closing it arrives as an event
// instead of killing the connection.
func (c *Connection) CreateWindow(x, y, width, height int, title string) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", width, height)
	}

	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}
	if err := win.CreateChecked(c.Root, x, y, width, height, xproto.CwBackPixel, 0); err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if err := win.Listen(
		xproto.EventMaskButtonPress,
		xproto.EventMaskButtonRelease,
		xproto.EventMaskPointerMotion,
		xproto.EventMaskExposure,
		xproto.EventMaskStructureNotify,
	); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to select window events: %w", err)
	}

	if err := icccm.WmProtocolsSet(c.XUtil, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}

	// Title is cosmetic; failures are not fatal.
	_ = icccm.WmNameSet(c.XUtil, win.Id, title)
	_ = ewmh.WmNameSet(c.XUtil, win.Id, title)

	win.Map()

	w := &Window{win: win, Width: width, Height: height}
	c.mu.Lock()
	c.windows[win.Id] = w
	c.mu.Unlock()
	return w, nil
}

// DestroyWindow unmaps and destroys w and releases its frame buffer.
func (c *Connection) DestroyWindow(w *Window) {
	if w == nil {
		return
	}
	c.mu.Lock()
	delete(c.windows, w.win.Id)
	c.mu.Unlock()

	if w.frame != nil {
		w.frame.Destroy()
		w.frame = nil
	}
	w.win.Destroy()
}

// lookup returns the tracked window with the given id.
func (c *Connection) lookup(id xproto.Window) *Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.windows[id]
}
