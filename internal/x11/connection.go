package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and the windows opened on it
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	mu      sync.Mutex
	windows map[xproto.Window]*Window
}

func newConnection(xu *xgbutil.XUtil) *Connection {
	// EWMH and RandR extensions are initialized automatically by xgbutil
	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		windows: make(map[xproto.Window]*Window),
	}
}

// Close destroys remaining windows and disconnects from the X11 server
func (c *Connection) Close() {
	c.mu.Lock()
	open := make([]*Window, 0, len(c.windows))
	for _, w := range c.windows {
		open = append(open, w)
	}
	c.mu.Unlock()

	for _, w := range open {
		c.DestroyWindow(w)
	}
	c.XUtil.Conn().Close()
}
