package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the root-relative point lies on the monitor.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// Center returns the origin that centers a width x height window on the
// monitor, clamped so the top-left corner stays visible.
func (m Monitor) Center(width, height int) (int, int) {
	x := m.X + (m.Width-width)/2
	y := m.Y + (m.Height-height)/2
	return max(x, m.X), max(y, m.Y)
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

// PlacementMonitor returns the monitor new windows should open on: the one
// under the pointer, falling back to the first monitor. Its geometry is
// trimmed to the EWMH work area when the window manager publishes one.
func (c *Connection) PlacementMonitor() (*Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors found")
	}

	mon := monitors[0]
	if pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		for _, m := range monitors {
			if m.Contains(int(pointer.RootX), int(pointer.RootY)) {
				mon = m
				break
			}
		}
	}

	if areas, err := ewmh.WorkareaGet(c.XUtil); err == nil && len(areas) > 0 {
		idx := 0
		if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(areas) {
			idx = int(cur)
		}
		wa := areas[idx]
		mon = clipToWorkArea(mon, int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height))
	}
	return &mon, nil
}

// clipToWorkArea intersects the monitor with the work area. A work area
// that misses the monitor leaves it unchanged.
func clipToWorkArea(m Monitor, x, y, w, h int) Monitor {
	x1 := max(m.X, x)
	y1 := max(m.Y, y)
	x2 := min(m.X+m.Width, x+w)
	y2 := min(m.Y+m.Height, y+h)
	if x2 <= x1 || y2 <= y1 {
		return m
	}
	m.X, m.Y = x1, y1
	m.Width, m.Height = x2-x1, y2-y1
	return m
}
