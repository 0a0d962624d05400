package compositor

import (
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/indev"
	"github.com/1broseidon/winbridge/internal/platform"
)

// MouseButton records a button transition on the window and routes it.
// Only the left button is tracked; other buttons are ignored.
func (s *System) MouseButton(win WindowID, button platform.Button, action platform.Action, mods platform.Mod) error {
	w, err := s.window(win)
	if err != nil {
		return err
	}
	if button != platform.ButtonLeft {
		return nil
	}
	if action == platform.ActionPress {
		w.state = indev.StatePressed
	} else {
		w.state = indev.StateReleased
	}
	s.routePointer(w)
	return nil
}

// MouseMove records the cursor position (truncated to whole pixels) and
// routes it.
func (s *System) MouseMove(win WindowID, x, y float64) error {
	w, err := s.window(win)
	if err != nil {
		return err
	}
	w.mouse = geom.Point{X: int(x), Y: int(y)}
	s.routePointer(w)
	return nil
}

// routePointer delivers the window's pointer sample to the topmost surface
// under it. The sample is translated to surface coordinates and the
// surface's pointer device is read synchronously. Samples over no surface
// are dropped.
func (s *System) routePointer(w *Window) {
	for i := len(w.surfaces) - 1; i >= 0; i-- {
		surf, ok := s.surfaces.get(w.surfaces[i].slot)
		if !ok {
			continue
		}
		if !surf.area.Contains(w.mouse, 0) {
			continue
		}
		o := surf.area.Origin()
		surf.point = geom.Point{X: w.mouse.X - o.X, Y: w.mouse.Y - o.Y}
		surf.state = w.state
		if surf.pointer != nil {
			surf.pointer.Read()
		}
		return
	}
}

func (s *System) readPointer(d *indev.Device, data *indev.Data) {
	id, ok := d.DriverData().(SurfaceID)
	if !ok {
		return
	}
	surf, ok := s.surfaces.get(id.slot)
	if !ok {
		data.State = indev.StateReleased
		return
	}
	data.Point = surf.point
	data.State = surf.state
}

func (s *System) readKeyboard(d *indev.Device, data *indev.Data) {
	id, ok := d.DriverData().(SurfaceID)
	if !ok {
		return
	}
	surf, ok := s.surfaces.get(id.slot)
	if !ok {
		data.State = indev.StateReleased
		return
	}
	data.Key = surf.key
	data.State = surf.keyState
}

// Sink returns the platform.EventSink that feeds host events into s.
func (s *System) Sink() platform.EventSink {
	return hostSink{s: s}
}

// hostSink resolves host handles to windows. Events for unknown handles are
// dropped.
type hostSink struct {
	s *System
}

func (h hostSink) resolve(handle platform.Handle) (WindowID, bool) {
	id, ok := h.s.byHandle[handle]
	if !ok {
		h.s.logger.Debug("dropping event for unknown window", "handle", handle)
	}
	return id, ok
}

func (h hostSink) MouseButton(handle platform.Handle, button platform.Button, action platform.Action, mods platform.Mod) {
	if id, ok := h.resolve(handle); ok {
		_ = h.s.MouseButton(id, button, action, mods)
	}
}

func (h hostSink) MouseMove(handle platform.Handle, x, y float64) {
	if id, ok := h.resolve(handle); ok {
		_ = h.s.MouseMove(id, x, y)
	}
}

func (h hostSink) CloseRequested(handle platform.Handle) {
	if id, ok := h.resolve(handle); ok {
		_ = h.s.RequestClose(id)
	}
}
