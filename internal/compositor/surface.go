package compositor

import (
	"fmt"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/indev"
)

// OpaCover is fully opaque.
const OpaCover uint8 = 255

// Surface is a textured rectangle on a window. The texture itself belongs to
// the graphics backend.
type Surface struct {
	window    WindowID
	textureID uint32
	label     string
	area      geom.Area
	opa       uint8

	pointer  *indev.Device
	keyboard *indev.Device

	point    geom.Point
	state    indev.State
	key      uint32
	keyState indev.State
}

// Window returns the id of the owning window.
func (s *Surface) Window() WindowID { return s.window }

// TextureID returns the render target the surface draws.
func (s *Surface) TextureID() uint32 { return s.textureID }

// Label returns the optional display name.
func (s *Surface) Label() string { return s.label }

// Area returns the position and size in window coordinates.
func (s *Surface) Area() geom.Area { return s.area }

// Opacity returns the blend opacity.
func (s *Surface) Opacity() uint8 { return s.opa }

// HasPointer reports whether a pointer device is bound.
func (s *Surface) HasPointer() bool { return s.pointer != nil }

// LastPoint returns the last pointer position delivered, in surface
// coordinates.
func (s *Surface) LastPoint() geom.Point { return s.point }

// LastState returns the last pointer state delivered.
func (s *Surface) LastState() indev.State { return s.state }

// LastKey returns the last key and key state delivered.
func (s *Surface) LastKey() (uint32, indev.State) { return s.key, s.keyState }

// AddSurface appends a surface showing textureID to the window. When the
// window has pointer input enabled and the texture belongs to a display,
// pointer and keyboard devices are bound to that display. On any failure
// nothing is left registered.
func (s *System) AddSurface(win WindowID, textureID uint32, width, height int) (SurfaceID, error) {
	w, err := s.window(win)
	if err != nil {
		return SurfaceID{}, err
	}
	if width <= 0 || height <= 0 {
		return SurfaceID{}, fmt.Errorf("surface %dx%d: %w", width, height, ErrInvalidSize)
	}
	if s.opts.MaxSurfaces > 0 && s.surfaces.len() >= s.opts.MaxSurfaces {
		return SurfaceID{}, fmt.Errorf("add surface for texture %d: %w", textureID, ErrSurfaceLimit)
	}

	surf := &Surface{
		window:    win,
		textureID: textureID,
		area:      geom.NewArea(0, 0, width-1, height-1),
		opa:       OpaCover,
		state:     indev.StateReleased,
		keyState:  indev.StateReleased,
	}
	id := SurfaceID{Window: win, slot: s.surfaces.insert(surf)}
	w.surfaces = append(w.surfaces, id)

	if w.pointer {
		if disp := s.backend.DisplayForTexture(textureID); disp != nil {
			if err := s.bindDevices(id, surf, disp); err != nil {
				s.teardownDevices(surf)
				s.detachSurface(w, id)
				return SurfaceID{}, fmt.Errorf("add surface for texture %d: %w", textureID, err)
			}
		}
	}

	s.logger.Debug("surface added", "window", win, "surface", id, "texture_id", textureID,
		"width", width, "height", height, "pointer", surf.pointer != nil)
	return id, nil
}

func (s *System) bindDevices(id SurfaceID, surf *Surface, target indev.Target) error {
	ptr, err := s.inputs.Create()
	if err != nil {
		return fmt.Errorf("pointer device: %w", err)
	}
	ptr.SetType(indev.TypePointer)
	ptr.SetReadFunc(s.readPointer)
	ptr.SetDriverData(id)
	ptr.SetMode(indev.ModeEvent)
	ptr.SetTarget(target)
	surf.pointer = ptr

	kbd, err := s.inputs.Create()
	if err != nil {
		return fmt.Errorf("keyboard device: %w", err)
	}
	kbd.SetType(indev.TypeKeypad)
	kbd.SetReadFunc(s.readKeyboard)
	kbd.SetDriverData(id)
	kbd.SetMode(indev.ModeEvent)
	kbd.SetTarget(target)
	surf.keyboard = kbd
	return nil
}

// teardownDevices deletes every device bound to surf.
func (s *System) teardownDevices(surf *Surface) {
	if surf.pointer != nil {
		s.inputs.Delete(surf.pointer)
		surf.pointer = nil
	}
	if surf.keyboard != nil {
		s.inputs.Delete(surf.keyboard)
		surf.keyboard = nil
	}
}

func (s *System) detachSurface(w *Window, id SurfaceID) {
	for i, cur := range w.surfaces {
		if cur == id {
			w.surfaces = append(w.surfaces[:i], w.surfaces[i+1:]...)
			break
		}
	}
	s.surfaces.remove(id.slot)
}

func (s *System) surface(id SurfaceID) (*Surface, *Window, error) {
	surf, ok := s.surfaces.get(id.slot)
	if !ok || surf.window != id.Window {
		return nil, nil, fmt.Errorf("surface %s: %w", id, ErrStaleHandle)
	}
	w, err := s.window(id.Window)
	if err != nil {
		return nil, nil, err
	}
	return surf, w, nil
}

// RemoveSurface deletes the surface's input devices and removes it from its
// window.
func (s *System) RemoveSurface(id SurfaceID) error {
	surf, w, err := s.surface(id)
	if err != nil {
		return err
	}
	s.teardownDevices(surf)
	s.detachSurface(w, id)
	s.logger.Debug("surface removed", "surface", id, "texture_id", surf.textureID)
	return nil
}

// SetX moves the surface horizontally, keeping its vertical position and
// size.
func (s *System) SetX(id SurfaceID, x int) error {
	surf, _, err := s.surface(id)
	if err != nil {
		return err
	}
	surf.area.SetPos(x, surf.area.Y1)
	return nil
}

// SetY moves the surface vertically, keeping its horizontal position and
// size.
func (s *System) SetY(id SurfaceID, y int) error {
	surf, _, err := s.surface(id)
	if err != nil {
		return err
	}
	surf.area.SetPos(surf.area.X1, y)
	return nil
}

// SetOpacity sets the blend opacity.
func (s *System) SetOpacity(id SurfaceID, opa uint8) error {
	surf, _, err := s.surface(id)
	if err != nil {
		return err
	}
	surf.opa = opa
	return nil
}

// SetLabel names a surface for status output.
func (s *System) SetLabel(id SurfaceID, label string) error {
	surf, _, err := s.surface(id)
	if err != nil {
		return err
	}
	surf.label = label
	return nil
}

// PointerDevice returns the pointer device bound to the surface, or nil if
// it has none.
func (s *System) PointerDevice(id SurfaceID) (*indev.Device, error) {
	surf, _, err := s.surface(id)
	if err != nil {
		return nil, err
	}
	return surf.pointer, nil
}

// KeyboardDevice returns the keyboard device bound to the surface, or nil
// if it has none.
func (s *System) KeyboardDevice(id SurfaceID) (*indev.Device, error) {
	surf, _, err := s.surface(id)
	if err != nil {
		return nil, err
	}
	return surf.keyboard, nil
}

// Surface returns the surface addressed by id.
func (s *System) Surface(id SurfaceID) (*Surface, error) {
	surf, _, err := s.surface(id)
	return surf, err
}

// Surfaces returns the window's surfaces in insertion order.
func (s *System) Surfaces(win WindowID) ([]SurfaceID, error) {
	w, err := s.window(win)
	if err != nil {
		return nil, err
	}
	return append([]SurfaceID(nil), w.surfaces...), nil
}
