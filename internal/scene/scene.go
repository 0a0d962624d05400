// Package scene places the configured surfaces on a window.
package scene

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/display"
	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/indev"
)

// Entry is one surface created by Build.
type Entry struct {
	Name      string
	Kind      string
	Surface   compositor.SurfaceID
	TextureID uint32
	// Panel is set for display surfaces.
	Panel *Panel
}

// Scene is the set of surfaces built from configuration.
type Scene struct {
	Entries []Entry

	sys      *compositor.System
	textures *display.Registry
}

// Lookup returns the entry named name.
func (s *Scene) Lookup(name string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Build creates every configured surface on win in order, so later surfaces
// stack above earlier ones. On failure the surfaces created so far are
// removed.
func Build(sys *compositor.System, textures *display.Registry, win compositor.WindowID, surfaces []config.SurfaceConfig, logger *slog.Logger) (*Scene, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sc := &Scene{sys: sys, textures: textures}
	for i, cfg := range surfaces {
		e, err := sc.add(win, cfg)
		if err != nil {
			sc.Teardown()
			return nil, fmt.Errorf("surfaces[%d] (%s): %w", i, nameOf(cfg, i), err)
		}
		if e.Name == "" {
			e.Name = nameOf(cfg, i)
		}
		sc.Entries = append(sc.Entries, e)
		logger.Debug("scene surface created", "name", e.Name, "kind", e.Kind, "surface", e.Surface, "texture_id", e.TextureID)
	}
	logger.Info("scene built", "window", win, "surfaces", len(sc.Entries))
	return sc, nil
}

func nameOf(cfg config.SurfaceConfig, i int) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return fmt.Sprintf("surface-%d", i)
}

func (s *Scene) add(win compositor.WindowID, cfg config.SurfaceConfig) (Entry, error) {
	e := Entry{Name: cfg.Name, Kind: cfg.Kind}
	width, height := cfg.Width, cfg.Height

	switch cfg.Kind {
	case config.SurfaceKindDisplay, "":
		e.Kind = config.SurfaceKindDisplay
		fill, err := config.ParseColor(cfg.Color)
		if err != nil {
			return e, err
		}
		disp, err := s.textures.CreateDisplay(width, height)
		if err != nil {
			return e, err
		}
		e.Panel = NewPanel(disp, fill)
		e.TextureID = disp.TextureID()
	case config.SurfaceKindImage:
		id, err := s.textures.LoadTexture(cfg.Path)
		if err != nil {
			return e, err
		}
		e.TextureID = id
		if width == 0 || height == 0 {
			img, _ := s.textures.Texture(id)
			width, height = defaultSize(img, width, height)
		}
	default:
		return e, fmt.Errorf("unknown surface kind %q", cfg.Kind)
	}

	sid, err := s.sys.AddSurface(win, e.TextureID, width, height)
	if err != nil {
		s.releaseTexture(e)
		return e, err
	}
	e.Surface = sid

	if err := s.apply(sid, cfg); err != nil {
		_ = s.sys.RemoveSurface(sid)
		s.releaseTexture(e)
		return e, err
	}
	return e, nil
}

func defaultSize(img image.Image, width, height int) (int, int) {
	if img == nil {
		return width, height
	}
	b := img.Bounds()
	if width == 0 {
		width = b.Dx()
	}
	if height == 0 {
		height = b.Dy()
	}
	return width, height
}

func (s *Scene) apply(sid compositor.SurfaceID, cfg config.SurfaceConfig) error {
	if err := s.sys.SetX(sid, cfg.X); err != nil {
		return err
	}
	if err := s.sys.SetY(sid, cfg.Y); err != nil {
		return err
	}
	if err := s.sys.SetOpacity(sid, uint8(cfg.Opacity)); err != nil {
		return err
	}
	return s.sys.SetLabel(sid, cfg.Name)
}

func (s *Scene) releaseTexture(e Entry) {
	if e.Panel != nil {
		s.textures.DeleteDisplay(e.Panel.Display())
		return
	}
	if e.TextureID != 0 {
		s.textures.RemoveTexture(e.TextureID)
	}
}

// Teardown removes every surface still alive and releases its texture.
// Surfaces already gone with their window are skipped.
func (s *Scene) Teardown() {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		e := s.Entries[i]
		_ = s.sys.RemoveSurface(e.Surface)
		s.releaseTexture(e)
	}
	s.Entries = nil
}

// Panel is a display surface filled with a solid color. While the pointer
// is pressed over it the panel is highlighted and a marker follows the
// pointer.
type Panel struct {
	disp    *display.Display
	fill    gg.RGBA
	pressed bool
	point   geom.Point
	events  int
}

const markerRadius = 6

// NewPanel installs the panel's draw and input callbacks on disp.
func NewPanel(disp *display.Display, fill gg.RGBA) *Panel {
	p := &Panel{disp: disp, fill: fill}
	disp.OnInput(p.handleInput)
	disp.SetDrawFunc(p.draw)
	return p
}

// Display returns the panel's backing display.
func (p *Panel) Display() *display.Display { return p.disp }

// Pressed reports whether the pointer is held over the panel.
func (p *Panel) Pressed() bool { return p.pressed }

// Point returns the last pointer position in panel coordinates.
func (p *Panel) Point() geom.Point { return p.point }

// Events returns how many pointer samples the panel has received.
func (p *Panel) Events() int { return p.events }

func (p *Panel) handleInput(ev indev.Event) {
	if ev.Device == nil || ev.Device.Type() != indev.TypePointer {
		return
	}
	p.events++
	pressed := ev.Data.State == indev.StatePressed
	if pressed == p.pressed && (!pressed || ev.Data.Point == p.point) {
		p.point = ev.Data.Point
		return
	}
	if p.pressed && pressed {
		p.disp.Invalidate(markerArea(p.point))
		p.disp.Invalidate(markerArea(ev.Data.Point))
	} else {
		p.disp.InvalidateAll()
	}
	p.pressed = pressed
	p.point = ev.Data.Point
}

func markerArea(pt geom.Point) geom.Area {
	return geom.NewArea(pt.X-markerRadius-1, pt.Y-markerRadius-1, pt.X+markerRadius+1, pt.Y+markerRadius+1)
}

func (p *Panel) draw(dc *gg.Context, dirty geom.Area) {
	fill := p.fill
	if p.pressed {
		fill = fill.Lerp(gg.White, 0.3)
	}
	dc.SetRGBA(fill.R, fill.G, fill.B, fill.A)
	dc.DrawRectangle(float64(dirty.X1), float64(dirty.Y1), float64(dirty.Width()), float64(dirty.Height()))
	_ = dc.Fill()

	if p.pressed {
		dc.SetRGBA(1, 1, 1, 0.9)
		dc.DrawCircle(float64(p.point.X)+0.5, float64(p.point.Y)+0.5, markerRadius)
		_ = dc.Fill()
	}
}
