package display

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/indev"
)

// DrawFunc redraws the part of a display covered by dirty. The context is
// already clipped to dirty when it is called.
type DrawFunc func(dc *gg.Context, dirty geom.Area)

// InputFunc observes input delivered to a display.
type InputFunc func(ev indev.Event)

// Display is a retained-mode render target whose pixels back a texture. It
// keeps a list of dirty regions and only redraws them on RefreshNow.
type Display struct {
	textureID uint32
	width     int
	height    int
	canvas    *gg.Context
	frame     image.Image
	draw      DrawFunc
	inputs    []InputFunc
	dirty     []geom.Area
	refreshes int
}

func newDisplay(textureID uint32, width, height int) *Display {
	d := &Display{
		textureID: textureID,
		width:     width,
		height:    height,
		canvas:    gg.NewContext(width, height),
	}
	d.frame = d.canvas.Image()
	d.InvalidateAll()
	return d
}

// TextureID returns the id under which the display's pixels are published.
func (d *Display) TextureID() uint32 { return d.textureID }

// Width returns the horizontal resolution.
func (d *Display) Width() int { return d.width }

// Height returns the vertical resolution.
func (d *Display) Height() int { return d.height }

// Bounds returns the full display area.
func (d *Display) Bounds() geom.Area {
	return geom.NewArea(0, 0, d.width-1, d.height-1)
}

// SetDrawFunc installs the redraw callback and marks the whole display dirty.
func (d *Display) SetDrawFunc(fn DrawFunc) {
	d.draw = fn
	d.InvalidateAll()
}

// OnInput registers fn to be called for every input sample delivered to the
// display.
func (d *Display) OnInput(fn InputFunc) {
	d.inputs = append(d.inputs, fn)
}

// HandleInput implements indev.Target.
func (d *Display) HandleInput(ev indev.Event) {
	for _, fn := range d.inputs {
		fn(ev)
	}
}

// Invalidate marks a region for redraw. Regions outside the display are
// ignored; overlapping regions are merged.
func (d *Display) Invalidate(a geom.Area) {
	clipped, ok := a.Intersect(d.Bounds())
	if !ok {
		return
	}
	for i, cur := range d.dirty {
		if _, overlap := cur.Intersect(clipped); overlap {
			d.dirty[i] = cur.Union(clipped)
			return
		}
	}
	d.dirty = append(d.dirty, clipped)
}

// InvalidateAll marks the whole display for redraw.
func (d *Display) InvalidateAll() {
	d.dirty = append(d.dirty[:0], d.Bounds())
}

// Dirty reports whether a refresh has pending work.
func (d *Display) Dirty() bool {
	return len(d.dirty) > 0
}

// RefreshNow synchronously redraws every pending dirty region and publishes
// the result. It does nothing when the display is clean.
func (d *Display) RefreshNow() {
	if len(d.dirty) == 0 {
		return
	}
	pending := d.dirty
	d.dirty = nil

	if d.draw != nil {
		for _, a := range pending {
			d.canvas.Push()
			d.canvas.ClipRect(float64(a.X1), float64(a.Y1), float64(a.Width()), float64(a.Height()))
			d.draw(d.canvas, a)
			d.canvas.Pop()
		}
	}
	d.frame = d.canvas.Image()
	d.refreshes++
}

// Refreshes returns how many times RefreshNow actually redrew.
func (d *Display) Refreshes() int {
	return d.refreshes
}

// Image returns the pixels published by the last refresh.
func (d *Display) Image() image.Image {
	return d.frame
}

func (d *Display) close() {
	if d.canvas != nil {
		_ = d.canvas.Close()
		d.canvas = nil
	}
}
