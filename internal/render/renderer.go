// Package render composites textures into a window-sized frame.
package render

import (
	"image"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/1broseidon/winbridge/internal/display"
	"github.com/1broseidon/winbridge/internal/geom"
)

// Renderer is the graphics backend used by the compositor. It owns one
// frame canvas that is resized to the current viewport.
type Renderer struct {
	textures   *display.Registry
	canvas     *gg.Context
	viewport   geom.Area
	clearColor gg.RGBA
	logger     *slog.Logger

	draws int
}

// Options configures a Renderer.
type Options struct {
	ClearColor gg.RGBA
	Logger     *slog.Logger
}

// New creates a renderer that resolves texture ids through textures.
func New(textures *display.Registry, opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		textures:   textures,
		canvas:     gg.NewContext(1, 1),
		viewport:   geom.NewArea(0, 0, 0, 0),
		clearColor: opts.ClearColor,
		logger:     logger,
	}
}

// Viewport sets the composited region in window coordinates. The frame
// canvas is resized to width x height and its top-left pixel maps to x, y.
func (r *Renderer) Viewport(x, y, width, height int) {
	if width <= 0 || height <= 0 {
		r.logger.Warn("ignoring empty viewport", "width", width, "height", height)
		return
	}
	if err := r.canvas.Resize(width, height); err != nil {
		r.logger.Warn("viewport resize failed", "error", err)
		return
	}
	r.viewport = geom.NewArea(x, y, x+width-1, y+height-1)
}

// Clear fills the frame with the clear color.
func (r *Renderer) Clear() {
	r.canvas.ClearWithColor(r.clearColor)
}

// DisplayForTexture returns the display publishing id, if any.
func (r *Renderer) DisplayForTexture(id uint32) *display.Display {
	return r.textures.DisplayForTexture(id)
}

// Refresh redraws the dirty regions of d.
func (r *Renderer) Refresh(d *display.Display) {
	d.RefreshNow()
}

// DrawTexture draws texture id stretched over area with the given opacity.
// The part of area outside the viewW x viewH window or outside the viewport
// is clipped away. Missing textures and fully transparent draws are skipped.
func (r *Renderer) DrawTexture(id uint32, area geom.Area, opa uint8, viewW, viewH int) {
	if opa == 0 || area.Empty() {
		return
	}
	img, ok := r.textures.Texture(id)
	if !ok || img == nil {
		r.logger.Debug("texture not found", "texture_id", id)
		return
	}
	view := geom.NewArea(0, 0, viewW-1, viewH-1)
	visible, ok := area.Intersect(view)
	if !ok {
		return
	}
	if visible, ok = visible.Intersect(r.viewport); !ok {
		return
	}

	src := sourceRect(img.Bounds(), area, visible)
	if src.Empty() {
		return
	}

	r.canvas.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             float64(visible.X1 - r.viewport.X1),
		Y:             float64(visible.Y1 - r.viewport.Y1),
		DstWidth:      float64(visible.Width()),
		DstHeight:     float64(visible.Height()),
		SrcRect:       &src,
		Interpolation: gg.InterpNearest,
		Opacity:       float64(opa) / 255,
	})
	r.draws++
}

// sourceRect maps the visible part of area back into texture coordinates.
func sourceRect(tex image.Rectangle, area, visible geom.Area) image.Rectangle {
	tw, th := tex.Dx(), tex.Dy()
	aw, ah := area.Width(), area.Height()
	x0 := (visible.X1 - area.X1) * tw / aw
	y0 := (visible.Y1 - area.Y1) * th / ah
	x1 := (visible.X2 - area.X1 + 1) * tw / aw
	y1 := (visible.Y2 - area.Y1 + 1) * th / ah
	return image.Rect(tex.Min.X+x0, tex.Min.Y+y0, tex.Min.X+x1, tex.Min.Y+y1)
}

// Frame returns a snapshot of the composited frame.
func (r *Renderer) Frame() image.Image {
	return r.canvas.Image()
}

// Draws returns the number of texture draws issued since creation.
func (r *Renderer) Draws() int {
	return r.draws
}

// Close releases the frame canvas.
func (r *Renderer) Close() error {
	return r.canvas.Close()
}
