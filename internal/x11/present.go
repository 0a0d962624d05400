package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgbutil/xgraphics"
	"golang.org/x/image/draw"
)

// Present copies img into the window's backing pixmap and repaints it. The
// client-side buffer is reused until the frame size changes.
func (c *Connection) Present(w *Window, img image.Image) error {
	if w == nil || img == nil {
		return nil
	}
	bounds := img.Bounds()
	if w.frame == nil || w.frame.Bounds().Size() != bounds.Size() {
		if w.frame != nil {
			w.frame.Destroy()
		}
		w.frame = xgraphics.New(c.XUtil, image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		if err := w.frame.XSurfaceSet(w.ID()); err != nil {
			w.frame.Destroy()
			w.frame = nil
			return fmt.Errorf("failed to attach frame to window %d: %w", w.ID(), err)
		}
	}

	draw.Draw(w.frame, w.frame.Bounds(), img, bounds.Min, draw.Src)
	w.frame.XDraw()
	w.frame.XPaint(w.ID())
	return nil
}

// Repaint copies the last presented frame from the window's pixmap back
// onto the window. Windows that were never presented to are left alone.
func (c *Connection) Repaint(w *Window) {
	if w == nil || w.frame == nil {
		return
	}
	w.frame.XPaint(w.ID())
}
