package geom

import "image"

// Point is a position in integer pixel coordinates.
type Point struct {
	X int
	Y int
}

// Area is a rectangle described by its inclusive corners. An area with
// X2 == X1 is one pixel wide.
type Area struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// NewArea returns the area spanning (x1,y1)..(x2,y2) inclusive.
func NewArea(x1, y1, x2, y2 int) Area {
	return Area{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Set overwrites all four corners.
func (a *Area) Set(x1, y1, x2, y2 int) {
	a.X1 = x1
	a.Y1 = y1
	a.X2 = x2
	a.Y2 = y2
}

// Width returns the number of pixel columns covered by the area.
func (a Area) Width() int {
	return a.X2 - a.X1 + 1
}

// Height returns the number of pixel rows covered by the area.
func (a Area) Height() int {
	return a.Y2 - a.Y1 + 1
}

// Empty reports whether the area has no extent.
func (a Area) Empty() bool {
	return a.X2 < a.X1 || a.Y2 < a.Y1
}

// SetPos moves the area so its top-left corner is (x,y), keeping its size.
func (a *Area) SetPos(x, y int) {
	w := a.Width()
	h := a.Height()
	a.X1 = x
	a.Y1 = y
	a.X2 = x + w - 1
	a.Y2 = y + h - 1
}

// Origin returns the top-left corner.
func (a Area) Origin() Point {
	return Point{X: a.X1, Y: a.Y1}
}

// Contains reports whether p lies on the area, boundaries included. A positive
// tolerance grows the area by that many pixels on every side.
func (a Area) Contains(p Point, tolerance int) bool {
	return p.X >= a.X1-tolerance && p.X <= a.X2+tolerance &&
		p.Y >= a.Y1-tolerance && p.Y <= a.Y2+tolerance
}

// Intersect returns the overlap of a and b and whether it is non-empty.
func (a Area) Intersect(b Area) (Area, bool) {
	out := Area{
		X1: max(a.X1, b.X1),
		Y1: max(a.Y1, b.Y1),
		X2: min(a.X2, b.X2),
		Y2: min(a.Y2, b.Y2),
	}
	if out.Empty() {
		return Area{}, false
	}
	return out, true
}

// Union returns the smallest area covering both a and b.
func (a Area) Union(b Area) Area {
	return Area{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
}

// Rectangle converts the area to a half-open image.Rectangle.
func (a Area) Rectangle() image.Rectangle {
	return image.Rect(a.X1, a.Y1, a.X2+1, a.Y2+1)
}

// FromRectangle converts a half-open image.Rectangle to an inclusive area.
func FromRectangle(r image.Rectangle) Area {
	return Area{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X - 1, Y2: r.Max.Y - 1}
}
