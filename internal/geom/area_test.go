package geom

import (
	"image"
	"testing"
)

func TestSetPos_PreservesSize(t *testing.T) {
	a := NewArea(0, 0, 99, 49)
	a.SetPos(50, 60)

	if a.X1 != 50 || a.Y1 != 60 {
		t.Fatalf("expected origin (50,60), got (%d,%d)", a.X1, a.Y1)
	}
	if a.Width() != 100 || a.Height() != 50 {
		t.Fatalf("expected size 100x50, got %dx%d", a.Width(), a.Height())
	}
	if a.X2 != 149 || a.Y2 != 109 {
		t.Fatalf("expected far corner (149,109), got (%d,%d)", a.X2, a.Y2)
	}
}

func TestContains_BoundaryInclusive(t *testing.T) {
	a := NewArea(10, 10, 19, 19)

	inside := []Point{{10, 10}, {19, 19}, {10, 19}, {15, 12}}
	for _, p := range inside {
		if !a.Contains(p, 0) {
			t.Fatalf("expected %v to be on %v", p, a)
		}
	}

	outside := []Point{{9, 10}, {20, 19}, {15, 20}, {-1, -1}}
	for _, p := range outside {
		if a.Contains(p, 0) {
			t.Fatalf("expected %v to be off %v", p, a)
		}
	}

	if !a.Contains(Point{X: 21, Y: 15}, 2) {
		t.Fatalf("expected tolerance of 2 to include (21,15)")
	}
}

func TestIntersectAndUnion(t *testing.T) {
	a := NewArea(0, 0, 9, 9)
	b := NewArea(5, 5, 14, 14)

	got, ok := a.Intersect(b)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if got != NewArea(5, 5, 9, 9) {
		t.Fatalf("unexpected intersection %v", got)
	}

	if _, ok := a.Intersect(NewArea(10, 10, 12, 12)); ok {
		t.Fatalf("expected disjoint areas not to intersect")
	}

	if u := a.Union(b); u != NewArea(0, 0, 14, 14) {
		t.Fatalf("unexpected union %v", u)
	}
}

func TestRectangleRoundTrip(t *testing.T) {
	a := NewArea(3, 4, 12, 8)
	r := a.Rectangle()
	if r != image.Rect(3, 4, 13, 9) {
		t.Fatalf("unexpected rectangle %v", r)
	}
	if FromRectangle(r) != a {
		t.Fatalf("expected round trip to return %v, got %v", a, FromRectangle(r))
	}
}
