package geom

import "testing"

func TestAabbContains(t *testing.T) {
	box := NewAabb(NewVector3(-10, -10, -10), NewVector3(10, 10, 10))

	if !box.Contains(NewVector3(0, 0, 0)) {
		t.Fatalf("expected center to be contained")
	}
	if !box.Contains(NewVector3(10, 10, 10)) {
		t.Fatalf("expected max corner to be contained (inclusive bounds)")
	}
	if box.Contains(NewVector3(10.5, 0, 0)) {
		t.Fatalf("expected point outside X extent to be rejected")
	}
}

func TestAabbIntersects(t *testing.T) {
	a := NewAabb(NewVector3(0, 0, 0), NewVector3(10, 10, 10))

	cases := []struct {
		name string
		b    Aabb
		want bool
	}{
		{"overlapping", NewAabb(NewVector3(5, 5, 5), NewVector3(15, 15, 15)), true},
		{"touching edge", NewAabb(NewVector3(10, 0, 0), NewVector3(20, 10, 10)), true},
		{"disjoint", NewAabb(NewVector3(11, 11, 11), NewVector3(20, 20, 20)), false},
		{"contained", NewAabb(NewVector3(2, 2, 2), NewVector3(8, 8, 8)), true},
	}
	for _, tc := range cases {
		if got := a.Intersects(tc.b); got != tc.want {
			t.Fatalf("%s: Intersects = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAabbTranslateExpand(t *testing.T) {
	box := NewAabb(NewVector3(-5, -5, -5), NewVector3(5, 5, 5))

	moved := box.Translate(NewVector3(100, 0, 0))
	if moved.Min.X != 95 || moved.Max.X != 105 {
		t.Fatalf("translate: got X extent [%v, %v], want [95, 105]", moved.Min.X, moved.Max.X)
	}

	grown := box.Expand(5)
	if grown.Min.X != -10 || grown.Max.Y != 10 {
		t.Fatalf("expand: got min X %v max Y %v, want -10 and 10", grown.Min.X, grown.Max.Y)
	}
	if grown.Width() != 20 {
		t.Fatalf("expand: width = %v, want 20", grown.Width())
	}
}

func TestDistanceSquared2DIgnoresZ(t *testing.T) {
	a := NewVector3(0, 0, 0)
	b := NewVector3(3, 4, 1000)
	if got := DistanceSquared2D(a, b); got != 25 {
		t.Fatalf("DistanceSquared2D = %v, want 25", got)
	}
	if got := Distance2D(a, b); got != 5 {
		t.Fatalf("Distance2D = %v, want 5", got)
	}
}
