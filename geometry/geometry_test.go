package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"
)

func vecAlmostEqual(t *testing.T, got, want mgl64.Vec3) {
	t.Helper()
	if got.Sub(want).Len() > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestKind(t *testing.T) {
	test.That(t, KindSurfaceMesh.String(), test.ShouldEqual, "SurfaceMesh")
	test.That(t, Kind(99).String(), test.ShouldEqual, "Unknown")

	sphere := NewSphere(mgl64.Vec3{}, 1)
	points := NewPointSet(mgl64.Vec3{})
	tests := []struct {
		name      string
		predicate Predicate
		geometry  Geometry
		expected  bool
	}{
		{"sphere is convex", AnyConvex, sphere, true},
		{"sphere is implicit", AnyImplicit, sphere, true},
		{"sphere is not a point set", AnyPointSet, sphere, false},
		{"point set", AnyPointSet, points, true},
		{"surface mesh is a point set", AnyPointSet, NewSurfaceMesh(nil, nil), true},
		{"plane is not convex", AnyConvex, NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}), false},
		{"nil never matches", AnyConvex, nil, false},
		{"explicit kinds", KindOf(KindCompound, KindSphere), sphere, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.That(t, tt.predicate(tt.geometry), test.ShouldEqual, tt.expected)
		})
	}
}

func TestTransform(t *testing.T) {
	var zero Transform
	test.That(t, zero.Orientation(), test.ShouldResemble, mgl64.QuatIdent())
	vecAlmostEqual(t, zero.Axis(), mgl64.Vec3{0, 1, 0})

	tr := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}),
	}
	world := tr.ToWorld(mgl64.Vec3{1, 0, 0})
	vecAlmostEqual(t, world, mgl64.Vec3{1, 3, 3})
	vecAlmostEqual(t, tr.ToLocal(world), mgl64.Vec3{1, 0, 0})
	vecAlmostEqual(t, tr.Axis(), mgl64.Vec3{-1, 0, 0})
}

func TestAABB(t *testing.T) {
	box := AABBOfPoints(mgl64.Vec3{1, -1, 0}, mgl64.Vec3{-2, 3, 0.5})
	vecAlmostEqual(t, box.Min, mgl64.Vec3{-2, -1, 0})
	vecAlmostEqual(t, box.Max, mgl64.Vec3{1, 3, 0.5})
	vecAlmostEqual(t, box.Center(), mgl64.Vec3{-0.5, 1, 0.25})
	vecAlmostEqual(t, box.Size(), mgl64.Vec3{3, 4, 0.5})

	padded := box.Expand(1)
	vecAlmostEqual(t, padded.Min, mgl64.Vec3{-3, -2, -1})

	tests := []struct {
		name     string
		other    AABB
		expected bool
	}{
		{"overlapping", AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{5, 5, 5}}, true},
		{"touching", AABB{Min: mgl64.Vec3{1, 3, 0.5}, Max: mgl64.Vec3{2, 4, 1}}, true},
		{"separated on x", AABB{Min: mgl64.Vec3{1.1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, false},
		{"separated on z", AABB{Min: mgl64.Vec3{0, 0, 0.6}, Max: mgl64.Vec3{1, 1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.That(t, box.Overlaps(tt.other), test.ShouldEqual, tt.expected)
			test.That(t, tt.other.Overlaps(box), test.ShouldEqual, tt.expected)
		})
	}

	test.That(t, box.ContainsPoint(mgl64.Vec3{0, 0, 0}), test.ShouldBeTrue)
	test.That(t, box.ContainsPoint(mgl64.Vec3{0, 0, 1}), test.ShouldBeFalse)

	empty := EmptyAABB()
	test.That(t, empty.ContainsPoint(mgl64.Vec3{}), test.ShouldBeFalse)
	vecAlmostEqual(t, empty.Union(box).Min, box.Min)
}

func TestSphere(t *testing.T) {
	s := NewSphere(mgl64.Vec3{1, 0, 0}, 2)

	test.That(t, s.Kind(), test.ShouldEqual, KindSphere)
	vecAlmostEqual(t, s.Support(mgl64.Vec3{0, 3, 0}), mgl64.Vec3{1, 2, 0})
	vecAlmostEqual(t, s.AABB().Min, mgl64.Vec3{-1, -2, -2})
	test.That(t, s.SignedDistance(mgl64.Vec3{1, 0, 0}), test.ShouldAlmostEqual, -2.0, 1e-12)
	test.That(t, s.SignedDistance(mgl64.Vec3{4, 0, 0}), test.ShouldAlmostEqual, 1.0, 1e-12)
	test.That(t, len(s.ContactFeature(mgl64.Vec3{1, 0, 0})), test.ShouldEqual, 1)
}

func TestCapsule(t *testing.T) {
	c := NewCapsule(mgl64.Vec3{}, 0.5, 2, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))

	a, b := c.Segment()
	vecAlmostEqual(t, a, mgl64.Vec3{1, 0, 0})
	vecAlmostEqual(t, b, mgl64.Vec3{-1, 0, 0})

	box := c.AABB()
	vecAlmostEqual(t, box.Min, mgl64.Vec3{-1.5, -0.5, -0.5})
	vecAlmostEqual(t, box.Max, mgl64.Vec3{1.5, 0.5, 0.5})

	vecAlmostEqual(t, c.Support(mgl64.Vec3{-1, 0, 0}), mgl64.Vec3{-1.5, 0, 0})
	test.That(t, len(c.ContactFeature(mgl64.Vec3{0, 1, 0})), test.ShouldEqual, 2)
	test.That(t, len(c.ContactFeature(mgl64.Vec3{1, 0, 0})), test.ShouldEqual, 1)

	test.That(t, c.SignedDistance(mgl64.Vec3{0, 2, 0}), test.ShouldAlmostEqual, 1.5, 1e-12)
	test.That(t, c.SignedDistance(mgl64.Vec3{3, 0, 0}), test.ShouldAlmostEqual, 1.5, 1e-12)
	test.That(t, c.SignedDistance(mgl64.Vec3{0.3, 0, 0}), test.ShouldAlmostEqual, -0.5, 1e-12)
}

func TestCylinder(t *testing.T) {
	c := NewCylinder(mgl64.Vec3{0, 1, 0}, 0.5, 2, mgl64.QuatIdent())

	box := c.AABB()
	vecAlmostEqual(t, box.Min, mgl64.Vec3{-0.5, 0, -0.5})
	vecAlmostEqual(t, box.Max, mgl64.Vec3{0.5, 2, 0.5})

	vecAlmostEqual(t, c.Support(mgl64.Vec3{1, 1, 0}), mgl64.Vec3{0.5, 2, 0})
	vecAlmostEqual(t, c.Support(mgl64.Vec3{0, -1, 0}), mgl64.Vec3{0, 0, 0})

	test.That(t, len(c.ContactFeature(mgl64.Vec3{0, 1, 0})), test.ShouldEqual, 4)
	for _, p := range c.ContactFeature(mgl64.Vec3{0, 1, 0}) {
		test.That(t, p.Y(), test.ShouldAlmostEqual, 2.0, 1e-12)
	}
	test.That(t, len(c.ContactFeature(mgl64.Vec3{1, 0, 0})), test.ShouldEqual, 2)

	tests := []struct {
		name     string
		point    mgl64.Vec3
		expected float64
	}{
		{"center", mgl64.Vec3{0, 1, 0}, -0.5},
		{"above cap", mgl64.Vec3{0, 3, 0}, 1},
		{"beside", mgl64.Vec3{2, 1, 0}, 1.5},
		{"past the rim", mgl64.Vec3{1.5, 3, 0}, math.Sqrt2},
		{"near the cap inside", mgl64.Vec3{0, 1.9, 0}, -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.That(t, c.SignedDistance(tt.point), test.ShouldAlmostEqual, tt.expected, 1e-9)
		})
	}
}

func TestPlane(t *testing.T) {
	p := NewPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 2, 0})

	vecAlmostEqual(t, p.UnitNormal(), mgl64.Vec3{0, 1, 0})
	test.That(t, p.SignedDistance(mgl64.Vec3{5, 3, -2}), test.ShouldAlmostEqual, 2.0, 1e-12)
	test.That(t, p.SignedDistance(mgl64.Vec3{0, 0, 0}), test.ShouldAlmostEqual, -1.0, 1e-12)

	box := p.AABB()
	test.That(t, box.Min.Y(), test.ShouldEqual, 1.0)
	test.That(t, box.Max.Y(), test.ShouldEqual, 1.0)
	test.That(t, box.Max.X(), test.ShouldBeGreaterThan, 1e9)

	tilted := NewPlane(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	vecAlmostEqual(t, tilted.Orientation().Rotate(mgl64.Vec3{0, 1, 0}), mgl64.Vec3{1, 0, 0})

	degenerate := NewPlane(mgl64.Vec3{}, mgl64.Vec3{})
	vecAlmostEqual(t, degenerate.UnitNormal(), mgl64.Vec3{0, 1, 0})
}

func TestOrientedBox(t *testing.T) {
	half := mgl64.Vec3{1, 2, 3}
	b := NewOrientedBox(mgl64.Vec3{}, half, mgl64.QuatIdent())

	vecAlmostEqual(t, b.Support(mgl64.Vec3{1, -1, 1}), mgl64.Vec3{1, -2, 3})
	test.That(t, b.SignedDistance(mgl64.Vec3{}), test.ShouldAlmostEqual, -1.0, 1e-12)
	test.That(t, b.SignedDistance(mgl64.Vec3{2, 0, 0}), test.ShouldAlmostEqual, 1.0, 1e-12)
	test.That(t, b.SignedDistance(mgl64.Vec3{2, 3, 0}), test.ShouldAlmostEqual, math.Sqrt2, 1e-12)

	face := b.ContactFeature(mgl64.Vec3{0, 0, -1})
	test.That(t, len(face), test.ShouldEqual, 4)
	for _, p := range face {
		test.That(t, p.Z(), test.ShouldAlmostEqual, -3.0, 1e-12)
	}
	// counter-clockwise seen from outside: the winding normal points along the face normal
	n := face[1].Sub(face[0]).Cross(face[2].Sub(face[0]))
	test.That(t, n.Z(), test.ShouldBeLessThan, 0)

	rotated := NewOrientedBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
	box := rotated.AABB()
	test.That(t, box.Max.X(), test.ShouldAlmostEqual, math.Sqrt2, 1e-9)
	test.That(t, box.Max.Z(), test.ShouldAlmostEqual, 1.0, 1e-9)
	axes := rotated.Axes()
	test.That(t, axes[0].Dot(axes[1]), test.ShouldAlmostEqual, 0.0, 1e-12)
}

func TestTangentBasis(t *testing.T) {
	for _, n := range []mgl64.Vec3{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}, mgl64.Vec3{1, 1, 1}.Normalize()} {
		t1, t2 := TangentBasis(n)
		test.That(t, t1.Dot(n), test.ShouldAlmostEqual, 0.0, 1e-12)
		test.That(t, t2.Dot(n), test.ShouldAlmostEqual, 0.0, 1e-12)
		test.That(t, t1.Dot(t2), test.ShouldAlmostEqual, 0.0, 1e-12)
		test.That(t, t1.Len(), test.ShouldAlmostEqual, 1.0, 1e-12)
	}
	test.That(t, AnyPerpendicular(mgl64.Vec3{0, 0, 2}).Dot(mgl64.Vec3{0, 0, 1}), test.ShouldAlmostEqual, 0.0, 1e-12)
	vecAlmostEqual(t, AnyPerpendicular(mgl64.Vec3{}), mgl64.Vec3{1, 0, 0})
}
