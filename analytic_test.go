package narrowphase

import (
	"math"
	"testing"

	"github.com/akmonengine/narrowphase/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"
)

func TestSphereToCapsuleCD(t *testing.T) {
	capsule := uprightCapsule(mgl64.Vec3{}, 0.1, 1)

	t.Run("sphere against the capsule side", func(t *testing.T) {
		cd := NewSphereToCapsuleCD()
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0.15, 0, 0}, 0.1), 0)
		cd.SetInput(capsule, 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		test.That(t, data.ElementsB.Len(), test.ShouldEqual, 1)

		a := pointDirectionAt(t, &data.ElementsA, 0)
		b := pointDirectionAt(t, &data.ElementsB, 0)
		vecNear(t, a.Dir, mgl64.Vec3{1, 0, 0}, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{-1, 0, 0}, 1e-12)
		vecNear(t, a.Pt, mgl64.Vec3{0.05, 0, 0}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0.1, 0, 0}, 1e-12)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.05, 1e-12)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.05, 1e-12)
	})

	t.Run("sphere on the centerline", func(t *testing.T) {
		cd := NewSphereToCapsuleCD()
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0, 0.2, 0}, 0.1), 0)
		cd.SetInput(capsule, 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		a := pointDirectionAt(t, &data.ElementsA, 0)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.2, 1e-12)
		test.That(t, a.Dir.Dot(capsule.Axis()), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, a.Dir.Len(), test.ShouldAlmostEqual, 1, 1e-12)
	})
}

func TestUnidirectionalPlaneToCapsuleCD(t *testing.T) {
	plane := geometry.NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})

	t.Run("capsule through the plane", func(t *testing.T) {
		cd := NewUnidirectionalPlaneToCapsuleCD()
		cd.SetInput(plane, 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{}, 0.1, 1), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		a := pointDirectionAt(t, &data.ElementsA, 0)
		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.6, 1e-12)
		vecNear(t, a.Pt, mgl64.Vec3{0, -0.6, 0}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0, 0, 0}, 1e-12)
		vecNear(t, a.Dir, mgl64.Vec3{0, -1, 0}, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, 1, 0}, 1e-12)
	})

	t.Run("capsule above the plane", func(t *testing.T) {
		cd := NewUnidirectionalPlaneToCapsuleCD()
		cd.SetInput(plane, 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0, 2, 0}, 0.1, 1), 1)
		cd.Update()
		test.That(t, cd.CollisionData().IsEmpty(), test.ShouldBeTrue)
	})

	t.Run("tilted capsule uses its lowest end", func(t *testing.T) {
		tilted := geometry.NewCapsule(mgl64.Vec3{0, 0.3, 0}, 0.1, 1, mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 0, 1}))
		cd := NewUnidirectionalPlaneToCapsuleCD()
		cd.SetInput(tilted, 0)
		cd.SetInput(plane, 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsB.Len(), test.ShouldEqual, 1)
		planeSide := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, planeSide.PenetrationDepth, test.ShouldAlmostEqual, 0.3, 1e-9)
	})
}

func TestPlaneToSphereCD(t *testing.T) {
	plane := geometry.NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, 2, 0})

	tests := []struct {
		name      string
		cd        func() CollisionDetector
		center    mgl64.Vec3
		hit       bool
		depth     float64
		sphereDir mgl64.Vec3
	}{
		{"unidirectional above", func() CollisionDetector { return NewUnidirectionalPlaneToSphereCD() }, mgl64.Vec3{0, 0.5, 0}, true, 0.5, mgl64.Vec3{0, 1, 0}},
		{"unidirectional deep below", func() CollisionDetector { return NewUnidirectionalPlaneToSphereCD() }, mgl64.Vec3{0, -2, 0}, true, 3, mgl64.Vec3{0, 1, 0}},
		{"unidirectional clear", func() CollisionDetector { return NewUnidirectionalPlaneToSphereCD() }, mgl64.Vec3{0, 1.5, 0}, false, 0, mgl64.Vec3{}},
		{"bidirectional above", func() CollisionDetector { return NewBidirectionalPlaneToSphereCD() }, mgl64.Vec3{0, 0.5, 0}, true, 0.5, mgl64.Vec3{0, 1, 0}},
		{"bidirectional below", func() CollisionDetector { return NewBidirectionalPlaneToSphereCD() }, mgl64.Vec3{0, -0.25, 0}, true, 0.75, mgl64.Vec3{0, -1, 0}},
		{"bidirectional clear below", func() CollisionDetector { return NewBidirectionalPlaneToSphereCD() }, mgl64.Vec3{0, -2, 0}, false, 0, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := tt.cd()
			cd.SetInput(plane, 0)
			cd.SetInput(unitSphere(tt.center), 1)
			cd.Update()

			data := cd.CollisionData()
			if !tt.hit {
				test.That(t, data.IsEmpty(), test.ShouldBeTrue)
				return
			}
			b := pointDirectionAt(t, &data.ElementsB, 0)
			test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, tt.depth, 1e-12)
			vecNear(t, b.Dir, tt.sphereDir, 1e-12)
		})
	}
}

func TestSphereToSphereCD(t *testing.T) {
	tests := []struct {
		name   string
		cA, cB mgl64.Vec3
		rA, rB float64
	}{
		{"along x", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1.5, 0, 0}, 1, 1},
		{"oblique", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1.3, 2.4, 3}, 0.7, 0.6},
		{"nested", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.1, 0, 0}, 1, 0.5},
		{"coincident centers", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}, 1, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := NewSphereToSphereCD()
			cd.SetInput(geometry.NewSphere(tt.cA, tt.rA), 0)
			cd.SetInput(geometry.NewSphere(tt.cB, tt.rB), 1)
			cd.Update()

			data := cd.CollisionData()
			test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
			a := pointDirectionAt(t, &data.ElementsA, 0)
			b := pointDirectionAt(t, &data.ElementsB, 0)

			want := tt.rA + tt.rB - tt.cA.Sub(tt.cB).Len()
			test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, want, 1e-12)
			test.That(t, b.PenetrationDepth, test.ShouldEqual, a.PenetrationDepth)
			vecNear(t, a.Dir, b.Dir.Mul(-1), 1e-12)
			test.That(t, a.Dir.Len(), test.ShouldAlmostEqual, 1, 1e-12)
			// each point lies on its own sphere
			test.That(t, a.Pt.Sub(tt.cA).Len(), test.ShouldAlmostEqual, tt.rA, 1e-12)
			test.That(t, b.Pt.Sub(tt.cB).Len(), test.ShouldAlmostEqual, tt.rB, 1e-12)
		})
	}
}

func TestCapsuleToCapsuleCD(t *testing.T) {
	t.Run("parallel capsules", func(t *testing.T) {
		cd := NewCapsuleToCapsuleCD()
		cd.SetInput(uprightCapsule(mgl64.Vec3{}, 0.5, 2), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0.8, 0.5, 0}, 0.5, 2), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		a := pointDirectionAt(t, &data.ElementsA, 0)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.2, 1e-12)
		vecNear(t, a.Dir, mgl64.Vec3{-1, 0, 0}, 1e-12)
	})

	t.Run("crossing centerlines", func(t *testing.T) {
		lying := geometry.NewCapsule(mgl64.Vec3{}, 0.2, 2, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0}))
		cd := NewCapsuleToCapsuleCD()
		cd.SetInput(uprightCapsule(mgl64.Vec3{}, 0.2, 2), 0)
		cd.SetInput(lying, 1)
		cd.Update()

		a := pointDirectionAt(t, &cd.CollisionData().ElementsA, 0)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.4, 1e-9)
		// escape along the cross product of the two axes
		test.That(t, math.Abs(a.Dir.X()), test.ShouldAlmostEqual, 1, 1e-9)
	})
}

func TestSphereToCylinderCD(t *testing.T) {
	cylinder := geometry.NewCylinder(mgl64.Vec3{}, 0.5, 2, mgl64.QuatIdent())

	tests := []struct {
		name     string
		center   mgl64.Vec3
		depth    float64
		cylDir   mgl64.Vec3
		hit      bool
		onSphere bool
	}{
		{"side", mgl64.Vec3{0.8, 0, 0}, 0.2, mgl64.Vec3{-1, 0, 0}, true, true},
		{"top cap", mgl64.Vec3{0, 1.25, 0}, 0.25, mgl64.Vec3{0, -1, 0}, true, true},
		{"clear", mgl64.Vec3{2, 0, 0}, 0, mgl64.Vec3{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := NewSphereToCylinderCD()
			cd.SetInput(geometry.NewSphere(tt.center, 0.5), 0)
			cd.SetInput(cylinder, 1)
			cd.Update()

			data := cd.CollisionData()
			if !tt.hit {
				test.That(t, data.IsEmpty(), test.ShouldBeTrue)
				return
			}
			b := pointDirectionAt(t, &data.ElementsB, 0)
			test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, tt.depth, 1e-12)
			vecNear(t, b.Dir, tt.cylDir, 1e-12)
		})
	}
}

func TestAnalyticSeparated(t *testing.T) {
	far := mgl64.Vec3{10, 0, 0}
	tests := []struct {
		name string
		cd   CollisionDetector
		a, b geometry.Geometry
	}{
		{"spheres", NewSphereToSphereCD(), unitSphere(mgl64.Vec3{}), unitSphere(far)},
		{"sphere capsule", NewSphereToCapsuleCD(), unitSphere(mgl64.Vec3{}), uprightCapsule(far, 1, 2)},
		{"capsules", NewCapsuleToCapsuleCD(), uprightCapsule(mgl64.Vec3{}, 1, 2), uprightCapsule(far, 1, 2)},
		{"sphere cylinder", NewSphereToCylinderCD(), unitSphere(mgl64.Vec3{}), geometry.NewCylinder(far, 1, 2, mgl64.QuatIdent())},
		{"touching spheres", NewSphereToSphereCD(), unitSphere(mgl64.Vec3{}), unitSphere(mgl64.Vec3{2, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cd.SetInput(tt.a, 0)
			tt.cd.SetInput(tt.b, 1)
			tt.cd.Update()
			test.That(t, tt.cd.CollisionData().IsEmpty(), test.ShouldBeTrue)
		})
	}
}

func TestAnalyticBindingSymmetry(t *testing.T) {
	tests := []struct {
		name  string
		build func() CollisionDetector
		a, b  geometry.Geometry
	}{
		{"sphere capsule", func() CollisionDetector { return NewSphereToCapsuleCD() },
			geometry.NewSphere(mgl64.Vec3{0.15, 0.1, 0}, 0.1), uprightCapsule(mgl64.Vec3{}, 0.1, 1)},
		{"sphere cylinder", func() CollisionDetector { return NewSphereToCylinderCD() },
			geometry.NewSphere(mgl64.Vec3{0.8, 0.3, 0}, 0.5), geometry.NewCylinder(mgl64.Vec3{}, 0.5, 2, mgl64.QuatIdent())},
		{"plane capsule", func() CollisionDetector { return NewUnidirectionalPlaneToCapsuleCD() },
			geometry.NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}), uprightCapsule(mgl64.Vec3{0, 0.2, 0}, 0.1, 1)},
		{"plane sphere", func() CollisionDetector { return NewBidirectionalPlaneToSphereCD() },
			geometry.NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}), unitSphere(mgl64.Vec3{0, 0.5, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := tt.build()
			forward.SetInput(tt.a, 0)
			forward.SetInput(tt.b, 1)
			forward.Update()

			backward := tt.build()
			backward.SetInput(tt.b, 0)
			backward.SetInput(tt.a, 1)
			backward.Update()

			f, b := forward.CollisionData(), backward.CollisionData()
			test.That(t, f.ElementsA.Len(), test.ShouldEqual, 1)
			test.That(t, b.ElementsA.Elements(), test.ShouldResemble, f.ElementsB.Elements())
			test.That(t, b.ElementsB.Elements(), test.ShouldResemble, f.ElementsA.Elements())
		})
	}
}
