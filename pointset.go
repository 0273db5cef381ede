package narrowphase

import (
	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/intersect"
	"github.com/go-gl/mathgl/mgl64"
)

// pointPush returns the direction and depth pushing a point out of a shape.
type pointPush func(p mgl64.Vec3) (mgl64.Vec3, float64, bool)

// pointSetAlgorithm tests every vertex of a point set (A) against an analytic shape (B).
// prepare extracts the shape parameters once per update.
type pointSetAlgorithm struct {
	Algorithm
	prepare func(shape geometry.Geometry) (pointPush, bool)
}

func (a *pointSetAlgorithm) collide(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	points, ok := geomA.(geometry.Vertexed)
	if !ok {
		return
	}
	push, ok := a.prepare(geomB)
	if !ok {
		return
	}
	// a plane bounds only its surface, not the half-space below it
	if geomB.Kind() != geometry.KindPlane && !geomA.AABB().Overlaps(geomB.AABB()) {
		return
	}

	vertices := points.Vertices()
	a.forEach(len(vertices), func(i int) {
		p := vertices[i]
		dir, depth, hit := push(p)
		if !hit {
			return
		}
		contact.AppendPair(elementsA, elementsB,
			contact.NewPointIndexDirection(contact.PointIndexDirectionElement{PtIndex: i, Dir: dir, PenetrationDepth: depth}),
			contact.NewPointDirection(contact.PointDirectionElement{Pt: p.Add(dir.Mul(depth)), Dir: dir.Mul(-1), PenetrationDepth: depth}),
		)
	})
}

func (a *pointSetAlgorithm) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	a.collide(geomA, geomB, elementsA, elementsB)
}

func (a *pointSetAlgorithm) computeCollisionDataA(geomA, geomB geometry.Geometry, elementsA *contact.Buffer) {
	a.collide(geomA, geomB, elementsA, nil)
}

func (a *pointSetAlgorithm) computeCollisionDataB(geomA, geomB geometry.Geometry, elementsB *contact.Buffer) {
	a.collide(geomA, geomB, nil, elementsB)
}

func newPointSet(a *pointSetAlgorithm, impl computer, name string, kindB geometry.Kind, prepare func(geometry.Geometry) (pointPush, bool)) {
	a.prepare = prepare
	a.init(name, impl)
	a.RequireInput(0, geometry.AnyPointSet)
	a.RequireInput(1, geometry.KindOf(kindB))
}

// PointSetToPlaneCD pushes the vertices found below a plane back above it.
type PointSetToPlaneCD struct{ pointSetAlgorithm }

// NewPointSetToPlaneCD creates the algorithm for a point set and a half-space.
func NewPointSetToPlaneCD() *PointSetToPlaneCD {
	cd := &PointSetToPlaneCD{}
	newPointSet(&cd.pointSetAlgorithm, cd, "PointSetToPlaneCD", geometry.KindPlane,
		func(shape geometry.Geometry) (pointPush, bool) {
			plane, ok := shape.(*geometry.Plane)
			if !ok {
				return nil, false
			}
			origin, n := plane.Position(), plane.UnitNormal()
			return func(p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
				return intersect.PointToPlane(p, origin, n)
			}, true
		})
	return cd
}

// PointSetToSphereCD pushes vertices out of a sphere.
type PointSetToSphereCD struct{ pointSetAlgorithm }

// NewPointSetToSphereCD creates the algorithm for a point set and a sphere.
func NewPointSetToSphereCD() *PointSetToSphereCD {
	cd := &PointSetToSphereCD{}
	newPointSet(&cd.pointSetAlgorithm, cd, "PointSetToSphereCD", geometry.KindSphere,
		func(shape geometry.Geometry) (pointPush, bool) {
			sphere, ok := shape.(*geometry.Sphere)
			if !ok {
				return nil, false
			}
			center, r := sphere.Position(), sphere.Radius
			return func(p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
				return intersect.PointToSphere(p, center, r)
			}, true
		})
	return cd
}

// PointSetToCylinderCD pushes vertices out of a capped cylinder.
type PointSetToCylinderCD struct{ pointSetAlgorithm }

// NewPointSetToCylinderCD creates the algorithm for a point set and a cylinder.
func NewPointSetToCylinderCD() *PointSetToCylinderCD {
	cd := &PointSetToCylinderCD{}
	newPointSet(&cd.pointSetAlgorithm, cd, "PointSetToCylinderCD", geometry.KindCylinder,
		func(shape geometry.Geometry) (pointPush, bool) {
			cylinder, ok := shape.(*geometry.Cylinder)
			if !ok {
				return nil, false
			}
			center, axis := cylinder.Position(), cylinder.Axis()
			r, length := cylinder.Radius, cylinder.Length
			return func(p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
				return intersect.PointToCylinder(p, center, axis, r, length)
			}, true
		})
	return cd
}

// PointSetToOrientedBoxCD pushes vertices out of a box through its nearest face.
type PointSetToOrientedBoxCD struct{ pointSetAlgorithm }

// NewPointSetToOrientedBoxCD creates the algorithm for a point set and an oriented box.
func NewPointSetToOrientedBoxCD() *PointSetToOrientedBoxCD {
	cd := &PointSetToOrientedBoxCD{}
	newPointSet(&cd.pointSetAlgorithm, cd, "PointSetToOrientedBoxCD", geometry.KindOrientedBox,
		func(shape geometry.Geometry) (pointPush, bool) {
			box, ok := shape.(*geometry.OrientedBox)
			if !ok {
				return nil, false
			}
			center, axes, half := box.Position(), box.Axes(), box.HalfExtents
			return func(p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
				return intersect.PointToOrientedBox(p, center, axes, half)
			}, true
		})
	return cd
}

// PointSetToCapsuleCD pushes vertices out of a capsule.
type PointSetToCapsuleCD struct{ pointSetAlgorithm }

// NewPointSetToCapsuleCD creates the algorithm for a point set and a capsule.
func NewPointSetToCapsuleCD() *PointSetToCapsuleCD {
	cd := &PointSetToCapsuleCD{}
	newPointSet(&cd.pointSetAlgorithm, cd, "PointSetToCapsuleCD", geometry.KindCapsule,
		func(shape geometry.Geometry) (pointPush, bool) {
			capsule, ok := shape.(*geometry.Capsule)
			if !ok {
				return nil, false
			}
			p0, p1 := capsule.Segment()
			r := capsule.Radius
			return func(p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
				return intersect.PointToCapsule(p, p0, p1, r)
			}, true
		})
	return cd
}
