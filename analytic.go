package narrowphase

import (
	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/intersect"
)

// pairTest is a closed-form test between two analytic shapes in canonical order.
type pairTest func(geomA, geomB geometry.Geometry) (intersect.Contact, bool)

// analyticAlgorithm runs one closed-form test and reports it on both sides. The same
// solve serves the one-sided entry points.
type analyticAlgorithm struct {
	Algorithm
	test pairTest
}

func (a *analyticAlgorithm) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	if c, ok := a.test(geomA, geomB); ok {
		appendContact(elementsA, elementsB, c)
	}
}

func (a *analyticAlgorithm) computeCollisionDataA(geomA, geomB geometry.Geometry, elementsA *contact.Buffer) {
	if c, ok := a.test(geomA, geomB); ok {
		appendContact(elementsA, nil, c)
	}
}

func (a *analyticAlgorithm) computeCollisionDataB(geomA, geomB geometry.Geometry, elementsB *contact.Buffer) {
	if c, ok := a.test(geomA, geomB); ok {
		appendContact(nil, elementsB, c)
	}
}

// appendContact reports c as one PointDirection per side. Nil buffers are skipped.
func appendContact(elementsA, elementsB *contact.Buffer, c intersect.Contact) {
	contact.AppendPair(elementsA, elementsB,
		contact.NewPointDirection(contact.PointDirectionElement{Pt: c.PointA, Dir: c.DirA, PenetrationDepth: c.Depth}),
		contact.NewPointDirection(contact.PointDirectionElement{Pt: c.PointB, Dir: c.DirB, PenetrationDepth: c.Depth}),
	)
}

func newAnalytic(a *analyticAlgorithm, impl computer, name string, kindA, kindB geometry.Kind, test pairTest) {
	a.test = test
	a.init(name, impl)
	a.RequireInput(0, geometry.KindOf(kindA))
	a.RequireInput(1, geometry.KindOf(kindB))
}

// SphereToSphereCD collides two spheres.
type SphereToSphereCD struct{ analyticAlgorithm }

// NewSphereToSphereCD creates the algorithm for two spheres.
func NewSphereToSphereCD() *SphereToSphereCD {
	cd := &SphereToSphereCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "SphereToSphereCD", geometry.KindSphere, geometry.KindSphere,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			a, okA := geomA.(*geometry.Sphere)
			b, okB := geomB.(*geometry.Sphere)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			return intersect.SphereToSphere(a.Position(), a.Radius, b.Position(), b.Radius)
		})
	return cd
}

// SphereToCapsuleCD collides a sphere (A) with a capsule (B).
type SphereToCapsuleCD struct{ analyticAlgorithm }

// NewSphereToCapsuleCD creates the algorithm for a sphere and a capsule.
func NewSphereToCapsuleCD() *SphereToCapsuleCD {
	cd := &SphereToCapsuleCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "SphereToCapsuleCD", geometry.KindSphere, geometry.KindCapsule,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			s, okA := geomA.(*geometry.Sphere)
			c, okB := geomB.(*geometry.Capsule)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			p0, p1 := c.Segment()
			return intersect.SphereToCapsule(s.Position(), s.Radius, p0, p1, c.Radius)
		})
	return cd
}

// CapsuleToCapsuleCD collides two capsules through the closest points of their
// centerlines.
type CapsuleToCapsuleCD struct{ analyticAlgorithm }

// NewCapsuleToCapsuleCD creates the algorithm for two capsules.
func NewCapsuleToCapsuleCD() *CapsuleToCapsuleCD {
	cd := &CapsuleToCapsuleCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "CapsuleToCapsuleCD", geometry.KindCapsule, geometry.KindCapsule,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			a, okA := geomA.(*geometry.Capsule)
			b, okB := geomB.(*geometry.Capsule)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			a0, a1 := a.Segment()
			b0, b1 := b.Segment()
			return intersect.CapsuleToCapsule(a0, a1, a.Radius, b0, b1, b.Radius)
		})
	return cd
}

// SphereToCylinderCD collides a sphere (A) with a capped cylinder (B).
type SphereToCylinderCD struct{ analyticAlgorithm }

// NewSphereToCylinderCD creates the algorithm for a sphere and a cylinder.
func NewSphereToCylinderCD() *SphereToCylinderCD {
	cd := &SphereToCylinderCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "SphereToCylinderCD", geometry.KindSphere, geometry.KindCylinder,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			s, okA := geomA.(*geometry.Sphere)
			c, okB := geomB.(*geometry.Cylinder)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			return intersect.SphereToCylinder(s.Position(), s.Radius, c.Position(), c.Axis(), c.Radius, c.Length)
		})
	return cd
}

// BidirectionalPlaneToSphereCD collides a two-sided plane (A) with a sphere (B): the
// sphere is pushed out on the side holding its center.
type BidirectionalPlaneToSphereCD struct{ analyticAlgorithm }

// NewBidirectionalPlaneToSphereCD creates the algorithm for a two-sided plane and a sphere.
func NewBidirectionalPlaneToSphereCD() *BidirectionalPlaneToSphereCD {
	cd := &BidirectionalPlaneToSphereCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "BidirectionalPlaneToSphereCD", geometry.KindPlane, geometry.KindSphere,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			p, okA := geomA.(*geometry.Plane)
			s, okB := geomB.(*geometry.Sphere)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			return intersect.BidirectionalPlaneToSphere(p.Position(), p.UnitNormal(), s.Position(), s.Radius)
		})
	return cd
}

// UnidirectionalPlaneToSphereCD collides the half-space below a plane (A) with a sphere (B).
type UnidirectionalPlaneToSphereCD struct{ analyticAlgorithm }

// NewUnidirectionalPlaneToSphereCD creates the algorithm for a half-space and a sphere.
func NewUnidirectionalPlaneToSphereCD() *UnidirectionalPlaneToSphereCD {
	cd := &UnidirectionalPlaneToSphereCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "UnidirectionalPlaneToSphereCD", geometry.KindPlane, geometry.KindSphere,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			p, okA := geomA.(*geometry.Plane)
			s, okB := geomB.(*geometry.Sphere)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			return intersect.PlaneToSphere(p.Position(), p.UnitNormal(), s.Position(), s.Radius)
		})
	return cd
}

// UnidirectionalPlaneToCapsuleCD collides the half-space below a plane (A) with a
// capsule (B). Only the two centerline endpoints are tested and the deepest one wins,
// an O(1) approximation of the true closest point.
type UnidirectionalPlaneToCapsuleCD struct{ analyticAlgorithm }

// NewUnidirectionalPlaneToCapsuleCD creates the algorithm for a half-space and a capsule.
func NewUnidirectionalPlaneToCapsuleCD() *UnidirectionalPlaneToCapsuleCD {
	cd := &UnidirectionalPlaneToCapsuleCD{}
	newAnalytic(&cd.analyticAlgorithm, cd, "UnidirectionalPlaneToCapsuleCD", geometry.KindPlane, geometry.KindCapsule,
		func(geomA, geomB geometry.Geometry) (intersect.Contact, bool) {
			p, okA := geomA.(*geometry.Plane)
			c, okB := geomB.(*geometry.Capsule)
			if !okA || !okB {
				return intersect.Contact{}, false
			}
			p0, p1 := c.Segment()
			return intersect.PlaneToCapsule(p.Position(), p.UnitNormal(), p0, p1, c.Radius)
		})
	return cd
}
