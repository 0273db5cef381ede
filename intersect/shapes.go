package intersect

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// separationEpsilon is the distance under which two centers are considered coincident.
const separationEpsilon = 1e-10

// Contact is a two-sided contact. DirA resolves A (moves it out of B) and DirB resolves
// B; both sides share one penetration depth.
type Contact struct {
	PointA mgl64.Vec3
	DirA   mgl64.Vec3
	PointB mgl64.Vec3
	DirB   mgl64.Vec3
	Depth  float64
}

// sphereToSphere tests two spheres; fallback is the A-to-B axis used when centers coincide.
// Points lie on each sphere's own surface.
func sphereToSphere(cA mgl64.Vec3, rA float64, cB mgl64.Vec3, rB float64, fallback mgl64.Vec3) (Contact, bool) {
	diff := cB.Sub(cA)
	rSum := rA + rB
	distSq := diff.LenSqr()
	if distSq >= rSum*rSum {
		return Contact{}, false
	}

	dist := math.Sqrt(distSq)
	n := fallback
	if dist > separationEpsilon {
		n = diff.Mul(1 / dist)
	}
	return Contact{
		PointA: cA.Add(n.Mul(rA)),
		DirA:   n.Mul(-1),
		PointB: cB.Sub(n.Mul(rB)),
		DirB:   n,
		Depth:  rSum - dist,
	}, true
}

// SphereToSphere tests sphere A against sphere B. Coincident centers separate along +Y.
func SphereToSphere(cA mgl64.Vec3, rA float64, cB mgl64.Vec3, rB float64) (Contact, bool) {
	return sphereToSphere(cA, rA, cB, rB, mgl64.Vec3{0, 1, 0})
}

// SphereToCapsule tests sphere A against the capsule B of segment [p0, p1].
func SphereToCapsule(c mgl64.Vec3, r float64, p0, p1 mgl64.Vec3, rCapsule float64) (Contact, bool) {
	closest, _ := ClosestPointOnSegment(c, p0, p1)
	return sphereToSphere(c, r, closest, rCapsule, perpendicular(p1.Sub(p0)))
}

// CapsuleToCapsule tests capsule A [a0, a1] against capsule B [b0, b1]. When the
// centerlines touch, the cross product of the two axes is the escape direction.
func CapsuleToCapsule(a0, a1 mgl64.Vec3, rA float64, b0, b1 mgl64.Vec3, rB float64) (Contact, bool) {
	pA, pB := EdgeToEdgeClosestPoints(a0, a1, b0, b1)
	axisA := a1.Sub(a0)
	escape := axisA.Cross(b1.Sub(b0))
	if escape.LenSqr() < degenerateLenSqr {
		escape = perpendicular(axisA)
	} else {
		escape = escape.Normalize()
	}
	return sphereToSphere(pA, rA, pB, rB, escape)
}

// PlaneToSphere tests the half-space below a plane against a sphere. The plane side
// reports the deepest sphere point, the sphere side its projection on the plane.
func PlaneToSphere(planePoint, normal, c mgl64.Vec3, r float64) (Contact, bool) {
	d := c.Sub(planePoint).Dot(normal)
	depth := r - d
	if depth <= 0 {
		return Contact{}, false
	}
	return Contact{
		PointA: c.Sub(normal.Mul(r)),
		DirA:   normal.Mul(-1),
		PointB: c.Sub(normal.Mul(d)),
		DirB:   normal,
		Depth:  depth,
	}, true
}

// BidirectionalPlaneToSphere tests a two-sided plane against a sphere: the sphere is
// pushed out on whichever side its center lies.
func BidirectionalPlaneToSphere(planePoint, normal, c mgl64.Vec3, r float64) (Contact, bool) {
	d := c.Sub(planePoint).Dot(normal)
	if math.Abs(d) >= r {
		return Contact{}, false
	}
	side := normal
	if d < 0 {
		side = normal.Mul(-1)
	}
	dist := math.Abs(d)
	return Contact{
		PointA: c.Sub(side.Mul(r)),
		DirA:   side.Mul(-1),
		PointB: c.Sub(side.Mul(dist)),
		DirB:   side,
		Depth:  r - dist,
	}, true
}

// PlaneToCapsule tests the two capsule endpoints against the half-space and keeps
// the deepest one; equal depths keep p0.
func PlaneToCapsule(planePoint, normal, p0, p1 mgl64.Vec3, r float64) (Contact, bool) {
	deepest := p0
	if p1.Sub(planePoint).Dot(normal) < p0.Sub(planePoint).Dot(normal) {
		deepest = p1
	}
	return PlaneToSphere(planePoint, normal, deepest, r)
}

// SphereToCylinder tests sphere A against the capped cylinder B.
func SphereToCylinder(c mgl64.Vec3, rSphere float64, center, axis mgl64.Vec3, rCylinder, length float64) (Contact, bool) {
	half := 0.5 * length
	rel := c.Sub(center)
	along := rel.Dot(axis)
	if math.Abs(along) >= half+rSphere {
		return Contact{}, false
	}
	radial := rel.Sub(axis.Mul(along))
	radialDist := radial.Len()
	if radialDist >= rCylinder+rSphere {
		return Contact{}, false
	}

	capNormal := axis
	if along < 0 {
		capNormal = axis.Mul(-1)
	}
	absAlong := math.Abs(along)

	switch {
	case absAlong <= half && radialDist < rCylinder:
		// center inside the cylinder: leave through the closer of side and cap
		sideDepth := rCylinder - radialDist + rSphere
		capDepth := half - absAlong + rSphere
		if capDepth < sideDepth {
			return capContact(c, rSphere, center, capNormal, half, radial, capDepth), true
		}
		n := radialDirection(radial, axis)
		return sideContact(c, rSphere, center, axis, along, n, rCylinder, sideDepth), true

	case absAlong <= half:
		// beside the side wall
		n := radial.Mul(1 / radialDist)
		return sideContact(c, rSphere, center, axis, along, n, rCylinder, rCylinder+rSphere-radialDist), true

	case radialDist <= rCylinder:
		// above or below a cap
		return capContact(c, rSphere, center, capNormal, half, radial, half+rSphere-absAlong), true
	}

	// closest to the rim circle
	rim := center.Add(capNormal.Mul(half)).Add(radial.Mul(rCylinder / radialDist))
	diag := c.Sub(rim)
	diagDistSq := diag.LenSqr()
	if diagDistSq >= rSphere*rSphere {
		return Contact{}, false
	}
	diagDist := math.Sqrt(diagDistSq)
	n := diag.Mul(1 / diagDist)
	return Contact{
		PointA: c.Sub(n.Mul(rSphere)),
		DirA:   n,
		PointB: rim,
		DirB:   n.Mul(-1),
		Depth:  rSphere - diagDist,
	}, true
}

func capContact(c mgl64.Vec3, r float64, center, capNormal mgl64.Vec3, half float64, radial mgl64.Vec3, depth float64) Contact {
	return Contact{
		PointA: c.Sub(capNormal.Mul(r)),
		DirA:   capNormal,
		PointB: center.Add(capNormal.Mul(half)).Add(radial),
		DirB:   capNormal.Mul(-1),
		Depth:  depth,
	}
}

func sideContact(c mgl64.Vec3, r float64, center, axis mgl64.Vec3, along float64, n mgl64.Vec3, rCylinder, depth float64) Contact {
	return Contact{
		PointA: c.Sub(n.Mul(r)),
		DirA:   n,
		PointB: center.Add(axis.Mul(along)).Add(n.Mul(rCylinder)),
		DirB:   n.Mul(-1),
		Depth:  depth,
	}
}

// PointToSphere returns the direction and depth pushing p out of the sphere.
func PointToSphere(p, c mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	diff := p.Sub(c)
	distSq := diff.LenSqr()
	if distSq >= r*r {
		return mgl64.Vec3{}, 0, false
	}
	dist := math.Sqrt(distSq)
	if dist < separationEpsilon {
		return mgl64.Vec3{0, 1, 0}, r, true
	}
	return diff.Mul(1 / dist), r - dist, true
}

// PointToPlane returns the direction and depth pushing p above the plane.
func PointToPlane(p, planePoint, normal mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	d := p.Sub(planePoint).Dot(normal)
	if d >= 0 {
		return mgl64.Vec3{}, 0, false
	}
	return normal, -d, true
}

// PointToCapsule returns the direction and depth pushing p out of the capsule [p0, p1].
func PointToCapsule(p, p0, p1 mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	closest, _ := ClosestPointOnSegment(p, p0, p1)
	diff := p.Sub(closest)
	distSq := diff.LenSqr()
	if distSq >= r*r {
		return mgl64.Vec3{}, 0, false
	}
	dist := math.Sqrt(distSq)
	if dist < separationEpsilon {
		return perpendicular(p1.Sub(p0)), r, true
	}
	return diff.Mul(1 / dist), r - dist, true
}

// PointToCylinder returns the direction and depth pushing p out of the capped cylinder
// through the nearest of the side wall and the caps.
func PointToCylinder(p, center, axis mgl64.Vec3, r, length float64) (mgl64.Vec3, float64, bool) {
	half := 0.5 * length
	rel := p.Sub(center)
	along := rel.Dot(axis)
	if math.Abs(along) >= half {
		return mgl64.Vec3{}, 0, false
	}
	radial := rel.Sub(axis.Mul(along))
	radialDistSq := radial.LenSqr()
	if radialDistSq >= r*r {
		return mgl64.Vec3{}, 0, false
	}

	radialDist := math.Sqrt(radialDistSq)
	capDepth := half - math.Abs(along)
	sideDepth := r - radialDist
	if capDepth < sideDepth {
		if along < 0 {
			return axis.Mul(-1), capDepth, true
		}
		return axis, capDepth, true
	}
	return radialDirection(radial, axis), sideDepth, true
}

// PointToOrientedBox returns the direction and depth pushing an inner point out of the
// box through its nearest face.
func PointToOrientedBox(p, center mgl64.Vec3, axes [3]mgl64.Vec3, halfExtents mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	rel := p.Sub(center)
	best := math.Inf(1)
	var dir mgl64.Vec3
	for i := 0; i < 3; i++ {
		local := rel.Dot(axes[i])
		slack := halfExtents[i] - math.Abs(local)
		if slack < 0 {
			return mgl64.Vec3{}, 0, false
		}
		if slack < best {
			best = slack
			dir = axes[i]
			if local < 0 {
				dir = axes[i].Mul(-1)
			}
		}
	}
	if best <= 0 {
		// on the surface
		return mgl64.Vec3{}, 0, false
	}
	return dir, best, true
}

// ClosestPointOnOrientedBox clamps p to the box.
func ClosestPointOnOrientedBox(p, center mgl64.Vec3, axes [3]mgl64.Vec3, halfExtents mgl64.Vec3) mgl64.Vec3 {
	rel := p.Sub(center)
	out := center
	for i := 0; i < 3; i++ {
		local := mgl64.Clamp(rel.Dot(axes[i]), -halfExtents[i], halfExtents[i])
		out = out.Add(axes[i].Mul(local))
	}
	return out
}

// radialDirection normalizes radial, falling back to any direction orthogonal to axis.
func radialDirection(radial, axis mgl64.Vec3) mgl64.Vec3 {
	if radial.LenSqr() < separationEpsilon*separationEpsilon {
		return perpendicular(axis)
	}
	return radial.Normalize()
}

// perpendicular returns a unit vector orthogonal to v.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() < degenerateLenSqr {
		return mgl64.Vec3{1, 0, 0}
	}
	v = v.Normalize()
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(v.X()) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	return v.Cross(ref).Normalize()
}
