package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere represents a spherical shape centered at its transform position
type Sphere struct {
	Transform Transform
	Radius    float64
}

// NewSphere creates a sphere at center.
func NewSphere(center mgl64.Vec3, radius float64) *Sphere {
	return &Sphere{Transform: Transform{Position: center, Rotation: mgl64.QuatIdent()}, Radius: radius}
}

func (s *Sphere) Kind() Kind { return KindSphere }
func (s *Sphere) Position() mgl64.Vec3 { return s.Transform.Position }
func (s *Sphere) Orientation() mgl64.Quat { return s.Transform.Orientation() }

func (s *Sphere) AABB() AABB {
	// Sphere AABB is not affected by rotation, only by position
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: s.Transform.Position.Sub(r), Max: s.Transform.Position.Add(r)}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return s.Transform.Position.Add(safeNormalize(direction).Mul(s.Radius))
}

func (s *Sphere) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

func (s *Sphere) SignedDistance(point mgl64.Vec3) float64 {
	return point.Sub(s.Transform.Position).Len() - s.Radius
}

// Capsule is a segment swept by a sphere. The segment runs along the local Y axis
// and Length is the distance between the two hemisphere centers.
type Capsule struct {
	Transform Transform
	Radius    float64
	Length    float64
}

// NewCapsule creates a capsule whose axis is the rotated +Y axis.
func NewCapsule(center mgl64.Vec3, radius, length float64, rotation mgl64.Quat) *Capsule {
	return &Capsule{Transform: Transform{Position: center, Rotation: rotation}, Radius: radius, Length: length}
}

func (c *Capsule) Kind() Kind { return KindCapsule }
func (c *Capsule) Position() mgl64.Vec3 { return c.Transform.Position }
func (c *Capsule) Orientation() mgl64.Quat { return c.Transform.Orientation() }

// Axis returns the unit centerline direction.
func (c *Capsule) Axis() mgl64.Vec3 {
	return c.Transform.Axis()
}

// Segment returns the two centerline endpoints, bottom first.
func (c *Capsule) Segment() (mgl64.Vec3, mgl64.Vec3) {
	half := c.Axis().Mul(0.5 * c.Length)
	return c.Transform.Position.Sub(half), c.Transform.Position.Add(half)
}

func (c *Capsule) AABB() AABB {
	a, b := c.Segment()
	return AABBOfPoints(a, b).Expand(c.Radius)
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	a, b := c.Segment()
	end := a
	if b.Dot(direction) > a.Dot(direction) {
		end = b
	}
	return end.Add(safeNormalize(direction).Mul(c.Radius))
}

// ContactFeature returns the side line when direction is perpendicular to the axis.
func (c *Capsule) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := safeNormalize(direction)
	if math.Abs(dir.Dot(c.Axis())) < 1e-3 {
		a, b := c.Segment()
		offset := dir.Mul(c.Radius)
		return []mgl64.Vec3{a.Add(offset), b.Add(offset)}
	}
	return []mgl64.Vec3{c.Support(dir)}
}

func (c *Capsule) SignedDistance(point mgl64.Vec3) float64 {
	a, b := c.Segment()
	ab := b.Sub(a)
	t := 0.0
	if m := ab.LenSqr(); m > 1e-20 {
		t = mgl64.Clamp(point.Sub(a).Dot(ab)/m, 0, 1)
	}
	return point.Sub(a.Add(ab.Mul(t))).Len() - c.Radius
}

// Cylinder is a capped cylinder along the local Y axis; Length is the full height.
type Cylinder struct {
	Transform Transform
	Radius    float64
	Length    float64
}

// NewCylinder creates a cylinder whose axis is the rotated +Y axis.
func NewCylinder(center mgl64.Vec3, radius, length float64, rotation mgl64.Quat) *Cylinder {
	return &Cylinder{Transform: Transform{Position: center, Rotation: rotation}, Radius: radius, Length: length}
}

func (c *Cylinder) Kind() Kind { return KindCylinder }
func (c *Cylinder) Position() mgl64.Vec3 { return c.Transform.Position }
func (c *Cylinder) Orientation() mgl64.Quat { return c.Transform.Orientation() }

// Axis returns the unit cylinder axis.
func (c *Cylinder) Axis() mgl64.Vec3 {
	return c.Transform.Axis()
}

func (c *Cylinder) AABB() AABB {
	axis := c.Axis()
	half := 0.5 * c.Length
	// extent of a disc of radius r with normal n along axis i is r*sqrt(1-n_i^2)
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		ext[i] = math.Abs(axis[i])*half + c.Radius*math.Sqrt(math.Max(0, 1-axis[i]*axis[i]))
	}
	return AABB{Min: c.Transform.Position.Sub(ext), Max: c.Transform.Position.Add(ext)}
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	axis := c.Axis()
	along := direction.Dot(axis)
	point := c.Transform.Position
	if along >= 0 {
		point = point.Add(axis.Mul(0.5 * c.Length))
	} else {
		point = point.Sub(axis.Mul(0.5 * c.Length))
	}
	radial := direction.Sub(axis.Mul(along))
	if radial.LenSqr() > 1e-20 {
		point = point.Add(radial.Normalize().Mul(c.Radius))
	}
	return point
}

// ContactFeature returns a cap polygon, a side line or a single support point.
func (c *Cylinder) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := safeNormalize(direction)
	axis := c.Axis()
	along := dir.Dot(axis)

	switch {
	case math.Abs(along) > 0.999:
		capNormal := axis
		if along < 0 {
			capNormal = axis.Mul(-1)
		}
		center := c.Transform.Position.Add(capNormal.Mul(0.5 * c.Length))
		t1, t2 := TangentBasis(capNormal)
		return []mgl64.Vec3{
			center.Add(t1.Mul(c.Radius)),
			center.Add(t2.Mul(c.Radius)),
			center.Sub(t1.Mul(c.Radius)),
			center.Sub(t2.Mul(c.Radius)),
		}
	case math.Abs(along) < 1e-3:
		half := axis.Mul(0.5 * c.Length)
		offset := dir.Sub(axis.Mul(along)).Normalize().Mul(c.Radius)
		return []mgl64.Vec3{
			c.Transform.Position.Sub(half).Add(offset),
			c.Transform.Position.Add(half).Add(offset),
		}
	}
	return []mgl64.Vec3{c.Support(dir)}
}

func (c *Cylinder) SignedDistance(point mgl64.Vec3) float64 {
	local := c.Transform.ToLocal(point)
	radial := math.Hypot(local.X(), local.Z()) - c.Radius
	axial := math.Abs(local.Y()) - 0.5*c.Length
	outside := math.Hypot(math.Max(radial, 0), math.Max(axial, 0))
	return outside + math.Min(math.Max(radial, axial), 0)
}

// Plane is an infinite plane through Transform.Position with the given Normal.
type Plane struct {
	Transform Transform
	Normal    mgl64.Vec3
}

// NewPlane creates a plane through point with normal.
func NewPlane(point, normal mgl64.Vec3) *Plane {
	return &Plane{Transform: Transform{Position: point, Rotation: mgl64.QuatIdent()}, Normal: normal}
}

func (p *Plane) Kind() Kind { return KindPlane }
func (p *Plane) Position() mgl64.Vec3 { return p.Transform.Position }

func (p *Plane) Orientation() mgl64.Quat {
	return mgl64.QuatBetweenVectors(mgl64.Vec3{0, 1, 0}, p.UnitNormal())
}

// UnitNormal returns the normalized plane normal, +Y when Normal is zero.
func (p *Plane) UnitNormal() mgl64.Vec3 {
	if p.Normal.LenSqr() < 1e-20 {
		return mgl64.Vec3{0, 1, 0}
	}
	return p.Normal.Normalize()
}

// AABB extends to a large value along the directions of the plane.
func (p *Plane) AABB() AABB {
	const infinity = 1e10

	n := p.UnitNormal()
	box := AABB{Min: p.Transform.Position, Max: p.Transform.Position}
	for i := 0; i < 3; i++ {
		if math.Abs(n[i]) < 1 {
			box.Min[i] = -infinity
			box.Max[i] = infinity
		}
	}
	return box
}

func (p *Plane) SignedDistance(point mgl64.Vec3) float64 {
	return point.Sub(p.Transform.Position).Dot(p.UnitNormal())
}

// OrientedBox is a box defined by its half-extents in the local frame
type OrientedBox struct {
	Transform   Transform
	HalfExtents mgl64.Vec3
}

// NewOrientedBox creates a box at center.
func NewOrientedBox(center, halfExtents mgl64.Vec3, rotation mgl64.Quat) *OrientedBox {
	return &OrientedBox{Transform: Transform{Position: center, Rotation: rotation}, HalfExtents: halfExtents}
}

func (b *OrientedBox) Kind() Kind { return KindOrientedBox }
func (b *OrientedBox) Position() mgl64.Vec3 { return b.Transform.Position }
func (b *OrientedBox) Orientation() mgl64.Quat { return b.Transform.Orientation() }

// Axes returns the three world-space box axes.
func (b *OrientedBox) Axes() [3]mgl64.Vec3 {
	q := b.Transform.Orientation()
	return [3]mgl64.Vec3{
		q.Rotate(mgl64.Vec3{1, 0, 0}),
		q.Rotate(mgl64.Vec3{0, 1, 0}),
		q.Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

func (b *OrientedBox) AABB() AABB {
	box := EmptyAABB()
	h := b.HalfExtents
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				box = box.Extend(b.Transform.ToWorld(mgl64.Vec3{sx * h.X(), sy * h.Y(), sz * h.Z()}))
			}
		}
	}
	return box
}

func (b *OrientedBox) Support(direction mgl64.Vec3) mgl64.Vec3 {
	local := b.Transform.Orientation().Conjugate().Rotate(direction)
	h := b.HalfExtents
	for i := 0; i < 3; i++ {
		if local[i] < 0 {
			h[i] = -h[i]
		}
	}
	return b.Transform.ToWorld(h)
}

// ContactFeature returns the world-space face whose normal is most aligned with direction.
func (b *OrientedBox) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	local := safeNormalize(b.Transform.Orientation().Conjugate().Rotate(direction))

	axis, sign := 0, 1.0
	best := -math.MaxFloat64
	for i := 0; i < 3; i++ {
		if local[i] > best {
			best, axis, sign = local[i], i, 1
		}
		if -local[i] > best {
			best, axis, sign = -local[i], i, -1
		}
	}

	// u, v span the face, ordered counter-clockwise seen from outside
	u, v := (axis+1)%3, (axis+2)%3
	if sign < 0 {
		u, v = v, u
	}
	h := b.HalfExtents
	corner := func(su, sv float64) mgl64.Vec3 {
		var p mgl64.Vec3
		p[axis] = sign * h[axis]
		p[u] = su * h[u]
		p[v] = sv * h[v]
		return b.Transform.ToWorld(p)
	}
	return []mgl64.Vec3{corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1)}
}

func (b *OrientedBox) SignedDistance(point mgl64.Vec3) float64 {
	local := b.Transform.ToLocal(point)
	var q mgl64.Vec3
	for i := 0; i < 3; i++ {
		q[i] = math.Abs(local[i]) - b.HalfExtents[i]
	}
	outside := mgl64.Vec3{math.Max(q[0], 0), math.Max(q[1], 0), math.Max(q[2], 0)}.Len()
	return outside + math.Min(math.Max(q[0], math.Max(q[1], q[2])), 0)
}

// TangentBasis builds two unit vectors orthogonal to normal.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// AnyPerpendicular returns a unit vector orthogonal to v.
func AnyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() < 1e-20 {
		return mgl64.Vec3{1, 0, 0}
	}
	t, _ := TangentBasis(v.Normalize())
	return t
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() < 1e-20 {
		return mgl64.Vec3{0, 1, 0}
	}
	return v.Normalize()
}
