// Package intersect is a library of stateless closest-point and intersection
// routines shared by the narrow-phase algorithms.
package intersect

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// degenerateLenSqr is the squared length under which segments and normals are degenerate.
	degenerateLenSqr = 1e-20
	// parallelEpsilon bounds |dir·n| for a segment considered parallel to a plane.
	parallelEpsilon = 1e-10
)

// SegmentRegion tells which feature of a segment holds the closest point
type SegmentRegion int

const (
	SegmentX1 SegmentRegion = iota
	SegmentX2
	SegmentInterior
)

// TriangleRegion tells which feature of a triangle holds the closest point
type TriangleRegion int

const (
	RegionA TriangleRegion = iota
	RegionB
	RegionC
	RegionAB
	RegionBC
	RegionCA
	RegionFace
)

// IsVertex reports whether the region is one of the three corners.
func (r TriangleRegion) IsVertex() bool { return r <= RegionC }

// IsEdge reports whether the region is one of the three edges.
func (r TriangleRegion) IsEdge() bool { return r >= RegionAB && r <= RegionCA }

// Vertex returns the corner index (0, 1, 2) of a vertex region.
func (r TriangleRegion) Vertex() int { return int(r) }

// Edge returns the corner indices of an edge region.
func (r TriangleRegion) Edge() (int, int) {
	switch r {
	case RegionAB:
		return 0, 1
	case RegionBC:
		return 1, 2
	}
	return 2, 0
}

// ClosestPointOnSegment returns the point of [x1, x2] closest to p.
func ClosestPointOnSegment(p, x1, x2 mgl64.Vec3) (mgl64.Vec3, SegmentRegion) {
	dx := x2.Sub(x1)
	m2 := dx.LenSqr()
	if m2 < degenerateLenSqr {
		return x1, SegmentX1
	}

	t := p.Sub(x1).Dot(dx) / m2
	switch {
	case t <= 0:
		return x1, SegmentX1
	case t >= 1:
		return x2, SegmentX2
	}
	return x1.Add(dx.Mul(t)), SegmentInterior
}

// PointSegmentDistance returns the distance from p to [x1, x2].
func PointSegmentDistance(p, x1, x2 mgl64.Vec3) float64 {
	closest, _ := ClosestPointOnSegment(p, x1, x2)
	return p.Sub(closest).Len()
}

// ClosestPointOnTriangle returns the point of triangle abc closest to p and the
// Voronoi region it lies in (Ericson, Real-Time Collision Detection 5.1.5).
func ClosestPointOnTriangle(p, a, b, c mgl64.Vec3) (mgl64.Vec3, TriangleRegion) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, RegionA
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, RegionB
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), RegionAB
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, RegionC
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), RegionCA
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), RegionBC
	}

	denom := va + vb + vc
	if math.Abs(denom) < degenerateLenSqr {
		// zero-area triangle: fall back to the closest edge
		return closestOnDegenerateTriangle(p, a, b, c)
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), RegionFace
}

func closestOnDegenerateTriangle(p, a, b, c mgl64.Vec3) (mgl64.Vec3, TriangleRegion) {
	best, region := a, RegionA
	bestDist := math.Inf(1)
	edges := [3]struct {
		x1, x2 mgl64.Vec3
		r      TriangleRegion
	}{{a, b, RegionAB}, {b, c, RegionBC}, {c, a, RegionCA}}
	for _, e := range edges {
		q, _ := ClosestPointOnSegment(p, e.x1, e.x2)
		if d := p.Sub(q).LenSqr(); d < bestDist {
			best, region, bestDist = q, e.r, d
		}
	}
	return best, region
}

// PointTriangleDistance returns the distance from p to triangle abc.
func PointTriangleDistance(p, a, b, c mgl64.Vec3) float64 {
	closest, _ := ClosestPointOnTriangle(p, a, b, c)
	return p.Sub(closest).Len()
}

// EdgeToEdgeClosestPoints returns the closest points between segments [a0, a1] and
// [b0, b1] (Ericson 5.1.9). Degenerate segments are treated as points.
func EdgeToEdgeClosestPoints(a0, a1, b0, b1 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	r := a0.Sub(b0)
	a := d1.LenSqr()
	e := d2.LenSqr()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a < degenerateLenSqr && e < degenerateLenSqr:
		return a0, b0
	case a < degenerateLenSqr:
		t = mgl64.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e < degenerateLenSqr {
			s = mgl64.Clamp(-c/a, 0, 1)
			break
		}
		b := d1.Dot(d2)
		denom := a*e - b*b
		if denom > degenerateLenSqr {
			s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
		}
		t = (b*s + f) / e
		if t < 0 {
			t = 0
			s = mgl64.Clamp(-c/a, 0, 1)
		} else if t > 1 {
			t = 1
			s = mgl64.Clamp((b-c)/a, 0, 1)
		}
	}
	return a0.Add(d1.Mul(s)), b0.Add(d2.Mul(t))
}

// EdgeToEdgeInterior returns the closest points of the lines through [a0, a1] and
// [b0, b1] when both fall inside their segments. Parallel or degenerate segments fail.
func EdgeToEdgeInterior(a0, a1, b0, b1 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, bool) {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	r := a0.Sub(b0)
	a := d1.LenSqr()
	b := d1.Dot(d2)
	e := d2.LenSqr()
	denom := a*e - b*b
	if a < degenerateLenSqr || e < degenerateLenSqr || denom <= 1e-12*a*e {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}

	c := d1.Dot(r)
	f := d2.Dot(r)
	s := (b*f - c*e) / denom
	t := (a*f - b*c) / denom
	if s < 0 || s > 1 || t < 0 || t > 1 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return a0.Add(d1.Mul(s)), b0.Add(d2.Mul(t)), true
}

// TriangleBarycentric returns the barycentric weights of p projected on the plane of abc.
// A degenerate triangle yields (1, 0, 0).
func TriangleBarycentric(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < degenerateLenSqr {
		return mgl64.Vec3{1, 0, 0}
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return mgl64.Vec3{1 - v - w, v, w}
}
