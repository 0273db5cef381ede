package intersect

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// containmentEpsilon is the tolerance on barycentric weights for inclusion tests.
const containmentEpsilon = 1e-10

// SegmentTriangle tests segment [p, q] against triangle abc. It returns the
// barycentric weights of the crossing point on success.
func SegmentTriangle(p, q, a, b, c mgl64.Vec3) (mgl64.Vec3, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.LenSqr() < degenerateLenSqr {
		return mgl64.Vec3{}, false
	}

	dir := q.Sub(p)
	denom := dir.Dot(n)
	if math.Abs(denom) < parallelEpsilon {
		return mgl64.Vec3{}, false
	}

	t := a.Sub(p).Dot(n) / denom
	if t < 0 || t > 1 {
		return mgl64.Vec3{}, false
	}

	uvw := TriangleBarycentric(p.Add(dir.Mul(t)), a, b, c)
	if uvw[0] < 0 || uvw[1] < 0 || uvw[2] < 0 {
		return mgl64.Vec3{}, false
	}
	return uvw, true
}

// TriangleContact is the result of a sphere/triangle proximity test.
type TriangleContact struct {
	Point   mgl64.Vec3
	Region  TriangleRegion
	DistSqr float64
}

// SphereToTriangle reports whether the sphere touches triangle abc and which
// feature holds the closest point.
func SphereToTriangle(center mgl64.Vec3, r float64, a, b, c mgl64.Vec3) (TriangleContact, bool) {
	closest, region := ClosestPointOnTriangle(center, a, b, c)
	distSq := center.Sub(closest).LenSqr()
	return TriangleContact{Point: closest, Region: region, DistSqr: distSq}, distSq < r*r
}

// TriangleBoundingSphere returns the centroid of abc and the distance to its farthest corner.
func TriangleBoundingSphere(a, b, c mgl64.Vec3) (mgl64.Vec3, float64) {
	center := a.Add(b).Add(c).Mul(1.0 / 3.0)
	r := math.Max(center.Sub(a).LenSqr(), math.Max(center.Sub(b).LenSqr(), center.Sub(c).LenSqr()))
	return center, math.Sqrt(r)
}

// TriTriType classifies a triangle/triangle intersection
type TriTriType int

const (
	TriTriNone TriTriType = iota
	// TriTriEdgeEdge: one edge of each triangle crosses the other triangle
	TriTriEdgeEdge
	// TriTriVertexTriangle: a vertex of the first triangle pierces the second
	TriTriVertexTriangle
	// TriTriTriangleVertex: a vertex of the second triangle pierces the first
	TriTriTriangleVertex
)

// TriTriContact holds the features involved in a triangle/triangle intersection,
// as corner indices into each triangle.
type TriTriContact struct {
	Type   TriTriType
	EdgeA  [2]int
	EdgeB  [2]int
	Vertex int
}

var triangleEdges = [3][2]int{{0, 1}, {1, 2}, {2, 0}}

// TriangleToTriangle classifies how triangle a intersects triangle b by testing
// each edge of one triangle against the other.
func TriangleToTriangle(a, b [3]mgl64.Vec3) TriTriContact {
	hitsA, firstA, secondA := edgeHits(a, b)
	hitsB, firstB, secondB := edgeHits(b, a)

	switch {
	case hitsA == 1 && hitsB == 1:
		return TriTriContact{Type: TriTriEdgeEdge, EdgeA: triangleEdges[firstA], EdgeB: triangleEdges[firstB]}
	case hitsA >= 2:
		return TriTriContact{Type: TriTriVertexTriangle, Vertex: sharedCorner(firstA, secondA)}
	case hitsB >= 2:
		return TriTriContact{Type: TriTriTriangleVertex, Vertex: sharedCorner(firstB, secondB)}
	}
	return TriTriContact{Type: TriTriNone}
}

// edgeHits counts the edges of tri crossing other, returning the first two edge indices.
func edgeHits(tri, other [3]mgl64.Vec3) (int, int, int) {
	hits, first, second := 0, -1, -1
	for i, e := range triangleEdges {
		if _, ok := SegmentTriangle(tri[e[0]], tri[e[1]], other[0], other[1], other[2]); !ok {
			continue
		}
		switch hits {
		case 0:
			first = i
		case 1:
			second = i
		}
		hits++
	}
	return hits, first, second
}

// sharedCorner returns the corner common to two distinct edges.
func sharedCorner(e1, e2 int) int {
	a, b := triangleEdges[e1], triangleEdges[e2]
	if a[0] == b[0] || a[0] == b[1] {
		return a[0]
	}
	return a[1]
}

// TetrahedronBarycentric returns the barycentric weights of p in tetrahedron v
// from signed sub-volumes. It fails on degenerate tetrahedra.
func TetrahedronBarycentric(p mgl64.Vec3, v [4]mgl64.Vec3) (mgl64.Vec4, bool) {
	a, b, c, d := v[0], v[1], v[2], v[3]
	vol := signedVolume(a, b, c, d)
	if math.Abs(vol) < degenerateLenSqr {
		return mgl64.Vec4{}, false
	}
	inv := 1 / vol
	return mgl64.Vec4{
		signedVolume(p, b, c, d) * inv,
		signedVolume(a, p, c, d) * inv,
		signedVolume(a, b, p, d) * inv,
		signedVolume(a, b, c, p) * inv,
	}, true
}

// PointInTetrahedron accepts p when every weight is at least -1e-10 and the weights
// sum to 1 within 1e-10.
func PointInTetrahedron(p mgl64.Vec3, v [4]mgl64.Vec3) bool {
	w, ok := TetrahedronBarycentric(p, v)
	if !ok {
		return false
	}
	sum := 0.0
	for i := 0; i < 4; i++ {
		if w[i] < -containmentEpsilon {
			return false
		}
		sum += w[i]
	}
	return math.Abs(sum-1) < containmentEpsilon
}

func signedVolume(a, b, c, d mgl64.Vec3) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))
}
