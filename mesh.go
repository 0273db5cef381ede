package narrowphase

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/intersect"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// separationEpsilon is the distance under which a contact normal cannot be derived
	// from the separation vector.
	separationEpsilon = 1e-10
	// coincidentEpsilon is the distance under which two points are the same point.
	coincidentEpsilon = 1e-12
)

// sphereTriangleElements reports a sphere touching triangle cell (index parent) at the
// feature given by tc. A zero separation falls back to faceNormal.
func sphereTriangleElements(cell [3]int, parent int, center mgl64.Vec3, r float64, tc intersect.TriangleContact, faceNormal mgl64.Vec3, hasNormal bool) (contact.Element, contact.Element, bool) {
	dist := math.Sqrt(tc.DistSqr)
	var n mgl64.Vec3
	if dist > separationEpsilon {
		n = center.Sub(tc.Point).Mul(1 / dist)
	} else if hasNormal {
		n = faceNormal
	} else {
		return contact.Element{}, contact.Element{}, false
	}
	depth := r - dist

	var elemA contact.Element
	switch {
	case tc.Region.IsVertex():
		elemA = contact.NewPointIndexDirection(contact.PointIndexDirectionElement{
			PtIndex:          cell[tc.Region.Vertex()],
			Dir:              n.Mul(-1),
			PenetrationDepth: depth,
		})
	case tc.Region.IsEdge():
		i, j := tc.Region.Edge()
		elemA = contact.CellIndexOf(contact.CellTypeEdge, parent, cell[i], cell[j])
	default:
		elemA = contact.CellIndexOf(contact.CellTypeTriangle, parent, cell[0], cell[1], cell[2])
	}
	elemB := contact.NewPointDirection(contact.PointDirectionElement{
		Pt:               center.Sub(n.Mul(r)),
		Dir:              n,
		PenetrationDepth: depth,
	})
	return elemA, elemB, true
}

// withinBoundingSphere is the cheap rejection run before every triangle test.
func withinBoundingSphere(a, b, c, center mgl64.Vec3, r float64) bool {
	triCenter, triRadius := intersect.TriangleBoundingSphere(a, b, c)
	rSum := triRadius + r
	return triCenter.Sub(center).LenSqr() <= rSum*rSum
}

// SurfaceMeshToSphereCD collides the triangles of a surface mesh (A) with a sphere (B).
// Side A reports the vertex, edge or face holding the closest point.
type SurfaceMeshToSphereCD struct {
	Algorithm
}

// NewSurfaceMeshToSphereCD creates the algorithm for a surface mesh and a sphere.
func NewSurfaceMeshToSphereCD() *SurfaceMeshToSphereCD {
	cd := &SurfaceMeshToSphereCD{}
	cd.init("SurfaceMeshToSphereCD", cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindSurfaceMesh))
	cd.RequireInput(1, geometry.KindOf(geometry.KindSphere))
	return cd
}

func (cd *SurfaceMeshToSphereCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	mesh, okA := geomA.(*geometry.SurfaceMesh)
	sphere, okB := geomB.(*geometry.Sphere)
	if !okA || !okB || !mesh.AABB().Overlaps(sphere.AABB()) {
		return
	}
	center, r := sphere.Position(), sphere.Radius

	cd.forEach(len(mesh.Triangles), func(i int) {
		a, b, c := mesh.TrianglePoints(i)
		if !withinBoundingSphere(a, b, c, center, r) {
			return
		}
		tc, hit := intersect.SphereToTriangle(center, r, a, b, c)
		if !hit {
			return
		}
		faceNormal, hasNormal := mesh.TriangleNormal(i)
		if elemA, elemB, ok := sphereTriangleElements(mesh.Triangles[i], i, center, r, tc, faceNormal, hasNormal); ok {
			contact.AppendPair(elementsA, elementsB, elemA, elemB)
		}
	})
}

// SurfaceMeshToCapsuleCD collides the triangles of a surface mesh (A) with a capsule (B).
//
// Each triangle is tested against a virtual sphere placed on the capsule centerline,
// at the point nearest the triangle. When the centerline itself crosses the triangle,
// the region estimate understates the penetration: the contact then uses the face
// normal and pushes the whole capsule body back through the face.
type SurfaceMeshToCapsuleCD struct {
	Algorithm
}

// NewSurfaceMeshToCapsuleCD creates the algorithm for a surface mesh and a capsule.
func NewSurfaceMeshToCapsuleCD() *SurfaceMeshToCapsuleCD {
	cd := &SurfaceMeshToCapsuleCD{}
	cd.init("SurfaceMeshToCapsuleCD", cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindSurfaceMesh))
	cd.RequireInput(1, geometry.KindOf(geometry.KindCapsule))
	return cd
}

func (cd *SurfaceMeshToCapsuleCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	mesh, okA := geomA.(*geometry.SurfaceMesh)
	capsule, okB := geomB.(*geometry.Capsule)
	if !okA || !okB || !mesh.AABB().Overlaps(capsule.AABB()) {
		return
	}
	tipA, tipB := capsule.Segment()
	r := capsule.Radius

	cd.forEach(len(mesh.Triangles), func(i int) {
		cell := mesh.Triangles[i]
		x1, x2, x3 := mesh.TrianglePoints(i)

		triPointA, _ := intersect.ClosestPointOnTriangle(tipA, x1, x2, x3)
		triPointB, _ := intersect.ClosestPointOnTriangle(tipB, x1, x2, x3)
		segPointA, _ := intersect.ClosestPointOnSegment(triPointA, tipA, tipB)
		segPointB, _ := intersect.ClosestPointOnSegment(triPointB, tipA, tipB)
		distA := segPointA.Sub(triPointA).LenSqr()
		distB := segPointB.Sub(triPointB).LenSqr()

		var spherePos mgl64.Vec3
		switch {
		case distA < distB:
			spherePos = segPointA
		case distA > distB:
			spherePos = segPointB
		default:
			// parallel to the triangle
			spherePos = segPointA.Add(segPointB).Mul(0.5)
		}

		if !withinBoundingSphere(x1, x2, x3, spherePos, r) {
			return
		}

		if uvw, inserted := intersect.SegmentTriangle(tipA, tipB, x1, x2, x3); inserted {
			n, ok := mesh.TriangleNormal(i)
			if !ok {
				return
			}
			crossing := x1.Mul(uvw[0]).Add(x2.Mul(uvw[1])).Add(x3.Mul(uvw[2]))
			nearestTip, tipProjection := tipA, triPointA
			if tipA.Sub(crossing).LenSqr() > tipB.Sub(crossing).LenSqr() {
				nearestTip, tipProjection = tipB, triPointB
			}
			// lift the nearest tip through the face, then clear the radius
			along := tipProjection.Sub(nearestTip).Dot(n)
			if along < 0 {
				n = n.Mul(-1)
			}
			depth := math.Abs(along) + r
			contact.AppendPair(elementsA, elementsB,
				contact.CellIndexOf(contact.CellTypeTriangle, i, cell[0], cell[1], cell[2]),
				contact.NewPointDirection(contact.PointDirectionElement{
					Pt:               nearestTip.Sub(n.Mul(r)),
					Dir:              n,
					PenetrationDepth: depth,
				}),
			)
			return
		}

		tc, hit := intersect.SphereToTriangle(spherePos, r, x1, x2, x3)
		if !hit {
			return
		}
		faceNormal, hasNormal := mesh.TriangleNormal(i)
		if elemA, elemB, ok := sphereTriangleElements(cell, i, spherePos, r, tc, faceNormal, hasNormal); ok {
			contact.AppendPair(elementsA, elementsB, elemA, elemB)
		}
	})
}

// SurfaceMeshToSurfaceMeshCD classifies every intersecting triangle pair of two surface
// meshes as edge/edge, vertex/triangle or triangle/vertex. Both sides only carry cell
// ids; the same edge pair found from neighbouring triangles is reported once.
type SurfaceMeshToSurfaceMeshCD struct {
	Algorithm
}

// NewSurfaceMeshToSurfaceMeshCD creates the algorithm for two surface meshes.
func NewSurfaceMeshToSurfaceMeshCD() *SurfaceMeshToSurfaceMeshCD {
	cd := &SurfaceMeshToSurfaceMeshCD{}
	cd.init("SurfaceMeshToSurfaceMeshCD", cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindSurfaceMesh))
	cd.RequireInput(1, geometry.KindOf(geometry.KindSurfaceMesh))
	return cd
}

type edgePair [4]int

// edgeOwner is the triangle pair an edge pair is reported from.
type edgeOwner struct {
	i, j int
}

func (o edgeOwner) before(other edgeOwner) bool {
	return o.i < other.i || (o.i == other.i && o.j < other.j)
}

func orderedEdge(i, j int) (int, int) {
	if i > j {
		return j, i
	}
	return i, j
}

// claimEdgePair records owner for key unless a lower triangle pair already holds it.
func claimEdgePair(owners *sync.Map, key edgePair, owner edgeOwner) {
	for {
		prev, loaded := owners.LoadOrStore(key, owner)
		if !loaded || !owner.before(prev.(edgeOwner)) {
			return
		}
		if owners.CompareAndSwap(key, prev, owner) {
			return
		}
	}
}

func (cd *SurfaceMeshToSurfaceMeshCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	meshA, okA := geomA.(*geometry.SurfaceMesh)
	meshB, okB := geomB.(*geometry.SurfaceMesh)
	if !okA || !okB || !meshA.AABB().Overlaps(meshB.AABB()) {
		return
	}

	boxesB := make([]geometry.AABB, len(meshB.Triangles))
	for j := range meshB.Triangles {
		a, b, c := meshB.TrianglePoints(j)
		boxesB[j] = geometry.AABBOfPoints(a, b, c)
	}

	// edge pairs reached from several triangle pairs keep the lowest (i, j), whatever the
	// worker order
	var owners sync.Map
	cd.forEach(len(meshA.Triangles), func(i int) {
		cellA := meshA.Triangles[i]
		a0, a1, a2 := meshA.TrianglePoints(i)
		triA := [3]mgl64.Vec3{a0, a1, a2}
		boxA := geometry.AABBOfPoints(a0, a1, a2)

		for j, cellB := range meshB.Triangles {
			if !boxA.Overlaps(boxesB[j]) {
				continue
			}
			b0, b1, b2 := meshB.TrianglePoints(j)
			hit := intersect.TriangleToTriangle(triA, [3]mgl64.Vec3{b0, b1, b2})

			switch hit.Type {
			case intersect.TriTriEdgeEdge:
				ea0, ea1 := orderedEdge(cellA[hit.EdgeA[0]], cellA[hit.EdgeA[1]])
				eb0, eb1 := orderedEdge(cellB[hit.EdgeB[0]], cellB[hit.EdgeB[1]])
				claimEdgePair(&owners, edgePair{ea0, ea1, eb0, eb1}, edgeOwner{i: i, j: j})
			case intersect.TriTriVertexTriangle:
				contact.AppendPair(elementsA, elementsB,
					contact.CellIndexOf(contact.CellTypeVertex, i, cellA[hit.Vertex]),
					contact.CellIndexOf(contact.CellTypeTriangle, j, cellB[0], cellB[1], cellB[2]),
				)
			case intersect.TriTriTriangleVertex:
				contact.AppendPair(elementsA, elementsB,
					contact.CellIndexOf(contact.CellTypeTriangle, i, cellA[0], cellA[1], cellA[2]),
					contact.CellIndexOf(contact.CellTypeVertex, j, cellB[hit.Vertex]),
				)
			}
		}
	})

	keys := make([]edgePair, 0)
	owners.Range(func(k, _ any) bool {
		keys = append(keys, k.(edgePair))
		return true
	})
	sort.Slice(keys, func(x, y int) bool {
		for c := range keys[x] {
			if keys[x][c] != keys[y][c] {
				return keys[x][c] < keys[y][c]
			}
		}
		return false
	})
	for _, key := range keys {
		v, _ := owners.Load(key)
		owner := v.(edgeOwner)
		contact.AppendPair(elementsA, elementsB,
			contact.CellIndexOf(contact.CellTypeEdge, owner.i, key[0], key[1]),
			contact.CellIndexOf(contact.CellTypeEdge, owner.j, key[2], key[3]),
		)
	}
}

// LineMeshToSphereCD collides the segments of a line mesh (A) with a sphere (B).
type LineMeshToSphereCD struct {
	Algorithm
}

// NewLineMeshToSphereCD creates the algorithm for a line mesh and a sphere.
func NewLineMeshToSphereCD() *LineMeshToSphereCD {
	cd := &LineMeshToSphereCD{}
	cd.init("LineMeshToSphereCD", cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindLineMesh))
	cd.RequireInput(1, geometry.KindOf(geometry.KindSphere))
	return cd
}

func (cd *LineMeshToSphereCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	mesh, okA := geomA.(*geometry.LineMesh)
	sphere, okB := geomB.(*geometry.Sphere)
	if !okA || !okB || !mesh.AABB().Overlaps(sphere.AABB()) {
		return
	}
	center, r := sphere.Position(), sphere.Radius

	cd.forEach(len(mesh.Segments), func(i int) {
		cell := mesh.Segments[i]
		x1, x2 := mesh.SegmentPoints(i)
		closest, region := intersect.ClosestPointOnSegment(center, x1, x2)
		distSq := center.Sub(closest).LenSqr()
		if distSq >= r*r {
			return
		}

		dist := math.Sqrt(distSq)
		n := geometry.AnyPerpendicular(x2.Sub(x1))
		if dist > separationEpsilon {
			n = center.Sub(closest).Mul(1 / dist)
		}
		depth := r - dist

		var elemA contact.Element
		switch region {
		case intersect.SegmentX1, intersect.SegmentX2:
			vertex := cell[0]
			if region == intersect.SegmentX2 {
				vertex = cell[1]
			}
			elemA = contact.NewPointIndexDirection(contact.PointIndexDirectionElement{PtIndex: vertex, Dir: n.Mul(-1), PenetrationDepth: depth})
		default:
			elemA = contact.CellIndexOf(contact.CellTypeEdge, i, cell[0], cell[1])
		}
		contact.AppendPair(elementsA, elementsB, elemA,
			contact.NewPointDirection(contact.PointDirectionElement{Pt: center.Sub(n.Mul(r)), Dir: n, PenetrationDepth: depth}),
		)
	})
}

// LineMeshToCapsuleCD collides the segments of a line mesh (A) with a capsule (B).
// A segment lying on the capsule centerline escapes along the cross product of the
// two directions.
type LineMeshToCapsuleCD struct {
	Algorithm
}

// NewLineMeshToCapsuleCD creates the algorithm for a line mesh and a capsule.
func NewLineMeshToCapsuleCD() *LineMeshToCapsuleCD {
	cd := &LineMeshToCapsuleCD{}
	cd.init("LineMeshToCapsuleCD", cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindLineMesh))
	cd.RequireInput(1, geometry.KindOf(geometry.KindCapsule))
	return cd
}

func (cd *LineMeshToCapsuleCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	mesh, okA := geomA.(*geometry.LineMesh)
	capsule, okB := geomB.(*geometry.Capsule)
	if !okA || !okB {
		return
	}
	capA, capB := capsule.Segment()
	capCenter, r := capsule.Position(), capsule.Radius
	capBoundingRadius := 0.5*capsule.Length + r

	cd.forEach(len(mesh.Segments), func(i int) {
		cell := mesh.Segments[i]
		x1, x2 := mesh.SegmentPoints(i)

		mid := x1.Add(x2).Mul(0.5)
		rSum := mid.Sub(x1).Len() + capBoundingRadius
		if mid.Sub(capCenter).LenSqr() >= rSum*rSum {
			return
		}

		capClosest, segClosest := intersect.EdgeToEdgeClosestPoints(capA, capB, x1, x2)
		sepSq := capClosest.Sub(segClosest).LenSqr()
		if sepSq >= r*r {
			return
		}
		sep := math.Sqrt(sepSq)
		depth := r - sep

		if sep <= coincidentEpsilon {
			escape := capB.Sub(capA).Cross(x2.Sub(x1))
			if escape.LenSqr() < separationEpsilon*separationEpsilon {
				escape = geometry.AnyPerpendicular(capB.Sub(capA))
			} else {
				escape = escape.Normalize()
			}
			contact.AppendPair(elementsA, elementsB,
				contact.CellIndexOf(contact.CellTypeEdge, i, cell[0], cell[1]),
				contact.NewPointDirection(contact.PointDirectionElement{Pt: capClosest.Sub(escape.Mul(r)), Dir: escape, PenetrationDepth: depth}),
			)
			return
		}

		n := capClosest.Sub(segClosest).Mul(1 / sep)
		elemB := contact.NewPointDirection(contact.PointDirectionElement{Pt: capClosest.Sub(n.Mul(r)), Dir: n, PenetrationDepth: depth})
		var elemA contact.Element
		switch {
		case x1.Sub(segClosest).Len() <= coincidentEpsilon:
			elemA = contact.NewPointIndexDirection(contact.PointIndexDirectionElement{PtIndex: cell[0], Dir: n.Mul(-1), PenetrationDepth: depth})
		case x2.Sub(segClosest).Len() <= coincidentEpsilon:
			elemA = contact.NewPointIndexDirection(contact.PointIndexDirectionElement{PtIndex: cell[1], Dir: n.Mul(-1), PenetrationDepth: depth})
		default:
			elemA = contact.CellIndexOf(contact.CellTypeEdge, i, cell[0], cell[1])
		}
		contact.AppendPair(elementsA, elementsB, elemA, elemB)
	})
}
