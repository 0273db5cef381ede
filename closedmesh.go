package narrowphase

import (
	"math"

	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/intersect"
	"github.com/go-gl/mathgl/mgl64"
)

// ClosedSurfaceMeshToMeshCD finds the parts of a mesh (A, any point-set kind) that lie
// inside a closed surface mesh (B) whose triangles wind outward.
//
// Every vertex of A is signed against B using the angle-weighted pseudonormal of its
// nearest feature, so the sign stays consistent across edges and corners. A vertex inside
// B is paired with that feature (vertex, edge or triangle). The edges of a LineMesh or
// SurfaceMesh A whose two ends are outside B are then tested against the edges of B, and
// the nearest crossing edge of B lying inside B is reported.
type ClosedSurfaceMeshToMeshCD struct {
	Algorithm

	GenerateVertexTriangleContacts bool
	GenerateEdgeEdgeContacts       bool
	// Proximity, when positive, skips the edges of A with an end farther than it from B.
	Proximity float64
	// Padding grows both bounding boxes before the early reject.
	Padding float64

	inside          []bool
	signedDistances []float64
}

// NewClosedSurfaceMeshToMeshCD creates the algorithm with both contact kinds enabled.
func NewClosedSurfaceMeshToMeshCD() *ClosedSurfaceMeshToMeshCD {
	cd := &ClosedSurfaceMeshToMeshCD{
		GenerateVertexTriangleContacts: true,
		GenerateEdgeEdgeContacts:       true,
		Padding:                        1e-3,
	}
	cd.init("ClosedSurfaceMeshToMeshCD", cd)
	cd.RequireInput(0, geometry.AnyPointSet)
	cd.RequireInput(1, geometry.KindOf(geometry.KindSurfaceMesh))
	return cd
}

// closedSurface caches the per-update data of B needed to sign distances.
type closedSurface struct {
	mesh        *geometry.SurfaceMesh
	normals     []mgl64.Vec3
	valid       []bool
	vertexFaces [][]int
	// edges lists each undirected edge once, with the first triangle using it
	edges []meshEdge
}

type meshEdge struct {
	v0, v1 int
	parent int
}

func newClosedSurface(mesh *geometry.SurfaceMesh) *closedSurface {
	s := &closedSurface{
		mesh:        mesh,
		normals:     make([]mgl64.Vec3, len(mesh.Triangles)),
		valid:       make([]bool, len(mesh.Triangles)),
		vertexFaces: make([][]int, len(mesh.Points)),
	}
	for i, cell := range mesh.Triangles {
		s.normals[i], s.valid[i] = mesh.TriangleNormal(i)
		for _, v := range cell {
			s.vertexFaces[v] = append(s.vertexFaces[v], i)
		}
	}
	s.edges = uniqueEdges(len(mesh.Triangles), func(i int) [][2]int {
		c := mesh.Triangles[i]
		return [][2]int{{c[0], c[1]}, {c[1], c[2]}, {c[2], c[0]}}
	})
	return s
}

// uniqueEdges collects the undirected edges of count cells in cell order.
func uniqueEdges(count int, cellEdges func(i int) [][2]int) []meshEdge {
	seen := make(map[[2]int]bool)
	edges := make([]meshEdge, 0, count)
	for i := range count {
		for _, e := range cellEdges(i) {
			v0, v1 := orderedEdge(e[0], e[1])
			if seen[[2]int{v0, v1}] {
				continue
			}
			seen[[2]int{v0, v1}] = true
			edges = append(edges, meshEdge{v0: v0, v1: v1, parent: i})
		}
	}
	return edges
}

// vertexPseudoNormal weights the normals of the faces around v by their angle at v.
func (s *closedSurface) vertexPseudoNormal(v int) mgl64.Vec3 {
	var n mgl64.Vec3
	p := s.mesh.Points[v]
	for _, f := range s.vertexFaces[v] {
		if !s.valid[f] {
			continue
		}
		cell := s.mesh.Triangles[f]
		var others []mgl64.Vec3
		for _, w := range cell {
			if w != v {
				others = append(others, s.mesh.Points[w].Sub(p))
			}
		}
		if len(others) != 2 || others[0].LenSqr() < 1e-20 || others[1].LenSqr() < 1e-20 {
			continue
		}
		cos := mgl64.Clamp(others[0].Normalize().Dot(others[1].Normalize()), -1, 1)
		n = n.Add(s.normals[f].Mul(math.Acos(cos)))
	}
	return n
}

// edgePseudoNormal sums the normals of the faces sharing edge (v0, v1).
func (s *closedSurface) edgePseudoNormal(v0, v1 int) mgl64.Vec3 {
	var n mgl64.Vec3
	for _, f := range s.vertexFaces[v0] {
		if !s.valid[f] {
			continue
		}
		cell := s.mesh.Triangles[f]
		if cell[0] == v1 || cell[1] == v1 || cell[2] == v1 {
			n = n.Add(s.normals[f])
		}
	}
	return n
}

// signedDistance returns the distance from p to the surface, negative inside, with the
// nearest feature as a CellIndex element. It fails when the surface has no valid triangle.
func (s *closedSurface) signedDistance(p mgl64.Vec3) (float64, contact.Element, bool) {
	best, bestDistSq := -1, math.MaxFloat64
	var bestPoint mgl64.Vec3
	var bestRegion intersect.TriangleRegion
	for i := range s.mesh.Triangles {
		if !s.valid[i] {
			continue
		}
		a, b, c := s.mesh.TrianglePoints(i)
		closest, region := intersect.ClosestPointOnTriangle(p, a, b, c)
		if distSq := p.Sub(closest).LenSqr(); distSq < bestDistSq {
			best, bestDistSq, bestPoint, bestRegion = i, distSq, closest, region
		}
	}
	if best < 0 {
		return math.MaxFloat64, contact.Element{}, false
	}

	cell := s.mesh.Triangles[best]
	var normal mgl64.Vec3
	var feature contact.Element
	switch {
	case bestRegion.IsVertex():
		v := cell[bestRegion.Vertex()]
		normal = s.vertexPseudoNormal(v)
		feature = contact.CellIndexOf(contact.CellTypeVertex, best, v)
	case bestRegion.IsEdge():
		i, j := bestRegion.Edge()
		normal = s.edgePseudoNormal(cell[i], cell[j])
		feature = contact.CellIndexOf(contact.CellTypeEdge, best, cell[i], cell[j])
	default:
		normal = s.normals[best]
		feature = contact.CellIndexOf(contact.CellTypeTriangle, best, cell[0], cell[1], cell[2])
	}
	return p.Sub(bestPoint).Dot(normal), feature, true
}

// edgesOf lists the undirected edges of a line or surface mesh, nil for other kinds.
func edgesOf(g geometry.Geometry) []meshEdge {
	switch m := g.(type) {
	case *geometry.LineMesh:
		return uniqueEdges(len(m.Segments), func(i int) [][2]int {
			return [][2]int{m.Segments[i]}
		})
	case *geometry.SurfaceMesh:
		return uniqueEdges(len(m.Triangles), func(i int) [][2]int {
			c := m.Triangles[i]
			return [][2]int{{c[0], c[1]}, {c[1], c[2]}, {c[2], c[0]}}
		})
	}
	return nil
}

func (cd *ClosedSurfaceMeshToMeshCD) overlaps(points geometry.Vertexed, surface *geometry.SurfaceMesh) bool {
	// a lone point may touch an open surface lying flat
	if len(points.Vertices()) == 1 || len(surface.Points) == 1 {
		return true
	}
	return points.AABB().Expand(cd.Padding).Overlaps(surface.AABB().Expand(cd.Padding))
}

func (cd *ClosedSurfaceMeshToMeshCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	points, okA := geomA.(geometry.Vertexed)
	mesh, okB := geomB.(*geometry.SurfaceMesh)
	if !okA || !okB || len(mesh.Triangles) == 0 || !cd.GenerateVertexTriangleContacts {
		return
	}
	if !cd.overlaps(points, mesh) {
		return
	}
	surface := newClosedSurface(mesh)
	cd.vertexToTriangle(points.Vertices(), surface, elementsA, elementsB)
	if cd.GenerateEdgeEdgeContacts {
		cd.edgeToEdge(points.Vertices(), edgesOf(geomA), surface, elementsA, elementsB)
	}
}

func (cd *ClosedSurfaceMeshToMeshCD) vertexToTriangle(vertices []mgl64.Vec3, surface *closedSurface, elementsA, elementsB *contact.Buffer) {
	if cap(cd.inside) < len(vertices) {
		cd.inside = make([]bool, len(vertices))
		cd.signedDistances = make([]float64, len(vertices))
	}
	cd.inside = cd.inside[:len(vertices)]
	cd.signedDistances = cd.signedDistances[:len(vertices)]

	cd.forEach(len(vertices), func(i int) {
		dist, feature, ok := surface.signedDistance(vertices[i])
		cd.signedDistances[i] = dist
		cd.inside[i] = ok && dist <= 0
		if !cd.inside[i] {
			return
		}
		contact.AppendPair(elementsA, elementsB,
			contact.CellIndexOf(contact.CellTypeVertex, -1, i),
			feature,
		)
	})
}

// edgeToEdge pairs each edge of A left outside by the vertex pass with the nearest edge
// of B it crosses at a point inside B.
func (cd *ClosedSurfaceMeshToMeshCD) edgeToEdge(vertices []mgl64.Vec3, edgesA []meshEdge, surface *closedSurface, elementsA, elementsB *contact.Buffer) {
	cd.forEach(len(edgesA), func(i int) {
		edgeA := edgesA[i]
		if cd.inside[edgeA.v0] || cd.inside[edgeA.v1] {
			return
		}
		if cd.Proximity > 0 && (cd.signedDistances[edgeA.v0] >= cd.Proximity || cd.signedDistances[edgeA.v1] >= cd.Proximity) {
			return
		}
		a0, a1 := vertices[edgeA.v0], vertices[edgeA.v1]

		nearest, nearestDistSq := -1, math.MaxFloat64
		for k, edgeB := range surface.edges {
			ptA, ptB, ok := intersect.EdgeToEdgeInterior(a0, a1, surface.mesh.Points[edgeB.v0], surface.mesh.Points[edgeB.v1])
			if !ok {
				continue
			}
			distSq := ptB.Sub(ptA).LenSqr()
			if distSq >= nearestDistSq {
				continue
			}
			if dist, _, ok := surface.signedDistance(ptA); ok && dist <= 0 {
				nearest, nearestDistSq = k, distSq
			}
		}
		if nearest < 0 {
			return
		}

		edgeB := surface.edges[nearest]
		contact.AppendPair(elementsA, elementsB,
			contact.CellIndexOf(contact.CellTypeEdge, edgeA.parent, edgeA.v0, edgeA.v1),
			contact.CellIndexOf(contact.CellTypeEdge, edgeB.parent, edgeB.v0, edgeB.v1),
		)
	})
}
