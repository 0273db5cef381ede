package epa

import (
	"math"
	"sync"

	"github.com/akmonengine/narrowphase/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Face is a triangle of the polytope with its outward normal and distance to the origin.
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// edge is a polytope edge seen from the visible faces; Count 1 means boundary.
type edge struct {
	A, B  mgl64.Vec3
	Count int
}

// PolytopeBuilder holds the expanding polytope. Buffers are reused across runs.
type PolytopeBuilder struct {
	faces          []Face
	vertices       []mgl64.Vec3
	edges          []edge
	visibleIndices []int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:          make([]Face, 0, polytopeInitialCapacity),
			vertices:       make([]mgl64.Vec3, 0, polytopeInitialCapacity),
			edges:          make([]edge, 0, polytopeInitialCapacity),
			visibleIndices: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.vertices = b.vertices[:0]
	b.edges = b.edges[:0]
	b.visibleIndices = b.visibleIndices[:0]
}

// BuildInitialFaces creates the four faces of the GJK tetrahedron.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return errors.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	b.vertices = append(b.vertices, p0, p1, p2, p3)

	candidates := [4]Face{
		createFaceOutward(p0, p1, p2, p3),
		createFaceOutward(p0, p2, p3, p1),
		createFaceOutward(p0, p3, p1, p2),
		createFaceOutward(p1, p3, p2, p0),
	}
	for _, face := range candidates {
		if face.Distance >= MinFaceDistance {
			b.faces = append(b.faces, face)
		}
	}
	if len(b.faces) < 3 {
		b.faces = append(b.faces[:0], candidates[:]...)
	}
	return nil
}

// createFaceOutward builds face p0 p1 p2 with its normal pointing away from opposite
// and from the origin.
func createFaceOutward(p0, p1, p2, opposite mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = MinFaceDistance
		return face
	}
	normal = normal.Mul(1 / length)

	if normal.Dot(opposite.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}
	distance := p0.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = math.Max(distance, MinFaceDistance)
	return face
}

// FindClosestFaceIndex returns the face nearest the origin, -1 when empty.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	closest := -1
	best := math.Inf(1)
	for i := range b.faces {
		if b.faces[i].Distance < best {
			closest, best = i, b.faces[i].Distance
		}
	}
	return closest
}

// centroid is an interior point of the convex polytope, used to orient new faces.
func (b *PolytopeBuilder) centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range b.vertices {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(b.vertices)))
}

func (b *PolytopeBuilder) findVisibleFaces(support mgl64.Vec3) {
	b.visibleIndices = b.visibleIndices[:0]
	for i := range b.faces {
		if support.Sub(b.faces[i].Points[0]).Dot(b.faces[i].Normal) > 0 {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
}

// findBoundaryEdges counts the edges of the visible faces; edges seen once form the
// horizon.
func (b *PolytopeBuilder) findBoundaryEdges() {
	b.edges = b.edges[:0]
	for _, idx := range b.visibleIndices {
		p := b.faces[idx].Points
		for _, e := range [3][2]mgl64.Vec3{{p[0], p[1]}, {p[1], p[2]}, {p[2], p[0]}} {
			if i := b.findEdgeIndex(e[0], e[1]); i >= 0 {
				b.edges[i].Count++
				continue
			}
			b.edges = append(b.edges, edge{A: e[0], B: e[1], Count: 1})
		}
	}
}

func (b *PolytopeBuilder) findEdgeIndex(p, q mgl64.Vec3) int {
	for i := range b.edges {
		e := &b.edges[i]
		if (e.A == p && e.B == q) || (e.A == q && e.B == p) {
			return i
		}
	}
	return -1
}

// removeVisibleFaces swaps visible faces out, highest index first so earlier indices stay valid.
func (b *PolytopeBuilder) removeVisibleFaces() {
	for i := len(b.visibleIndices) - 1; i >= 0; i-- {
		idx := b.visibleIndices[i]
		last := len(b.faces) - 1
		b.faces[idx] = b.faces[last]
		b.faces = b.faces[:last]
	}
}

// AddPointAndRebuildFaces expands the polytope with support: visible faces are removed
// and the horizon is stitched to the new point.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3, closestIndex int) {
	b.vertices = append(b.vertices, support)
	center := b.centroid()

	b.findVisibleFaces(support)
	if len(b.visibleIndices) == 0 || len(b.visibleIndices) >= len(b.faces) {
		b.visibleIndices = append(b.visibleIndices[:0], closestIndex)
	}

	b.findBoundaryEdges()
	b.removeVisibleFaces()

	for _, e := range b.edges {
		if e.Count == 1 {
			b.faces = append(b.faces, createFaceOutward(e.A, e.B, support, center))
		}
	}

	if len(b.faces) == 0 {
		b.faces = append(b.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 1, 0},
			Distance: MinFaceDistance,
		})
	}
}
