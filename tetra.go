package narrowphase

import (
	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/intersect"
	"github.com/akmonengine/narrowphase/spatial"
)

// minHashBuckets is the smallest bucket table used by TetraToPointSetCD.
const minHashBuckets = 64

// TetraToPointSetCD finds the vertices of a point set (B) lying inside the tetrahedra of
// a volume mesh (A).
//
// The points are indexed in a uniform spatial hash rebuilt on every update; each
// tetrahedron then only tests the points found in the cells its bounding box overlaps,
// and confirms containment with barycentric weights.
type TetraToPointSetCD struct {
	Algorithm

	hash        *spatial.Hash
	hashBuckets int
}

// NewTetraToPointSetCD creates the algorithm; its spatial hash is built on the first update.
func NewTetraToPointSetCD() *TetraToPointSetCD {
	cd := &TetraToPointSetCD{}
	cd.init("TetraToPointSetCD", cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindTetrahedralMesh))
	cd.RequireInput(1, geometry.AnyPointSet)
	return cd
}

// rebuildHash sizes the grid after the tetrahedra and indexes every point of B.
func (cd *TetraToPointSetCD) rebuildHash(mesh *geometry.TetrahedralMesh, points geometry.Vertexed) {
	vertices := points.Vertices()
	buckets := max(minHashBuckets, 2*len(vertices))
	if cd.hash == nil || buckets > cd.hashBuckets {
		cd.hash = spatial.NewHash(1, buckets)
		cd.hashBuckets = buckets
	}

	boxes := make([]geometry.AABB, len(mesh.Tetrahedra))
	for i := range mesh.Tetrahedra {
		boxes[i] = mesh.TetrahedronAABB(i)
	}
	cd.hash.SetCellSize(spatial.SuggestCellSize(boxes))
	cd.hash.InsertPoints(vertices)
}

func (cd *TetraToPointSetCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	mesh, okA := geomA.(*geometry.TetrahedralMesh)
	points, okB := geomB.(geometry.Vertexed)
	if !okA || !okB || !mesh.AABB().Overlaps(points.AABB()) {
		return
	}
	cd.rebuildHash(mesh, points)
	vertices := points.Vertices()
	selfCollision := geomA == geomB

	cd.forEach(len(mesh.Tetrahedra), func(i int) {
		tet := mesh.TetrahedronPoints(i)
		cell := mesh.Tetrahedra[i]

		var candidatesBuf [64]int
		candidates := cd.hash.PointsInAABB(mesh.TetrahedronAABB(i), candidatesBuf[:0])
		for _, id := range candidates {
			if selfCollision && (id == cell[0] || id == cell[1] || id == cell[2] || id == cell[3]) {
				continue
			}
			if !intersect.PointInTetrahedron(vertices[id], tet) {
				continue
			}
			contact.AppendPair(elementsA, elementsB,
				contact.CellIndexOf(contact.CellTypeTetrahedron, -1, i),
				contact.CellIndexOf(contact.CellTypeVertex, -1, id),
			)
		}
	})
}
