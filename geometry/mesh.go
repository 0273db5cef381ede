package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// PointSet is a cloud of world-space vertices.
type PointSet struct {
	Points []mgl64.Vec3
}

// NewPointSet creates a point set over points.
func NewPointSet(points ...mgl64.Vec3) *PointSet {
	return &PointSet{Points: points}
}

func (p *PointSet) Kind() Kind { return KindPointSet }
func (p *PointSet) Orientation() mgl64.Quat { return mgl64.QuatIdent() }
func (p *PointSet) Vertices() []mgl64.Vec3 { return p.Points }
func (p *PointSet) AABB() AABB { return AABBOfPoints(p.Points...) }

// Position returns the vertex centroid.
func (p *PointSet) Position() mgl64.Vec3 {
	return centroid(p.Points)
}

// LineMesh is a set of segments indexing into its vertices.
type LineMesh struct {
	PointSet
	Segments [][2]int
}

// NewLineMesh creates a line mesh.
func NewLineMesh(points []mgl64.Vec3, segments [][2]int) *LineMesh {
	return &LineMesh{PointSet: PointSet{Points: points}, Segments: segments}
}

func (m *LineMesh) Kind() Kind { return KindLineMesh }

// SegmentPoints returns the endpoints of segment i.
func (m *LineMesh) SegmentPoints(i int) (mgl64.Vec3, mgl64.Vec3) {
	s := m.Segments[i]
	return m.Points[s[0]], m.Points[s[1]]
}

// SurfaceMesh is a triangle mesh indexing into its vertices.
type SurfaceMesh struct {
	PointSet
	Triangles [][3]int
}

// NewSurfaceMesh creates a triangle mesh.
func NewSurfaceMesh(points []mgl64.Vec3, triangles [][3]int) *SurfaceMesh {
	return &SurfaceMesh{PointSet: PointSet{Points: points}, Triangles: triangles}
}

func (m *SurfaceMesh) Kind() Kind { return KindSurfaceMesh }

// TrianglePoints returns the three corners of triangle i.
func (m *SurfaceMesh) TrianglePoints(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	t := m.Triangles[i]
	return m.Points[t[0]], m.Points[t[1]], m.Points[t[2]]
}

// TriangleNormal returns the unit face normal of triangle i, or false when degenerate.
func (m *SurfaceMesh) TriangleNormal(i int) (mgl64.Vec3, bool) {
	a, b, c := m.TrianglePoints(i)
	n := b.Sub(a).Cross(c.Sub(a))
	if n.LenSqr() < 1e-20 {
		return mgl64.Vec3{}, false
	}
	return n.Normalize(), true
}

// TetrahedralMesh is a volume mesh of tetrahedra indexing into its vertices.
type TetrahedralMesh struct {
	PointSet
	Tetrahedra [][4]int
}

// NewTetrahedralMesh creates a tetrahedral mesh.
func NewTetrahedralMesh(points []mgl64.Vec3, tetrahedra [][4]int) *TetrahedralMesh {
	return &TetrahedralMesh{PointSet: PointSet{Points: points}, Tetrahedra: tetrahedra}
}

func (m *TetrahedralMesh) Kind() Kind { return KindTetrahedralMesh }

// TetrahedronPoints returns the four corners of tetrahedron i.
func (m *TetrahedralMesh) TetrahedronPoints(i int) [4]mgl64.Vec3 {
	t := m.Tetrahedra[i]
	return [4]mgl64.Vec3{m.Points[t[0]], m.Points[t[1]], m.Points[t[2]], m.Points[t[3]]}
}

// TetrahedronAABB bounds tetrahedron i.
func (m *TetrahedralMesh) TetrahedronAABB(i int) AABB {
	p := m.TetrahedronPoints(i)
	return AABBOfPoints(p[:]...)
}

// SurfaceTriangles extracts the boundary faces, i.e. faces owned by a single tetrahedron.
func (m *TetrahedralMesh) SurfaceTriangles() [][3]int {
	type faceKey [3]int
	sorted := func(f [3]int) faceKey {
		if f[0] > f[1] {
			f[0], f[1] = f[1], f[0]
		}
		if f[1] > f[2] {
			f[1], f[2] = f[2], f[1]
		}
		if f[0] > f[1] {
			f[0], f[1] = f[1], f[0]
		}
		return faceKey(f)
	}

	faces := make([][3]int, 0, 4*len(m.Tetrahedra))
	for _, t := range m.Tetrahedra {
		faces = append(faces,
			[3]int{t[0], t[2], t[1]},
			[3]int{t[0], t[1], t[3]},
			[3]int{t[0], t[3], t[2]},
			[3]int{t[1], t[2], t[3]},
		)
	}
	counts := lo.CountValuesBy(faces, func(f [3]int) faceKey { return sorted(f) })
	return lo.Filter(faces, func(f [3]int, _ int) bool { return counts[sorted(f)] == 1 })
}

func centroid(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}
