package narrowphase

import (
	"math"
	"testing"

	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/parallel"
	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"
)

// gridMesh is a square of 2*n*n triangles in the plane y = 0, spanning [-1, 1] in x and z.
func gridMesh(n int) *geometry.SurfaceMesh {
	points := make([]mgl64.Vec3, 0, (n+1)*(n+1))
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			points = append(points, mgl64.Vec3{-1 + 2*float64(i)/float64(n), 0, -1 + 2*float64(j)/float64(n)})
		}
	}
	triangles := make([][3]int, 0, 2*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v00 := i*(n+1) + j
			v01 := v00 + 1
			v10 := v00 + n + 1
			v11 := v10 + 1
			triangles = append(triangles, [3]int{v00, v01, v11}, [3]int{v00, v11, v10})
		}
	}
	return geometry.NewSurfaceMesh(points, triangles)
}

// wavyGrid is gridMesh bent by a sine wave, with its points shifted along x.
func wavyGrid(n int, amplitude, shift float64) *geometry.SurfaceMesh {
	mesh := gridMesh(n)
	for i, p := range mesh.Points {
		x := p.X() + shift
		mesh.Points[i] = mgl64.Vec3{x, amplitude * math.Sin(4*x) * math.Cos(3*p.Z()), p.Z()}
	}
	return mesh
}

func singleTriangle() *geometry.SurfaceMesh {
	return geometry.NewSurfaceMesh([]mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {0, 0, 1}}, [][3]int{{0, 1, 2}})
}

func TestSurfaceMeshToSphereCD(t *testing.T) {
	t.Run("face", func(t *testing.T) {
		cd := NewSurfaceMeshToSphereCD()
		cd.SetInput(singleTriangle(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0, 0.2, 0}, 0.5), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		cell := cellIndexAt(t, &data.ElementsA, 0)
		test.That(t, cell.CellType, test.ShouldEqual, contact.CellTypeTriangle)
		test.That(t, cell.IDs[:cell.IDCount], test.ShouldResemble, []int{0, 1, 2})
		test.That(t, cell.ParentID, test.ShouldEqual, 0)

		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.3, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, 1, 0}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0, -0.3, 0}, 1e-12)
	})

	t.Run("vertex", func(t *testing.T) {
		center := mgl64.Vec3{-1.2, 0.1, -1.2}
		cd := NewSurfaceMeshToSphereCD()
		cd.SetInput(singleTriangle(), 0)
		cd.SetInput(geometry.NewSphere(center, 0.5), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		a := pointIndexDirectionAt(t, &data.ElementsA, 0)
		test.That(t, a.PtIndex, test.ShouldEqual, 0)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.2, 1e-12)
		vecNear(t, a.Dir, mgl64.Vec3{-1, 0, -1}.Sub(center).Normalize(), 1e-12)
	})

	t.Run("edge", func(t *testing.T) {
		cd := NewSurfaceMeshToSphereCD()
		cd.SetInput(singleTriangle(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0, 0.1, -1.2}, 0.5), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		cell := cellIndexAt(t, &data.ElementsA, 0)
		test.That(t, cell.CellType, test.ShouldEqual, contact.CellTypeEdge)
		test.That(t, cell.IDs[:cell.IDCount], test.ShouldResemble, []int{0, 1})
		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.5-math.Sqrt(0.05), 1e-12)
	})

	t.Run("center on the face uses the face normal", func(t *testing.T) {
		cd := NewSurfaceMeshToSphereCD()
		cd.SetInput(singleTriangle(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0, 0, 0}, 0.5), 1)
		cd.Update()

		b := pointDirectionAt(t, &cd.CollisionData().ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.5, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, -1, 0}, 1e-12)
	})

	t.Run("clear", func(t *testing.T) {
		cd := NewSurfaceMeshToSphereCD()
		cd.SetInput(singleTriangle(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0, 1, 0}, 0.5), 1)
		cd.Update()
		test.That(t, cd.CollisionData().IsEmpty(), test.ShouldBeTrue)
	})
}

func TestSurfaceMeshToSphereParallel(t *testing.T) {
	parallel.SetWorkers(4)
	defer parallel.SetWorkers(0)

	mesh := gridMesh(16)
	sphere := geometry.NewSphere(mgl64.Vec3{0.05, 0.1, 0.03}, 0.3)

	run := func(threshold int) ([]string, []string) {
		cd := NewSurfaceMeshToSphereCD()
		cd.SetParallelThreshold(threshold)
		cd.SetInput(mesh, 0)
		cd.SetInput(sphere, 1)
		cd.Update()
		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, data.ElementsB.Len())
		return sortedElements(&data.ElementsA), sortedElements(&data.ElementsB)
	}

	seqA, seqB := run(math.MaxInt32)
	parA, parB := run(1)
	test.That(t, seqA, test.ShouldNotBeEmpty)
	test.That(t, parA, test.ShouldResemble, seqA)
	test.That(t, parB, test.ShouldResemble, seqB)
}

func TestSurfaceMeshToCapsuleCD(t *testing.T) {
	large := func() *geometry.SurfaceMesh {
		return geometry.NewSurfaceMesh([]mgl64.Vec3{{-2, 0, -2}, {2, 0, -2}, {0, 0, 2}}, [][3]int{{0, 1, 2}})
	}

	t.Run("centerline through the face", func(t *testing.T) {
		cd := NewSurfaceMeshToCapsuleCD()
		cd.SetInput(large(), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0, 0.3, 0}, 0.1, 1), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		cell := cellIndexAt(t, &data.ElementsA, 0)
		test.That(t, cell.CellType, test.ShouldEqual, contact.CellTypeTriangle)

		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.3, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, 1, 0}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0, -0.3, 0}, 1e-12)
	})

	t.Run("lying on the face", func(t *testing.T) {
		lying := geometry.NewCapsule(mgl64.Vec3{0, 0.05, 0}, 0.1, 1, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
		cd := NewSurfaceMeshToCapsuleCD()
		cd.SetInput(large(), 0)
		cd.SetInput(lying, 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsB.Len(), test.ShouldEqual, 1)
		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.05, 1e-9)
		vecNear(t, b.Dir, mgl64.Vec3{0, 1, 0}, 1e-9)
	})

	t.Run("clear", func(t *testing.T) {
		cd := NewSurfaceMeshToCapsuleCD()
		cd.SetInput(large(), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0, 2, 0}, 0.1, 1), 1)
		cd.Update()
		test.That(t, cd.CollisionData().IsEmpty(), test.ShouldBeTrue)
	})
}

func TestSurfaceMeshToSurfaceMeshCD(t *testing.T) {
	a, b := crossingTriangles()

	t.Run("vertex through a triangle", func(t *testing.T) {
		cd := NewSurfaceMeshToSurfaceMeshCD()
		cd.SetInput(a, 0)
		cd.SetInput(b, 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		test.That(t, data.ElementsA.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeTriangle, 0, 0, 1, 2))
		test.That(t, data.ElementsB.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeVertex, 0, 0))
	})

	t.Run("swapped meshes", func(t *testing.T) {
		cd := NewSurfaceMeshToSurfaceMeshCD()
		cd.SetInput(b, 0)
		cd.SetInput(a, 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, 1)
		test.That(t, data.ElementsA.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeVertex, 0, 0))
		test.That(t, data.ElementsB.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeTriangle, 0, 0, 1, 2))
	})

	t.Run("disjoint", func(t *testing.T) {
		far := geometry.NewSurfaceMesh([]mgl64.Vec3{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}}, [][3]int{{0, 1, 2}})
		cd := NewSurfaceMeshToSurfaceMeshCD()
		cd.SetInput(a, 0)
		cd.SetInput(far, 1)
		cd.Update()
		test.That(t, cd.CollisionData().IsEmpty(), test.ShouldBeTrue)
	})
}

func TestSurfaceMeshToSurfaceMeshParallel(t *testing.T) {
	parallel.SetWorkers(4)
	defer parallel.SetWorkers(0)

	meshA := wavyGrid(16, 0.2, 0)
	meshB := wavyGrid(16, -0.2, 0.37/16)

	run := func(threshold int) ([]string, []string, []edgePair) {
		cd := NewSurfaceMeshToSurfaceMeshCD()
		cd.SetParallelThreshold(threshold)
		cd.SetInput(meshA, 0)
		cd.SetInput(meshB, 1)
		cd.Update()
		data := cd.CollisionData()
		test.That(t, data.ElementsA.Len(), test.ShouldEqual, data.ElementsB.Len())

		edges := make([]edgePair, 0)
		for i, e := range data.ElementsA.All() {
			a := e.CellIndex()
			if a.CellType != contact.CellTypeEdge {
				continue
			}
			b := data.ElementsB.At(i).CellIndex()
			edges = append(edges, edgePair{a.IDs[0], a.IDs[1], b.IDs[0], b.IDs[1]})
		}
		return sortedElements(&data.ElementsA), sortedElements(&data.ElementsB), edges
	}

	seqA, seqB, seqEdges := run(math.MaxInt32)
	for range 5 {
		parA, parB, _ := run(1)
		test.That(t, parA, test.ShouldResemble, seqA)
		test.That(t, parB, test.ShouldResemble, seqB)
	}

	test.That(t, seqEdges, test.ShouldNotBeEmpty)
	// every edge pair is reported once
	unique := make(map[edgePair]bool)
	for _, e := range seqEdges {
		test.That(t, unique[e], test.ShouldBeFalse)
		unique[e] = true
	}
}

func TestLineMeshToSphereCD(t *testing.T) {
	line := func() *geometry.LineMesh {
		return geometry.NewLineMesh([]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, [][2]int{{0, 1}})
	}

	t.Run("interior", func(t *testing.T) {
		cd := NewLineMeshToSphereCD()
		cd.SetInput(line(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0, 0.3, 0}, 0.5), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeEdge, 0, 0, 1))
		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.2, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, 1, 0}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0, -0.2, 0}, 1e-12)
	})

	t.Run("endpoint", func(t *testing.T) {
		cd := NewLineMeshToSphereCD()
		cd.SetInput(line(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{1.2, 0, 0}, 0.5), 1)
		cd.Update()

		a := pointIndexDirectionAt(t, &cd.CollisionData().ElementsA, 0)
		test.That(t, a.PtIndex, test.ShouldEqual, 1)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.3, 1e-12)
		vecNear(t, a.Dir, mgl64.Vec3{-1, 0, 0}, 1e-12)
	})

	t.Run("center on the segment", func(t *testing.T) {
		cd := NewLineMeshToSphereCD()
		cd.SetInput(line(), 0)
		cd.SetInput(geometry.NewSphere(mgl64.Vec3{0.5, 0, 0}, 0.25), 1)
		cd.Update()

		b := pointDirectionAt(t, &cd.CollisionData().ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.25, 1e-12)
		test.That(t, b.Dir.Dot(mgl64.Vec3{1, 0, 0}), test.ShouldAlmostEqual, 0, 1e-12)
	})
}

func TestLineMeshToCapsuleCD(t *testing.T) {
	line := func() *geometry.LineMesh {
		return geometry.NewLineMesh([]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, [][2]int{{0, 1}})
	}

	t.Run("centerline crossing the segment", func(t *testing.T) {
		cd := NewLineMeshToCapsuleCD()
		cd.SetInput(line(), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0, 0.05, 0}, 0.1, 1), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeEdge, 0, 0, 1))
		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.1, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, 0, -1}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0, 0, 0.1}, 1e-12)
	})

	t.Run("capsule end above the segment", func(t *testing.T) {
		cd := NewLineMeshToCapsuleCD()
		cd.SetInput(line(), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0, 0.6, 0}, 0.15, 1), 1)
		cd.Update()

		data := cd.CollisionData()
		test.That(t, data.ElementsA.At(0), test.ShouldResemble, contact.CellIndexOf(contact.CellTypeEdge, 0, 0, 1))
		b := pointDirectionAt(t, &data.ElementsB, 0)
		test.That(t, b.PenetrationDepth, test.ShouldAlmostEqual, 0.05, 1e-12)
		vecNear(t, b.Dir, mgl64.Vec3{0, 1, 0}, 1e-12)
		vecNear(t, b.Pt, mgl64.Vec3{0, -0.05, 0}, 1e-12)
	})

	t.Run("segment end inside the capsule", func(t *testing.T) {
		cd := NewLineMeshToCapsuleCD()
		cd.SetInput(line(), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{1.1, 0, 0}, 0.2, 1), 1)
		cd.Update()

		a := pointIndexDirectionAt(t, &cd.CollisionData().ElementsA, 0)
		test.That(t, a.PtIndex, test.ShouldEqual, 1)
		test.That(t, a.PenetrationDepth, test.ShouldAlmostEqual, 0.1, 1e-12)
		vecNear(t, a.Dir, mgl64.Vec3{-1, 0, 0}, 1e-12)
	})

	t.Run("clear", func(t *testing.T) {
		cd := NewLineMeshToCapsuleCD()
		cd.SetInput(line(), 0)
		cd.SetInput(uprightCapsule(mgl64.Vec3{0, 3, 0}, 0.1, 1), 1)
		cd.Update()
		test.That(t, cd.CollisionData().IsEmpty(), test.ShouldBeTrue)
	})
}
