package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/akmonengine/narrowphase"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/parallel"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

func main() {
	workers := flag.Int("workers", 4, "goroutines used to process pairs")
	threshold := flag.Int("threshold", parallel.DefaultThreshold, "primitive count from which a single pair runs in parallel")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	config := zap.NewDevelopmentConfig()
	if !*verbose {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := config.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	pairs, err := setupScene()
	if err != nil {
		logger.Fatal("cannot build scene", zap.Error(err))
	}

	factory := narrowphase.NewFactory()
	results := narrowphase.Detect(factory, pairs, *workers, logger)
	logger.Info("narrow phase done", zap.Int("pairs", len(pairs)), zap.Int("contacts", len(results)))

	for _, r := range results {
		fmt.Printf("%s: %s / %s\n", r.Algorithm, r.Pair.A.Kind(), r.Pair.B.Kind())
		for i, e := range r.Data.ElementsA.All() {
			fmt.Printf("   A[%d] %v\n", i, e)
		}
		for i, e := range r.Data.ElementsB.All() {
			fmt.Printf("   B[%d] %v\n", i, e)
		}
	}

	// long-lived algorithms, updated once per frame
	sphere := geometry.NewSphere(mgl64.Vec3{0, 0.9, 0}, 1)
	terrain := terrainMesh(32, 10)
	cd, err := factory.New(terrain, sphere)
	if err != nil {
		logger.Fatal("cannot build terrain collision", zap.Error(err))
	}
	cd.SetLogger(logger.Named(cd.Name()))
	cd.SetParallelThreshold(*threshold)
	for frame := 0; frame < 5; frame++ {
		sphere.Transform.Position = sphere.Transform.Position.Sub(mgl64.Vec3{0, 0.1, 0})
		touching := narrowphase.UpdateAll([]narrowphase.CollisionDetector{cd}, *workers)
		logger.Info("frame",
			zap.Int("frame", frame),
			zap.Bool("touching", touching > 0),
			zap.Float64("height", sphere.Transform.Position.Y()),
			zap.Int("contacts", cd.CollisionData().ElementsA.Len()))
	}
}

// setupScene builds a few pairs covering the main algorithm families.
func setupScene() ([]narrowphase.Pair, error) {
	ground := geometry.NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	field, err := geometry.NewSDFSphere(mgl64.Vec3{4, 0, 0}, 1)
	if err != nil {
		return nil, err
	}

	tetra := geometry.NewTetrahedralMesh(
		[]mgl64.Vec3{{10, 0, 0}, {11, 0, 0}, {10, 1, 0}, {10, 0, 1}},
		[][4]int{{0, 1, 2, 3}},
	)
	cloth := geometry.NewPointSet(mgl64.Vec3{10.2, 0.2, 0.2}, mgl64.Vec3{3.5, 0, 0}, mgl64.Vec3{0, -0.05, 0})

	// closed shell around a second tetrahedron, pierced by a rod
	block := geometry.NewTetrahedralMesh(
		[]mgl64.Vec3{{14, 0, 0}, {15, 0, 0}, {14, 1, 0}, {14, 0, 1}},
		[][4]int{{0, 1, 2, 3}},
	)
	shell := geometry.NewSurfaceMesh(block.Points, block.SurfaceTriangles())
	rod := geometry.NewLineMesh([]mgl64.Vec3{{14.2, 0.2, 0.2}, {16, 0.2, 0.2}}, [][2]int{{0, 1}})

	robot := geometry.NewCompound(
		geometry.NewOrientedBox(mgl64.Vec3{-4, 0.9, 0}, mgl64.Vec3{0.5, 1, 0.5}, mgl64.QuatIdent()),
		geometry.NewCapsule(mgl64.Vec3{-4, 2.5, 0}, 0.3, 1, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})),
	)

	return []narrowphase.Pair{
		{A: geometry.NewSphere(mgl64.Vec3{0, 0.8, 0}, 1), B: ground},
		{A: geometry.NewCapsule(mgl64.Vec3{2, 0.4, 0}, 0.5, 1, mgl64.QuatIdent()), B: ground},
		{A: geometry.NewOrientedBox(mgl64.Vec3{6, 0.5, 0}, mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent()), B: geometry.NewOrientedBox(mgl64.Vec3{6, 2.4, 0}, mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())},
		{A: field, B: cloth},
		{A: cloth, B: ground},
		{A: tetra, B: cloth},
		{A: rod, B: shell},
		{A: robot, B: geometry.NewSphere(mgl64.Vec3{-4, 3, 0}, 0.5)},
	}, nil
}

// terrainMesh is a gently waved square of 2*n*n triangles around the origin.
func terrainMesh(n int, size float64) *geometry.SurfaceMesh {
	points := make([]mgl64.Vec3, 0, (n+1)*(n+1))
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			x := size * (float64(i)/float64(n) - 0.5)
			z := size * (float64(j)/float64(n) - 0.5)
			points = append(points, mgl64.Vec3{x, 0.1 * math.Sin(x) * math.Cos(z), z})
		}
	}
	triangles := make([][3]int, 0, 2*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v00 := i*(n+1) + j
			v10 := v00 + n + 1
			triangles = append(triangles, [3]int{v00, v00 + 1, v10 + 1}, [3]int{v00, v10 + 1, v10})
		}
	}
	return geometry.NewSurfaceMesh(points, triangles)
}
