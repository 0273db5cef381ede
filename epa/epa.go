// Package epa implements the Expanding Polytope Algorithm for penetration depth.
//
// EPA runs after GJK reports an overlap. It expands a polytope inside the Minkowski
// difference A - B toward its boundary; the face closest to the origin gives the
// minimum translation vector, from which a clipped contact manifold is built.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/intersect"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	// MaxIterations limits polytope expansion.
	MaxIterations = 32

	// ConvergenceTolerance stops the expansion once a new support point improves the
	// closest face distance by less than this.
	ConvergenceTolerance = 0.001

	// MinFaceDistance is the floor applied to face distances; closer faces are skipped.
	MinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when nothing better is known.
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 4
)

// Result describes the penetration of A and B. Normal points from A toward B: moving B
// by Normal*Depth separates the shapes.
type Result struct {
	Normal mgl64.Vec3
	Depth  float64
	Points []ContactPoint
}

// EPA computes the penetration of two overlapping convex shapes from the GJK simplex.
// Touching contacts that leave GJK with fewer than four points are completed into a
// tetrahedron when possible, otherwise estimated.
func EPA(a, b geometry.Convex, simplex *gjk.Simplex) (Result, error) {
	if simplex.Count < 4 && !completeSimplex(a, b, simplex) {
		return handleDegenerateSimplex(a, b, simplex), nil
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Result{}, err
	}

	for i := 0; i < MaxIterations; i++ {
		closestIndex := builder.FindClosestFaceIndex()
		if closestIndex < 0 {
			break
		}
		closest := builder.faces[closestIndex]

		if closest.Distance < MinFaceDistance {
			last := len(builder.faces) - 1
			builder.faces[closestIndex] = builder.faces[last]
			builder.faces = builder.faces[:last]
			continue
		}

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		if support.Dot(closest.Normal)-closest.Distance < ConvergenceTolerance {
			return newResult(a, b, closest.Normal, closest.Distance), nil
		}

		builder.AddPointAndRebuildFaces(support, closestIndex)
	}

	return Result{}, errors.Errorf("EPA failed to converge after %d iterations", MaxIterations)
}

func newResult(a, b geometry.Convex, normal mgl64.Vec3, depth float64) Result {
	return Result{
		Normal: normal,
		Depth:  depth,
		Points: GenerateManifold(a, b, normal, depth),
	}
}

var searchDirections = [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

// completeSimplex grows a 1-3 point simplex into a tetrahedron enclosing the origin.
func completeSimplex(a, b geometry.Convex, simplex *gjk.Simplex) bool {
	const eps = 1e-12

	if simplex.Count == 1 {
		for _, dir := range searchDirections {
			p := gjk.MinkowskiSupport(a, b, dir)
			if p.Sub(simplex.Points[0]).LenSqr() > eps {
				simplex.Points[1] = p
				simplex.Count = 2
				break
			}
		}
	}
	if simplex.Count == 2 {
		axis := simplex.Points[1].Sub(simplex.Points[0])
		if axis.LenSqr() < eps {
			return false
		}
		t1, t2 := geometry.TangentBasis(axis.Normalize())
		for _, dir := range [4]mgl64.Vec3{t1, t1.Mul(-1), t2, t2.Mul(-1)} {
			p := gjk.MinkowskiSupport(a, b, dir)
			if axis.Cross(p.Sub(simplex.Points[0])).LenSqr() > eps {
				simplex.Points[2] = p
				simplex.Count = 3
				break
			}
		}
	}
	if simplex.Count == 3 {
		p0 := simplex.Points[0]
		n := simplex.Points[1].Sub(p0).Cross(simplex.Points[2].Sub(p0))
		if n.LenSqr() < eps {
			return false
		}
		n = n.Normalize()
		for _, dir := range [2]mgl64.Vec3{n, n.Mul(-1)} {
			p := gjk.MinkowskiSupport(a, b, dir)
			if math.Abs(p.Sub(p0).Dot(n)) > 1e-9 {
				simplex.Points[3] = p
				simplex.Count = 4
				break
			}
		}
	}
	if simplex.Count != 4 {
		return false
	}

	tetrahedron := [4]mgl64.Vec3{simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]}
	return intersect.PointInTetrahedron(mgl64.Vec3{}, tetrahedron)
}

// handleDegenerateSimplex estimates a contact when no enclosing tetrahedron exists,
// which happens for shapes touching at a point, an edge or a face.
func handleDegenerateSimplex(a, b geometry.Convex, simplex *gjk.Simplex) Result {
	if simplex.Count >= 2 {
		closest := simplex.Points[0]
		for i := 1; i < simplex.Count; i++ {
			if simplex.Points[i].LenSqr() < closest.LenSqr() {
				closest = simplex.Points[i]
			}
		}
		if depth := closest.Len(); depth > NormalSnapThreshold {
			// the boundary of A - B nearest the origin lies along the A to B normal
			return newResult(a, b, closest.Mul(1/depth), depth)
		}
	}

	normal := b.Position().Sub(a.Position())
	if length := normal.Len(); length < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1 / length)
	}
	return newResult(a, b, normal, DegeneratePenetrationEstimate)
}

// snapNormalToAxis clamps nearly-zero components and renormalizes, so axis aligned
// contacts keep exact axis normals.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}
	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1 / length)
}
