package narrowphase

import (
	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultGradientStep is the central difference step used to estimate surface normals.
const DefaultGradientStep = 1e-3

// ImplicitGeometryToPointSetCD tests every vertex of a point set (B) against the signed
// distance of an implicit geometry (A). The contact normal is the normalized gradient
// of the distance, estimated by central differences.
type ImplicitGeometryToPointSetCD struct {
	Algorithm

	// GradientStep is the central difference step.
	GradientStep float64
}

// NewImplicitGeometryToPointSetCD creates the algorithm with the default gradient step.
func NewImplicitGeometryToPointSetCD() *ImplicitGeometryToPointSetCD {
	cd := &ImplicitGeometryToPointSetCD{GradientStep: DefaultGradientStep}
	cd.init("ImplicitGeometryToPointSetCD", cd)
	cd.RequireInput(0, geometry.AnyImplicit)
	cd.RequireInput(1, geometry.AnyPointSet)
	return cd
}

// gradient estimates the outward normal of field at p; false when it vanishes.
func gradient(field geometry.Implicit, p mgl64.Vec3, h float64) (mgl64.Vec3, bool) {
	var g mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		var offset mgl64.Vec3
		offset[axis] = h
		g[axis] = (field.SignedDistance(p.Add(offset)) - field.SignedDistance(p.Sub(offset))) / (2 * h)
	}
	if g.LenSqr() < separationEpsilon*separationEpsilon {
		return mgl64.Vec3{}, false
	}
	return g.Normalize(), true
}

func (cd *ImplicitGeometryToPointSetCD) collide(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	field, okA := geomA.(geometry.Implicit)
	points, okB := geomB.(geometry.Vertexed)
	if !okA || !okB {
		return
	}
	h := cd.GradientStep
	if h <= 0 {
		h = DefaultGradientStep
	}

	vertices := points.Vertices()
	cd.forEach(len(vertices), func(i int) {
		p := vertices[i]
		d := field.SignedDistance(p)
		if d >= 0 {
			return
		}
		n, ok := gradient(field, p, h)
		if !ok {
			return
		}
		depth := -d
		contact.AppendPair(elementsA, elementsB,
			contact.NewPointDirection(contact.PointDirectionElement{Pt: p.Add(n.Mul(depth)), Dir: n.Mul(-1), PenetrationDepth: depth}),
			contact.NewPointIndexDirection(contact.PointIndexDirectionElement{PtIndex: i, Dir: n, PenetrationDepth: depth}),
		)
	})
}

func (cd *ImplicitGeometryToPointSetCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	cd.collide(geomA, geomB, elementsA, elementsB)
}

func (cd *ImplicitGeometryToPointSetCD) computeCollisionDataA(geomA, geomB geometry.Geometry, elementsA *contact.Buffer) {
	cd.collide(geomA, geomB, elementsA, nil)
}

func (cd *ImplicitGeometryToPointSetCD) computeCollisionDataB(geomA, geomB geometry.Geometry, elementsB *contact.Buffer) {
	cd.collide(geomA, geomB, nil, elementsB)
}
