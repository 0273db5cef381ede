package narrowphase

import (
	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/epa"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/gjk"
	"go.uber.org/zap"
)

// ConvexToConvexCD collides any two convex shapes with GJK, then EPA for the
// penetration and a clipped manifold of up to four points.
type ConvexToConvexCD struct {
	Algorithm
}

// NewConvexToConvexCD creates the GJK/EPA algorithm for two convex shapes.
func NewConvexToConvexCD() *ConvexToConvexCD {
	cd := &ConvexToConvexCD{}
	cd.init("ConvexToConvexCD", cd)
	cd.RequireInput(0, geometry.AnyConvex)
	cd.RequireInput(1, geometry.AnyConvex)
	return cd
}

func (cd *ConvexToConvexCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	a, okA := geomA.(geometry.Convex)
	b, okB := geomB.(geometry.Convex)
	if !okA || !okB || !a.AABB().Overlaps(b.AABB()) {
		return
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()
	if !gjk.GJK(a, b, simplex) {
		return
	}

	result, err := epa.EPA(a, b, simplex)
	if err != nil {
		cd.logger.Debug("penetration not resolved",
			zap.String("algorithm", cd.name),
			zap.Stringer("kindA", a.Kind()),
			zap.Stringer("kindB", b.Kind()),
			zap.Error(err))
		return
	}

	n := result.Normal
	for _, p := range result.Points {
		contact.AppendPair(elementsA, elementsB,
			contact.NewPointDirection(contact.PointDirectionElement{Pt: p.PointA, Dir: n.Mul(-1), PenetrationDepth: p.Penetration}),
			contact.NewPointDirection(contact.PointDirectionElement{Pt: p.PointB, Dir: n, PenetrationDepth: p.Penetration}),
		)
	}
}
