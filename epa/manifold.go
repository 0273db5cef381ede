package epa

import (
	"math"

	"github.com/akmonengine/narrowphase/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// ContactPoint is one manifold point: PointA on the surface of A, PointB on the
// surface of B, Penetration along the result normal.
type ContactPoint struct {
	PointA      mgl64.Vec3
	PointB      mgl64.Vec3
	Penetration float64
}

const clipTolerance = 1e-6

// GenerateManifold builds 1-4 contact points with Sutherland-Hodgman clipping.
//
// The feature of A facing B and the feature of B facing A are fetched in world space.
// The feature with fewer points is the incident one; it is clipped against the side
// planes of the reference feature, then against the reference support plane. Points of
// the incident feature lie on its own shape and are pushed along the normal by their
// penetration to find the matching point on the other shape.
func GenerateManifold(a, b geometry.Convex, normal mgl64.Vec3, depth float64) []ContactPoint {
	featureA := a.ContactFeature(normal)
	featureB := b.ContactFeature(normal.Mul(-1))

	incidentIsB := len(featureB) <= len(featureA)
	incident, reference := featureA, featureB
	refNormal := normal.Mul(-1)
	if incidentIsB {
		incident, reference = featureB, featureA
		refNormal = normal
	}

	pair := func(p mgl64.Vec3, penetration float64) ContactPoint {
		if incidentIsB {
			return ContactPoint{PointA: p.Add(normal.Mul(penetration)), PointB: p, Penetration: penetration}
		}
		return ContactPoint{PointA: p, PointB: p.Sub(normal.Mul(penetration)), Penetration: penetration}
	}

	if len(incident) == 1 {
		return []ContactPoint{pair(incident[0], depth)}
	}

	clipped := clipIncidentAgainstReference(incident, reference, normal)

	var points []ContactPoint
	if len(reference) > 0 {
		offset := reference[0].Dot(refNormal)
		for _, p := range clipped {
			// signed distance above the reference support plane
			distance := p.Dot(refNormal) - offset
			if distance <= clipTolerance {
				points = append(points, pair(p, math.Max(-distance, 0)))
			}
		}
	}

	if len(points) == 0 {
		deepest := b.Support(normal.Mul(-1))
		return []ContactPoint{{PointA: deepest.Add(normal.Mul(depth)), PointB: deepest, Penetration: depth}}
	}
	if len(points) > 4 {
		points = reduceTo4Points(points, normal)
	}
	return points
}

// clipIncidentAgainstReference clips the incident polygon against the planes through
// each reference edge that contain the normal.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 2 {
		return incident
	}

	center := computeCenter(reference)
	output := incident
	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-20 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}
		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}
	return output
}

// clipPolygonAgainstPlane keeps the part of polygon on the positive side of the plane.
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	output := make([]mgl64.Vec3, 0, len(polygon)+1)
	for i := range polygon {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -clipTolerance {
			output = append(output, current)
			if nextDist < -clipTolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -clipTolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}
	return output
}

// lineIntersectPlane returns where segment [p1, p2] crosses the plane, clamped to the segment.
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}
	t := mgl64.Clamp(-p1.Sub(planePoint).Dot(planeNormal)/denom, 0, 1)
	return p1.Add(dir.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// reduceTo4Points keeps the extreme points along two tangent axes.
func reduceTo4Points(points []ContactPoint, normal mgl64.Vec3) []ContactPoint {
	tangent1, tangent2 := geometry.TangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	minXval, maxXval := math.Inf(1), math.Inf(-1)
	minYval, maxYval := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		x := p.PointB.Dot(tangent1)
		y := p.PointB.Dot(tangent2)
		if x < minXval {
			minXval, minX = x, i
		}
		if x > maxXval {
			maxXval, maxX = x, i
		}
		if y < minYval {
			minYval, minY = y, i
		}
		if y > maxYval {
			maxYval, maxY = y, i
		}
	}

	return lo.Map(lo.Uniq([]int{minX, maxX, minY, maxY}), func(idx int, _ int) ContactPoint {
		return points[idx]
	})
}
