// Package geometry holds the read-only shape handles consumed by the narrow phase.
//
// The set of shapes is closed: every handle reports one Kind and algorithms match on
// that enumeration instead of inspecting concrete types.
package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Kind represents the type of a geometry handle
type Kind int

const (
	KindSphere Kind = iota
	KindCapsule
	KindCylinder
	KindPlane
	KindOrientedBox
	KindPointSet
	KindLineMesh
	KindSurfaceMesh
	KindTetrahedralMesh
	KindSignedDistanceField
	KindCompound
)

var kindNames = [...]string{
	KindSphere:              "Sphere",
	KindCapsule:             "Capsule",
	KindCylinder:            "Cylinder",
	KindPlane:               "Plane",
	KindOrientedBox:         "OrientedBox",
	KindPointSet:            "PointSet",
	KindLineMesh:            "LineMesh",
	KindSurfaceMesh:         "SurfaceMesh",
	KindTetrahedralMesh:     "TetrahedralMesh",
	KindSignedDistanceField: "SignedDistanceField",
	KindCompound:            "Compound",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Geometry is the capability surface every shape handle exposes.
// Handles are shared and must not be mutated while a collision pass runs.
type Geometry interface {
	Kind() Kind
	Position() mgl64.Vec3
	Orientation() mgl64.Quat
	// AABB returns the world-space bounding box
	AABB() AABB
}

// Convex shapes answer support queries in world space, which is all GJK/EPA needs.
type Convex interface {
	Geometry
	Support(direction mgl64.Vec3) mgl64.Vec3
	// ContactFeature returns the world-space vertex, edge or face most aligned with direction.
	ContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// Implicit shapes can evaluate a signed distance (negative inside).
type Implicit interface {
	Geometry
	SignedDistance(point mgl64.Vec3) float64
}

// Vertexed shapes expose a world-space vertex array.
type Vertexed interface {
	Geometry
	Vertices() []mgl64.Vec3
}

// Predicate decides whether a geometry can be bound to an algorithm port.
type Predicate func(g Geometry) bool

// KindOf matches geometries of any of the given kinds.
func KindOf(kinds ...Kind) Predicate {
	return func(g Geometry) bool {
		return g != nil && lo.Contains(kinds, g.Kind())
	}
}

var (
	// AnyPointSet matches every kind carrying a vertex array.
	AnyPointSet = KindOf(KindPointSet, KindLineMesh, KindSurfaceMesh, KindTetrahedralMesh)
	// AnyConvex matches the analytic convex kinds.
	AnyConvex = KindOf(KindSphere, KindCapsule, KindCylinder, KindOrientedBox)
	// AnyImplicit matches kinds with a signed distance evaluation.
	AnyImplicit = KindOf(KindSphere, KindCapsule, KindCylinder, KindPlane, KindOrientedBox, KindSignedDistanceField)
)

// Transform places a shape in world space.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// Orientation returns the rotation, treating the zero quaternion as identity.
func (t Transform) Orientation() mgl64.Quat {
	if t.Rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

// ToWorld maps a local point to world space.
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation().Rotate(local).Add(t.Position)
}

// ToLocal maps a world point to the local frame.
func (t Transform) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation().Conjugate().Rotate(world.Sub(t.Position))
}

// Axis returns the local +Y axis in world space.
func (t Transform) Axis() mgl64.Vec3 {
	return t.Orientation().Rotate(mgl64.Vec3{0, 1, 0})
}
