package geometry

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// SignedDistanceField adapts an sdfx solid to the Implicit interface.
// The field is evaluated in the local frame of Transform.
type SignedDistanceField struct {
	Transform Transform
	Field     sdf.SDF3
}

// NewSignedDistanceField wraps field placed at transform.
func NewSignedDistanceField(field sdf.SDF3, transform Transform) *SignedDistanceField {
	return &SignedDistanceField{Transform: transform, Field: field}
}

// NewSDFSphere builds a sphere field through sdfx.
func NewSDFSphere(center mgl64.Vec3, radius float64) (*SignedDistanceField, error) {
	field, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, errors.Wrap(err, "sdf sphere")
	}
	return NewSignedDistanceField(field, Transform{Position: center, Rotation: mgl64.QuatIdent()}), nil
}

// NewSDFBox builds a box field through sdfx; size is the full edge length, round the corner radius.
func NewSDFBox(center, size mgl64.Vec3, round float64, rotation mgl64.Quat) (*SignedDistanceField, error) {
	field, err := sdf.Box3D(v3.Vec{X: size.X(), Y: size.Y(), Z: size.Z()}, round)
	if err != nil {
		return nil, errors.Wrap(err, "sdf box")
	}
	return NewSignedDistanceField(field, Transform{Position: center, Rotation: rotation}), nil
}

// NewSDFCylinder builds a cylinder field through sdfx. sdfx cylinders run along Z,
// so the field is rotated onto the Y axis used by the analytic shapes.
func NewSDFCylinder(center mgl64.Vec3, radius, height float64, rotation mgl64.Quat) (*SignedDistanceField, error) {
	field, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, errors.Wrap(err, "sdf cylinder")
	}
	onY := sdf.Transform3D(field, sdf.RotateX(-mgl64.DegToRad(90)))
	return NewSignedDistanceField(onY, Transform{Position: center, Rotation: rotation}), nil
}

func (s *SignedDistanceField) Kind() Kind { return KindSignedDistanceField }
func (s *SignedDistanceField) Position() mgl64.Vec3 { return s.Transform.Position }
func (s *SignedDistanceField) Orientation() mgl64.Quat { return s.Transform.Orientation() }

func (s *SignedDistanceField) SignedDistance(point mgl64.Vec3) float64 {
	local := s.Transform.ToLocal(point)
	return s.Field.Evaluate(v3.Vec{X: local.X(), Y: local.Y(), Z: local.Z()})
}

func (s *SignedDistanceField) AABB() AABB {
	bb := s.Field.BoundingBox()
	box := EmptyAABB()
	for _, x := range [2]float64{bb.Min.X, bb.Max.X} {
		for _, y := range [2]float64{bb.Min.Y, bb.Max.Y} {
			for _, z := range [2]float64{bb.Min.Z, bb.Max.Z} {
				box = box.Extend(s.Transform.ToWorld(mgl64.Vec3{x, y, z}))
			}
		}
	}
	return box
}
