package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Compound groups heterogeneous child shapes that collide as one object.
type Compound struct {
	Children []Geometry
}

// NewCompound creates a compound, dropping nil children.
func NewCompound(children ...Geometry) *Compound {
	return &Compound{Children: lo.Filter(children, func(g Geometry, _ int) bool { return g != nil })}
}

func (c *Compound) Kind() Kind { return KindCompound }
func (c *Compound) Orientation() mgl64.Quat { return mgl64.QuatIdent() }

// Position returns the mean of the child positions.
func (c *Compound) Position() mgl64.Vec3 {
	return centroid(lo.Map(c.Children, func(g Geometry, _ int) mgl64.Vec3 { return g.Position() }))
}

func (c *Compound) AABB() AABB {
	box := EmptyAABB()
	for _, child := range c.Children {
		box = box.Union(child.AABB())
	}
	return box
}
