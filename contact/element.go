// Package contact holds the contact data produced by narrow-phase algorithms.
//
// An Element is a small tagged value: one ElementType plus the payload of that type.
// Elements are compared with == and copied by assignment.
package contact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ElementType tags the payload carried by an Element
type ElementType uint8

const (
	ElementEmpty ElementType = iota
	ElementCellVertex
	ElementCellIndex
	ElementPointDirection
	ElementPointIndexDirection
)

func (t ElementType) String() string {
	switch t {
	case ElementEmpty:
		return "Empty"
	case ElementCellVertex:
		return "CellVertex"
	case ElementCellIndex:
		return "CellIndex"
	case ElementPointDirection:
		return "PointDirection"
	case ElementPointIndexDirection:
		return "PointIndexDirection"
	}
	return fmt.Sprintf("ElementType(%d)", uint8(t))
}

// CellType identifies the kind of cell a CellIndex element refers to
type CellType uint8

const (
	CellTypeNone CellType = iota
	CellTypeVertex
	CellTypeEdge
	CellTypeTriangle
	CellTypeQuad
	CellTypeTetrahedron
	CellTypeHexahedron
)

// CellVertexElement describes a cell by up to 4 points, for geometry without stable vertex ids.
type CellVertexElement struct {
	Pts  [4]mgl64.Vec3
	Size int
}

// CellIndexElement describes a cell by up to 4 vertex ids, or by one cell id when IDCount is 1
// and CellType is not CellTypeVertex. Unused ids are -1.
type CellIndexElement struct {
	IDs      [4]int
	IDCount  int
	CellType CellType
	ParentID int
}

// PointDirectionElement is a direct contact: a point, the direction resolving the
// contact for the reporting side and the penetration depth.
type PointDirectionElement struct {
	Pt               mgl64.Vec3
	Dir              mgl64.Vec3
	PenetrationDepth float64
}

// PointIndexDirectionElement is a contact on a vertex given by index.
type PointIndexDirectionElement struct {
	PtIndex          int
	Dir              mgl64.Vec3
	PenetrationDepth float64
}

// Element holds exactly one payload. Payload fields overlay each other:
//
//	CellVertex:          vecs[0:4], n = size
//	CellIndex:           ints, n = id count, cell, parent
//	PointDirection:      vecs[0] = point, vecs[1] = direction, depth
//	PointIndexDirection: ints[0] = index, vecs[1] = direction, depth
//
// Constructors zero the slots a payload does not use, so == compares payloads.
type Element struct {
	typ    ElementType
	cell   CellType
	n      int
	parent int
	ints   [4]int
	vecs   [4]mgl64.Vec3
	depth  float64
}

// NewCellVertex builds a CellVertex element.
func NewCellVertex(e CellVertexElement) Element {
	el := Element{typ: ElementCellVertex, n: clampCount(e.Size)}
	copy(el.vecs[:el.n], e.Pts[:el.n])
	return el
}

// NewCellIndex builds a CellIndex element.
func NewCellIndex(e CellIndexElement) Element {
	return Element{typ: ElementCellIndex, ints: e.IDs, n: clampCount(e.IDCount), cell: e.CellType, parent: e.ParentID}
}

// NewPointDirection builds a PointDirection element.
func NewPointDirection(e PointDirectionElement) Element {
	el := Element{typ: ElementPointDirection, depth: e.PenetrationDepth}
	el.vecs[0] = e.Pt
	el.vecs[1] = e.Dir
	return el
}

// NewPointIndexDirection builds a PointIndexDirection element.
func NewPointIndexDirection(e PointIndexDirectionElement) Element {
	el := Element{typ: ElementPointIndexDirection, depth: e.PenetrationDepth}
	el.ints[0] = e.PtIndex
	el.vecs[1] = e.Dir
	return el
}

// CellIndexOf builds a CellIndex element from vertex ids; at most 4 ids are kept.
func CellIndexOf(cellType CellType, parentID int, ids ...int) Element {
	e := CellIndexElement{IDs: [4]int{-1, -1, -1, -1}, CellType: cellType, ParentID: parentID}
	e.IDCount = copy(e.IDs[:], ids)
	return NewCellIndex(e)
}

// Type returns the active payload tag.
func (e Element) Type() ElementType {
	return e.typ
}

// IsEmpty reports whether the element carries no payload.
func (e Element) IsEmpty() bool {
	return e.typ == ElementEmpty
}

// CellVertex returns the CellVertex payload. It panics on any other tag.
func (e Element) CellVertex() CellVertexElement {
	e.mustBe(ElementCellVertex)
	return CellVertexElement{Pts: e.vecs, Size: e.n}
}

// CellIndex returns the CellIndex payload. It panics on any other tag.
func (e Element) CellIndex() CellIndexElement {
	e.mustBe(ElementCellIndex)
	return CellIndexElement{IDs: e.ints, IDCount: e.n, CellType: e.cell, ParentID: e.parent}
}

// PointDirection returns the PointDirection payload. It panics on any other tag.
func (e Element) PointDirection() PointDirectionElement {
	e.mustBe(ElementPointDirection)
	return PointDirectionElement{Pt: e.vecs[0], Dir: e.vecs[1], PenetrationDepth: e.depth}
}

// PointIndexDirection returns the PointIndexDirection payload. It panics on any other tag.
func (e Element) PointIndexDirection() PointIndexDirectionElement {
	e.mustBe(ElementPointIndexDirection)
	return PointIndexDirectionElement{PtIndex: e.ints[0], Dir: e.vecs[1], PenetrationDepth: e.depth}
}

// Direction returns the direction and depth of directional payloads.
func (e Element) Direction() (mgl64.Vec3, float64, bool) {
	switch e.typ {
	case ElementPointDirection, ElementPointIndexDirection:
		return e.vecs[1], e.depth, true
	}
	return mgl64.Vec3{}, 0, false
}

func clampCount(n int) int {
	return max(0, min(n, 4))
}

func (e Element) mustBe(t ElementType) {
	if e.typ != t {
		panic(fmt.Sprintf("contact: element is %s, not %s", e.typ, t))
	}
}

func (e Element) String() string {
	switch e.typ {
	case ElementCellVertex:
		return fmt.Sprintf("CellVertex%v", e.vecs[:e.n])
	case ElementCellIndex:
		return fmt.Sprintf("CellIndex{ids:%v cell:%d parent:%d}", e.ints[:e.n], e.cell, e.parent)
	case ElementPointDirection:
		return fmt.Sprintf("PointDirection{pt:%v dir:%v depth:%g}", e.vecs[0], e.vecs[1], e.depth)
	case ElementPointIndexDirection:
		return fmt.Sprintf("PointIndexDirection{index:%d dir:%v depth:%g}", e.ints[0], e.vecs[1], e.depth)
	}
	return "Empty"
}
