package contact

import (
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/parallel"
)

// Data is the output of one collision detection algorithm: the elements describing
// each side of the contact and the two geometries they refer to.
//
// Both buffers share a single lock, so a matched pair can be appended atomically.
type Data struct {
	ElementsA Buffer
	ElementsB Buffer
	GeomA     geometry.Geometry
	GeomB     geometry.Geometry

	lock parallel.SpinLock
}

// NewData creates empty collision data.
func NewData() *Data {
	d := &Data{}
	d.ElementsA.shared = &d.lock
	d.ElementsB.shared = &d.lock
	return d
}

// Clear empties both buffers.
func (d *Data) Clear() {
	d.ElementsA.Clear()
	d.ElementsB.Clear()
}

// IsEmpty reports whether neither side holds an element.
func (d *Data) IsEmpty() bool {
	return d.ElementsA.IsEmpty() && d.ElementsB.IsEmpty()
}

// AppendPair appends elemA to bufA and elemB to bufB. When both buffers share a lock,
// the two appends happen in one critical section and the pair keeps matching indices.
// A nil buffer is skipped.
func AppendPair(bufA, bufB *Buffer, elemA, elemB Element) {
	switch {
	case bufA == nil && bufB == nil:
		return
	case bufA == nil:
		bufB.SafeAppend(elemB)
		return
	case bufB == nil:
		bufA.SafeAppend(elemA)
		return
	}

	l := bufA.locker()
	if l != bufB.locker() {
		bufA.SafeAppend(elemA)
		bufB.SafeAppend(elemB)
		return
	}
	l.Lock()
	bufA.elements = append(bufA.elements, elemA)
	bufB.elements = append(bufB.elements, elemB)
	l.Unlock()
}
