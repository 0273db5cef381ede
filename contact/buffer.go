package contact

import (
	"iter"
	"sort"

	"github.com/akmonengine/narrowphase/parallel"
	"github.com/pkg/errors"
)

// Buffer is a growable sequence of elements.
//
// SafeAppend may be called from many goroutines at once, including on the zero value;
// every other method assumes a single writer. Index access is always bounds checked and
// panics on out-of-range indices: an invalid index is a programmer error, never a
// recoverable condition. A Buffer must not be copied after first use.
type Buffer struct {
	elements []Element
	own      parallel.SpinLock
	// shared replaces own when set, see Data
	shared *parallel.SpinLock
}

// NewBuffer creates an empty buffer guarded by its own spin lock.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) locker() *parallel.SpinLock {
	if b.shared != nil {
		return b.shared
	}
	return &b.own
}

// SafeAppend appends e under the buffer lock.
func (b *Buffer) SafeAppend(e Element) {
	l := b.locker()
	l.Lock()
	b.elements = append(b.elements, e)
	l.Unlock()
}

// UnsafeAppend appends e without locking; single-writer contexts only.
func (b *Buffer) UnsafeAppend(e Element) {
	b.elements = append(b.elements, e)
}

// At returns the element at index i.
func (b *Buffer) At(i int) Element {
	b.checkIndex(i)
	return b.elements[i]
}

// Set overwrites the element at index i.
func (b *Buffer) Set(i int, e Element) {
	b.checkIndex(i)
	b.elements[i] = e
}

func (b *Buffer) checkIndex(i int) {
	if i < 0 || i >= len(b.elements) {
		panic(errors.Errorf("contact: index %d out of range [0,%d)", i, len(b.elements)))
	}
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	return len(b.elements)
}

// IsEmpty reports whether the buffer holds no element.
func (b *Buffer) IsEmpty() bool {
	return len(b.elements) == 0
}

// Resize sets the length to n, padding with Empty elements.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= cap(b.elements) {
		old := len(b.elements)
		b.elements = b.elements[:n]
		for i := old; i < n; i++ {
			b.elements[i] = Element{}
		}
		return
	}
	grown := make([]Element, n)
	copy(grown, b.elements)
	b.elements = grown
}

// Clear empties the buffer, keeping its capacity.
func (b *Buffer) Clear() {
	b.elements = b.elements[:0]
}

// Sort orders the elements with less.
func (b *Buffer) Sort(less func(a, b Element) bool) {
	sort.Slice(b.elements, func(i, j int) bool {
		return less(b.elements[i], b.elements[j])
	})
}

// All iterates over the elements in buffer order.
func (b *Buffer) All() iter.Seq2[int, Element] {
	return func(yield func(int, Element) bool) {
		for i, e := range b.elements {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Elements returns a copy of the elements.
func (b *Buffer) Elements() []Element {
	out := make([]Element, len(b.elements))
	copy(out, b.elements)
	return out
}
