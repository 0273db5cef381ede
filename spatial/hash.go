// Package spatial indexes points in a uniform hashed grid for box queries.
package spatial

import (
	"math"

	"github.com/akmonengine/narrowphase/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"
)

// CellKey - integer coordinates of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Hash is a uniform grid of cells folded into a power-of-two bucket table.
// Each point lives in exactly one bucket. Queries are read-only and may run
// concurrently once the hash is built.
type Hash struct {
	cellSize float64
	buckets  [][]int
	mask     int
	points   []mgl64.Vec3
}

// NewHash creates a hash with cells of cellSize and at least numCells buckets.
func NewHash(cellSize float64, numCells int) *Hash {
	numCells = nextPowerOfTwo(numCells)

	buckets := make([][]int, numCells)
	for i := range buckets {
		buckets[i] = make([]int, 0, 8)
	}

	return &Hash{
		cellSize: sanitizeCellSize(cellSize),
		buckets:  buckets,
		mask:     numCells - 1,
	}
}

// nextPowerOfTwo rounds n up to a power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}

func sanitizeCellSize(size float64) float64 {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return 1
	}
	return size
}

// CellSize returns the edge length of a grid cell.
func (h *Hash) CellSize() float64 {
	return h.cellSize
}

// SetCellSize changes the cell size. Points must be inserted again afterwards.
func (h *Hash) SetCellSize(size float64) {
	h.cellSize = sanitizeCellSize(size)
	h.Clear()
}

// Clear removes every point, keeping bucket capacity.
func (h *Hash) Clear() {
	for i := range h.buckets {
		h.buckets[i] = h.buckets[i][:0]
	}
	h.points = h.points[:0]
}

// InsertPoints clears the hash and indexes points by their slice index.
func (h *Hash) InsertPoints(points []mgl64.Vec3) {
	h.Clear()
	h.points = append(h.points, points...)
	for id, p := range points {
		idx := h.hashCell(h.worldToCell(p))
		h.buckets[idx] = append(h.buckets[idx], id)
	}
}

// Len returns the number of indexed points.
func (h *Hash) Len() int {
	return len(h.points)
}

// PointsInAABB appends to dst the ids of every indexed point inside box. Each id is
// reported once.
func (h *Hash) PointsInAABB(box geometry.AABB, dst []int) []int {
	minCell := h.worldToCell(box.Min)
	maxCell := h.worldToCell(box.Max)

	spanX := int64(maxCell.X - minCell.X + 1)
	spanY := int64(maxCell.Y - minCell.Y + 1)
	spanZ := int64(maxCell.Z - minCell.Z + 1)
	if spanX*spanY*spanZ >= int64(len(h.buckets)) {
		// the box covers more cells than there are buckets: scan every bucket once
		for _, bucket := range h.buckets {
			dst = h.appendInside(bucket, box, dst)
		}
		return dst
	}

	// distinct cells may fold onto the same bucket; visit each bucket once
	var visitedBuf [32]int
	visited := visitedBuf[:0]
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				idx := h.hashCell(CellKey{x, y, z})
				if containsInt(visited, idx) {
					continue
				}
				visited = append(visited, idx)
				dst = h.appendInside(h.buckets[idx], box, dst)
			}
		}
	}
	return dst
}

func (h *Hash) appendInside(bucket []int, box geometry.AABB, dst []int) []int {
	for _, id := range bucket {
		if box.ContainsPoint(h.points[id]) {
			dst = append(dst, id)
		}
	}
	return dst
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func (h *Hash) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / h.cellSize)),
		Y: int(math.Floor(pos.Y() / h.cellSize)),
		Z: int(math.Floor(pos.Z() / h.cellSize)),
	}
}

func (h *Hash) hashCell(key CellKey) int {
	const (
		p1 = 73856093
		p2 = 19349663
		p3 = 83492791
	)
	hash := (key.X * p1) ^ (key.Y * p2) ^ (key.Z * p3)
	return hash & h.mask
}

// SuggestCellSize returns the mean of the largest extent of each box, so that a typical
// box overlaps a handful of cells. Empty input yields 1.
func SuggestCellSize(boxes []geometry.AABB) float64 {
	if len(boxes) == 0 {
		return 1
	}
	extents := make([]float64, len(boxes))
	for i, box := range boxes {
		size := box.Size()
		extents[i] = math.Max(size.X(), math.Max(size.Y(), size.Z()))
	}
	return sanitizeCellSize(stat.Mean(extents, nil))
}
