// Package kdtree implements an unbalanced k-d tree over fixed-dimension
// float64 points, used by the vector store as an approximate
// nearest-neighbor index. It stores the owning record's external index
// alongside each point, not the record itself — the tree is a weak
// reference into the store (see internal/engine/store).
//
// The tree supports insert and nearest-neighbor query only. It never
// removes nodes: see store.go for why deletes and updates leave stale
// nodes behind, and how Load rebuilds the tree from scratch to bound
// the staleness.
package kdtree

import "math"

// Node is a single k-d tree node: a copy of the inserted point, the
// external index it was inserted under, and its two children.
type Node struct {
	Point []float64
	Index int
	Left  *Node
	Right *Node
}

// Tree is an unbalanced k-d tree of fixed dimension Dim. The splitting
// axis at depth h is h mod Dim.
type Tree struct {
	Root *Node
	Dim  int
}

// New returns an empty tree over points of the given dimension.
func New(dim int) *Tree {
	return &Tree{Dim: dim}
}

// Insert copies point into the tree under the given external index.
// Descent: at depth h with axis a = h mod Dim, point[a] < node.Point[a]
// goes left, otherwise right (ties go right).
func (t *Tree) Insert(point []float64, index int) {
	cp := make([]float64, len(point))
	copy(cp, point)
	t.Root = insert(t.Root, cp, index, 0, t.Dim)
}

func insert(node *Node, point []float64, index, depth, dim int) *Node {
	if node == nil {
		return &Node{Point: point, Index: index}
	}

	axis := depth % dim
	if point[axis] < node.Point[axis] {
		node.Left = insert(node.Left, point, index, depth+1, dim)
	} else {
		node.Right = insert(node.Right, point, index, depth+1, dim)
	}
	return node
}

// Nearest returns the external index of the stored point minimizing
// squared Euclidean distance to query, or ok=false if the tree is empty.
func (t *Tree) Nearest(query []float64) (index int, ok bool) {
	if t.Root == nil {
		return 0, false
	}

	var best *Node
	bestDist := math.Inf(1)
	nearest(t.Root, query, &best, &bestDist, 0, t.Dim)
	if best == nil {
		return 0, false
	}
	return best.Index, true
}

func nearest(node *Node, target []float64, best **Node, bestDist *float64, depth, dim int) {
	if node == nil {
		return
	}

	dist := distanceSquared(node.Point, target, dim)
	if dist < *bestDist {
		*bestDist = dist
		*best = node
	}

	axis := depth % dim
	delta := target[axis] - node.Point[axis]

	near, far := node.Left, node.Right
	if delta >= 0 {
		near, far = node.Right, node.Left
	}

	nearest(near, target, best, bestDist, depth+1, dim)
	if delta*delta < *bestDist {
		nearest(far, target, best, bestDist, depth+1, dim)
	}
}

func distanceSquared(a, b []float64, dim int) float64 {
	var sum float64
	for i := 0; i < dim; i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
