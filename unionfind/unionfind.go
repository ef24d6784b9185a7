// Package unionfind implements a weighted quick-union disjoint-set
// structure with path compression over integer element ids in [0, N).
package unionfind

// UnionFind tracks a partition of [0, N) supporting near-constant-time
// find/union. The zero value is not usable; use New.
type UnionFind struct {
	parent []int
	size   []int
	n      int // n_components
}

// New creates a UnionFind over n elements, each initially its own
// singleton component.
func New(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		size:   make([]int, n),
		n:      n,
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Len returns the number of elements tracked.
func (uf *UnionFind) Len() int {
	return len(uf.parent)
}

// Contains reports whether x is a tracked element.
func (uf *UnionFind) Contains(x int) bool {
	return x >= 0 && x < len(uf.parent)
}

// Add grows the structure so that x is a tracked singleton component, if it
// is not already tracked. Existing elements are unaffected.
func (uf *UnionFind) Add(x int) {
	if uf.Contains(x) {
		return
	}
	for i := len(uf.parent); i <= x; i++ {
		uf.parent = append(uf.parent, i)
		uf.size = append(uf.size, 1)
		uf.n++
	}
}

// Find returns the representative (root) of x's component, compressing the
// path from x to the root as it walks up.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	// path compression: point every visited node directly at root.
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

// Union merges the components containing x and y, attaching the smaller
// component under the root of the larger one. Returns true if a merge
// happened (x and y were in different components).
func (uf *UnionFind) Union(x, y int) bool {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	uf.n--
	return true
}

// Connected reports whether x and y are in the same component.
func (uf *UnionFind) Connected(x, y int) bool {
	return uf.Find(x) == uf.Find(y)
}

// NumComponents returns the current number of distinct components.
func (uf *UnionFind) NumComponents() int {
	return uf.n
}

// Component returns the set of elements sharing x's root.
func (uf *UnionFind) Component(x int) []int {
	root := uf.Find(x)
	var out []int
	for i := range uf.parent {
		if uf.Find(i) == root {
			out = append(out, i)
		}
	}
	return out
}

// Components partitions all tracked elements into their components, one
// pass mapping each element to its root then grouping by root, as required
// by the O(N) complexity contract.
func (uf *UnionFind) Components() [][]int {
	byRoot := make(map[int][]int, uf.n)
	order := make([]int, 0, uf.n)
	for i := range uf.parent {
		root := uf.Find(i)
		if _, ok := byRoot[root]; !ok {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}
	out := make([][]int, 0, len(order))
	for _, root := range order {
		out = append(out, byRoot[root])
	}
	return out
}

// ComponentMapping returns a map from every tracked element to the slice of
// elements in its component (shared slice value per component).
func (uf *UnionFind) ComponentMapping() map[int][]int {
	comps := uf.Components()
	out := make(map[int][]int, len(uf.parent))
	for _, c := range comps {
		for _, e := range c {
			out[e] = c
		}
	}
	return out
}
