// Package unionfind implements a disjoint-set over e-class ids with path
// halving and deterministic "smaller id wins" merging.
//
// No union-by-rank or union-by-size is performed. The saturation workloads
// this engine targets create ids in roughly dependency order (children
// before parents, earlier rules before later ones), so keeping the smaller
// id as root after every unify tends to produce short, stable trees on its
// own, and makes Find a deterministic function of the history of Unify
// calls -- which the saturation driver relies on for reproducible dumps.
package unionfind

import (
	"sort"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

// UnionFind is a disjoint-set over ids.ClassId. The zero value is an empty
// union-find with no classes; use New for clarity at call sites.
type UnionFind struct {
	parent   []ids.ClassId
	nclasses int
}

// New returns an empty union-find.
func New() *UnionFind {
	return &UnionFind{}
}

// Make allocates a fresh singleton class and returns its id.
func (uf *UnionFind) Make() ids.ClassId {
	id := ids.ClassId(len(uf.parent))
	uf.parent = append(uf.parent, id)
	uf.nclasses++
	return id
}

// Find returns the canonical representative of id's class, halving the path
// to the root as it walks. id must have been returned by a previous call to
// Make (or be reachable through Unify of such ids); an out-of-range id is a
// programming error and panics, matching the "indices outside the allocated
// range are a programming error" failure model.
func (uf *UnionFind) Find(id ids.ClassId) ids.ClassId {
	// Quick check: most lookups in a freshly-rebuilt e-graph already hit a
	// canonical id, so this short-circuits the common case before touching
	// the path-halving loop.
	if uf.parent[id] == id {
		return id
	}
	for uf.parent[id] != id {
		uf.parent[id] = uf.parent[uf.parent[id]]
		id = uf.parent[id]
	}
	return id
}

// Unify merges the classes of a and b, returning the surviving root. The
// smaller of the two roots always survives. It is a no-op (and returns the
// shared root) if a and b are already equivalent.
func (uf *UnionFind) Unify(a, b ids.ClassId) ids.ClassId {
	rootA := uf.Find(a)
	rootB := uf.Find(b)

	if rootA == rootB {
		return rootA
	}

	if rootA > rootB {
		rootA, rootB = rootB, rootA
	}

	uf.parent[rootB] = rootA
	uf.nclasses--
	return rootA
}

// Equiv reports whether a and b belong to the same class.
func (uf *UnionFind) Equiv(a, b ids.ClassId) bool {
	return uf.Find(a) == uf.Find(b)
}

// Size returns the number of ids ever allocated by Make (not the number of
// distinct classes remaining after unification).
func (uf *UnionFind) Size() int {
	return len(uf.parent)
}

// NumClasses returns the current number of distinct classes.
func (uf *UnionFind) NumClasses() int {
	return uf.nclasses
}

// Normalize fully compresses every path to its root in one pass, useful
// before a deterministic dump.
func (uf *UnionFind) Normalize() {
	for i := range uf.parent {
		uf.parent[i] = uf.parent[uf.parent[i]]
	}
}

// Classes groups every allocated id by its current root, for dump output.
// Roots are returned in ascending order, and members of each class are in
// ascending order as well.
func (uf *UnionFind) Classes() (roots []ids.ClassId, members map[ids.ClassId][]ids.ClassId) {
	members = make(map[ids.ClassId][]ids.ClassId)
	for i := 0; i < len(uf.parent); i++ {
		id := ids.ClassId(i)
		root := uf.Find(id)
		members[root] = append(members[root], id)
	}
	roots = make([]ids.ClassId, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots, members
}
