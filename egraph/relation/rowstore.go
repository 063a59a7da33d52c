// Package relation implements the two storage kinds the term bank uses: a
// flat RowStore for ordinary operators and a multiset-keyed RelationAC for
// associative-commutative ones.
package relation

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph/core"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/index"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
)

// RowStore is a dense, row-major relation for a non-AC operator: each tuple
// is arity child ids followed by the e-class id of the e-node they denote.
type RowStore struct {
	symbol ids.Symbol
	arity  int // includes the trailing class-id column
	data   []ids.ClassId
}

// NewRowStore returns an empty RowStore for symbol, where arity is the
// operator's argument count plus one for the class-id column.
func NewRowStore(symbol ids.Symbol, arity int) *RowStore {
	return &RowStore{symbol: symbol, arity: arity}
}

// Symbol returns the relation's operator.
func (r *RowStore) Symbol() ids.Symbol { return r.symbol }

// IsAC reports false: RowStore never backs an AC operator.
func (r *RowStore) IsAC() bool { return false }

// Size returns the number of stored tuples.
func (r *RowStore) Size() int {
	if r.arity == 0 {
		return 0
	}
	return len(r.data) / r.arity
}

func (r *RowStore) tuple(i int) []ids.ClassId {
	return r.data[i*r.arity : (i+1)*r.arity]
}

// AddTuple appends tuple, which must have exactly arity elements (operands
// followed by the e-class id).
func (r *RowStore) AddTuple(_ core.Handle, tuple []ids.ClassId) error {
	if len(tuple) != r.arity {
		return errors.Errorf("relation: tuple has %d elements, relation %d has arity %d", len(tuple), r.symbol, r.arity)
	}
	r.data = append(r.data, tuple...)
	return nil
}

// PopulateIndex builds a fresh TrieIndex over the relation's current
// tuples, with columns reordered by perm (perm[i] gives the sorted rank of
// column i, matching compiler.Constraint.Permutation). h and argCount are
// unused: a RowStore tuple's trailing column already is the real e-class
// id, so no ephemeral resolution is ever needed here.
func (r *RowStore) PopulateIndex(_ core.Handle, perm []int, _ int) index.Index {
	root := index.NewTrieNode()
	buf := make([]ids.ClassId, r.arity)
	for i := 0; i < r.Size(); i++ {
		t := r.tuple(i)
		for col, rank := range perm {
			buf[rank] = t[col]
		}
		root.InsertPath(buf)
	}
	return index.FromTrie(index.NewTrieIndex(root))
}

// Rebuild canonicalizes every id in place, then merges tuples that agree on
// every argument column but disagree on their class-id column (a congruent
// pair discovered by this saturation pass), reporting whether anything
// changed.
func (r *RowStore) Rebuild(h core.Handle) bool {
	changed := false
	for i := range r.data {
		canon := h.Find(r.data[i])
		if canon != r.data[i] {
			r.data[i] = canon
			changed = true
		}
	}

	if r.arity <= 1 || r.Size() <= 1 {
		return changed
	}

	argCols := r.arity - 1
	n := r.Size()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ta, tb := r.tuple(idx[a]), r.tuple(idx[b])
		for c := 0; c < argCols; c++ {
			if ta[c] != tb[c] {
				return ta[c] < tb[c]
			}
		}
		return false
	})

	sorted := make([]ids.ClassId, 0, len(r.data))
	for _, i := range idx {
		sorted = append(sorted, r.tuple(i)...)
	}
	r.data = sorted

	for i := 0; i+1 < n; i++ {
		t1 := r.tuple(i)
		t2 := r.tuple(i + 1)

		sameArgs := true
		for c := 0; c < argCols; c++ {
			if t1[c] != t2[c] {
				sameArgs = false
				break
			}
		}
		if !sameArgs {
			continue
		}

		id1, id2 := t1[argCols], t2[argCols]
		if id1 == id2 {
			continue
		}

		newID := h.Unify(id1, id2)
		t1[argCols] = newID
		t2[argCols] = newID
		changed = true
	}

	r.deduplicate()
	return changed
}

func (r *RowStore) deduplicate() {
	n := r.Size()
	if n <= 1 {
		return
	}

	writeIdx := 0
	for readIdx := 1; readIdx < n; readIdx++ {
		current := r.tuple(writeIdx)
		candidate := r.tuple(readIdx)

		dup := true
		for c := 0; c < r.arity; c++ {
			if current[c] != candidate[c] {
				dup = false
				break
			}
		}
		if !dup {
			writeIdx++
			copy(r.tuple(writeIdx), candidate)
		}
	}
	r.data = r.data[:(writeIdx+1)*r.arity]
}

// DumpMemo calls f once per stored tuple with its (operator, argument
// columns, class-id column), used to rebuild the e-graph's memo from
// scratch after a rebuild pass.
func (r *RowStore) DumpMemo(f func(op ids.Symbol, children []ids.ClassId, class ids.ClassId)) {
	argCols := r.arity - 1
	for i := 0; i < r.Size(); i++ {
		t := r.tuple(i)
		f(r.symbol, append([]ids.ClassId(nil), t[:argCols]...), t[argCols])
	}
}

// Dump writes a deterministic textual rendering of the relation.
func (r *RowStore) Dump(w io.Writer, symbols *symtab.Table) {
	argCols := r.arity - 1
	fmt.Fprintf(w, "---- %s(%d) with %d tuples ----\n", symbols.String(r.symbol), argCols, r.Size())
	for i := 0; i < r.Size(); i++ {
		t := r.tuple(i)
		fmt.Fprintf(w, "eclass-id: %d", t[argCols])
		if argCols > 0 {
			fmt.Fprint(w, "  args: ")
			for c := 0; c < argCols; c++ {
				if c > 0 {
					fmt.Fprint(w, ", ")
				}
				fmt.Fprintf(w, "%d", t[c])
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
