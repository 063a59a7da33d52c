package relation

import (
	"io"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph/core"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/index"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
)

// Kind tags which variant a Relation holds.
type Kind int

const (
	KindRowStore Kind = iota
	KindAC
)

// Relation is a closed sum over the two relation kinds a term bank needs:
// exactly RowStore and RelationAC. No third kind is ever introduced, so a
// tagged struct with inline switches replaces an open interface hierarchy
// (and the per-call virtual dispatch that would come with one).
type Relation struct {
	kind     Kind
	rowStore *RowStore
	ac       *RelationAC
}

// FromRowStore wraps a RowStore.
func FromRowStore(r *RowStore) Relation {
	return Relation{kind: KindRowStore, rowStore: r}
}

// FromRelationAC wraps a RelationAC.
func FromRelationAC(r *RelationAC) Relation {
	return Relation{kind: KindAC, ac: r}
}

// IsAC reports whether the relation backs an associative-commutative
// operator.
func (r *Relation) IsAC() bool {
	return r.kind == KindAC
}

// Symbol returns the relation's operator.
func (r *Relation) Symbol() ids.Symbol {
	switch r.kind {
	case KindRowStore:
		return r.rowStore.Symbol()
	case KindAC:
		return r.ac.Symbol()
	default:
		panic("relation: unhandled kind in Symbol")
	}
}

// Size returns the number of stored tuples or terms.
func (r *Relation) Size() int {
	switch r.kind {
	case KindRowStore:
		return r.rowStore.Size()
	case KindAC:
		return r.ac.Size()
	default:
		panic("relation: unhandled kind in Size")
	}
}

// AddTuple stores tuple (children then e-class id).
func (r *Relation) AddTuple(h core.Handle, tuple []ids.ClassId) error {
	switch r.kind {
	case KindRowStore:
		return r.rowStore.AddTuple(h, tuple)
	case KindAC:
		return r.ac.AddTuple(h, tuple)
	default:
		panic("relation: unhandled kind in AddTuple")
	}
}

// PopulateIndex builds a fresh index over the relation's current contents.
// argCount is only meaningful for an AC relation: the number of argument
// selects the calling constraint expects before yielding an e-class
// candidate (see RelationAC.PopulateIndex); a RowStore ignores it.
func (r *Relation) PopulateIndex(h core.Handle, perm []int, argCount int) index.Index {
	switch r.kind {
	case KindRowStore:
		return r.rowStore.PopulateIndex(h, perm, argCount)
	case KindAC:
		return r.ac.PopulateIndex(h, perm, argCount)
	default:
		panic("relation: unhandled kind in PopulateIndex")
	}
}

// Rebuild canonicalizes and merges, reporting whether anything changed.
func (r *Relation) Rebuild(h core.Handle) bool {
	switch r.kind {
	case KindRowStore:
		return r.rowStore.Rebuild(h)
	case KindAC:
		return r.ac.Rebuild(h)
	default:
		panic("relation: unhandled kind in Rebuild")
	}
}

// DumpMemo calls f once per stored tuple/term with its (operator, children,
// class id), used to rebuild the e-graph's memo from scratch after a
// rebuild pass.
func (r *Relation) DumpMemo(f func(op ids.Symbol, children []ids.ClassId, class ids.ClassId)) {
	switch r.kind {
	case KindRowStore:
		r.rowStore.DumpMemo(f)
	case KindAC:
		r.ac.DumpMemo(f)
	default:
		panic("relation: unhandled kind in DumpMemo")
	}
}

// Dump writes a deterministic textual rendering of the relation.
func (r *Relation) Dump(w io.Writer, symbols *symtab.Table) {
	switch r.kind {
	case KindRowStore:
		r.rowStore.Dump(w, symbols)
	case KindAC:
		r.ac.Dump(w, symbols)
	default:
		panic("relation: unhandled kind in Dump")
	}
}
