package relation

import (
	"fmt"
	"io"
	"sort"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph/core"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/index"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
	"github.com/tr00/eqsat-mod-ac-sub000/multiset"
)

// RelationAC stores an associative-commutative operator's applications as
// a term bank: each stored term has a TermId, the e-class id of the e-node
// it denotes, and the multiset of its argument class ids.
type RelationAC struct {
	symbol  ids.Symbol
	data    map[ids.TermId]*multiset.Multiset
	classOf map[ids.TermId]ids.ClassId
	nextID  ids.TermId
}

// NewRelationAC returns an empty AC relation for symbol.
func NewRelationAC(symbol ids.Symbol) *RelationAC {
	return &RelationAC{
		symbol:  symbol,
		data:    make(map[ids.TermId]*multiset.Multiset),
		classOf: make(map[ids.TermId]ids.ClassId),
	}
}

// Symbol returns the relation's operator.
func (r *RelationAC) Symbol() ids.Symbol { return r.symbol }

// IsAC reports true: RelationAC only ever backs AC operators.
func (r *RelationAC) IsAC() bool { return true }

// Size returns the number of stored terms.
func (r *RelationAC) Size() int { return len(r.data) }

// AddTuple stores tuple's trailing element as the class id and the rest as
// the argument multiset, then runs decomposition hoisting (see
// addTermWithMultiset).
func (r *RelationAC) AddTuple(h core.Handle, tuple []ids.ClassId) error {
	eclass := tuple[len(tuple)-1]
	mset := multiset.FromSlice(tuple[:len(tuple)-1])
	r.addTermWithMultiset(h, eclass, mset)
	return nil
}

// addTermWithMultiset inserts (eclass, mset) as a new term and, whenever an
// existing term's multiset strictly includes mset (or vice versa),
// synthesizes and stores the multiset difference as a derived sub-term --
// so that common AC sub-structure between an old and a newly-inserted term
// becomes visible to congruence. For example, inserting z:{a, b} while
// x:{a, b, c, d} already exists also derives x':{z, c, d}, registered in the
// memo as denoting the same e-class as x.
func (r *RelationAC) addTermWithMultiset(h core.Handle, eclass ids.ClassId, mset *multiset.Multiset) {
	type hoisted struct {
		class ids.ClassId
		mset  *multiset.Multiset
	}
	var worklist []hoisted

	// Existing terms are scanned in TermId order so the hoisted terms below
	// are numbered the same way on every run with the same input.
	existing := make([]ids.TermId, 0, len(r.data))
	for term := range r.data {
		existing = append(existing, term)
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i] < existing[j] })

	for _, otherTerm := range existing {
		otherMset := r.data[otherTerm]
		if !otherMset.Includes(mset) {
			continue
		}
		diff := otherMset.Msetdiff(mset)
		if diff.Size() == 0 {
			continue
		}
		diff.InsertOne(eclass)
		worklist = append(worklist, hoisted{class: r.classOf[otherTerm], mset: diff})
	}

	for _, otherTerm := range existing {
		otherMset := r.data[otherTerm]
		if !mset.Includes(otherMset) {
			continue
		}
		diff := mset.Msetdiff(otherMset)
		if diff.Size() == 0 {
			continue
		}
		diff.InsertOne(r.classOf[otherTerm])
		worklist = append(worklist, hoisted{class: eclass, mset: diff})
	}

	for _, w := range worklist {
		termID := r.nextID
		r.nextID++
		r.data[termID] = w.mset
		r.classOf[termID] = w.class
		h.AddENodeToMemo(w.class, r.symbol, w.mset.Collect())
	}

	termID := r.nextID
	r.nextID++
	r.data[termID] = mset
	r.classOf[termID] = eclass
}

// PopulateIndex builds a fresh MultisetIndex over the relation's current
// terms, for a constraint that expects argCount argument selects before
// yielding an e-class candidate. perm is unused: AC arguments carry no
// position, so there is no column order to permute.
func (r *RelationAC) PopulateIndex(h core.Handle, _ []int, argCount int) index.Index {
	return index.FromMultiset(index.NewMultisetIndex(r.data, r.classOf, r.symbol, argCount, h))
}

// Rebuild canonicalizes every term's multiset and merges terms that become
// equal by congruence (same canonicalized multiset), reporting whether
// anything actually changed. Unlike a naive "always report progress"
// rebuild, this lets the saturation driver's fixpoint check converge on real
// stability (see DESIGN.md's resolution of the AC-rebuild-termination open
// question).
func (r *RelationAC) Rebuild(h core.Handle) bool {
	changed := false

	type bucketEntry struct {
		term ids.TermId
		mset *multiset.Multiset
	}
	buckets := make(map[uint64][]bucketEntry)
	var keep []ids.TermId

	// Walk terms in TermId order: map iteration order would make the
	// renumbering below (and with it every later dump) differ from run to
	// run on identical input.
	terms := make([]ids.TermId, 0, len(r.data))
	for term := range r.data {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i] < terms[j] })

	for _, term := range terms {
		mset := r.data[term]
		if mset.Map(h.Find) {
			changed = true
		}

		hash := mset.Hash()
		dup := false
		for _, b := range buckets[hash] {
			if b.mset.Equal(mset) {
				dup = true
				otherClass := r.classOf[b.term]
				thisClass := r.classOf[term]
				if otherClass != thisClass {
					h.Unify(otherClass, thisClass)
					changed = true
				}
				break
			}
		}
		if dup {
			continue
		}
		buckets[hash] = append(buckets[hash], bucketEntry{term: term, mset: mset})
		keep = append(keep, term)
	}

	newData := make(map[ids.TermId]*multiset.Multiset, len(keep))
	newClassOf := make(map[ids.TermId]ids.ClassId, len(keep))
	var nextID ids.TermId
	for _, old := range keep {
		newData[nextID] = r.data[old]
		newClassOf[nextID] = h.Find(r.classOf[old])
		nextID++
	}
	r.data = newData
	r.classOf = newClassOf
	r.nextID = nextID

	return changed
}

// DumpMemo calls f once per stored term with its (operator, sorted
// argument multiset, class id), used to rebuild the e-graph's memo from
// scratch after a rebuild pass.
func (r *RelationAC) DumpMemo(f func(op ids.Symbol, children []ids.ClassId, class ids.ClassId)) {
	for term, mset := range r.data {
		f(r.symbol, mset.Collect(), r.classOf[term])
	}
}

// Dump writes a deterministic textual rendering of the relation.
func (r *RelationAC) Dump(w io.Writer, symbols *symtab.Table) {
	fmt.Fprintf(w, "---- %s(AC) with %d terms ----\n", symbols.String(r.symbol), r.Size())
	for term := ids.TermId(0); term < r.nextID; term++ {
		mset, ok := r.data[term]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "eclass-id: %d  term-id:%d  mset: {", r.classOf[term], term)
		first := true
		mset.ForEach(func(id ids.ClassId, count uint32) {
			if !first {
				fmt.Fprint(w, ", ")
			}
			first = false
			fmt.Fprintf(w, "%d", id)
			if count > 1 {
				fmt.Fprintf(w, "^%d", count)
			}
		})
		fmt.Fprintln(w, "}")
	}
	fmt.Fprintln(w)
}
