package index

import (
	"sort"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph/core"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/multiset"
)

type msetHistoryEntry struct {
	kind msetHistoryKind
	key  ids.ClassId
}

type msetHistoryKind int

const (
	historyTerm msetHistoryKind = iota // picked which stored term to descend into
	historyArg                         // removed one element from the working multiset
	historyEclass                      // picked the e-class candidate for the selected children
)

// MultisetIndex walks an associative-commutative relation's term bank. A
// single instance is shared by every query variable a matched AC constraint
// mentions: its term-id variable, exactly argCount argument variables, and
// its e-class variable, visited in that order as the query engine descends
// through variables in ascending id order (the compiler always allocates
// the term-id variable before an AC operator's children, and the e-class
// variable after all of them).
//
// argCount is fixed by the pattern being matched, not by the size of
// whichever stored term ends up selected: a linear AC pattern with k
// children matches any k-of-n sub-selection of a stored n-ary term's
// argument multiset, not only terms of size exactly k. When k is smaller
// than the selected term's size, the selected children denote a sub-term
// that may never have been given its own e-class -- see
// core.Handle.LookupOrEphemeral, which this index calls at the final level
// to resolve (or mint) one.
type MultisetIndex struct {
	terms   map[ids.TermId]*multiset.Multiset
	classOf map[ids.TermId]ids.ClassId
	termIDs []ids.TermId

	op       ids.Symbol
	handle   core.Handle
	argCount int

	selectedTerm ids.TermId
	current      *multiset.Multiset
	selected     []ids.ClassId // arguments committed so far, in selection order
	history      []msetHistoryEntry
}

// NewMultisetIndex builds an index over terms for a constraint on operator
// op that expects exactly argCount argument selects before yielding an
// e-class candidate. classOf gives each term's owning e-class id; handle is
// used to resolve (or mint) an e-class for a partial sub-selection.
func NewMultisetIndex(terms map[ids.TermId]*multiset.Multiset, classOf map[ids.TermId]ids.ClassId, op ids.Symbol, argCount int, handle core.Handle) *MultisetIndex {
	termIDs := make([]ids.TermId, 0, len(terms))
	for t := range terms {
		termIDs = append(termIDs, t)
	}
	sort.Slice(termIDs, func(i, j int) bool { return termIDs[i] < termIDs[j] })
	return &MultisetIndex{
		terms:    terms,
		classOf:  classOf,
		termIDs:  termIDs,
		op:       op,
		argCount: argCount,
		handle:   handle,
	}
}

// Reset returns the cursor to the unselected (term-choosing) level.
func (m *MultisetIndex) Reset() {
	m.current = nil
	m.selected = m.selected[:0]
	m.history = m.history[:0]
}

// Project returns the candidates for the next Select: term ids if no term
// has been picked yet, remaining multiset elements while fewer than
// argCount arguments have been committed, or the singleton e-class id that
// denotes the committed argument selection once argCount has been reached.
func (m *MultisetIndex) Project() []ids.ClassId {
	if m.current == nil {
		out := make([]ids.ClassId, len(m.termIDs))
		for i, t := range m.termIDs {
			out[i] = ids.ClassId(t)
		}
		return out
	}
	if len(m.selected) < m.argCount {
		// The candidate set, not the bag: an id with count 3 is still one
		// candidate for this variable. Multiplicity matters only across
		// successive selects, which Remove/InsertOne already account for.
		out := make([]ids.ClassId, 0, m.current.UniqueSize())
		m.current.ForEach(func(id ids.ClassId, _ uint32) {
			out = append(out, id)
		})
		return out
	}
	return []ids.ClassId{m.resolveEclass()}
}

// resolveEclass returns the e-class denoting the committed selection. When
// the selection is exactly the selected term's own multiset, this agrees
// with classOf[selectedTerm] via a direct memo lookup; otherwise it asks
// the handle for an ephemeral stand-in.
func (m *MultisetIndex) resolveEclass() ids.ClassId {
	sorted := append([]ids.ClassId(nil), m.selected...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return m.handle.LookupOrEphemeral(m.op, sorted)
}

// Select commits to key at the current level.
func (m *MultisetIndex) Select(key ids.ClassId) {
	if m.current == nil {
		m.selectedTerm = ids.TermId(key)
		m.current = m.terms[m.selectedTerm].Clone()
		m.history = append(m.history, msetHistoryEntry{kind: historyTerm})
		return
	}
	if len(m.selected) < m.argCount {
		m.current.Remove(key)
		m.selected = append(m.selected, key)
		m.history = append(m.history, msetHistoryEntry{kind: historyArg, key: key})
		return
	}
	m.history = append(m.history, msetHistoryEntry{kind: historyEclass})
}

// Unselect undoes the most recent Select.
func (m *MultisetIndex) Unselect() {
	n := len(m.history)
	last := m.history[n-1]
	m.history = m.history[:n-1]

	switch last.kind {
	case historyEclass:
		// nothing was mutated; the candidate was computed, not stored
	case historyArg:
		m.current.InsertOne(last.key)
		m.selected = m.selected[:len(m.selected)-1]
	case historyTerm:
		m.current = nil
		m.selected = m.selected[:0]
	}
}
