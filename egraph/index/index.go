// Package index implements the two index kinds the query engine matches
// against: a TrieIndex over RowStore's flat tuples and a MultisetIndex over
// an AC relation's term bank.
package index

import "github.com/tr00/eqsat-mod-ac-sub000/ids"

// Kind tags which variant an Index holds.
type Kind int

const (
	KindTrie Kind = iota
	KindMultiset
)

// Index is a closed sum over the two index kinds the query engine needs:
// exactly TrieIndex and MultisetIndex, dispatched with an inline switch
// rather than an open interface hierarchy, mirroring relation.Relation.
type Index struct {
	kind     Kind
	trie     *TrieIndex
	multiset *MultisetIndex
}

// FromTrie wraps a TrieIndex.
func FromTrie(t *TrieIndex) Index {
	return Index{kind: KindTrie, trie: t}
}

// FromMultiset wraps a MultisetIndex.
func FromMultiset(m *MultisetIndex) Index {
	return Index{kind: KindMultiset, multiset: m}
}

// Project returns the current level's candidate values.
func (idx *Index) Project() []ids.ClassId {
	switch idx.kind {
	case KindTrie:
		return idx.trie.Project()
	case KindMultiset:
		return idx.multiset.Project()
	default:
		panic("index: unhandled kind in Project")
	}
}

// Select commits to key at the current level.
func (idx *Index) Select(key ids.ClassId) {
	switch idx.kind {
	case KindTrie:
		idx.trie.Select(key)
	case KindMultiset:
		idx.multiset.Select(key)
	default:
		panic("index: unhandled kind in Select")
	}
}

// Unselect undoes the most recent Select.
func (idx *Index) Unselect() {
	switch idx.kind {
	case KindTrie:
		idx.trie.Unselect()
	case KindMultiset:
		idx.multiset.Unselect()
	default:
		panic("index: unhandled kind in Unselect")
	}
}

// Reset returns the cursor to its initial, nothing-selected state.
func (idx *Index) Reset() {
	switch idx.kind {
	case KindTrie:
		idx.trie.Reset()
	case KindMultiset:
		idx.multiset.Reset()
	default:
		panic("index: unhandled kind in Reset")
	}
}
