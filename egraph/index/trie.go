package index

import (
	"sort"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

// TrieNode is one level of a column-major trie over tuples: each distinct
// value seen in this column has a sorted slot and a child subtrie for the
// remaining columns.
type TrieNode struct {
	keys     []ids.ClassId
	children []*TrieNode
}

// NewTrieNode returns an empty trie node.
func NewTrieNode() *TrieNode {
	return &TrieNode{}
}

func (n *TrieNode) findKeyIndex(key ids.ClassId) int {
	i := sort.Search(len(n.keys), func(i int) bool { return n.keys[i] >= key })
	if i < len(n.keys) && n.keys[i] == key {
		return i
	}
	return -1
}

// InsertPath inserts a full tuple (already permuted into this trie's column
// order), creating intermediate nodes as needed.
func (n *TrieNode) InsertPath(path []ids.ClassId) {
	current := n
	for _, key := range path {
		idx := current.findKeyIndex(key)
		if idx != -1 {
			current = current.children[idx]
			continue
		}

		insertAt := sort.Search(len(current.keys), func(i int) bool { return current.keys[i] >= key })

		current.keys = append(current.keys, 0)
		copy(current.keys[insertAt+1:], current.keys[insertAt:])
		current.keys[insertAt] = key

		child := NewTrieNode()
		current.children = append(current.children, nil)
		copy(current.children[insertAt+1:], current.children[insertAt:])
		current.children[insertAt] = child

		current = child
	}
}

// TrieIndex walks a TrieNode tree one column at a time: Select descends
// into the child keyed by the chosen value, Unselect climbs back out.
type TrieIndex struct {
	root    *TrieNode
	current *TrieNode
	parents []*TrieNode
}

// NewTrieIndex returns an index rooted at root, positioned at the root.
func NewTrieIndex(root *TrieNode) *TrieIndex {
	return &TrieIndex{root: root, current: root}
}

// Reset returns the cursor to the root with an empty backtracking stack.
func (t *TrieIndex) Reset() {
	t.current = t.root
	t.parents = t.parents[:0]
}

// Project returns the candidate values at the current column.
func (t *TrieIndex) Project() []ids.ClassId {
	return t.current.keys
}

// Select descends into the child keyed by key. key must be one of the
// values returned by the most recent Project call.
func (t *TrieIndex) Select(key ids.ClassId) {
	idx := t.current.findKeyIndex(key)
	t.parents = append(t.parents, t.current)
	t.current = t.current.children[idx]
}

// Unselect climbs back out of the most recent Select.
func (t *TrieIndex) Unselect() {
	n := len(t.parents)
	t.current = t.parents[n-1]
	t.parents = t.parents[:n-1]
}
