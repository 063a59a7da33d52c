// Package core holds the small set of types that both the top-level egraph
// package and its relation/index sub-packages need to share. Splitting it
// out like this -- rather than having egraph/relation and egraph/index
// import egraph directly -- avoids a Go import cycle: egraph imports
// relation and index to assemble the term bank, while relation and index
// need a narrow capability interface back onto the e-graph (to canonicalize
// ids and register freshly-synthesized e-nodes) without needing the whole
// EGraph type.
package core

import (
	"strconv"
	"strings"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

// ENode is a hash-consed e-node: an operator symbol applied to an ordered
// list of e-class ids. For an associative-commutative operator, Children is
// expected to already be sorted before the ENode is used as a memo key.
type ENode struct {
	Op       ids.Symbol
	Children []ids.ClassId
}

// Key returns a canonical string suitable for use as a memo map key.
// ENode.Children is a slice and so not directly comparable; Key gives a
// cheap, collision-free stand-in.
func (n ENode) Key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(n.Op), 36))
	b.WriteByte(':')
	for _, c := range n.Children {
		b.WriteString(strconv.FormatUint(uint64(c), 36))
		b.WriteByte(',')
	}
	return b.String()
}

// Handle is the capability an EGraph exposes to the relation and index
// packages: enough to canonicalize ids, unify classes, and register
// e-nodes synthesized mid-match (AC decomposition hoisting, rewrite-rule
// application), without those packages needing to import the egraph
// package itself.
type Handle interface {
	// Find returns the canonical representative of id's e-class.
	Find(id ids.ClassId) ids.ClassId

	// Equiv reports whether a and b are in the same e-class.
	Equiv(a, b ids.ClassId) bool

	// Unify merges a and b's e-classes and returns the surviving id.
	Unify(a, b ids.ClassId) ids.ClassId

	// Lookup returns the memoized class id for (op, children), if any.
	Lookup(op ids.Symbol, children []ids.ClassId) (ids.ClassId, bool)

	// AddENode inserts (op, children) into the term bank if not already
	// present (inserting into the relevant relation and the memo) and
	// returns its class id. It errors if children's length doesn't match
	// op's declared arity, without mutating the e-graph.
	AddENode(op ids.Symbol, children []ids.ClassId) (ids.ClassId, error)

	// AddENodeToMemo records that (op, children) denotes id, without
	// touching any relation's own storage. Used when a relation
	// synthesizes a derived e-node (AC decomposition hoisting) that it
	// has already stored in its own data structure.
	AddENodeToMemo(id ids.ClassId, op ids.Symbol, children []ids.ClassId)

	// LookupOrEphemeral returns the memoized class id for (op, children)
	// if one exists. Otherwise it mints (or reuses, if this exact e-node
	// was already requested earlier in the same match-application cycle)
	// an ephemeral class id standing in for the not-yet-materialized
	// e-node, and records the pair in the e-graph's ephemeral side-map.
	//
	// This is how a MultisetIndex yields an e-class for a partial AC
	// sub-selection: an arbitrary k-of-n subset of a stored term's
	// argument multiset generally has no e-class of its own until some
	// rule's application decides to use it. The id returned here is only
	// valid for the remainder of the current match-application cycle; it
	// is resolved to a real, installed class id (or discarded) no later
	// than the following rebuild.
	LookupOrEphemeral(op ids.Symbol, children []ids.ClassId) ids.ClassId
}
