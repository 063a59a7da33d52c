// Package egraph assembles the term bank (egraph/relation), the indices
// built over it (egraph/index), and the union-find that tracks e-class
// equivalence into a single e-graph: the data structure a saturation run
// inserts expressions into, matches rewrite-rule patterns against, and
// rebuilds to fixpoint after every round of rule application.
package egraph

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph/core"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/index"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/relation"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
	"github.com/tr00/eqsat-mod-ac-sub000/unionfind"
)

// InvariantError reports a fatal violation of one of the e-graph's own
// bookkeeping invariants (e.g. an ephemeral id that outlived the cycle it
// was minted for). Unlike ordinary usage errors, these are never expected
// to occur for any well-formed theory and input; they are a dedicated type
// precisely so callers never need to string-match an error message to tell
// "your rule was malformed" apart from "the engine lost an invariant".
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "egraph: invariant violated: " + e.Msg }

// EGraph holds every e-class (via its union-find), every operator's term
// bank (one relation.Relation per declared symbol), and the memo mapping
// canonical e-nodes to their class id.
type EGraph struct {
	th   *theory.Theory
	uf   *unionfind.UnionFind
	rels map[ids.Symbol]*relation.Relation

	memo map[string]ids.ClassId

	ephemeral     map[ids.ClassId]core.ENode
	nextEphemeral uint32
}

// New returns an empty e-graph for th, with one relation pre-allocated per
// operator th has declared.
func New(th *theory.Theory) *EGraph {
	g := &EGraph{
		th:        th,
		uf:        unionfind.New(),
		rels:      make(map[ids.Symbol]*relation.Relation),
		memo:      make(map[string]ids.ClassId),
		ephemeral: make(map[ids.ClassId]core.ENode),
	}
	th.Signature().ForEach(func(sym ids.Symbol, arity ids.Arity) {
		if arity.IsAC() {
			r := relation.FromRelationAC(relation.NewRelationAC(sym))
			g.rels[sym] = &r
			return
		}
		r := relation.FromRowStore(relation.NewRowStore(sym, int(arity)+1))
		g.rels[sym] = &r
	})
	return g
}

// Theory returns the e-graph's configuring theory.
func (g *EGraph) Theory() *theory.Theory { return g.th }

// Relation returns the term bank for sym, or nil if sym was never declared.
func (g *EGraph) Relation(sym ids.Symbol) *relation.Relation { return g.rels[sym] }

func (g *EGraph) memoKey(op ids.Symbol, children []ids.ClassId) (string, []ids.ClassId) {
	if g.th.Signature().IsAC(op) {
		sorted := append([]ids.ClassId(nil), children...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return core.ENode{Op: op, Children: sorted}.Key(), sorted
	}
	return core.ENode{Op: op, Children: children}.Key(), children
}

// Find returns the canonical representative of id's e-class. Ephemeral ids
// are returned unchanged: they are not yet tracked by the union-find.
func (g *EGraph) Find(id ids.ClassId) ids.ClassId {
	if ids.IsEphemeral(id) {
		return id
	}
	return g.uf.Find(id)
}

// Equiv reports whether a and b are in the same e-class.
func (g *EGraph) Equiv(a, b ids.ClassId) bool {
	if ids.IsEphemeral(a) || ids.IsEphemeral(b) {
		return a == b
	}
	return g.uf.Equiv(a, b)
}

// Unify merges a and b's e-classes. Neither may be ephemeral: callers must
// resolve ephemeral ids (via AddENode) before they ever reach the
// union-find.
func (g *EGraph) Unify(a, b ids.ClassId) ids.ClassId {
	return g.uf.Unify(a, b)
}

// Lookup returns the memoized class id for (op, children), if any.
func (g *EGraph) Lookup(op ids.Symbol, children []ids.ClassId) (ids.ClassId, bool) {
	key, _ := g.memoKey(op, children)
	id, ok := g.memo[key]
	return id, ok
}

// AddENodeToMemo records that (op, children) denotes id without touching
// any relation's own storage, for relations that synthesize a derived
// e-node they've already stored themselves (AC decomposition hoisting).
func (g *EGraph) AddENodeToMemo(id ids.ClassId, op ids.Symbol, children []ids.ClassId) {
	key, _ := g.memoKey(op, children)
	g.memo[key] = id
}

// LookupOrEphemeral returns the memoized class id for (op, children) if one
// exists, otherwise mints (or reuses, for a repeated request within the
// same cycle) an ephemeral stand-in. See core.Handle.LookupOrEphemeral.
func (g *EGraph) LookupOrEphemeral(op ids.Symbol, children []ids.ClassId) ids.ClassId {
	key, sorted := g.memoKey(op, children)
	if id, ok := g.memo[key]; ok {
		return id
	}
	for id, n := range g.ephemeral {
		if n.Key() == key {
			return id
		}
	}
	g.nextEphemeral++
	id := ids.AsEphemeral(ids.ClassId(g.nextEphemeral))
	g.ephemeral[id] = core.ENode{Op: op, Children: append([]ids.ClassId(nil), sorted...)}
	return id
}

// resolve replaces an ephemeral id by the real, materialized class id it
// stands in for, recursively resolving any ephemeral ids nested within its
// own children first. Non-ephemeral ids pass through unchanged.
func (g *EGraph) resolve(id ids.ClassId) (ids.ClassId, error) {
	if !ids.IsEphemeral(id) {
		return id, nil
	}
	n, ok := g.ephemeral[id]
	if !ok {
		return 0, &InvariantError{Msg: fmt.Sprintf("ephemeral id %d has no recorded e-node", ids.StripEphemeral(id))}
	}
	children := make([]ids.ClassId, len(n.Children))
	for i, c := range n.Children {
		r, err := g.resolve(c)
		if err != nil {
			return 0, err
		}
		children[i] = r
	}
	real, err := g.AddENode(n.Op, children)
	if err != nil {
		return 0, err
	}
	delete(g.ephemeral, id)
	return real, nil
}

// AddENode installs (op, children) in the term bank if not already present
// and returns its class id. Any ephemeral id among children is resolved
// to a real class id first (see resolve): an ephemeral id consumed as a
// child of a newly-instantiated e-node is replaced by the freshly created
// (or memoized) real class underneath it.
//
// It returns an error, without mutating the e-graph, if children's length
// doesn't match op's declared arity -- the arity check runs before any
// class id is minted or memoized, so a rejected call never breaks the memo
// invariant.
func (g *EGraph) AddENode(op ids.Symbol, children []ids.ClassId) (ids.ClassId, error) {
	if err := g.th.CheckArity(op, len(children)); err != nil {
		return 0, errors.WithMessage(err, "egraph: AddENode")
	}

	resolved := make([]ids.ClassId, len(children))
	for i, c := range children {
		r, err := g.resolve(c)
		if err != nil {
			return 0, err
		}
		resolved[i] = r
	}

	key, _ := g.memoKey(op, resolved)
	if id, ok := g.memo[key]; ok {
		return id, nil
	}

	newID := g.uf.Make()
	g.memo[key] = newID

	rel := g.rels[op]
	tuple := append(append([]ids.ClassId(nil), resolved...), newID)
	if err := rel.AddTuple(g, tuple); err != nil {
		delete(g.memo, key)
		return 0, errors.WithMessage(err, "egraph: AddENode")
	}

	return newID, nil
}

// AddExpr inserts a ground expression (no pattern variables) into the
// e-graph, recursively inserting its children first, and returns its
// class id.
func (g *EGraph) AddExpr(e *theory.Expr) (ids.ClassId, error) {
	if e.IsVariable() {
		return 0, fmt.Errorf("egraph: AddExpr: expression contains a pattern variable %q", g.th.Symbols.String(e.Symbol()))
	}
	children := make([]ids.ClassId, len(e.Children()))
	for i, c := range e.Children() {
		id, err := g.AddExpr(c)
		if err != nil {
			return 0, err
		}
		children[i] = id
	}
	return g.AddENode(e.Symbol(), children)
}

// Resolve materializes id if it is ephemeral (installing the e-node it
// stands in for via AddENode), otherwise returns it unchanged. Rule
// application uses this on both the LHS match root and the instantiated
// RHS root before unifying them, since either can be a bare ephemeral id
// (the LHS root when a rule matches a partial AC sub-selection with no
// e-class of its own yet; the RHS root when a rule's RHS is itself a bare
// pattern variable bound to such an id).
func (g *EGraph) Resolve(id ids.ClassId) (ids.ClassId, error) {
	return g.resolve(id)
}

// IsEquiv reports whether a and b's e-classes have been proven equal.
func (g *EGraph) IsEquiv(a, b ids.ClassId) bool {
	return g.uf.Equiv(a, b)
}

// PopulateIndex builds a fresh index over sym's relation, for a constraint
// expecting argCount argument selects (only meaningful for an AC relation).
func (g *EGraph) PopulateIndex(sym ids.Symbol, perm []int, argCount int) index.Index {
	return g.rels[sym].PopulateIndex(g, perm, argCount)
}

// Symbols exposes the shared symbol table, e.g. for dumping.
func (g *EGraph) Symbols() *symtab.Table { return g.th.Symbols }

// Rebuild repeatedly canonicalizes and merges every relation until a pass
// makes no further change or maxIterations passes have run, clears the
// ephemeral side-map (no ephemeral id survives a rebuild), and rebuilds
// the memo from scratch from the now-canonical relations. It returns
// whether the e-graph reached a fixpoint within the iteration cap.
func (g *EGraph) Rebuild(maxIterations int) bool {
	// Relations are visited in symbol order, not map order: rebuild mutates
	// the union-find, and a deterministic visit order is what keeps dumps
	// (and the intermediate state when the pass cap cuts a rebuild short)
	// identical across runs on identical input.
	saturated := false
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for _, sym := range g.sortedSymbols() {
			if g.rels[sym].Rebuild(g) {
				changed = true
			}
		}
		if !changed {
			saturated = true
			break
		}
	}

	g.ephemeral = make(map[ids.ClassId]core.ENode)
	g.rebuildMemo()
	return saturated
}

func (g *EGraph) sortedSymbols() []ids.Symbol {
	syms := make([]ids.Symbol, 0, len(g.rels))
	for sym := range g.rels {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

func (g *EGraph) rebuildMemo() {
	g.memo = make(map[string]ids.ClassId)
	for _, sym := range g.sortedSymbols() {
		g.rels[sym].DumpMemo(func(op ids.Symbol, children []ids.ClassId, class ids.ClassId) {
			key, _ := g.memoKey(op, children)
			g.memo[key] = class
		})
	}
}

// Dump writes a deterministic textual rendering of every e-class and
// relation, for golden-output tests and CLI harnesses.
func (g *EGraph) Dump(w io.Writer) {
	roots, members := g.uf.Classes()
	fmt.Fprintf(w, "==== e-classes (%d) ====\n", len(roots))
	for _, root := range roots {
		fmt.Fprintf(w, "class %d: %v\n", root, members[root])
	}
	fmt.Fprintln(w)

	for _, sym := range g.sortedSymbols() {
		g.rels[sym].Dump(w, g.th.Symbols)
	}
}
