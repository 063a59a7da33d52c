// Package compiler turns a theory.RewriteRule's LHS pattern into a Query
// the match engine can run, and its RHS into a Subst template the
// resulting bindings can be instantiated against.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

// Var names a query variable: a dense, per-query integer assigned during
// compilation (see Compiler.compileExpr), distinct from any ids.Symbol or
// ids.ClassId.
type Var int

// Constraint is one clause of a conjunctive query: operator applied to a
// list of query variables. For a non-AC operator the last variable is the
// e-class of the application and the rest are its arguments in order. For
// an AC operator, the first variable is an extra term-id slot (identifying
// which stored term within the operator's RelationAC the match is
// currently descending into), the middle variables are the (unordered)
// arguments, and the last is again the e-class.
type Constraint struct {
	Op   ids.Symbol
	Vars []Var
	// IsAC mirrors the operator's declared arity kind, cached here so the
	// match engine never needs a theory lookup per constraint.
	IsAC bool
}

// ArgCount returns how many argument variables this constraint has --
// i.e. how many Select calls the match engine must make against this
// constraint's index before reaching the e-class variable. For an AC
// constraint this excludes both the leading term-id slot and the trailing
// e-class variable; for a non-AC constraint it excludes only the trailing
// e-class variable.
func (c Constraint) ArgCount() int {
	if c.IsAC {
		return len(c.Vars) - 2
	}
	return len(c.Vars) - 1
}

// EClassVar returns the constraint's e-class variable (always last).
func (c Constraint) EClassVar() Var { return c.Vars[len(c.Vars)-1] }

// Permutation returns, for each position in Vars, its rank when Vars are
// sorted ascending by variable id -- the column reordering a TrieIndex
// needs so its levels are visited in the same ascending-variable order the
// match engine uses globally, regardless of the order the pattern happened
// to list its children in. Unused for an AC constraint's MultisetIndex,
// whose stage order (term, then arguments as a group, then e-class) is
// fixed independent of column position.
func (c Constraint) Permutation() []int {
	type slot struct {
		pos int
		v   Var
	}
	slots := make([]slot, len(c.Vars))
	for i, v := range c.Vars {
		slots[i] = slot{pos: i, v: v}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].v < slots[j].v })
	perm := make([]int, len(c.Vars))
	for rank, s := range slots {
		perm[s.pos] = rank
	}
	return perm
}

func (c Constraint) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d(", c.Op)
	for i, v := range c.Vars {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "v%d", v)
	}
	b.WriteString(")")
	return b.String()
}

// Query is a conjunction of Constraints over a shared variable space, with
// a distinguished Head: the variables whose bindings the match engine
// reports once every constraint is satisfied, in the order the Subst
// template expects them.
type Query struct {
	Constraints []Constraint
	Head        []Var
}

// VariablesOf returns, for every variable 0..n-1, the indices into
// q.Constraints that mention it -- the grouping the match engine's
// per-variable search state needs to know which indices to intersect.
func (q *Query) VariablesOf(numVars int) [][]int {
	out := make([][]int, numVars)
	for ci, c := range q.Constraints {
		for _, v := range c.Vars {
			out[v] = append(out[v], ci)
		}
	}
	for _, idxs := range out {
		sort.Ints(idxs)
	}
	return out
}

func (q *Query) String() string {
	parts := make([]string, len(q.Constraints))
	for i, c := range q.Constraints {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ∧ ")
}

// Subst instantiates a rewrite rule's RHS pattern against a binding of
// query variables to e-class ids, producing a fresh e-node tree via alloc.
// Its own variable numbering is dense and independent of the LHS query's:
// see Compiler.Compile.
type Subst struct {
	// tree mirrors the RHS shape: each node is either a reference to a
	// bound variable (leaf, varIndex >= 0) or an operator application over
	// sub-templates.
	isVariable bool
	varIndex   int // index into the binding slice, when isVariable
	op         ids.Symbol
	children   []*Subst
}

// Instantiate builds the e-node tree the RHS denotes given binding (binding
// must have one entry for every RHS variable, indexed by the dense id
// Compiler.Compile assigned it), calling alloc to materialize each
// operator application bottom-up. alloc is expected to behave like
// core.Handle.AddENode: return an existing class id if this exact
// (op, children) is already memoized, otherwise install a fresh one, and
// error without side effect if children's length doesn't match op's
// declared arity.
func (s *Subst) Instantiate(binding []ids.ClassId, alloc func(op ids.Symbol, children []ids.ClassId) (ids.ClassId, error)) (ids.ClassId, error) {
	if s.isVariable {
		return binding[s.varIndex], nil
	}
	children := make([]ids.ClassId, len(s.children))
	for i, c := range s.children {
		id, err := c.Instantiate(binding, alloc)
		if err != nil {
			return 0, err
		}
		children[i] = id
	}
	return alloc(s.op, children)
}
