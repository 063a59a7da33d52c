// Package match implements the worst-case-optimal multi-way join query
// engine: given a compiler.Query, it finds every assignment of its
// variables that satisfies every constraint simultaneously, descending
// through shared per-variable indices one variable at a time and
// intersecting candidates across every constraint that mentions it.
//
// The join is written recursively, with each chosen candidate kept in an
// explicit binding slice. Reading a variable's value back out of an index
// cursor at emit time would be fragile: by then the cursor may have moved
// past the committed key, so the binding slice is the single source of
// truth for what was selected.
package match

import (
	"github.com/tr00/eqsat-mod-ac-sub000/compiler"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/index"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

// IndexBuilder constructs the index backing one constraint, given its
// position within the query and the constraint itself (so the builder can
// tell an AC constraint's ArgCount from a non-AC one's column count).
type IndexBuilder func(constraintIdx int, c compiler.Constraint) index.Index

// Engine runs one compiled query's join to completion.
type Engine struct {
	query          *compiler.Query
	numVars        int
	indices        []index.Index
	varConstraints [][]int
}

// NewEngine builds an Engine for q, with numVars the total number of
// variables q.Constraints range over (compiler.Compiled.NumVars), and
// build supplying one index per constraint.
func NewEngine(q *compiler.Query, numVars int, build IndexBuilder) *Engine {
	indices := make([]index.Index, len(q.Constraints))
	for i, c := range q.Constraints {
		indices[i] = build(i, c)
	}
	return &Engine{
		query:          q,
		numVars:        numVars,
		indices:        indices,
		varConstraints: q.VariablesOf(numVars),
	}
}

// Run executes the join and returns every full variable binding found,
// each a slice indexed 0..numVars-1 (not yet projected down to the
// query's Head -- use ProjectHead for that).
func (e *Engine) Run() [][]ids.ClassId {
	for i := range e.indices {
		e.indices[i].Reset()
	}
	var results [][]ids.ClassId
	binding := make([]ids.ClassId, e.numVars)
	e.search(0, binding, &results)
	return results
}

// ProjectHead extracts a full binding's values for the query's head
// variables, in head order -- the RHS substitution's expected input.
func (e *Engine) ProjectHead(binding []ids.ClassId) []ids.ClassId {
	out := make([]ids.ClassId, len(e.query.Head))
	for i, v := range e.query.Head {
		out[i] = binding[v]
	}
	return out
}

func (e *Engine) search(v int, binding []ids.ClassId, results *[][]ids.ClassId) {
	if v == e.numVars {
		out := make([]ids.ClassId, e.numVars)
		copy(out, binding)
		*results = append(*results, out)
		return
	}

	cons := e.varConstraints[v]
	for _, cand := range e.intersect(cons) {
		binding[v] = cand
		for _, ci := range cons {
			e.indices[ci].Select(cand)
		}
		e.search(v+1, binding, results)
		for _, ci := range cons {
			e.indices[ci].Unselect()
		}
	}
}

// intersect returns the candidates common to every constraint in
// constraintIdxs's current projection. With one constraint this is just
// its projection; with more, the smallest projection drives the scan
// while the rest are turned into membership sets once and used as
// filters -- this is what keeps the
// join worst-case-optimal rather than degenerating into a plain nested
// loop whose cost is set by whichever constraint happens to be listed
// first.
func (e *Engine) intersect(constraintIdxs []int) []ids.ClassId {
	if len(constraintIdxs) == 0 {
		return nil
	}

	projections := make([][]ids.ClassId, len(constraintIdxs))
	driver := 0
	for i, ci := range constraintIdxs {
		projections[i] = e.indices[ci].Project()
		if len(projections[i]) < len(projections[driver]) {
			driver = i
		}
	}
	first := projections[driver]
	if len(constraintIdxs) == 1 {
		return first
	}

	sets := make([]map[ids.ClassId]struct{}, 0, len(constraintIdxs)-1)
	for i, proj := range projections {
		if i == driver {
			continue
		}
		s := make(map[ids.ClassId]struct{}, len(proj))
		for _, c := range proj {
			s[c] = struct{}{}
		}
		sets = append(sets, s)
	}

	out := make([]ids.ClassId, 0, len(first))
candidate:
	for _, cand := range first {
		for _, s := range sets {
			if _, ok := s[cand]; !ok {
				continue candidate
			}
		}
		out = append(out, cand)
	}
	return out
}
