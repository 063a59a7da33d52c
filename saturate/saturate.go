// Package saturate drives equality saturation to a fixpoint (or an
// iteration cap): repeatedly running every rewrite rule's compiled query
// against the current e-graph, buffering every match found, applying each
// match's substitution, and rebuilding before the next round.
package saturate

import (
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/compiler"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph"
	"github.com/tr00/eqsat-mod-ac-sub000/egraph/index"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/match"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// Options configures a saturation run.
type Options struct {
	// MaxIterations bounds the outer match-apply-rebuild loop: there is no
	// general decision procedure for whether a theory saturates at all, so
	// a run must always have a hard stop. Zero is a valid, distinguished
	// value: rebuild only, applying no rule.
	MaxIterations int

	// MaxRebuildIterations bounds the inner fixpoint loop Rebuild runs
	// per outer iteration. Zero defaults to MaxIterations, or to 1 when
	// MaxIterations is zero.
	MaxRebuildIterations int

	// Logger receives one Debug line per outer iteration (match count,
	// whether anything new was unified) and a Warn if the run hits
	// MaxIterations without reaching a fixpoint. Defaults to a no-op
	// logger.
	Logger hclog.Logger
}

// Outcome reports how a Run concluded.
type Outcome struct {
	// Saturated is true if an outer iteration found no new equalities and
	// the e-graph's own rebuild also reached a fixpoint within that
	// iteration's budget.
	Saturated bool
	// Iterations is the number of outer iterations actually run.
	Iterations int
}

// Run saturates g against rules until a fixpoint or opts.MaxIterations,
// whichever comes first.
func Run(g *egraph.EGraph, rules []*theory.RewriteRule, opts Options) (Outcome, error) {
	if opts.MaxIterations < 0 {
		return Outcome{}, errors.Errorf("saturate: MaxIterations must be non-negative, got %d", opts.MaxIterations)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	rebuildCap := opts.MaxRebuildIterations
	if rebuildCap == 0 {
		rebuildCap = maxInt(opts.MaxIterations, 1)
	}

	// Running with a zero budget is rebuild-only: no rule is matched or
	// applied, no new equality is derived, but a pending Unify still
	// propagates through congruence.
	if opts.MaxIterations == 0 {
		rebuildSaturated := g.Rebuild(rebuildCap)
		logger.Debug("saturate: rebuild-only (MaxIterations=0)", "rebuild_saturated", rebuildSaturated)
		return Outcome{Saturated: rebuildSaturated, Iterations: 0}, nil
	}

	comp := compiler.New(g.Theory())
	compiled := comp.CompileMany(rules)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		// Match every rule against the e-graph as it stood at the start of
		// this iteration before applying any of them: applying rule i's
		// matches first would let rule i+1 match against e-nodes rule i
		// just created, breaking rule-to-rule fairness within a single
		// iteration.
		type pendingMatch struct {
			rhs  *compiler.Subst
			head []ids.ClassId
		}
		var pending []pendingMatch
		totalMatches := 0

		for _, c := range compiled {
			engine := match.NewEngine(c.Query, c.NumVars, indexBuilder(g, c))
			bindings := engine.Run()
			totalMatches += len(bindings)

			for _, binding := range bindings {
				pending = append(pending, pendingMatch{rhs: c.RHS, head: engine.ProjectHead(binding)})
			}
		}

		anyNew := false
		for _, m := range pending {
			lhsRoot := m.head[len(m.head)-1]

			rhsRoot, err := m.rhs.Instantiate(m.head, g.AddENode)
			if err != nil {
				return Outcome{}, errors.WithMessage(err, "saturate: instantiating rule RHS")
			}

			lhsResolved, err := g.Resolve(lhsRoot)
			if err != nil {
				return Outcome{}, errors.WithMessage(err, "saturate: resolving LHS match root")
			}
			rhsResolved, err := g.Resolve(rhsRoot)
			if err != nil {
				return Outcome{}, errors.WithMessage(err, "saturate: resolving instantiated RHS root")
			}
			if !g.Equiv(lhsResolved, rhsResolved) {
				anyNew = true
			}
			g.Unify(lhsResolved, rhsResolved)
		}

		rebuildSaturated := g.Rebuild(rebuildCap)
		logger.Debug("saturate: iteration complete",
			"iteration", iter,
			"matches", totalMatches,
			"new_equalities", anyNew,
			"rebuild_saturated", rebuildSaturated,
		)

		if !anyNew && rebuildSaturated {
			return Outcome{Saturated: true, Iterations: iter + 1}, nil
		}
	}

	logger.Warn("saturate: hit iteration cap without reaching a fixpoint", "max_iterations", opts.MaxIterations)
	return Outcome{Saturated: false, Iterations: opts.MaxIterations}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func indexBuilder(g *egraph.EGraph, c *compiler.Compiled) match.IndexBuilder {
	return func(_ int, con compiler.Constraint) index.Index {
		return g.PopulateIndex(con.Op, con.Permutation(), con.ArgCount())
	}
}

// IsEquiv reports whether a and b denote the same e-class in g, a thin
// re-export so callers (tests, the CLI) don't need to import egraph and
// ids separately just to ask this one question.
func IsEquiv(g *egraph.EGraph, a, b ids.ClassId) bool {
	return g.IsEquiv(a, b)
}
