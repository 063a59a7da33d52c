package saturate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph"
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/parser"
	"github.com/tr00/eqsat-mod-ac-sub000/saturate"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// mustAddRule parses and registers a rewrite rule, failing the test on error.
func mustAddRule(t *testing.T, th *theory.Theory, name, lhs, rhs string) {
	t.Helper()
	require.NoError(t, parser.AddRewriteRule(th, name, lhs, rhs))
}

// mustParse parses src into a ground expression against th's symbol table.
func mustParse(t *testing.T, th *theory.Theory, src string) *theory.Expr {
	t.Helper()
	p := parser.New(th.Symbols)
	e, err := p.ParseSExpr(src)
	require.NoError(t, err)
	return e
}

func mustAddExpr(t *testing.T, g *egraph.EGraph, e *theory.Expr) ids.ClassId {
	t.Helper()
	id, err := g.AddExpr(e)
	require.NoError(t, err)
	return id
}

// TestMultiplicativeIdentityNonAC checks that a directional rule over a
// non-AC operator only fires in the orientation it was written for.
func TestMultiplicativeIdentityNonAC(t *testing.T) {
	th := theory.New()
	_, err := th.AddOperator("one", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("var", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("mul", 2)
	require.NoError(t, err)
	mustAddRule(t, th, "identity", "(mul ?x (one))", "?x")

	g := egraph.New(th)
	a := mustAddExpr(t, g, mustParse(t, th, "(var)"))
	m := mustAddExpr(t, g, mustParse(t, th, "(mul (var) (one))"))
	reversed := mustAddExpr(t, g, mustParse(t, th, "(mul (one) (var))"))

	require.False(t, g.IsEquiv(a, m))

	_, err = saturate.Run(g, th.Rules(), saturate.Options{MaxIterations: 1})
	require.NoError(t, err)

	require.True(t, g.IsEquiv(a, m))
	require.False(t, g.IsEquiv(a, reversed))
}

// TestACMultiplicativeIdentity checks the same rule over an AC mul fires
// regardless of argument order.
func TestACMultiplicativeIdentity(t *testing.T) {
	th := theory.New()
	_, err := th.AddOperator("one", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("var", 0)
	require.NoError(t, err)
	_, err = th.AddACOperator("mul")
	require.NoError(t, err)
	mustAddRule(t, th, "identity", "(mul ?x (one))", "?x")

	g := egraph.New(th)
	a := mustAddExpr(t, g, mustParse(t, th, "(var)"))
	m := mustAddExpr(t, g, mustParse(t, th, "(mul (one) (var))"))

	require.False(t, g.IsEquiv(a, m))

	_, err = saturate.Run(g, th.Rules(), saturate.Options{MaxIterations: 1})
	require.NoError(t, err)

	require.True(t, g.IsEquiv(a, m))
}

// TestCongruenceAfterUnify checks that an explicit Unify call propagates
// through congruence on the next rebuild, with no rewrite rules involved at
// all.
func TestCongruenceAfterUnify(t *testing.T) {
	th := theory.New()
	_, err := th.AddOperator("a", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("b", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("f", 1)
	require.NoError(t, err)

	g := egraph.New(th)
	a := mustAddExpr(t, g, mustParse(t, th, "(a)"))
	b := mustAddExpr(t, g, mustParse(t, th, "(b)"))
	fa := mustAddExpr(t, g, mustParse(t, th, "(f (a))"))
	fb := mustAddExpr(t, g, mustParse(t, th, "(f (b))"))

	require.False(t, g.IsEquiv(fa, fb))

	g.Unify(a, b)

	// A zero-iteration run is rebuild-only: no rule is matched or applied,
	// but the pending Unify still propagates through congruence during the
	// rebuild.
	outcome, err := saturate.Run(g, th.Rules(), saturate.Options{MaxIterations: 0})
	require.NoError(t, err)
	require.Equal(t, 0, outcome.Iterations)

	require.True(t, g.IsEquiv(fa, fb))
}

// TestInverseInAbelianGroup exercises the ephemeral AC matching path.
// Matching (mul ?x (inv ?x)) against a ternary
// mul(v, v, inv(v)) needs an e-class for the 2-of-3 sub-selection
// {v, inv(v)} that doesn't exist until the query engine materializes it as
// an ephemeral id; applying the inverse rule resolves it to (one), and the
// identity rule then reduces the remaining mul(v, one) to v.
func TestInverseInAbelianGroup(t *testing.T) {
	th := theory.New()
	_, err := th.AddOperator("one", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("inv", 1)
	require.NoError(t, err)
	_, err = th.AddOperator("v", 0)
	require.NoError(t, err)
	_, err = th.AddACOperator("mul")
	require.NoError(t, err)
	mustAddRule(t, th, "identity", "(mul ?x (one))", "?x")
	mustAddRule(t, th, "inverse", "(mul ?x (inv ?x))", "(one)")

	g := egraph.New(th)
	m := mustAddExpr(t, g, mustParse(t, th, "(mul (v) (v) (inv (v)))"))
	v := mustAddExpr(t, g, mustParse(t, th, "(v)"))

	require.False(t, g.IsEquiv(v, m))

	outcome, err := saturate.Run(g, th.Rules(), saturate.Options{MaxIterations: 5})
	require.NoError(t, err)

	require.True(t, g.IsEquiv(v, m), "saturated in %d iteration(s)", outcome.Iterations)
}

// TestACPermutationClosure checks that pure hash-consing over an AC
// operator equates any permutation of the same multiset of arguments, with
// no rewrite rules applied at all.
func TestACPermutationClosure(t *testing.T) {
	th := theory.New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := th.AddOperator(name, 0)
		require.NoError(t, err)
	}
	_, err := th.AddACOperator("mul")
	require.NoError(t, err)

	g := egraph.New(th)
	t1 := mustAddExpr(t, g, mustParse(t, th, "(mul (a) (b) (c))"))
	t2 := mustAddExpr(t, g, mustParse(t, th, "(mul (c) (a) (b))"))

	require.True(t, g.IsEquiv(t1, t2))
}

// TestIdempotentBooleanAndViaAC checks that the identity rule
// (and ?x (true)) -> ?x over a variadic AC and collapses the true argument, but
// idempotence is not itself a rule of this theory, so and(a,a,a) is never
// reduced down to a alone.
func TestIdempotentBooleanAndViaAC(t *testing.T) {
	th := theory.New()
	_, err := th.AddOperator("a", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("true", 0)
	require.NoError(t, err)
	_, err = th.AddACOperator("and")
	require.NoError(t, err)
	mustAddRule(t, th, "and_true", "(and ?x (true))", "?x")

	g := egraph.New(th)
	tExpr := mustAddExpr(t, g, mustParse(t, th, "(and (a) (a) (a) (true))"))
	tPrime := mustAddExpr(t, g, mustParse(t, th, "(and (a) (a) (a))"))
	aAlone := mustAddExpr(t, g, mustParse(t, th, "(a)"))

	_, err = saturate.Run(g, th.Rules(), saturate.Options{MaxIterations: 2})
	require.NoError(t, err)

	require.True(t, g.IsEquiv(tExpr, tPrime))
	require.False(t, g.IsEquiv(tExpr, aAlone))
	require.False(t, g.IsEquiv(tPrime, aAlone))
}

// TestSaturateZeroIsNoOp: a zero-iteration run must not change any IsEquiv
// observation (it still rebuilds, but applies no rule).
func TestSaturateZeroIsNoOp(t *testing.T) {
	th := theory.New()
	_, err := th.AddOperator("one", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("var", 0)
	require.NoError(t, err)
	_, err = th.AddOperator("mul", 2)
	require.NoError(t, err)
	mustAddRule(t, th, "identity", "(mul ?x (one))", "?x")

	g := egraph.New(th)
	a := mustAddExpr(t, g, mustParse(t, th, "(var)"))
	m := mustAddExpr(t, g, mustParse(t, th, "(mul (var) (one))"))

	_, err = saturate.Run(g, th.Rules(), saturate.Options{MaxIterations: 0})
	require.NoError(t, err)
	require.False(t, g.IsEquiv(a, m))
}

// TestSaturateSplitEqualsSaturateCombined: running k iterations then m more
// reaches the same final equivalence relation as a single k+m run, for a
// theory that needs more than one outer iteration to fully close.
func TestSaturateSplitEqualsSaturateCombined(t *testing.T) {
	build := func(t *testing.T) (*egraph.EGraph, *theory.Theory, ids.ClassId, ids.ClassId) {
		th := theory.New()
		_, err := th.AddOperator("one", 0)
		require.NoError(t, err)
		_, err = th.AddOperator("inv", 1)
		require.NoError(t, err)
		_, err = th.AddOperator("v", 0)
		require.NoError(t, err)
		_, err = th.AddACOperator("mul")
		require.NoError(t, err)
		mustAddRule(t, th, "identity", "(mul ?x (one))", "?x")
		mustAddRule(t, th, "inverse", "(mul ?x (inv ?x))", "(one)")

		g := egraph.New(th)
		m := mustAddExpr(t, g, mustParse(t, th, "(mul (v) (v) (inv (v)))"))
		v := mustAddExpr(t, g, mustParse(t, th, "(v)"))
		return g, th, v, m
	}

	gSplit, thSplit, vSplit, mSplit := build(t)
	_, err := saturate.Run(gSplit, thSplit.Rules(), saturate.Options{MaxIterations: 2})
	require.NoError(t, err)
	_, err = saturate.Run(gSplit, thSplit.Rules(), saturate.Options{MaxIterations: 3})
	require.NoError(t, err)

	gCombined, thCombined, vCombined, mCombined := build(t)
	_, err = saturate.Run(gCombined, thCombined.Rules(), saturate.Options{MaxIterations: 5})
	require.NoError(t, err)

	require.Equal(t, gCombined.IsEquiv(vCombined, mCombined), gSplit.IsEquiv(vSplit, mSplit))
	require.True(t, gSplit.IsEquiv(vSplit, mSplit))
}
