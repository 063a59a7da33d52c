package egraph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// groupTheory declares one/0, inv/1, v/0 and an AC mul, the signature most
// of these tests share.
func groupTheory(t *testing.T) (*theory.Theory, map[string]ids.Symbol) {
	t.Helper()
	th := theory.New()
	require.NoError(t, th.AddOperators(
		theory.OperatorSpec{Name: "one", Arity: 0},
		theory.OperatorSpec{Name: "inv", Arity: 1},
		theory.OperatorSpec{Name: "v", Arity: 0},
		theory.OperatorSpec{Name: "mul", AC: true},
	))
	syms := map[string]ids.Symbol{
		"one": th.Symbols.Intern("one"),
		"inv": th.Symbols.Intern("inv"),
		"v":   th.Symbols.Intern("v"),
		"mul": th.Symbols.Intern("mul"),
	}
	return th, syms
}

func mustENode(t *testing.T, g *EGraph, op ids.Symbol, children ...ids.ClassId) ids.ClassId {
	t.Helper()
	id, err := g.AddENode(op, children)
	require.NoError(t, err)
	return id
}

func TestAddExprHashConsing(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	e := theory.Operator(syms["inv"], theory.Operator(syms["v"]))
	a, err := g.AddExpr(e)
	require.NoError(t, err)
	b, err := g.AddExpr(e)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.True(t, g.IsEquiv(a, a), "reflexivity must hold for any inserted id")
}

func TestAddExprRejectsPatternVariable(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	e := theory.Operator(syms["inv"], theory.Variable(th.Symbols.Intern("x")))
	_, err := g.AddExpr(e)
	require.Error(t, err)
}

func TestAddENodeRejectsArityMismatch(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	before := g.uf.Size()

	_, err := g.AddENode(syms["inv"], []ids.ClassId{v, v})
	require.Error(t, err)
	require.Equal(t, before, g.uf.Size(), "a rejected AddENode must not allocate a class")
}

func TestACHashConsingUnderPermutation(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	one := mustENode(t, g, syms["one"])
	iv := mustENode(t, g, syms["inv"], v)

	a := mustENode(t, g, syms["mul"], v, one, iv)
	b := mustENode(t, g, syms["mul"], iv, v, one)
	c := mustENode(t, g, syms["mul"], one, iv, v)

	require.Equal(t, a, b)
	require.Equal(t, a, c)
}

func TestEmptyACApplicationIsValid(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	a, err := g.AddExpr(theory.Operator(syms["mul"]))
	require.NoError(t, err)
	b := mustENode(t, g, syms["mul"])
	require.Equal(t, a, b)
}

func TestACSingletonEquatesEquivalentArguments(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	one := mustENode(t, g, syms["one"])
	mv := mustENode(t, g, syms["mul"], v)
	mone := mustENode(t, g, syms["mul"], one)

	require.False(t, g.IsEquiv(mv, mone))

	g.Unify(v, one)
	g.Rebuild(4)

	require.True(t, g.IsEquiv(mv, mone))
}

func TestACDuplicateArgumentsPreserved(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	once := mustENode(t, g, syms["mul"], v)
	twice := mustENode(t, g, syms["mul"], v, v)

	require.NotEqual(t, once, twice)
	require.False(t, g.IsEquiv(once, twice))
}

func TestCongruencePropagatesOnRebuild(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	one := mustENode(t, g, syms["one"])
	iv := mustENode(t, g, syms["inv"], v)
	ione := mustENode(t, g, syms["inv"], one)

	require.False(t, g.IsEquiv(iv, ione))

	g.Unify(v, one)
	g.Rebuild(4)

	require.True(t, g.IsEquiv(iv, ione))
}

func TestLookupOrEphemeralMintsAndReusesWithinCycle(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	one := mustENode(t, g, syms["one"])

	// mul{v, one} exists in no relation yet, so the lookup must mint an
	// ephemeral stand-in -- and the same request later in the same cycle
	// must reuse it rather than mint a second id for one conceptual e-node.
	e1 := g.LookupOrEphemeral(syms["mul"], []ids.ClassId{v, one})
	require.True(t, ids.IsEphemeral(e1))
	e2 := g.LookupOrEphemeral(syms["mul"], []ids.ClassId{one, v})
	require.Equal(t, e1, e2)

	// A memoized e-node is returned as-is, never wrapped.
	m := mustENode(t, g, syms["mul"], v, v)
	got := g.LookupOrEphemeral(syms["mul"], []ids.ClassId{v, v})
	require.Equal(t, m, got)
}

func TestResolveMaterializesEphemeralId(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	one := mustENode(t, g, syms["one"])
	eph := g.LookupOrEphemeral(syms["mul"], []ids.ClassId{v, one})
	require.True(t, ids.IsEphemeral(eph))

	real, err := g.Resolve(eph)
	require.NoError(t, err)
	require.False(t, ids.IsEphemeral(real))

	// The materialized e-node is now memoized under its real class.
	got, ok := g.Lookup(syms["mul"], []ids.ClassId{one, v})
	require.True(t, ok)
	require.Equal(t, real, got)
}

func TestRebuildClearsEphemeralMap(t *testing.T) {
	th, syms := groupTheory(t)
	g := New(th)

	v := mustENode(t, g, syms["v"])
	one := mustENode(t, g, syms["one"])

	// An ephemeral minted while exploring a match that no rule ever applied
	// is garbage by rebuild time and must not survive it.
	_ = g.LookupOrEphemeral(syms["mul"], []ids.ClassId{v, one})
	require.NotEmpty(t, g.ephemeral)

	g.Rebuild(4)
	require.Empty(t, g.ephemeral)
}

func TestDumpIsDeterministicAcrossIdenticalRuns(t *testing.T) {
	build := func() string {
		th, syms := groupTheory(t)
		g := New(th)

		v := mustENode(t, g, syms["v"])
		one := mustENode(t, g, syms["one"])
		iv := mustENode(t, g, syms["inv"], v)
		mustENode(t, g, syms["mul"], v, iv, one)
		mustENode(t, g, syms["mul"], v, iv)
		g.Unify(v, one)
		g.Rebuild(8)

		var buf bytes.Buffer
		g.Dump(&buf)
		return buf.String()
	}

	require.Equal(t, build(), build())
}
