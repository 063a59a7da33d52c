package theory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
)

func TestExprStringRoundTripShape(t *testing.T) {
	symbols := symtab.New()
	mul := symbols.Intern("mul")
	x := symbols.Intern("x")

	e := Operator(mul, Variable(x), Variable(x))
	require.Equal(t, "(mul ?x ?x)", e.String(symbols))
}

func TestIsLinearDirectChildOnly(t *testing.T) {
	symbols := symtab.New()
	mul := symbols.Intern("mul")
	inv := symbols.Intern("inv")
	x := symbols.Intern("x")

	nonLinear := Operator(mul, Variable(x), Variable(x))
	require.False(t, nonLinear.IsLinear())

	linear := Operator(mul, Variable(x), Operator(inv, Variable(x)))
	require.True(t, linear.IsLinear())
}

func TestIsOperatorIsVariable(t *testing.T) {
	symbols := symtab.New()
	x := symbols.Intern("x")
	f := symbols.Intern("f")

	v := Variable(x)
	require.True(t, v.IsVariable())
	require.False(t, v.IsOperator())

	op := Operator(f, v)
	require.False(t, op.IsVariable())
	require.True(t, op.IsOperator())
	require.Len(t, op.Children(), 1)
}
