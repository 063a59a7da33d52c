package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternIsStable(t *testing.T) {
	tab := New()
	a := tab.Intern("mul")
	b := tab.Intern("mul")
	c := tab.Intern("add")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, "mul", tab.String(a))
	require.Equal(t, "add", tab.String(c))
}

func TestOpaqueSymbolsAreDistinctAndUnnamed(t *testing.T) {
	tab := New()
	a := tab.CreateOpaque()
	b := tab.CreateOpaque()

	require.NotEqual(t, a, b)
	require.Equal(t, "<opaque>", tab.String(a))
	require.Equal(t, "<opaque>", tab.String(b))
	require.True(t, tab.Has(a))
}

func TestUnknownSymbolIsOpaque(t *testing.T) {
	tab := New()
	require.Equal(t, "<opaque>", tab.String(999))
	require.False(t, tab.Has(999))
}
