package multiset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

func cid(n uint32) ids.ClassId { return ids.ClassId(n) }

func TestInsertCountContains(t *testing.T) {
	m := New()
	require.False(t, m.Contains(cid(1)))

	m.InsertOne(cid(1))
	m.InsertOne(cid(1))
	m.InsertOne(cid(2))

	require.True(t, m.Contains(cid(1)))
	require.EqualValues(t, 2, m.Count(cid(1)))
	require.EqualValues(t, 1, m.Count(cid(2)))
	require.Equal(t, 3, m.Size())
}

func TestRemoveIsDecrementNotErase(t *testing.T) {
	m := New()
	m.InsertOne(cid(1))
	m.Remove(cid(1))

	require.False(t, m.Contains(cid(1)))
	require.EqualValues(t, 0, m.Count(cid(1)))
	require.Equal(t, 0, m.Size())

	// Removing an absent or already-zero element is a no-op.
	m.Remove(cid(1))
	m.Remove(cid(99))
	require.Equal(t, 0, m.Size())
}

func TestCollectIsPermutationWithMultiplicity(t *testing.T) {
	in := []ids.ClassId{cid(3), cid(1), cid(1), cid(2)}
	m := FromSlice(in)

	out := m.Collect()
	require.ElementsMatch(t, in, out)
}

func TestMapIdentityPreservesHash(t *testing.T) {
	m := FromSlice([]ids.ClassId{cid(1), cid(2), cid(2), cid(3)})
	before := m.Hash()

	m.Map(func(x ids.ClassId) ids.ClassId { return x })

	require.Equal(t, before, m.Hash())
}

func TestMapCoalescesDuplicates(t *testing.T) {
	m := FromSlice([]ids.ClassId{cid(1), cid(2)})

	changed := m.Map(func(x ids.ClassId) ids.ClassId {
		if x == cid(2) {
			return cid(1)
		}
		return x
	})

	require.True(t, changed)
	require.EqualValues(t, 2, m.Count(cid(1)))
	require.EqualValues(t, 0, m.Count(cid(2)))
}

func TestMsetdiffDisjoint(t *testing.T) {
	a := FromSlice([]ids.ClassId{cid(1), cid(2)})
	b := FromSlice([]ids.ClassId{cid(3), cid(4)})

	union := FromSlice([]ids.ClassId{cid(1), cid(2), cid(3), cid(4)})

	diff := union.Msetdiff(a)
	require.True(t, diff.Equal(b))
}

func TestIncludes(t *testing.T) {
	big := FromSlice([]ids.ClassId{cid(1), cid(1), cid(2), cid(3)})
	small := FromSlice([]ids.ClassId{cid(1), cid(2)})
	tooMany := FromSlice([]ids.ClassId{cid(1), cid(1), cid(1)})

	require.True(t, big.Includes(small))
	require.False(t, big.Includes(tooMany))
	require.False(t, small.Includes(big))
}

func TestEqualIgnoresOrderAndZeroEntries(t *testing.T) {
	a := FromSlice([]ids.ClassId{cid(1), cid(2), cid(2)})
	b := New()
	b.InsertOne(cid(2))
	b.InsertOne(cid(2))
	b.InsertOne(cid(1))
	b.InsertOne(cid(9))
	b.Remove(cid(9)) // leaves a zero-count placeholder for 9

	require.True(t, a.Equal(b))
}

func TestCloneIsIndependent(t *testing.T) {
	a := FromSlice([]ids.ClassId{cid(1)})
	b := a.Clone()
	b.InsertOne(cid(2))

	require.False(t, a.Contains(cid(2)))
	require.True(t, b.Contains(cid(2)))
}
