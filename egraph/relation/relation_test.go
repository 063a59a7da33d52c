package relation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
)

// fakeHandle is a minimal core.Handle for exercising relation rebuild logic
// in isolation, backed by a plain union-find-like map.
type fakeHandle struct {
	canon map[ids.ClassId]ids.ClassId
	memo  []memoEntry
}

type memoEntry struct {
	class    ids.ClassId
	op       ids.Symbol
	children []ids.ClassId
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{canon: make(map[ids.ClassId]ids.ClassId)}
}

func (f *fakeHandle) Find(id ids.ClassId) ids.ClassId {
	for {
		next, ok := f.canon[id]
		if !ok || next == id {
			return id
		}
		id = next
	}
}

func (f *fakeHandle) Equiv(a, b ids.ClassId) bool { return f.Find(a) == f.Find(b) }

func (f *fakeHandle) Unify(a, b ids.ClassId) ids.ClassId {
	ra, rb := f.Find(a), f.Find(b)
	if ra == rb {
		return ra
	}
	if ra < rb {
		f.canon[rb] = ra
		return ra
	}
	f.canon[ra] = rb
	return rb
}

func (f *fakeHandle) Lookup(ids.Symbol, []ids.ClassId) (ids.ClassId, bool) { return 0, false }
func (f *fakeHandle) AddENode(ids.Symbol, []ids.ClassId) (ids.ClassId, error) { return 0, nil }
func (f *fakeHandle) AddENodeToMemo(class ids.ClassId, op ids.Symbol, children []ids.ClassId) {
	f.memo = append(f.memo, memoEntry{class, op, append([]ids.ClassId(nil), children...)})
}
func (f *fakeHandle) LookupOrEphemeral(ids.Symbol, []ids.ClassId) ids.ClassId { return 0 }

func TestRowStoreAddTupleRejectsWrongArity(t *testing.T) {
	r := NewRowStore(1, 3)
	err := r.AddTuple(newFakeHandle(), []ids.ClassId{1, 2})
	require.Error(t, err)
}

func TestRowStoreRebuildMergesCongruentTuples(t *testing.T) {
	r := NewRowStore(1, 3) // arity 2 op + class-id column
	h := newFakeHandle()

	require.NoError(t, r.AddTuple(h, []ids.ClassId{10, 11, 100}))
	require.NoError(t, r.AddTuple(h, []ids.ClassId{10, 11, 200}))

	changed := r.Rebuild(h)
	require.True(t, changed)
	require.Equal(t, 1, r.Size())
	require.True(t, h.Equiv(100, 200))
}

func TestRowStorePopulateIndexProjectsClassIds(t *testing.T) {
	r := NewRowStore(1, 2) // arity 1 op + class-id column
	h := newFakeHandle()
	require.NoError(t, r.AddTuple(h, []ids.ClassId{5, 100}))
	require.NoError(t, r.AddTuple(h, []ids.ClassId{6, 101}))

	idx := r.PopulateIndex(h, []int{0, 1}, 0)
	require.ElementsMatch(t, []ids.ClassId{5, 6}, idx.Project())
}

func TestRowStoreDump(t *testing.T) {
	r := NewRowStore(1, 2)
	h := newFakeHandle()
	require.NoError(t, r.AddTuple(h, []ids.ClassId{5, 100}))

	symbols := symtab.New()
	symbols.Intern("f")

	var buf bytes.Buffer
	r.Dump(&buf, symbols)
	require.Contains(t, buf.String(), "eclass-id: 100")
}

func TestRelationACDecompositionHoisting(t *testing.T) {
	mul := ids.Symbol(1)
	r := NewRelationAC(mul)
	h := newFakeHandle()

	// x: {a, b, c, d}
	require.NoError(t, r.AddTuple(h, []ids.ClassId{1, 2, 3, 4, 100}))

	before := r.Size()

	// inserting z: {a, b} should hoist a derived subterm x': {z, c, d}
	// and register it in the memo as denoting x's e-class (100).
	require.NoError(t, r.AddTuple(h, []ids.ClassId{1, 2, 200}))

	require.Greater(t, r.Size(), before+1)
	require.NotEmpty(t, h.memo)

	found := false
	for _, e := range h.memo {
		if e.class == 100 && e.op == mul {
			found = true
		}
	}
	require.True(t, found)
}

func TestRelationACRebuildMergesCongruentTerms(t *testing.T) {
	mul := ids.Symbol(1)
	r := NewRelationAC(mul)
	h := newFakeHandle()

	require.NoError(t, r.AddTuple(h, []ids.ClassId{1, 2, 100}))
	require.NoError(t, r.AddTuple(h, []ids.ClassId{1, 2, 200}))

	changed := r.Rebuild(h)
	require.True(t, changed)
	require.True(t, h.Equiv(100, 200))
	require.Equal(t, 1, r.Size())
}
