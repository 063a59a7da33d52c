// Package multiset implements the sorted, zero-count-preserving multiset of
// e-class ids used to represent the arguments of an associative-commutative
// term, together with an incrementally-maintained commutative fingerprint.
package multiset

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
)

// prime is the modulus for the fingerprint's commutative ring. It is the
// largest prime below 2^61, large enough that accidental collisions between
// distinct small multisets are vanishingly unlikely, and small enough that
// adding two reduced values never overflows a uint64. Products can overflow,
// so mulmodp multiplies by double-and-add.
const prime uint64 = 2305843009213693951

// elemHash returns h(x) for the fingerprint: a well-distributed 64-bit hash
// of a single class id, reduced mod prime. Using a real hash function
// (xxhash, rather than the id itself) ensures the fingerprint doesn't
// degenerate for runs of sequentially-allocated ids, which e-class ids
// always are.
func elemHash(x ids.ClassId) uint64 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(x))
	return xxhash.Sum64(buf[:]) % prime
}

func addmodp(a, b uint64) uint64 {
	return (a + b) % prime
}

func submodp(a, b uint64) uint64 {
	return (a + prime - b%prime) % prime
}

func mulmodp(a, b uint64) uint64 {
	// a, b < prime < 2^61, so a*b fits in 128 bits conceptually but
	// overflows uint64 on multiplication; reduce b's magnitude via simple
	// double-and-add modular multiplication instead of widening.
	var result uint64
	a %= prime
	for b > 0 {
		if b&1 == 1 {
			result = addmodp(result, a)
		}
		a = addmodp(a, a)
		b >>= 1
	}
	return result
}

// entry is one (id, count) pair. A zero count is retained deliberately: the
// query engine's Select/Unselect during pattern matching decrements and
// re-increments counts as it commits and backtracks through candidates, and
// erasing-then-reinserting the slice entry on every step would be far more
// expensive than leaving a zero-count placeholder in place.
type entry struct {
	id    ids.ClassId
	count uint32
}

// Multiset is a sorted bag of e-class ids with multiplicities.
type Multiset struct {
	data        []entry
	nelements   int
	fingerprint uint64
}

// New returns an empty multiset.
func New() *Multiset {
	return &Multiset{fingerprint: 0}
}

// FromSlice builds a multiset from an unsorted slice of ids, counting
// repeats.
func FromSlice(xs []ids.ClassId) *Multiset {
	m := New()
	for _, x := range xs {
		m.Insert(x, 1)
	}
	return m
}

func (m *Multiset) findPos(id ids.ClassId) int {
	return sort.Search(len(m.data), func(i int) bool { return m.data[i].id >= id })
}

// Insert adds count occurrences of id (count defaults to 1 via InsertOne).
func (m *Multiset) Insert(id ids.ClassId, count uint32) {
	if count == 0 {
		return
	}
	i := m.findPos(id)
	if i < len(m.data) && m.data[i].id == id {
		m.data[i].count += count
	} else {
		m.data = append(m.data, entry{})
		copy(m.data[i+1:], m.data[i:])
		m.data[i] = entry{id: id, count: count}
	}
	m.nelements += int(count)
	m.fingerprint = addmodp(m.fingerprint, mulmodp(elemHash(id), uint64(count)))
}

// InsertOne adds a single occurrence of id.
func (m *Multiset) InsertOne(id ids.ClassId) {
	m.Insert(id, 1)
}

// Remove decrements the count of id by one. It is a no-op if id is absent
// or already at zero count.
func (m *Multiset) Remove(id ids.ClassId) {
	i := m.findPos(id)
	if i < len(m.data) && m.data[i].id == id && m.data[i].count > 0 {
		m.data[i].count--
		m.nelements--
		m.fingerprint = submodp(m.fingerprint, elemHash(id))
	}
}

// Contains reports whether id has a positive count.
func (m *Multiset) Contains(id ids.ClassId) bool {
	i := m.findPos(id)
	return i < len(m.data) && m.data[i].id == id && m.data[i].count > 0
}

// Count returns the multiplicity of id (0 if absent).
func (m *Multiset) Count(id ids.ClassId) uint32 {
	i := m.findPos(id)
	if i < len(m.data) && m.data[i].id == id {
		return m.data[i].count
	}
	return 0
}

// Size returns the total count including multiplicities.
func (m *Multiset) Size() int {
	return m.nelements
}

// UniqueSize is an upper bound on the number of non-zero entries: zero-count
// placeholders are retained in the backing slice, so this may over-report.
// It exists only to drive heuristics (e.g. "pick the smaller set first" in
// the query engine), never for correctness.
func (m *Multiset) UniqueSize() int {
	return len(m.data)
}

// Empty reports whether the multiset has no entries at all, including
// zero-count placeholders.
func (m *Multiset) Empty() bool {
	return len(m.data) == 0
}

// Hash returns the current fingerprint.
func (m *Multiset) Hash() uint64 {
	return m.fingerprint
}

func (m *Multiset) rehash() {
	m.fingerprint = 0
	for _, e := range m.data {
		if e.count > 0 {
			m.fingerprint = addmodp(m.fingerprint, mulmodp(elemHash(e.id), uint64(e.count)))
		}
	}
}

// Equal reports whether m and other contain the same elements with the same
// counts. The fingerprint is checked first as a fast-path rejection.
func (m *Multiset) Equal(other *Multiset) bool {
	if m.Hash() != other.Hash() {
		return false
	}
	if m.Size() != other.Size() {
		return false
	}
	for _, e := range m.data {
		if other.Count(e.id) != e.count {
			return false
		}
	}
	for _, e := range other.data {
		if m.Count(e.id) != e.count {
			return false
		}
	}
	return true
}

// Includes reports whether other is a sub-multiset of m: for every element
// of other, m has at least as many occurrences.
func (m *Multiset) Includes(other *Multiset) bool {
	if other.nelements > m.nelements {
		return false
	}
	for _, e := range other.data {
		if e.count > 0 && m.Count(e.id) < e.count {
			return false
		}
	}
	return true
}

// Msetdiff returns a new multiset containing, for each element of m, its
// count minus other's count (clamped at zero, i.e. omitted when non-
// positive): the multiset analogue of m \ other.
func (m *Multiset) Msetdiff(other *Multiset) *Multiset {
	diff := New()
	for _, e := range m.data {
		if e.count == 0 {
			continue
		}
		oc := other.Count(e.id)
		if e.count > oc {
			diff.Insert(e.id, e.count-oc)
		}
	}
	return diff
}

// Map applies f to every element id, coalescing duplicates that f maps
// together and recomputing the fingerprint from scratch (a bulk structural
// change makes incremental maintenance pointless). It reports whether
// anything actually changed.
func (m *Multiset) Map(f func(ids.ClassId) ids.ClassId) bool {
	changed := false
	for i := range m.data {
		nv := f(m.data[i].id)
		if nv != m.data[i].id {
			m.data[i].id = nv
			changed = true
		}
	}
	if !changed {
		return false
	}

	sort.Slice(m.data, func(i, j int) bool { return m.data[i].id < m.data[j].id })

	j := 0
	for i := 1; i < len(m.data); i++ {
		if m.data[j].id == m.data[i].id {
			m.data[j].count += m.data[i].count
		} else {
			j++
			m.data[j] = m.data[i]
		}
	}
	if len(m.data) > 0 {
		m.data = m.data[:j+1]
	}

	m.rehash()
	return true
}

// Collect flattens the multiset into a slice, each id repeated by its count,
// in sorted order.
func (m *Multiset) Collect() []ids.ClassId {
	out := make([]ids.ClassId, 0, m.nelements)
	for _, e := range m.data {
		for i := uint32(0); i < e.count; i++ {
			out = append(out, e.id)
		}
	}
	return out
}

// ForEach calls f once for every element with positive count, in sorted
// order, without exposing the (id, count) storage representation.
func (m *Multiset) ForEach(f func(id ids.ClassId, count uint32)) {
	for _, e := range m.data {
		if e.count > 0 {
			f(e.id, e.count)
		}
	}
}

// Clone returns a deep copy of m.
func (m *Multiset) Clone() *Multiset {
	out := &Multiset{
		data:        make([]entry, len(m.data)),
		nelements:   m.nelements,
		fingerprint: m.fingerprint,
	}
	copy(out.data, m.data)
	return out
}
