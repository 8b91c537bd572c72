package index

import (
	"sort"

	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

// AddressInterval is one entry of the address tree ("Address
// tree"): a function's absolute and binary-relative address range, together
// with the symbol name and debug file it came from. Intervals for the same
// function may overlap across debug files when a definition is emitted more
// than once; the tree returns every match and lets the caller score them.
type AddressInterval struct {
	AbsStart, AbsEnd uint64
	RelStart, RelEnd uint64
	Name             rustsym.SymbolName
	DebugFile        string
}

// AddressTree is an ordered sequence of AddressInterval, queryable by
// containing interval via a sorted-slice binary search.
type AddressTree struct {
	intervals []AddressInterval
	sorted    bool
}

// Insert adds an interval. The tree is re-sorted on the next query.
func (t *AddressTree) Insert(iv AddressInterval) {
	t.intervals = append(t.intervals, iv)
	t.sorted = false
}

// Sort orders the intervals by absolute start address. QueryAddress and All
// call it themselves when an Insert has left the tree unsorted.
func (t *AddressTree) Sort() {
	sort.Slice(t.intervals, func(i, j int) bool {
		return t.intervals[i].AbsStart < t.intervals[j].AbsStart
	})
	t.sorted = true
}

// QueryAddress returns every interval whose [AbsStart, AbsEnd) contains addr.
func (t *AddressTree) QueryAddress(addr uint64) []AddressInterval {
	if !t.sorted {
		t.Sort()
	}
	// Binary search for the first interval starting after addr; every
	// interval before it starts at or below addr and, since overlaps are
	// allowed, any of them may contain it, so all of them are checked.
	lo := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].AbsStart > addr
	})
	var out []AddressInterval
	for i := 0; i < lo; i++ {
		iv := t.intervals[i]
		if addr >= iv.AbsStart && addr < iv.AbsEnd {
			out = append(out, iv)
		}
	}
	return out
}

// Len reports the number of intervals currently held.
func (t *AddressTree) Len() int { return len(t.intervals) }

// All returns every interval, sorted by absolute start address.
func (t *AddressTree) All() []AddressInterval {
	if !t.sorted {
		t.Sort()
	}
	return t.intervals
}
