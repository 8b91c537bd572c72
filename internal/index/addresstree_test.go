package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

func TestAddressTreeQueryAddress(t *testing.T) {
	var tree AddressTree
	tree.Insert(AddressInterval{AbsStart: 0x1000, AbsEnd: 0x1010, Name: rustsym.ParseSymbolName("foo")})
	tree.Insert(AddressInterval{AbsStart: 0x2000, AbsEnd: 0x2020, Name: rustsym.ParseSymbolName("bar")})

	matches := tree.QueryAddress(0x1008)
	assert.Len(t, matches, 1)
	assert.Equal(t, "foo", matches[0].Name.String())

	assert.Empty(t, tree.QueryAddress(0x1010)) // end is exclusive
	assert.Empty(t, tree.QueryAddress(0x1fff))
}

func TestAddressTreeOverlappingIntervals(t *testing.T) {
	var tree AddressTree
	tree.Insert(AddressInterval{AbsStart: 0x1000, AbsEnd: 0x1100, Name: rustsym.ParseSymbolName("outer")})
	tree.Insert(AddressInterval{AbsStart: 0x1000, AbsEnd: 0x1010, Name: rustsym.ParseSymbolName("inner")})

	matches := tree.QueryAddress(0x1005)
	assert.Len(t, matches, 2)
}

func TestAddressTreeSortsLazily(t *testing.T) {
	var tree AddressTree
	tree.Insert(AddressInterval{AbsStart: 0x3000, AbsEnd: 0x3010})
	tree.Insert(AddressInterval{AbsStart: 0x1000, AbsEnd: 0x1010})

	all := tree.All()
	assert.Equal(t, uint64(0x1000), all[0].AbsStart)
	assert.Equal(t, uint64(0x3000), all[1].AbsStart)
	assert.Equal(t, 2, tree.Len())
}
