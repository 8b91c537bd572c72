package rustsym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbolNameBasic(t *testing.T) {
	n := ParseSymbolName("my_crate::foo::bar::h0123456789abcdef")
	require.Equal(t, []string{"my_crate", "foo"}, n.ModulePath)
	assert.Equal(t, "bar", n.Item)
	assert.Equal(t, "h0123456789abcdef", n.Hash)
}

func TestParseSymbolNameNoHash(t *testing.T) {
	n := ParseSymbolName("main")
	assert.Empty(t, n.ModulePath)
	assert.Equal(t, "main", n.Item)
	assert.Empty(t, n.Hash)
}

func TestParseSymbolNameRespectsAngleDepth(t *testing.T) {
	n := ParseSymbolName("alloc::vec::Vec<my_crate::Item>::new::h1111111111111111")
	require.Equal(t, []string{"alloc", "vec", "Vec<my_crate::Item>"}, n.ModulePath)
	assert.Equal(t, "new", n.Item)
	assert.Equal(t, "h1111111111111111", n.Hash)
}

func TestSymbolNameRoundTrips(t *testing.T) {
	inputs := []string{
		"main",
		"my_crate::foo::bar::h0123456789abcdef",
		"a::b::c",
	}
	for _, in := range inputs {
		n := ParseSymbolName(in)
		assert.Equal(t, in, n.String())
	}
}

func TestMatchesPatternSuffix(t *testing.T) {
	pattern := ParseSymbolName("foo::bar")
	candidate := ParseSymbolName("my_crate::foo::bar::h0123456789abcdef")
	assert.True(t, pattern.MatchesPattern(candidate))

	nonMatch := ParseSymbolName("my_crate::other::bar::h0123456789abcdef")
	assert.False(t, pattern.MatchesPattern(nonMatch))
}

func TestMatchesPatternNoModulePathMatchesAny(t *testing.T) {
	pattern := ParseSymbolName("main")
	candidate := ParseSymbolName("my_crate::main")
	assert.True(t, pattern.MatchesPattern(candidate))
}
