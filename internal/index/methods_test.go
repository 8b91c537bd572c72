package index

import (
	"testing"

	"github.com/samscott89/rudy-sub002/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestIsImplNamespace(t *testing.T) {
	assert.True(t, isImplNamespace("{impl#0}"))
	assert.True(t, isImplNamespace("{impl#12}"))
	assert.True(t, isImplNamespace("{impl}"))
	assert.False(t, isImplNamespace("inner_module"))
	assert.False(t, isImplNamespace("{closure#0}"))
}

func TestSelfKindString(t *testing.T) {
	assert.Equal(t, "self", SelfValue.String())
	assert.Equal(t, "&self", SelfBorrowed.String())
	assert.Equal(t, "&mut self", SelfBorrowedMut.String())
	assert.Equal(t, "", SelfNone.String())
}

func TestFormatSignature(t *testing.T) {
	sig := formatSignature("len", SelfBorrowed, nil, types.UInt{Bits: 64})
	assert.Equal(t, "fn len(&self) -> u64", sig)

	sig = formatSignature("push", SelfBorrowedMut, []types.Layout{types.UInt{Bits: 32}}, types.Unit{})
	assert.Equal(t, "fn push(&mut self, u32)", sig)
}

func TestSyntheticMethods(t *testing.T) {
	vec := types.Vec{Elem: types.UInt{Bits: 32}}
	names := methodNames(SyntheticMethods(vec))
	assert.ElementsMatch(t, []string{"len", "is_empty", "capacity"}, names)

	opt := types.OptionT{SomeType: types.UInt{Bits: 32}}
	names = methodNames(SyntheticMethods(opt))
	assert.ElementsMatch(t, []string{"is_some", "is_none"}, names)

	assert.Nil(t, SyntheticMethods(types.Bool{}))
}

func methodNames(ms []DiscoveredMethod) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}
