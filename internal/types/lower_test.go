package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

func lower(t *testing.T, s string) Layout {
	t.Helper()
	e, err := rustsym.ParseTypeExpr(s)
	require.NoError(t, err)
	return LowerTypeExpr(e)
}

func TestLowerPrimitives(t *testing.T) {
	assert.Equal(t, UInt{Bits: 8}, lower(t, "u8"))
	assert.Equal(t, Int{Bits: 128}, lower(t, "i128"))
	assert.Equal(t, Float{Bits: 32}, lower(t, "f32"))
	assert.Equal(t, UInt{Bits: 64}, lower(t, "usize"))
	assert.Equal(t, Bool{}, lower(t, "bool"))
	assert.Equal(t, Char{}, lower(t, "char"))
	assert.Equal(t, Never{}, lower(t, "!"))
	assert.Equal(t, Unit{}, lower(t, "()"))
}

func TestLowerFatPointers(t *testing.T) {
	assert.Equal(t, StrSlice{DataPtrOff: 0, LenOff: 8}, lower(t, "&str"))
	assert.Equal(t, Slice{Elem: UInt{Bits: 8}, DataPtrOff: 0, LenOff: 8}, lower(t, "&[u8]"))
}

func TestLowerReferenceAndPointer(t *testing.T) {
	assert.Equal(t, Reference{Mutable: true, Pointee: UInt{Bits: 32}}, lower(t, "&mut u32"))
	assert.Equal(t, Pointer{Mutable: false, Pointee: Bool{}}, lower(t, "*const bool"))
}

func TestLowerArrayAndFunction(t *testing.T) {
	assert.Equal(t, Array{Elem: UInt{Bits: 32}, Len: 4}, lower(t, "[u32; 4]"))

	fn := lower(t, "fn(u8) -> bool").(Function)
	require.Len(t, fn.Args, 1)
	assert.Equal(t, UInt{Bits: 8}, fn.Args[0])
	assert.Equal(t, Bool{}, fn.Ret)
}

func TestLowerNamedTypesStayAliases(t *testing.T) {
	l := lower(t, "my_crate::Session")
	assert.Equal(t, Alias{Name: "my_crate::Session"}, l)

	// A name the resolver couldn't prove primitive keeps its generics in the
	// alias so a later deep resolution can find the declaring DIE.
	l = lower(t, "alloc::vec::Vec<u8>")
	assert.Equal(t, Alias{Name: "alloc::vec::Vec<u8>"}, l)
}

func TestLowerInvalidWidthIsNotPrimitive(t *testing.T) {
	assert.Equal(t, Alias{Name: "u7"}, lower(t, "u7"))
	assert.Equal(t, Alias{Name: "f16"}, lower(t, "f16"))
}
