package rustsym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeExprPrimitive(t *testing.T) {
	e, err := ParseTypeExpr("u32")
	require.NoError(t, err)
	path, ok := e.(PathExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"u32"}, path.Segments)
}

func TestParseTypeExprGenericPath(t *testing.T) {
	e, err := ParseTypeExpr("alloc::vec::Vec<u8>")
	require.NoError(t, err)
	path, ok := e.(PathExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"alloc", "vec", "Vec"}, path.Segments)
	require.Len(t, path.Generics, 1)
	elemPath, ok := path.Generics[0].(PathExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"u8"}, elemPath.Segments)
}

func TestParseTypeExprReferenceAndSlice(t *testing.T) {
	e, err := ParseTypeExpr("&[u8]")
	require.NoError(t, err)
	ref, ok := e.(ReferenceExpr)
	require.True(t, ok)
	assert.False(t, ref.Mutable)
	_, ok = ref.Elem.(SliceExpr)
	assert.True(t, ok)
}

func TestParseTypeExprMutReference(t *testing.T) {
	e, err := ParseTypeExpr("&mut String")
	require.NoError(t, err)
	ref, ok := e.(ReferenceExpr)
	require.True(t, ok)
	assert.True(t, ref.Mutable)
}

func TestParseTypeExprArray(t *testing.T) {
	e, err := ParseTypeExpr("[u32; 4]")
	require.NoError(t, err)
	arr, ok := e.(ArrayExpr)
	require.True(t, ok)
	assert.Equal(t, uint64(4), arr.Len)
}

func TestParseTypeExprTuple(t *testing.T) {
	e, err := ParseTypeExpr("(u32, bool)")
	require.NoError(t, err)
	tup, ok := e.(TupleExpr)
	require.True(t, ok)
	assert.Len(t, tup.Elems, 2)
}

func TestParseTypeExprStr(t *testing.T) {
	e, err := ParseTypeExpr("str")
	require.NoError(t, err)
	_, ok := e.(StrSliceExpr)
	assert.True(t, ok)
}

func TestParseTypeExprUnit(t *testing.T) {
	e, err := ParseTypeExpr("()")
	require.NoError(t, err)
	_, ok := e.(UnitExpr)
	assert.True(t, ok)
}

func TestParseTypeExprNestedGenerics(t *testing.T) {
	e, err := ParseTypeExpr("std::collections::HashMap<alloc::string::String, i32>")
	require.NoError(t, err)
	path, ok := e.(PathExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"std", "collections", "HashMap"}, path.Segments)
	require.Len(t, path.Generics, 2)
}
