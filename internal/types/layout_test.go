package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveDisplayAndSize(t *testing.T) {
	tests := []struct {
		layout Layout
		name   string
		size   uint64
	}{
		{Bool{}, "bool", 1},
		{Char{}, "char", 4},
		{Int{Bits: 32}, "i32", 4},
		{UInt{Bits: 64}, "u64", 8},
		{Float{Bits: 64}, "f64", 8},
		{Unit{}, "()", 0},
		{Never{}, "!", 0},
		{StrSlice{DataPtrOff: 0, LenOff: 8}, "&str", 16},
		{Array{Elem: UInt{Bits: 32}, Len: 4}, "[u32; 4]", 16},
		{Pointer{Mutable: true, Pointee: UInt{Bits: 8}}, "*mut u8", 8},
		{Reference{Pointee: Str{}}, "&str", 16},
		{Reference{Pointee: UInt{Bits: 8}}, "&u8", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.layout.DisplayName())
			assert.Equal(t, tt.size, tt.layout.Size())
		})
	}
}

func TestContainerDisplayNames(t *testing.T) {
	vec := Vec{Elem: UInt{Bits: 8}}
	assert.Equal(t, "Vec<u8>", vec.DisplayName())
	assert.Equal(t, "String", StringT{Inner: vec}.DisplayName())

	opt := OptionT{SomeType: Int{Bits: 32}, ByteSize: 8}
	assert.Equal(t, "Option<i32>", opt.DisplayName())
	assert.Equal(t, uint64(8), opt.Size())

	res := ResultT{OkType: Int{Bits: 32}, ErrType: StringT{}}
	assert.Equal(t, "Result<i32, String>", res.DisplayName())

	hm := MapT{Key: StringT{}, Value: Int{Bits: 32}, Variant: MapHashMap}
	assert.Equal(t, "HashMap<String, i32>", hm.DisplayName())
	bm := MapT{Key: UInt{Bits: 64}, Value: Bool{}, Variant: MapBTreeMap}
	assert.Equal(t, "BTreeMap<u64, bool>", bm.DisplayName())

	arc := SmartPtr{Variant: SmartArc, Inner: StringT{}}
	assert.Equal(t, "Arc<String>", arc.DisplayName())
	assert.Equal(t, uint64(8), arc.Size())
	cell := SmartPtr{Variant: SmartCell, Inner: UInt{Bits: 32}}
	assert.Equal(t, uint64(4), cell.Size())
}

func TestEnumVariantHelpers(t *testing.T) {
	one := int64(1)
	e := EnumT{
		Name: "E",
		Variants: []EnumVariant{
			{Name: "A", DiscrValue: new(int64), Layout: StructT{}},
			{Name: "B", DiscrValue: &one, Layout: StructT{}},
			{Name: "C", Layout: StructT{}},
		},
	}

	v, ok := e.VariantByDiscrValue(1)
	require.True(t, ok)
	assert.Equal(t, "B", v.Name)

	_, ok = e.VariantByDiscrValue(7)
	assert.False(t, ok)

	niche, ok := e.NicheVariant()
	require.True(t, ok)
	assert.Equal(t, "C", niche.Name)
}

func TestCEnumVariantByValue(t *testing.T) {
	c := CEnumT{
		Name:      "Color",
		DiscrType: UInt{Bits: 8},
		Variants:  []CEnumVariant{{Name: "Red", Value: 0}, {Name: "Blue", Value: 2}},
		ByteSize:  1,
	}
	v, ok := c.VariantByValue(2)
	require.True(t, ok)
	assert.Equal(t, "Blue", v.Name)
	_, ok = c.VariantByValue(1)
	assert.False(t, ok)
}

func TestStructFieldByName(t *testing.T) {
	s := StructT{
		Name: "Session",
		Fields: []StructField{
			{Name: "id", Offset: 0, Layout: UInt{Bits: 64}},
			{Name: "name", Offset: 8, Layout: StringT{}},
		},
		ByteSize: 32,
	}
	f, ok := s.FieldByName("name")
	require.True(t, ok)
	assert.Equal(t, uint64(8), f.Offset)
	_, ok = s.FieldByName("missing")
	assert.False(t, ok)
}

func TestStdPath(t *testing.T) {
	root, last, generics, ok := StdPath("alloc::vec::Vec<u8, alloc::alloc::Global>")
	require.True(t, ok)
	assert.Equal(t, "alloc", root)
	assert.Equal(t, "Vec", last)
	assert.Len(t, generics, 2)

	_, _, _, ok = StdPath("my_crate::Vec")
	assert.False(t, ok)

	_, last, _, ok = StdPath("std::collections::hash::map::HashMap<String, i32>")
	require.True(t, ok)
	assert.Equal(t, "HashMap", last)
}
