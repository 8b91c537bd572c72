package die

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func entryWith(tag dwarf.Tag, fields ...dwarf.Field) *dwarf.Entry {
	return &dwarf.Entry{Tag: tag, Field: fields}
}

func TestAttrAccessors(t *testing.T) {
	e := entryWith(dwarf.TagMember,
		dwarf.Field{Attr: dwarf.AttrName, Val: "x"},
		dwarf.Field{Attr: dwarf.AttrByteSize, Val: int64(4)},
		dwarf.Field{Attr: dwarf.AttrDataMemberLoc, Val: int64(8)},
		dwarf.Field{Attr: dwarf.AttrExternal, Val: true},
	)
	d := New(nil, e, "a.out")

	assert.Equal(t, "x", d.Name())
	size, ok := d.UdataAttr(dwarf.AttrByteSize)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), size)

	loc, ok := d.DataMemberLocation()
	assert.True(t, ok)
	assert.Equal(t, int64(8), loc)

	ext, ok := d.BoolAttr(dwarf.AttrExternal)
	assert.True(t, ok)
	assert.True(t, ext)

	_, ok = d.StringAttr(dwarf.AttrLinkageName)
	assert.False(t, ok)
}

func TestDataMemberLocationFromExprloc(t *testing.T) {
	e := entryWith(dwarf.TagMember,
		dwarf.Field{Attr: dwarf.AttrDataMemberLoc, Val: []byte{0x23, 0x10}}, // DW_OP_plus_uconst 0x10
	)
	d := New(nil, e, "a.out")
	loc, ok := d.DataMemberLocation()
	assert.True(t, ok)
	assert.Equal(t, int64(0x10), loc)
}

func TestDecodeULEB128(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"zero", []byte{0x00}, 0},
		{"single byte", []byte{0x7f}, 0x7f},
		{"two bytes", []byte{0xe5, 0x8e}, 1893},
		{"three bytes", []byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := decodeULEB128(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeAbsentReturnsNil(t *testing.T) {
	e := entryWith(dwarf.TagFormalParameter)
	d := New(nil, e, "a.out")
	typ, err := d.Type()
	assert.NoError(t, err)
	assert.Nil(t, typ)
}
