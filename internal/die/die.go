// Package die implements DIE access (layer L3): identity, navigation,
// attribute extraction, and a walker callback interface over DWARF
// debug-information entries, exposed as a reusable, randomly-addressable
// Die handle.
package die

import (
	"debug/dwarf"
	"fmt"
)

// Die is a handle to one DWARF debug-information entry, scoped to the
// debug file it was read from. Every accessor that can fail returns a rich
// error naming the file and DIE offset,
type Die struct {
	Data     *dwarf.Data
	Entry    *dwarf.Entry
	FileName string
}

// New wraps an already-read dwarf.Entry.
func New(data *dwarf.Data, entry *dwarf.Entry, fileName string) *Die {
	return &Die{Data: data, Entry: entry, FileName: fileName}
}

// Offset is the DIE's byte offset within its compilation unit's .debug_info
// contribution — the primary component of a Die handle's structural key.
func (d *Die) Offset() dwarf.Offset { return d.Entry.Offset }

// Tag is the DIE's DWARF tag (DW_TAG_*).
func (d *Die) Tag() dwarf.Tag { return d.Entry.Tag }

func (d *Die) errf(format string, args ...any) error {
	return fmt.Errorf("%s:0x%x: "+format, append([]any{d.FileName, d.Entry.Offset}, args...)...)
}

// Name returns DW_AT_name, or "" if absent.
func (d *Die) Name() string {
	if v, ok := d.Entry.Val(dwarf.AttrName).(string); ok {
		return v
	}
	return ""
}

// LinkageName returns DW_AT_linkage_name, or "" if absent.
func (d *Die) LinkageName() string {
	if v, ok := d.Entry.Val(dwarf.AttrLinkageName).(string); ok {
		return v
	}
	return ""
}

// Attr returns the untyped value of a DWARF attribute.
func (d *Die) Attr(at dwarf.Attr) (any, bool) {
	v := d.Entry.Val(at)
	return v, v != nil
}

// UdataAttr returns an unsigned-integer-valued attribute.
func (d *Die) UdataAttr(at dwarf.Attr) (uint64, bool) {
	switch v := d.Entry.Val(at).(type) {
	case uint64:
		return v, true
	case int64:
		return uint64(v), true
	}
	return 0, false
}

// SdataAttr returns a signed-integer-valued attribute.
func (d *Die) SdataAttr(at dwarf.Attr) (int64, bool) {
	switch v := d.Entry.Val(at).(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// StringAttr returns a string-valued attribute.
func (d *Die) StringAttr(at dwarf.Attr) (string, bool) {
	v, ok := d.Entry.Val(at).(string)
	return v, ok
}

// BoolAttr returns a flag-valued attribute (DW_AT_declaration, DW_AT_external, ...).
func (d *Die) BoolAttr(at dwarf.Attr) (bool, bool) {
	v, ok := d.Entry.Val(at).(bool)
	return v, ok
}

// ReferencedEntry resolves a DIE-offset-valued attribute (DW_AT_type,
// DW_AT_specification, DW_AT_abstract_origin, ...) to the Die it points at,
// within the same debug file.
func (d *Die) ReferencedEntry(at dwarf.Attr) (*Die, error) {
	off, ok := d.Entry.Val(at).(dwarf.Offset)
	if !ok {
		return nil, d.errf("attribute %v is not a DIE reference", at)
	}
	r := d.Data.Reader()
	r.Seek(off)
	e, err := r.Next()
	if err != nil {
		return nil, d.errf("resolving reference %v: %w", at, err)
	}
	if e == nil {
		return nil, d.errf("attribute %v references a nonexistent DIE at 0x%x", at, off)
	}
	return New(d.Data, e, d.FileName), nil
}

// Type follows DW_AT_type to the referenced type DIE. Returns (nil, nil)
// when the attribute is absent (e.g. a void return type).
func (d *Die) Type() (*Die, error) {
	if _, ok := d.Entry.Val(dwarf.AttrType).(dwarf.Offset); !ok {
		return nil, nil
	}
	return d.ReferencedEntry(dwarf.AttrType)
}

// Children returns the DIE's immediate children, not descending into
// grandchildren.
func (d *Die) Children() ([]*Die, error) {
	if !d.Entry.Children {
		return nil, nil
	}
	r := d.Data.Reader()
	r.Seek(d.Entry.Offset)
	if _, err := r.Next(); err != nil {
		return nil, d.errf("re-reading entry: %w", err)
	}

	var children []*Die
	for {
		e, err := r.Next()
		if err != nil {
			return nil, d.errf("reading children: %w", err)
		}
		if e == nil || e.Tag == 0 {
			break
		}
		children = append(children, New(d.Data, e, d.FileName))
		if e.Children {
			r.SkipChildren()
		}
	}
	return children, nil
}

// Member returns the first direct child with the given DW_AT_name.
func (d *Die) Member(name string) (*Die, bool, error) {
	children, err := d.Children()
	if err != nil {
		return nil, false, err
	}
	for _, c := range children {
		if c.Tag() == dwarf.TagMember && c.Name() == name {
			return c, true, nil
		}
	}
	return nil, false, nil
}

// MemberByTag returns the first direct child carrying the given tag.
func (d *Die) MemberByTag(tag dwarf.Tag) (*Die, bool, error) {
	children, err := d.Children()
	if err != nil {
		return nil, false, err
	}
	for _, c := range children {
		if c.Tag() == tag {
			return c, true, nil
		}
	}
	return nil, false, nil
}

// TemplateTypeParam returns the type DIE of the nth DW_TAG_template_type_parameter
// child (0-indexed), the DWARF encoding of a Rust generic argument.
func (d *Die) TemplateTypeParam(index int) (*Die, bool, error) {
	children, err := d.Children()
	if err != nil {
		return nil, false, err
	}
	n := 0
	for _, c := range children {
		if c.Tag() != dwarf.TagTemplateTypeParameter {
			continue
		}
		if n == index {
			t, err := c.Type()
			if err != nil || t == nil {
				return nil, false, err
			}
			return t, true, nil
		}
		n++
	}
	return nil, false, nil
}

// LocationExpr returns the raw DWARF expression bytes of DW_AT_location,
// when encoded as an inline exprloc (the common case for rustc output;
// location lists requiring .debug_loclists resolution are not supported).
func (d *Die) LocationExpr() ([]byte, bool) {
	v, ok := d.Entry.Val(dwarf.AttrLocation).([]byte)
	return v, ok
}

// FrameBase returns DW_AT_frame_base's raw expression bytes, read from a
// DW_TAG_subprogram DIE.
func (d *Die) FrameBase() ([]byte, bool) {
	v, ok := d.Entry.Val(dwarf.AttrFrameBase).([]byte)
	return v, ok
}

// DeclLine returns DW_AT_decl_line.
func (d *Die) DeclLine() (int, bool) {
	v, ok := d.UdataAttr(dwarf.AttrDeclLine)
	return int(v), ok
}

// DataMemberLocation returns DW_AT_data_member_location as a byte offset.
// DWARF permits this attribute to be either a constant or a location
// expression; the constant form (the overwhelming common case for struct
// layout) and a single-operation DW_OP_plus_uconst expression are
// supported, and any other expression reports false.
func (d *Die) DataMemberLocation() (int64, bool) {
	switch v := d.Entry.Val(dwarf.AttrDataMemberLoc).(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case []byte:
		if len(v) >= 2 && v[0] == 0x23 { // DW_OP_plus_uconst
			val, _ := decodeULEB128(v[1:])
			return int64(val), true
		}
	}
	return 0, false
}

// LowHighPC returns DW_AT_low_pc/DW_AT_high_pc as an absolute (low, high)
// address pair. DW_AT_high_pc may be encoded either as an absolute address
// or, in DWARF4+, as an offset from low_pc; both forms are handled.
func (d *Die) LowHighPC() (low, high uint64, ok bool) {
	lowRaw, lok := d.Entry.Val(dwarf.AttrLowpc).(uint64)
	if !lok {
		return 0, 0, false
	}
	switch h := d.Entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		return lowRaw, h, true
	case int64:
		return lowRaw, lowRaw + uint64(h), true
	}
	return lowRaw, 0, false
}

func decodeULEB128(b []byte) (uint64, int) {
	var result uint64
	var shift uint
	var n int
	for n < len(b) {
		byt := b[n]
		n++
		result |= uint64(byt&0x7f) << shift
		if byt&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, n
}
