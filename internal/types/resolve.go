package types

import (
	"debug/dwarf"
	"fmt"
	"strings"

	"github.com/samscott89/rudy-sub002/internal/dbcore"
	"github.com/samscott89/rudy-sub002/internal/die"
	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

// DWARF base-type encodings consulted when classifying DW_TAG_base_type
// (base_type handling).
const (
	dwAteBoolean      = 0x02
	dwAteFloat        = 0x04
	dwAteSigned       = 0x05
	dwAteSignedChar   = 0x06
	dwAteUnsigned     = 0x07
	dwAteUnsignedChar = 0x08
	dwAteUTF          = 0x10
)

// Resolver produces Layouts from DIE subtrees, memoizing deep resolutions
// through the query engine (L1) and breaking type-graph cycles by resolving
// shallowly inside composite layouts.
type Resolver struct {
	db       *dbcore.Database
	fileDeps []dbcore.FileHandle
	fileName string

	// ModulePathOf, when set, returns the namespace path enclosing a DIE.
	// rustc's DW_AT_name carries no module prefix ("Vec<u8, ...>", not
	// "alloc::vec::Vec<u8, ...>"), so std-container recognition needs the
	// enclosing namespaces to see the path spec-classified containers key on.
	// The indexer's module tree supplies this; a Resolver without it still
	// recognizes containers whose names arrive already qualified.
	ModulePathOf func(d *die.Die) []string
}

// NewResolver creates a Resolver whose deep-resolution cache entries are
// invalidated when any of fileDeps changes.
func NewResolver(db *dbcore.Database, fileName string, fileDeps ...dbcore.FileHandle) *Resolver {
	return &Resolver{db: db, fileDeps: fileDeps, fileName: fileName}
}

// qualifiedName returns d's display name prefixed with its enclosing module
// path when the ModulePathOf hook can supply one.
func (r *Resolver) qualifiedName(d *die.Die) string {
	name := d.Name()
	if r.ModulePathOf == nil || name == "" {
		return name
	}
	path := r.ModulePathOf(d)
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, "::") + "::" + name
}

// ResolveDeep produces a fully-resolved Layout for d, memoized by DIE offset.
func (r *Resolver) ResolveDeep(d *die.Die) Layout {
	key := fmt.Sprintf("type-deep:%s:0x%x", r.fileName, d.Offset())
	layout, _ := dbcore.Query(r.db, key, r.fileDeps, func(acc *dbcore.Accumulator) Layout {
		l, err := r.resolveDeep(d, acc)
		if err != nil {
			acc.Error(locOf(d), "resolving type: %v", err)
			return Alias{Name: d.Name()}
		}
		return l
	})
	return layout
}

// ResolveShallow returns a Layout that either fully describes a primitive or
// recognized standard type, or falls back to Alias{name} for anything else —
// used inside composite layouts to avoid unbounded recursive expansion.
func (r *Resolver) ResolveShallow(d *die.Die) Layout {
	if l, ok := r.resolvePrimitive(d); ok {
		return l
	}
	if l, ok, err := r.resolveStdByName(d, true); err == nil && ok {
		return l
	}
	if expr, err := rustsym.ParseTypeExpr(d.Name()); err == nil {
		return LowerTypeExpr(expr)
	}
	return Alias{Name: d.Name()}
}

func locOf(d *die.Die) string {
	return fmt.Sprintf("%s:0x%x", d.FileName, d.Offset())
}

func (r *Resolver) resolveDeep(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	if l, ok := r.resolvePrimitive(d); ok {
		return l, nil
	}

	switch d.Tag() {
	case dwarf.TagPointerType, dwarf.TagReferenceType:
		return r.resolvePointerLike(d, acc)
	case dwarf.TagArrayType:
		return r.resolveArray(d, acc)
	case dwarf.TagSubroutineType:
		return r.resolveFunction(d, acc)
	case dwarf.TagEnumerationType:
		return r.resolveCEnum(d, acc)
	case dwarf.TagStructType, dwarf.TagUnionType:
		if l, ok, err := r.resolveStdByName(d, false); err == nil && ok {
			return l, nil
		} else if err != nil {
			acc.Warn(locOf(d), "std container recognition failed: %v", err)
		}
		if vp, _, _ := d.MemberByTag(dwarf.TagVariantPart); vp != nil {
			return r.resolveEnum(d, acc)
		}
		return r.resolveStruct(d, acc)
	default:
		acc.Warn(locOf(d), "unrecognized type tag %v, falling back to alias", d.Tag())
		return Alias{Name: d.Name()}, nil
	}
}

func (r *Resolver) resolvePrimitive(d *die.Die) (Layout, bool) {
	if d.Tag() != dwarf.TagBaseType {
		if d.Tag() == dwarf.TagUnspecifiedType || d.Name() == "!" {
			return Never{}, true
		}
		return nil, false
	}
	size, _ := d.UdataAttr(dwarf.AttrByteSize)
	enc, _ := d.UdataAttr(dwarf.AttrEncoding)
	name := d.Name()

	if name == "()" && size == 0 {
		return Unit{}, true
	}
	switch enc {
	case dwAteBoolean:
		return Bool{}, true
	case dwAteFloat:
		return Float{Bits: int(size) * 8}, true
	case dwAteSigned, dwAteSignedChar:
		return Int{Bits: int(size) * 8}, true
	case dwAteUnsigned, dwAteUnsignedChar:
		return UInt{Bits: int(size) * 8}, true
	case dwAteUTF:
		return Char{}, true
	}
	return nil, false
}

func (r *Resolver) resolvePointerLike(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	pointee, err := d.Type()
	if err != nil {
		return nil, err
	}
	var pointeeLayout Layout = Unit{}
	if pointee != nil {
		pointeeLayout = r.ResolveShallow(pointee)
	}

	isRef := d.Tag() == dwarf.TagReferenceType
	mutable := true
	if expr, perr := rustsym.ParseTypeExpr(d.Name()); perr == nil {
		switch e := expr.(type) {
		case rustsym.ReferenceExpr:
			isRef, mutable = true, e.Mutable
		case rustsym.PointerExpr:
			isRef, mutable = false, e.Mutable
		}
	}

	if isRef {
		return Reference{Mutable: mutable, Pointee: pointeeLayout}, nil
	}
	return Pointer{Mutable: mutable, Pointee: pointeeLayout}, nil
}

func (r *Resolver) resolveArray(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	elemDie, err := d.Type()
	if err != nil {
		return nil, err
	}
	var elem Layout = Unit{}
	if elemDie != nil {
		elem = r.ResolveShallow(elemDie)
	}
	sub, ok, err := d.MemberByTag(dwarf.TagSubrangeType)
	if err != nil {
		return nil, err
	}
	var length uint64
	if ok {
		if count, ok := sub.UdataAttr(dwarf.AttrCount); ok {
			length = count
		} else if upper, ok := sub.UdataAttr(dwarf.AttrUpperBound); ok {
			length = upper + 1
		}
	}
	return Array{Elem: elem, Len: length}, nil
}

func (r *Resolver) resolveFunction(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	children, err := d.Children()
	if err != nil {
		return nil, err
	}
	var args []Layout
	for _, c := range children {
		if c.Tag() == dwarf.TagFormalParameter {
			t, err := c.Type()
			if err != nil || t == nil {
				continue
			}
			args = append(args, r.ResolveShallow(t))
		}
	}
	ret, err := d.Type()
	if err != nil {
		return nil, err
	}
	var retLayout Layout = Unit{}
	if ret != nil {
		retLayout = r.ResolveShallow(ret)
	}
	return Function{Args: args, Ret: retLayout}, nil
}

func (r *Resolver) resolveCEnum(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	size, _ := d.UdataAttr(dwarf.AttrByteSize)
	discrType, err := d.Type()
	if err != nil {
		return nil, err
	}
	var discrLayout Layout = UInt{Bits: int(size) * 8}
	if discrType != nil {
		discrLayout = r.ResolveShallow(discrType)
	}
	children, err := d.Children()
	if err != nil {
		return nil, err
	}
	var variants []CEnumVariant
	for _, c := range children {
		if c.Tag() != dwarf.TagEnumerator {
			continue
		}
		var val int64
		if v, ok := c.SdataAttr(dwarf.AttrConstValue); ok {
			val = v
		} else if v, ok := c.UdataAttr(dwarf.AttrConstValue); ok {
			val = int64(v)
		}
		variants = append(variants, CEnumVariant{Name: c.Name(), Value: val})
	}
	return CEnumT{Name: d.Name(), DiscrType: discrLayout, Variants: variants, ByteSize: size}, nil
}

func (r *Resolver) resolveStruct(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	size, _ := d.UdataAttr(dwarf.AttrByteSize)
	align, _ := d.UdataAttr(dwarf.AttrAlignment)
	children, err := d.Children()
	if err != nil {
		return nil, err
	}
	var fields []StructField
	for _, c := range children {
		if c.Tag() != dwarf.TagMember {
			continue
		}
		t, err := c.Type()
		if err != nil {
			acc.Warn(locOf(c), "member %q: %v", c.Name(), err)
			continue
		}
		var fl Layout = Unit{}
		if t != nil {
			fl = r.ResolveShallow(t)
		}
		off, _ := c.DataMemberLocation()
		fields = append(fields, StructField{Name: c.Name(), Offset: uint64(off), Layout: fl})
	}
	return StructT{Name: d.Name(), ByteSize: size, Align: align, Fields: fields}, nil
}

func (r *Resolver) resolveEnum(d *die.Die, acc *dbcore.Accumulator) (Layout, error) {
	size, _ := d.UdataAttr(dwarf.AttrByteSize)
	vp, ok, err := d.MemberByTag(dwarf.TagVariantPart)
	if err != nil {
		return nil, err
	}
	if !ok {
		return r.resolveStruct(d, acc)
	}

	discr := Discriminant{Kind: DiscrImplicit}
	if discrDie, err := vp.ReferencedEntry(dwarf.AttrDiscr); err == nil && discrDie != nil {
		dsize, _ := discrDie.UdataAttr(dwarf.AttrByteSize)
		enc, _ := discrDie.UdataAttr(dwarf.AttrEncoding)
		off, _ := discrDie.DataMemberLocation()
		discr.Offset = uint64(off)
		discr.Bits = int(dsize) * 8
		if enc == dwAteUnsigned || enc == dwAteUnsignedChar {
			discr.Kind = DiscrUInt
		} else {
			discr.Kind = DiscrInt
		}
	}

	vpChildren, err := vp.Children()
	if err != nil {
		return nil, err
	}
	var variants []EnumVariant
	for _, vc := range vpChildren {
		if vc.Tag() != dwarf.TagVariant {
			continue
		}
		member, ok, err := vc.MemberByTag(dwarf.TagMember)
		if err != nil {
			return nil, err
		}
		var variantLayout Layout = Unit{}
		name := ""
		if ok {
			name = member.Name()
			if t, err := member.Type(); err == nil && t != nil {
				variantLayout = r.resolveDeepInline(t, acc)
			}
		}
		var discrValue *int64
		if v, ok := vc.SdataAttr(dwarf.AttrDiscrValue); ok {
			discrValue = &v
		} else if v, ok := vc.UdataAttr(dwarf.AttrDiscrValue); ok {
			sv := int64(v)
			discrValue = &sv
		}
		variants = append(variants, EnumVariant{Name: name, DiscrValue: discrValue, Layout: variantLayout})
	}

	niche := 0
	for _, v := range variants {
		if v.DiscrValue == nil {
			niche++
		}
	}
	if niche > 1 {
		acc.Warn(locOf(d), "enum %s has %d variants without an explicit discriminant; niche-optimization assumption violated", d.Name(), niche)
	}

	return EnumT{Name: d.Name(), Discr: discr, Variants: variants, ByteSize: size}, nil
}

// resolveDeepInline resolves a variant payload struct fully (not shallowly)
// since enum variant payloads are the whole point of reading the enum.
func (r *Resolver) resolveDeepInline(d *die.Die, acc *dbcore.Accumulator) Layout {
	l, err := r.resolveDeep(d, acc)
	if err != nil {
		acc.Warn(locOf(d), "resolving variant payload: %v", err)
		return Alias{Name: d.Name()}
	}
	return l
}

// StdPath classifies a DWARF type name's leading module segments into the
// (std|core|alloc|hashbrown, LastSegment) form uses to decide
// whether a structure_type is a recognized builtin.
func StdPath(name string) (root string, lastSegment string, generics []rustsym.TypeExpr, ok bool) {
	expr, err := rustsym.ParseTypeExpr(name)
	if err != nil {
		return "", "", nil, false
	}
	path, ok := expr.(rustsym.PathExpr)
	if !ok || len(path.Segments) == 0 {
		return "", "", nil, false
	}
	root = path.Segments[0]
	switch root {
	case "std", "core", "alloc", "hashbrown":
	default:
		return "", "", nil, false
	}
	return root, path.Segments[len(path.Segments)-1], path.Generics, true
}
