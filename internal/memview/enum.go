package memview

import (
	"strconv"

	"github.com/samscott89/rudy-sub002/internal/types"
)

// readEnum implements enum dispatch: read the discriminant,
// match it against an explicit variant, falling back to the niche variant
// when the discriminant has no dedicated storage or no explicit value
// matches. The chosen variant's payload (always a StructT per L6's
// resolveDeepInline) is rendered as Scalar (no fields), Tuple (all-numeric
// field names), or Struct.
func readEnum(addr uint64, l types.EnumT, r DataResolver, depth int) (Value, error) {
	variant, err := selectEnumVariant(addr, l, r)
	if err != nil {
		return nil, err
	}
	return renderVariant(l.Name, variant.Name, variant.Layout, addr, r, depth)
}

func selectEnumVariant(addr uint64, l types.EnumT, r DataResolver) (types.EnumVariant, error) {
	if l.Discr.Kind == types.DiscrImplicit {
		return selectNicheVariant(addr, l, r)
	}
	value, err := readDiscriminantValue(addr, l.Discr, r)
	if err != nil {
		return types.EnumVariant{}, err
	}
	if v, ok := l.VariantByDiscrValue(value); ok {
		return v, nil
	}
	if v, ok := l.NicheVariant(); ok {
		return v, nil
	}
	return types.EnumVariant{}, wrapf(ErrLayoutResolution, "enum %s: no variant for discriminant %d", l.Name, value)
}

// selectNicheVariant handles a niche-encoded enum with no dedicated
// discriminant storage: per the glossary's "null niche" example, the
// payload's leading pointer-width word is checked against the invalid
// (zero) pattern to decide whether the niche variant is active. This
// mirrors the Option-specific heuristic generalized to arbitrary
// single-niche enums (documented open question — only one
// niche per enum is detected).
func selectNicheVariant(addr uint64, l types.EnumT, r DataResolver) (types.EnumVariant, error) {
	niche, hasNiche := l.NicheVariant()
	word, err := r.ReadAddress(addr)
	if err != nil {
		return types.EnumVariant{}, wrapf(ErrMemoryAccess, "enum %s niche probe at 0x%x: %v", l.Name, addr, err)
	}
	if word == 0 {
		for _, v := range l.Variants {
			if v.DiscrValue != nil {
				return v, nil
			}
		}
	}
	if hasNiche {
		return niche, nil
	}
	return types.EnumVariant{}, wrapf(ErrLayoutResolution, "enum %s: no niche variant found", l.Name)
}

func readDiscriminantValue(addr uint64, d types.Discriminant, r DataResolver) (int64, error) {
	b, err := r.ReadMemory(addr+d.Offset, d.Bits/8)
	if err != nil {
		return 0, wrapf(ErrMemoryAccess, "discriminant at 0x%x: %v", addr+d.Offset, err)
	}
	var u uint64
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	if d.Kind == types.DiscrUInt {
		return int64(u), nil
	}
	return signExtend(u, d.Bits), nil
}

// renderVariant turns a variant's (always struct-shaped, per L6) payload
// into a Scalar for unit variants, a Tuple when every field name is a
// numeric positional index, or a Struct otherwise.
func renderVariant(enumName, variantName string, payload types.Layout, addr uint64, r DataResolver, depth int) (Value, error) {
	ty := enumName + "::" + variantName
	s, ok := payload.(types.StructT)
	if !ok {
		v, err := readValue(addr, payload, r, depth)
		if err != nil {
			return nil, err
		}
		return wrapValue(v, ty), nil
	}
	if len(s.Fields) == 0 {
		return Scalar{Ty: ty, Value: variantName}, nil
	}
	if allTuplePositional(s.Fields) {
		entries := make([]TypedPointer, len(s.Fields))
		for i, f := range s.Fields {
			entries[i] = TypedPointer{Addr: addr + f.Offset, Layout: f.Layout}
		}
		return TupleValue{Ty: ty, Entries: entries}, nil
	}
	fields := make(map[string]TypedPointer, len(s.Fields))
	order := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		fields[f.Name] = TypedPointer{Addr: addr + f.Offset, Layout: f.Layout}
		order[i] = f.Name
	}
	return StructValue{Ty: ty, Fields: fields, Order: order}, nil
}

// allTuplePositional reports whether every field is named by its tuple
// position ("0", "1", ...), the shape rustc emits for tuple-like enum
// variants and tuple structs alike.
func allTuplePositional(fields []types.StructField) bool {
	for i, f := range fields {
		if f.Name != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

// readCEnum reads a fieldless C-style enum's discriminant and renders it as
// a Scalar carrying the matched variant's qualified name, e.g.
// Scalar{ty: "Name::Variant", value: i128}.
func readCEnum(addr uint64, l types.CEnumT, r DataResolver) (Value, error) {
	size := l.DiscrType.Size()
	b, err := r.ReadMemory(addr, int(size))
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "c-enum discriminant at 0x%x: %v", addr, err)
	}
	var u uint64
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	_, signed := l.DiscrType.(types.Int)
	value := int64(u)
	if signed {
		value = signExtend(u, int(size*8))
	}
	text := strconv.FormatInt(value, 10)
	if !signed {
		text = strconv.FormatUint(uint64(value), 10)
	}
	if v, ok := l.VariantByValue(value); ok {
		return Scalar{Ty: l.Name + "::" + v.Name, Value: text}, nil
	}
	return Scalar{Ty: l.Name, Value: text}, nil
}
