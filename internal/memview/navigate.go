package memview

import "github.com/samscott89/rudy-sub002/internal/types"

// EnumerateMap exposes the hashbrown/BTreeMap enumeration algorithms of
// container.go to callers that need entries without going through
// ReadFromMemory's Value wrapping (IndexMap, synthetic map methods).
func EnumerateMap(addr uint64, l types.MapT, r DataResolver) ([]MapEntry, error) {
	switch l.Variant {
	case types.MapHashMap:
		return enumerateHashbrown(addr, l, r)
	case types.MapBTreeMap:
		return enumerateBTree(addr, l, r)
	default:
		return nil, wrapf(ErrLayoutResolution, "unrecognized map variant %v", l.Variant)
	}
}

// GetStructField implements get_struct_field: a pure
// offset lookup against an already-resolved struct layout, with no memory
// access. Tuple-shaped enum variant payloads are not struct layouts, so
// field access against those must go through a Value produced by
// ReadFromMemory instead (the evaluator does this for FieldAccess on an
// enum-typed base).
func GetStructField(base TypedPointer, fieldName string) (TypedPointer, error) {
	s, ok := base.Layout.(types.StructT)
	if !ok {
		return TypedPointer{}, wrapf(ErrTypeMismatch, "%s has no field %q: not a struct", base.Layout.DisplayName(), fieldName)
	}
	f, ok := s.FieldByName(fieldName)
	if !ok {
		return TypedPointer{}, wrapf(ErrTypeMismatch, "%s has no field %q", s.Name, fieldName)
	}
	return TypedPointer{Addr: base.Addr + f.Offset, Layout: f.Layout}, nil
}

// IndexArrayOrSlice implements index_array_or_slice: compute
// the i'th element's address directly, reading only the header fields a
// fat pointer or Vec carries (never materializing the other elements).
func IndexArrayOrSlice(base TypedPointer, i uint64, r DataResolver) (TypedPointer, error) {
	switch l := base.Layout.(type) {
	case types.Array:
		if i >= l.Len {
			return TypedPointer{}, wrapf(ErrBounds, "index %d out of range for array of length %d", i, l.Len)
		}
		return TypedPointer{Addr: base.Addr + i*l.Elem.Size(), Layout: l.Elem}, nil
	case types.Slice:
		dataAddr, length, err := readFatPointer(base.Addr, l.DataPtrOff, l.LenOff, r)
		if err != nil {
			return TypedPointer{}, err
		}
		if i >= length {
			return TypedPointer{}, wrapf(ErrBounds, "index %d out of range for slice of length %d", i, length)
		}
		return TypedPointer{Addr: dataAddr + i*l.Elem.Size(), Layout: l.Elem}, nil
	case types.Vec:
		dataAddr, err := r.ReadAddress(base.Addr + l.DataPtrOff)
		if err != nil {
			return TypedPointer{}, wrapf(ErrMemoryAccess, "Vec data ptr at 0x%x: %v", base.Addr+l.DataPtrOff, err)
		}
		length, err := r.ReadAddress(base.Addr + l.LenOff)
		if err != nil {
			return TypedPointer{}, wrapf(ErrMemoryAccess, "Vec len at 0x%x: %v", base.Addr+l.LenOff, err)
		}
		if i >= length {
			return TypedPointer{}, wrapf(ErrBounds, "index %d out of range for Vec of length %d", i, length)
		}
		return TypedPointer{Addr: dataAddr + i*l.Elem.Size(), Layout: l.Elem}, nil
	default:
		return TypedPointer{}, wrapf(ErrTypeMismatch, "%s cannot be indexed by integer", base.Layout.DisplayName())
	}
}

// IndexMap implements index_map: enumerate the map's entries and return the
// value pointer of the entry whose key renders to the same display text as
// key, which is evaluated eagerly and then looked up by key-equality.
func IndexMap(base TypedPointer, key Value, r DataResolver) (TypedPointer, error) {
	m, ok := base.Layout.(types.MapT)
	if !ok {
		return TypedPointer{}, wrapf(ErrTypeMismatch, "%s is not a map", base.Layout.DisplayName())
	}
	entries, err := EnumerateMap(base.Addr, m, r)
	if err != nil {
		return TypedPointer{}, err
	}
	want, err := renderKey(key)
	if err != nil {
		return TypedPointer{}, err
	}
	for _, e := range entries {
		kv, err := e.Key.Read(r)
		if err != nil {
			return TypedPointer{}, err
		}
		got, err := renderKey(kv)
		if err != nil {
			continue
		}
		if got == want {
			return e.Value, nil
		}
	}
	return TypedPointer{}, wrapf(ErrBounds, "key %s not found in map", want)
}

// renderKey renders a Value's comparable text form for map key equality:
// a Scalar's Value field already is that form.
func renderKey(v Value) (string, error) {
	s, ok := v.(Scalar)
	if !ok {
		return "", wrapf(ErrTypeMismatch, "map keys must evaluate to a scalar, got %T", v)
	}
	return s.Value, nil
}
