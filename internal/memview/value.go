package memview

import (
	"github.com/samscott89/rudy-sub002/internal/types"
)

// TypedPointer is an address paired with the layout the caller believes it
// holds: a lazy handle that Array/Struct fields are returned as rather than
// pre-read values.
type TypedPointer struct {
	Addr   uint64
	Layout types.Layout
}

// Read dereferences p through r, producing its Value.
func (p TypedPointer) Read(r DataResolver) (Value, error) {
	return ReadFromMemory(p.Addr, p.Layout, r)
}

// Value is the sealed result of reading a typed pointer: exactly one of
// Scalar, ArrayValue, StructValue, TupleValue, or MapValue.
type Value interface {
	isValue()
	// TypeName is the value's displayed type, including any `&`/`*`/smart
	// pointer wrapping applied by dereferencing (last bullet).
	TypeName() string
}

// Scalar is a primitive or unit-like/C-enum value rendered as text.
type Scalar struct {
	Ty    string
	Value string
}

func (Scalar) isValue()          {}
func (s Scalar) TypeName() string { return s.Ty }

// ArrayValue is an Array/Slice/Vec: elements are typed pointers, read lazily.
type ArrayValue struct {
	Ty    string
	Items []TypedPointer
}

func (ArrayValue) isValue()          {}
func (a ArrayValue) TypeName() string { return a.Ty }

// StructValue is a struct or struct-shaped enum variant.
type StructValue struct {
	Ty     string
	Fields map[string]TypedPointer
	// Order preserves declaration order for display, since Go map
	// iteration is unspecified.
	Order []string
}

func (StructValue) isValue()          {}
func (s StructValue) TypeName() string { return s.Ty }

// TupleValue is a tuple or tuple-shaped enum variant.
type TupleValue struct {
	Ty      string
	Entries []TypedPointer
}

func (TupleValue) isValue()          {}
func (t TupleValue) TypeName() string { return t.Ty }

// MapEntry is one (key, value) pair discovered by container enumeration.
type MapEntry struct {
	Key   TypedPointer
	Value TypedPointer
}

// MapValue is a HashMap/BTreeMap/HashSet/BTreeSet.
type MapValue struct {
	Ty      string
	Entries []MapEntry
}

func (MapValue) isValue()          {}
func (m MapValue) TypeName() string { return m.Ty }
