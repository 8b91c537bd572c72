package types

import "strings"

// StructField is one field of a Struct layout.
type StructField struct {
	Name   string
	Offset uint64
	Layout Layout
}

// StructT is a plain (non-enum) Rust struct.
type StructT struct {
	Name     string
	ByteSize uint64
	Align    uint64
	Fields   []StructField
}

func (StructT) isLayout()             {}
func (s StructT) DisplayName() string { return s.Name }
func (s StructT) Size() uint64        { return s.ByteSize }

// FieldByName returns the field with the given name, if present.
func (s StructT) FieldByName(name string) (StructField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}

// DiscriminantKind distinguishes explicit integer discriminants from
// implicit (niche) ones.
type DiscriminantKind int

const (
	DiscrInt DiscriminantKind = iota
	DiscrUInt
	DiscrImplicit
)

// Discriminant describes where and how an enum's tag is stored.
type Discriminant struct {
	Kind   DiscriminantKind
	Bits   int
	Offset uint64
}

// EnumVariant is one arm of an Enum layout. DiscrValue is nil exactly when
// this variant is the niche-optimized "no explicit tag" arm.
type EnumVariant struct {
	Name       string
	DiscrValue *int64
	Layout     Layout
}

// EnumT is a Rust enum, possibly niche-optimized.
type EnumT struct {
	Name     string
	Discr    Discriminant
	Variants []EnumVariant
	ByteSize uint64
}

func (EnumT) isLayout()             {}
func (e EnumT) DisplayName() string { return e.Name }
func (e EnumT) Size() uint64        { return e.ByteSize }

// NicheVariant returns the variant with no explicit discriminant value, if
// any. Exactly one variant is expected to lack one; a DWARF emission with
// more than one is a compiler-version edge case this resolver doesn't model.
func (e EnumT) NicheVariant() (EnumVariant, bool) {
	for _, v := range e.Variants {
		if v.DiscrValue == nil {
			return v, true
		}
	}
	return EnumVariant{}, false
}

// VariantByDiscrValue returns the variant whose explicit discriminant
// matches value.
func (e EnumT) VariantByDiscrValue(value int64) (EnumVariant, bool) {
	for _, v := range e.Variants {
		if v.DiscrValue != nil && *v.DiscrValue == value {
			return v, true
		}
	}
	return EnumVariant{}, false
}

// CEnumVariant is one value of a C-style (fieldless) enum.
type CEnumVariant struct {
	Name  string
	Value int64
}

// CEnumT is a C-style Rust enum (`#[repr(...)] enum E { A, B, C }` with no
// payload-carrying variants).
type CEnumT struct {
	Name      string
	DiscrType Layout
	Variants  []CEnumVariant
	ByteSize  uint64
}

func (CEnumT) isLayout()             {}
func (c CEnumT) DisplayName() string { return c.Name }
func (c CEnumT) Size() uint64        { return c.ByteSize }

// VariantByValue returns the variant with the given discriminant value.
func (c CEnumT) VariantByValue(value int64) (CEnumVariant, bool) {
	for _, v := range c.Variants {
		if v.Value == value {
			return v, true
		}
	}
	return CEnumVariant{}, false
}

// displayGenerics joins generic argument display names, used by the std
// container DisplayName implementations.
func displayGenerics(name string, args ...string) string {
	return name + "<" + strings.Join(args, ", ") + ">"
}
