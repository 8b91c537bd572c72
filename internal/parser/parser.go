// Package parser implements the DIE parser-combinator vocabulary (layer
// L4): small composable functions from a Die to a typed result, matching
// attributes, children, and tags declaratively instead of hand-rolled
// tree-walking. Higher-level parsers (enum/struct/container recognizers)
// live in internal/types and are built entirely from these primitives.
package parser

import (
	"debug/dwarf"
	"fmt"

	"github.com/samscott89/rudy-sub002/internal/die"
)

// Parser is a value with a "parse(die) -> (T, error)" capability, per
// polymorphism note — implemented here as a plain function
// value rather than an interface, since Go closures already give it value
// semantics and compose without boxing.
type Parser[T any] func(d *die.Die) (T, error)

// Attr parses a required attribute of type T, failing if the attribute is
// absent or of the wrong Go type once extracted from the DWARF value.
func Attr[T any](at dwarf.Attr) Parser[T] {
	return func(d *die.Die) (T, error) {
		var zero T
		raw, ok := d.Attr(at)
		if !ok {
			return zero, fmt.Errorf("%s:0x%x: missing required attribute %v", d.FileName, d.Offset(), at)
		}
		v, ok := raw.(T)
		if !ok {
			return zero, fmt.Errorf("%s:0x%x: attribute %v has unexpected type %T", d.FileName, d.Offset(), at, raw)
		}
		return v, nil
	}
}

// OptionalAttr parses an attribute, returning None with a nil error if
// absent rather than failing.
func OptionalAttr[T any](at dwarf.Attr) Parser[Option[T]] {
	return func(d *die.Die) (Option[T], error) {
		raw, ok := d.Attr(at)
		if !ok {
			return None[T](), nil
		}
		v, ok := raw.(T)
		if !ok {
			return None[T](), fmt.Errorf("%s:0x%x: attribute %v has unexpected type %T", d.FileName, d.Offset(), at, raw)
		}
		return Some(v), nil
	}
}

// Option is a minimal optional value, used wherever a result is naturally `option<T>`.
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }
func None[T any]() Option[T]    { var z T; return Option[T]{value: z, ok: false} }

func (o Option[T]) Get() (T, bool) { return o.value, o.ok }
func (o Option[T]) IsSome() bool   { return o.ok }

// Tag parses the DIE's own tag.
func Tag() Parser[dwarf.Tag] {
	return func(d *die.Die) (dwarf.Tag, error) { return d.Tag(), nil }
}

// Name parses DW_AT_name, failing if absent.
func Name() Parser[string] {
	return func(d *die.Die) (string, error) {
		n := d.Name()
		if n == "" {
			return "", fmt.Errorf("%s:0x%x: missing DW_AT_name", d.FileName, d.Offset())
		}
		return n, nil
	}
}

// Offset parses the DIE's own offset.
func Offset() Parser[dwarf.Offset] {
	return func(d *die.Die) (dwarf.Offset, error) { return d.Offset(), nil }
}

// EntryType follows DW_AT_type to the referenced type DIE.
func EntryType() Parser[*die.Die] {
	return func(d *die.Die) (*die.Die, error) {
		t, err := d.Type()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("%s:0x%x: missing DW_AT_type", d.FileName, d.Offset())
		}
		return t, nil
	}
}

// Member parses the first direct child member with the given name.
func Member(name string) Parser[*die.Die] {
	return func(d *die.Die) (*die.Die, error) {
		m, ok, err := d.Member(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s:0x%x: no member named %q", d.FileName, d.Offset(), name)
		}
		return m, nil
	}
}

// MemberByTag parses the first direct child carrying the given tag.
func MemberByTag(tag dwarf.Tag) Parser[*die.Die] {
	return func(d *die.Die) (*die.Die, error) {
		m, ok, err := d.MemberByTag(tag)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s:0x%x: no child with tag %v", d.FileName, d.Offset(), tag)
		}
		return m, nil
	}
}

// IsMember reports whether a direct child member with the given name exists.
func IsMember(name string) Parser[bool] {
	return func(d *die.Die) (bool, error) {
		_, ok, err := d.Member(name)
		return ok, err
	}
}

// IsMemberTag reports whether a direct child with the given tag exists.
func IsMemberTag(tag dwarf.Tag) Parser[bool] {
	return func(d *die.Die) (bool, error) {
		_, ok, err := d.MemberByTag(tag)
		return ok, err
	}
}

// Generic parses a DW_TAG_template_type_parameter child by name, returning
// its referenced type DIE — used to recover the element/key/value type of a
// standard-library generic container whose template parameters are still
// present in the DWARF (rustc emits these for Vec<T>, HashMap<K,V>, etc).
func Generic(name string) Parser[*die.Die] {
	return func(d *die.Die) (*die.Die, error) {
		children, err := d.Children()
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if c.Tag() == dwarf.TagTemplateTypeParameter && c.Name() == name {
				t, err := c.Type()
				if err != nil {
					return nil, err
				}
				if t != nil {
					return t, nil
				}
			}
		}
		return nil, fmt.Errorf("%s:0x%x: no template type parameter named %q", d.FileName, d.Offset(), name)
	}
}
