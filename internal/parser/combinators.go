package parser

import (
	"fmt"

	"github.com/samscott89/rudy-sub002/internal/die"
)

// Then sequences p then a parser chosen from p's result, threading the same
// Die through both (p.then(q)).
func Then[A, B any](p Parser[A], next func(A) Parser[B]) Parser[B] {
	return func(d *die.Die) (B, error) {
		var zero B
		a, err := p(d)
		if err != nil {
			return zero, err
		}
		return next(a)(d)
	}
}

// Pair is the result of And.
type Pair[A, B any] struct {
	First  A
	Second B
}

// And runs p and q against the same Die and pairs their results.
func And[A, B any](p Parser[A], q Parser[B]) Parser[Pair[A, B]] {
	return func(d *die.Die) (Pair[A, B], error) {
		var zero Pair[A, B]
		a, err := p(d)
		if err != nil {
			return zero, err
		}
		b, err := q(d)
		if err != nil {
			return zero, err
		}
		return Pair[A, B]{a, b}, nil
	}
}

// Map transforms a parser's successful result.
func Map[A, B any](p Parser[A], f func(A) B) Parser[B] {
	return func(d *die.Die) (B, error) {
		var zero B
		a, err := p(d)
		if err != nil {
			return zero, err
		}
		return f(a), nil
	}
}

// MapRes transforms a parser's successful result through a fallible
// function, propagating either error.
func MapRes[A, B any](p Parser[A], f func(A) (B, error)) Parser[B] {
	return func(d *die.Die) (B, error) {
		var zero B
		a, err := p(d)
		if err != nil {
			return zero, err
		}
		return f(a)
	}
}

// On re-roots a parser at a different Die, computed from the current one —
// the building block for descending into a referenced DIE (e.g. a member's
// type) without leaving the combinator vocabulary.
func On[A any](get func(d *die.Die) (*die.Die, error), p Parser[A]) Parser[A] {
	return func(d *die.Die) (A, error) {
		var zero A
		target, err := get(d)
		if err != nil {
			return zero, err
		}
		return p(target)
	}
}

// ForEachChild runs p against every immediate child, failing the whole
// parser if any child fails.
func ForEachChild[T any](p Parser[T]) Parser[[]T] {
	return func(d *die.Die) ([]T, error) {
		children, err := d.Children()
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(children))
		for _, c := range children {
			v, err := p(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// TryForEachChild runs p against every immediate child, silently dropping
// children p fails on — used where the indexer tolerates holes rather than
// failing the whole query ("never panic, emit diagnostics").
func TryForEachChild[T any](p Parser[T]) Parser[[]T] {
	return func(d *die.Die) ([]T, error) {
		children, err := d.Children()
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(children))
		for _, c := range children {
			if v, err := p(c); err == nil {
				out = append(out, v)
			}
		}
		return out, nil
	}
}

// Parse2 runs two parsers against the same Die, analogous to
// parse_children((p1, p2)) restricted to this Die rather than its children.
func Parse2[A, B any](pa Parser[A], pb Parser[B]) Parser[Pair[A, B]] {
	return And(pa, pb)
}

// Triple is the result of Parse3.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Parse3 runs three parsers against the same Die.
func Parse3[A, B, C any](pa Parser[A], pb Parser[B], pc Parser[C]) Parser[Triple[A, B, C]] {
	return func(d *die.Die) (Triple[A, B, C], error) {
		var zero Triple[A, B, C]
		a, err := pa(d)
		if err != nil {
			return zero, err
		}
		b, err := pb(d)
		if err != nil {
			return zero, err
		}
		c, err := pc(d)
		if err != nil {
			return zero, err
		}
		return Triple[A, B, C]{a, b, c}, nil
	}
}

// FieldPathOffset walks a chain of member names, each time following
// DW_AT_type to the member's type DIE before looking up the next name, and
// accumulates DW_AT_data_member_location along the way. This is the
// workhorse behind Vec/Rc/Arc/Box offset discovery: e.g.
// `FieldPathOffset("buf", "inner", "ptr", "pointer")` walks
// Vec.buf -> RawVec.inner -> Unique.ptr -> NonNull.pointer.
func FieldPathOffset(path ...string) Parser[int64] {
	return func(d *die.Die) (int64, error) {
		var total int64
		cur := d
		for i, name := range path {
			m, ok, err := cur.Member(name)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, fieldPathError(d, path, i)
			}
			if off, ok := m.DataMemberLocation(); ok {
				total += off
			}
			if i == len(path)-1 {
				break
			}
			t, err := m.Type()
			if err != nil {
				return 0, err
			}
			if t == nil {
				return 0, fieldPathError(d, path, i)
			}
			cur = t
		}
		return total, nil
	}
}

// Or tries p, falling back to q if p fails — used where rustc's layout for a
// construct varies across editions/versions of a standard-library type
// ("best effort" offset discovery).
func Or[T any](p Parser[T], q Parser[T]) Parser[T] {
	return func(d *die.Die) (T, error) {
		v, err := p(d)
		if err == nil {
			return v, nil
		}
		return q(d)
	}
}

func fieldPathError(d *die.Die, path []string, i int) error {
	return fmt.Errorf("%s:0x%x: field path %v: no member %q (segment %d)", d.FileName, d.Offset(), path, path[i], i)
}
