package types

import (
	"strconv"
	"strings"

	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

// LowerTypeExpr lowers a parsed Rust type name into a provisional Layout:
// everything a name alone determines (primitives, fat-pointer shapes,
// references, arrays, function pointers) is filled in, while named types
// whose layout needs DWARF stay as Alias leaves to be resolved on descent.
func LowerTypeExpr(e rustsym.TypeExpr) Layout {
	switch t := e.(type) {
	case rustsym.PathExpr:
		if len(t.Segments) == 1 && len(t.Generics) == 0 {
			if prim, ok := primitiveByName(t.Segments[0]); ok {
				return prim
			}
		}
		return Alias{Name: rustsym.FormatTypeExpr(t)}
	case rustsym.ReferenceExpr:
		switch elem := t.Elem.(type) {
		case rustsym.StrSliceExpr:
			return StrSlice{DataPtrOff: 0, LenOff: 8}
		case rustsym.SliceExpr:
			return Slice{Elem: LowerTypeExpr(elem.Elem), DataPtrOff: 0, LenOff: 8}
		default:
			return Reference{Mutable: t.Mutable, Pointee: LowerTypeExpr(t.Elem)}
		}
	case rustsym.PointerExpr:
		return Pointer{Mutable: t.Mutable, Pointee: LowerTypeExpr(t.Elem)}
	case rustsym.SliceExpr:
		return Slice{Elem: LowerTypeExpr(t.Elem), DataPtrOff: 0, LenOff: 8}
	case rustsym.StrSliceExpr:
		return Str{}
	case rustsym.ArrayExpr:
		return Array{Elem: LowerTypeExpr(t.Elem), Len: t.Len}
	case rustsym.TupleExpr:
		if len(t.Elems) == 0 {
			return Unit{}
		}
		return Alias{Name: rustsym.FormatTypeExpr(t)}
	case rustsym.FunctionExpr:
		args := make([]Layout, len(t.Args))
		for i, a := range t.Args {
			args[i] = LowerTypeExpr(a)
		}
		return Function{Args: args, Ret: LowerTypeExpr(t.Ret)}
	case rustsym.DynTraitExpr:
		return Alias{Name: "dyn " + t.Trait}
	case rustsym.NeverExpr:
		return Never{}
	case rustsym.UnitExpr:
		return Unit{}
	default:
		return Alias{Name: rustsym.FormatTypeExpr(e)}
	}
}

func primitiveByName(name string) (Layout, bool) {
	switch name {
	case "bool":
		return Bool{}, true
	case "char":
		return Char{}, true
	case "usize":
		return UInt{Bits: 64}, true
	case "isize":
		return Int{Bits: 64}, true
	}
	if len(name) >= 2 {
		bits, err := strconv.Atoi(name[1:])
		if err == nil {
			switch {
			case strings.HasPrefix(name, "u") && validIntWidth(bits):
				return UInt{Bits: bits}, true
			case strings.HasPrefix(name, "i") && validIntWidth(bits):
				return Int{Bits: bits}, true
			case strings.HasPrefix(name, "f") && (bits == 32 || bits == 64):
				return Float{Bits: bits}, true
			}
		}
	}
	return nil, false
}

func validIntWidth(bits int) bool {
	switch bits {
	case 8, 16, 32, 64, 128:
		return true
	}
	return false
}
