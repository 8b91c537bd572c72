package memview

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/samscott89/rudy-sub002/internal/types"
)

// MaxDerefDepth bounds recursive pointer dereferencing so cyclic structures
// (self-referential lists, parent back-pointers) render finitely; a pointer
// past the bound renders as its raw address. Embedding hosts may raise or
// lower it before issuing reads.
var MaxDerefDepth = 8

// ReadFromMemory takes an address, a resolved Layout, and a DataResolver,
// dispatches on the layout's concrete kind, and produces the corresponding
// Value. It never half-materializes a value — on error partway through, the
// whole call fails.
func ReadFromMemory(addr uint64, layout types.Layout, r DataResolver) (Value, error) {
	return readValue(addr, layout, r, 0)
}

func readValue(addr uint64, layout types.Layout, r DataResolver, depth int) (Value, error) {
	switch l := layout.(type) {
	case types.Bool:
		return readBoolScalar(addr, r)
	case types.Char:
		return readCharScalar(addr, r)
	case types.Int:
		return readIntScalar(addr, l.Bits, true, "i", r)
	case types.UInt:
		return readIntScalar(addr, l.Bits, false, "u", r)
	case types.Float:
		return readFloatScalar(addr, l.Bits, r)
	case types.Unit, types.Never:
		return Scalar{Ty: layout.DisplayName(), Value: layout.DisplayName()}, nil
	case types.Str:
		return nil, wrapf(ErrTypeMismatch, "cannot read unsized str directly at 0x%x", addr)
	case types.StrSlice:
		return readStrSlice(addr, l, r)
	case types.Slice:
		return readSlice(addr, l, r)
	case types.Array:
		return readArray(addr, l, r)
	case types.Tuple:
		return readTuple(addr, l, r)
	case types.Pointer:
		return readIndirect(addr, l.Pointee, r, ptrPrefix(l.Mutable, "*"), depth)
	case types.Reference:
		return readIndirect(addr, l.Pointee, r, ptrPrefix(l.Mutable, "&"), depth)
	case types.Function:
		v, err := r.ReadAddress(addr)
		if err != nil {
			return nil, wrapf(ErrMemoryAccess, "fn pointer at 0x%x: %v", addr, err)
		}
		return Scalar{Ty: layout.DisplayName(), Value: fmt.Sprintf("0x%x", v)}, nil
	case types.StructT:
		return readStruct(addr, l, r)
	case types.EnumT:
		return readEnum(addr, l, r, depth)
	case types.CEnumT:
		return readCEnum(addr, l, r)
	case types.Vec:
		return readVec(addr, l, r)
	case types.StringT:
		return readString(addr, l, r)
	case types.OptionT:
		return readOption(addr, l, r, depth)
	case types.ResultT:
		return readResult(addr, l, r, depth)
	case types.MapT:
		return readMap(addr, l, r)
	case types.SmartPtr:
		return readSmartPtr(addr, l, r, depth)
	case types.Alias:
		return nil, wrapf(ErrLayoutResolution, "unresolved alias %q at 0x%x", l.Name, addr)
	default:
		return nil, wrapf(ErrLayoutResolution, "unsupported layout %T at 0x%x", layout, addr)
	}
}

func ptrPrefix(mutable bool, sigil string) string {
	if sigil == "&" {
		if mutable {
			return "&mut "
		}
		return "&"
	}
	if mutable {
		return "*mut "
	}
	return "*const "
}

func readBoolScalar(addr uint64, r DataResolver) (Value, error) {
	b, err := r.ReadMemory(addr, 1)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "bool at 0x%x: %v", addr, err)
	}
	return Scalar{Ty: "bool", Value: strconv.FormatBool(b[0] != 0)}, nil
}

func readCharScalar(addr uint64, r DataResolver) (Value, error) {
	b, err := r.ReadMemory(addr, 4)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "char at 0x%x: %v", addr, err)
	}
	cp := binary.LittleEndian.Uint32(b)
	return Scalar{Ty: "char", Value: string(rune(cp))}, nil
}

// readIntScalar reads a signed or unsigned integer of the given bit width,
// "sizes must be 1/2/4/8/16 for integers". 128-bit
// integers are decoded via math/big since no Go machine type holds them.
func readIntScalar(addr uint64, bits int, signed bool, prefix string, r DataResolver) (Value, error) {
	size := bits / 8
	b, err := r.ReadMemory(addr, size)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "%s%d at 0x%x: %v", prefix, bits, addr, err)
	}
	ty := fmt.Sprintf("%s%d", prefix, bits)
	if bits == 128 {
		v := new(big.Int).SetBytes(reverseBytes(b))
		if signed && b[size-1]&0x80 != 0 {
			max := new(big.Int).Lsh(big.NewInt(1), 128)
			v.Sub(v, max)
		}
		return Scalar{Ty: ty, Value: v.String()}, nil
	}
	var u uint64
	switch size {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		u = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		u = binary.LittleEndian.Uint64(b)
	default:
		return nil, wrapf(ErrLayoutResolution, "unsupported integer width %d bits", bits)
	}
	if !signed {
		return Scalar{Ty: ty, Value: strconv.FormatUint(u, 10)}, nil
	}
	return Scalar{Ty: ty, Value: strconv.FormatInt(signExtend(u, bits), 10)}, nil
}

func signExtend(u uint64, bits int) int64 {
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func readFloatScalar(addr uint64, bits int, r DataResolver) (Value, error) {
	size := bits / 8
	b, err := r.ReadMemory(addr, size)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "f%d at 0x%x: %v", bits, addr, err)
	}
	ty := fmt.Sprintf("f%d", bits)
	switch bits {
	case 32:
		f := math.Float32frombits(binary.LittleEndian.Uint32(b))
		return Scalar{Ty: ty, Value: strconv.FormatFloat(float64(f), 'g', -1, 32)}, nil
	case 64:
		f := math.Float64frombits(binary.LittleEndian.Uint64(b))
		return Scalar{Ty: ty, Value: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	default:
		return nil, wrapf(ErrLayoutResolution, "unsupported float width %d bits", bits)
	}
}

func readIndirect(addr uint64, pointee types.Layout, r DataResolver, prefix string, depth int) (Value, error) {
	target, err := r.ReadAddress(addr)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "dereferencing pointer at 0x%x: %v", addr, err)
	}
	if target == 0 {
		return Scalar{Ty: prefix + pointee.DisplayName(), Value: "<null>"}, nil
	}
	if depth >= MaxDerefDepth {
		return Scalar{Ty: prefix + pointee.DisplayName(), Value: fmt.Sprintf("0x%x", target)}, nil
	}
	inner, err := readValue(target, pointee, r, depth+1)
	if err != nil {
		return nil, err
	}
	return wrapValue(inner, prefix+inner.TypeName()), nil
}

// wrapValue rewraps a Value with a different displayed type name, used to
// apply `&`/`*`/smart-pointer display prefixes without re-reading memory.
func wrapValue(v Value, newTy string) Value {
	switch x := v.(type) {
	case Scalar:
		x.Ty = newTy
		return x
	case ArrayValue:
		x.Ty = newTy
		return x
	case StructValue:
		x.Ty = newTy
		return x
	case TupleValue:
		x.Ty = newTy
		return x
	case MapValue:
		x.Ty = newTy
		return x
	default:
		return v
	}
}
