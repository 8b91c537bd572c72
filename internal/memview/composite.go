package memview

import (
	"strings"

	"github.com/samscott89/rudy-sub002/internal/types"
)

// readArray reads a fixed-size `[T; N]`: elements are contiguous at addr,
// stride sizeof(T), returned as lazy typed pointers.
func readArray(addr uint64, l types.Array, r DataResolver) (Value, error) {
	stride := l.Elem.Size()
	items := make([]TypedPointer, l.Len)
	for i := range items {
		items[i] = TypedPointer{Addr: addr + uint64(i)*stride, Layout: l.Elem}
	}
	return ArrayValue{Ty: l.DisplayName(), Items: items}, nil
}

// readSlice reads a `&[T]`/`[T]` fat pointer: a data pointer and a length,
// both at offsets within the fat-pointer representation itself.
func readSlice(addr uint64, l types.Slice, r DataResolver) (Value, error) {
	dataAddr, length, err := readFatPointer(addr, l.DataPtrOff, l.LenOff, r)
	if err != nil {
		return nil, err
	}
	stride := l.Elem.Size()
	items := make([]TypedPointer, length)
	for i := range items {
		items[i] = TypedPointer{Addr: dataAddr + uint64(i)*stride, Layout: l.Elem}
	}
	return ArrayValue{Ty: l.DisplayName(), Items: items}, nil
}

func readStrSlice(addr uint64, l types.StrSlice, r DataResolver) (Value, error) {
	dataAddr, length, err := readFatPointer(addr, l.DataPtrOff, l.LenOff, r)
	if err != nil {
		return nil, err
	}
	b, err := r.ReadMemory(dataAddr, int(length))
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "&str data at 0x%x: %v", dataAddr, err)
	}
	return Scalar{Ty: "&str", Value: string(b)}, nil
}

func readFatPointer(addr, dataOff, lenOff uint64, r DataResolver) (uint64, uint64, error) {
	dataAddr, err := r.ReadAddress(addr + dataOff)
	if err != nil {
		return 0, 0, wrapf(ErrMemoryAccess, "fat pointer data at 0x%x: %v", addr+dataOff, err)
	}
	length, err := r.ReadAddress(addr + lenOff)
	if err != nil {
		return 0, 0, wrapf(ErrMemoryAccess, "fat pointer length at 0x%x: %v", addr+lenOff, err)
	}
	return dataAddr, length, nil
}

func readTuple(addr uint64, l types.Tuple, r DataResolver) (Value, error) {
	entries := make([]TypedPointer, len(l.Elems))
	for i, f := range l.Elems {
		entries[i] = TypedPointer{Addr: addr + f.Offset, Layout: f.Layout}
	}
	return TupleValue{Ty: l.DisplayName(), Entries: entries}, nil
}

func readStruct(addr uint64, l types.StructT, r DataResolver) (Value, error) {
	fields := make(map[string]TypedPointer, len(l.Fields))
	order := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		fields[f.Name] = TypedPointer{Addr: addr + f.Offset, Layout: f.Layout}
		order[i] = f.Name
	}
	return StructValue{Ty: l.DisplayName(), Fields: fields, Order: order}, nil
}

// readVec reads `alloc::vec::Vec<T>`'s length/data-pointer fields and
// returns lazy contiguous-stride element pointers, exactly like a slice
// once dereferenced (property 5).
func readVec(addr uint64, l types.Vec, r DataResolver) (Value, error) {
	dataAddr, err := r.ReadAddress(addr + l.DataPtrOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "Vec data ptr at 0x%x: %v", addr+l.DataPtrOff, err)
	}
	length, err := r.ReadAddress(addr + l.LenOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "Vec len at 0x%x: %v", addr+l.LenOff, err)
	}
	stride := l.Elem.Size()
	items := make([]TypedPointer, length)
	for i := range items {
		items[i] = TypedPointer{Addr: dataAddr + uint64(i)*stride, Layout: l.Elem}
	}
	return ArrayValue{Ty: l.DisplayName(), Items: items}, nil
}

// VecCapacity reads a Vec's capacity field directly, the basis for the
// synthetic `capacity()` method.
func VecCapacity(addr uint64, l types.Vec, r DataResolver) (uint64, error) {
	capacity, err := r.ReadAddress(addr + l.CapOff)
	if err != nil {
		return 0, wrapf(ErrMemoryAccess, "Vec cap at 0x%x: %v", addr+l.CapOff, err)
	}
	return capacity, nil
}

// readString reads `alloc::string::String` as its inner `Vec<u8>` and
// decodes the byte range as UTF-8, replacing invalid sequences with the
// Unicode replacement character.
func readString(addr uint64, l types.StringT, r DataResolver) (Value, error) {
	dataAddr, err := r.ReadAddress(addr + l.Inner.DataPtrOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "String data ptr at 0x%x: %v", addr+l.Inner.DataPtrOff, err)
	}
	length, err := r.ReadAddress(addr + l.Inner.LenOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "String len at 0x%x: %v", addr+l.Inner.LenOff, err)
	}
	b, err := r.ReadMemory(dataAddr, int(length))
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "String data at 0x%x: %v", dataAddr, err)
	}
	return Scalar{Ty: "String", Value: strings.ToValidUTF8(string(b), "�")}, nil
}
