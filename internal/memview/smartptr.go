package memview

import (
	"fmt"

	"github.com/samscott89/rudy-sub002/internal/types"
)

// readSmartPtr dispatches Box/Rc/Arc/Cell/RefCell/Mutex/RwLock/UnsafeCell by
// variant, each with the indirection pattern describes:
// Box dereferences once; Rc/Arc dereference to the heap allocation then add
// an inline offset to reach the payload; the cell family stores the payload
// inline and needs no dereference at all.
func readSmartPtr(addr uint64, l types.SmartPtr, r DataResolver, depth int) (Value, error) {
	name := l.Variant.String()
	switch l.Variant {
	case types.SmartBox:
		target, err := r.ReadAddress(addr + l.DataPtrOff)
		if err != nil {
			return nil, wrapf(ErrMemoryAccess, "Box pointer at 0x%x: %v", addr+l.DataPtrOff, err)
		}
		if depth >= MaxDerefDepth {
			return Scalar{Ty: displayGenericWrap(name, l.Inner.DisplayName()), Value: fmt.Sprintf("0x%x", target)}, nil
		}
		inner, err := readValue(target, l.Inner, r, depth+1)
		if err != nil {
			return nil, err
		}
		return wrapValue(inner, displayGenericWrap(name, inner.TypeName())), nil

	case types.SmartRc, types.SmartArc:
		boxAddr, err := r.ReadAddress(addr + l.DataPtrOff)
		if err != nil {
			return nil, wrapf(ErrMemoryAccess, "%s pointer at 0x%x: %v", name, addr+l.DataPtrOff, err)
		}
		if depth >= MaxDerefDepth {
			return Scalar{Ty: displayGenericWrap(name, l.Inner.DisplayName()), Value: fmt.Sprintf("0x%x", boxAddr)}, nil
		}
		inner, err := readValue(boxAddr+l.InnerPtrOff, l.Inner, r, depth+1)
		if err != nil {
			return nil, err
		}
		return wrapValue(inner, displayGenericWrap(name, inner.TypeName())), nil

	case types.SmartCell, types.SmartRefCell, types.SmartUnsafeCell, types.SmartMutex, types.SmartRwLock:
		inner, err := readValue(addr+l.DataPtrOff, l.Inner, r, depth)
		if err != nil {
			return nil, err
		}
		return wrapValue(inner, displayGenericWrap(name, inner.TypeName())), nil

	default:
		return nil, wrapf(ErrLayoutResolution, "unrecognized smart pointer variant %v", l.Variant)
	}
}

func displayGenericWrap(name, inner string) string {
	return name + "<" + inner + ">"
}
