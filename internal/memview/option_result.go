package memview

import "github.com/samscott89/rudy-sub002/internal/types"

// readOption reads an Option<T>: Some(v) reads the payload at addr (the
// niche variant shares its fields' offsets with the whole Option's
// representation) and re-displays it wrapped as "Option<T>", while None
// produces a bare Scalar carrying the literal text "None".
func readOption(addr uint64, l types.OptionT, r DataResolver, depth int) (Value, error) {
	present, err := optionIsSome(addr, l, r)
	if err != nil {
		return nil, err
	}
	ty := l.DisplayName()
	if !present {
		return Scalar{Ty: ty, Value: "None"}, nil
	}
	inner, err := readValue(addr+l.SomeOff, l.SomeType, r, depth)
	if err != nil {
		return nil, err
	}
	if sc, ok := inner.(Scalar); ok {
		return Scalar{Ty: ty, Value: sc.Value}, nil
	}
	return wrapValue(inner, ty), nil
}

// optionIsSome decides Some/None using the discriminant when one exists
// (an explicit-tag Option, e.g. behind `#[repr(...)]`) or the niche
// zero-check otherwise (e.g. `Option<&T>`/`Option<Box<T>>`/`Option<NonZero>`).
func optionIsSome(addr uint64, l types.OptionT, r DataResolver) (bool, error) {
	if l.Discr.Kind != types.DiscrImplicit {
		v, err := readDiscriminantValue(addr, l.Discr, r)
		if err != nil {
			return false, err
		}
		return v != 0, nil
	}
	word, err := r.ReadAddress(addr + l.SomeOff)
	if err != nil {
		return false, wrapf(ErrMemoryAccess, "Option niche probe at 0x%x: %v", addr+l.SomeOff, err)
	}
	return word != 0, nil
}

// readResult applies Result-discriminant niche handling: for
// 4-/8-byte discriminant regions inspect the high bit, otherwise treat any
// nonzero discriminant region as Err. A region of unknown (zero) width is
// read as 8 bytes.
func readResult(addr uint64, l types.ResultT, r DataResolver, depth int) (Value, error) {
	isErr, err := resultIsErr(addr, l, r)
	if err != nil {
		return nil, err
	}
	ty := l.DisplayName()
	if isErr {
		inner, err := readValue(addr+l.ErrOff, l.ErrType, r, depth)
		if err != nil {
			return nil, err
		}
		return wrapValue(inner, ty+"::Err"), nil
	}
	inner, err := readValue(addr+l.OkOff, l.OkType, r, depth)
	if err != nil {
		return nil, err
	}
	return wrapValue(inner, ty+"::Ok"), nil
}

func resultIsErr(addr uint64, l types.ResultT, r DataResolver) (bool, error) {
	if l.Discr.Kind != types.DiscrImplicit {
		v, err := readDiscriminantValue(addr, l.Discr, r)
		if err != nil {
			return false, err
		}
		return v != 0, nil
	}
	size := l.Discr.Bits / 8
	if size == 0 {
		size = 8
	}
	b, err := r.ReadMemory(addr+l.Discr.Offset, size)
	if err != nil {
		return false, wrapf(ErrMemoryAccess, "Result discriminant probe at 0x%x: %v", addr+l.Discr.Offset, err)
	}
	switch size {
	case 4, 8:
		return b[len(b)-1]&0x80 != 0, nil
	default:
		for _, v := range b {
			if v != 0 {
				return true, nil
			}
		}
		return false, nil
	}
}
