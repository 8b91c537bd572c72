package evalexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samscott89/rudy-sub002/internal/index"
	"github.com/samscott89/rudy-sub002/internal/memview"
	"github.com/samscott89/rudy-sub002/internal/types"
)

// Env supplies the evaluator with everything beyond the AST itself: variable
// scope, type resolution, memory access, and method discovery. rudy.DebugInfo
// implements this; evalexpr never imports rudy itself, keeping the
// dependency one-directional.
type Env interface {
	Resolver() *types.Resolver
	DataResolver() memview.DataResolver
	// LookupVariable resolves a bare identifier against the current scope
	// (parameters and in-scope locals at the evaluation PC).
	LookupVariable(name string) (memview.TypedPointer, bool)
	// LookupPath resolves a `::`-joined path to a global static or
	// associated constant.
	LookupPath(segments []string) (memview.TypedPointer, bool)
	// DiscoverMethods lists a layout's direct, trait-impl, and synthetic
	// methods, used to resolve MethodCall.
	DiscoverMethods(layout types.Layout) []index.DiscoveredMethod
}

// EvalRef evaluates e in to-ref mode: produces the TypedPointer a
// place expression denotes, without reading through it. Supports Variable,
// Path, FieldAccess, Index, and Deref (following a pointer to its pointee).
func EvalRef(e Expr, env Env) (memview.TypedPointer, error) {
	switch n := e.(type) {
	case Variable:
		tp, ok := env.LookupVariable(n.Name)
		if !ok {
			return memview.TypedPointer{}, fmt.Errorf("evalexpr: undefined variable %q", n.Name)
		}
		return tp, nil

	case Path:
		tp, ok := env.LookupPath(n.Segments)
		if !ok {
			return memview.TypedPointer{}, fmt.Errorf("evalexpr: unresolved path %q", strings.Join(n.Segments, "::"))
		}
		return tp, nil

	case FieldAccess:
		base, err := EvalRef(n.Base, env)
		if err != nil {
			return memview.TypedPointer{}, err
		}
		return memview.GetStructField(base, n.Field)

	case Index:
		base, err := EvalRef(n.Base, env)
		if err != nil {
			return memview.TypedPointer{}, err
		}
		if _, isMap := base.Layout.(types.MapT); isMap {
			key, err := EvalValue(n.Index, env)
			if err != nil {
				return memview.TypedPointer{}, err
			}
			return memview.IndexMap(base, key, env.DataResolver())
		}
		idxVal, err := EvalValue(n.Index, env)
		if err != nil {
			return memview.TypedPointer{}, err
		}
		i, err := scalarToUint(idxVal)
		if err != nil {
			return memview.TypedPointer{}, err
		}
		return memview.IndexArrayOrSlice(base, i, env.DataResolver())

	case Deref:
		base, err := EvalRef(n.Base, env)
		if err != nil {
			return memview.TypedPointer{}, err
		}
		return derefPointer(base, env.DataResolver())

	case Parenthesized:
		return EvalRef(n.Inner, env)

	default:
		return memview.TypedPointer{}, fmt.Errorf("evalexpr: %T is not a place expression", e)
	}
}

// derefPointer reads the address stored in a Pointer/Reference/smart-pointer
// place and returns a TypedPointer to its pointee.
func derefPointer(base memview.TypedPointer, r memview.DataResolver) (memview.TypedPointer, error) {
	switch l := base.Layout.(type) {
	case types.Pointer:
		addr, err := r.ReadAddress(base.Addr)
		if err != nil {
			return memview.TypedPointer{}, fmt.Errorf("evalexpr: dereferencing pointer at 0x%x: %w", base.Addr, err)
		}
		return memview.TypedPointer{Addr: addr, Layout: l.Pointee}, nil
	case types.Reference:
		addr, err := r.ReadAddress(base.Addr)
		if err != nil {
			return memview.TypedPointer{}, fmt.Errorf("evalexpr: dereferencing reference at 0x%x: %w", base.Addr, err)
		}
		return memview.TypedPointer{Addr: addr, Layout: l.Pointee}, nil
	default:
		return memview.TypedPointer{}, fmt.Errorf("evalexpr: %s is not a pointer type", base.Layout.DisplayName())
	}
}

// EvalValue evaluates e in to-value mode: produces a Value, reading
// through places as needed. Extends EvalRef's grammar with NumberLiteral,
// StringLiteral, Parenthesized, and MethodCall.
func EvalValue(e Expr, env Env) (memview.Value, error) {
	switch n := e.(type) {
	case NumberLiteral:
		return memview.Scalar{Ty: "i64", Value: strconv.FormatInt(n.Value, 10)}, nil

	case StringLiteral:
		return memview.Scalar{Ty: "&str", Value: n.Value}, nil

	case Parenthesized:
		return EvalValue(n.Inner, env)

	case MethodCall:
		return evalMethodCall(n, env)

	case AddressOf:
		tp, err := EvalRef(n.Base, env)
		if err != nil {
			return nil, err
		}
		sigil := "&"
		if n.Mutable {
			sigil = "&mut "
		}
		return memview.Scalar{Ty: sigil + tp.Layout.DisplayName(), Value: fmt.Sprintf("0x%x", tp.Addr)}, nil

	case Deref:
		tp, err := EvalRef(n, env)
		if err != nil {
			return nil, err
		}
		return tp.Read(env.DataResolver())

	default:
		tp, err := EvalRef(e, env)
		if err != nil {
			return nil, err
		}
		return tp.Read(env.DataResolver())
	}
}

// evalMethodCall resolves a method call in three steps: lookup, synthetic
// evaluation, or a packaged call through the host's Executor capability.
func evalMethodCall(n MethodCall, env Env) (memview.Value, error) {
	base, err := EvalRef(n.Base, env)
	if err != nil {
		return nil, err
	}

	var match *index.DiscoveredMethod
	for _, m := range env.DiscoverMethods(base.Layout) {
		if m.Name == n.Name {
			mc := m
			match = &mc
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("evalexpr: %s has no method %q", base.Layout.DisplayName(), n.Name)
	}

	if match.IsSynthetic {
		return evalSynthetic(match.Name, base, env)
	}

	if !match.Callable {
		return nil, fmt.Errorf("evalexpr: method %q has no known address to call", match.FullName)
	}

	var argBytes [][]byte
	for _, a := range n.Args {
		v, err := EvalValue(a, env)
		if err != nil {
			return nil, err
		}
		b, err := encodeArg(v)
		if err != nil {
			return nil, err
		}
		argBytes = append(argBytes, b)
	}

	indirectSize := uint64(0)
	if match.ReturnType != nil && usesIndirectReturn(match.ReturnType) {
		indirectSize = match.ReturnType.Size()
	}

	res, err := memview.Call(env.DataResolver(), memview.MethodCallRequest{
		CalleeAddr:   match.Address,
		SelfAddr:     base.Addr,
		Args:         argBytes,
		IndirectSize: indirectSize,
	})
	if err != nil {
		return nil, fmt.Errorf("evalexpr: calling %s: %w", match.FullName, err)
	}

	if match.ReturnType == nil {
		return memview.Scalar{Ty: "()", Value: "()"}, nil
	}
	if res.Indirect {
		tp := memview.TypedPointer{Addr: res.IndirectAddr, Layout: match.ReturnType}
		return tp.Read(env.DataResolver())
	}
	return decodeRegisterReturn(res.ScalarValue, match.ReturnType, env)
}

// decodeRegisterReturn interprets a register-passed return value per the
// method's return layout: primitives carry the value itself in the register,
// while pointers and references carry the pointee's address.
func decodeRegisterReturn(word uint64, ret types.Layout, env Env) (memview.Value, error) {
	switch l := ret.(type) {
	case types.Bool:
		return boolScalar(word != 0), nil
	case types.Char:
		return memview.Scalar{Ty: "char", Value: string(rune(uint32(word)))}, nil
	case types.Int:
		v := int64(word)
		if l.Bits < 64 {
			shift := uint(64 - l.Bits)
			v = int64(word<<shift) >> shift
		}
		return memview.Scalar{Ty: l.DisplayName(), Value: strconv.FormatInt(v, 10)}, nil
	case types.UInt:
		mask := ^uint64(0)
		if l.Bits < 64 {
			mask = 1<<uint(l.Bits) - 1
		}
		return memview.Scalar{Ty: l.DisplayName(), Value: strconv.FormatUint(word&mask, 10)}, nil
	case types.Unit:
		return memview.Scalar{Ty: "()", Value: "()"}, nil
	case types.Pointer:
		tp := memview.TypedPointer{Addr: word, Layout: l.Pointee}
		return tp.Read(env.DataResolver())
	case types.Reference:
		tp := memview.TypedPointer{Addr: word, Layout: l.Pointee}
		return tp.Read(env.DataResolver())
	default:
		// Small aggregates returned in registers are re-read through memory
		// when the host left them addressable; otherwise surface the raw word.
		tp := memview.TypedPointer{Addr: word, Layout: ret}
		return tp.Read(env.DataResolver())
	}
}

// evalSynthetic evaluates the small fixed set of layout-computable methods
// directly, without involving the host.
func evalSynthetic(name string, base memview.TypedPointer, env Env) (memview.Value, error) {
	r := env.DataResolver()
	switch l := base.Layout.(type) {
	case types.Vec:
		return syntheticVecLike(name, base, l.LenOff, l.CapOff, r)
	case types.StringT:
		return syntheticVecLike(name, base, l.Inner.LenOff, l.Inner.CapOff, r)
	case types.Slice:
		return syntheticLenOnly(name, base, l.LenOff, r)
	case types.StrSlice:
		return syntheticLenOnly(name, base, l.LenOff, r)
	case types.Array:
		return syntheticConstLen(name, l.Len)
	case types.OptionT:
		v, err := base.Read(r)
		if err != nil {
			return nil, err
		}
		isSome := true
		if sc, ok := v.(memview.Scalar); ok && sc.Value == "None" {
			isSome = false
		}
		switch name {
		case "is_some":
			return boolScalar(isSome), nil
		case "is_none":
			return boolScalar(!isSome), nil
		}
	case types.ResultT:
		v, err := base.Read(r)
		if err != nil {
			return nil, err
		}
		isErr := strings.HasSuffix(v.TypeName(), "::Err")
		switch name {
		case "is_ok":
			return boolScalar(!isErr), nil
		case "is_err":
			return boolScalar(isErr), nil
		}
	}
	return nil, fmt.Errorf("evalexpr: unrecognized synthetic method %q for %s", name, base.Layout.DisplayName())
}

func syntheticVecLike(name string, base memview.TypedPointer, lenOff, capOff uint64, r memview.DataResolver) (memview.Value, error) {
	switch name {
	case "len":
		n, err := r.ReadAddress(base.Addr + lenOff)
		if err != nil {
			return nil, err
		}
		return memview.Scalar{Ty: "usize", Value: strconv.FormatUint(n, 10)}, nil
	case "is_empty":
		n, err := r.ReadAddress(base.Addr + lenOff)
		if err != nil {
			return nil, err
		}
		return boolScalar(n == 0), nil
	case "capacity":
		n, err := r.ReadAddress(base.Addr + capOff)
		if err != nil {
			return nil, err
		}
		return memview.Scalar{Ty: "usize", Value: strconv.FormatUint(n, 10)}, nil
	}
	return nil, fmt.Errorf("evalexpr: unrecognized synthetic method %q", name)
}

func syntheticLenOnly(name string, base memview.TypedPointer, lenOff uint64, r memview.DataResolver) (memview.Value, error) {
	switch name {
	case "len":
		n, err := r.ReadAddress(base.Addr + lenOff)
		if err != nil {
			return nil, err
		}
		return memview.Scalar{Ty: "usize", Value: strconv.FormatUint(n, 10)}, nil
	case "is_empty":
		n, err := r.ReadAddress(base.Addr + lenOff)
		if err != nil {
			return nil, err
		}
		return boolScalar(n == 0), nil
	}
	return nil, fmt.Errorf("evalexpr: unrecognized synthetic method %q", name)
}

func syntheticConstLen(name string, n uint64) (memview.Value, error) {
	switch name {
	case "len":
		return memview.Scalar{Ty: "usize", Value: strconv.FormatUint(n, 10)}, nil
	case "is_empty":
		return boolScalar(n == 0), nil
	}
	return nil, fmt.Errorf("evalexpr: unrecognized synthetic method %q", name)
}

func boolScalar(b bool) memview.Scalar {
	return memview.Scalar{Ty: "bool", Value: strconv.FormatBool(b)}
}

// usesIndirectReturn applies the common small-value-in-registers System V /
// AAPCS convention: aggregates larger than two machine words return via a
// caller-supplied pointer.
func usesIndirectReturn(l types.Layout) bool {
	switch l.(type) {
	case types.StructT, types.EnumT, types.Tuple, types.MapT, types.Vec, types.StringT, types.OptionT, types.ResultT:
		return l.Size() > 16
	default:
		return false
	}
}

// encodeArg lays out an evaluated argument as raw little-endian bytes for
// the host's call ABI. Only scalar arguments are supported; aggregates must
// be passed by reference (evaluated as an AddressOf, not here).
func encodeArg(v memview.Value) ([]byte, error) {
	sc, ok := v.(memview.Scalar)
	if !ok {
		return nil, fmt.Errorf("evalexpr: only scalar arguments can be passed to a called method, got %T", v)
	}
	n, err := strconv.ParseInt(sc.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("evalexpr: argument %q is not numeric: %w", sc.Value, err)
	}
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * i))
	}
	return b, nil
}

func scalarToUint(v memview.Value) (uint64, error) {
	sc, ok := v.(memview.Scalar)
	if !ok {
		return 0, fmt.Errorf("evalexpr: index expression must evaluate to a scalar, got %T", v)
	}
	n, err := strconv.ParseUint(sc.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("evalexpr: index %q is not a non-negative integer: %w", sc.Value, err)
	}
	return n, nil
}
