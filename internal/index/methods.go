package index

import (
	"debug/dwarf"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/samscott89/rudy-sub002/internal/die"
	"github.com/samscott89/rudy-sub002/internal/rustsym"
	"github.com/samscott89/rudy-sub002/internal/types"
)

// SelfKind classifies how a method's first parameter binds to its receiver,
// "self, &self, or &mut self" filter.
type SelfKind int

const (
	SelfNone SelfKind = iota
	SelfValue
	SelfBorrowed
	SelfBorrowedMut
)

func (k SelfKind) String() string {
	switch k {
	case SelfValue:
		return "self"
	case SelfBorrowed:
		return "&self"
	case SelfBorrowedMut:
		return "&mut self"
	default:
		return ""
	}
}

// DiscoveredMethod is one method surfaced by discovery, direct, trait-impl,
// or synthetic (closing paragraph).
type DiscoveredMethod struct {
	Name        string
	FullName    string
	Signature   string
	Address     uint64
	SelfType    SelfKind
	Callable    bool
	IsSynthetic bool
	ReturnType  types.Layout
}

// DiscoverMethods finds every method on a type in full: direct methods
// (phase 1), trait-impl methods (phase 2), and synthetic methods (phase 3),
// unioned.
// typeName must be the qualified ("::"-joined) name under which the type was
// recorded in dfi.Types; layout is the type's already-resolved Layout, used
// both for the self-type match and to drive phase 3.
func (dfi *DebugFileIndex) DiscoverMethods(typeName string, layout types.Layout, resolver *types.Resolver) []DiscoveredMethod {
	var out []DiscoveredMethod
	entry, ok := dfi.Types[typeName]
	if ok {
		out = append(out, dfi.discoverDirectMethods(entry, resolver)...)
		out = append(out, dfi.discoverTraitImplMethods(entry, resolver)...)
	}
	out = append(out, SyntheticMethods(layout)...)

	// A synthetic method (e.g. Option's is_some) never shadows a real one
	// the debug info actually declares under the same name.
	real := lo.SliceToMap(lo.Filter(out, func(m DiscoveredMethod, _ int) bool { return !m.IsSynthetic }),
		func(m DiscoveredMethod) (string, bool) { return m.Name, true })
	return lo.Filter(out, func(m DiscoveredMethod, _ int) bool {
		return !m.IsSynthetic || !real[m.Name]
	})
}

// discoverDirectMethods is phase 1: subprograms declared as
// direct children of the type's own DIE, filtered to those taking self.
func (dfi *DebugFileIndex) discoverDirectMethods(entry *TypeEntry, resolver *types.Resolver) []DiscoveredMethod {
	children, err := entry.Die.Children()
	if err != nil {
		return nil
	}
	var out []DiscoveredMethod
	for _, c := range children {
		if c.Tag() != dwarf.TagSubprogram {
			continue
		}
		if m, ok := dfi.methodFromSubprogram(c, entry.Die, resolver); ok {
			out = append(out, m)
		}
	}
	return out
}

// discoverTraitImplMethods is phase 2: sibling `{impl#N}`
// namespaces in the same module as the type, each contributing subprograms
// that take self. Associated functions (no self) and impl blocks with zero
// matching methods are dropped entirely.
func (dfi *DebugFileIndex) discoverTraitImplMethods(entry *TypeEntry, resolver *types.Resolver) []DiscoveredMethod {
	parent := dfi.Modules.DieForPath(entry.ModulePath, entry.CU)
	if parent == nil {
		return nil
	}
	children, err := parent.Children()
	if err != nil {
		return nil
	}
	var out []DiscoveredMethod
	for _, c := range children {
		if c.Tag() != dwarf.TagNamespace || !isImplNamespace(c.Name()) {
			continue
		}
		implChildren, err := c.Children()
		if err != nil {
			continue
		}
		for _, ic := range implChildren {
			if ic.Tag() != dwarf.TagSubprogram {
				continue
			}
			if m, ok := dfi.methodFromSubprogram(ic, entry.Die, resolver); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// isImplNamespace recognizes rustc's anonymous impl-block namespace naming,
// `{impl#N}` (or the older bare `{impl}` form).
func isImplNamespace(name string) bool {
	return strings.HasPrefix(name, "{impl#") || strings.HasPrefix(name, "{impl}")
}

// methodFromSubprogram builds a DiscoveredMethod from sp if its first formal
// parameter is self/&self/&mut self and its (dereferenced) type matches
// targetDie, dropping associated functions.
func (dfi *DebugFileIndex) methodFromSubprogram(sp, targetDie *die.Die, resolver *types.Resolver) (DiscoveredMethod, bool) {
	params, err := sp.Children()
	if err != nil {
		return DiscoveredMethod{}, false
	}

	var (
		selfKind SelfKind
		argTypes []types.Layout
		ret      types.Layout = types.Unit{}
		first    = true
	)
	for _, p := range params {
		switch p.Tag() {
		case dwarf.TagFormalParameter:
			t, err := p.Type()
			if err != nil {
				return DiscoveredMethod{}, false
			}
			if first {
				first = false
				kind, ok := selfKindOf(p, t, targetDie)
				if !ok {
					return DiscoveredMethod{}, false
				}
				selfKind = kind
				continue
			}
			if t != nil {
				argTypes = append(argTypes, resolver.ResolveShallow(t))
			}
		}
	}
	if selfKind == SelfNone {
		return DiscoveredMethod{}, false
	}
	if rt, err := sp.Type(); err == nil && rt != nil {
		ret = resolver.ResolveShallow(rt)
	}

	name := sp.Name()
	if name == "" {
		name = sp.LinkageName()
	}
	sig := formatSignature(name, selfKind, argTypes, ret)

	linkName := sp.LinkageName()
	var addr uint64
	if linkName != "" {
		if fe, ok := dfi.BySymbolName[rustsym.ParseSymbolName(linkName).String()]; ok {
			addr = fe.AbsStart
		}
	}

	return DiscoveredMethod{
		Name:       name,
		FullName:   fmt.Sprintf("%s::%s", targetDie.Name(), name),
		Signature:  sig,
		Address:    addr,
		SelfType:   selfKind,
		Callable:   addr != 0,
		ReturnType: ret,
	}, true
}

// selfKindOf classifies the first parameter of a candidate method: it must
// be named "self" (or "this") and, when a reference/pointer, dereference to targetDie's
// own type; a by-value self must equal targetDie directly.
func selfKindOf(param, paramType, targetDie *die.Die) (SelfKind, bool) {
	if param.Name() != "self" && param.Name() != "this" {
		return SelfNone, false
	}
	if paramType == nil {
		return SelfNone, false
	}
	switch paramType.Tag() {
	case dwarf.TagReferenceType, dwarf.TagPointerType:
		pointee, err := paramType.Type()
		if err != nil || pointee == nil || !sameType(pointee, targetDie) {
			return SelfNone, false
		}
		mutable := true
		if expr, err := rustsym.ParseTypeExpr(paramType.Name()); err == nil {
			if r, ok := expr.(rustsym.ReferenceExpr); ok {
				mutable = r.Mutable
			}
		}
		if mutable {
			return SelfBorrowedMut, true
		}
		return SelfBorrowed, true
	default:
		if !sameType(paramType, targetDie) {
			return SelfNone, false
		}
		return SelfValue, true
	}
}

func sameType(a, b *die.Die) bool {
	return a.Name() != "" && a.Name() == b.Name()
}

func formatSignature(name string, self SelfKind, args []types.Layout, ret types.Layout) string {
	var b strings.Builder
	b.WriteString("fn ")
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(self.String())
	for _, a := range args {
		b.WriteString(", ")
		b.WriteString(a.DisplayName())
	}
	b.WriteByte(')')
	if _, isUnit := ret.(types.Unit); !isUnit {
		b.WriteString(" -> ")
		b.WriteString(ret.DisplayName())
	}
	return b.String()
}

// SyntheticMethods implements phase 3: methods evaluable purely
// from layout and memory, attached to recognized standard types.
func SyntheticMethods(layout types.Layout) []DiscoveredMethod {
	usize := types.UInt{Bits: 64}
	boolT := types.Bool{}
	synth := func(name string, ret types.Layout) DiscoveredMethod {
		return DiscoveredMethod{
			Name:        name,
			FullName:    layout.DisplayName() + "::" + name,
			Signature:   formatSignature(name, SelfBorrowed, nil, ret),
			IsSynthetic: true,
			ReturnType:  ret,
		}
	}
	switch layout.(type) {
	case types.Vec, types.StringT:
		return []DiscoveredMethod{synth("len", usize), synth("is_empty", boolT), synth("capacity", usize)}
	case types.Slice, types.StrSlice, types.Array:
		return []DiscoveredMethod{synth("len", usize), synth("is_empty", boolT)}
	case types.OptionT:
		return []DiscoveredMethod{synth("is_some", boolT), synth("is_none", boolT)}
	case types.ResultT:
		return []DiscoveredMethod{synth("is_ok", boolT), synth("is_err", boolT)}
	default:
		return nil
	}
}
