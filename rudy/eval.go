package rudy

import (
	"fmt"

	"github.com/samscott89/rudy-sub002/internal/evalexpr"
	"github.com/samscott89/rudy-sub002/internal/index"
	"github.com/samscott89/rudy-sub002/internal/locexpr"
	"github.com/samscott89/rudy-sub002/internal/memview"
	"github.com/samscott89/rudy-sub002/internal/types"
)

// Evaluation binds a DebugInfo to a PC and a DataResolver for the duration
// of one expression evaluation: it is the evalexpr.Env a
// Rust-like expression is evaluated against. Unlike DebugInfo itself, it is
// not a pure query object — LookupVariable depends on the scope at pc and
// reads through resolver — so it is constructed fresh per evaluation rather
// than cached.
type Evaluation struct {
	di        *DebugInfo
	resolver  memview.DataResolver
	params    []*index.VarDie
	locals    []*index.VarDie
	dfi       *index.DebugFileIndex
	frameBase []byte
}

// NewEvaluation builds the scope live at pc for evaluating expressions
// against resolver.
func (di *DebugInfo) NewEvaluation(pc uint64, resolver memview.DataResolver) *Evaluation {
	params, locals, dfi, frameBase, _ := di.variablesAt(pc)
	return &Evaluation{di: di, resolver: resolver, params: params, locals: locals, dfi: dfi, frameBase: frameBase}
}

// Eval parses and evaluates text in to-value mode.
func (ev *Evaluation) Eval(text string) (memview.Value, error) {
	expr, err := evalexpr.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("rudy: %w", err)
	}
	return evalexpr.EvalValue(expr, ev)
}

// EvalRef parses and evaluates text in to-ref mode,
// returning the TypedPointer the expression denotes without reading through
// it.
func (ev *Evaluation) EvalRef(text string) (memview.TypedPointer, error) {
	expr, err := evalexpr.Parse(text)
	if err != nil {
		return memview.TypedPointer{}, fmt.Errorf("rudy: %w", err)
	}
	return evalexpr.EvalRef(expr, ev)
}

// Resolver implements evalexpr.Env.
func (ev *Evaluation) Resolver() *types.Resolver { return ev.di.resolver }

// DataResolver implements evalexpr.Env.
func (ev *Evaluation) DataResolver() memview.DataResolver { return ev.resolver }

// DiscoverMethods implements evalexpr.Env.
func (ev *Evaluation) DiscoverMethods(layout types.Layout) []index.DiscoveredMethod {
	return ev.di.DiscoverMethodsForType(layout)
}

// LookupVariable implements evalexpr.Env: a bare identifier resolves against
// in-scope locals first, then parameters, so a local redeclaring a
// parameter's name wins.
func (ev *Evaluation) LookupVariable(name string) (memview.TypedPointer, bool) {
	for _, v := range ev.locals {
		if v.Name == name {
			return ev.typedPointerFor(v)
		}
	}
	for _, v := range ev.params {
		if v.Name == name {
			return ev.typedPointerFor(v)
		}
	}
	return memview.TypedPointer{}, false
}

// LookupPath implements evalexpr.Env: a `::`-joined path resolves to the
// first module-level global whose name equals the path's last segment; the
// leading segments are not compared with the global's module path.
func (ev *Evaluation) LookupPath(segments []string) (memview.TypedPointer, bool) {
	if ev.dfi == nil || len(segments) == 0 {
		return memview.TypedPointer{}, false
	}
	item := segments[len(segments)-1]
	for _, v := range index.CollectGlobals(ev.dfi) {
		if v.Name == item {
			return ev.typedPointerFor(v)
		}
	}
	return memview.TypedPointer{}, false
}

func (ev *Evaluation) typedPointerFor(v *index.VarDie) (memview.TypedPointer, bool) {
	typeDie, err := v.Die.Type()
	if err != nil || typeDie == nil {
		return memview.TypedPointer{}, false
	}
	layout := ev.di.resolver.ResolveDeep(typeDie)
	expr, ok := v.Die.LocationExpr()
	if !ok || ev.resolver == nil {
		return memview.TypedPointer{}, false
	}
	loc, err := locexpr.Evaluate(expr, ev.frameBase, ev.resolver)
	if err != nil {
		return memview.TypedPointer{}, false
	}
	mem, ok := loc.(locexpr.MemoryLocation)
	if !ok {
		return memview.TypedPointer{}, false
	}
	return memview.TypedPointer{Addr: mem.Addr, Layout: layout}, true
}
