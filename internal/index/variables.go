package index

import (
	"debug/dwarf"

	"github.com/samscott89/rudy-sub002/internal/die"
)

// VarDie is one named variable DIE recorded by parameter/local/global
// collection: a parameter, a lexical-block-scoped local, or a module-level
// static.
type VarDie struct {
	Name     string
	Die      *die.Die
	DeclLine int
}

// CollectParamsAndLocals implements get_variable_at_pc /
// get_all_variables_at_pc scoping rule: a function's formal parameters are
// always in scope; a lexical block's locals are only in scope once execution
// has reached their declaration line, matching the common shadowing pattern
// where a block redeclares a name partway through.
func CollectParamsAndLocals(fe *FunctionEntry, curLine int) (params, locals []*VarDie, err error) {
	children, err := fe.DeclDie.Children()
	if err != nil {
		return nil, nil, err
	}
	for _, c := range children {
		if c.Tag() == dwarf.TagFormalParameter {
			if v := varFromDie(c); v != nil {
				params = append(params, v)
			}
		}
	}
	if err := collectBlockLocals(fe.DeclDie, curLine, &locals); err != nil {
		return nil, nil, err
	}
	return params, locals, nil
}

// collectBlockLocals recurses into nested lexical blocks (an if/for/match
// arm's own scope), filtering each DW_TAG_variable by its decl_line against
// curLine and recursing unconditionally into lexical blocks regardless of
// their own ranges, since DWARF4 rustc output commonly omits DW_AT_low_pc on
// blocks that were optimized into straight-line code.
func collectBlockLocals(d *die.Die, curLine int, out *[]*VarDie) error {
	children, err := d.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		switch c.Tag() {
		case dwarf.TagVariable:
			if v := varFromDie(c); v != nil {
				if v.DeclLine == 0 || v.DeclLine <= curLine {
					*out = append(*out, v)
				}
			}
		case dwarf.TagLexDwarfBlock:
			if err := collectBlockLocals(c, curLine, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func varFromDie(d *die.Die) *VarDie {
	name := d.Name()
	if name == "" {
		return nil
	}
	line, _ := d.DeclLine()
	return &VarDie{Name: name, Die: d, DeclLine: line}
}

// CollectGlobals walks every compilation unit's module tree recording every
// top-level DW_TAG_variable that carries a DW_AT_location, rustc's encoding
// of a `static` or a module-level `const` that escaped inlining.
func CollectGlobals(dfi *DebugFileIndex) []*VarDie {
	var out []*VarDie
	for _, cu := range dfi.CUs {
		_ = collectGlobalsIn(cu, &out)
	}
	return out
}

func collectGlobalsIn(d *die.Die, out *[]*VarDie) error {
	children, err := d.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		switch c.Tag() {
		case dwarf.TagVariable:
			if _, ok := c.LocationExpr(); ok {
				if v := varFromDie(c); v != nil {
					*out = append(*out, v)
				}
			}
		case dwarf.TagNamespace:
			if err := collectGlobalsIn(c, out); err != nil {
				return err
			}
		}
	}
	return nil
}
