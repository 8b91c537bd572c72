package index

import (
	"debug/dwarf"
	"fmt"

	"github.com/samscott89/rudy-sub002/internal/die"
)

// Module is one DW_TAG_namespace in the module tree, with the DIE-offset
// extent describes: "computed by walking namespaces depth-first
// and closing a range at the start of the next sibling; the outer CU caps
// the last range."
type Module struct {
	Path        []string
	Die         *die.Die
	DieOffset   dwarf.Offset
	ExtentStart dwarf.Offset
	ExtentEnd   dwarf.Offset
}

// ModuleIndex is the per-debug-file namespace tree (step 4).
type ModuleIndex struct {
	modules []Module
}

// FindByOffset returns the module path of the innermost namespace whose
// extent contains off, or nil if off lies outside every namespace (i.e. at
// CU top level).
func (m *ModuleIndex) FindByOffset(off dwarf.Offset) []string {
	var best *Module
	for i := range m.modules {
		mod := &m.modules[i]
		if off >= mod.ExtentStart && off < mod.ExtentEnd {
			if best == nil || len(mod.Path) > len(best.Path) {
				best = mod
			}
		}
	}
	if best == nil {
		return nil
	}
	return best.Path
}

// DieForPath returns the Die whose children should be scanned for method
// discovery's sibling-namespace walk (phase 2): cu itself when
// path is empty (top-level of the compilation unit), otherwise the named
// namespace's own Die.
func (m *ModuleIndex) DieForPath(path []string, cu *die.Die) *die.Die {
	if len(path) == 0 {
		return cu
	}
	if mod, ok := m.FindByPath(path); ok {
		return mod.Die
	}
	return nil
}

// FindByPath returns the module with the given "::"-segmented path.
func (m *ModuleIndex) FindByPath(path []string) (Module, bool) {
	for _, mod := range m.modules {
		if pathEqual(mod.Path, path) {
			return mod, true
		}
	}
	return Module{}, false
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// noExtentEnd is the extent end of a namespace with nothing after it in the
// debug info: a last namespace in the last compilation unit.
const noExtentEnd = dwarf.Offset(^uint32(0) >> 1)

// buildModuleIndex walks cu's DIE tree depth-first, recording a Module entry
// for every DW_TAG_namespace encountered, including anonymous `{impl#N}`
// namespaces used for trait-impl blocks (phase 2 relies on
// these being indexed too). A namespace's extent ends at its next sibling;
// the last namespace at a level ends where its parent's extent ends, and at
// top level where the next compilation unit begins.
func buildModuleIndex(cu *die.Die) (*ModuleIndex, error) {
	cuEnd := noExtentEnd
	r := cu.Data.Reader()
	r.Seek(cu.Offset())
	if _, err := r.Next(); err == nil {
		r.SkipChildren()
		if next, err := r.Next(); err == nil && next != nil {
			cuEnd = next.Offset
		}
	}
	mi := &ModuleIndex{}
	if err := walkModules(cu, nil, cuEnd, mi); err != nil {
		return nil, err
	}
	return mi, nil
}

func walkModules(d *die.Die, path []string, parentEnd dwarf.Offset, mi *ModuleIndex) error {
	children, err := d.Children()
	if err != nil {
		return err
	}
	for i, c := range children {
		if c.Tag() != dwarf.TagNamespace {
			continue
		}
		name := c.Name()
		if name == "" {
			name = fmt.Sprintf("{namespace#%d}", c.Offset())
		}
		childPath := append(append([]string(nil), path...), name)
		end := parentEnd
		if i+1 < len(children) {
			end = children[i+1].Offset()
		}
		mi.modules = append(mi.modules, Module{
			Path:        childPath,
			Die:         c,
			DieOffset:   c.Offset(),
			ExtentStart: c.Offset(),
			ExtentEnd:   end,
		})
		if err := walkModules(c, childPath, end, mi); err != nil {
			return err
		}
	}
	return nil
}
