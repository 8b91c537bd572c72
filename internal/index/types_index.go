package index

import (
	"debug/dwarf"
	"strings"

	"github.com/samscott89/rudy-sub002/internal/die"
)

// TypeEntry is one named type DIE recorded by the type-name table, together
// with the module path it was found in — the anchor method discovery and
// lookup_type_by_name use to walk back from a display name to its declaring
// DIE.
type TypeEntry struct {
	Die        *die.Die
	CU         *die.Die
	ModulePath []string
}

// buildTypeIndex walks cu's DIE tree recording every named
// structure/union/enumeration type under its qualified ("::"-joined) name.
// Declarations (DW_AT_declaration) are skipped in favor of the defining DIE
// when both are present, matching the rest of L5's "skip debug-only holes"
// posture.
func buildTypeIndex(cu *die.Die, out map[string]*TypeEntry) error {
	return walkTypeIndex(cu, nil, cu, out)
}

func walkTypeIndex(d *die.Die, path []string, cu *die.Die, out map[string]*TypeEntry) error {
	children, err := d.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		childPath := path
		switch c.Tag() {
		case dwarf.TagNamespace:
			name := c.Name()
			if name == "" {
				name = "{namespace}"
			}
			childPath = append(append([]string(nil), path...), name)
		case dwarf.TagStructType, dwarf.TagUnionType, dwarf.TagEnumerationType:
			if decl, ok := c.BoolAttr(dwarf.AttrDeclaration); ok && decl {
				break
			}
			name := c.Name()
			if name != "" {
				qualified := strings.Join(append(append([]string(nil), path...), name), "::")
				if _, exists := out[qualified]; !exists {
					out[qualified] = &TypeEntry{Die: c, CU: cu, ModulePath: append([]string(nil), path...)}
				}
			}
		}
		if err := walkTypeIndex(c, childPath, cu, out); err != nil {
			return err
		}
	}
	return nil
}
