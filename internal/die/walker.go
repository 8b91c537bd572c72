package die

import "debug/dwarf"

// Visitor is the walker callback interface used by the indexer (L5), letting
// L5 run several independent passes (symbols, modules, functions) over the
// same DIE tree without duplicating the traversal logic each time.
type Visitor interface {
	// VisitCU is called once per compile unit, before its children are
	// visited. Returning false skips the entire CU.
	VisitCU(cu *Die) bool
	// VisitDie is called for every DIE in pre-order. Returning false skips
	// this DIE's children (but siblings are still visited).
	VisitDie(d *Die, depth int) bool
}

// VisitFunc adapts a plain function to the Visitor interface for callers
// that only care about per-DIE visits; VisitCU always descends.
type VisitFunc func(d *Die, depth int) bool

func (f VisitFunc) VisitCU(cu *Die) bool          { return true }
func (f VisitFunc) VisitDie(d *Die, depth int) bool { return f(d, depth) }

// Walk walks every compile unit in data, invoking v for each CU and DIE.
// fileName is used for error-location strings on any Die created during the
// walk.
func Walk(data *dwarf.Data, fileName string, v Visitor) error {
	r := data.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		cu := New(data, entry, fileName)
		if !v.VisitCU(cu) {
			if entry.Children {
				r.SkipChildren()
			}
			continue
		}
		if entry.Children {
			if err := walkChildren(r, data, fileName, v, 1); err != nil {
				return err
			}
		}
	}
}

func walkChildren(r *dwarf.Reader, data *dwarf.Data, fileName string, v Visitor, depth int) error {
	for {
		e, err := r.Next()
		if err != nil {
			return err
		}
		if e == nil || e.Tag == 0 {
			return nil
		}
		d := New(data, e, fileName)
		descend := v.VisitDie(d, depth)
		if e.Children {
			if descend {
				if err := walkChildren(r, data, fileName, v, depth+1); err != nil {
					return err
				}
			} else {
				r.SkipChildren()
			}
		}
	}
}

// WalkNamespace walks only the subtree rooted at a DW_TAG_namespace (or any
// other DIE) die, invoking v.VisitDie for it and its descendants. Used to
// compute namespace-extent ranges and to scan `{impl#N}` namespaces for
// trait-impl method discovery (phase 2).
func WalkNamespace(d *Die, v Visitor) error {
	if !v.VisitDie(d, 0) {
		return nil
	}
	return walkSubtree(d, v, 1)
}

func walkSubtree(d *Die, v Visitor, depth int) error {
	children, err := d.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if v.VisitDie(c, depth) {
			if err := walkSubtree(c, v, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
