package types

import (
	"debug/dwarf"

	"github.com/samscott89/rudy-sub002/internal/dbcore"
	"github.com/samscott89/rudy-sub002/internal/die"
	"github.com/samscott89/rudy-sub002/internal/parser"
)

// resolveStdByName recognizes a structure_type DIE as a standard-library
// container by parsing its display name (rustsym.ParseTypeExpr) and, when
// recognized, discovering its field offsets via parser.FieldPathOffset
// chains matching rustc's actual layout. A shallow request asks for only
// enough information to name the container and its immediate generic
// arguments, without expanding nested generics into full Layouts.
func (r *Resolver) resolveStdByName(d *die.Die, shallow bool) (Layout, bool, error) {
	_, last, _, ok := StdPath(r.qualifiedName(d))
	if !ok {
		return nil, false, nil
	}

	elem := func(i int) Layout {
		t, ok, err := d.TemplateTypeParam(i)
		if !ok || err != nil || t == nil {
			return Alias{Name: "?"}
		}
		if shallow {
			return r.ResolveShallow(t)
		}
		return r.ResolveDeep(t)
	}

	switch last {
	case "String":
		l, err := r.resolveStringLike(d)
		return l, err == nil, err
	case "Vec":
		l, err := r.resolveVec(d, "", elem(0))
		return l, err == nil, err
	case "Box":
		l, err := r.resolveBox(d, elem(0))
		return l, err == nil, err
	case "Rc":
		l, err := r.resolveRcArc(d, elem(0), SmartRc)
		return l, err == nil, err
	case "Arc":
		l, err := r.resolveRcArc(d, elem(0), SmartArc)
		return l, err == nil, err
	case "Option":
		l, err := r.resolveOption(d, elem(0))
		return l, err == nil, err
	case "Result":
		l, err := r.resolveResult(d, elem(0), elem(1))
		return l, err == nil, err
	case "Cell":
		l, err := r.resolveCellLike(d, elem(0), SmartCell)
		return l, err == nil, err
	case "RefCell":
		l, err := r.resolveCellLike(d, elem(0), SmartRefCell)
		return l, err == nil, err
	case "UnsafeCell":
		l, err := r.resolveCellLike(d, elem(0), SmartUnsafeCell)
		return l, err == nil, err
	case "Mutex":
		l, err := r.resolveLockLike(d, elem(0), SmartMutex)
		return l, err == nil, err
	case "RwLock":
		l, err := r.resolveLockLike(d, elem(0), SmartRwLock)
		return l, err == nil, err
	case "HashMap":
		l, err := r.resolveHashMap(d, elem(0), elem(1))
		return l, err == nil, err
	case "HashSet":
		l, err := r.resolveHashMap(d, elem(0), Unit{})
		return l, err == nil, err
	case "BTreeMap":
		l, err := r.resolveBTreeMap(d, elem(0), elem(1))
		return l, err == nil, err
	case "BTreeSet":
		l, err := r.resolveBTreeMap(d, elem(0), Unit{})
		return l, err == nil, err
	}
	return nil, false, nil
}

// resolveVec discovers the buf/cap/len field-path chain:
// buf.inner.ptr.pointer, buf.inner.cap.__0, len — optionally rooted at a
// prefix member (e.g. "vec" when called from within a String).
func (r *Resolver) resolveVec(d *die.Die, prefix string, elem Layout) (Vec, error) {
	p := func(segs ...string) parser.Parser[int64] {
		if prefix != "" {
			segs = append([]string{prefix}, segs...)
		}
		return parser.FieldPathOffset(segs...)
	}
	ptrOff, err := p("buf", "inner", "ptr", "pointer")(d)
	if err != nil {
		return Vec{}, err
	}
	capOff, err := p("buf", "inner", "cap", "__0")(d)
	if err != nil {
		return Vec{}, err
	}
	lenOff, err := p("len")(d)
	if err != nil {
		return Vec{}, err
	}
	return Vec{Elem: elem, DataPtrOff: uint64(ptrOff), CapOff: uint64(capOff), LenOff: uint64(lenOff)}, nil
}

// resolveStringLike covers alloc::string::String, a thin wrapper around a
// `vec: Vec<u8>` field at the same relative offsets a free-standing Vec uses.
func (r *Resolver) resolveStringLike(d *die.Die) (StringT, error) {
	inner, err := r.resolveVec(d, "vec", UInt{Bits: 8})
	if err != nil {
		return StringT{}, err
	}
	return StringT{Inner: inner}, nil
}

func (r *Resolver) resolveBox(d *die.Die, elem Layout) (SmartPtr, error) {
	ptrOff, err := parser.Or(
		parser.FieldPathOffset("0", "pointer", "pointer"),
		parser.FieldPathOffset("pointer", "pointer"),
	)(d)
	if err != nil {
		return SmartPtr{}, err
	}
	return SmartPtr{Variant: SmartBox, Inner: elem, DataPtrOff: uint64(ptrOff)}, nil
}

// resolveRcArc discovers the pointer-to-RcBox offset, then the offset of the
// `value` field within RcBox/ArcBox itself (Rc/Arc chain:
// ptr -> NonNull -> pointer, then RcBox.value).
func (r *Resolver) resolveRcArc(d *die.Die, elem Layout, variant SmartPtrVariant) (SmartPtr, error) {
	ptrOff, err := parser.FieldPathOffset("ptr", "pointer")(d)
	if err != nil {
		return SmartPtr{}, err
	}
	var innerOff int64
	if innerType, ok, terr := d.TemplateTypeParam(0); ok && terr == nil && innerType != nil {
		if off, verr := parser.FieldPathOffset("value")(innerType); verr == nil {
			innerOff = off
		}
	}
	return SmartPtr{Variant: variant, Inner: elem, DataPtrOff: uint64(ptrOff), InnerPtrOff: uint64(innerOff)}, nil
}

// resolveOption builds Option<T>'s layout from the underlying niche-encoded
// enum: the variant with no explicit discriminant is Some, reusing T's own
// payload offset directly.
func (r *Resolver) resolveOption(d *die.Die, elem Layout) (OptionT, error) {
	acc := &dbcore.Accumulator{}
	enum, err := r.resolveEnum(d, acc)
	if err != nil {
		return OptionT{}, err
	}
	e, _ := enum.(EnumT)
	size, _ := d.UdataAttr(dwarf.AttrByteSize)
	someType := elem
	if some, ok := e.NicheVariant(); ok {
		someType = firstFieldLayoutOr(some, elem)
	}
	return OptionT{Discr: e.Discr, SomeType: someType, ByteSize: size}, nil
}

func firstFieldLayoutOr(v EnumVariant, fallback Layout) Layout {
	if s, ok := v.Layout.(StructT); ok && len(s.Fields) > 0 {
		return s.Fields[0].Layout
	}
	if v.Layout != nil {
		return v.Layout
	}
	return fallback
}

func (r *Resolver) resolveResult(d *die.Die, okLayout, errLayout Layout) (ResultT, error) {
	acc := &dbcore.Accumulator{}
	enum, err := r.resolveEnum(d, acc)
	if err != nil {
		return ResultT{}, err
	}
	e, _ := enum.(EnumT)
	size, _ := d.UdataAttr(dwarf.AttrByteSize)
	return ResultT{Discr: e.Discr, OkType: okLayout, ErrType: errLayout, ByteSize: size}, nil
}

// resolveCellLike covers Cell<T>/RefCell<T>/UnsafeCell<T>, all of which
// store T inline behind an UnsafeCell.value member.
func (r *Resolver) resolveCellLike(d *die.Die, elem Layout, variant SmartPtrVariant) (SmartPtr, error) {
	off, err := parser.Or(
		parser.FieldPathOffset("value", "value"),
		parser.FieldPathOffset("value"),
	)(d)
	if err != nil {
		return SmartPtr{}, err
	}
	return SmartPtr{Variant: variant, Inner: elem, DataPtrOff: uint64(off)}, nil
}

// resolveLockLike covers Mutex<T>/RwLock<T>, whose std::sys primitives wrap
// the payload behind a platform-specific lock struct before an UnsafeCell.
func (r *Resolver) resolveLockLike(d *die.Die, elem Layout, variant SmartPtrVariant) (SmartPtr, error) {
	off, err := parser.Or(
		parser.FieldPathOffset("data", "value"),
		parser.FieldPathOffset("inner", "data", "value"),
	)(d)
	if err != nil {
		return SmartPtr{}, err
	}
	return SmartPtr{Variant: variant, Inner: elem, DataPtrOff: uint64(off)}, nil
}

// resolveHashMap discovers hashbrown's RawTable control-byte and
// bucket-mask offsets; the key/value pair layout within
// each bucket is derived from the already-resolved key/value Layouts'
// sizes: each bucket holds one (K, V) pair, the key at offset 0 and the
// value directly after it.
func (r *Resolver) resolveHashMap(d *die.Die, key, value Layout) (MapT, error) {
	bucketMaskOff, err := parser.FieldPathOffset("base", "table", "bucket_mask")(d)
	if err != nil {
		return MapT{}, err
	}
	ctrlOff, err := parser.FieldPathOffset("base", "table", "ctrl", "pointer")(d)
	if err != nil {
		return MapT{}, err
	}
	itemsOff, err := parser.Or(
		parser.FieldPathOffset("base", "table", "items"),
		parser.FieldPathOffset("base", "table", "growth_left"),
	)(d)
	if err != nil {
		itemsOff = 0
	}
	return MapT{
		Key: key, Value: value, Variant: MapHashMap,
		Hashbrown: &HashbrownLayout{
			BucketMaskOff: uint64(bucketMaskOff),
			CtrlOff:       uint64(ctrlOff),
			ItemsOff:      uint64(itemsOff),
			KeyOff:        0,
			ValueOff:      key.Size(),
			PairSize:      key.Size() + value.Size(),
		},
	}, nil
}

// resolveBTreeMap discovers the outer length/root offsets plus the
// node-internal offsets (keys/vals/len/edges) the memory-view layer needs
// to walk the tree, since that layer only sees a Layout and a DataResolver
// and has no DWARF access of its own. The node layout is
// shared by every node in the tree regardless of depth, so it is resolved
// once here from the static types Root<K,V> and LeafNode<K,V>, following
// rustc's btree_map::map field names.
func (r *Resolver) resolveBTreeMap(d *die.Die, key, value Layout) (MapT, error) {
	lenOff, err := parser.FieldPathOffset("length")(d)
	if err != nil {
		return MapT{}, err
	}
	rootOff, err := parser.Or(
		parser.FieldPathOffset("root", "__0", "node", "pointer"),
		parser.FieldPathOffset("root", "node", "pointer"),
	)(d)
	if err != nil {
		rootOff = 0
	}

	bt := &BTreeLayout{LengthOff: uint64(lenOff), RootOff: uint64(rootOff)}

	if rootType, ok, terr := memberType(d, "root"); ok && terr == nil {
		// root: Option<Root<K,V>> niche-encodes a NodeRef at "__0"; older
		// rustc emits Root<K,V> directly.
		root := rootType
		if inner, ok, _ := memberType(rootType, "__0"); ok {
			root = inner
		}
		if nodeOff, err := parser.FieldPathOffset("node", "pointer")(root); err == nil {
			bt.RootNodeOff = uint64(nodeOff)
		}
		if heightOff, err := parser.FieldPathOffset("height")(root); err == nil {
			bt.RootHeightOff = uint64(heightOff)
		}
		if nodeType, ok, terr := memberType(root, "node"); ok && terr == nil {
			leaf := nodeType
			if inner, ok, _ := memberType(nodeType, "pointer"); ok {
				leaf = inner
			}
			if keysOff, err := parser.FieldPathOffset("keys")(leaf); err == nil {
				bt.NodeKeysOff = uint64(keysOff)
			}
			if valsOff, err := parser.FieldPathOffset("vals")(leaf); err == nil {
				bt.NodeValsOff = uint64(valsOff)
			}
			if lenOff, err := parser.FieldPathOffset("len")(leaf); err == nil {
				bt.NodeLenOff = uint64(lenOff)
			}
			// InternalNode<K,V> embeds a LeafNode<K,V> as its first field
			// and appends the edges array immediately after it, so the
			// leaf's own byte size is the edges array's offset even when
			// InternalNode's DIE itself was never instantiated (e.g. a
			// map that never grew past a single leaf).
			if size, ok := leaf.UdataAttr(dwarf.AttrByteSize); ok {
				bt.NodeEdgesOff = size
			}
		}
	}

	return MapT{
		Key: key, Value: value, Variant: MapBTreeMap,
		BTree: bt,
	}, nil
}

// memberType resolves a direct member's own type DIE, stepping through
// pointer/reference indirection the way NonNull<T>.pointer does.
func memberType(d *die.Die, name string) (*die.Die, bool, error) {
	m, ok, err := d.Member(name)
	if err != nil || !ok {
		return nil, false, err
	}
	t, err := m.Type()
	if err != nil || t == nil {
		return nil, false, err
	}
	return t, true, nil
}
