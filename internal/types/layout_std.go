package types

// Vec is `alloc::vec::Vec<T>`, with allocator generics elided. Offsets are
// filled by the resolver via FieldPathOffset walks, never hard-coded.
type Vec struct {
	Elem                       Layout
	LenOff, DataPtrOff, CapOff uint64
}

func (Vec) isLayout()           {}
func (v Vec) DisplayName() string { return displayGenerics("Vec", v.Elem.DisplayName()) }
func (Vec) Size() uint64        { return 24 } // ptr + len + cap, all usize-width

// StringT is `alloc::string::String`, represented as a `Vec<u8>` underneath.
type StringT struct{ Inner Vec }

func (StringT) isLayout()           {}
func (StringT) DisplayName() string { return "String" }
func (s StringT) Size() uint64      { return s.Inner.Size() }

// OptionT is `core::option::Option<T>`.
type OptionT struct {
	Discr    Discriminant
	SomeOff  uint64
	SomeType Layout
	ByteSize uint64
}

func (OptionT) isLayout() {}
func (o OptionT) DisplayName() string {
	return displayGenerics("Option", o.SomeType.DisplayName())
}
func (o OptionT) Size() uint64 { return o.ByteSize }

// ResultT is `core::result::Result<T, E>`.
type ResultT struct {
	Discr            Discriminant
	OkOff            uint64
	OkType           Layout
	ErrOff           uint64
	ErrType          Layout
	ByteSize         uint64
}

func (ResultT) isLayout() {}
func (r ResultT) DisplayName() string {
	return displayGenerics("Result", r.OkType.DisplayName(), r.ErrType.DisplayName())
}
func (r ResultT) Size() uint64 { return r.ByteSize }

// MapVariantKind distinguishes the two recognized map implementations.
type MapVariantKind int

const (
	MapHashMap MapVariantKind = iota
	MapBTreeMap
)

// HashbrownLayout carries every offset needed to enumerate a hashbrown
// SwissTable without linking against the host's standard library.
type HashbrownLayout struct {
	BucketMaskOff, CtrlOff, ItemsOff uint64
	PairSize, KeyOff, ValueOff       uint64
}

// BTreeLayout carries every offset needed to walk a BTreeMap's node tree.
type BTreeLayout struct {
	LengthOff, RootOff         uint64
	RootNodeOff, RootHeightOff uint64
	NodeKeysOff, NodeValsOff   uint64
	NodeLenOff, NodeEdgesOff   uint64
}

// MapT is `HashMap<K,V>` or `BTreeMap<K,V>`.
type MapT struct {
	Key, Value Layout
	Variant    MapVariantKind
	Hashbrown  *HashbrownLayout
	BTree      *BTreeLayout
}

func (MapT) isLayout() {}
func (m MapT) DisplayName() string {
	name := "HashMap"
	if m.Variant == MapBTreeMap {
		name = "BTreeMap"
	}
	return displayGenerics(name, m.Key.DisplayName(), m.Value.DisplayName())
}
func (m MapT) Size() uint64 {
	if m.Variant == MapBTreeMap {
		return 24 // length + NonNull<Root> + PhantomData, usize-width
	}
	return 48 // hashbrown RawTable: bucket_mask, ctrl, items/growth_left, marker
}

// SmartPtrVariant enumerates the recognized smart-pointer/cell wrappers.
type SmartPtrVariant int

const (
	SmartBox SmartPtrVariant = iota
	SmartRc
	SmartArc
	SmartCell
	SmartRefCell
	SmartMutex
	SmartRwLock
	SmartUnsafeCell
)

func (v SmartPtrVariant) String() string {
	switch v {
	case SmartBox:
		return "Box"
	case SmartRc:
		return "Rc"
	case SmartArc:
		return "Arc"
	case SmartCell:
		return "Cell"
	case SmartRefCell:
		return "RefCell"
	case SmartMutex:
		return "Mutex"
	case SmartRwLock:
		return "RwLock"
	case SmartUnsafeCell:
		return "UnsafeCell"
	default:
		return "SmartPtr"
	}
}

// SmartPtr is `Box/Rc/Arc/Cell/RefCell/Mutex/RwLock/UnsafeCell<T>`.
type SmartPtr struct {
	Variant               SmartPtrVariant
	Inner                 Layout
	InnerPtrOff, DataPtrOff uint64
}

func (SmartPtr) isLayout() {}
func (s SmartPtr) DisplayName() string {
	return displayGenerics(s.Variant.String(), s.Inner.DisplayName())
}
func (s SmartPtr) Size() uint64 {
	switch s.Variant {
	case SmartBox, SmartRc, SmartArc:
		return 8
	default:
		return s.Inner.Size()
	}
}
