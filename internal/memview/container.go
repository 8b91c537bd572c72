package memview

import "github.com/samscott89/rudy-sub002/internal/types"

// readMap dispatches HashMap/HashSet (hashbrown SwissTable) vs BTreeMap/
// BTreeSet (node tree) enumeration.
func readMap(addr uint64, l types.MapT, r DataResolver) (Value, error) {
	var entries []MapEntry
	var err error
	switch l.Variant {
	case types.MapHashMap:
		entries, err = enumerateHashbrown(addr, l, r)
	case types.MapBTreeMap:
		entries, err = enumerateBTree(addr, l, r)
	default:
		return nil, wrapf(ErrLayoutResolution, "unrecognized map variant %v", l.Variant)
	}
	if err != nil {
		return nil, err
	}
	return MapValue{Ty: l.DisplayName(), Entries: entries}, nil
}

// enumerateHashbrown implements SwissTable walk: control
// bytes 0..capacity, data slots growing downward from the control pointer,
// stopping once `items` entries have been found.
func enumerateHashbrown(addr uint64, l types.MapT, r DataResolver) ([]MapEntry, error) {
	h := l.Hashbrown
	items, err := r.ReadAddress(addr + h.ItemsOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "hashbrown items at 0x%x: %v", addr+h.ItemsOff, err)
	}
	if items == 0 {
		return nil, nil
	}
	bucketMask, err := r.ReadAddress(addr + h.BucketMaskOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "hashbrown bucket_mask at 0x%x: %v", addr+h.BucketMaskOff, err)
	}
	capacity := bucketMask + 1
	ctrl, err := r.ReadAddress(addr + h.CtrlOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "hashbrown ctrl at 0x%x: %v", addr+h.CtrlOff, err)
	}

	entries := make([]MapEntry, 0, items)
	slot := ctrl
	for i := uint64(0); i < capacity && uint64(len(entries)) < items; i++ {
		slot -= h.PairSize
		b, err := r.ReadMemory(ctrl+i, 1)
		if err != nil {
			return nil, wrapf(ErrMemoryAccess, "hashbrown control byte at 0x%x: %v", ctrl+i, err)
		}
		if b[0] >= 0x80 {
			continue
		}
		entries = append(entries, MapEntry{
			Key:   TypedPointer{Addr: slot + h.KeyOff, Layout: l.Key},
			Value: TypedPointer{Addr: slot + h.ValueOff, Layout: l.Value},
		})
	}
	return entries, nil
}

// enumerateBTree implements node-tree walk: an empty
// Option<Root> (leading 8 bytes zero) is an empty map; otherwise recurse
// from the root node, emitting `(keys[i], vals[i])` for i<len at every
// level and descending into `edges[i]` for internal nodes.
func enumerateBTree(addr uint64, l types.MapT, r DataResolver) ([]MapEntry, error) {
	bt := l.BTree
	length, err := r.ReadAddress(addr + bt.LengthOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "BTreeMap length at 0x%x: %v", addr+bt.LengthOff, err)
	}
	if length == 0 {
		return nil, nil
	}
	rootWord, err := r.ReadAddress(addr + bt.RootOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "BTreeMap root at 0x%x: %v", addr+bt.RootOff, err)
	}
	if rootWord == 0 {
		return nil, nil
	}
	rootAddr := addr + bt.RootOff
	nodePtr, err := r.ReadAddress(rootAddr + bt.RootNodeOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "BTreeMap root node at 0x%x: %v", rootAddr+bt.RootNodeOff, err)
	}
	heightWord, err := r.ReadAddress(rootAddr + bt.RootHeightOff)
	if err != nil {
		return nil, wrapf(ErrMemoryAccess, "BTreeMap root height at 0x%x: %v", rootAddr+bt.RootHeightOff, err)
	}

	entries := make([]MapEntry, 0, length)
	if err := walkBTreeNode(nodePtr, int(heightWord), l, &entries, r); err != nil {
		return nil, err
	}
	return entries, nil
}

func walkBTreeNode(nodePtr uint64, height int, l types.MapT, out *[]MapEntry, r DataResolver) error {
	bt := l.BTree
	lenBytes, err := r.ReadMemory(nodePtr+bt.NodeLenOff, 2)
	if err != nil {
		return wrapf(ErrMemoryAccess, "BTreeMap node len at 0x%x: %v", nodePtr+bt.NodeLenOff, err)
	}
	length := int(uint16(lenBytes[0]) | uint16(lenBytes[1])<<8)

	keySize, valSize := l.Key.Size(), l.Value.Size()
	for i := 0; i <= length; i++ {
		if height > 0 {
			edgeAddr := nodePtr + bt.NodeEdgesOff + uint64(i)*8
			child, err := r.ReadAddress(edgeAddr)
			if err != nil {
				return wrapf(ErrMemoryAccess, "BTreeMap edge at 0x%x: %v", edgeAddr, err)
			}
			if err := walkBTreeNode(child, height-1, l, out, r); err != nil {
				return err
			}
		}
		if i < length && keySize != 0 {
			*out = append(*out, MapEntry{
				Key:   TypedPointer{Addr: nodePtr + bt.NodeKeysOff + uint64(i)*keySize, Layout: l.Key},
				Value: TypedPointer{Addr: nodePtr + bt.NodeValsOff + uint64(i)*valSize, Layout: l.Value},
			})
		}
	}
	return nil
}
