package memview

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samscott89/rudy-sub002/internal/types"
)

// fakeProcess is a synthetic "debuggee" memory image: a flat byte buffer
// addressed from 0, standing in for a real DataResolver since no compiled
// Rust binary is available to read these tests against.
type fakeProcess struct {
	mem []byte
}

func newFakeProcess(size int) *fakeProcess {
	return &fakeProcess{mem: make([]byte, size)}
}

func (f *fakeProcess) grow(addr uint64, size int) {
	need := int(addr) + size
	if need > len(f.mem) {
		buf := make([]byte, need)
		copy(buf, f.mem)
		f.mem = buf
	}
}

func (f *fakeProcess) putU64(addr uint64, v uint64) {
	f.grow(addr, 8)
	binary.LittleEndian.PutUint64(f.mem[addr:], v)
}

func (f *fakeProcess) putU32(addr uint64, v uint32) {
	f.grow(addr, 4)
	binary.LittleEndian.PutUint32(f.mem[addr:], v)
}

func (f *fakeProcess) putBytes(addr uint64, b []byte) {
	f.grow(addr, len(b))
	copy(f.mem[addr:], b)
}

func (f *fakeProcess) ReadMemory(addr uint64, size int) ([]byte, error) {
	f.grow(addr, size)
	out := make([]byte, size)
	copy(out, f.mem[addr:int(addr)+size])
	return out, nil
}

func (f *fakeProcess) ReadAddress(addr uint64) (uint64, error) {
	f.grow(addr, 8)
	return binary.LittleEndian.Uint64(f.mem[addr : addr+8]), nil
}

func (f *fakeProcess) GetRegister(num int) (uint64, error) { return 0, nil }
func (f *fakeProcess) GetStackPointer() (uint64, error)    { return 0, nil }

func TestReadIntScalar(t *testing.T) {
	p := newFakeProcess(16)
	p.putU64(0, 0xdeadbeef)
	v, err := ReadFromMemory(0, types.UInt{Bits: 64}, p)
	require.NoError(t, err)
	sc := v.(Scalar)
	assert.Equal(t, "u64", sc.Ty)
	assert.Equal(t, "3735928559", sc.Value)
}

func TestReadBool(t *testing.T) {
	p := newFakeProcess(8)
	p.putBytes(0, []byte{1})
	v, err := ReadFromMemory(0, types.Bool{}, p)
	require.NoError(t, err)
	assert.Equal(t, Scalar{Ty: "bool", Value: "true"}, v)
}

func TestReadVec(t *testing.T) {
	p := newFakeProcess(64)
	// data at 0x100: [1,2,3] u8
	p.putBytes(0x100, []byte{1, 2, 3})
	// Vec header at 0: ptr(0), len(8), cap(16)
	p.putU64(0, 0x100)
	p.putU64(8, 3)
	p.putU64(16, 8)
	vec := types.Vec{Elem: types.UInt{Bits: 8}, DataPtrOff: 0, LenOff: 8, CapOff: 16}
	v, err := ReadFromMemory(0, vec, p)
	require.NoError(t, err)
	arr := v.(ArrayValue)
	require.Len(t, arr.Items, 3)
	for i, want := range []string{"1", "2", "3"} {
		item, err := arr.Items[i].Read(p)
		require.NoError(t, err)
		assert.Equal(t, want, item.(Scalar).Value)
	}
	capVal, err := VecCapacity(0, vec, p)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), capVal)
}

func TestReadOptionSomeAndNone(t *testing.T) {
	opt := types.OptionT{
		Discr:    types.Discriminant{Kind: types.DiscrImplicit},
		SomeType: types.Int{Bits: 32},
		ByteSize: 8,
	}
	p := newFakeProcess(16)
	p.putU64(0, 7)
	v, err := ReadFromMemory(0, opt, p)
	require.NoError(t, err)
	assert.Equal(t, Scalar{Ty: "Option<i32>", Value: "7"}, v)

	p2 := newFakeProcess(16)
	v2, err := ReadFromMemory(0, opt, p2)
	require.NoError(t, err)
	assert.Equal(t, Scalar{Ty: "Option<i32>", Value: "None"}, v2)
}

func TestReadResultHighBitDiscriminant(t *testing.T) {
	res := types.ResultT{
		Discr:    types.Discriminant{Kind: types.DiscrImplicit, Bits: 32, Offset: 0},
		OkType:   types.Int{Bits: 32},
		ErrType:  types.Int{Bits: 32},
		OkOff:    0,
		ErrOff:   0,
		ByteSize: 4,
	}
	p := newFakeProcess(16)
	p.putU32(0, 0x80000005)
	v, err := ReadFromMemory(0, res, p)
	require.NoError(t, err)
	assert.Equal(t, "Result<i32, i32>::Err", v.TypeName())
}

func TestEnumVariantRendering(t *testing.T) {
	enumT := types.EnumT{
		Name:  "E",
		Discr: types.Discriminant{Kind: types.DiscrUInt, Bits: 32, Offset: 0},
		Variants: []types.EnumVariant{
			variant("A", int64p(0), types.StructT{}),
			variant("B", int64p(1), types.StructT{Fields: []types.StructField{
				{Name: "0", Offset: 4, Layout: types.UInt{Bits: 32}},
			}, ByteSize: 8}),
		},
		ByteSize: 8,
	}
	p := newFakeProcess(16)
	p.putU32(0, 1)
	p.putU32(4, 10)
	v, err := ReadFromMemory(0, enumT, p)
	require.NoError(t, err)
	tup := v.(TupleValue)
	assert.Equal(t, "E::B", tup.Ty)
	require.Len(t, tup.Entries, 1)
	val, err := tup.Entries[0].Read(p)
	require.NoError(t, err)
	assert.Equal(t, "10", val.(Scalar).Value)
}

func int64p(v int64) *int64 { return &v }

func variant(name string, discr *int64, layout types.Layout) types.EnumVariant {
	return types.EnumVariant{Name: name, DiscrValue: discr, Layout: layout}
}

func TestHashbrownEnumeration(t *testing.T) {
	p := newFakeProcess(256)
	// ctrl array at 0x40, capacity 4, items=2 at slots 0 and 2 occupied.
	ctrl := uint64(0x40)
	p.putBytes(ctrl, []byte{0x00, 0x80, 0x01, 0x80}) // slot0 occupied, slot1 empty(0x80), slot2 occupied, slot3 empty
	pairSize := uint64(16) // 8-byte key + 8-byte value
	// data slots grow downward from ctrl: slot i at ctrl - (i+1)*pairSize
	putPair := func(i int, key, val uint64) {
		addr := ctrl - uint64(i+1)*pairSize
		p.putU64(addr, key)
		p.putU64(addr+8, val)
	}
	putPair(0, 100, 1000)
	putPair(2, 300, 3000)

	mapAddr := uint64(0x100)
	p.putU64(mapAddr+0, 3)   // bucket_mask -> capacity 4
	p.putU64(mapAddr+8, ctrl)
	p.putU64(mapAddr+16, 2) // items

	mt := types.MapT{
		Key: types.UInt{Bits: 64}, Value: types.UInt{Bits: 64}, Variant: types.MapHashMap,
		Hashbrown: &types.HashbrownLayout{
			BucketMaskOff: 0, CtrlOff: 8, ItemsOff: 16,
			PairSize: pairSize, KeyOff: 0, ValueOff: 8,
		},
	}
	v, err := ReadFromMemory(mapAddr, mt, p)
	require.NoError(t, err)
	mv := v.(MapValue)
	require.Len(t, mv.Entries, 2)
	k0, _ := mv.Entries[0].Key.Read(p)
	val0, _ := mv.Entries[0].Value.Read(p)
	assert.Equal(t, "100", k0.(Scalar).Value)
	assert.Equal(t, "1000", val0.(Scalar).Value)
}

func TestBTreeMapEnumerationSingleLeaf(t *testing.T) {
	p := newFakeProcess(256)
	nodeAddr := uint64(0x80)
	p.putBytes(nodeAddr+32, []byte{2, 0}) // len=2 (u16) at NodeLenOff=32, after the vals array
	// keys at offset 0, vals at offset 16 (room for 2 u64 keys)
	p.putU64(nodeAddr+0, 1)
	p.putU64(nodeAddr+8, 2)
	p.putU64(nodeAddr+16, 10)
	p.putU64(nodeAddr+24, 20)

	// Root<K,V> is stored inline within the map's own `root: Option<Root>`
	// field, not behind a separate pointer: node ptr then height.
	mapAddr := uint64(0x10)
	rootOff := uint64(8)
	p.putU64(mapAddr+0, 2)                // length
	p.putU64(mapAddr+rootOff+0, nodeAddr) // root.node.pointer
	p.putU64(mapAddr+rootOff+8, 0)        // root.height

	mt := types.MapT{
		Key: types.UInt{Bits: 64}, Value: types.UInt{Bits: 64}, Variant: types.MapBTreeMap,
		BTree: &types.BTreeLayout{
			LengthOff: 0, RootOff: rootOff,
			RootNodeOff: 0, RootHeightOff: 8,
			NodeKeysOff: 0, NodeValsOff: 16, NodeLenOff: 32, NodeEdgesOff: 40,
		},
	}
	v, err := ReadFromMemory(mapAddr, mt, p)
	require.NoError(t, err)
	mv := v.(MapValue)
	require.Len(t, mv.Entries, 2)
	k0, _ := mv.Entries[0].Key.Read(p)
	k1, _ := mv.Entries[1].Key.Read(p)
	assert.Equal(t, "1", k0.(Scalar).Value)
	assert.Equal(t, "2", k1.(Scalar).Value)
}

func TestReadIndirectNullPointer(t *testing.T) {
	p := newFakeProcess(16)
	ref := types.Reference{Mutable: false, Pointee: types.Int{Bits: 32}}
	v, err := ReadFromMemory(0, ref, p)
	require.NoError(t, err)
	assert.Equal(t, "<null>", v.(Scalar).Value)
}

func TestReadIndirectDepthBounded(t *testing.T) {
	p := newFakeProcess(32)
	p.putU64(0x10, 0x10) // pointer chain that loops back onto itself

	var layout types.Layout = types.UInt{Bits: 64}
	for i := 0; i < 2*MaxDerefDepth; i++ {
		layout = types.Reference{Pointee: layout}
	}
	v, err := ReadFromMemory(0x10, layout, p)
	require.NoError(t, err)
	assert.Equal(t, "0x10", v.(Scalar).Value)
}

func TestReadArrayFixedSize(t *testing.T) {
	p := newFakeProcess(32)
	p.putU32(0, 10)
	p.putU32(4, 20)
	arrT := types.Array{Elem: types.UInt{Bits: 32}, Len: 2}
	v, err := ReadFromMemory(0, arrT, p)
	require.NoError(t, err)
	arr := v.(ArrayValue)
	require.Len(t, arr.Items, 2)
	first, _ := arr.Items[0].Read(p)
	assert.Equal(t, "10", first.(Scalar).Value)
}
