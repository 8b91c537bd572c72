package evalexpr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samscott89/rudy-sub002/internal/index"
	"github.com/samscott89/rudy-sub002/internal/memview"
	"github.com/samscott89/rudy-sub002/internal/types"
)

// fakeMem is a flat little-endian memory image standing in for a debuggee.
type fakeMem struct {
	mem []byte
}

func newFakeMem(size int) *fakeMem { return &fakeMem{mem: make([]byte, size)} }

func (f *fakeMem) grow(addr uint64, size int) {
	if need := int(addr) + size; need > len(f.mem) {
		buf := make([]byte, need)
		copy(buf, f.mem)
		f.mem = buf
	}
}

func (f *fakeMem) putU64(addr, v uint64) {
	f.grow(addr, 8)
	binary.LittleEndian.PutUint64(f.mem[addr:], v)
}

func (f *fakeMem) ReadMemory(addr uint64, size int) ([]byte, error) {
	f.grow(addr, size)
	out := make([]byte, size)
	copy(out, f.mem[addr:int(addr)+size])
	return out, nil
}

func (f *fakeMem) ReadAddress(addr uint64) (uint64, error) {
	f.grow(addr, 8)
	return binary.LittleEndian.Uint64(f.mem[addr : addr+8]), nil
}

func (f *fakeMem) GetRegister(num int) (uint64, error) { return 0, nil }
func (f *fakeMem) GetStackPointer() (uint64, error)    { return 0, nil }

// fakeEnv scopes a fixed variable set over a fakeMem, with method discovery
// limited to the synthetic set.
type fakeEnv struct {
	mem  *fakeMem
	vars map[string]memview.TypedPointer
}

func (e *fakeEnv) Resolver() *types.Resolver               { return nil }
func (e *fakeEnv) DataResolver() memview.DataResolver      { return e.mem }
func (e *fakeEnv) LookupVariable(name string) (memview.TypedPointer, bool) {
	tp, ok := e.vars[name]
	return tp, ok
}
func (e *fakeEnv) LookupPath(segments []string) (memview.TypedPointer, bool) {
	return memview.TypedPointer{}, false
}
func (e *fakeEnv) DiscoverMethods(layout types.Layout) []index.DiscoveredMethod {
	return index.SyntheticMethods(layout)
}

func evalText(t *testing.T, env Env, text string) memview.Value {
	t.Helper()
	expr, err := Parse(text)
	require.NoError(t, err)
	v, err := EvalValue(expr, env)
	require.NoError(t, err)
	return v
}

func TestEvalNumberAndStringLiterals(t *testing.T) {
	env := &fakeEnv{mem: newFakeMem(8)}
	assert.Equal(t, memview.Scalar{Ty: "i64", Value: "42"}, evalText(t, env, "42"))
	assert.Equal(t, memview.Scalar{Ty: "&str", Value: "hi"}, evalText(t, env, `"hi"`))
}

func TestEvalVariableAndFieldAccess(t *testing.T) {
	mem := newFakeMem(64)
	mem.putU64(8, 0xdeadbeef)
	session := types.StructT{
		Name: "Session",
		Fields: []types.StructField{
			{Name: "id", Offset: 8, Layout: types.UInt{Bits: 64}},
		},
		ByteSize: 16,
	}
	env := &fakeEnv{mem: mem, vars: map[string]memview.TypedPointer{
		"s": {Addr: 0, Layout: session},
	}}

	v := evalText(t, env, "s.id")
	assert.Equal(t, memview.Scalar{Ty: "u64", Value: "3735928559"}, v)
}

func TestEvalIndexBounds(t *testing.T) {
	env := &fakeEnv{mem: newFakeMem(64), vars: map[string]memview.TypedPointer{
		"a": {Addr: 0, Layout: types.Array{Elem: types.UInt{Bits: 8}, Len: 3}},
	}}

	expr, err := Parse("a[5]")
	require.NoError(t, err)
	_, err = EvalValue(expr, env)
	assert.ErrorIs(t, err, memview.ErrBounds)
}

func TestEvalSyntheticVecMethods(t *testing.T) {
	mem := newFakeMem(64)
	mem.putU64(0, 0x100) // data ptr
	mem.putU64(8, 3)     // len
	mem.putU64(16, 8)    // cap
	env := &fakeEnv{mem: mem, vars: map[string]memview.TypedPointer{
		"v": {Addr: 0, Layout: types.Vec{Elem: types.UInt{Bits: 8}, DataPtrOff: 0, LenOff: 8, CapOff: 16}},
	}}

	assert.Equal(t, memview.Scalar{Ty: "usize", Value: "3"}, evalText(t, env, "v.len()"))
	assert.Equal(t, memview.Scalar{Ty: "bool", Value: "false"}, evalText(t, env, "v.is_empty()"))
	assert.Equal(t, memview.Scalar{Ty: "usize", Value: "8"}, evalText(t, env, "v.capacity()"))
}

func TestEvalSyntheticOptionMethods(t *testing.T) {
	mem := newFakeMem(16)
	mem.putU64(0, 7)
	opt := types.OptionT{
		Discr:    types.Discriminant{Kind: types.DiscrImplicit},
		SomeType: types.UInt{Bits: 64},
		ByteSize: 8,
	}
	env := &fakeEnv{mem: mem, vars: map[string]memview.TypedPointer{
		"o": {Addr: 0, Layout: opt},
	}}

	assert.Equal(t, memview.Scalar{Ty: "bool", Value: "true"}, evalText(t, env, "o.is_some()"))
	assert.Equal(t, memview.Scalar{Ty: "bool", Value: "false"}, evalText(t, env, "o.is_none()"))
}

func TestEvalDerefReference(t *testing.T) {
	mem := newFakeMem(64)
	mem.putU64(0, 0x20)
	mem.putU64(0x20, 99)
	env := &fakeEnv{mem: mem, vars: map[string]memview.TypedPointer{
		"r": {Addr: 0, Layout: types.Reference{Pointee: types.UInt{Bits: 64}}},
	}}

	assert.Equal(t, memview.Scalar{Ty: "u64", Value: "99"}, evalText(t, env, "*r"))
}

func TestEvalAddressOf(t *testing.T) {
	env := &fakeEnv{mem: newFakeMem(16), vars: map[string]memview.TypedPointer{
		"x": {Addr: 0x30, Layout: types.UInt{Bits: 32}},
	}}

	assert.Equal(t, memview.Scalar{Ty: "&u32", Value: "0x30"}, evalText(t, env, "&x"))
}

func TestEvalMapIndexByKey(t *testing.T) {
	mem := newFakeMem(256)
	ctrl := uint64(0x80)
	mem.mem[ctrl] = 0x00 // slot 0 occupied
	mem.mem[ctrl+1] = 0x80
	pairSize := uint64(16)
	slot := ctrl - pairSize
	mem.putU64(slot, 100)   // key
	mem.putU64(slot+8, 555) // value

	mapAddr := uint64(0x100)
	mem.putU64(mapAddr, 1)       // bucket_mask -> capacity 2
	mem.putU64(mapAddr+8, ctrl)  // ctrl
	mem.putU64(mapAddr+16, 1)    // items

	mt := types.MapT{
		Key: types.UInt{Bits: 64}, Value: types.UInt{Bits: 64}, Variant: types.MapHashMap,
		Hashbrown: &types.HashbrownLayout{
			BucketMaskOff: 0, CtrlOff: 8, ItemsOff: 16,
			PairSize: pairSize, KeyOff: 0, ValueOff: 8,
		},
	}
	env := &fakeEnv{mem: mem, vars: map[string]memview.TypedPointer{
		"m": {Addr: mapAddr, Layout: mt},
	}}

	assert.Equal(t, memview.Scalar{Ty: "u64", Value: "555"}, evalText(t, env, "m[100]"))
}

func TestEvalUndefinedVariable(t *testing.T) {
	env := &fakeEnv{mem: newFakeMem(8)}
	expr, err := Parse("nope")
	require.NoError(t, err)
	_, err = EvalValue(expr, env)
	assert.ErrorContains(t, err, "undefined variable")
}
