package locexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegs struct {
	regs map[int]uint64
	sp   uint64
}

func (f fakeRegs) GetRegister(num int) (uint64, error) { return f.regs[num], nil }
func (f fakeRegs) GetStackPointer() (uint64, error)    { return f.sp, nil }

func TestEvaluate(t *testing.T) {
	r := fakeRegs{regs: map[int]uint64{0: 0x1000, 6: 0x2000}, sp: 0x7fff0000}

	tests := []struct {
		name string
		expr []byte
		want Location
	}{
		{
			name: "DW_OP_addr",
			expr: []byte{opAddr, 0x10, 0x20, 0, 0, 0, 0, 0, 0},
			want: MemoryLocation{Addr: 0x2010},
		},
		{
			name: "DW_OP_reg0",
			expr: []byte{opReg0},
			want: RegisterLocation{Reg: 0},
		},
		{
			name: "DW_OP_breg0 plus offset",
			expr: []byte{opBreg0, 0x08}, // sleb128(8)
			want: MemoryLocation{Addr: 0x1008},
		},
		{
			name: "DW_OP_call_frame_cfa",
			expr: []byte{opCallFrameCfa},
			want: MemoryLocation{Addr: 0x7fff0000},
		},
		{
			name: "DW_OP_constu stack_value",
			expr: []byte{opConstu, 0x2a, opStackValue},
			want: ConstantLocation{Value: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, nil, r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateFbregUsesFrameBase(t *testing.T) {
	r := fakeRegs{regs: map[int]uint64{6: 0x2000}}
	frameBase := []byte{opBreg0 + 6, 0x00} // DW_OP_breg6 0

	got, err := Evaluate([]byte{opFbreg, 0x10}, frameBase, r) // fbreg +16
	require.NoError(t, err)
	assert.Equal(t, MemoryLocation{Addr: 0x2010}, got)
}

func TestDecodeULEB128(t *testing.T) {
	v, n := decodeULEB128([]byte{0xE5, 0x8E, 0x26})
	assert.Equal(t, uint64(624485), v)
	assert.Equal(t, 3, n)
}

func TestDecodeSLEB128(t *testing.T) {
	v, n := decodeSLEB128([]byte{0x7F})
	assert.Equal(t, int64(-1), v)
	assert.Equal(t, 1, n)
}
