package rudyinfo

import (
	"fmt"

	"github.com/samscott89/rudy-sub002/internal/loader"
	"github.com/samscott89/rudy-sub002/internal/memview"
)

// StaticResolver implements memview.DataResolver directly off a loaded
// object's mapped sections: no live process, no registers, the "dumped
// target" case — a valid DataResolver backend alongside a live ptrace/LLDB
// host.
type StaticResolver struct {
	files []*loader.LoadedFile
}

// NewStaticResolver builds a resolver that reads from the given files in
// order, returning the first one that has the requested address mapped.
func NewStaticResolver(files ...*loader.LoadedFile) *StaticResolver {
	return &StaticResolver{files: files}
}

// ReadMemory implements memview.DataResolver.
func (r *StaticResolver) ReadMemory(addr uint64, size int) ([]byte, error) {
	var lastErr error
	for _, f := range r.files {
		data, err := f.ReadVirtualMemory(addr, size)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("rudyinfo: no loaded files to read from")
	}
	return nil, lastErr
}

// ReadAddress implements memview.DataResolver: reads a pointer-sized value
// at addr, little-endian, matching x86-64/aarch64 target byte order.
func (r *StaticResolver) ReadAddress(addr uint64) (uint64, error) {
	data, err := r.ReadMemory(addr, 8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v, nil
}

// GetRegister implements memview.DataResolver. A statically loaded binary
// has no live register state, so every register read is unsupported; this
// only matters for DW_OP_regN/DW_OP_bregN locations, which describe live
// variables and never apply to a static analysis session.
func (r *StaticResolver) GetRegister(regNum int) (uint64, error) {
	return 0, fmt.Errorf("rudyinfo: register %d unavailable on a static target: %w", regNum, memview.ErrUnsupportedCapability)
}

// GetStackPointer implements memview.DataResolver, for the same reason as
// GetRegister.
func (r *StaticResolver) GetStackPointer() (uint64, error) {
	return 0, fmt.Errorf("rudyinfo: stack pointer unavailable on a static target: %w", memview.ErrUnsupportedCapability)
}
