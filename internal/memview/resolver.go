package memview

// DataResolver is the only external effect surface the memory-view layer
// uses: synchronous, possibly RPC-backed underneath, and
// invoked lazily — only when a value or dereference is actually requested.
// The four required operations must always be implemented; the optional
// ones are probed via the MemoryAllocator, MemoryWriter and Executor
// interfaces below so a read-only backend (e.g. a core-dump viewer) can
// implement DataResolver without them.
type DataResolver interface {
	// ReadMemory reads size bytes starting at addr.
	ReadMemory(addr uint64, size int) ([]byte, error)
	// ReadAddress reads a single pointer-width value at addr (the common
	// case of ReadMemory+decode, broken out since every pointer/reference
	// dereference needs exactly this).
	ReadAddress(addr uint64) (uint64, error)
	// GetRegister reads the named DWARF register number.
	GetRegister(num int) (uint64, error)
	// GetStackPointer reads the current stack pointer.
	GetStackPointer() (uint64, error)
}

// MemoryAllocator is an optional DataResolver capability: a backend that can
// allocate scratch space in the debuggee (needed to stage method-call
// arguments).
type MemoryAllocator interface {
	AllocateMemory(size uint64) (uint64, error)
}

// MemoryWriter is an optional DataResolver capability: writing back to
// debuggee memory (e.g. assigning through an evaluated lvalue).
type MemoryWriter interface {
	WriteMemory(addr uint64, data []byte) error
}

// MethodCallRequest packages a non-synthetic method call: the
// callee's entry address, the self pointer, the already-evaluated argument
// bundle (each laid out as raw bytes per its ABI slot), and, when the return
// type uses the indirect-return ABI, the byte size of a caller-allocated
// return slot.
type MethodCallRequest struct {
	CalleeAddr   uint64
	SelfAddr     uint64
	Args         [][]byte
	IndirectSize uint64 // 0 when the return is register-passed
}

// MethodCallResult is either a register-passed scalar return or the address
// of an indirect return slot the caller wrote into.
type MethodCallResult struct {
	ScalarValue  uint64
	IndirectAddr uint64
	Indirect     bool
}

// Executor is an optional DataResolver capability: invoking foreign code in
// the debuggee, the single capability method required for non-synthetic
// method calls.
type Executor interface {
	Execute(req MethodCallRequest) (MethodCallResult, error)
}

// Call invokes the optional execute capability.
func Call(r DataResolver, req MethodCallRequest) (MethodCallResult, error) {
	e, ok := r.(Executor)
	if !ok {
		return MethodCallResult{}, wrapf(ErrUnsupportedCapability, "execute")
	}
	res, err := e.Execute(req)
	if err != nil {
		return MethodCallResult{}, wrapf(ErrMemoryAccess, "execute(0x%x): %v", req.CalleeAddr, err)
	}
	return res, nil
}

// Allocate invokes the optional allocate_memory capability, surfacing
// ErrUnsupportedCapability rather than panicking when r doesn't implement
// MemoryAllocator.
func Allocate(r DataResolver, size uint64) (uint64, error) {
	a, ok := r.(MemoryAllocator)
	if !ok {
		return 0, wrapf(ErrUnsupportedCapability, "allocate_memory")
	}
	addr, err := a.AllocateMemory(size)
	if err != nil {
		return 0, wrapf(ErrMemoryAccess, "allocate_memory(%d): %v", size, err)
	}
	return addr, nil
}

// Write invokes the optional write_memory capability.
func Write(r DataResolver, addr uint64, data []byte) error {
	w, ok := r.(MemoryWriter)
	if !ok {
		return wrapf(ErrUnsupportedCapability, "write_memory")
	}
	if err := w.WriteMemory(addr, data); err != nil {
		return wrapf(ErrMemoryAccess, "write_memory(0x%x, %d bytes): %v", addr, len(data), err)
	}
	return nil
}
