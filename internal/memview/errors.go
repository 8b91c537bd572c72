// Package memview implements the typed memory reader (layer L7): given an
// address, a resolved types.Layout, and a DataResolver, it reads the bytes a
// debuggee process holds there and produces a Value tree, dispatching on
// the layout's concrete kind and enumerating containers over the Go Layout
// sum type from internal/types.
package memview

import "fmt"

// Error is the memview package's error type: an ordinary error value,
// distinguished from other errors only by one of the sentinels below
// wrapped underneath it (test with errors.Is).
type Error error

var (
	// ErrMemoryAccess is a DataResolver failure or refusal.
	ErrMemoryAccess Error = fmt.Errorf("memory access error")
	// ErrBounds is an out-of-range array/slice/vec/map index.
	ErrBounds Error = fmt.Errorf("bounds error")
	// ErrTypeMismatch is a request for an operation the layout doesn't support.
	ErrTypeMismatch Error = fmt.Errorf("type mismatch")
	// ErrLayoutResolution is an unrecognized or unsupported layout shape.
	ErrLayoutResolution Error = fmt.Errorf("layout resolution error")
	// ErrUnsupportedCapability is raised when an optional DataResolver
	// operation (allocate_memory, write_memory) is invoked but unavailable.
	ErrUnsupportedCapability Error = fmt.Errorf("unsupported capability")
)

func wrapf(err Error, message string, args ...any) Error {
	return fmt.Errorf("%w: "+message, append([]any{err}, args...)...)
}
