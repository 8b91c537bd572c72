// Package dbcore implements the interning and memoized query engine (layer
// L1): content-addressed handles, revision-tracked inputs, and a per-query
// diagnostics accumulator. It has no knowledge of DWARF; everything here is
// generic plumbing consumed by the higher layers.
package dbcore

import "time"

// FileHandle identifies an interned File (path + optional archive member).
type FileHandle int32

// BinaryHandle identifies an interned Binary backed by a File.
type BinaryHandle int32

// DebugFileHandle identifies an interned DebugFile: a File plus whether its
// addresses are relocatable.
type DebugFileHandle int32

// SourceFileHandle identifies an interned source path.
type SourceFileHandle int32

// DieHandle identifies an interned (DebugFile, CU offset, DIE offset) triple.
type DieHandle int32

// SymbolNameHandle identifies an interned demangled symbol name.
type SymbolNameHandle int32

// SourceLocationHandle identifies an interned (SourceFile, line, column).
type SourceLocationHandle int32

// FileKey is the structural identity of a File handle.
type FileKey struct {
	Path         string
	ArchiveMember string
	Mtime        time.Time
	Size         int64
}

// BinaryKey is the structural identity of a Binary handle.
type BinaryKey struct {
	File FileHandle
}

// DebugFileKey is the structural identity of a DebugFile handle.
type DebugFileKey struct {
	File        FileHandle
	Relocatable bool
}

// DieKey is the structural identity of a Die handle.
type DieKey struct {
	DebugFile DebugFileHandle
	CUOffset  int64
	DieOffset int64
}

// SymbolNameKey is the structural identity of a SymbolName handle.
type SymbolNameKey struct {
	ModulePath string // "::"-joined, canonical form
	Item       string
	Hash       string // empty when absent
}

// SourceLocationKey is the structural identity of a SourceLocation handle.
type SourceLocationKey struct {
	SourceFile SourceFileHandle
	Line       int
	Column     int // 0 when absent
}
