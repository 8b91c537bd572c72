package rudy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samscott89/rudy-sub002/internal/dbcore"
	"github.com/samscott89/rudy-sub002/internal/index"
	"github.com/samscott89/rudy-sub002/internal/memview"
	"github.com/samscott89/rudy-sub002/internal/rustsym"
	"github.com/samscott89/rudy-sub002/internal/types"
)

func TestFindFunctionByNameReturnsSuffixMatchWithAddress(t *testing.T) {
	matched := rustsym.ParseSymbolName("mycrate::main")
	dfi := &index.DebugFileIndex{
		Name: "bin",
		BySymbolName: map[string]*index.FunctionEntry{
			matched.String(): {Name: matched, AddrRange: &index.AddrRange{Start: 0x10, End: 0x20}, AbsStart: 0x4010},
		},
	}
	di := &DebugInfo{index: &index.Index{DebugFiles: []*index.DebugFileIndex{dfi}}}

	rf, ok := di.FindFunctionByName("main")
	assert.True(t, ok)
	assert.Equal(t, matched.String(), rf.Name.String())
	assert.True(t, rf.HasAddr)
	assert.Equal(t, uint64(0x4010), rf.Address)
}

func TestFindFunctionByNameNoMatch(t *testing.T) {
	di := &DebugInfo{index: &index.Index{}}
	_, ok := di.FindFunctionByName("nonexistent::fn")
	assert.False(t, ok)
}

func TestDiscoverAllFunctions(t *testing.T) {
	name := rustsym.ParseSymbolName("crate::foo")
	dfi := &index.DebugFileIndex{
		Name: "bin",
		BySymbolName: map[string]*index.FunctionEntry{
			name.String(): {Name: name},
		},
	}
	di := &DebugInfo{index: &index.Index{DebugFiles: []*index.DebugFileIndex{dfi}}}
	funcs := di.DiscoverAllFunctions()
	assert.Len(t, funcs, 1)
	assert.Equal(t, name.String(), funcs[0].Name.String())
}

func TestDiscoverMethodsForTypeFallsBackToSynthetic(t *testing.T) {
	di := &DebugInfo{index: &index.Index{}}
	methods := di.DiscoverMethodsForType(types.Vec{Elem: types.UInt{Bits: 32}})
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	assert.ElementsMatch(t, []string{"len", "is_empty", "capacity"}, names)
}

func TestDiscoverMethodsForPointerUsesPointeeLayout(t *testing.T) {
	di := &DebugInfo{index: &index.Index{}}
	ptr := memview.TypedPointer{Addr: 0x1000, Layout: types.OptionT{SomeType: types.UInt{Bits: 64}}}
	methods := di.DiscoverMethodsForPointer(ptr)
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	assert.ElementsMatch(t, []string{"is_some", "is_none"}, names)
}

func TestAddressToLocationNoMatch(t *testing.T) {
	di := &DebugInfo{index: &index.Index{Addresses: &index.AddressTree{}}}
	_, ok := di.AddressToLocation(0xdead)
	assert.False(t, ok)
}

func TestFindAddressFromSourceLocationNoCandidates(t *testing.T) {
	di := &DebugInfo{index: &index.Index{SourceFiles: map[string]map[string]bool{}}}
	_, ok := di.FindAddressFromSourceLocation("main.rs", 2, 0)
	assert.False(t, ok)
}

func TestDiagnosticsAggregatesFromDatabase(t *testing.T) {
	db := dbcore.New(nil)
	f := db.InternFile(dbcore.FileKey{Path: "/bin/x"})
	_, _ = dbcore.Query(db, "q:x", []dbcore.FileHandle{f}, func(acc *dbcore.Accumulator) int {
		acc.Warn("x:0x1", "skipped a subprogram")
		return 0
	})
	di := &DebugInfo{db: db, index: &index.Index{}}
	assert.Len(t, di.Diagnostics(), 1)
}

func TestSourceFileName(t *testing.T) {
	assert.Equal(t, "main.rs", SourceFileName("/home/user/crate/src/main.rs"))
}
