package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

func TestFileMatches(t *testing.T) {
	assert.True(t, fileMatches("/src/main.rs", "/src/main.rs"))
	assert.True(t, fileMatches("/home/user/crate/src/main.rs", "src/main.rs"))
	assert.False(t, fileMatches("/home/user/crate/src/other.rs", "src/main.rs"))
}

func TestCandidateDebugFiles(t *testing.T) {
	dfiA := &DebugFileIndex{Name: "a.debug"}
	dfiB := &DebugFileIndex{Name: "b.debug"}
	idx := &Index{
		DebugFiles: []*DebugFileIndex{dfiA, dfiB},
		SourceFiles: map[string]map[string]bool{
			"/src/main.rs": {"a.debug": true},
		},
	}

	got := idx.candidateDebugFiles("/src/main.rs")
	assert.Equal(t, []*DebugFileIndex{dfiA}, got)

	got = idx.candidateDebugFiles("main.rs")
	assert.Equal(t, []*DebugFileIndex{dfiA}, got)

	assert.Nil(t, idx.candidateDebugFiles("nonexistent.rs"))
}

func TestFindFunctionByNameOrdersShortestModulePathFirst(t *testing.T) {
	shorter := rustsym.ParseSymbolName("mycrate::foo::bar")
	longer := rustsym.ParseSymbolName("mycrate::extra::foo::bar")

	dfi := &DebugFileIndex{
		Name: "bin",
		BySymbolName: map[string]*FunctionEntry{
			shorter.String(): {Name: shorter},
			longer.String():  {Name: longer},
		},
	}
	idx := &Index{DebugFiles: []*DebugFileIndex{dfi}}

	pattern := rustsym.ParseSymbolName("foo::bar")
	matches := idx.FindFunctionByName(pattern)
	assert.Len(t, matches, 2)
	assert.Equal(t, shorter.String(), matches[0].Name.String())
}

func TestDebugFileLookup(t *testing.T) {
	dfiA := &DebugFileIndex{Name: "a.debug"}
	idx := &Index{DebugFiles: []*DebugFileIndex{dfiA}}

	assert.Same(t, dfiA, idx.debugFile("a.debug"))
	assert.Nil(t, idx.debugFile("missing"))
}
