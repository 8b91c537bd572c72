package dbcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternFileStableHandle(t *testing.T) {
	db := New(nil)
	h1 := db.InternFile(FileKey{Path: "/bin/a", Mtime: time.Unix(1, 0), Size: 10})
	h2 := db.InternFile(FileKey{Path: "/bin/a", Mtime: time.Unix(1, 0), Size: 10})
	assert.Equal(t, h1, h2)
}

func TestQueryRecomputesOnlyForDependentFile(t *testing.T) {
	db := New(nil)
	a := db.InternFile(FileKey{Path: "/bin/a", Mtime: time.Unix(1, 0), Size: 10})
	b := db.InternFile(FileKey{Path: "/bin/b", Mtime: time.Unix(1, 0), Size: 20})

	runsA, runsB := 0, 0
	computeA := func(acc *Accumulator) int { runsA++; return 1 }
	computeB := func(acc *Accumulator) int { runsB++; return 2 }

	_, _ = Query(db, "q:a", []FileHandle{a}, computeA)
	_, _ = Query(db, "q:b", []FileHandle{b}, computeB)
	require.Equal(t, 1, runsA)
	require.Equal(t, 1, runsB)

	// Re-reading without invalidation must not recompute.
	_, _ = Query(db, "q:a", []FileHandle{a}, computeA)
	_, _ = Query(db, "q:b", []FileHandle{b}, computeB)
	assert.Equal(t, 1, runsA)
	assert.Equal(t, 1, runsB)

	// Mutating a's mtime invalidates only queries depending on a.
	db.UpdateFile(a, time.Unix(2, 0), 10)
	_, _ = Query(db, "q:a", []FileHandle{a}, computeA)
	_, _ = Query(db, "q:b", []FileHandle{b}, computeB)
	assert.Equal(t, 2, runsA)
	assert.Equal(t, 1, runsB)
}

func TestQueryAccumulatesDiagnostics(t *testing.T) {
	db := New(nil)
	f := db.InternFile(FileKey{Path: "/bin/c"})
	_, diags := Query(db, "q:c", []FileHandle{f}, func(acc *Accumulator) int {
		acc.Warn("c.debug:0x10", "skipped malformed DIE")
		return 0
	})
	require.Len(t, diags, 1)
	assert.Equal(t, LevelWarn, diags[0].Level)
}

func TestAllDiagnosticsAggregatesAcrossQueries(t *testing.T) {
	db := New(nil)
	fa := db.InternFile(FileKey{Path: "/bin/a"})
	fb := db.InternFile(FileKey{Path: "/bin/b"})
	_, _ = Query(db, "q:a", []FileHandle{fa}, func(acc *Accumulator) int {
		acc.Warn("a:0x1", "one")
		return 0
	})
	_, _ = Query(db, "q:b", []FileHandle{fb}, func(acc *Accumulator) int {
		acc.Error("b:0x2", "two")
		return 0
	})
	all := db.AllDiagnostics()
	assert.Len(t, all, 2)
}
