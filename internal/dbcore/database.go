package dbcore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Database is the sole ambient context threaded through the engine. It owns
// every interner, the revision clock for input handles, the tracked-query
// cache, and the logger diagnostics are additionally mirrored to.
//
// A Database may be shared read-only across goroutines once construction is
// complete: caches use interior synchronization, matching the concurrency
// model the public API promises.
type Database struct {
	Files           *Interner[FileKey]
	Binaries        *Interner[BinaryKey]
	DebugFiles      *Interner[DebugFileKey]
	SourceFiles     *Interner[string]
	Dies            *Interner[DieKey]
	SymbolNames     *Interner[SymbolNameKey]
	SourceLocations *Interner[SourceLocationKey]

	mu       sync.Mutex
	fileRevs map[FileHandle]*atomic.Uint64
	revClock atomic.Uint64

	cacheMu sync.RWMutex
	cache   map[string]*cacheEntry

	Logger *slog.Logger
}

// New creates an empty database. logger may be nil, in which case
// slog.Default() is used.
func New(logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}
	return &Database{
		Files:           NewInterner[FileKey](),
		Binaries:        NewInterner[BinaryKey](),
		DebugFiles:      NewInterner[DebugFileKey](),
		SourceFiles:     NewInterner[string](),
		Dies:            NewInterner[DieKey](),
		SymbolNames:     NewInterner[SymbolNameKey](),
		SourceLocations: NewInterner[SourceLocationKey](),
		fileRevs:        make(map[FileHandle]*atomic.Uint64),
		cache:           make(map[string]*cacheEntry),
		Logger:          logger,
	}
}

// InternFile interns a File input and returns its handle, assigning it an
// initial revision if this is the first time the key is seen. The key
// includes mtime and size, so the same path with a different mtime or size
// interns to a new handle.
func (db *Database) InternFile(key FileKey) FileHandle {
	h := FileHandle(db.Files.Intern(key))
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.fileRevs[h]; !ok {
		db.fileRevs[h] = atomic.NewUint64(db.revClock.Inc())
	}
	return h
}

// UpdateFile rewrites a File input's mtime/size. If either differs from the
// previously interned value, the file's revision is bumped, invalidating any
// tracked query whose recorded dependency set includes it.
func (db *Database) UpdateFile(h FileHandle, mtime time.Time, size int64) {
	key, ok := db.Files.Lookup(int32(h))
	if !ok {
		return
	}
	if key.Mtime.Equal(mtime) && key.Size == size {
		return
	}
	key.Mtime = mtime
	key.Size = size
	db.Files.UpdateValue(int32(h), key)

	db.mu.Lock()
	defer db.mu.Unlock()
	rev, ok := db.fileRevs[h]
	if !ok {
		rev = atomic.NewUint64(0)
		db.fileRevs[h] = rev
	}
	rev.Store(db.revClock.Inc())
}

func (db *Database) fileRevision(h FileHandle) uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	if rev, ok := db.fileRevs[h]; ok {
		return rev.Load()
	}
	return 0
}

type cacheEntry struct {
	value   any
	depRevs map[FileHandle]uint64
	diags   []Diagnostic
}

func (e *cacheEntry) stale(db *Database) bool {
	for h, rev := range e.depRevs {
		if db.fileRevision(h) != rev {
			return true
		}
	}
	return false
}

// Query executes a memoized, diagnostics-accumulating function keyed by a
// caller-chosen cache key and an explicit set of File dependencies (the
// files whose mtime/size, if they change, should invalidate this query's
// cached result). compute is only invoked when the cache is empty or stale;
// its diagnostics are captured via the Accumulator it receives.
func Query[V any](db *Database, key string, deps []FileHandle, compute func(*Accumulator) V) (V, []Diagnostic) {
	db.cacheMu.RLock()
	entry, ok := db.cache[key]
	db.cacheMu.RUnlock()
	if ok && !entry.stale(db) {
		return entry.value.(V), entry.diags
	}

	acc := &Accumulator{}
	value := compute(acc)

	depRevs := make(map[FileHandle]uint64, len(deps))
	for _, h := range deps {
		depRevs[h] = db.fileRevision(h)
	}
	newEntry := &cacheEntry{value: value, depRevs: depRevs, diags: acc.Diagnostics()}

	db.cacheMu.Lock()
	db.cache[key] = newEntry
	db.cacheMu.Unlock()

	for _, d := range newEntry.diags {
		lvl := slog.LevelWarn
		if d.Level == LevelError {
			lvl = slog.LevelError
		}
		db.Logger.Log(context.Background(), lvl, d.Message, "location", d.Location, "query", key)
	}

	return value, newEntry.diags
}

// Diagnostics returns the diagnostics recorded the last time the query named
// key was computed (or nil if it has never run).
func (db *Database) Diagnostics(key string) []Diagnostic {
	db.cacheMu.RLock()
	defer db.cacheMu.RUnlock()
	if e, ok := db.cache[key]; ok {
		return e.diags
	}
	return nil
}

// AllDiagnostics returns the diagnostics recorded across every query cached
// so far, in unspecified order. Used by the public API to offer a single
// side-channel accumulator view without callers needing to know individual
// query keys.
func (db *Database) AllDiagnostics() []Diagnostic {
	db.cacheMu.RLock()
	defer db.cacheMu.RUnlock()
	var out []Diagnostic
	for _, e := range db.cache {
		out = append(out, e.diags...)
	}
	return out
}
