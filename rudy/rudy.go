// Package rudy implements the public API: a thin query
// surface over the lower layers (L1-L8) that a debugger front-end drives.
// Every method is a pure query against the DebugInfo's Database revision
// and the caller-supplied memview.DataResolver; nothing here holds mutable
// state beyond what the database already memoizes.
package rudy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samscott89/rudy-sub002/internal/dbcore"
	"github.com/samscott89/rudy-sub002/internal/die"
	"github.com/samscott89/rudy-sub002/internal/index"
	"github.com/samscott89/rudy-sub002/internal/loader"
	"github.com/samscott89/rudy-sub002/internal/locexpr"
	"github.com/samscott89/rudy-sub002/internal/memview"
	"github.com/samscott89/rudy-sub002/internal/rustsym"
	"github.com/samscott89/rudy-sub002/internal/types"
)

// DebugInfo is constructed from a (database, binary path) pair. It owns the
// loaded files, the built index, and a type resolver, and answers every
// public query against them.
type DebugInfo struct {
	db       *dbcore.Database
	binary   string
	loader   *loader.Loader
	files    []*loader.LoadedFile
	index    *index.Index
	resolver *types.Resolver
	fileDeps []dbcore.FileHandle
}

// Open loads binaryPath and any split-debug companions it can find, builds
// the indices, and returns a DebugInfo ready for querying. db may be shared
// across multiple DebugInfo instances running concurrently on distinct
// databases.
func Open(db *dbcore.Database, binaryPath string) (*DebugInfo, error) {
	l := loader.New()
	main, err := l.Load(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("rudy: open %s: %w", binaryPath, err)
	}

	files := []*loader.LoadedFile{main}
	for _, cand := range loader.FindSplitDebug(main) {
		split, err := l.Load(cand.Path)
		if err != nil {
			db.Logger.Warn("rudy: split debug file failed to load", "path", cand.Path, "error", err)
			continue
		}
		files = append(files, split)
	}

	idx, err := index.BuildIndex(files)
	if err != nil {
		return nil, fmt.Errorf("rudy: index %s: %w", binaryPath, err)
	}

	var fileDeps []dbcore.FileHandle
	for _, f := range files {
		key := dbcore.FileKey{Path: f.Path, ArchiveMember: f.ArchiveMember}
		if info, err := os.Stat(f.Path); err == nil {
			key.Mtime = info.ModTime()
			key.Size = info.Size()
		}
		fileDeps = append(fileDeps, db.InternFile(key))
	}

	resolver := types.NewResolver(db, binaryPath, fileDeps...)
	resolver.ModulePathOf = func(d *die.Die) []string {
		for _, dfi := range idx.DebugFiles {
			if dfi.Name == d.FileName {
				return dfi.Modules.FindByOffset(d.Offset())
			}
		}
		return nil
	}

	return &DebugInfo{
		db:       db,
		binary:   binaryPath,
		loader:   l,
		files:    files,
		index:    idx,
		resolver: resolver,
		fileDeps: fileDeps,
	}, nil
}

// ResolvedLocation is the result of address_to_location.
type ResolvedLocation struct {
	Function rustsym.SymbolName
	File     string
	Line     int
	Column   int
}

// AddressToLocation implements address_to_location.
func (di *DebugInfo) AddressToLocation(addr uint64) (*ResolvedLocation, bool) {
	loc, _, ok := di.index.AddressToLocation(addr)
	if !ok || loc == nil {
		return nil, false
	}
	return &ResolvedLocation{Function: loc.Function, File: loc.File, Line: loc.Line, Column: loc.Column}, true
}

// ResolvedFunction is the result of find_function_by_name.
type ResolvedFunction struct {
	Name      rustsym.SymbolName
	Address   uint64
	HasAddr   bool
	DebugFile string
}

// FindFunctionByName implements find_function_by_name: a
// SymbolName pattern match, returning the best match (exact
// first, then shortest module-path overage) or false if none matched.
func (di *DebugInfo) FindFunctionByName(pattern string) (*ResolvedFunction, bool) {
	matches := di.index.FindFunctionByName(rustsym.ParseSymbolName(pattern))
	if len(matches) == 0 {
		return nil, false
	}
	fe := matches[0]
	rf := &ResolvedFunction{Name: fe.Name}
	if fe.AddrRange != nil {
		rf.Address = fe.AbsStart
		rf.HasAddr = true
	}
	return rf, true
}

// DiscoverFunctions implements discover_functions: every
// function whose name matches pattern, in the same ordering as
// FindFunctionByName.
func (di *DebugInfo) DiscoverFunctions(pattern string) []*ResolvedFunction {
	matches := di.index.FindFunctionByName(rustsym.ParseSymbolName(pattern))
	out := make([]*ResolvedFunction, 0, len(matches))
	for _, fe := range matches {
		rf := &ResolvedFunction{Name: fe.Name}
		if fe.AddrRange != nil {
			rf.Address = fe.AbsStart
			rf.HasAddr = true
		}
		out = append(out, rf)
	}
	return out
}

// DiscoverAllFunctions implements discover_all_functions.
func (di *DebugInfo) DiscoverAllFunctions() []*ResolvedFunction {
	var out []*ResolvedFunction
	for _, fe := range di.index.DiscoverAllFunctions() {
		rf := &ResolvedFunction{Name: fe.Name}
		if fe.AddrRange != nil {
			rf.Address = fe.AbsStart
			rf.HasAddr = true
		}
		out = append(out, rf)
	}
	return out
}

// FindAddressFromSourceLocation implements find_address_from_source_location.
// column of 0 means "unspecified".
func (di *DebugInfo) FindAddressFromSourceLocation(file string, line, column int) (uint64, bool) {
	return di.index.FindAddressFromSourceLocation(file, line, column)
}

// LookupTypeByName implements lookup_type_by_name. An exact index hit wins;
// otherwise the type tables are scanned for a structural match, which makes
// the query stable across whitespace differences, std re-export paths, and
// elided allocator/hasher generics.
func (di *DebugInfo) LookupTypeByName(fqn string) (types.Layout, bool) {
	if _, entry, ok := di.index.LookupType(fqn); ok {
		return di.resolver.ResolveDeep(entry.Die), true
	}
	// The table key is the qualified path of the bare DIE name, which for a
	// generic container already embeds its arguments ("alloc::vec::Vec<u8,
	// alloc::alloc::Global>"), so the key alone is the comparable form.
	for _, dfi := range di.index.DebugFiles {
		for name, entry := range dfi.Types {
			if rustsym.TypeNameMatches(fqn, name) {
				return di.resolver.ResolveDeep(entry.Die), true
			}
		}
	}
	return nil, false
}

// VariableInfo is the result of get_variable_at_pc.
type VariableInfo struct {
	Name    string
	Address uint64
	HasAddr bool
	Type    types.Layout
}

// GetVariableAtPC implements get_variable_at_pc: locates the
// function containing addr, then looks name up among its parameters and
// in-scope locals (scoped to the current line).
func (di *DebugInfo) GetVariableAtPC(addr uint64, name string, resolver memview.DataResolver) (*VariableInfo, bool) {
	params, locals, _, frameBase, ok := di.variablesAt(addr)
	if !ok {
		return nil, false
	}
	for _, v := range append(params, locals...) {
		if v.Name != name {
			continue
		}
		return di.variableInfoFor(v, frameBase, resolver)
	}
	return nil, false
}

// GetAllVariablesAtPC implements get_all_variables_at_pc.
func (di *DebugInfo) GetAllVariablesAtPC(addr uint64, resolver memview.DataResolver) (params, locals, globals []*VariableInfo) {
	ps, ls, dfi, frameBase, ok := di.variablesAt(addr)
	if !ok {
		return nil, nil, nil
	}
	for _, v := range ps {
		if vi, ok := di.variableInfoFor(v, frameBase, resolver); ok {
			params = append(params, vi)
		}
	}
	for _, v := range ls {
		if vi, ok := di.variableInfoFor(v, frameBase, resolver); ok {
			locals = append(locals, vi)
		}
	}
	if dfi != nil {
		for _, v := range index.CollectGlobals(dfi) {
			// Globals have no enclosing frame; their DW_AT_location never
			// references DW_OP_fbreg.
			if vi, ok := di.variableInfoFor(v, nil, resolver); ok {
				globals = append(globals, vi)
			}
		}
	}
	return params, locals, globals
}

// variablesAt locates the function containing addr and returns its
// parameters, in-scope locals, owning debug file, and frame-base expression
// bytes (nil if the function carries no DW_AT_frame_base).
func (di *DebugInfo) variablesAt(addr uint64) (params, locals []*index.VarDie, dfi *index.DebugFileIndex, frameBase []byte, ok bool) {
	loc, fe, found := di.index.AddressToLocation(addr)
	if !found || fe == nil {
		return nil, nil, nil, nil, false
	}
	curLine := 0
	if loc != nil {
		curLine = loc.Line
	}
	ps, ls, err := index.CollectParamsAndLocals(fe, curLine)
	if err != nil {
		return nil, nil, nil, nil, false
	}
	fb, _ := fe.DeclDie.FrameBase()
	for _, d := range di.index.DebugFiles {
		for _, c := range d.CUs {
			if c == fe.CU {
				return ps, ls, d, fb, true
			}
		}
	}
	return ps, ls, nil, fb, true
}

func (di *DebugInfo) variableInfoFor(v *index.VarDie, frameBase []byte, resolver memview.DataResolver) (*VariableInfo, bool) {
	vi := &VariableInfo{Name: v.Name}
	typeDie, err := v.Die.Type()
	if err == nil && typeDie != nil {
		vi.Type = di.resolver.ResolveDeep(typeDie)
	}
	expr, ok := v.Die.LocationExpr()
	if !ok || resolver == nil {
		return vi, true
	}
	loc, err := locexpr.Evaluate(expr, frameBase, resolver)
	if err != nil {
		return vi, true
	}
	if mem, ok := loc.(locexpr.MemoryLocation); ok {
		vi.Address = mem.Addr
		vi.HasAddr = true
	}
	return vi, true
}

// ReadPointer implements read_pointer.
func (di *DebugInfo) ReadPointer(ptr memview.TypedPointer, resolver memview.DataResolver) (memview.Value, error) {
	return ptr.Read(resolver)
}

// GetStructField implements get_struct_field.
func (di *DebugInfo) GetStructField(base memview.TypedPointer, fieldName string) (memview.TypedPointer, error) {
	return memview.GetStructField(base, fieldName)
}

// IndexArrayOrSlice implements index_array_or_slice.
func (di *DebugInfo) IndexArrayOrSlice(base memview.TypedPointer, i uint64, resolver memview.DataResolver) (memview.TypedPointer, error) {
	return memview.IndexArrayOrSlice(base, i, resolver)
}

// IndexMap implements index_map.
func (di *DebugInfo) IndexMap(base memview.TypedPointer, key memview.Value, resolver memview.DataResolver) (memview.TypedPointer, error) {
	return memview.IndexMap(base, key, resolver)
}

// DiscoverMethodsForType implements discover_methods_for_type. The layout's
// display name is unqualified, so the type tables (keyed by qualified path)
// are matched structurally; a layout naming no indexed type still surfaces
// its synthetic methods.
func (di *DebugInfo) DiscoverMethodsForType(layout types.Layout) []index.DiscoveredMethod {
	name := layout.DisplayName()
	for _, dfi := range di.index.DebugFiles {
		if _, ok := dfi.Types[name]; ok {
			return dfi.DiscoverMethods(name, layout, di.resolver)
		}
	}
	for _, dfi := range di.index.DebugFiles {
		for key := range dfi.Types {
			if rustsym.TypeNameMatches(name, key) {
				return dfi.DiscoverMethods(key, layout, di.resolver)
			}
		}
	}
	return index.SyntheticMethods(layout)
}

// DiscoverMethodsForPointer implements discover_methods_for_pointer:
// resolves the pointee type and discovers against it.
func (di *DebugInfo) DiscoverMethodsForPointer(ptr memview.TypedPointer) []index.DiscoveredMethod {
	return di.DiscoverMethodsForType(ptr.Layout)
}

// DiscoverAllMethods implements discover_all_methods.
func (di *DebugInfo) DiscoverAllMethods() map[string][]index.DiscoveredMethod {
	return di.index.DiscoverAllMethods(di.resolver)
}

// Diagnostics returns every diagnostic recorded across this DebugInfo's
// queries so far (side-channel accumulator): type-resolution
// warnings, skipped functions, malformed CUs. Critical ones are level
// dbcore.LevelError.
func (di *DebugInfo) Diagnostics() []dbcore.Diagnostic {
	return di.db.AllDiagnostics()
}

// SourceFileName returns the basename of path, used when the front-end
// wants to render a short form of a source path.
func SourceFileName(path string) string { return filepath.Base(path) }

// Files returns the loaded object files backing this DebugInfo: the main
// binary plus any split-debug companions Open found. Exposed for
// DataResolver implementations (such as a static, dumped-target resolver)
// that need to read memory straight out of the mapped sections.
func (di *DebugInfo) Files() []*loader.LoadedFile { return di.files }
