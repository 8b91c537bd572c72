// Package index implements the indexer (layer L5): per-binary raw-symbol,
// function, module, and source-file indices built by walking a binary and
// every associated debug file, each queryable on its own.
package index

import (
	"debug/dwarf"
	"fmt"
	"io"

	"github.com/samscott89/rudy-sub002/internal/die"
	"github.com/samscott89/rudy-sub002/internal/loader"
	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

// SymbolRecord is one demangled-name -> address mapping. Duplicates across
// debug files are retained.
type SymbolRecord struct {
	Name      rustsym.SymbolName
	Address   uint64
	DebugFile string
}

// AddrRange is a function's address interval, relative to its own debug
// file (pre-link, pre-ASLR).
type AddrRange struct{ Start, End uint64 }

// FunctionEntry is one indexed subprogram ("Function index
// entry"). SpecificationDie covers the DW_AT_specification pattern where a
// method declared inside a type is implemented elsewhere; AlternateLocations
// captures duplicate emissions of the same symbol across CUs.
type FunctionEntry struct {
	DeclDie            *die.Die
	CU                 *die.Die
	AddrRange          *AddrRange
	AbsStart           uint64 // 0 when AddrRange is nil
	Name               rustsym.SymbolName
	SpecificationDie   *die.Die
	AlternateLocations []*die.Die
}

// DebugFileIndex holds the per-debug-file indices: the function table (by
// symbol name and by address) and the namespace/module tree.
type DebugFileIndex struct {
	Name         string
	Relocatable  bool
	Loaded       *loader.LoadedFile
	Dwarf        *dwarf.Data
	Modules      *ModuleIndex
	Types        map[string]*TypeEntry
	CUs          []*die.Die
	BySymbolName map[string]*FunctionEntry
	ByAddress    *AddressTree
}

// Index is everything BuildIndex produces for one Binary: the raw/demangled
// symbol table, the source-file table, and one DebugFileIndex per
// associated debug file, plus a merged address tree spanning all of them
// for address_to_location queries.
type Index struct {
	Symbols     map[string][]SymbolRecord
	SourceFiles map[string]map[string]bool // source path -> set of debug file names
	DebugFiles  []*DebugFileIndex
	Addresses   *AddressTree
}

// BuildIndex scans every file in files (the binary plus its associated
// debug files) and builds the combined Index. A file lacking DWARF entirely
// (e.g. a stripped shared dependency) contributes only to the raw-symbol
// table, matching "per Binary" scope.
func BuildIndex(files []*loader.LoadedFile) (*Index, error) {
	idx := &Index{
		Symbols:     map[string][]SymbolRecord{},
		SourceFiles: map[string]map[string]bool{},
		Addresses:   &AddressTree{},
	}

	for _, lf := range files {
		rawByKey, err := indexRawSymbols(lf, idx)
		if err != nil {
			return nil, err
		}

		data, err := lf.DWARF()
		if err != nil {
			continue // no debug info in this file; raw symbols alone still feed the symbol index
		}
		dfi, err := buildDebugFileIndex(lf, data, rawByKey, idx)
		if err != nil {
			return nil, fmt.Errorf("index: %s: %w", lf.Name(), err)
		}
		idx.DebugFiles = append(idx.DebugFiles, dfi)
	}

	idx.Addresses.Sort()
	return idx, nil
}

// indexRawSymbols demangles every defined symbol in lf and records it in the
// shared symbol index, returning a lookup from demangled canonical name to
// address for use while building the function index.
func indexRawSymbols(lf *loader.LoadedFile, idx *Index) (map[string]uint64, error) {
	syms, err := lf.Symbols()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]uint64, len(syms))
	for _, s := range syms {
		sn := rustsym.ParseSymbolName(s.Name)
		key := sn.String()
		idx.Symbols[key] = append(idx.Symbols[key], SymbolRecord{Name: sn, Address: s.Address, DebugFile: lf.Name()})
		if _, ok := byKey[key]; !ok {
			byKey[key] = s.Address
		}
	}
	return byKey, nil
}

func buildDebugFileIndex(lf *loader.LoadedFile, data *dwarf.Data, rawByKey map[string]uint64, idx *Index) (*DebugFileIndex, error) {
	dfi := &DebugFileIndex{
		Name:         lf.Name(),
		Relocatable:  lf.Relocatable,
		Loaded:       lf,
		Dwarf:        data,
		Modules:      &ModuleIndex{},
		Types:        map[string]*TypeEntry{},
		BySymbolName: map[string]*FunctionEntry{},
		ByAddress:    &AddressTree{},
	}

	collector := &cuCollector{}
	if err := die.Walk(data, lf.Name(), collector); err != nil {
		return nil, err
	}
	for _, cu := range collector.cus {
		dfi.CUs = append(dfi.CUs, cu)

		cuModules, err := buildModuleIndex(cu)
		if err != nil {
			return nil, err
		}
		dfi.Modules.modules = append(dfi.Modules.modules, cuModules.modules...)

		if err := buildTypeIndex(cu, dfi.Types); err != nil {
			return nil, err
		}

		collectSourceFiles(data, cu, idx.SourceFiles, lf.Name())

		subprograms, err := collectSubprograms(cu)
		if err != nil {
			return nil, err
		}
		for _, sp := range subprograms {
			indexSubprogram(sp, cu, lf, rawByKey, dfi, idx)
		}
	}
	dfi.ByAddress.Sort()
	return dfi, nil
}

// cuCollector gathers top-level compile-unit DIEs without descending; each
// indexing pass then walks the CU subtrees it needs on its own.
type cuCollector struct {
	cus []*die.Die
}

func (c *cuCollector) VisitCU(cu *die.Die) bool          { c.cus = append(c.cus, cu); return false }
func (c *cuCollector) VisitDie(d *die.Die, depth int) bool { return false }

// indexSubprogram records sp in the function index if its linkage name
// appears in the raw-symbol table (step 3: "unreferenced
// debug-only functions are skipped"). On platforms where this debug file is
// relocatable, the linkage name is matched with a leading underscore
// prepended, matching the assembler's name-mangling convention for object
// files that have not yet been linked.
func indexSubprogram(sp, cu *die.Die, lf *loader.LoadedFile, rawByKey map[string]uint64, dfi *DebugFileIndex, idx *Index) {
	linkName := sp.LinkageName()
	if linkName == "" {
		linkName = sp.Name()
	}
	if linkName == "" {
		return
	}
	matchName := linkName
	if lf.Relocatable {
		matchName = "_" + linkName
	}
	sn := rustsym.ParseSymbolName(linkName)
	key := rustsym.ParseSymbolName(matchName).String()
	addr, ok := rawByKey[key]
	if !ok {
		return
	}

	fe := &FunctionEntry{DeclDie: sp, CU: cu, Name: sn}
	if specDie, err := sp.ReferencedEntry(dwarf.AttrSpecification); err == nil && specDie != nil {
		fe.SpecificationDie = specDie
	}

	nameKey := sn.String()
	if existing, ok := dfi.BySymbolName[nameKey]; ok {
		existing.AlternateLocations = append(existing.AlternateLocations, sp)
		return
	}
	dfi.BySymbolName[nameKey] = fe

	if low, high, ok := sp.LowHighPC(); ok {
		fe.AddrRange = &AddrRange{Start: low, End: high}
		fe.AbsStart = addr
		relSize := high - low
		iv := AddressInterval{
			AbsStart: addr, AbsEnd: addr + relSize,
			RelStart: low, RelEnd: high,
			Name: sn, DebugFile: lf.Name(),
		}
		dfi.ByAddress.Insert(iv)
		idx.Addresses.Insert(iv)
	}
}

// collectSubprograms gathers every DW_TAG_subprogram in the CU, including
// methods nested inside namespaces and `{impl#N}` blocks.
func collectSubprograms(cu *die.Die) ([]*die.Die, error) {
	var out []*die.Die
	err := die.WalkNamespace(cu, die.VisitFunc(func(d *die.Die, depth int) bool {
		if depth > 0 && d.Tag() == dwarf.TagSubprogram {
			out = append(out, d)
		}
		return true
	}))
	return out, err
}

// collectSourceFiles records every file named in the CU's line-number
// program header against table, keyed by the debug file that carries it
// (step 5).
func collectSourceFiles(data *dwarf.Data, cu *die.Die, table map[string]map[string]bool, debugFileName string) {
	lr, err := data.LineReader(cu.Entry)
	if err != nil || lr == nil {
		return
	}
	var entry dwarf.LineEntry
	for {
		if err := lr.Next(&entry); err != nil {
			if err != io.EOF {
				return
			}
			break
		}
		if entry.File == nil {
			continue
		}
		name := entry.File.Name
		if table[name] == nil {
			table[name] = map[string]bool{}
		}
		table[name][debugFileName] = true
	}
}
