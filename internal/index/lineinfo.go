package index

import (
	"debug/dwarf"
	"io"
	"path/filepath"
	"strings"

	"github.com/samscott89/rudy-sub002/internal/rustsym"
)

// Location is a resolved source position, the result of an address_to_location
// query.
type Location struct {
	Function rustsym.SymbolName
	File     string
	Line     int
	Column   int
}

// AddressToLocation implements address lookup: find the
// function containing addr via the address tree, translate addr to a
// binary-relative address using the function's absolute/relative delta,
// then walk the CU's line program and return the row whose position is
// closest to, and not after, the relative address.
func (idx *Index) AddressToLocation(addr uint64) (*Location, *FunctionEntry, bool) {
	matches := idx.Addresses.QueryAddress(addr)
	if len(matches) == 0 {
		return nil, nil, false
	}
	// Prefer the tightest-enclosing interval when duplicates overlap.
	best := matches[0]
	for _, m := range matches[1:] {
		if (m.AbsEnd - m.AbsStart) < (best.AbsEnd - best.AbsStart) {
			best = m
		}
	}

	dfi := idx.debugFile(best.DebugFile)
	if dfi == nil {
		return nil, nil, false
	}
	fe, ok := dfi.BySymbolName[best.Name.String()]
	if !ok || fe.CU == nil {
		return nil, nil, false
	}

	delta := best.AbsStart - best.RelStart
	relAddr := addr - delta

	loc, ok := bestLineRow(dfi.Dwarf, fe.CU.Entry, relAddr)
	if !ok {
		return &Location{Function: best.Name}, fe, true
	}
	loc.Function = best.Name
	return loc, fe, true
}

// bestLineRow scans the CU's compiled line program for the row whose address
// is closest to, and does not exceed, target.
func bestLineRow(data *dwarf.Data, cu *dwarf.Entry, target uint64) (*Location, bool) {
	lr, err := data.LineReader(cu)
	if err != nil || lr == nil {
		return nil, false
	}
	var (
		entry dwarf.LineEntry
		best  *dwarf.LineEntry
	)
	for {
		if err := lr.Next(&entry); err != nil {
			if err != io.EOF {
				return nil, false
			}
			break
		}
		e := entry
		if e.Address > target {
			continue
		}
		if best == nil || e.Address > best.Address {
			best = &e
		}
	}
	if best == nil {
		return nil, false
	}
	loc := &Location{Line: best.Line, Column: best.Column}
	if best.File != nil {
		loc.File = best.File.Name
	}
	return loc, true
}

// FindAddressFromSourceLocation implements position lookup:
// given (file, line, column?), consult the source-file table for candidate
// debug files, then scan each matching CU's line program for the first row
// at file==F, line>=L, tie-broken by the smallest relative offset.
func (idx *Index) FindAddressFromSourceLocation(file string, line int, column int) (uint64, bool) {
	candidates := idx.candidateDebugFiles(file)
	var (
		bestAddr uint64
		bestRel  = ^uint64(0)
		found    bool
	)
	for _, dfi := range candidates {
		for _, fe := range dfi.BySymbolName {
			if fe.CU == nil || fe.AddrRange == nil {
				continue
			}
			relAddr, rel, ok := firstMatchingRow(dfi.Dwarf, fe.CU.Entry, file, line, column)
			if !ok || relAddr < fe.AddrRange.Start {
				continue
			}
			delta := fe.AbsStart - fe.AddrRange.Start
			abs := relAddr + delta
			if !found || rel < bestRel {
				found = true
				bestRel = rel
				bestAddr = abs
			}
		}
	}
	return bestAddr, found
}

// firstMatchingRow scans cu's line program for the first row with
// file==wantFile (matched exactly or by suffix) and line>=wantLine, subject
// to column if wantColumn is nonzero. Returns the row's address and its
// offset from the start of the program (used as the tie-break).
func firstMatchingRow(data *dwarf.Data, cu *dwarf.Entry, wantFile string, wantLine, wantColumn int) (addr uint64, offset uint64, ok bool) {
	lr, err := data.LineReader(cu)
	if err != nil || lr == nil {
		return 0, 0, false
	}
	var entry dwarf.LineEntry
	var idx uint64
	for {
		if err := lr.Next(&entry); err != nil {
			break
		}
		idx++
		if entry.File == nil || !fileMatches(entry.File.Name, wantFile) {
			continue
		}
		if entry.Line < wantLine {
			continue
		}
		if wantColumn != 0 && entry.Column != 0 && entry.Column != wantColumn {
			continue
		}
		return entry.Address, idx, true
	}
	return 0, 0, false
}

// fileMatches implements "exact if the path is already
// indexed, else by suffix match" rule.
func fileMatches(indexed, want string) bool {
	if indexed == want {
		return true
	}
	return strings.HasSuffix(filepath.ToSlash(indexed), filepath.ToSlash(want))
}

// candidateDebugFiles returns the debug files whose source-file table
// contains file, matched by suffix when no exact entry exists.
func (idx *Index) candidateDebugFiles(file string) []*DebugFileIndex {
	var names map[string]bool
	if set, ok := idx.SourceFiles[file]; ok {
		names = set
	} else {
		for path, set := range idx.SourceFiles {
			if fileMatches(path, file) {
				names = set
				break
			}
		}
	}
	if names == nil {
		return nil
	}
	var out []*DebugFileIndex
	for _, dfi := range idx.DebugFiles {
		if names[dfi.Name] {
			out = append(out, dfi)
		}
	}
	return out
}

func (idx *Index) debugFile(name string) *DebugFileIndex {
	for _, dfi := range idx.DebugFiles {
		if dfi.Name == name {
			return dfi
		}
	}
	return nil
}

// FindFunctionByName implements SymbolName pattern matching,
// returning matches ordered exact-first then by shortest module-path
// overage.
func (idx *Index) FindFunctionByName(pattern rustsym.SymbolName) []*FunctionEntry {
	var out []*FunctionEntry
	for _, dfi := range idx.DebugFiles {
		for _, fe := range dfi.BySymbolName {
			if pattern.MatchesPattern(fe.Name) {
				out = append(out, fe)
			}
		}
	}
	sortFunctionMatches(pattern, out)
	return out
}

func sortFunctionMatches(pattern rustsym.SymbolName, entries []*FunctionEntry) {
	overage := func(fe *FunctionEntry) int {
		return len(fe.Name.ModulePath) - len(pattern.ModulePath)
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0; j-- {
			a, b := entries[j-1], entries[j]
			exactA := a.Name.String() == pattern.String()
			exactB := b.Name.String() == pattern.String()
			swap := false
			if exactB && !exactA {
				swap = true
			} else if exactA == exactB && overage(b) < overage(a) {
				swap = true
			}
			if !swap {
				break
			}
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}
