// Package loader implements the file-loading layer (L2): memory-mapping
// object files, dispatching to the right object-format reader (ELF,
// Mach-O, PE), dereferencing archive members, and detecting split-debug
// companions.
package loader

import (
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"os"
	"path/filepath"
)

// Format identifies the object-file container format.
type Format int

const (
	FormatELF Format = iota
	FormatMachO
	FormatPE
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "elf"
	case FormatMachO:
		return "macho"
	case FormatPE:
		return "pe"
	default:
		return "unknown"
	}
}

// LoadedFile is a memory-mapped (or, on platforms without mmap support, a
// fully buffered) backing for one object file or archive member. Multiple
// consumers of the same archive member share the same LoadedFile instance
// through the loader's cache.
type LoadedFile struct {
	Path          string
	ArchiveMember string
	Format        Format
	Relocatable   bool

	data []byte

	elfFile   *elf.File
	machoFile *macho.File
	peFile    *pe.File
}

// Name is the display name used in error messages and DIE-location strings:
// "path" or "path(member)".
func (lf *LoadedFile) Name() string {
	if lf.ArchiveMember == "" {
		return lf.Path
	}
	return fmt.Sprintf("%s(%s)", lf.Path, lf.ArchiveMember)
}

// Data returns the raw bytes backing this file (the whole object, or the
// archive member's slice).
func (lf *LoadedFile) Data() []byte { return lf.data }

// DWARF returns the parsed DWARF data for this file, dispatching on object
// format. The returned *dwarf.Data is shared; callers must not mutate it.
func (lf *LoadedFile) DWARF() (*dwarf.Data, error) {
	switch lf.Format {
	case FormatELF:
		return lf.elfFile.DWARF()
	case FormatMachO:
		return lf.machoFile.DWARF()
	case FormatPE:
		return lf.peFile.DWARF()
	default:
		return nil, fmt.Errorf("loader: %s: unrecognized object format", lf.Name())
	}
}

// section is one loaded section's virtual-address range and file-backed
// contents, used by ReadVirtualMemory to serve a DataResolver directly off
// the mapped object instead of a live process ("live or dumped
// target").
type section struct {
	addr uint64
	data []byte
}

// sections returns every loaded, allocated section's virtual address range
// and bytes, dispatching on object format.
func (lf *LoadedFile) sections() []section {
	var out []section
	switch lf.Format {
	case FormatELF:
		for _, s := range lf.elfFile.Sections {
			if s.Addr == 0 || s.Type == elf.SHT_NOBITS {
				continue
			}
			data, err := s.Data()
			if err != nil {
				continue
			}
			out = append(out, section{addr: s.Addr, data: data})
		}
	case FormatMachO:
		for _, s := range lf.machoFile.Sections {
			if s.Addr == 0 {
				continue
			}
			data, err := s.Data()
			if err != nil {
				continue
			}
			out = append(out, section{addr: s.Addr, data: data})
		}
	case FormatPE:
		imageBase := uint64(0)
		if oh32, ok := lf.peFile.OptionalHeader.(*pe.OptionalHeader32); ok {
			imageBase = uint64(oh32.ImageBase)
		} else if oh64, ok := lf.peFile.OptionalHeader.(*pe.OptionalHeader64); ok {
			imageBase = oh64.ImageBase
		}
		for _, s := range lf.peFile.Sections {
			data, err := s.Data()
			if err != nil {
				continue
			}
			out = append(out, section{addr: imageBase + uint64(s.VirtualAddress), data: data})
		}
	}
	return out
}

// ReadVirtualMemory reads size bytes at the virtual address addr directly
// out of this object's mapped sections, with no live process involved: a
// "dumped target" DataResolver backend, an alternative to a live ptrace/LLDB
// host. Returns an error if addr falls outside every loaded section or the
// read would cross a section boundary.
func (lf *LoadedFile) ReadVirtualMemory(addr uint64, size int) ([]byte, error) {
	for _, s := range lf.sections() {
		end := s.addr + uint64(len(s.data))
		if addr < s.addr || addr >= end {
			continue
		}
		off := addr - s.addr
		if off+uint64(size) > uint64(len(s.data)) {
			return nil, fmt.Errorf("loader: %s: read of %d bytes at 0x%x crosses section end", lf.Name(), size, addr)
		}
		out := make([]byte, size)
		copy(out, s.data[off:off+uint64(size)])
		return out, nil
	}
	return nil, fmt.Errorf("loader: %s: address 0x%x not backed by any loaded section", lf.Name(), addr)
}

// RawSymbol is an uninterpreted defined symbol pulled from an object file's
// native symbol table: linkage-name bytes plus an address, not yet demangled.
type RawSymbol struct {
	Name    string
	Address uint64
}

// Symbols returns every defined symbol in the object, dispatching on format.
// Undefined (imported) symbols are skipped since they carry no address.
func (lf *LoadedFile) Symbols() ([]RawSymbol, error) {
	switch lf.Format {
	case FormatELF:
		return elfSymbols(lf.elfFile)
	case FormatMachO:
		return machoSymbols(lf.machoFile)
	case FormatPE:
		return peSymbols(lf.peFile)
	default:
		return nil, fmt.Errorf("loader: %s: unrecognized object format", lf.Name())
	}
}

func elfSymbols(f *elf.File) ([]RawSymbol, error) {
	syms, err := f.Symbols()
	if err != nil && len(syms) == 0 {
		// Static binaries may carry only dynamic symbols; .symtab absence is
		// not fatal to indexing.
		syms, err = f.DynamicSymbols()
	}
	if err != nil {
		return nil, nil
	}
	out := make([]RawSymbol, 0, len(syms))
	for _, s := range syms {
		if s.Name == "" || s.Section == elf.SHN_UNDEF {
			continue
		}
		out = append(out, RawSymbol{Name: s.Name, Address: s.Value})
	}
	return out, nil
}

func machoSymbols(f *macho.File) ([]RawSymbol, error) {
	if f.Symtab == nil {
		return nil, nil
	}
	out := make([]RawSymbol, 0, len(f.Symtab.Syms))
	for _, s := range f.Symtab.Syms {
		if s.Name == "" || s.Value == 0 {
			continue
		}
		out = append(out, RawSymbol{Name: s.Name, Address: s.Value})
	}
	return out, nil
}

func peSymbols(f *pe.File) ([]RawSymbol, error) {
	out := make([]RawSymbol, 0, len(f.Symbols))
	for _, s := range f.Symbols {
		if s.Name == "" || s.SectionNumber <= 0 {
			continue
		}
		sec := f.Sections[s.SectionNumber-1]
		out = append(out, RawSymbol{Name: s.Name, Address: uint64(sec.VirtualAddress + s.Value)})
	}
	return out, nil
}

// Loader memory-maps and parses object files, caching LoadedFile instances
// by (path, member) so repeated consumers of the same archive member reuse
// one backing buffer.
type Loader struct {
	cache map[string]*LoadedFile
}

// New creates an empty Loader.
func New() *Loader {
	return &Loader{cache: make(map[string]*LoadedFile)}
}

// Load opens path, which may name a plain object file or an archive member
// using the "path(member)" convention (e.g. "libfoo.a(bar.o)").
func (l *Loader) Load(path string) (*LoadedFile, error) {
	archivePath, member := splitArchiveMember(path)
	key := abs(archivePath) + "\x00" + member
	if lf, ok := l.cache[key]; ok {
		return lf, nil
	}

	var (
		lf  *LoadedFile
		err error
	)
	if member != "" {
		lf, err = loadArchiveMember(archivePath, member)
	} else {
		lf, err = loadPlain(archivePath)
	}
	if err != nil {
		return nil, err
	}
	l.cache[key] = lf
	return lf, nil
}

func loadPlain(path string) (*LoadedFile, error) {
	data, err := mmapOrRead(path)
	if err != nil {
		return nil, fmt.Errorf("loader: opening %s: %w", path, err)
	}
	return fromBytes(path, "", data)
}

func fromBytes(path, member string, data []byte) (*LoadedFile, error) {
	lf := &LoadedFile{Path: path, ArchiveMember: member, data: data}

	if ef, err := elf.NewFile(sliceReaderAt(data)); err == nil {
		lf.Format = FormatELF
		lf.elfFile = ef
		lf.Relocatable = ef.Type == elf.ET_REL
		return lf, nil
	}
	if mf, err := macho.NewFile(sliceReaderAt(data)); err == nil {
		lf.Format = FormatMachO
		lf.machoFile = mf
		lf.Relocatable = mf.Type == macho.TypeObj
		return lf, nil
	}
	if pf, err := pe.NewFile(sliceReaderAt(data)); err == nil {
		lf.Format = FormatPE
		lf.peFile = pf
		lf.Relocatable = pf.Characteristics&0x0002 == 0 // IMAGE_FILE_EXECUTABLE_IMAGE unset => object file
		return lf, nil
	}
	return nil, fmt.Errorf("loader: %s: not a recognized ELF, Mach-O, or PE object", fmt.Sprintf("%s(%s)", path, member))
}

func splitArchiveMember(path string) (archivePath, member string) {
	open := len(path)
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == ')' && i == len(path)-1 {
			open = i
		}
		if path[i] == '(' && open == len(path)-1 {
			return path[:i], path[i+1 : len(path)-1]
		}
	}
	return path, ""
}

func mmapOrRead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return mmapFile(f, info.Size())
}

// abs returns the absolute, cleaned form of path for use as a stable cache
// and File-interning key.
func abs(path string) string {
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return path
}
