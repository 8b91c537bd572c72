package loader

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
)

// SplitDebugCandidate names a possible location of a binary's separate debug
// information: a build-id link, a .dSYM bundle, or a .gnu_debuglink target.
type SplitDebugCandidate struct {
	Path   string
	Source string // "gnu_debuglink", "build_id", or "dsym_bundle"
}

// FindSplitDebug returns the candidate separate-debug-info paths for lf,
// checked in order of preference. It does not open or validate them; callers
// load whichever candidate exists on disk first.
func FindSplitDebug(lf *LoadedFile) []SplitDebugCandidate {
	var candidates []SplitDebugCandidate

	if lf.Format == FormatMachO {
		if dsym := dsymBundlePath(lf.Path); dsym != "" {
			candidates = append(candidates, SplitDebugCandidate{Path: dsym, Source: "dsym_bundle"})
		}
	}

	if lf.Format == FormatELF {
		if link, crc := gnuDebuglink(lf); link != "" {
			_ = crc // CRC32 cross-check intentionally not enforced; absence of the companion file is diagnostic, not fatal
			dir := filepath.Dir(lf.Path)
			candidates = append(candidates,
				SplitDebugCandidate{Path: filepath.Join(dir, link), Source: "gnu_debuglink"},
				SplitDebugCandidate{Path: filepath.Join(dir, ".debug", link), Source: "gnu_debuglink"},
				SplitDebugCandidate{Path: filepath.Join("/usr/lib/debug", dir, link), Source: "gnu_debuglink"},
			)
		}
		if id := gnuBuildID(lf); id != "" {
			candidates = append(candidates, SplitDebugCandidate{
				Path:   fmt.Sprintf("/usr/lib/debug/.build-id/%s/%s.debug", id[:2], id[2:]),
				Source: "build_id",
			})
		}
	}

	return candidates
}

// dsymBundlePath returns the conventional .dSYM bundle path for a Mach-O
// binary at path, without checking existence.
func dsymBundlePath(path string) string {
	name := filepath.Base(path)
	return filepath.Join(filepath.Dir(path), name+".dSYM", "Contents", "Resources", "DWARF", name)
}

func gnuDebuglink(lf *LoadedFile) (name string, crc32 uint32) {
	if lf.elfFile == nil {
		return "", 0
	}
	sec := lf.elfFile.Section(".gnu_debuglink")
	if sec == nil {
		return "", 0
	}
	data, err := sec.Data()
	if err != nil {
		return "", 0
	}
	nul := 0
	for nul < len(data) && data[nul] != 0 {
		nul++
	}
	name = string(data[:nul])
	// CRC32 follows the NUL-terminated name, 4-byte aligned.
	crcOff := (nul + 1 + 3) &^ 3
	if crcOff+4 <= len(data) {
		crc32 = lf.elfFile.ByteOrder.Uint32(data[crcOff:])
	}
	return name, crc32
}

func gnuBuildID(lf *LoadedFile) string {
	if lf.elfFile == nil {
		return ""
	}
	sec := lf.elfFile.Section(".note.gnu.build-id")
	if sec == nil {
		return ""
	}
	data, err := sec.Data()
	if err != nil {
		return ""
	}
	// ELF note: namesz(4) descsz(4) type(4) name(namesz, padded) desc(descsz, padded)
	if len(data) < 12 {
		return ""
	}
	namesz := binary.LittleEndian.Uint32(data[0:4])
	descsz := binary.LittleEndian.Uint32(data[4:8])
	nameOff := 12 + align4(int(namesz))
	descOff := nameOff + 0
	if descOff+int(descsz) > len(data) {
		return ""
	}
	desc := data[descOff : descOff+int(descsz)]
	var sb strings.Builder
	for _, b := range desc {
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func align4(n int) int { return (n + 3) &^ 3 }
