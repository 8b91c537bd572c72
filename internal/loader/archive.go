package loader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const arMagic = "!<arch>\n"

// loadArchiveMember parses a Unix `ar` archive (the format `ar`-created
// static libraries use) and returns the slice for the named member. Member
// names are matched exactly, tolerating the trailing "/" GNU ar appends to
// short names, and GNU long names are looked up in the "//" name table.
func loadArchiveMember(archivePath, member string) (*LoadedFile, error) {
	raw, err := mmapOrRead(archivePath)
	if err != nil {
		return nil, fmt.Errorf("loader: opening archive %s: %w", archivePath, err)
	}
	if len(raw) < len(arMagic) || string(raw[:len(arMagic)]) != arMagic {
		return nil, fmt.Errorf("loader: %s: not an ar archive", archivePath)
	}

	var longNames string
	off := len(arMagic)
	for off+60 <= len(raw) {
		hdr := raw[off : off+60]
		name := strings.TrimRight(string(hdr[0:16]), " ")
		sizeStr := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: malformed ar header size %q", archivePath, sizeStr)
		}
		dataStart := off + 60
		dataEnd := dataStart + size
		if dataEnd > len(raw) {
			return nil, fmt.Errorf("loader: %s: truncated archive member %q", archivePath, name)
		}

		switch {
		case name == "//":
			// GNU extended-name table: subsequent "/<offset>" names index into this blob.
			longNames = string(raw[dataStart:dataEnd])
		case name == member, strings.TrimSuffix(name, "/") == member:
			mf, merr := fromBytes(archivePath, member, raw[dataStart:dataEnd])
			if merr != nil {
				return nil, merr
			}
			return mf, nil
		case strings.HasPrefix(name, "/") && longNames != "":
			if idx, err := strconv.Atoi(name[1:]); err == nil && idx < len(longNames) {
				longName := longNames[idx:]
				if nl := strings.IndexByte(longName, '\n'); nl >= 0 {
					longName = longName[:nl]
				}
				longName = strings.TrimSuffix(strings.TrimSpace(longName), "/")
				if longName == member {
					mf, merr := fromBytes(archivePath, member, raw[dataStart:dataEnd])
					if merr != nil {
						return nil, merr
					}
					return mf, nil
				}
			}
		}

		next := dataEnd
		if size%2 == 1 {
			next++ // members are 2-byte aligned
		}
		off = next
	}
	return nil, fmt.Errorf("loader: %s: member %q not found", archivePath, member)
}

// sliceReaderAt wraps a byte slice as an io.ReaderAt for the debug/elf,
// debug/macho, and debug/pe constructors, which all accept one.
func sliceReaderAt(data []byte) io.ReaderAt {
	return bytes.NewReader(data)
}
