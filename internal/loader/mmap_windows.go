//go:build windows
// +build windows

package loader

import "os"

// mmapFile falls back to a plain read on Windows, where mapping would
// require the syscall.CreateFileMapping/MapViewOfFile pair; the engine only
// needs read access to a stable byte slice, which a full read provides just
// as well for the binary sizes this tool targets.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, err
	}
	return data, nil
}
