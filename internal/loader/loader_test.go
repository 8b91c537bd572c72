package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArchiveMember(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantArchive string
		wantMember string
	}{
		{"plain object", "/tmp/foo.o", "/tmp/foo.o", ""},
		{"archive member", "libfoo.a(bar.o)", "libfoo.a", "bar.o"},
		{"absolute archive path", "/tmp/libfoo.a(bar.o)", "/tmp/libfoo.a", "bar.o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive, member := splitArchiveMember(tt.input)
			assert.Equal(t, tt.wantArchive, archive)
			assert.Equal(t, tt.wantMember, member)
		})
	}
}

func TestDsymBundlePath(t *testing.T) {
	got := dsymBundlePath("/tmp/build/app")
	assert.Equal(t, "/tmp/build/app.dSYM/Contents/Resources/DWARF/app", got)
}

func TestAlign4(t *testing.T) {
	assert.Equal(t, 0, align4(0))
	assert.Equal(t, 4, align4(1))
	assert.Equal(t, 4, align4(4))
	assert.Equal(t, 8, align4(5))
}
