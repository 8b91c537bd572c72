// Package rustsym implements the symbol-name and type-name parsers (layer
// L8): splitting a demangled Rust linkage name into (module path, item,
// hash), and parsing a Rust type expression into a structural tree used by
// L6 to recognize standard-library containers by name alone before
// touching DWARF offsets.
package rustsym

import (
	"regexp"
	"strings"
)

// SymbolName is a demangled Rust symbol split into its structural parts.
type SymbolName struct {
	ModulePath []string
	Item       string
	Hash       string // empty when absent
}

var hashSuffixRe = regexp.MustCompile(`^h[0-9a-f]{16}$`)

// ParseSymbolName splits a demangled name by "::", respecting angle-bracket
// nesting depth so that generic arguments containing "::" (e.g.
// "Vec<foo::Bar>::new") are not mistaken for path separators. Whitespace
// inside "<...>" is collapsed to single spaces so comparisons stay stable
// across rustc's sometimes newline-rich pretty-printing.
func ParseSymbolName(name string) SymbolName {
	segments := splitPathRespectingAngles(normalizeWhitespace(name))
	if len(segments) == 0 {
		return SymbolName{}
	}

	hash := ""
	last := segments[len(segments)-1]
	if hashSuffixRe.MatchString(last) {
		hash = last
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 {
		return SymbolName{Hash: hash}
	}

	item := segments[len(segments)-1]
	modulePath := append([]string(nil), segments[:len(segments)-1]...)
	return SymbolName{ModulePath: modulePath, Item: item, Hash: hash}
}

// String reconstructs the canonical "mod::path::item::hHASH" form.
func (s SymbolName) String() string {
	parts := append(append([]string(nil), s.ModulePath...), s.Item)
	out := strings.Join(parts, "::")
	if s.Hash != "" {
		out += "::" + s.Hash
	}
	return out
}

// MatchesPattern implements pattern-matching rule: a pattern
// P matches a name N if their items are equal and either P has no module
// path or N's module path ends with P's module path, or they are exactly
// structurally equal including hash.
func (pattern SymbolName) MatchesPattern(candidate SymbolName) bool {
	if pattern.Hash != "" {
		return pattern.Item == candidate.Item && pattern.Hash == candidate.Hash &&
			pathEquals(pattern.ModulePath, candidate.ModulePath)
	}
	if pattern.Item != candidate.Item {
		return false
	}
	if len(pattern.ModulePath) == 0 {
		return true
	}
	return pathHasSuffix(candidate.ModulePath, pattern.ModulePath)
}

func pathEquals(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func pathHasSuffix(path, suffix []string) bool {
	if len(suffix) > len(path) {
		return false
	}
	offset := len(path) - len(suffix)
	for i, s := range suffix {
		if path[offset+i] != s {
			return false
		}
	}
	return true
}

func normalizeWhitespace(s string) string {
	depth := 0
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		}
		if depth > 0 && (r == ' ' || r == '\n' || r == '\t') {
			if !lastWasSpace {
				sb.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		lastWasSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// splitPathRespectingAngles splits on "::" while angle-bracket depth is 0.
func splitPathRespectingAngles(s string) []string {
	var segments []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' {
				segments = append(segments, s[start:i])
				i++
				start = i + 1
			}
		}
	}
	segments = append(segments, s[start:])
	var out []string
	for _, seg := range segments {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
