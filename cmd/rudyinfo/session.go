package rudyinfo

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Bookmark is a saved source location a user can jump back to, keyed by a
// short name ("the repro site", "bad branch").
type Bookmark struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
	Line int    `yaml:"line"`
}

// Session is the YAML scratch file recording the last-used binary and any
// bookmarks set while exploring it (ambient CLI state; the engine itself has
// no notion of a "session" — this is purely cmd/rudyinfo-side bookkeeping,
// round-tripped with yaml.v3).
type Session struct {
	LastBinary string     `yaml:"last_binary"`
	Bookmarks  []Bookmark `yaml:"bookmarks"`
}

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rudyinfo_session.yaml"), nil
}

// LoadSession reads the session file, returning an empty Session if none
// exists yet.
func LoadSession() (*Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the session back to disk.
func (s *Session) Save() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AddBookmark records b, replacing any existing bookmark with the same name.
func (s *Session) AddBookmark(b Bookmark) {
	for i, existing := range s.Bookmarks {
		if existing.Name == b.Name {
			s.Bookmarks[i] = b
			return
		}
	}
	s.Bookmarks = append(s.Bookmarks, b)
}
