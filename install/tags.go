package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// tagFileName and tagDirName fix where the Host picks pending tag
// assignments up.
const (
	tagDirName  = "repak_manager"
	tagFileName = "pending_custom_tags.json"
)

// TagStore persists base-name → tag assignments between the install
// pipeline (writer) and the Host (consumer). Single-writer: the
// installer goroutine is the only concurrent writer within a process,
// and cross-process writers are not supported.
type TagStore struct {
	path string
}

// NewTagStore returns the store at its conventional location under
// the user config directory.
func NewTagStore() (*TagStore, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		cfg = "."
	}
	dir := filepath.Join(cfg, tagDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tag store: %w", err)
	}
	return &TagStore{path: filepath.Join(dir, tagFileName)}, nil
}

// NewTagStoreAt returns a store backed by an explicit file path.
func NewTagStoreAt(path string) *TagStore {
	return &TagStore{path: path}
}

// Path returns the backing file location.
func (s *TagStore) Path() string { return s.path }

// Record merges tags for baseName into the store. The persisted list
// is sorted and duplicate-free. An empty tag list leaves the file
// untouched.
func (s *TagStore) Record(baseName string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	m, err := s.load()
	if err != nil {
		return err
	}
	merged := append(m[baseName], tags...)
	slices.Sort(merged)
	m[baseName] = slices.Compact(merged)
	return s.save(m)
}

// Pending returns the current map without consuming it.
func (s *TagStore) Pending() (map[string][]string, error) {
	return s.load()
}

// Consume returns all pending assignments and empties the store; the
// Host calls this on catalogue refresh.
func (s *TagStore) Consume() (map[string][]string, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return m, nil
	}
	if err := s.save(map[string][]string{}); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *TagStore) load() (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tag store: %w", err)
	}
	m := map[string][]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupt store is replaced rather than wedging installs.
		return map[string][]string{}, nil
	}
	return m, nil
}

func (s *TagStore) save(m map[string][]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("tag store: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("tag store: %w", err)
	}
	return nil
}
