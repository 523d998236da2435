package ingest

import "os"

// Staging is a temporary workspace holding extracted archive
// contents. It lives until the install that consumes it completes.
type Staging struct {
	dir string
}

// NewStaging creates a fresh workspace under the system temp dir.
func NewStaging() (*Staging, error) {
	dir, err := os.MkdirTemp("", "pakcore-staging-*")
	if err != nil {
		return nil, err
	}
	return &Staging{dir: dir}, nil
}

// Dir returns the workspace root.
func (s *Staging) Dir() string { return s.dir }

// Close removes the workspace tree.
func (s *Staging) Close() error {
	if s.dir == "" {
		return nil
	}
	dir := s.dir
	s.dir = ""
	return os.RemoveAll(dir)
}
