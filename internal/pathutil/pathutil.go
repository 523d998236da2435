// Package pathutil provides path manipulation for slash-separated
// container paths and for collecting install candidates from disk.
package pathutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ToSlash normalizes an OS path fragment to forward slashes and strips
// leading and trailing separators. Container formats store slash paths
// regardless of host platform.
func ToSlash(p string) string {
	p = filepath.ToSlash(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	// Collapse consecutive slashes by splitting and rejoining.
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// Rel returns the slash-normalized path of target relative to root.
func Rel(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	return ToSlash(rel), nil
}

// CollectFiles walks dir and returns the absolute paths of every
// regular file beneath it. Symlinks are not followed. The result is
// sorted so downstream artifacts are deterministic.
func CollectFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Stem returns the file name without its final extension.
func Stem(p string) string {
	base := filepath.Base(p)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
