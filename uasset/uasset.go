// Package uasset performs in-place byte edits on serialized UE
// .uasset/.uexp pairs: forcing texture mip settings and redirecting
// skeletal-mesh package names. Both patchers are heuristic (name-table
// sniffing), idempotent, and back the original file up before the
// first mutation. Per-asset failures are reported to the caller for
// logging and never abort an install.
package uasset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// packageMagic opens every cooked .uasset summary.
const packageMagic uint32 = 0x9E2A83C1

// ErrPatch wraps asset-level patch failures. Callers log it; the
// install pipeline never propagates it.
var ErrPatch = errors.New("uasset: patch failed")

// Result reports the outcome of one patch attempt.
type Result int

const (
	// Applied means bytes were rewritten.
	Applied Result = iota
	// NotNeeded means the asset is already in the target state.
	NotNeeded
	// NotApplicable means the heuristic could not locate the
	// structures it needs; the file was left untouched.
	NotApplicable
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case NotNeeded:
		return "not-needed"
	case NotApplicable:
		return "not-applicable"
	}
	return "unknown"
}

// nameTable is the ordered list of strings recovered from a .uasset
// header. The ordinal of a string approximates its FName index, which
// holds for cooked assets because the name block is serialized first
// and in order.
type nameTable struct {
	names []string
	index map[string]int
	// spans records where each name's bytes live so same-length
	// rewrites can patch in place.
	spans []span
}

type span struct {
	off int // start of the string bytes (after the length prefix)
	len int // byte length excluding the NUL
}

// scanNames walks data recovering length-prefixed NUL-terminated
// ASCII strings. Non-string bytes are skipped one at a time, so the
// scan tolerates the version-dependent per-name hash fields.
func scanNames(data []byte) *nameTable {
	t := &nameTable{index: make(map[string]int)}
	pos := 0
	for pos+5 <= len(data) {
		n := int(binary.LittleEndian.Uint32(data[pos:]))
		if n < 2 || n > 512 || pos+4+n > len(data) {
			pos++
			continue
		}
		str := data[pos+4 : pos+4+n]
		if str[n-1] != 0 || !printable(str[:n-1]) {
			pos++
			continue
		}
		name := string(str[:n-1])
		if _, dup := t.index[name]; !dup {
			t.index[name] = len(t.names)
		}
		t.spans = append(t.spans, span{off: pos + 4, len: n - 1})
		t.names = append(t.names, name)
		pos += 4 + n
	}
	return t
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

func (t *nameTable) lookup(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

func (t *nameTable) has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// hasMagic reports whether data opens with the package summary tag.
// The heuristics still run without it, but its absence is a strong
// hint the file is not a cooked asset.
func hasMagic(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == packageMagic
}

// backup writes a .bak side-copy of path unless one already exists.
// An existing backup is kept: it predates any mutation by this
// process and re-running a patcher must not clobber the original.
func backup(path string) error {
	bak := path + ".bak"
	if _, err := os.Stat(bak); err == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: backup %s: %v", ErrPatch, path, err)
	}
	if err := os.WriteFile(bak, data, 0o644); err != nil {
		return fmt.Errorf("%w: backup %s: %v", ErrPatch, path, err)
	}
	return nil
}

// fnameBytes renders an FName reference as serialized: name index
// plus a zero instance number.
func fnameBytes(index int) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, uint32(index))
	return b
}
