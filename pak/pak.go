// Package pak reads and writes Unreal Engine PAK v11 containers: a
// sequential data region followed by an index (mount point, seeded
// path-hash index, full directory listing) and a fixed-size footer.
// The index may be AES-256 encrypted.
package pak

import "errors"

// Magic identifies a PAK footer.
const Magic uint32 = 0x5A6F12E1

// VersionV11 is the only container version this codec emits.
const VersionV11 uint32 = 11

// DefaultMountPoint is the mount prefix the engine expects for
// content paks.
const DefaultMountPoint = "../../../"

// compressionBlockSize is the raw-byte span of one compression block.
const compressionBlockSize = 64 << 10

var (
	// ErrRead wraps any container-level failure while parsing a pak.
	ErrRead = errors.New("pak: read failed")

	// ErrWrite wraps any container-level failure while emitting a pak.
	ErrWrite = errors.New("pak: write failed")

	// ErrNotFound is returned when a named entry is not in the index.
	ErrNotFound = errors.New("pak: entry not found")

	// ErrBadMagic is returned when the footer magic does not match.
	ErrBadMagic = errors.New("pak: bad footer magic")

	// ErrVersion is returned for container versions this codec does
	// not speak.
	ErrVersion = errors.New("pak: unsupported version")

	// ErrIndexHash is returned when the index bytes fail their SHA-1
	// check, usually a wrong AES key.
	ErrIndexHash = errors.New("pak: index hash mismatch")
)

// Method identifies the per-entry compression codec. The value is an
// index into the footer's method-name table; slot 0 is always "store
// uncompressed".
type Method uint32

const (
	MethodNone  Method = 0
	MethodZlib  Method = 1
	MethodOodle Method = 2
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "None"
	case MethodZlib:
		return "Zlib"
	case MethodOodle:
		return "Oodle"
	}
	return "Unknown"
}

// methodNames is the footer name table. The engine matches methods by
// name, not slot, so the spelling matters.
var methodNames = [...]string{"", "Zlib", "Oodle"}
