// Package install drives the per-mod installation pipeline: naming
// reconciliation, strategy dispatch (direct copy, repack, IoStore
// conversion), asset patching, and tag recording.
package install

import (
	"errors"

	"github.com/uemod/pakcore/oodle"
	"github.com/uemod/pakcore/pak"
)

// LoadOrderSuffix is the naming convention forcing a mod to load last
// among _P patch paks. It is a contract with the game, not a style
// choice; every output base name carries it.
const LoadOrderSuffix = "_9999999_P"

// ProgressDone is the sentinel stored in the progress counter when a
// batch finishes, successful or not.
const ProgressDone int32 = -255

// GameTOCKey is the game's shared IoStore TOC key, registered under
// the zero encryption-key GUID.
const GameTOCKey = "0C263D8C22DCB085894899C3A3796383E9BF9DE0CBFB08C9BF2DEF2E84F29D74"

var (
	// ErrUnsupportedInput marks a dropped path no strategy accepts.
	ErrUnsupportedInput = errors.New("install: unsupported input")

	// ErrExtraction wraps archive-extractor failures.
	ErrExtraction = errors.New("install: archive extraction failed")
)

// Mod is one unit of installation work. Ingest creates it, the
// reconciler normalizes its name, and the orchestrator owns it for
// the duration of one install; no locking is needed because each
// install owns its record exclusively.
type Mod struct {
	// Name is the logical base name, subject to the load-order
	// suffix rule.
	Name string
	// Path locates the source artifact: a file or a directory.
	Path string
	// Type is the classifier output; Audio and Movies skip IoStore.
	Type string

	Enabled bool
	// IsDir marks a directory source (IoStore conversion strategy).
	IsDir bool
	// IoStore marks a source already shipping .utoc/.ucas siblings.
	IoStore bool
	// Repak requests re-packing through the PAK codec.
	Repak bool

	FixMesh     bool
	FixTextures bool

	// Compression selects the codec applied when re-packing.
	Compression oodle.Compressor
	// MountPoint is written into the PAK index.
	MountPoint string
	// PathHashSeed seeds the PAK path-hash index.
	PathHashSeed uint64

	// Tags are the user tags recorded for the Host, kept sorted and
	// duplicate-free at rest.
	Tags []string

	// Reader is the opened source container when the artifact is
	// itself a pak.
	Reader *pak.Reader
}

// Record describes one installed artifact for the Host.
type Record struct {
	BaseName string
	PakPath  string
	UTOCPath string
	UCASPath string
	Tags     []string
}
