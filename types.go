package pakcore

import (
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/iostore"
	"github.com/uemod/pakcore/oodle"
	"github.com/uemod/pakcore/pak"
)

// --- Re-exports from install ---

// Mod is one unit of installation work.
type Mod = install.Mod

// Record describes one installed artifact.
type Record = install.Record

// TagStore persists pending user tags for installed mods.
type TagStore = install.TagStore

// LoadOrderSuffix is the naming convention every installed artifact
// carries.
const LoadOrderSuffix = install.LoadOrderSuffix

// ProgressDone is the sentinel stored in the progress counter when a
// batch finishes.
const ProgressDone = install.ProgressDone

// Reconcile normalizes a mod base name under the load-order rule.
var Reconcile = install.Reconcile

// --- Re-exports from pak ---

// AESKey is a 256-bit pak index key.
type AESKey = pak.AESKey

// ParseAESKey accepts hex (with or without 0x) or base64 key material.
var ParseAESKey = pak.ParseAESKey

// --- Re-exports from oodle ---

// Compressor selects the Oodle compression algorithm.
type Compressor = oodle.Compressor

// Level selects the Oodle encoder effort.
type Level = oodle.Level

// --- Re-exports from iostore ---

// Compression selects the .ucas block codec.
type Compression = iostore.Compression

// Compression constants.
const (
	CompressionNone  = iostore.CompressionNone
	CompressionOodle = iostore.CompressionOodle
	CompressionZstd  = iostore.CompressionZstd
)
