package pakcore

import (
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/iostore"
	"github.com/uemod/pakcore/oodle"
	"github.com/uemod/pakcore/pak"
	"github.com/uemod/pakcore/uasset"
)

// Errors re-exported from oodle.
var (
	// ErrCodecLoad is returned when the vendor codec library cannot be
	// provisioned or loaded.
	ErrCodecLoad = oodle.ErrInitialization

	// ErrCompressionFailed is returned when the codec rejects a buffer.
	ErrCompressionFailed = oodle.ErrCompressionFailed
)

// Errors re-exported from the container codecs.
var (
	// ErrPakRead is returned when a PAK container cannot be parsed or an
	// entry fails verification.
	ErrPakRead = pak.ErrRead

	// ErrPakWrite is returned when a PAK container cannot be emitted.
	ErrPakWrite = pak.ErrWrite

	// ErrIoStoreConversion is returned when a directory cannot be
	// converted into a .utoc/.ucas pair.
	ErrIoStoreConversion = iostore.ErrConversion
)

// Errors re-exported from install and uasset.
var (
	// ErrUnsupportedInput is returned when no install strategy accepts
	// a source path.
	ErrUnsupportedInput = install.ErrUnsupportedInput

	// ErrExtraction is returned when an archive cannot be unpacked.
	ErrExtraction = install.ErrExtraction

	// ErrAssetPatch is returned when an asset patch cannot be applied.
	ErrAssetPatch = uasset.ErrPatch
)
