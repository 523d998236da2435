// Package oodle binds the vendor Oodle LZ shared library. The library
// image can be embedded at build time (oodleembed tag) and is
// materialized next to the running executable on first use, then
// loaded dynamically. Initialization happens once per process; a
// failed initialization is terminal.
package oodle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"unsafe"
)

var (
	// ErrCompressionFailed is returned when the codec reports the -1
	// sentinel for a compress call.
	ErrCompressionFailed = errors.New("oodle: compression failed")

	// ErrInitialization is observed by every caller after the first
	// initialization attempt has failed. The loader never retries.
	ErrInitialization = errors.New("oodle: initialization failed previously")

	// ErrHashMismatch is returned when an already-extracted library
	// does not match the embedded image.
	ErrHashMismatch = errors.New("oodle: library hash mismatch")
)

// Oodle exposes the three vendor entry points needed for container
// work. The entry points are re-entrant for independent buffers, so a
// single handle is safe for concurrent use.
type Oodle struct {
	compress   func(compressor int32, rawBuf unsafe.Pointer, rawLen int64, compBuf unsafe.Pointer, level int32, pOptions, dictionaryBase, lrm uintptr, scratchMem uintptr, scratchSize int64) int64
	decompress func(compBuf unsafe.Pointer, compBufSize int64, rawBuf unsafe.Pointer, rawLen int64, fuzzSafe, checkCRC, verbosity uint32, decBufBase uint64, decBufSize int64, fpCallback, callbackUserData uint64, decoderMemory uintptr, decoderMemorySize int64, threadPhase uint32) int64
	sizeNeeded func(compressor int32, rawSize int64) int64
}

// Compress compresses raw with the given codec and level. The output
// buffer is sized via the vendor's own worst-case estimate and
// truncated to the bytes actually produced.
func (o *Oodle) Compress(raw []byte, compressor Compressor, level Level) ([]byte, error) {
	bufSize := o.sizeNeeded(int32(compressor), int64(len(raw)))
	buf := make([]byte, bufSize)

	var rawPtr unsafe.Pointer
	if len(raw) > 0 {
		rawPtr = unsafe.Pointer(&raw[0])
	}
	n := o.compress(int32(compressor), rawPtr, int64(len(raw)), unsafe.Pointer(&buf[0]), int32(level), 0, 0, 0, 0, 0)
	if n == -1 {
		return nil, ErrCompressionFailed
	}
	return buf[:n], nil
}

// Decompress decodes comp into out and returns the number of bytes
// written, or a negative vendor status. out must be sized to the
// expected raw length. Fuzz safety and CRC checks are enabled.
func (o *Oodle) Decompress(comp, out []byte) int64 {
	var compPtr, outPtr unsafe.Pointer
	if len(comp) > 0 {
		compPtr = unsafe.Pointer(&comp[0])
	}
	if len(out) > 0 {
		outPtr = unsafe.Pointer(&out[0])
	}
	// threadPhase 3 = ThreadPhaseAll (unthreaded decode).
	return o.decompress(compPtr, int64(len(comp)), outPtr, int64(len(out)), 1, 1, 0, 0, 0, 0, 0, 0, 0, 3)
}

// CompressedBufferSizeNeeded returns the worst-case compressed size
// for rawLen input bytes under the given codec.
func (o *Oodle) CompressedBufferSizeNeeded(compressor Compressor, rawLen int) int {
	return int(o.sizeNeeded(int32(compressor), int64(rawLen)))
}

var (
	loadOnce = sync.OnceValues(initialize)
	reported atomic.Bool
)

// Load returns the process-wide codec handle, initializing it on
// first call. The first caller to observe a failure receives the
// underlying error; every later caller receives ErrInitialization
// without any I/O being retried.
func Load() (*Oodle, error) {
	o, err := loadOnce()
	if err != nil {
		if reported.CompareAndSwap(false, true) {
			return nil, err
		}
		return nil, ErrInitialization
	}
	return o, nil
}

// initialize materializes the library file if needed and resolves the
// vendor symbols.
func initialize() (*Oodle, error) {
	path, err := provision()
	if err != nil {
		return nil, err
	}
	handle, err := openLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("oodle: load %s: %w", path, err)
	}
	o := &Oodle{}
	if err := registerFunc(&o.compress, handle, "OodleLZ_Compress"); err != nil {
		return nil, err
	}
	if err := registerFunc(&o.decompress, handle, "OodleLZ_Decompress"); err != nil {
		return nil, err
	}
	if err := registerFunc(&o.sizeNeeded, handle, "OodleLZ_GetCompressedBufferSizeNeeded"); err != nil {
		return nil, err
	}
	return o, nil
}

// provision returns the on-disk path of the vendor library, writing
// the embedded image next to the running executable if no file with
// the expected name exists yet.
func provision() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	path := filepath.Join(filepath.Dir(exe), libraryName)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(libraryBytes) > 0 {
			want := sha256.Sum256(libraryBytes)
			got := sha256.Sum256(existing)
			if want != got {
				return "", fmt.Errorf("%w: expected %s got %s", ErrHashMismatch,
					hex.EncodeToString(want[:]), hex.EncodeToString(got[:]))
			}
		}
		return path, nil
	case os.IsNotExist(err):
		if len(libraryBytes) == 0 {
			return "", fmt.Errorf("oodle: %s not found beside the executable and no image is embedded in this build", libraryName)
		}
		if err := os.WriteFile(path, libraryBytes, 0o755); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", err
	}
}
