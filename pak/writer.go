package pak

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zlib"

	"github.com/uemod/pakcore/oodle"
)

// Writer emits a PAK v11 container. Entries are written as they
// arrive; WriteIndex finishes the container and must be called exactly
// once, last. The underlying writer is never seeked, so any io.Writer
// works.
type Writer struct {
	w      io.Writer
	offset uint64
	logger *slog.Logger

	mountPoint string
	seed       uint64
	key        *AESKey

	oodleCompressor oodle.Compressor
	oodleLevel      oodle.Level

	names   []string
	entries []*entry
	done    bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithMountPoint sets the mount prefix reported to the engine.
func WithMountPoint(mp string) WriterOption {
	return func(w *Writer) { w.mountPoint = mp }
}

// WithPathHashSeed sets the seed for the path-hash index. The loader
// must be configured with the same seed.
func WithPathHashSeed(seed uint64) WriterOption {
	return func(w *Writer) { w.seed = seed }
}

// WithWriterKey encrypts the index with the given key.
func WithWriterKey(key AESKey) WriterOption {
	return func(w *Writer) { w.key = &key }
}

// WithOodleSettings selects the codec and level used for
// MethodOodle entries. Defaults to Kraken/Normal.
func WithOodleSettings(c oodle.Compressor, l oodle.Level) WriterOption {
	return func(w *Writer) {
		w.oodleCompressor = c
		w.oodleLevel = l
	}
}

// WithWriterLogger attaches a logger; nil discards.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// NewWriter returns a Writer targeting w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	pw := &Writer{
		w:               w,
		mountPoint:      DefaultMountPoint,
		oodleCompressor: oodle.CompressorKraken,
		oodleLevel:      oodle.LevelNormal,
	}
	for _, opt := range opts {
		opt(pw)
	}
	return pw
}

func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w.logger
}

// WriteEntry stores data under the slash-normalized name. MethodNone
// stores the bytes verbatim; other methods compress in 64 KiB blocks.
func (w *Writer) WriteEntry(name string, data []byte, method Method) error {
	if w.done {
		return fmt.Errorf("%w: index already written", ErrWrite)
	}
	e := &entry{
		Offset:           w.offset,
		UncompressedSize: uint64(len(data)),
		Method:           method,
	}

	stored := data
	if method != MethodNone {
		var err error
		stored, err = w.compressBlocks(e, data, method)
		if err != nil {
			return fmt.Errorf("%w: entry %s: %v", ErrWrite, name, err)
		}
	}
	e.CompressedSize = uint64(len(stored))
	e.Hash = sha1.Sum(stored)

	// Data-region copy of the record carries a zero offset.
	if err := e.write(w.w, false); err != nil {
		return fmt.Errorf("%w: entry %s: %v", ErrWrite, name, err)
	}
	if _, err := w.w.Write(stored); err != nil {
		return fmt.Errorf("%w: entry %s: %v", ErrWrite, name, err)
	}

	// Block ranges are absolute file positions of the compressed
	// spans, which start right behind the record.
	if method != MethodNone {
		base := w.offset + e.serializedSize()
		for i := range e.Blocks {
			e.Blocks[i].Start += base
			e.Blocks[i].End += base
		}
	}

	w.offset += e.serializedSize() + uint64(len(stored))
	w.names = append(w.names, name)
	w.entries = append(w.entries, e)
	w.log().Debug("pak entry written", "name", name, "raw", len(data), "stored", len(stored), "method", method.String())
	return nil
}

// compressBlocks splits data into 64 KiB blocks and compresses each,
// recording record-relative block ranges (rebased by the caller).
func (w *Writer) compressBlocks(e *entry, data []byte, method Method) ([]byte, error) {
	e.BlockSize = compressionBlockSize
	var out bytes.Buffer
	for off := 0; off < len(data) || (off == 0 && len(data) == 0); off += compressionBlockSize {
		end := min(off+compressionBlockSize, len(data))
		raw := data[off:end]
		var comp []byte
		switch method {
		case MethodZlib:
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			if _, err := zw.Write(raw); err != nil {
				return nil, err
			}
			if err := zw.Close(); err != nil {
				return nil, err
			}
			comp = buf.Bytes()
		case MethodOodle:
			codec, err := oodle.Load()
			if err != nil {
				return nil, err
			}
			comp, err = codec.Compress(raw, w.oodleCompressor, w.oodleLevel)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported method %d", method)
		}
		start := uint64(out.Len())
		out.Write(comp)
		e.Blocks = append(e.Blocks, block{Start: start, End: uint64(out.Len())})
		if len(data) == 0 {
			break
		}
	}
	return out.Bytes(), nil
}

// WriteIndex serializes the index and footer. No entries may be added
// afterwards.
func (w *Writer) WriteIndex() error {
	if w.done {
		return fmt.Errorf("%w: index already written", ErrWrite)
	}
	w.done = true

	var idx bytes.Buffer
	if err := writeString(&idx, w.mountPoint); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := writeAll(&idx, le32(uint32(len(w.entries)))); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := writeAll(&idx, le64(w.seed)); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	// Path-hash index: seeded hash of each mounted path to its
	// ordinal in the directory listing.
	for i, name := range w.names {
		if err := writeAll(&idx, le64(PathHash(name, w.seed))); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		if err := writeAll(&idx, le32(uint32(i))); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	// Full directory index: path plus the index copy of each record.
	for i, name := range w.names {
		if err := writeString(&idx, name); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		if err := w.entries[i].write(&idx, true); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	indexBytes := idx.Bytes()
	f := &footer{
		Magic:       Magic,
		Version:     VersionV11,
		IndexOffset: w.offset,
	}
	if w.key != nil {
		var err error
		indexBytes, err = encryptIndex(*w.key, indexBytes)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		f.EncryptedIndex = true
	}
	f.IndexSize = uint64(len(indexBytes))
	f.IndexHash = sha1.Sum(indexBytes)
	for i, name := range methodNames {
		copy(f.MethodNames[i][:], name)
	}

	if _, err := w.w.Write(indexBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := f.write(w.w); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	w.log().Info("pak index written", "entries", len(w.entries), "mount", w.mountPoint, "encrypted", f.EncryptedIndex)
	return nil
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
