package iostore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/uemod/pakcore/internal/pathutil"
	"github.com/uemod/pakcore/oodle"
	"github.com/uemod/pakcore/pak"
)

// config carries conversion parameters. AES keys are registered per
// encryption-key GUID the way the engine tooling expects; the writer
// records the zero GUID in the header so readers know which key the
// container was built against.
type config struct {
	compression EngineCompression
	engine      EngineVersion
	seed        uint64
	aesKeys     map[[16]byte]pak.AESKey
	oodleCodec  oodle.Compressor
	oodleLevel  oodle.Level
	logger      *slog.Logger
}

// EngineCompression aliases Compression for option readability.
type EngineCompression = Compression

// Option configures a conversion.
type Option func(*config)

// WithCompression selects the .ucas block codec.
func WithCompression(c Compression) Option {
	return func(cfg *config) { cfg.compression = c }
}

// WithEngineVersion sets the target engine release.
func WithEngineVersion(v EngineVersion) Option {
	return func(cfg *config) { cfg.engine = v }
}

// WithPathHashSeed seeds the chunk-id hash.
func WithPathHashSeed(seed uint64) Option {
	return func(cfg *config) { cfg.seed = seed }
}

// WithAESKey registers a TOC key under an encryption-key GUID.
func WithAESKey(guid [16]byte, key pak.AESKey) Option {
	return func(cfg *config) { cfg.aesKeys[guid] = key }
}

// WithOodleSettings selects codec and level for CompressionOodle.
func WithOodleSettings(c oodle.Compressor, l oodle.Level) Option {
	return func(cfg *config) {
		cfg.oodleCodec = c
		cfg.oodleLevel = l
	}
}

// WithLogger attaches a logger; nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// Result describes a produced container pair.
type Result struct {
	UTOCPath string
	UCASPath string
	// Files holds the slash-normalized relative paths included, in
	// chunk order (sorted).
	Files []string
}

// Convert walks srcDir and writes the container pair at utocPath and
// its .ucas sibling. An empty directory yields a valid empty pair.
func Convert(ctx context.Context, srcDir, utocPath string, opts ...Option) (*Result, error) {
	cfg := config{
		engine:     UE5_3,
		aesKeys:    make(map[[16]byte]pak.AESKey),
		oodleCodec: oodle.CompressorKraken,
		oodleLevel: oodle.LevelNormal,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ucasPath := strings.TrimSuffix(utocPath, filepath.Ext(utocPath)) + ".ucas"
	logger.Info("converting directory to iostore", "dir", srcDir, "utoc", utocPath, "compression", cfg.compression.String())

	abs, err := pathutil.CollectFiles(srcDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	ucas, err := os.Create(ucasPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	defer ucas.Close()

	w := &tocWriter{cfg: cfg, logger: logger}
	for _, p := range abs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		rel, err := pathutil.Rel(srcDir, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		if err := w.addChunk(ucas, rel, data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConversion, rel, err)
		}
	}
	if err := ucas.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	toc, err := os.Create(utocPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	defer toc.Close()
	if err := w.writeTOC(toc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	if err := toc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	logger.Info("iostore pair written", "chunks", len(w.files), "blocks", len(w.blocks))
	return &Result{UTOCPath: utocPath, UCASPath: ucasPath, Files: w.files}, nil
}

// chunkMeta is the per-chunk bookkeeping accumulated while the .ucas
// streams out.
type chunkMeta struct {
	id     chunkID
	offset uint64 // uncompressed stream offset
	length uint64 // uncompressed length
}

type chunkID struct {
	Hash  uint64
	Index uint16
	Type  uint8
}

// blockMeta is one compression-block record.
type blockMeta struct {
	Offset           uint64 // position in .ucas
	CompressedSize   uint32
	UncompressedSize uint32
	Method           uint8
}

type tocWriter struct {
	cfg    config
	logger *slog.Logger

	files      []string
	chunks     []chunkMeta
	blocks     []blockMeta
	ucasOffset uint64
	rawOffset  uint64
	compressed bool

	zstdEnc *zstd.Encoder
}

// addChunk appends one file's content to the .ucas as a run of
// blocks and records its chunk entry.
func (w *tocWriter) addChunk(ucas io.Writer, rel string, data []byte) error {
	meta := chunkMeta{
		id: chunkID{
			Hash: pak.PathHash(rel, w.cfg.seed),
			Type: chunkTypePackageData,
		},
		offset: w.rawOffset,
		length: uint64(len(data)),
	}

	for off := 0; off < len(data) || (off == 0 && len(data) == 0); off += blockSize {
		end := min(off+blockSize, len(data))
		raw := data[off:end]
		stored, method, err := w.compressBlock(raw)
		if err != nil {
			return err
		}
		if err := w.writeAligned(ucas, stored); err != nil {
			return err
		}
		w.blocks = append(w.blocks, blockMeta{
			Offset:           w.ucasOffset,
			CompressedSize:   uint32(len(stored)),
			UncompressedSize: uint32(len(raw)),
			Method:           method,
		})
		w.ucasOffset += alignUp(uint64(len(stored)))
		if len(data) == 0 {
			break
		}
	}

	w.rawOffset += uint64(len(data))
	w.files = append(w.files, rel)
	w.chunks = append(w.chunks, meta)
	w.logger.Debug("chunk staged", "path", rel, "bytes", len(data))
	return nil
}

// compressBlock returns the stored bytes and the method slot used.
// Blocks that do not shrink are stored raw, matching engine behavior.
func (w *tocWriter) compressBlock(raw []byte) ([]byte, uint8, error) {
	switch w.cfg.compression {
	case CompressionNone:
		return raw, 0, nil
	case CompressionZstd:
		if w.zstdEnc == nil {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
			if err != nil {
				return nil, 0, err
			}
			w.zstdEnc = enc
		}
		comp := w.zstdEnc.EncodeAll(raw, nil)
		if len(comp) >= len(raw) {
			return raw, 0, nil
		}
		w.compressed = true
		return comp, uint8(CompressionZstd), nil
	case CompressionOodle:
		codec, err := oodle.Load()
		if err != nil {
			return nil, 0, err
		}
		comp, err := codec.Compress(raw, w.cfg.oodleCodec, w.cfg.oodleLevel)
		if err != nil {
			return nil, 0, err
		}
		if len(comp) >= len(raw) {
			return raw, 0, nil
		}
		w.compressed = true
		return comp, uint8(CompressionOodle), nil
	}
	return nil, 0, fmt.Errorf("unsupported compression %d", w.cfg.compression)
}

func (w *tocWriter) writeAligned(ucas io.Writer, stored []byte) error {
	if _, err := ucas.Write(stored); err != nil {
		return err
	}
	if pad := alignUp(uint64(len(stored))) - uint64(len(stored)); pad > 0 {
		if _, err := ucas.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func alignUp(n uint64) uint64 {
	return (n + blockAlign - 1) &^ uint64(blockAlign-1)
}

// writeTOC serializes the header and tables.
func (w *tocWriter) writeTOC(out io.Writer) error {
	var dirIndex bytes.Buffer
	if err := binary.Write(&dirIndex, binary.LittleEndian, uint32(len(w.files))); err != nil {
		return err
	}
	for i, rel := range w.files {
		if err := binary.Write(&dirIndex, binary.LittleEndian, uint32(len(rel)+1)); err != nil {
			return err
		}
		if _, err := dirIndex.WriteString(rel); err != nil {
			return err
		}
		if err := dirIndex.WriteByte(0); err != nil {
			return err
		}
		if err := binary.Write(&dirIndex, binary.LittleEndian, uint32(i)); err != nil {
			return err
		}
	}

	flags := flagIndexed
	if w.compressed {
		flags |= flagCompressed
	}
	var keyGUID [16]byte // zero GUID: the game's shared TOC key slot

	header := []any{
		tocMagic,
		tocVersion,
		uint32(len(w.chunks)),
		uint32(len(w.blocks)),
		uint32(len(methodNames)),
		uint32(32), // method name field width
		uint32(blockSize),
		uint32(dirIndex.Len()),
		uint32(1), // partition count
		uint64(w.rawOffset),
		keyGUID,
		flags,
		uint32(w.cfg.engine),
		w.cfg.seed,
	}
	for _, v := range header {
		if err := binary.Write(out, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	// Chunk-id table: 12 bytes per chunk.
	for _, c := range w.chunks {
		if err := binary.Write(out, binary.LittleEndian, c.id.Hash); err != nil {
			return err
		}
		if err := binary.Write(out, binary.LittleEndian, c.id.Index); err != nil {
			return err
		}
		if _, err := out.Write([]byte{0, c.id.Type}); err != nil {
			return err
		}
	}

	// Offset+length table: two 5-byte big-endian fields per chunk.
	for _, c := range w.chunks {
		if err := write5(out, c.offset); err != nil {
			return err
		}
		if err := write5(out, c.length); err != nil {
			return err
		}
	}

	// Compression-block table: 5-byte offset, 3-byte sizes, method.
	for _, b := range w.blocks {
		if err := write5(out, b.Offset); err != nil {
			return err
		}
		if err := write3(out, b.CompressedSize); err != nil {
			return err
		}
		if err := write3(out, b.UncompressedSize); err != nil {
			return err
		}
		if _, err := out.Write([]byte{b.Method}); err != nil {
			return err
		}
	}

	for _, name := range methodNames {
		var field [32]byte
		copy(field[:], name)
		if _, err := out.Write(field[:]); err != nil {
			return err
		}
	}

	_, err := out.Write(dirIndex.Bytes())
	return err
}

func write5(w io.Writer, v uint64) error {
	if v >= 1<<40 {
		return fmt.Errorf("value %d overflows 5-byte field", v)
	}
	_, err := w.Write([]byte{byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
	return err
}

func write3(w io.Writer, v uint32) error {
	if v >= 1<<24 {
		return fmt.Errorf("value %d overflows 3-byte field", v)
	}
	_, err := w.Write([]byte{byte(v >> 16), byte(v >> 8), byte(v)})
	return err
}
