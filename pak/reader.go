package pak

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/sync/errgroup"

	"github.com/uemod/pakcore/oodle"
)

// Reader parses a PAK v11 container and reads entries from it. A
// Reader is safe for concurrent Read calls; the underlying source is
// accessed only through ReadAt.
type Reader struct {
	r    io.ReaderAt
	size int64
	key  *AESKey

	mountPoint string
	seed       uint64
	names      []string
	entries    map[string]*entry

	closer io.Closer
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderKey supplies the AES key used to decrypt an encrypted
// index.
func WithReaderKey(key AESKey) ReaderOption {
	return func(r *Reader) { r.key = &key }
}

// NewReader parses the container in r, which must span size bytes.
func NewReader(r io.ReaderAt, size int64, opts ...ReaderOption) (*Reader, error) {
	pr := &Reader{r: r, size: size, entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(pr)
	}
	if err := pr.parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return pr, nil
}

// Open opens the pak file at path. Close releases the file handle.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	r, err := NewReader(f, info.Size(), opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Close releases the underlying file when the Reader was created via
// Open; otherwise it is a no-op.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) parse() error {
	f, err := readFooter(r.r, r.size)
	if err != nil {
		return err
	}

	indexBytes := make([]byte, f.IndexSize)
	if _, err := r.r.ReadAt(indexBytes, int64(f.IndexOffset)); err != nil {
		return err
	}
	if sha1.Sum(indexBytes) != f.IndexHash {
		return ErrIndexHash
	}
	if f.EncryptedIndex {
		if r.key == nil {
			return fmt.Errorf("index is encrypted and no key was supplied")
		}
		if err := decryptIndex(*r.key, indexBytes); err != nil {
			return err
		}
	}

	sr := &sliceReader{buf: indexBytes}
	if r.mountPoint, err = sr.str(); err != nil {
		return err
	}
	count, err := sr.u32()
	if err != nil {
		return err
	}
	if r.seed, err = sr.u64(); err != nil {
		return err
	}
	// Path-hash index; the full directory listing behind it is
	// authoritative, so the hashes are only validated, not stored.
	for i := uint32(0); i < count; i++ {
		if _, err := sr.u64(); err != nil {
			return err
		}
		if _, err := sr.u32(); err != nil {
			return err
		}
	}
	for i := uint32(0); i < count; i++ {
		name, err := sr.str()
		if err != nil {
			return err
		}
		e, err := readEntry(sr)
		if err != nil {
			return err
		}
		r.names = append(r.names, name)
		r.entries[name] = e
	}
	return nil
}

// MountPoint returns the mount prefix stored in the index.
func (r *Reader) MountPoint() string { return r.mountPoint }

// PathHashSeed returns the container's path-hash seed.
func (r *Reader) PathHashSeed() uint64 { return r.seed }

// Files lists entry paths in index order.
func (r *Reader) Files() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of entries.
func (r *Reader) Len() int { return len(r.names) }

// Read returns the decompressed content of the named entry.
func (r *Reader) Read(name string) ([]byte, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	stored := make([]byte, e.CompressedSize)
	payloadOff := int64(e.Offset + e.serializedSize())
	if _, err := r.r.ReadAt(stored, payloadOff); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, name, err)
	}
	if sha1.Sum(stored) != e.Hash {
		return nil, fmt.Errorf("%w: %s: payload hash mismatch", ErrRead, name)
	}
	if e.Method == MethodNone {
		return stored, nil
	}

	out := make([]byte, 0, e.UncompressedSize)
	remaining := e.UncompressedSize
	for _, b := range e.Blocks {
		comp := stored[b.Start-uint64(payloadOff) : b.End-uint64(payloadOff)]
		rawLen := min(uint64(e.BlockSize), remaining)
		raw, err := r.decompressBlock(e.Method, comp, int(rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRead, name, err)
		}
		out = append(out, raw...)
		remaining -= uint64(len(raw))
	}
	if uint64(len(out)) != e.UncompressedSize {
		return nil, fmt.Errorf("%w: %s: decompressed %d bytes, want %d", ErrRead, name, len(out), e.UncompressedSize)
	}
	return out, nil
}

func (r *Reader) decompressBlock(method Method, comp []byte, rawLen int) ([]byte, error) {
	switch method {
	case MethodZlib:
		zr, err := zlib.NewReader(bytes.NewReader(comp))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case MethodOodle:
		codec, err := oodle.Load()
		if err != nil {
			return nil, err
		}
		out := make([]byte, rawLen)
		n := codec.Decompress(comp, out)
		if n != int64(rawLen) {
			return nil, fmt.Errorf("oodle decode returned %d, want %d", n, rawLen)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported method %d", method)
}

// ExtractAll writes every entry beneath dest, creating directories as
// needed. Entries are extracted in parallel, bounded by GOMAXPROCS.
func (r *Reader) ExtractAll(ctx context.Context, dest string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range r.names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.Read(name)
			if err != nil {
				return err
			}
			target := filepath.Join(dest, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			return os.WriteFile(target, data, 0o644)
		})
	}
	return g.Wait()
}
