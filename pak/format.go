package pak

import (
	"encoding/binary"
	"fmt"
	"io"
)

// footerSize is the byte length of the fixed v11 footer: encryption
// GUID, encrypted-index flag, magic, version, index offset/size/hash,
// and five 32-byte compression method names.
const footerSize = 16 + 1 + 4 + 4 + 8 + 8 + 20 + 5*32

// footer is the trailer record the reader locates by seeking to
// size-footerSize.
type footer struct {
	EncryptionGUID [16]byte
	EncryptedIndex bool
	Magic          uint32
	Version        uint32
	IndexOffset    uint64
	IndexSize      uint64
	IndexHash      [20]byte
	MethodNames    [5][32]byte
}

func (f *footer) write(w io.Writer) error {
	if _, err := w.Write(f.EncryptionGUID[:]); err != nil {
		return err
	}
	var enc byte
	if f.EncryptedIndex {
		enc = 1
	}
	if err := writeAll(w, []byte{enc}); err != nil {
		return err
	}
	for _, v := range []uint32{f.Magic, f.Version} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, v := range []uint64{f.IndexOffset, f.IndexSize} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := writeAll(w, f.IndexHash[:]); err != nil {
		return err
	}
	for i := range f.MethodNames {
		if err := writeAll(w, f.MethodNames[i][:]); err != nil {
			return err
		}
	}
	return nil
}

func readFooter(r io.ReaderAt, size int64) (*footer, error) {
	if size < footerSize {
		return nil, fmt.Errorf("file too small for a pak footer (%d bytes)", size)
	}
	buf := make([]byte, footerSize)
	if _, err := r.ReadAt(buf, size-footerSize); err != nil {
		return nil, err
	}
	f := &footer{}
	copy(f.EncryptionGUID[:], buf[:16])
	f.EncryptedIndex = buf[16] != 0
	f.Magic = binary.LittleEndian.Uint32(buf[17:])
	f.Version = binary.LittleEndian.Uint32(buf[21:])
	f.IndexOffset = binary.LittleEndian.Uint64(buf[25:])
	f.IndexSize = binary.LittleEndian.Uint64(buf[33:])
	copy(f.IndexHash[:], buf[41:61])
	for i := range f.MethodNames {
		copy(f.MethodNames[i][:], buf[61+i*32:])
	}
	if f.Magic != Magic {
		return nil, ErrBadMagic
	}
	if f.Version != VersionV11 {
		return nil, fmt.Errorf("%w: %d", ErrVersion, f.Version)
	}
	return f, nil
}

// block is one compression block's absolute byte range in the file.
type block struct {
	Start uint64
	End   uint64
}

// entry describes one stored file. The same record is serialized
// twice: immediately before the payload in the data region (with a
// zero offset) and in the index (with the absolute offset).
type entry struct {
	Offset           uint64
	CompressedSize   uint64
	UncompressedSize uint64
	Method           Method
	Hash             [20]byte // SHA-1 of the stored (compressed) bytes
	Blocks           []block
	Encrypted        bool
	BlockSize        uint32
}

// serializedSize returns the on-disk record length, needed to locate
// the payload behind the data-region copy.
func (e *entry) serializedSize() uint64 {
	n := uint64(8 + 8 + 8 + 4 + 20)
	if e.Method != MethodNone {
		n += 4 + uint64(len(e.Blocks))*16
	}
	n += 1 + 4
	return n
}

func (e *entry) write(w io.Writer, withOffset bool) error {
	offset := e.Offset
	if !withOffset {
		offset = 0
	}
	for _, v := range []uint64{offset, e.CompressedSize, e.UncompressedSize} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(e.Method)); err != nil {
		return err
	}
	if err := writeAll(w, e.Hash[:]); err != nil {
		return err
	}
	if e.Method != MethodNone {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(e.Blocks))); err != nil {
			return err
		}
		for _, b := range e.Blocks {
			for _, v := range []uint64{b.Start, b.End} {
				if err := binary.Write(w, binary.LittleEndian, v); err != nil {
					return err
				}
			}
		}
	}
	var enc byte
	if e.Encrypted {
		enc = 1
	}
	if err := writeAll(w, []byte{enc}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, e.BlockSize)
}

func readEntry(r *sliceReader) (*entry, error) {
	e := &entry{}
	var err error
	if e.Offset, err = r.u64(); err != nil {
		return nil, err
	}
	if e.CompressedSize, err = r.u64(); err != nil {
		return nil, err
	}
	if e.UncompressedSize, err = r.u64(); err != nil {
		return nil, err
	}
	m, err := r.u32()
	if err != nil {
		return nil, err
	}
	e.Method = Method(m)
	if err := r.bytes(e.Hash[:]); err != nil {
		return nil, err
	}
	if e.Method != MethodNone {
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		e.Blocks = make([]block, count)
		for i := range e.Blocks {
			if e.Blocks[i].Start, err = r.u64(); err != nil {
				return nil, err
			}
			if e.Blocks[i].End, err = r.u64(); err != nil {
				return nil, err
			}
		}
	}
	enc, err := r.u8()
	if err != nil {
		return nil, err
	}
	e.Encrypted = enc != 0
	bs, err := r.u32()
	if err != nil {
		return nil, err
	}
	e.BlockSize = bs
	return e, nil
}

// writeString emits a UE FString: length including the NUL, UTF-8
// bytes, terminating NUL.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s)+1)); err != nil {
		return err
	}
	if err := writeAll(w, []byte(s)); err != nil {
		return err
	}
	return writeAll(w, []byte{0})
}

func writeAll(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// sliceReader is a cursor over a decrypted index buffer.
type sliceReader struct {
	buf []byte
	off int
}

func (r *sliceReader) remain() int { return len(r.buf) - r.off }

func (r *sliceReader) bytes(dst []byte) error {
	if r.remain() < len(dst) {
		return io.ErrUnexpectedEOF
	}
	copy(dst, r.buf[r.off:])
	r.off += len(dst)
	return nil
}

func (r *sliceReader) u8() (byte, error) {
	if r.remain() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *sliceReader) u32() (uint32, error) {
	if r.remain() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *sliceReader) u64() (uint64, error) {
	if r.remain() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *sliceReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if n == 0 || r.remain() < int(n) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.buf[r.off : r.off+int(n)-1])
	r.off += int(n)
	return s, nil
}
