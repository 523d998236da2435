package iostore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// TOC is the parsed view of a .utoc needed by the install pipeline:
// the file listing and the container parameters.
type TOC struct {
	EngineVersion EngineVersion
	PathHashSeed  uint64
	ChunkCount    int
	BlockCount    int
	Compressed    bool
	// Files holds the slash-normalized relative paths from the
	// directory index, in chunk order.
	Files []string
}

// ReadTOC parses the .utoc at path. Only the header and directory
// index are consumed; chunk payloads stay untouched.
func ReadTOC(path string) (*TOC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTOC, err)
	}
	defer f.Close()
	return parseTOC(f)
}

func parseTOC(r io.Reader) (*TOC, error) {
	var magic [16]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTOC, err)
	}
	if magic != tocMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadTOC)
	}

	var fixed struct {
		Version          uint32
		ChunkCount       uint32
		BlockCount       uint32
		MethodCount      uint32
		MethodNameLen    uint32
		BlockSize        uint32
		DirIndexSize     uint32
		PartitionCount   uint32
		UncompressedSize uint64
		KeyGUID          [16]byte
		Flags            uint32
		Engine           uint32
		Seed             uint64
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTOC, err)
	}
	if fixed.Version != tocVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadTOC, fixed.Version)
	}

	// Skip the chunk-id, offset+length, block, and method tables to
	// land on the directory index.
	skip := int64(fixed.ChunkCount)*12 + int64(fixed.ChunkCount)*10 +
		int64(fixed.BlockCount)*12 + int64(fixed.MethodCount)*int64(fixed.MethodNameLen)
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTOC, err)
	}

	dir := make([]byte, fixed.DirIndexSize)
	if _, err := io.ReadFull(r, dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTOC, err)
	}

	toc := &TOC{
		EngineVersion: EngineVersion(fixed.Engine),
		PathHashSeed:  fixed.Seed,
		ChunkCount:    int(fixed.ChunkCount),
		BlockCount:    int(fixed.BlockCount),
		Compressed:    fixed.Flags&flagCompressed != 0,
	}

	off := 0
	next32 := func() (uint32, error) {
		if off+4 > len(dir) {
			return 0, fmt.Errorf("%w: truncated directory index", ErrBadTOC)
		}
		v := binary.LittleEndian.Uint32(dir[off:])
		off += 4
		return v, nil
	}
	count, err := next32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		strLen, err := next32()
		if err != nil {
			return nil, err
		}
		if strLen == 0 || off+int(strLen) > len(dir) {
			return nil, fmt.Errorf("%w: truncated path", ErrBadTOC)
		}
		toc.Files = append(toc.Files, string(dir[off:off+int(strLen)-1]))
		off += int(strLen)
		if _, err := next32(); err != nil { // chunk ordinal
			return nil, err
		}
	}
	return toc, nil
}
