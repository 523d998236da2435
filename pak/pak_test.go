package pak

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPak(t *testing.T, files map[string][]byte, method Method, opts ...WriterOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, opts...)
	// Stable write order for reproducible containers.
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	for _, name := range sorted(names) {
		require.NoError(t, w.WriteEntry(name, files[name], method))
	}
	require.NoError(t, w.WriteIndex())
	return buf.Bytes()
}

func sorted(names []string) []string {
	out := append([]string(nil), names...)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func TestRoundTripUncompressed(t *testing.T) {
	files := map[string][]byte{
		"Mods/chunknames":     []byte("Meshes/A.uasset\nMeshes/A.uexp"),
		"Content/empty.bin":   {},
		"Content/payload.bin": bytes.Repeat([]byte{0xAB, 0xCD}, 5000),
	}
	data := buildPak(t, files, MethodNone, WithMountPoint("../../../"), WithPathHashSeed(0x1234))

	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "../../../", r.MountPoint())
	assert.Equal(t, uint64(0x1234), r.PathHashSeed())
	assert.Len(t, r.Files(), 3)

	for name, want := range files {
		got, err := r.Read(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestRoundTripZlib(t *testing.T) {
	// Spans multiple 64 KiB blocks to exercise block splitting.
	big := bytes.Repeat([]byte("the quick brown fox "), 10000)
	files := map[string][]byte{"big.txt": big, "small.txt": []byte("hi")}
	data := buildPak(t, files, MethodZlib)

	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	got, err := r.Read("big.txt")
	require.NoError(t, err)
	assert.Equal(t, big, got)
	got, err = r.Read("small.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got)
	// Compression must actually shrink the highly repetitive entry.
	assert.Less(t, len(data), len(big))
}

func TestRoundTripEncryptedIndex(t *testing.T) {
	key, err := ParseAESKey("0C263D8C22DCB085894899C3A3796383E9BF9DE0CBFB08C9BF2DEF2E84F29D74")
	require.NoError(t, err)

	files := map[string][]byte{"a.txt": []byte("alpha"), "b.txt": []byte("beta")}
	data := buildPak(t, files, MethodNone, WithWriterKey(key))

	// Without the key the index is unreadable.
	_, err = NewReader(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)

	r, err := NewReader(bytes.NewReader(data), int64(len(data)), WithReaderKey(key))
	require.NoError(t, err)
	got, err := r.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), got)
}

func TestReadMissingEntry(t *testing.T) {
	data := buildPak(t, map[string][]byte{"a": []byte("x")}, MethodNone)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	_, err = r.Read("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader(make([]byte, footerSize+16)), footerSize+16)
	require.Error(t, err)
}

func TestParseAESKey(t *testing.T) {
	hexKey := "0C263D8C22DCB085894899C3A3796383E9BF9DE0CBFB08C9BF2DEF2E84F29D74"
	k1, err := ParseAESKey(hexKey)
	require.NoError(t, err)
	k2, err := ParseAESKey("0x" + hexKey)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	// Base64 spelling of the same bytes.
	k3, err := ParseAESKey("DCY9jCLcsIWJSJnDo3ljg+m/neDL+wjJvy3vLoTynXQ=")
	require.NoError(t, err)
	assert.Equal(t, k1, k3)

	_, err = ParseAESKey("tooshort")
	assert.Error(t, err)
}

func TestPathHashSeeded(t *testing.T) {
	// Same path, different seeds, different hashes; case-insensitive.
	assert.NotEqual(t, PathHash("Meshes/A.uasset", 0), PathHash("Meshes/A.uasset", 1))
	assert.Equal(t, PathHash("MESHES/a.UASSET", 7), PathHash("meshes/a.uasset", 7))
}

func TestExtractAll(t *testing.T) {
	files := map[string][]byte{
		"Meshes/A.uasset":   []byte("mesh header"),
		"Meshes/A.uexp":     []byte("mesh payload"),
		"Textures/T.uasset": []byte("texture"),
	}
	data := buildPak(t, files, MethodZlib)
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.pak")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	dest := t.TempDir()
	require.NoError(t, r.ExtractAll(context.Background(), dest))
	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
