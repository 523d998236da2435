package uasset

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHeader assembles a minimal cooked-asset header: package magic,
// opaque filler, then the name block as length-prefixed NUL-terminated
// strings in index order.
func buildHeader(names ...string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, packageMagic)
	buf.Write(bytes.Repeat([]byte{0xFF}, 24))
	for _, name := range names {
		binary.Write(&buf, binary.LittleEndian, uint32(len(name)+1))
		buf.WriteString(name)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func TestScanNames(t *testing.T) {
	data := buildHeader("Texture2D", "MipGenSettings", "TMGS_NoMipmaps")
	names := scanNames(data)
	require.Equal(t, []string{"Texture2D", "MipGenSettings", "TMGS_NoMipmaps"}, names.names)
	i, ok := names.lookup("MipGenSettings")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.False(t, names.has("SkeletalMesh"))
}

func writePair(t *testing.T, dir string, header, payload []byte) (string, string) {
	t.Helper()
	uasset := filepath.Join(dir, "T.uasset")
	uexp := filepath.Join(dir, "T.uexp")
	require.NoError(t, os.WriteFile(uasset, header, 0o644))
	require.NoError(t, os.WriteFile(uexp, payload, 0o644))
	return uasset, uexp
}

func textureFixture(t *testing.T) (uassetPath, uexpPath string) {
	t.Helper()
	header := buildHeader("Texture2D", "MipGenSettings", "TMGS_SimpleAverage", "TMGS_NoMipmaps")
	var payload bytes.Buffer
	payload.Write(bytes.Repeat([]byte{0xFF}, 16))
	payload.Write(fnameBytes(1)) // MipGenSettings property tag
	payload.Write(bytes.Repeat([]byte{0xFF}, 12))
	payload.Write(fnameBytes(2)) // current value: TMGS_SimpleAverage
	payload.Write(bytes.Repeat([]byte{0xFF}, 16))
	return writePair(t, t.TempDir(), header, payload.Bytes())
}

func TestPatchTextureMips(t *testing.T) {
	uasset, uexp := textureFixture(t)

	res, err := PatchTextureMips(uasset, uexp, nil)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)

	// A backup of the mutated file exists and holds the original.
	bak, err := os.ReadFile(uexp + ".bak")
	require.NoError(t, err)
	assert.Equal(t, fnameBytes(1), bak[16:24])

	// The value now references TMGS_NoMipmaps.
	patched, err := os.ReadFile(uexp)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(patched, fnameBytes(3)))
	assert.False(t, bytes.Contains(patched, fnameBytes(2)))
}

func TestPatchTextureMipsIdempotent(t *testing.T) {
	uasset, uexp := textureFixture(t)

	res, err := PatchTextureMips(uasset, uexp, nil)
	require.NoError(t, err)
	require.Equal(t, Applied, res)
	after, err := os.ReadFile(uexp)
	require.NoError(t, err)

	res, err = PatchTextureMips(uasset, uexp, nil)
	require.NoError(t, err)
	assert.Equal(t, NotNeeded, res)
	again, err := os.ReadFile(uexp)
	require.NoError(t, err)
	assert.Equal(t, after, again)
}

func TestPatchTextureNotApplicable(t *testing.T) {
	// Texture without TMGS_NoMipmaps in its name table cannot be
	// patched in place.
	header := buildHeader("Texture2D", "MipGenSettings", "TMGS_SimpleAverage")
	uasset, uexp := writePair(t, t.TempDir(), header, bytes.Repeat([]byte{0xFF}, 32))
	res, err := PatchTextureMips(uasset, uexp, nil)
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, res)
	_, err = os.Stat(uexp + ".bak")
	assert.True(t, os.IsNotExist(err), "untouched asset must not gain a backup")
}

func TestPatchTextureNonAsset(t *testing.T) {
	dir := t.TempDir()
	uasset := filepath.Join(dir, "junk.uasset")
	require.NoError(t, os.WriteFile(uasset, []byte("not an asset"), 0o644))
	res, err := PatchTextureMips(uasset, filepath.Join(dir, "junk.uexp"), nil)
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, res)
}

func TestPatchTextures(t *testing.T) {
	uasset, _ := textureFixture(t)
	n := PatchTextures(context.Background(), []string{uasset}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 1, n)
}

func meshFixture(t *testing.T, packageName string) (root, uassetPath string) {
	t.Helper()
	root = t.TempDir()
	dir := filepath.Join(root, "Content", "X")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	uassetPath = filepath.Join(dir, "HeroMesh.uasset")
	header := buildHeader("SkeletalMesh", packageName)
	require.NoError(t, os.WriteFile(uassetPath, header, 0o644))
	return root, uassetPath
}

func TestPatchMeshTarget(t *testing.T) {
	// Same-length redirect: /Game/Y/HeroMesh -> /Game/X/HeroMesh.
	root, uasset := meshFixture(t, "/Game/Y/HeroMesh")

	res, err := PatchMeshTarget(uasset, root)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)

	data, err := os.ReadFile(uasset)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("/Game/X/HeroMesh")))
	assert.False(t, bytes.Contains(data, []byte("/Game/Y/HeroMesh")))

	// Idempotent: second run is a no-op.
	res, err = PatchMeshTarget(uasset, root)
	require.NoError(t, err)
	assert.Equal(t, NotNeeded, res)
}

func TestPatchMeshLengthMismatch(t *testing.T) {
	root, uasset := meshFixture(t, "/Game/Somewhere/Else/HeroMesh")
	res, err := PatchMeshTarget(uasset, root)
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, res)
}

func TestPatchMeshes(t *testing.T) {
	root, uasset := meshFixture(t, "/Game/Y/HeroMesh")
	n := PatchMeshes([]string{uasset}, root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 1, n)
}

func TestBridgeUnavailable(t *testing.T) {
	b := NewBridge(filepath.Join(t.TempDir(), "no-such-binary"), nil)
	assert.False(t, b.Available())
}
