package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uemod/pakcore/classify"
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/iostore"
	"github.com/uemod/pakcore/pak"
)

func writePak(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	w := pak.NewWriter(&buf)
	for name, data := range files {
		require.NoError(t, w.WriteEntry(name, data, pak.MethodNone))
	}
	require.NoError(t, w.WriteIndex())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "CoolSkin", "Content", "Characters", "Hero")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "Body.uasset"), []byte("x"), 0o644))

	res, err := Ingest(context.Background(), []string{filepath.Join(dir, "CoolSkin")})
	require.NoError(t, err)
	defer res.Close()

	require.Len(t, res.Mods, 1)
	mod := res.Mods[0]
	assert.Equal(t, "CoolSkin", mod.Name)
	assert.True(t, mod.IsDir)
	assert.True(t, mod.Repak)
	assert.True(t, mod.Enabled)
	assert.Equal(t, classify.TypeCharacter, mod.Type)
}

func TestIngestLonePak(t *testing.T) {
	dir := t.TempDir()
	pakPath := filepath.Join(dir, "AudioMod.pak")
	writePak(t, pakPath, map[string][]byte{"Content/WwiseAudio/1.wem": []byte("wem")})

	res, err := Ingest(context.Background(), []string{pakPath})
	require.NoError(t, err)
	defer res.Close()

	require.Len(t, res.Mods, 1)
	mod := res.Mods[0]
	assert.Equal(t, "AudioMod", mod.Name)
	assert.False(t, mod.IsDir)
	assert.False(t, mod.IoStore)
	assert.True(t, mod.Repak)
	assert.Equal(t, classify.TypeAudio, mod.Type)
}

func TestIngestLonePakDirectCopy(t *testing.T) {
	dir := t.TempDir()
	pakPath := filepath.Join(dir, "Mod.pak")
	writePak(t, pakPath, map[string][]byte{"a.bin": []byte("x")})

	res, err := Ingest(context.Background(), []string{pakPath}, WithRepakLoosePaks(false))
	require.NoError(t, err)
	defer res.Close()
	assert.False(t, res.Mods[0].Repak)
}

func TestIngestIoStoreTriple(t *testing.T) {
	dir := t.TempDir()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "Content", "Movies"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Content", "Movies", "Intro.bk2"), []byte("vid"), 0o644))

	_, err := iostore.Convert(context.Background(), src, filepath.Join(dir, "Cinematic.utoc"))
	require.NoError(t, err)
	writePak(t, filepath.Join(dir, "Cinematic.pak"), map[string][]byte{"chunknames": []byte("Content/Movies/Intro.bk2")})

	res, err := Ingest(context.Background(), []string{filepath.Join(dir, "Cinematic.pak")})
	require.NoError(t, err)
	defer res.Close()

	require.Len(t, res.Mods, 1)
	mod := res.Mods[0]
	assert.True(t, mod.IoStore)
	assert.False(t, mod.Repak, "iostore and repak strategies are disjoint")
	assert.Equal(t, classify.TypeMovies, mod.Type)
}

func TestIngestZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "HeroSkin.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("Content/Characters/Hero/Body.uasset")
	require.NoError(t, err)
	_, err = f.Write([]byte("mesh"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(zipPath, buf.Bytes(), 0o644))

	res, err := Ingest(context.Background(), []string{zipPath})
	require.NoError(t, err)
	defer res.Close()

	require.Len(t, res.Mods, 1)
	mod := res.Mods[0]
	assert.Equal(t, "HeroSkin", mod.Name, "archive stem becomes the mod name")
	assert.True(t, mod.IsDir)
	assert.Equal(t, classify.TypeCharacter, mod.Type)

	// The staged tree holds the extracted content until Close.
	extracted := filepath.Join(mod.Path, "Content", "Characters", "Hero", "Body.uasset")
	data, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Equal(t, []byte("mesh"), data)

	require.NoError(t, res.Close())
	_, err = os.Stat(mod.Path)
	assert.True(t, os.IsNotExist(err), "staging removed on Close")
}

func TestIngestZipContainingPak(t *testing.T) {
	dir := t.TempDir()
	pakPath := filepath.Join(dir, "inner.pak")
	writePak(t, pakPath, map[string][]byte{"Content/Maps/Arena.umap": []byte("map")})
	pakBytes, err := os.ReadFile(pakPath)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("inner.pak")
	require.NoError(t, err)
	_, err = f.Write(pakBytes)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zipPath := filepath.Join(dir, "MapPack.zip")
	require.NoError(t, os.WriteFile(zipPath, buf.Bytes(), 0o644))

	res, err := Ingest(context.Background(), []string{zipPath})
	require.NoError(t, err)
	defer res.Close()

	require.Len(t, res.Mods, 1)
	assert.Equal(t, "MapPack", res.Mods[0].Name)
	assert.False(t, res.Mods[0].IsDir)
	assert.Equal(t, classify.TypeMap, res.Mods[0].Type)
}

func TestIngestUnsupported(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hi"), 0o644))

	_, err := Ingest(context.Background(), []string{bad})
	assert.ErrorIs(t, err, install.ErrUnsupportedInput)
}

func TestSafeJoinRejectsTraversal(t *testing.T) {
	_, err := safeJoin(t.TempDir(), "../escape.txt")
	assert.Error(t, err)
}
