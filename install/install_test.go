package install

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uemod/pakcore/classify"
	"github.com/uemod/pakcore/pak"
)

func newTestInstaller(t *testing.T, opts ...Option) *Installer {
	t.Helper()
	opts = append([]Option{WithTagStore(tempStore(t))}, opts...)
	in, err := New(opts...)
	require.NoError(t, err)
	return in
}

func stageDir(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for rel, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
	return dir
}

var stagingFiles = map[string][]byte{
	"Meshes/A.uasset":   []byte("mesh header"),
	"Meshes/A.uexp":     []byte("mesh payload"),
	"Textures/T.uasset": []byte("texture"),
}

func TestInstallDirectoryToIoStore(t *testing.T) {
	in := newTestInstaller(t)
	src := stageDir(t, stagingFiles)
	modDir := t.TempDir()

	mod := &Mod{Name: "base", Path: src, Enabled: true, IsDir: true, Repak: true, Tags: []string{"Skin"}}
	var progress atomic.Int32
	var cancel atomic.Bool
	records := in.InstallBatch(context.Background(), []*Mod{mod}, modDir, &progress, &cancel)

	require.Len(t, records, 1)
	base := "base_9999999_P"
	for _, ext := range []string{".pak", ".utoc", ".ucas"} {
		assert.FileExists(t, filepath.Join(modDir, base+ext))
	}
	assert.Equal(t, ProgressDone, progress.Load())

	// The companion pak holds exactly one uncompressed entry listing
	// the content files.
	r, err := pak.Open(filepath.Join(modDir, base+".pak"))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, []string{ChunkNamesEntry}, r.Files())
	payload, err := r.Read(ChunkNamesEntry)
	require.NoError(t, err)
	assert.Equal(t, "Meshes/A.uasset\nMeshes/A.uexp\nTextures/T.uasset", string(payload))
	assert.False(t, strings.HasSuffix(string(payload), "\n"))

	// Tags recorded under the reconciled base name.
	m, err := in.Tags().Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{"Skin"}, m[base])
}

func TestInstallEmptyDirectory(t *testing.T) {
	in := newTestInstaller(t)
	modDir := t.TempDir()
	mod := &Mod{Name: "empty", Path: t.TempDir(), Enabled: true, IsDir: true, Repak: true}
	in.InstallBatch(context.Background(), []*Mod{mod}, modDir, nil, nil)

	r, err := pak.Open(filepath.Join(modDir, "empty_9999999_P.pak"))
	require.NoError(t, err)
	defer r.Close()
	payload, err := r.Read(ChunkNamesEntry)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestInstallAudioShortCircuit(t *testing.T) {
	in := newTestInstaller(t)
	src := stageDir(t, map[string][]byte{"Content/WwiseAudio/1.wem": []byte("wem")})
	modDir := t.TempDir()

	mod := &Mod{Name: "sfx", Path: src, Enabled: true, IsDir: true, Repak: true, Type: classify.TypeAudio}
	var progress atomic.Int32
	in.InstallBatch(context.Background(), []*Mod{mod}, modDir, &progress, nil)

	base := "sfx_9999999_P"
	assert.FileExists(t, filepath.Join(modDir, base+".pak"))
	assert.NoFileExists(t, filepath.Join(modDir, base+".utoc"))
	assert.NoFileExists(t, filepath.Join(modDir, base+".ucas"))

	// The repacked pak carries the real content, not a chunknames aid.
	r, err := pak.Open(filepath.Join(modDir, base+".pak"))
	require.NoError(t, err)
	defer r.Close()
	data, err := r.Read("Content/WwiseAudio/1.wem")
	require.NoError(t, err)
	assert.Equal(t, []byte("wem"), data)
}

func TestInstallRepackFromPak(t *testing.T) {
	srcDir := t.TempDir()
	srcPak := filepath.Join(srcDir, "orig.pak")
	var buf bytes.Buffer
	w := pak.NewWriter(&buf, pak.WithPathHashSeed(7))
	require.NoError(t, w.WriteEntry("Content/a.bin", []byte("payload"), pak.MethodNone))
	require.NoError(t, w.WriteIndex())
	require.NoError(t, os.WriteFile(srcPak, buf.Bytes(), 0o644))

	in := newTestInstaller(t)
	modDir := t.TempDir()
	mod := &Mod{Name: "orig_P", Path: srcPak, Enabled: true, Repak: true, PathHashSeed: 7}
	var progress atomic.Int32
	in.InstallBatch(context.Background(), []*Mod{mod}, modDir, &progress, nil)

	out := filepath.Join(modDir, "orig_9999999_P.pak")
	r, err := pak.Open(out)
	require.NoError(t, err)
	defer r.Close()
	data, err := r.Read("Content/a.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, uint64(7), r.PathHashSeed())
	assert.Equal(t, ProgressDone, progress.Load())
}

func TestInstallDirectCopy(t *testing.T) {
	srcDir := t.TempDir()
	srcPak := filepath.Join(srcDir, "done.pak")
	require.NoError(t, os.WriteFile(srcPak, []byte("pak bytes"), 0o644))

	in := newTestInstaller(t)
	modDir := t.TempDir()
	mod := &Mod{Name: "done", Path: srcPak, Enabled: true}
	in.InstallBatch(context.Background(), []*Mod{mod}, modDir, nil, nil)

	data, err := os.ReadFile(filepath.Join(modDir, "done_9999999_P.pak"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pak bytes"), data)
}

func TestInstallSkipsDisabled(t *testing.T) {
	in := newTestInstaller(t)
	modDir := t.TempDir()
	mod := &Mod{Name: "off", Path: t.TempDir(), IsDir: true, Repak: true} // Enabled: false
	records := in.InstallBatch(context.Background(), []*Mod{mod}, modDir, nil, nil)
	assert.Empty(t, records)
	entries, err := os.ReadDir(modDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInstallCancellation(t *testing.T) {
	in := newTestInstaller(t)
	modDir := t.TempDir()
	mods := []*Mod{
		{Name: "a", Path: stageDir(t, stagingFiles), Enabled: true, IsDir: true, Repak: true},
		{Name: "b", Path: stageDir(t, stagingFiles), Enabled: true, IsDir: true, Repak: true},
	}
	var progress atomic.Int32
	var cancel atomic.Bool
	cancel.Store(true)

	records := in.InstallBatch(context.Background(), mods, modDir, &progress, &cancel)
	assert.Empty(t, records)
	// The completion sentinel is set even for a cancelled batch.
	assert.Equal(t, ProgressDone, progress.Load())
}

func TestInstallBestEffortContinues(t *testing.T) {
	in := newTestInstaller(t)
	modDir := t.TempDir()
	mods := []*Mod{
		{Name: "broken", Path: filepath.Join(t.TempDir(), "missing.pak"), Enabled: true, Repak: true},
		{Name: "good", Path: stageDir(t, stagingFiles), Enabled: true, IsDir: true, Repak: true},
	}
	records := in.InstallBatch(context.Background(), mods, modDir, nil, nil)
	require.Len(t, records, 1, "one failed mod must not abort the batch")
	assert.Equal(t, "good_9999999_P", records[0].BaseName)
}

func TestExtractPak(t *testing.T) {
	srcDir := t.TempDir()
	srcPak := filepath.Join(srcDir, "m.pak")
	var buf bytes.Buffer
	w := pak.NewWriter(&buf)
	require.NoError(t, w.WriteEntry("Content/x.bin", []byte("x"), pak.MethodZlib))
	require.NoError(t, w.WriteIndex())
	require.NoError(t, os.WriteFile(srcPak, buf.Bytes(), 0o644))

	in := newTestInstaller(t)
	dest := t.TempDir()
	require.NoError(t, in.ExtractPak(context.Background(), &Mod{Path: srcPak}, dest))
	data, err := os.ReadFile(filepath.Join(dest, "Content", "x.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}
