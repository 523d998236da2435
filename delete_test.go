package pakcore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitResult(t *testing.T, d *Deleter) error {
	t.Helper()
	select {
	case err := <-d.Results():
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("no deletion result")
		return nil
	}
}

func TestDeleterRemovesBatch(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	for i, name := range []string{"a.pak", "a.utoc", "a.ucas"} {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte("x"), 0o644))
	}

	d := newDeleter(nil)
	defer d.close()
	d.Delete(paths)
	require.NoError(t, awaitResult(t, d))

	for _, p := range paths {
		assert.NoFileExists(t, p)
		assert.NoFileExists(t, p+pendingDeleteSuffix)
	}
}

func TestDeleterMissingPathIsSuccess(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "m.pak")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	// A mod installed without its .utoc sibling must still delete
	// cleanly.
	d := newDeleter(nil)
	defer d.close()
	d.Delete([]string{filepath.Join(dir, "m.utoc"), present})
	require.NoError(t, awaitResult(t, d))
	assert.NoFileExists(t, present)
}

func TestDeleterReportsFirstError(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory renames fine but cannot be unlinked, which
	// stands in for a locked or held artifact.
	blocked := filepath.Join(dir, "b.pak")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "held"), []byte("x"), 0o644))
	survivor := filepath.Join(dir, "ok.pak")
	require.NoError(t, os.WriteFile(survivor, []byte("x"), 0o644))

	d := newDeleter(nil)
	defer d.close()
	d.Delete([]string{blocked, survivor})
	err := awaitResult(t, d)
	require.Error(t, err)
	// Later paths in the batch are still attempted.
	assert.NoFileExists(t, survivor)
}

func TestDeleterBatchesAreOrdered(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "1.pak")
	second := filepath.Join(dir, "2.pak")
	require.NoError(t, os.WriteFile(first, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))

	d := newDeleter(nil)
	defer d.close()
	d.Delete([]string{first})
	d.Delete([]string{second, filepath.Join(dir, "missing.ucas")})
	require.NoError(t, awaitResult(t, d))
	require.NoError(t, awaitResult(t, d))
	assert.NoFileExists(t, first)
	assert.NoFileExists(t, second)
}
