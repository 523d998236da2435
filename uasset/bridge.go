package uasset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// bridgeExitNotApplicable is the bridge's "asset is not a texture I
// can rewrite" exit code.
const bridgeExitNotApplicable = 2

// Bridge drives the external UAssetBridge helper, which rewrites
// texture properties using a full serialization library. It is always
// a separate process, never linked in. A missing binary is not an
// error: the caller falls through to the in-process heuristic.
type Bridge struct {
	path   string
	logger *slog.Logger
}

// NewBridge returns a Bridge using the given binary path, or, when
// path is empty, the conventional location next to the running
// executable.
func NewBridge(path string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if path == "" {
		if exe, err := os.Executable(); err == nil {
			name := "UAssetBridge"
			if runtime.GOOS == "windows" {
				name += ".exe"
			}
			path = filepath.Join(filepath.Dir(exe), name)
		}
	}
	return &Bridge{path: path, logger: logger}
}

// Available reports whether the helper binary exists.
func (b *Bridge) Available() bool {
	if b.path == "" {
		return false
	}
	info, err := os.Stat(b.path)
	return err == nil && !info.IsDir()
}

// PatchTexture asks the helper to force NoMipmaps on the asset.
func (b *Bridge) PatchTexture(ctx context.Context, uassetPath string) (Result, error) {
	cmd := exec.CommandContext(ctx, b.path, "set-nomips", uassetPath)
	out, err := cmd.CombinedOutput()
	if err == nil {
		b.logger.Debug("bridge rewrote texture", "path", uassetPath)
		return Applied, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == bridgeExitNotApplicable {
		return NotApplicable, nil
	}
	b.logger.Warn("bridge invocation failed", "path", uassetPath, "output", string(out), "error", err)
	return NotApplicable, err
}
