package uasset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Texture name-table markers. An asset is treated as a patchable
// texture when its header names both the class and the property.
const (
	nameTexture2D      = "Texture2D"
	nameMipGenSettings = "MipGenSettings"
	nameNoMipmaps      = "TMGS_NoMipmaps"
	mipGenValuePrefix  = "TMGS_"
)

// PatchTextures runs the mip rewrite over every texture .uasset in
// paths, preferring the bridge helper and falling back to the
// in-process heuristic. Per-file failures are logged and swallowed;
// the returned count is the number of assets rewritten.
func PatchTextures(ctx context.Context, paths []string, bridge *Bridge, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	patched := 0
	for _, p := range paths {
		if filepath.Ext(p) != ".uasset" || !IsTextureAsset(p) {
			continue
		}
		if bridge != nil && bridge.Available() {
			res, err := bridge.PatchTexture(ctx, p)
			if err == nil && res == Applied {
				patched++
				continue
			}
			if err != nil {
				logger.Warn("bridge texture patch failed, falling back", "path", p, "error", err)
			}
		}
		res, err := PatchTextureMips(p, strings.TrimSuffix(p, ".uasset")+".uexp", logger)
		if err != nil {
			logger.Warn("texture patch failed", "path", p, "error", err)
			continue
		}
		logger.Debug("texture patch", "path", p, "result", res.String())
		if res == Applied {
			patched++
		}
	}
	return patched
}

// IsTextureAsset reports whether the .uasset at path looks like a
// texture whose mip settings can be rewritten.
func IsTextureAsset(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	names := scanNames(data)
	return names.has(nameTexture2D) && names.has(nameMipGenSettings)
}

// PatchTextureMips forces MipGenSettings to NoMipmaps on the
// .uasset/.uexp pair. The property value is an FName reference into
// the header's name table, so the rewrite is only possible when
// TMGS_NoMipmaps is already named there; otherwise the asset is
// reported NotApplicable and left untouched (inserting a name would
// shift every serialized offset after it).
func PatchTextureMips(uassetPath, uexpPath string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	header, err := os.ReadFile(uassetPath)
	if err != nil {
		return NotApplicable, fmt.Errorf("%w: %s: %v", ErrPatch, uassetPath, err)
	}
	if !hasMagic(header) {
		logger.Debug("no package magic, skipping", "path", uassetPath)
		return NotApplicable, nil
	}
	names := scanNames(header)
	if !names.has(nameTexture2D) || !names.has(nameMipGenSettings) {
		return NotApplicable, nil
	}
	noMips, ok := names.lookup(nameNoMipmaps)
	if !ok {
		logger.Debug("name table lacks TMGS_NoMipmaps", "path", uassetPath)
		return NotApplicable, nil
	}

	// The export payload usually lives in the companion .uexp; older
	// cooks inline it behind the header.
	target := uexpPath
	payload, err := os.ReadFile(uexpPath)
	if err != nil {
		target = uassetPath
		payload = header
	}

	propIdx, _ := names.lookup(nameMipGenSettings)
	pos := bytes.Index(payload, fnameBytes(propIdx))
	if pos < 0 {
		return NotApplicable, nil
	}

	// The enum value is an FName of one of the TMGS_* constants,
	// serialized within the property record that follows the tag.
	window := payload[pos+8 : min(pos+8+128, len(payload))]
	valuePos := -1
	current := -1
	for i, name := range names.names {
		if !strings.HasPrefix(name, mipGenValuePrefix) {
			continue
		}
		if p := bytes.Index(window, fnameBytes(i)); p >= 0 && (valuePos < 0 || p < valuePos) {
			valuePos = p
			current = i
		}
	}
	if valuePos < 0 {
		return NotApplicable, nil
	}
	if current == noMips {
		return NotNeeded, nil
	}

	if err := backup(target); err != nil {
		return NotApplicable, err
	}
	copy(payload[pos+8+valuePos:], fnameBytes(noMips))
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return NotApplicable, fmt.Errorf("%w: %s: %v", ErrPatch, target, err)
	}
	logger.Debug("mip settings forced to NoMipmaps", "path", uassetPath, "was", names.names[current])
	return Applied, nil
}
