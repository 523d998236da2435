package uasset

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/uemod/pakcore/internal/pathutil"
)

// Skeletal-mesh name-table markers.
const (
	nameSkeletalMesh = "SkeletalMesh"
	gamePathPrefix   = "/Game/"
)

// IsMeshAsset reports whether the .uasset at path names a skeletal
// mesh.
func IsMeshAsset(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return scanNames(data).has(nameSkeletalMesh)
}

// PatchMeshes runs the mesh redirect over every .uasset under root
// found in paths. Failures are logged and swallowed; the returned
// count is the number of assets actually rewritten.
func PatchMeshes(paths []string, root string, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	patched := 0
	for _, p := range paths {
		if filepath.Ext(p) != ".uasset" || !IsMeshAsset(p) {
			continue
		}
		res, err := PatchMeshTarget(p, root)
		if err != nil {
			logger.Warn("mesh patch failed", "path", p, "error", err)
			continue
		}
		logger.Debug("mesh patch", "path", p, "result", res.String())
		if res == Applied {
			patched++
		}
	}
	return patched
}

// PatchMeshTarget rewrites the mesh's serialized package name so the
// asset claims the content path its staged location maps to, making
// the mod's geometry replace the target character's. Mod packages are
// staged under the target's own content tree, so the desired package
// name is derived from the path relative to root. The rewrite is
// byte-for-byte in place; a name of a different length cannot be
// patched without reflowing the header and is reported NotApplicable.
func PatchMeshTarget(uassetPath, root string) (Result, error) {
	data, err := os.ReadFile(uassetPath)
	if err != nil {
		return NotApplicable, fmt.Errorf("%w: %s: %v", ErrPatch, uassetPath, err)
	}
	if !hasMagic(data) {
		return NotApplicable, nil
	}
	names := scanNames(data)
	if !names.has(nameSkeletalMesh) {
		return NotApplicable, nil
	}

	rel, err := pathutil.Rel(root, uassetPath)
	if err != nil {
		return NotApplicable, fmt.Errorf("%w: %s: %v", ErrPatch, uassetPath, err)
	}
	want := packageNameFor(rel)

	// The asset's own package name is the /Game/ path ending in the
	// asset's stem.
	stem := pathutil.Stem(uassetPath)
	currentIdx := -1
	for i, name := range names.names {
		if strings.HasPrefix(name, gamePathPrefix) && strings.HasSuffix(name, "/"+stem) {
			currentIdx = i
			break
		}
	}
	if currentIdx < 0 {
		return NotApplicable, nil
	}
	current := names.names[currentIdx]
	if current == want {
		return NotNeeded, nil
	}
	if len(current) != len(want) {
		return NotApplicable, nil
	}

	if err := backup(uassetPath); err != nil {
		return NotApplicable, err
	}
	sp := names.spans[currentIdx]
	copy(data[sp.off:sp.off+sp.len], want)
	if err := os.WriteFile(uassetPath, data, 0o644); err != nil {
		return NotApplicable, fmt.Errorf("%w: %s: %v", ErrPatch, uassetPath, err)
	}
	return Applied, nil
}

// packageNameFor maps a staged relative path to its content package
// name: strip a leading Content/ segment and the extension, prefix
// with /Game/.
func packageNameFor(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if rest, ok := strings.CutPrefix(rel, "Content/"); ok {
		rel = rest
	}
	return gamePathPrefix + rel
}
