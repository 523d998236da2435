package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/uemod/pakcore/classify"
	"github.com/uemod/pakcore/internal/pathutil"
	"github.com/uemod/pakcore/iostore"
	"github.com/uemod/pakcore/pak"
	"github.com/uemod/pakcore/uasset"
)

// ChunkNamesEntry is the single logical entry of the companion pak:
// a text listing of the real content files that coaxes the engine
// into mounting the sibling IoStore pair.
const ChunkNamesEntry = "chunknames"

// convertDirectory is the directory-to-IoStore strategy: patch assets
// as requested, drive the container writer, then emit the companion
// pak. Audio and Movies mods never become IoStore containers and fall
// back to a plain repack.
func (in *Installer) convertDirectory(ctx context.Context, mod *Mod, modDir string) (Record, error) {
	base := Reconcile(mod.Name)
	rec := Record{BaseName: base, Tags: mod.Tags}

	if mod.Type == classify.TypeAudio || mod.Type == classify.TypeMovies {
		in.log().Debug("mod type skips iostore packaging", "mod", mod.Name, "type", mod.Type)
		pakPath, err := in.repackDir(ctx, mod, mod.Path, modDir)
		if err != nil {
			return rec, err
		}
		rec.PakPath = pakPath
		return rec, nil
	}

	paths, err := pathutil.CollectFiles(mod.Path)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", iostore.ErrConversion, err)
	}

	if mod.FixMesh {
		n := uasset.PatchMeshes(paths, mod.Path, in.logger)
		in.log().Info("mesh patch pass finished", "mod", mod.Name, "patched", n)
	}
	if mod.FixTextures {
		n := uasset.PatchTextures(ctx, paths, in.bridge, in.logger)
		in.log().Info("texture patch pass finished", "mod", mod.Name, "patched", n)
	}

	tocKey, err := pak.ParseAESKey(GameTOCKey)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", iostore.ErrConversion, err)
	}
	res, err := iostore.Convert(ctx, mod.Path, filepath.Join(modDir, base+".utoc"),
		iostore.WithEngineVersion(iostore.UE5_3),
		iostore.WithAESKey([16]byte{}, tocKey),
		iostore.WithCompression(in.iostoreCompression),
		iostore.WithPathHashSeed(mod.PathHashSeed),
		iostore.WithLogger(in.logger),
	)
	if err != nil {
		return rec, err
	}
	rec.UTOCPath = res.UTOCPath
	rec.UCASPath = res.UCASPath

	pakPath, err := in.writeCompanionPak(ctx, mod, modDir, base, paths)
	if err != nil {
		return rec, err
	}
	rec.PakPath = pakPath
	return rec, nil
}

// writeCompanionPak emits the mount-aid pak next to the IoStore pair.
// It holds exactly one entry, chunknames, listing every included file.
// The pak stays uncompressed: only the ucas should carry compression,
// and an uncompressed mount aid keeps game-client compatibility.
func (in *Installer) writeCompanionPak(ctx context.Context, mod *Mod, modDir, base string, paths []string) (string, error) {
	rels, err := relPaths(ctx, mod.Path, paths)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pak.ErrWrite, err)
	}

	outPath := filepath.Join(modDir, base+".pak")
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pak.ErrWrite, err)
	}
	defer out.Close()

	w := pak.NewWriter(out, in.writerOptions(mod)...)
	if err := w.WriteEntry(ChunkNamesEntry, []byte(strings.Join(rels, "\n")), pak.MethodNone); err != nil {
		return "", err
	}
	if err := w.WriteIndex(); err != nil {
		return "", err
	}
	return outPath, out.Close()
}

// relPaths normalizes paths relative to root in parallel and returns
// them sorted so the chunknames payload is deterministic.
func relPaths(ctx context.Context, root string, paths []string) ([]string, error) {
	rels := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := pathutil.Rel(root, p)
			if err != nil {
				return err
			}
			rels[i] = rel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(rels)
	return rels, nil
}
