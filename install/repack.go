package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uemod/pakcore/internal/pathutil"
	"github.com/uemod/pakcore/pak"
)

// pakMethodFor picks the per-entry codec for a repack: the mod's
// Oodle selector when one is set, otherwise the installer default.
func (in *Installer) pakMethodFor(mod *Mod) pak.Method {
	if mod.Compression != 0 {
		return pak.MethodOodle
	}
	return in.pakMethod
}

func (in *Installer) writerOptions(mod *Mod) []pak.WriterOption {
	opts := []pak.WriterOption{
		pak.WithPathHashSeed(mod.PathHashSeed),
		pak.WithWriterLogger(in.logger),
	}
	if mod.MountPoint != "" {
		opts = append(opts, pak.WithMountPoint(mod.MountPoint))
	}
	if in.key != nil {
		opts = append(opts, pak.WithWriterKey(*in.key))
	}
	if mod.Compression != 0 {
		opts = append(opts, pak.WithOodleSettings(mod.Compression, in.oodleLevel))
	}
	return opts
}

// repackFromPak streams every entry of the mod's source container
// into a fresh pak under modDir, applying the chosen compression,
// mount point and seed.
func (in *Installer) repackFromPak(ctx context.Context, mod *Mod, modDir string) (string, error) {
	if mod.Reader == nil {
		r, err := pak.Open(mod.Path, in.readerOptions()...)
		if err != nil {
			return "", err
		}
		defer r.Close()
		mod.Reader = r
		defer func() { mod.Reader = nil }()
	}

	outPath := filepath.Join(modDir, Reconcile(mod.Name)+".pak")
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pak.ErrWrite, err)
	}
	defer out.Close()

	w := pak.NewWriter(out, in.writerOptions(mod)...)
	method := in.pakMethodFor(mod)
	for _, name := range mod.Reader.Files() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := mod.Reader.Read(name)
		if err != nil {
			return "", err
		}
		if err := w.WriteEntry(name, data, method); err != nil {
			return "", err
		}
	}
	if err := w.WriteIndex(); err != nil {
		return "", err
	}
	return outPath, out.Close()
}

// repackDir packs a directory tree into a pak under modDir. Also the
// short-circuit path for Audio and Movies mods, which must not become
// IoStore containers.
func (in *Installer) repackDir(ctx context.Context, mod *Mod, srcDir, modDir string) (string, error) {
	paths, err := pathutil.CollectFiles(srcDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pak.ErrWrite, err)
	}

	outPath := filepath.Join(modDir, Reconcile(mod.Name)+".pak")
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pak.ErrWrite, err)
	}
	defer out.Close()

	w := pak.NewWriter(out, in.writerOptions(mod)...)
	method := in.pakMethodFor(mod)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rel, err := pathutil.Rel(srcDir, p)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("%w: %v", pak.ErrWrite, err)
		}
		if err := w.WriteEntry(rel, data, method); err != nil {
			return "", err
		}
	}
	if err := w.WriteIndex(); err != nil {
		return "", err
	}
	return outPath, out.Close()
}

// ExtractPak unpacks a pak mod's entries beneath dest, the reverse of
// repackDir; the Host's export feature.
func (in *Installer) ExtractPak(ctx context.Context, mod *Mod, dest string) error {
	r := mod.Reader
	if r == nil {
		var err error
		r, err = pak.Open(mod.Path, in.readerOptions()...)
		if err != nil {
			return err
		}
		defer r.Close()
	}
	return r.ExtractAll(ctx, dest)
}

func (in *Installer) readerOptions() []pak.ReaderOption {
	if in.key == nil {
		return nil
	}
	return []pak.ReaderOption{pak.WithReaderKey(*in.key)}
}
