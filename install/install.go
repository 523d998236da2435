package install

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/uemod/pakcore/iostore"
	"github.com/uemod/pakcore/oodle"
	"github.com/uemod/pakcore/pak"
	"github.com/uemod/pakcore/uasset"
)

// Installer drives install batches. One Installer may serve many
// batches; each batch runs on the calling goroutine and owns its mods
// exclusively.
type Installer struct {
	logger             *slog.Logger
	tags               *TagStore
	bridge             *uasset.Bridge
	key                *pak.AESKey
	pakMethod          pak.Method
	iostoreCompression iostore.Compression
	oodleLevel         oodle.Level
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger attaches a logger; nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Installer) { in.logger = logger }
}

// WithTagStore overrides the pending-tag store location.
func WithTagStore(s *TagStore) Option {
	return func(in *Installer) { in.tags = s }
}

// WithBridge supplies the texture-bridge helper.
func WithBridge(b *uasset.Bridge) Option {
	return func(in *Installer) { in.bridge = b }
}

// WithAESKey sets the index key used for reading sources and keying
// outputs.
func WithAESKey(key pak.AESKey) Option {
	return func(in *Installer) { in.key = &key }
}

// WithPakMethod sets the default repack codec for mods that carry no
// Oodle selector.
func WithPakMethod(m pak.Method) Option {
	return func(in *Installer) { in.pakMethod = m }
}

// WithIoStoreCompression sets the ucas block codec.
func WithIoStoreCompression(c iostore.Compression) Option {
	return func(in *Installer) { in.iostoreCompression = c }
}

// WithOodleLevel sets the encoder effort for Oodle repacks.
func WithOodleLevel(l oodle.Level) Option {
	return func(in *Installer) { in.oodleLevel = l }
}

// New returns an Installer. Without WithTagStore, tag recording uses
// the conventional location under the user config directory.
func New(opts ...Option) (*Installer, error) {
	in := &Installer{
		pakMethod:  pak.MethodZlib,
		oodleLevel: oodle.LevelNormal,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.tags == nil {
		tags, err := NewTagStore()
		if err != nil {
			return nil, err
		}
		in.tags = tags
	}
	return in, nil
}

func (in *Installer) log() *slog.Logger {
	if in.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return in.logger
}

// Tags exposes the pending-tag store for the Host.
func (in *Installer) Tags() *TagStore { return in.tags }

// InstallBatch installs mods into modDir in submission order. The
// batch is best-effort: a failed mod is logged and the loop moves on.
// progress is incremented once per produced pak artifact and set to
// ProgressDone when the batch ends, cancelled or not. cancel is
// sampled between mods; mid-mod cancellation is not supported.
func (in *Installer) InstallBatch(ctx context.Context, mods []*Mod, modDir string, progress *atomic.Int32, cancel *atomic.Bool) []Record {
	defer func() {
		if progress != nil {
			progress.Store(ProgressDone)
		}
	}()

	var records []Record
	for _, mod := range mods {
		// Naming consistency up-front for every flow.
		mod.Name = Reconcile(mod.Name)

		if !mod.Enabled {
			continue
		}
		if cancel != nil && cancel.Load() {
			in.log().Warn("install batch cancelled", "remaining", mod.Name)
			break
		}

		rec, bump, err := in.installOne(ctx, mod, modDir)
		if err != nil {
			in.log().Error("mod install failed", "mod", mod.Name, "error", err)
			continue
		}
		in.recordTags(rec.BaseName, mod.Tags)
		if bump && progress != nil {
			progress.Add(1)
		}
		records = append(records, rec)
		in.log().Info("installed mod", "mod", mod.Name)
	}
	return records
}

// installOne dispatches one mod to its strategy. The bool reports
// whether the artifact counts toward the progress counter.
func (in *Installer) installOne(ctx context.Context, mod *Mod, modDir string) (Record, bool, error) {
	base := Reconcile(mod.Name)

	switch {
	case mod.IoStore:
		rec, err := in.copyIoStoreTriple(mod, modDir, base)
		return rec, false, err

	case mod.Repak && !mod.IsDir:
		pakPath, err := in.repackFromPak(ctx, mod, modDir)
		if err != nil {
			return Record{BaseName: base}, false, err
		}
		return Record{BaseName: base, PakPath: pakPath, Tags: mod.Tags}, true, nil

	case !mod.Repak && !mod.IsDir:
		// Plain relocation of a finished pak.
		in.log().Info("copying mod instead of repacking", "mod", mod.Name)
		dest := filepath.Join(modDir, base+".pak")
		if err := copyFile(mod.Path, dest); err != nil {
			return Record{BaseName: base}, false, err
		}
		return Record{BaseName: base, PakPath: dest, Tags: mod.Tags}, true, nil

	default: // directory source
		rec, err := in.convertDirectory(ctx, mod, modDir)
		return rec, err == nil, err
	}
}

// copyIoStoreTriple relocates a ready-made .pak/.utoc/.ucas set under
// reconciled names. A missing sibling is logged and skipped so a
// partially shipped mod still installs what it has.
func (in *Installer) copyIoStoreTriple(mod *Mod, modDir, base string) (Record, error) {
	rec := Record{BaseName: base, Tags: mod.Tags}
	src := strings.TrimSuffix(mod.Path, filepath.Ext(mod.Path))
	for _, ext := range []string{".pak", ".utoc", ".ucas"} {
		dest := filepath.Join(modDir, base+ext)
		if err := copyFile(src+ext, dest); err != nil {
			in.log().Error("unable to copy file", "src", src+ext, "error", err)
			continue
		}
		switch ext {
		case ".pak":
			rec.PakPath = dest
		case ".utoc":
			rec.UTOCPath = dest
		case ".ucas":
			rec.UCASPath = dest
		}
	}
	if rec.PakPath == "" && rec.UTOCPath == "" && rec.UCASPath == "" {
		return rec, fmt.Errorf("no artifacts copied for %s", mod.Name)
	}
	return rec, nil
}

func (in *Installer) recordTags(base string, tags []string) {
	if err := in.tags.Record(base, tags); err != nil {
		in.log().Warn("tag recording failed", "base", base, "error", err)
	}
}

func copyFile(src, dest string) error {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()
	df, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer df.Close()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Close()
}
