package pakcore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/uemod/pakcore/classify"
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/oodle"
)

// Manager is the host-facing entry point. It wraps the installer and
// the deletion worker and adds mod-directory housekeeping.
//
// A Manager is safe to share: installs run on the calling goroutine,
// deletion runs on one background worker, and the two never touch the
// same artifact at the same time by construction (the host deletes
// only mods it is not installing).
type Manager struct {
	logger    *slog.Logger
	installer *install.Installer

	deleterOnce sync.Once
	deleter     *Deleter
}

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	logger      *slog.Logger
	installOpts []install.Option
}

// WithLogger attaches a logger to the Manager and everything it
// drives; nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) { c.logger = logger }
}

// WithInstallOptions forwards options to the underlying installer.
func WithInstallOptions(opts ...install.Option) Option {
	return func(c *managerConfig) { c.installOpts = append(c.installOpts, opts...) }
}

// NewManager creates a Manager. Without options it records tags under
// the user config directory and discards logs.
func NewManager(opts ...Option) (*Manager, error) {
	var cfg managerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	installOpts := cfg.installOpts
	if cfg.logger != nil {
		installOpts = append([]install.Option{install.WithLogger(cfg.logger)}, installOpts...)
	}
	installer, err := install.New(installOpts...)
	if err != nil {
		return nil, err
	}
	return &Manager{logger: cfg.logger, installer: installer}, nil
}

func (m *Manager) log() *slog.Logger {
	if m.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m.logger
}

// InstallBatch installs mods into modDir in submission order. It
// blocks until the batch ends; progress and cancel are the host's
// live view into it. See [install.Installer.InstallBatch].
func (m *Manager) InstallBatch(ctx context.Context, mods []*Mod, modDir string, progress *atomic.Int32, cancel *atomic.Bool) []Record {
	return m.installer.InstallBatch(ctx, mods, modDir, progress, cancel)
}

// ExtractPak unpacks a pak mod's entries beneath dest.
func (m *Manager) ExtractPak(ctx context.Context, mod *Mod, dest string) error {
	return m.installer.ExtractPak(ctx, mod, dest)
}

// ClassifyPaths reports the mod type implied by a set of content
// paths.
func (m *Manager) ClassifyPaths(paths []string) string {
	return classify.Paths(paths)
}

// Tags exposes the pending-tag store.
func (m *Manager) Tags() *TagStore {
	return m.installer.Tags()
}

// Oodle returns the process-wide codec handle, loading the vendor
// library on first use. Every later call after a failed load reports
// [ErrCodecLoad].
func (m *Manager) Oodle() (*oodle.Oodle, error) {
	return oodle.Load()
}

// Deleter returns the deletion worker, starting it on first use.
func (m *Manager) Deleter() *Deleter {
	m.deleterOnce.Do(func() {
		m.deleter = newDeleter(m.logger)
	})
	return m.deleter
}

// Close stops the deletion worker, draining queued batches first. The
// Manager must not be used afterwards.
func (m *Manager) Close() {
	if m.deleter != nil {
		m.deleter.close()
	}
}

// InstalledPak is one artifact found in the game's mod directory.
type InstalledPak struct {
	// Path is the absolute pak path as found on disk.
	Path string
	// BaseName is the file name without extension.
	BaseName string
	// Enabled is false for paks parked under a disabling extension.
	Enabled bool
}

// disabledExts are the extensions the host uses to park a mod without
// removing it. The engine only mounts *.pak, so the rename alone
// disables the mod.
var disabledExts = map[string]bool{
	".pak_disabled": true,
	".bak_repak":    true,
}

// ScanModDir lists the installed mods in dir, sorted by base name.
// Non-pak files and the .utoc/.ucas siblings are skipped; a missing
// dir is an empty listing, not an error.
func ScanModDir(dir string) ([]InstalledPak, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var paks []InstalledPak
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".pak" && !disabledExts[ext] {
			continue
		}
		paks = append(paks, InstalledPak{
			Path:     filepath.Join(dir, name),
			BaseName: strings.TrimSuffix(name, filepath.Ext(name)),
			Enabled:  ext == ".pak",
		})
	}
	sort.Slice(paks, func(i, j int) bool { return paks[i].BaseName < paks[j].BaseName })
	return paks, nil
}
