// Package ingest probes user-dropped paths, extracts compressed
// archives into staging workspaces, and synthesizes the install
// records the orchestrator consumes.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/uemod/pakcore/classify"
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/internal/pathutil"
	"github.com/uemod/pakcore/iostore"
	"github.com/uemod/pakcore/pak"
)

// Result is the outcome of one ingest call. Staging workspaces must
// outlive the install that consumes the mods; Close releases them.
type Result struct {
	Mods    []*install.Mod
	staging []*Staging
}

// Close removes every staging workspace. Call it once the install
// completes or fatally fails.
func (r *Result) Close() error {
	var first error
	for _, s := range r.staging {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.staging = nil
	return first
}

type config struct {
	key            *pak.AESKey
	repakLoosePaks bool
	logger         *slog.Logger
}

// Option configures ingestion.
type Option func(*config)

// WithAESKey supplies the index key for reading source paks.
func WithAESKey(key pak.AESKey) Option {
	return func(c *config) { c.key = &key }
}

// WithRepakLoosePaks controls whether a lone .pak is re-packed
// (default) or installed by direct copy.
func WithRepakLoosePaks(repak bool) Option {
	return func(c *config) { c.repakLoosePaks = repak }
}

// WithLogger attaches a logger; nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Ingest classifies each dropped path and returns the resulting mods.
// Archives are extracted into staging workspaces and their contents
// re-ingested; the archive's stem becomes the default mod name.
// Unsupported inputs fail the whole call so the Host can surface the
// rejection before any install starts.
func Ingest(ctx context.Context, paths []string, opts ...Option) (*Result, error) {
	cfg := config{repakLoosePaks: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	res := &Result{}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			res.Close()
			return nil, err
		}
		if err := ingestPath(ctx, &cfg, res, p, ""); err != nil {
			res.Close()
			return nil, err
		}
	}
	return res, nil
}

func ingestPath(ctx context.Context, cfg *config, res *Result, path, nameHint string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", install.ErrUnsupportedInput, path, err)
	}

	if info.IsDir() {
		return ingestDir(cfg, res, path, nameHint)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pak":
		return ingestPak(cfg, res, path, nameHint)
	case ".zip", ".rar":
		return ingestArchive(ctx, cfg, res, path)
	default:
		return fmt.Errorf("%w: %s", install.ErrUnsupportedInput, path)
	}
}

func ingestDir(cfg *config, res *Result, dir, nameHint string) error {
	name := nameHint
	if name == "" {
		name = filepath.Base(dir)
	}
	files, err := pathutil.CollectFiles(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", install.ErrExtraction, dir, err)
	}
	rels := make([]string, 0, len(files))
	for _, f := range files {
		if rel, err := pathutil.Rel(dir, f); err == nil {
			rels = append(rels, rel)
		}
	}
	res.Mods = append(res.Mods, &install.Mod{
		Name:       name,
		Path:       dir,
		Type:       classify.Paths(rels),
		Enabled:    true,
		IsDir:      true,
		Repak:      true,
		MountPoint: pak.DefaultMountPoint,
	})
	cfg.logger.Debug("ingested directory", "dir", dir, "name", name, "files", len(files))
	return nil
}

func ingestPak(cfg *config, res *Result, path, nameHint string) error {
	name := nameHint
	if name == "" {
		name = pathutil.Stem(path)
	}
	mod := &install.Mod{
		Name:       name,
		Path:       path,
		Enabled:    true,
		MountPoint: pak.DefaultMountPoint,
	}

	utocPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".utoc"
	ucasPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".ucas"
	if fileExists(utocPath) && fileExists(ucasPath) {
		mod.IoStore = true
		if toc, err := iostore.ReadTOC(utocPath); err == nil {
			mod.Type = classify.Paths(toc.Files)
		} else {
			cfg.logger.Warn("unreadable utoc, classifying from pak", "path", utocPath, "error", err)
			mod.Type = classifyPak(cfg, path)
		}
		res.Mods = append(res.Mods, mod)
		return nil
	}

	mod.Repak = cfg.repakLoosePaks
	mod.Type = classifyPak(cfg, path)
	res.Mods = append(res.Mods, mod)
	return nil
}

func classifyPak(cfg *config, path string) string {
	var opts []pak.ReaderOption
	if cfg.key != nil {
		opts = append(opts, pak.WithReaderKey(*cfg.key))
	}
	r, err := pak.Open(path, opts...)
	if err != nil {
		cfg.logger.Warn("error opening pak file", "path", path, "error", err)
		return classify.TypeMisc
	}
	defer r.Close()
	return classify.Paths(r.Files())
}

func ingestArchive(ctx context.Context, cfg *config, res *Result, path string) error {
	staging, err := NewStaging()
	if err != nil {
		return fmt.Errorf("%w: %v", install.ErrExtraction, err)
	}
	res.staging = append(res.staging, staging)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		err = extractZip(path, staging.Dir())
	case ".rar":
		err = extractRar(path, staging.Dir())
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", install.ErrExtraction, path, err)
	}
	cfg.logger.Info("archive extracted", "archive", path, "staging", staging.Dir())

	// Re-ingest the extracted tree. Paks inside the archive are
	// ingested individually; anything else installs as one directory
	// mod named after the archive.
	name := pathutil.Stem(path)
	files, err := pathutil.CollectFiles(staging.Dir())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", install.ErrExtraction, path, err)
	}
	var paks []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".pak") {
			paks = append(paks, f)
		}
	}
	if len(paks) == 0 {
		return ingestDir(cfg, res, staging.Dir(), name)
	}
	for _, p := range paks {
		hint := name
		if len(paks) > 1 {
			hint = "" // fall back to each pak's own stem
		}
		if err := ingestPath(ctx, cfg, res, p, hint); err != nil {
			return err
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
