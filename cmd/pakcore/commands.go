package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/uemod/pakcore"
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/internal/pathutil"
	"github.com/uemod/pakcore/pak"
)

func cmdExtract() *cobra.Command {
	var aesKey string
	cmd := &cobra.Command{
		Use:   "extract <pak> <dest>",
		Short: "Unpack a pak's entries into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var installOpts []install.Option
			installOpts = append(installOpts, install.WithLogger(logger))
			if aesKey != "" {
				key, err := pak.ParseAESKey(aesKey)
				if err != nil {
					return err
				}
				installOpts = append(installOpts, install.WithAESKey(key))
			}
			m, err := pakcore.NewManager(
				pakcore.WithLogger(logger),
				pakcore.WithInstallOptions(installOpts...),
			)
			if err != nil {
				return err
			}
			defer m.Close()
			return m.ExtractPak(cmd.Context(), &pakcore.Mod{Path: args[0]}, args[1])
		},
	}
	cmd.Flags().StringVar(&aesKey, "aes-key", "", "pak index key, hex or base64")
	return cmd
}

func cmdClassify() *cobra.Command {
	var aesKey string
	cmd := &cobra.Command{
		Use:   "classify <dir-or-pak>",
		Short: "Report the mod type implied by a source's content paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := contentPaths(args[0], aesKey)
			if err != nil {
				return err
			}
			m, err := pakcore.NewManager()
			if err != nil {
				return err
			}
			defer m.Close()
			fmt.Fprintln(cmd.OutOrStdout(), m.ClassifyPaths(paths))
			return nil
		},
	}
	cmd.Flags().StringVar(&aesKey, "aes-key", "", "pak index key, hex or base64")
	return cmd
}

// contentPaths lists in-container relative paths for a directory or a
// pak source.
func contentPaths(src, aesKey string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		files, err := pathutil.CollectFiles(src)
		if err != nil {
			return nil, err
		}
		rels := make([]string, len(files))
		for i, f := range files {
			if rels[i], err = pathutil.Rel(src, f); err != nil {
				return nil, err
			}
		}
		return rels, nil
	}

	var readerOpts []pak.ReaderOption
	if aesKey != "" {
		key, err := pak.ParseAESKey(aesKey)
		if err != nil {
			return nil, err
		}
		readerOpts = append(readerOpts, pak.WithReaderKey(key))
	}
	r, err := pak.Open(src, readerOpts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Files(), nil
}

func cmdDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>...",
		Short: "Remove installed artifacts, tolerating already-missing siblings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := pakcore.NewManager(pakcore.WithLogger(logger))
			if err != nil {
				return err
			}
			defer m.Close()
			m.Deleter().Delete(args)
			return <-m.Deleter().Results()
		},
	}
}

func cmdPack() *cobra.Command {
	var (
		mountPoint string
		seed       uint64
		zlib       bool
	)
	cmd := &cobra.Command{
		Use:   "pack <dir> <out.pak>",
		Short: "Pack a directory tree into a pak",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcDir, outPath := args[0], args[1]
			files, err := pathutil.CollectFiles(srcDir)
			if err != nil {
				return err
			}

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer out.Close()

			opts := []pak.WriterOption{
				pak.WithPathHashSeed(seed),
				pak.WithWriterLogger(logger),
			}
			if mountPoint != "" {
				opts = append(opts, pak.WithMountPoint(mountPoint))
			}
			method := pak.MethodNone
			if zlib {
				method = pak.MethodZlib
			}

			w := pak.NewWriter(out, opts...)
			for _, f := range files {
				rel, err := pathutil.Rel(srcDir, f)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				if err := w.WriteEntry(rel, data, method); err != nil {
					return err
				}
			}
			if err := w.WriteIndex(); err != nil {
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Clean(outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&mountPoint, "mount-point", "", "index mount point (default ../../../)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "path-hash index seed")
	cmd.Flags().BoolVar(&zlib, "zlib", false, "zlib-compress entries")
	return cmd
}
