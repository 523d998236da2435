package main

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/uemod/pakcore"
	"github.com/uemod/pakcore/ingest"
	"github.com/uemod/pakcore/install"
	"github.com/uemod/pakcore/oodle"
	"github.com/uemod/pakcore/pak"
)

func cmdInstall() *cobra.Command {
	var (
		modDir      string
		aesKey      string
		compression string
		fixMeshes   bool
		fixTextures bool
		noRepak     bool
		tags        []string
	)
	cmd := &cobra.Command{
		Use:   "install <source>...",
		Short: "Ingest mod sources and install them into a mod directory",
		Long: `Sources may be directories, .pak files, or .zip/.rar archives.
Each source becomes one or more installed artifacts named <base>_9999999_P.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ingestOpts []ingest.Option
			var installOpts []install.Option
			ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
			installOpts = append(installOpts, install.WithLogger(logger))

			if aesKey != "" {
				key, err := pak.ParseAESKey(aesKey)
				if err != nil {
					return err
				}
				ingestOpts = append(ingestOpts, ingest.WithAESKey(key))
				installOpts = append(installOpts, install.WithAESKey(key))
			}
			if noRepak {
				ingestOpts = append(ingestOpts, ingest.WithRepakLoosePaks(false))
			}
			var codec oodle.Compressor
			if compression != "" {
				var ok bool
				codec, ok = oodle.ParseCompressor(compression)
				if !ok {
					return fmt.Errorf("unknown compressor %q", compression)
				}
			}

			res, err := ingest.Ingest(cmd.Context(), args, ingestOpts...)
			if err != nil {
				return err
			}
			defer res.Close()
			if len(res.Mods) == 0 {
				return fmt.Errorf("no installable mods in %v", args)
			}
			for _, mod := range res.Mods {
				mod.FixMesh = fixMeshes
				mod.FixTextures = fixTextures
				mod.Compression = codec
				mod.Tags = append(mod.Tags, tags...)
			}

			m, err := pakcore.NewManager(
				pakcore.WithLogger(logger),
				pakcore.WithInstallOptions(installOpts...),
			)
			if err != nil {
				return err
			}
			defer m.Close()

			var progress atomic.Int32
			records := m.InstallBatch(cmd.Context(), res.Mods, modDir, &progress, nil)
			if len(records) == 0 {
				return fmt.Errorf("no mods installed")
			}
			for _, rec := range records {
				fmt.Fprintln(cmd.OutOrStdout(), rec.BaseName)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modDir, "mod-dir", "d", ".", "target mod directory")
	cmd.Flags().StringVar(&aesKey, "aes-key", "", "pak index key, hex or base64")
	cmd.Flags().StringVar(&compression, "compression", "", "oodle codec for repacks (Kraken, Mermaid, Selkie, Hydra, Leviathan)")
	cmd.Flags().BoolVar(&fixMeshes, "fix-meshes", false, "redirect stale mesh package names")
	cmd.Flags().BoolVar(&fixTextures, "fix-textures", false, "disable texture mip generation")
	cmd.Flags().BoolVar(&noRepak, "no-repak", false, "copy loose paks instead of repacking them")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "user tag recorded for each installed mod")
	return cmd
}
