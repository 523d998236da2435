// Command pakcore is the headless counterpart of the mod-manager GUI:
// it ingests mod sources, installs them into a game pak directory,
// and extracts, classifies, packs, or deletes installed artifacts.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	verbose := false
	root := &cobra.Command{
		Use:   "pakcore",
		Short: "Unreal Engine mod installation toolkit",
		Long: `pakcore converts mod downloads (directories, paks, zip/rar archives)
into load-order-correct game artifacts: IoStore containers with their
companion paks, or plain repacked paks for audio and movie mods.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debugging information")

	root.AddCommand(cmdInstall())
	root.AddCommand(cmdExtract())
	root.AddCommand(cmdClassify())
	root.AddCommand(cmdDelete())
	root.AddCommand(cmdPack())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// logger is installed by the root command before any subcommand runs.
var logger *slog.Logger
