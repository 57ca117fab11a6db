package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docshelf/pdfdistill/internal/cli"
	"github.com/docshelf/pdfdistill/internal/cli/config"
)

var (
	// Populated at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile  string
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "pdfdistill -i <input> [flags]",
	Short: "Batch-converts PDF documents to plain text or markdown.",
	Long: `pdfdistill scans a file or directory of PDF documents and extracts their
text layer into .txt or .md files, organized by language under the output
root.

Runs are deterministic and idempotent: files are processed in lexicographic
order, existing non-empty outputs are skipped, and a rerun converts only
what is missing. Oversize, over-length, and image-only documents are
skipped with a recorded reason, and every discovered file is accounted for
in the final summary.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		settings, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		summary, err := cli.Run(ctx, settings, version)
		if err != nil {
			return err
		}
		exitCode = summary.ExitCode()
		return nil
	},
}

// Execute runs the root command and maps the outcome onto the process exit
// code: 0 for a clean run, 1 when files failed, 2 when the run stopped
// before every file was attempted.
func Execute() int {
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Configuration file path (default: search ./config.yaml, ./pdfdistill.yaml, ~/.pdfdistill.yaml)")
	config.RegisterFlags(rootCmd.Flags())
	_ = rootCmd.MarkFlagRequired("input")
}
