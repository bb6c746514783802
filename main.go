// Package main provides the biomapper CLI entry point.
// biomapper harmonizes biological identifiers across cohort datasets
// through a progressive multi-stage matching pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arpanauts/biomapper/cmd"
	"github.com/arpanauts/biomapper/pkg/buildinfo"
)

var rootCmd = &cobra.Command{
	Use:   "biomapper",
	Short: "Biological identifier harmonization toolkit",
	Long: `biomapper maps biological identifiers (UniProt accessions, HMDB
metabolite IDs, LOINC codes) across heterogeneous cohort datasets.

A mapping run is a YAML-declared strategy: composite identifiers are
expanded, normalized, then matched through a waterfall of stages. Direct
table lookup runs first, fuzzy name matching second, and historical
accession resolution last, each stage consuming only the previous
stage's leftovers. Every transformation is recorded with its method,
confidence, and stage for full provenance.

COMMON WORKFLOWS:
  Map identifiers:   biomapper run strategy.yaml --input ids.txt
  Check a strategy:  biomapper validate strategy.yaml
  Compare cohorts:   biomapper overlap ukbb.txt arivale.txt hpp.txt`,
	Version:       buildinfo.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(cmd.NewRunCommand(nil))
	rootCmd.AddCommand(cmd.NewOverlapCommand(nil))
	rootCmd.AddCommand(cmd.NewNormalizeCommand())
	rootCmd.AddCommand(cmd.NewValidateCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
