package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arpanauts/biomapper/config"
	"github.com/arpanauts/biomapper/pkg/overlap"
)

// Overlap command flags
var (
	overlapNames  []string
	overlapOutput string
)

// OverlapCommandDeps holds the dependencies for the overlap command.
type OverlapCommandDeps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)
}

// DefaultOverlapDeps returns the default dependencies for production use.
func DefaultOverlapDeps() *OverlapCommandDeps {
	return &OverlapCommandDeps{
		LoadConfig: config.LoadConfig,
	}
}

// NewOverlapCommand creates the overlap command.
func NewOverlapCommand(deps *OverlapCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultOverlapDeps()
	}

	cmd := &cobra.Command{
		Use:   "overlap <set-a> <set-b> [set-c]",
		Short: "Compare matched identifier sets across datasets",
		Long: `Compare matched identifier sets across datasets.

Each argument is a file with one identifier per line. With two files the
output is a pairwise comparison; with three it is a full Venn region
breakdown for three-cohort analysis.

Examples:
  biomapper overlap ukbb.txt arivale.txt
  biomapper overlap ukbb.txt arivale.txt hpp.txt --names ukbb,arivale,hpp -o json`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverlap(cmd, deps, args)
		},
	}

	cmd.Flags().StringSliceVar(&overlapNames, "names", nil, "dataset names (defaults to file names)")
	cmd.Flags().StringVarP(&overlapOutput, "output", "o", "", "output format: text, json, yaml")
	return cmd
}

func runOverlap(cmd *cobra.Command, deps *OverlapCommandDeps, args []string) error {
	cfg := deps.Config
	if cfg == nil {
		loaded, err := deps.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	sets := make([][]string, len(args))
	names := make([]string, len(args))
	for i, path := range args {
		ids, err := readIdentifierFile(path)
		if err != nil {
			return err
		}
		sets[i] = ids
		if i < len(overlapNames) && overlapNames[i] != "" {
			names[i] = overlapNames[i]
		} else {
			names[i] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}

	format := outputFormat(cfg, overlapOutput)
	w := cmd.OutOrStdout()

	if len(sets) == 3 {
		venn := overlap.AnalyzeThree(sets[0], sets[1], sets[2], names[0], names[1], names[2])
		if format == config.OutputFormatText {
			renderVennText(w, venn)
			return nil
		}
		return render(w, format, venn)
	}

	pair := overlap.Analyze(sets[0], sets[1], names[0], names[1])
	if format == config.OutputFormatText {
		renderPairText(w, pair)
		return nil
	}
	return render(w, format, pair)
}

func readIdentifierFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identifier file: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading identifier file: %w", err)
	}
	return ids, nil
}

func renderPairText(w io.Writer, pair overlap.Pair) {
	fmt.Fprintf(w, "%s: %d identifiers, %s: %d identifiers\n",
		pair.NameA, pair.CountA, pair.NameB, pair.CountB)
	fmt.Fprintf(w, "Overlap: %d (%.1f%% of %s, %.1f%% of %s)\n",
		len(pair.Overlap), pair.PercentOfA, pair.NameA, pair.PercentOfB, pair.NameB)
	fmt.Fprintf(w, "Unique to %s: %d\n", pair.NameA, len(pair.UniqueA))
	fmt.Fprintf(w, "Unique to %s: %d\n", pair.NameB, len(pair.UniqueB))
}

func renderVennText(w io.Writer, v overlap.Venn) {
	fmt.Fprintf(w, "Three-way overlap: %s / %s / %s\n", v.Names[0], v.Names[1], v.Names[2])
	fmt.Fprintf(w, "  only %s: %d\n", v.Names[0], len(v.OnlyA))
	fmt.Fprintf(w, "  only %s: %d\n", v.Names[1], len(v.OnlyB))
	fmt.Fprintf(w, "  only %s: %d\n", v.Names[2], len(v.OnlyC))
	fmt.Fprintf(w, "  %s & %s: %d\n", v.Names[0], v.Names[1], len(v.AB))
	fmt.Fprintf(w, "  %s & %s: %d\n", v.Names[0], v.Names[2], len(v.AC))
	fmt.Fprintf(w, "  %s & %s: %d\n", v.Names[1], v.Names[2], len(v.BC))
	fmt.Fprintf(w, "  all three: %d\n", len(v.ABC))
}
