package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arpanauts/biomapper/config"
	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/identifier"
	"github.com/arpanauts/biomapper/pkg/table"
)

// Normalize command flags
var (
	normalizeColumn     string
	normalizeCompanions bool
	normalizeNoValidate bool
	normalizeOutput     string
)

// NewNormalizeCommand creates the normalize command, which canonicalizes
// one identifier column of a delimited file.
func NewNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <file.tsv>",
		Short: "Normalize an identifier column of a delimited file",
		Long: `Normalize an identifier column of a delimited file.

Reads a TSV or CSV file (delimiter auto-detected from the header), applies
identifier normalization (case folding, qualifier prefix stripping,
version and isoform suffix removal, format validation) to the named
column, and writes the resulting table to stdout as TSV. With
--companions the original values are preserved in <column>_original and
mirrored in <column>_normalized.

Examples:
  biomapper normalize proteins.tsv --column uniprot
  biomapper normalize proteins.csv --column uniprot --companions`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&normalizeColumn, "column", "c", "", "column holding the identifiers (required)")
	cmd.Flags().BoolVar(&normalizeCompanions, "companions", false, "keep <column>_original and <column>_normalized columns")
	cmd.Flags().BoolVar(&normalizeNoValidate, "no-validate", false, "skip format validation")
	cmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "statistics output format: text, json, yaml")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func runNormalize(cmd *cobra.Command, path string) error {
	tbl, err := readTable(path)
	if err != nil {
		return err
	}
	if !tbl.HasColumn(normalizeColumn) {
		return bmerrors.NewConfigError("column",
			"column %q not found, available: %v", normalizeColumn, tbl.Columns())
	}

	opts := identifier.DefaultNormalizeOptions()
	opts.ValidateFormat = !normalizeNoValidate

	var stats identifier.Stats
	err = tbl.Transform(normalizeColumn, func(raw string) string {
		result := identifier.Normalize(raw, opts)
		stats.Add(result)
		return result.Value
	}, normalizeCompanions)
	if err != nil {
		return err
	}

	writeTableTSV(cmd.OutOrStdout(), tbl)

	switch config.OutputFormat(strings.ToLower(normalizeOutput)) {
	case config.OutputFormatJSON, config.OutputFormatYAML:
		return render(cmd.ErrOrStderr(), config.OutputFormat(strings.ToLower(normalizeOutput)), stats)
	default:
		fmt.Fprintf(cmd.ErrOrStderr(),
			"normalized %d identifiers: %d case, %d prefixes, %d versions, %d isoforms, %d validation failures\n",
			stats.Total, stats.CaseNormalized, stats.PrefixesStripped,
			stats.VersionsRemoved, stats.IsoformsHandled, stats.ValidationFailures)
		return nil
	}
}

// readTable loads a delimited file into a table. Tab wins over comma when
// detecting the delimiter from the header line.
func readTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bmerrors.NewConfigError("file_path", "opening %s: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if !scanner.Scan() {
		return nil, bmerrors.NewConfigError("file_path", "file %s is empty", path)
	}

	header := scanner.Text()
	delimiter := ","
	if strings.Contains(header, "\t") {
		delimiter = "\t"
	}

	columns := strings.Split(header, delimiter)
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	tbl := table.New(columns...)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, delimiter)
		row := make(table.Row, len(columns))
		for i, col := range columns {
			if i < len(cells) {
				row[col] = strings.TrimSpace(cells[i])
			}
		}
		tbl.Append(row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return tbl, nil
}

func writeTableTSV(w io.Writer, tbl *table.Table) {
	columns := tbl.Columns()
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = row[col]
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}
