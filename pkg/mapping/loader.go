// Package mapping loads delimited reference files into in-memory
// one-to-many lookup tables (source identifier to target identifiers).
package mapping

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/logging"
)

// Table is a read-only one-to-many mapping from source ID to target IDs.
type Table map[string][]string

// Lookup returns the targets for a source identifier.
func (t Table) Lookup(sourceID string) ([]string, bool) {
	targets, ok := t[sourceID]
	return targets, ok
}

// Sources returns the number of distinct source identifiers.
func (t Table) Sources() int {
	return len(t)
}

// Option configures the loader.
type Option func(*loader)

// WithDelimiter overrides delimiter auto-detection.
func WithDelimiter(delim string) Option {
	return func(l *loader) {
		l.delimiter = delim
	}
}

// WithLogger sets the loader's logger.
func WithLogger(log logging.Logger) Option {
	return func(l *loader) {
		l.logger = log
	}
}

type loader struct {
	delimiter string
	logger    logging.Logger
}

// Load parses the delimited file at path into a mapping table. The
// delimiter is auto-detected from the first line (tab wins over comma)
// unless overridden. Both named columns must exist in the header; a missing
// column is a fatal configuration error naming the column and the available
// header. Rows with an empty source or target cell are skipped. Duplicate
// (source, target) pairs collapse to one entry.
//
// Path resolution (environment-variable expansion, relative-to-absolute)
// happens before the file is opened, and any failure there is a
// configuration error surfaced before a single row is read.
func Load(path, sourceColumn, targetColumn string, opts ...Option) (Table, error) {
	l := &loader{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(l)
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, bmerrors.NewConfigError("file_path", "cannot open %q: %v", resolved, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, bmerrors.NewConfigError("file_path", "reading %q: %v", resolved, err)
		}
		return nil, bmerrors.NewConfigError("file_path", "file %q is empty, header row required", resolved)
	}

	headerLine := scanner.Text()
	delimiter := l.delimiter
	if delimiter == "" {
		delimiter = detectDelimiter(headerLine)
	}

	header := strings.Split(headerLine, delimiter)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	sourceIdx := indexOf(header, sourceColumn)
	if sourceIdx < 0 {
		return nil, bmerrors.NewConfigError("source_column",
			"column %q not found, available: %v", sourceColumn, header)
	}
	targetIdx := indexOf(header, targetColumn)
	if targetIdx < 0 {
		return nil, bmerrors.NewConfigError("target_column",
			"column %q not found, available: %v", targetColumn, header)
	}

	table := make(Table)
	seen := make(map[string]map[string]bool)
	skipped := 0

	for scanner.Scan() {
		cells := strings.Split(scanner.Text(), delimiter)
		if sourceIdx >= len(cells) || targetIdx >= len(cells) {
			skipped++
			continue
		}

		source := strings.TrimSpace(cells[sourceIdx])
		target := strings.TrimSpace(cells[targetIdx])
		if source == "" || target == "" {
			skipped++
			continue
		}

		if seen[source] == nil {
			seen[source] = make(map[string]bool)
		}
		if seen[source][target] {
			continue
		}
		seen[source][target] = true
		table[source] = append(table[source], target)
	}

	if err := scanner.Err(); err != nil {
		return nil, bmerrors.NewConfigError("file_path", "reading %q: %v", resolved, err)
	}

	l.logger.Debug("mapping table loaded",
		logging.F("path", resolved),
		logging.F("sources", len(table)),
		logging.F("rows_skipped", skipped))

	return table, nil
}

// detectDelimiter inspects the header line: tab present means
// tab-delimited, otherwise comma.
func detectDelimiter(headerLine string) string {
	if strings.Contains(headerLine, "\t") {
		return "\t"
	}
	return ","
}

// resolvePath expands environment variables and makes the path absolute.
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", bmerrors.NewConfigError("file_path", "path is required")
	}

	expanded := os.ExpandEnv(path)
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", bmerrors.NewConfigError("file_path", "cannot resolve %q: %v", expanded, err)
	}

	if _, err := os.Stat(abs); err != nil {
		return "", bmerrors.NewConfigError("file_path", "file not found: %q", abs)
	}
	return abs, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
