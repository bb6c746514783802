// Package table provides a small ordered-record table abstraction used for
// bulk identifier processing: named columns, row-preserving transforms, and
// filters. It deliberately stays far simpler than a dataframe; pipeline
// actions only need column-wise transforms and row filtering.
package table

import (
	"fmt"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
)

// Row is one record, keyed by column name.
type Row map[string]string

// Table is an ordered sequence of rows with a fixed set of named columns.
type Table struct {
	columns []string
	rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds a row. Values for unknown columns are ignored; missing
// columns default to the empty string.
func (t *Table) Append(row Row) {
	r := make(Row, len(t.columns))
	for _, c := range t.columns {
		r[c] = row[c]
	}
	t.rows = append(t.rows, r)
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	if !t.HasColumn(name) {
		return nil, bmerrors.NewConfigError(name,
			"column not found, available: %v", t.columns)
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[name]
	}
	return out, nil
}

// AddColumn appends a new column populated with the given values. The value
// count must match the row count.
func (t *Table) AddColumn(name string, values []string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.rows))
	}
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i][name] = values[i]
	}
	return nil
}

// Transform rewrites the named column in place through fn, optionally
// preserving the pre-transform values in a "<name>_original" companion
// column and mirroring results into "<name>_normalized".
func (t *Table) Transform(name string, fn func(string) string, keepCompanions bool) error {
	if !t.HasColumn(name) {
		return bmerrors.NewConfigError(name,
			"column not found, available: %v", t.columns)
	}

	if keepCompanions {
		originals := make([]string, len(t.rows))
		for i, r := range t.rows {
			originals[i] = r[name]
		}
		if err := t.AddColumn(name+"_original", originals); err != nil {
			return err
		}
	}

	normalized := make([]string, len(t.rows))
	for i := range t.rows {
		normalized[i] = fn(t.rows[i][name])
		t.rows[i][name] = normalized[i]
	}

	if keepCompanions {
		return t.AddColumn(name+"_normalized", normalized)
	}
	return nil
}

// Filter returns a new table containing only the rows for which keep
// returns true. Column set and row order are preserved.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.columns...)
	for _, r := range t.rows {
		if keep(r) {
			out.Append(r)
		}
	}
	return out
}
