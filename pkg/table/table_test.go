package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
)

func newFixture() *Table {
	t := New("uniprot", "name")
	t.Append(Row{"uniprot": "p12345", "name": "alpha"})
	t.Append(Row{"uniprot": "q8nev9", "name": "beta"})
	return t
}

func TestColumnAccess(t *testing.T) {
	tbl := newFixture()

	vals, err := tbl.Column("uniprot")
	require.NoError(t, err)
	assert.Equal(t, []string{"p12345", "q8nev9"}, vals)

	_, err = tbl.Column("missing")
	require.Error(t, err)
	assert.True(t, bmerrors.IsConfig(err))
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "uniprot")
}

func TestTransformWithCompanions(t *testing.T) {
	tbl := newFixture()

	require.NoError(t, tbl.Transform("uniprot", strings.ToUpper, true))

	vals, err := tbl.Column("uniprot")
	require.NoError(t, err)
	assert.Equal(t, []string{"P12345", "Q8NEV9"}, vals)

	originals, err := tbl.Column("uniprot_original")
	require.NoError(t, err)
	assert.Equal(t, []string{"p12345", "q8nev9"}, originals)

	normalized, err := tbl.Column("uniprot_normalized")
	require.NoError(t, err)
	assert.Equal(t, []string{"P12345", "Q8NEV9"}, normalized)
}

func TestTransformWithoutCompanions(t *testing.T) {
	tbl := newFixture()
	require.NoError(t, tbl.Transform("uniprot", strings.ToUpper, false))
	assert.False(t, tbl.HasColumn("uniprot_original"))
}

func TestFilter(t *testing.T) {
	tbl := newFixture()
	kept := tbl.Filter(func(r Row) bool { return r["name"] == "beta" })

	assert.Equal(t, 2, tbl.Len(), "source table unchanged")
	require.Equal(t, 1, kept.Len())
	assert.Equal(t, "q8nev9", kept.Row(0)["uniprot"])
}

func TestAddColumnLengthMismatch(t *testing.T) {
	tbl := newFixture()
	assert.Error(t, tbl.AddColumn("extra", []string{"only-one"}))
	assert.Error(t, tbl.AddColumn("uniprot", []string{"a", "b"}), "duplicate column")
}

func TestAppendIgnoresUnknownColumns(t *testing.T) {
	tbl := New("id")
	tbl.Append(Row{"id": "X1", "stray": "dropped"})
	assert.Equal(t, Row{"id": "X1"}, tbl.Row(0))
}
