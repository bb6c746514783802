package identifier

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpanauts/biomapper/pkg/logging"
)

func TestExpandComposite(t *testing.T) {
	exp := Expand([]string{"Q14213_Q8NEV9", "P12345"}, []string{"_"})

	assert.ElementsMatch(t, []string{"Q14213", "Q8NEV9", "P12345"}, exp.Identifiers)
	require.Contains(t, exp.Lineage, "Q14213_Q8NEV9")
	assert.Equal(t, []string{"Q14213", "Q8NEV9"}, exp.Lineage["Q14213_Q8NEV9"])
	assert.NotContains(t, exp.Lineage, "P12345", "lineage only holds actual composites")
}

func TestExpandRoundTrip(t *testing.T) {
	// a+delim+b with no delimiter inside a or b expands to exactly {a, b}.
	exp := Expand([]string{"A12345_B67890"}, []string{"_"})
	assert.ElementsMatch(t, []string{"A12345", "B67890"}, exp.Identifiers)
	assert.Equal(t, []string{"A12345", "B67890"}, exp.Lineage["A12345_B67890"])
}

func TestExpandMultipleDelimiters(t *testing.T) {
	// Each delimiter splits the output of the previous split.
	exp := Expand([]string{"A_B,C"}, []string{"_", ","})
	assert.ElementsMatch(t, []string{"A", "B", "C"}, exp.Identifiers)
	assert.Equal(t, []string{"A", "B", "C"}, exp.Lineage["A_B,C"])
}

func TestExpandMultiCharacterDelimiter(t *testing.T) {
	exp := Expand([]string{"P12345::Q67890"}, []string{"::"})
	assert.ElementsMatch(t, []string{"P12345", "Q67890"}, exp.Identifiers)
}

func TestExpandKeepsEmptyComponents(t *testing.T) {
	// Leading/trailing delimiters produce empty-string components, which are
	// kept to match the reference split behavior.
	exp := Expand([]string{"_P12345_"}, []string{"_"})
	assert.Equal(t, []string{"", "P12345"}, exp.Identifiers)
	assert.Equal(t, []string{"", "P12345", ""}, exp.Lineage["_P12345_"])
}

func TestExpandDeduplicates(t *testing.T) {
	exp := Expand([]string{"P12345", "P12345_Q67890", "Q67890"}, []string{"_"})
	assert.ElementsMatch(t, []string{"P12345", "Q67890"}, exp.Identifiers)
}

func TestExpandNoDelimiters(t *testing.T) {
	exp := Expand([]string{"P12345", "Q67890"}, nil)
	assert.ElementsMatch(t, []string{"P12345", "Q67890"}, exp.Identifiers)
	assert.Empty(t, exp.Lineage)
}

func TestExpandEmptyInput(t *testing.T) {
	exp := Expand(nil, []string{"_"})
	assert.Empty(t, exp.Identifiers)
	assert.Empty(t, exp.Lineage)
}

func TestExpandValues(t *testing.T) {
	exp := ExpandValues([]interface{}{"Q14213_Q8NEV9", nil, 12345}, []string{"_"}, nil)
	assert.ElementsMatch(t, []string{"Q14213", "Q8NEV9", "12345"}, exp.Identifiers)
}

func TestExpandValuesLogsSkippedNils(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewLogger(&logging.Config{
		Level:      logging.LevelDebug,
		Component:  "test",
		JSONFormat: true,
		Output:     &buf,
	})

	exp := ExpandValues([]interface{}{"P12345", nil, nil, "Q67890"}, []string{"_"}, log)

	assert.ElementsMatch(t, []string{"P12345", "Q67890"}, exp.Identifiers)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("skipping nil identifier entry")))
	assert.Contains(t, buf.String(), `"index":1`)
	assert.Contains(t, buf.String(), `"index":2`)
}

func TestReverseLineage(t *testing.T) {
	lineage := map[string][]string{
		"A_B": {"A", "B"},
		"B_C": {"B", "C"},
	}
	reverse := ReverseLineage(lineage)
	assert.ElementsMatch(t, []string{"A_B"}, reverse["A"])
	assert.ElementsMatch(t, []string{"A_B", "B_C"}, reverse["B"])
	assert.ElementsMatch(t, []string{"B_C"}, reverse["C"])
}
