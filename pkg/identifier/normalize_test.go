package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	opts := DefaultNormalizeOptions()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "P12345", "P12345"},
		{"lower case", "p12345", "P12345"},
		{"whitespace", "  P12345  ", "P12345"},
		{"sp pipe prefix", "sp|P12345|HUMAN", "P12345"},
		{"tr pipe prefix", "tr|Q8NEV9|Q8NEV9_HUMAN", "Q8NEV9"},
		{"curie prefix", "UniProtKB:P12345", "P12345"},
		{"curie prefix lower", "uniprot:p12345", "P12345"},
		{"hmdb curie", "HMDB:HMDB0000122", "HMDB0000122"},
		{"unknown prefix passes through", "FOO:P12345", "FOO:P12345"},
		{"version suffix", "P12345.2", "P12345"},
		{"lone trailing dot", "P12345.", "P12345"},
		{"isoform suffix", "P12345-2", "P12345"},
		{"lone trailing dash", "P12345-", "P12345"},
		{"version then isoform", "P12345-1.3", "P12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, opts)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestNormalizeEmptyInputPassesThrough(t *testing.T) {
	got := Normalize("", DefaultNormalizeOptions())
	assert.Equal(t, "", got.Value)
	assert.False(t, got.ValidationFailed)
}

func TestNormalizeMalformedDegradesGracefully(t *testing.T) {
	opts := DefaultNormalizeOptions()

	// Double pipe with empty accession segment: best effort, no panic.
	got := Normalize("sp||", opts)
	assert.Equal(t, "", got.Value)
	assert.True(t, got.PrefixStripped)

	// Whitespace-only input stays as-is.
	got = Normalize("   ", opts)
	assert.Equal(t, "   ", got.Value)
}

func TestNormalizeValidationIsNonFatal(t *testing.T) {
	got := Normalize("NOTANACCESSION", DefaultNormalizeOptions())
	assert.Equal(t, "NOTANACCESSION", got.Value)
	assert.True(t, got.ValidationFailed)

	got = Normalize("Q8NEV9", DefaultNormalizeOptions())
	assert.False(t, got.ValidationFailed)
}

func TestNormalizeOptionToggles(t *testing.T) {
	opts := NormalizeOptions{Uppercase: true}

	got := Normalize("p12345.2", opts)
	assert.Equal(t, "P12345.2", got.Value, "version kept when strip_versions disabled")

	opts = NormalizeOptions{StripVersions: true}
	got = Normalize("p12345.2", opts)
	assert.Equal(t, "p12345", got.Value, "case kept when uppercase disabled")

	opts = NormalizeOptions{StripIsoforms: true}
	got = Normalize("P12345-2", opts)
	assert.Equal(t, "P12345", got.Value)
}

func TestNormalizeIdempotent(t *testing.T) {
	opts := DefaultNormalizeOptions()
	inputs := []string{"P12345", "sp|Q14213|HUMAN", "p12345-2", "HMDB:HMDB0000122", "Q8NEV9.1"}

	for _, raw := range inputs {
		once := Normalize(raw, opts).Value
		twice := Normalize(once, opts).Value
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", raw)
	}
}

func TestNormalizeAllCollectsStats(t *testing.T) {
	ids := []string{"p12345", "sp|Q14213|HUMAN", "P12345.2", "Q8NEV9-1", "bogus!!"}
	out, stats := NormalizeAll(ids, DefaultNormalizeOptions())

	assert.Equal(t, []string{"P12345", "Q14213", "P12345", "Q8NEV9", "BOGUS!!"}, out)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.CaseNormalized)
	assert.Equal(t, 1, stats.PrefixesStripped)
	assert.Equal(t, 1, stats.VersionsRemoved)
	assert.Equal(t, 1, stats.IsoformsHandled)
	assert.Equal(t, 1, stats.ValidationFailures)
}
