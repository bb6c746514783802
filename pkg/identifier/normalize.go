// Package identifier provides normalization and composite expansion for
// biological identifier strings (UniProt accessions, HMDB metabolite IDs,
// LOINC codes). Transformations never mutate input values in place; every
// operation returns a new value plus enough bookkeeping to report what
// changed.
package identifier

import (
	"regexp"
	"strings"
)

// NormalizeOptions controls which normalization steps run.
type NormalizeOptions struct {
	// Uppercase canonicalizes the identifier to upper case.
	Uppercase bool

	// StripPrefixes removes known database-qualifier prefixes such as
	// "sp|P12345|HUMAN" or "UniProtKB:P12345".
	StripPrefixes bool

	// StripVersions removes a trailing ".<digits>" version segment.
	StripVersions bool

	// StripIsoforms removes a trailing "-<digits>" isoform segment.
	StripIsoforms bool

	// ValidateFormat checks the final value against the accession grammar.
	// Failures are recorded, never fatal.
	ValidateFormat bool
}

// DefaultNormalizeOptions returns options with every step enabled.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		Uppercase:      true,
		StripPrefixes:  true,
		StripVersions:  true,
		StripIsoforms:  true,
		ValidateFormat: true,
	}
}

// NormalizeResult reports the outcome of normalizing one identifier.
type NormalizeResult struct {
	// Value is the normalized identifier. Empty input passes through
	// unchanged.
	Value string

	CaseNormalized   bool
	PrefixStripped   bool
	VersionRemoved   bool
	IsoformRemoved   bool
	ValidationFailed bool
}

// Stats accumulates counts across a batch normalization.
type Stats struct {
	Total              int `json:"total"`
	CaseNormalized     int `json:"case_normalized"`
	PrefixesStripped   int `json:"prefixes_stripped"`
	VersionsRemoved    int `json:"versions_removed"`
	IsoformsHandled    int `json:"isoforms_handled"`
	ValidationFailures int `json:"validation_failures"`
}

// Add folds a single result into the stats.
func (s *Stats) Add(r NormalizeResult) {
	s.Total++
	if r.CaseNormalized {
		s.CaseNormalized++
	}
	if r.PrefixStripped {
		s.PrefixesStripped++
	}
	if r.VersionRemoved {
		s.VersionsRemoved++
	}
	if r.IsoformRemoved {
		s.IsoformsHandled++
	}
	if r.ValidationFailed {
		s.ValidationFailures++
	}
}

// accessionPattern mirrors the UniProt accession shape: one letter, one
// digit, then 4-8 alphanumerics.
var accessionPattern = regexp.MustCompile(`^[A-Za-z][0-9][A-Za-z0-9]{4,8}$`)

// knownQualifiers are database-qualifier prefixes recognized in
// "qualifier|ACCESSION|suffix" and "qualifier:ACCESSION" forms. Matching is
// case-insensitive; unrecognized qualifiers pass through unchanged.
var knownQualifiers = map[string]bool{
	"sp":        true,
	"tr":        true,
	"up":        true,
	"uniprot":   true,
	"uniprotkb": true,
	"ensembl":   true,
	"hmdb":      true,
	"chebi":     true,
	"loinc":     true,
}

// versionSuffix matches a trailing ".<digits>" segment or a lone trailing dot.
var versionSuffix = regexp.MustCompile(`\.\d*$`)

// isoformSuffix matches a trailing "-<digits>" segment or a lone trailing dash.
var isoformSuffix = regexp.MustCompile(`-\d*$`)

// Normalize cleans a single raw identifier string. Malformed input degrades
// to a best-effort value; it never returns an error. Empty input (after no
// trimming at all) passes through unchanged.
func Normalize(raw string, opts NormalizeOptions) NormalizeResult {
	if raw == "" {
		return NormalizeResult{Value: raw}
	}

	result := NormalizeResult{Value: strings.TrimSpace(raw)}
	if result.Value == "" {
		result.Value = raw
		return result
	}

	if opts.StripPrefixes {
		stripped, ok := stripQualifier(result.Value)
		if ok {
			result.Value = stripped
			result.PrefixStripped = true
		}
	}

	if opts.Uppercase {
		upper := strings.ToUpper(result.Value)
		if upper != result.Value {
			result.Value = upper
			result.CaseNormalized = true
		}
	}

	if opts.StripVersions {
		if trimmed := versionSuffix.ReplaceAllString(result.Value, ""); trimmed != result.Value {
			result.Value = trimmed
			result.VersionRemoved = true
		}
	}

	if opts.StripIsoforms {
		if trimmed := isoformSuffix.ReplaceAllString(result.Value, ""); trimmed != result.Value {
			result.Value = trimmed
			result.IsoformRemoved = true
		}
	}

	if opts.ValidateFormat && result.Value != "" {
		if !accessionPattern.MatchString(result.Value) {
			result.ValidationFailed = true
		}
	}

	return result
}

// stripQualifier removes a recognized database-qualifier prefix. It handles
// the FASTA-style "sp|P12345|HUMAN" form (accession is the middle segment)
// and the CURIE-style "UniProtKB:P12345" form. Empty segments degrade
// gracefully: "sp||" yields an empty accession rather than an error.
func stripQualifier(value string) (string, bool) {
	if strings.Contains(value, "|") {
		parts := strings.Split(value, "|")
		if len(parts) >= 2 && knownQualifiers[strings.ToLower(parts[0])] {
			return parts[1], true
		}
		return value, false
	}

	if idx := strings.Index(value, ":"); idx > 0 {
		qualifier := value[:idx]
		if knownQualifiers[strings.ToLower(qualifier)] {
			return value[idx+1:], true
		}
	}

	return value, false
}

// NormalizeAll normalizes a batch of identifiers and accumulates statistics.
// Input order is preserved.
func NormalizeAll(ids []string, opts NormalizeOptions) ([]string, Stats) {
	out := make([]string, 0, len(ids))
	var stats Stats
	for _, id := range ids {
		r := Normalize(id, opts)
		stats.Add(r)
		out = append(out, r.Value)
	}
	return out, stats
}
