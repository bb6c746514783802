// Package fuzzy provides deterministic fuzzy string matching for biological
// entity names. All scoring is local: no network calls, no external state,
// and a batch of a few thousand names completes in well under a second.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// greekNames transliterates Greek letters to their Latin names, so
// "α-tocopherol" and "alpha tocopherol" compare equal after normalization.
var greekNames = map[rune]string{
	'α': "alpha", 'Α': "alpha",
	'β': "beta", 'Β': "beta",
	'γ': "gamma", 'Γ': "gamma",
	'δ': "delta", 'Δ': "delta",
	'ε': "epsilon", 'Ε': "epsilon",
	'κ': "kappa", 'Κ': "kappa",
	'λ': "lambda", 'Λ': "lambda",
	'μ': "mu", 'Μ': "mu",
	'σ': "sigma", 'Σ': "sigma", 'ς': "sigma",
	'τ': "tau", 'Τ': "tau",
	'ω': "omega", 'Ω': "omega",
}

// phraseExpansions rewrites lipid-panel and clinical shorthand after
// tokenization, e.g. "HDL_C" normalizes to "hdl c" and expands to
// "hdl cholesterol".
var phraseExpansions = map[string]string{
	"hdl c":     "hdl cholesterol",
	"ldl c":     "ldl cholesterol",
	"vldl c":    "vldl cholesterol",
	"non hdl c": "non hdl cholesterol",
	"total c":   "total cholesterol",
}

// tokenExpansions expands single-token abbreviations.
var tokenExpansions = map[string]string{
	"chol": "cholesterol",
	"trig": "triglycerides",
	"tg":   "triglycerides",
	"hgb":  "hemoglobin",
	"glc":  "glucose",
}

// diacriticFolder strips combining marks so accented and plain spellings
// compare equal ("café" -> "cafe").
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes an entity name for comparison: lower-case,
// Greek transliteration, diacritic folding, punctuation to spaces,
// abbreviation expansion, collapsed whitespace.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name) + 8)
	for _, r := range strings.ToLower(name) {
		if latin, ok := greekNames[r]; ok {
			b.WriteString(latin)
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	folded, _, err := transform.String(diacriticFolder, b.String())
	if err != nil {
		folded = b.String()
	}

	tokens := strings.Fields(folded)
	for i, tok := range tokens {
		if expanded, ok := tokenExpansions[tok]; ok {
			tokens[i] = expanded
		}
	}

	result := strings.Join(tokens, " ")
	if expanded, ok := phraseExpansions[result]; ok {
		result = expanded
	}
	return result
}
