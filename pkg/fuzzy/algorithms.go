package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/hbollon/go-edlib"
)

// Algorithm identifies a string-similarity scoring algorithm. Every
// algorithm produces a score in [0, 100] over two already-normalized names.
type Algorithm string

const (
	// AlgorithmRatio is plain edit-distance similarity.
	AlgorithmRatio Algorithm = "ratio"

	// AlgorithmTokenSort sorts tokens alphabetically before scoring,
	// making word order irrelevant.
	AlgorithmTokenSort Algorithm = "token_sort_ratio"

	// AlgorithmTokenSet scores the token intersection against each side's
	// combined string; subset names score highly against superset names.
	AlgorithmTokenSet Algorithm = "token_set_ratio"

	// AlgorithmPartial scores the best-matching contiguous substring,
	// rewarding abbreviation and substring containment.
	AlgorithmPartial Algorithm = "partial_ratio"

	// AlgorithmJaroWinkler favors shared prefixes.
	AlgorithmJaroWinkler Algorithm = "jaro_winkler"
)

// DefaultAlgorithms returns the standard algorithm set.
func DefaultAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmRatio,
		AlgorithmTokenSort,
		AlgorithmTokenSet,
		AlgorithmPartial,
	}
}

// Score computes the similarity of two normalized names with the given
// algorithm. Unknown algorithms score zero.
func Score(a, b string, alg Algorithm) float64 {
	switch alg {
	case AlgorithmRatio:
		return ratio(a, b)
	case AlgorithmTokenSort:
		return tokenSortRatio(a, b)
	case AlgorithmTokenSet:
		return tokenSetRatio(a, b)
	case AlgorithmPartial:
		return partialRatio(a, b)
	case AlgorithmJaroWinkler:
		return float64(edlib.JaroWinklerSimilarity(a, b)) * 100
	default:
		return 0
	}
}

// ratio is edit-distance similarity scaled to [0, 100].
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

// tokenSortRatio sorts each side's tokens before applying ratio.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetRatio builds the sorted intersection and each side's sorted
// remainder, then takes the best pairwise ratio of the three combined
// strings. A name whose tokens are a subset of the other's scores 100.
func tokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	var intersection, onlyA, onlyB []string
	for tok := range tokensA {
		if tokensB[tok] {
			intersection = append(intersection, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tokensB {
		if !tokensA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(intersection)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := ratio(base, combinedA)
	if s := ratio(base, combinedB); s > best {
		best = s
	}
	if s := ratio(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// partialRatio slides the shorter string across the longer one and returns
// the best window ratio.
func partialRatio(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 100
		}
		return 0
	}
	if len(shorter) == len(longer) {
		return ratio(string(shorter), string(longer))
	}

	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := string(longer[i : i+len(shorter)])
		if s := ratio(string(shorter), window); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}
