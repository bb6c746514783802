package fuzzy

import (
	"github.com/arpanauts/biomapper/pkg/logging"
)

// Tier labels the confidence band a score falls into.
type Tier string

const (
	TierExact          Tier = "exact"
	TierHighConfidence Tier = "high_confidence"
	TierAcceptable     Tier = "acceptable"
)

// Thresholds are the tiered acceptance bars, on the 0-100 score scale.
type Thresholds struct {
	Exact          float64 `yaml:"exact" json:"exact"`
	HighConfidence float64 `yaml:"high_confidence" json:"high_confidence"`
	Acceptable     float64 `yaml:"acceptable" json:"acceptable"`
}

// DefaultThresholds returns the standard tiers. The acceptable floor of
// 85 is a correctness bar, not a tuning knob: biologically distinct name
// pairs must land below it.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Exact:          100.0,
		HighConfidence: 95.0,
		Acceptable:     85.0,
	}
}

// Match is the best reference found for a candidate name.
type Match struct {
	Reference string    `json:"reference"`
	Score     float64   `json:"score"`
	Algorithm Algorithm `json:"algorithm"`
	Tier      Tier      `json:"tier"`
}

// Matcher scores candidate names against reference names. It is stateless
// apart from configuration; the same inputs always produce the same match.
type Matcher struct {
	algorithms []Algorithm
	thresholds Thresholds
	logger     logging.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithAlgorithms selects the scoring algorithms.
func WithAlgorithms(algorithms ...Algorithm) MatcherOption {
	return func(m *Matcher) {
		m.algorithms = algorithms
	}
}

// WithThresholds overrides the tiered thresholds.
func WithThresholds(t Thresholds) MatcherOption {
	return func(m *Matcher) {
		m.thresholds = t
	}
}

// WithMatcherLogger sets the matcher's logger.
func WithMatcherLogger(log logging.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = log
	}
}

// NewMatcher creates a Matcher with the default algorithm set and tiers.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		algorithms: DefaultAlgorithms(),
		thresholds: DefaultThresholds(),
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Thresholds returns the matcher's configured tiers.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// BestMatch scores candidate against every reference with every configured
// algorithm and returns the best reference at or above the acceptable
// floor. Ties break toward the first-encountered reference in the supplied
// list order, so results are reproducible for a fixed reference ordering.
func (m *Matcher) BestMatch(candidate string, references []string) (*Match, bool) {
	if candidate == "" || len(references) == 0 {
		return nil, false
	}

	normalizedCandidate := NormalizeName(candidate)

	var best *Match
	for _, ref := range references {
		normalizedRef := NormalizeName(ref)

		penalty := 1.0
		if distinctEntities(normalizedCandidate, normalizedRef) {
			penalty = distinctEntityPenalty
		}

		for _, alg := range m.algorithms {
			score := Score(normalizedCandidate, normalizedRef, alg) * penalty
			if best == nil || score > best.Score {
				best = &Match{
					Reference: ref,
					Score:     score,
					Algorithm: alg,
				}
			}
		}
	}

	if best == nil || best.Score < m.thresholds.Acceptable {
		if best != nil {
			m.logger.Debug("no acceptable fuzzy match",
				logging.F("candidate", candidate),
				logging.F("best_score", best.Score))
		}
		return nil, false
	}

	best.Tier = m.tier(best.Score)
	return best, true
}

func (m *Matcher) tier(score float64) Tier {
	switch {
	case score >= m.thresholds.Exact:
		return TierExact
	case score >= m.thresholds.HighConfidence:
		return TierHighConfidence
	default:
		return TierAcceptable
	}
}

// distinctEntityPenalty caps pairs flagged as biologically distinct well
// below the acceptable floor regardless of raw string similarity.
const distinctEntityPenalty = 0.5

// discriminatorTokens name biologically meaningful qualifiers. Two names
// that differ only in these tokens denote different entities even when the
// strings are nearly identical: D-glucose is not L-glucose, HDL cholesterol
// is not LDL cholesterol.
var discriminatorTokens = map[string]bool{
	"hdl": true, "ldl": true, "vldl": true, "idl": true,
	"alpha": true, "beta": true, "gamma": true, "delta": true,
	"epsilon": true, "omega": true,
	"cis": true, "trans": true,
	"ortho": true, "meta": true, "para": true,
	"mono": true, "di": true, "tri": true,
	"dl": true,
}

// distinctEntities reports whether two normalized names differ only in
// discriminator tokens (including single characters and pure digits, which
// cover stereoisomer prefixes and positional isomer numbering).
func distinctEntities(a, b string) bool {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	onlyA := tokenDiff(tokensA, tokensB)
	onlyB := tokenDiff(tokensB, tokensA)
	if len(onlyA) == 0 || len(onlyB) == 0 {
		return false
	}

	for _, tok := range append(onlyA, onlyB...) {
		if !isDiscriminator(tok) {
			return false
		}
	}
	return true
}

func tokenDiff(a, b map[string]bool) []string {
	var out []string
	for tok := range a {
		if !b[tok] {
			out = append(out, tok)
		}
	}
	return out
}

func isDiscriminator(tok string) bool {
	if len(tok) == 1 {
		return true
	}
	if discriminatorTokens[tok] {
		return true
	}
	return isAllDigits(tok)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
