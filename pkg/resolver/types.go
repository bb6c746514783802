// Package resolver resolves historical and secondary biological accessions
// to their current primary identifiers through an injected lookup service.
// The service is the only network-bound stage of the matching pipeline;
// everything here is built around batching, per-batch timeouts, and
// partial-failure tolerance.
package resolver

import (
	"context"
	"strings"
)

// ResolutionType classifies the outcome of resolving one identifier.
type ResolutionType string

const (
	// ResolutionPrimary means the identifier is already current.
	ResolutionPrimary ResolutionType = "primary"

	// ResolutionSecondary means a secondary accession resolved to its
	// primary identifier.
	ResolutionSecondary ResolutionType = "secondary"

	// ResolutionDemerged means one historical identifier split into
	// multiple current identifiers.
	ResolutionDemerged ResolutionType = "demerged"

	// ResolutionObsolete means the identifier no longer exists.
	ResolutionObsolete ResolutionType = "obsolete"

	// ResolutionError means the lookup failed for this identifier.
	ResolutionError ResolutionType = "error"

	// ResolutionUnknown means the service returned an unrecognized outcome.
	ResolutionUnknown ResolutionType = "unknown"
)

// confidenceTable is the single canonical mapping from resolution type to
// confidence. Every caller reads it through Confidence(); the values are
// defined exactly once.
var confidenceTable = map[ResolutionType]float64{
	ResolutionPrimary:   1.0,
	ResolutionSecondary: 0.9,
	ResolutionDemerged:  0.85,
	ResolutionObsolete:  0.0,
	ResolutionError:     0.0,
	ResolutionUnknown:   0.5,
}

// Confidence returns the canonical confidence score for a resolution type.
// Unrecognized types score as unknown.
func (t ResolutionType) Confidence() float64 {
	if c, ok := confidenceTable[t]; ok {
		return c
	}
	return confidenceTable[ResolutionUnknown]
}

// Resolution is the per-identifier outcome returned by the service.
type Resolution struct {
	// InputID is the identifier that was looked up.
	InputID string `json:"input_id"`

	// PrimaryIDs are the current identifiers. Empty for obsolete and error
	// outcomes; more than one only for demerged outcomes.
	PrimaryIDs []string `json:"primary_ids"`

	// Type classifies the outcome.
	Type ResolutionType `json:"type"`
}

// ParseTag parses a service resolution tag such as "primary",
// "secondary:P67890", or "demerged". The optional suffix after the colon
// carries outcome detail (for secondary, the primary accession).
func ParseTag(tag string) (ResolutionType, string) {
	name, detail, _ := strings.Cut(tag, ":")
	switch ResolutionType(strings.ToLower(strings.TrimSpace(name))) {
	case ResolutionPrimary:
		return ResolutionPrimary, detail
	case ResolutionSecondary:
		return ResolutionSecondary, detail
	case ResolutionDemerged:
		return ResolutionDemerged, detail
	case ResolutionObsolete:
		return ResolutionObsolete, detail
	case ResolutionError:
		return ResolutionError, detail
	default:
		return ResolutionUnknown, detail
	}
}

// Service is the injected historical-accession lookup capability. One call
// covers one batch; the returned map is keyed by input identifier and may
// omit identifiers the service knows nothing about.
type Service interface {
	Resolve(ctx context.Context, ids []string) (map[string]Resolution, error)
}
