package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/identifier"
	"github.com/arpanauts/biomapper/pkg/logging"
	"github.com/arpanauts/biomapper/pkg/observability"
	"github.com/arpanauts/biomapper/pkg/overlap"
)

// expandCompositesAction splits composite identifiers on the configured
// delimiters and records lineage for coverage attribution.
type expandCompositesAction struct {
	deps Deps
}

func (a *expandCompositesAction) Name() string     { return "expand_composites" }
func (a *expandCompositesAction) Kind() ActionKind { return KindTransform }

func (a *expandCompositesAction) Execute(_ context.Context, pctx *Context, params Params) (*Result, error) {
	delimiters := params.StringSlice("delimiters")
	if len(delimiters) == 0 {
		delimiters = []string{params.StringDefault("composite_delimiter",
			params.StringDefault("delimiter", "_"))}
	}

	input := pctx.CurrentIdentifiers
	if len(input) == 0 {
		return emptyResult(pctx.OntologyType), nil
	}

	exp := identifier.Expand(input, delimiters)
	pctx.SetLineage(exp.Lineage)

	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordCompositeExpansion(len(exp.Lineage))
	}
	a.deps.Logger.Debug("expanded composite identifiers",
		logging.F("input_count", len(input)),
		logging.F("composites", len(exp.Lineage)),
		logging.F("output_count", len(exp.Identifiers)))

	return &Result{
		InputIdentifiers:   input,
		OutputIdentifiers:  exp.Identifiers,
		OutputOntologyType: pctx.OntologyType,
		Details: map[string]any{
			"composites_expanded": len(exp.Lineage),
			"lineage":             exp.Lineage,
		},
	}, nil
}

// normalizeAction canonicalizes every identifier in the working set and
// accumulates normalization statistics on the run context.
type normalizeAction struct {
	deps Deps
}

func (a *normalizeAction) Name() string     { return "normalize_identifiers" }
func (a *normalizeAction) Kind() ActionKind { return KindTransform }

func (a *normalizeAction) Execute(_ context.Context, pctx *Context, params Params) (*Result, error) {
	opts := identifier.NormalizeOptions{
		Uppercase:      params.Bool("uppercase", true),
		StripPrefixes:  params.Bool("strip_prefixes", true),
		StripVersions:  params.Bool("strip_versions", true),
		StripIsoforms:  params.Bool("strip_isoforms", true),
		ValidateFormat: params.Bool("validate_format", true),
	}

	input := pctx.CurrentIdentifiers
	if len(input) == 0 {
		return emptyResult(pctx.OntologyType), nil
	}

	normalized, stats := identifier.NormalizeAll(input, opts)
	pctx.Statistics["normalization"] = stats

	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordNormalization("case", stats.CaseNormalized)
		a.deps.Metrics.RecordNormalization("prefix", stats.PrefixesStripped)
		a.deps.Metrics.RecordNormalization("version", stats.VersionsRemoved)
		a.deps.Metrics.RecordNormalization("isoform", stats.IsoformsHandled)
	}
	if stats.ValidationFailures > 0 {
		a.deps.Logger.Warn("identifiers failed format validation",
			logging.F("count", stats.ValidationFailures))
	}

	return &Result{
		InputIdentifiers:   input,
		OutputIdentifiers:  normalized,
		OutputOntologyType: pctx.OntologyType,
		Details: map[string]any{
			"statistics": stats,
		},
	}, nil
}

// overlapAction compares named datasets stored on the run context and
// reports their intersection.
type overlapAction struct {
	deps Deps
}

func (a *overlapAction) Name() string     { return "overlap_analysis" }
func (a *overlapAction) Kind() ActionKind { return KindAnalysis }

func (a *overlapAction) Execute(ctx context.Context, pctx *Context, params Params) (*Result, error) {
	var span trace.Span
	if a.deps.Tracer != nil {
		_, span = a.deps.Tracer.StartOverlapSpan(ctx)
		defer span.End()
	}

	nameA, err := params.String("dataset_a")
	if err != nil {
		return nil, err
	}
	nameB, err := params.String("dataset_b")
	if err != nil {
		return nil, err
	}

	setA, ok := pctx.Datasets[nameA]
	if !ok {
		return nil, bmerrors.NewConfigError("dataset_a", "dataset %q not found in context", nameA)
	}
	setB, ok := pctx.Datasets[nameB]
	if !ok {
		return nil, bmerrors.NewConfigError("dataset_b", "dataset %q not found in context", nameB)
	}

	details := map[string]any{}
	var overlapping []string

	if nameC := params.StringDefault("dataset_c", ""); nameC != "" {
		setC, ok := pctx.Datasets[nameC]
		if !ok {
			return nil, bmerrors.NewConfigError("dataset_c", "dataset %q not found in context", nameC)
		}
		venn := overlap.AnalyzeThree(setA, setB, setC, nameA, nameB, nameC)
		details["venn"] = venn
		overlapping = venn.ABC
	} else {
		pair := overlap.Analyze(setA, setB, nameA, nameB)
		details["overlap"] = pair
		overlapping = pair.Overlap
	}

	if span != nil {
		observability.NewSpanHelper(span).SetSuccess()
	}

	return &Result{
		InputIdentifiers:   append(append([]string(nil), setA...), setB...),
		OutputIdentifiers:  overlapping,
		OutputOntologyType: pctx.OntologyType,
		Details:            details,
	}, nil
}
