package pipeline

import (
	"context"
	"sort"
	"strconv"
	"time"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/fuzzy"
	"github.com/arpanauts/biomapper/pkg/logging"
	"github.com/arpanauts/biomapper/pkg/mapping"
	"github.com/arpanauts/biomapper/pkg/provenance"
	"github.com/arpanauts/biomapper/pkg/resolver"
)

// loadMappingTable loads the reference table a match action is configured
// with. Missing parameters and unreadable files are configuration errors.
func loadMappingTable(params Params, logger logging.Logger) (mapping.Table, error) {
	path, err := params.String("file_path")
	if err != nil {
		return nil, err
	}
	sourceColumn, err := params.String("source_column")
	if err != nil {
		return nil, err
	}
	targetColumn, err := params.String("target_column")
	if err != nil {
		return nil, err
	}

	opts := []mapping.Option{mapping.WithLogger(logger)}
	if delim := params.StringDefault("file_delimiter", ""); delim != "" {
		opts = append(opts, mapping.WithDelimiter(delim))
	}
	return mapping.Load(path, sourceColumn, targetColumn, opts...)
}

// localMappingAction maps identifiers through a local reference table by
// exact lookup. Every hit carries confidence 1.0.
type localMappingAction struct {
	deps Deps
}

func (a *localMappingAction) Name() string     { return "local_id_conversion" }
func (a *localMappingAction) Kind() ActionKind { return KindMatch }

func (a *localMappingAction) Execute(_ context.Context, pctx *Context, params Params) (*Result, error) {
	table, err := loadMappingTable(params, a.deps.Logger)
	if err != nil {
		return nil, err
	}

	stage := params.Int("stage", 1)
	outputOntology := params.StringDefault("output_ontology_type", pctx.OntologyType)

	input := pctx.CurrentIdentifiers
	result := emptyResult(outputOntology)
	result.InputIdentifiers = input
	result.UnmatchedReasons = make(map[string]string)
	result.MethodDistribution = make(map[string]int)

	seen := make(map[string]struct{})
	for _, id := range input {
		targets, ok := table.Lookup(id)
		if !ok {
			result.Unmatched = append(result.Unmatched, id)
			result.UnmatchedReasons[id] = "no_local_mapping"
			a.recordMetric(stage, "unmatched")
			continue
		}
		result.Matched = append(result.Matched, id)
		result.MethodDistribution["direct_match"]++
		a.recordMetric(stage, "matched")
		for _, target := range targets {
			result.Provenance = append(result.Provenance, provenance.New(
				a.Name(), id, pctx.OntologyType, target, outputOntology,
				"direct_match", 1.0, stage))
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			result.OutputIdentifiers = append(result.OutputIdentifiers, target)
		}
	}

	result.Details["matched_count"] = len(result.Matched)
	result.Details["unmatched_count"] = len(result.Unmatched)
	result.Details["table_sources"] = table.Sources()
	return result, nil
}

func (a *localMappingAction) recordMetric(stage int, status string) {
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordIdentifier(strconv.Itoa(stage), "direct_match", status)
	}
}

// fuzzyMatchAction maps identifiers by fuzzy name similarity against a
// reference table's source names. Match confidence is the best score
// scaled to 0-1.
type fuzzyMatchAction struct {
	deps Deps
}

func (a *fuzzyMatchAction) Name() string     { return "fuzzy_string_match" }
func (a *fuzzyMatchAction) Kind() ActionKind { return KindMatch }

func (a *fuzzyMatchAction) Execute(_ context.Context, pctx *Context, params Params) (*Result, error) {
	stage := params.Int("stage", 2)
	outputOntology := params.StringDefault("output_ontology_type", pctx.OntologyType)

	// References come either from a mapping table (match the source names,
	// emit the target identifiers) or from a literal reference list (emit
	// the matched names themselves).
	var table mapping.Table
	references := params.StringSlice("references")
	if len(references) == 0 {
		var err error
		table, err = loadMappingTable(params, a.deps.Logger)
		if err != nil {
			return nil, err
		}
		for source := range table {
			references = append(references, source)
		}
		// Map iteration order is random; a fixed reference order keeps
		// tie-breaking reproducible.
		sort.Strings(references)
	}

	var matcherOpts []fuzzy.MatcherOption
	if algs := params.StringSlice("algorithms"); len(algs) > 0 {
		algorithms := make([]fuzzy.Algorithm, 0, len(algs))
		for _, alg := range algs {
			algorithms = append(algorithms, fuzzy.Algorithm(alg))
		}
		matcherOpts = append(matcherOpts, fuzzy.WithAlgorithms(algorithms...))
	}
	if floor := params.Float("match_threshold", 0); floor > 0 {
		t := fuzzy.DefaultThresholds()
		t.Acceptable = floor
		matcherOpts = append(matcherOpts, fuzzy.WithThresholds(t))
	}
	matcherOpts = append(matcherOpts, fuzzy.WithMatcherLogger(a.deps.Logger))
	matcher := fuzzy.NewMatcher(matcherOpts...)

	input := pctx.CurrentIdentifiers
	result := emptyResult(outputOntology)
	result.InputIdentifiers = input
	result.UnmatchedReasons = make(map[string]string)
	result.MethodDistribution = make(map[string]int)

	seen := make(map[string]struct{})
	for _, id := range input {
		match, ok := matcher.BestMatch(id, references)
		if !ok {
			result.Unmatched = append(result.Unmatched, id)
			result.UnmatchedReasons[id] = "below_fuzzy_threshold"
			a.recordMetric(stage, "unmatched", "")
			continue
		}

		method := "fuzzy_" + string(match.Algorithm)
		confidence := match.Score / 100
		targets := []string{match.Reference}
		if table != nil {
			targets, _ = table.Lookup(match.Reference)
		}

		result.Matched = append(result.Matched, id)
		result.MethodDistribution[method]++
		a.recordMetric(stage, "matched", method)
		if a.deps.Metrics != nil {
			a.deps.Metrics.RecordMatchConfidence(method, confidence)
		}

		for _, target := range targets {
			result.Provenance = append(result.Provenance, provenance.New(
				a.Name(), id, pctx.OntologyType, target, outputOntology,
				method, confidence, stage))
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			result.OutputIdentifiers = append(result.OutputIdentifiers, target)
		}
	}

	result.Details["matched_count"] = len(result.Matched)
	result.Details["unmatched_count"] = len(result.Unmatched)
	result.Details["reference_count"] = len(references)
	return result, nil
}

func (a *fuzzyMatchAction) recordMetric(stage int, status, method string) {
	if a.deps.Metrics != nil {
		if method == "" {
			method = "fuzzy"
		}
		a.deps.Metrics.RecordIdentifier(strconv.Itoa(stage), method, status)
	}
}

// historicalResolutionAction resolves leftover identifiers through the
// injected historical-accession service.
type historicalResolutionAction struct {
	deps Deps
}

func (a *historicalResolutionAction) Name() string     { return "historical_id_resolution" }
func (a *historicalResolutionAction) Kind() ActionKind { return KindMatch }

func (a *historicalResolutionAction) Execute(ctx context.Context, pctx *Context, params Params) (*Result, error) {
	if a.deps.Resolver == nil {
		return nil, bmerrors.NewConfigError("resolver",
			"historical resolution requires a resolution service")
	}

	stage := params.Int("stage", 3)
	input := pctx.CurrentIdentifiers
	if len(input) == 0 {
		return emptyResult(pctx.OntologyType), nil
	}

	opts := []resolver.Option{
		resolver.WithOntology(pctx.OntologyType),
		resolver.WithStage(stage),
		resolver.WithResolverLogger(a.deps.Logger),
		resolver.WithBatchSize(params.Int("batch_size", resolver.DefaultBatchSize)),
		resolver.WithIncludeObsolete(params.Bool("include_obsolete", false)),
	}
	if secs := params.Int("timeout_seconds", 0); secs > 0 {
		opts = append(opts, resolver.WithBatchTimeout(time.Duration(secs)*time.Second))
	}
	if workers := params.Int("concurrency", 0); workers > 0 {
		opts = append(opts, resolver.WithConcurrency(workers))
	}
	if a.deps.Cache != nil {
		opts = append(opts, resolver.WithCache(a.deps.Cache))
	}
	if a.deps.Tracer != nil {
		opts = append(opts, resolver.WithTracer(a.deps.Tracer))
	}

	start := time.Now()
	outcome, err := resolver.New(a.deps.Resolver, opts...).ResolveAll(ctx, input)
	if err != nil {
		return nil, err
	}
	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordResolutionBatch("completed", time.Since(start).Seconds())
	}

	includeObsolete := params.Bool("include_obsolete", false)

	result := emptyResult(pctx.OntologyType)
	result.InputIdentifiers = input
	result.OutputIdentifiers = outcome.Resolved
	result.Provenance = outcome.Records
	result.UnmatchedReasons = make(map[string]string)
	result.MethodDistribution = make(map[string]int)

	for _, id := range input {
		res, ok := outcome.Resolutions[id]
		if !ok {
			// Duplicate inputs collapse during resolution.
			continue
		}
		result.MethodDistribution[string(res.Type)]++

		matched := false
		switch res.Type {
		case resolver.ResolutionPrimary, resolver.ResolutionSecondary, resolver.ResolutionDemerged:
			matched = true
		case resolver.ResolutionObsolete:
			matched = includeObsolete
			if !matched {
				result.UnmatchedReasons[id] = "obsolete_accession"
			}
		case resolver.ResolutionError:
			result.UnmatchedReasons[id] = "resolution_error"
		default:
			result.UnmatchedReasons[id] = "unknown_accession"
		}

		status := "unmatched"
		if matched {
			status = "matched"
			result.Matched = append(result.Matched, id)
			if a.deps.Metrics != nil {
				a.deps.Metrics.RecordMatchConfidence("historical_resolution", res.Type.Confidence())
			}
		} else {
			result.Unmatched = append(result.Unmatched, id)
		}
		if a.deps.Metrics != nil {
			a.deps.Metrics.RecordIdentifier(strconv.Itoa(stage), string(res.Type), status)
		}
	}

	result.Details["matched_count"] = len(result.Matched)
	result.Details["unmatched_count"] = len(result.Unmatched)
	result.Details["resolution_statistics"] = result.MethodDistribution
	return result, nil
}
