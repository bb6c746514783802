package pipeline

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/logging"
	"github.com/arpanauts/biomapper/pkg/observability"
)

// StageConfig is one step of a strategy: which action to run and with
// what parameters. A disabled step still appears in the report with zero
// matches so coverage math stays honest.
type StageConfig struct {
	Name     string `yaml:"name" json:"name"`
	Action   string `yaml:"action" json:"action"`
	Params   Params `yaml:"params" json:"params"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// Stage statuses.
const (
	StatusCompleted = "COMPLETED"
	StatusDisabled  = "DISABLED"
)

// StageResult summarizes one executed (or skipped) step.
type StageResult struct {
	Stage              int            `json:"stage"`
	Name               string         `json:"name"`
	Action             string         `json:"action"`
	Status             string         `json:"status"`
	MatchedCount       int            `json:"matched_count"`
	OutputCount        int            `json:"output_count"`
	CumulativeMatched  int            `json:"cumulative_matched"`
	CumulativeCoverage float64        `json:"cumulative_coverage"`
	MethodDistribution map[string]int `json:"method_distribution,omitempty"`
	Duration           time.Duration  `json:"duration"`
	Details            map[string]any `json:"details,omitempty"`
}

// Report is the full outcome of a strategy run.
type Report struct {
	RunID        string        `json:"run_id"`
	OntologyType string        `json:"ontology_type"`
	InputCount   int           `json:"input_count"`
	Stages       []StageResult `json:"stages"`
	Result       *Result       `json:"result"`

	// UnmappedIdentifiers are the items no stage could map, with a
	// per-item reason from the last stage that examined them.
	UnmappedIdentifiers []string          `json:"unmapped_identifiers"`
	UnmappedReasons     map[string]string `json:"unmapped_reasons,omitempty"`

	// Coverage is matched pre-expansion originals over total originals.
	Coverage float64 `json:"coverage"`
}

// Orchestrator drives a strategy's steps over a fresh per-run context.
// Match stages form a waterfall: each sees only the identifiers all prior
// match stages left unclaimed.
type Orchestrator struct {
	registry *Registry
	deps     Deps
}

// NewOrchestrator creates an orchestrator over the given dispatch table.
func NewOrchestrator(registry *Registry, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &Orchestrator{registry: registry, deps: deps}
}

// Run executes the steps in order and returns the combined report. Every
// step's action must exist in the registry; configuration errors abort the
// run before or during the offending step, while item-level failures are
// folded into the unmapped set.
func (o *Orchestrator) Run(ctx context.Context, input []string, ontologyType string, steps []StageConfig) (*Report, error) {
	// Pre-validate the step set so an unknown action fails before any
	// processing starts.
	for _, step := range steps {
		if _, err := o.registry.Get(step.Action); err != nil {
			return nil, err
		}
	}

	pctx := NewContext(ontologyType, input)
	totalOriginals := countDistinct(pctx.InputIdentifiers)

	if o.deps.Tracer != nil {
		var runSpan trace.Span
		ctx, runSpan = o.deps.Tracer.StartRunSpan(ctx, pctx.RunID, ontologyType, len(input))
		defer runSpan.End()
		if traceID := observability.GetTraceID(ctx); traceID != "" {
			o.deps.Logger.Debug("run trace started",
				logging.F("run_id", pctx.RunID),
				logging.F("trace_id", traceID))
		}
	}

	o.deps.Logger.Info("starting strategy run",
		logging.F("run_id", pctx.RunID),
		logging.F("ontology", ontologyType),
		logging.F("input_count", len(input)),
		logging.F("steps", len(steps)))

	report := &Report{
		RunID:           pctx.RunID,
		OntologyType:    ontologyType,
		InputCount:      len(input),
		UnmappedReasons: make(map[string]string),
	}

	matchedOriginals := make(map[string]struct{})
	outputSeen := make(map[string]struct{})
	var finalOutputs []string
	outputOntology := ontologyType
	matchStage := 0

	for _, step := range steps {
		action, _ := o.registry.Get(step.Action)

		stage := 0
		if action.Kind() == KindMatch {
			matchStage++
			stage = matchStage
		}

		if step.Disabled {
			report.Stages = append(report.Stages, StageResult{
				Stage:              stage,
				Name:               step.Name,
				Action:             step.Action,
				Status:             StatusDisabled,
				CumulativeMatched:  len(matchedOriginals),
				CumulativeCoverage: coverage(len(matchedOriginals), totalOriginals),
			})
			o.deps.Logger.Info("stage disabled", logging.F("action", step.Action))
			continue
		}

		params := make(Params, len(step.Params)+1)
		for k, v := range step.Params {
			params[k] = v
		}
		if action.Kind() == KindMatch {
			params["stage"] = stage
		}

		stepCtx := ctx
		var stepSpan trace.Span
		if o.deps.Tracer != nil {
			stepCtx, stepSpan = o.deps.Tracer.StartStageSpan(ctx, stage, step.Action)
		}

		start := time.Now()
		result, err := action.Execute(stepCtx, pctx, params)
		elapsed := time.Since(start)
		if err != nil {
			if stepSpan != nil {
				perr := bmerrors.ClassifyError(err, step.Action)
				observability.NewSpanHelper(stepSpan).SetError(err, string(perr.Code), bmerrors.IsErrorRetryable(perr))
				stepSpan.End()
			}
			return nil, err
		}

		pctx.AppendProvenance(result.Provenance...)

		stageResult := StageResult{
			Stage:              stage,
			Name:               step.Name,
			Action:             step.Action,
			Status:             StatusCompleted,
			OutputCount:        len(result.OutputIdentifiers),
			MethodDistribution: result.MethodDistribution,
			Duration:           elapsed,
			Details:            result.Details,
		}

		switch action.Kind() {
		case KindTransform:
			pctx.CurrentIdentifiers = result.OutputIdentifiers

		case KindMatch:
			// A stage that produced no output identifiers (for example a
			// trailing stage with no leftovers) must not relabel the run.
			if len(result.OutputIdentifiers) > 0 {
				outputOntology = result.OutputOntologyType
			}
			for _, id := range result.Matched {
				for _, original := range pctx.OriginalsFor(id) {
					matchedOriginals[original] = struct{}{}
				}
				delete(report.UnmappedReasons, id)
			}
			for _, target := range result.OutputIdentifiers {
				if _, dup := outputSeen[target]; dup {
					continue
				}
				outputSeen[target] = struct{}{}
				finalOutputs = append(finalOutputs, target)
			}
			for id, reason := range result.UnmatchedReasons {
				report.UnmappedReasons[id] = reason
			}
			pctx.CurrentIdentifiers = result.Unmatched
			stageResult.MatchedCount = len(result.Matched)

		case KindAnalysis:
			// Analysis steps leave the working set untouched.
		}

		stageResult.CumulativeMatched = len(matchedOriginals)
		stageResult.CumulativeCoverage = coverage(len(matchedOriginals), totalOriginals)
		report.Stages = append(report.Stages, stageResult)

		if stepSpan != nil {
			helper := observability.NewSpanHelper(stepSpan)
			helper.SetStageResult(stageResult.MatchedCount, stageResult.CumulativeCoverage)
			helper.SetSuccess()
			stepSpan.End()
		}

		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordStage(strconv.Itoa(stage), step.Action, stageResult.Status, elapsed.Seconds())
			if action.Kind() == KindMatch {
				o.deps.Metrics.SetCoverage(strconv.Itoa(stage), stageResult.CumulativeCoverage)
			}
		}

		o.deps.Logger.Info("stage completed",
			logging.F("action", step.Action),
			logging.F("stage", stage),
			logging.F("matched", stageResult.MatchedCount),
			logging.F("coverage", stageResult.CumulativeCoverage),
			logging.F("duration", elapsed.String()))
	}

	report.Coverage = coverage(len(matchedOriginals), totalOriginals)
	report.UnmappedIdentifiers = append([]string(nil), pctx.CurrentIdentifiers...)
	if finalOutputs == nil {
		finalOutputs = []string{}
	}
	report.Result = &Result{
		InputIdentifiers:   pctx.InputIdentifiers,
		OutputIdentifiers:  finalOutputs,
		OutputOntologyType: outputOntology,
		Provenance:         pctx.Provenance,
		Details: map[string]any{
			"coverage":          report.Coverage,
			"matched_originals": len(matchedOriginals),
			"total_originals":   totalOriginals,
			"statistics":        pctx.Statistics,
		},
	}
	return report, nil
}

func coverage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

func countDistinct(ids []string) int {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return len(set)
}
