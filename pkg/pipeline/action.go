package pipeline

import (
	"context"
	"sort"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/logging"
	"github.com/arpanauts/biomapper/pkg/observability"
	"github.com/arpanauts/biomapper/pkg/provenance"
	"github.com/arpanauts/biomapper/pkg/resolver"
)

// ActionKind classifies how the orchestrator feeds an action.
type ActionKind string

const (
	// KindTransform actions rewrite the whole working set (expansion,
	// normalization). Their output replaces the current identifiers.
	KindTransform ActionKind = "transform"

	// KindMatch actions attempt to map identifiers. They see only the
	// identifiers no prior match stage claimed.
	KindMatch ActionKind = "match"

	// KindAnalysis actions compute derived reports without touching the
	// working set.
	KindAnalysis ActionKind = "analysis"
)

// Result is the uniform output shape of every action. Callers chain
// actions by feeding one result's output identifiers into the next step.
type Result struct {
	InputIdentifiers   []string             `json:"input_identifiers"`
	OutputIdentifiers  []string             `json:"output_identifiers"`
	OutputOntologyType string               `json:"output_ontology_type"`
	Provenance         []provenance.Record  `json:"provenance,omitempty"`
	Details            map[string]any       `json:"details,omitempty"`

	// Matched and Unmatched partition the inputs for match actions.
	// Transform and analysis actions leave them nil.
	Matched   []string `json:"matched,omitempty"`
	Unmatched []string `json:"unmatched,omitempty"`

	// UnmatchedReasons carries a per-identifier reason for items this
	// action examined and could not map.
	UnmatchedReasons map[string]string `json:"unmatched_reasons,omitempty"`

	// MethodDistribution counts how many matches each method produced.
	MethodDistribution map[string]int `json:"method_distribution,omitempty"`
}

func emptyResult(ontology string) *Result {
	return &Result{
		InputIdentifiers:   []string{},
		OutputIdentifiers:  []string{},
		OutputOntologyType: ontology,
		Details:            map[string]any{},
	}
}

// Action is one pipeline step. Implementations must be safe to reuse
// across runs; all per-run state lives in the Context.
type Action interface {
	Name() string
	Kind() ActionKind
	Execute(ctx context.Context, pctx *Context, params Params) (*Result, error)
}

// Deps are the shared collaborators actions draw on. Metrics and Tracer
// are optional; a nil value disables that concern.
type Deps struct {
	Logger   logging.Logger
	Metrics  *observability.MappingMetrics
	Tracer   *observability.Tracer
	Resolver resolver.Service
	Cache    resolver.Cache
}

// Registry is the explicit dispatch table from step names to actions. It
// is built once at startup; the step set is fully enumerable.
type Registry struct {
	actions map[string]Action
}

// NewRegistry builds the dispatch table with every built-in action.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	r := &Registry{actions: make(map[string]Action)}
	for _, action := range []Action{
		&expandCompositesAction{deps: deps},
		&normalizeAction{deps: deps},
		&localMappingAction{deps: deps},
		&fuzzyMatchAction{deps: deps},
		&historicalResolutionAction{deps: deps},
		&overlapAction{deps: deps},
	} {
		r.actions[action.Name()] = action
	}
	return r
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (Action, error) {
	action, ok := r.actions[name]
	if !ok {
		return nil, bmerrors.NewConfigError("action",
			"unknown action %q, available: %v", name, r.Names())
	}
	return action, nil
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
