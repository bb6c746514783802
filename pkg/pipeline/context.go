// Package pipeline runs the progressive identifier-matching waterfall:
// composite expansion and normalization, then direct lookup, fuzzy string
// matching, and historical resolution, each stage consuming only the
// previous stage's leftovers.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/identifier"
	"github.com/arpanauts/biomapper/pkg/provenance"
)

// Context is the shared state threading through one pipeline run. Each run
// gets a fresh instance; nothing here outlives the run.
type Context struct {
	// RunID uniquely identifies this invocation.
	RunID string

	// OntologyType names the identifier namespace being processed.
	OntologyType string

	// InputIdentifiers is the original, pre-expansion input list. Coverage
	// is always computed against this list.
	InputIdentifiers []string

	// CurrentIdentifiers is the working set the next stage will see.
	CurrentIdentifiers []string

	// Lineage maps composite identifiers to their expanded components.
	Lineage map[string][]string

	// Datasets holds named identifier sets for overlap analysis.
	Datasets map[string][]string

	// Statistics accumulates named counters and summaries across stages.
	Statistics map[string]any

	// Provenance is the append-only audit trail for the run.
	Provenance []provenance.Record

	// Extensions carries values the core does not interpret, for callers
	// that chain custom steps.
	Extensions map[string]any

	// reverse maps each expanded component back to its composite parents.
	reverse map[string][]string
}

// NewContext creates a fresh per-run context.
func NewContext(ontologyType string, input []string) *Context {
	return &Context{
		RunID:              uuid.New().String(),
		OntologyType:       ontologyType,
		InputIdentifiers:   append([]string(nil), input...),
		CurrentIdentifiers: append([]string(nil), input...),
		Lineage:            make(map[string][]string),
		Datasets:           make(map[string][]string),
		Statistics:         make(map[string]any),
		Extensions:         make(map[string]any),
	}
}

// AppendProvenance adds records to the run's audit trail.
func (c *Context) AppendProvenance(records ...provenance.Record) {
	c.Provenance = append(c.Provenance, records...)
}

// SetLineage records the composite expansion lineage for the run and
// rebuilds the component-to-parent index used for coverage attribution.
func (c *Context) SetLineage(lineage map[string][]string) {
	c.Lineage = lineage
	c.reverse = identifier.ReverseLineage(lineage)
}

// OriginalsFor returns the pre-expansion originals an identifier belongs
// to: its composite parents if it came from an expansion, otherwise
// itself.
func (c *Context) OriginalsFor(id string) []string {
	if parents, ok := c.reverse[id]; ok {
		return parents
	}
	return []string{id}
}

// Params are the per-step options from the strategy configuration.
type Params map[string]any

// String returns a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", bmerrors.NewConfigError(key, "required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", bmerrors.NewConfigError(key, "parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

// StringDefault returns a string parameter or def when absent.
func (p Params) StringDefault(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Bool returns a bool parameter or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Int returns an int parameter or def when absent. YAML decodes numbers
// as int or float64 depending on shape; both are accepted.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float returns a float parameter or def when absent.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// StringSlice returns a string-list parameter, coercing scalar entries.
func (p Params) StringSlice(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}
