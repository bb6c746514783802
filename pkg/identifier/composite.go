package identifier

import (
	"fmt"
	"strings"

	"github.com/arpanauts/biomapper/pkg/logging"
)

// Expansion is the result of expanding composite identifiers.
type Expansion struct {
	// Identifiers is the unique set of atomic identifiers, in first-seen
	// order. Callers must not rely on ordering; equality is exact-string.
	Identifiers []string

	// Lineage maps each composite identifier to its components. Only inputs
	// that actually contained a delimiter appear here.
	Lineage map[string][]string
}

// Expand detects delimiters inside each identifier and expands composites
// into their atomic components. Multiple delimiter patterns apply in
// sequence: each pattern splits the output of the previous split. A
// non-composite input is preserved as-is in the output set.
//
// Components produced by leading or trailing delimiters are empty strings
// and are kept, matching the reference split behavior.
func Expand(ids []string, delimiters []string) Expansion {
	exp := Expansion{
		Identifiers: make([]string, 0, len(ids)),
		Lineage:     make(map[string][]string),
	}

	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			exp.Identifiers = append(exp.Identifiers, id)
		}
	}

	for _, id := range ids {
		components := splitAll(id, delimiters)
		if len(components) > 1 {
			exp.Lineage[id] = components
			for _, c := range components {
				add(c)
			}
			continue
		}
		add(id)
	}

	return exp
}

// ExpandValues is Expand over untyped values: nil entries are skipped with
// a debug log entry and non-string entries are coerced to their string form
// before splitting. A nil logger discards the skip messages.
func ExpandValues(values []interface{}, delimiters []string, log logging.Logger) Expansion {
	if log == nil {
		log = logging.NewNopLogger()
	}

	ids := make([]string, 0, len(values))
	for i, v := range values {
		if v == nil {
			log.Debug("skipping nil identifier entry", logging.F("index", i))
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		ids = append(ids, s)
	}
	return Expand(ids, delimiters)
}

// splitAll applies each delimiter in sequence to the working set of
// fragments. The result has length 1 when no delimiter was present.
func splitAll(id string, delimiters []string) []string {
	parts := []string{id}
	for _, delim := range delimiters {
		if delim == "" {
			continue
		}
		next := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.Contains(p, delim) {
				next = append(next, strings.Split(p, delim)...)
			} else {
				next = append(next, p)
			}
		}
		parts = next
	}
	return parts
}

// ReverseLineage builds a component-to-composites index from a lineage map.
// A component expanded from two different composites maps to both.
func ReverseLineage(lineage map[string][]string) map[string][]string {
	reverse := make(map[string][]string)
	for composite, components := range lineage {
		for _, c := range components {
			reverse[c] = append(reverse[c], composite)
		}
	}
	return reverse
}
