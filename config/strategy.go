package config

import (
	"os"

	"gopkg.in/yaml.v3"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/pipeline"
)

// Strategy is a YAML-declared sequence of mapping steps.
type Strategy struct {
	// Name identifies the strategy in reports and logs.
	Name string `yaml:"name"`

	// Description is free-form documentation.
	Description string `yaml:"description"`

	// OntologyType names the identifier namespace the strategy expects.
	OntologyType string `yaml:"ontology_type"`

	// Steps run in declaration order.
	Steps []pipeline.StageConfig `yaml:"steps"`
}

// LoadStrategy parses and validates a strategy file.
func LoadStrategy(path string) (*Strategy, error) {
	if path == "" {
		return nil, bmerrors.NewConfigError("strategy", "strategy file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bmerrors.NewConfigError("strategy", "reading strategy file %s: %v", path, err)
	}

	var s Strategy
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, bmerrors.NewConfigError("strategy", "parsing strategy file %s: %v", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the strategy shape before execution.
func (s *Strategy) Validate() error {
	if s.Name == "" {
		return bmerrors.NewConfigError("name", "strategy name is required")
	}
	if len(s.Steps) == 0 {
		return bmerrors.NewConfigError("steps", "strategy %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if step.Action == "" {
			return bmerrors.NewConfigError("action",
				"strategy %q step %d has no action", s.Name, i+1)
		}
	}
	return nil
}
