package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arpanauts/biomapper/config"
	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/pipeline"
)

// NewValidateCommand creates the validate command, which checks a strategy
// file without executing it.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <strategy.yaml>",
		Short: "Validate a mapping strategy file",
		Long: `Validate a mapping strategy file.

Checks the YAML shape and verifies every step references a known action.
Exits non-zero if the strategy could not execute.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := config.LoadStrategy(args[0])
			if err != nil {
				return err
			}

			registry := pipeline.NewRegistry(pipeline.Deps{})
			for i, step := range strategy.Steps {
				if _, err := registry.Get(step.Action); err != nil {
					return bmerrors.NewConfigError("action",
						"step %d (%s): unknown action %q, available: %s",
						i+1, step.Name, step.Action, strings.Join(registry.Names(), ", "))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Strategy %q is valid (%d steps)\n",
				strategy.Name, len(strategy.Steps))
			return nil
		},
	}
}
