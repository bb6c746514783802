package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arpanauts/biomapper/config"
	"github.com/arpanauts/biomapper/pkg/buildinfo"
)

var versionOutput string

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Get()
			if versionOutput == string(config.OutputFormatJSON) ||
				versionOutput == string(config.OutputFormatYAML) {
				return render(cmd.OutOrStdout(), config.OutputFormat(versionOutput), info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&versionOutput, "output", "o", "", "output format: text, json, yaml")
	return cmd
}
