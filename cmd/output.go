// Package cmd provides CLI commands for the biomapper tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/arpanauts/biomapper/config"
)

// render writes v to w in the requested output format. Text rendering is
// the caller's job; this handles the structured formats.
func render(w io.Writer, format config.OutputFormat, v any) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("no structured renderer for format %q", format)
	}
}
