package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/arpanauts/biomapper/config"
	"github.com/arpanauts/biomapper/pkg/logging"
	"github.com/arpanauts/biomapper/pkg/observability"
	"github.com/arpanauts/biomapper/pkg/pipeline"
	"github.com/arpanauts/biomapper/pkg/provenance"
	"github.com/arpanauts/biomapper/pkg/resolver"
)

// Run command flags
var (
	runInputFile string
	runOntology  string
	runOutput    string
)

// RunCommandDeps holds the dependencies for the run command.
type RunCommandDeps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)
	Logger     logging.Logger

	// Resolver overrides the HTTP service built from configuration;
	// used by tests to inject a fake.
	Resolver resolver.Service

	// Provenance overrides the store built from configuration.
	Provenance provenance.Store
}

// DefaultRunDeps returns the default dependencies for production use.
func DefaultRunDeps() *RunCommandDeps {
	return &RunCommandDeps{
		LoadConfig: config.LoadConfig,
	}
}

// NewRunCommand creates the run command.
func NewRunCommand(deps *RunCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultRunDeps()
	}

	cmd := &cobra.Command{
		Use:   "run <strategy.yaml> [identifier...]",
		Short: "Execute a mapping strategy over a list of identifiers",
		Long: `Execute a mapping strategy over a list of identifiers.

Identifiers come from --input (one per line, # comments ignored) or from
the arguments after the strategy file. The strategy file declares the
sequence of steps: composite expansion, normalization, direct mapping,
fuzzy matching, and historical resolution.

Examples:
  biomapper run strategy.yaml P12345 Q14213_Q8NEV9
  biomapper run strategy.yaml --input identifiers.txt --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrategy(cmd, deps, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&runInputFile, "input", "i", "", "file with one identifier per line")
	cmd.Flags().StringVar(&runOntology, "ontology", "", "identifier namespace tag (overrides strategy)")
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "output format: text, json, yaml")
	return cmd
}

func runStrategy(cmd *cobra.Command, deps *RunCommandDeps, strategyPath string, args []string) error {
	cfg := deps.Config
	if cfg == nil {
		loaded, err := deps.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	strategy, err := config.LoadStrategy(strategyPath)
	if err != nil {
		return err
	}

	input, err := collectIdentifiers(args, runInputFile)
	if err != nil {
		return err
	}

	ontology := strategy.OntologyType
	if runOntology != "" {
		ontology = runOntology
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.Config{
			Level:     logging.Level(cfg.LogLevel),
			Component: "biomapper",
		})
	}

	pipelineDeps := pipeline.Deps{
		Logger:  logger,
		Metrics: observability.DefaultMappingMetrics(),
		Tracer:  observability.NewTracer(),
	}

	pipelineDeps.Resolver = deps.Resolver
	if pipelineDeps.Resolver == nil && cfg.Resolver.URL != "" {
		opts := resolver.DefaultHTTPOptions()
		opts.Timeout = cfg.Resolver.Timeout
		opts.Logger = logger
		pipelineDeps.Resolver = resolver.NewHTTPService(cfg.Resolver.URL, opts)
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pipelineDeps.Cache = resolver.NewRedisCache(client, cfg.Redis.TTL)
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.NewRegistry(pipelineDeps), pipelineDeps)
	report, err := orchestrator.Run(cmd.Context(), input, ontology, strategy.Steps)
	if err != nil {
		return err
	}

	if err := persistProvenance(cmd.Context(), deps, cfg, logger, report); err != nil {
		// Persistence problems should not discard an otherwise complete
		// run; the report still renders.
		logger.Warn("failed to persist provenance", logging.Err(err))
	}

	format := outputFormat(cfg, runOutput)
	if format == config.OutputFormatText {
		renderReportText(cmd.OutOrStdout(), report)
		return nil
	}
	return render(cmd.OutOrStdout(), format, report)
}

func persistProvenance(ctx context.Context, deps *RunCommandDeps, cfg *config.Config, logger logging.Logger, report *pipeline.Report) error {
	store := deps.Provenance
	if store == nil {
		if cfg.Postgres.DSN == "" {
			return nil
		}
		pgStore, err := provenance.ConnectPostgres(ctx, cfg.Postgres.DSN, logger)
		if err != nil {
			return err
		}
		defer pgStore.Close()
		store = pgStore
	}
	return store.Append(ctx, report.RunID, report.Result.Provenance)
}

// collectIdentifiers merges positional identifiers with the --input file.
func collectIdentifiers(args []string, inputFile string) ([]string, error) {
	ids := append([]string(nil), args...)
	if inputFile == "" {
		return ids, nil
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return ids, nil
}

func outputFormat(cfg *config.Config, flag string) config.OutputFormat {
	if flag != "" {
		return config.OutputFormat(strings.ToLower(flag))
	}
	return cfg.OutputFormat
}

func renderReportText(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "Run %s (%s)\n", report.RunID, report.OntologyType)
	fmt.Fprintf(w, "Input identifiers: %d\n\n", report.InputCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tACTION\tSTATUS\tMATCHED\tCOVERAGE")
	for _, stage := range report.Stages {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.1f%%\n",
			stage.Stage, stage.Action, stage.Status,
			stage.MatchedCount, stage.CumulativeCoverage*100)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nFinal coverage: %.1f%% (%d output identifiers)\n",
		report.Coverage*100, len(report.Result.OutputIdentifiers))

	if len(report.UnmappedIdentifiers) > 0 {
		fmt.Fprintf(w, "\nUnmapped (%d):\n", len(report.UnmappedIdentifiers))
		sample := report.UnmappedIdentifiers
		if len(sample) > 20 {
			sample = sample[:20]
		}
		for _, id := range sample {
			reason := report.UnmappedReasons[id]
			if reason == "" {
				reason = "no_match_found"
			}
			fmt.Fprintf(w, "  %s\t%s\n", id, reason)
		}
		if len(report.UnmappedIdentifiers) > 20 {
			fmt.Fprintf(w, "  ... and %d more\n", len(report.UnmappedIdentifiers)-20)
		}
	}
}
