package cmd

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tracking-reconciliation-service/cmd/reconciler/config"
	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/extractor"
	"tracking-reconciliation-service/internal/matcher"
	"tracking-reconciliation-service/internal/parsers"
	"tracking-reconciliation-service/internal/reconciler"
	"tracking-reconciliation-service/internal/reporter"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

func newReconcileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a platform export with a provider export",
		Long: `Reconcile extracts tracking codes from the platform records and pairs
them with the provider records.

With --gateway the platform rows are first narrowed to that gateway and every
platform code is searched for in every provider cell (fan-out). Without it
both sides are reduced to code lists and paired first-match-wins, exactly or
by similarity. --policy overrides the choice.

Input files may be .csv (UTF-8 or Windows-1256), .xlsx or .json.
The report is written as .xlsx, .json, .sqlite or a directory of CSV files.

Examples:
  # Gateway-scoped run, workbook report
  reconciler reconcile --platform platform.xlsx --provider sep.csv --gateway sep

  # Fuzzy first-match run on four workers
  reconciler reconcile -p platform.csv -r provider.csv --mode fuzzy --threshold 80 \
    --execution threads --workers 4

  # Custom tracking patterns and a JSON report
  reconciler reconcile -p platform.csv -r provider.csv \
    --pattern 'REF\d{6}' --pattern '\b\d{12}\b' -o report.json`,
		RunE: a.runReconcile,
	}

	defaults := extractor.DefaultOptions()
	f := cmd.Flags()
	f.StringP("platform", "p", "", "platform export file (required)")
	f.StringP("provider", "r", "", "provider export file (required)")
	f.StringP("gateway", "g", "", "only reconcile platform rows of this gateway")
	f.String("gateway-column", dataset.DefaultGatewayColumn, "platform column holding the gateway name")
	f.StringSlice("tracking-columns", reconciler.DefaultTrackingColumns, "platform columns to extract codes from")
	f.StringP("mode", "m", string(matcher.ModeExact), "comparison mode: exact, fuzzy")
	f.IntP("threshold", "t", matcher.DefaultThreshold, "similarity threshold for fuzzy mode (0-100)")
	f.String("policy", string(reconciler.PolicyAuto), "match policy: auto, first-match, fan-out")
	f.String("patterns", extractor.DefaultPatternSet, fmt.Sprintf("built-in pattern set: %s", strings.Join(extractor.BuiltinNames(), ", ")))
	f.StringArray("pattern", nil, "tracking pattern (repeatable); replaces the built-in set")
	f.String("execution", string(defaults.Mode), "execution mode: sequential, threads, isolated")
	f.Int("workers", defaults.Workers, "worker count for parallel execution")
	f.Int("chunk-size", defaults.ChunkSize, "rows per extraction chunk")
	f.StringP("output", "o", "", "report path (default reconciliation_report.xlsx)")
	f.StringP("format", "f", "", "report format: xlsx, csv, json, sqlite (default from the output path)")
	f.Bool("progress", false, "show progress on stderr")

	bindings := map[string]string{
		"platform":                  "platform",
		"provider":                  "provider",
		"gateway":                   "gateway",
		"gateway_column":            "gateway-column",
		"platform_tracking_columns": "tracking-columns",
		"comparison_mode":           "mode",
		"similarity_threshold":      "threshold",
		"match_policy":              "policy",
		"patterns.name":             "patterns",
		"patterns.expressions":      "pattern",
		"execution.mode":            "execution",
		"execution.workers":         "workers",
		"execution.chunk_size":      "chunk-size",
		"output.path":               "output",
		"output.format":             "format",
		"progress":                  "progress",
	}
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return a.bindFlags(cmd, bindings)
	}

	return cmd
}

func (a *app) runReconcile(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if settings.PlatformFile == "" || settings.ProviderFile == "" {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "platform/provider",
			fmt.Sprintf("%q / %q", settings.PlatformFile, settings.ProviderFile), nil).
			WithSuggestion("pass both --platform and --provider")
	}

	cfg, err := settings.ReconcilerConfig()
	if err != nil {
		return err
	}
	format, outPath, err := settings.OutputTarget()
	if err != nil {
		return err
	}

	log := logger.OrGlobal(a.log)
	loader := parsers.NewLoader(a.fs, settings.LoadConfig(), log)
	svc, err := reconciler.NewService(cfg, loader, log)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if a.v.GetBool("progress") {
		svc.AddProgressCallback(func(p reconciler.Progress) {
			fmt.Fprintf(stderr, "[%d/%d] %s (%.0f%%)\n", p.CompletedSteps, p.TotalSteps, p.CurrentStep, p.Percent)
		})
	}

	log.WithFields(logger.Fields{
		"platform": settings.PlatformFile,
		"provider": settings.ProviderFile,
		"gateway":  cfg.GatewayName,
		"patterns": cfg.Patterns.String(),
		"output":   outPath,
	}).Info("Starting reconciliation")

	result, err := svc.Run(cmd.Context(), &reconciler.Request{
		PlatformFile: settings.PlatformFile,
		ProviderFile: settings.ProviderFile,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !result.HasData() {
		fmt.Fprintf(out, "No data to reconcile: %s\n", result.NoDataReason.Message(result.Gateway))
		return nil
	}

	header := "Tracking-code reconciliation"
	if result.Gateway != "" {
		header += " - gateway " + result.Gateway
	}
	reporter.WriteSummary(out, header, result.Summary, result.Report)

	exported := reporter.NewExporter(a.fs, log).Export(result.Report, format, outPath)
	if !exported.OK {
		return errors.ReportError(errors.CodeReportWriteFailed, outPath, stderrors.New(exported.Detail))
	}
	fmt.Fprintf(out, "\nReport written to %s (%s)\n", exported.Path, format)
	return nil
}
