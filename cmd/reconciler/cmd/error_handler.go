package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	out     io.Writer
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler writing to out
func NewCLIErrorHandler(out io.Writer, verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{
		out:     out,
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: verbose,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	if h.verbose {
		h.logger.WithError(err).Error("Command failed")
	}

	var summary *errors.ErrorSummary
	if stderrors.As(err, &summary) && summary.Total > 0 {
		return h.handleSummary(summary)
	}
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return h.handleReconcilerError(reconcilerErr)
	}
	return h.handleGenericError(err)
}

// handleSummary prints every error of the summary and exits with the code of
// the first one.
func (h *CLIErrorHandler) handleSummary(summary *errors.ErrorSummary) int {
	fmt.Fprintf(h.out, "%d errors occurred\n", summary.Total)
	for i, err := range summary.Errors {
		fmt.Fprintf(h.out, "\n[%d] ", i+1)
		h.handleReconcilerError(err)
	}
	return summary.Errors[0].GetExitCode()
}

func (h *CLIErrorHandler) handleReconcilerError(err *errors.ReconcilerError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for k := range err.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, k := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", k, err.Context[k])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", categoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
		if len(err.StackTrace) > 0 {
			fmt.Fprintf(h.out, "%+v\n", err.StackTrace)
		}
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(h.out, "Error: file not found: %v\n", err)
		return 2
	case stderrors.Is(err, fs.ErrPermission):
		fmt.Fprintf(h.out, "Error: permission denied: %v\n", err)
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'reconciler --help' for usage.\n")
	return 1
}

func categoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
* Check that the file exists and is readable
* Inputs must be .csv, .xlsx or .json; convert legacy .xls workbooks to .xlsx`

	case errors.CategoryParse:
		return `Parse error help:
* The first row of CSV and XLSX files must hold the column names
* CSV files must be UTF-8 or Windows-1256 encoded
* JSON files must hold a single document`

	case errors.CategoryConfiguration:
		return `Configuration error help:
* Check your command-line flags and the --config file
* Environment variables use the RECONCILER_ prefix, e.g. RECONCILER_COMPARISON_MODE
* Use 'reconciler patterns' to check tracking patterns before a run`

	case errors.CategoryReport:
		return `Report error help:
* Check that the output directory exists and is writable
* Choose another format with --format if the destination does not support it`

	default:
		return `For more help:
* Use 'reconciler --help' for general help
* Use 'reconciler reconcile --help' for command-specific help`
	}
}
