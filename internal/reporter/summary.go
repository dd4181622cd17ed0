package reporter

import (
	"fmt"
	"io"
	"strings"

	"tracking-reconciliation-service/internal/models"
)

// WriteSummary prints a human-readable run summary for the terminal.
func WriteSummary(w io.Writer, header string, summary models.Summary, report *Report) {
	fmt.Fprintf(w, "%s\n", header)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len(header)))

	fmt.Fprintf(w, "=== SUMMARY ===\n")
	fmt.Fprintf(w, "%-28s %8d\n", "Platform candidates:", summary.PlatformCandidates)
	fmt.Fprintf(w, "%-28s %8d\n", "Provider candidates:", summary.ProviderCandidates)
	fmt.Fprintf(w, "%-28s %8d\n", "Matches:", summary.Matches)
	fmt.Fprintf(w, "%-28s %8d\n", "  exact:", summary.MatchesByType[models.MatchTypeExact])
	fmt.Fprintf(w, "%-28s %8d\n", "  within-text:", summary.MatchesByType[models.MatchTypeWithinText])
	fmt.Fprintf(w, "%-28s %8d\n", "  fuzzy:", summary.MatchesByType[models.MatchTypeFuzzy])
	fmt.Fprintf(w, "%-28s %8d\n", "Platform only:", summary.PlatformOnly)
	fmt.Fprintf(w, "%-28s %8d\n", "Provider only:", summary.ProviderOnly)
	if summary.Suppressed > 0 {
		fmt.Fprintf(w, "%-28s %8d\n", "Near matches (suppressed):", summary.Suppressed)
	}
	if summary.SkippedRows > 0 {
		fmt.Fprintf(w, "%-28s %8d\n", "Skipped (unresolvable):", summary.SkippedRows)
	}

	if report == nil {
		return
	}
	fmt.Fprintf(w, "\n=== TABLES ===\n")
	for _, t := range report.Tables {
		if t.Placeholder {
			fmt.Fprintf(w, "%-28s %8s  (%s)\n", t.Name+":", "-", t.Rows[0][0])
			continue
		}
		fmt.Fprintf(w, "%-28s %8d\n", t.Name+":", t.Len())
	}
}
