package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tracking-reconciliation-service/cmd/reconciler/config"
	"tracking-reconciliation-service/internal/extractor"
)

func newPatternsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns [sample text]",
		Short: "Show the active tracking patterns",
		Long: `Patterns prints the pattern set a reconcile run would use, as resolved
from the config file, environment and flags. When sample text is given, the
codes those patterns find in it are listed in extraction order.

Examples:
  reconciler patterns
  reconciler patterns --patterns ezpay "EZ12345"
  reconciler patterns --pattern 'REF\d{6}' "paid REF123456 and REF654321"`,
		RunE: a.runPatterns,
	}

	cmd.Flags().String("patterns", extractor.DefaultPatternSet, "built-in pattern set")
	cmd.Flags().StringArray("pattern", nil, "tracking pattern (repeatable)")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return a.bindFlags(cmd, map[string]string{
			"patterns.name":        "patterns",
			"patterns.expressions": "pattern",
		})
	}

	return cmd
}

func (a *app) runPatterns(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(a.v)
	if err != nil {
		return err
	}
	patterns, err := settings.PatternSet()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pattern set: %s\n", patterns)
	for i, p := range patterns.Patterns {
		fmt.Fprintf(out, "  %d. %-14s %s\n", i+1, p.Name, p.Expr)
	}
	fmt.Fprintf(out, "Built-in sets: %s\n", strings.Join(extractor.BuiltinNames(), ", "))

	if len(args) == 0 {
		return nil
	}

	text := extractor.Canonicalize(strings.Join(args, " "))
	codes := patterns.FindUnique(text, nil)

	fmt.Fprintf(out, "\nSample: %s\n", text)
	if len(codes) == 0 {
		fmt.Fprintln(out, "No codes found")
		return nil
	}
	for _, code := range codes {
		fmt.Fprintf(out, "  %s\n", code)
	}
	return nil
}
