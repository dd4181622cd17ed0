// Command generate writes a synthetic platform/provider pair for manual runs
// and benchmarks:
//
//	go run ./testdata/generators -rows 5000 -extra 500 -persian -output-dir generated
//	reconciler reconcile -p generated/platform.csv -r generated/provider.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"tracking-reconciliation-service/internal/fixtures"
)

func main() {
	defaults := fixtures.DefaultOptions()
	var (
		seed       = flag.Int64("seed", defaults.Seed, "random seed; equal seeds give equal files")
		rows       = flag.Int("rows", defaults.PlatformRows, "number of platform rows")
		extra      = flag.Int("extra", defaults.ProviderExtra, "provider rows unrelated to any platform row")
		matchRatio = flag.Float64("match-ratio", defaults.MatchRatio, "share of platform rows with a provider counterpart (0-1)")
		persian    = flag.Bool("persian", false, "add Persian descriptions with Arabic look-alike letters")
		encoding   = flag.String("provider-encoding", "utf-8", "provider file encoding: utf-8 or windows-1256")
		outputDir  = flag.String("output-dir", "generated", "output directory")
	)
	flag.Parse()

	if *matchRatio < 0 || *matchRatio > 1 {
		log.Fatalf("match-ratio must be between 0 and 1, got %v", *matchRatio)
	}
	if *encoding != "utf-8" && *encoding != "windows-1256" {
		log.Fatalf("unknown provider encoding %q", *encoding)
	}

	pair := fixtures.NewGenerator(fixtures.Options{
		Seed:          *seed,
		PlatformRows:  *rows,
		ProviderExtra: *extra,
		MatchRatio:    *matchRatio,
		Persian:       *persian,
	}).Generate()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	platformPath := filepath.Join(*outputDir, "platform.csv")
	if err := writeCSV(platformPath, fixtures.PlatformColumns, pair.PlatformRows, false); err != nil {
		log.Fatal(err)
	}
	providerPath := filepath.Join(*outputDir, "provider.csv")
	if err := writeCSV(providerPath, fixtures.ProviderColumns, pair.ProviderRows, *encoding == "windows-1256"); err != nil {
		log.Fatal(err)
	}
	sharedPath := filepath.Join(*outputDir, "shared_codes.txt")
	if err := os.WriteFile(sharedPath, []byte(strings.Join(pair.Shared, "\n")+"\n"), 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", sharedPath, err)
	}

	fmt.Printf("Generated %d platform rows -> %s\n", len(pair.PlatformRows), platformPath)
	fmt.Printf("Generated %d provider rows -> %s (%s)\n", len(pair.ProviderRows), providerPath, *encoding)
	fmt.Printf("%d shared codes -> %s\n", len(pair.Shared), sharedPath)
}

func writeCSV(path string, header []string, rows [][]string, windows1256 bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	var out io.WriteCloser = nopCloser{f}
	if windows1256 {
		out = transform.NewWriter(f, charmap.Windows1256.NewEncoder())
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Sync()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
