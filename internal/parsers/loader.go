// Package parsers loads external data files into datasets.
//
// Supported formats are chosen by file extension:
//   - .csv: UTF-8 (an optional BOM is stripped), falling back to Windows-1256
//   - .xlsx: the first worksheet of the workbook
//   - .json: an array of objects becomes one row per object; any other
//     document is flattened into one row per leaf value
//
// Legacy .xls workbooks are rejected with a suggestion to convert them.
package parsers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// LoadConfig holds options shared by every format.
type LoadConfig struct {
	// TrimLeadingSpace trims leading whitespace from CSV fields.
	TrimLeadingSpace bool `mapstructure:"trim_leading_space"`
	// SkipEmptyRows drops rows whose cells are all empty.
	SkipEmptyRows bool `mapstructure:"skip_empty_rows"`
}

// DefaultLoadConfig returns a configuration with sensible defaults
func DefaultLoadConfig() *LoadConfig {
	return &LoadConfig{
		TrimLeadingSpace: false,
		SkipEmptyRows:    true,
	}
}

// Loader reads data files from a filesystem.
type Loader struct {
	fs     afero.Fs
	config *LoadConfig
	logger logger.Logger
}

// NewLoader creates a loader over fs. A nil fs means the OS filesystem and a
// nil config means DefaultLoadConfig.
func NewLoader(fs afero.Fs, config *LoadConfig, log logger.Logger) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if config == nil {
		config = DefaultLoadConfig()
	}

	l := logger.OrGlobal(log).WithComponent("loader")
	l.WithFields(logger.Fields{
		"trim_leading_space": config.TrimLeadingSpace,
		"skip_empty_rows":    config.SkipEmptyRows,
	}).Debug("Created loader")

	return &Loader{fs: fs, config: config, logger: l}
}

// Format returns the lower-cased extension of path without the dot.
func Format(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Load reads path into a dataset named after the file.
func (l *Loader) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := Format(path)
	switch format {
	case "csv", "xlsx", "json":
	case "xls":
		return nil, errors.FileError(errors.CodeUnsupportedFormat, path, nil).
			WithSuggestion("legacy .xls workbooks are not supported; save the file as .xlsx or .csv")
	default:
		return nil, errors.FileError(errors.CodeUnsupportedFormat, path, nil).
			WithContext("extension", format)
	}

	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	switch format {
	case "csv":
		ds, err = l.parseCSV(path, data)
	case "xlsx":
		ds, err = l.parseXLSX(path, data)
	case "json":
		ds, err = l.parseJSON(path, data)
	}
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logger.Fields{
		"file":    path,
		"format":  format,
		"rows":    ds.Len(),
		"columns": ds.NumColumns(),
	}).Info("Loaded file")

	return ds, nil
}

// LoadPair loads the platform and provider files concurrently. When both
// fail the error is an *errors.ErrorSummary holding both failures.
func (l *Loader) LoadPair(ctx context.Context, platformPath, providerPath string) (*dataset.Dataset, *dataset.Dataset, error) {
	var (
		platform, provider       *dataset.Dataset
		platformErr, providerErr error
		g                        errgroup.Group
	)

	g.Go(func() error {
		platform, platformErr = l.Load(ctx, platformPath)
		return nil
	})
	g.Go(func() error {
		provider, providerErr = l.Load(ctx, providerPath)
		return nil
	})
	_ = g.Wait()

	switch {
	case platformErr != nil && providerErr != nil:
		return nil, nil, pairError(platformErr, providerErr)
	case platformErr != nil:
		return nil, nil, platformErr
	case providerErr != nil:
		return nil, nil, providerErr
	}
	return platform, provider, nil
}

// pairError reports both load failures. It falls back to the first error
// when either is not categorized.
func pairError(first, second error) error {
	a, okA := errors.AsReconcilerError(first)
	b, okB := errors.AsReconcilerError(second)
	if !okA || !okB {
		return first
	}
	return errors.NewErrorSummary([]*errors.ReconcilerError{a, b})
}

func (l *Loader) readFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err == nil {
		return data, nil
	}
	switch {
	case os.IsNotExist(err):
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	case os.IsPermission(err):
		return nil, errors.FileError(errors.CodeFilePermission, path, err)
	default:
		return nil, errors.FileError("", path, err)
	}
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// finishRows converts raw string rows into dataset values. Empty strings
// become nil cells.
func (l *Loader) finishRows(rows [][]string) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		values := make([]any, len(r))
		blank := true
		for i, s := range r {
			if s == "" {
				continue
			}
			values[i] = s
			if strings.TrimSpace(s) != "" {
				blank = false
			}
		}
		if blank && l.config.SkipEmptyRows {
			continue
		}
		out = append(out, values)
	}
	return out
}

// headerNames fills blank header cells with positional names.
func headerNames(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = unnamedColumn(i)
		}
		cols[i] = h
	}
	return cols
}
