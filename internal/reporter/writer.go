package reporter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	apperrors "tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatXLSX   OutputFormat = "xlsx"
	FormatCSV    OutputFormat = "csv"
	FormatJSON   OutputFormat = "json"
	FormatSQLite OutputFormat = "sqlite"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatXLSX, FormatCSV, FormatJSON, FormatSQLite:
		return true
	default:
		return false
	}
}

// FormatFromPath guesses the format from a file extension. A path without
// an extension is treated as a CSV directory.
func FormatFromPath(path string) (OutputFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, true
	case ".json":
		return FormatJSON, true
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, true
	case "":
		return FormatCSV, true
	default:
		return "", false
	}
}

// Writer writes a report to path.
type Writer interface {
	Write(report *Report, path string) error
}

// NewWriter returns the writer for format. File-based writers go through
// fs; the sqlite writer always uses the operating system filesystem.
func NewWriter(format OutputFormat, fs afero.Fs) (Writer, error) {
	switch format {
	case FormatXLSX:
		return &XLSXWriter{fs: fs}, nil
	case FormatCSV:
		return &CSVWriter{fs: fs}, nil
	case FormatJSON:
		return &JSONWriter{fs: fs}, nil
	case FormatSQLite:
		return &SQLiteWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ExportResult reports the outcome of Export. Failures never surface as
// errors; Detail carries the diagnostic.
type ExportResult struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Path   string `json:"path"`
}

// Exporter writes reports and converts writer failures into ExportResults.
// Cleaning up partial output after a failure is left to the caller.
type Exporter struct {
	fs     afero.Fs
	logger logger.Logger
}

// NewExporter creates an exporter over fs. A nil fs means the OS filesystem.
func NewExporter(fs afero.Fs, log logger.Logger) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Exporter{fs: fs, logger: logger.OrGlobal(log).WithComponent("reporter")}
}

// Export writes report to path in the given format.
func (e *Exporter) Export(report *Report, format OutputFormat, path string) ExportResult {
	log := e.logger.WithFields(logger.Fields{"format": string(format), "path": path})
	log.Info("Writing report")

	if err := e.export(report, format, path); err != nil {
		log.WithError(err).Error("Report write failed")
		return ExportResult{OK: false, Detail: err.Error(), Path: path}
	}

	log.Info("Report written")
	return ExportResult{OK: true, Path: path}
}

func (e *Exporter) export(report *Report, format OutputFormat, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.ReportError(apperrors.CodeReportWriteFailed, path, fmt.Errorf("writer panic: %v", r))
		}
	}()

	if report == nil {
		return apperrors.ReportError(apperrors.CodeReportWriteFailed, path, fmt.Errorf("report is nil"))
	}
	if err := report.Validate(); err != nil {
		return apperrors.ReportError(apperrors.CodeReportWriteFailed, path, err)
	}

	w, err := NewWriter(format, e.fs)
	if err != nil {
		return apperrors.ReportError(apperrors.CodeReportWriteFailed, path, err).
			WithSuggestion("use one of xlsx, csv, json or sqlite")
	}
	if err := w.Write(report, path); err != nil {
		return apperrors.WrapIfNeeded(err, apperrors.CategoryReport, apperrors.CodeReportWriteFailed,
			fmt.Sprintf("failed to write report %s", path))
	}
	return nil
}
