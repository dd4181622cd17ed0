package reporter

import (
	"encoding/csv"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"tracking-reconciliation-service/internal/dataset"
)

const utf8BOM = "\xEF\xBB\xBF"

// CSVWriter writes a directory holding <table>.csv for every table. Files
// start with a UTF-8 byte order mark so spreadsheet tools detect the
// encoding of Persian text.
type CSVWriter struct {
	fs afero.Fs
}

// Write implements Writer
func (w *CSVWriter) Write(report *Report, dir string) error {
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}
	for _, t := range report.Tables {
		if err := w.writeTable(t, filepath.Join(dir, t.Name+".csv")); err != nil {
			return err
		}
	}
	return nil
}

func (w *CSVWriter) writeTable(t *Table, path string) error {
	f, err := w.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		return errors.Wrapf(err, "write header of %s", path)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = dataset.FormatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrapf(err, "flush %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
