package reporter

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

// XLSXWriter writes one workbook with one sheet per table.
type XLSXWriter struct {
	fs afero.Fs
}

// Write implements Writer
func (w *XLSXWriter) Write(report *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range report.Tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return errors.Wrapf(err, "rename sheet to %s", t.Name)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return errors.Wrapf(err, "create sheet %s", t.Name)
		}
		if err := writeSheet(f, t); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	out, err := w.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		return errors.Wrapf(err, "write workbook %s", path)
	}
	return errors.Wrapf(out.Close(), "close %s", path)
}

func writeSheet(f *excelize.File, t *Table) error {
	sw, err := f.NewStreamWriter(t.Name)
	if err != nil {
		return errors.Wrapf(err, "stream sheet %s", t.Name)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errors.Wrapf(err, "write header of %s", t.Name)
	}

	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return errors.WithStack(err)
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := sw.SetRow(cell, values); err != nil {
			return errors.Wrapf(err, "write row %d of %s", r+1, t.Name)
		}
	}
	return errors.Wrapf(sw.Flush(), "flush sheet %s", t.Name)
}
