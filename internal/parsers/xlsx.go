package parsers

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// parseXLSX reads the first worksheet. Cells are read as their raw stored
// values so numbers are not rewritten by cell number formats.
func (l *Loader) parseXLSX(path string, data []byte) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError(errors.CodeEmptyFile, path, 0, nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, err).
			WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.ParseError(errors.CodeEmptyFile, path, 0, nil).
			WithContext("sheet", sheet)
	}

	l.logger.WithFields(logger.Fields{
		"file":   path,
		"sheet":  sheet,
		"sheets": len(sheets),
		"rows":   len(rows) - 1,
	}).Debug("Read worksheet")

	return dataset.New(datasetName(path), headerNames(rows[0]), l.finishRows(rows[1:])), nil
}
