package parsers

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func unnamedColumn(i int) string {
	return fmt.Sprintf("Unnamed: %d", i)
}

// decodeText returns data as UTF-8. Input that is not valid UTF-8 is decoded
// as Windows-1256.
func (l *Loader) decodeText(path string, data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, err := charmap.Windows1256.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(decoded) {
		return nil, errors.ParseError(errors.CodeEncodingError, path, 0, err)
	}
	l.logger.WithField("file", path).Warn("File is not valid UTF-8, decoded as Windows-1256")
	return decoded, nil
}

func (l *Loader) parseCSV(path string, data []byte) (*dataset.Dataset, error) {
	text, err := l.decodeText(path, data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = l.config.TrimLeadingSpace

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ParseError(errors.CodeEmptyFile, path, 0, nil)
	}
	if err != nil {
		return nil, csvError(path, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(path, err)
		}
		rows = append(rows, record)
	}

	l.logger.WithFields(logger.Fields{
		"file":    path,
		"records": len(rows),
	}).Debug("Parsed CSV records")

	return dataset.New(datasetName(path), headerNames(header), l.finishRows(rows)), nil
}

func csvError(path string, err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return errors.ParseError(errors.CodeInvalidFormat, path, pe.Line, err)
	}
	return errors.ParseError(errors.CodeInvalidFormat, path, 0, err)
}
