package reporter

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// JSONWriter writes {"table": [{"column": value, ...}, ...], ...} with table
// and column order preserved.
type JSONWriter struct {
	fs afero.Fs
}

// Write implements Writer
func (w *JSONWriter) Write(report *Report, path string) error {
	data, err := MarshalReport(report)
	if err != nil {
		return err
	}
	return errors.Wrapf(afero.WriteFile(w.fs, path, data, 0o644), "write %s", path)
}

// MarshalReport encodes the report as an ordered JSON document.
func MarshalReport(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for ti, t := range report.Tables {
		if ti > 0 {
			buf.WriteString(",\n")
		}
		if err := writeKey(&buf, "  ", t.Name); err != nil {
			return nil, err
		}
		buf.WriteString("[")
		for ri, row := range t.Rows {
			if ri > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n    {")
			for ci, col := range t.Columns {
				if ci > 0 {
					buf.WriteString(", ")
				}
				if err := writeKey(&buf, "", col); err != nil {
					return nil, err
				}
				v, err := json.Marshal(row[ci])
				if err != nil {
					return nil, errors.Wrapf(err, "encode %s.%s", t.Name, col)
				}
				buf.Write(v)
			}
			buf.WriteString("}")
		}
		if len(t.Rows) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("]")
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, indent, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return errors.WithStack(err)
	}
	buf.WriteString(indent)
	buf.Write(k)
	buf.WriteString(": ")
	return nil
}
