package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/pkg/errors"
)

// object is a decoded JSON object that remembers its key order.
type object struct {
	keys   []string
	values []any
}

func (l *Loader) parseJSON(path string, data []byte) (*dataset.Dataset, error) {
	text, err := l.decodeText(path, data)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	doc, err := decodeValue(dec, 0)
	if err == io.EOF {
		return nil, errors.ParseError(errors.CodeEmptyFile, path, 0, nil)
	}
	if err != nil {
		return nil, jsonError(path, dec, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0,
			fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset()))
	}

	name := datasetName(path)
	if items, ok := doc.([]any); ok && allObjects(items) {
		cols, rows := records(items)
		return dataset.New(name, cols, rows), nil
	}

	cols, rows := flatten(doc)
	return dataset.New(name, cols, rows), nil
}

func jsonError(path string, dec *json.Decoder, err error) error {
	return errors.ParseError(errors.CodeInvalidFormat, path, 0, err).
		WithContext("offset", dec.InputOffset())
}

// decodeValue reads one value from dec, keeping object key order. Running
// out of input inside a value is io.ErrUnexpectedEOF; io.EOF is returned only
// when there is no value at all.
func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := next(dec, depth)
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &object{}
		for dec.More() {
			keyTok, err := next(dec, depth+1)
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, not a string", keyTok)
			}
			val, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			obj.keys = append(obj.keys, key)
			obj.values = append(obj.values, val)
		}
		if _, err := next(dec, depth+1); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		items := []any{}
		for dec.More() {
			val, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		if _, err := next(dec, depth+1); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

func next(dec *json.Decoder, depth int) (json.Token, error) {
	tok, err := dec.Token()
	if err == io.EOF && depth > 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func allObjects(items []any) bool {
	for _, it := range items {
		if _, ok := it.(*object); !ok {
			return false
		}
	}
	return true
}

// records turns an array of objects into rows. Columns are the union of keys
// in first-seen order; nested values are kept as compact JSON text.
func records(items []any) ([]string, [][]any) {
	var cols []string
	pos := make(map[string]int)
	for _, it := range items {
		for _, k := range it.(*object).keys {
			if _, ok := pos[k]; !ok {
				pos[k] = len(cols)
				cols = append(cols, k)
			}
		}
	}

	rows := make([][]any, len(items))
	for i, it := range items {
		obj := it.(*object)
		row := make([]any, len(cols))
		for j, k := range obj.keys {
			row[pos[k]] = cellValue(obj.values[j])
		}
		rows[i] = row
	}
	return cols, rows
}

// flatten emits one row per leaf value. Each row has a single populated
// cell, in the column named by the leaf's path: "a.b" for object members and
// "a[0]" for array elements.
func flatten(doc any) ([]string, [][]any) {
	type leaf struct {
		path  string
		value any
	}
	var leaves []leaf

	var walk func(v any, prefix string)
	walk = func(v any, prefix string) {
		switch val := v.(type) {
		case *object:
			for i, k := range val.keys {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(val.values[i], key)
			}
		case []any:
			for i, item := range val {
				walk(item, prefix+"["+strconv.Itoa(i)+"]")
			}
		default:
			if prefix != "" {
				leaves = append(leaves, leaf{path: prefix, value: val})
			}
		}
	}
	walk(doc, "")

	var cols []string
	pos := make(map[string]int)
	for _, lf := range leaves {
		if _, ok := pos[lf.path]; !ok {
			pos[lf.path] = len(cols)
			cols = append(cols, lf.path)
		}
	}

	rows := make([][]any, len(leaves))
	for i, lf := range leaves {
		row := make([]any, len(cols))
		row[pos[lf.path]] = lf.value
		rows[i] = row
	}
	return cols, rows
}

func cellValue(v any) any {
	switch v.(type) {
	case *object, []any:
		var buf bytes.Buffer
		writeCompact(&buf, v)
		return buf.String()
	default:
		return v
	}
}

func writeCompact(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case *object:
		buf.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeScalar(buf, k)
			buf.WriteByte(':')
			writeCompact(buf, val.values[i])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCompact(buf, item)
		}
		buf.WriteByte(']')
	default:
		writeScalar(buf, val)
	}
}

func writeScalar(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case json.Number:
		buf.WriteString(val.String())
	default:
		b, err := json.Marshal(val)
		if err != nil {
			buf.WriteString("null")
			return
		}
		buf.Write(b)
	}
}
