package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

func newTestLoader(t *testing.T, files map[string][]byte) *Loader {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, data, 0644))
	}
	return NewLoader(fs, nil, logger.Discard())
}

func texts(ds *dataset.Dataset, col string) []string {
	j, ok := ds.ColumnIndex(col)
	if !ok {
		return nil
	}
	out := make([]string, ds.Len())
	for i := range out {
		out[i] = ds.CellText(i, j)
	}
	return out
}

func TestLoadCSV(t *testing.T) {
	content := "\xEF\xBB\xBFid,gateway,gateway_tracking_code\n1,sep,123456789\n2,Sep,\n\n,,\n3,zarinpal,AB12345\n"
	l := newTestLoader(t, map[string][]byte{"/data/platform.csv": []byte(content)})

	ds, err := l.Load(context.Background(), "/data/platform.csv")
	require.NoError(t, err)

	assert.Equal(t, "platform", ds.Name)
	assert.Equal(t, []string{"id", "gateway", "gateway_tracking_code"}, ds.Columns())
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"123456789", "", "AB12345"}, texts(ds, "gateway_tracking_code"))
	assert.Nil(t, ds.Value(1, 2))
}

func TestLoadCSVKeepsEmptyRowsWhenConfigured(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p.csv", []byte("a,b\n1,2\n,\n3,4\n"), 0644))

	l := NewLoader(fs, &LoadConfig{SkipEmptyRows: false}, logger.Discard())
	ds, err := l.Load(context.Background(), "/p.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestLoadCSVRaggedRowsAndBlankHeader(t *testing.T) {
	content := "code,,note\nX1\nX2,y,z,extra\n"
	l := newTestLoader(t, map[string][]byte{"/r.csv": []byte(content)})

	ds, err := l.Load(context.Background(), "/r.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "Unnamed: 1", "note"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())
	assert.Nil(t, ds.Value(0, 2))
	assert.Equal(t, "z", ds.CellText(1, 2))
}

func TestLoadCSVWindows1256Fallback(t *testing.T) {
	word := "\u0633\u0644\u0627\u0645"
	encoded, err := charmap.Windows1256.NewEncoder().String("description\n" + word + " 1234567\n")
	require.NoError(t, err)

	l := newTestLoader(t, map[string][]byte{"/legacy.csv": []byte(encoded)})
	ds, err := l.Load(context.Background(), "/legacy.csv")
	require.NoError(t, err)

	require.Equal(t, 1, ds.Len())
	assert.Equal(t, word+" 1234567", ds.CellText(0, 0))
}

func TestLoadCSVEmptyFile(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/empty.csv": {}})

	_, err := l.Load(context.Background(), "/empty.csv")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeEmptyFile))
}

func TestLoadCSVHeaderOnly(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/h.csv": []byte("a,b,c\n")})

	ds, err := l.Load(context.Background(), "/h.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.NumColumns())
	assert.True(t, ds.IsEmpty())
}

func TestLoadUnsupportedAndMissing(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{
		"/a.xls": []byte("x"),
		"/a.txt": []byte("x"),
	})

	tests := []struct {
		name string
		path string
		code errors.ErrorCode
	}{
		{"legacy workbook", "/a.xls", errors.CodeUnsupportedFormat},
		{"unknown extension", "/a.txt", errors.CodeUnsupportedFormat},
		{"no extension", "/a", errors.CodeUnsupportedFormat},
		{"missing file", "/missing.csv", errors.CodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(context.Background(), tt.path)
			require.Error(t, err)
			re, ok := errors.AsReconcilerError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, re.Code)
			assert.Equal(t, 2, re.GetExitCode())
		})
	}
}

func TestLoadXLSSuggestsConversion(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/old.XLS": []byte("x")})

	_, err := l.Load(context.Background(), "/old.XLS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xlsx")
}

func TestLoadCancelledContext(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/a.csv": []byte("a\n1\n")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, "/a.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"date", "amount", "description"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-01-01", 1500, "payment ref 987654321"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"2024-01-02", 12.5}))
	_, err := f.NewSheet("ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("ignored", "A1", "other"))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l := newTestLoader(t, map[string][]byte{"/bank.xlsx": buf.Bytes()})
	ds, err := l.Load(context.Background(), "/bank.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "bank", ds.Name)
	assert.Equal(t, []string{"date", "amount", "description"}, ds.Columns())
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"1500", "12.5"}, texts(ds, "amount"))
	assert.Equal(t, "payment ref 987654321", ds.CellText(0, 2))
	assert.Nil(t, ds.Value(1, 2))
}

func TestLoadXLSXCorrupt(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/bad.xlsx": []byte("not a zip")})

	_, err := l.Load(context.Background(), "/bad.xlsx")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidFormat))
}

func TestLoadJSONRecords(t *testing.T) {
	content := `[
		{"id": 1, "code": "12345678901234567890", "meta": {"ref": "AB12345", "n": [1, 2]}},
		{"id": 2, "extra": true, "code": null}
	]`
	l := newTestLoader(t, map[string][]byte{"/p.json": []byte(content)})

	ds, err := l.Load(context.Background(), "/p.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "code", "meta", "extra"}, ds.Columns())
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, json.Number("1"), ds.Value(0, 0))
	assert.Equal(t, "12345678901234567890", ds.CellText(0, 1))
	assert.Equal(t, `{"ref":"AB12345","n":[1,2]}`, ds.CellText(0, 2))
	assert.Nil(t, ds.Value(1, 1))
	assert.Equal(t, "true", ds.CellText(1, 3))
}

func TestLoadJSONLargeIntegersStayExact(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/big.json": []byte(`[{"code": 98765432109876543210}]`)})

	ds, err := l.Load(context.Background(), "/big.json")
	require.NoError(t, err)
	assert.Equal(t, "98765432109876543210", ds.CellText(0, 0))
}

func TestLoadJSONFlattensNestedDocuments(t *testing.T) {
	content := `{"batch": {"id": "B1", "items": [{"ref": "TR123"}, {"ref": "TR456"}]}, "count": 2}`
	l := newTestLoader(t, map[string][]byte{"/nested.json": []byte(content)})

	ds, err := l.Load(context.Background(), "/nested.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"batch.id", "batch.items[0].ref", "batch.items[1].ref", "count"}, ds.Columns())
	require.Equal(t, 4, ds.Len())
	assert.Equal(t, "B1", ds.CellText(0, 0))
	assert.Nil(t, ds.Value(0, 1))
	assert.Equal(t, "TR456", ds.CellText(2, 2))
	assert.Equal(t, "2", ds.CellText(3, 3))
}

func TestLoadJSONMixedArrayIsFlattened(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{"/mixed.json": []byte(`[{"a": 1}, "x"]`)})

	ds, err := l.Load(context.Background(), "/mixed.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"[0].a", "[1]"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())
}

func TestLoadJSONInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"empty", "", errors.CodeEmptyFile},
		{"truncated", `[{"a": 1}`, errors.CodeInvalidFormat},
		{"trailing data", `{"a": 1} {"b": 2}`, errors.CodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(t, map[string][]byte{"/x.json": []byte(tt.content)})
			_, err := l.Load(context.Background(), "/x.json")
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadPair(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{
		"/platform.csv": []byte("gateway,gateway_tracking_code\nsep,111111\n"),
		"/provider.csv": []byte("description\npaid 111111\n"),
	})

	platform, provider, err := l.LoadPair(context.Background(), "/platform.csv", "/provider.csv")
	require.NoError(t, err)
	assert.Equal(t, "platform", platform.Name)
	assert.Equal(t, "provider", provider.Name)

	_, _, err = l.LoadPair(context.Background(), "/platform.csv", "/nope.csv")
	assert.True(t, errors.HasCode(err, errors.CodeFileNotFound))
}

func TestLoadPair_BothFail(t *testing.T) {
	l := newTestLoader(t, map[string][]byte{
		"/empty.csv": []byte(""),
	})

	_, _, err := l.LoadPair(context.Background(), "/nope.csv", "/empty.csv")
	require.Error(t, err)

	var summary *errors.ErrorSummary
	require.ErrorAs(t, err, &summary)
	assert.Equal(t, 2, summary.Total)
	assert.True(t, summary.HasCode(errors.CodeFileNotFound))
	assert.True(t, summary.HasCode(errors.CodeEmptyFile))
	assert.Equal(t, errors.CodeFileNotFound, summary.Errors[0].Code)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "csv", Format("a/b/Report.CSV"))
	assert.Equal(t, "xlsx", Format("x.xlsx"))
	assert.Equal(t, "", Format("noext"))
}
