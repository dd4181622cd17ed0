package dataset

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Dataset {
	return New("platform", []string{"id", "gateway", "code"}, [][]any{
		{"1", "Payman", "AB12345"},
		{"2", "jibit", "XY9999"},
		{"3", "PAYMAN", nil},
		{"4"},
	})
}

func TestNewPadsAndTruncatesRows(t *testing.T) {
	ds := New("x", []string{"a", "b"}, [][]any{{"1"}, {"1", "2", "3"}})

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []any{"1", nil}, ds.Row(0).Values)
	assert.Equal(t, []any{"1", "2"}, ds.Row(1).Values)
}

func TestColumnsReturnsCopy(t *testing.T) {
	ds := sample()
	cols := ds.Columns()
	cols[0] = "changed"

	assert.Equal(t, "id", ds.Column(0))
}

func TestColumnIndexFirstOccurrence(t *testing.T) {
	ds := New("x", []string{"code", "other", "code"}, nil)

	idx, ok := ds.ColumnIndex("code")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = ds.ColumnIndex("missing")
	assert.False(t, ok)
}

func TestFilterKeepsRowIDs(t *testing.T) {
	ds := sample()
	filtered := ds.Filter(func(r Row) bool { return r.Values[0] == "3" })

	require.Equal(t, 1, filtered.Len())
	assert.Equal(t, RowIDAt(2), filtered.Row(0).ID)

	row, ok := filtered.Lookup(RowIDAt(2))
	require.True(t, ok)
	assert.Equal(t, "3", row.Values[0])

	_, ok = filtered.Lookup(RowIDAt(0))
	assert.False(t, ok)
}

func TestLookupOrPosition(t *testing.T) {
	ds := sample()
	view := ds.Slice(1, 3)

	tests := []struct {
		name   string
		id     RowID
		wantOK bool
		wantID string
	}{
		{name: "direct key", id: RowIDAt(2), wantOK: true, wantID: "3"},
		{name: "positional fallback", id: RowIDAt(0), wantOK: true, wantID: "2"},
		{name: "out of range", id: RowIDAt(7), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := view.LookupOrPosition(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, row.Values[0])
			}
		})
	}
}

func TestCloneSharesNothing(t *testing.T) {
	ds := sample()
	clone := ds.Clone()
	clone.rows[0].Values[0] = "mutated"

	assert.Equal(t, "1", ds.Value(0, 0))
	assert.Equal(t, ds.Row(3).ID, clone.Row(3).ID)
}

func TestSliceBounds(t *testing.T) {
	ds := sample()

	assert.Equal(t, 0, ds.Slice(5, 9).Len())
	assert.Equal(t, 4, ds.Slice(-1, 10).Len())
	assert.Equal(t, RowIDAt(1), ds.Slice(1, 2).Row(0).ID)
}

func TestFormatCell(t *testing.T) {
	huge, _ := new(big.Int).SetString("12345678901234567890", 10)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"int", 42, "42"},
		{"int64", int64(9007199254740993), "9007199254740993"},
		{"big int", huge, "12345678901234567890"},
		{"float trims zeros", 12.50, "12.5"},
		{"whole float", 3.0, "3"},
		{"rounded float", 0.1234567, "0.123457"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"nan", math.NaN(), ""},
		{"json integer", json.Number("12345678901234567890"), "12345678901234567890"},
		{"json fraction", json.Number("1.50"), "1.5"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.in))
		})
	}
}

func TestUniqueColumns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"no repeats", []string{"a", "b"}, []string{"a", "b"}},
		{"one repeat", []string{"code", "code"}, []string{"code", "code_1"}},
		{"many repeats", []string{"x", "x", "x"}, []string{"x", "x_1", "x_2"}},
		{"suffix already taken", []string{"code", "code", "code_1"}, []string{"code", "code_2", "code_1"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UniqueColumns(tt.in))
		})
	}
}

func TestFilterByGateway(t *testing.T) {
	ds := sample()

	filtered, status := FilterByGateway(ds, "payman", "")
	require.Equal(t, FilterOK, status)
	require.Equal(t, 2, filtered.Len())
	assert.Equal(t, RowIDAt(0), filtered.Row(0).ID)
	assert.Equal(t, RowIDAt(2), filtered.Row(1).ID)

	filtered, status = FilterByGateway(ds, "vandar", "")
	assert.Equal(t, FilterEmpty, status)
	assert.Nil(t, filtered)

	filtered, status = FilterByGateway(ds, "payman", "provider")
	assert.Equal(t, FilterMissingColumn, status)
	assert.Nil(t, filtered)
}
