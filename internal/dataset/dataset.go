// Package dataset holds the uniform in-memory table that every loader
// produces and every reconciliation stage reads.
//
// A Dataset is an ordered list of column names (which may repeat) plus
// ordered rows. Each row carries a RowID fixed when the dataset is built;
// derived datasets (filters, slices, clones) keep the RowIDs of the rows they
// contain, so a candidate extracted from a filtered view can always be traced
// back to the source row. Datasets are read-only once built.
package dataset

import (
	"fmt"
)

// RowID identifies exactly one row of the dataset it was assigned in.
// It is opaque: compare it, store it, but never build one from text.
type RowID struct {
	n int
}

// Ordinal returns the load position the id was assigned from. The report
// assembler uses it for positional fallback lookups.
func (id RowID) Ordinal() int {
	return id.n
}

// String implements fmt.Stringer
func (id RowID) String() string {
	return fmt.Sprintf("row#%d", id.n)
}

// RowIDAt returns the id that New assigns to the row at position pos.
func RowIDAt(pos int) RowID {
	return RowID{n: pos}
}

// Row is one record: its identity plus one value per dataset column.
type Row struct {
	ID     RowID
	Values []any
}

// Dataset is an ordered, row-identified table.
type Dataset struct {
	Name    string
	columns []string
	rows    []Row
	index   map[RowID]int
}

// New builds a dataset and assigns RowIDs by position. Rows shorter than the
// header are padded with nil; longer rows are truncated.
func New(name string, columns []string, values [][]any) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)

	rows := make([]Row, len(values))
	for i, v := range values {
		rowValues := make([]any, len(cols))
		copy(rowValues, v)
		rows[i] = Row{ID: RowID{n: i}, Values: rowValues}
	}

	return fromRows(name, cols, rows)
}

func fromRows(name string, columns []string, rows []Row) *Dataset {
	index := make(map[RowID]int, len(rows))
	for i, r := range rows {
		index[r.ID] = i
	}
	return &Dataset{
		Name:    name,
		columns: columns,
		rows:    rows,
		index:   index,
	}
}

// Columns returns a copy of the column names in order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	if d == nil {
		return 0
	}
	return len(d.columns)
}

// Column returns the name of the column at position i.
func (d *Dataset) Column(i int) string {
	return d.columns[i]
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// IsEmpty reports whether the dataset has no rows.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Row returns the row at position i.
func (d *Dataset) Row(i int) Row {
	return d.rows[i]
}

// Value returns the cell at row position i and column position j.
func (d *Dataset) Value(i, j int) any {
	return d.rows[i].Values[j]
}

// CellText returns the formatted text of the cell at row i, column j.
func (d *Dataset) CellText(i, j int) string {
	return FormatCell(d.rows[i].Values[j])
}

// ColumnIndex returns the position of the first column named name.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	if d == nil {
		return -1, false
	}
	for i, c := range d.columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether a column with the given name exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.ColumnIndex(name)
	return ok
}

// Lookup finds a row by its id.
func (d *Dataset) Lookup(id RowID) (Row, bool) {
	if d == nil {
		return Row{}, false
	}
	i, ok := d.index[id]
	if !ok {
		return Row{}, false
	}
	return d.rows[i], true
}

// LookupOrPosition finds a row by id and, when the id is not present, falls
// back to the row at position id.Ordinal() if that position is in range.
func (d *Dataset) LookupOrPosition(id RowID) (Row, bool) {
	if r, ok := d.Lookup(id); ok {
		return r, true
	}
	pos := id.Ordinal()
	if pos >= 0 && pos < d.Len() {
		return d.rows[pos], true
	}
	return Row{}, false
}

// Filter returns a view with the rows for which keep returns true. RowIDs are
// preserved.
func (d *Dataset) Filter(keep func(Row) bool) *Dataset {
	var rows []Row
	for _, r := range d.rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return fromRows(d.Name, d.columns, rows)
}

// Slice returns a view of rows [start, end). The view shares row storage
// with d.
func (d *Dataset) Slice(start, end int) *Dataset {
	if start < 0 {
		start = 0
	}
	if end > len(d.rows) {
		end = len(d.rows)
	}
	if start > end {
		start = end
	}
	return fromRows(d.Name, d.columns, d.rows[start:end])
}

// Clone returns a deep copy whose rows share nothing with d.
func (d *Dataset) Clone() *Dataset {
	cols := make([]string, len(d.columns))
	copy(cols, d.columns)

	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		values := make([]any, len(r.Values))
		copy(values, r.Values)
		rows[i] = Row{ID: r.ID, Values: values}
	}
	return fromRows(d.Name, cols, rows)
}
