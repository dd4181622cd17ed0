// Package reporter turns reconciliation results back into full-width record
// tables and writes them out.
//
// A Report always holds the same five tables, in this order:
//   - filtered_platform: the platform rows in scope for the run
//   - provider: every provider row
//   - match: one row per match, both source rows side by side
//   - non_match_platform: platform candidates without a counterpart
//   - non_match_provider: provider candidates or rows without a counterpart
//
// A table with nothing to show holds a single placeholder row in a "message"
// column, so consumers can rely on every table existing. Column names are
// made unique and every value passes through SafeValue before it is stored.
//
// Supported output formats:
//   - xlsx: one workbook, one sheet per table
//   - csv: a directory with one UTF-8 (BOM) file per table
//   - json: one document keyed by table name
//   - sqlite: one database, one TEXT-typed table per report table
package reporter

import "fmt"

// Table names, in report order.
const (
	TableFilteredPlatform = "filtered_platform"
	TableProvider         = "provider"
	TableMatch            = "match"
	TableNonMatchPlatform = "non_match_platform"
	TableNonMatchProvider = "non_match_provider"
)

// PlaceholderColumn is the only column of a placeholder table.
const PlaceholderColumn = "message"

// TableNames lists the five tables in report order.
var TableNames = []string{
	TableFilteredPlatform,
	TableProvider,
	TableMatch,
	TableNonMatchPlatform,
	TableNonMatchProvider,
}

// Table is one flat output table. Columns are unique; every row has one
// value per column.
type Table struct {
	Name        string
	Columns     []string
	Rows        [][]any
	Placeholder bool
}

// NewPlaceholder returns a table holding only an explanatory message.
func NewPlaceholder(name, message string) *Table {
	return &Table{
		Name:        name,
		Columns:     []string{PlaceholderColumn},
		Rows:        [][]any{{message}},
		Placeholder: true,
	}
}

// Len returns the number of data rows, 0 for a placeholder.
func (t *Table) Len() int {
	if t.Placeholder {
		return 0
	}
	return len(t.Rows)
}

// Report is the five-table output of one run.
type Report struct {
	Tables []*Table
	// Skipped counts match records whose rows could not be resolved.
	Skipped int
}

// Table returns the table with the given name, or nil.
func (r *Report) Table(name string) *Table {
	for _, t := range r.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Validate checks that the report holds the five tables in order and that
// every row is as wide as its header.
func (r *Report) Validate() error {
	if len(r.Tables) != len(TableNames) {
		return fmt.Errorf("report has %d tables, want %d", len(r.Tables), len(TableNames))
	}
	for i, t := range r.Tables {
		if t.Name != TableNames[i] {
			return fmt.Errorf("table %d is %q, want %q", i, t.Name, TableNames[i])
		}
		for j, row := range t.Rows {
			if len(row) != len(t.Columns) {
				return fmt.Errorf("table %s row %d has %d values for %d columns", t.Name, j, len(row), len(t.Columns))
			}
		}
	}
	return nil
}
