package reporter

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"tracking-reconciliation-service/internal/dataset"
)

// SQLiteWriter writes one SQLite database with a TEXT-typed table per report
// table. An existing file at the path is replaced.
type SQLiteWriter struct{}

// Write implements Writer
func (w *SQLiteWriter) Write(report *Report, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "replace %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errors.WithStack(err)
	}
	for _, t := range report.Tables {
		if err := writeSQLiteTable(tx, t); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "commit report")
}

func writeSQLiteTable(tx *sql.Tx, t *Table) error {
	cols := sqliteColumns(t.Columns)

	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		defs[i] = quoted[i] + " TEXT"
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(defs, ", "))); err != nil {
		return errors.Wrapf(err, "create table %s", t.Name)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(t.Name), strings.Join(quoted, ", "), ph))
	if err != nil {
		return errors.Wrapf(err, "prepare insert into %s", t.Name)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for r, row := range t.Rows {
		for i, v := range row {
			args[i] = dataset.FormatCell(v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return errors.Wrapf(err, "insert row %d into %s", r+1, t.Name)
		}
	}
	return nil
}

// sqliteColumns makes names unique ignoring case, since SQLite identifiers
// are case-insensitive.
func sqliteColumns(names []string) []string {
	taken := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		candidate := n
		for k := 1; taken[strings.ToLower(candidate)]; k++ {
			candidate = fmt.Sprintf("%s_%d", n, k)
		}
		taken[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
