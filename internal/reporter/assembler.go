package reporter

import (
	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/models"
	apperrors "tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// Metadata columns of the match and non-match tables.
var (
	matchMetaColumns    = []string{"match_type", "platform_code", "provider_code", "similarity"}
	nonMatchMetaColumns = []string{"non_match_code", "non_match_type", "non_match_column"}
)

// Placeholder messages.
const (
	msgNoPlatformRows = "no platform rows in scope for this run"
	msgNoProviderRows = "the provider file has no rows"
	msgNoMatches      = "no matches were found"
	msgNoPlatformOnly = "every platform code was matched"
	msgNoProviderOnly = "every provider record was matched"
)

// AssemblyInput is everything the assembler needs. Any field may be nil.
type AssemblyInput struct {
	FilteredPlatform   *dataset.Dataset
	Provider           *dataset.Dataset
	Matches            []models.MatchRecord
	NonMatchesPlatform []models.NonMatchRecord
	NonMatchesProvider []models.NonMatchRecord
}

// Assembler rehydrates match results into full-width tables.
type Assembler struct {
	logger logger.Logger
}

// NewAssembler creates an assembler
func NewAssembler(log logger.Logger) *Assembler {
	return &Assembler{logger: logger.OrGlobal(log).WithComponent("assembler")}
}

// Assemble builds the five report tables. Matches whose rows cannot be
// resolved are logged and skipped; non-matches whose rows cannot be resolved
// keep only their code, type and column.
func (a *Assembler) Assemble(in AssemblyInput) *Report {
	report := &Report{}

	report.Tables = append(report.Tables,
		sourceTable(TableFilteredPlatform, in.FilteredPlatform, msgNoPlatformRows),
		sourceTable(TableProvider, in.Provider, msgNoProviderRows),
	)

	match, skipped := a.matchTable(in)
	report.Skipped = skipped
	report.Tables = append(report.Tables,
		match,
		a.nonMatchTable(TableNonMatchPlatform, in.FilteredPlatform, in.NonMatchesPlatform, msgNoPlatformOnly),
		a.nonMatchTable(TableNonMatchProvider, in.Provider, in.NonMatchesProvider, msgNoProviderOnly),
	)

	a.logger.WithFields(logger.Fields{
		"matches":            match.Len(),
		"skipped":            skipped,
		"non_match_platform": report.Tables[3].Len(),
		"non_match_provider": report.Tables[4].Len(),
	}).Debug("Report assembled")
	return report
}

func sourceTable(name string, ds *dataset.Dataset, empty string) *Table {
	if ds.IsEmpty() {
		return NewPlaceholder(name, empty)
	}
	t := &Table{
		Name:    name,
		Columns: dataset.UniqueColumns(ds.Columns()),
		Rows:    make([][]any, ds.Len()),
	}
	for i := 0; i < ds.Len(); i++ {
		t.Rows[i] = SafeRow(ds.Row(i).Values)
	}
	return t
}

func prefixed(prefix string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = prefix + c
	}
	return out
}

func (a *Assembler) matchTable(in AssemblyInput) (*Table, int) {
	if len(in.Matches) == 0 {
		return NewPlaceholder(TableMatch, msgNoMatches), 0
	}

	platformCols := in.FilteredPlatform.Columns()
	providerCols := in.Provider.Columns()

	header := append([]string{}, matchMetaColumns...)
	header = append(header, prefixed("platform_", platformCols)...)
	header = append(header, prefixed("provider_", providerCols)...)

	t := &Table{Name: TableMatch, Columns: dataset.UniqueColumns(header)}
	skipped := 0
	for _, m := range in.Matches {
		pRow, okP := in.FilteredPlatform.LookupOrPosition(m.PlatformRow)
		vRow, okV := in.Provider.LookupOrPosition(m.ProviderRow)
		if !okP || !okV {
			skipped++
			a.logger.WithFields(logger.Fields{
				"code":              apperrors.CodeUnresolvableRow,
				"platform_code":     m.PlatformCode,
				"platform_row":      m.PlatformRow.String(),
				"provider_row":      m.ProviderRow.String(),
				"platform_resolved": okP,
				"provider_resolved": okV,
			}).Warn("Skipping match with unresolvable row")
			continue
		}

		row := make([]any, 0, len(header))
		row = append(row, string(m.Type), m.PlatformCode, m.ProviderCode, int64(m.Similarity))
		row = append(row, SafeRow(pRow.Values)...)
		row = append(row, SafeRow(vRow.Values)...)
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return NewPlaceholder(TableMatch, msgNoMatches), skipped
	}
	return t, skipped
}

func (a *Assembler) nonMatchTable(name string, source *dataset.Dataset, records []models.NonMatchRecord, empty string) *Table {
	if len(records) == 0 {
		return NewPlaceholder(name, empty)
	}

	sourceCols := source.Columns()
	header := append(append([]string{}, nonMatchMetaColumns...), sourceCols...)
	t := &Table{Name: name, Columns: dataset.UniqueColumns(header)}

	for _, nm := range records {
		row := make([]any, len(header))
		row[0], row[1], row[2] = nm.Code, string(nm.Reason), nm.Column

		src, ok := source.LookupOrPosition(nm.Row)
		if ok {
			copy(row[len(nonMatchMetaColumns):], SafeRow(src.Values))
		} else {
			a.logger.WithFields(logger.Fields{
				"table":     name,
				"error":     apperrors.CodeUnresolvableRow,
				"candidate": nm.Code,
				"row":       nm.Row.String(),
			}).Warn("Non-match row unresolvable, keeping minimal record")
		}
		for i := len(nonMatchMetaColumns); i < len(row); i++ {
			if row[i] == nil {
				row[i] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
