package matcher

import (
	"strings"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/models"
	"tracking-reconciliation-service/pkg/logger"
)

// FanOutOutcome is the result of FanOut. Provider non-matches are rows, not
// candidates: each carries the row id and an empty code.
type FanOutOutcome struct {
	Matches       []models.MatchRecord
	OnlyPlatform  []models.NonMatchRecord
	UnmatchedRows []models.NonMatchRecord
	// MatchedRows is the number of distinct provider rows with at least one hit.
	MatchedRows int
}

type fanOutResult struct {
	matches []models.MatchRecord
	rows    []int
}

// FanOut searches every provider cell, column by column and row by row, for
// each platform code. Every containing cell yields its own match, exact when
// the cell equals the code and within-text otherwise. Provider rows that no
// platform code was found in are reported as unmatched rows.
func (e *Engine) FanOut(platform []models.Candidate, provider *dataset.Dataset) *FanOutOutcome {
	cells := NewCellIndex(provider)

	results := mapCandidates(e.workers(), platform, func(c *models.Candidate) fanOutResult {
		var r fanOutResult
		for j, col := range cells.cells {
			for i, text := range col {
				if !strings.Contains(text, c.Code) {
					continue
				}
				mt := models.MatchTypeWithinText
				if text == c.Code {
					mt = models.MatchTypeExact
				}
				r.matches = append(r.matches, models.MatchRecord{
					PlatformCode:   c.Code,
					PlatformColumn: c.Column,
					PlatformRow:    c.Row,
					ProviderCode:   c.Code,
					ProviderColumn: cells.columns[j],
					ProviderRow:    cells.rows[i],
					Type:           mt,
					Similarity:     models.MaxSimilarity,
				})
				r.rows = append(r.rows, i)
			}
		}
		return r
	})

	out := &FanOutOutcome{}
	matched := make([]bool, cells.NumRows())
	for k, r := range results {
		if len(r.matches) == 0 {
			out.OnlyPlatform = append(out.OnlyPlatform,
				models.NonMatchFromCandidate(models.SidePlatform, platform[k], models.ReasonPlatformOnly))
			continue
		}
		out.Matches = append(out.Matches, r.matches...)
		for _, i := range r.rows {
			matched[i] = true
		}
	}

	for i, hit := range matched {
		if hit {
			out.MatchedRows++
			continue
		}
		out.UnmatchedRows = append(out.UnmatchedRows, models.NonMatchRecord{
			Side:   models.SideProvider,
			Row:    cells.rows[i],
			Reason: models.ReasonProviderRowUnmatched,
		})
	}

	e.logger.WithFields(logger.Fields{
		"strategy":       "fan-out",
		"platform_codes": len(platform),
		"provider_rows":  cells.NumRows(),
		"matches":        len(out.Matches),
		"platform_only":  len(out.OnlyPlatform),
		"unmatched_rows": len(out.UnmatchedRows),
	}).Debug("Fan-out completed")
	return out
}
