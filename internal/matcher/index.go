package matcher

import (
	"strings"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/extractor"
	"tracking-reconciliation-service/internal/models"
)

// CandidateIndex gives O(1) equality lookups over a candidate list while
// keeping scan order available for containment searches.
type CandidateIndex struct {
	candidates []models.Candidate
	byCode     map[string]int
}

// NewCandidateIndex indexes candidates by code. When a code repeats, the
// first position is kept.
func NewCandidateIndex(candidates []models.Candidate) *CandidateIndex {
	idx := &CandidateIndex{
		candidates: candidates,
		byCode:     make(map[string]int, len(candidates)),
	}
	for i, c := range candidates {
		if _, exists := idx.byCode[c.Code]; !exists {
			idx.byCode[c.Code] = i
		}
	}
	return idx
}

// Len returns the number of indexed candidates
func (idx *CandidateIndex) Len() int {
	return len(idx.candidates)
}

// At returns the candidate at position i
func (idx *CandidateIndex) At(i int) models.Candidate {
	return idx.candidates[i]
}

// FirstHit returns the position of the first candidate, in scan order, whose
// code equals code or whose source text contains it, or -1.
func (idx *CandidateIndex) FirstHit(code string) int {
	limit := len(idx.candidates)
	eq, hasEq := idx.byCode[code]
	if hasEq {
		limit = eq
	}
	if hit := idx.firstContaining(code, limit); hit >= 0 {
		return hit
	}
	if hasEq {
		return eq
	}
	return -1
}

// FirstContaining returns the position of the first candidate whose source
// text contains code, or -1.
func (idx *CandidateIndex) FirstContaining(code string) int {
	return idx.firstContaining(code, len(idx.candidates))
}

func (idx *CandidateIndex) firstContaining(code string, limit int) int {
	for i := 0; i < limit; i++ {
		if strings.Contains(idx.candidates[i].OriginalText, code) {
			return i
		}
	}
	return -1
}

// AnyTextContains reports whether some candidate's source text contains code.
func (idx *CandidateIndex) AnyTextContains(code string) bool {
	return idx.FirstContaining(code) >= 0
}

// CellIndex holds the stringified, canonicalized cells of a dataset,
// column-major, so fan-out scans format every cell once. Cells go through
// the same canonicalization as extracted platform text.
type CellIndex struct {
	columns []string
	rows    []dataset.RowID
	cells   [][]string
}

// NewCellIndex formats and canonicalizes every cell of ds.
func NewCellIndex(ds *dataset.Dataset) *CellIndex {
	idx := &CellIndex{
		columns: ds.Columns(),
		rows:    make([]dataset.RowID, ds.Len()),
		cells:   make([][]string, ds.NumColumns()),
	}
	for i := 0; i < ds.Len(); i++ {
		idx.rows[i] = ds.Row(i).ID
	}
	for j := range idx.cells {
		col := make([]string, ds.Len())
		for i := range col {
			col[i] = extractor.Canonicalize(ds.CellText(i, j))
		}
		idx.cells[j] = col
	}
	return idx
}

// NumRows returns the number of indexed rows
func (idx *CellIndex) NumRows() int {
	return len(idx.rows)
}
