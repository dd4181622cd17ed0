// Package models defines the records produced by one reconciliation run:
// extracted candidates, matches and non-matches. They are created fresh per
// run, reference source rows only by dataset.RowID and are never mutated.
package models

import (
	"fmt"
	"strings"

	"tracking-reconciliation-service/internal/dataset"
)

// MatchType represents how two codes were linked
type MatchType string

const (
	// MatchTypeExact means the two codes are equal
	MatchTypeExact MatchType = "exact"
	// MatchTypeWithinText means one code occurs inside the other side's cell text
	MatchTypeWithinText MatchType = "within-text"
	// MatchTypeFuzzy means the codes scored at or above the similarity threshold
	MatchTypeFuzzy MatchType = "fuzzy"
)

// String returns the string representation of MatchType
func (t MatchType) String() string {
	return string(t)
}

// IsValid checks if the match type is known
func (t MatchType) IsValid() bool {
	switch t {
	case MatchTypeExact, MatchTypeWithinText, MatchTypeFuzzy:
		return true
	}
	return false
}

// Side names which dataset a record belongs to
type Side string

const (
	SidePlatform Side = "platform"
	SideProvider Side = "provider"
)

// Reason explains why a record is a non-match
type Reason string

const (
	// ReasonPlatformOnly marks a platform code with no provider counterpart
	ReasonPlatformOnly Reason = "A-only"
	// ReasonProviderOnly marks a provider code with no platform counterpart
	ReasonProviderOnly Reason = "B-only"
	// ReasonProviderRowUnmatched marks a provider row no platform code was found in
	ReasonProviderRowUnmatched Reason = "row-unmatched"
)

// MaxSimilarity is the score of exact and within-text matches.
const MaxSimilarity = 100

// Candidate is one extracted tracking code with its provenance.
type Candidate struct {
	Code         string        `json:"code"`
	Column       string        `json:"column"`
	Row          dataset.RowID `json:"-"`
	OriginalText string        `json:"original_text"`
}

// Validate performs basic validation on the Candidate
func (c Candidate) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("candidate code cannot be empty")
	}
	if !strings.Contains(c.OriginalText, c.Code) {
		return fmt.Errorf("candidate code %q does not occur in its source text", c.Code)
	}
	return nil
}

// String returns a string representation of the Candidate
func (c Candidate) String() string {
	return fmt.Sprintf("Candidate{Code: %s, Column: %s, Row: %s}", c.Code, c.Column, c.Row)
}

// MatchRecord links one platform candidate to one provider location.
type MatchRecord struct {
	PlatformCode   string        `json:"platform_code"`
	PlatformColumn string        `json:"platform_column"`
	PlatformRow    dataset.RowID `json:"-"`
	ProviderCode   string        `json:"provider_code"`
	ProviderColumn string        `json:"provider_column"`
	ProviderRow    dataset.RowID `json:"-"`
	Type           MatchType     `json:"match_type"`
	Similarity     int           `json:"similarity"`
}

// Validate checks the match type and score range
func (m MatchRecord) Validate() error {
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid match type: %s", m.Type)
	}
	if m.Similarity < 0 || m.Similarity > MaxSimilarity {
		return fmt.Errorf("similarity %d out of range", m.Similarity)
	}
	if m.Type != MatchTypeFuzzy && m.Similarity != MaxSimilarity {
		return fmt.Errorf("%s match must have similarity %d, got %d", m.Type, MaxSimilarity, m.Similarity)
	}
	return nil
}

// String returns a string representation of the MatchRecord
func (m MatchRecord) String() string {
	return fmt.Sprintf("Match{%s %s@%s <-> %s@%s (%d)}",
		m.Type, m.PlatformCode, m.PlatformRow, m.ProviderCode, m.ProviderRow, m.Similarity)
}

// NonMatchRecord is a candidate or row that found no counterpart.
type NonMatchRecord struct {
	Side   Side          `json:"side"`
	Code   string        `json:"code"`
	Column string        `json:"column"`
	Row    dataset.RowID `json:"-"`
	Reason Reason        `json:"reason"`

	// BestSimilarity is the highest score seen by the fuzzy strategy, 0 otherwise.
	BestSimilarity int `json:"best_similarity,omitempty"`
}

// NonMatchFromCandidate builds the non-match record for an unclaimed candidate.
func NonMatchFromCandidate(side Side, c Candidate, reason Reason) NonMatchRecord {
	return NonMatchRecord{
		Side:   side,
		Code:   c.Code,
		Column: c.Column,
		Row:    c.Row,
		Reason: reason,
	}
}

// String returns a string representation of the NonMatchRecord
func (n NonMatchRecord) String() string {
	return fmt.Sprintf("NonMatch{%s %s %q@%s}", n.Side, n.Reason, n.Code, n.Row)
}

// Summary counts the outcome of one run.
type Summary struct {
	PlatformCandidates int               `json:"platform_candidates"`
	ProviderCandidates int               `json:"provider_candidates"`
	Matches            int               `json:"matches"`
	MatchesByType      map[MatchType]int `json:"matches_by_type"`
	PlatformOnly       int               `json:"platform_only"`
	ProviderOnly       int               `json:"provider_only"`
	Suppressed         int               `json:"suppressed"`
	SkippedRows        int               `json:"skipped_rows"`
}

// NewSummary tallies matches by type.
func NewSummary(platformCandidates, providerCandidates int, matches []MatchRecord, platformOnly, providerOnly []NonMatchRecord) Summary {
	s := Summary{
		PlatformCandidates: platformCandidates,
		ProviderCandidates: providerCandidates,
		Matches:            len(matches),
		MatchesByType:      make(map[MatchType]int),
		PlatformOnly:       len(platformOnly),
		ProviderOnly:       len(providerOnly),
	}
	for _, m := range matches {
		s.MatchesByType[m.Type]++
	}
	return s
}

// String returns a one-line description of the Summary
func (s Summary) String() string {
	return fmt.Sprintf("candidates %d/%d, matches %d (exact %d, within-text %d, fuzzy %d), platform-only %d, provider-only %d",
		s.PlatformCandidates, s.ProviderCandidates, s.Matches,
		s.MatchesByType[MatchTypeExact], s.MatchesByType[MatchTypeWithinText], s.MatchesByType[MatchTypeFuzzy],
		s.PlatformOnly, s.ProviderOnly)
}
