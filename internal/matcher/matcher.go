package matcher

import (
	"github.com/sourcegraph/conc/iter"

	"tracking-reconciliation-service/internal/models"
	"tracking-reconciliation-service/pkg/logger"
)

// Engine runs the matching strategies. It holds no per-run state and may be
// shared between runs.
type Engine struct {
	Config *Config
	logger logger.Logger
}

// Outcome is the result of a first-match-wins strategy. Every platform
// candidate is in Matches or OnlyA; every provider candidate is claimed by a
// match or sits in exactly one of OnlyB and Suppressed.
type Outcome struct {
	Matches []models.MatchRecord
	OnlyA   []models.NonMatchRecord
	OnlyB   []models.NonMatchRecord
	// Suppressed holds provider candidates that were not claimed but are
	// close enough to a platform candidate not to be reported as provider-only.
	Suppressed []models.Candidate
}

// aResult is the per-platform-candidate search result.
type aResult struct {
	hit        int
	matchType  models.MatchType
	similarity int
}

// NewEngine creates an engine. A nil config means DefaultConfig.
func NewEngine(config *Config, log logger.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		Config: config,
		logger: logger.OrGlobal(log).WithComponent("matcher"),
	}
}

// Match dispatches to MatchExact or MatchFuzzy according to Config.Mode.
func (e *Engine) Match(a, b []models.Candidate) *Outcome {
	if e.Config.Mode == ModeFuzzy {
		return e.MatchFuzzy(a, b, e.Config.Threshold)
	}
	return e.MatchExact(a, b)
}

// MatchExact links every candidate of a to the first candidate of b, in b's
// scan order, whose code equals it or whose source text contains it. Equal
// codes give an exact match, containment gives within-text.
//
// Unclaimed b candidates whose code occurs in some a source text are
// suppressed rather than reported as provider-only.
func (e *Engine) MatchExact(a, b []models.Candidate) *Outcome {
	index := NewCandidateIndex(b)

	results := mapCandidates(e.workers(), a, func(c *models.Candidate) aResult {
		hit := index.FirstHit(c.Code)
		if hit < 0 {
			return aResult{hit: -1}
		}
		mt := models.MatchTypeWithinText
		if b[hit].Code == c.Code {
			mt = models.MatchTypeExact
		}
		return aResult{hit: hit, matchType: mt, similarity: models.MaxSimilarity}
	})

	out, claimed := e.reduce(a, b, results)

	aIndex := NewCandidateIndex(a)
	suppress := mapCandidates(e.workers(), b, func(c *models.Candidate) bool {
		return aIndex.AnyTextContains(c.Code)
	})
	e.classifyB(out, b, claimed, suppress)

	e.logOutcome("exact", out)
	return out
}

// MatchFuzzy links every candidate of a to a candidate of b. The first b
// candidate whose source text contains the code wins with similarity 100
// regardless of threshold. Otherwise the b candidate with the highest
// Similarity wins, the earliest on ties, if its score is at least threshold.
//
// An unclaimed b candidate is suppressed when its code occurs in some a
// source text or scores at least threshold against some a code.
func (e *Engine) MatchFuzzy(a, b []models.Candidate, threshold int) *Outcome {
	index := NewCandidateIndex(b)

	results := mapCandidates(e.workers(), a, func(c *models.Candidate) aResult {
		if hit := index.FirstContaining(c.Code); hit >= 0 {
			return aResult{hit: hit, matchType: models.MatchTypeWithinText, similarity: models.MaxSimilarity}
		}

		best, bestScore := -1, 0
		for j := range b {
			if score := Similarity(c.Code, b[j].Code); score > bestScore {
				best, bestScore = j, score
			}
		}
		if best >= 0 && bestScore >= threshold {
			return aResult{hit: best, matchType: models.MatchTypeFuzzy, similarity: bestScore}
		}
		return aResult{hit: -1, similarity: bestScore}
	})

	out, claimed := e.reduce(a, b, results)

	aIndex := NewCandidateIndex(a)
	suppress := mapCandidates(e.workers(), b, func(c *models.Candidate) bool {
		if aIndex.AnyTextContains(c.Code) {
			return true
		}
		for j := range a {
			if Similarity(c.Code, a[j].Code) >= threshold {
				return true
			}
		}
		return false
	})
	e.classifyB(out, b, claimed, suppress)

	e.logOutcome("fuzzy", out)
	return out
}

// reduce turns per-candidate results into match and platform-only records in
// a's order, and reports which b positions were claimed.
func (e *Engine) reduce(a, b []models.Candidate, results []aResult) (*Outcome, []bool) {
	out := &Outcome{}
	claimed := make([]bool, len(b))

	for i, r := range results {
		if r.hit < 0 {
			nm := models.NonMatchFromCandidate(models.SidePlatform, a[i], models.ReasonPlatformOnly)
			nm.BestSimilarity = r.similarity
			out.OnlyA = append(out.OnlyA, nm)
			continue
		}
		claimed[r.hit] = true
		target := b[r.hit]
		out.Matches = append(out.Matches, models.MatchRecord{
			PlatformCode:   a[i].Code,
			PlatformColumn: a[i].Column,
			PlatformRow:    a[i].Row,
			ProviderCode:   target.Code,
			ProviderColumn: target.Column,
			ProviderRow:    target.Row,
			Type:           r.matchType,
			Similarity:     r.similarity,
		})
	}
	return out, claimed
}

func (e *Engine) classifyB(out *Outcome, b []models.Candidate, claimed, suppress []bool) {
	for j, c := range b {
		switch {
		case claimed[j]:
		case suppress[j]:
			out.Suppressed = append(out.Suppressed, c)
		default:
			out.OnlyB = append(out.OnlyB, models.NonMatchFromCandidate(models.SideProvider, c, models.ReasonProviderOnly))
		}
	}
}

func (e *Engine) workers() int {
	if e.Config.Workers < 1 {
		return 1
	}
	return e.Config.Workers
}

func (e *Engine) logOutcome(strategy string, out *Outcome) {
	e.logger.WithFields(logger.Fields{
		"strategy":      strategy,
		"matches":       len(out.Matches),
		"platform_only": len(out.OnlyA),
		"provider_only": len(out.OnlyB),
		"suppressed":    len(out.Suppressed),
	}).Debug("Matching completed")
}

// mapCandidates applies f to every candidate and returns the results in input
// order. With more than one worker the calls run on a bounded conc pool; f
// must only read shared state.
func mapCandidates[R any](workers int, in []models.Candidate, f func(*models.Candidate) R) []R {
	if workers <= 1 || len(in) < 2 {
		out := make([]R, len(in))
		for i := range in {
			out[i] = f(&in[i])
		}
		return out
	}
	mapper := iter.Mapper[models.Candidate, R]{MaxGoroutines: workers}
	return mapper.Map(in, f)
}
