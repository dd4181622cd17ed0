// Package matcher links platform candidates to provider candidates.
//
// Three strategies are available:
//   - Exact: the first provider candidate whose code equals the platform
//     code, or whose source text contains it, wins.
//   - Fuzzy: containment short-circuits with similarity 100; otherwise the
//     highest edit-similarity provider code is accepted when it reaches the
//     threshold.
//   - Fan-out: every provider cell containing the platform code yields its
//     own match, and provider rows are classified as matched or unmatched.
//
// Exact and fuzzy are first-match-wins and classify candidates; fan-out
// classifies provider rows. They are kept as separate strategies.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig(), log)
//	outcome := engine.MatchFuzzy(platformCandidates, providerCandidates, 85)
package matcher

import (
	"fmt"
)

// Mode selects the candidate comparison used by Match
type Mode string

const (
	// ModeExact links codes by equality or containment
	ModeExact Mode = "exact"
	// ModeFuzzy adds edit-similarity scoring on top of containment
	ModeFuzzy Mode = "fuzzy"
)

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// DefaultThreshold is the fuzzy acceptance score used when none is configured.
const DefaultThreshold = 85

// Config holds the matching configuration
type Config struct {
	// Mode is the comparison Match dispatches to.
	Mode Mode `json:"mode" mapstructure:"comparison_mode"`

	// Threshold is the minimum fuzzy similarity (0-100). It is applied as
	// given; values outside the range simply accept everything or nothing.
	Threshold int `json:"threshold" mapstructure:"similarity_threshold"`

	// Workers bounds the goroutines used for scoring. 1 runs sequentially.
	Workers int `json:"workers" mapstructure:"workers"`
}

// DefaultConfig returns a sequential exact-match configuration
func DefaultConfig() *Config {
	return &Config{
		Mode:      ModeExact,
		Threshold: DefaultThreshold,
		Workers:   1,
	}
}

// Validate checks the mode and worker count. The threshold is not range
// checked.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeExact, ModeFuzzy:
	default:
		return fmt.Errorf("unknown comparison mode %q", c.Mode)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}
	return nil
}
