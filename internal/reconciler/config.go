package reconciler

import (
	"fmt"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/extractor"
	"tracking-reconciliation-service/internal/matcher"
	"tracking-reconciliation-service/pkg/errors"
)

// MatchPolicy selects how platform codes are paired with provider data.
type MatchPolicy string

const (
	// PolicyAuto fans out when a gateway is named and uses first-match otherwise.
	PolicyAuto MatchPolicy = "auto"
	// PolicyFirstMatch pairs candidate lists with the exact or fuzzy strategy.
	PolicyFirstMatch MatchPolicy = "first-match"
	// PolicyFanOut searches every provider cell for every platform code.
	PolicyFanOut MatchPolicy = "fan-out"
)

// IsValid reports whether the policy is known
func (p MatchPolicy) IsValid() bool {
	switch p {
	case PolicyAuto, PolicyFirstMatch, PolicyFanOut:
		return true
	}
	return false
}

// DefaultTrackingColumns are the platform columns scanned when none are configured.
var DefaultTrackingColumns = []string{"gateway_tracking_code", "gateway_identifier", "meta_data_1"}

// Config holds configuration options for a reconciliation run
type Config struct {
	// PlatformTrackingColumns is the ordered allow-list of platform columns
	// to extract codes from. Empty means every column.
	PlatformTrackingColumns []string
	// GatewayColumn names the platform column FilterByGateway reads.
	GatewayColumn string
	// GatewayName scopes the platform rows. Empty means no filtering.
	GatewayName string

	ComparisonMode      matcher.Mode
	SimilarityThreshold int
	MatchPolicy         MatchPolicy

	// Patterns defines what counts as a code. Nil means the default set.
	Patterns  *extractor.PatternSet
	Execution extractor.Options
}

// DefaultConfig returns a default configuration for the reconciliation service
func DefaultConfig() *Config {
	columns := make([]string, len(DefaultTrackingColumns))
	copy(columns, DefaultTrackingColumns)

	return &Config{
		PlatformTrackingColumns: columns,
		GatewayColumn:           dataset.DefaultGatewayColumn,
		ComparisonMode:          matcher.ModeExact,
		SimilarityThreshold:     matcher.DefaultThreshold,
		MatchPolicy:             PolicyAuto,
		Execution:               extractor.DefaultOptions(),
	}
}

// Validate validates the configuration. The similarity threshold is used as
// given and is not range checked.
func (c *Config) Validate() error {
	if c.ComparisonMode != matcher.ModeExact && c.ComparisonMode != matcher.ModeFuzzy {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "comparison_mode", c.ComparisonMode, nil).
			WithSuggestion("use 'exact' or 'fuzzy'")
	}
	if !c.MatchPolicy.IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "match_policy", c.MatchPolicy, nil).
			WithSuggestion(fmt.Sprintf("use '%s', '%s' or '%s'", PolicyAuto, PolicyFirstMatch, PolicyFanOut))
	}
	if err := c.Execution.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "execution", c.Execution, err)
	}
	return nil
}

// policyFor resolves PolicyAuto for a run.
func (c *Config) policyFor(gatewayName string) MatchPolicy {
	if c.MatchPolicy != PolicyAuto {
		return c.MatchPolicy
	}
	if gatewayName != "" {
		return PolicyFanOut
	}
	return PolicyFirstMatch
}

// matcherConfig scores on the extraction workers unless the run is sequential.
func (c *Config) matcherConfig() *matcher.Config {
	workers := 1
	if c.Execution.Mode != extractor.ModeSequential {
		workers = c.Execution.Workers
	}
	return &matcher.Config{
		Mode:      c.ComparisonMode,
		Threshold: c.SimilarityThreshold,
		Workers:   workers,
	}
}
