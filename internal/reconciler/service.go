// Package reconciler runs one reconciliation: it scopes the platform rows to
// a gateway, extracts tracking codes, pairs them with the provider data and
// assembles the five report tables.
//
// Example usage:
//
//	svc, err := reconciler.NewService(cfg, parsers.NewLoader(nil, nil, log), log)
//	result, err := svc.Run(ctx, &reconciler.Request{
//		PlatformFile: "platform.xlsx",
//		ProviderFile: "provider.csv",
//		GatewayName:  "sep",
//	})
//	if result.Status == reconciler.StatusNoData {
//		fmt.Println(result.NoDataReason)
//	}
package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/extractor"
	"tracking-reconciliation-service/internal/matcher"
	"tracking-reconciliation-service/internal/models"
	"tracking-reconciliation-service/internal/parsers"
	"tracking-reconciliation-service/internal/reporter"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// Request names the files of one run.
type Request struct {
	PlatformFile string
	ProviderFile string
	// GatewayName overrides Config.GatewayName when set.
	GatewayName string
}

// Validate validates the request
func (r *Request) Validate() error {
	if r.PlatformFile == "" {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "platform_file", r.PlatformFile, nil).
			WithSuggestion("pass the platform export with --platform")
	}
	if r.ProviderFile == "" {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "provider_file", r.ProviderFile, nil).
			WithSuggestion("pass the provider export with --provider")
	}
	return nil
}

// Progress describes how far a run has got.
type Progress struct {
	TotalSteps     int     `json:"total_steps"`
	CompletedSteps int     `json:"completed_steps"`
	CurrentStep    string  `json:"current_step"`
	Percent        float64 `json:"percent"`
}

// ProgressCallback is called after every completed step
type ProgressCallback func(Progress)

const (
	stepLoad     = "load"
	stepFilter   = "filter"
	stepExtract  = "extract"
	stepMatch    = "match"
	stepAssemble = "assemble"
	totalSteps   = 5
)

// Service runs reconciliations. It holds no per-run state and is safe for
// concurrent use once its progress callbacks are registered.
type Service struct {
	config    *Config
	loader    *parsers.Loader
	extractor *extractor.Extractor
	engine    *matcher.Engine
	assembler *reporter.Assembler
	patterns  *extractor.PatternSet
	logger    logger.Logger

	mu        sync.RWMutex
	callbacks []ProgressCallback
}

// NewService creates a reconciliation service. A nil loader means files are
// read from the OS filesystem.
func NewService(config *Config, loader *parsers.Loader, log logger.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	log = logger.OrGlobal(log)
	if loader == nil {
		loader = parsers.NewLoader(nil, nil, log)
	}

	patterns := config.Patterns
	if patterns == nil {
		var err error
		if patterns, err = extractor.BuiltinPatternSet(extractor.DefaultPatternSet); err != nil {
			return nil, err
		}
	}

	svcLog := log.WithComponent("reconciler")
	svcLog.WithFields(logger.Fields{
		"patterns":        patterns.String(),
		"comparison_mode": config.ComparisonMode,
		"match_policy":    config.MatchPolicy,
		"execution_mode":  config.Execution.Mode,
	}).Debug("Created reconciliation service")

	return &Service{
		config:    config,
		loader:    loader,
		extractor: extractor.New(config.Execution, log),
		engine:    matcher.NewEngine(config.matcherConfig(), log),
		assembler: reporter.NewAssembler(log),
		patterns:  patterns,
		logger:    svcLog,
	}, nil
}

// Config returns the service configuration
func (s *Service) Config() *Config {
	return s.config
}

// AddProgressCallback registers a callback for step progress
func (s *Service) AddProgressCallback(cb ProgressCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

func (s *Service) notify(step string, completed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Progress{
		TotalSteps:     totalSteps,
		CompletedSteps: completed,
		CurrentStep:    step,
		Percent:        float64(completed) / float64(totalSteps) * 100,
	}
	for _, cb := range s.callbacks {
		cb(p)
	}
}

// Run loads both files and reconciles them. Load failures are returned as
// errors; a run with nothing to reconcile returns a StatusNoData result.
func (s *Service) Run(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	platform, provider, err := s.loader.LoadPair(ctx, req.PlatformFile, req.ProviderFile)
	if err != nil {
		return nil, err
	}
	s.notify(stepLoad, 1)

	gateway := req.GatewayName
	if gateway == "" {
		gateway = s.config.GatewayName
	}
	return s.reconcile(ctx, platform, provider, gateway)
}

// RunDatasets reconciles datasets that are already in memory, scoped to
// Config.GatewayName.
func (s *Service) RunDatasets(ctx context.Context, platform, provider *dataset.Dataset) (*Result, error) {
	s.notify(stepLoad, 1)
	return s.reconcile(ctx, platform, provider, s.config.GatewayName)
}

func (s *Service) reconcile(ctx context.Context, platform, provider *dataset.Dataset, gateway string) (*Result, error) {
	runID := uuid.New()
	policy := s.config.policyFor(gateway)
	log := s.logger.WithField("run_id", runID.String())
	op := logger.NewOperationLogger("reconcile", log)
	if policy == PolicyFanOut && s.config.ComparisonMode == matcher.ModeFuzzy {
		op.Warning("Fan-out matches by containment; comparison mode and similarity threshold are ignored", logger.Fields{
			"comparison_mode":      s.config.ComparisonMode,
			"similarity_threshold": s.config.SimilarityThreshold,
			"match_policy":         s.config.MatchPolicy,
		})
	}

	result := &Result{
		RunID:    runID,
		Gateway:  gateway,
		Policy:   policy,
		Provider: provider,
	}

	filtered := platform
	if gateway != "" {
		var status dataset.FilterStatus
		filtered, status = dataset.FilterByGateway(platform, gateway, s.config.GatewayColumn)
		switch status {
		case dataset.FilterMissingColumn:
			return s.noData(op, result, NoDataMissingGatewayColumn), nil
		case dataset.FilterEmpty:
			return s.noData(op, result, NoDataEmptyFilter), nil
		}
	}
	result.Filtered = filtered
	op.Step(stepFilter, logger.Fields{
		"gateway":       gateway,
		"platform_rows": platform.Len(),
		"in_scope_rows": filtered.Len(),
	})
	s.notify(stepFilter, 2)

	scope := extractor.AllColumns()
	if len(s.config.PlatformTrackingColumns) > 0 {
		scope = extractor.Columns(s.config.PlatformTrackingColumns...)
	}

	// Without platform codes a fan-out run has nothing to search for. A
	// first-match run still reports every provider candidate as provider-only.
	var platformCandidates []models.Candidate
	if len(scope.Resolve(filtered)) == 0 {
		if policy == PolicyFanOut {
			return s.noData(op, result, NoDataNoTrackingColumns), nil
		}
		op.Warning("No tracking columns in platform data", logger.Fields{
			"columns": s.config.PlatformTrackingColumns,
		})
	} else {
		var err error
		platformCandidates, err = s.extractor.Extract(ctx, filtered, scope, s.patterns)
		if err != nil {
			op.Error(err, "Platform extraction failed")
			return nil, err
		}
	}
	result.PlatformCandidates = platformCandidates
	if len(platformCandidates) == 0 && policy == PolicyFanOut {
		return s.noData(op, result, NoDataNoPlatformCodes), nil
	}

	var providerCandidates []models.Candidate
	if policy == PolicyFirstMatch {
		var err error
		providerCandidates, err = s.extractor.Extract(ctx, provider, extractor.AllColumns(), s.patterns)
		if err != nil {
			op.Error(err, "Provider extraction failed")
			return nil, err
		}
	}
	result.ProviderCandidates = providerCandidates
	op.Step(stepExtract, logger.Fields{
		"platform_candidates": len(platformCandidates),
		"provider_candidates": len(providerCandidates),
	})
	s.notify(stepExtract, 3)

	suppressed := 0
	switch policy {
	case PolicyFanOut:
		out := s.engine.FanOut(platformCandidates, provider)
		result.Matches = out.Matches
		result.NonMatchesPlatform = out.OnlyPlatform
		result.NonMatchesProvider = out.UnmatchedRows
	default:
		out := s.engine.Match(platformCandidates, providerCandidates)
		result.Matches = out.Matches
		result.NonMatchesPlatform = out.OnlyA
		result.NonMatchesProvider = out.OnlyB
		suppressed = len(out.Suppressed)
	}
	op.Step(stepMatch, logger.Fields{
		"policy":   policy,
		"matches":  len(result.Matches),
		"platform": len(result.NonMatchesPlatform),
		"provider": len(result.NonMatchesProvider),
	})
	s.notify(stepMatch, 4)

	result.Report = s.assembler.Assemble(reporter.AssemblyInput{
		FilteredPlatform:   filtered,
		Provider:           provider,
		Matches:            result.Matches,
		NonMatchesPlatform: result.NonMatchesPlatform,
		NonMatchesProvider: result.NonMatchesProvider,
	})

	result.Summary = models.NewSummary(len(platformCandidates), len(providerCandidates),
		result.Matches, result.NonMatchesPlatform, result.NonMatchesProvider)
	result.Summary.Suppressed = suppressed
	result.Summary.SkippedRows = result.Report.Skipped
	result.Status = StatusOK
	s.notify(stepAssemble, totalSteps)

	op.Success("Reconciliation completed", logger.Fields{
		"summary": result.Summary.String(),
	})
	return result, nil
}

func (s *Service) noData(op *logger.OperationLogger, result *Result, reason NoDataReason) *Result {
	result.Status = StatusNoData
	result.NoDataReason = reason
	op.Warning("Nothing to reconcile", logger.Fields{
		"reason":  reason.String(),
		"gateway": result.Gateway,
	})
	s.notify(fmt.Sprintf("no data: %s", reason), totalSteps)
	return result
}
