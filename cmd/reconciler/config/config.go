// Package config turns viper settings (config file, RECONCILER_* environment
// variables and command-line flags) into engine configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/extractor"
	"tracking-reconciliation-service/internal/matcher"
	"tracking-reconciliation-service/internal/parsers"
	"tracking-reconciliation-service/internal/reconciler"
	"tracking-reconciliation-service/internal/reporter"
	"tracking-reconciliation-service/pkg/errors"
	"tracking-reconciliation-service/pkg/logger"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "RECONCILER"

// DefaultOutputPath is where the report goes when no path is configured.
const DefaultOutputPath = "reconciliation_report.xlsx"

// Settings mirrors the configuration keys.
type Settings struct {
	PlatformFile string `mapstructure:"platform"`
	ProviderFile string `mapstructure:"provider"`

	PlatformTrackingColumns []string               `mapstructure:"platform_tracking_columns"`
	Gateway                 string                 `mapstructure:"gateway"`
	GatewayColumn           string                 `mapstructure:"gateway_column"`
	ComparisonMode          matcher.Mode           `mapstructure:"comparison_mode"`
	SimilarityThreshold     int                    `mapstructure:"similarity_threshold"`
	MatchPolicy             reconciler.MatchPolicy `mapstructure:"match_policy"`

	Patterns  PatternSettings    `mapstructure:"patterns"`
	Execution extractor.Options  `mapstructure:"execution"`
	Load      parsers.LoadConfig `mapstructure:"load"`
	Output    OutputSettings     `mapstructure:"output"`
	Log       LogSettings        `mapstructure:"log"`
}

// PatternSettings selects a built-in pattern set or supplies expressions.
type PatternSettings struct {
	Name        string   `mapstructure:"name"`
	Version     int      `mapstructure:"version"`
	Expressions []string `mapstructure:"expressions"`
}

// OutputSettings configures the report destination.
type OutputSettings struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	execution := extractor.DefaultOptions()
	load := parsers.DefaultLoadConfig()

	v.SetDefault("platform_tracking_columns", reconciler.DefaultTrackingColumns)
	v.SetDefault("gateway", "")
	v.SetDefault("gateway_column", dataset.DefaultGatewayColumn)
	v.SetDefault("comparison_mode", string(matcher.ModeExact))
	v.SetDefault("similarity_threshold", matcher.DefaultThreshold)
	v.SetDefault("match_policy", string(reconciler.PolicyAuto))
	v.SetDefault("patterns.name", extractor.DefaultPatternSet)
	v.SetDefault("patterns.version", 1)
	v.SetDefault("patterns.expressions", []string{})
	v.SetDefault("execution.mode", string(execution.Mode))
	v.SetDefault("execution.workers", execution.Workers)
	v.SetDefault("execution.chunk_size", execution.ChunkSize)
	v.SetDefault("load.trim_leading_space", load.TrimLeadingSpace)
	v.SetDefault("load.skip_empty_rows", load.SkipEmptyRows)
	v.SetDefault("output.format", "")
	v.SetDefault("output.path", "")
	v.SetDefault("log.level", string(logger.InfoLevel))
	v.SetDefault("log.format", string(logger.TextFormat))
}

// BindEnv makes every key readable from RECONCILER_<KEY> with dots and
// dashes replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes v into Settings. Comma-separated strings are accepted for
// list keys so environment variables can carry them.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&s, hook); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "settings", v.ConfigFileUsed(), err)
	}
	s.PlatformTrackingColumns = trimAll(s.PlatformTrackingColumns)
	return &s, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, val := range values {
		if val = strings.TrimSpace(val); val != "" {
			out = append(out, val)
		}
	}
	return out
}

// PatternSet compiles the configured expressions, or looks up the named
// built-in set when there are none.
func (s *Settings) PatternSet() (*extractor.PatternSet, error) {
	if len(s.Patterns.Expressions) > 0 {
		name := s.Patterns.Name
		if name == "" || name == extractor.DefaultPatternSet {
			name = "custom"
		}
		return extractor.CompilePatternSet(name, s.Patterns.Version, s.Patterns.Expressions)
	}
	name := s.Patterns.Name
	if name == "" {
		name = extractor.DefaultPatternSet
	}
	return extractor.BuiltinPatternSet(name)
}

// ReconcilerConfig builds and validates the run configuration.
func (s *Settings) ReconcilerConfig() (*reconciler.Config, error) {
	patterns, err := s.PatternSet()
	if err != nil {
		return nil, err
	}

	cfg := reconciler.DefaultConfig()
	cfg.PlatformTrackingColumns = s.PlatformTrackingColumns
	cfg.GatewayName = strings.TrimSpace(s.Gateway)
	if s.GatewayColumn != "" {
		cfg.GatewayColumn = s.GatewayColumn
	}
	cfg.ComparisonMode = matcher.Mode(strings.ToLower(string(s.ComparisonMode)))
	cfg.SimilarityThreshold = s.SimilarityThreshold
	cfg.MatchPolicy = reconciler.MatchPolicy(strings.ToLower(string(s.MatchPolicy)))
	cfg.Patterns = patterns
	cfg.Execution = s.Execution

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig returns the loader options.
func (s *Settings) LoadConfig() *parsers.LoadConfig {
	load := s.Load
	return &load
}

// LoggerConfig returns the logger configuration. Verbose forces debug level.
func (s *Settings) LoggerConfig(verbose bool) *logger.Config {
	cfg := logger.DefaultConfig()
	if verbose {
		cfg = logger.DebugConfig()
	}
	if s.Log.Level != "" {
		cfg.Level = logger.Level(strings.ToLower(s.Log.Level))
	}
	if s.Log.Format != "" {
		cfg.Format = logger.Format(strings.ToLower(s.Log.Format))
	}
	if verbose {
		cfg.Level = logger.DebugLevel
	}
	return cfg
}

// OutputTarget resolves the report path and format. An empty path becomes
// DefaultOutputPath, suffixed with the gateway name when one is set; an
// empty format is inferred from the path.
func (s *Settings) OutputTarget() (reporter.OutputFormat, string, error) {
	path := s.Output.Path
	if path == "" {
		path = DefaultOutputPath
		if gw := strings.TrimSpace(s.Gateway); gw != "" {
			path = fmt.Sprintf("reconciliation_report_%s.xlsx", gw)
		}
	}

	if s.Output.Format != "" {
		format := reporter.OutputFormat(strings.ToLower(s.Output.Format))
		if !format.IsValid() {
			return "", "", errors.ConfigurationError(errors.CodeInvalidConfig, "output.format", s.Output.Format, nil).
				WithSuggestion("use xlsx, csv, json or sqlite")
		}
		return format, path, nil
	}

	format, ok := reporter.FormatFromPath(path)
	if !ok {
		return "", "", errors.ConfigurationError(errors.CodeInvalidConfig, "output.path", path, nil).
			WithSuggestion("use a .xlsx, .json or .sqlite path, a directory for csv, or set output.format")
	}
	return format, path, nil
}
